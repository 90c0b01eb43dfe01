package rules

import (
	"regexp"
	"strings"
)

// cmdPos anchors a pattern at a command position: the start of the input or
// a chain or grouping character. Quoted text is an argument, not a command;
// wrapper payloads are checked again once unquoted. Optional KEY=value words,
// transparent prefixes (env, nohup, xargs...) and a directory path may precede
// the command name.
const cmdPos = `(?:^|[;&|(){\n])\s*` +
	`(?:[a-z_][a-z0-9_]*=\S*\s+)*` +
	`(?:(?:env|nohup|time|nice|xargs|command|builtin|exec|start)\s+(?:-\S+\s+)*)*` +
	`(?:\S*[/\\])?`

// DenyPatternDef defines one catastrophic pattern.
type DenyPatternDef struct {
	Name    string
	Pattern string
	Reason  string
}

// DenyMatch is a denylist hit.
type DenyMatch struct {
	Name    string
	Reason  string
	Matched string
}

type compiledDeny struct {
	name   string
	re     *regexp.Regexp
	reason string
}

// Denylist matches a command string against known-catastrophic patterns. It
// runs before any parsing and is applied anywhere in the string, including
// inside quoted wrapper payloads.
type Denylist struct {
	patterns []compiledDeny
}

var defaultDenyPatterns = []DenyPatternDef{
	{
		Name: "destructive-delete",
		Pattern: `\brm\s+(?:[^;&|\n]*\s)?(?:-[a-z]*r[a-z]*|--recursive)\s+(?:[^;&|\n]*\s)?` +
			`["']?(?:[/~]|\$\{?home\b|\.\.(?:[/\\"';&|\s]|$)|\.[/\\]?\*?(?:["';&|\s]|$))`,
		Reason: "recursive delete of an absolute, home or parent-relative path",
	},
	{
		Name: "destructive-delete",
		Pattern: `\b(?:remove-item|ri|rm|del|erase|rd|rmdir)\b[^;&|\n]*\s["']?` +
			`(?:[a-z]:\\?(?:\*|windows\b|users\b|program files)?["']?(?:\s|$)|` +
			`(?:%(?:systemroot|windir|userprofile|homepath)%|\$env:(?:systemroot|windir|userprofile))[/\\]?\*?(?:["']|\s|$))`,
		Reason: "recursive delete of a drive root, system or profile directory",
	},
	{
		Name:    "device-write",
		Pattern: `\bdd\b[^;&|\n]*\bof=["']?/dev/`,
		Reason:  "raw write to a block device",
	},
	{
		Name:    "device-write",
		Pattern: `>\s*["']?/dev/(?:sd|hd|vd|xvd|nvme|disk|rdisk|mmcblk)`,
		Reason:  "redirection onto a block device",
	},
	{
		Name:    "device-write",
		Pattern: `\\\\\.\\physicaldrive`,
		Reason:  "raw access to a physical drive",
	},
	{
		Name: "remote-exec",
		Pattern: `\b(?:curl|wget|iwr|irm|invoke-webrequest|invoke-restmethod)\b[^;&\n]*\|\s*(?:sudo\s+)?(?:\S*[/\\])?` +
			`(?:bash|sh|zsh|dash|ksh|fish|python[0-9.]*|perl|ruby|node|php|iex|invoke-expression|powershell|pwsh|cmd)\b`,
		Reason: "piping downloaded content into an interpreter",
	},
	{
		Name:    "privilege-escalation",
		Pattern: cmdPos + `(?:sudo|doas|pkexec|runas|su)(?:\s|$|["'])`,
		Reason:  "privilege escalation",
	},
	{
		Name:    "kill-process",
		Pattern: cmdPos + `(?:kill|killall|tskill|stop-process|spps)(?:\.exe)?(?:\s|$|["'])`,
		Reason:  "unrestricted process termination",
	},
	{
		Name:    "system-power",
		Pattern: cmdPos + `(?:shutdown|reboot|halt|poweroff|restart-computer|stop-computer)(?:\.exe)?(?:\s|$|["'])`,
		Reason:  "system shutdown or reboot",
	},
	{
		Name:    "system-power",
		Pattern: `\b(?:systemctl\s+(?:poweroff|reboot|halt|suspend|hibernate)|init\s+[06])\b`,
		Reason:  "system shutdown or reboot",
	},
	{
		Name:    "disk-format",
		Pattern: cmdPos + `(?:mkfs(?:\.[a-z0-9]+)?|fdisk|sfdisk|parted|wipefs|diskpart)(?:\.exe)?(?:\s|$|["'])`,
		Reason:  "disk partitioning or formatting",
	},
	{
		Name:    "disk-format",
		Pattern: `\b(?:format-volume|clear-disk|initialize-disk)\b`,
		Reason:  "disk partitioning or formatting",
	},
	{
		Name:    "disk-format",
		Pattern: cmdPos + `format(?:\.com)?\s+[a-z]:`,
		Reason:  "disk partitioning or formatting",
	},
	{
		Name:    "registry-delete",
		Pattern: `\breg(?:\.exe)?\s+(?:delete|import|restore)\b`,
		Reason:  "registry modification",
	},
	{
		Name:    "registry-delete",
		Pattern: `\b(?:remove-item|remove-itemproperty|ri|rp)\b[^;&|\n]*(?:\bhk(?:lm|cu|cr|u|cc):|registry::)`,
		Reason:  "registry modification",
	},
	{
		Name: "service-control",
		Pattern: `\b(?:sc(?:\.exe)?\s+(?:stop|delete|config)|net\s+stop|stop-service|remove-service|set-service|` +
			`systemctl\s+(?:stop|disable|mask|kill)|launchctl\s+(?:unload|remove|bootout|stop))\b`,
		Reason: "stopping or reconfiguring a system service",
	},
	{
		Name:    "service-control",
		Pattern: cmdPos + `service\s+\S+\s+stop\b`,
		Reason:  "stopping or reconfiguring a system service",
	},
	{
		Name:    "command-substitution",
		Pattern: `\$\(|` + "`" + `|[<>]\(`,
		Reason:  "command or process substitution hides the executed command",
	},
	{
		Name:    "unsafe-chmod",
		Pattern: `\bchmod\s+(?:-\S+\s+)*[0-7]{3,4}\b`,
		Reason:  "numeric chmod modes",
	},
	{
		Name:    "unsafe-chmod",
		Pattern: `\bchmod\s+(?:[^;&|\n]*\s)?(?:-[a-z]*r[a-z]*|--recursive)(?:\s|$)`,
		Reason:  "recursive chmod",
	},
	{
		Name:    "fork-bomb",
		Pattern: `:\s*\(\s*\)\s*\{[^}]*:\s*\|\s*:`,
		Reason:  "fork bomb",
	},
	{
		Name: "credential-access",
		Pattern: `(?:\.ssh[/\\](?:id_|authorized_keys)|\.aws[/\\]credentials|\.netrc\b|\.git-credentials\b|` +
			`/etc/(?:shadow|sudoers|gshadow)\b|\.gnupg[/\\])`,
		Reason: "access to credential stores",
	},
}

var defaultDenylist = NewDenylist(defaultDenyPatterns)

// NewDenylist compiles defs case-insensitively. An invalid pattern panics:
// a silently skipped entry would weaken the gate.
func NewDenylist(defs []DenyPatternDef) *Denylist {
	d := &Denylist{patterns: make([]compiledDeny, 0, len(defs))}
	for _, def := range defs {
		d.patterns = append(d.patterns, compiledDeny{
			name:   def.Name,
			re:     regexp.MustCompile(`(?i)` + def.Pattern),
			reason: def.Reason,
		})
	}
	return d
}

// Check returns the first pattern matching cmd, or nil. The raw text and its
// Unicode-folded form are both tested.
func (d *Denylist) Check(cmd string) *DenyMatch {
	if m := d.check(cmd); m != nil {
		return m
	}
	if folded := stripInvisible(NormalizeUnicode(cmd)); folded != cmd {
		return d.check(folded)
	}
	return nil
}

func (d *Denylist) check(cmd string) *DenyMatch {
	for _, p := range d.patterns {
		if match := p.re.FindString(cmd); match != "" {
			return &DenyMatch{
				Name:    p.name,
				Reason:  p.reason,
				Matched: strings.TrimSpace(match),
			}
		}
	}
	return nil
}

// Names lists the distinct pattern names in definition order.
func (d *Denylist) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range d.patterns {
		if !seen[p.name] {
			seen[p.name] = true
			names = append(names, p.name)
		}
	}
	return names
}
