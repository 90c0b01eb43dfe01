package rules

import (
	"strings"
)

// regexMeta are pkill pattern characters that widen a match beyond a literal.
const regexMeta = `*+?[](){}|^$\`

// validatePkill permits killing dev processes by exact name, or with -f by a
// pattern naming a project script.
func validatePkill(v *Validator, cmd ParsedCommand, _ int) Result {
	args := cmd.Args[1:]
	fullMatch := false
	i := 0
	for ; i < len(args) && strings.HasPrefix(args[i], "-"); i++ {
		if args[i] == "-f" || args[i] == "--full" {
			fullMatch = true
			continue
		}
		return block(RulePkill, "pkill option %q is not allowed; only -f is permitted", args[i])
	}

	rest := args[i:]
	if len(rest) == 0 {
		return block(RulePkill, "pkill requires a process name or pattern")
	}
	if len(rest) > 1 {
		return block(RulePkill, "pkill takes a single pattern; quote multi-word -f patterns")
	}

	target := rest[0]
	words := strings.Fields(target)
	if len(words) == 0 {
		return block(RulePkill, "pkill requires a process name or pattern")
	}
	for _, w := range words {
		if v.policy.IsProtectedProcess(w) {
			return block(RulePkill, "refusing to signal protected process %q", w)
		}
	}
	if strings.ContainsAny(target, regexMeta) {
		return block(RulePkill, "regular-expression patterns are not allowed in pkill targets")
	}

	if len(words) == 1 && !strings.ContainsAny(target, `/\`) && v.policy.IsDevProcess(target) {
		return allow()
	}
	if !fullMatch {
		return block(RulePkill, "process %q is not in the dev-process allowlist", target)
	}

	for _, w := range words {
		if strings.HasPrefix(w, "/") || strings.HasPrefix(w, "~") {
			return block(RulePkill, "absolute paths are not allowed in pkill -f patterns")
		}
	}
	for _, w := range words {
		if looksLikeScriptPath(w) || v.policy.MatchesDevScript(w) {
			return allow()
		}
	}
	return block(RulePkill, "pkill -f pattern %q does not name a project script or dev process", target)
}

// looksLikeScriptPath reports whether w is a relative path ending in a file
// name with an extension, such as ./scripts/server.js.
func looksLikeScriptPath(w string) bool {
	if !strings.Contains(w, "/") || strings.HasSuffix(w, "/") {
		return false
	}
	name := w[strings.LastIndex(w, "/")+1:]
	dot := strings.LastIndex(name, ".")
	return dot > 0 && dot < len(name)-1
}

// validateTaskkill permits /IM <dev process>.exe with an optional /F.
func validateTaskkill(v *Validator, cmd ParsedCommand, _ int) Result {
	args := cmd.Args[1:]
	var images []string
	for i := 0; i < len(args); i++ {
		flag := strings.ToLower(args[i])
		if strings.HasPrefix(flag, "-") {
			flag = "/" + flag[1:]
		}
		switch flag {
		case "/f":
		case "/im":
			if i+1 >= len(args) {
				return block(RuleTaskkill, "taskkill /IM requires an image name")
			}
			i++
			images = append(images, args[i])
		case "/pid":
			return block(RuleTaskkill, "taskkill /PID is not allowed; use /IM <name>.exe")
		default:
			return block(RuleTaskkill, "taskkill option %q is not allowed", args[i])
		}
	}

	if len(images) == 0 {
		return block(RuleTaskkill, "taskkill requires /IM <name>.exe")
	}
	for _, img := range images {
		lower := strings.ToLower(img)
		if !strings.HasSuffix(lower, ".exe") {
			return block(RuleTaskkill, "taskkill image %q must end in .exe", img)
		}
		if v.policy.IsProtectedProcess(lower) {
			return block(RuleTaskkill, "refusing to kill protected process %q", img)
		}
		if !v.policy.IsDevProcess(lower) {
			return block(RuleTaskkill, "process %q is not in the dev-process allowlist", img)
		}
	}
	return allow()
}
