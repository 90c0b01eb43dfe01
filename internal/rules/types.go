package rules

import "fmt"

// Result is the outcome of validating one command string. Reason and Rule are
// set only on rejection; Rule names the first rule that failed.
type Result struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

// Rule identifiers reported in Result.Rule.
const (
	RuleInput      = "input"
	RuleStructure  = "structure"
	RuleDepth      = "depth"
	RuleParse      = "parse"
	RuleAllowlist  = "allowlist"
	RuleChmod      = "chmod"
	RulePkill      = "pkill"
	RuleTaskkill   = "taskkill"
	RuleInitScript = "init-script"
	RuleWrapper    = "wrapper"
	RuleNoHandler  = "no-validator"
	denyRulePrefix = "denylist:"
)

func allow() Result {
	return Result{Allowed: true}
}

func block(rule, format string, args ...any) Result {
	return Result{Allowed: false, Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// ParsedCommand is one segment of a command chain.
type ParsedCommand struct {
	// Base is the lower-cased command name with env assignments, path prefix
	// and .exe suffix removed.
	Base string
	// Raw is the trimmed segment text, redirections included.
	Raw string
	// Args holds the quote-stripped words of the command, starting with the
	// command token as written. Environment assignments and anything after the
	// first redirection are excluded.
	Args []string
	// Position is the zero-based index of the segment in the chain.
	Position int
	// Start and End are byte offsets of Raw within the extracted string.
	Start, End int

	// EnvAssignments counts the KEY=value words stripped before the command.
	EnvAssignments int

	prefix string  // Raw up to the first redirection
	fields []field // words of prefix starting at the command token
}

// WrapperInvocation describes an interpreter asked to run inline text.
type WrapperInvocation struct {
	Interpreter string
	InlineFlag  string
	Inline      string
	HasInline   bool
}
