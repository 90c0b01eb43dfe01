package rules

import (
	"strings"

	"github.com/AgentShepherd/shellgate/internal/logger"
	"github.com/AgentShepherd/shellgate/internal/policy"
	"github.com/AgentShepherd/shellgate/internal/types"
)

var log = logger.New("rules")

// ruleValidator checks one segment of a command that needs more than an
// allowlist hit. depth is the current wrapper nesting level.
type ruleValidator func(v *Validator, cmd ParsedCommand, depth int) Result

// deepValidators maps a command base to its rule validator. It is filled in
// init because validateWrapper re-enters validate, which reads the map.
var deepValidators map[string]ruleValidator

func init() {
	deepValidators = map[string]ruleValidator{
		"chmod":      validateChmod,
		"pkill":      validatePkill,
		"taskkill":   validateTaskkill,
		"init.sh":    validateInitScript,
		"init.bat":   validateInitScript,
		"init.ps1":   validateInitScript,
		"bash":       validateWrapper,
		"sh":         validateWrapper,
		"zsh":        validateWrapper,
		"cmd":        validateWrapper,
		"powershell": validateWrapper,
		"pwsh":       validateWrapper,
	}
}

// Validator decides whether a command string may run under a Policy. It holds
// no mutable state and is safe for concurrent use.
type Validator struct {
	policy   *policy.Policy
	denylist *Denylist
}

// NewValidator returns a Validator enforcing p with the built-in denylist.
func NewValidator(p *policy.Policy) *Validator {
	return &Validator{policy: p, denylist: defaultDenylist}
}

// NewValidatorWithDenylist returns a Validator using a custom denylist.
func NewValidatorWithDenylist(p *policy.Policy, d *Denylist) *Validator {
	return &Validator{policy: p, denylist: d}
}

// Policy returns the policy the validator enforces.
func (v *Validator) Policy() *policy.Policy { return v.policy }

// Denylist returns the catastrophic-pattern list checked before parsing.
func (v *Validator) Denylist() *Denylist { return v.denylist }

// Validate checks raw and returns the decision. Every failure inside the
// pipeline becomes a rejection; Validate never panics on malformed input.
func (v *Validator) Validate(raw string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("validator panic on %q: %v", truncate(raw, 80), r)
			res = block(RuleParse, "internal validation error")
		}
	}()
	return v.validate(raw, 0)
}

func (v *Validator) validate(raw string, depth int) Result {
	if strings.TrimSpace(raw) == "" {
		return block(RuleParse, "empty command")
	}
	if reason, ok := checkInput(raw); !ok {
		return block(RuleInput, "%s", reason)
	}
	if m := v.denylist.Check(raw); m != nil {
		return block(denyRulePrefix+m.Name, "blocked by %s rule: %s", m.Name, m.Reason)
	}
	if depth > v.policy.MaxWrapperDepth() {
		return block(RuleDepth, "nested-wrapper limit exceeded (max depth %d)", v.policy.MaxWrapperDepth())
	}
	if v.policy.Platform().IsUnix() {
		if reason, ok := checkShellStructure(raw); !ok {
			return block(RuleStructure, "%s", reason)
		}
	}

	cmds, err := Extract(raw)
	if err != nil {
		return block(RuleParse, "could not parse command: %v", err)
	}

	for _, cmd := range cmds {
		if !v.policy.IsAllowed(cmd.Base) {
			return block(RuleAllowlist, "command %q not in allowlist", cmd.Base)
		}
		if !v.policy.RequiresValidation(cmd.Base) {
			continue
		}
		check, ok := deepValidators[cmd.Base]
		if !ok {
			return block(RuleNoHandler, "no validator configured for %q", cmd.Base)
		}
		if r := check(v, cmd, depth); !r.Allowed {
			return r
		}
	}
	return allow()
}

// ForPlatform builds a validator for the default policy of platform.
func ForPlatform(platform types.Platform) *Validator {
	return NewValidator(policy.ForPlatform(platform))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
