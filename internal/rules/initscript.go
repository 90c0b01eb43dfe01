package rules

import (
	"strings"
)

// validateInitScript permits the platform's setup script only when it is
// invoked directly: no interpreter, no environment prefix and, on Unix, an
// explicit path such as ./init.sh.
func validateInitScript(v *Validator, cmd ParsedCommand, _ int) Result {
	p := v.policy.Platform()
	if !v.policy.IsSetupScript(cmd.Base) {
		return block(RuleInitScript, "%s is not a setup script on %s", cmd.Base, p)
	}
	if cmd.EnvAssignments > 0 {
		return block(RuleInitScript, "setup script must be invoked directly, without environment assignments")
	}
	if p.IsUnix() && !strings.Contains(cmd.Args[0], "/") {
		return block(RuleInitScript, "setup script must be invoked by path, e.g. ./%s", cmd.Base)
	}
	return allow()
}
