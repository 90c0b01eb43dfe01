package rules

import (
	"regexp"
	"strings"
)

var (
	chmodExecRegex    = regexp.MustCompile(`^[ugoa]*\+x$`)
	chmodNumericRegex = regexp.MustCompile(`^[0-7]+$`)
)

// chmodFlags are the options that do not change what chmod modifies.
var chmodFlags = map[string]bool{
	"-v": true, "-c": true, "-f": true,
	"--verbose": true, "--changes": true, "--silent": true, "--quiet": true,
}

// validateChmod permits only adding execute permission to named files.
func validateChmod(_ *Validator, cmd ParsedCommand, _ int) Result {
	var mode string
	var targets []string

	for _, arg := range cmd.Args[1:] {
		if isRecursiveFlag(arg) {
			return block(RuleChmod, "recursive chmod is not allowed")
		}
		if mode == "" {
			if chmodFlags[arg] {
				continue
			}
			if strings.HasPrefix(arg, "--") {
				return block(RuleChmod, "chmod option %q is not allowed", arg)
			}
			mode = arg
			continue
		}
		if strings.HasPrefix(arg, "-") {
			return block(RuleChmod, "chmod option %q after the mode is not allowed", arg)
		}
		targets = append(targets, arg)
	}

	switch {
	case mode == "":
		return block(RuleChmod, "chmod requires a mode and a target file")
	case chmodNumericRegex.MatchString(mode):
		return block(RuleChmod, "numeric chmod mode %q is not allowed; use +x", mode)
	case strings.Contains(mode, "-"):
		return block(RuleChmod, "removing permissions with chmod %q is not allowed", mode)
	case !chmodExecRegex.MatchString(mode):
		return block(RuleChmod, "chmod mode %q is not allowed; only +x, u+x, g+x, o+x or a+x", mode)
	case len(targets) == 0:
		return block(RuleChmod, "chmod requires at least one target file")
	}
	return allow()
}

// isRecursiveFlag matches --recursive and any short option cluster carrying R.
func isRecursiveFlag(arg string) bool {
	if arg == "--recursive" {
		return true
	}
	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return false
	}
	for _, c := range arg[1:] {
		if c < 'a' || c > 'z' {
			if c != 'R' {
				return false
			}
		}
	}
	return strings.ContainsRune(arg[1:], 'R')
}
