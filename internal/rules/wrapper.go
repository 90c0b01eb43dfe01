package rules

import (
	"errors"
	"fmt"
	"strings"
)

// validateWrapper extracts the inline text handed to an interpreter and
// validates it as a command string one level deeper.
func validateWrapper(v *Validator, cmd ParsedCommand, depth int) Result {
	inv, err := ParseWrapper(cmd)
	if err != nil {
		return block(RuleWrapper, "%s: %s", cmd.Base, wrapperReason(cmd.Base, err))
	}

	r := v.validate(inv.Inline, depth+1)
	if !r.Allowed {
		r.Reason = fmt.Sprintf("%s %s payload: %s", inv.Interpreter, inv.InlineFlag, r.Reason)
	}
	return r
}

func wrapperReason(interp string, err error) string {
	switch {
	case errors.Is(err, errScriptInterpreter):
		if interp == "cmd" {
			return err.Error() + "; use cmd /c <command>"
		}
		return err.Error() + "; run the script directly (e.g. ./init.sh) or pass -c"
	case errors.Is(err, errBareShell):
		return err.Error() + "; pass an inline command"
	}
	return err.Error()
}

// ParseWrapper recognises the inline-command forms of bash/sh/zsh (-c),
// cmd (/c, /k) and powershell/pwsh (-Command, -File). Any other shape,
// including encoded PowerShell commands, is an error.
func ParseWrapper(cmd ParsedCommand) (WrapperInvocation, error) {
	switch cmd.Base {
	case "bash", "sh", "zsh":
		return parsePosixWrapper(cmd)
	case "cmd":
		return parseCmdWrapper(cmd)
	case "powershell", "pwsh":
		return parsePowerShellWrapper(cmd)
	}
	return WrapperInvocation{}, fmt.Errorf("%q is not a recognised interpreter", cmd.Base)
}

// posixShortFlags are harmless single-letter shell options.
const posixShortFlags = "euxvlc"

func parsePosixWrapper(cmd ParsedCommand) (WrapperInvocation, error) {
	args := cmd.Args[1:]
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-o" || a == "+o":
			i++
		case a == "--login" || a == "--noprofile" || a == "--norc":
		case isShortCluster(a, posixShortFlags):
			if !strings.ContainsRune(a, 'c') {
				continue
			}
			if i+1 >= len(args) || strings.TrimSpace(args[i+1]) == "" {
				return WrapperInvocation{}, errMissingPayload
			}
			if i+2 < len(args) {
				return WrapperInvocation{}, errPositionalArgs
			}
			return WrapperInvocation{
				Interpreter: cmd.Base,
				InlineFlag:  "-c",
				Inline:      args[i+1],
				HasInline:   true,
			}, nil
		case strings.HasPrefix(a, "-") || strings.HasPrefix(a, "+"):
			return WrapperInvocation{}, fmt.Errorf("%w %q", errUnsupportedOption, a)
		default:
			return WrapperInvocation{}, fmt.Errorf("%w (%s)", errScriptInterpreter, a)
		}
	}
	return WrapperInvocation{}, errBareShell
}

// isShortCluster reports whether a is "-" followed only by letters from allowed.
func isShortCluster(a, allowed string) bool {
	if len(a) < 2 || a[0] != '-' {
		return false
	}
	for _, c := range a[1:] {
		if !strings.ContainsRune(allowed, c) {
			return false
		}
	}
	return true
}

// cmdSwitches are cmd.exe options that may precede /c or /k.
var cmdSwitches = map[string]bool{
	"/q": true, "/d": true, "/s": true, "/a": true, "/u": true,
	"/e:on": true, "/e:off": true, "/v:on": true, "/v:off": true, "/f:on": true, "/f:off": true,
}

func parseCmdWrapper(cmd ParsedCommand) (WrapperInvocation, error) {
	for i := 1; i < len(cmd.Args); i++ {
		a := strings.ToLower(cmd.Args[i])
		switch {
		case a == "/c" || a == "/k" || a == "/r":
			inline := stripOuterQuotes(cmd.remainder(i))
			if strings.TrimSpace(inline) == "" {
				return WrapperInvocation{}, errMissingPayload
			}
			return WrapperInvocation{
				Interpreter: "cmd",
				InlineFlag:  a,
				Inline:      inline,
				HasInline:   true,
			}, nil
		case cmdSwitches[a]:
		case strings.HasPrefix(a, "/"):
			return WrapperInvocation{}, fmt.Errorf("%w %q", errUnsupportedOption, cmd.Args[i])
		default:
			return WrapperInvocation{}, fmt.Errorf("%w (%s)", errScriptInterpreter, cmd.Args[i])
		}
	}
	return WrapperInvocation{}, errBareShell
}

func parsePowerShellWrapper(cmd ParsedCommand) (WrapperInvocation, error) {
	for i := 1; i < len(cmd.Args); i++ {
		raw := cmd.Args[i]
		a := strings.ToLower(raw)
		if strings.HasPrefix(a, "/") {
			a = "-" + a[1:]
		}
		if !strings.HasPrefix(a, "-") || len(a) < 2 {
			return WrapperInvocation{}, fmt.Errorf("%w (%s)", errScriptInterpreter, raw)
		}

		switch {
		case isEncodedFlag(a):
			return WrapperInvocation{}, errEncodedCommand
		case a == "-c" || psAbbrev(a, "-command", 4):
			inline := strings.TrimSpace(stripOuterQuotes(cmd.remainder(i)))
			if inline == "-" {
				return WrapperInvocation{}, errStdinCommand
			}
			if inline == "" {
				return WrapperInvocation{}, errMissingPayload
			}
			return WrapperInvocation{Interpreter: cmd.Base, InlineFlag: "-Command", Inline: inline, HasInline: true}, nil
		case a == "-f" || psAbbrev(a, "-file", 3):
			inline := strings.TrimSpace(cmd.remainder(i))
			if inline == "" || inline == "-" {
				return WrapperInvocation{}, errMissingPayload
			}
			return WrapperInvocation{Interpreter: cmd.Base, InlineFlag: "-File", Inline: inline, HasInline: true}, nil
		case psAbbrev(a, "-noprofile", 4) || a == "-nop",
			psAbbrev(a, "-noninteractive", 5),
			psAbbrev(a, "-nologo", 5) || a == "-nol",
			psAbbrev(a, "-noexit", 5) || a == "-noe",
			a == "-mta" || a == "-sta":
		case a == "-ep" || psAbbrev(a, "-executionpolicy", 3),
			a == "-w" || psAbbrev(a, "-windowstyle", 3),
			psAbbrev(a, "-inputformat", 3),
			psAbbrev(a, "-outputformat", 3):
			if i+1 >= len(cmd.Args) {
				return WrapperInvocation{}, fmt.Errorf("%w %q requires a value", errUnsupportedOption, raw)
			}
			i++
		default:
			return WrapperInvocation{}, fmt.Errorf("%w %q", errUnsupportedOption, raw)
		}
	}
	return WrapperInvocation{}, errBareShell
}

// isEncodedFlag matches every accepted spelling of -EncodedCommand and
// -EncodedArguments.
func isEncodedFlag(a string) bool {
	switch a {
	case "-e", "-ec", "-ea", "-enc":
		return true
	}
	return psAbbrev(a, "-encodedcommand", 3) || psAbbrev(a, "-encodedarguments", 3)
}

// psAbbrev reports whether a is an abbreviation of full at least minLen long.
func psAbbrev(a, full string, minLen int) bool {
	return len(a) >= minLen && strings.HasPrefix(full, a)
}
