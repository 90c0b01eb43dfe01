package rules

import "errors"

// Extraction failures. The validator turns every one of these into a rejection.
var (
	ErrEmptyCommand      = errors.New("empty command")
	ErrUnterminatedQuote = errors.New("unterminated quote")
	ErrDanglingOperator  = errors.New("dangling chain operator")
	ErrEmptySegment      = errors.New("segment has no command")
	ErrRedirectOnly      = errors.New("segment consists only of a redirection")
)

// Wrapper parse failures.
var (
	errBareShell         = errors.New("interactive shell spawn is not permitted")
	errScriptInterpreter = errors.New("running a script through an interpreter is not permitted")
	errEncodedCommand    = errors.New("encoded commands cannot be inspected")
	errMissingPayload    = errors.New("inline flag has no command text")
	errPositionalArgs    = errors.New("positional arguments after an inline command are not permitted")
	errUnsupportedOption = errors.New("unsupported interpreter option")
	errStdinCommand      = errors.New("reading commands from stdin is not permitted")
)
