package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// envAssignRegex matches a leading KEY=value word.
var envAssignRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// segment is a span of the input between chain operators.
type segment struct {
	start, end int
	before     string // operator preceding the span ("" at start of input)
	after      string // operator following the span ("" at end of input)
}

// Extract splits raw into its chained commands. Chain operators are &&, ||,
// ;, |, a single & and newlines; operators inside quotes are literal and
// >&, <& and &> are treated as redirections. Extract fails closed: unbalanced
// quotes, dangling operators and segments without a command are errors.
func Extract(raw string) ([]ParsedCommand, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyCommand
	}

	segs, err := splitSegments(raw)
	if err != nil {
		return nil, err
	}

	var out []ParsedCommand
	for _, seg := range segs {
		text := raw[seg.start:seg.end]
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			if isSoftOperator(seg.before) && isSoftOperator(seg.after) {
				continue
			}
			op := seg.after
			if op == "" || isSoftOperator(op) {
				op = seg.before
			}
			return nil, fmt.Errorf("%w %q", ErrDanglingOperator, op)
		}

		lead := strings.Index(text, trimmed)
		cmd, err := parseSegment(trimmed)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", len(out)+1, err)
		}
		cmd.Position = len(out)
		cmd.Start = seg.start + lead
		cmd.End = cmd.Start + len(trimmed)
		out = append(out, cmd)
	}

	if len(out) == 0 {
		return nil, ErrEmptyCommand
	}
	return out, nil
}

// isSoftOperator reports whether op may border an empty segment. A trailing
// ";" or a blank line is harmless; "&& ls" is not.
func isSoftOperator(op string) bool {
	return op == "" || op == ";" || op == "\n"
}

// splitSegments scans raw once, tracking quote state, and cuts it at every
// unquoted chain operator.
func splitSegments(raw string) ([]segment, error) {
	var segs []segment
	start := 0
	before := ""
	var inSingle, inDouble bool

	cut := func(end, next int, op string) {
		segs = append(segs, segment{start: start, end: end, before: before, after: op})
		start = next
		before = op
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inSingle {
			if c == '\'' {
				inSingle = false
			}
			continue
		}
		if inDouble {
			if c == '\\' && i+1 < len(raw) {
				i++
				continue
			}
			if c == '"' {
				inDouble = false
			}
			continue
		}

		switch c {
		case '\'':
			inSingle = true
		case '"':
			inDouble = true
		case ';':
			cut(i, i+1, ";")
		case '\n', '\r':
			cut(i, i+1, "\n")
		case '|':
			if i+1 < len(raw) && raw[i+1] == '|' {
				cut(i, i+2, "||")
				i++
			} else if i+1 < len(raw) && raw[i+1] == '&' {
				cut(i, i+2, "|&")
				i++
			} else {
				cut(i, i+1, "|")
			}
		case '&':
			if i+1 < len(raw) && raw[i+1] == '&' {
				cut(i, i+2, "&&")
				i++
				continue
			}
			if i > 0 && (raw[i-1] == '>' || raw[i-1] == '<') {
				continue
			}
			if i+1 < len(raw) && raw[i+1] == '>' {
				continue
			}
			cut(i, i+1, "&")
		}
	}
	if inSingle || inDouble {
		return nil, ErrUnterminatedQuote
	}
	segs = append(segs, segment{start: start, end: len(raw), before: before})
	return segs, nil
}

// parseSegment turns one trimmed segment into a ParsedCommand.
func parseSegment(text string) (ParsedCommand, error) {
	prefix := commandPrefix(text)
	fields, err := splitFields(prefix)
	if err != nil {
		return ParsedCommand{}, err
	}
	if len(fields) == 0 {
		return ParsedCommand{}, ErrRedirectOnly
	}

	env := 0
	for env < len(fields) && !fields[env].Quoted && envAssignRegex.MatchString(fields[env].Value) {
		env++
	}
	if env == len(fields) {
		return ParsedCommand{}, ErrEmptySegment
	}

	words := fields[env:]
	args := make([]string, len(words))
	for i, f := range words {
		args[i] = f.Value
	}
	base := BaseName(args[0])
	if base == "" {
		return ParsedCommand{}, ErrEmptySegment
	}

	return ParsedCommand{
		Base:           base,
		Raw:            text,
		Args:           args,
		EnvAssignments: env,
		prefix:         prefix,
		fields:         words,
	}, nil
}

// commandPrefix returns text up to its first unquoted redirection, dropping a
// file-descriptor number or & glued to the operator (2>, &>).
func commandPrefix(text string) string {
	var inSingle, inDouble bool
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '\\' && i+1 < len(text) {
				i++
			} else if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '>' || c == '<':
			j := i
			if j > 0 && text[j-1] == '&' {
				j--
			} else {
				k := j
				for k > 0 && text[k-1] >= '0' && text[k-1] <= '9' {
					k--
				}
				if k < j && (k == 0 || isSpace(text[k-1])) {
					j = k
				}
			}
			return strings.TrimSpace(text[:j])
		}
	}
	return text
}

// BaseName normalises a command token: the last path component, lower-cased,
// with a trailing .exe removed.
func BaseName(token string) string {
	name := strings.TrimSpace(token)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	return strings.TrimSuffix(name, ".exe")
}

// remainder returns the raw text of the command after the given argument,
// trimmed. Quotes are left intact.
func (c ParsedCommand) remainder(argIndex int) string {
	if argIndex < 0 || argIndex >= len(c.fields) {
		return ""
	}
	return strings.TrimSpace(c.prefix[c.fields[argIndex].End:])
}
