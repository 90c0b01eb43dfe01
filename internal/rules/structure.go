package rules

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// checkShellStructure parses cmd as Bash and rejects constructs the flat
// segment extractor cannot see through: substitutions, subshells, groups,
// control flow, function definitions and heredocs. Input that does not parse
// is rejected outright.
func checkShellStructure(cmd string) (reason string, ok bool) {
	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return "command could not be parsed for security analysis", false
	}

	syntax.Walk(file, func(node syntax.Node) bool {
		if reason != "" {
			return false
		}
		switch n := node.(type) {
		case *syntax.CmdSubst:
			reason = "command substitution is not permitted"
		case *syntax.ProcSubst:
			reason = "process substitution is not permitted"
		case *syntax.Subshell:
			reason = "subshells are not permitted"
		case *syntax.Block:
			reason = "brace groups are not permitted"
		case *syntax.IfClause, *syntax.WhileClause, *syntax.ForClause, *syntax.CaseClause:
			reason = "shell control flow is not permitted"
		case *syntax.FuncDecl:
			reason = "function definitions are not permitted"
		case *syntax.CoprocClause:
			reason = "coprocesses are not permitted"
		case *syntax.ArithmCmd:
			reason = "arithmetic commands are not permitted"
		case *syntax.Redirect:
			if n.Op == syntax.Hdoc || n.Op == syntax.DashHdoc {
				reason = "heredocs are not permitted"
			}
		}
		return reason == ""
	})
	if reason != "" {
		return reason, false
	}
	return "", true
}
