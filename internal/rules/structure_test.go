package rules

import "testing"

func TestCheckShellStructure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"simple", "ls -la", true},
		{"chain", "npm install && npm test || echo failed", true},
		{"pipe", "cat a | grep b | wc -l", true},
		{"redirects", "npm test > out.log 2>&1", true},
		{"variables", "echo $HOME ${PATH}", true},
		{"single quotes", "echo '$(not run)'", true},
		{"here-string", "grep x <<< 'text'", true},

		{"parse error", "echo 'unterminated", false},
		{"dangling", "ls &&", false},
		{"cmd subst", "echo $(id)", false},
		{"backtick subst", "echo `id`", false},
		{"proc subst", "diff <(ls) <(ls -a)", false},
		{"subshell", "(cd x && ls)", false},
		{"block", "{ ls; pwd; }", false},
		{"if", "if true; then ls; fi", false},
		{"while", "while true; do ls; done", false},
		{"case", "case x in x) ls;; esac", false},
		{"function", "f() { ls; }", false},
		{"heredoc", "cat <<EOF\nx\nEOF\n", false},
		{"dash heredoc", "cat <<-EOF\n\tx\n\tEOF\n", false},
		{"arithmetic", "(( x = 1 + 2 ))", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := checkShellStructure(tt.input)
			if ok != tt.ok {
				t.Errorf("checkShellStructure(%q) = %v (%s), want %v", tt.input, ok, reason, tt.ok)
			}
		})
	}
}
