//go:build go1.18

package rules

import (
	"testing"

	"github.com/AgentShepherd/shellgate/internal/types"
)

// FuzzExtract checks that extraction never panics and that every returned
// segment points back into the input.
func FuzzExtract(f *testing.F) {
	f.Add("ls -la")
	f.Add("npm install && npm run build")
	f.Add(`echo "a && b" | grep 'c;d'`)
	f.Add("FOO=1 ./init.sh 2>&1 &> log")
	f.Add("&&||;|&")
	f.Add(`"unterminated`)
	f.Add("> out")

	f.Fuzz(func(t *testing.T, input string) {
		cmds, err := Extract(input)
		if err != nil {
			return
		}
		if len(cmds) == 0 {
			t.Fatalf("Extract(%q) returned no commands and no error", input)
		}
		for i, c := range cmds {
			if c.Position != i {
				t.Errorf("Position = %d, want %d", c.Position, i)
			}
			if c.Start < 0 || c.End > len(input) || c.Start > c.End || input[c.Start:c.End] != c.Raw {
				t.Errorf("segment %d offsets [%d:%d] do not match Raw %q", i, c.Start, c.End, c.Raw)
			}
			if c.Base == "" || len(c.Args) == 0 {
				t.Errorf("segment %d has empty base", i)
			}
		}
	})
}

// FuzzValidate checks that validation never panics and always explains a
// rejection.
func FuzzValidate(f *testing.F) {
	f.Add("rm -rf /")
	f.Add("bash -c 'sh -c \"ls\"'")
	f.Add("powershell -Command \"cmd /c dir\"")
	f.Add("pkill -f 'node server.js'")
	f.Add("taskkill /IM node.exe /F")
	f.Add("chmod u+x a b c")
	f.Add("")

	validators := []*Validator{
		ForPlatform(types.PlatformLinux),
		ForPlatform(types.PlatformWindows),
	}

	f.Fuzz(func(t *testing.T, input string) {
		for _, v := range validators {
			r := v.validate(input, 0)
			if !r.Allowed && (r.Reason == "" || r.Rule == "") {
				t.Errorf("validate(%q) on %s rejected without reason/rule: %+v", input, v.Policy().Platform(), r)
			}
			if r.Allowed && r.Reason != "" {
				t.Errorf("validate(%q) allowed with reason %q", input, r.Reason)
			}
		}
	})
}
