package policy

import (
	"strings"
	"testing"

	"github.com/AgentShepherd/shellgate/internal/types"
)

func TestPlatformTablesAreDisjoint(t *testing.T) {
	win := ForPlatform(types.PlatformWindows)
	for _, name := range []string{"pkill", "chmod", "lsof", "bash", "sh", "init.sh"} {
		if win.IsAllowed(name) {
			t.Errorf("windows allowlist contains Unix-only command %q", name)
		}
	}
	for _, p := range []types.Platform{types.PlatformLinux, types.PlatformMacOS} {
		unix := ForPlatform(p)
		for _, name := range []string{"taskkill", "dir", "init.bat", "init.ps1", "cmd", "powershell"} {
			if unix.IsAllowed(name) {
				t.Errorf("%s allowlist contains Windows-only command %q", p, name)
			}
		}
	}
}

func TestExtraIsSubsetOfAllowed(t *testing.T) {
	for _, p := range types.AllPlatforms() {
		pol := ForPlatform(p)
		for _, name := range pol.ExtraValidationCommands() {
			if !pol.IsAllowed(name) {
				t.Errorf("%s: extra-validation command %q is not allowlisted", p, name)
			}
		}
	}
}

func TestUnixPlatformsSharePolicy(t *testing.T) {
	linux := ForPlatform(types.PlatformLinux)
	mac := ForPlatform(types.PlatformMacOS)
	if strings.Join(linux.AllowedCommands(), ",") != strings.Join(mac.AllowedCommands(), ",") {
		t.Error("linux and darwin allowlists differ")
	}
	if strings.Join(linux.ExtraValidationCommands(), ",") != strings.Join(mac.ExtraValidationCommands(), ",") {
		t.Error("linux and darwin extra-validation sets differ")
	}
}

func TestRequiresValidation(t *testing.T) {
	unix := ForPlatform(types.PlatformLinux)
	for _, name := range []string{"chmod", "pkill", "init.sh", "bash", "sh"} {
		if !unix.RequiresValidation(name) {
			t.Errorf("linux: %q should require validation", name)
		}
	}
	if unix.RequiresValidation("ls") {
		t.Error("linux: ls should not require validation")
	}

	win := ForPlatform(types.PlatformWindows)
	for _, name := range []string{"taskkill", "init.bat", "init.ps1", "cmd", "powershell"} {
		if !win.RequiresValidation(name) {
			t.Errorf("windows: %q should require validation", name)
		}
	}
}

func TestNewWithOptions(t *testing.T) {
	pol, err := New(types.PlatformLinux, Options{
		ExtraCommands:     []string{"Cargo-Nextest", "dir"},
		DevProcesses:      []string{"rails"},
		DevScriptPatterns: []string{"worker.rb"},
		MaxWrapperDepth:   5,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !pol.IsAllowed("cargo-nextest") {
		t.Error("extra command should be allowlisted lower-cased")
	}
	if pol.IsAllowed("dir") {
		t.Error("windows-only extra command must not leak into the Unix allowlist")
	}
	if !pol.IsDevProcess("rails") {
		t.Error("extra dev process not registered")
	}
	if !pol.MatchesDevScript("lib/worker.rb") {
		t.Error("extra dev script pattern not matched")
	}
	if pol.MaxWrapperDepth() != 5 {
		t.Errorf("MaxWrapperDepth() = %d, want 5", pol.MaxWrapperDepth())
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"never-allow command", Options{ExtraCommands: []string{"sudo"}}},
		{"never-allow with exe suffix", Options{ExtraCommands: []string{"Kill.exe"}}},
		{"path instead of name", Options{ExtraCommands: []string{"/usr/bin/foo"}}},
		{"empty name", Options{ExtraCommands: []string{"  "}}},
		{"negative depth", Options{MaxWrapperDepth: -1}},
		{"depth above limit", Options{MaxWrapperDepth: MaxWrapperDepthLimit + 1}},
		{"bad glob", Options{DevScriptPatterns: []string{"server.[js"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); err == nil {
				t.Error("expected validation error")
			}
			if _, err := New(types.PlatformLinux, tt.opts); err == nil {
				t.Error("New() should reject invalid options")
			}
		})
	}
}

func TestNewRejectsUnknownPlatform(t *testing.T) {
	if _, err := New("plan9", Options{}); err == nil {
		t.Error("expected error for unknown platform")
	}
}

func TestDevProcessesAndScripts(t *testing.T) {
	pol := ForPlatform(types.PlatformLinux)
	for _, name := range []string{"node", "NPM", "npx", "python", "vite", "next", "yarn", "pnpm", "node.exe"} {
		if !pol.IsDevProcess(name) {
			t.Errorf("IsDevProcess(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"chrome", "bash", "sshd", ""} {
		if pol.IsDevProcess(name) {
			t.Errorf("IsDevProcess(%q) = true, want false", name)
		}
	}
	for _, name := range []string{"bash", "/usr/sbin/sshd", "Chrome", "explorer.exe"} {
		if !pol.IsProtectedProcess(name) {
			t.Errorf("IsProtectedProcess(%q) = false, want true", name)
		}
	}

	for _, word := range []string{"server.js", "./src/server.ts", "app.py", "backend/manage.py", `src\index.js`, "vite.config.ts"} {
		if !pol.MatchesDevScript(word) {
			t.Errorf("MatchesDevScript(%q) = false, want true", word)
		}
	}
	for _, word := range []string{"node", "chrome", "server", "passwd"} {
		if pol.MatchesDevScript(word) {
			t.Errorf("MatchesDevScript(%q) = true, want false", word)
		}
	}
}

func TestSetupScripts(t *testing.T) {
	unix := ForPlatform(types.PlatformLinux)
	if !unix.IsSetupScript("init.sh") || unix.IsSetupScript("init.bat") {
		t.Error("linux setup scripts should be exactly init.sh")
	}
	win := ForPlatform(types.PlatformWindows)
	if !win.IsSetupScript("init.bat") || !win.IsSetupScript("init.ps1") || win.IsSetupScript("init.sh") {
		t.Error("windows setup scripts should be init.bat and init.ps1")
	}
}

func TestDefaultMaxWrapperDepth(t *testing.T) {
	if got := ForPlatform(types.PlatformWindows).MaxWrapperDepth(); got != DefaultMaxWrapperDepth {
		t.Errorf("MaxWrapperDepth() = %d, want %d", got, DefaultMaxWrapperDepth)
	}
}
