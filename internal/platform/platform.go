// Package platform identifies the host operating system and the setup script
// names the agent is allowed to execute on it.
package platform

import (
	"runtime"

	"github.com/AgentShepherd/shellgate/internal/types"
)

// Detect returns the platform for the running binary. Unsupported GOOS values
// fall back to Linux, which carries the Unix policy.
func Detect() types.Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS string to a Platform.
func FromGOOS(goos string) types.Platform {
	switch goos {
	case "windows":
		return types.PlatformWindows
	case "darwin":
		return types.PlatformMacOS
	default:
		return types.PlatformLinux
	}
}

// SetupScripts returns the canonical project setup script filenames for p.
func SetupScripts(p types.Platform) []string {
	if p.IsWindows() {
		return []string{"init.bat", "init.ps1"}
	}
	return []string{"init.sh"}
}
