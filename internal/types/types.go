// Package types defines common type-safe enums used across the codebase.
package types

import "strings"

// Platform identifies the operating system family a command will run on.
type Platform string

const (
	// PlatformWindows runs commands through cmd.exe or PowerShell.
	PlatformWindows Platform = "windows"
	// PlatformMacOS runs commands through a POSIX shell.
	PlatformMacOS Platform = "darwin"
	// PlatformLinux runs commands through a POSIX shell.
	PlatformLinux Platform = "linux"
)

// AllPlatforms returns every supported platform.
func AllPlatforms() []Platform {
	return []Platform{PlatformWindows, PlatformMacOS, PlatformLinux}
}

// Valid returns true if the Platform is a known valid value.
func (p Platform) Valid() bool {
	return p == PlatformWindows || p == PlatformMacOS || p == PlatformLinux
}

// IsWindows returns true for the Windows platform.
func (p Platform) IsWindows() bool {
	return p == PlatformWindows
}

// IsUnix returns true for macOS and Linux, which share one policy.
func (p Platform) IsUnix() bool {
	return p == PlatformMacOS || p == PlatformLinux
}

// ParsePlatform converts user input into a Platform. Accepts the GOOS names
// plus a few common aliases; returns ok=false for anything else.
func ParsePlatform(s string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win", "win32":
		return PlatformWindows, true
	case "darwin", "macos", "mac", "osx":
		return PlatformMacOS, true
	case "linux":
		return PlatformLinux, true
	}
	return "", false
}

// LogLevel represents a configured log verbosity.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Valid returns true if the LogLevel is a known value. Empty means default.
func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
		return true
	}
	return false
}
