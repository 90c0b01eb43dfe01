package tui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// plainMode disables all styling: no colors, no icons.
// When enabled, output is plain text suitable for CI, pipes or --no-color.
var (
	plainMode bool
	plainOnce sync.Once
	plainMu   sync.RWMutex
)

// initPlainMode auto-detects plain mode from the environment on first call.
// NO_COLOR wins over TTY detection.
func initPlainMode() {
	plainOnce.Do(func() {
		// https://no-color.org
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			plainMode = true
			return
		}
		if os.Getenv("TERM") == "dumb" {
			plainMode = true
			return
		}
		// Piped or redirected output gets no escape codes
		if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // Fd() fits in int on all supported platforms
			plainMode = true
		}
	})
}

// SetPlainMode explicitly enables or disables plain mode.
// Call this early (e.g. when parsing --no-color) before any output.
func SetPlainMode(plain bool) {
	plainMu.Lock()
	defer plainMu.Unlock()
	plainMode = plain
	// Mark as initialized so auto-detect doesn't override
	plainOnce.Do(func() {})
}

// IsPlainMode returns true if styling is disabled.
func IsPlainMode() bool {
	initPlainMode()
	plainMu.RLock()
	defer plainMu.RUnlock()
	return plainMode
}

// Color palette. Adapts to light and dark terminal themes.
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1F6F8B", Dark: "#4FC1E9"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#8BC34A"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#B5382A", Dark: "#E05A3A"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFD93D"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#1F6F8B", Dark: "#8FD3F4"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Reusable styles.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold    = lipgloss.NewStyle().Bold(true)
	StyleCommand = lipgloss.NewStyle().Foreground(ColorPrimary)

	// Use Prefix() instead
	stylePrefix = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
)

// Prefix returns the branded [shellgate] prefix string.
func Prefix() string {
	if IsPlainMode() {
		return "[shellgate]"
	}
	return stylePrefix.Render("[shellgate]")
}

// Verdict renders ALLOW or BLOCK.
func Verdict(allowed bool) string {
	label, icon, style := "BLOCK", IconBlock, StyleError
	if allowed {
		label, icon, style = "ALLOW", IconCheck, StyleSuccess
	}
	if IsPlainMode() {
		return label
	}
	return style.Bold(true).Render(icon + " " + label)
}

// RuleBadge renders a rule id like "[denylist:fork-bomb]".
func RuleBadge(rule string) string {
	if rule == "" {
		return ""
	}
	badge := "[" + rule + "]"
	if IsPlainMode() {
		return badge
	}
	return StyleWarning.Render(badge)
}

// Title renders a section heading.
func Title(text string) string {
	if IsPlainMode() {
		return text
	}
	return StyleTitle.Render(text)
}

// Muted renders secondary text.
func Muted(text string) string {
	if IsPlainMode() {
		return text
	}
	return StyleMuted.Render(text)
}
