package tui

import (
	"fmt"
	"io"
	"os"
)

// PrintSuccess prints a styled success message with the [shellgate] prefix.
func PrintSuccess(msg string) {
	if IsPlainMode() {
		fmt.Printf("[shellgate] OK: %s\n", msg)
		return
	}
	fmt.Printf("%s %s %s\n", Prefix(), StyleSuccess.Render(IconCheck), msg)
}

// PrintError prints a styled error message to stderr.
func PrintError(msg string) {
	if IsPlainMode() {
		fmt.Fprintf(os.Stderr, "[shellgate] ERROR: %s\n", msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s %s\n", Prefix(), StyleError.Render(IconCross), msg)
}

// PrintWarning prints a styled warning message.
func PrintWarning(msg string) {
	if IsPlainMode() {
		fmt.Printf("[shellgate] WARNING: %s\n", msg)
		return
	}
	fmt.Printf("%s %s %s\n", Prefix(), StyleWarning.Render(IconWarning), msg)
}

// PrintInfo prints a styled info message.
func PrintInfo(msg string) {
	if IsPlainMode() {
		fmt.Printf("[shellgate] %s\n", msg)
		return
	}
	fmt.Printf("%s %s %s\n", Prefix(), StyleInfo.Render(IconInfo), msg)
}

// FormatDecision renders one validation result as a single line:
// the verdict, the rule badge on blocks and the reason.
func FormatDecision(allowed bool, rule, reason string) string {
	line := Verdict(allowed)
	if allowed {
		return line
	}
	if badge := RuleBadge(rule); badge != "" {
		line += " " + badge
	}
	if reason != "" {
		line += " " + reason
	}
	return line
}

// PrintDecision writes FormatDecision to w.
func PrintDecision(w io.Writer, allowed bool, rule, reason string) {
	fmt.Fprintln(w, FormatDecision(allowed, rule, reason))
}
