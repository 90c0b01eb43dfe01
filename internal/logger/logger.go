package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Level represents log level
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// MaxAuditCommand caps how much of a command an audit line repeats.
const MaxAuditCommand = 120

type levelStyle struct {
	label string
	style lipgloss.Style
}

var levels = [...]levelStyle{
	LevelTrace: {"TRACE", lipgloss.NewStyle().Foreground(lipgloss.Color("#8FA1B3"))},
	LevelDebug: {"DEBUG", lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB4CA"))},
	LevelInfo:  {"INFO", lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))},
	LevelWarn:  {"WARN", lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))},
	LevelError: {"ERROR", lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))},
}

var (
	styleFaint = lipgloss.NewStyle().Faint(true)
	styleAllow = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#98C379"))
	styleBlock = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E06C75"))
)

var (
	globalLevel   = LevelInfo
	globalColored = true
	globalOut     io.Writer = os.Stderr
	globalMu      sync.RWMutex
)

// String returns the upper-case label used in log lines.
func (l Level) String() string {
	if l < LevelTrace || l > LevelError {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levels[l].label
}

// Logger writes leveled lines tagged with a component prefix. Output goes to
// stderr by default because stdout carries hook decisions.
type Logger struct {
	prefix string
}

// New creates a new logger with the given prefix
func New(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

// SetGlobalLevel sets the global log level
func SetGlobalLevel(level Level) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLevel = level
}

// ParseLevel converts a string to a Level, returning an error if unrecognized.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for l, ls := range levels {
		if strings.EqualFold(s, ls.label) {
			return Level(l), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
}

// SetGlobalLevelFromString sets log level from string
func SetGlobalLevelFromString(level string) {
	if l, err := ParseLevel(level); err == nil {
		SetGlobalLevel(l)
	}
}

// SetColored enables or disables colored output
func SetColored(colored bool) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalColored = colored
}

// SetOutput redirects all loggers to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev := globalOut
	globalOut = w
	return prev
}

// settings returns the output state when level is enabled.
func settings(level Level) (out io.Writer, colored, ok bool) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if level < globalLevel {
		return nil, false, false
	}
	return globalOut, globalColored, true
}

func (l *Logger) write(level Level, msg string) {
	out, colored, ok := settings(level)
	if !ok {
		return
	}
	ts := time.Now().Format("15:04:05")
	label := "[" + level.String() + "]"
	tag := "[" + l.prefix + "]"
	if colored {
		ts = styleFaint.Render(ts)
		label = levels[level].style.Render(label)
		tag = styleFaint.Render(tag)
	}
	fmt.Fprintf(out, "%s %s %s %s\n", ts, label, tag, msg)
}

// Trace logs a trace message (most verbose)
func (l *Logger) Trace(format string, args ...any) {
	l.write(LevelTrace, fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.write(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...any) {
	l.write(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...any) {
	l.write(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.write(LevelError, fmt.Sprintf(format, args...))
}

// Decision records one gate verdict. Blocks are logged at warn with the rule
// and reason; allows at debug. The command is quoted and truncated so a
// hostile string cannot forge or flood log lines.
func (l *Logger) Decision(allowed bool, rule, command, reason string) {
	level := LevelWarn
	if allowed {
		level = LevelDebug
	}
	_, colored, ok := settings(level)
	if !ok {
		return
	}
	l.write(level, FormatDecision(allowed, rule, command, reason, colored))
}

// FormatDecision renders an audit line body: "ALLOW "cmd"" or
// "BLOCK [rule] "cmd": reason".
func FormatDecision(allowed bool, rule, command, reason string, colored bool) string {
	cmd := fmt.Sprintf("%q", truncateRunes(command, MaxAuditCommand))
	if allowed {
		verdict := "ALLOW"
		if colored {
			verdict = styleAllow.Render(verdict)
		}
		return verdict + " " + cmd
	}
	verdict := "BLOCK"
	if colored {
		verdict = styleBlock.Render(verdict)
	}
	if rule == "" {
		rule = "unknown"
	}
	return fmt.Sprintf("%s [%s] %s: %s", verdict, rule, cmd, reason)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
