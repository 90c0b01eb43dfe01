package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AlignColumns renders [left, right] rows with the left column padded to the
// widest entry. indent prefixes every line; gap spaces separate the columns.
func AlignColumns(rows [][2]string, indent string, gap int, styleLeft, styleRight lipgloss.Style) string {
	if len(rows) == 0 {
		return ""
	}

	// Visual width, not byte length
	maxWidth := 0
	for _, row := range rows {
		maxWidth = max(maxWidth, lipgloss.Width(row[0]))
	}

	plain := IsPlainMode()
	gapStr := strings.Repeat(" ", gap)
	var sb strings.Builder
	for _, row := range rows {
		left, right := row[0], row[1]
		if !plain {
			left, right = styleLeft.Render(left), styleRight.Render(right)
		}
		sb.WriteString(indent)
		sb.WriteString(left)
		sb.WriteString(strings.Repeat(" ", maxWidth-lipgloss.Width(row[0])))
		sb.WriteString(gapStr)
		sb.WriteString(right)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WrapList joins items into lines no wider than width, each starting with
// indent.
func WrapList(items []string, indent string, width int) string {
	if len(items) == 0 {
		return indent + "(none)\n"
	}
	var sb strings.Builder
	line := indent
	for i, item := range items {
		sep := ""
		if i < len(items)-1 {
			sep = ","
		}
		word := item + sep
		if line != indent && len(line)+1+len(word) > width {
			sb.WriteString(line)
			sb.WriteByte('\n')
			line = indent
		}
		if line != indent {
			line += " "
		}
		line += word
	}
	sb.WriteString(line)
	sb.WriteByte('\n')
	return sb.String()
}
