package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/coursepick/internal/model"
)

const (
	kindColWidth   = 10
	creditColWidth = 6
	minNameWidth   = 8
)

type highlight struct {
	selected bool
	parity   int
}

// rowStyle picks the background for a course row: picked courses stand out,
// the rest alternate by parity.
func rowStyle(h highlight) lipgloss.Style {
	switch {
	case h.selected:
		return selectedRowStyle
	case h.parity == 1:
		return oddRowStyle
	default:
		return evenRowStyle
	}
}

func nameColWidth(width int) int {
	w := width - kindColWidth - creditColWidth - 2
	if w < minNameWidth {
		return minNameWidth
	}
	return w
}

func headerLine(width int) string {
	nameWidth := nameColWidth(width)
	return strings.Join([]string{
		padRight("Course", nameWidth),
		padRight("Type", kindColWidth),
		padLeft("Credit", creditColWidth),
	}, " ")
}

func formatCourseRow(c model.Course, width int) string {
	nameWidth := nameColWidth(width)
	cells := []string{
		padRight(truncate(c.Name, nameWidth), nameWidth),
		padRight(c.Kind(), kindColWidth),
		padLeft(fmt.Sprintf("%d cr", c.Credit), creditColWidth),
	}
	return strings.Join(cells, " ")
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func padRight(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

func padLeft(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return strings.Repeat(" ", gap) + s
}

// visibleWindow returns the [start, end) slice of rows to draw so that the
// cursor stays on screen.
func visibleWindow(total, cursor, offset, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+height {
		offset = cursor - height + 1
	}
	if offset+height > total {
		offset = total - height
	}
	if offset < 0 {
		offset = 0
	}
	return offset, offset + height
}
