package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Minimum terminal dimensions for usable rendering.
const (
	MinWidth  = 40
	MinHeight = 10
)

// Layout breakpoints for adaptive rendering.
const (
	// CompactWidth triggers compact mode for the footer and chips.
	CompactWidth = 60
	// SplitWidth is the minimum width for showing the right-hand column.
	// Below it the results list takes the whole width.
	SplitWidth = 90
	// DetailCollapseHeight hides the recent/list pane below this height.
	DetailCollapseHeight = 20
)

// headerLines is the search input plus the chip line; footerLines the key
// hints plus the status/toast line.
const (
	headerLines  = 2
	footerLines  = 2
	searchChrome = 4
)

// layout is the computed geometry of one frame.
type layout struct {
	width        int
	bodyHeight   int
	leftWidth    int
	rightWidth   int // 0 when the right column is hidden
	detailHeight int
	listHeight   int // 0 when collapsed
	modalWidth   int
	modalHeight  int
}

// computeLayout splits the terminal into the results list, details pane and
// recent/list pane.
func computeLayout(width, height int) layout {
	l := layout{width: width}
	l.bodyHeight = max(height-headerLines-footerLines, 3)
	if width >= SplitWidth {
		l.leftWidth = width * 55 / 100
		l.rightWidth = width - l.leftWidth
	} else {
		l.leftWidth = width
	}
	if height >= DetailCollapseHeight {
		l.detailHeight = l.bodyHeight * 60 / 100
		l.listHeight = l.bodyHeight - l.detailHeight
	} else {
		l.detailHeight = l.bodyHeight
	}
	l.modalWidth = min(max(width*80/100, MinWidth), width)
	l.modalHeight = min(max(height*80/100, MinHeight), height)
	return l
}

// TruncateWithEllipsis truncates s to maxLen runes, appending "..." if truncated.
// If maxLen is less than 4, returns s truncated to maxLen runes without ellipsis.
// Returns s unchanged if it fits within maxLen runes.
func TruncateWithEllipsis(s string, maxLen int) string {
	runeCount := utf8.RuneCountInString(s)
	if runeCount <= maxLen {
		return s
	}
	if maxLen < 4 {
		if maxLen <= 0 {
			return ""
		}
		return truncateToNRunes(s, maxLen)
	}
	return truncateToNRunes(s, maxLen-3) + "..."
}

// truncateToNRunes returns the first n runes of s as a string.
func truncateToNRunes(s string, n int) string {
	i := 0
	for j := 0; j < n; j++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

// padToWidth pads a rendered (possibly ANSI-styled) string with spaces to fill
// the given width, then applies a background color across the entire padded row.
func padToWidth(s string, width int, bg lipgloss.Color) string {
	visible := lipgloss.Width(s)
	if visible < width {
		s += strings.Repeat(" ", width-visible)
	}
	return lipgloss.NewStyle().Background(bg).Render(s)
}

// window returns the [start, end) range of n rows that keeps sel visible
// in height rows.
func window(n, sel, height int) (int, int) {
	if height <= 0 || n == 0 {
		return 0, 0
	}
	if n <= height {
		return 0, n
	}
	start := sel - height/2
	start = max(0, min(start, n-height))
	return start, start + height
}

// fitLines cuts s to at most height lines.
func fitLines(s string, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:max(height, 0)]
	}
	return strings.Join(lines, "\n")
}
