package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// modalBox renders content in style, sized to the modal geometry of l.
func modalBox(style lipgloss.Style, content string, l layout) string {
	innerW := max(l.modalWidth-style.GetHorizontalFrameSize(), 10)
	innerH := max(l.modalHeight-style.GetVerticalFrameSize(), 3)
	return style.Width(innerW).MaxHeight(l.modalHeight).Render(fitLines(content, innerH))
}

// centerOverlay places content in the center of the given dimensions.
func centerOverlay(content string, width, height int) string {
	contentWidth := lipgloss.Width(content)
	contentHeight := lipgloss.Height(content)

	if width <= 0 || height <= 0 {
		return content
	}

	leftPad := 0
	if contentWidth < width {
		leftPad = (width - contentWidth) / 2
	}
	topPad := 0
	if contentHeight < height {
		topPad = (height - contentHeight) / 2
	}

	return lipgloss.NewStyle().
		PaddingLeft(leftPad).
		PaddingTop(topPad).
		Render(content)
}

// compositeOverlay renders the overlay box on top of the background.
// It splits both into lines and replaces the background lines where the
// overlay content appears, horizontally centered.
func compositeOverlay(bg, overlay string, width, height int) string {
	bgLines := strings.Split(bg, "\n")
	olLines := strings.Split(overlay, "\n")

	for len(bgLines) < height {
		bgLines = append(bgLines, "")
	}

	olHeight := len(olLines)
	topOffset := 0
	if olHeight < height {
		topOffset = (height - olHeight) / 2
	}
	leftPad := ""
	if w := lipgloss.Width(overlay); w < width {
		leftPad = strings.Repeat(" ", (width-w)/2)
	}

	for i, olLine := range olLines {
		row := topOffset + i
		if row >= 0 && row < len(bgLines) {
			bgLines[row] = leftPad + olLine
		}
	}

	return strings.Join(bgLines[:height], "\n")
}
