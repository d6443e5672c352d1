package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Composite draws fg over background with its top-left cell at (x, y).
// The background is padded with blank lines when it is shorter than the
// foreground reaches; negative coordinates are treated as zero.
func Composite(background, fg string, x, y int) string {
	x = max(x, 0)
	y = max(y, 0)

	mainLines := strings.Split(background, "\n")
	fgLines := strings.Split(fg, "\n")
	fgWidth := lipgloss.Width(fg)

	for len(mainLines) < y+len(fgLines) {
		mainLines = append(mainLines, "")
	}

	for i, fgLine := range fgLines {
		mainLine := mainLines[y+i]

		// Truncate main line to the start of the overlay
		left := ansi.Truncate(mainLine, x, "")
		// Skip the cells the overlay covers
		right := ansi.TruncateLeft(mainLine, x+fgWidth, "")

		// If the line was shorter than the overlay start, pad it
		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		// Keep every overlay line the same width
		if w := lipgloss.Width(fgLine); w < fgWidth {
			fgLine += strings.Repeat(" ", fgWidth-w)
		}

		mainLines[y+i] = left + fgLine + right
	}

	return strings.Join(mainLines, "\n")
}

// Centered draws fg centered within a width x height area of background.
func Centered(background, fg string, width, height int) string {
	x := (width - lipgloss.Width(fg)) / 2
	y := (height - lipgloss.Height(fg)) / 2
	return Composite(background, fg, x, y)
}
