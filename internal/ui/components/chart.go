// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/token-overlay-tui/internal/models"
	"github.com/j-veylop/token-overlay-tui/internal/ui/styles"
)

// sparkChars are the block glyphs used by sparklines, low to high.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// TrendSeries splits samples into input-sum and output series.
func TrendSeries(samples []models.Sample) (input, output []float64) {
	input = make([]float64, len(samples))
	output = make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s.InputSum)
		output[i] = float64(s.Output)
	}
	return input, output
}

// RenderTrendChart plots input sum and output tokens over recent refreshes.
func RenderTrendChart(samples []models.Sample, width, height int) string {
	if len(samples) < 2 {
		return styles.HelpStyle.Render("Collecting samples…")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	input, output := TrendSeries(samples)
	graph := asciigraph.PlotMany([][]float64{input, output},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(
			asciigraph.DeepSkyBlue,
			asciigraph.DarkOrange,
		),
	)

	return graph + "\n" + RenderLegend([]LegendItem{
		{Label: "input", Color: styles.Input},
		{Label: "output", Color: styles.Output},
	})
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	// Keep the most recent values that fit.
	if len(values) > width {
		values = values[len(values)-width:]
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	span := maxVal - minVal

	var result strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - minVal) / span * float64(len(sparkChars)-1))
		}
		idx = max(0, min(idx, len(sparkChars)-1))
		result.WriteRune(sparkChars[idx])
	}

	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
