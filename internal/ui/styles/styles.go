// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/token-overlay-tui/internal/models"
)

// Color definitions for the overlay theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Series colors
	Input  = lipgloss.Color("39")  // Blue
	Output = lipgloss.Color("208") // Orange

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark  = lipgloss.Color("235")
	BgLight = lipgloss.Color("237")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// PanelStyle is the bordered token panel.
var PanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Secondary).
	Background(BgDark).
	Padding(0, 1)

// PanelDraggingStyle is the panel while it is being dragged.
var PanelDraggingStyle = PanelStyle.
	BorderForeground(Primary)

// PanelTitleStyle styles the panel header text.
var PanelTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// ToggleStyle styles the collapse glyph.
var ToggleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextPrimary)

// LabelStyle styles row labels.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// ValueStyle styles row values.
var ValueStyle = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Bold(true).
	Align(lipgloss.Right)

// ModelStyle styles the detected model name.
var ModelStyle = lipgloss.NewStyle().
	Foreground(Success).
	Bold(true)

// SumStyle highlights the input sum row.
var SumStyle = lipgloss.NewStyle().
	Foreground(Input).
	Bold(true).
	Align(lipgloss.Right)

// OutputStyle highlights the output row.
var OutputStyle = lipgloss.NewStyle().
	Foreground(Output).
	Bold(true).
	Align(lipgloss.Right)

// SeparatorStyle styles the rule between panel sections.
var SeparatorStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpKeyStyle styles keyboard shortcut keys.
var HelpKeyStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpDescStyle styles help descriptions.
var HelpDescStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// StatusBarStyle styles the bottom status line.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(TextMuted).
	Padding(0, 1)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// GetBudgetStyle returns the style for a total measured against an alert
// threshold. A non-positive threshold means no budget is set.
func GetBudgetStyle(total, threshold int) lipgloss.Style {
	if threshold <= 0 {
		return ValueStyle
	}
	percent := float64(total) / float64(threshold) * 100
	switch {
	case percent >= 100:
		return ValueStyle.Foreground(Error)
	case percent >= 80:
		return ValueStyle.Foreground(Warning)
	default:
		return ValueStyle.Foreground(Success)
	}
}

// GetProjectionStyle returns the style for a projection status.
func GetProjectionStyle(status models.ProjectionStatus) lipgloss.Style {
	switch status {
	case models.ProjectionCritical:
		return ValueStyle.Foreground(Error)
	case models.ProjectionWarning:
		return ValueStyle.Foreground(Warning)
	case models.ProjectionSafe:
		return ValueStyle.Foreground(Success)
	default:
		return ValueStyle.Foreground(TextMuted)
	}
}
