package components

import "github.com/charmbracelet/lipgloss"

// Common styles shared across UI components
var (
	// TitleStyle for view titles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(FgPrimary)

	// PanelStyle for panel borders
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(FgPrimary).
			Padding(0, 1)

	// HelpStyle for help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(FgBorder)

	// TimestampStyle for timestamp text
	TimestampStyle = lipgloss.NewStyle().
			Foreground(FgMuted)

	// ErrorStyle for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(FgStatusError)

	// EmptyStateStyle for empty state messages
	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(FgMuted)

	// SpinnerStyle for loading spinners
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(FgPrimary)

	// SelectedRowStyle highlights the row under the cursor
	SelectedRowStyle = lipgloss.NewStyle().
				Background(BgSelection).
				Bold(true)

	// RowStyle for unselected rows
	RowStyle = lipgloss.NewStyle()

	// GaugeStyle for the filled part of the power gauge
	GaugeStyle = lipgloss.NewStyle().
			Foreground(GaugeColor)

	// Status styles
	StatusActiveStyle  = lipgloss.NewStyle().Foreground(FgStatusRunning).Bold(true)
	StatusWarningStyle = lipgloss.NewStyle().Foreground(FgStatusWarning).Bold(true)
	StatusErrorStyle   = lipgloss.NewStyle().Foreground(FgStatusError).Bold(true)
	StatusIdleStyle    = lipgloss.NewStyle().Foreground(FgStatusStopped)

	// Layout styles
	SeparatorStyle    = lipgloss.NewStyle().Foreground(SeparatorColor)
	HeaderStyle       = lipgloss.NewStyle()
	FooterStyle       = lipgloss.NewStyle()
	FooterHelpStyle   = lipgloss.NewStyle().PaddingLeft(1)
	ContentStyle      = lipgloss.NewStyle().PaddingLeft(1)
	LoaderSpacerStyle = lipgloss.NewStyle().PaddingLeft(1)
)
