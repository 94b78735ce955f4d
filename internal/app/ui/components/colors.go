package components

import "github.com/charmbracelet/lipgloss"

// Color palette for the UI with semantic naming
const (
	// Foreground colors - text and elements
	FgPrimary = lipgloss.Color("#7D56F4") // Purple - primary/focus color
	FgMuted   = lipgloss.Color("7")       // Light gray - muted elements
	FgBorder  = lipgloss.Color("8")       // Gray - borders and help text

	// Background colors
	BgSelection = lipgloss.Color("235") // Dark gray - selected background

	// Status colors
	FgStatusRunning = lipgloss.Color("10") // Green - monitoring, process found
	FgStatusWarning = lipgloss.Color("11") // Yellow - stopping, process not found
	FgStatusError   = lipgloss.Color("9")  // Red - errors and faults
	FgStatusStopped = lipgloss.Color("8")  // Gray - idle
)

// GaugeColor is the adaptive color of the power gauge fill
var GaugeColor = lipgloss.AdaptiveColor{Light: "#d97706", Dark: "#fbbf24"}

// SeparatorColor is the adaptive color for header and footer lines
var SeparatorColor = lipgloss.AdaptiveColor{Light: "#737373", Dark: "#a3a3a3"}
