package components

import "time"

// UI timing constants
const (
	// UITickInterval is the base tick rate for animations
	UITickInterval = 100 * time.Millisecond

	// UITicksPerSecond is the derived animation frame rate
	UITicksPerSecond = int(time.Second / UITickInterval)

	// TipRotationTicks is how many ticks a footer tip stays visible
	TipRotationTicks = 80
)

// Panel layout constants
const (
	PanelHeightPadding = 6
	PanelBorderPadding = 2
	MinPanelHeight     = 8
	MinPanelWidth      = 40
)

// Header layout constants
const (
	HeaderSeparatorMinWidth = 4
	HeaderFixedChars        = 10
)

// Footer layout constants
const (
	FooterSeparatorMinWidth = 4
	FooterFixedChars        = 5
)

// Dashboard layout constants
const (
	ProcessListWidth  = 28
	GaugeWidth        = 30
	ProcessNamePad    = 2
	MaxObservationLog = 500
)
