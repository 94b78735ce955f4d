package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const (
	filled = "█"
	hollow = "░"

	gaugeFPS = UITicksPerSecond

	// Spring physics parameters
	gaugeAngularFrequency = 6.0
	gaugeDampingRatio     = 0.8

	// Below this distance from the target the gauge counts as settled
	gaugeSettleEpsilon = 0.001
)

// Gauge is a horizontal bar that eases towards its target fill using spring physics
type Gauge struct {
	spring   harmonica.Spring
	position float64
	velocity float64
	target   float64
	active   bool
}

// NewGauge creates an empty, inactive gauge
func NewGauge() *Gauge {
	return &Gauge{
		spring: harmonica.NewSpring(harmonica.FPS(gaugeFPS), gaugeAngularFrequency, gaugeDampingRatio),
	}
}

// SetTarget sets the fill fraction the gauge moves to, clamped to [0,1]
func (g *Gauge) SetTarget(fraction float64) {
	switch {
	case math.IsNaN(fraction), fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}

	g.target = fraction
	g.active = true
}

// Stop lets the gauge drain back to empty
func (g *Gauge) Stop() {
	g.target = 0
	g.active = false
}

// Update advances the animation by one tick and reports whether the gauge is still moving
func (g *Gauge) Update() bool {
	if g.Settled() {
		return false
	}

	g.position, g.velocity = g.spring.Update(g.position, g.velocity, g.target)

	if g.Settled() {
		g.position = g.target
		g.velocity = 0
	}

	return true
}

// Settled reports whether the gauge rests at its target
func (g *Gauge) Settled() bool {
	return math.Abs(g.position-g.target) < gaugeSettleEpsilon && math.Abs(g.velocity) < gaugeSettleEpsilon
}

// Position returns the current fill fraction, clamped to [0,1]
func (g *Gauge) Position() float64 {
	return math.Min(math.Max(g.position, 0), 1)
}

// IsActive returns whether the gauge is tracking a live value
func (g *Gauge) IsActive() bool {
	return g.active
}

// Render draws the bar with width cells, the filled part in style
func (g *Gauge) Render(width int, style lipgloss.Style) string {
	if width <= 0 {
		return ""
	}

	n := int(math.Round(g.Position() * float64(width)))

	return style.Render(strings.Repeat(filled, n)) + HelpStyle.Render(strings.Repeat(hollow, width-n))
}
