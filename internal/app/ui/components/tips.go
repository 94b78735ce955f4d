package components

import "github.com/charmbracelet/lipgloss"

// Tip styles
var (
	tipKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"})
	tipDescStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"})
)

func tipKey(k string) string  { return tipKeyStyle.Render(k) }
func tipDesc(d string) string { return tipDescStyle.Render(d) }

// Tips contains helpful hints displayed in the footer
var Tips = []string{
	tipDesc("Stream without TUI using ") + tipKey("powermon watch <name> --no-ui"),
	tipDesc("Patterns like ") + tipKey("chrom*") + tipDesc(" match every chrome process"),
	tipDesc("Measure the target itself with ") + tipKey("--source target"),
	tipDesc("Edit ") + tipKey("power.max_watts") + tipDesc(" in powermon.yaml, it reloads live"),
	tipDesc("Press ") + tipKey("r") + tipDesc(" to refresh the process list"),
	tipDesc("Press ") + tipKey("x") + tipDesc(" to stop monitoring"),
}
