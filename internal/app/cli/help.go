package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// RenderHelp renders usage and examples
func RenderHelp() string {
	usageSection := sectionHeader.Render("Usage:")
	usage := lipgloss.JoinVertical(
		lipgloss.Left,
		bodyMedium.Render("  "+commandName.Render("powermon")+"                        Open the terminal UI"),
		bodyMedium.Render("  "+commandName.Render("powermon watch <NAME>")+"           Monitor a process"),
		bodyMedium.Render("  "+commandName.Render("powermon list")+"                   List running process names"),
		bodyMedium.Render("  "+commandName.Render("powermon init")+"                   Generate powermon.yaml"),
		bodyMedium.Render("  "+commandName.Render("powermon version")+"                Show version"),
	)

	flagsSection := sectionHeader.Render("Watch flags:")
	flags := lipgloss.JoinVertical(
		lipgloss.Left,
		bodyMedium.Render("  "+commandName.Render("-i, --interval <DURATION>")+"       Polling interval, e.g. 2s"),
		bodyMedium.Render("  "+commandName.Render("-s, --source <SOURCE>")+"           CPU source: self, host or target"),
		bodyMedium.Render("  "+commandName.Render("-o, --output <FORMAT>")+"           text, json or yaml"),
		bodyMedium.Render("  "+commandName.Render("-n, --count <N>")+"                 Stop after N observations"),
		bodyMedium.Render("  "+commandName.Render("--no-ui")+"                         Stream to stdout instead of the TUI"),
	)

	examplesSection := sectionHeader.Render("Examples:")
	examples := lipgloss.JoinVertical(
		lipgloss.Left,
		bodyMedium.Render("  "+exampleCode.Render("powermon watch chrome.exe")+"       Watch chrome in the TUI"),
		bodyMedium.Render("  "+exampleCode.Render("powermon watch 'chrom*' --no-ui")+" Stream every chrome process"),
		bodyMedium.Render("  "+exampleCode.Render("powermon watch nginx -o json -n 5")+" Five JSON lines, then exit"),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		RenderTitle(),
		usageSection,
		usage,
		flagsSection,
		flags,
		examplesSection,
		examples,
	) + "\n"
}
