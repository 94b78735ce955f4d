package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"powermon/internal/config"
)

// PanelOptions describes one bordered panel with header and footer lines
type PanelOptions struct {
	Title   string
	Status  string
	Content string
	Help    string
	Tips    string
	Height  int
	Width   int
}

// RenderPanel renders a header, a bordered content box and a footer
func RenderPanel(opts PanelOptions) string {
	width := max(opts.Width, MinPanelWidth)
	height := max(opts.Height, MinPanelHeight)

	header := RenderHeader(width, opts.Title, opts.Status)
	body := PanelStyle.
		Width(width - PanelBorderPadding).
		Height(height - PanelBorderPadding).
		Render(opts.Content)
	footer := RenderFooter(width, opts.Help, opts.Tips)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// RenderLine renders a horizontal line of the specified width with separator style
func RenderLine(width int) string {
	if width < 0 {
		width = 0
	}

	return SeparatorStyle.Render(strings.Repeat("─", width))
}

// RenderHeader renders the header with format: ─── <title> ─────── <info> ───
func RenderHeader(width int, title, info string) string {
	titleWidth := lipgloss.Width(title)
	infoWidth := lipgloss.Width(info)

	maxTitleWidth := width - infoWidth - HeaderSeparatorMinWidth - HeaderFixedChars
	if titleWidth > maxTitleWidth && maxTitleWidth > 0 {
		title = truncate(title, maxTitleWidth)
		titleWidth = lipgloss.Width(title)
	}

	separatorWidth := width - titleWidth - infoWidth - HeaderFixedChars
	if separatorWidth < HeaderSeparatorMinWidth {
		separatorWidth = HeaderSeparatorMinWidth
	}

	return HeaderStyle.Render(RenderLine(3) + " " + title + " " + RenderLine(separatorWidth) + " " + info + " " + RenderLine(3))
}

// RenderFooter renders the version line, the help text and an optional tip
func RenderFooter(width int, helpText, tip string) string {
	version := fmt.Sprintf("v%s", config.Version)

	separatorWidth := width - lipgloss.Width(version) - FooterFixedChars
	if separatorWidth < FooterSeparatorMinWidth {
		separatorWidth = FooterSeparatorMinWidth
	}

	lines := []string{
		RenderLine(separatorWidth) + " " + version + " " + RenderLine(3),
		FooterHelpStyle.Render(HelpStyle.Render(helpText)),
	}

	if tip != "" {
		lines = append(lines, FooterHelpStyle.Render(tip))
	}

	return FooterStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// PadRight pads s with spaces up to width cells
func PadRight(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}

	return s + strings.Repeat(" ", gap)
}

// TruncateAndPad fits s into exactly width cells
func TruncateAndPad(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return PadRight(s, width)
	}

	return PadRight(truncate(s, width), width)
}

func truncate(s string, maxWidth int) string {
	if maxWidth <= 1 {
		return "…"
	}

	if lipgloss.Width(s) <= maxWidth {
		return s
	}

	runes := []rune(s)
	for i := len(runes) - 1; i >= 0; i-- {
		truncated := string(runes[:i]) + "…"
		if lipgloss.Width(truncated) <= maxWidth {
			return truncated
		}
	}

	return "…"
}
