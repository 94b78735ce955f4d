package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"powermon/internal/app/ui/components"
	"powermon/internal/config"
)

// View renders the UI
func (m Model) View() string {
	if !m.state.ready {
		return "Initializing…"
	}

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderProcesses(),
		strings.Repeat(" ", columnGap),
		lipgloss.JoinVertical(lipgloss.Left, m.renderGauge(), m.renderObservations()),
	)

	return components.RenderPanel(components.PanelOptions{
		Title:   m.renderTitle(),
		Status:  m.renderStatus(),
		Content: content,
		Help:    m.ui.help.View(m.ui.keys),
		Tips:    m.renderTip(),
		Height:  m.ui.height - components.PanelHeightPadding,
		Width:   m.ui.width,
	})
}

// renderTitle renders the title with optional loading spinner
func (m Model) renderTitle() string {
	if m.loader.Active {
		return m.loader.Model.View() + components.LoaderSpacerStyle.Render(m.loader.Message())
	}

	return components.TitleStyle.Render(config.AppName)
}

// renderStatus renders the status bar text
func (m Model) renderStatus() string {
	switch {
	case m.state.failed:
		return components.StatusErrorStyle.Render(m.state.status)
	case m.state.monitoring:
		return components.StatusActiveStyle.Render(m.state.status)
	default:
		return components.StatusIdleStyle.Render(m.state.status)
	}
}

// renderTip returns the current rotating tip
func (m Model) renderTip() string {
	rotation := m.ui.tickCounter / components.TipRotationTicks
	tipIndex := (m.ui.tipOffset + rotation) % len(components.Tips)

	return components.Tips[tipIndex]
}

// renderProcesses renders the process list or empty state
func (m Model) renderProcesses() string {
	if len(m.state.processes) == 0 {
		return components.EmptyStateStyle.Width(components.ProcessListWidth).Render("No processes listed")
	}

	return m.ui.listViewport.View()
}

// renderGauge renders the power bar with the latest reading
func (m Model) renderGauge() string {
	bar := m.ui.gauge.Render(components.GaugeWidth, components.GaugeStyle)

	var reading string

	switch last := m.state.last; {
	case last == nil:
		reading = components.EmptyStateStyle.Render("--")
	case last.HasEstimate():
		reading = fmt.Sprintf("%.2fW  cpu %.2f%%", last.Estimate.Watts, last.Sample.UtilizationPercent)
	case last.Err != nil:
		reading = components.ErrorStyle.Render("no reading")
	default:
		reading = components.StatusWarningStyle.Render(last.Target.Name + " not found")
	}

	return bar + " " + reading + "\n"
}

// renderObservations renders the observation log
func (m Model) renderObservations() string {
	if len(m.state.entries) == 0 {
		return components.EmptyStateStyle.Render("Select a process and press enter to start monitoring")
	}

	return m.ui.logViewport.View()
}

// updateListContent renders the process rows into the list viewport and keeps the cursor visible
func (m *Model) updateListContent() {
	rows := make([]string, 0, len(m.state.processes))
	width := components.ProcessListWidth - components.ProcessNamePad

	for i, name := range m.state.processes {
		marker := "  "
		if m.state.monitoring && strings.EqualFold(name, m.state.target) {
			marker = components.StatusActiveStyle.Render("● ")
		}

		style := components.RowStyle
		if i == m.state.selected {
			style = components.SelectedRowStyle
		}

		rows = append(rows, marker+style.Render(components.TruncateAndPad(name, width)))
	}

	m.ui.listViewport.SetContent(strings.Join(rows, "\n"))

	height := m.ui.listViewport.Height
	if height <= 0 {
		return
	}

	switch {
	case m.state.selected < m.ui.listViewport.YOffset:
		m.ui.listViewport.SetYOffset(m.state.selected)
	case m.state.selected >= m.ui.listViewport.YOffset+height:
		m.ui.listViewport.SetYOffset(m.state.selected - height + 1)
	}
}
