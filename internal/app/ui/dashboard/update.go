package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"powermon/internal/app/bus"
	"powermon/internal/app/controller"
	"powermon/internal/app/observation"
	"powermon/internal/app/render"
	"powermon/internal/app/ui/components"
)

// Tick timing constants
const (
	tickInterval       = components.UITickInterval
	tickCounterMaximum = 1000000
)

// Layout constants
const (
	gaugeLines     = 2
	columnGap      = 1
	viewportMargin = 4
)

// msgMsg wraps a bus message for tea messaging
type msgMsg bus.Message

// tickMsg signals a UI tick for animations
type tickMsg time.Time

// channelClosedMsg signals the event channel has closed
type channelClosedMsg struct{}

// processesMsg carries a finished process list refresh
type processesMsg controller.ListResult

// startedMsg carries the result of a start request
type startedMsg struct {
	target string
	err    error
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.state.ready = true

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.loader.Model, cmd = m.loader.Model.Update(msg)

		return m, cmd

	case tickMsg:
		m.ui.tickCounter++

		if m.ui.tickCounter >= tickCounterMaximum {
			m.ui.tickCounter = 0
		}

		m.ui.gauge.Update()

		return m, tickCmd()

	case processesMsg:
		return m.handleProcesses(controller.ListResult(msg)), nil

	case startedMsg:
		return m.handleStarted(msg), nil

	case msgMsg:
		return m.handleMessage(bus.Message(msg))

	case channelClosedMsg:
		m.log.Warn().Msg("Event channel closed, quitting")
		m.loader.StopAll()

		return m, tea.Quit
	}

	return m, nil
}

// resize lays the process list out on the left and the gauge with the observation log on the right
func (m *Model) resize(width, height int) {
	m.ui.width = width
	m.ui.height = height
	m.ui.help.Width = width

	panelHeight := max(height-components.PanelHeightPadding, components.MinPanelHeight)
	innerHeight := panelHeight - components.PanelBorderPadding

	m.ui.listViewport.Width = components.ProcessListWidth
	m.ui.listViewport.Height = innerHeight

	m.ui.logViewport.Width = max(width-components.ProcessListWidth-columnGap-viewportMargin, 0)
	m.ui.logViewport.Height = max(innerHeight-gaugeLines, 1)

	m.updateListContent()
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.ui.keys.ForceQuit) {
		m.log.Warn().Msg("Force quit requested, exiting immediately")
		m.loader.StopAll()

		return m, tea.Quit
	}

	if m.state.quitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.ui.keys.Quit):
		m.state.quitting = true

		if m.state.monitoring {
			_ = m.controller.Stop()
		}

		m.loader.StopAll()

		return m, tea.Quit

	case key.Matches(msg, m.ui.keys.Up):
		return m.handleUpKey()

	case key.Matches(msg, m.ui.keys.Down):
		return m.handleDownKey()

	case key.Matches(msg, m.ui.keys.Refresh):
		return m.handleRefreshKey()

	case key.Matches(msg, m.ui.keys.Start):
		return m.handleStartKey()

	case key.Matches(msg, m.ui.keys.Stop):
		return m.handleStopKey()
	}

	switch msg.String() {
	case "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd

		m.ui.logViewport, cmd = m.ui.logViewport.Update(msg)

		return m, cmd
	}

	return m, nil
}

// handleUpKey moves selection up one process
func (m Model) handleUpKey() (tea.Model, tea.Cmd) {
	if m.state.selected > 0 {
		m.state.selected--
		m.updateListContent()
	}

	return m, nil
}

// handleDownKey moves selection down one process
func (m Model) handleDownKey() (tea.Model, tea.Cmd) {
	if m.state.selected < len(m.state.processes)-1 {
		m.state.selected++
		m.updateListContent()
	}

	return m, nil
}

// handleRefreshKey starts a background list refresh unless one is pending
func (m Model) handleRefreshKey() (tea.Model, tea.Cmd) {
	if m.loader.Has(opRefresh) {
		return m, nil
	}

	m.loader.Start(opRefresh, statusRefreshProgress)

	return m, tea.Batch(m.loader.Model.Tick, refreshCmd(m.ctx, m.controller))
}

// handleStartKey starts monitoring the selected process
func (m Model) handleStartKey() (tea.Model, tea.Cmd) {
	name, ok := m.selectedProcess()
	if !ok {
		return m, nil
	}

	return m, startCmd(m.controller, name)
}

// handleStopKey signals the active session to stop
func (m Model) handleStopKey() (tea.Model, tea.Cmd) {
	if err := m.controller.Stop(); err != nil {
		m.setError(StatusErrorPrefix, err)
		return m, nil
	}

	m.setStatus(StatusStopped)
	m.loader.Start(opStop, statusStopProgress)

	return m, m.loader.Model.Tick
}

// handleProcesses replaces the process list, keeping the cursor on the same name when it survives
func (m Model) handleProcesses(res controller.ListResult) Model {
	m.loader.Stop(opRefresh)

	if res.Err != nil {
		m.setError(StatusErrorPrefix, res.Err)
		return m
	}

	previous, _ := m.selectedProcess()

	m.state.processes = res.Names
	m.state.selected = 0

	for i, name := range res.Names {
		if name == previous {
			m.state.selected = i
			break
		}
	}

	m.setStatus(StatusRefreshed)
	m.updateListContent()

	return m
}

// handleStarted reports a rejected start; accepted starts are confirmed by the session_started event
func (m Model) handleStarted(msg startedMsg) Model {
	if msg.err != nil {
		m.log.Debug().Err(msg.err).Msgf("Start of '%s' rejected", msg.target)
		m.setError(StatusErrorPrefix, msg.err)

		return m
	}

	m.setStatus(StatusMonitoring + msg.target)

	return m
}

// handleMessage dispatches bus messages to specific handlers
func (m Model) handleMessage(msg bus.Message) (tea.Model, tea.Cmd) {
	switch data := msg.Data.(type) {
	case bus.SessionStarted:
		m = m.handleSessionStarted(data)
	case observation.Observation:
		m = m.handleObservation(data)
	case bus.SessionStopped:
		m = m.handleSessionStopped(data)
	case bus.ConfigReloaded:
		m.setStatus(fmt.Sprintf("%s (%.1fW to %.1fW)", StatusReloaded, data.BaseWatts, data.MaxWatts))
	}

	return m, waitForMsgCmd(m.msgChan)
}

func (m Model) handleSessionStarted(data bus.SessionStarted) Model {
	m.state.monitoring = true
	m.state.target = data.Target
	m.state.session = data.Session
	m.state.last = nil

	m.setStatus(StatusMonitoring + data.Target)
	m.updateListContent()

	return m
}

// handleObservation records observations of the current session and drives the gauge
func (m Model) handleObservation(obs observation.Observation) Model {
	if obs.Session != m.state.session {
		return m
	}

	m.state.last = &obs
	m.appendEntry(render.Text(obs))

	if obs.HasEstimate() {
		m.ui.gauge.SetTarget(m.gaugeFraction(obs.Estimate.Watts))
	} else {
		m.ui.gauge.SetTarget(0)
	}

	return m
}

func (m Model) handleSessionStopped(data bus.SessionStopped) Model {
	if data.Session != m.state.session {
		return m
	}

	m.state.monitoring = false
	m.ui.gauge.Stop()
	m.loader.Stop(opStop)

	if data.Err != nil {
		m.setError(StatusAbortedPrefix, data.Err)
	} else {
		m.setStatus(StatusStopped)
	}

	m.updateListContent()

	return m
}

// waitForMsgCmd returns a command that waits for the next message
func waitForMsgCmd(msgChan <-chan bus.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-msgChan
		if !ok {
			return channelClosedMsg{}
		}

		return msgMsg(msg)
	}
}

// tickCmd returns a command that sends a tick after the interval
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd lists processes on the controller's worker pool
func refreshCmd(ctx context.Context, ctrl controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return processesMsg(<-ctrl.ListProcessesAsync(ctx))
	}
}

// startCmd requests a session start off the update loop; Start blocks while a stopped session drains
func startCmd(ctrl controller.Controller, name string) tea.Cmd {
	return func() tea.Msg {
		return startedMsg{target: name, err: ctrl.Start(name)}
	}
}
