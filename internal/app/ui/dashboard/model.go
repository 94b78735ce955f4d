package dashboard

import (
	"context"
	"math/rand"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"powermon/internal/app/bus"
	"powermon/internal/app/controller"
	"powermon/internal/app/observation"
	"powermon/internal/app/power"
	"powermon/internal/app/ui/components"
	"powermon/internal/config/logger"
)

// Status bar texts
const (
	StatusReady           = "Ready"
	StatusMonitoring      = "Monitoring "
	StatusStopped         = "Monitoring stopped"
	StatusRefreshed       = "Process list refreshed"
	StatusReloaded        = "Power model reloaded"
	StatusAbortedPrefix   = "Monitoring aborted: "
	StatusErrorPrefix     = "Error: "
	statusRefreshProgress = "refreshing process list…"
	statusStopProgress    = "stopping…"
)

// Model represents the Bubble Tea model for the dashboard
type Model struct {
	ctx        context.Context
	controller controller.Controller
	estimator  power.Estimator
	loader     *Loader
	msgChan    <-chan bus.Message

	state struct {
		processes  []string
		selected   int
		autoStart  string
		target     string
		session    string
		monitoring bool
		status     string
		failed     bool
		last       *observation.Observation
		entries    []string
		ready      bool
		quitting   bool
	}

	ui struct {
		width        int
		height       int
		keys         KeyMap
		help         help.Model
		listViewport viewport.Model
		logViewport  viewport.Model
		gauge        *components.Gauge
		tickCounter  int
		tipOffset    int
	}

	log logger.Logger
}

// NewModel creates a dashboard model subscribed to the bus; a non-empty target is started on Init
func NewModel(
	ctx context.Context,
	target string,
	ctrl controller.Controller,
	b bus.Bus,
	est power.Estimator,
	log logger.Logger,
) Model {
	log = log.WithComponent("UI")

	m := Model{
		ctx:        ctx,
		controller: ctrl,
		estimator:  est,
		loader:     NewLoader(),
		msgChan:    b.Subscribe(ctx),
		log:        log,
	}

	m.state.autoStart = strings.TrimSpace(target)
	m.state.status = StatusReady

	m.ui.keys = DefaultKeyMap()
	m.ui.help = help.New()
	m.ui.listViewport = viewport.New(0, 0)
	m.ui.logViewport = viewport.New(0, 0)
	m.ui.gauge = components.NewGauge()
	m.ui.tipOffset = rand.Intn(len(components.Tips)) //nolint:gosec // not security-critical

	log.Debug().Msg("Created model and subscribed to events")

	return m
}

// Init starts the first process list refresh, the tick loop and the optional auto start
func (m Model) Init() tea.Cmd {
	m.loader.Start(opRefresh, statusRefreshProgress)

	cmds := []tea.Cmd{
		m.loader.Model.Tick,
		waitForMsgCmd(m.msgChan),
		tickCmd(),
		refreshCmd(m.ctx, m.controller),
	}

	if m.state.autoStart != "" {
		cmds = append(cmds, startCmd(m.controller, m.state.autoStart))
	}

	return tea.Batch(cmds...)
}

// selectedProcess returns the name under the cursor
func (m Model) selectedProcess() (string, bool) {
	if m.state.selected < 0 || m.state.selected >= len(m.state.processes) {
		return "", false
	}

	return m.state.processes[m.state.selected], true
}

func (m *Model) setStatus(status string) {
	m.state.status = status
	m.state.failed = false
}

func (m *Model) setError(prefix string, err error) {
	m.state.status = prefix + err.Error()
	m.state.failed = true
}

// appendEntry adds a rendered observation to the log, keeping the most recent ones
func (m *Model) appendEntry(entry string) {
	m.state.entries = append(m.state.entries, entry)

	if over := len(m.state.entries) - components.MaxObservationLog; over > 0 {
		m.state.entries = m.state.entries[over:]
	}

	m.ui.logViewport.SetContent(strings.Join(m.state.entries, ""))
	m.ui.logViewport.GotoBottom()
}

// gaugeFraction maps watts onto the gauge using the current model's maximum
func (m Model) gaugeFraction(watts float64) float64 {
	maxWatts := m.estimator.Model().MaxWatts
	if maxWatts <= 0 {
		return 0
	}

	return watts / maxWatts
}
