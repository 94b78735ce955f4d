package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/fx"

	"powermon/internal/app/bus"
	"powermon/internal/app/controller"
	"powermon/internal/app/power"
	"powermon/internal/app/ui/dashboard"
	"powermon/internal/config/logger"
)

// UI creates a Bubble Tea program for the TUI, starting target right away when it is set
type UI func(ctx context.Context, target string) (*tea.Program, error)

// Params contains dependencies for creating the UI factory
type Params struct {
	fx.In

	Controller controller.Controller
	Bus        bus.Bus
	Estimator  power.Estimator
	Logger     logger.Logger
}

// NewUI creates a factory function for constructing Bubble Tea programs
func NewUI(params Params) UI {
	return func(ctx context.Context, target string) (*tea.Program, error) {
		model := dashboard.NewModel(
			ctx,
			target,
			params.Controller,
			params.Bus,
			params.Estimator,
			params.Logger,
		)

		p := tea.NewProgram(
			model,
			tea.WithAltScreen(),
			tea.WithContext(ctx),
		)

		params.Logger.Debug().Msg("TUI program created via factory")

		return p, nil
	}
}
