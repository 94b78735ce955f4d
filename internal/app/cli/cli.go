//go:generate mockgen -source=cli.go -destination=cli_mock.go -package=cli
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"golang.org/x/sync/errgroup"

	"powermon/internal/app/bus"
	"powermon/internal/app/controller"
	"powermon/internal/app/errors"
	"powermon/internal/app/generator"
	"powermon/internal/app/observation"
	"powermon/internal/app/render"
	"powermon/internal/app/ui"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// CLI executes the parsed command
type CLI interface {
	Execute() (int, error)
}

// cli represents the command-line interface for the application
type cli struct {
	cfg        *config.Config
	opts       *Options
	controller controller.Controller
	bus        bus.Bus
	generator  generator.Generator
	ui         ui.UI
	out        io.Writer
	errOut     io.Writer
	isTerminal func() bool
	log        logger.Logger
}

// NewCLI creates a new cli instance
func NewCLI(
	cfg *config.Config,
	opts *Options,
	ctrl controller.Controller,
	b bus.Bus,
	gen generator.Generator,
	tui ui.UI,
	log logger.Logger,
) CLI {
	return &cli{
		cfg:        cfg,
		opts:       opts,
		controller: ctrl,
		bus:        b,
		generator:  gen,
		ui:         tui,
		out:        os.Stdout,
		errOut:     os.Stderr,
		isTerminal: IsTerminal,
		log:        log.WithComponent("CLI"),
	}
}

// IsTerminal reports whether stdout is attached to a terminal
func IsTerminal() bool {
	return term.IsTerminal(os.Stdout.Fd())
}

// Execute runs the command until it completes or SIGINT/SIGTERM arrives
func (c *cli) Execute() (int, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.execute(ctx); err != nil {
		fmt.Fprintln(c.errOut, RenderError(err))

		if errors.IsConfiguration(err) {
			return exitUsage, err
		}

		return exitError, err
	}

	return exitOK, nil
}

func (c *cli) execute(ctx context.Context) error {
	switch c.opts.Type {
	case CommandHelp:
		_, err := fmt.Fprint(c.out, RenderHelp())
		return err
	case CommandVersion:
		_, err := fmt.Fprintln(c.out, RenderTitle())
		return err
	case CommandInit:
		return c.generator.Generate(generator.OptionsFromConfig(c.cfg), c.opts.Force, c.opts.DryRun)
	case CommandList:
		return c.list(ctx)
	case CommandUI, CommandWatch:
		if c.opts.UsesTUI(c.isTerminal()) {
			return c.runTUI(ctx)
		}

		return c.watch(ctx, c.cfg.Monitor.Target)
	default:
		return errors.ErrUnknownCommand
	}
}

// list prints the deduplicated process names once
func (c *cli) list(ctx context.Context) error {
	r, err := render.New(c.opts.Output, c.out)
	if err != nil {
		return err
	}

	names, err := c.controller.ListProcesses(ctx)
	if err != nil {
		return err
	}

	return r.Processes(names)
}

// runTUI blocks until the terminal UI exits
func (c *cli) runTUI(ctx context.Context) error {
	p, err := c.ui(ctx, c.cfg.Monitor.Target)
	if err != nil {
		return err
	}

	c.log.Debug().Msg("Starting terminal UI")

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	return nil
}

// watch streams observations for target until ctx is done, the session ends or --count is reached
func (c *cli) watch(ctx context.Context, target string) error {
	r, err := render.New(c.opts.Output, c.out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := c.bus.Subscribe(ctx)

	if err := c.controller.Start(target); err != nil {
		return err
	}

	c.log.Debug().Msgf("Streaming '%s' as %s", target, c.opts.Output)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return c.stream(gctx, msgs, r)
	})

	g.Go(func() error {
		<-gctx.Done()

		if err := c.controller.Stop(); err != nil && !errors.Is(err, errors.ErrNotMonitoring) {
			return err
		}

		return nil
	})

	return g.Wait()
}

// stream renders observations, returning the fault that ended the session if there was one
func (c *cli) stream(ctx context.Context, msgs <-chan bus.Message, r render.Renderer) error {
	seen := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			switch data := msg.Data.(type) {
			case bus.SessionStopped:
				return data.Err
			case observation.Observation:
				if err := r.Observation(data); err != nil {
					return err
				}

				seen++
				if c.opts.Count > 0 && seen >= c.opts.Count {
					return nil
				}
			}
		}
	}
}
