package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"powermon/internal/app"
	"powermon/internal/app/cli"
	"powermon/internal/app/errors"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

// Exit codes returned before the application starts
const (
	exitConfig = 1
	exitUsage  = 2
)

// main is the entry point for the application
func main() {
	os.Exit(runApp(os.Args[1:]))
}

// runApp parses flags and loads config before handing over to fx, which exits with the command's code
func runApp(args []string) int {
	opts, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		return exitUsage
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		return configExitCode(err)
	}

	opts.Apply(cfg)

	createApp(cfg, opts, cli.IsTerminal()).Run()

	return 0
}

// configExitCode treats a malformed or invalid powermon.yaml as a usage error
func configExitCode(err error) int {
	if errors.IsConfiguration(err) || errors.Is(err, errors.ErrFailedToParseConfig) {
		return exitUsage
	}

	return exitConfig
}

// loadConfig wraps config.Load for easier testing
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// createApp creates the FX application; logs are silenced while the TUI owns the terminal
func createApp(cfg *config.Config, opts *cli.Options, tty bool) *fx.App {
	tui := opts.UsesTUI(tty)

	return fx.New(
		fx.WithLogger(createFxLogger(cfg, tui)),
		fx.Supply(cfg, opts),
		fx.Provide(func() logger.Logger {
			if tui {
				return logger.NewSilentLogger(cfg)
			}

			return logger.NewLogger(cfg)
		}),
		app.Module,
	)
}

// createFxLogger returns an FX logger based on the config
func createFxLogger(cfg *config.Config, tui bool) func() fxevent.Logger {
	return func() fxevent.Logger {
		if cfg.Logging.Level == logger.DebugLevel && !tui {
			return &fxevent.ConsoleLogger{W: os.Stderr}
		}

		return fxevent.NopLogger
	}
}
