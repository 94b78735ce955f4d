package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"powermon/internal/app/errors"
	"powermon/internal/app/render"
	"powermon/internal/config"
)

// CommandType represents the type of CLI command
type CommandType int

// Command type values
const (
	CommandUI CommandType = iota
	CommandWatch
	CommandList
	CommandInit
	CommandVersion
	CommandHelp
)

// Options contains the parsed command-line arguments
type Options struct {
	Type     CommandType
	Target   string
	Interval time.Duration
	Source   string
	Output   string
	Count    int
	NoUI     bool
	Force    bool
	DryRun   bool
}

// rootFlags holds flag values for the root command
type rootFlags struct {
	version bool
}

// Parse parses command-line args and returns an Options struct
func Parse(args []string) (*Options, error) {
	result := &Options{
		Type:   CommandUI,
		Output: render.FormatText,
	}

	var flags rootFlags

	root := buildRootCommand(result, &flags)
	root.AddCommand(
		buildWatchCommand(result),
		buildListCommand(result),
		buildInitCommand(result),
		buildVersionCommand(result),
	)

	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return nil, err
	}

	if flags.version {
		result.Type = CommandVersion
	}

	if err := result.validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// Apply overrides config values with the ones given on the command line
func (o *Options) Apply(cfg *config.Config) {
	if o.Interval > 0 {
		cfg.Monitor.Interval = o.Interval
	}

	if o.Source != "" {
		cfg.Sampler.Source = o.Source
	}

	if o.Target != "" {
		cfg.Monitor.Target = o.Target
	}
}

// UsesTUI reports whether the command runs the terminal UI when stdout is a terminal
func (o *Options) UsesTUI(tty bool) bool {
	if !tty || o.NoUI {
		return false
	}

	return o.Type == CommandUI || o.Type == CommandWatch
}

func (o *Options) validate() error {
	o.Target = strings.TrimSpace(o.Target)
	o.Source = strings.ToLower(strings.TrimSpace(o.Source))
	o.Output = strings.ToLower(strings.TrimSpace(o.Output))

	switch o.Source {
	case "", config.SourceSelf, config.SourceHost, config.SourceTarget:
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownSource, o.Source)
	}

	switch o.Output {
	case render.FormatText, render.FormatJSON, render.FormatYAML:
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownOutput, o.Output)
	}

	if o.Interval < 0 {
		return fmt.Errorf("%w: interval must be positive", errors.ErrInvalidConfig)
	}

	if o.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", errors.ErrInvalidConfig)
	}

	return nil
}

// buildRootCommand creates the root cobra command
func buildRootCommand(result *Options, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: config.AppDescription,
		Long: `Powermon watches a process by name and estimates its power draw
from CPU utilisation with a linear model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandUI
		},
	}

	cmd.PersistentFlags().BoolVar(&result.NoUI, "no-ui", false, "Run without TUI")
	cmd.Flags().BoolVarP(&flags.version, "version", "v", false, "Show version information")

	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		result.Type = CommandHelp
	})

	return cmd
}

// buildWatchCommand creates the watch subcommand
func buildWatchCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch [name]",
		Aliases: []string{"w"},
		Short:   "Monitor a process and stream power estimates",
		Args:    cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandWatch
			if len(args) > 0 {
				result.Target = args[0]
			}
		},
	}

	cmd.Flags().DurationVarP(&result.Interval, "interval", "i", 0, "Polling interval (default from config)")
	cmd.Flags().StringVarP(&result.Source, "source", "s", "", "CPU source: self, host or target")
	cmd.Flags().StringVarP(&result.Output, "output", "o", render.FormatText, "Output format: text, json or yaml")
	cmd.Flags().IntVarP(&result.Count, "count", "n", 0, "Stop after this many observations")

	return cmd
}

// buildListCommand creates the list subcommand
func buildListCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List running process names",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandList
		},
	}

	cmd.Flags().StringVarP(&result.Output, "output", "o", render.FormatText, "Output format: text, json or yaml")

	return cmd
}

// buildInitCommand creates the init subcommand
func buildInitCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate powermon.yaml template",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandInit
		},
	}

	cmd.Flags().BoolVarP(&result.Force, "force", "f", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&result.DryRun, "dry-run", false, "Print the template instead of writing it")

	return cmd
}

// buildVersionCommand creates the version subcommand
func buildVersionCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandVersion
		},
	}

	return cmd
}
