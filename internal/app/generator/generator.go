//go:generate mockgen -source=generator.go -destination=generator_mock.go -package=generator
package generator

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"powermon/internal/app/errors"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

const templatePath = "templates/powermon.yaml.tmpl"

//go:embed templates/powermon.yaml.tmpl
var templateFS embed.FS

// Options contains the values written into powermon.yaml
type Options struct {
	LogLevel     string
	LogFormat    string
	Interval     time.Duration
	DrainTimeout time.Duration
	Target       string
	BaseWatts    float64
	MaxWatts     float64
	Source       string
	BusBuffer    int
	Workers      int
}

// DefaultOptions returns the built-in defaults
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

// OptionsFromConfig takes template values from a loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LogLevel:     cfg.Logging.Level,
		LogFormat:    cfg.Logging.Format,
		Interval:     cfg.Monitor.Interval,
		DrainTimeout: cfg.Monitor.DrainTimeout,
		Target:       cfg.Monitor.Target,
		BaseWatts:    cfg.Power.BaseWatts,
		MaxWatts:     cfg.Power.MaxWatts,
		Source:       cfg.Sampler.Source,
		BusBuffer:    cfg.Bus.Buffer,
		Workers:      cfg.Concurrency.Workers,
	}
}

// Generator writes a starter powermon.yaml
type Generator interface {
	Generate(opts Options, force bool, dryRun bool) error
}

type generator struct {
	path string
	out  io.Writer
	log  logger.Logger
}

// NewGenerator creates a generator writing powermon.yaml in the working directory
func NewGenerator(log logger.Logger) Generator {
	return &generator{
		path: config.FileName,
		out:  os.Stdout,
		log:  log,
	}
}

// Generate renders the template and writes it, or prints it on dry run
func (g *generator) Generate(opts Options, force bool, dryRun bool) error {
	if !dryRun && !force {
		if _, err := os.Stat(g.path); err == nil {
			return fmt.Errorf("%w: %s, use --force to overwrite", errors.ErrConfigExists, g.path)
		}
	}

	content, err := Render(opts)
	if err != nil {
		return err
	}

	if dryRun {
		_, err := g.out.Write(content)
		return err
	}

	if err := os.WriteFile(g.path, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	g.log.Info().Msgf("Generated %s", g.path)

	return nil
}

// Render executes the embedded template
func Render(opts Options) ([]byte, error) {
	tmplContent, err := templateFS.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	tmpl, err := template.New(config.FileName).Parse(string(tmplContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, opts); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.Bytes(), nil
}
