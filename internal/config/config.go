package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"powermon/internal/app/errors"
)

// Config represents the application configuration
type Config struct {
	Logging     Logging     `mapstructure:"logging" yaml:"logging"`
	Monitor     Monitor     `mapstructure:"monitor" yaml:"monitor"`
	Power       Power       `mapstructure:"power" yaml:"power"`
	Sampler     Sampler     `mapstructure:"sampler" yaml:"sampler"`
	Bus         Bus         `mapstructure:"bus" yaml:"bus"`
	Concurrency Concurrency `mapstructure:"concurrency" yaml:"concurrency"`
	Telemetry   Telemetry   `mapstructure:"telemetry" yaml:"telemetry"`
}

// Logging holds logger settings
type Logging struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Monitor holds polling settings
type Monitor struct {
	Interval     time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout" yaml:"drain_timeout" validate:"gte=0"`
	Target       string        `mapstructure:"target" yaml:"target"`
}

// Power holds the linear power model coefficients in watts
type Power struct {
	BaseWatts float64 `mapstructure:"base_watts" yaml:"base_watts" validate:"gte=0"`
	MaxWatts  float64 `mapstructure:"max_watts" yaml:"max_watts" validate:"gtefield=BaseWatts"`
}

// Sampler selects where CPU utilisation is read from
type Sampler struct {
	Source string `mapstructure:"source" yaml:"source" validate:"oneof=self host target"`
}

// Bus holds observation buffering settings
type Bus struct {
	Buffer int `mapstructure:"buffer" yaml:"buffer" validate:"gt=0"`
}

// Concurrency holds background task limits
type Concurrency struct {
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gt=0"`
}

// Telemetry holds fault reporting settings
type Telemetry struct {
	SentryDSN string `mapstructure:"sentry_dsn" yaml:"sentry_dsn"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Logging.Level = DefaultLogLevel
	cfg.Logging.Format = DefaultLogFormat

	cfg.Monitor.Interval = DefaultInterval
	cfg.Monitor.DrainTimeout = DefaultDrainTimeout

	cfg.Power.BaseWatts = DefaultBaseWatts
	cfg.Power.MaxWatts = DefaultMaxWatts

	cfg.Sampler.Source = DefaultSource

	cfg.Bus.Buffer = DefaultBusBuffer

	cfg.Concurrency.Workers = DefaultWorkers

	return cfg
}

// Load loads the configuration from powermon.yaml, .env and POWERMON_* variables
func Load() (*Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.ErrFailedToReadConfig
	}

	return LoadFile(FileName)
}

// LoadFile loads the configuration from the given yaml file, falling back to defaults when it does not exist
func LoadFile(path string) (*Config, error) {
	v := newViper(DefaultConfig())

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, errors.ErrFailedToParseConfig
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.ErrFailedToReadConfig
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ErrFailedToParseConfig
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// normalize trims and lowercases free-form enum values
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Sampler.Source = strings.ToLower(strings.TrimSpace(c.Sampler.Source))
	c.Monitor.Target = strings.TrimSpace(c.Monitor.Target)
}

// newViper creates a viper instance seeded with defaults so env overrides apply to every key
func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("monitor.interval", defaults.Monitor.Interval)
	v.SetDefault("monitor.drain_timeout", defaults.Monitor.DrainTimeout)
	v.SetDefault("monitor.target", defaults.Monitor.Target)
	v.SetDefault("power.base_watts", defaults.Power.BaseWatts)
	v.SetDefault("power.max_watts", defaults.Power.MaxWatts)
	v.SetDefault("sampler.source", defaults.Sampler.Source)
	v.SetDefault("bus.buffer", defaults.Bus.Buffer)
	v.SetDefault("concurrency.workers", defaults.Concurrency.Workers)
	v.SetDefault("telemetry.sentry_dsn", defaults.Telemetry.SentryDSN)

	return v
}
