package fault

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"powermon/internal/config"
	"powermon/internal/config/logger"
)

// Reporter forwards unrecoverable faults to an error tracker
type Reporter interface {
	Report(err error, tags map[string]string)
	Flush(timeout time.Duration) bool
}

type reporter struct {
	hub *sentry.Hub
	log logger.Logger
}

// NewReporter creates a sentry-backed reporter, or a no-op one when no DSN is configured
func NewReporter(cfg *config.Config, log logger.Logger) (Reporter, error) {
	if cfg.Telemetry.SentryDSN == "" {
		return NoOp(), nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:     cfg.Telemetry.SentryDSN,
		Release: "powermon@" + config.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	return &reporter{
		hub: sentry.NewHub(client, sentry.NewScope()),
		log: log.WithComponent("FAULT"),
	}, nil
}

// Report captures err with the given tags at fatal level
func (r *reporter) Report(err error, tags map[string]string) {
	if err == nil {
		return
	}

	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)

		for k, v := range tags {
			scope.SetTag(k, v)
		}

		if id := r.hub.CaptureException(err); id != nil {
			r.log.Debug().Msgf("Reported fault %s", *id)
		}
	})
}

// Flush waits for queued reports to be delivered
func (r *reporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}

// NoOp returns a reporter that discards everything
func NoOp() Reporter {
	return noOpReporter{}
}

type noOpReporter struct{}

func (noOpReporter) Report(error, map[string]string) {}
func (noOpReporter) Flush(time.Duration) bool        { return true }
