package monitor

import (
	"context"
	"fmt"
	"time"

	"powermon/internal/app/errors"
	"powermon/internal/app/fault"
	"powermon/internal/app/inspector"
	"powermon/internal/app/observation"
	"powermon/internal/app/power"
	"powermon/internal/app/sampler"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

// Loop polls one target on a fixed interval and emits one observation per tick
type Loop interface {
	Run(ctx context.Context, target observation.ProcessQuery, interval time.Duration, sink observation.Sink) error
}

type loop struct {
	inspector inspector.Inspector
	sampler   sampler.Sampler
	estimator power.Estimator
	reporter  fault.Reporter
	now       func() time.Time
	log       logger.Logger
}

// NewLoop creates a monitor loop over the given collaborators
func NewLoop(
	insp inspector.Inspector,
	smp sampler.Sampler,
	est power.Estimator,
	rep fault.Reporter,
	log logger.Logger,
) Loop {
	return &loop{
		inspector: insp,
		sampler:   smp,
		estimator: est,
		reporter:  rep,
		now:       time.Now,
		log:       log.WithComponent("MONITOR"),
	}
}

// Run ticks until ctx is cancelled and returns nil in that case.
// Collaborator failures become error observations; a panic inside a tick ends the run with ErrLoopFault.
func (l *loop) Run(ctx context.Context, target observation.ProcessQuery, interval time.Duration, sink observation.Sink) error {
	if interval <= 0 {
		interval = config.DefaultInterval
	}

	l.log.Info().Msgf("Monitoring '%s' every %s using %s CPU source", target.Name, interval, l.sampler.Source())

	var (
		seq  uint64
		last time.Time
	)

	for {
		if ctx.Err() != nil {
			l.log.Info().Msgf("Stopped monitoring '%s'", target.Name)
			return nil
		}

		seq++

		obs, err := l.tick(ctx, target)
		obs.Target = target
		obs.Sequence = seq
		obs.Timestamp = l.stamp(last)
		last = obs.Timestamp

		if err != nil {
			obs.Err = err
			obs.Fatal = true
			sink.Emit(obs)

			l.log.Error().Err(err).Msgf("Monitoring '%s' aborted", target.Name)
			l.reporter.Report(err, map[string]string{
				"target":   target.Name,
				"sequence": fmt.Sprintf("%d", seq),
			})

			return err
		}

		if ctx.Err() != nil {
			l.log.Info().Msgf("Stopped monitoring '%s'", target.Name)
			return nil
		}

		if obs.Err != nil {
			l.log.Warn().Err(obs.Err).Msgf("Tick %d for '%s' degraded", seq, target.Name)
		} else {
			l.log.Debug().Msgf("Tick %d for '%s' found=%t", seq, target.Name, obs.Match.Found)
		}

		sink.Emit(obs)

		if !sleep(ctx, interval) {
			l.log.Info().Msgf("Stopped monitoring '%s'", target.Name)
			return nil
		}
	}
}

// tick runs one query/sample/estimate pass; the returned error is only set for a recovered panic
func (l *loop) tick(ctx context.Context, target observation.ProcessQuery) (obs observation.Observation, err error) {
	defer func() {
		if r := recover(); r != nil {
			obs = observation.Observation{}
			err = fmt.Errorf("%w: %v", errors.ErrLoopFault, r)
		}
	}()

	match, err := l.inspector.FindByName(ctx, target.Name)
	if err != nil {
		return observation.Observation{Err: err}, nil
	}

	obs.Match = match
	if !match.Found {
		return obs, nil
	}

	percent, err := l.sampler.Sample(ctx, match)
	if err != nil {
		obs.Err = err
		return obs, nil
	}

	sample := observation.NewCPUSample(percent)
	estimate := l.estimator.Estimate(sample.UtilizationPercent)

	obs.Sample = &sample
	obs.Estimate = &estimate

	return obs, nil
}

// stamp returns the current time, nudged forward when the clock has not advanced past last
func (l *loop) stamp(last time.Time) time.Time {
	ts := l.now()
	if !last.IsZero() && !ts.After(last) {
		ts = last.Add(time.Nanosecond)
	}

	return ts
}

// sleep waits for d and reports false if ctx was cancelled first
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
