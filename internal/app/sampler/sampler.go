package sampler

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"

	"powermon/internal/app/errors"
	"powermon/internal/app/observation"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

//go:generate mockgen -source=sampler.go -destination=sampler_mock.go -package=sampler

// Sampler reads the current CPU utilisation in percent of total host capacity
type Sampler interface {
	Sample(ctx context.Context, match observation.Match) (float64, error)
	Source() string
}

type readFunc func(ctx context.Context, match observation.Match) (float64, error)

type sampler struct {
	source string
	read   readFunc
	log    logger.Logger
}

// NewSampler creates a Sampler for the configured source.
// The self source measures the powermon process, not the monitored target.
func NewSampler(cfg *config.Config, log logger.Logger) (Sampler, error) {
	read, err := readerFor(cfg.Sampler.Source)
	if err != nil {
		return nil, err
	}

	log = log.WithComponent("SAMPLER")
	if cfg.Sampler.Source == config.SourceSelf {
		log.Debug().Msg("CPU source is the powermon process itself, set sampler.source=target to measure the monitored process")
	}

	return &sampler{
		source: cfg.Sampler.Source,
		read:   read,
		log:    log,
	}, nil
}

// Sample returns the utilisation for this tick
func (s *sampler) Sample(ctx context.Context, match observation.Match) (float64, error) {
	percent, err := s.read(ctx, match)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errors.ErrSamplerUnavailable, err)
	}

	return percent, nil
}

// Source returns the configured source name
func (s *sampler) Source() string {
	return s.source
}

func readerFor(source string) (readFunc, error) {
	switch source {
	case config.SourceSelf:
		return newSelfReader().read, nil
	case config.SourceHost:
		return readHost, nil
	case config.SourceTarget:
		return newTargetReader().read, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownSource, source)
	}
}

// selfReader keeps one handle so gopsutil can diff CPU times between calls
type selfReader struct {
	mu   sync.Mutex
	proc *process.Process
}

func newSelfReader() *selfReader {
	return &selfReader{}
}

func (r *selfReader) read(ctx context.Context, _ observation.Match) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.proc == nil {
		proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())) // #nosec G115 -- PID fits in int32
		if err != nil {
			return 0, err
		}

		r.proc = proc
	}

	percent, err := r.proc.PercentWithContext(ctx, 0)
	if err != nil {
		return 0, err
	}

	return percent / float64(runtime.NumCPU()), nil
}

func readHost(ctx context.Context, _ observation.Match) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}

	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu times reported")
	}

	return percents[0], nil
}

// targetReader sums the matched processes, keeping handles across ticks while their PIDs stay matched
type targetReader struct {
	mu    sync.Mutex
	procs map[int32]*process.Process
}

func newTargetReader() *targetReader {
	return &targetReader{procs: make(map[int32]*process.Process)}
}

func (r *targetReader) read(ctx context.Context, match observation.Match) (float64, error) {
	if len(match.Processes) == 0 {
		return 0, fmt.Errorf("no matched processes to sample")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[int32]struct{}, len(match.Processes))

	var (
		total   float64
		sampled int
		lastErr error
	)

	for _, info := range match.Processes {
		seen[info.PID] = struct{}{}

		proc, ok := r.procs[info.PID]
		if !ok {
			p, err := process.NewProcessWithContext(ctx, info.PID)
			if err != nil {
				lastErr = err
				continue
			}

			proc = p
			r.procs[info.PID] = p
		}

		percent, err := proc.PercentWithContext(ctx, 0)
		if err != nil {
			lastErr = err
			delete(r.procs, info.PID)

			continue
		}

		total += percent
		sampled++
	}

	for pid := range r.procs {
		if _, ok := seen[pid]; !ok {
			delete(r.procs, pid)
		}
	}

	if sampled == 0 {
		return 0, lastErr
	}

	return total / float64(runtime.NumCPU()), nil
}
