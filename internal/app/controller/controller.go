package controller

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"powermon/internal/app/bus"
	"powermon/internal/app/errors"
	"powermon/internal/app/inspector"
	"powermon/internal/app/monitor"
	"powermon/internal/app/observation"
	"powermon/internal/app/worker"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

//go:generate mockgen -source=controller.go -destination=controller_mock.go -package=controller

// Status is a snapshot of the controller for presentation layers
type Status struct {
	Active  bool
	Target  string
	Session string
	State   string
}

// ListResult is the outcome of a background process list refresh
type ListResult struct {
	Names []string
	Err   error
}

// Controller starts and stops the single monitoring session
type Controller interface {
	Start(name string) error
	Stop() error
	ListProcesses(ctx context.Context) ([]string, error)
	ListProcessesAsync(ctx context.Context) <-chan ListResult
	Status() Status
	Done() <-chan struct{}
	Close()
}

// session is one start-to-stop run; done is closed once its loop has returned
type session struct {
	id     string
	target observation.ProcessQuery
	cancel context.CancelFunc
	done   chan struct{}
}

type controller struct {
	mu           sync.Mutex
	interval     time.Duration
	drainTimeout time.Duration
	source       string
	loop         monitor.Loop
	inspector    inspector.Inspector
	bus          bus.Bus
	pool         worker.Pool
	state        *fsm.FSM
	current      *session
	newID        func() string
	log          logger.Logger
}

// NewController creates a Controller
func NewController(
	cfg *config.Config,
	loop monitor.Loop,
	insp inspector.Inspector,
	b bus.Bus,
	pool worker.Pool,
	log logger.Logger,
) Controller {
	log = log.WithComponent("CONTROLLER")

	return &controller{
		interval:     cfg.Monitor.Interval,
		drainTimeout: cfg.Monitor.DrainTimeout,
		source:       cfg.Sampler.Source,
		loop:         loop,
		inspector:    insp,
		bus:          b,
		pool:         pool,
		state:        newSessionFSM(log),
		newID:        uuid.NewString,
		log:          log,
	}
}

// Start begins monitoring name and returns without waiting for the first tick.
// A session that is still draining after Stop is waited for up to the drain timeout.
func (c *controller) Start(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.ErrEmptyTarget
	}

	if _, err := inspector.NewNameMatcher(name); err != nil {
		return err
	}

	if err := c.awaitDrain(); err != nil {
		return err
	}

	c.mu.Lock()

	switch c.state.Current() {
	case Running:
		c.mu.Unlock()
		return errors.ErrAlreadyMonitoring
	case Stopping:
		c.mu.Unlock()
		return errors.ErrStopPending
	}

	if err := c.state.Event(context.Background(), Start); err != nil {
		c.mu.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     c.newID(),
		target: observation.ProcessQuery{Name: name},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.current = s

	c.mu.Unlock()

	c.log.Info().Msgf("Starting session %s for '%s'", s.id, name)

	c.bus.Publish(bus.Message{
		Type: bus.EventSessionStarted,
		Data: bus.SessionStarted{
			Session:  s.id,
			Target:   name,
			Interval: c.interval,
			Source:   c.source,
		},
	})

	go c.run(ctx, s)

	return nil
}

// Stop signals the active session and returns without waiting for its loop to exit
func (c *controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Current() != Running || c.current == nil {
		return errors.ErrNotMonitoring
	}

	if err := c.state.Event(context.Background(), Stop); err != nil {
		return err
	}

	c.current.cancel()
	c.log.Info().Msgf("Stopping session %s for '%s'", c.current.id, c.current.target.Name)

	return nil
}

// ListProcesses returns running process names, deduplicated and sorted case-insensitively
func (c *controller) ListProcesses(ctx context.Context) ([]string, error) {
	names, err := c.inspector.ListAll(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to list processes")
		c.bus.Publish(bus.Message{Type: bus.EventProcessesListed, Data: bus.ProcessesListed{Err: err}})

		return nil, err
	}

	names = UniqueSorted(names)

	c.bus.Publish(bus.Message{Type: bus.EventProcessesListed, Data: bus.ProcessesListed{Names: names}})

	return names, nil
}

// ListProcessesAsync runs ListProcesses on the worker pool and delivers a single result
func (c *controller) ListProcessesAsync(ctx context.Context) <-chan ListResult {
	ch := make(chan ListResult, 1)

	go func() {
		err := c.pool.Go(ctx, func() {
			defer close(ch)

			names, err := c.ListProcesses(ctx)
			ch <- ListResult{Names: names, Err: err}
		})
		if err != nil {
			ch <- ListResult{Err: err}
			close(ch)
		}
	}()

	return ch
}

// Status returns a snapshot of the session state
func (c *controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{State: c.state.Current()}
	st.Active = st.State == Running

	if c.current != nil {
		st.Target = c.current.target.Name
		st.Session = c.current.id
	}

	return st
}

// Done returns a channel closed when the current session's loop has exited, or a closed channel when idle
func (c *controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		done := make(chan struct{})
		close(done)

		return done
	}

	return c.current.done
}

// Close stops any session and waits for its loop to exit
func (c *controller) Close() {
	c.mu.Lock()
	s := c.current

	if s != nil && c.state.Current() == Running {
		_ = c.state.Event(context.Background(), Stop)
	}

	c.mu.Unlock()

	if s == nil {
		return
	}

	s.cancel()

	select {
	case <-s.done:
	case <-time.After(config.ShutdownTimeout):
		c.log.Warn().Msgf("Session %s did not stop within %s", s.id, config.ShutdownTimeout)
	}
}

// awaitDrain waits for a stopped session's loop to exit, failing with ErrStopPending after the drain timeout
func (c *controller) awaitDrain() error {
	c.mu.Lock()
	s := c.current
	draining := s != nil && c.state.Current() == Stopping
	c.mu.Unlock()

	if !draining {
		return nil
	}

	timer := time.NewTimer(c.drainTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
		return nil
	case <-timer.C:
		return errors.ErrStopPending
	}
}

// run drives the loop for one session and settles the state when it returns
func (c *controller) run(ctx context.Context, s *session) {
	sink := observation.SinkFunc(func(obs observation.Observation) {
		obs.Session = s.id
		c.bus.Emit(obs)
	})

	err := c.loop.Run(ctx, s.target, c.interval, sink)

	c.mu.Lock()

	event := Drained
	if err != nil {
		event = Fault
	}

	if c.current == s {
		if fsmErr := c.state.Event(context.Background(), event); fsmErr != nil {
			c.log.Warn().Err(fsmErr).Msgf("Unexpected %s transition from %s", event, c.state.Current())
		}

		c.current = nil
	}

	c.mu.Unlock()

	s.cancel()
	close(s.done)

	if err != nil {
		c.log.Error().Err(err).Msgf("Session %s for '%s' ended on a fault", s.id, s.target.Name)
	} else {
		c.log.Info().Msgf("Session %s for '%s' stopped", s.id, s.target.Name)
	}

	c.bus.Publish(bus.Message{
		Type: bus.EventSessionStopped,
		Data: bus.SessionStopped{Session: s.id, Target: s.target.Name, Err: err},
	})
}

// UniqueSorted collapses names that differ only in case, keeping the first spelling seen, and sorts them case-insensitively
func UniqueSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		result = append(result, name)
	}

	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i]) < strings.ToLower(result[j])
	})

	return result
}
