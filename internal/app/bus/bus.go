package bus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"powermon/internal/app/observation"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

// MessageType represents the type of message
type MessageType string

// Event types
const (
	EventSessionStarted  MessageType = "session_started"
	EventSessionStopped  MessageType = "session_stopped"
	EventObservation     MessageType = "observation"
	EventProcessesListed MessageType = "processes_listed"
	EventConfigReloaded  MessageType = "config_reloaded"
)

// Message represents a bus message
type Message struct {
	Type      MessageType
	Timestamp time.Time
	Data      interface{}
}

// SessionStarted indicates a monitoring session began
type SessionStarted struct {
	Session  string
	Target   string
	Interval time.Duration
	Source   string
}

// SessionStopped indicates a monitoring session ended, Err is set when it ended on a fault
type SessionStopped struct {
	Session string
	Target  string
	Err     error
}

// ProcessesListed carries the result of a process list refresh
type ProcessesListed struct {
	Names []string
	Err   error
}

// ConfigReloaded carries the power coefficients applied after a config file change
type ConfigReloaded struct {
	BaseWatts float64
	MaxWatts  float64
}

// Bus handles pub/sub messaging and is the observation sink of the monitor loop
type Bus interface {
	Subscribe(ctx context.Context) <-chan Message
	Publish(msg Message)
	Emit(obs observation.Observation)
	Dropped() uint64
	Close()
}

// bus delivers to per-subscriber buffers and never blocks the publisher
type bus struct {
	buffer      int
	subscribers []chan Message
	mu          sync.RWMutex
	closed      bool
	dropped     atomic.Uint64
	log         logger.Logger
}

// New creates a new Bus
func New(cfg *config.Config, log logger.Logger) Bus {
	buffer := cfg.Bus.Buffer
	if buffer <= 0 {
		buffer = config.DefaultBusBuffer
	}

	return &bus{
		buffer:      buffer,
		subscribers: make([]chan Message, 0),
		log:         log,
	}
}

// Subscribe creates a new subscription channel that is closed when ctx is done
func (b *bus) Subscribe(ctx context.Context) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, b.buffer)

	if b.closed {
		close(ch)
		return ch
	}

	b.subscribers = append(b.subscribers, ch)

	go func() {
		<-ctx.Done()
		b.unsubscribe(ch)
	}()

	return ch
}

// Publish sends a message to all subscribers, evicting a subscriber's oldest message when its buffer is full
func (b *bus) Publish(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	if b.log != nil {
		b.log.Debug().Msgf("%s %s", msg.Type, formatData(msg.Data))
	}

	for _, ch := range b.subscribers {
		b.deliver(ch, msg)
	}
}

// Emit publishes an observation, satisfying observation.Sink
func (b *bus) Emit(obs observation.Observation) {
	b.Publish(Message{
		Type:      EventObservation,
		Timestamp: obs.Timestamp,
		Data:      obs,
	})
}

// Dropped returns how many queued messages were evicted to make room
func (b *bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels
func (b *bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for _, ch := range b.subscribers {
		close(ch)
	}

	b.subscribers = nil
}

// deliver tries to enqueue msg, dropping the oldest queued message while the buffer is full
func (b *bus) deliver(ch chan Message, msg Message) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}

		select {
		case old := <-ch:
			b.dropped.Add(1)

			if b.log != nil {
				b.log.Debug().Msgf("Subscriber buffer full, dropped %s", old.Type)
			}
		default:
		}
	}
}

func (b *bus) unsubscribe(ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)

			close(ch)

			break
		}
	}
}

func formatData(data interface{}) string {
	switch d := data.(type) {
	case SessionStarted:
		return fmt.Sprintf("{session: %s, target: %s, interval: %s, source: %s}", d.Session, d.Target, d.Interval, d.Source)
	case SessionStopped:
		if d.Err != nil {
			return fmt.Sprintf("{session: %s, target: %s, error: %v}", d.Session, d.Target, d.Err)
		}

		return fmt.Sprintf("{session: %s, target: %s}", d.Session, d.Target)
	case observation.Observation:
		return fmt.Sprintf("{session: %s, seq: %d, found: %t, estimate: %t}", d.Session, d.Sequence, d.Match.Found, d.HasEstimate())
	case ProcessesListed:
		if d.Err != nil {
			return fmt.Sprintf("{error: %v}", d.Err)
		}

		return fmt.Sprintf("{count: %d}", len(d.Names))
	case ConfigReloaded:
		return fmt.Sprintf("{base: %.1fW, max: %.1fW}", d.BaseWatts, d.MaxWatts)
	default:
		return fmt.Sprintf("%+v", data)
	}
}

// NoOp returns a no-op bus for when messaging is disabled
func NoOp() Bus {
	return &noOpBus{}
}

// noOpBus implements Bus interface with no-op methods for testing
type noOpBus struct{}

func (n *noOpBus) Subscribe(ctx context.Context) <-chan Message {
	ch := make(chan Message)

	go func() {
		<-ctx.Done()
		close(ch)
	}()

	return ch
}

func (n *noOpBus) Publish(msg Message)              {}
func (n *noOpBus) Emit(obs observation.Observation) {}
func (n *noOpBus) Dropped() uint64                  { return 0 }
func (n *noOpBus) Close()                           {}
