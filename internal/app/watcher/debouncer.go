package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of change notifications into one callback
type Debouncer interface {
	Trigger(file string)
	Stop()
}

type debouncer struct {
	duration time.Duration
	callback func(files []string)
	timer    *time.Timer
	pending  map[string]struct{}
	mu       sync.Mutex
	stopped  bool
}

// NewDebouncer creates a Debouncer that calls callback once the files have been quiet for duration
func NewDebouncer(duration time.Duration, callback func(files []string)) Debouncer {
	return &debouncer{
		duration: duration,
		callback: callback,
		pending:  make(map[string]struct{}),
	}
}

// Trigger records a change and restarts the quiet period
func (d *debouncer) Trigger(file string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, d.fire)
}

// Stop cancels any pending callback and ignores later triggers
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	clear(d.pending)
}

func (d *debouncer) fire() {
	d.mu.Lock()

	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}

	files := make([]string, 0, len(d.pending))
	for f := range d.pending {
		files = append(files, f)
	}

	clear(d.pending)
	d.timer = nil

	d.mu.Unlock()

	d.callback(files)
}
