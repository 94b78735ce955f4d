package dashboard

import (
	"github.com/charmbracelet/bubbles/spinner"

	"powermon/internal/app/ui/components"
)

// Loader operation keys
const (
	opRefresh = "refresh"
	opStop    = "stop"
)

// LoaderItem represents a single pending operation
type LoaderItem struct {
	Op      string
	Message string
}

// Loader holds spinner state for pending operations
type Loader struct {
	Model  spinner.Model
	Active bool
	queue  []LoaderItem
}

// NewLoader creates a loader with the dot spinner
func NewLoader() *Loader {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = components.SpinnerStyle

	return &Loader{Model: s}
}

// Start adds an operation to the queue, or updates its message
func (l *Loader) Start(op, msg string) {
	for i := range l.queue {
		if l.queue[i].Op == op {
			l.queue[i].Message = msg
			return
		}
	}

	l.queue = append(l.queue, LoaderItem{Op: op, Message: msg})
	l.Active = true
}

// Stop removes an operation from the queue
func (l *Loader) Stop(op string) {
	for i := 0; i < len(l.queue); i++ {
		if l.queue[i].Op == op {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			break
		}
	}

	if len(l.queue) == 0 {
		l.Active = false
	}
}

// StopAll clears the queue
func (l *Loader) StopAll() {
	l.queue = nil
	l.Active = false
}

// Message returns the message at the front of the queue
func (l *Loader) Message() string {
	if len(l.queue) == 0 {
		return ""
	}

	return l.queue[0].Message
}

// Has checks if an operation is pending
func (l *Loader) Has(op string) bool {
	for _, item := range l.queue {
		if item.Op == op {
			return true
		}
	}

	return false
}
