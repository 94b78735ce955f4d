package controller

import (
	"context"

	"github.com/looplab/fsm"

	"powermon/internal/config/logger"
)

// FSM states
const (
	Idle     = "idle"
	Running  = "running"
	Stopping = "stopping"
)

// FSM events
const (
	Start   = "start"
	Stop    = "stop"
	Drained = "drained"
	Fault   = "fault"
)

// newSessionFSM creates the state machine guarding the single monitoring session
func newSessionFSM(log logger.Logger) *fsm.FSM {
	return fsm.NewFSM(
		Idle,
		fsm.Events{
			{Name: Start, Src: []string{Idle}, Dst: Running},
			{Name: Stop, Src: []string{Running}, Dst: Stopping},
			{Name: Drained, Src: []string{Running, Stopping}, Dst: Idle},
			{Name: Fault, Src: []string{Running, Stopping}, Dst: Idle},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				log.Debug().Msgf("STATE %s → %s (trigger: %s)", e.Src, e.Dst, e.Event)
			},
		},
	)
}
