package controller

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"powermon/internal/app/bus"
	"powermon/internal/app/errors"
	"powermon/internal/app/inspector"
	"powermon/internal/app/observation"
	"powermon/internal/app/worker"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

// fakeLoop emits one observation then blocks until cancelled, optionally holding on until released
type fakeLoop struct {
	mu      sync.Mutex
	runs    []observation.ProcessQuery
	started chan string
	release chan struct{}
	err     error
}

func newFakeLoop() *fakeLoop {
	return &fakeLoop{started: make(chan string, 8)}
}

func (f *fakeLoop) Run(ctx context.Context, target observation.ProcessQuery, interval time.Duration, sink observation.Sink) error {
	f.mu.Lock()
	f.runs = append(f.runs, target)
	f.mu.Unlock()

	sink.Emit(observation.Observation{Target: target, Sequence: 1})

	f.started <- target.Name

	if f.err != nil {
		return f.err
	}

	<-ctx.Done()

	if f.release != nil {
		<-f.release
	}

	return nil
}

func (f *fakeLoop) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.runs)
}

func newTestController(t *testing.T, loop *fakeLoop, insp inspector.Inspector, b bus.Bus) *controller {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockLog := logger.NewMockLogger(ctrl)
	mockLog.EXPECT().WithComponent("CONTROLLER").Return(mockLog).AnyTimes()
	mockLog.EXPECT().Debug().Return(nil).AnyTimes()
	mockLog.EXPECT().Info().Return(nil).AnyTimes()
	mockLog.EXPECT().Warn().Return(nil).AnyTimes()
	mockLog.EXPECT().Error().Return(nil).AnyTimes()

	if insp == nil {
		insp = inspector.NewMockInspector(ctrl)
	}

	if b == nil {
		b = bus.NoOp()
	}

	cfg := config.DefaultConfig()
	cfg.Monitor.Interval = 10 * time.Millisecond
	cfg.Monitor.DrainTimeout = 200 * time.Millisecond

	c, ok := NewController(cfg, loop, insp, b, worker.NewWorkerPool(cfg), mockLog).(*controller)
	require.True(t, ok)

	t.Cleanup(c.Close)

	return c
}

func waitStarted(t *testing.T, loop *fakeLoop) string {
	t.Helper()

	select {
	case name := <-loop.started:
		return name
	case <-time.After(time.Second):
		t.Fatal("Loop was not started")
		return ""
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Session did not finish")
	}
}

func Test_Start(t *testing.T) {
	loop := newFakeLoop()
	c := newTestController(t, loop, nil, nil)

	require.NoError(t, c.Start("  notepad.exe "))
	assert.Equal(t, "notepad.exe", waitStarted(t, loop))

	st := c.Status()
	assert.True(t, st.Active)
	assert.Equal(t, Running, st.State)
	assert.Equal(t, "notepad.exe", st.Target)
	assert.NotEmpty(t, st.Session)
}

func Test_Start_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		expectedErr error
	}{
		{name: "empty", target: "", expectedErr: errors.ErrEmptyTarget},
		{name: "blank", target: " \t ", expectedErr: errors.ErrEmptyTarget},
		{name: "invalid pattern", target: "[notepad", expectedErr: errors.ErrInvalidPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loop := newFakeLoop()
			c := newTestController(t, loop, nil, nil)

			err := c.Start(tt.target)

			assert.ErrorIs(t, err, tt.expectedErr)
			assert.True(t, errors.IsConfiguration(err))
			assert.Equal(t, Idle, c.Status().State)
			assert.Zero(t, loop.count())
		})
	}
}

func Test_Start_Twice(t *testing.T) {
	loop := newFakeLoop()
	c := newTestController(t, loop, nil, nil)

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)

	first := c.Status()

	err := c.Start("chrome.exe")

	assert.ErrorIs(t, err, errors.ErrAlreadyMonitoring)
	assert.True(t, errors.IsLifecycle(err))

	second := c.Status()
	assert.True(t, second.Active)
	assert.Equal(t, first.Session, second.Session)
	assert.Equal(t, "notepad.exe", second.Target)
	assert.Equal(t, 1, loop.count())
}

func Test_Stop_NotMonitoring(t *testing.T) {
	c := newTestController(t, newFakeLoop(), nil, nil)

	err := c.Stop()

	assert.ErrorIs(t, err, errors.ErrNotMonitoring)
	assert.True(t, errors.IsLifecycle(err))
}

func Test_Stop(t *testing.T) {
	loop := newFakeLoop()
	c := newTestController(t, loop, nil, nil)

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)

	done := c.Done()

	require.NoError(t, c.Stop())
	assert.False(t, c.Status().Active)

	waitDone(t, done)

	assert.Equal(t, Idle, c.Status().State)
	assert.ErrorIs(t, c.Stop(), errors.ErrNotMonitoring)
}

func Test_Stop_DoesNotWaitForLoop(t *testing.T) {
	loop := newFakeLoop()
	loop.release = make(chan struct{})

	c := newTestController(t, loop, nil, nil)

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)

	returned := make(chan error, 1)

	go func() {
		returned <- c.Stop()
	}()

	select {
	case err := <-returned:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on the loop")
	}

	st := c.Status()
	assert.Equal(t, Stopping, st.State)
	assert.False(t, st.Active)
	assert.ErrorIs(t, c.Stop(), errors.ErrNotMonitoring)

	close(loop.release)
}

func Test_Start_WhileDraining(t *testing.T) {
	loop := newFakeLoop()
	loop.release = make(chan struct{})

	c := newTestController(t, loop, nil, nil)

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)
	require.NoError(t, c.Stop())

	err := c.Start("notepad.exe")

	assert.ErrorIs(t, err, errors.ErrStopPending)
	assert.Equal(t, 1, loop.count())

	close(loop.release)
	waitDone(t, c.Done())

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)
	assert.Equal(t, 2, loop.count())
}

func Test_Start_WaitsForDrain(t *testing.T) {
	loop := newFakeLoop()
	loop.release = make(chan struct{})

	c := newTestController(t, loop, nil, nil)

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)

	firstSession := c.Status().Session

	require.NoError(t, c.Stop())

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(loop.release)
	}()

	require.NoError(t, c.Start("chrome.exe"))
	assert.Equal(t, "chrome.exe", waitStarted(t, loop))

	st := c.Status()
	assert.True(t, st.Active)
	assert.NotEqual(t, firstSession, st.Session)
}

func Test_LoopFault_ReturnsToIdle(t *testing.T) {
	loop := newFakeLoop()
	loop.err = fmt.Errorf("%w: boom", errors.ErrLoopFault)

	b := bus.New(config.DefaultConfig(), nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := b.Subscribe(ctx)

	c := newTestController(t, loop, nil, b)

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)
	waitDone(t, c.Done())

	assert.Equal(t, Idle, c.Status().State)
	assert.ErrorIs(t, c.Stop(), errors.ErrNotMonitoring)

	var stopped *bus.SessionStopped

	timeout := time.After(time.Second)

	for stopped == nil {
		select {
		case msg := <-events:
			if data, ok := msg.Data.(bus.SessionStopped); ok {
				stopped = &data
			}
		case <-timeout:
			t.Fatal("Expected session_stopped event")
		}
	}

	assert.ErrorIs(t, stopped.Err, errors.ErrLoopFault)
	assert.Equal(t, "notepad.exe", stopped.Target)
}

func Test_Session_EventsOrder(t *testing.T) {
	loop := newFakeLoop()

	b := bus.New(config.DefaultConfig(), nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := b.Subscribe(ctx)

	c := newTestController(t, loop, nil, b)
	c.newID = func() string { return "session-1" }

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)
	require.NoError(t, c.Stop())
	waitDone(t, c.Done())

	expected := []bus.MessageType{bus.EventSessionStarted, bus.EventObservation, bus.EventSessionStopped}

	for _, want := range expected {
		select {
		case msg := <-events:
			assert.Equal(t, want, msg.Type)

			switch data := msg.Data.(type) {
			case bus.SessionStarted:
				assert.Equal(t, "session-1", data.Session)
				assert.Equal(t, config.SourceSelf, data.Source)
			case observation.Observation:
				assert.Equal(t, "session-1", data.Session)
			case bus.SessionStopped:
				assert.NoError(t, data.Err)
			}
		case <-time.After(time.Second):
			t.Fatalf("Expected %s event", want)
		}
	}
}

func Test_Done_Idle(t *testing.T) {
	c := newTestController(t, newFakeLoop(), nil, nil)

	select {
	case <-c.Done():
	default:
		t.Fatal("Done should be closed when idle")
	}
}

func Test_Close(t *testing.T) {
	loop := newFakeLoop()
	c := newTestController(t, loop, nil, nil)

	require.NoError(t, c.Start("notepad.exe"))
	waitStarted(t, loop)

	done := c.Done()

	c.Close()

	waitDone(t, done)
	assert.Equal(t, Idle, c.Status().State)

	c.Close()
}

func Test_ListProcesses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInspector := inspector.NewMockInspector(ctrl)
	mockInspector.EXPECT().ListAll(gomock.Any()).Return([]string{"svchost.exe", "Svchost.exe", "chrome.exe"}, nil)

	c := newTestController(t, newFakeLoop(), mockInspector, nil)

	names, err := c.ListProcesses(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"chrome.exe", "svchost.exe"}, names)
}

func Test_ListProcesses_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	listErr := fmt.Errorf("%w: permission denied", errors.ErrInspectorUnavailable)

	mockInspector := inspector.NewMockInspector(ctrl)
	mockInspector.EXPECT().ListAll(gomock.Any()).Return(nil, listErr)

	c := newTestController(t, newFakeLoop(), mockInspector, nil)

	names, err := c.ListProcesses(context.Background())

	assert.ErrorIs(t, err, errors.ErrInspectorUnavailable)
	assert.Nil(t, names)
}

func Test_ListProcessesAsync(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInspector := inspector.NewMockInspector(ctrl)
	mockInspector.EXPECT().ListAll(gomock.Any()).Return([]string{"b", "A", "a"}, nil)

	c := newTestController(t, newFakeLoop(), mockInspector, nil)

	select {
	case res, ok := <-c.ListProcessesAsync(context.Background()):
		require.True(t, ok)
		require.NoError(t, res.Err)
		assert.Equal(t, []string{"A", "b"}, res.Names)
	case <-time.After(time.Second):
		t.Fatal("Expected list result")
	}
}

func Test_ListProcessesAsync_Cancelled(t *testing.T) {
	c := newTestController(t, newFakeLoop(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < config.DefaultWorkers; i++ {
		require.NoError(t, c.pool.Acquire(context.Background()))
	}

	defer func() {
		for i := 0; i < config.DefaultWorkers; i++ {
			c.pool.Release()
		}
	}()

	ch := c.ListProcessesAsync(ctx)

	cancel()

	select {
	case res := <-ch:
		assert.ErrorIs(t, res.Err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Expected cancellation result")
	}

	_, ok := <-ch
	assert.False(t, ok)
}

func Test_UniqueSorted(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "empty", input: nil, expected: []string{}},
		{name: "case duplicates keep first spelling", input: []string{"svchost.exe", "Svchost.exe", "chrome.exe"}, expected: []string{"chrome.exe", "svchost.exe"}},
		{name: "upper case first", input: []string{"Svchost.exe", "svchost.exe"}, expected: []string{"Svchost.exe"}},
		{name: "sorted ignoring case", input: []string{"zsh", "Bash", "alacritty"}, expected: []string{"alacritty", "Bash", "zsh"}},
		{name: "blank names skipped", input: []string{"", "  ", "init"}, expected: []string{"init"}},
		{name: "exact duplicates", input: []string{"bash", "bash", "bash"}, expected: []string{"bash"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UniqueSorted(tt.input))
		})
	}
}
