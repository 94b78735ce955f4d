package monitor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"powermon/internal/app/errors"
	"powermon/internal/app/fault"
	"powermon/internal/app/inspector"
	"powermon/internal/app/observation"
	"powermon/internal/app/power"
	"powermon/internal/app/sampler"
	"powermon/internal/config/logger"
)

var target = observation.ProcessQuery{Name: "notepad.exe"}

var found = observation.Match{
	Found:     true,
	Detail:    "notepad.exe 4242 1,024 K\n",
	Processes: []observation.ProcessInfo{{PID: 4242, Name: "notepad.exe", RSS: 1 << 20}},
}

// recorder is a sink that keeps every observation and can cancel after a given count
type recorder struct {
	mu     sync.Mutex
	obs    []observation.Observation
	limit  int
	cancel context.CancelFunc
	seen   chan struct{}
}

func newRecorder(limit int, cancel context.CancelFunc) *recorder {
	return &recorder{limit: limit, cancel: cancel, seen: make(chan struct{}, 64)}
}

func (r *recorder) Emit(obs observation.Observation) {
	r.mu.Lock()
	r.obs = append(r.obs, obs)
	n := len(r.obs)
	r.mu.Unlock()

	r.seen <- struct{}{}

	if r.limit > 0 && n >= r.limit {
		r.cancel()
	}
}

func (r *recorder) all() []observation.Observation {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]observation.Observation(nil), r.obs...)
}

type faultRecorder struct {
	mu   sync.Mutex
	errs []error
	tags []map[string]string
}

func (f *faultRecorder) Report(err error, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errs = append(f.errs, err)
	f.tags = append(f.tags, tags)
}

func (f *faultRecorder) Flush(time.Duration) bool { return true }

func newTestLoop(t *testing.T, ctrl *gomock.Controller) (*loop, *inspector.MockInspector, *sampler.MockSampler) {
	t.Helper()

	mockLog := logger.NewMockLogger(ctrl)
	mockLog.EXPECT().Debug().Return(nil).AnyTimes()
	mockLog.EXPECT().Info().Return(nil).AnyTimes()
	mockLog.EXPECT().Warn().Return(nil).AnyTimes()
	mockLog.EXPECT().Error().Return(nil).AnyTimes()

	mockInspector := inspector.NewMockInspector(ctrl)
	mockSampler := sampler.NewMockSampler(ctrl)
	mockSampler.EXPECT().Source().Return("self").AnyTimes()

	return &loop{
		inspector: mockInspector,
		sampler:   mockSampler,
		estimator: power.NewEstimatorWithModel(power.DefaultModel()),
		reporter:  fault.NoOp(),
		now:       time.Now,
		log:       mockLog,
	}, mockInspector, mockSampler
}

func Test_NewLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLog := logger.NewMockLogger(ctrl)
	mockLog.EXPECT().WithComponent("MONITOR").Return(mockLog)

	l := NewLoop(inspector.NewMockInspector(ctrl), sampler.NewMockSampler(ctrl), power.NewEstimatorWithModel(power.DefaultModel()), fault.NoOp(), mockLog)

	assert.NotNil(t, l)
}

func Test_Run_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		ticks int
	}{
		{name: "single tick", ticks: 1},
		{name: "three ticks", ticks: 3},
		{name: "ten ticks", ticks: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			l, mockInspector, _ := newTestLoop(t, ctrl)
			frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
			l.now = func() time.Time { return frozen }

			mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").Return(observation.Match{}, nil).Times(tt.ticks)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sink := newRecorder(tt.ticks, cancel)

			err := l.Run(ctx, target, time.Millisecond, sink)
			require.NoError(t, err)

			got := sink.all()
			require.Len(t, got, tt.ticks)

			for i, obs := range got {
				assert.False(t, obs.Match.Found)
				assert.Empty(t, obs.Match.Detail)
				assert.Nil(t, obs.Sample)
				assert.Nil(t, obs.Estimate)
				assert.NoError(t, obs.Err)
				assert.Equal(t, uint64(i+1), obs.Sequence)
				assert.Equal(t, target, obs.Target)

				if i > 0 {
					assert.True(t, obs.Timestamp.After(got[i-1].Timestamp), "timestamp %d not increasing", i)
				}
			}
		})
	}
}

func Test_Run_FoundEstimatesPower(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, mockInspector, mockSampler := newTestLoop(t, ctrl)

	mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").Return(found, nil).Times(4)
	mockSampler.EXPECT().Sample(gomock.Any(), found).Return(80.0, nil).Times(4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newRecorder(4, cancel)

	require.NoError(t, l.Run(ctx, target, time.Millisecond, sink))

	got := sink.all()
	require.Len(t, got, 4)

	for _, obs := range got {
		require.True(t, obs.HasEstimate())
		assert.True(t, obs.Match.Found)
		assert.Equal(t, found.Detail, obs.Match.Detail)
		assert.Equal(t, 80.0, obs.Sample.UtilizationPercent)
		assert.InDelta(t, 54.0, obs.Estimate.Watts, 1e-9)
	}
}

func Test_Run_ClampsSamplerOutput(t *testing.T) {
	tests := []struct {
		name     string
		reading  float64
		percent  float64
		expected float64
	}{
		{name: "negative", reading: -5, percent: 0, expected: 10},
		{name: "above range", reading: 340, percent: 100, expected: 65},
		{name: "positive infinity", reading: math.Inf(1), percent: 0, expected: 10},
		{name: "NaN", reading: math.NaN(), percent: 0, expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			l, mockInspector, mockSampler := newTestLoop(t, ctrl)

			mockInspector.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(found, nil)
			mockSampler.EXPECT().Sample(gomock.Any(), gomock.Any()).Return(tt.reading, nil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sink := newRecorder(1, cancel)

			require.NoError(t, l.Run(ctx, target, time.Millisecond, sink))

			got := sink.all()
			require.Len(t, got, 1)
			assert.Equal(t, tt.percent, got[0].Sample.UtilizationPercent)
			assert.InDelta(t, tt.expected, got[0].Estimate.Watts, 1e-9)
		})
	}
}

func Test_Run_CollaboratorErrorsKeepPolling(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, mockInspector, mockSampler := newTestLoop(t, ctrl)

	inspectorErr := fmt.Errorf("%w: permission denied", errors.ErrInspectorUnavailable)
	samplerErr := fmt.Errorf("%w: no cpu times", errors.ErrSamplerUnavailable)

	gomock.InOrder(
		mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").Return(observation.Match{}, inspectorErr),
		mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").Return(found, nil),
		mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").Return(found, nil),
	)

	gomock.InOrder(
		mockSampler.EXPECT().Sample(gomock.Any(), found).Return(0.0, samplerErr),
		mockSampler.EXPECT().Sample(gomock.Any(), found).Return(50.0, nil),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newRecorder(3, cancel)

	require.NoError(t, l.Run(ctx, target, time.Millisecond, sink))

	got := sink.all()
	require.Len(t, got, 3)

	assert.False(t, got[0].Match.Found)
	assert.ErrorIs(t, got[0].Err, errors.ErrInspectorUnavailable)
	assert.False(t, got[0].Fatal)

	assert.True(t, got[1].Match.Found)
	assert.Nil(t, got[1].Sample)
	assert.Nil(t, got[1].Estimate)
	assert.ErrorIs(t, got[1].Err, errors.ErrSamplerUnavailable)

	assert.NoError(t, got[2].Err)
	require.True(t, got[2].HasEstimate())
	assert.InDelta(t, 37.5, got[2].Estimate.Watts, 1e-9)
}

func Test_Run_CancelDuringSleep(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, mockInspector, _ := newTestLoop(t, ctrl)

	mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").Return(observation.Match{}, nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newRecorder(0, nil)
	interval := 2 * time.Second
	done := make(chan error, 1)

	go func() {
		done <- l.Run(ctx, target, interval, sink)
	}()

	<-sink.seen

	stopped := time.Now()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(stopped), interval)
	case <-time.After(interval):
		t.Fatal("Loop did not stop within one interval")
	}

	assert.Len(t, sink.all(), 1)
}

func Test_Run_CancelledBeforeFirstTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, _, _ := newTestLoop(t, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := newRecorder(0, nil)

	assert.NoError(t, l.Run(ctx, target, time.Millisecond, sink))
	assert.Empty(t, sink.all())
}

func Test_Run_CancelledMidTickDropsObservation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, mockInspector, _ := newTestLoop(t, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").DoAndReturn(
		func(ctx context.Context, name string) (observation.Match, error) {
			cancel()
			return observation.Match{}, fmt.Errorf("%w: %w", errors.ErrInspectorUnavailable, context.Canceled)
		},
	)

	sink := newRecorder(0, nil)

	assert.NoError(t, l.Run(ctx, target, time.Millisecond, sink))
	assert.Empty(t, sink.all())
}

func Test_Run_PanicIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, mockInspector, _ := newTestLoop(t, ctrl)

	reporter := &faultRecorder{}
	l.reporter = reporter

	mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").Return(observation.Match{}, nil)
	mockInspector.EXPECT().FindByName(gomock.Any(), "notepad.exe").DoAndReturn(
		func(ctx context.Context, name string) (observation.Match, error) {
			panic("process table corrupted")
		},
	)

	sink := newRecorder(0, nil)

	err := l.Run(context.Background(), target, time.Millisecond, sink)

	assert.ErrorIs(t, err, errors.ErrLoopFault)

	got := sink.all()
	require.Len(t, got, 2)
	assert.False(t, got[0].Fatal)
	assert.True(t, got[1].Fatal)
	assert.ErrorIs(t, got[1].Err, errors.ErrLoopFault)
	assert.Contains(t, got[1].Err.Error(), "process table corrupted")
	assert.Equal(t, uint64(2), got[1].Sequence)

	require.Len(t, reporter.errs, 1)
	assert.ErrorIs(t, reporter.errs[0], errors.ErrLoopFault)
	assert.Equal(t, "notepad.exe", reporter.tags[0]["target"])
}

func Test_Run_DefaultsNonPositiveInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, mockInspector, _ := newTestLoop(t, ctrl)

	mockInspector.EXPECT().FindByName(gomock.Any(), gomock.Any()).Return(observation.Match{}, nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newRecorder(1, cancel)

	assert.NoError(t, l.Run(ctx, target, 0, sink))
	assert.Len(t, sink.all(), 1)
}

func Test_Stamp(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		last     time.Time
		expected time.Time
	}{
		{name: "first stamp", now: base, expected: base},
		{name: "clock advanced", now: base.Add(time.Second), last: base, expected: base.Add(time.Second)},
		{name: "clock stalled", now: base, last: base, expected: base.Add(time.Nanosecond)},
		{name: "clock went backwards", now: base.Add(-time.Minute), last: base, expected: base.Add(time.Nanosecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &loop{now: func() time.Time { return tt.now }}

			assert.Equal(t, tt.expected, l.stamp(tt.last))
		})
	}
}
