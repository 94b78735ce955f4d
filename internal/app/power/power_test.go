package power

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"powermon/internal/config"
)

func Test_Estimate_DefaultModel(t *testing.T) {
	e := NewEstimator(config.DefaultConfig())

	tests := []struct {
		name     string
		percent  float64
		expected float64
	}{
		{name: "idle", percent: 0, expected: 10.0},
		{name: "half", percent: 50, expected: 37.5},
		{name: "eighty", percent: 80, expected: 54.0},
		{name: "full", percent: 100, expected: 65.0},
		{name: "below range clamps to base", percent: -20, expected: 10.0},
		{name: "above range clamps to max", percent: 250, expected: 65.0},
		{name: "NaN treated as idle", percent: math.NaN(), expected: 10.0},
		{name: "positive infinity treated as idle", percent: math.Inf(1), expected: 10.0},
		{name: "negative infinity treated as idle", percent: math.Inf(-1), expected: 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, e.Estimate(tt.percent).Watts, 1e-9)
		})
	}
}

func Test_Estimate_Monotonic(t *testing.T) {
	e := NewEstimatorWithModel(DefaultModel())

	prev := e.Estimate(0).Watts

	for p := 0.5; p <= 100; p += 0.5 {
		w := e.Estimate(p).Watts
		assert.GreaterOrEqual(t, w, prev, "estimate decreased at %.1f%%", p)
		prev = w
	}
}

func Test_SetModel(t *testing.T) {
	e := NewEstimatorWithModel(DefaultModel())

	e.SetModel(Model{BaseWatts: 5, MaxWatts: 25})

	assert.Equal(t, Model{BaseWatts: 5, MaxWatts: 25}, e.Model())
	assert.InDelta(t, 15.0, e.Estimate(50).Watts, 1e-9)
}

func Test_SetModel_Concurrent(t *testing.T) {
	e := NewEstimatorWithModel(DefaultModel())

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			e.SetModel(Model{BaseWatts: 10, MaxWatts: 65})
		}()

		go func() {
			defer wg.Done()
			assert.InDelta(t, 37.5, e.Estimate(50).Watts, 1e-9)
		}()
	}

	wg.Wait()
}
