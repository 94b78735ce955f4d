package power

import (
	"sync/atomic"

	"powermon/internal/app/observation"
	"powermon/internal/config"
)

// Model holds the coefficients of the linear power heuristic in watts
type Model struct {
	BaseWatts float64
	MaxWatts  float64
}

// DefaultModel returns the idle/peak pair used when nothing is configured
func DefaultModel() Model {
	return Model{
		BaseWatts: config.DefaultBaseWatts,
		MaxWatts:  config.DefaultMaxWatts,
	}
}

// Watts maps a utilisation percentage onto the line between base and max
func (m Model) Watts(utilizationPercent float64) float64 {
	u := observation.ClampPercent(utilizationPercent)

	return m.BaseWatts + (m.MaxWatts-m.BaseWatts)*(u/100)
}

// Estimator converts CPU utilisation into an estimated power draw
type Estimator interface {
	Estimate(utilizationPercent float64) observation.PowerEstimate
	Model() Model
	SetModel(m Model)
}

type estimator struct {
	model atomic.Pointer[Model]
}

// NewEstimator creates an estimator from the configured coefficients
func NewEstimator(cfg *config.Config) Estimator {
	return NewEstimatorWithModel(Model{
		BaseWatts: cfg.Power.BaseWatts,
		MaxWatts:  cfg.Power.MaxWatts,
	})
}

// NewEstimatorWithModel creates an estimator from explicit coefficients
func NewEstimatorWithModel(m Model) Estimator {
	e := &estimator{}
	e.model.Store(&m)

	return e
}

// Estimate returns the power estimate for the given utilisation
func (e *estimator) Estimate(utilizationPercent float64) observation.PowerEstimate {
	return observation.PowerEstimate{Watts: e.model.Load().Watts(utilizationPercent)}
}

// Model returns the coefficients currently in use
func (e *estimator) Model() Model {
	return *e.model.Load()
}

// SetModel swaps the coefficients, e.g. after a config reload
func (e *estimator) SetModel(m Model) {
	e.model.Store(&m)
}
