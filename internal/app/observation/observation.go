package observation

import (
	"math"
	"time"
)

// ProcessQuery identifies the monitoring target
type ProcessQuery struct {
	Name string
}

// ProcessInfo describes one OS process that matched a query
type ProcessInfo struct {
	PID  int32
	Name string
	RSS  uint64
}

// Match is the result of looking a process name up in the process table
type Match struct {
	Found     bool
	Detail    string
	Processes []ProcessInfo
}

// CPUSample is a CPU utilisation reading in percent, always within [0,100]
type CPUSample struct {
	UtilizationPercent float64
}

// PowerEstimate is an estimated instantaneous power draw
type PowerEstimate struct {
	Watts float64
}

// Observation is the unit of output produced once per tick
type Observation struct {
	Session   string
	Sequence  uint64
	Timestamp time.Time
	Target    ProcessQuery
	Match     Match
	Sample    *CPUSample
	Estimate  *PowerEstimate
	Err       error
	Fatal     bool
}

// HasEstimate reports whether the observation carries a sample and a power estimate
func (o Observation) HasEstimate() bool {
	return o.Sample != nil && o.Estimate != nil
}

// Sink consumes observations; implementations must not block the caller
type Sink interface {
	Emit(obs Observation)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(obs Observation)

// Emit calls f(obs)
func (f SinkFunc) Emit(obs Observation) {
	f(obs)
}

// NewCPUSample builds a sample from a raw sensor reading, clamping invalid values
func NewCPUSample(percent float64) CPUSample {
	return CPUSample{UtilizationPercent: ClampPercent(percent)}
}

// ClampPercent maps NaN, infinities and negative readings to 0 and caps at 100
func ClampPercent(percent float64) float64 {
	switch {
	case math.IsNaN(percent), math.IsInf(percent, 0), percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}
