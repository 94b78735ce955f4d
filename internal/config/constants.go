package config

import "time"

// app constants
const (
	AppName        = "powermon"
	AppDescription = "Estimate the power draw of a running process from its CPU load"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	Version = "0.3.0"
)

// file constants
const (
	FileName  = "powermon.yaml"
	EnvFile   = ".env"
	EnvPrefix = "POWERMON"
)

// monitor constants
const (
	DefaultInterval     = 5 * time.Second
	DefaultDrainTimeout = 2 * time.Second
)

// power model constants
const (
	DefaultBaseWatts = 10.0
	DefaultMaxWatts  = 65.0
)

// sampler sources
const (
	SourceSelf   = "self"
	SourceHost   = "host"
	SourceTarget = "target"

	DefaultSource = SourceSelf
)

// bus and worker constants
const (
	DefaultBusBuffer = 64
	DefaultWorkers   = 2
)

// watch constants
const (
	WatchDebounce = 300 * time.Millisecond
)

// shutdown constants
const (
	ShutdownTimeout   = 5 * time.Second
	FaultFlushTimeout = 2 * time.Second
)
