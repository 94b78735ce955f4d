package errors

import (
	"errors"
)

var (
	ErrFailedToReadConfig  = errors.New("failed to read config file")
	ErrFailedToParseConfig = errors.New("failed to parse config file")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrConfigExists        = errors.New("config file already exists")

	ErrEmptyTarget = errors.New("target process name is empty")

	ErrAlreadyMonitoring = errors.New("a monitoring session is already active")
	ErrNotMonitoring     = errors.New("no monitoring session is active")
	ErrStopPending       = errors.New("previous monitoring session has not finished stopping")

	ErrInspectorUnavailable = errors.New("process inspector unavailable")
	ErrSamplerUnavailable   = errors.New("cpu sampler unavailable")
	ErrInvalidPattern       = errors.New("invalid process name pattern")

	ErrLoopFault = errors.New("monitor loop fault")

	ErrUnknownSource = errors.New("unknown cpu sampler source")
	ErrUnknownOutput = errors.New("unknown output format")

	ErrUnknownCommand = errors.New("unknown command")
)

var (
	As  = errors.As
	Is  = errors.Is
	New = errors.New
)

// IsConfiguration reports whether err was caused by invalid user input
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrEmptyTarget) ||
		errors.Is(err, ErrInvalidPattern) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsLifecycle reports whether err is a start/stop state rejection
func IsLifecycle(err error) bool {
	return errors.Is(err, ErrAlreadyMonitoring) ||
		errors.Is(err, ErrNotMonitoring) ||
		errors.Is(err, ErrStopPending)
}

// IsCollaborator reports whether err came from the inspector or the sampler
func IsCollaborator(err error) bool {
	return errors.Is(err, ErrInspectorUnavailable) || errors.Is(err, ErrSamplerUnavailable)
}
