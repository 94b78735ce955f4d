package worker

import "go.uber.org/fx"

// Module provides the background task pool
var Module = fx.Options(
	fx.Provide(NewWorkerPool),
)
