package sampler

import "go.uber.org/fx"

// Module provides the CPU sampler
var Module = fx.Options(
	fx.Provide(NewSampler),
)
