package power

import "go.uber.org/fx"

// Module provides the power estimator
var Module = fx.Options(
	fx.Provide(NewEstimator),
)
