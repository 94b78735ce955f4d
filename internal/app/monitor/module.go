package monitor

import "go.uber.org/fx"

// Module provides the monitor loop
var Module = fx.Options(
	fx.Provide(NewLoop),
)
