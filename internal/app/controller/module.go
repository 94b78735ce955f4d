package controller

import "go.uber.org/fx"

// Module provides the session controller and stops any session on shutdown
var Module = fx.Options(
	fx.Provide(NewController),
	fx.Invoke(func(lc fx.Lifecycle, c Controller) {
		lc.Append(fx.StopHook(c.Close))
	}),
)
