package generator

import "go.uber.org/fx"

// Module provides the config file generator
var Module = fx.Options(
	fx.Provide(NewGenerator),
)
