package inspector

import "go.uber.org/fx"

// Module provides the process inspector
var Module = fx.Options(
	fx.Provide(NewInspector),
)
