package bus

import (
	"go.uber.org/fx"

	"powermon/internal/config"
	"powermon/internal/config/logger"
)

// Module provides bus for dependency injection
var Module = fx.Module("bus",
	fx.Provide(func(lc fx.Lifecycle, cfg *config.Config, log logger.Logger) Bus {
		b := New(cfg, log.WithComponent("BUS"))

		lc.Append(fx.StopHook(b.Close))

		return b
	}),
)
