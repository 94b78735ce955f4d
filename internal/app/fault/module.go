package fault

import (
	"context"

	"go.uber.org/fx"

	"powermon/internal/config"
)

// Module provides the fault reporter and flushes it on shutdown
var Module = fx.Options(
	fx.Provide(NewReporter),
	fx.Invoke(func(lc fx.Lifecycle, r Reporter) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				r.Flush(config.FaultFlushTimeout)
				return nil
			},
		})
	}),
)
