package watcher

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the config watcher and ties it to the app lifecycle
var Module = fx.Options(
	fx.Provide(NewWatcher),
	fx.Invoke(func(lc fx.Lifecycle, w Watcher) {
		ctx, cancel := context.WithCancel(context.Background())

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return w.Start(ctx)
			},
			OnStop: func(context.Context) error {
				cancel()
				w.Close()

				return nil
			},
		})
	}),
)
