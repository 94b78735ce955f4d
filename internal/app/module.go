package app

import (
	"go.uber.org/fx"

	"powermon/internal/app/bus"
	"powermon/internal/app/cli"
	"powermon/internal/app/controller"
	"powermon/internal/app/fault"
	"powermon/internal/app/generator"
	"powermon/internal/app/inspector"
	"powermon/internal/app/monitor"
	"powermon/internal/app/power"
	"powermon/internal/app/sampler"
	"powermon/internal/app/ui"
	"powermon/internal/app/watcher"
	"powermon/internal/app/worker"
)

var Module = fx.Options(
	power.Module,
	inspector.Module,
	sampler.Module,
	fault.Module,
	monitor.Module,
	bus.Module,
	worker.Module,
	controller.Module,
	watcher.Module,
	generator.Module,
	ui.Module,
	cli.Module,
	fx.Provide(NewApp),
	fx.Invoke(Register),
)
