package watcher

import "go.uber.org/fx"

// Module provides the config watcher and wires its start/stop into the fx
// lifecycle.
var Module = fx.Module("watcher",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, w Watcher) {
		lc.Append(fx.Hook{
			OnStart: w.Start,
			OnStop:  w.Stop,
		})
	}),
)
