// Package app composes the controller daemon's fx modules (mirrors the
// teacher's own internal/app/module.go role: one Module var per package,
// collected here).
package app

import (
	"context"

	"go.uber.org/fx"

	"invictus2obc/internal/app/cli"
	"invictus2obc/internal/config/logger"
)

// Register writes the PID file on start and removes it on stop, so a
// separately invoked `obc stop`/`obc status` can find this process.
func Register(lifecycle fx.Lifecycle, log logger.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := cli.WritePID(); err != nil {
				log.Warn().Err(err).Msg("failed to write pid file")
			}

			return nil
		},
		OnStop: func(context.Context) error {
			return cli.RemovePID()
		},
	})
}
