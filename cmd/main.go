// Command invictus2obc is the on-board controller binary: it runs the
// ground-fill/flight sequencing daemon, or (via stop/status) operates on
// an already-running one.
package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"invictus2obc/internal/app"
	"invictus2obc/internal/app/cli"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch cmd.Type {
	case cli.CommandVersion:
		fmt.Printf("%s %s\n", config.AppName, config.Version)
		return 0
	case cli.CommandHelp:
		return 0
	case cli.CommandStatus:
		fmt.Println(cli.Status())
		return 0
	case cli.CommandStop:
		msg, err := cli.Stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}

		fmt.Println(msg)
		return 0
	default:
		return runDaemon()
	}
}

func runDaemon() int {
	cfg, err := config.Load()
	if err != nil {
		// §7: an invalid boot-time config is fatal. No validated Config
		// exists yet to build the real logger from, so this uses the
		// defaults purely to format and exit; zerolog's Fatal level
		// terminates the process once the message is emitted.
		logger.NewLogger(config.DefaultConfig()).Fatal().Err(err).Msg("invalid configuration")
		return 1
	}

	fxApp := fx.New(
		fx.WithLogger(fxLogger(cfg)),
		fx.Supply(cfg),
		fx.Provide(func() logger.Logger { return logger.NewLogger(cfg) }),
		app.Module,
	)

	fxApp.Run()

	return 0
}

func fxLogger(cfg *config.Config) func() fxevent.Logger {
	return func() fxevent.Logger {
		if cfg.Logging.Level == logger.DebugLevel {
			return &fxevent.ConsoleLogger{W: os.Stdout}
		}

		return fxevent.NopLogger
	}
}
