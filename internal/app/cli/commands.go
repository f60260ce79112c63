// Package cli parses the obc binary's command-line surface: run (the
// default, starts the controller daemon), stop/status (operate on a
// running daemon via its PID file), and version.
package cli

import (
	"github.com/spf13/cobra"

	"invictus2obc/internal/config"
)

// CommandType identifies which action Parse resolved to.
type CommandType int

const (
	CommandRun CommandType = iota
	CommandStop
	CommandStatus
	CommandVersion
	CommandHelp
)

// Options is the parsed command line.
type Options struct {
	Type CommandType
}

// Parse parses args (normally os.Args[1:]) into Options.
func Parse(args []string) (*Options, error) {
	result := &Options{Type: CommandRun}

	var showVersion bool

	root := buildRootCommand(result, &showVersion)
	root.AddCommand(
		buildRunCommand(result),
		buildStopCommand(result),
		buildStatusCommand(result),
		buildVersionCommand(result),
	)

	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return nil, err
	}

	if showVersion {
		result.Type = CommandVersion
	}

	return result, nil
}

func buildRootCommand(result *Options, showVersion *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Two-stage liquid rocket ground-fill and flight sequencing controller",
		Long: `invictus2obc runs the on-board controller: it sequences the ground
fill procedure and the flight state machine, drives the field bus
actuators, and answers ground commands over the radio link.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandRun
		},
	}

	cmd.Flags().BoolVarP(showVersion, "version", "v", false, "Show version information")

	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		result.Type = CommandHelp
	})

	return cmd
}

func buildRunCommand(result *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the controller daemon (default)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandRun
		},
	}
}

func buildStopCommand(result *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Gracefully stop a running controller daemon",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandStop
		},
	}
}

func buildStatusCommand(result *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a controller daemon is running",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandStatus
		},
	}
}

func buildVersionCommand(result *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandVersion
		},
	}
}
