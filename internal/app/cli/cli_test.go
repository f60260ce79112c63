package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invictus2obc/internal/app/cli"
)

func Test_Parse_DefaultsToRun(t *testing.T) {
	opts, err := cli.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, cli.CommandRun, opts.Type)
}

func Test_Parse_Subcommands(t *testing.T) {
	cases := map[string]cli.CommandType{
		"run":     cli.CommandRun,
		"stop":    cli.CommandStop,
		"status":  cli.CommandStatus,
		"version": cli.CommandVersion,
	}

	for arg, want := range cases {
		opts, err := cli.Parse([]string{arg})
		require.NoError(t, err)
		assert.Equal(t, want, opts.Type, "arg %q", arg)
	}
}

func Test_Parse_VersionFlag(t *testing.T) {
	opts, err := cli.Parse([]string{"--version"})
	require.NoError(t, err)
	assert.Equal(t, cli.CommandVersion, opts.Type)
}

func Test_Status_NotRunningWithoutPIDFile(t *testing.T) {
	assert.Contains(t, cli.Status(), "not running")
}

func Test_Stop_NotRunningWithoutPIDFile(t *testing.T) {
	msg, err := cli.Stop()
	require.NoError(t, err)
	assert.Equal(t, "not running", msg)
}
