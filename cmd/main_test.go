package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxevent"

	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

func Test_FxLogger_DebugLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = logger.DebugLevel

	got := fxLogger(cfg)()
	assert.IsType(t, &fxevent.ConsoleLogger{}, got)
}

func Test_FxLogger_NonDebugLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = logger.InfoLevel

	got := fxLogger(cfg)()
	assert.Equal(t, fxevent.NopLogger, got)
}

func Test_Run_VersionPrintsZero(t *testing.T) {
	assert.Equal(t, 0, run([]string{"version"}))
}

func Test_Run_StatusPrintsZero(t *testing.T) {
	assert.Equal(t, 0, run([]string{"status"}))
}

func Test_Run_UnknownFlagFails(t *testing.T) {
	assert.Equal(t, 1, run([]string{"--not-a-flag"}))
}
