package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

func Test_NewLogger_DefaultsLevelAndFormat(t *testing.T) {
	cfg := &config.Config{}

	log := logger.NewLogger(cfg)

	assert.NotNil(t, log)
	assert.Equal(t, logger.InfoLevel, cfg.Logging.Level)
	assert.Equal(t, logger.ConsoleFormat, cfg.Logging.Format)
}

func Test_NewLogger_JSONFormat(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.Level = logger.DebugLevel
	cfg.Logging.Format = logger.JSONFormat

	log := logger.NewLogger(cfg)

	assert.NotNil(t, log)
}

func Test_WithComponent_TagsChildLogger(t *testing.T) {
	cfg := &config.Config{}
	log := logger.NewLogger(cfg)

	child := log.WithComponent("BUS")

	assert.NotNil(t, child)
	assert.NotNil(t, child.Debug())
}

func Test_Event_ChainingReturnsEvent(t *testing.T) {
	cfg := &config.Config{}
	log := logger.NewLogger(cfg)

	ev := log.Info().Str("k", "v").Int("n", 1).Dur("d", 0)

	assert.NotNil(t, ev)
}

func Test_NoopEvent_NeverPanics(t *testing.T) {
	ev := &logger.NoopEvent{}

	assert.NotPanics(t, func() {
		ev.Str("a", "b").Int("c", 1).Err(nil).Msg("noop")
	})
}
