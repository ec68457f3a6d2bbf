package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vperelman/dealflow/internal/config"
)

func observedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestLogger_EmitsFields(t *testing.T) {
	log, logs := observedLogger(zapcore.DebugLevel)

	log.Info("deal updated",
		String("deal_id", "d1"),
		Int("follow_ups", 3),
		Bool("frozen", false),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "deal updated", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "d1", ctx["deal_id"])
	assert.Equal(t, int64(3), ctx["follow_ups"])
	assert.Equal(t, false, ctx["frozen"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, logs := observedLogger(zapcore.WarnLevel)

	log.Debug("noise")
	log.Info("noise")
	log.Warn("kept")
	log.Error("kept")

	assert.Equal(t, 2, logs.Len())
}

func TestLogger_WithAndNamed(t *testing.T) {
	log, logs := observedLogger(zapcore.InfoLevel)

	child := log.With(String("component", "triage")).Named("agenda")
	child.Info("run complete")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "agenda", entry.LoggerName)
	assert.Equal(t, "triage", entry.ContextMap()["component"])

	// Parent is unaffected.
	log.Info("parent entry")
	assert.Equal(t, "", logs.All()[1].LoggerName)
}

func TestErrField(t *testing.T) {
	log, logs := observedLogger(zapcore.InfoLevel)

	log.Error("save failed", Err(errors.New("boom")))
	log.Info("fine", Err(nil))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["error"])
	assert.Equal(t, "<nil>", logs.All()[1].ContextMap()["error"])
}

func TestNewLogger_BuildsFromConfig(t *testing.T) {
	log, err := NewLogger(config.LogConfig{Level: "debug", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestDefault_SwapAndNilGuard(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log, _ := observedLogger(zapcore.InfoLevel)
	SetDefault(log)
	assert.Equal(t, log, Default())

	SetDefault(nil)
	assert.Equal(t, log, Default(), "nil must not replace the default")
}
