package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*Logger, *test.Hook) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	return &Logger{entry: logrus.NewEntry(base)}, hook
}

func TestNew(t *testing.T) {
	log := New()
	assert.NotNil(t, log)
	assert.NotNil(t, log.entry)
	assert.Equal(t, logrus.InfoLevel, log.entry.Logger.GetLevel())
}

func TestNewWithConfig(t *testing.T) {
	log := NewWithConfig("debug", "json")
	assert.Equal(t, logrus.DebugLevel, log.entry.Logger.GetLevel())
	_, isJSON := log.entry.Logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	fallback := NewWithConfig("loud", "text")
	assert.Equal(t, logrus.InfoLevel, fallback.entry.Logger.GetLevel())
}

func TestLogger_Levels(t *testing.T) {
	log, hook := newTestLogger()

	log.Info("User %s logged in with ID %d", "john", 123)
	log.Warn("Warning: %s count is %d", "items", 5)
	log.Error("Failed to process request %d: %s", 404, "not found")
	log.Debug("debug %s", "details")

	require.Len(t, hook.Entries, 4)
	assert.Equal(t, logrus.InfoLevel, hook.Entries[0].Level)
	assert.Equal(t, "User john logged in with ID 123", hook.Entries[0].Message)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[1].Level)
	assert.Equal(t, logrus.ErrorLevel, hook.Entries[2].Level)
	assert.Equal(t, "Failed to process request 404: not found", hook.Entries[2].Message)
	assert.Equal(t, logrus.DebugLevel, hook.Entries[3].Level)
}

func TestLogger_With(t *testing.T) {
	log, hook := newTestLogger()

	log.With("order_id", "order-1").Info("confirmed")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "order-1", entry.Data["order_id"])
	assert.Equal(t, "confirmed", entry.Message)
}
