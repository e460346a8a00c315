package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLoggerRecordsDerivedEntries(t *testing.T) {
	mock := NewMockLogger()

	mock.Info("plain message")
	mock.WithError(errors.New("boom")).WithField("user_id", int64(7)).Error("failed")
	mock.WithFields(Field{Key: "sheet", Value: "Расходы факт"}).Warn("slow read")

	entries := mock.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "plain message", entries[0].Message)

	assert.Equal(t, "ERROR", entries[1].Level)
	assert.EqualError(t, entries[1].Error, "boom")
	require.Len(t, entries[1].Fields, 1)
	assert.Equal(t, "user_id", entries[1].Fields[0].Key)

	assert.True(t, mock.HasMessage("slow read"))
	assert.False(t, mock.HasMessage("missing"))
}

func TestLogrusAdapterEmitsFields(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)

	adapter := NewLogrusAdapterFromLogger(logger)
	adapter.WithField(FieldSheet, "Расходы факт").
		WithError(errors.New("quota exceeded")).
		Warn("Read failed", Field{Key: FieldRow, Value: 5})

	out := buf.String()
	assert.Contains(t, out, "Read failed")
	assert.Contains(t, out, "Расходы факт")
	assert.Contains(t, out, "quota exceeded")
	assert.Contains(t, out, `"row":5`)
}

func TestNewLogrusAdapterLevels(t *testing.T) {
	adapter, ok := NewLogrusAdapter("debug", "json").(*LogrusAdapter)
	require.True(t, ok)
	assert.Equal(t, logrus.DebugLevel, adapter.logger.GetLevel())

	adapter, ok = NewLogrusAdapter("bogus", "text").(*LogrusAdapter)
	require.True(t, ok)
	assert.Equal(t, logrus.InfoLevel, adapter.logger.GetLevel())
}
