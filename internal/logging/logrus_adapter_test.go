package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferedLogger(level logrus.Level) (Logger, *bytes.Buffer) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewLogrusAdapterFromLogger(l), &buf
}

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{"debug text", "debug", "text", logrus.DebugLevel, false},
		{"info json", "info", "json", logrus.InfoLevel, true},
		{"upper case level", "WARN", "text", logrus.WarnLevel, false},
		{"invalid level defaults to info", "loud", "text", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogrusAdapter(tt.level, tt.format)
			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.expectLevel, adapter.logger.Level)

			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestNewLogrusAdapterFromLogger_Nil(t *testing.T) {
	logger := NewLogrusAdapterFromLogger(nil)
	adapter, ok := logger.(*LogrusAdapter)
	require.True(t, ok)
	assert.NotNil(t, adapter.logger)
}

func TestLogrusAdapter_LevelsAndFields(t *testing.T) {
	logger, buf := bufferedLogger(logrus.DebugLevel)

	logger.Debug("parsed row", F(FieldRow, 3))
	logger.Info("batch completed", F(FieldBatchID, "b-1"))
	logger.Warn("skipped", F(FieldReason, "duplicate"))
	logger.Error("insert failed", F(FieldReference, "TX-9"))

	out := buf.String()
	for _, want := range []string{"parsed row", "row=3", "batch_id=b-1", "reason=duplicate", "transaction_ref=TX-9"} {
		assert.Contains(t, out, want)
	}
}

func TestLogrusAdapter_DerivedLoggers(t *testing.T) {
	logger, buf := bufferedLogger(logrus.InfoLevel)

	logger.
		WithField(FieldUserID, "alice").
		WithFields(F(FieldOperation, "undo")).
		WithError(errors.New("boom")).
		Error("undo failed")

	out := buf.String()
	assert.Contains(t, out, "undo failed")
	assert.Contains(t, out, "user_id=alice")
	assert.Contains(t, out, "operation=undo")
	assert.Contains(t, out, "boom")
}

func TestLogrusAdapter_RespectsLevel(t *testing.T) {
	logger, buf := bufferedLogger(logrus.WarnLevel)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConvertFields(t *testing.T) {
	fields := convertFields([]Field{F("a", 1), F("b", true)})
	assert.Len(t, fields, 2)
	assert.Equal(t, 1, fields["a"])
	assert.Equal(t, true, fields["b"])
	assert.Empty(t, convertFields(nil))
}

func TestLogrusAdapter_ImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
	var _ Logger = (*MockLogger)(nil)
}
