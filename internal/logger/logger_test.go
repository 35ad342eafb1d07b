package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}

	log := newLogger(buf, "debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	log = newLogger(buf, "nonsense", "production")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestResolutionLoggerUnresolved(t *testing.T) {
	log, buf := setupTestLogger()
	rl := NewResolutionLogger(log)

	rl.LogUnresolved("Mystery U", "mystery u")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "resolver", logEntry["component"])
	assert.Equal(t, "Mystery U", logEntry["input"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestResolutionLoggerTieBreak(t *testing.T) {
	log, buf := setupTestLogger()
	rl := NewResolutionLogger(log)

	rl.LogTieBreak("usc", []string{"SC", "USC"}, "USC")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "USC", logEntry["chosen"])
}

func TestAuditLoggerStarterPick(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAuditLogger(log)

	al.LogStarterPick("401", "home", "NCAA_1", "555", "John Smith", "manual", 0.98, "from manual override")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "manual", logEntry["source"])
	assert.Equal(t, 0.98, logEntry["confidence"])
}

func TestAuditLoggerProjectionFailure(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAuditLogger(log)

	al.LogProjectionFailure("401", errors.New("boom"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "boom", logEntry["error"])
	assert.Equal(t, "401", logEntry["event_id"])
}

func TestPipelineLoggerCarriesRunID(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPipelineLogger(log, "run-123")

	pl.LogStageCompleted("fit", 42, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "run-123", logEntry["run_id"])
	assert.Equal(t, "fit", logEntry["stage"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
}

func TestNilBaseLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewAuditLogger(nil)
		NewResolutionLogger(nil)
		NewPipelineLogger(nil, "x")
	})
}
