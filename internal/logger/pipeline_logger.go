package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineLogger tags every entry with the run id of one invocation.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger for runID.
func NewPipelineLogger(baseLogger *logrus.Logger, runID string) *PipelineLogger {
	return &PipelineLogger{
		Entry: orDefault(baseLogger).WithFields(logrus.Fields{
			"component": "pipeline",
			"run_id":    runID,
		}),
	}
}

// LogStageCompleted logs a finished stage with its record counts.
func (pl *PipelineLogger) LogStageCompleted(stage string, records int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"stage":       stage,
		"records":     records,
		"duration_ms": duration.Milliseconds(),
	}).Info("Stage completed")
}

// LogFitSummary logs the outcome of a rating replay.
func (pl *PipelineLogger) LogFitSummary(applied, unresolved, unscored, teams int) {
	pl.WithFields(logrus.Fields{
		"games_applied":    applied,
		"games_unresolved": unresolved,
		"games_unscored":   unscored,
		"teams":            teams,
	}).Info("Rating replay finished")
}

// LogRecordSkipped logs an input record that could not be used.
func (pl *PipelineLogger) LogRecordSkipped(kind, key, reason string) {
	pl.WithFields(logrus.Fields{
		"kind":   kind,
		"key":    key,
		"reason": reason,
	}).Warn("Record skipped")
}
