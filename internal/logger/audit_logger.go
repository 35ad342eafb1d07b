package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: orDefault(baseLogger).WithField("component", "audit"),
	}
}

// LogRegistryBuilt logs a successfully built registry snapshot.
func (al *AuditLogger) LogRegistryBuilt(teams, aliases, forms int) {
	al.WithFields(logrus.Fields{
		"teams":   teams,
		"aliases": aliases,
		"forms":   forms,
	}).Info("Team registry built")
}

// LogRegistryIntegrityFailure logs the fatal registry violation.
func (al *AuditLogger) LogRegistryIntegrityFailure(err error) {
	al.WithError(err).Error("Team registry failed integrity checks")
}

// LogStarterPick logs the pick chosen for one side of a game.
func (al *AuditLogger) LogStarterPick(eventID, side, teamKey, pitcherID, name, source string, confidence float64, note string) {
	al.WithFields(logrus.Fields{
		"event_id":   eventID,
		"side":       side,
		"team_key":   teamKey,
		"pitcher_id": pitcherID,
		"pitcher":    name,
		"source":     source,
		"confidence": confidence,
		"note":       note,
	}).Info("Starter selected")
}

// LogProjection logs a fused probability with its components.
func (al *AuditLogger) LogProjection(eventID, homeID, awayID string, modelHome, alpha, pHome float64, notes []string) {
	al.WithFields(logrus.Fields{
		"event_id":     eventID,
		"home_id":      homeID,
		"away_id":      awayID,
		"p_model_home": modelHome,
		"alpha":        alpha,
		"p_home":       pHome,
		"notes":        notes,
	}).Info("Game projected")
}

// LogProjectionFailure logs a game dropped from a batch.
func (al *AuditLogger) LogProjectionFailure(eventID string, err error) {
	al.WithFields(logrus.Fields{
		"event_id": eventID,
	}).WithError(err).Warn("Game projection failed")
}
