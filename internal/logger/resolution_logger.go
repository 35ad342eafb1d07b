package logger

import (
	"github.com/sirupsen/logrus"
)

// ResolutionLogger records team identity resolution outcomes.
type ResolutionLogger struct {
	*logrus.Entry
}

// NewResolutionLogger creates a new resolution logger.
func NewResolutionLogger(baseLogger *logrus.Logger) *ResolutionLogger {
	return &ResolutionLogger{
		Entry: orDefault(baseLogger).WithField("component", "resolver"),
	}
}

// LogResolved logs a name that matched a rule.
func (rl *ResolutionLogger) LogResolved(input, canonicalID, rule string) {
	rl.WithFields(logrus.Fields{
		"input":        input,
		"canonical_id": canonicalID,
		"rule":         rule,
	}).Debug("Team name resolved")
}

// LogUnresolved logs a name that matched no rule.
func (rl *ResolutionLogger) LogUnresolved(input, normalized string) {
	rl.WithFields(logrus.Fields{
		"input":      input,
		"normalized": normalized,
	}).Warn("Team name unresolved")
}

// LogTieBreak logs a multi-candidate match settled by name specificity.
func (rl *ResolutionLogger) LogTieBreak(input string, candidates []string, chosen string) {
	rl.WithFields(logrus.Fields{
		"input":      input,
		"candidates": candidates,
		"chosen":     chosen,
	}).Debug("Ambiguous form match broken by longest name")
}

// LogPrefixRejected logs a prefix match refused for its long residual.
func (rl *ResolutionLogger) LogPrefixRejected(input, candidateID, residual string) {
	rl.WithFields(logrus.Fields{
		"input":        input,
		"candidate_id": candidateID,
		"residual":     residual,
	}).Debug("Prefix match rejected")
}
