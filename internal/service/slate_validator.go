package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// SlateValidator checks slate games before starter selection
type SlateValidator struct {
	logger *logrus.Entry
}

// NewSlateValidator creates a new slate validator
func NewSlateValidator(log *logrus.Logger) *SlateValidator {
	if log == nil {
		log = logrus.New()
	}
	return &SlateValidator{logger: log.WithField("component", "slate_validator")}
}

// ValidateGame returns every problem found with g
func (v *SlateValidator) ValidateGame(g *models.ScheduledGame) []string {
	var errors []string

	if g.HomeTeamName == "" && g.HomeCanonicalID == "" {
		errors = append(errors, "home team is required")
	}

	if g.AwayTeamName == "" && g.AwayCanonicalID == "" {
		errors = append(errors, "away team is required")
	}

	if g.GameDate.IsZero() {
		errors = append(errors, "game_date is required")
	}

	if g.HomeCanonicalID != "" && g.HomeCanonicalID == g.AwayCanonicalID {
		errors = append(errors, fmt.Sprintf("team %s cannot play itself", g.HomeCanonicalID))
	}

	if g.IsObservation() && (*g.HomeScore < 0 || *g.AwayScore < 0) {
		errors = append(errors, "scores cannot be negative")
	}

	return errors
}

// ValidateUniqueness reports a game whose event id already appeared
func (v *SlateValidator) ValidateUniqueness(g *models.ScheduledGame, seen map[string]struct{}) error {
	if g.EventID == "" {
		return nil
	}
	if _, dup := seen[g.EventID]; dup {
		return fmt.Errorf("%w: event %s listed twice", models.ErrDuplicateKey, g.EventID)
	}
	seen[g.EventID] = struct{}{}
	return nil
}

// Filter keeps the valid games in order and logs the rest
func (v *SlateValidator) Filter(games []models.ScheduledGame) ([]models.ScheduledGame, int) {
	out := make([]models.ScheduledGame, 0, len(games))
	seen := make(map[string]struct{}, len(games))
	dropped := 0
	for i := range games {
		g := &games[i]
		problems := v.ValidateGame(g)
		if err := v.ValidateUniqueness(g, seen); err != nil {
			problems = append(problems, err.Error())
		}
		if len(problems) > 0 {
			dropped++
			v.logger.WithFields(logrus.Fields{
				"event_id": g.EventID,
				"home":     g.HomeTeamName,
				"away":     g.AwayTeamName,
				"problems": problems,
			}).Warn("Dropping invalid slate game")
			continue
		}
		out = append(out, *g)
	}
	return out, dropped
}
