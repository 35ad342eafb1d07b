// Package starters selects the probable starting pitcher for each side of a
// scheduled game from an ordered ladder of evidence tiers.
package starters

import (
	"context"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// Side is the home or away half of a game.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Request is the input every tier receives for one side of one game.
type Request struct {
	Game *models.ScheduledGame
	Side Side
	// TeamKey is the canonical id, else the normalized team name.
	TeamKey string
	// TeamName prefers the registry name over the slate's display name.
	TeamName     string
	OpponentName string
}

// CanonicalID returns the canonical id of the requesting side.
func (r Request) CanonicalID() string {
	if r.Side == SideHome {
		return r.Game.HomeCanonicalID
	}
	return r.Game.AwayCanonicalID
}

// SlateTeamName returns the side's name as printed on the slate.
func (r Request) SlateTeamName() string {
	if r.Side == SideHome {
		return r.Game.HomeTeamName
	}
	return r.Game.AwayTeamName
}

// Tier is one rung of the evidence ladder. Pick returns false when the tier
// has nothing to say about the side; it never fails the selection.
type Tier interface {
	Name() string
	Pick(ctx context.Context, req Request) (*models.StarterPick, bool)
}

// UnknownPick is the terminal pick when every tier abstains.
func UnknownPick() models.StarterPick {
	return models.StarterPick{
		Source:     models.SourceUnknown,
		Confidence: 0,
		Note:       "no source available",
	}
}
