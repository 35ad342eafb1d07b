package starters

import (
	"context"

	"github.com/yourusername/diamond-forecast/internal/evidence"
	"github.com/yourusername/diamond-forecast/internal/models"
)

// BoxScoreSource fetches the starters flagged in a game's live box score.
type BoxScoreSource interface {
	Summary(ctx context.Context, eventID, homeTeamID, awayTeamID string) (evidence.BoxScoreStarters, error)
}

// BoxScoreTier reads the flagged starter once a game has begun.
type BoxScoreTier struct {
	source BoxScoreSource
	caches *Caches
}

// NewBoxScoreTier creates the box-score tier.
func NewBoxScoreTier(source BoxScoreSource, caches *Caches) *BoxScoreTier {
	return &BoxScoreTier{source: source, caches: caches}
}

func (t *BoxScoreTier) Name() string { return "box_score" }

// Pick abstains for games that have not started.
func (t *BoxScoreTier) Pick(ctx context.Context, req Request) (*models.StarterPick, bool) {
	g := req.Game
	if g.EventID == "" || g.NotStarted() {
		return nil, false
	}

	summary, ok := t.caches.Summary(g.EventID)
	if !ok {
		var err error
		summary, err = t.source.Summary(ctx, g.EventID, g.HomeESPNID, g.AwayESPNID)
		if err != nil {
			summary = evidence.BoxScoreStarters{}
		}
		t.caches.SetSummary(g.EventID, summary)
	}

	ath := summary.Home
	if req.Side == SideAway {
		ath = summary.Away
	}
	if ath.Empty() {
		return nil, false
	}
	conf := 0.80
	if ath.ID != "" {
		conf = 0.99
	}
	return &models.StarterPick{
		PitcherID:   ath.ID,
		DisplayName: ath.Name,
		Source:      models.SourceBoxScore,
		Confidence:  conf,
		Note:        "starter from live box score",
	}, true
}
