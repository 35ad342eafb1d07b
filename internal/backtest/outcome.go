package backtest

import (
	"github.com/yourusername/diamond-forecast/internal/models"
)

// Outcome pairs a saved projection with the final result of its game.
type Outcome struct {
	Projection models.Projection
	HomeWon    bool
}

// JoinSummary counts projections that could not be scored.
type JoinSummary struct {
	Failed    int
	Unplayed  int
	Ties      int
	Unmatched int
}

type pairKey struct {
	date string
	home string
	away string
}

// Join matches projections to completed games, by event id first and then
// by date and canonical pair. Failed projections, unplayed games and ties
// are counted and left out.
func Join(projections []models.Projection, games []models.Game) ([]Outcome, JoinSummary) {
	byEvent := make(map[string]*models.Game, len(games))
	byPair := make(map[pairKey]*models.Game, len(games))
	for i := range games {
		g := &games[i]
		if g.EventID != "" {
			byEvent[g.EventID] = g
		}
		if g.Resolved() {
			key := pairKey{date: g.GameDate.Format(models.DateLayout), home: g.HomeCanonicalID, away: g.AwayCanonicalID}
			if _, dup := byPair[key]; !dup {
				byPair[key] = g
			}
		}
	}

	var summary JoinSummary
	out := make([]Outcome, 0, len(projections))
	for _, p := range projections {
		if p.Err != "" {
			summary.Failed++
			continue
		}
		g, ok := byEvent[p.EventID]
		if !ok || p.EventID == "" {
			g, ok = byPair[pairKey{date: p.GameDate, home: p.HomeCanonicalID, away: p.AwayCanonicalID}]
		}
		if !ok {
			summary.Unmatched++
			continue
		}
		if !g.IsObservation() {
			summary.Unplayed++
			continue
		}
		if *g.HomeScore == *g.AwayScore {
			summary.Ties++
			continue
		}
		out = append(out, Outcome{Projection: p, HomeWon: *g.HomeScore > *g.AwayScore})
	}
	return out, summary
}
