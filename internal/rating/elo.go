// Package rating replays historical results into per-team Elo ratings.
package rating

import (
	"math"
	"sort"

	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/models"
)

// Defaults for the Elo replay.
const (
	DefaultK             = 32.0
	DefaultInitial       = 1500.0
	DefaultHomeAdvantage = 30.0
)

// TiePolicy controls how a level final score updates ratings.
type TiePolicy string

const (
	// TieHalf scores a tie as 0.5 for both sides.
	TieHalf TiePolicy = "half"
	// TieSkip drops tied games from the replay.
	TieSkip TiePolicy = "skip"
)

// Engine holds the Elo parameters. The zero value is not usable; call
// NewEngine or fill every field.
type Engine struct {
	K             float64
	Initial       float64
	HomeAdvantage float64
	TiePolicy     TiePolicy
}

// NewEngine returns an engine with the default parameters.
func NewEngine() *Engine {
	return &Engine{
		K:             DefaultK,
		Initial:       DefaultInitial,
		HomeAdvantage: DefaultHomeAdvantage,
		TiePolicy:     TieHalf,
	}
}

// Expected returns the home side's expected score.
func Expected(rHome, rAway, homeAdv float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rAway-(rHome+homeAdv))/400.0))
}

// FitStats counts how the replay treated its input.
type FitStats struct {
	Applied     int
	Unresolved  int
	Unscored    int
	Ties        int
	TiesSkipped int
	SameTeam    int
}

// Update applies one result to a pre-game pair and returns both new
// ratings. actualHome is 1, 0 or 0.5. The deltas are equal and opposite.
func (e *Engine) Update(rHome, rAway, actualHome float64) (float64, float64) {
	exp := Expected(rHome, rAway, e.HomeAdvantage)
	delta := e.K * (actualHome - exp)
	return rHome + delta, rAway - delta
}

// Fit replays games in non-decreasing date order and returns the final
// ratings. Games with an unresolved side, a missing score or the same team
// on both sides are counted and skipped. The input slice is not modified.
func (e *Engine) Fit(games []models.Game) (*Ratings, FitStats) {
	ordered := make([]models.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].GameDate.Before(ordered[j].GameDate)
	})

	ratings := NewRatings(e.Initial)
	var stats FitStats
	for i := range ordered {
		g := &ordered[i]
		if !g.Resolved() {
			stats.Unresolved++
			metrics.RecordGameSkipped("unresolved")
			continue
		}
		if !g.IsObservation() {
			stats.Unscored++
			metrics.RecordGameSkipped("unscored")
			continue
		}
		if g.HomeCanonicalID == g.AwayCanonicalID {
			stats.SameTeam++
			metrics.RecordGameSkipped("same_team")
			continue
		}

		var actual float64
		switch {
		case *g.HomeScore > *g.AwayScore:
			actual = 1
		case *g.HomeScore < *g.AwayScore:
			actual = 0
		default:
			stats.Ties++
			if e.TiePolicy == TieSkip {
				stats.TiesSkipped++
				metrics.RecordGameSkipped("tie")
				continue
			}
			actual = 0.5
		}

		// both sides read before either is written
		rh := ratings.touch(g.HomeCanonicalID)
		ra := ratings.touch(g.AwayCanonicalID)
		nh, na := e.Update(rh.Elo, ra.Elo, actual)
		rh.Elo, ra.Elo = nh, na
		rh.NGames++
		ra.NGames++
		countSeason(rh, g.Season)
		countSeason(ra, g.Season)
		stats.Applied++
		metrics.RecordGameReplayed()
	}
	metrics.RatedTeams.Set(float64(ratings.Len()))
	return ratings, stats
}

// countSeason advances the per-season counter. A game from an earlier
// season than the last one counted leaves it alone.
func countSeason(tr *models.TeamRating, season int) {
	switch {
	case season > tr.Season:
		tr.Season = season
		tr.SeasonGames = 1
	case season == tr.Season:
		tr.SeasonGames++
	}
}
