// Package pitching aggregates pitching appearances into shrunk pitcher
// ratings, team starter/reliever strength, and bullpen workload.
package pitching

import (
	"sort"
	"time"

	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/models"
)

// Defaults for the pitcher model.
const (
	DefaultShrinkIP   = 20.0
	DefaultLeagueRA9  = 5.5
	DefaultMinIP      = 0.1
	DefaultExpectedIP = 5.0
	minIPDenominator  = 0.01
	dayLayout         = models.DateLayout
)

// Model holds the aggregation constants.
type Model struct {
	ShrinkIP          float64
	LeagueRA9         float64
	MinIP             float64
	DefaultExpectedIP float64
}

// NewModel returns a model with the default constants.
func NewModel() *Model {
	return &Model{
		ShrinkIP:          DefaultShrinkIP,
		LeagueRA9:         DefaultLeagueRA9,
		MinIP:             DefaultMinIP,
		DefaultExpectedIP: DefaultExpectedIP,
	}
}

// RawRA9 is 9*ER/IP with IP floored to avoid blowing up on tiny samples.
func RawRA9(er, ip float64) float64 {
	if ip < minIPDenominator {
		ip = minIPDenominator
	}
	return 9 * er / ip
}

// Shrink blends raw toward the league rate with weight ip/(ip+ShrinkIP).
// At ip=0 it returns the league rate exactly.
func (m *Model) Shrink(raw, ip float64) float64 {
	if ip <= 0 {
		return m.LeagueRA9
	}
	w := ip / (ip + m.ShrinkIP)
	return w*raw + (1-w)*m.LeagueRA9
}

// Eligible reports whether an appearance counts toward ratings.
func (m *Model) Eligible(a *models.Appearance) bool {
	return a.InningsPitched >= m.MinIP && !a.GameDate.IsZero()
}

type pitcherAgg struct {
	rating *models.PitcherRating
	events map[string]struct{}
}

type reliefDay struct {
	ip float64
	pc float64
}

// Rate aggregates appearances. Ineligible rows are ignored.
func (m *Model) Rate(apps []models.Appearance) *Result {
	res := &Result{
		model:    m,
		pitchers: make(map[models.PitcherKey]*models.PitcherRating),
		teams:    make(map[models.TeamSeasonKey]*models.TeamPitchingStrength),
		relief:   make(map[string]map[string]reliefDay),
	}
	aggs := make(map[models.PitcherKey]*pitcherAgg)
	teamER := make(map[models.TeamSeasonKey][2]float64)

	for i := range apps {
		a := &apps[i]
		if !m.Eligible(a) {
			continue
		}
		key := models.PitcherKey{PitcherID: a.PitcherID, CanonicalID: a.CanonicalID, Season: a.Season, Role: a.Role()}
		agg, ok := aggs[key]
		if !ok {
			agg = &pitcherAgg{
				rating: &models.PitcherRating{PitcherKey: key, PitcherName: a.PitcherName},
				events: make(map[string]struct{}),
			}
			aggs[key] = agg
		}
		agg.rating.Appearances++
		agg.rating.InningsPitched += a.InningsPitched
		agg.rating.EarnedRuns += a.EarnedRuns
		agg.events[eventKey(a)] = struct{}{}
		if agg.rating.PitcherName == "" {
			agg.rating.PitcherName = a.PitcherName
		}

		tk := models.TeamSeasonKey{CanonicalID: a.CanonicalID, Season: a.Season}
		ts, ok := res.teams[tk]
		if !ok {
			ts = &models.TeamPitchingStrength{TeamSeasonKey: tk, LeagueRA9: m.LeagueRA9}
			res.teams[tk] = ts
		}
		er := teamER[tk]
		if a.Starter {
			ts.StarterIP += a.InningsPitched
			ts.HasStarterRows = true
			er[0] += a.EarnedRuns
		} else {
			ts.RelieverIP += a.InningsPitched
			er[1] += a.EarnedRuns
			if a.CanonicalID != "" {
				day := a.GameDate.UTC().Format(dayLayout)
				byDay, ok := res.relief[a.CanonicalID]
				if !ok {
					byDay = make(map[string]reliefDay)
					res.relief[a.CanonicalID] = byDay
				}
				rd := byDay[day]
				rd.ip += a.InningsPitched
				rd.pc += a.PitchesThrown
				byDay[day] = rd
			}
		}
		teamER[tk] = er
	}

	for key, agg := range aggs {
		r := agg.rating
		r.NGames = len(agg.events)
		r.RawRA9 = RawRA9(r.EarnedRuns, r.InningsPitched)
		r.RA9 = m.Shrink(r.RawRA9, r.InningsPitched)
		r.AvgInningsPerAppearance = r.InningsPitched / float64(r.Appearances)
		res.pitchers[key] = r
	}
	for tk, ts := range res.teams {
		er := teamER[tk]
		ts.StarterRA9 = RawRA9(er[0], ts.StarterIP)
		ts.RelieverRA9 = RawRA9(er[1], ts.RelieverIP)
		ts.ReliefIPShare = ts.RelieverIP / maxFloat(ts.StarterIP+ts.RelieverIP, minIPDenominator)
	}
	res.workload = res.buildWorkload()
	metrics.RatedPitchers.Set(float64(len(res.pitchers)))
	return res
}

func eventKey(a *models.Appearance) string {
	if a.EventID != "" {
		return a.EventID
	}
	return a.GameDate.UTC().Format(dayLayout)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// buildWorkload emits one snapshot per team per date on which that team
// used a reliever.
func (r *Result) buildWorkload() []models.BullpenWorkload {
	var out []models.BullpenWorkload
	for team, byDay := range r.relief {
		for day := range byDay {
			d, err := time.Parse(dayLayout, day)
			if err != nil {
				continue
			}
			out = append(out, r.WorkloadOn(team, d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CanonicalID != out[j].CanonicalID {
			return out[i].CanonicalID < out[j].CanonicalID
		}
		return out[i].Date < out[j].Date
	})
	return out
}
