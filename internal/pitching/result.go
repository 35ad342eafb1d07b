package pitching

import (
	"sort"
	"time"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// StarterRating fallback rungs.
const (
	RungPitcher = "pitcher"
	RungTeam    = "team_sp"
	RungLeague  = "league"
)

// Result is the output of Model.Rate. It is read-only after construction.
type Result struct {
	model    *Model
	pitchers map[models.PitcherKey]*models.PitcherRating
	teams    map[models.TeamSeasonKey]*models.TeamPitchingStrength
	relief   map[string]map[string]reliefDay
	workload []models.BullpenWorkload
}

// Pitcher returns the rating row for key.
func (r *Result) Pitcher(key models.PitcherKey) (models.PitcherRating, bool) {
	p, ok := r.pitchers[key]
	if !ok {
		return models.PitcherRating{}, false
	}
	return *p, true
}

// Team returns the strength summary for a team season.
func (r *Result) Team(canonicalID string, season int) (models.TeamPitchingStrength, bool) {
	t, ok := r.teams[models.TeamSeasonKey{CanonicalID: canonicalID, Season: season}]
	if !ok {
		return models.TeamPitchingStrength{}, false
	}
	return *t, true
}

// StarterRating returns the run average and expected innings for a
// starter. The fallback ladder is: the pitcher's own starter row, then the
// team's starter run average with default innings, then the league rate.
// The note names the rung used.
func (r *Result) StarterRating(pitcherID, canonicalID string, season int) (float64, float64, string) {
	m := r.model
	if pitcherID != "" {
		key := models.PitcherKey{PitcherID: pitcherID, CanonicalID: canonicalID, Season: season, Role: models.RoleStarter}
		if p, ok := r.pitchers[key]; ok {
			return p.RA9, p.AvgInningsPerAppearance, RungPitcher
		}
	}
	if t, ok := r.teams[models.TeamSeasonKey{CanonicalID: canonicalID, Season: season}]; ok && t.HasStarterRows {
		return t.StarterRA9, m.DefaultExpectedIP, RungTeam
	}
	return m.LeagueRA9, m.DefaultExpectedIP, RungLeague
}

// WorkloadOn returns relief usage for a team strictly before date: the
// day before for the 1-day window and the three days before for the 3-day
// window. Teams or dates with no relief history return zeros.
func (r *Result) WorkloadOn(canonicalID string, date time.Time) models.BullpenWorkload {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	w := models.BullpenWorkload{WorkloadKey: models.WorkloadKey{CanonicalID: canonicalID, Date: d.Format(dayLayout)}}
	byDay := r.relief[canonicalID]
	if byDay == nil {
		return w
	}
	for back := 1; back <= 3; back++ {
		rd, ok := byDay[d.AddDate(0, 0, -back).Format(dayLayout)]
		if !ok {
			continue
		}
		if back == 1 {
			w.IPLast1D += rd.ip
			w.PCLast1D += rd.pc
		}
		w.IPLast3D += rd.ip
		w.PCLast3D += rd.pc
	}
	return w
}

// PitcherRows returns every pitcher rating in a stable order.
func (r *Result) PitcherRows() []models.PitcherRating {
	out := make([]models.PitcherRating, 0, len(r.pitchers))
	for _, p := range r.pitchers {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return pitcherKeyLess(out[i].PitcherKey, out[j].PitcherKey) })
	return out
}

// TeamRows returns every team strength summary in a stable order.
func (r *Result) TeamRows() []models.TeamPitchingStrength {
	out := make([]models.TeamPitchingStrength, 0, len(r.teams))
	for _, t := range r.teams {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CanonicalID != out[j].CanonicalID {
			return out[i].CanonicalID < out[j].CanonicalID
		}
		return out[i].Season < out[j].Season
	})
	return out
}

// WorkloadRows returns the per-team relief-date snapshots.
func (r *Result) WorkloadRows() []models.BullpenWorkload {
	return append([]models.BullpenWorkload(nil), r.workload...)
}

func pitcherKeyLess(a, b models.PitcherKey) bool {
	if a.CanonicalID != b.CanonicalID {
		return a.CanonicalID < b.CanonicalID
	}
	if a.PitcherID != b.PitcherID {
		return a.PitcherID < b.PitcherID
	}
	if a.Season != b.Season {
		return a.Season < b.Season
	}
	return a.Role < b.Role
}
