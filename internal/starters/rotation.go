package starters

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// RotationTier infers the probable starter from the team's start history.
type RotationTier struct {
	history *History
}

// NewRotationTier creates the rotation inference tier.
func NewRotationTier(history *History) *RotationTier {
	return &RotationTier{history: history}
}

func (t *RotationTier) Name() string { return "rotation" }

type rotationCandidate struct {
	pitcherID  string
	name       string
	score      float64
	confidence float64
	starts     int
	daysSince  int
}

// Pick scores every pitcher who started for the team before the game day.
// Lower score wins; ties go to more starts, then less rest.
func (t *RotationTier) Pick(_ context.Context, req Request) (*models.StarterPick, bool) {
	day := truncateDay(req.Game.GameDate)
	if req.TeamKey == "" || day.IsZero() {
		return nil, false
	}

	byPitcher := make(map[string][]Start)
	var order []string
	for _, s := range t.history.Starts(req.TeamKey) {
		if s.PitcherID == "" || !truncateDay(s.Date).Before(day) {
			continue
		}
		if _, seen := byPitcher[s.PitcherID]; !seen {
			order = append(order, s.PitcherID)
		}
		byPitcher[s.PitcherID] = append(byPitcher[s.PitcherID], s)
	}

	target := restTarget(day.Weekday())
	var cands []rotationCandidate
	for _, pid := range order {
		if c, ok := scoreCandidate(pid, byPitcher[pid], day, target); ok {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if a.starts != b.starts {
			return a.starts > b.starts
		}
		if a.daysSince != b.daysSince {
			return a.daysSince < b.daysSince
		}
		return a.pitcherID < b.pitcherID
	})

	best := cands[0]
	return &models.StarterPick{
		PitcherID:   best.pitcherID,
		DisplayName: best.name,
		Source:      models.SourceRotation,
		Confidence:  best.confidence,
		Note: fmt.Sprintf("inferred from starts: rest=%dd, target=%dd, team_starts=%d",
			best.daysSince, target, best.starts),
	}, true
}

// restTarget is a weekend rotation turn (7 days) or a midweek one (4 days).
func restTarget(wd time.Weekday) int {
	switch wd {
	case time.Friday, time.Saturday, time.Sunday:
		return 7
	}
	return 4
}

// scoreCandidate expects starts ascending by date, all before day.
func scoreCandidate(pid string, starts []Start, day time.Time, target int) (rotationCandidate, bool) {
	last := starts[len(starts)-1]
	daysSince := daysBetween(truncateDay(last.Date), day)
	if daysSince <= 0 {
		return rotationCandidate{}, false
	}
	n := len(starts)

	rests := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		rests = append(rests, float64(daysBetween(truncateDay(starts[i-1].Date), truncateDay(starts[i].Date))))
	}
	weekdayMatch := dominantWeekday(starts) == day.Weekday()
	offTarget := math.Abs(float64(daysSince - target))

	score := offTarget
	if len(rests) > 0 {
		score = math.Min(score, math.Abs(float64(daysSince)-median(rests))+0.25)
	}
	if weekdayMatch {
		score -= 1.0
	}
	score -= float64(min(n, 6)) * 0.15
	if daysSince < 3 {
		score += 4.0
	}
	if daysSince > 14 {
		score += 2.0
	}

	conf := 0.35 + float64(min(n, 5))*0.08
	if offTarget <= 1 {
		conf += 0.12
	}
	if weekdayMatch {
		conf += 0.12
	}
	if daysSince < 3 || daysSince > 14 {
		conf -= 0.20
	}
	conf = math.Max(0.10, math.Min(0.85, conf))

	return rotationCandidate{
		pitcherID:  pid,
		name:       last.PitcherName,
		score:      score,
		confidence: conf,
		starts:     n,
		daysSince:  daysSince,
	}, true
}

// dominantWeekday is the most frequent start weekday, lowest weekday on ties.
func dominantWeekday(starts []Start) time.Weekday {
	var counts [7]int
	for _, s := range starts {
		counts[mondayIndex(s.Date.Weekday())]++
	}
	best := 0
	for i := 1; i < 7; i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return time.Weekday((best + 1) % 7)
}

// mondayIndex maps Monday..Sunday to 0..6.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func sameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}
