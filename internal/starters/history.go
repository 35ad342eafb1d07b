package starters

import (
	"sort"
	"strings"
	"time"

	"github.com/yourusername/diamond-forecast/internal/models"
	"github.com/yourusername/diamond-forecast/internal/names"
)

// Start is one historical start by a pitcher for a team.
type Start struct {
	PitcherID   string
	PitcherName string
	NameNorm    string
	Date        time.Time
}

// History indexes past starts by team key, each team's starts ascending by date.
type History struct {
	normalizer *names.Normalizer
	byTeam     map[string][]Start
}

// NewHistory keeps the starter appearances with a date and a team key.
func NewHistory(apps []models.Appearance, normalizer *names.Normalizer) *History {
	if normalizer == nil {
		normalizer = names.Default()
	}
	h := &History{normalizer: normalizer, byTeam: make(map[string][]Start)}
	for i := range apps {
		a := &apps[i]
		if !a.Starter || a.GameDate.IsZero() {
			continue
		}
		key := h.TeamKey(a.CanonicalID, a.TeamName)
		if key == "" {
			continue
		}
		name := strings.TrimSpace(a.PitcherName)
		h.byTeam[key] = append(h.byTeam[key], Start{
			PitcherID:   strings.TrimSpace(a.PitcherID),
			PitcherName: name,
			NameNorm:    normalizer.NormalizePerson(name),
			Date:        a.GameDate,
		})
	}
	for key := range h.byTeam {
		starts := h.byTeam[key]
		sort.SliceStable(starts, func(i, j int) bool { return starts[i].Date.Before(starts[j].Date) })
	}
	return h
}

// Normalizer returns the normalizer used for team keys and person names.
func (h *History) Normalizer() *names.Normalizer {
	return h.normalizer
}

// TeamKey is the canonical id when known, else the normalized team name.
func (h *History) TeamKey(canonicalID, teamName string) string {
	if id := strings.TrimSpace(canonicalID); id != "" {
		return id
	}
	return h.normalizer.NormalizeTeam(teamName)
}

// Starts returns a team's starts, oldest first.
func (h *History) Starts(teamKey string) []Start {
	return h.byTeam[teamKey]
}

// ResolveName maps a pitcher name to an id from the team's start history.
// An exact normalized match wins; otherwise last name plus first initial.
// The most recent matching start supplies the id and display name.
func (h *History) ResolveName(teamKey, pitcherName string) (string, string, bool) {
	norm := h.normalizer.NormalizePerson(pitcherName)
	if teamKey == "" || norm == "" {
		return "", "", false
	}
	starts := h.byTeam[teamKey]
	if len(starts) == 0 {
		return "", "", false
	}

	if s, ok := latest(starts, func(s *Start) bool { return s.NameNorm == norm }); ok {
		return s.PitcherID, s.PitcherName, true
	}

	tokens := strings.Fields(norm)
	last, initial := tokens[len(tokens)-1], tokens[0][0]
	s, ok := latest(starts, func(s *Start) bool {
		parts := strings.Fields(s.NameNorm)
		return len(parts) > 0 && parts[len(parts)-1] == last && s.NameNorm[0] == initial
	})
	if !ok {
		return "", "", false
	}
	return s.PitcherID, s.PitcherName, true
}

func latest(starts []Start, match func(*Start) bool) (Start, bool) {
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i].PitcherID != "" && match(&starts[i]) {
			return starts[i], true
		}
	}
	return Start{}, false
}
