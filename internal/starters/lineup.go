package starters

import (
	"context"
	"fmt"

	"github.com/yourusername/diamond-forecast/internal/evidence"
	"github.com/yourusername/diamond-forecast/internal/models"
	"github.com/yourusername/diamond-forecast/internal/names"
)

// LineupSource fetches a team's same-day lineup card by slug.
type LineupSource interface {
	Rows(ctx context.Context, slug string, year int) ([]evidence.LineupRow, error)
}

// LineupTier reads the listed starter from the team's lineup card.
type LineupTier struct {
	source  LineupSource
	caches  *Caches
	history *History
}

// NewLineupTier creates the lineup tier.
func NewLineupTier(source LineupSource, caches *Caches, history *History) *LineupTier {
	return &LineupTier{source: source, caches: caches, history: history}
}

func (t *LineupTier) Name() string { return "lineup" }

// Pick finds the card row dated on the game day, preferring the one naming
// the opponent. A listed name is matched against history in place.
func (t *LineupTier) Pick(ctx context.Context, req Request) (*models.StarterPick, bool) {
	day := req.Game.GameDate
	if day.IsZero() {
		return nil, false
	}
	slug := t.resolveSlug(ctx, req.TeamName, day.Year())
	if slug == "" {
		return nil, false
	}
	pick := chooseLineupStarter(t.rows(ctx, slug, day.Year()), req, t.history.Normalizer())
	if pick == nil {
		return nil, false
	}
	if pick.HasName() && !pick.HasID() {
		if id, name, ok := t.history.ResolveName(req.TeamKey, pick.DisplayName); ok {
			pick.PitcherID = id
			pick.DisplayName = orElse(name, pick.DisplayName)
			pick.Confidence = min(0.90, pick.Confidence+0.08)
			pick.Note += " | matched to id from history"
		} else {
			pick.Confidence -= 0.15
			pick.Note += " | name unresolved to id"
		}
	}
	return pick, true
}

// resolveSlug tries slug candidates until one yields a non-empty card.
func (t *LineupTier) resolveSlug(ctx context.Context, teamName string, year int) string {
	key := t.history.Normalizer().NormalizeTeam(teamName)
	if key == "" {
		return ""
	}
	if slug, ok := t.caches.Slug(key); ok {
		return slug
	}
	for _, slug := range evidence.SlugCandidates(t.history.Normalizer(), teamName) {
		if ctx.Err() != nil {
			return ""
		}
		if len(t.rows(ctx, slug, year)) > 0 {
			t.caches.SetSlug(key, slug)
			return slug
		}
	}
	t.caches.SetSlug(key, "")
	return ""
}

func (t *LineupTier) rows(ctx context.Context, slug string, year int) []evidence.LineupRow {
	if rows, ok := t.caches.LineupRows(slug); ok {
		return rows
	}
	rows, err := t.source.Rows(ctx, slug, year)
	if err != nil {
		rows = nil
	}
	t.caches.SetLineupRows(slug, rows)
	return rows
}

func chooseLineupStarter(rows []evidence.LineupRow, req Request, n *names.Normalizer) *models.StarterPick {
	day := req.Game.GameDate
	var candidates []evidence.LineupRow
	for _, r := range rows {
		if !r.GameDate.IsZero() && sameDay(r.GameDate, day) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	if opp := n.NormalizeTeam(req.OpponentName); opp != "" {
		var matched []evidence.LineupRow
		for _, r := range candidates {
			if r.OpponentNorm == opp {
				matched = append(matched, r)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		}
	}

	c := candidates[0]
	switch names.Normalize(c.StarterName) {
	case "", "tbd", "to be determined":
		return &models.StarterPick{
			Source:     models.SourceLineup,
			Confidence: 0.20,
			Note:       fmt.Sprintf("lineup row found but SP is TBD/blank (%s)", c.GameText),
		}
	}
	return &models.StarterPick{
		DisplayName: c.StarterName,
		Source:      models.SourceLineup,
		Confidence:  0.78,
		Note:        fmt.Sprintf("lineup row: %s", c.GameText),
	}
}
