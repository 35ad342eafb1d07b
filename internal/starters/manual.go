package starters

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// ManualTier applies operator-entered overrides.
type ManualTier struct {
	rows    []models.ManualStarter
	history *History
}

// NewManualTier creates the override tier over the loaded manual rows.
func NewManualTier(rows []models.ManualStarter, history *History) *ManualTier {
	return &ManualTier{rows: rows, history: history}
}

func (t *ManualTier) Name() string { return "manual" }

// Pick matches the game's override row and reads the requested side.
func (t *ManualTier) Pick(_ context.Context, req Request) (*models.StarterPick, bool) {
	row := t.find(req.Game)
	if row == nil {
		return nil, false
	}

	pid, pname := strings.TrimSpace(row.HomePitcherID), strings.TrimSpace(row.HomePitcherName)
	if req.Side == SideAway {
		pid, pname = strings.TrimSpace(row.AwayPitcherID), strings.TrimSpace(row.AwayPitcherName)
	}
	src := strings.TrimSpace(row.Source)
	if src == "" {
		src = "manual"
	}
	url := strings.TrimSpace(row.SourceURL)
	notes := strings.TrimSpace(row.Notes)

	switch {
	case pid != "":
		note := "manual starter id"
		if url != "" {
			note += fmt.Sprintf(" (%s)", url)
		}
		return &models.StarterPick{
			PitcherID:   pid,
			DisplayName: pname,
			Source:      models.SourceManual,
			Confidence:  0.98,
			Note:        withNotes(note, notes),
		}, true
	case pname != "":
		if id, name, ok := t.history.ResolveName(req.TeamKey, pname); ok {
			return &models.StarterPick{
				PitcherID:   id,
				DisplayName: orElse(name, pname),
				Source:      models.SourceManualNameMatched,
				Confidence:  0.92,
				Note:        withNotes(withURL(fmt.Sprintf("manual name matched to id via history (%s)", src), url), notes),
			}, true
		}
		return &models.StarterPick{
			DisplayName: pname,
			Source:      models.SourceManualUnresolved,
			Confidence:  0.45,
			Note:        withNotes(withURL(fmt.Sprintf("manual name provided but id unresolved (%s)", src), url), notes),
		}, true
	}
	return nil, false
}

// find matches by event id first, then by date and both team names.
// Rows with a blank date match any game date.
func (t *ManualTier) find(g *models.ScheduledGame) *models.ManualStarter {
	if len(t.rows) == 0 {
		return nil
	}
	if eventID := strings.TrimSpace(g.EventID); eventID != "" {
		for i := range t.rows {
			if strings.TrimSpace(t.rows[i].EventID) == eventID {
				return &t.rows[i]
			}
		}
	}

	gameDate := ""
	if !g.GameDate.IsZero() {
		gameDate = g.GameDate.Format(models.DateLayout)
	}
	n := t.history.Normalizer()
	for i := range t.rows {
		row := &t.rows[i]
		if d := strings.TrimSpace(row.GameDate); gameDate != "" && d != "" && d != gameDate {
			continue
		}
		if sideMatches(n.TeamNamesMatch, row.HomeCanonicalID, g.HomeCanonicalID, row.HomeTeam, g.HomeTeamName) &&
			sideMatches(n.TeamNamesMatch, row.AwayCanonicalID, g.AwayCanonicalID, row.AwayTeam, g.AwayTeamName) {
			return row
		}
	}
	return nil
}

func sideMatches(namesMatch func(a, b string) bool, rowID, gameID, rowName, gameName string) bool {
	rowID, gameID = strings.TrimSpace(rowID), strings.TrimSpace(gameID)
	if rowID != "" && gameID != "" {
		return rowID == gameID
	}
	return namesMatch(rowName, gameName)
}

func withURL(note, url string) string {
	if url == "" {
		return note
	}
	return note + " " + url
}

func withNotes(note, notes string) string {
	if notes == "" {
		return note
	}
	return note + "; " + notes
}

func orElse(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// Template returns one blank override row per slate game for an operator to fill in.
func Template(games []models.ScheduledGame) []models.ManualStarter {
	rows := make([]models.ManualStarter, 0, len(games))
	for i := range games {
		g := &games[i]
		row := models.ManualStarter{
			EventID:         g.EventID,
			HomeTeam:        g.HomeTeamName,
			AwayTeam:        g.AwayTeamName,
			HomeCanonicalID: g.HomeCanonicalID,
			AwayCanonicalID: g.AwayCanonicalID,
		}
		if !g.GameDate.IsZero() {
			row.GameDate = g.GameDate.Format(models.DateLayout)
		}
		rows = append(rows, row)
	}
	return rows
}
