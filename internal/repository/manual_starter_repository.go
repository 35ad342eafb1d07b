package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yourusername/diamond-forecast/internal/models"
)

var manualStarterHeader = []string{
	"game_date", "event_id", "home_team", "away_team",
	"home_canonical_id", "away_canonical_id",
	"home_pitcher_name", "away_pitcher_name",
	"home_pitcher_id", "away_pitcher_id",
	"source", "source_url", "notes",
}

// FileManualStarterRepository reads and seeds the per-day override file
type FileManualStarterRepository struct {
	path func(time.Time) string
}

// NewFileManualStarterRepository creates a new manual starter repository
func NewFileManualStarterRepository(path func(time.Time) string) *FileManualStarterRepository {
	return &FileManualStarterRepository{path: path}
}

// Load returns the overrides for day; no file means no overrides.
func (r *FileManualStarterRepository) Load(ctx context.Context, day time.Time) ([]models.ManualStarter, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	t, err := readCSV(r.path(day))
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows := make([]models.ManualStarter, 0, len(t.rows))
	for _, row := range t.rows {
		m := models.ManualStarter{
			GameDate:        t.get(row, "game_date"),
			EventID:         t.get(row, "event_id"),
			HomeTeam:        t.get(row, "home_team", "home_team_name"),
			AwayTeam:        t.get(row, "away_team", "away_team_name"),
			HomeCanonicalID: t.get(row, "home_canonical_id"),
			AwayCanonicalID: t.get(row, "away_canonical_id"),
			HomePitcherName: t.get(row, "home_pitcher_name"),
			AwayPitcherName: t.get(row, "away_pitcher_name"),
			HomePitcherID:   t.get(row, "home_pitcher_id", "home_pitcher_espn_id"),
			AwayPitcherID:   t.get(row, "away_pitcher_id", "away_pitcher_espn_id"),
			Source:          t.get(row, "source"),
			SourceURL:       t.get(row, "source_url"),
			Notes:           t.get(row, "notes"),
		}
		if m.HomePitcherName == "" && m.AwayPitcherName == "" && m.HomePitcherID == "" && m.AwayPitcherID == "" {
			continue
		}
		rows = append(rows, m)
	}
	return rows, nil
}

// WriteTemplate seeds the override file for day with one row per game.
func (r *FileManualStarterRepository) WriteTemplate(ctx context.Context, day time.Time, rows []models.ManualStarter, overwrite bool) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	path := r.path(day)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	records := make([][]string, 0, len(rows))
	for _, m := range rows {
		records = append(records, []string{
			m.GameDate, m.EventID, m.HomeTeam, m.AwayTeam,
			m.HomeCanonicalID, m.AwayCanonicalID,
			m.HomePitcherName, m.AwayPitcherName,
			m.HomePitcherID, m.AwayPitcherID,
			m.Source, m.SourceURL, m.Notes,
		})
	}
	if err := writeCSV(path, manualStarterHeader, records); err != nil {
		return false, err
	}
	return true, nil
}
