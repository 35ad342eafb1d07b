package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// FileAppearanceRepository reads pitching_lines.csv
type FileAppearanceRepository struct {
	path   string
	logger *logrus.Entry
}

// NewFileAppearanceRepository creates a new appearance repository
func NewFileAppearanceRepository(path string, logger *logrus.Entry) *FileAppearanceRepository {
	return &FileAppearanceRepository{path: path, logger: logger}
}

// LoadAppearances reads every pitching line, skipping rows whose numbers do
// not parse.
func (r *FileAppearanceRepository) LoadAppearances(ctx context.Context) ([]models.Appearance, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	t, err := readCSV(r.path)
	if err != nil {
		return nil, err
	}
	if err := t.require("canonical_id", "ip"); err != nil {
		return nil, err
	}

	apps := make([]models.Appearance, 0, len(t.rows))
	for i, row := range t.rows {
		a, err := appearanceFromRow(t, row)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"file":  r.path,
				"line":  i + 2,
				"error": err,
			}).Warn("Skipping malformed pitching row")
			continue
		}
		apps = append(apps, a)
	}
	return apps, nil
}

func appearanceFromRow(t *csvTable, row []string) (models.Appearance, error) {
	a := models.Appearance{
		EventID:     t.get(row, "event_id"),
		CanonicalID: t.get(row, "canonical_id"),
		TeamName:    t.get(row, "team_name"),
		PitcherID:   t.get(row, "pitcher_id", "pitcher_espn_id"),
		PitcherName: t.get(row, "pitcher_name"),
		Starter:     parseBool(t.get(row, "starter")),
	}
	var err error
	if s := t.get(row, "game_date"); s != "" {
		if a.GameDate, err = parseDate(s); err != nil {
			return a, fmt.Errorf("game_date: %w", err)
		}
	}
	if a.Season, err = parseInt(t.get(row, "season")); err != nil {
		return a, fmt.Errorf("season: %w", err)
	}
	if a.Season == 0 && !a.GameDate.IsZero() {
		a.Season = a.GameDate.Year()
	}
	if a.InningsPitched, err = parseFloat(t.get(row, "ip")); err != nil {
		return a, fmt.Errorf("ip: %w", err)
	}
	if a.EarnedRuns, err = parseFloat(t.get(row, "er")); err != nil {
		return a, fmt.Errorf("er: %w", err)
	}
	if a.RunsAllowed, err = parseFloat(t.get(row, "r")); err != nil {
		return a, fmt.Errorf("r: %w", err)
	}
	if a.PitchesThrown, err = parseFloat(t.get(row, "pc")); err != nil {
		return a, fmt.Errorf("pc: %w", err)
	}
	return a, nil
}
