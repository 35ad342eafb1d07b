package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// FileGameRepository reads games.csv and the per-day slate files
type FileGameRepository struct {
	gamesPath string
	slatePath func(time.Time) string
	logger    *logrus.Entry
}

// NewFileGameRepository creates a new game repository
func NewFileGameRepository(gamesPath string, slatePath func(time.Time) string, logger *logrus.Entry) *FileGameRepository {
	return &FileGameRepository{gamesPath: gamesPath, slatePath: slatePath, logger: logger}
}

// LoadGames reads the game history. Rows with an unparseable date or score
// are skipped and logged.
func (r *FileGameRepository) LoadGames(ctx context.Context) ([]models.Game, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	t, err := readCSV(r.gamesPath)
	if err != nil {
		return nil, err
	}
	if err := t.require("game_date", "home_canonical_id", "away_canonical_id"); err != nil {
		return nil, err
	}

	games := make([]models.Game, 0, len(t.rows))
	for i, row := range t.rows {
		g, err := gameFromRow(t, row)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"file":  r.gamesPath,
				"line":  i + 2,
				"error": err,
			}).Warn("Skipping malformed game row")
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// LoadSlate reads the slate for day.
func (r *FileGameRepository) LoadSlate(ctx context.Context, day time.Time) ([]models.ScheduledGame, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	path := r.slatePath(day)
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("home_team_name", "away_team_name"); err != nil {
		return nil, err
	}

	games := make([]models.ScheduledGame, 0, len(t.rows))
	for i, row := range t.rows {
		g, err := gameFromRow(t, row)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"file":  path,
				"line":  i + 2,
				"error": err,
			}).Warn("Skipping malformed slate row")
			continue
		}
		if g.GameDate.IsZero() {
			g.GameDate = day
		}
		if g.Season == 0 {
			g.Season = g.GameDate.Year()
		}
		games = append(games, models.ScheduledGame{
			Game:         g,
			CommenceTime: t.get(row, "commence_time"),
			Status:       t.get(row, "status"),
			HomeESPNID:   t.get(row, "home_team_espn_id", "home_espn_id"),
			AwayESPNID:   t.get(row, "away_team_espn_id", "away_espn_id"),
		})
	}
	return games, nil
}

func gameFromRow(t *csvTable, row []string) (models.Game, error) {
	g := models.Game{
		EventID:         t.get(row, "event_id"),
		HomeCanonicalID: t.get(row, "home_canonical_id"),
		AwayCanonicalID: t.get(row, "away_canonical_id"),
		HomeTeamName:    t.get(row, "home_team_name", "home_team"),
		AwayTeamName:    t.get(row, "away_team_name", "away_team"),
		NeutralSite:     parseBool(t.get(row, "neutral_site")),
	}
	var err error
	if s := t.get(row, "game_date"); s != "" {
		if g.GameDate, err = parseDate(s); err != nil {
			return g, fmt.Errorf("game_date: %w", err)
		}
	}
	if g.Season, err = parseInt(t.get(row, "season")); err != nil {
		return g, fmt.Errorf("season: %w", err)
	}
	if g.Season == 0 && !g.GameDate.IsZero() {
		g.Season = g.GameDate.Year()
	}
	if g.HomeScore, err = parseScore(t.get(row, "home_score")); err != nil {
		return g, fmt.Errorf("home_score: %w", err)
	}
	if g.AwayScore, err = parseScore(t.get(row, "away_score")); err != nil {
		return g, fmt.Errorf("away_score: %w", err)
	}
	return g, nil
}
