package repository

import (
	"context"
	"time"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// TeamRepository defines access to the NCAA team list and name crosswalk
type TeamRepository interface {
	LoadTeams(ctx context.Context) ([]models.Team, error)
	LoadCrosswalk(ctx context.Context) ([]models.CrosswalkEntry, error)
}

// GameRepository defines access to historical games and daily slates
type GameRepository interface {
	LoadGames(ctx context.Context) ([]models.Game, error)
	LoadSlate(ctx context.Context, day time.Time) ([]models.ScheduledGame, error)
}

// AppearanceRepository defines access to per-game pitching lines
type AppearanceRepository interface {
	LoadAppearances(ctx context.Context) ([]models.Appearance, error)
}

// ManualStarterRepository defines access to operator starter overrides
type ManualStarterRepository interface {
	Load(ctx context.Context, day time.Time) ([]models.ManualStarter, error)
	// WriteTemplate reports whether a file was written; an existing file is
	// kept unless overwrite is set.
	WriteTemplate(ctx context.Context, day time.Time, rows []models.ManualStarter, overwrite bool) (bool, error)
}

// OddsRepository defines access to market snapshots
type OddsRepository interface {
	LoadOdds(ctx context.Context, day time.Time) ([]models.MarketOdds, error)
}

// OutputRepository defines persistence of forecast outputs
type OutputRepository interface {
	SaveTeams(ctx context.Context, teams []models.Team) error
	SaveTeamRatings(ctx context.Context, ratings []models.TeamRating) error
	LoadTeamRatings(ctx context.Context) ([]models.TeamRating, error)
	SavePitcherRatings(ctx context.Context, rows []models.PitcherRating) error
	SaveTeamStrength(ctx context.Context, rows []models.TeamPitchingStrength) error
	SaveWorkload(ctx context.Context, rows []models.BullpenWorkload) error
	SaveStarters(ctx context.Context, day time.Time, rows []models.GameStarters) error
	LoadStarters(ctx context.Context, day time.Time) ([]models.GameStarters, error)
	SaveProjections(ctx context.Context, day time.Time, rows []models.Projection) error
	LoadProjections(ctx context.Context, day time.Time) ([]models.Projection, error)
}
