// Package repository reads the forecast inputs and writes its outputs as
// flat CSV and JSONL files.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/config"
	"github.com/yourusername/diamond-forecast/internal/models"
)

// Repositories holds all repository implementations
type Repositories struct {
	Teams          TeamRepository
	Games          GameRepository
	Appearances    AppearanceRepository
	ManualStarters ManualStarterRepository
	Odds           OddsRepository
	Output         OutputRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(cfg config.DataConfig, log *logrus.Logger) (*Repositories, error) {
	if cfg.Dir == "" || cfg.OutputDir == "" {
		return nil, fmt.Errorf("data dir and output dir are required")
	}
	if log == nil {
		log = logrus.New()
	}
	entry := log.WithField("component", "repository")

	format := models.OddsFormat(cfg.OddsFormat)
	if format == "" {
		format = models.OddsAmerican
	}

	return &Repositories{
		Teams:          NewFileTeamRepository(cfg.Path(cfg.TeamsFile), cfg.Path(cfg.CrosswalkFile)),
		Games:          NewFileGameRepository(cfg.Path(cfg.GamesFile), datedPath(cfg, cfg.SlateFile), entry),
		Appearances:    NewFileAppearanceRepository(cfg.Path(cfg.PitchingFile), entry),
		ManualStarters: NewFileManualStarterRepository(datedPath(cfg, cfg.ManualStartersFile)),
		Odds:           NewFileOddsRepository(datedPath(cfg, cfg.OddsFile), format, entry),
		Output:         NewFileOutputRepository(cfg.OutputDir),
	}, nil
}

func datedPath(cfg config.DataConfig, name string) func(time.Time) string {
	return func(day time.Time) string { return cfg.DatedPath(name, day) }
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	return nil
}
