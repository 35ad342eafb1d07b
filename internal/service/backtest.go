package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/backtest"
	"github.com/yourusername/diamond-forecast/internal/models"
	"github.com/yourusername/diamond-forecast/internal/registry"
)

// StageBacktest labels the backtest in logs and the stage histogram.
const StageBacktest = "backtest"

// Backtest scores the projections saved for each day of the window against
// the final results in the games table. Days without saved projections
// are skipped.
func (s *ForecastService) Backtest(ctx context.Context, bt backtest.BacktestConfig) (backtest.Metrics, error) {
	start := time.Now()
	s.BeginRun()

	reg, err := s.BuildRegistry(ctx)
	if err != nil {
		return backtest.Metrics{}, err
	}
	games, err := s.repos.Games.LoadGames(ctx)
	if err != nil {
		return backtest.Metrics{}, fmt.Errorf("failed to load games: %w", err)
	}

	resolver := registry.NewResolver(reg, s.log)
	results := make([]models.Game, 0, len(games))
	for i := range games {
		g := games[i]
		if g.GameDate.Before(bt.StartDate) || g.GameDate.After(bt.EndDate) {
			continue
		}
		if err := resolver.ResolveGame(&g); err != nil {
			s.pipeline.LogRecordSkipped("game", g.EventID, err.Error())
		}
		results = append(results, g)
	}

	var projections []models.Projection
	days := 0
	for _, day := range bt.Days() {
		rows, err := s.repos.Output.LoadProjections(ctx, day)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return backtest.Metrics{}, fmt.Errorf("failed to load projections for %s: %w", day.Format(models.DateLayout), err)
		}
		days++
		projections = append(projections, rows...)
	}

	outcomes, summary := backtest.Join(projections, results)
	m := backtest.CalculateMetrics(outcomes, summary, bt)

	s.log.WithFields(logrus.Fields{
		"run_id":      s.runID,
		"days":        days,
		"projections": len(projections),
		"scored":      m.Scored,
		"brier":       m.Brier,
		"log_loss":    m.LogLoss,
	}).Info("Backtest complete")
	s.finishStage(StageBacktest, m.Scored, start)
	return m, nil
}
