// Package service orchestrates the forecast stages over the repositories:
// registry, rating replay, pitcher model, starter selection and projection.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/config"
	"github.com/yourusername/diamond-forecast/internal/logger"
	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/models"
	"github.com/yourusername/diamond-forecast/internal/names"
	"github.com/yourusername/diamond-forecast/internal/pitching"
	"github.com/yourusername/diamond-forecast/internal/rating"
	"github.com/yourusername/diamond-forecast/internal/registry"
	"github.com/yourusername/diamond-forecast/internal/repository"
	"github.com/yourusername/diamond-forecast/internal/starters"
)

// Stage names used in logs and the stage duration histogram.
const (
	StageRegistry = "registry"
	StageFit      = "fit"
	StagePitching = "pitching"
	StageSlate    = "slate"
	StageStarters = "starters"
	StageProject  = "project"
)

// ScoreboardSource lists a day's games from the live feed.
type ScoreboardSource interface {
	Scoreboard(ctx context.Context, day time.Time) ([]models.ScheduledGame, error)
}

// Sources are the remote collaborators. A nil member disables what needs it.
type Sources struct {
	Scoreboard ScoreboardSource
	Lineups    starters.LineupSource
	BoxScores  starters.BoxScoreSource
}

// ForecastService runs the forecast stages for one slate date at a time.
// It is not safe for concurrent runs; the scheduler serializes them.
type ForecastService struct {
	cfg        *config.Config
	repos      *repository.Repositories
	sources    Sources
	log        *logrus.Logger
	audit      *logger.AuditLogger
	validator  *SlateValidator
	normalizer *names.Normalizer

	runID    string
	pipeline *logger.PipelineLogger
	metrics  *RunMetrics
}

// NewForecastService creates a new forecast service
func NewForecastService(cfg *config.Config, repos *repository.Repositories, sources Sources, log *logrus.Logger) *ForecastService {
	if log == nil {
		log = logrus.New()
	}
	tables := names.DefaultTables().Extend(cfg.Names.ExtraMascots, cfg.Names.ExtraAcronyms)
	s := &ForecastService{
		cfg:        cfg,
		repos:      repos,
		sources:    sources,
		log:        log,
		audit:      logger.NewAuditLogger(log),
		validator:  NewSlateValidator(log),
		normalizer: names.NewNormalizer(tables),
	}
	s.BeginRun()
	return s
}

// BeginRun starts a new run id. Stage logs and RunMetrics carry it.
func (s *ForecastService) BeginRun() string {
	s.runID = uuid.NewString()
	s.pipeline = logger.NewPipelineLogger(s.log, s.runID)
	s.metrics = NewRunMetrics(s.runID)
	return s.runID
}

// Metrics returns the counters of the current run.
func (s *ForecastService) Metrics() *RunMetrics {
	return s.metrics
}

// Normalizer returns the name normalizer built from config.
func (s *ForecastService) Normalizer() *names.Normalizer {
	return s.normalizer
}

// SlateDay is the configured as-of date, or today in the schedule time zone.
func (s *ForecastService) SlateDay(now time.Time) (time.Time, error) {
	if s.cfg.Data.AsOf != "" {
		day, err := time.Parse(models.DateLayout, s.cfg.Data.AsOf)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid as_of %q: %w", s.cfg.Data.AsOf, err)
		}
		return day, nil
	}
	local := now.In(s.cfg.Schedule.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (s *ForecastService) finishStage(stage string, records int, start time.Time) {
	d := time.Since(start)
	metrics.RecordStageDuration(stage, d.Seconds())
	s.pipeline.LogStageCompleted(stage, records, d)
}

// BuildRegistry loads the team list and crosswalk and builds the registry
// for the configured season, or the latest academic year in the list. Any
// integrity violation is returned and nothing downstream may run.
func (s *ForecastService) BuildRegistry(ctx context.Context) (*registry.Registry, error) {
	start := time.Now()

	ncaa, err := s.repos.Teams.LoadTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	crosswalk, err := s.repos.Teams.LoadCrosswalk(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load crosswalk: %w", err)
	}

	teams, err := registry.Assemble(registry.ForYear(ncaa, s.cfg.Data.Season), crosswalk)
	if err != nil {
		s.audit.LogRegistryIntegrityFailure(err)
		return nil, fmt.Errorf("failed to assemble registry: %w", err)
	}
	reg, err := registry.Build(teams, crosswalk, s.normalizer)
	if err != nil {
		s.audit.LogRegistryIntegrityFailure(err)
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	s.audit.LogRegistryBuilt(reg.Len(), reg.AliasCount(), reg.FormCount())
	s.metrics.Teams = reg.Len()
	s.finishStage(StageRegistry, reg.Len(), start)
	return reg, nil
}

// SaveRegistry writes the assembled registry rows.
func (s *ForecastService) SaveRegistry(ctx context.Context, reg *registry.Registry) error {
	if err := s.repos.Output.SaveTeams(ctx, reg.Teams()); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}
	return nil
}

// FitRatings replays every resolved, scored game dated before before (all
// games when before is zero) and saves the ratings.
func (s *ForecastService) FitRatings(ctx context.Context, reg *registry.Registry, before time.Time) (*rating.Ratings, error) {
	start := time.Now()

	games, err := s.repos.Games.LoadGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	resolver := registry.NewResolver(reg, s.log)
	usable := make([]models.Game, 0, len(games))
	for i := range games {
		g := games[i]
		if !before.IsZero() && !g.GameDate.Before(before) {
			continue
		}
		if s.cfg.Data.Season > 0 && g.Season != s.cfg.Data.Season {
			continue
		}
		if err := resolver.ResolveGame(&g); err != nil {
			s.pipeline.LogRecordSkipped("game", g.EventID, err.Error())
		}
		usable = append(usable, g)
	}

	engine := &rating.Engine{
		K:             s.cfg.Elo.K,
		Initial:       s.cfg.Elo.Initial,
		HomeAdvantage: s.cfg.Elo.HomeAdvantage,
		TiePolicy:     rating.TiePolicy(s.cfg.Elo.TiePolicy),
	}
	ratings, stats := engine.Fit(usable)
	s.pipeline.LogFitSummary(stats.Applied, stats.Unresolved, stats.Unscored, ratings.Len())
	s.metrics.GamesApplied = stats.Applied
	s.metrics.GamesUnresolved = stats.Unresolved

	if err := s.repos.Output.SaveTeamRatings(ctx, ratings.Sorted()); err != nil {
		return nil, fmt.Errorf("failed to save team ratings: %w", err)
	}
	s.finishStage(StageFit, stats.Applied, start)
	return ratings, nil
}

// RatePitchers builds pitcher ratings, team splits and bullpen workload
// from appearances dated before before, and saves them. The resolved
// appearances are returned for starter history.
func (s *ForecastService) RatePitchers(ctx context.Context, reg *registry.Registry, before time.Time) (*pitching.Result, []models.Appearance, error) {
	start := time.Now()

	apps, err := s.repos.Appearances.LoadAppearances(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load appearances: %w", err)
	}

	resolver := registry.NewResolver(reg, s.log)
	usable := make([]models.Appearance, 0, len(apps))
	for i := range apps {
		a := apps[i]
		if !before.IsZero() && !a.GameDate.IsZero() && !a.GameDate.Before(before) {
			continue
		}
		if a.CanonicalID == "" {
			id, err := resolver.ResolveID(a.TeamName)
			if err != nil {
				s.pipeline.LogRecordSkipped("appearance", a.EventID+"/"+a.PitcherID, err.Error())
				continue
			}
			a.CanonicalID = id
		}
		usable = append(usable, a)
	}
	s.metrics.Appearances = len(usable)

	model := &pitching.Model{
		ShrinkIP:          s.cfg.Pitching.ShrinkIP,
		LeagueRA9:         s.cfg.Pitching.LeagueRA9,
		MinIP:             s.cfg.Pitching.MinIP,
		DefaultExpectedIP: s.cfg.Pitching.ExpectedIP,
	}
	result := model.Rate(usable)

	if err := s.repos.Output.SavePitcherRatings(ctx, result.PitcherRows()); err != nil {
		return nil, nil, fmt.Errorf("failed to save pitcher ratings: %w", err)
	}
	if err := s.repos.Output.SaveTeamStrength(ctx, result.TeamRows()); err != nil {
		return nil, nil, fmt.Errorf("failed to save team strength: %w", err)
	}
	if err := s.repos.Output.SaveWorkload(ctx, result.WorkloadRows()); err != nil {
		return nil, nil, fmt.Errorf("failed to save bullpen workload: %w", err)
	}
	s.finishStage(StagePitching, len(usable), start)
	return result, usable, nil
}

// LoadSlate returns the day's games with resolved ids where possible.
// Finished games are dropped unless include_final is set, and invalid
// games are dropped and logged.
func (s *ForecastService) LoadSlate(ctx context.Context, day time.Time, reg *registry.Registry) ([]models.ScheduledGame, error) {
	start := time.Now()

	var (
		slate []models.ScheduledGame
		err   error
	)
	if s.cfg.Starters.SlateSource == "espn" && s.sources.Scoreboard != nil {
		slate, err = s.sources.Scoreboard.Scoreboard(ctx, day)
	} else {
		slate, err = s.repos.Games.LoadSlate(ctx, day)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slate for %s: %w", day.Format(models.DateLayout), err)
	}

	resolver := registry.NewResolver(reg, s.log)
	kept := make([]models.ScheduledGame, 0, len(slate))
	for i := range slate {
		g := slate[i]
		if g.IsFinal() && !s.cfg.Starters.IncludeFinal {
			continue
		}
		if err := resolver.ResolveGame(&g.Game); err != nil {
			s.pipeline.LogRecordSkipped("slate_game", g.EventID, err.Error())
		}
		kept = append(kept, g)
	}

	valid, dropped := s.validator.Filter(kept)
	for i := 0; i < dropped; i++ {
		s.metrics.RecordInvalidGame()
	}
	s.metrics.SlateGames = len(valid)
	s.finishStage(StageSlate, len(valid), start)
	return valid, nil
}

// SelectStarters runs the evidence chain for every slate game and saves
// the picks.
func (s *ForecastService) SelectStarters(ctx context.Context, day time.Time, reg *registry.Registry, apps []models.Appearance, slate []models.ScheduledGame) ([]models.GameStarters, error) {
	start := time.Now()

	history := starters.NewHistory(apps, s.normalizer)
	caches := starters.NewCaches(s.cfg.Starters.CacheTTL())

	var tiers []starters.Tier
	if s.cfg.Starters.EnableManual {
		rows, err := s.repos.ManualStarters.Load(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("failed to load manual starters: %w", err)
		}
		tiers = append(tiers, starters.NewManualTier(rows, history))
	}
	if s.cfg.Starters.EnableLineups && s.sources.Lineups != nil {
		tiers = append(tiers, starters.NewLineupTier(s.sources.Lineups, caches, history))
	}
	if s.cfg.Starters.EnableBoxScores && s.sources.BoxScores != nil {
		tiers = append(tiers, starters.NewBoxScoreTier(s.sources.BoxScores, caches))
	}
	if s.cfg.Starters.EnableRotation {
		tiers = append(tiers, starters.NewRotationTier(history))
	}

	chain := starters.NewChain(history, reg, s.log, tiers...)
	s.log.WithFields(logrus.Fields{
		"run_id": s.runID,
		"tiers":  chain.Tiers(),
		"games":  len(slate),
	}).Debug("Selecting starters")

	picks := chain.SelectAll(ctx, slate)
	for i := range picks {
		for _, p := range []*models.StarterPick{&picks[i].Home, &picks[i].Away} {
			s.metrics.RecordStarter(p.HasID(), p.Source == models.SourceUnknown)
		}
	}

	if err := s.repos.Output.SaveStarters(ctx, day, picks); err != nil {
		return nil, fmt.Errorf("failed to save starters: %w", err)
	}
	s.finishStage(StageStarters, len(picks), start)
	return picks, nil
}

// WriteManualTemplate seeds the manual override file for day from the
// slate. It reports whether the file was written.
func (s *ForecastService) WriteManualTemplate(ctx context.Context, day time.Time, reg *registry.Registry, overwrite bool) (bool, int, error) {
	slate, err := s.LoadSlate(ctx, day, reg)
	if err != nil {
		return false, 0, err
	}
	rows := starters.Template(slate)
	written, err := s.repos.ManualStarters.WriteTemplate(ctx, day, rows, overwrite)
	if err != nil {
		return false, 0, fmt.Errorf("failed to write manual template: %w", err)
	}
	return written, len(rows), nil
}

// Run executes every stage for day: registry, ratings, pitching, slate,
// starters and projections.
func (s *ForecastService) Run(ctx context.Context, day time.Time) (*RunMetrics, error) {
	s.BeginRun()
	runLog := s.log.WithFields(logrus.Fields{
		"run_id": s.runID,
		"day":    day.Format(models.DateLayout),
	})
	runLog.Info("Starting forecast run")

	reg, err := s.BuildRegistry(ctx)
	if err != nil {
		return s.metrics, err
	}
	ratings, err := s.FitRatings(ctx, reg, day)
	if err != nil {
		return s.metrics, err
	}
	pitch, apps, err := s.RatePitchers(ctx, reg, day)
	if err != nil {
		return s.metrics, err
	}
	slate, err := s.LoadSlate(ctx, day, reg)
	if err != nil {
		return s.metrics, err
	}
	picks, err := s.SelectStarters(ctx, day, reg, apps, slate)
	if err != nil {
		return s.metrics, err
	}
	if _, err := s.Project(ctx, day, reg, ratings, pitch, picks); err != nil {
		return s.metrics, err
	}

	s.metrics.Finish()
	if err := s.exportMetrics(); err != nil {
		runLog.WithError(err).Warn("Failed to write metrics textfile")
	}
	runLog.WithField("summary", s.metrics.String()).Info("Forecast run complete")
	return s.metrics, nil
}

// ProjectSaved projects day from the starters saved by an earlier run.
func (s *ForecastService) ProjectSaved(ctx context.Context, day time.Time) ([]models.Projection, error) {
	s.BeginRun()
	reg, err := s.BuildRegistry(ctx)
	if err != nil {
		return nil, err
	}
	ratings, err := s.FitRatings(ctx, reg, day)
	if err != nil {
		return nil, err
	}
	pitch, _, err := s.RatePitchers(ctx, reg, day)
	if err != nil {
		return nil, err
	}
	picks, err := s.repos.Output.LoadStarters(ctx, day)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("no saved starters for %s, run the starters stage first: %w", day.Format(models.DateLayout), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load starters: %w", err)
	}
	out, err := s.Project(ctx, day, reg, ratings, pitch, picks)
	if err != nil {
		return nil, err
	}
	s.metrics.Finish()
	if err := s.exportMetrics(); err != nil {
		s.log.WithError(err).Warn("Failed to write metrics textfile")
	}
	return out, nil
}

func (s *ForecastService) exportMetrics() error {
	if !s.cfg.Metrics.Enabled || s.cfg.Metrics.TextfilePath == "" {
		return nil
	}
	return metrics.WriteTextfile(s.cfg.Metrics.TextfilePath)
}
