package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/diamond-forecast/internal/backtest"
	"github.com/yourusername/diamond-forecast/internal/config"
	"github.com/yourusername/diamond-forecast/internal/models"
	"github.com/yourusername/diamond-forecast/internal/pitching"
	"github.com/yourusername/diamond-forecast/internal/projection"
	"github.com/yourusername/diamond-forecast/internal/rating"
	"github.com/yourusername/diamond-forecast/internal/repository"
)

var slateDay = time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

const (
	teamsCSV = `academic_year,ncaa_teams_id,team_name,conference,conference_id,canonical_id,odds_api_name,alt_names
2026,1,Alpha State,C1,1,BSB_ALPHA_ST,Alpha State Hornets,
2026,2,Beta,C1,1,BSB_BETA,Beta Bears,
2026,3,Gamma Tech,C1,1,BSB_GAMMA_TECH,,
`
	gamesCSV = `event_id,game_date,season,home_canonical_id,away_canonical_id,home_team_name,away_team_name,home_score,away_score
401,2026-02-20,2026,BSB_ALPHA_ST,BSB_BETA,Alpha State,Beta,5,3
402,2026-02-21,2026,,,Beta,Gamma Tech,2,4
403,2026-02-22,2026,,,Unknown U,Beta,1,0
404,2026-03-07,2026,BSB_BETA,BSB_ALPHA_ST,Beta,Alpha State,9,0
`
	pitchingCSV = `event_id,game_date,season,canonical_id,team_name,pitcher_id,pitcher_name,starter,ip,er,r,pc
401,2026-02-20,2026,BSB_ALPHA_ST,Alpha State,a1,Ace Alpha,1,7.0,1,1,98
401,2026-02-20,2026,BSB_BETA,Beta,b1,Bo Beta,1,5.0,4,5,90
401,2026-02-20,2026,BSB_BETA,Beta,b9,Relief Beta,0,3.0,1,1,45
402,2026-02-21,2026,,Gamma Tech,g1,Gus Gamma,1,6.0,2,2,88
410,2026-03-05,2026,BSB_BETA,Beta,b9,Relief Beta,0,3.0,0,0,40
501,2026-03-06,2026,BSB_ALPHA_ST,Alpha State,a1,Ace Alpha,1,6.0,0,0,90
`
	slateCSV = `event_id,status,home_team_name,away_team_name,neutral_site
501,STATUS_SCHEDULED,Alpha State,Beta,0
502,STATUS_FINAL,Gamma Tech,Alpha State,0
503,STATUS_SCHEDULED,Nowhere College,Beta,0
504,STATUS_SCHEDULED,Gamma Tech,Gamma Tech,0
`
	manualCSV = `game_date,event_id,home_team,away_team,home_pitcher_id,home_pitcher_name,away_pitcher_id,away_pitcher_name
2026-03-06,501,Alpha State,Beta,a1,Ace Alpha,b1,Bo Beta
`
	oddsJSONL = `{"id":"o1","home_team":"Alpha State Hornets","away_team":"Beta Bears","bookmakers":[{"key":"dk","markets":[{"key":"h2h","outcomes":[{"name":"Alpha State Hornets","price":-150},{"name":"Beta Bears","price":130}]}]}]}
`
)

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestService(t *testing.T, mutate func(*config.Config)) (*ForecastService, *config.Config) {
	t.Helper()
	root := t.TempDir()

	cfg, err := config.LoadWithDefaults(filepath.Join(root, "missing.yaml"))
	require.NoError(t, err)
	cfg.Data.Dir = filepath.Join(root, "data")
	cfg.Data.OutputDir = filepath.Join(root, "out")
	cfg.Metrics.TextfilePath = filepath.Join(root, "out", "forecast.prom")
	cfg.App.Workers = 2
	if mutate != nil {
		mutate(cfg)
	}

	d := cfg.Data
	writeFixture(t, d.Path(d.TeamsFile), teamsCSV)
	writeFixture(t, d.Path(d.GamesFile), gamesCSV)
	writeFixture(t, d.Path(d.PitchingFile), pitchingCSV)
	writeFixture(t, d.DatedPath(d.SlateFile, slateDay), slateCSV)
	writeFixture(t, d.DatedPath(d.ManualStartersFile, slateDay), manualCSV)
	writeFixture(t, d.DatedPath(d.OddsFile, slateDay), oddsJSONL)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	repos, err := repository.NewRepositories(cfg.Data, log)
	require.NoError(t, err)
	return NewForecastService(cfg, repos, Sources{}, log), cfg
}

func TestRunEndToEnd(t *testing.T) {
	svc, cfg := newTestService(t, nil)
	ctx := context.Background()

	summary, err := svc.Run(ctx, slateDay)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Teams)
	assert.Equal(t, 2, summary.GamesApplied, "game after the slate date is excluded")
	assert.Equal(t, 1, summary.GamesUnresolved)
	assert.Equal(t, 2, summary.SlateGames, "final game and self-matchup dropped")
	assert.Equal(t, 1, summary.InvalidGames)
	assert.Equal(t, 1, summary.Projected)
	assert.Equal(t, 1, summary.Blended)
	assert.Equal(t, 1, summary.Errors, "unresolved slate team fails its own row only")
	assert.Positive(t, summary.Duration)

	picks, err := svc.repos.Output.LoadStarters(ctx, slateDay)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	assert.Equal(t, "501", picks[0].Game.EventID)
	assert.Equal(t, "a1", picks[0].Home.PitcherID)
	assert.Equal(t, models.SourceManual, picks[0].Home.Source)
	assert.Equal(t, models.SourceUnknown, picks[1].Home.Source)

	data, err := os.ReadFile(cfg.Data.OutputPath("projections_2026-03-06.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "501,BSB_ALPHA_ST,BSB_BETA")
	assert.Contains(t, lines[2], "unresolved team identity")

	assert.FileExists(t, cfg.Metrics.TextfilePath)
	for _, name := range []string{repository.TeamRatingsFile, repository.PitcherRatingsFile, repository.TeamStrengthFile, repository.WorkloadFile} {
		assert.FileExists(t, cfg.Data.OutputPath(name))
	}
}

func TestProjectBlendsMarket(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	reg, err := svc.BuildRegistry(ctx)
	require.NoError(t, err)
	ratings, err := svc.FitRatings(ctx, reg, slateDay)
	require.NoError(t, err)
	pitch, apps, err := svc.RatePitchers(ctx, reg, slateDay)
	require.NoError(t, err)
	assert.Len(t, apps, 5, "appearance on the slate date is excluded")
	slate, err := svc.LoadSlate(ctx, slateDay, reg)
	require.NoError(t, err)
	picks, err := svc.SelectStarters(ctx, slateDay, reg, apps, slate)
	require.NoError(t, err)

	out, err := svc.Project(ctx, slateDay, reg, ratings, pitch, picks)
	require.NoError(t, err)
	require.Len(t, out, 2)

	p := out[0]
	assert.Empty(t, p.Err)
	require.NotNil(t, p.MarketHome)
	assert.InDelta(t, 0.6*(1-1.0/25), p.Alpha, 1e-9, "home team has one rated game")
	assert.InDelta(t, 1, p.PHome+p.PAway, 1e-9)
	assert.Greater(t, p.PHome, 0.5)
	require.NotNil(t, p.Edge)
	assert.InDelta(t, p.ModelHome-*p.MarketHome, *p.Edge, 1e-12)
	assert.Greater(t, p.BPComponent, 0.0, "away bullpen worked the day before")
	assert.Equal(t, "Ace Alpha", p.HomeStarter)

	assert.NotEmpty(t, out[1].Err)
}

func TestMarketWeightCountsCurrentSeasonOnly(t *testing.T) {
	svc, cfg := newTestService(t, nil)
	ctx := context.Background()

	var prior strings.Builder
	prior.WriteString(gamesCSV)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&prior, "9%02d,%s,2025,BSB_ALPHA_ST,BSB_BETA,Alpha State,Beta,4,2\n",
			i, start.AddDate(0, 0, i).Format(models.DateLayout))
	}
	writeFixture(t, cfg.Data.Path(cfg.Data.GamesFile), prior.String())

	reg, err := svc.BuildRegistry(ctx)
	require.NoError(t, err)
	ratings, err := svc.FitRatings(ctx, reg, slateDay)
	require.NoError(t, err)
	assert.Equal(t, 31, ratings.Games("BSB_ALPHA_ST"))
	assert.Equal(t, 1, ratings.SeasonGames("BSB_ALPHA_ST", 2026))

	pitch, apps, err := svc.RatePitchers(ctx, reg, slateDay)
	require.NoError(t, err)
	slate, err := svc.LoadSlate(ctx, slateDay, reg)
	require.NoError(t, err)
	picks, err := svc.SelectStarters(ctx, slateDay, reg, apps, slate)
	require.NoError(t, err)

	out, err := svc.Project(ctx, slateDay, reg, ratings, pitch, picks)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.NotNil(t, out[0].MarketHome)
	assert.InDelta(t, 0.6*(1-1.0/25), out[0].Alpha, 1e-9, "last season's games do not reduce market weight")
}

func TestRunStopsOnRegistryIntegrity(t *testing.T) {
	svc, cfg := newTestService(t, nil)
	writeFixture(t, cfg.Data.Path(cfg.Data.TeamsFile), teamsCSV+"2026,4,Delta,C1,1,BSB_BETA,,\n")

	_, err := svc.Run(context.Background(), slateDay)
	require.ErrorIs(t, err, models.ErrRegistryIntegrity)
	assert.NoFileExists(t, cfg.Data.OutputPath(repository.TeamRatingsFile))
}

func TestMinConfidenceSkipsGames(t *testing.T) {
	svc, cfg := newTestService(t, func(c *config.Config) { c.Starters.MinConfidence = 0.5 })

	summary, err := svc.Run(context.Background(), slateDay)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LowConfidence, "game with an unknown starter is skipped")
	assert.Zero(t, summary.Errors)

	data, err := os.ReadFile(cfg.Data.OutputPath("projections_2026-03-06.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "2026-03-06,501,"))
}

func TestProjectAllIsolatesPanicsAndKeepsOrder(t *testing.T) {
	svc, _ := newTestService(t, nil)
	games := make([]models.GameStarters, 5)
	for i := range games {
		games[i].Game = scheduled(string(rune('a'+i)), "Alpha State", "Beta")
		games[i].Game.HomeCanonicalID = "BSB_ALPHA_ST"
		games[i].Game.AwayCanonicalID = "BSB_BETA"
	}

	in := &projectionInputs{
		fusion:  projection.NewFusion(),
		ratings: rating.NewRatings(1500),
		markets: marketIndex{},
	}
	out := svc.projectAll(context.Background(), in, games)

	require.Len(t, out, len(games))
	for i, p := range out {
		assert.Equal(t, games[i].Game.EventID, p.EventID)
		assert.Contains(t, p.Err, "panic")
	}
	assert.Equal(t, len(games), svc.Metrics().Errors)
}

func TestProjectAllCanceled(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.cfg.App.Workers = 1

	games := []models.GameStarters{{Game: scheduled("x", "Alpha State", "Beta")}, {Game: scheduled("y", "Alpha State", "Beta")}}
	in := &projectionInputs{
		fusion:   projection.NewFusion(),
		ratings:  rating.NewRatings(1500),
		pitching: pitching.NewModel().Rate(nil),
		markets:  marketIndex{},
	}
	out := svc.projectAll(ctx, in, games)
	require.Len(t, out, 2)
	for i, p := range out {
		assert.Equal(t, games[i].Game.EventID, p.EventID)
		assert.NotEmpty(t, p.Err, "every row carries an error")
	}
}

func TestMarketIndexLookup(t *testing.T) {
	home, away := 0.6, 0.4
	idx := marketIndex{
		{home: "BSB_A", away: "BSB_B"}: {FairHome: &home, FairAway: &away},
	}

	p, reversed := idx.lookup("BSB_A", "BSB_B")
	require.NotNil(t, p)
	assert.Equal(t, 0.6, *p)
	assert.False(t, reversed)

	p, reversed = idx.lookup("BSB_B", "BSB_A")
	require.NotNil(t, p)
	assert.Equal(t, 0.4, *p)
	assert.True(t, reversed)

	p, _ = idx.lookup("BSB_A", "BSB_C")
	assert.Nil(t, p)
}

func TestWriteManualTemplate(t *testing.T) {
	svc, cfg := newTestService(t, nil)
	ctx := context.Background()
	day := slateDay.AddDate(0, 0, 1)
	writeFixture(t, cfg.Data.DatedPath(cfg.Data.SlateFile, day), slateCSV)

	reg, err := svc.BuildRegistry(ctx)
	require.NoError(t, err)

	written, n, err := svc.WriteManualTemplate(ctx, day, reg, false)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 2, n)
	assert.FileExists(t, cfg.Data.DatedPath(cfg.Data.ManualStartersFile, day))

	written, _, err = svc.WriteManualTemplate(ctx, day, reg, false)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestSlateDay(t *testing.T) {
	svc, _ := newTestService(t, nil)
	now := time.Date(2026, 3, 6, 23, 30, 0, 0, time.UTC)

	day, err := svc.SlateDay(now)
	require.NoError(t, err)
	assert.Equal(t, slateDay, day)

	svc.cfg.Data.AsOf = "2026-04-01"
	day, err = svc.SlateDay(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), day)
}

func TestBeginRunResetsMetrics(t *testing.T) {
	svc, _ := newTestService(t, nil)
	first := svc.BeginRun()
	svc.Metrics().RecordError()

	second := svc.BeginRun()
	assert.NotEqual(t, first, second)
	assert.Zero(t, svc.Metrics().Errors)
	assert.Equal(t, second, svc.Metrics().RunID)
}

func TestBacktestScoresSavedProjections(t *testing.T) {
	svc, cfg := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Run(ctx, slateDay)
	require.NoError(t, err)

	writeFixture(t, cfg.Data.Path(cfg.Data.GamesFile), gamesCSV+"501,2026-03-06,2026,,,Alpha State,Beta,6,2\n")

	saved, err := svc.repos.Output.LoadProjections(ctx, slateDay)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	m, err := svc.Backtest(ctx, backtest.BacktestConfig{
		StartDate: slateDay.AddDate(0, 0, -1),
		EndDate:   slateDay.AddDate(0, 0, 1),
		Stake:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Scored)
	assert.Equal(t, 1, m.Failed, "unresolved slate row")
	assert.InDelta(t, (1-saved[0].PHome)*(1-saved[0].PHome), m.Brier, 1e-9)
	assert.Equal(t, 1, m.MarketScored)
}
