package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/diamond-forecast/internal/config"
	"github.com/yourusername/diamond-forecast/internal/models"
)

var testDay = time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestRepos(t *testing.T) (*Repositories, config.DataConfig) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DataConfig{
		Dir:                filepath.Join(root, "data"),
		OutputDir:          filepath.Join(root, "out"),
		TeamsFile:          "registry/canonical_teams.csv",
		CrosswalkFile:      "registry/name_crosswalk.csv",
		GamesFile:          "processed/games.csv",
		PitchingFile:       "processed/pitching_lines.csv",
		SlateFile:          "raw/slates/slate_{date}.csv",
		ManualStartersFile: "raw/starters_manual/manual_starters_{date}.csv",
		OddsFile:           "raw/odds/odds_{date}.jsonl",
		OddsFormat:         "american",
	}
	repos, err := NewRepositories(cfg, logrus.New())
	require.NoError(t, err)
	return repos, cfg
}

func TestNewRepositoriesRequiresDirs(t *testing.T) {
	_, err := NewRepositories(config.DataConfig{}, nil)
	assert.Error(t, err)
}

func TestLoadTeamsAndCrosswalk(t *testing.T) {
	repos, cfg := newTestRepos(t)
	ctx := context.Background()

	writeFile(t, cfg.Path(cfg.TeamsFile), "\ufeffacademic_year,ncaa_teams_id,team_name,conference,conference_id,canonical_id,odds_api_name,alt_names\n"+
		"2026,328,Kansas St.,Big 12,25,BSB_KANSAS_ST,Kansas State Wildcats,K-State| KSU \n"+
		"2026,2.0,Abilene Christian,WAC,30,BSB_ABILENE_CHRISTIAN,,\n")

	teams, err := repos.Teams.LoadTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 2026, teams[0].AcademicYear)
	assert.Equal(t, "BSB_KANSAS_ST", teams[0].CanonicalID)
	assert.Equal(t, []string{"K-State", "KSU"}, teams[0].AltNames)
	assert.Equal(t, 2, teams[1].NCAATeamsID)
	assert.Nil(t, teams[1].AltNames)

	entries, err := repos.Teams.LoadCrosswalk(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "missing crosswalk is empty")

	writeFile(t, cfg.Path(cfg.CrosswalkFile), "source,source_name,canonical_id,ncaa_teams_id,notes\n"+
		"odds_api,Kansas St Wildcats,BSB_KANSAS_ST,,manual\n")
	entries, err = repos.Teams.LoadCrosswalk(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Kansas St Wildcats", entries[0].SourceName)
	assert.Equal(t, "manual", entries[0].Notes)
}

func TestLoadTeamsErrors(t *testing.T) {
	repos, cfg := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Teams.LoadTeams(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	writeFile(t, cfg.Path(cfg.TeamsFile), "academic_year,team_name\n2026,Kansas St.\n")
	_, err = repos.Teams.LoadTeams(ctx)
	assert.ErrorContains(t, err, "canonical_id")

	writeFile(t, cfg.Path(cfg.TeamsFile), "academic_year,team_name,canonical_id\nnext,Kansas St.,BSB_KANSAS_ST\n")
	_, err = repos.Teams.LoadTeams(ctx)
	assert.ErrorContains(t, err, "line 2")
}

func TestLoadGamesSkipsMalformedRows(t *testing.T) {
	repos, cfg := newTestRepos(t)

	writeFile(t, cfg.Path(cfg.GamesFile), "event_id,game_date,season,home_canonical_id,away_canonical_id,home_team_name,away_team_name,home_score,away_score\n"+
		"401,2026-02-14,2026,BSB_A,BSB_B,A,B,5,3\n"+
		"402,2026-02-15T18:00:00Z,,BSB_B,BSB_A,B,A,,\n"+
		"403,not-a-date,2026,BSB_A,BSB_B,A,B,1,0\n"+
		"404,2026-02-16,2026,BSB_A,BSB_B,A,B,x,0\n")

	games, err := repos.Games.LoadGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "401", games[0].EventID)
	require.NotNil(t, games[0].HomeScore)
	assert.Equal(t, 5, *games[0].HomeScore)
	assert.True(t, games[0].IsObservation())

	assert.Equal(t, 2026, games[1].Season, "season derived from date")
	assert.Equal(t, 15, games[1].GameDate.Day())
	assert.False(t, games[1].IsObservation())
}

func TestLoadSlate(t *testing.T) {
	repos, cfg := newTestRepos(t)

	writeFile(t, cfg.DatedPath(cfg.SlateFile, testDay), "event_id,status,commence_time,home_team_name,away_team_name,home_team_espn_id,away_team_espn_id,neutral_site\n"+
		"401,STATUS_SCHEDULED,2026-03-06T23:00Z,Kansas St.,Abilene Christian,101,202,0\n"+
		"402,,,Texas A&M,Nebraska,,,true\n")

	slate, err := repos.Games.LoadSlate(context.Background(), testDay)
	require.NoError(t, err)
	require.Len(t, slate, 2)

	assert.Equal(t, testDay, slate[0].GameDate)
	assert.Equal(t, 2026, slate[0].Season)
	assert.Equal(t, "101", slate[0].HomeESPNID)
	assert.True(t, slate[0].NotStarted())
	assert.False(t, slate[0].NeutralSite)
	assert.True(t, slate[1].NeutralSite)
	assert.Equal(t, "Texas A&M", slate[1].HomeTeamName)

	_, err = repos.Games.LoadSlate(context.Background(), testDay.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLoadAppearances(t *testing.T) {
	repos, cfg := newTestRepos(t)

	writeFile(t, cfg.Path(cfg.PitchingFile), "event_id,game_date,season,canonical_id,team_name,pitcher_espn_id,pitcher_name,starter,IP,ER,R,PC\n"+
		"401,2026-02-14,2026,BSB_A,A,p1,Ace One,True,6.0,2,3,95\n"+
		"401,2026-02-14,2026,BSB_A,A,p2,Reliever Two,False,1.1,0,0,\n"+
		"402,2026-02-15,2026,BSB_A,A,p3,Bad Row,False,abc,0,0,10\n")

	apps, err := repos.Appearances.LoadAppearances(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)

	assert.Equal(t, "p1", apps[0].PitcherID)
	assert.Equal(t, models.RoleStarter, apps[0].Role())
	assert.InDelta(t, 6.0, apps[0].InningsPitched, 1e-9)
	assert.InDelta(t, 95.0, apps[0].PitchesThrown, 1e-9)
	assert.Equal(t, models.RoleReliever, apps[1].Role())
	assert.InDelta(t, 1.1, apps[1].InningsPitched, 1e-9)
	assert.Zero(t, apps[1].PitchesThrown)
}

func TestManualStartersTemplateAndLoad(t *testing.T) {
	repos, cfg := newTestRepos(t)
	ctx := context.Background()

	rows, err := repos.ManualStarters.Load(ctx, testDay)
	require.NoError(t, err)
	assert.Empty(t, rows, "missing file means no overrides")

	template := []models.ManualStarter{
		{GameDate: "2026-03-06", EventID: "401", HomeTeam: "Kansas St.", AwayTeam: "Abilene Christian"},
	}
	written, err := repos.ManualStarters.WriteTemplate(ctx, testDay, template, false)
	require.NoError(t, err)
	assert.True(t, written)

	rows, err = repos.ManualStarters.Load(ctx, testDay)
	require.NoError(t, err)
	assert.Empty(t, rows, "blank template rows are ignored")

	writeFile(t, cfg.DatedPath(cfg.ManualStartersFile, testDay), "game_date,event_id,home_team,away_team,home_pitcher_name,home_pitcher_espn_id,source_url\n"+
		"2026-03-06,401,Kansas St.,Abilene Christian,Jane Ace,77,https://example.test/preview\n")

	written, err = repos.ManualStarters.WriteTemplate(ctx, testDay, template, false)
	require.NoError(t, err)
	assert.False(t, written, "existing file is kept")

	rows, err = repos.ManualStarters.Load(ctx, testDay)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "77", rows[0].HomePitcherID)
	assert.Equal(t, "Jane Ace", rows[0].HomePitcherName)
	assert.Equal(t, "https://example.test/preview", rows[0].SourceURL)

	written, err = repos.ManualStarters.WriteTemplate(ctx, testDay, template, true)
	require.NoError(t, err)
	assert.True(t, written)
}

func TestLoadOdds(t *testing.T) {
	repos, cfg := newTestRepos(t)
	ctx := context.Background()

	odds, err := repos.Odds.LoadOdds(ctx, testDay)
	require.NoError(t, err)
	assert.Empty(t, odds)

	writeFile(t, cfg.DatedPath(cfg.OddsFile, testDay), `{"id":"e1","commence_time":"2026-03-06T23:00:00Z","home_team":"Kansas St Wildcats","away_team":"Abilene Christian Wildcats","bookmakers":[{"key":"dk","markets":[{"key":"spreads","outcomes":[]},{"key":"h2h","outcomes":[{"name":"Abilene Christian Wildcats","price":150},{"name":"Kansas St Wildcats","price":-180}]}]},{"key":"fd","markets":[{"key":"totals","outcomes":[]}]}]}

not json
{"id":"e2","home_team":"A","away_team":"B","bookmaker_lines":[{"bookmaker_key":"mgm","markets":[{"key":"h2h","outcomes":[{"name":"A","price":-110},{"name":"B","price":-110}]}]}],"consensus_fair_home":0.5,"consensus_fair_away":0.5}
{"id":"e3","home_team":"C","away_team":"D","consensus_fair_home":0.61}
`)

	odds, err = repos.Odds.LoadOdds(ctx, testDay)
	require.NoError(t, err)
	require.Len(t, odds, 3)

	assert.Equal(t, "e1", odds[0].EventID)
	assert.Equal(t, 2026, odds[0].CommenceTime.Year())
	require.Len(t, odds[0].Bookmakers, 1, "only books with an h2h market")
	assert.Equal(t, models.BookmakerLine{Key: "dk", Format: models.OddsAmerican, HomePrice: "-180", AwayPrice: "150"}, odds[0].Bookmakers[0])

	require.Len(t, odds[1].Bookmakers, 1)
	assert.Equal(t, "mgm", odds[1].Bookmakers[0].Key)
	require.NotNil(t, odds[1].FairHome)

	assert.Empty(t, odds[2].Bookmakers)
	assert.True(t, odds[2].ValidFairHome())
}

func TestTeamRatingsRoundTrip(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Output.LoadTeamRatings(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	in := []models.TeamRating{
		{CanonicalID: "BSB_A", Elo: 1516.25, NGames: 3},
		{CanonicalID: "BSB_B", Elo: 1483.75, NGames: 3},
	}
	require.NoError(t, repos.Output.SaveTeamRatings(ctx, in))

	out, err := repos.Output.LoadTeamRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStartersRoundTrip(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	in := []models.GameStarters{{
		Game: models.ScheduledGame{
			Game: models.Game{
				EventID: "401", GameDate: testDay, Season: 2026,
				HomeCanonicalID: "BSB_A", AwayCanonicalID: "BSB_B",
				HomeTeamName: "A", AwayTeamName: "B", NeutralSite: true,
			},
			Status:     models.StatusScheduled,
			HomeESPNID: "1",
			AwayESPNID: "2",
		},
		Home: models.StarterPick{PitcherID: "p1", DisplayName: "Ace One", Source: models.SourceManual, Confidence: 0.98, Note: "manual starter id"},
		Away: models.StarterPick{Source: models.SourceUnknown, Note: "no source available"},
	}}
	require.NoError(t, repos.Output.SaveStarters(ctx, testDay, in))

	out, err := repos.Output.LoadStarters(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestProjectionsRoundTrip(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	market, edge := 0.55, 0.0312
	in := []models.Projection{
		{
			GameDate: "2026-03-06", EventID: "401", HomeCanonicalID: "BSB_A", AwayCanonicalID: "BSB_B",
			HomeStarter: "Ace One", HomeElo: 1512.5, AwayElo: 1490.25,
			SPComponent: 0.1, BPComponent: -0.02, Adjustment: 0.08,
			ModelHome: 0.5812, MarketHome: &market, Alpha: 0.48, PHome: 0.5662, PAway: 0.4338, Edge: &edge,
			Notes: []string{"away starter rated from league", "neutral_site"},
		},
		{GameDate: "2026-03-06", EventID: "402", HomeCanonicalID: "BSB_C", AwayCanonicalID: "BSB_D", Err: "unresolved team identity"},
	}
	require.NoError(t, repos.Output.SaveProjections(ctx, testDay, in))

	out, err := repos.Output.LoadProjections(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = repos.Output.LoadProjections(ctx, testDay.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSaveOutputsWritesFiles(t *testing.T) {
	repos, cfg := newTestRepos(t)
	ctx := context.Background()

	market, edge := 0.55, 0.03
	require.NoError(t, repos.Output.SaveTeams(ctx, []models.Team{{AcademicYear: 2026, CanonicalID: "BSB_A", TeamName: "A", AltNames: []string{"x", "y"}}}))
	require.NoError(t, repos.Output.SavePitcherRatings(ctx, []models.PitcherRating{{
		PitcherKey: models.PitcherKey{PitcherID: "p1", CanonicalID: "BSB_A", Season: 2026, Role: models.RoleStarter},
		RA9:        4.5,
	}}))
	require.NoError(t, repos.Output.SaveTeamStrength(ctx, []models.TeamPitchingStrength{{TeamSeasonKey: models.TeamSeasonKey{CanonicalID: "BSB_A", Season: 2026}}}))
	require.NoError(t, repos.Output.SaveWorkload(ctx, []models.BullpenWorkload{{WorkloadKey: models.WorkloadKey{CanonicalID: "BSB_A", Date: "2026-03-06"}, IPLast1D: 3.1}}))
	require.NoError(t, repos.Output.SaveProjections(ctx, testDay, []models.Projection{{
		GameDate: "2026-03-06", EventID: "401", PHome: 0.58, PAway: 0.42,
		MarketHome: &market, Edge: &edge, Notes: []string{"home_sp_fallback_team", "neutral_site"},
	}}))

	for _, name := range []string{TeamsFile, PitcherRatingsFile, TeamStrengthFile, WorkloadFile, "projections_2026-03-06.csv"} {
		assert.FileExists(t, cfg.OutputPath(name))
	}

	data, err := os.ReadFile(cfg.OutputPath("projections_2026-03-06.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "0.5500")
	assert.Contains(t, string(data), "home_sp_fallback_team | neutral_site")

	data, err = os.ReadFile(cfg.OutputPath(TeamsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "x|y")
}

func TestCanceledContext(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repos.Games.LoadGames(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
