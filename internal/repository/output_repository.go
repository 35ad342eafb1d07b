package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// Output file names under the output directory.
const (
	TeamsFile          = "canonical_teams.csv"
	TeamRatingsFile    = "team_ratings.csv"
	PitcherRatingsFile = "pitcher_ratings.csv"
	TeamStrengthFile   = "team_pitcher_strength.csv"
	WorkloadFile       = "bullpen_workload.csv"
	startersPattern    = "starters_%s.csv"
	projectionsPattern = "projections_%s.csv"
)

const notesSep = " | "

var startersHeader = []string{
	"game_date", "event_id", "status", "commence_time",
	"home_team_name", "away_team_name", "home_canonical_id", "away_canonical_id",
	"home_team_espn_id", "away_team_espn_id", "neutral_site",
	"home_pitcher_id", "home_pitcher_name", "home_source", "home_confidence", "home_note",
	"away_pitcher_id", "away_pitcher_name", "away_source", "away_confidence", "away_note",
}

// FileOutputRepository writes forecast outputs as CSV files under one directory
type FileOutputRepository struct {
	dir string
}

// NewFileOutputRepository creates a new output repository
func NewFileOutputRepository(dir string) *FileOutputRepository {
	return &FileOutputRepository{dir: dir}
}

func (r *FileOutputRepository) path(name string) string {
	return filepath.Join(r.dir, name)
}

func (r *FileOutputRepository) dated(pattern string, day time.Time) string {
	return r.path(fmt.Sprintf(pattern, day.Format(models.DateLayout)))
}

// SaveTeams writes the assembled registry.
func (r *FileOutputRepository) SaveTeams(ctx context.Context, teams []models.Team) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	rows := make([][]string, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, []string{
			strconv.Itoa(t.AcademicYear), strconv.Itoa(t.NCAATeamsID), t.TeamName,
			t.Conference, t.ConferenceID, t.CanonicalID, t.OddsAPIName,
			strings.Join(t.AltNames, altNameSep),
		})
	}
	return writeCSV(r.path(TeamsFile), []string{
		"academic_year", "ncaa_teams_id", "team_name", "conference",
		"conference_id", "canonical_id", "odds_api_name", "alt_names",
	}, rows)
}

// SaveTeamRatings writes the fitted Elo table.
func (r *FileOutputRepository) SaveTeamRatings(ctx context.Context, ratings []models.TeamRating) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	rows := make([][]string, 0, len(ratings))
	for _, tr := range ratings {
		rows = append(rows, []string{tr.CanonicalID, formatFloat(tr.Elo, 4), strconv.Itoa(tr.NGames),
			strconv.Itoa(tr.Season), strconv.Itoa(tr.SeasonGames)})
	}
	return writeCSV(r.path(TeamRatingsFile), []string{"canonical_id", "elo", "n_games", "season", "season_games"}, rows)
}

// LoadTeamRatings reads a table written by SaveTeamRatings.
func (r *FileOutputRepository) LoadTeamRatings(ctx context.Context) ([]models.TeamRating, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	t, err := readCSV(r.path(TeamRatingsFile))
	if err != nil {
		return nil, err
	}
	if err := t.require("canonical_id", "elo"); err != nil {
		return nil, err
	}
	out := make([]models.TeamRating, 0, len(t.rows))
	for i, row := range t.rows {
		elo, err := parseFloat(t.get(row, "elo"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: elo: %w", t.path, i+2, err)
		}
		n, err := parseInt(t.get(row, "n_games"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: n_games: %w", t.path, i+2, err)
		}
		season, err := parseInt(t.get(row, "season"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: season: %w", t.path, i+2, err)
		}
		seasonGames, err := parseInt(t.get(row, "season_games"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: season_games: %w", t.path, i+2, err)
		}
		out = append(out, models.TeamRating{
			CanonicalID: t.get(row, "canonical_id"),
			Elo:         elo,
			NGames:      n,
			Season:      season,
			SeasonGames: seasonGames,
		})
	}
	return out, nil
}

// SavePitcherRatings writes the per-pitcher aggregates.
func (r *FileOutputRepository) SavePitcherRatings(ctx context.Context, ratings []models.PitcherRating) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	rows := make([][]string, 0, len(ratings))
	for _, p := range ratings {
		rows = append(rows, []string{
			p.PitcherID, p.PitcherName, p.CanonicalID, strconv.Itoa(p.Season), string(p.Role),
			strconv.Itoa(p.NGames), strconv.Itoa(p.Appearances),
			formatFloat(p.InningsPitched, 1), formatFloat(p.EarnedRuns, 1),
			formatFloat(p.RawRA9, 4), formatFloat(p.RA9, 4), formatFloat(p.AvgInningsPerAppearance, 4),
		})
	}
	return writeCSV(r.path(PitcherRatingsFile), []string{
		"pitcher_id", "pitcher_name", "canonical_id", "season", "role",
		"n_games", "appearances", "ip", "er", "raw_ra9", "ra9", "avg_ip_per_app",
	}, rows)
}

// SaveTeamStrength writes the starter/reliever split per team season.
func (r *FileOutputRepository) SaveTeamStrength(ctx context.Context, strengths []models.TeamPitchingStrength) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	rows := make([][]string, 0, len(strengths))
	for _, s := range strengths {
		rows = append(rows, []string{
			s.CanonicalID, strconv.Itoa(s.Season),
			formatFloat(s.StarterRA9, 4), formatFloat(s.RelieverRA9, 4),
			formatFloat(s.StarterIP, 1), formatFloat(s.RelieverIP, 1),
			formatFloat(s.ReliefIPShare, 4), formatFloat(s.LeagueRA9, 4),
		})
	}
	return writeCSV(r.path(TeamStrengthFile), []string{
		"canonical_id", "season", "sp_ra9", "rp_ra9", "sp_ip", "rp_ip", "relief_ip_share", "league_ra9",
	}, rows)
}

// SaveWorkload writes the relief workload table.
func (r *FileOutputRepository) SaveWorkload(ctx context.Context, workload []models.BullpenWorkload) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	rows := make([][]string, 0, len(workload))
	for _, w := range workload {
		rows = append(rows, []string{
			w.CanonicalID, w.Date,
			formatFloat(w.IPLast1D, 1), formatFloat(w.IPLast3D, 1),
			formatFloat(w.PCLast1D, 0), formatFloat(w.PCLast3D, 0),
		})
	}
	return writeCSV(r.path(WorkloadFile), []string{
		"canonical_id", "game_date", "ip_last_1d", "ip_last_3d", "pc_last_1d", "pc_last_3d",
	}, rows)
}

// SaveStarters writes the selected starters for day.
func (r *FileOutputRepository) SaveStarters(ctx context.Context, day time.Time, games []models.GameStarters) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	rows := make([][]string, 0, len(games))
	for _, gs := range games {
		g := gs.Game
		rows = append(rows, []string{
			formatDate(g.GameDate), g.EventID, g.Status, g.CommenceTime,
			g.HomeTeamName, g.AwayTeamName, g.HomeCanonicalID, g.AwayCanonicalID,
			g.HomeESPNID, g.AwayESPNID, formatBool(g.NeutralSite),
			gs.Home.PitcherID, gs.Home.DisplayName, gs.Home.Source, formatFloat(gs.Home.Confidence, 2), gs.Home.Note,
			gs.Away.PitcherID, gs.Away.DisplayName, gs.Away.Source, formatFloat(gs.Away.Confidence, 2), gs.Away.Note,
		})
	}
	return writeCSV(r.dated(startersPattern, day), startersHeader, rows)
}

// LoadStarters reads a table written by SaveStarters.
func (r *FileOutputRepository) LoadStarters(ctx context.Context, day time.Time) ([]models.GameStarters, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	t, err := readCSV(r.dated(startersPattern, day))
	if err != nil {
		return nil, err
	}
	if err := t.require("home_canonical_id", "away_canonical_id"); err != nil {
		return nil, err
	}

	out := make([]models.GameStarters, 0, len(t.rows))
	for i, row := range t.rows {
		g, err := gameFromRow(t, row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", t.path, i+2, err)
		}
		if g.GameDate.IsZero() {
			g.GameDate = day
		}
		home, err := pickFromRow(t, row, "home")
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", t.path, i+2, err)
		}
		away, err := pickFromRow(t, row, "away")
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", t.path, i+2, err)
		}
		out = append(out, models.GameStarters{
			Game: models.ScheduledGame{
				Game:         g,
				CommenceTime: t.get(row, "commence_time"),
				Status:       t.get(row, "status"),
				HomeESPNID:   t.get(row, "home_team_espn_id"),
				AwayESPNID:   t.get(row, "away_team_espn_id"),
			},
			Home: home,
			Away: away,
		})
	}
	return out, nil
}

func pickFromRow(t *csvTable, row []string, side string) (models.StarterPick, error) {
	conf, err := parseFloat(t.get(row, side+"_confidence"))
	if err != nil {
		return models.StarterPick{}, fmt.Errorf("%s_confidence: %w", side, err)
	}
	return models.StarterPick{
		PitcherID:   t.get(row, side+"_pitcher_id"),
		DisplayName: t.get(row, side+"_pitcher_name"),
		Source:      t.get(row, side+"_source"),
		Confidence:  conf,
		Note:        t.get(row, side+"_note"),
	}, nil
}

// LoadProjections reads the projections saved for day. Rows that carry an
// error keep it in Err with zero probabilities.
func (r *FileOutputRepository) LoadProjections(ctx context.Context, day time.Time) ([]models.Projection, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	t, err := readCSV(r.dated(projectionsPattern, day))
	if err != nil {
		return nil, err
	}
	if err := t.require("home_canonical_id", "away_canonical_id", "p_home"); err != nil {
		return nil, err
	}

	out := make([]models.Projection, 0, len(t.rows))
	for i, row := range t.rows {
		p, err := projectionFromRow(t, row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", t.path, i+2, err)
		}
		if p.GameDate == "" {
			p.GameDate = formatDate(day)
		}
		out = append(out, p)
	}
	return out, nil
}

func projectionFromRow(t *csvTable, row []string) (models.Projection, error) {
	p := models.Projection{
		GameDate:        t.get(row, "game_date"),
		EventID:         t.get(row, "event_id"),
		HomeCanonicalID: t.get(row, "home_canonical_id"),
		AwayCanonicalID: t.get(row, "away_canonical_id"),
		HomeStarter:     t.get(row, "home_sp"),
		AwayStarter:     t.get(row, "away_sp"),
		Err:             t.get(row, "error"),
	}
	if notes := t.get(row, "notes"); notes != "" {
		p.Notes = strings.Split(notes, notesSep)
	}

	floats := []struct {
		col string
		dst *float64
	}{
		{"home_elo", &p.HomeElo},
		{"away_elo", &p.AwayElo},
		{"sp_component", &p.SPComponent},
		{"bp_component", &p.BPComponent},
		{"adjustment", &p.Adjustment},
		{"p_model_home", &p.ModelHome},
		{"alpha", &p.Alpha},
		{"p_home", &p.PHome},
		{"p_away", &p.PAway},
	}
	for _, f := range floats {
		v, err := parseFloat(t.get(row, f.col))
		if err != nil {
			return p, fmt.Errorf("invalid %s: %w", f.col, err)
		}
		*f.dst = v
	}

	var err error
	if p.MarketHome, err = parseOptionalFloat(t.get(row, "p_market_home")); err != nil {
		return p, fmt.Errorf("invalid p_market_home: %w", err)
	}
	if p.Edge, err = parseOptionalFloat(t.get(row, "edge_home")); err != nil {
		return p, fmt.Errorf("invalid edge_home: %w", err)
	}
	return p, nil
}

// SaveProjections writes the fused probabilities for day.
func (r *FileOutputRepository) SaveProjections(ctx context.Context, day time.Time, projections []models.Projection) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	rows := make([][]string, 0, len(projections))
	for _, p := range projections {
		rows = append(rows, []string{
			p.GameDate, p.EventID, p.HomeCanonicalID, p.AwayCanonicalID,
			p.HomeStarter, p.AwayStarter,
			formatFloat(p.HomeElo, 2), formatFloat(p.AwayElo, 2),
			formatFloat(p.SPComponent, 4), formatFloat(p.BPComponent, 4), formatFloat(p.Adjustment, 4),
			formatFloat(p.ModelHome, 4), formatOptionalFloat(p.MarketHome, 4), formatFloat(p.Alpha, 4),
			formatFloat(p.PHome, 4), formatFloat(p.PAway, 4), formatOptionalFloat(p.Edge, 4),
			strings.Join(p.Notes, notesSep), p.Err,
		})
	}
	return writeCSV(r.dated(projectionsPattern, day), []string{
		"game_date", "event_id", "home_canonical_id", "away_canonical_id", "home_sp", "away_sp",
		"home_elo", "away_elo", "sp_component", "bp_component", "adjustment",
		"p_model_home", "p_market_home", "alpha", "p_home", "p_away", "edge_home",
		"notes", "error",
	}, rows)
}
