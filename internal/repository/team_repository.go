package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// altNameSep separates alternate names in the alt_names column.
const altNameSep = "|"

// FileTeamRepository reads the canonical team list and the crosswalk
type FileTeamRepository struct {
	teamsPath     string
	crosswalkPath string
}

// NewFileTeamRepository creates a new team repository
func NewFileTeamRepository(teamsPath, crosswalkPath string) *FileTeamRepository {
	return &FileTeamRepository{teamsPath: teamsPath, crosswalkPath: crosswalkPath}
}

// LoadTeams reads every registry row. A malformed row fails the load because
// the registry must be complete before anything downstream runs.
func (r *FileTeamRepository) LoadTeams(ctx context.Context) ([]models.Team, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	t, err := readCSV(r.teamsPath)
	if err != nil {
		return nil, err
	}
	if err := t.require("academic_year", "canonical_id", "team_name"); err != nil {
		return nil, err
	}

	teams := make([]models.Team, 0, len(t.rows))
	for i, row := range t.rows {
		year, err := parseInt(t.get(row, "academic_year"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: academic_year: %w", r.teamsPath, i+2, err)
		}
		ncaaID, err := parseInt(t.get(row, "ncaa_teams_id"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: ncaa_teams_id: %w", r.teamsPath, i+2, err)
		}
		teams = append(teams, models.Team{
			AcademicYear: year,
			CanonicalID:  t.get(row, "canonical_id"),
			NCAATeamsID:  ncaaID,
			TeamName:     t.get(row, "team_name"),
			Conference:   t.get(row, "conference"),
			ConferenceID: t.get(row, "conference_id"),
			OddsAPIName:  t.get(row, "odds_api_name"),
			AltNames:     splitAltNames(t.get(row, "alt_names")),
		})
	}
	return teams, nil
}

// LoadCrosswalk reads the crosswalk; a missing file is an empty crosswalk.
func (r *FileTeamRepository) LoadCrosswalk(ctx context.Context) ([]models.CrosswalkEntry, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	t, err := readCSV(r.crosswalkPath)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := t.require("source_name"); err != nil {
		return nil, err
	}

	entries := make([]models.CrosswalkEntry, 0, len(t.rows))
	for i, row := range t.rows {
		ncaaID, err := parseInt(t.get(row, "ncaa_teams_id"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: ncaa_teams_id: %w", r.crosswalkPath, i+2, err)
		}
		entries = append(entries, models.CrosswalkEntry{
			Source:      t.get(row, "source"),
			SourceName:  t.get(row, "source_name"),
			CanonicalID: t.get(row, "canonical_id"),
			NCAATeamsID: ncaaID,
			Notes:       t.get(row, "notes"),
		})
	}
	return entries, nil
}

func splitAltNames(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, altNameSep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
