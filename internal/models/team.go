package models

// Team is one row of the canonical registry for an academic year.
type Team struct {
	AcademicYear int      `json:"academic_year" validate:"required,gt=0"`
	CanonicalID  string   `json:"canonical_id" validate:"required"`
	NCAATeamsID  int      `json:"ncaa_teams_id" validate:"gte=0"`
	TeamName     string   `json:"team_name" validate:"required"`
	Conference   string   `json:"conference"`
	ConferenceID string   `json:"conference_id"`
	OddsAPIName  string   `json:"odds_api_name"`
	AltNames     []string `json:"alt_names"`
}

// Aliases returns the non-empty source aliases carried on the registry row.
func (t *Team) Aliases() []string {
	out := make([]string, 0, len(t.AltNames)+1)
	if t.OddsAPIName != "" {
		out = append(out, t.OddsAPIName)
	}
	for _, a := range t.AltNames {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// CrosswalkEntry is a human-curated source name to canonical id mapping.
type CrosswalkEntry struct {
	Source      string `json:"source"`
	SourceName  string `json:"source_name" validate:"required"`
	CanonicalID string `json:"canonical_id"`
	NCAATeamsID int    `json:"ncaa_teams_id"`
	Notes       string `json:"notes"`
}
