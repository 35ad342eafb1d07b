package models

import "time"

// Role is the pitching role derived from the starter flag.
type Role string

const (
	RoleStarter  Role = "starter"
	RoleReliever Role = "reliever"
)

// Appearance is one pitcher's line in one game.
type Appearance struct {
	EventID        string    `json:"event_id"`
	GameDate       time.Time `json:"game_date"`
	Season         int       `json:"season"`
	CanonicalID    string    `json:"canonical_id"`
	TeamName       string    `json:"team_name"`
	PitcherID      string    `json:"pitcher_id"`
	PitcherName    string    `json:"pitcher_name"`
	Starter        bool      `json:"starter"`
	InningsPitched float64   `json:"ip"`
	EarnedRuns     float64   `json:"er"`
	RunsAllowed    float64   `json:"r"`
	PitchesThrown  float64   `json:"pc"`
}

// Role derives the role from the starter flag.
func (a *Appearance) Role() Role {
	if a.Starter {
		return RoleStarter
	}
	return RoleReliever
}

// PitcherKey identifies one pitcher rating row.
type PitcherKey struct {
	PitcherID   string
	CanonicalID string
	Season      int
	Role        Role
}

// TeamSeasonKey identifies a team within a season.
type TeamSeasonKey struct {
	CanonicalID string
	Season      int
}

// WorkloadKey identifies a team on a calendar date.
type WorkloadKey struct {
	CanonicalID string
	Date        string
}

// PitcherRating is the aggregate for one PitcherKey.
type PitcherRating struct {
	PitcherKey
	PitcherName             string  `json:"pitcher_name"`
	NGames                  int     `json:"n_games"`
	Appearances             int     `json:"appearances"`
	InningsPitched          float64 `json:"ip"`
	EarnedRuns              float64 `json:"er"`
	RawRA9                  float64 `json:"raw_ra9"`
	RA9                     float64 `json:"ra9"`
	AvgInningsPerAppearance float64 `json:"avg_ip_per_app"`
}

// TeamPitchingStrength is the starter/reliever split for one team season.
type TeamPitchingStrength struct {
	TeamSeasonKey
	StarterRA9     float64 `json:"sp_ra9"`
	RelieverRA9    float64 `json:"rp_ra9"`
	StarterIP      float64 `json:"sp_ip"`
	RelieverIP     float64 `json:"rp_ip"`
	ReliefIPShare  float64 `json:"relief_ip_share"`
	LeagueRA9      float64 `json:"league_ra9"`
	HasStarterRows bool    `json:"-"`
}

// BullpenWorkload is relief usage strictly before a date.
type BullpenWorkload struct {
	WorkloadKey
	IPLast1D float64 `json:"ip_last_1d"`
	IPLast3D float64 `json:"ip_last_3d"`
	PCLast1D float64 `json:"pc_last_1d"`
	PCLast3D float64 `json:"pc_last_3d"`
}
