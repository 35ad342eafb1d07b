package models

// Starter pick sources, in ladder order.
const (
	SourceManual            = "manual"
	SourceManualNameMatched = "manual_name_matched"
	SourceManualUnresolved  = "manual_unresolved_name"
	SourceLineup            = "d1_lineup_today"
	SourceBoxScore          = "espn_summary"
	SourceRotation          = "inferred_rotation"
	SourceUnknown           = "unknown"
)

// StarterPick is the probable starter for one side of one game.
type StarterPick struct {
	PitcherID   string  `json:"pitcher_id"`
	DisplayName string  `json:"display_name"`
	Source      string  `json:"source"`
	Confidence  float64 `json:"confidence"`
	Note        string  `json:"note"`
}

// HasID reports whether the pick names a concrete pitcher id.
func (p *StarterPick) HasID() bool {
	return p != nil && p.PitcherID != ""
}

// HasName reports whether the pick carries a display name.
func (p *StarterPick) HasName() bool {
	return p != nil && p.DisplayName != ""
}

// ManualStarter is one operator-entered override row.
type ManualStarter struct {
	GameDate        string `json:"game_date"`
	EventID         string `json:"event_id"`
	HomeTeam        string `json:"home_team"`
	AwayTeam        string `json:"away_team"`
	HomeCanonicalID string `json:"home_canonical_id"`
	AwayCanonicalID string `json:"away_canonical_id"`
	HomePitcherName string `json:"home_pitcher_name"`
	AwayPitcherName string `json:"away_pitcher_name"`
	HomePitcherID   string `json:"home_pitcher_id"`
	AwayPitcherID   string `json:"away_pitcher_id"`
	Source          string `json:"source"`
	SourceURL       string `json:"source_url"`
	Notes           string `json:"notes"`
}

// GameStarters pairs the selected picks for a scheduled game.
type GameStarters struct {
	Game ScheduledGame `json:"game"`
	Home StarterPick   `json:"home"`
	Away StarterPick   `json:"away"`
}
