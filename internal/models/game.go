package models

import "time"

// DateLayout is the ISO-8601 calendar date layout used by every input table.
const DateLayout = "2006-01-02"

// Game is a historical or scheduled game with resolved identities.
type Game struct {
	EventID         string    `json:"event_id"`
	GameDate        time.Time `json:"game_date"`
	Season          int       `json:"season"`
	HomeCanonicalID string    `json:"home_canonical_id"`
	AwayCanonicalID string    `json:"away_canonical_id"`
	HomeTeamName    string    `json:"home_team_name"`
	AwayTeamName    string    `json:"away_team_name"`
	HomeScore       *int      `json:"home_score"`
	AwayScore       *int      `json:"away_score"`
	NeutralSite     bool      `json:"neutral_site"`
}

// Resolved reports whether both sides carry a canonical id.
func (g *Game) Resolved() bool {
	return g.HomeCanonicalID != "" && g.AwayCanonicalID != ""
}

// IsObservation reports whether the game has a final score on both sides.
func (g *Game) IsObservation() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// TeamRating is the Elo state of one team after a replay. SeasonGames
// counts the updates within Season, the latest season the team played in.
type TeamRating struct {
	CanonicalID string  `json:"canonical_id"`
	Elo         float64 `json:"elo"`
	NGames      int     `json:"n_games"`
	Season      int     `json:"season"`
	SeasonGames int     `json:"season_games"`
}

// Game statuses reported by the live game feed.
const (
	StatusScheduled = "STATUS_SCHEDULED"
	StatusCreated   = "STATUS_CREATED"
	StatusPostponed = "STATUS_POSTPONED"
	StatusCanceled  = "STATUS_CANCELED"
	StatusDelayed   = "STATUS_DELAYED"
	StatusFinal     = "STATUS_FINAL"
	StatusFullTime  = "STATUS_FULL_TIME"
)

// ScheduledGame is a slate entry: a game plus the live-feed identifiers
// needed to look up evidence for it.
type ScheduledGame struct {
	Game
	CommenceTime string `json:"commence_time"`
	Status       string `json:"status"`
	HomeESPNID   string `json:"home_team_espn_id"`
	AwayESPNID   string `json:"away_team_espn_id"`
}

// NotStarted reports whether the status means the first pitch has not been thrown.
func (g *ScheduledGame) NotStarted() bool {
	switch g.Status {
	case StatusScheduled, StatusCreated, StatusPostponed, StatusCanceled, StatusDelayed:
		return true
	}
	return false
}

// IsFinal reports whether the game is over.
func (g *ScheduledGame) IsFinal() bool {
	return g.Status == StatusFinal || g.Status == StatusFullTime
}
