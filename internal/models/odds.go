package models

import "time"

// OddsFormat is the quoting convention of a bookmaker price.
type OddsFormat string

const (
	OddsAmerican OddsFormat = "american"
	OddsDecimal  OddsFormat = "decimal"
)

// BookmakerLine is one bookmaker's head-to-head quote.
type BookmakerLine struct {
	Key       string     `json:"key"`
	Format    OddsFormat `json:"format"`
	HomePrice string     `json:"home_price"`
	AwayPrice string     `json:"away_price"`
}

// MarketOdds is the market record for one game.
type MarketOdds struct {
	EventID      string          `json:"id"`
	CommenceTime time.Time       `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []BookmakerLine `json:"bookmakers"`
	FairHome     *float64        `json:"consensus_fair_home"`
	FairAway     *float64        `json:"consensus_fair_away"`
	NBooks       int             `json:"n_books"`
}

// ValidFairHome reports whether FairHome is a usable probability.
func (m *MarketOdds) ValidFairHome() bool {
	return m != nil && m.FairHome != nil && *m.FairHome > 0 && *m.FairHome < 1
}
