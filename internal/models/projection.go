package models

// Projection is the fused win probability for one game.
type Projection struct {
	GameDate        string   `json:"game_date"`
	EventID         string   `json:"event_id"`
	HomeCanonicalID string   `json:"home_canonical_id"`
	AwayCanonicalID string   `json:"away_canonical_id"`
	HomeElo         float64  `json:"home_elo"`
	AwayElo         float64  `json:"away_elo"`
	SPComponent     float64  `json:"sp_component"`
	BPComponent     float64  `json:"bp_component"`
	Adjustment      float64  `json:"adjustment"`
	ModelHome       float64  `json:"p_model_home"`
	MarketHome      *float64 `json:"p_market_home"`
	Alpha           float64  `json:"alpha"`
	PHome           float64  `json:"p_home"`
	PAway           float64  `json:"p_away"`
	Edge            *float64 `json:"edge_home"`
	HomeStarter     string   `json:"home_sp"`
	AwayStarter     string   `json:"away_sp"`
	Notes           []string `json:"notes"`
	Err             string   `json:"error,omitempty"`
}
