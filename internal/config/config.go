// Package config provides configuration management for the diamond-forecast application.
package config

import (
	"path/filepath"
	"strings"
	"time"
)

// DatePlaceholder is replaced with the slate date in per-day file names.
const DatePlaceholder = "{date}"

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Data     DataConfig     `mapstructure:"data" validate:"required"`
	Names    NamesConfig    `mapstructure:"names"`
	Elo      EloConfig      `mapstructure:"elo" validate:"required"`
	Pitching PitchingConfig `mapstructure:"pitching" validate:"required"`
	Fusion   FusionConfig   `mapstructure:"fusion" validate:"required"`
	Starters StartersConfig `mapstructure:"starters" validate:"required"`
	Evidence EvidenceConfig `mapstructure:"evidence" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Backtest BacktestConfig `mapstructure:"backtest"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Workers     int    `mapstructure:"workers" validate:"required,gt=0,lte=64"`
}

// DataConfig locates the flat-file inputs and outputs. Relative file names
// resolve against Dir; per-day names may contain {date}.
type DataConfig struct {
	Dir                string `mapstructure:"dir" validate:"required"`
	OutputDir          string `mapstructure:"output_dir" validate:"required"`
	TeamsFile          string `mapstructure:"teams_file" validate:"required"`
	CrosswalkFile      string `mapstructure:"crosswalk_file"`
	GamesFile          string `mapstructure:"games_file" validate:"required"`
	PitchingFile       string `mapstructure:"pitching_file" validate:"required"`
	SlateFile          string `mapstructure:"slate_file" validate:"required"`
	ManualStartersFile string `mapstructure:"manual_starters_file" validate:"required"`
	OddsFile           string `mapstructure:"odds_file"`
	OddsFormat         string `mapstructure:"odds_format" validate:"required,oneof=american decimal"`
	// Season limits ratings to one season; 0 keeps every season.
	Season int `mapstructure:"season" validate:"gte=0"`
	// AsOf is the slate date; empty means today in the schedule time zone.
	AsOf string `mapstructure:"as_of" validate:"omitempty,datetime"`
}

// NamesConfig extends the built-in normalization tables.
type NamesConfig struct {
	ExtraMascots  []string            `mapstructure:"extra_mascots"`
	ExtraAcronyms map[string][]string `mapstructure:"extra_acronyms"`
}

// EloConfig holds the rating replay parameters.
type EloConfig struct {
	K             float64 `mapstructure:"k" validate:"required,gt=0"`
	Initial       float64 `mapstructure:"initial" validate:"required,gt=0"`
	HomeAdvantage float64 `mapstructure:"home_advantage" validate:"gte=0"`
	TiePolicy     string  `mapstructure:"tie_policy" validate:"required,tiepolicy"`
}

// PitchingConfig holds the pitcher model constants.
type PitchingConfig struct {
	ShrinkIP   float64 `mapstructure:"shrink_ip" validate:"gt=0"`
	LeagueRA9  float64 `mapstructure:"league_ra9" validate:"required,gt=0"`
	MinIP      float64 `mapstructure:"min_ip" validate:"gte=0"`
	ExpectedIP float64 `mapstructure:"expected_ip" validate:"required,gt=0"`
}

// FusionConfig holds the probability fusion constants.
type FusionConfig struct {
	HomeAdvantage float64 `mapstructure:"home_advantage" validate:"gte=0"`
	LeagueRA9     float64 `mapstructure:"league_ra9" validate:"required,gt=0"`
	Scale         float64 `mapstructure:"scale" validate:"gte=0"`
	FatiguePerIP  float64 `mapstructure:"fatigue_per_ip" validate:"gte=0"`
	AlphaMax      float64 `mapstructure:"alpha_max" validate:"gte=0,lte=1"`
	NFull         int     `mapstructure:"n_full" validate:"required,gt=0"`
	ClampLo       float64 `mapstructure:"clamp_lo" validate:"gt=0,lt=1"`
	ClampHi       float64 `mapstructure:"clamp_hi" validate:"gt=0,lt=1"`
}

// StartersConfig selects the evidence tiers and filters picks.
type StartersConfig struct {
	EnableManual    bool `mapstructure:"enable_manual"`
	EnableLineups   bool `mapstructure:"enable_lineups"`
	EnableBoxScores bool `mapstructure:"enable_box_scores"`
	EnableRotation  bool `mapstructure:"enable_rotation"`
	// MinConfidence drops picks below it when projecting.
	MinConfidence   float64 `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	SlateSource     string  `mapstructure:"slate_source" validate:"required,oneof=file espn"`
	IncludeFinal    bool    `mapstructure:"include_final"`
}

// EvidenceConfig configures the remote evidence clients.
type EvidenceConfig struct {
	ESPNBaseURL       string  `mapstructure:"espn_base_url" validate:"required,url"`
	LineupBaseURL     string  `mapstructure:"lineup_base_url" validate:"required,url"`
	UserAgent         string  `mapstructure:"user_agent"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit         float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CircuitBreakerMax int     `mapstructure:"circuit_breaker_max" validate:"gte=0"`
}

// MetricsConfig represents metrics export configuration
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TextfilePath string `mapstructure:"textfile_path"`
}

// ScheduleConfig configures the daily forecast job.
type ScheduleConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// BacktestConfig configures scoring of saved projections against results.
type BacktestConfig struct {
	StartDate          string  `mapstructure:"start_date" validate:"omitempty,datetime"`
	EndDate            string  `mapstructure:"end_date" validate:"omitempty,datetime"`
	MinEdge            float64 `mapstructure:"min_edge" validate:"gte=0,lt=1"`
	Stake              float64 `mapstructure:"stake" validate:"gte=0"`
	CalibrationBuckets int     `mapstructure:"calibration_buckets" validate:"gte=0,lte=50"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Path resolves name against Dir unless it is absolute.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// DatedPath resolves a per-day file name for day.
func (d DataConfig) DatedPath(name string, day time.Time) string {
	return d.Path(strings.ReplaceAll(name, DatePlaceholder, day.Format("2006-01-02")))
}

// OutputPath resolves an output file name against OutputDir.
func (d DataConfig) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.OutputDir, name)
}

// CacheTTL returns the evidence cache lifetime.
func (s StartersConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// Timeout returns the per-request evidence timeout.
func (e EvidenceConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// Location returns the schedule time zone, UTC when unset or unknown.
func (s ScheduleConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
