package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DIAMOND_FORECAST_ELO_K.
const EnvPrefix = "DIAMOND_FORECAST"

const defaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	SetDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// SetDefaults registers the model constants and file layout defaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "diamond-forecast")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.workers", 4)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.output_dir", "data/processed")
	v.SetDefault("data.teams_file", "registry/canonical_teams.csv")
	v.SetDefault("data.crosswalk_file", "registry/name_crosswalk.csv")
	v.SetDefault("data.games_file", "processed/games.csv")
	v.SetDefault("data.pitching_file", "processed/pitching_lines.csv")
	v.SetDefault("data.slate_file", "raw/slates/slate_{date}.csv")
	v.SetDefault("data.manual_starters_file", "raw/starters_manual/manual_starters_{date}.csv")
	v.SetDefault("data.odds_file", "raw/odds/odds_{date}.jsonl")
	v.SetDefault("data.odds_format", "american")
	v.SetDefault("data.season", 0)
	v.SetDefault("data.as_of", "")

	v.SetDefault("elo.k", 32.0)
	v.SetDefault("elo.initial", 1500.0)
	v.SetDefault("elo.home_advantage", 30.0)
	v.SetDefault("elo.tie_policy", "half")

	v.SetDefault("pitching.shrink_ip", 20.0)
	v.SetDefault("pitching.league_ra9", 5.5)
	v.SetDefault("pitching.min_ip", 0.1)
	v.SetDefault("pitching.expected_ip", 5.0)

	v.SetDefault("fusion.home_advantage", 30.0)
	v.SetDefault("fusion.league_ra9", 5.5)
	v.SetDefault("fusion.scale", 15.0)
	v.SetDefault("fusion.fatigue_per_ip", 0.08)
	v.SetDefault("fusion.alpha_max", 0.6)
	v.SetDefault("fusion.n_full", 25)
	v.SetDefault("fusion.clamp_lo", 0.01)
	v.SetDefault("fusion.clamp_hi", 0.99)

	v.SetDefault("starters.enable_manual", true)
	v.SetDefault("starters.enable_lineups", true)
	v.SetDefault("starters.enable_box_scores", true)
	v.SetDefault("starters.enable_rotation", true)
	v.SetDefault("starters.min_confidence", 0.0)
	v.SetDefault("starters.cache_ttl_seconds", 1800)
	v.SetDefault("starters.slate_source", "file")
	v.SetDefault("starters.include_final", false)

	v.SetDefault("evidence.espn_base_url", "https://site.api.espn.com/apis/site/v2/sports/baseball/college-baseball")
	v.SetDefault("evidence.lineup_base_url", "https://d1baseball.com")
	v.SetDefault("evidence.user_agent", "Mozilla/5.0 (X11; Linux x86_64)")
	v.SetDefault("evidence.timeout_seconds", 20)
	v.SetDefault("evidence.max_retries", 2)
	v.SetDefault("evidence.rate_limit", 4.0)
	v.SetDefault("evidence.circuit_breaker_max", 5)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.textfile_path", "data/processed/forecast.prom")

	v.SetDefault("backtest.min_edge", 0.03)
	v.SetDefault("backtest.stake", 1.0)
	v.SetDefault("backtest.calibration_buckets", 10)

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.cron", "0 14 * * *")
	v.SetDefault("schedule.timezone", "UTC")
}
