package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/diamond-forecast/internal/config"
	"github.com/yourusername/diamond-forecast/internal/models"
)

// BacktestConfig holds the scoring window and the flat-stake betting rule
type BacktestConfig struct {
	StartDate          time.Time
	EndDate            time.Time
	MinEdge            float64
	Stake              float64
	CalibrationBuckets int
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("backtest config is required")
	}
	start, err := time.Parse(models.DateLayout, cfg.StartDate)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(models.DateLayout, cfg.EndDate)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("invalid end date: %w", err)
	}

	bt := BacktestConfig{
		StartDate:          start,
		EndDate:            end,
		MinEdge:            cfg.MinEdge,
		Stake:              cfg.Stake,
		CalibrationBuckets: cfg.CalibrationBuckets,
	}

	return bt.withDefaults(), bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if b.StartDate.After(b.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}
	if b.MinEdge < 0 || b.MinEdge >= 1 {
		return fmt.Errorf("min edge must be in [0, 1)")
	}
	if b.Stake < 0 {
		return fmt.Errorf("stake must not be negative")
	}
	return nil
}

// Days lists every calendar day of the window, inclusive.
func (b BacktestConfig) Days() []time.Time {
	var days []time.Time
	for d := b.StartDate; !d.After(b.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (b BacktestConfig) withDefaults() BacktestConfig {
	if b.Stake == 0 {
		b.Stake = 1
	}
	if b.CalibrationBuckets <= 0 {
		b.CalibrationBuckets = 10
	}
	return b
}
