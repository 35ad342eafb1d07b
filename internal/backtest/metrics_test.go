package backtest

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/diamond-forecast/internal/config"
	"github.com/yourusername/diamond-forecast/internal/models"
)

func score(h, a int) (*int, *int) { return &h, &a }

func game(event, date, home, away string, hs, as int) models.Game {
	d, _ := time.Parse(models.DateLayout, date)
	g := models.Game{EventID: event, GameDate: d, HomeCanonicalID: home, AwayCanonicalID: away}
	g.HomeScore, g.AwayScore = score(hs, as)
	return g
}

func TestJoin(t *testing.T) {
	games := []models.Game{
		game("401", "2026-03-06", "BSB_A", "BSB_B", 5, 3),
		game("", "2026-03-06", "BSB_C", "BSB_D", 2, 4),
		game("403", "2026-03-06", "BSB_E", "BSB_F", 3, 3),
		{EventID: "404", HomeCanonicalID: "BSB_G", AwayCanonicalID: "BSB_H"},
	}
	projections := []models.Projection{
		{EventID: "401", PHome: 0.6},
		{GameDate: "2026-03-06", HomeCanonicalID: "BSB_C", AwayCanonicalID: "BSB_D", PHome: 0.4},
		{EventID: "403", PHome: 0.5},
		{EventID: "404", PHome: 0.5},
		{EventID: "405", PHome: 0.5},
		{EventID: "406", Err: "unresolved team identity"},
	}

	outcomes, summary := Join(projections, games)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].HomeWon || outcomes[1].HomeWon {
		t.Fatalf("unexpected results: %+v", outcomes)
	}
	want := JoinSummary{Failed: 1, Unplayed: 1, Ties: 1, Unmatched: 1}
	if summary != want {
		t.Fatalf("expected %+v, got %+v", want, summary)
	}
}

func TestCalculateMetrics(t *testing.T) {
	market, edge := 0.5, 0.1
	outcomes := []Outcome{
		{Projection: models.Projection{PHome: 0.8, ModelHome: 0.9, MarketHome: &market, Edge: &edge}, HomeWon: true},
		{Projection: models.Projection{PHome: 0.3, ModelHome: 0.2}, HomeWon: false},
	}
	cfg := BacktestConfig{MinEdge: 0.05, Stake: 1, CalibrationBuckets: 10}

	m := CalculateMetrics(outcomes, JoinSummary{Failed: 1}, cfg)
	if m.Scored != 2 || m.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if math.Abs(m.Brier-(0.04+0.09)/2) > 1e-9 {
		t.Fatalf("expected brier 0.065, got %f", m.Brier)
	}
	if math.Abs(m.ModelBrier-(0.01+0.04)/2) > 1e-9 {
		t.Fatalf("expected model brier 0.025, got %f", m.ModelBrier)
	}
	wantLogLoss := -(math.Log(0.8) + math.Log(0.7)) / 2
	if math.Abs(m.LogLoss-wantLogLoss) > 1e-9 {
		t.Fatalf("expected log loss %f, got %f", wantLogLoss, m.LogLoss)
	}
	if m.Accuracy != 1 {
		t.Fatalf("expected accuracy 1, got %f", m.Accuracy)
	}
	if m.MarketScored != 1 || m.MarketBrier == nil || math.Abs(*m.MarketBrier-0.25) > 1e-9 {
		t.Fatalf("unexpected market brier: %+v", m.MarketBrier)
	}
	if m.TotalBets != 1 || m.WinningBets != 1 || math.Abs(m.NetProfit-1) > 1e-9 {
		t.Fatalf("expected one winning even-money bet, got %+v", m)
	}
	if len(m.Calibration) != 10 || m.Calibration[8].Count != 1 || m.Calibration[3].Count != 1 {
		t.Fatalf("unexpected calibration: %+v", m.Calibration)
	}
}

func TestCalculateMetricsEmpty(t *testing.T) {
	m := CalculateMetrics(nil, JoinSummary{Unmatched: 3}, BacktestConfig{})
	if m.Scored != 0 || m.Unmatched != 3 || m.Brier != 0 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestSettleBetsAwaySide(t *testing.T) {
	market, edge := 0.6, -0.1
	outcomes := []Outcome{{Projection: models.Projection{MarketHome: &market, Edge: &edge}, HomeWon: false}}

	pnl := settleBets(outcomes, BacktestConfig{MinEdge: 0.05, Stake: 2})
	if len(pnl) != 1 {
		t.Fatalf("expected one bet, got %d", len(pnl))
	}
	if want := 2 * (1/0.4 - 1); math.Abs(pnl[0]-want) > 1e-9 {
		t.Fatalf("expected %f, got %f", want, pnl[0])
	}

	small := -0.01
	outcomes[0].Projection.Edge = &small
	if pnl := settleBets(outcomes, BacktestConfig{MinEdge: 0.05, Stake: 2}); len(pnl) != 0 {
		t.Fatalf("expected no bet below the edge threshold")
	}
}

func TestMaxDrawdown(t *testing.T) {
	dd := calculateMaxDrawdown([]float64{1, 1, -1, -1, -1, 2})
	if dd != 3 {
		t.Fatalf("expected drawdown 3, got %f", dd)
	}
	if pf := calculateProfitFactor([]float64{2, -1}); pf != 2 {
		t.Fatalf("expected profit factor 2, got %f", pf)
	}
}

func TestFromConfig(t *testing.T) {
	bt, err := FromConfig(&config.BacktestConfig{StartDate: "2026-03-01", EndDate: "2026-03-03"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(bt.Days()) != 3 {
		t.Fatalf("expected 3 days, got %d", len(bt.Days()))
	}
	if bt.Stake != 1 || bt.CalibrationBuckets != 10 {
		t.Fatalf("expected defaults, got %+v", bt)
	}

	if _, err := FromConfig(&config.BacktestConfig{StartDate: "2026-03-05", EndDate: "2026-03-01"}); err == nil {
		t.Fatalf("expected error for inverted window")
	}
	if _, err := FromConfig(&config.BacktestConfig{StartDate: "March 1"}); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestGenerateConsoleReport(t *testing.T) {
	mb := 0.24
	report := GenerateConsoleReport(Metrics{Scored: 10, Brier: 0.21, MarketBrier: &mb, MarketScored: 8,
		Calibration: []CalibrationBucket{{Lo: 0.5, Hi: 0.6, Count: 4, MeanPredicted: 0.55, Observed: 0.5}}})
	for _, want := range []string{"Brier: 0.2100", "Market Brier: 0.2400 over 8 games", "0.50-0.60"} {
		if !strings.Contains(report, want) {
			t.Fatalf("expected report to contain %q:\n%s", want, report)
		}
	}
}
