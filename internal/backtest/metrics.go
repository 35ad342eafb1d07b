package backtest

import (
	"encoding/json"
	"math"
	"time"
)

// probabilities are clamped this far from 0 and 1 before taking logs
const logLossEpsilon = 1e-6

// Metrics represents how well saved projections forecast final results
type Metrics struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      int       `json:"days"`

	Scored    int `json:"scored"`
	Failed    int `json:"failed"`
	Unplayed  int `json:"unplayed"`
	Ties      int `json:"ties"`
	Unmatched int `json:"unmatched"`

	Brier      float64 `json:"brier"`
	ModelBrier float64 `json:"model_brier"`
	LogLoss    float64 `json:"log_loss"`
	Accuracy   float64 `json:"accuracy"`

	MarketScored int      `json:"market_scored"`
	MarketBrier  *float64 `json:"market_brier,omitempty"`

	Calibration []CalibrationBucket `json:"calibration"`

	TotalBets    int     `json:"total_bets"`
	WinningBets  int     `json:"winning_bets"`
	LosingBets   int     `json:"losing_bets"`
	WinRate      float64 `json:"win_rate"`
	NetProfit    float64 `json:"net_profit"`
	ROI          float64 `json:"roi"`
	ProfitFactor float64 `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"`
}

// CalibrationBucket groups projections by predicted home probability.
type CalibrationBucket struct {
	Lo            float64 `json:"lo"`
	Hi            float64 `json:"hi"`
	Count         int     `json:"count"`
	MeanPredicted float64 `json:"mean_predicted"`
	Observed      float64 `json:"observed"`
}

// CalculateMetrics scores outcomes in order. Bets are flat stakes on the
// side whose edge reaches MinEdge, settled at the fair market price.
func CalculateMetrics(outcomes []Outcome, summary JoinSummary, cfg BacktestConfig) Metrics {
	cfg = cfg.withDefaults()
	metrics := Metrics{
		StartDate: cfg.StartDate,
		EndDate:   cfg.EndDate,
		Scored:    len(outcomes),
		Failed:    summary.Failed,
		Unplayed:  summary.Unplayed,
		Ties:      summary.Ties,
		Unmatched: summary.Unmatched,
	}
	if !cfg.StartDate.IsZero() && !cfg.EndDate.IsZero() {
		metrics.Days = int(cfg.EndDate.Sub(cfg.StartDate).Hours()/24) + 1
	}
	if len(outcomes) == 0 {
		return metrics
	}

	brier, modelBrier, logLoss, marketBrier := 0.0, 0.0, 0.0, 0.0
	correct := 0
	for _, o := range outcomes {
		y := outcomeValue(o.HomeWon)
		p := o.Projection.PHome
		brier += (p - y) * (p - y)
		modelBrier += (o.Projection.ModelHome - y) * (o.Projection.ModelHome - y)
		logLoss += crossEntropy(p, y)
		if (p >= 0.5) == o.HomeWon {
			correct++
		}
		if m := o.Projection.MarketHome; m != nil {
			marketBrier += (*m - y) * (*m - y)
			metrics.MarketScored++
		}
	}
	n := float64(len(outcomes))
	metrics.Brier = brier / n
	metrics.ModelBrier = modelBrier / n
	metrics.LogLoss = logLoss / n
	metrics.Accuracy = float64(correct) / n
	if metrics.MarketScored > 0 {
		mb := marketBrier / float64(metrics.MarketScored)
		metrics.MarketBrier = &mb
	}

	metrics.Calibration = calculateCalibration(outcomes, cfg.CalibrationBuckets)

	pnl := settleBets(outcomes, cfg)
	metrics.TotalBets = len(pnl)
	metrics.WinningBets, metrics.LosingBets = countResults(pnl)
	metrics.WinRate = calculateWinRate(metrics.WinningBets, metrics.TotalBets)
	metrics.NetProfit = sum(pnl)
	if metrics.TotalBets > 0 {
		metrics.ROI = metrics.NetProfit / (cfg.Stake * float64(metrics.TotalBets))
	}
	metrics.ProfitFactor = calculateProfitFactor(pnl)
	metrics.MaxDrawdown = calculateMaxDrawdown(pnl)

	return metrics
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func outcomeValue(homeWon bool) float64 {
	if homeWon {
		return 1
	}
	return 0
}

func crossEntropy(p, y float64) float64 {
	p = math.Min(1-logLossEpsilon, math.Max(logLossEpsilon, p))
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

func calculateCalibration(outcomes []Outcome, buckets int) []CalibrationBucket {
	width := 1.0 / float64(buckets)
	out := make([]CalibrationBucket, buckets)
	predicted := make([]float64, buckets)
	wins := make([]float64, buckets)
	for i := range out {
		out[i].Lo = float64(i) * width
		out[i].Hi = float64(i+1) * width
	}
	for _, o := range outcomes {
		i := int(o.Projection.PHome * float64(buckets))
		if i >= buckets {
			i = buckets - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
		predicted[i] += o.Projection.PHome
		wins[i] += outcomeValue(o.HomeWon)
	}
	for i := range out {
		if out[i].Count > 0 {
			out[i].MeanPredicted = predicted[i] / float64(out[i].Count)
			out[i].Observed = wins[i] / float64(out[i].Count)
		}
	}
	return out
}

// settleBets returns the profit or loss of each bet in outcome order.
func settleBets(outcomes []Outcome, cfg BacktestConfig) []float64 {
	var pnl []float64
	for _, o := range outcomes {
		p := o.Projection
		if p.Edge == nil || p.MarketHome == nil {
			continue
		}
		edge, market := *p.Edge, *p.MarketHome
		var price float64
		var won bool
		switch {
		case edge >= cfg.MinEdge && edge > 0 && market > 0:
			price, won = 1/market, o.HomeWon
		case -edge >= cfg.MinEdge && edge < 0 && market < 1:
			price, won = 1/(1-market), !o.HomeWon
		default:
			continue
		}
		if won {
			pnl = append(pnl, cfg.Stake*(price-1))
		} else {
			pnl = append(pnl, -cfg.Stake)
		}
	}
	return pnl
}

func countResults(pnl []float64) (int, int) {
	wins, losses := 0, 0
	for _, v := range pnl {
		if v > 0 {
			wins++
		} else if v < 0 {
			losses++
		}
	}
	return wins, losses
}

func calculateWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func calculateProfitFactor(pnl []float64) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, v := range pnl {
		if v > 0 {
			grossProfit += v
		} else {
			grossLoss += math.Abs(v)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

// calculateMaxDrawdown is the largest fall of cumulative profit from its
// running peak, in stake units.
func calculateMaxDrawdown(pnl []float64) float64 {
	maxDD := 0.0
	peak := 0.0
	equity := 0.0
	for _, v := range pnl {
		equity += v
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
