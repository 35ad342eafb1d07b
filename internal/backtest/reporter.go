package backtest

import (
	"fmt"
	"strings"
)

// GenerateConsoleReport formats metrics for terminal output
func GenerateConsoleReport(m Metrics) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	if !m.StartDate.IsZero() {
		builder.WriteString(fmt.Sprintf("Window: %s to %s (%d days)\n",
			m.StartDate.Format("2006-01-02"), m.EndDate.Format("2006-01-02"), m.Days))
	}
	builder.WriteString(fmt.Sprintf("Scored: %d (failed %d, unplayed %d, ties %d, unmatched %d)\n",
		m.Scored, m.Failed, m.Unplayed, m.Ties, m.Unmatched))
	builder.WriteString(fmt.Sprintf("Brier: %.4f (model only %.4f)\n", m.Brier, m.ModelBrier))
	if m.MarketBrier != nil {
		builder.WriteString(fmt.Sprintf("Market Brier: %.4f over %d games\n", *m.MarketBrier, m.MarketScored))
	}
	builder.WriteString(fmt.Sprintf("Log Loss: %.4f\n", m.LogLoss))
	builder.WriteString(fmt.Sprintf("Accuracy: %.2f%%\n", m.Accuracy*100))
	builder.WriteString(fmt.Sprintf("Bets: %d, Win Rate: %.2f%%, ROI: %.2f%%\n", m.TotalBets, m.WinRate*100, m.ROI*100))
	builder.WriteString(fmt.Sprintf("Net Profit: %.2f, Profit Factor: %.2f, Max Drawdown: %.2f\n", m.NetProfit, m.ProfitFactor, m.MaxDrawdown))

	if len(m.Calibration) > 0 {
		builder.WriteString("\nCalibration\n")
		for _, b := range m.Calibration {
			if b.Count == 0 {
				continue
			}
			builder.WriteString(fmt.Sprintf("  %.2f-%.2f  n=%-4d predicted %.3f  observed %.3f\n",
				b.Lo, b.Hi, b.Count, b.MeanPredicted, b.Observed))
		}
	}
	return builder.String()
}
