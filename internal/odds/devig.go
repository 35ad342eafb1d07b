package odds

import (
	"fmt"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// DevigTwoWay normalizes two implied probabilities so they sum to one.
func DevigTwoWay(home, away float64) (float64, float64, error) {
	if home <= 0 || away <= 0 {
		return 0, 0, fmt.Errorf("%w: implied probabilities must be positive", models.ErrInvalidMarketInput)
	}
	total := home + away
	return home / total, away / total, nil
}

// DevigLine devigs one bookmaker's head-to-head quote.
func DevigLine(line models.BookmakerLine) (float64, float64, error) {
	h, err := ImpliedFromString(line.HomePrice, line.Format)
	if err != nil {
		return 0, 0, fmt.Errorf("book %s home: %w", line.Key, err)
	}
	a, err := ImpliedFromString(line.AwayPrice, line.Format)
	if err != nil {
		return 0, 0, fmt.Errorf("book %s away: %w", line.Key, err)
	}
	return DevigTwoWay(h, a)
}

// Consensus averages the devigged probabilities of every usable book and
// stores them on m. Books with malformed prices are skipped. When m already
// carries a valid fair probability and no books, it is left as is.
func Consensus(m *models.MarketOdds) error {
	if len(m.Bookmakers) == 0 {
		if m.ValidFairHome() {
			if m.FairAway == nil {
				away := 1 - *m.FairHome
				m.FairAway = &away
			}
			return nil
		}
		return fmt.Errorf("%w: event %s has no bookmaker lines", models.ErrInvalidMarketInput, m.EventID)
	}

	var sumHome, sumAway float64
	n := 0
	for _, line := range m.Bookmakers {
		h, a, err := DevigLine(line)
		if err != nil {
			continue
		}
		sumHome += h
		sumAway += a
		n++
	}
	if n == 0 {
		return fmt.Errorf("%w: event %s has no usable bookmaker lines", models.ErrInvalidMarketInput, m.EventID)
	}
	home, away := sumHome/float64(n), sumAway/float64(n)
	m.FairHome, m.FairAway, m.NBooks = &home, &away, n
	return nil
}
