// Package odds converts bookmaker prices into devigged fair probabilities.
package odds

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/diamond-forecast/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ParsePrice parses a quoted price such as "-110", "+150" or "2.45".
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, "−", "-")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty price", models.ErrInvalidMarketInput)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q: %v", models.ErrInvalidMarketInput, raw, err)
	}
	return d, nil
}

// ImpliedProbability converts one price to its vigged implied probability.
// American: 100/(100+a) for a>0, |a|/(|a|+100) otherwise. Decimal: 1/d.
func ImpliedProbability(price decimal.Decimal, format models.OddsFormat) (float64, error) {
	switch format {
	case models.OddsDecimal:
		if price.LessThanOrEqual(one) {
			return 0, fmt.Errorf("%w: decimal price %s must exceed 1", models.ErrInvalidMarketInput, price)
		}
		p, _ := one.Div(price).Float64()
		return p, nil
	case models.OddsAmerican, "":
		if price.Abs().LessThan(hundred) {
			return 0, fmt.Errorf("%w: american price %s out of range", models.ErrInvalidMarketInput, price)
		}
		var p decimal.Decimal
		if price.IsPositive() {
			p = hundred.Div(hundred.Add(price))
		} else {
			a := price.Abs()
			p = a.Div(a.Add(hundred))
		}
		f, _ := p.Float64()
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unknown odds format %q", models.ErrInvalidMarketInput, format)
	}
}

// ImpliedFromString parses and converts a price in one step.
func ImpliedFromString(raw string, format models.OddsFormat) (float64, error) {
	price, err := ParsePrice(raw)
	if err != nil {
		return 0, err
	}
	return ImpliedProbability(price, format)
}
