// Package projection fuses team ratings, starting pitching, bullpen
// fatigue and the market into one win probability.
package projection

import (
	"fmt"
	"math"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// Defaults for the fusion constants.
const (
	DefaultHomeAdvantage = 30.0
	DefaultLeagueRA9     = 5.5
	DefaultScale         = 15.0
	DefaultFatiguePerIP  = 0.08
	DefaultAlphaMax      = 0.6
	DefaultNFull         = 25
	DefaultClampLo       = 0.01
	DefaultClampHi       = 0.99
)

// Fusion holds the constants of the probability model.
type Fusion struct {
	HomeAdvantage float64
	LeagueRA9     float64
	Scale         float64
	FatiguePerIP  float64
	AlphaMax      float64
	NFull         int
	ClampLo       float64
	ClampHi       float64
}

// NewFusion returns a Fusion with the default constants.
func NewFusion() *Fusion {
	return &Fusion{
		HomeAdvantage: DefaultHomeAdvantage,
		LeagueRA9:     DefaultLeagueRA9,
		Scale:         DefaultScale,
		FatiguePerIP:  DefaultFatiguePerIP,
		AlphaMax:      DefaultAlphaMax,
		NFull:         DefaultNFull,
		ClampLo:       DefaultClampLo,
		ClampHi:       DefaultClampHi,
	}
}

// SideInputs is what the model knows about one team for one game.
type SideInputs struct {
	Elo        float64
	StarterRA9 float64
	ExpectedIP float64
	// ReliefIPLast1D is bullpen innings thrown the day before the game.
	ReliefIPLast1D float64
}

// Context carries the per-game inputs to Project.
type Context struct {
	Home SideInputs
	Away SideInputs
	// MarketHome is the devigged market probability for the home side.
	MarketHome *float64
	// HomeGames is the home team's observed game count this season.
	HomeGames   int
	NeutralSite bool
}

// Result is the decomposed output of Project.
type Result struct {
	SPComponent float64
	BPComponent float64
	Adjustment  float64
	ModelHome   float64
	Alpha       float64
	PHome       float64
	PAway       float64
	Blended     bool
	Notes       []string
}

// StarterComponent is the rating-point value of the starting matchup.
// Each side earns (league - ra9) runs per nine over its expected innings.
func (f *Fusion) StarterComponent(home, away SideInputs) float64 {
	h := (f.LeagueRA9 - home.StarterRA9) * (home.ExpectedIP / 9)
	a := (f.LeagueRA9 - away.StarterRA9) * (away.ExpectedIP / 9)
	return (h - a) * f.Scale
}

// BullpenComponent is positive when the away bullpen worked more yesterday
// than the home bullpen: a tired opposing bullpen helps the home side.
func (f *Fusion) BullpenComponent(home, away SideInputs) float64 {
	return (away.ReliefIPLast1D - home.ReliefIPLast1D) * f.FatiguePerIP * f.Scale
}

// WinProbability is the logistic Elo expectation for the home side with a
// home advantage and an additive adjustment in rating points.
func WinProbability(homeElo, awayElo, homeAdv, adjustment float64) float64 {
	effective := homeElo + homeAdv + adjustment
	return 1.0 / (1.0 + math.Pow(10, (awayElo-effective)/400.0))
}

// Alpha is the market weight for a team with n observed games.
func (f *Fusion) Alpha(n int) float64 {
	if n < 0 {
		n = 0
	}
	if n > f.NFull {
		n = f.NFull
	}
	return f.AlphaMax * (1 - float64(n)/float64(f.NFull))
}

// Blend moves model toward market by Alpha(n) and clamps the result. It
// returns the probability and the weight used. A missing market or one
// outside (0,1) returns model unchanged, zero weight, and an error wrapping
// models.ErrInvalidMarketInput.
func (f *Fusion) Blend(model float64, market *float64, n int) (float64, float64, error) {
	if market == nil {
		return model, 0, fmt.Errorf("%w: no market probability", models.ErrInvalidMarketInput)
	}
	if *market <= 0 || *market >= 1 || math.IsNaN(*market) {
		return model, 0, fmt.Errorf("%w: market probability %v outside (0,1)", models.ErrInvalidMarketInput, *market)
	}
	alpha := f.Alpha(n)
	p := (1-alpha)*model + alpha*(*market)
	return clamp(p, f.ClampLo, f.ClampHi), alpha, nil
}

// Project runs the three fusion steps for one game.
func (f *Fusion) Project(ctx Context) Result {
	var res Result
	res.SPComponent = f.StarterComponent(ctx.Home, ctx.Away)
	res.BPComponent = f.BullpenComponent(ctx.Home, ctx.Away)
	res.Adjustment = res.SPComponent + res.BPComponent

	homeAdv := f.HomeAdvantage
	if ctx.NeutralSite {
		homeAdv = 0
		res.Notes = append(res.Notes, "neutral site")
	}
	res.ModelHome = WinProbability(ctx.Home.Elo, ctx.Away.Elo, homeAdv, res.Adjustment)

	p, alpha, err := f.Blend(res.ModelHome, ctx.MarketHome, ctx.HomeGames)
	if err != nil {
		res.Notes = append(res.Notes, "market blend skipped: "+err.Error())
	} else {
		res.Blended = true
		res.Notes = append(res.Notes, fmt.Sprintf("market weight %.3f", alpha))
	}
	res.Alpha = alpha
	res.PHome = p
	res.PAway = 1 - p
	return res
}

// Edge is the model's home probability minus the market's, or nil when
// the market value is unusable.
func Edge(pHome float64, market *float64) *float64 {
	if market == nil || *market <= 0 || *market >= 1 {
		return nil
	}
	e := pHome - *market
	return &e
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
