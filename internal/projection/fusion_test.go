package projection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/diamond-forecast/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestBlendScenario(t *testing.T) {
	f := NewFusion()

	p, alpha, err := f.Blend(0.55, ptr(0.70), 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, alpha, 1e-12)
	assert.InDelta(t, 0.64, p, 1e-12)
}

func TestBlendBoundaries(t *testing.T) {
	f := NewFusion()

	for _, model := range []float64{0.2, 0.5, 0.81} {
		p, _, err := f.Blend(model, ptr(0.9), 0)
		require.NoError(t, err)
		assert.InDelta(t, model+f.AlphaMax*(0.9-model), p, 1e-12)

		for _, n := range []int{25, 26, 140} {
			p, alpha, err := f.Blend(model, ptr(0.9), n)
			require.NoError(t, err)
			assert.Equal(t, 0.0, alpha)
			assert.InDelta(t, model, p, 1e-12)
		}
	}
}

func TestBlendInvalidMarket(t *testing.T) {
	f := NewFusion()

	for _, market := range []*float64{nil, ptr(0), ptr(1), ptr(1.2), ptr(-0.3)} {
		p, alpha, err := f.Blend(0.42, market, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrInvalidMarketInput))
		assert.Equal(t, 0.42, p)
		assert.Zero(t, alpha)
	}
}

func TestBlendClamps(t *testing.T) {
	f := NewFusion()

	p, _, err := f.Blend(0.999, ptr(0.995), 30)
	require.NoError(t, err)
	assert.Equal(t, DefaultClampHi, p)

	p, _, err = f.Blend(0.001, ptr(0.002), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultClampLo, p)
}

func TestAlphaDecay(t *testing.T) {
	f := NewFusion()
	assert.InDelta(t, 0.6, f.Alpha(0), 1e-12)
	assert.InDelta(t, 0.312, f.Alpha(12), 1e-12)
	assert.InDelta(t, 0.0, f.Alpha(25), 1e-12)
	assert.InDelta(t, 0.6, f.Alpha(-3), 1e-12)
}

func TestStarterComponent(t *testing.T) {
	f := NewFusion()

	even := SideInputs{StarterRA9: 5.5, ExpectedIP: 5}
	assert.Zero(t, f.StarterComponent(even, even))

	ace := SideInputs{StarterRA9: 2.5, ExpectedIP: 6}
	// (5.5-2.5)*(6/9)*15 = 30
	assert.InDelta(t, 30.0, f.StarterComponent(ace, even), 1e-9)
	assert.InDelta(t, -30.0, f.StarterComponent(even, ace), 1e-9)
}

func TestBullpenComponentSign(t *testing.T) {
	f := NewFusion()

	rested := SideInputs{ReliefIPLast1D: 0}
	tired := SideInputs{ReliefIPLast1D: 5}

	// away bullpen tired: home edge goes up
	assert.InDelta(t, 5*0.08*15, f.BullpenComponent(rested, tired), 1e-9)
	// home bullpen tired: home edge goes down
	assert.InDelta(t, -5*0.08*15, f.BullpenComponent(tired, rested), 1e-9)
}

func TestProject(t *testing.T) {
	f := NewFusion()

	ctx := Context{
		Home:       SideInputs{Elo: 1500, StarterRA9: 5.5, ExpectedIP: 5},
		Away:       SideInputs{Elo: 1500, StarterRA9: 5.5, ExpectedIP: 5},
		MarketHome: ptr(0.70),
		HomeGames:  0,
	}
	res := f.Project(ctx)
	assert.InDelta(t, WinProbability(1500, 1500, 30, 0), res.ModelHome, 1e-12)
	assert.True(t, res.Blended)
	assert.InDelta(t, 0.4*res.ModelHome+0.6*0.70, res.PHome, 1e-12)
	assert.InDelta(t, 1.0, res.PHome+res.PAway, 1e-12)

	ctx.NeutralSite = true
	ctx.MarketHome = nil
	res = f.Project(ctx)
	assert.InDelta(t, 0.5, res.ModelHome, 1e-12)
	assert.False(t, res.Blended)
	assert.Equal(t, 0.5, res.PHome)
	assert.Contains(t, res.Notes, "neutral site")
}

func TestEdge(t *testing.T) {
	e := Edge(0.6, ptr(0.55))
	require.NotNil(t, e)
	assert.InDelta(t, 0.05, *e, 1e-12)
	assert.Nil(t, Edge(0.6, nil))
	assert.Nil(t, Edge(0.6, ptr(1)))
}
