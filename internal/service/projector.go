package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/models"
	"github.com/yourusername/diamond-forecast/internal/odds"
	"github.com/yourusername/diamond-forecast/internal/pitching"
	"github.com/yourusername/diamond-forecast/internal/projection"
	"github.com/yourusername/diamond-forecast/internal/rating"
	"github.com/yourusername/diamond-forecast/internal/registry"
)

// Projection outcome labels for the projections counter.
const (
	outcomeBlended       = "blended"
	outcomeModelOnly     = "model_only"
	outcomeFailed        = "failed"
	outcomeLowConfidence = "low_confidence"
)

type marketKey struct {
	home string
	away string
}

// marketIndex maps a resolved matchup to its consensus market record.
type marketIndex map[marketKey]*models.MarketOdds

// lookup returns the fair probability of the home side. A market quoted
// with the sides reversed is flipped and reported.
func (idx marketIndex) lookup(home, away string) (*float64, bool) {
	if m, ok := idx[marketKey{home: home, away: away}]; ok {
		return m.FairHome, false
	}
	if m, ok := idx[marketKey{home: away, away: home}]; ok && m.FairAway != nil {
		return m.FairAway, true
	}
	return nil, false
}

// projectionInputs is the read-only state shared by projection workers.
type projectionInputs struct {
	fusion   *projection.Fusion
	ratings  *rating.Ratings
	pitching *pitching.Result
	markets  marketIndex
}

// Project fuses ratings, starters, bullpen workload and the market for
// every game and saves the result. Games whose weaker side falls below the
// configured starter confidence are skipped. A failing game yields a row
// carrying its error; the rest of the batch is unaffected.
func (s *ForecastService) Project(ctx context.Context, day time.Time, reg *registry.Registry, ratings *rating.Ratings, pitch *pitching.Result, games []models.GameStarters) ([]models.Projection, error) {
	start := time.Now()

	records, err := s.repos.Odds.LoadOdds(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load odds: %w", err)
	}

	in := &projectionInputs{
		fusion: &projection.Fusion{
			HomeAdvantage: s.cfg.Fusion.HomeAdvantage,
			LeagueRA9:     s.cfg.Fusion.LeagueRA9,
			Scale:         s.cfg.Fusion.Scale,
			FatiguePerIP:  s.cfg.Fusion.FatiguePerIP,
			AlphaMax:      s.cfg.Fusion.AlphaMax,
			NFull:         s.cfg.Fusion.NFull,
			ClampLo:       s.cfg.Fusion.ClampLo,
			ClampHi:       s.cfg.Fusion.ClampHi,
		},
		ratings:  ratings,
		pitching: pitch,
		markets:  s.indexMarkets(reg, records),
	}

	eligible := make([]models.GameStarters, 0, len(games))
	for _, gs := range games {
		if conf := min(gs.Home.Confidence, gs.Away.Confidence); conf < s.cfg.Starters.MinConfidence {
			s.metrics.RecordLowConfidence()
			metrics.RecordProjection(outcomeLowConfidence)
			s.pipeline.LogRecordSkipped("projection", gs.Game.EventID,
				fmt.Sprintf("starter confidence %.2f below %.2f", conf, s.cfg.Starters.MinConfidence))
			continue
		}
		eligible = append(eligible, gs)
	}

	out := s.projectAll(ctx, in, eligible)

	if err := s.repos.Output.SaveProjections(ctx, day, out); err != nil {
		return nil, fmt.Errorf("failed to save projections: %w", err)
	}
	metrics.LastRunTimestamp.SetToCurrentTime()
	s.finishStage(StageProject, len(out), start)
	return out, nil
}

// indexMarkets computes the consensus for each market record and keys it
// by resolved matchup. The first record for a matchup wins.
func (s *ForecastService) indexMarkets(reg *registry.Registry, records []models.MarketOdds) marketIndex {
	resolver := registry.NewResolver(reg, s.log)
	idx := make(marketIndex, len(records))
	for i := range records {
		m := &records[i]
		if err := odds.Consensus(m); err != nil {
			s.pipeline.LogRecordSkipped("odds", m.EventID, err.Error())
			continue
		}
		home, errHome := resolver.ResolveID(m.HomeTeam)
		away, errAway := resolver.ResolveID(m.AwayTeam)
		if err := errors.Join(errHome, errAway); err != nil {
			s.pipeline.LogRecordSkipped("odds", m.EventID, err.Error())
			continue
		}
		key := marketKey{home: home, away: away}
		if _, dup := idx[key]; !dup {
			idx[key] = m
		}
	}
	return idx
}

// projectAll projects games on a bounded pool of workers. Output order
// matches input order.
func (s *ForecastService) projectAll(ctx context.Context, in *projectionInputs, games []models.GameStarters) []models.Projection {
	out := make([]models.Projection, len(games))
	workers := s.cfg.App.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range games {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			out[i] = s.failProjection(&games[i], ctx.Err())
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = s.projectOne(in, &games[i])
		}(i)
	}
	wg.Wait()
	return out
}

// projectOne projects one game, turning an error or panic into a row that
// carries it.
func (s *ForecastService) projectOne(in *projectionInputs, gs *models.GameStarters) (p models.Projection) {
	defer func() {
		if r := recover(); r != nil {
			p = s.failProjection(gs, fmt.Errorf("panic: %v", r))
		}
	}()

	p, err := projectGame(in, gs)
	if err != nil {
		return s.failProjection(gs, err)
	}

	outcome := outcomeModelOnly
	blended := p.MarketHome != nil && p.Alpha > 0
	if blended {
		outcome = outcomeBlended
	}
	metrics.RecordProjection(outcome)
	s.metrics.RecordProjection(blended)
	s.audit.LogProjection(p.EventID, p.HomeCanonicalID, p.AwayCanonicalID, p.ModelHome, p.Alpha, p.PHome, p.Notes)
	return p
}

func (s *ForecastService) failProjection(gs *models.GameStarters, err error) models.Projection {
	p := baseProjection(gs)
	p.Err = err.Error()
	metrics.RecordProjection(outcomeFailed)
	s.metrics.RecordError()
	s.audit.LogProjectionFailure(p.EventID, err)
	return p
}

func baseProjection(gs *models.GameStarters) models.Projection {
	g := &gs.Game
	return models.Projection{
		GameDate:        g.GameDate.Format(models.DateLayout),
		EventID:         g.EventID,
		HomeCanonicalID: g.HomeCanonicalID,
		AwayCanonicalID: g.AwayCanonicalID,
		HomeStarter:     gs.Home.DisplayName,
		AwayStarter:     gs.Away.DisplayName,
	}
}

// projectGame is the pure projection of one game.
func projectGame(in *projectionInputs, gs *models.GameStarters) (models.Projection, error) {
	p := baseProjection(gs)
	g := &gs.Game
	if !g.Resolved() {
		return p, fmt.Errorf("%w: %q vs %q", models.ErrUnresolvedIdentity, g.HomeTeamName, g.AwayTeamName)
	}

	home, homeRung := in.side(g.HomeCanonicalID, &gs.Home, g)
	away, awayRung := in.side(g.AwayCanonicalID, &gs.Away, g)
	market, reversed := in.markets.lookup(g.HomeCanonicalID, g.AwayCanonicalID)

	res := in.fusion.Project(projection.Context{
		Home:        home,
		Away:        away,
		MarketHome:  market,
		HomeGames:   in.ratings.SeasonGames(g.HomeCanonicalID, g.Season),
		NeutralSite: g.NeutralSite,
	})

	p.HomeElo, p.AwayElo = home.Elo, away.Elo
	p.SPComponent = res.SPComponent
	p.BPComponent = res.BPComponent
	p.Adjustment = res.Adjustment
	p.ModelHome = res.ModelHome
	p.MarketHome = market
	p.Alpha = res.Alpha
	p.PHome = res.PHome
	p.PAway = res.PAway
	p.Edge = projection.Edge(res.ModelHome, market)

	if homeRung != pitching.RungPitcher {
		p.Notes = append(p.Notes, "home starter rated from "+homeRung)
	}
	if awayRung != pitching.RungPitcher {
		p.Notes = append(p.Notes, "away starter rated from "+awayRung)
	}
	if reversed {
		p.Notes = append(p.Notes, "market quoted with sides reversed")
	}
	p.Notes = append(p.Notes, res.Notes...)
	return p, nil
}

func (in *projectionInputs) side(canonicalID string, pick *models.StarterPick, g *models.ScheduledGame) (projection.SideInputs, string) {
	ra9, ip, rung := in.pitching.StarterRating(pick.PitcherID, canonicalID, g.Season)
	return projection.SideInputs{
		Elo:            in.ratings.Elo(canonicalID),
		StarterRA9:     ra9,
		ExpectedIP:     ip,
		ReliefIPLast1D: in.pitching.WorkloadOn(canonicalID, g.GameDate).IPLast1D,
	}, rung
}
