package starters

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/logger"
	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/models"
)

// TeamDirectory looks up registry teams by canonical id.
type TeamDirectory interface {
	Team(canonicalID string) (models.Team, bool)
}

// Chain runs the tiers in order; the first tier returning a pick wins.
type Chain struct {
	tiers   []Tier
	history *History
	teams   TeamDirectory
	audit   *logger.AuditLogger
	log     *logrus.Entry
}

// NewChain composes tiers in priority order. teams may be nil.
func NewChain(history *History, teams TeamDirectory, log *logrus.Logger, tiers ...Tier) *Chain {
	if log == nil {
		log = logrus.New()
	}
	return &Chain{
		tiers:   tiers,
		history: history,
		teams:   teams,
		audit:   logger.NewAuditLogger(log),
		log:     log.WithField("component", "starters"),
	}
}

// Tiers returns the tier names in priority order.
func (c *Chain) Tiers() []string {
	out := make([]string, len(c.tiers))
	for i, t := range c.tiers {
		out[i] = t.Name()
	}
	return out
}

// Request builds the tier input for one side of a game.
func (c *Chain) Request(g *models.ScheduledGame, side Side) Request {
	req := Request{Game: g, Side: side}
	cid, name, opp := g.HomeCanonicalID, g.HomeTeamName, g.AwayTeamName
	if side == SideAway {
		cid, name, opp = g.AwayCanonicalID, g.AwayTeamName, g.HomeTeamName
	}
	req.TeamKey = c.history.TeamKey(cid, name)
	req.TeamName = name
	req.OpponentName = opp
	if cid != "" && c.teams != nil {
		if team, ok := c.teams.Team(cid); ok && team.TeamName != "" {
			req.TeamName = team.TeamName
		}
	}
	return req
}

// SelectSide returns the pick for one side. It always returns a pick.
func (c *Chain) SelectSide(ctx context.Context, g *models.ScheduledGame, side Side) models.StarterPick {
	req := c.Request(g, side)

	var pick *models.StarterPick
	for _, tier := range c.tiers {
		if ctx.Err() != nil {
			break
		}
		if p, ok := c.runTier(ctx, tier, req); ok && p != nil {
			pick = p
			break
		}
	}

	if pick == nil {
		unknown := UnknownPick()
		pick = &unknown
		c.log.WithError(models.ErrEvidenceExhausted).WithFields(logrus.Fields{
			"event_id": g.EventID,
			"side":     side,
			"team_key": req.TeamKey,
		}).Debug("No tier produced a starter")
	} else if pick.HasName() && !pick.HasID() {
		if id, name, ok := c.history.ResolveName(req.TeamKey, pick.DisplayName); ok {
			pick.PitcherID = id
			pick.DisplayName = orElse(name, pick.DisplayName)
			pick.Confidence = min(0.95, pick.Confidence+0.05)
			pick.Note += " | post-resolved id from history"
		}
	}

	metrics.RecordStarterPick(pick.Source)
	c.audit.LogStarterPick(g.EventID, string(side), req.TeamKey, pick.PitcherID, pick.DisplayName,
		pick.Source, pick.Confidence, pick.Note)
	return *pick
}

// runTier isolates a misbehaving tier: a panic counts as an abstention.
func (c *Chain) runTier(ctx context.Context, tier Tier, req Request) (pick *models.StarterPick, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithFields(logrus.Fields{
				"tier":     tier.Name(),
				"event_id": req.Game.EventID,
				"side":     req.Side,
				"panic":    fmt.Sprint(r),
			}).Error("Starter tier panicked")
			pick, ok = nil, false
		}
	}()
	return tier.Pick(ctx, req)
}

// Select returns both picks for a game.
func (c *Chain) Select(ctx context.Context, g *models.ScheduledGame) models.GameStarters {
	return models.GameStarters{
		Game: *g,
		Home: c.SelectSide(ctx, g, SideHome),
		Away: c.SelectSide(ctx, g, SideAway),
	}
}

// SelectAll selects starters for a slate in input order.
func (c *Chain) SelectAll(ctx context.Context, games []models.ScheduledGame) []models.GameStarters {
	out := make([]models.GameStarters, 0, len(games))
	for i := range games {
		out = append(out, c.Select(ctx, &games[i]))
	}
	return out
}
