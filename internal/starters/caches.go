package starters

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/diamond-forecast/internal/evidence"
	"github.com/yourusername/diamond-forecast/internal/metrics"
)

// DefaultCacheTTL bounds how long fetched evidence is reused within a run.
const DefaultCacheTTL = 30 * time.Minute

// Caches holds the evidence fetched during one selection run. Failed fetches
// are cached as empty results so a slate never hits the same dead URL twice.
type Caches struct {
	slugs     *cache.Cache
	lineups   *cache.Cache
	summaries *cache.Cache
}

// NewCaches creates empty caches; ttl <= 0 uses DefaultCacheTTL.
func NewCaches(ttl time.Duration) *Caches {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Caches{
		slugs:     cache.New(ttl, ttl*2),
		lineups:   cache.New(ttl, ttl*2),
		summaries: cache.New(ttl, ttl*2),
	}
}

// Slug returns the resolved lineup slug for a normalized team name.
// An empty slug means every candidate was tried and none had rows.
func (c *Caches) Slug(teamNorm string) (string, bool) {
	v, found := c.slugs.Get(teamNorm)
	metrics.RecordCacheLookup("slug", found)
	if !found {
		return "", false
	}
	return v.(string), true
}

// SetSlug stores a slug resolution.
func (c *Caches) SetSlug(teamNorm, slug string) {
	c.slugs.SetDefault(teamNorm, slug)
}

// LineupRows returns the parsed lineup card for a slug.
func (c *Caches) LineupRows(slug string) ([]evidence.LineupRow, bool) {
	v, found := c.lineups.Get(slug)
	metrics.RecordCacheLookup("lineup", found)
	if !found {
		return nil, false
	}
	return v.([]evidence.LineupRow), true
}

// SetLineupRows stores a lineup card.
func (c *Caches) SetLineupRows(slug string, rows []evidence.LineupRow) {
	c.lineups.SetDefault(slug, rows)
}

// Summary returns the box-score starters for an event.
func (c *Caches) Summary(eventID string) (evidence.BoxScoreStarters, bool) {
	v, found := c.summaries.Get(eventID)
	metrics.RecordCacheLookup("summary", found)
	if !found {
		return evidence.BoxScoreStarters{}, false
	}
	return v.(evidence.BoxScoreStarters), true
}

// SetSummary stores box-score starters.
func (c *Caches) SetSummary(eventID string, s evidence.BoxScoreStarters) {
	c.summaries.SetDefault(eventID, s)
}
