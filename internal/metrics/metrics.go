// Package metrics provides the Prometheus registry for forecast runs.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

const namespace = "diamond_forecast"

// Counter metrics
var (
	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "team_resolutions_total",
		Help:      "Team name resolutions by matching rule",
	}, []string{"rule"})
	UnresolvedNamesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unresolved_names_total",
		Help:      "Team names that matched no resolution rule",
	})
	GamesReplayedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_replayed_total",
		Help:      "Games applied to the rating replay",
	})
	GamesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_skipped_total",
		Help:      "Games excluded from the rating replay by reason",
	}, []string{"reason"})
	StarterPicksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "starter_picks_total",
		Help:      "Starter picks by evidence source",
	}, []string{"source"})
	ProjectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projections_total",
		Help:      "Game projections by outcome",
	}, []string{"outcome"})
	EvidenceFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evidence_fetches_total",
		Help:      "Remote evidence requests by source and status",
	}, []string{"source", "status"})
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Per-run cache lookups by cache and result",
	}, []string{"cache", "result"})
)

// Gauge metrics
var (
	RatedTeams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rated_teams",
		Help:      "Teams holding an Elo rating after the last replay",
	})
	RatedPitchers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rated_pitchers",
		Help:      "Pitcher rating rows produced by the last run",
	})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last completed run",
	})
)

// Histogram metrics
var (
	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"stage"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ResolutionsTotal)
		registry.MustRegister(UnresolvedNamesTotal)
		registry.MustRegister(GamesReplayedTotal)
		registry.MustRegister(GamesSkippedTotal)
		registry.MustRegister(StarterPicksTotal)
		registry.MustRegister(ProjectionsTotal)
		registry.MustRegister(EvidenceFetchesTotal)
		registry.MustRegister(CacheLookupsTotal)

		registry.MustRegister(RatedTeams)
		registry.MustRegister(RatedPitchers)
		registry.MustRegister(LastRunTimestamp)

		registry.MustRegister(StageDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
// Batch runs call it once at exit instead of serving an endpoint.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, GetRegistry()); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// RecordResolution records a successful resolution under its rule.
func RecordResolution(rule string) {
	ResolutionsTotal.WithLabelValues(rule).Inc()
}

// RecordUnresolved records a name that matched no rule.
func RecordUnresolved() {
	UnresolvedNamesTotal.Inc()
}

// RecordGameReplayed records one applied rating update.
func RecordGameReplayed() {
	GamesReplayedTotal.Inc()
}

// RecordGameSkipped records a game excluded from the replay.
func RecordGameSkipped(reason string) {
	GamesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordStarterPick records the source tier that produced a pick.
func RecordStarterPick(source string) {
	StarterPicksTotal.WithLabelValues(source).Inc()
}

// RecordProjection records a projection outcome.
func RecordProjection(outcome string) {
	ProjectionsTotal.WithLabelValues(outcome).Inc()
}

// RecordEvidenceFetch records a remote evidence request.
func RecordEvidenceFetch(source, status string) {
	EvidenceFetchesTotal.WithLabelValues(source, status).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}
