package service

import (
	"fmt"
	"sync"
	"time"
)

// RunMetrics tracks statistics about one forecast run
type RunMetrics struct {
	mu              sync.RWMutex
	RunID           string
	StartTime       time.Time
	Duration        time.Duration
	Teams           int
	GamesApplied    int
	GamesUnresolved int
	Appearances     int
	SlateGames      int
	InvalidGames    int
	StartersWithID  int
	StartersUnknown int
	Projected       int
	Blended         int
	LowConfidence   int
	Errors          int
}

// NewRunMetrics creates a new metrics tracker
func NewRunMetrics(runID string) *RunMetrics {
	return &RunMetrics{
		RunID:     runID,
		StartTime: time.Now(),
	}
}

// RecordStarter counts one selected side
func (m *RunMetrics) RecordStarter(hasID, unknown bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hasID {
		m.StartersWithID++
	}
	if unknown {
		m.StartersUnknown++
	}
}

// RecordProjection counts one projected game
func (m *RunMetrics) RecordProjection(blended bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Projected++
	if blended {
		m.Blended++
	}
}

// RecordLowConfidence counts a game skipped by the starter confidence filter
func (m *RunMetrics) RecordLowConfidence() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LowConfidence++
}

// RecordError increments error count
func (m *RunMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// RecordInvalidGame increments the count of slate games failing validation
func (m *RunMetrics) RecordInvalidGame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InvalidGames++
}

// Finish stamps the run duration
func (m *RunMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartTime)
}

// String returns a formatted string representation of metrics
func (m *RunMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blendRate := float64(0)
	if m.Projected > 0 {
		blendRate = float64(m.Blended) / float64(m.Projected) * 100
	}

	return fmt.Sprintf(
		"RunMetrics{Run=%s, Teams=%d, Applied=%d, Unresolved=%d, Slate=%d, Invalid=%d, StartersWithID=%d, Unknown=%d, Projected=%d, Blended=%d (%.1f%%), LowConfidence=%d, Errors=%d, Duration=%v}",
		m.RunID,
		m.Teams,
		m.GamesApplied,
		m.GamesUnresolved,
		m.SlateGames,
		m.InvalidGames,
		m.StartersWithID,
		m.StartersUnknown,
		m.Projected,
		m.Blended,
		blendRate,
		m.LowConfidence,
		m.Errors,
		m.Duration,
	)
}
