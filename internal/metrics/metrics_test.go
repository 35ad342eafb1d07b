package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordResolution(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(ResolutionsTotal.WithLabelValues("alias"))
	RecordResolution("alias")
	assert.Equal(t, before+1, testutil.ToFloat64(ResolutionsTotal.WithLabelValues("alias")))
}

func TestRecordCacheLookup(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name   string
		hit    bool
		result string
	}{
		{name: "hit", hit: true, result: "hit"},
		{name: "miss", hit: false, result: "miss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("slug", tt.result))
			RecordCacheLookup("slug", tt.hit)
			assert.Equal(t, before+1, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("slug", tt.result)))
		})
	}
}

func TestRecordStageDuration(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordStageDuration("fit", 0.25)
	})
}

func TestWriteTextfile(t *testing.T) {
	InitRegistry()
	RecordGameReplayed()

	path := filepath.Join(t.TempDir(), "forecast.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "diamond_forecast_games_replayed_total"))
}
