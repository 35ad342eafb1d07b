package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/diamond-forecast/internal/names"
)

const summaryJSON = `{
  "boxscore": {
    "players": [
      {"team": {"id": "57"}, "statistics": [
        {"labels": ["H-AB", "R"], "athletes": [{"starter": true, "athlete": {"id": "1", "displayName": "Leadoff Hitter"}}]},
        {"labels": ["IP", "H", "ER"], "athletes": [
          {"starter": true, "athlete": {"id": "4420", "displayName": "Jake Miller"}},
          {"starter": false, "athlete": {"id": "4421", "displayName": "Reliever One"}}
        ]}
      ]},
      {"team": {"id": 99}, "statistics": [
        {"labels": ["IP", "H", "ER"], "athletes": [
          {"starter": true, "athlete": {"displayName": "Sam Ortiz"}}
        ]}
      ]}
    ]
  }
}`

const scoreboardJSON = `{
  "events": [
    {"id": "401", "date": "2026-02-20T18:00Z", "competitions": [{
      "neutralSite": true,
      "status": {"type": {"name": "STATUS_SCHEDULED"}},
      "competitors": [
        {"homeAway": "away", "team": {"id": "99", "displayName": "Kansas State Wildcats"}},
        {"homeAway": "home", "team": {"id": "57", "displayName": "Florida Gators"}}
      ]}]},
    {"id": "402", "competitions": [{"competitors": [{"homeAway": "home", "team": {"id": "1", "displayName": "Solo"}}]}]}
  ]
}`

const lineupHTML = `<html><body>
<table><tr><th>Player</th><th>AVG</th></tr><tr><td>Someone</td><td>.300</td></tr></table>
<table>
  <thead><tr><th>Game</th><th>C</th><th>SP</th></tr></thead>
  <tbody>
    <tr><td>Fri, Feb 20 vs Kansas State (W 5-3)</td><td>Smith</td><td>Jake Miller</td></tr>
    <tr><td>Sat, Feb 21 at   Kansas State</td><td>Smith</td><td>TBD</td></tr>
    <tr><td>Most Games</td><td>Smith</td><td>Jake Miller</td></tr>
    <tr><td>Sun, Feb 22 vs Stetson</td><td>Smith</td></tr>
  </tbody>
</table>
</body></html>`

func testHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 1000
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	cfg.Timeout = 5 * time.Second
	return NewRateLimitedHTTPClient(cfg, nil)
}

func TestParseSummary(t *testing.T) {
	got, err := ParseSummary([]byte(summaryJSON), "57", "99")
	require.NoError(t, err)

	assert.Equal(t, Athlete{ID: "4420", Name: "Jake Miller"}, got.Home)
	assert.Equal(t, Athlete{Name: "Sam Ortiz"}, got.Away)
}

func TestParseSummaryNoBoxScore(t *testing.T) {
	got, err := ParseSummary([]byte(`{"header": {}}`), "57", "99")
	require.NoError(t, err)
	assert.True(t, got.Home.Empty())
	assert.True(t, got.Away.Empty())

	_, err = ParseSummary([]byte(`not json`), "57", "99")
	assert.Error(t, err)
}

func TestParseScoreboard(t *testing.T) {
	day := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	games, err := ParseScoreboard([]byte(scoreboardJSON), day)
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "401", g.EventID)
	assert.Equal(t, "Florida Gators", g.HomeTeamName)
	assert.Equal(t, "Kansas State Wildcats", g.AwayTeamName)
	assert.Equal(t, "57", g.HomeESPNID)
	assert.Equal(t, "99", g.AwayESPNID)
	assert.Equal(t, "STATUS_SCHEDULED", g.Status)
	assert.True(t, g.NeutralSite)
	assert.True(t, g.NotStarted())
	assert.Equal(t, 2026, g.Season)
}

func TestParseLineup(t *testing.T) {
	rows, err := ParseLineup(strings.NewReader(lineupHTML), 2026, names.Default())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), rows[0].GameDate)
	assert.Equal(t, "Kansas State", rows[0].Opponent)
	assert.Equal(t, "kansas state", rows[0].OpponentNorm)
	assert.Equal(t, "Jake Miller", rows[0].StarterName)

	assert.Equal(t, "Kansas State", rows[1].Opponent)
	assert.Equal(t, "TBD", rows[1].StarterName)

	assert.Equal(t, "Stetson", rows[2].Opponent)
	assert.Empty(t, rows[2].StarterName)
}

func TestParseLineupWithoutStarterTable(t *testing.T) {
	rows, err := ParseLineup(strings.NewReader(`<table><tr><th>Game</th></tr></table>`), 2026, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSlugCandidates(t *testing.T) {
	n := names.Default()

	assert.Equal(t, []string{"kansas-st", "kansas-state"}, SlugCandidates(n, "Kansas State"))
	assert.Equal(t, []string{"st-mary-s", "saint-mary-s"}, SlugCandidates(n, "Saint Mary's"))
	assert.Contains(t, SlugCandidates(n, "Texas A&M"), "texas-a-m")
	assert.Contains(t, SlugCandidates(n, "N C State"), "nc-state")
	assert.Nil(t, SlugCandidates(n, "  "))
}

func TestLineupClientRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/team/florida/lineup/" {
			http.NotFound(w, r)
			return
		}
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, lineupHTML)
	}))
	defer srv.Close()

	client := NewLineupClient(testHTTPClient(), srv.URL, names.Default(), nil)

	rows, err := client.Rows(context.Background(), "florida", 2026)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = client.Rows(context.Background(), "nowhere", 2026)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestESPNClientSummaryRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "/summary", r.URL.Path)
		assert.Equal(t, "401", r.URL.Query().Get("event"))
		fmt.Fprint(w, summaryJSON)
	}))
	defer srv.Close()

	client := NewESPNClient(testHTTPClient(), srv.URL, nil)
	got, err := client.Summary(context.Background(), "401", "57", "99")
	require.NoError(t, err)
	assert.Equal(t, "4420", got.Home.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestESPNClientScoreboardDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20260220", r.URL.Query().Get("dates"))
		fmt.Fprint(w, scoreboardJSON)
	}))
	defer srv.Close()

	client := NewESPNClient(testHTTPClient(), srv.URL, nil)
	games, err := client.Scoreboard(context.Background(), time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, games, 1)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 1000
	cfg.MaxRetries = 0
	cfg.CircuitBreakerMax = 2
	cfg.Timeout = time.Second
	client := NewRateLimitedHTTPClient(cfg, nil)

	// Nothing listens on this address.
	url := "http://127.0.0.1:1/unreachable"
	for i := 0; i < 2; i++ {
		_, err := client.GetBody(context.Background(), url)
		require.Error(t, err)
	}
	_, err := client.GetBody(context.Background(), url)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, "circuit_open", fetchStatus(err))
}
