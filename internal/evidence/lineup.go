package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/names"
)

// DefaultLineupBaseURL is the root of the lineup-card site.
const DefaultLineupBaseURL = "https://d1baseball.com"

var (
	gameDateRe = regexp.MustCompile(`\b([A-Z][a-z]{2}),\s*([A-Z][a-z]{2})\s+(\d{1,2})\b`)
	opponentRe = regexp.MustCompile(`(?i)\b(?:vs\.?|at)\s+(.+?)(?:\s*\(|$)`)
)

// LineupRow is one game line of a team's lineup card.
type LineupRow struct {
	GameText     string
	GameDate     time.Time // zero when the cell carries no parseable date
	Opponent     string
	OpponentNorm string
	StarterName  string
}

// LineupClient reads team lineup pages.
type LineupClient struct {
	http       *RateLimitedHTTPClient
	baseURL    string
	normalizer *names.Normalizer
	logger     *logrus.Entry
}

// NewLineupClient creates a client rooted at baseURL (DefaultLineupBaseURL when empty).
func NewLineupClient(httpClient *RateLimitedHTTPClient, baseURL string, normalizer *names.Normalizer, log *logrus.Logger) *LineupClient {
	if baseURL == "" {
		baseURL = DefaultLineupBaseURL
	}
	if normalizer == nil {
		normalizer = names.Default()
	}
	if log == nil {
		log = logrus.New()
	}
	return &LineupClient{
		http:       httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		normalizer: normalizer,
		logger:     log.WithField("component", "lineup"),
	}
}

// PageURL is the lineup page of a team slug.
func (c *LineupClient) PageURL(slug string) string {
	return fmt.Sprintf("%s/team/%s/lineup/", c.baseURL, slug)
}

// Rows fetches and parses a team's lineup card. Dates are read in year.
func (c *LineupClient) Rows(ctx context.Context, slug string, year int) ([]LineupRow, error) {
	body, err := c.http.GetBody(ctx, c.PageURL(slug))
	metrics.RecordEvidenceFetch("lineup", fetchStatus(err))
	if err != nil {
		c.logger.WithError(err).WithField("slug", slug).Debug("Lineup fetch failed")
		return nil, err
	}
	return ParseLineup(bytes.NewReader(body), year, c.normalizer)
}

// ParseLineup finds the first table whose headers include "SP" and "Game"
// and returns one row per game line. Summary lines such as "Most Games" are skipped.
func ParseLineup(r io.Reader, year int, normalizer *names.Normalizer) ([]LineupRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse lineup page: %w", err)
	}
	if normalizer == nil {
		normalizer = names.Default()
	}

	var (
		table   *goquery.Selection
		headers []string
	)
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		hs := cellTexts(t.Find("th"))
		if indexOf(hs, "SP") >= 0 && indexOf(hs, "Game") >= 0 {
			table, headers = t, hs
			return false
		}
		return true
	})
	if table == nil {
		return nil, nil
	}
	spIdx := indexOf(headers, "SP")

	var rows []LineupRow
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		tds := cellTexts(tr.Find("td"))
		if len(tds) == 0 {
			return
		}
		gameText := tds[0]
		if strings.Contains(gameText, "Most Games") || strings.HasSuffix(gameText, "Games") {
			return
		}
		row := LineupRow{GameText: gameText}
		if spIdx < len(tds) {
			row.StarterName = strings.TrimSpace(tds[spIdx])
		}
		if m := gameDateRe.FindStringSubmatch(gameText); m != nil {
			if d, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s %s %d", m[2], m[3], year)); err == nil {
				row.GameDate = d
			}
		}
		if m := opponentRe.FindStringSubmatch(gameText); m != nil {
			row.Opponent = strings.TrimSpace(m[1])
			row.OpponentNorm = normalizer.NormalizeTeam(row.Opponent)
		}
		rows = append(rows, row)
	})
	return rows, nil
}

func cellTexts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.Join(strings.Fields(s.Text()), " "))
	})
	return out
}

func indexOf(items []string, want string) int {
	for i, v := range items {
		if v == want {
			return i
		}
	}
	return -1
}

// SlugCandidates derives lineup-site URL slugs from a team name, shortest first.
func SlugCandidates(normalizer *names.Normalizer, teamName string) []string {
	if normalizer == nil {
		normalizer = names.Default()
	}
	tokens := strings.Fields(normalizer.NormalizeTeam(teamName))
	if len(tokens) == 0 {
		return nil
	}

	set := map[string]struct{}{}
	add := func(toks []string) {
		kept := toks[:0:0]
		for _, t := range toks {
			if t != "" {
				kept = append(kept, t)
			}
		}
		if len(kept) > 0 {
			set[strings.Join(kept, "-")] = struct{}{}
		}
	}
	replace := func(old, repl string) []string {
		out := make([]string, len(tokens))
		for i, t := range tokens {
			if t == old {
				t = repl
			}
			out[i] = t
		}
		return out
	}

	add(tokens)
	add(replace("st", "state"))
	add(replace("state", "st"))
	add(replace("saint", "st"))
	add(replace("and", ""))
	if tokens[0] == "the" {
		add(tokens[1:])
	}
	add(replace("university", ""))
	if len(tokens) >= 3 && tokens[0] == "n" && tokens[1] == "c" {
		add(append([]string{"nc"}, tokens[2:]...))
	}
	if len(tokens) >= 2 && tokens[0] == "u" && len(tokens[1]) == 1 {
		add(append([]string{"u" + tokens[1]}, tokens[2:]...))
	}

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
