package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/models"
)

const h2hMarket = "h2h"

// oddsRecord covers both a raw odds feed event and a stored snapshot record.
type oddsRecord struct {
	ID             string          `json:"id"`
	CommenceTime   string          `json:"commence_time"`
	HomeTeam       string          `json:"home_team"`
	AwayTeam       string          `json:"away_team"`
	Bookmakers     []oddsBookmaker `json:"bookmakers"`
	BookmakerLines []oddsBookmaker `json:"bookmaker_lines"`
	FairHome       *float64        `json:"consensus_fair_home"`
	FairAway       *float64        `json:"consensus_fair_away"`
}

type oddsBookmaker struct {
	Key          string       `json:"key"`
	BookmakerKey string       `json:"bookmaker_key"`
	Markets      []oddsMarket `json:"markets"`
}

type oddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []oddsOutcome `json:"outcomes"`
}

type oddsOutcome struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

// FileOddsRepository reads per-day odds snapshots stored as JSON lines
type FileOddsRepository struct {
	path   func(time.Time) string
	format models.OddsFormat
	logger *logrus.Entry
}

// NewFileOddsRepository creates a new odds repository
func NewFileOddsRepository(path func(time.Time) string, format models.OddsFormat, logger *logrus.Entry) *FileOddsRepository {
	return &FileOddsRepository{path: path, format: format, logger: logger}
}

// LoadOdds returns the market records for day. Market data is optional, so a
// missing file yields no records; malformed lines are skipped.
func (r *FileOddsRepository) LoadOdds(ctx context.Context, day time.Time) ([]models.MarketOdds, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	path := r.path(day)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var out []models.MarketOdds
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec oddsRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			r.logger.WithFields(logrus.Fields{
				"file":  path,
				"line":  line,
				"error": err,
			}).Warn("Skipping malformed odds record")
			continue
		}
		out = append(out, r.toMarketOdds(rec))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

func (r *FileOddsRepository) toMarketOdds(rec oddsRecord) models.MarketOdds {
	m := models.MarketOdds{
		EventID:  rec.ID,
		HomeTeam: rec.HomeTeam,
		AwayTeam: rec.AwayTeam,
		FairHome: rec.FairHome,
		FairAway: rec.FairAway,
	}
	if ts, err := time.Parse(time.RFC3339, rec.CommenceTime); err == nil {
		m.CommenceTime = ts
	}

	books := rec.Bookmakers
	if len(books) == 0 {
		books = rec.BookmakerLines
	}
	for _, bm := range books {
		key := bm.Key
		if key == "" {
			key = bm.BookmakerKey
		}
		if line, ok := h2hLine(bm.Markets, rec.HomeTeam, rec.AwayTeam); ok {
			line.Key = key
			line.Format = r.format
			m.Bookmakers = append(m.Bookmakers, line)
		}
	}
	return m
}

// h2hLine extracts the home and away prices of the first head-to-head market.
func h2hLine(markets []oddsMarket, home, away string) (models.BookmakerLine, bool) {
	for _, mk := range markets {
		if mk.Key != h2hMarket {
			continue
		}
		var line models.BookmakerLine
		for _, o := range mk.Outcomes {
			switch o.Name {
			case home:
				line.HomePrice = o.Price.String()
			case away:
				line.AwayPrice = o.Price.String()
			}
		}
		return line, line.HomePrice != "" && line.AwayPrice != ""
	}
	return models.BookmakerLine{}, false
}
