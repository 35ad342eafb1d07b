package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/models"
)

// DefaultESPNBaseURL is the college baseball root of the public game-data API.
const DefaultESPNBaseURL = "https://site.api.espn.com/apis/site/v2/sports/baseball/college-baseball"

// Athlete is a pitcher reference from a box score.
type Athlete struct {
	ID   string
	Name string
}

// Empty reports whether neither id nor name is known.
func (a Athlete) Empty() bool {
	return a.ID == "" && a.Name == ""
}

// BoxScoreStarters holds the flagged starting pitchers of one game.
type BoxScoreStarters struct {
	Home Athlete
	Away Athlete
}

// ESPNClient reads game summaries and daily scoreboards.
type ESPNClient struct {
	http    *RateLimitedHTTPClient
	baseURL string
	logger  *logrus.Entry
}

// NewESPNClient creates a client rooted at baseURL (DefaultESPNBaseURL when empty).
func NewESPNClient(httpClient *RateLimitedHTTPClient, baseURL string, log *logrus.Logger) *ESPNClient {
	if baseURL == "" {
		baseURL = DefaultESPNBaseURL
	}
	if log == nil {
		log = logrus.New()
	}
	return &ESPNClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.WithField("component", "espn"),
	}
}

// Summary fetches the game summary and extracts the starter flagged on each side.
func (c *ESPNClient) Summary(ctx context.Context, eventID, homeTeamID, awayTeamID string) (BoxScoreStarters, error) {
	u := fmt.Sprintf("%s/summary?event=%s", c.baseURL, url.QueryEscape(eventID))
	body, err := c.http.GetBody(ctx, u)
	metrics.RecordEvidenceFetch("espn_summary", fetchStatus(err))
	if err != nil {
		c.logger.WithError(err).WithField("event_id", eventID).Debug("Summary fetch failed")
		return BoxScoreStarters{}, err
	}
	return ParseSummary(body, homeTeamID, awayTeamID)
}

// Scoreboard fetches the slate for one calendar day.
func (c *ESPNClient) Scoreboard(ctx context.Context, day time.Time) ([]models.ScheduledGame, error) {
	u := fmt.Sprintf("%s/scoreboard?dates=%s&limit=200", c.baseURL, day.Format("20060102"))
	body, err := c.http.GetBody(ctx, u)
	metrics.RecordEvidenceFetch("espn_scoreboard", fetchStatus(err))
	if err != nil {
		return nil, err
	}
	return ParseScoreboard(body, day)
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(string(data))
	return nil
}

type summaryPayload struct {
	BoxScore struct {
		Players []struct {
			Team struct {
				ID flexString `json:"id"`
			} `json:"team"`
			Statistics []struct {
				Labels   []string `json:"labels"`
				Athletes []struct {
					Starter bool `json:"starter"`
					Athlete struct {
						ID          flexString `json:"id"`
						DisplayName string     `json:"displayName"`
					} `json:"athlete"`
				} `json:"athletes"`
			} `json:"statistics"`
		} `json:"players"`
	} `json:"boxscore"`
}

// ParseSummary walks boxscore.players, keeping pitching tables (those with an
// "IP" column) and the athlete flagged as starter for each side's team id.
func ParseSummary(data []byte, homeTeamID, awayTeamID string) (BoxScoreStarters, error) {
	var payload summaryPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return BoxScoreStarters{}, fmt.Errorf("decode summary: %w", err)
	}

	var out BoxScoreStarters
	for _, section := range payload.BoxScore.Players {
		teamID := string(section.Team.ID)
		for _, cat := range section.Statistics {
			if !containsLabel(cat.Labels, "IP") {
				continue
			}
			for _, a := range cat.Athletes {
				if !a.Starter {
					continue
				}
				ath := Athlete{ID: string(a.Athlete.ID), Name: strings.TrimSpace(a.Athlete.DisplayName)}
				switch teamID {
				case homeTeamID:
					out.Home = ath
				case awayTeamID:
					out.Away = ath
				}
			}
		}
	}
	return out, nil
}

func containsLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

type scoreboardPayload struct {
	Events []struct {
		ID           flexString `json:"id"`
		Date         string     `json:"date"`
		Competitions []struct {
			NeutralSite bool `json:"neutralSite"`
			Status      struct {
				Type struct {
					Name string `json:"name"`
				} `json:"type"`
			} `json:"status"`
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Team     struct {
					ID          flexString `json:"id"`
					DisplayName string     `json:"displayName"`
				} `json:"team"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

// ParseScoreboard converts a scoreboard payload into slate entries dated day.
// Events with fewer than two named competitors are dropped.
func ParseScoreboard(data []byte, day time.Time) ([]models.ScheduledGame, error) {
	var payload scoreboardPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode scoreboard: %w", err)
	}

	games := make([]models.ScheduledGame, 0, len(payload.Events))
	for _, ev := range payload.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := ev.Competitions[0]
		if len(comp.Competitors) < 2 {
			continue
		}
		home, away := 0, 1
		for i, c := range comp.Competitors {
			switch c.HomeAway {
			case "home":
				home = i
			case "away":
				away = i
			}
		}
		h, a := comp.Competitors[home], comp.Competitors[away]
		homeName := strings.TrimSpace(h.Team.DisplayName)
		awayName := strings.TrimSpace(a.Team.DisplayName)
		if homeName == "" || awayName == "" {
			continue
		}
		games = append(games, models.ScheduledGame{
			Game: models.Game{
				EventID:      string(ev.ID),
				GameDate:     day,
				Season:       day.Year(),
				HomeTeamName: homeName,
				AwayTeamName: awayName,
				NeutralSite:  comp.NeutralSite,
			},
			CommenceTime: strings.TrimSpace(ev.Date),
			Status:       comp.Status.Type.Name,
			HomeESPNID:   string(h.Team.ID),
			AwayESPNID:   string(a.Team.ID),
		})
	}
	return games, nil
}
