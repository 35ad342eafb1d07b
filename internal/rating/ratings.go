package rating

import (
	"fmt"
	"sort"

	"github.com/yourusername/diamond-forecast/internal/models"
)

// Ratings is the final state of one replay. Each season or experiment
// owns its own instance.
type Ratings struct {
	initial float64
	byID    map[string]*models.TeamRating
}

// NewRatings returns an empty rating map seeded at initial.
func NewRatings(initial float64) *Ratings {
	return &Ratings{initial: initial, byID: make(map[string]*models.TeamRating)}
}

// FromRows rebuilds a rating map from stored rows.
func FromRows(initial float64, rows []models.TeamRating) (*Ratings, error) {
	r := NewRatings(initial)
	for _, row := range rows {
		if row.CanonicalID == "" {
			return nil, fmt.Errorf("rating row without canonical_id")
		}
		if _, dup := r.byID[row.CanonicalID]; dup {
			return nil, fmt.Errorf("%w: rating for %s", models.ErrDuplicateKey, row.CanonicalID)
		}
		rc := row
		r.byID[row.CanonicalID] = &rc
	}
	return r, nil
}

func (r *Ratings) touch(id string) *models.TeamRating {
	tr, ok := r.byID[id]
	if !ok {
		tr = &models.TeamRating{CanonicalID: id, Elo: r.initial}
		r.byID[id] = tr
	}
	return tr
}

// Get returns the rating for id. Unseen teams get the initial rating with
// ok=false so callers can note the fallback.
func (r *Ratings) Get(id string) (models.TeamRating, bool) {
	if tr, ok := r.byID[id]; ok {
		return *tr, true
	}
	return models.TeamRating{CanonicalID: id, Elo: r.initial}, false
}

// Elo returns the rating value for id, defaulting to the initial rating.
func (r *Ratings) Elo(id string) float64 {
	tr, _ := r.Get(id)
	return tr.Elo
}

// Games returns how many updates id received.
func (r *Ratings) Games(id string) int {
	tr, _ := r.Get(id)
	return tr.NGames
}

// SeasonGames returns how many updates id received during season.
func (r *Ratings) SeasonGames(id string, season int) int {
	tr, _ := r.Get(id)
	if tr.Season != season {
		return 0
	}
	return tr.SeasonGames
}

// Len returns the number of rated teams.
func (r *Ratings) Len() int {
	return len(r.byID)
}

// Sorted returns every rating ordered by canonical id.
func (r *Ratings) Sorted() []models.TeamRating {
	out := make([]models.TeamRating, 0, len(r.byID))
	for _, tr := range r.byID {
		out = append(out, *tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CanonicalID < out[j].CanonicalID })
	return out
}
