// Package registry builds the canonical team registry for a season and
// resolves free-text team names against it.
package registry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yourusername/diamond-forecast/internal/models"
	"github.com/yourusername/diamond-forecast/internal/names"
)

// Crosswalk sources understood by Assemble.
const (
	SourceOddsAPI = "odds_api"
	SourceESPN    = "espn"
	SourceNCAA    = "ncaa"
)

// Assemble merges the NCAA team list with the manual crosswalk into
// registry rows. Crosswalk entries are keyed by ncaa_teams_id: a canonical
// id there overrides the NCAA_<id> default, an odds_api source name fills
// odds_api_name, and any other source name is kept as an alternate name.
func Assemble(ncaa []models.Team, crosswalk []models.CrosswalkEntry) ([]models.Team, error) {
	byNCAA := make(map[int][]models.CrosswalkEntry)
	for _, xw := range crosswalk {
		if xw.NCAATeamsID > 0 {
			byNCAA[xw.NCAATeamsID] = append(byNCAA[xw.NCAATeamsID], xw)
		}
	}

	seenNCAA := make(map[[2]int]struct{}, len(ncaa))
	out := make([]models.Team, 0, len(ncaa))
	for _, row := range ncaa {
		if row.NCAATeamsID <= 0 {
			return nil, fmt.Errorf("%w: team %q has no ncaa_teams_id", models.ErrRegistryIntegrity, row.TeamName)
		}
		key := [2]int{row.AcademicYear, row.NCAATeamsID}
		if _, dup := seenNCAA[key]; dup {
			return nil, fmt.Errorf("%w: duplicate ncaa_teams_id %d in %d team list", models.ErrRegistryIntegrity, row.NCAATeamsID, row.AcademicYear)
		}
		seenNCAA[key] = struct{}{}

		team := row
		team.AltNames = append([]string(nil), row.AltNames...)
		for _, xw := range byNCAA[row.NCAATeamsID] {
			if id := strings.TrimSpace(xw.CanonicalID); id != "" && team.CanonicalID == "" {
				team.CanonicalID = id
			}
			name := strings.TrimSpace(xw.SourceName)
			if name == "" {
				continue
			}
			if xw.Source == SourceOddsAPI && team.OddsAPIName == "" {
				team.OddsAPIName = name
			} else {
				team.AltNames = append(team.AltNames, name)
			}
		}
		if strings.TrimSpace(team.CanonicalID) == "" {
			team.CanonicalID = "NCAA_" + strconv.Itoa(row.NCAATeamsID)
		}
		out = append(out, team)
	}

	if _, err := checkUnique(out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CanonicalID < out[j].CanonicalID })
	return out, nil
}

// ForYear returns the team rows of one academic year in input order. A
// year of zero selects the latest year present.
func ForYear(teams []models.Team, year int) []models.Team {
	if year == 0 {
		for _, t := range teams {
			if t.AcademicYear > year {
				year = t.AcademicYear
			}
		}
	}
	out := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		if t.AcademicYear == year {
			out = append(out, t)
		}
	}
	return out
}

// Registry is an immutable snapshot of canonical teams with the lookup
// indexes used by the Resolver.
type Registry struct {
	normalizer *names.Normalizer
	teams      []models.Team
	byID       map[string]int

	aliasExact map[string]string
	aliasNorm  map[string]string
	exactName  map[string]string
	forms      map[string][]string
	// teamNorm caches NormalizeTeam(team_name) per canonical id.
	teamNorm map[string]string
	// fullNorm caches Normalize(team_name) per canonical id.
	fullNorm map[string]string
	// bySpecificity lists canonical ids by descending normalized name length.
	bySpecificity []string
}

// Build validates teams and the crosswalk and indexes them. Any integrity
// violation returns an error wrapping models.ErrRegistryIntegrity. Two
// teams whose names normalize to the same string are a violation, since
// exact name resolution could not tell them apart.
func Build(teams []models.Team, crosswalk []models.CrosswalkEntry, normalizer *names.Normalizer) (*Registry, error) {
	if normalizer == nil {
		normalizer = names.Default()
	}
	byID, err := checkUnique(teams)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		normalizer: normalizer,
		teams:      append([]models.Team(nil), teams...),
		byID:       byID,
		aliasExact: make(map[string]string),
		aliasNorm:  make(map[string]string),
		exactName:  make(map[string]string),
		forms:      make(map[string][]string),
		teamNorm:   make(map[string]string, len(teams)),
		fullNorm:   make(map[string]string, len(teams)),
	}

	byNCAA := make(map[int]string, len(teams))
	for _, t := range teams {
		if t.NCAATeamsID > 0 {
			byNCAA[t.NCAATeamsID] = t.CanonicalID
		}
	}

	for _, t := range teams {
		full := names.Normalize(t.TeamName)
		r.fullNorm[t.CanonicalID] = full
		r.teamNorm[t.CanonicalID] = normalizer.NormalizeTeam(t.TeamName)
		if full != "" {
			if other, ok := r.exactName[full]; ok && other != t.CanonicalID {
				return nil, fmt.Errorf("%w: team name %q normalizes to the same form as %s", models.ErrRegistryIntegrity, t.TeamName, other)
			}
			r.exactName[full] = t.CanonicalID
		}
		for _, alias := range t.Aliases() {
			if err := r.addAlias(alias, t.CanonicalID); err != nil {
				return nil, err
			}
		}
		for _, form := range normalizer.Forms(r.teamNorm[t.CanonicalID]) {
			r.forms[form] = append(r.forms[form], t.CanonicalID)
		}
	}

	for _, xw := range crosswalk {
		id := strings.TrimSpace(xw.CanonicalID)
		if id == "" && xw.NCAATeamsID > 0 {
			id = byNCAA[xw.NCAATeamsID]
		}
		if id == "" {
			return nil, fmt.Errorf("%w: crosswalk name %q has no canonical id", models.ErrRegistryIntegrity, xw.SourceName)
		}
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("%w: crosswalk name %q points at unknown canonical id %s", models.ErrRegistryIntegrity, xw.SourceName, id)
		}
		if err := r.addAlias(xw.SourceName, id); err != nil {
			return nil, err
		}
	}

	for form, ids := range r.forms {
		r.forms[form] = dedupeSorted(ids)
	}

	r.bySpecificity = make([]string, 0, len(teams))
	for _, t := range teams {
		if r.fullNorm[t.CanonicalID] != "" {
			r.bySpecificity = append(r.bySpecificity, t.CanonicalID)
		}
	}
	sort.SliceStable(r.bySpecificity, func(i, j int) bool {
		a, b := r.bySpecificity[i], r.bySpecificity[j]
		if la, lb := len(r.fullNorm[a]), len(r.fullNorm[b]); la != lb {
			return la > lb
		}
		return a < b
	})

	return r, nil
}

func (r *Registry) addAlias(alias, canonicalID string) error {
	exact := strings.TrimSpace(alias)
	if exact == "" {
		return nil
	}
	if other, ok := r.aliasExact[exact]; ok && other != canonicalID {
		return fmt.Errorf("%w: alias %q maps to both %s and %s", models.ErrRegistryIntegrity, exact, other, canonicalID)
	}
	r.aliasExact[exact] = canonicalID

	norm := names.Normalize(exact)
	if norm == "" {
		return nil
	}
	if other, ok := r.aliasNorm[norm]; ok && other != canonicalID {
		return fmt.Errorf("%w: alias %q normalizes onto %s and %s", models.ErrRegistryIntegrity, exact, other, canonicalID)
	}
	r.aliasNorm[norm] = canonicalID
	return nil
}

// Team returns the registry row for a canonical id.
func (r *Registry) Team(canonicalID string) (models.Team, bool) {
	i, ok := r.byID[canonicalID]
	if !ok {
		return models.Team{}, false
	}
	return r.teams[i], true
}

// Teams returns a copy of every registry row in input order.
func (r *Registry) Teams() []models.Team {
	return append([]models.Team(nil), r.teams...)
}

// Len returns the number of teams.
func (r *Registry) Len() int {
	return len(r.teams)
}

// AliasCount returns the number of distinct exact aliases.
func (r *Registry) AliasCount() int {
	return len(r.aliasExact)
}

// FormCount returns the number of indexed name variants.
func (r *Registry) FormCount() int {
	return len(r.forms)
}

// Normalizer returns the normalizer the registry was indexed with.
func (r *Registry) Normalizer() *names.Normalizer {
	return r.normalizer
}

func checkUnique(teams []models.Team) (map[string]int, error) {
	byID := make(map[string]int, len(teams))
	ncaa := make(map[[2]int]string, len(teams))
	for i, t := range teams {
		id := strings.TrimSpace(t.CanonicalID)
		if id == "" {
			return nil, fmt.Errorf("%w: team %q has a blank canonical_id", models.ErrRegistryIntegrity, t.TeamName)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate canonical_id %s", models.ErrRegistryIntegrity, id)
		}
		byID[id] = i
		if t.NCAATeamsID <= 0 {
			continue
		}
		key := [2]int{t.AcademicYear, t.NCAATeamsID}
		if other, dup := ncaa[key]; dup {
			return nil, fmt.Errorf("%w: ncaa_teams_id %d used by %s and %s", models.ErrRegistryIntegrity, t.NCAATeamsID, other, id)
		}
		ncaa[key] = id
	}
	return byID, nil
}

func dedupeSorted(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}
