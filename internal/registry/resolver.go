package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/logger"
	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/models"
	"github.com/yourusername/diamond-forecast/internal/names"
)

// Resolution rules, in the order they are tried.
const (
	RuleAlias     = "alias"
	RuleExactName = "exact_name"
	RuleForms     = "forms"
	RulePeeled    = "peeled"
	RulePrefix    = "prefix"
)

// Resolution is a successful lookup with the rule that produced it.
type Resolution struct {
	CanonicalID string
	NCAATeamsID int
	TeamName    string
	Rule        string
}

// Resolver maps free-text team names to canonical ids. It never consults
// similarity scores: every rule is an exact lookup over normalized forms.
type Resolver struct {
	registry *Registry
	log      *logger.ResolutionLogger
}

// NewResolver creates a resolver over an immutable registry.
func NewResolver(registry *Registry, log *logrus.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		log:      logger.NewResolutionLogger(log),
	}
}

// Registry returns the snapshot the resolver reads from.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve returns the canonical team for name, or an error wrapping
// models.ErrUnresolvedIdentity. The result depends only on name and the
// registry snapshot.
func (r *Resolver) Resolve(name string) (Resolution, error) {
	id, rule := r.match(name)
	if id == "" {
		metrics.RecordUnresolved()
		r.log.LogUnresolved(name, r.registry.normalizer.NormalizeTeam(name))
		return Resolution{}, fmt.Errorf("%w: %q", models.ErrUnresolvedIdentity, name)
	}
	metrics.RecordResolution(rule)
	r.log.LogResolved(name, id, rule)

	team, _ := r.registry.Team(id)
	return Resolution{
		CanonicalID: id,
		NCAATeamsID: team.NCAATeamsID,
		TeamName:    team.TeamName,
		Rule:        rule,
	}, nil
}

// ResolveID is Resolve reduced to the canonical id.
func (r *Resolver) ResolveID(name string) (string, error) {
	res, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	return res.CanonicalID, nil
}

// ResolveGame fills blank canonical ids on g from its team names. Each side
// is resolved independently; the returned error joins the failures, and a
// side that fails keeps its blank id.
func (r *Resolver) ResolveGame(g *models.Game) error {
	var errs []error
	if g.HomeCanonicalID == "" {
		if id, err := r.ResolveID(g.HomeTeamName); err != nil {
			errs = append(errs, fmt.Errorf("home: %w", err))
		} else {
			g.HomeCanonicalID = id
		}
	}
	if g.AwayCanonicalID == "" {
		if id, err := r.ResolveID(g.AwayTeamName); err != nil {
			errs = append(errs, fmt.Errorf("away: %w", err))
		} else {
			g.AwayCanonicalID = id
		}
	}
	return errors.Join(errs...)
}

func (r *Resolver) match(name string) (string, string) {
	reg := r.registry

	if raw := strings.TrimSpace(name); raw != "" {
		if id, ok := reg.aliasExact[raw]; ok {
			return id, RuleAlias
		}
	}
	full := names.Normalize(name)
	if full == "" {
		return "", ""
	}
	if id, ok := reg.aliasNorm[full]; ok {
		return id, RuleAlias
	}

	if id, ok := reg.exactName[full]; ok {
		return id, RuleExactName
	}

	team := reg.normalizer.NormalizeTeam(name)
	if id, ok := reg.exactName[team]; ok {
		return id, RuleExactName
	}

	if cands := r.candidates(team); len(cands) == 1 {
		return cands[0], RuleForms
	} else if len(cands) > 1 {
		chosen := r.mostSpecific(cands)
		r.log.LogTieBreak(name, cands, chosen)
		return chosen, RuleForms
	}

	tokens := strings.Fields(team)
	for len(tokens) > 1 {
		tokens = tokens[:len(tokens)-1]
		if cands := r.candidates(strings.Join(tokens, " ")); len(cands) == 1 {
			return cands[0], RulePeeled
		}
	}

	if id := r.prefixMatch(name, full); id != "" {
		return id, RulePrefix
	}
	return "", ""
}

// candidates unions the canonical ids indexed under every form of norm.
func (r *Resolver) candidates(norm string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, form := range r.registry.normalizer.Forms(norm) {
		for _, id := range r.registry.forms[form] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return dedupeSorted(out)
}

// mostSpecific picks the candidate with the longest normalized team name;
// equal lengths fall back to the lowest canonical id.
func (r *Resolver) mostSpecific(ids []string) string {
	best := ids[0]
	for _, id := range ids[1:] {
		lb, li := len(r.registry.teamNorm[best]), len(r.registry.teamNorm[id])
		if li > lb || (li == lb && id < best) {
			best = id
		}
	}
	return best
}

// prefixMatch walks teams from the most to the least specific name. A
// canonical name that is a whole-word prefix of the input only matches when
// everything after it is mascot words; anything else is a long residual
// ("florida" inside "florida international") and is refused.
func (r *Resolver) prefixMatch(name, full string) string {
	reg := r.registry
	var extended []string
	for _, id := range reg.bySpecificity {
		cand := reg.fullNorm[id]
		if full == cand {
			return id
		}
		if strings.HasPrefix(full, cand+" ") {
			residual := strings.TrimPrefix(full, cand+" ")
			if r.mascotsOnly(residual) {
				return id
			}
			r.log.LogPrefixRejected(name, id, residual)
			continue
		}
		// the input must end on a word boundary of the candidate
		if strings.HasPrefix(cand, full+" ") {
			extended = append(extended, id)
		}
	}
	if len(extended) == 1 {
		return extended[0]
	}
	return ""
}

func (r *Resolver) mascotsOnly(residual string) bool {
	toks := strings.Fields(residual)
	if len(toks) == 0 {
		return false
	}
	for _, tok := range toks {
		if !r.registry.normalizer.IsMascot(tok) {
			return false
		}
	}
	return true
}
