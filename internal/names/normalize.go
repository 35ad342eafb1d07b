// Package names provides the string normalization shared by registry
// construction and every name lookup.
package names

import (
	"html"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize unescapes HTML entities, strips diacritics, lowercases, spells
// out "&", and reduces the result to single-spaced [a-z0-9 ] tokens.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := html.UnescapeString(raw)
	s = stripDiacritics(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ReplaceAll(s, "st.", "st")
	s = collapseWhitespace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return collapseWhitespace(b.String())
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFKD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalizer applies Normalize plus the table-driven team and person rules.
type Normalizer struct {
	tables Tables
}

// NewNormalizer returns a Normalizer bound to tables.
func NewNormalizer(tables Tables) *Normalizer {
	return &Normalizer{tables: tables}
}

// Default returns a Normalizer over DefaultTables.
func Default() *Normalizer {
	return NewNormalizer(DefaultTables())
}

// Tables returns the vocabularies the normalizer was built with.
func (n *Normalizer) Tables() Tables {
	return n.tables
}

// NormalizeTeam normalizes a team name and drops one trailing mascot word.
// Single-token names are never reduced to nothing.
func (n *Normalizer) NormalizeTeam(raw string) string {
	s := Normalize(raw)
	parts := strings.Fields(s)
	if len(parts) >= 2 {
		if _, ok := n.tables.Mascots[parts[len(parts)-1]]; ok {
			return strings.Join(parts[:len(parts)-1], " ")
		}
	}
	return s
}

// IsMascot reports whether tok is in the mascot vocabulary.
func (n *Normalizer) IsMascot(tok string) bool {
	_, ok := n.tables.Mascots[tok]
	return ok
}

// NormalizePerson normalizes a person name and drops generational suffixes.
func (n *Normalizer) NormalizePerson(raw string) string {
	parts := strings.Fields(Normalize(raw))
	out := parts[:0]
	for i, p := range parts {
		if _, ok := n.tables.PersonSuffixes[p]; ok && i > 0 {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, " ")
}

// Forms returns the sorted variant set of an already normalized team name:
// the name itself plus every single-token synonym or acronym substitution.
func (n *Normalizer) Forms(normName string) []string {
	tokens := strings.Fields(normName)
	if len(tokens) == 0 {
		return nil
	}
	set := map[string]struct{}{normName: {}}
	for i, tok := range tokens {
		alts := append(append([]string(nil), n.tables.TokenSynonyms[tok]...), n.tables.Acronyms[tok]...)
		for _, alt := range alts {
			variant := make([]string, 0, len(tokens)+2)
			variant = append(variant, tokens[:i]...)
			variant = append(variant, strings.Fields(alt)...)
			variant = append(variant, tokens[i+1:]...)
			if v := strings.Join(variant, " "); v != "" {
				set[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// TeamNamesMatch reports whether two team names are equal after team
// normalization or one is a whole-word prefix of the other.
func (n *Normalizer) TeamNamesMatch(a, b string) bool {
	na, nb := n.NormalizeTeam(a), n.NormalizeTeam(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.HasPrefix(na, nb+" ") || strings.HasPrefix(nb, na+" ")
}
