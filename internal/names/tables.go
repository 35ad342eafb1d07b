package names

// Tables holds the closed-set vocabularies used by the normalizer.
// A Tables value is never mutated after construction; use Extend to derive
// a new one.
type Tables struct {
	// Mascots are trailing team-name words dropped by NormalizeTeam.
	Mascots map[string]struct{}
	// TokenSynonyms maps a single token to its alternative spellings.
	TokenSynonyms map[string][]string
	// Acronyms maps a single token to the full school names it abbreviates.
	Acronyms map[string][]string
	// PersonSuffixes are generational suffix tokens dropped by NormalizePerson.
	PersonSuffixes map[string]struct{}
}

var defaultMascots = []string{
	"bulldogs", "wildcats", "tigers", "razorbacks", "longhorns", "aggies",
	"cardinals", "trojans", "warriors", "spartans", "panthers", "bears",
	"knights", "titans", "huskies", "hawks", "eagles", "owls", "pirates",
	"rams", "lions", "bobcats", "mustangs", "rebels", "gators", "seminoles",
	"volunteers", "bluejays", "dons", "broncos", "vikings", "blazers",
	"mountaineers", "colonials", "cougars", "gaels", "terriers", "bearcats",
}

var defaultTokenSynonyms = map[string][]string{
	"st":    {"state", "saint"},
	"state": {"st"},
	"saint": {"st"},
	"fla":   {"florida"},
	"ga":    {"georgia"},
	"ky":    {"kentucky"},
	"intl":  {"international"},
	"ft":    {"fort"},
	"mt":    {"mount"},
}

var defaultAcronyms = map[string][]string{
	"fiu":   {"florida international"},
	"fgcu":  {"florida gulf coast"},
	"ucf":   {"central florida"},
	"uic":   {"illinois chicago"},
	"umbc":  {"maryland baltimore county"},
	"umes":  {"maryland eastern shore"},
	"uncw":  {"north carolina wilmington"},
	"utsa":  {"texas san antonio"},
	"utrgv": {"texas rio grande valley"},
	"dbu":   {"dallas baptist"},
	"etsu":  {"east tennessee state"},
	"siue":  {"southern illinois edwardsville"},
	"sfa":   {"stephen f austin"},
	"csun":  {"cal state northridge"},
	"liu":   {"long island"},
	"njit":  {"new jersey institute of technology"},
	"usc":   {"south carolina", "southern california"},
}

var defaultPersonSuffixes = []string{"jr", "sr", "ii", "iii", "iv"}

// DefaultTables returns a fresh copy of the built-in vocabularies.
func DefaultTables() Tables {
	return Tables{
		Mascots:        toSet(defaultMascots),
		TokenSynonyms:  copyMulti(defaultTokenSynonyms),
		Acronyms:       copyMulti(defaultAcronyms),
		PersonSuffixes: toSet(defaultPersonSuffixes),
	}
}

// Extend returns a copy of t with extra mascots and acronym expansions added.
// Keys and values are normalized before insertion so config files can use
// display casing.
func (t Tables) Extend(mascots []string, acronyms map[string][]string) Tables {
	out := Tables{
		Mascots:        make(map[string]struct{}, len(t.Mascots)+len(mascots)),
		TokenSynonyms:  copyMulti(t.TokenSynonyms),
		Acronyms:       copyMulti(t.Acronyms),
		PersonSuffixes: make(map[string]struct{}, len(t.PersonSuffixes)),
	}
	for k := range t.Mascots {
		out.Mascots[k] = struct{}{}
	}
	for k := range t.PersonSuffixes {
		out.PersonSuffixes[k] = struct{}{}
	}
	for _, m := range mascots {
		if n := Normalize(m); n != "" {
			out.Mascots[n] = struct{}{}
		}
	}
	for k, vals := range acronyms {
		key := Normalize(k)
		if key == "" {
			continue
		}
		for _, v := range vals {
			if n := Normalize(v); n != "" && !contains(out.Acronyms[key], n) {
				out.Acronyms[key] = append(out.Acronyms[key], n)
			}
		}
	}
	return out
}

func toSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

func copyMulti(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
