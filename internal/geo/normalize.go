// Package geo screens raw posting locations against the target market
// using lexical allow and block lists.
package geo

import (
	"regexp"
	"strings"

	"github.com/hiresignal/scout-cli/internal/model"
)

// Location is the structured result of normalizing a raw location string.
// City and State are best-effort extractions, not authoritative.
type Location struct {
	City       string
	State      string
	Country    string
	RemoteType model.RemoteType
	Admissible bool
}

// Config holds the allow and block lists for location screening.
type Config struct {
	AllowedHubs  []string `mapstructure:"allowed_hubs"`
	BlockedTerms []string `mapstructure:"blocked_terms"`
}

// DefaultAllowedHubs lists US market indicators: country terms, major
// tech-hub cities, and state names with their two-letter codes.
var DefaultAllowedHubs = []string{
	"united states", "usa", "us", "remote",
	"new york", "ny", "nyc", "manhattan", "brooklyn", "new jersey", "nj", "jersey city", "hoboken",
	"san francisco", "sf", "bay area", "palo alto", "mountain view", "sunnyvale", "menlo park",
	"santa clara", "san jose", "cupertino", "redwood city", "los angeles", "la", "san diego", "california", "ca",
	"seattle", "redmond", "bellevue", "washington", "wa",
	"austin", "dallas", "houston", "texas", "tx",
	"boston", "cambridge", "massachusetts", "ma",
	"chicago", "illinois", "il",
	"denver", "boulder", "colorado", "co",
	"washington dc", "d.c.", "virginia", "va", "maryland", "md",
}

// DefaultBlockedTerms lists unambiguous foreign-locale indicators.
// A hit here always wins over any allowlist match.
var DefaultBlockedTerms = []string{
	"india", "uk", "united kingdom", "london", "canada", "toronto", "vancouver", "ontario",
	"germany", "berlin", "munich", "france", "paris", "spain", "madrid", "barcelona",
	"australia", "sydney", "melbourne", "china", "japan", "tokyo", "singapore",
	"brazil", "mexico", "dubai", "uae", "netherlands", "amsterdam", "sweden", "stockholm",
	"bangalore", "mumbai", "delhi", "hyderabad", "pune", "chennai", "gurgaon", "noida", "kolkata", "ahmedabad",
	"emea", "apac", "latam",
}

// stateCodes pairs allowlisted state names with their postal codes so
// the State field can be filled opportunistically. Ordered so repeated
// runs extract the same state from multi-state strings.
var stateCodes = []struct{ name, code string }{
	{"new york", "NY"}, {"ny", "NY"},
	{"new jersey", "NJ"}, {"nj", "NJ"},
	{"california", "CA"}, {"ca", "CA"},
	{"washington", "WA"}, {"wa", "WA"},
	{"texas", "TX"}, {"tx", "TX"},
	{"massachusetts", "MA"}, {"ma", "MA"},
	{"illinois", "IL"}, {"il", "IL"},
	{"colorado", "CO"}, {"co", "CO"},
	{"virginia", "VA"}, {"va", "VA"},
	{"maryland", "MD"}, {"md", "MD"},
}

var statePatterns = make([]*regexp.Regexp, len(stateCodes))

func init() {
	for i, s := range stateCodes {
		statePatterns[i] = boundaryPattern(s.name)
	}
}

// maxCityLen caps what the comma heuristic will accept as a city name.
const maxCityLen = 40

// Normalizer classifies raw location strings. Matchers are compiled
// once at construction.
type Normalizer struct {
	blocked     []*regexp.Regexp
	shortAllows []*regexp.Regexp
	longAllows  []string
}

// NewNormalizer builds a Normalizer from the configured lists. Empty
// lists fall back to the package defaults.
func NewNormalizer(cfg Config) *Normalizer {
	hubs := cfg.AllowedHubs
	if len(hubs) == 0 {
		hubs = DefaultAllowedHubs
	}
	blocked := cfg.BlockedTerms
	if len(blocked) == 0 {
		blocked = DefaultBlockedTerms
	}

	n := &Normalizer{}
	for _, term := range blocked {
		n.blocked = append(n.blocked, boundaryPattern(term))
	}
	for _, hub := range hubs {
		// Short codes need strict boundaries ("ca" must not match
		// inside "africa"); longer names match as substrings so
		// "new york city metro" still hits "new york".
		if len(hub) <= 2 {
			n.shortAllows = append(n.shortAllows, boundaryPattern(hub))
		} else {
			n.longAllows = append(n.longAllows, strings.ToLower(hub))
		}
	}
	return n
}

func boundaryPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
}

// Normalize classifies a raw location string.
// Rules:
//   - remote-type by substring priority: remote, hybrid, onsite; no signal
//     defaults to onsite
//   - any blocked term (word-boundary match) forces non-admission
//   - otherwise admission requires an allowlist hit: word-boundary for
//     two-letter codes, substring for longer names
//   - empty input is never admissible
func (n *Normalizer) Normalize(raw string) Location {
	lower := strings.ToLower(strings.TrimSpace(raw))

	loc := Location{RemoteType: remoteType(lower)}

	for _, re := range n.blocked {
		if re.MatchString(lower) {
			loc.Country = "Non-US"
			return loc
		}
	}

	for _, re := range n.shortAllows {
		if re.MatchString(lower) {
			loc.Admissible = true
			break
		}
	}
	if !loc.Admissible {
		for _, hub := range n.longAllows {
			if strings.Contains(lower, hub) {
				loc.Admissible = true
				break
			}
		}
	}

	if loc.Admissible {
		loc.Country = "USA"
		loc.State = extractState(lower)
		loc.City = extractCity(raw)
	}
	return loc
}

func remoteType(lower string) model.RemoteType {
	switch {
	case strings.Contains(lower, "remote"):
		return model.RemoteTypeRemote
	case strings.Contains(lower, "hybrid"):
		return model.RemoteTypeHybrid
	default:
		return model.RemoteTypeOnsite
	}
}

// extractState returns the postal code for the first state name or code
// found on a word boundary.
func extractState(lower string) string {
	for i, re := range statePatterns {
		if re.MatchString(lower) {
			return stateCodes[i].code
		}
	}
	return ""
}

// extractCity applies the comma heuristic: the segment before the first
// comma, when short enough to plausibly be a city name.
func extractCity(raw string) string {
	head, _, found := strings.Cut(raw, ",")
	if !found {
		return ""
	}
	head = strings.TrimSpace(head)
	if head == "" || len(head) > maxCityLen || strings.EqualFold(head, "remote") {
		return ""
	}
	return head
}
