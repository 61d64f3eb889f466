// Package score computes candidate confidence against a company name.
//
// Two heuristics are provided: keyword-overlap in a fetched page title, and
// name/domain string similarity. Their outputs are both in [0,1] but are not
// numerically comparable with each other and must never be mixed within one
// comparison.
package score

import (
	"strings"

	"github.com/m1227sasaki/company-enrichment/internal/extract"
	"github.com/m1227sasaki/company-enrichment/internal/namekit"
)

// Defaults preserved from the source system. Both are configuration, not
// tuned constants; see resolver.Config.
const (
	// DefaultAcceptThreshold is the minimum confidence for a stage to
	// short-circuit with its candidate.
	DefaultAcceptThreshold = 0.5
	// DefaultStrongThreshold is the early high-confidence exit for the
	// official-site search stage.
	DefaultStrongThreshold = 0.8
	// DefaultCrossValidationMin is the number of distinct stages that must
	// agree on a registrable domain for cross-validation to accept it.
	DefaultCrossValidationMin = 2
)

// TitleKeyword scores a fetched page title against the company name:
// the fraction of name keywords (longer than two characters) found as
// case-insensitive substrings of the title. Zero when there is no title or
// no scorable keyword.
func TitleKeyword(companyName, title string) float64 {
	if title == "" {
		return 0
	}
	var keywords []string
	for _, t := range namekit.Tokens(companyName) {
		if len(t) > 2 {
			keywords = append(keywords, t)
		}
	}
	if len(keywords) == 0 {
		return 0
	}

	lower := strings.ToLower(title)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// DomainSimilarity scores how well a candidate URL's bare domain matches the
// company name keywords. Partial credit is awarded for shared prefixes and
// for TLD-as-keyword domain hacks (digit.bio for "Digital Biology"). With no
// scorable keywords the score is a neutral 0.5 so single-word or heavily
// abbreviated names are not rejected outright.
func DomainSimilarity(companyName, candidateURL string) float64 {
	domain := extract.RegistrableDomain(candidateURL)
	if domain == "" {
		return 0
	}
	tldWord := extract.TLDWord(domain)
	bare := strings.TrimSuffix(domain, "."+tldWord)
	bare = strings.ReplaceAll(bare, ".", "")
	combined := bare + tldWord

	var keywords []string
	for _, t := range namekit.Tokens(companyName) {
		if len(t) > 2 {
			keywords = append(keywords, t)
		}
	}
	if len(keywords) == 0 {
		return 0.5
	}

	total := 0.0
	for _, kw := range keywords {
		switch {
		case strings.Contains(combined, kw):
			total += 1.0
		case sharedPrefix(kw, bare) >= 4:
			total += 0.8
		case tldWord != "" && sharedPrefix(kw, tldWord) >= 2:
			total += 0.7
		case len(kw) >= 4 && strings.Contains(combined, kw[:4]):
			total += 0.4
		}
	}

	s := total / float64(len(keywords))
	if s > 1.0 {
		s = 1.0
	}
	return s
}

// sharedPrefix returns the length of the common prefix of a and b, capped
// at 5; anything longer is already a substring hit.
func sharedPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
		if n == 5 {
			break
		}
	}
	return n
}
