// Package domaingen produces plausible domain candidates from a company name.
package domaingen

import (
	"regexp"
	"strings"

	"github.com/m1227sasaki/company-enrichment/internal/extract"
	"github.com/m1227sasaki/company-enrichment/internal/model"
	"github.com/m1227sasaki/company-enrichment/internal/namekit"
)

// tldOrder is the fixed, ordered top-level-domain list crossed with each
// base string. Order expresses prior likelihood of a company site.
var tldOrder = []string{
	"com", "net", "io", "co", "org", "ai", "app", "tech", "biz", "us",
	"digital", "media", "online", "site", "dev",
}

// MaxVariations caps the number of generated candidate URLs per company.
const MaxVariations = 15

// nameIsDomainPattern matches names that already are a bare domain, e.g.
// "acme.com" or "acme.co.uk". Stricter than the embedded-domain hint used
// later in the pipeline: the whole name must be the domain. Underscores are
// deliberately excluded since they never appear in registrable hostnames.
var nameIsDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]+\.(com|io|net|org|co|ai|app|tech|biz|us|co\.[a-z]{2}|com\.[a-z]{2})$`)

// embeddedDomainPattern finds a domain-looking substring anywhere inside the
// raw name ("Acme (acme.com)"). Looser than nameIsDomainPattern; a match is
// treated as highly reliable by the orchestrator.
var embeddedDomainPattern = regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9-]*(?:\.[a-zA-Z0-9][a-zA-Z0-9-]*)*\.(?:com|io|net|org|co|ai|app|tech|biz)\b`)

// NameIsDomain returns a single maximal-confidence candidate when the raw
// company name itself is a bare domain, bypassing the rest of the pipeline.
// The blocked-domain set applies here too: a name like "linkedin.com" must
// not short-circuit to a social network.
func NameIsDomain(rawName string) *model.ScoredCandidate {
	name := strings.ToLower(strings.TrimSpace(rawName))
	if !nameIsDomainPattern.MatchString(name) {
		return nil
	}
	if extract.IsBlockedHost(name) || !extract.ValidTLD(name) {
		return nil
	}
	return &model.ScoredCandidate{
		Candidate: model.Candidate{
			URL:   "https://www." + name,
			Stage: model.StageNameEmbeddedDomain,
		},
		Confidence: 1.0,
	}
}

// EmbeddedDomain detects a domain-looking substring inside the raw name that
// the stricter NameIsDomain pattern missed. Returns the candidate origin or
// "" when no valid, unblocked domain is embedded.
func EmbeddedDomain(rawName string) string {
	m := embeddedDomainPattern.FindString(strings.ToLower(rawName))
	if m == "" {
		return ""
	}
	return extract.First("https://" + m)
}

// Variations builds up to MaxVariations candidate URLs from the normalized
// name. More specific bases come first so later tie-breaking favors fuller
// name matches.
func Variations(rawName string) []model.Candidate {
	tokens := namekit.Tokens(rawName)
	raw := namekit.RawTokens(rawName)

	var bases []string
	add := func(b string) {
		if b == "" || len(b) < 2 {
			return
		}
		for _, seen := range bases {
			if seen == b {
				return
			}
		}
		bases = append(bases, b)
	}

	add(strings.Join(tokens, ""))
	if len(tokens) >= 2 {
		add(strings.Join(tokens[:2], ""))
	}
	if len(tokens) >= 3 {
		add(strings.Join(tokens[:3], ""))
	}
	if len(tokens) >= 1 {
		add(tokens[0])
	}
	add(namekit.Initials(tokens, 2, 5))
	// Unfiltered fallback: some companies brand with their legal suffix
	// (thetradedesk.com, weatherbyhealthcare.com).
	add(strings.Join(raw, ""))
	if len(raw) >= 2 {
		add(strings.Join(raw[:2], ""))
	}

	if len(bases) == 0 {
		return nil
	}

	// Spread the cap across bases so shorter bases still get their turn at
	// the front of the TLD list. Earlier (more specific) bases absorb any
	// remainder.
	perBase := MaxVariations / len(bases)
	if perBase < 1 {
		perBase = 1
	}
	remainder := MaxVariations - perBase*len(bases)

	var out []model.Candidate
	for i, base := range bases {
		quota := perBase
		if i == 0 && remainder > 0 {
			quota += remainder
		}
		for _, tld := range tldOrder {
			if quota == 0 || len(out) >= MaxVariations {
				break
			}
			// A generated guess can collide with a blocked host
			// ("face"+"book" builds facebook.com); never probe those.
			if extract.IsBlockedHost(base + "." + tld) {
				continue
			}
			out = append(out, model.Candidate{
				URL:   "https://www." + base + "." + tld,
				Stage: model.StageDomainVariation,
			})
			quota--
		}
	}
	return out
}
