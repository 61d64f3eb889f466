// Package namekit tokenizes company names for domain generation and scoring.
package namekit

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are legal-entity suffixes and generic connective words that carry
// no signal for matching a company name against a domain or page title.
var stopwords = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true, "corporation": true,
	"plc": true, "pty": true, "llp": true, "lp": true, "pllc": true, "pc": true,
	"the": true, "and": true, "of": true, "for": true, "a": true, "an": true,
	"co": true, "company": true, "group": true, "holdings": true,
	"ventures": true, "limited": true, "incorporated": true,
	// Multi-locale legal abbreviations.
	"gmbh": true, "sarl": true, "srl": true, "bv": true, "nv": true,
	"ab": true, "oy": true, "as": true, "aps": true, "kk": true, "sa": true,
	"ag": true, "kg": true, "spa": true, "sl": true, "sro": true,
	"zoo": true, "sp": true, "oyj": true, "pvt": true,
}

// countrySuffixes maps a trailing legal-entity form to a country hint used to
// steer later search queries. Keys are matched against the lowercased,
// punctuation-stripped tail of the name, longest form first.
var countrySuffixes = []struct {
	suffix  string
	country string
}{
	{"pty ltd", "Australia"},
	{"sa de cv", "Mexico"},
	{"sp z oo", "Poland"},
	{"pvt ltd", "India"},
	{"gmbh", "Germany"},
	{"sarl", "France"},
	{"srl", "Italy"},
	{"spa", "Italy"},
	{"bv", "Netherlands"},
	{"nv", "Netherlands"},
	{"ab", "Sweden"},
	{"oy", "Finland"},
	{"oyj", "Finland"},
	{"aps", "Denmark"},
	{"as", "Norway"},
	{"ag", "Switzerland"},
	{"kk", "Japan"},
	{"sro", "Czech Republic"},
	{"plc", "United Kingdom"},
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// fold strips diacritics so "Café" and "Cafe" tokenize identically.
func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// splitAlnum lowercases the name and splits it on every non-alphanumeric run.
func splitAlnum(name string) []string {
	name = strings.ToLower(fold(name))
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Tokens returns the ordered lowercase alphanumeric keywords of a company
// name with stopwords removed. Pure and deterministic.
func Tokens(name string) []string {
	var out []string
	for _, t := range splitAlnum(name) {
		if stopwords[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// RawTokens returns all tokens including stopwords. Used as a fallback base
// for domain generation when the filtered tokens are too aggressive.
func RawTokens(name string) []string {
	return splitAlnum(name)
}

// CountryHint classifies the name's legal-entity suffix into a country, or
// returns "" when the suffix carries no locale signal.
func CountryHint(name string) string {
	tokens := splitAlnum(name)
	if len(tokens) == 0 {
		return ""
	}
	joined := strings.Join(tokens, " ")
	for _, cs := range countrySuffixes {
		if joined == cs.suffix || strings.HasSuffix(joined, " "+cs.suffix) {
			return cs.country
		}
	}
	return ""
}

// Initials builds an acronym from the first letter of each token. Returns ""
// unless the result is between min and max letters.
func Initials(tokens []string, min, max int) string {
	if len(tokens) < min || len(tokens) > max {
		return ""
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte(t[0])
	}
	return b.String()
}
