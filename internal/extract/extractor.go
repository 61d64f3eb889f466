// Package extract parses free-form text into validated website candidates.
//
// Input text may be raw search-result HTML or natural-language model output.
// The extractor returns the first URL that survives the blocked-domain and
// TLD checks, reduced to origin form.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// NotFoundSentinel is the literal token search instructions ask the external
// capability to emit when no website exists. Any text containing it yields
// no candidate.
const NotFoundSentinel = "NOTFOUND"

var (
	absoluteURLPattern = regexp.MustCompile(`https?://[^\s"'<>\)\]]+`)
	bareDomainPattern  = regexp.MustCompile(`\b[a-zA-Z0-9][a-zA-Z0-9-]*(?:\.[a-zA-Z0-9][a-zA-Z0-9-]*)+\b`)
)

// First scans text for the first qualifying website URL and returns its
// origin (scheme + host), or "" when nothing qualifies. Absolute http(s)
// URLs take priority; bare domains are a fallback and get an https scheme.
func First(text string) string {
	if text == "" || strings.Contains(text, NotFoundSentinel) {
		return ""
	}

	for _, m := range absoluteURLPattern.FindAllString(text, -1) {
		if origin := qualify(m); origin != "" {
			return origin
		}
	}

	for _, m := range bareDomainPattern.FindAllString(text, -1) {
		if origin := qualify("https://" + m); origin != "" {
			return origin
		}
	}

	return ""
}

// qualify validates a raw URL string and reduces it to origin form.
// Returns "" for blocked hosts, invalid TLDs, or unparseable input.
func qualify(raw string) string {
	raw = strings.TrimRight(raw, ".,;:!?'\"")

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || IsBlockedHost(host) || !ValidTLD(host) {
		return ""
	}

	return u.Scheme + "://" + host
}

// Origin reduces an already-trusted URL to scheme+host, lowercased. Returns
// "" when the URL does not parse.
func Origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + strings.ToLower(u.Hostname())
}

// RegistrableDomain strips scheme, www, port and path from a URL, yielding
// the unit compared during cross-validation.
func RegistrableDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		// Bare domain without scheme.
		host = strings.ToLower(strings.SplitN(raw, "/", 2)[0])
	}
	return strings.TrimPrefix(host, "www.")
}
