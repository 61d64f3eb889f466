package extract

import "strings"

// genericTLDs is the allowlist of generic top-level domains accepted for a
// candidate. Country codes are validated separately (any two-letter label).
var genericTLDs = map[string]bool{
	"com": true, "net": true, "org": true, "io": true, "co": true,
	"ai": true, "app": true, "tech": true, "biz": true, "info": true,
	"digital": true, "media": true, "online": true, "site": true,
	"dev": true, "agency": true, "studio": true, "solutions": true,
	"services": true, "systems": true, "group": true, "global": true,
	"health": true, "bio": true, "energy": true, "finance": true,
	"capital": true, "partners": true, "consulting": true, "law": true,
	"shop": true, "store": true, "cloud": true, "software": true,
	"travel": true, "xyz": true, "world": true, "life": true, "team": true,
	"works": true, "farm": true, "eco": true, "earth": true, "design": true,
	"expert": true, "engineering": true, "construction": true, "build": true,
	"gov": true, "edu": true, "mil": true,
}

// secondLevelPrefixes are labels that combine with a ccTLD to form a
// registrable suffix (acme.co.uk, acme.com.au).
var secondLevelPrefixes = map[string]bool{
	"co": true, "com": true, "net": true, "org": true, "ac": true, "gov": true,
}

func isCountryCode(label string) bool {
	if len(label) != 2 {
		return false
	}
	for _, r := range label {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// ValidTLD reports whether the host ends in an allowlisted top-level domain.
// It accepts generic TLDs, bare two-letter country codes, and two-label
// suffixes like co.uk or com.au. This filters out version numbers and file
// paths misread as domains.
func ValidTLD(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}

	last := labels[len(labels)-1]
	if genericTLDs[last] {
		return true
	}
	if !isCountryCode(last) {
		return false
	}
	// Bare ccTLD (acme.de) or second-level ccTLD (acme.co.uk). Both need a
	// real domain label in front of the suffix.
	if len(labels) >= 3 && secondLevelPrefixes[labels[len(labels)-2]] {
		return len(labels) >= 3
	}
	return true
}

// TLDWord returns the top-level-domain label of host without the dot, used
// by domain-similarity scoring to handle domain hacks like digit.bio.
func TLDWord(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	idx := strings.LastIndex(host, ".")
	if idx < 0 {
		return ""
	}
	return host[idx+1:]
}
