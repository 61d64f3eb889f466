package extract

import "strings"

// blockedDomains are hosts that can never be a company's own website:
// social networks, search engines, video platforms, encyclopedias, news and
// financial media, and business/people directories. Matched by suffix so
// subdomains (e.g. uk.linkedin.com) are caught too.
var blockedDomains = []string{
	// Social networks.
	"linkedin.com", "facebook.com", "twitter.com", "x.com", "instagram.com",
	"tiktok.com", "pinterest.com", "reddit.com", "medium.com", "threads.net",
	// Search engines.
	"google.com", "bing.com", "yahoo.com", "duckduckgo.com", "baidu.com",
	"yandex.com",
	// Video platforms.
	"youtube.com", "vimeo.com", "dailymotion.com",
	// Encyclopedias.
	"wikipedia.org", "wikidata.org", "fandom.com",
	// News and financial media.
	"bloomberg.com", "reuters.com", "forbes.com", "wsj.com", "ft.com",
	"cnbc.com", "businessinsider.com", "techcrunch.com", "nytimes.com",
	"prnewswire.com", "businesswire.com", "globenewswire.com",
	// Business and people directories.
	"crunchbase.com", "pitchbook.com", "zoominfo.com", "apollo.io",
	"dnb.com", "opencorporates.com", "glassdoor.com", "indeed.com",
	"yelp.com", "bbb.org", "manta.com", "yellowpages.com", "owler.com",
	"craft.co", "tracxn.com", "dealroom.co", "signalhire.com",
	"rocketreach.co", "lusha.com", "kompass.com", "europages.com",
	// Hosting/app platforms that show up in search noise.
	"github.com", "gitlab.com", "angel.co", "wellfound.com",
	"sites.google.com", "wordpress.com", "wix.com", "squarespace.com",
	"amazonaws.com", "cloudfront.net",
}

// IsBlockedHost reports whether host (no scheme, no port) belongs to the
// blocked-domain set, including any subdomain of a blocked entry.
func IsBlockedHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, b := range blockedDomains {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}
