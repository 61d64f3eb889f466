// Package search adapts LLM and web-search backends into a single
// URL-finding interface the resolver stages call.
package search

import (
	"context"
	"strings"

	"github.com/m1227sasaki/company-enrichment/internal/extract"
)

// Searcher answers a natural-language instruction with text that should
// contain a single URL, or the not-found sentinel when no confident answer
// exists.
type Searcher interface {
	FindURL(ctx context.Context, instruction string) (string, error)
}

// IsNotFound reports whether an answer declares that no URL was found.
// Sentinel answers must never be mined for stray URLs.
func IsNotFound(answer string) bool {
	return strings.Contains(answer, extract.NotFoundSentinel)
}
