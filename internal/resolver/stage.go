package resolver

import (
	"context"

	"github.com/m1227sasaki/company-enrichment/internal/model"
)

// Stage is one step of the resolution cascade. A non-nil Resolution is
// terminal; an error means the stage produced nothing and the cascade
// continues, unless the error is fatal.
type Stage interface {
	Name() model.Stage
	Run(ctx context.Context, st *State) (*model.Resolution, error)
}

// State is the transient per-company pipeline state. It is owned by exactly
// one in-flight resolution and discarded when the resolution terminates.
type State struct {
	Query model.CompanyQuery

	// Retained accumulates low-confidence candidates carried forward for
	// cross-validation and final arbitration.
	Retained []model.ScoredCandidate
}

// Retain adds a candidate to the carry-forward list.
func (s *State) Retain(sc model.ScoredCandidate) {
	s.Retained = append(s.Retained, sc)
}

// RetainedURLs lists the distinct URLs retained so far, in retention order.
func (s *State) RetainedURLs() []string {
	seen := make(map[string]bool, len(s.Retained))
	var urls []string
	for _, sc := range s.Retained {
		if !seen[sc.URL] {
			seen[sc.URL] = true
			urls = append(urls, sc.URL)
		}
	}
	return urls
}
