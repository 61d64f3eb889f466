package score

import (
	"github.com/m1227sasaki/company-enrichment/internal/extract"
	"github.com/m1227sasaki/company-enrichment/internal/model"
)

// CrossValidate groups candidates by registrable domain and returns the
// first domain backed by at least minStages distinct pipeline stages,
// together with a representative candidate. Multiple independent signals
// agreeing outrank any one stage's confidence, so the caller may accept the
// returned candidate regardless of per-stage thresholds.
//
// Candidate order is preserved: with several qualifying domains, the one
// whose qualifying candidate appeared earliest wins.
func CrossValidate(candidates []model.ScoredCandidate, minStages int) (*model.ScoredCandidate, bool) {
	if minStages < 2 {
		minStages = DefaultCrossValidationMin
	}

	type group struct {
		stages map[model.Stage]bool
		first  *model.ScoredCandidate
	}
	groups := make(map[string]*group)

	for i := range candidates {
		c := &candidates[i]
		domain := extract.RegistrableDomain(c.URL)
		if domain == "" {
			continue
		}
		g := groups[domain]
		if g == nil {
			g = &group{stages: make(map[model.Stage]bool), first: c}
			groups[domain] = g
		}
		g.stages[c.Stage] = true
		if len(g.stages) >= minStages {
			return g.first, true
		}
	}

	return nil, false
}

// Best returns the candidate with the highest confidence, breaking ties by
// earlier position. Returns nil for an empty slice.
func Best(candidates []model.ScoredCandidate) *model.ScoredCandidate {
	var best *model.ScoredCandidate
	for i := range candidates {
		if best == nil || candidates[i].Confidence > best.Confidence {
			best = &candidates[i]
		}
	}
	return best
}
