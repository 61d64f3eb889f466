// Package resolver sequences the resolution cascade: deterministic
// short-circuits first, then concurrent domain probing, then external
// searches, arbitrated by cross-validation and similarity scoring.
package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/m1227sasaki/company-enrichment/internal/model"
	"github.com/m1227sasaki/company-enrichment/internal/probe"
	"github.com/m1227sasaki/company-enrichment/internal/resilience"
	"github.com/m1227sasaki/company-enrichment/internal/score"
	"github.com/m1227sasaki/company-enrichment/internal/search"
)

// Config carries the orchestrator knobs. Thresholds default to the values
// the scoring package ships with; they are configuration, not constants, so
// operators can tune them without a rebuild.
type Config struct {
	AcceptThreshold     float64
	StrongThreshold     float64
	CrossValidationMin  int
	ProbeConcurrency    int
	PolitenessDelay     time.Duration
	EnableModelJudgment bool
	Policy              *Policy
}

func (c Config) withDefaults() Config {
	if c.AcceptThreshold <= 0 {
		c.AcceptThreshold = score.DefaultAcceptThreshold
	}
	if c.StrongThreshold <= 0 {
		c.StrongThreshold = score.DefaultStrongThreshold
	}
	if c.CrossValidationMin <= 0 {
		c.CrossValidationMin = score.DefaultCrossValidationMin
	}
	if c.ProbeConcurrency <= 0 {
		c.ProbeConcurrency = 8
	}
	if c.PolitenessDelay <= 0 {
		c.PolitenessDelay = 2 * time.Second
	}
	if c.Policy == nil {
		c.Policy = DefaultPolicy()
	}
	return c
}

// Resolver runs the full cascade for one company at a time.
type Resolver struct {
	stages []Stage
}

// New assembles the fixed-priority stage list.
func New(prober *probe.Prober, searcher search.Searcher, cfg Config) *Resolver {
	cfg = cfg.withDefaults()

	// One limiter shared by all sequential external stages paces calls to
	// the search backend.
	limiter := rate.NewLimiter(rate.Every(cfg.PolitenessDelay), 1)

	external := func(stage model.Stage, instruction func(model.CompanyQuery) string, strongExit bool) searchStage {
		return searchStage{
			stage:       stage,
			searcher:    searcher,
			instruction: instruction,
			limiter:     limiter,
			policy:      cfg.Policy.ForStage(stage),
			strong:      cfg.StrongThreshold,
			strongExit:  strongExit,
		}
	}

	stages := []Stage{
		nameIsDomainStage{},
		domainVariationStage{prober: prober, accept: cfg.AcceptThreshold, concurrency: cfg.ProbeConcurrency},
		external(model.StageOfficialSiteSearch, search.OfficialSiteInstruction, true),
		external(model.StageCompanySearch, search.CompanyInstruction, false),
		external(model.StageLinkedInProfile, search.LinkedInProfileInstruction, false),
		crossValidationStage{minStages: cfg.CrossValidationMin},
		embeddedDomainStage{},
		external(model.StageDirectoryLookup, search.DirectoryInstruction, false),
		external(model.StageLastResort, search.LastResortInstruction, false),
	}
	if cfg.EnableModelJudgment {
		stages = append(stages, modelJudgmentStage{
			searcher: searcher,
			limiter:  limiter,
			policy:   cfg.Policy.ForStage(model.StageModelJudgment),
		})
	}
	stages = append(stages, finalArbitrationStage{minStages: cfg.CrossValidationMin})

	return &Resolver{stages: stages}
}

// NewWithStages builds a resolver from an explicit stage list, used by tests
// and by callers that need a trimmed cascade.
func NewWithStages(stages ...Stage) *Resolver {
	return &Resolver{stages: stages}
}

// Resolve runs the cascade for one company. Stage failures are logged and
// skipped; only fatal backend errors (dead provider, bad credentials) abort
// the resolution so the batch can stop instead of mislabeling an outage as
// "Not Available".
func (r *Resolver) Resolve(ctx context.Context, q model.CompanyQuery) (model.Resolution, error) {
	if strings.TrimSpace(q.Name) == "" {
		return model.Resolution{}, eris.New("resolver: empty company name")
	}

	log := zap.L().With(zap.String("company", q.Name))
	st := &State{Query: q}

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			return model.Resolution{}, err
		}

		res, err := stage.Run(ctx, st)
		if err != nil {
			if resilience.IsFatal(err) || eris.Is(err, resilience.ErrCircuitOpen) {
				return model.Resolution{}, eris.Wrapf(err, "resolver: systemic failure in stage %s", stage.Name())
			}
			if ctx.Err() != nil {
				return model.Resolution{}, ctx.Err()
			}
			log.Warn("stage failed, continuing",
				zap.String("stage", string(stage.Name())),
				zap.Error(err))
			continue
		}
		if res != nil {
			log.Info("resolved",
				zap.String("url", res.URL),
				zap.String("method", string(res.Method)),
				zap.Int("retained", len(st.Retained)))
			return *res, nil
		}
	}

	// The arbitration stage is always terminal; reaching here means the
	// cascade was assembled without it.
	return model.Resolution{URL: model.NotAvailable, Method: model.MethodExhausted}, nil
}
