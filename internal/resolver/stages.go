package resolver

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/m1227sasaki/company-enrichment/internal/domaingen"
	"github.com/m1227sasaki/company-enrichment/internal/extract"
	"github.com/m1227sasaki/company-enrichment/internal/model"
	"github.com/m1227sasaki/company-enrichment/internal/probe"
	"github.com/m1227sasaki/company-enrichment/internal/resilience"
	"github.com/m1227sasaki/company-enrichment/internal/score"
	"github.com/m1227sasaki/company-enrichment/internal/search"
)

// nameIsDomainStage short-circuits when the company name itself is a bare
// domain. Fully deterministic, no network.
type nameIsDomainStage struct{}

func (nameIsDomainStage) Name() model.Stage { return model.StageNameEmbeddedDomain }

func (nameIsDomainStage) Run(_ context.Context, st *State) (*model.Resolution, error) {
	sc := domaingen.NameIsDomain(st.Query.Name)
	if sc == nil {
		return nil, nil
	}
	return &model.Resolution{
		URL:        sc.URL,
		Method:     model.StageNameEmbeddedDomain,
		Confidence: model.Conf(sc.Confidence),
	}, nil
}

// embeddedDomainStage catches a domain-looking substring inside the name
// that the stricter whole-name pattern missed. A name containing
// "company.com" is taken at its word without further validation.
type embeddedDomainStage struct{}

func (embeddedDomainStage) Name() model.Stage { return model.StageNameEmbeddedDomain }

func (embeddedDomainStage) Run(_ context.Context, st *State) (*model.Resolution, error) {
	url := domaingen.EmbeddedDomain(st.Query.Name)
	if url == "" {
		return nil, nil
	}
	return &model.Resolution{
		URL:        url,
		Method:     model.StageNameEmbeddedDomain,
		Confidence: model.Conf(1.0),
	}, nil
}

// domainVariationStage probes generated domain guesses concurrently and
// scores live pages by title-keyword overlap.
type domainVariationStage struct {
	prober      *probe.Prober
	accept      float64
	concurrency int
}

func (domainVariationStage) Name() model.Stage { return model.StageDomainVariation }

func (s domainVariationStage) Run(ctx context.Context, st *State) (*model.Resolution, error) {
	candidates := domaingen.Variations(st.Query.Name)
	if len(candidates) == 0 {
		return nil, nil
	}

	scored := make([]*model.ScoredCandidate, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			page := s.prober.Title(gctx, c.URL)
			if page == nil {
				return nil
			}
			scored[i] = &model.ScoredCandidate{
				Candidate: model.Candidate{
					URL:      c.URL,
					Stage:    model.StageDomainVariation,
					Evidence: page.Title,
				},
				Confidence: score.TitleKeyword(st.Query.Name, page.Title),
			}
			return nil
		})
	}
	_ = g.Wait()

	// Highest score wins; generation order breaks ties.
	var best *model.ScoredCandidate
	for _, sc := range scored {
		if sc != nil && (best == nil || sc.Confidence > best.Confidence) {
			best = sc
		}
	}
	if best == nil {
		return nil, nil
	}

	if best.Confidence >= s.accept {
		return &model.Resolution{
			URL:        best.URL,
			Method:     model.StageDomainVariation,
			Confidence: model.Conf(best.Confidence),
		}, nil
	}

	st.Retain(*best)
	return nil, nil
}

// searchStage runs one external lookup. The instruction builder decides what
// is asked; strongExit enables the early high-confidence termination used by
// the official-site lookup.
type searchStage struct {
	stage       model.Stage
	searcher    search.Searcher
	instruction func(model.CompanyQuery) string
	limiter     *rate.Limiter
	policy      StagePolicy
	strong      float64
	strongExit  bool
}

func (s searchStage) Name() model.Stage { return s.stage }

func (s searchStage) Run(ctx context.Context, st *State) (*model.Resolution, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	answer, err := resilience.DoVal(ctx, s.policy.RetryConfig(s.stage), func(ctx context.Context) (string, error) {
		return s.searcher.FindURL(ctx, s.instruction(st.Query))
	})
	if err != nil {
		return nil, err
	}
	if search.IsNotFound(answer) {
		return nil, nil
	}

	url := extract.First(answer)
	if url == "" {
		return nil, nil
	}

	similarity := score.DomainSimilarity(st.Query.Name, url)
	if s.strongExit && similarity >= s.strong {
		return &model.Resolution{
			URL:        url,
			Method:     s.stage,
			Confidence: model.Conf(similarity),
		}, nil
	}

	st.Retain(model.ScoredCandidate{
		Candidate: model.Candidate{
			URL:      url,
			Stage:    s.stage,
			Evidence: answer,
		},
		Confidence: similarity,
	})
	return nil, nil
}

// crossValidationStage terminates when enough independent stages agree on
// the same registrable domain, regardless of individual scores.
type crossValidationStage struct {
	minStages int
}

func (crossValidationStage) Name() model.Stage { return model.MethodCrossValidated }

func (s crossValidationStage) Run(_ context.Context, st *State) (*model.Resolution, error) {
	winner, ok := score.CrossValidate(st.Retained, s.minStages)
	if !ok {
		return nil, nil
	}
	return &model.Resolution{
		URL:        winner.URL,
		Method:     model.MethodCrossValidated,
		Confidence: model.Conf(winner.Confidence),
	}, nil
}

// modelJudgmentStage asks the reasoning backend to arbitrate among retained
// candidates. The answer is accepted only when it names an already-retained
// URL; a fresh URL invented here is never trusted.
type modelJudgmentStage struct {
	searcher search.Searcher
	limiter  *rate.Limiter
	policy   StagePolicy
}

func (modelJudgmentStage) Name() model.Stage { return model.StageModelJudgment }

func (s modelJudgmentStage) Run(ctx context.Context, st *State) (*model.Resolution, error) {
	urls := st.RetainedURLs()
	if len(urls) < 2 {
		return nil, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	answer, err := resilience.DoVal(ctx, s.policy.RetryConfig(model.StageModelJudgment), func(ctx context.Context) (string, error) {
		return s.searcher.FindURL(ctx, search.JudgmentInstruction(st.Query, urls))
	})
	if err != nil {
		return nil, err
	}
	if search.IsNotFound(answer) {
		return nil, nil
	}

	picked := extract.First(answer)
	pickedDomain := extract.RegistrableDomain(picked)
	if pickedDomain == "" {
		return nil, nil
	}

	for _, sc := range st.Retained {
		if extract.RegistrableDomain(sc.URL) == pickedDomain {
			return &model.Resolution{
				URL:        sc.URL,
				Method:     model.StageModelJudgment,
				Confidence: model.Conf(sc.Confidence),
			}, nil
		}
	}

	zap.L().Debug("judgment answer not among retained candidates",
		zap.String("company", st.Query.Name),
		zap.String("picked", picked))
	return nil, nil
}

// finalArbitrationStage always terminates: cross-validation over everything
// retained, then the single best-scoring candidate, then Not Available.
type finalArbitrationStage struct {
	minStages int
}

func (finalArbitrationStage) Name() model.Stage { return model.MethodExhausted }

func (s finalArbitrationStage) Run(_ context.Context, st *State) (*model.Resolution, error) {
	if winner, ok := score.CrossValidate(st.Retained, s.minStages); ok {
		return &model.Resolution{
			URL:        winner.URL,
			Method:     model.MethodCrossValidated,
			Confidence: model.Conf(winner.Confidence),
		}, nil
	}

	// Retained confidences mix title and similarity scores, so the final
	// comparison re-ranks everything on domain similarity alone.
	var best *model.ScoredCandidate
	var bestSim float64
	for i := range st.Retained {
		sim := score.DomainSimilarity(st.Query.Name, st.Retained[i].URL)
		if best == nil || sim > bestSim {
			best = &st.Retained[i]
			bestSim = sim
		}
	}
	if best != nil {
		return &model.Resolution{
			URL:        best.URL,
			Method:     best.Stage,
			Confidence: model.Conf(bestSim),
		}, nil
	}

	return &model.Resolution{
		URL:    model.NotAvailable,
		Method: model.MethodExhausted,
	}, nil
}
