package main

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/m1227sasaki/company-enrichment/internal/probe"
	"github.com/m1227sasaki/company-enrichment/internal/resilience"
	"github.com/m1227sasaki/company-enrichment/internal/resolver"
	"github.com/m1227sasaki/company-enrichment/internal/runner"
	"github.com/m1227sasaki/company-enrichment/internal/search"
	"github.com/m1227sasaki/company-enrichment/internal/store"
	anthropicpkg "github.com/m1227sasaki/company-enrichment/pkg/anthropic"
	"github.com/m1227sasaki/company-enrichment/pkg/jina"
	"github.com/m1227sasaki/company-enrichment/pkg/perplexity"
)

// resolverEnv holds the initialized store, resolver, and runner shared by
// the resolve/batch/serve commands.
type resolverEnv struct {
	Store    store.Store // nil when persistence is disabled
	Resolver *resolver.Resolver
	Runner   *runner.Runner
}

// Close releases resources held by the environment.
func (e *resolverEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates configuration for the given mode and wires the store,
// search backend, resolver, and runner. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*resolverEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	searcher := initSearcher()

	prober := probe.New(probe.WithHTTPClient(&http.Client{Timeout: cfg.Probe.Timeout()}))

	var policy *resolver.Policy
	if cfg.Search.PolicyFile != "" {
		policy, err = resolver.LoadPolicy(cfg.Search.PolicyFile)
		if err != nil {
			if st != nil {
				_ = st.Close()
			}
			return nil, eris.Wrap(err, "load stage policy")
		}
		zap.L().Info("stage policy loaded", zap.String("path", cfg.Search.PolicyFile))
	}

	res := resolver.New(prober, searcher, resolver.Config{
		AcceptThreshold:     cfg.Resolver.AcceptThreshold,
		StrongThreshold:     cfg.Resolver.StrongThreshold,
		CrossValidationMin:  cfg.Resolver.CrossValidationMin,
		ProbeConcurrency:    cfg.Resolver.ProbeConcurrency,
		PolitenessDelay:     cfg.Resolver.PolitenessDelay(),
		EnableModelJudgment: cfg.Resolver.EnableModelJudgment,
		Policy:              policy,
	})

	runnerOpts := []runner.Option{runner.WithWorkers(cfg.Batch.Workers)}
	if st != nil {
		runnerOpts = append(runnerOpts, runner.WithStore(st, cfg.Store.CacheTTL()))
	}

	return &resolverEnv{
		Store:    st,
		Resolver: res,
		Runner:   runner.New(res, runnerOpts...),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initSearcher builds the configured search backend behind a shared circuit
// breaker so a dead provider trips fast instead of timing out per company.
func initSearcher() search.Searcher {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		ShouldTrip: resilience.IsTransient,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("search circuit state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	if cfg.Search.Provider == "perplexity" {
		client := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model))
		return search.NewOneRound(client,
			search.WithOneRoundTimeout(cfg.Search.RoundTimeout()),
			search.WithOneRoundBreaker(breaker))
	}

	llm := anthropicpkg.NewClient(cfg.Anthropic.Key)
	web := jina.NewClient(cfg.Jina.Key, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	return search.NewAgent(llm, web,
		search.WithModel(cfg.Anthropic.Model),
		search.WithRoundTimeout(cfg.Search.RoundTimeout()),
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithBreaker(breaker))
}
