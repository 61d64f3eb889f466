// Package runner fans the resolution cascade out across a bounded worker
// pool. Workers pull one company at a time, report over a channel, and an
// aggregator folds results keyed by company ID so a cancelled batch still
// yields a coherent partial summary.
package runner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/m1227sasaki/company-enrichment/internal/model"
	"github.com/m1227sasaki/company-enrichment/internal/resilience"
	"github.com/m1227sasaki/company-enrichment/internal/store"
)

// Resolver resolves a single company. Satisfied by *resolver.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, q model.CompanyQuery) (model.Resolution, error)
}

// Result is one company's outcome within a batch.
type Result struct {
	Company    model.CompanyQuery
	Resolution model.Resolution
	FromCache  bool
	Err        error
}

// Summary aggregates a batch. Results is keyed by company ID (falling back
// to name when the input carried no ID).
type Summary struct {
	Results   map[string]Result
	Submitted int
	Processed int
	Succeeded int
	Failed    int
}

// FailedCompanies returns the inputs whose resolution errored, for selective
// re-run via Retry.
func (s *Summary) FailedCompanies() []model.CompanyQuery {
	var failed []model.CompanyQuery
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r.Company)
		}
	}
	return failed
}

// Runner applies a Resolver across many companies with bounded concurrency.
type Runner struct {
	resolver Resolver
	store    store.Store
	workers  int
	cacheTTL time.Duration
	stopped  atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds pool size. Values are clamped to [1, 3]; the external
// search providers throttle aggressively beyond that.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		switch {
		case n < 1:
			r.workers = 1
		case n > 3:
			r.workers = 3
		default:
			r.workers = n
		}
	}
}

// WithStore enables run persistence and the resolution cache. A nil store
// (the default) means no persistence.
func WithStore(st store.Store, cacheTTL time.Duration) Option {
	return func(r *Runner) {
		r.store = st
		r.cacheTTL = cacheTTL
	}
}

// New creates a Runner around the given resolver.
func New(res Resolver, opts ...Option) *Runner {
	r := &Runner{
		resolver: res,
		workers:  2,
		cacheTTL: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stop requests a cooperative halt: no new companies are started, in-flight
// resolutions run to completion. Safe to call from a signal handler.
func (r *Runner) Stop() {
	r.stopped.Store(true)
}

// Run resolves the given companies through the worker pool and returns the
// folded summary. Per-company failures are recorded and never stop the
// batch; a fatal backend error (dead provider, bad credentials) cancels the
// remaining work and is returned alongside the partial summary.
func (r *Runner) Run(ctx context.Context, companies []model.CompanyQuery) (*Summary, error) {
	r.stopped.Store(false)

	summary := &Summary{
		Results:   make(map[string]Result, len(companies)),
		Submitted: len(companies),
	}
	if len(companies) == 0 {
		return summary, nil
	}

	zap.L().Info("runner: starting batch",
		zap.Int("companies", len(companies)),
		zap.Int("workers", r.workers),
	)

	results := make(chan Result)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			summary.Results[resultKey(res.Company)] = res
			summary.Processed++
			if res.Err != nil {
				summary.Failed++
			} else {
				summary.Succeeded++
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, company := range companies {
		// The stop flag is checked between companies, never mid-resolution.
		if r.stopped.Load() || gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := r.resolveOne(gctx, company)

			select {
			case results <- res:
			case <-gctx.Done():
				return nil
			}

			if res.Err != nil && (resilience.IsFatal(res.Err) || eris.Is(res.Err, resilience.ErrCircuitOpen)) {
				r.stopped.Store(true)
				return eris.Wrapf(res.Err, "runner: fatal backend error on %q", company.Name)
			}
			return nil
		})
	}

	batchErr := g.Wait()
	close(results)
	<-done

	zap.L().Info("runner: batch complete",
		zap.Int("submitted", summary.Submitted),
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, batchErr
}

// Retry re-runs only the companies that failed in a prior batch.
func (r *Runner) Retry(ctx context.Context, prior *Summary) (*Summary, error) {
	failed := prior.FailedCompanies()
	if len(failed) == 0 {
		return &Summary{Results: map[string]Result{}}, nil
	}
	zap.L().Info("runner: retrying failures", zap.Int("companies", len(failed)))
	return r.Run(ctx, failed)
}

// resolveOne runs a single company to completion, consulting the resolution
// cache first and persisting the run record when a store is configured.
func (r *Runner) resolveOne(ctx context.Context, company model.CompanyQuery) Result {
	log := zap.L().With(zap.String("company", company.Name))

	if r.store != nil {
		if cached, err := r.store.GetCachedResolution(ctx, company.Name); err != nil {
			log.Warn("runner: cache lookup failed", zap.Error(err))
		} else if cached != nil {
			log.Info("runner: cache hit", zap.String("url", cached.URL))
			return Result{Company: company, Resolution: *cached, FromCache: true}
		}
	}

	var runID string
	if r.store != nil {
		run, err := r.store.CreateRun(ctx, company)
		if err != nil {
			log.Warn("runner: create run failed", zap.Error(err))
		} else {
			runID = run.ID
		}
	}

	resolution, err := r.resolver.Resolve(ctx, company)
	if err != nil {
		log.Error("runner: resolution failed", zap.Error(err))
		r.completeRun(ctx, runID, nil, err)
		return Result{Company: company, Err: err}
	}

	log.Info("runner: resolved",
		zap.String("url", resolution.URL),
		zap.String("method", string(resolution.Method)),
	)
	r.completeRun(ctx, runID, &resolution, nil)

	if r.store != nil && resolution.Resolved() {
		if err := r.store.SetCachedResolution(ctx, company.Name, resolution, r.cacheTTL); err != nil {
			log.Warn("runner: cache write failed", zap.Error(err))
		}
	}
	return Result{Company: company, Resolution: resolution}
}

func (r *Runner) completeRun(ctx context.Context, runID string, res *model.Resolution, runErr error) {
	if r.store == nil || runID == "" {
		return
	}
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := r.store.CompleteRun(ctx, runID, res, errMsg); err != nil {
		zap.L().Warn("runner: complete run failed", zap.String("run_id", runID), zap.Error(err))
	}
}

func resultKey(c model.CompanyQuery) string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}
