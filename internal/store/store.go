// Package store persists resolution runs and caches resolved websites so
// re-submitted companies short-circuit without re-running external stages.
package store

import (
	"context"
	"time"

	"github.com/m1227sasaki/company-enrichment/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status      model.RunStatus `json:"status,omitempty"`
	CompanyName string          `json:"company_name,omitempty"`
	Limit       int             `json:"limit,omitempty"`
	Offset      int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the resolution pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, company model.CompanyQuery) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.Resolution, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Resolution cache
	GetCachedResolution(ctx context.Context, companyName string) (*model.Resolution, error)
	SetCachedResolution(ctx context.Context, companyName string, res model.Resolution, ttl time.Duration) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
