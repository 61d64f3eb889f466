package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m1227sasaki/company-enrichment/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	company := model.CompanyQuery{ID: "row-1", Name: "Acme Robotics", EmployeeCountHint: "200"}
	run, err := s.CreateRun(ctx, company)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	res := &model.Resolution{URL: "https://acme.com", Method: model.StageDomainVariation, Confidence: model.Conf(1.0)}
	require.NoError(t, s.CompleteRun(ctx, run.ID, res, ""))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, company, got.Company)
	require.NotNil(t, got.Result)
	assert.Equal(t, "https://acme.com", got.Result.URL)
	assert.Equal(t, model.StageDomainVariation, got.Result.Method)
	assert.Empty(t, got.Error)
}

func TestSQLiteCompleteRunFailure(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, model.CompanyQuery{Name: "Broken Co"})
	require.NoError(t, err)

	require.NoError(t, s.CompleteRun(ctx, run.ID, nil, "search backend unreachable"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "search backend unreachable", got.Error)
	assert.Nil(t, got.Result)
}

func TestSQLiteCompleteRunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	err := s.CompleteRun(context.Background(), "missing", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, model.CompanyQuery{Name: "Alpha"})
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, model.CompanyQuery{Name: "Beta"})
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, a.ID, &model.Resolution{URL: model.NotAvailable, Method: model.MethodExhausted}, ""))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, "Alpha", complete[0].Company.Name)

	byName, err := s.ListRuns(ctx, RunFilter{CompanyName: "Beta"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, model.RunStatusQueued, byName[0].Status)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteResolutionCache(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	// Miss before set.
	got, err := s.GetCachedResolution(ctx, "Acme Robotics")
	require.NoError(t, err)
	assert.Nil(t, got)

	res := model.Resolution{URL: "https://acme.com", Method: model.MethodCrossValidated, Confidence: model.Conf(0.9)}
	require.NoError(t, s.SetCachedResolution(ctx, "Acme Robotics", res, time.Hour))

	got, err = s.GetCachedResolution(ctx, "Acme Robotics")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://acme.com", got.URL)
	assert.Equal(t, model.MethodCrossValidated, got.Method)
}

func TestSQLiteResolutionCacheUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SetCachedResolution(ctx, "Acme", model.Resolution{URL: "https://old.com"}, time.Hour))
	require.NoError(t, s.SetCachedResolution(ctx, "Acme", model.Resolution{URL: "https://new.com"}, time.Hour))

	got, err := s.GetCachedResolution(ctx, "Acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://new.com", got.URL)
}

func TestSQLiteResolutionCacheExpiry(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SetCachedResolution(ctx, "Stale Co", model.Resolution{URL: "https://stale.com"}, -time.Hour))

	got, err := s.GetCachedResolution(ctx, "Stale Co")
	require.NoError(t, err)
	assert.Nil(t, got)
}
