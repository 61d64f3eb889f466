package resolver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m1227sasaki/company-enrichment/internal/model"
	"github.com/m1227sasaki/company-enrichment/internal/resilience"
)

const samplePolicy = `
policy:
  default:
    max_attempts: 1
  stages:
    official_site_search:
      max_attempts: 3
      initial_backoff: 5s
      max_backoff: 60s
    last_resort:
      max_attempts: 2
      skip_on_rate_limit: true
`

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPolicy(t *testing.T) {
	p, err := LoadPolicy(writePolicy(t, samplePolicy))
	require.NoError(t, err)

	official := p.ForStage(model.StageOfficialSiteSearch)
	assert.Equal(t, 3, official.MaxAttempts)
	assert.Equal(t, 5*time.Second, official.InitialBackoff)
	assert.Equal(t, 60*time.Second, official.MaxBackoff)
	assert.False(t, official.SkipOnRateLimit)

	last := p.ForStage(model.StageLastResort)
	assert.Equal(t, 2, last.MaxAttempts)
	assert.True(t, last.SkipOnRateLimit)

	// Unlisted stages fall back to the default policy.
	other := p.ForStage(model.StageCompanySearch)
	assert.Equal(t, 1, other.MaxAttempts)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadPolicyMalformed(t *testing.T) {
	_, err := LoadPolicy(writePolicy(t, "policy: [not a map"))
	require.Error(t, err)
}

func TestStagePolicyRetryConfigSkipsRateLimit(t *testing.T) {
	sp := StagePolicy{MaxAttempts: 3, SkipOnRateLimit: true}
	cfg := sp.RetryConfig(model.StageLastResort)

	require.NotNil(t, cfg.ShouldRetry)
	assert.False(t, cfg.ShouldRetry(resilience.NewRateLimitError(eris.New("429"), 0)))
	assert.True(t, cfg.ShouldRetry(resilience.NewTransientError(eris.New("down"), 503)))
}

func TestDefaultPolicySingleAttempt(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 1, p.ForStage(model.StageDirectoryLookup).MaxAttempts)
}
