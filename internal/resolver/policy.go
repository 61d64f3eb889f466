package resolver

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/m1227sasaki/company-enrichment/internal/model"
	"github.com/m1227sasaki/company-enrichment/internal/resilience"
)

// Policy controls per-stage retry behavior for external search stages. Some
// stages are cheap to skip on a rate limit, others are worth re-running;
// the policy file makes that choice explicit instead of hard-coding it.
type Policy struct {
	Default StagePolicy            `yaml:"default"`
	Stages  map[string]StagePolicy `yaml:"stages"`
}

// StagePolicy controls retry behavior for one stage.
type StagePolicy struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`

	// SkipOnRateLimit moves to the next stage immediately on a rate limit
	// instead of waiting out the backoff.
	SkipOnRateLimit bool `yaml:"skip_on_rate_limit"`
}

// DefaultPolicy gives every stage a single attempt: a failed search stage
// contributes no candidate and the pipeline moves on.
func DefaultPolicy() *Policy {
	return &Policy{
		Default: StagePolicy{MaxAttempts: 1},
	}
}

// LoadPolicy reads a stage policy from a YAML file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resolver: read policy %s", path)
	}

	var wrapper struct {
		Policy Policy `yaml:"policy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "resolver: parse policy")
	}

	p := &wrapper.Policy
	if p.Default.MaxAttempts <= 0 {
		p.Default.MaxAttempts = 1
	}
	return p, nil
}

// ForStage returns the policy for a stage, falling back to the default.
func (p *Policy) ForStage(stage model.Stage) StagePolicy {
	if sp, ok := p.Stages[string(stage)]; ok {
		if sp.MaxAttempts <= 0 {
			sp.MaxAttempts = p.Default.MaxAttempts
		}
		return sp
	}
	return p.Default
}

// RetryConfig converts a stage policy into a retry config for the stage's
// outer call.
func (sp StagePolicy) RetryConfig(stage model.Stage) resilience.RetryConfig {
	cfg := resilience.RetryConfig{
		MaxAttempts:    sp.MaxAttempts,
		InitialBackoff: sp.InitialBackoff,
		MaxBackoff:     sp.MaxBackoff,
		OnRetry:        resilience.RetryLogger("resolver", string(stage)),
	}
	if sp.SkipOnRateLimit {
		cfg.ShouldRetry = func(err error) bool {
			if _, ok := resilience.IsRateLimit(err); ok {
				return false
			}
			return resilience.IsTransient(err)
		}
	}
	return cfg
}
