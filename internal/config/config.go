// Package config loads application configuration from file and environment
// and owns the global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Probe      ProbeConfig      `yaml:"probe" mapstructure:"probe"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Resolver   ResolverConfig   `yaml:"resolver" mapstructure:"resolver"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend. Driver is "sqlite",
// "postgres", or "none" to disable persistence.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns      int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns      int32  `yaml:"min_conns" mapstructure:"min_conns"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// CacheTTL returns the resolution-cache lifetime.
func (c StoreConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// JinaConfig holds Jina search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ProbeConfig configures the liveness/title prober.
type ProbeConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-probe deadline.
func (c ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SearchConfig configures the external search adapter. Provider selects the
// backend: "agent" (Anthropic + Jina two-round exchange) or "perplexity"
// (single web-grounded call).
type SearchConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"`
	MaxResults       int    `yaml:"max_results" mapstructure:"max_results"`
	RoundTimeoutSecs int    `yaml:"round_timeout_secs" mapstructure:"round_timeout_secs"`
	PolicyFile       string `yaml:"policy_file" mapstructure:"policy_file"`
}

// RoundTimeout returns the per-round deadline for search exchanges.
func (c SearchConfig) RoundTimeout() time.Duration {
	return time.Duration(c.RoundTimeoutSecs) * time.Second
}

// ResolverConfig configures the orchestrator. Threshold and minimum values
// are deliberate configuration, not constants.
type ResolverConfig struct {
	AcceptThreshold     float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	StrongThreshold     float64 `yaml:"strong_threshold" mapstructure:"strong_threshold"`
	CrossValidationMin  int     `yaml:"cross_validation_min" mapstructure:"cross_validation_min"`
	ProbeConcurrency    int     `yaml:"probe_concurrency" mapstructure:"probe_concurrency"`
	PolitenessDelaySecs int     `yaml:"politeness_delay_secs" mapstructure:"politeness_delay_secs"`
	EnableModelJudgment bool    `yaml:"enable_model_judgment" mapstructure:"enable_model_judgment"`
}

// PolitenessDelay returns the pacing interval between external stages.
func (c ResolverConfig) PolitenessDelay() time.Duration {
	return time.Duration(c.PolitenessDelaySecs) * time.Second
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESOLVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "resolver.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.cache_ttl_hours", 168)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.workers", 2)
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("probe.timeout_secs", 10)
	v.SetDefault("search.provider", "agent")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.round_timeout_secs", 30)
	v.SetDefault("resolver.accept_threshold", 0.5)
	v.SetDefault("resolver.strong_threshold", 0.8)
	v.SetDefault("resolver.cross_validation_min", 2)
	v.SetDefault("resolver.probe_concurrency", 8)
	v.SetDefault("resolver.politeness_delay_secs", 2)
	v.SetDefault("resolver.enable_model_judgment", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required for the given run mode ("resolve",
// "batch", or "serve"). Collects every problem before reporting.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "resolve", "batch", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Search.Provider {
	case "agent":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required for the agent provider")
		}
		if c.Jina.Key == "" {
			problems = append(problems, "jina.key is required for the agent provider")
		}
	case "perplexity":
		if c.Perplexity.Key == "" {
			problems = append(problems, "perplexity.key is required for the perplexity provider")
		}
	default:
		problems = append(problems, "search.provider must be \"agent\" or \"perplexity\"")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "none":
	default:
		problems = append(problems, "store.driver must be \"sqlite\", \"postgres\", or \"none\"")
	}

	if t := c.Resolver.AcceptThreshold; t < 0 || t > 1 {
		problems = append(problems, "resolver.accept_threshold must be in [0, 1]")
	}
	if t := c.Resolver.StrongThreshold; t < 0 || t > 1 {
		problems = append(problems, "resolver.strong_threshold must be in [0, 1]")
	}
	if c.Resolver.CrossValidationMin < 1 {
		problems = append(problems, "resolver.cross_validation_min must be >= 1")
	}

	if mode == "batch" || mode == "serve" {
		if c.Batch.Workers < 1 || c.Batch.Workers > 3 {
			problems = append(problems, "batch.workers must be between 1 and 3")
		}
	}
	if mode == "serve" && c.Server.Port <= 0 {
		problems = append(problems, "server.port must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
