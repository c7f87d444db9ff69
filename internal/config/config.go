// Package config loads the pipeline's runtime configuration: fusion
// weights, phase timeouts/parallelism, breaker thresholds, cache sizing,
// and the provider/connection settings for every adapter in
// internal/adapters, internal/cache, internal/feedback, and
// internal/metrics. Grounded on manifold's root config.go (the yaml.v2
// struct-tag layering of a single Config value, defaults applied on load,
// secrets filled in from environment/.env) generalized from manifold's own
// completions/embeddings/reranker sections to this pipeline's spec.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	yaml "gopkg.in/yaml.v2"
)

// RetrievalConfig configures hybrid fusion (spec.md §4.4).
type RetrievalConfig struct {
	KRetrieve int     `yaml:"k_retrieve"`
	KRerank   int     `yaml:"k_rerank"`
	WSemantic float64 `yaml:"w_semantic"`
	WBM25     float64 `yaml:"w_bm25"`
	Kappa     int     `yaml:"kappa"`
}

// GraderConfig configures the parallel grading fan-out (spec.md §4.6).
type GraderConfig struct {
	Parallelism  int `yaml:"parallelism"`
	TimeoutMS    int `yaml:"timeout_ms"`
	MaxRetries   int `yaml:"max_retries"`
}

// GeneratorConfig configures answer generation (spec.md §4.9).
type GeneratorConfig struct {
	TimeoutMS int `yaml:"timeout_ms"`
}

// PipelineConfig configures request-level resource limits (spec.md §5).
type PipelineConfig struct {
	RequestDeadlineMS  int  `yaml:"request_deadline_ms"`
	FallbackDeadlineMS int  `yaml:"fallback_deadline_ms"`
	InflightCap        int  `yaml:"inflight_cap"`
	ExpanderEnabled    bool `yaml:"expander_enabled"`
	FallbackK          int  `yaml:"fallback_k"`
}

// CacheConfig configures the response cache (spec.md §4.1).
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Backend    string `yaml:"backend"` // "memory" or "redis"
	TTLSeconds int    `yaml:"ttl_s"`
	MaxSize    int    `yaml:"max_size"`
	RedisAddr  string `yaml:"redis_addr,omitempty"`
}

// BreakerConfig configures the circuit breaker (spec.md §4.2).
type BreakerConfig struct {
	Threshold int `yaml:"threshold"`
	ResetS    int `yaml:"reset_s"`
}

// RerankerConfig configures the optional external HTTP reranker. Host empty
// means no external reranker is wired; ConfidenceReranker is used instead.
type RerankerConfig struct {
	Host      string `yaml:"host,omitempty"`
	Model     string `yaml:"model,omitempty"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// AnthropicConfig configures the Anthropic ChatModel adapter.
type AnthropicConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// OpenAIConfig configures the OpenAI ChatModel adapter.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// QdrantConfig configures the semantic-search adapter.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	UseTLS     bool   `yaml:"use_tls"`
	APIKey     string `yaml:"api_key,omitempty"`
	Collection string `yaml:"collection"`
	Dimensions int    `yaml:"dimensions"`
}

// PostgresConfig configures the feedback sink.
type PostgresConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// KafkaConfig configures the metrics sink transport.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic"`
}

// OTelConfig configures the metrics/tracing exporter.
type OTelConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	ServiceName string `yaml:"service_name"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path,omitempty"`
}

// Config is the complete, validated pipeline configuration.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	Retrieval RetrievalConfig `yaml:"retrieval"`
	Grader    GraderConfig    `yaml:"grader"`
	Generator GeneratorConfig `yaml:"generator"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Cache     CacheConfig     `yaml:"cache"`
	Breaker   BreakerConfig   `yaml:"breaker"`

	Reranker  RerankerConfig  `yaml:"reranker"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	OTel      OTelConfig      `yaml:"otel"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the spec-documented defaults (spec.md §9's Configuration
// design note).
func Default() Config {
	return Config{
		Host: "0.0.0.0",
		Port: 8080,
		Retrieval: RetrievalConfig{
			KRetrieve: 10, KRerank: 5, WSemantic: 0.6, WBM25: 0.4, Kappa: 60,
		},
		Grader: GraderConfig{Parallelism: 10, TimeoutMS: 3000, MaxRetries: 2},
		Generator: GeneratorConfig{TimeoutMS: 8000},
		Pipeline: PipelineConfig{
			RequestDeadlineMS: 15000, FallbackDeadlineMS: 5000,
			InflightCap: 32, ExpanderEnabled: false, FallbackK: 10,
		},
		Cache:    CacheConfig{Enabled: true, Backend: "memory", TTLSeconds: 900, MaxSize: 1000},
		Breaker:  BreakerConfig{Threshold: 5, ResetS: 60},
		Reranker: RerankerConfig{TimeoutMS: 5000},
		Anthropic: AnthropicConfig{Model: "claude-3-7-sonnet-latest"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o"},
		Qdrant:    QdrantConfig{Host: "localhost", Port: 6334, Collection: "wealth", Dimensions: 1536},
		Kafka:     KafkaConfig{Topic: "ragpipe.metrics"},
		OTel:      OTelConfig{ServiceName: "ragpipe"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path (if non-empty), applies defaults to any
// field it left zero, then overlays secrets from the environment (loading
// .env first, without overriding variables already set, mirroring
// manifold's config.go layering of file config plus env-var secrets).
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		loaded := Default()
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = loaded
	}

	applyEnvSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	log.Info().Str("path", path).Msg("config: loaded")
	return cfg, nil
}

func applyEnvSecrets(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("QDRANT_API_KEY")); v != "" {
		cfg.Qdrant.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("POSTGRES_DSN")); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate enforces the invariants spec.md §9 calls out explicitly, plus
// the structural constraints every downstream package assumes on
// construction.
func (c Config) Validate() error {
	if diff := c.Retrieval.WSemantic + c.Retrieval.WBM25 - 1.0; diff > 1e-6 || diff < -1e-6 {
		return fmt.Errorf("config: w_semantic (%.4f) + w_bm25 (%.4f) must equal 1", c.Retrieval.WSemantic, c.Retrieval.WBM25)
	}
	if c.Retrieval.KRetrieve <= 0 {
		return fmt.Errorf("config: retrieval.k_retrieve must be positive")
	}
	if c.Retrieval.KRerank <= 0 || c.Retrieval.KRerank > c.Retrieval.KRetrieve {
		return fmt.Errorf("config: retrieval.k_rerank must be positive and <= k_retrieve")
	}
	if c.Grader.Parallelism <= 0 {
		return fmt.Errorf("config: grader.parallelism must be positive")
	}
	if c.Breaker.Threshold <= 0 {
		return fmt.Errorf("config: breaker.threshold must be positive")
	}
	if c.Pipeline.InflightCap <= 0 {
		return fmt.Errorf("config: pipeline.inflight_cap must be positive")
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("config: cache.backend must be %q or %q, got %q", "memory", "redis", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("config: cache.redis_addr required when cache.backend is redis")
	}
	return nil
}
