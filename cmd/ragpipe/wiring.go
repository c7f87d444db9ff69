package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wealthlens/ragpipe/internal/adapters/anthropic"
	"github.com/wealthlens/ragpipe/internal/adapters/embed"
	"github.com/wealthlens/ragpipe/internal/adapters/hybrid"
	"github.com/wealthlens/ragpipe/internal/adapters/openai"
	"github.com/wealthlens/ragpipe/internal/adapters/qdrant"
	"github.com/wealthlens/ragpipe/internal/adapters/rerankhttp"
	"github.com/wealthlens/ragpipe/internal/breaker"
	"github.com/wealthlens/ragpipe/internal/cache"
	"github.com/wealthlens/ragpipe/internal/config"
	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/feedback"
	"github.com/wealthlens/ragpipe/internal/feedback/postgres"
	"github.com/wealthlens/ragpipe/internal/lexical"
	"github.com/wealthlens/ragpipe/internal/metrics"
	"github.com/wealthlens/ragpipe/internal/metrics/kafka"
	"github.com/wealthlens/ragpipe/internal/metrics/prom"
	"github.com/wealthlens/ragpipe/internal/obs"
	"github.com/wealthlens/ragpipe/internal/pipeline"
	"github.com/wealthlens/ragpipe/internal/pipeline/grade"
	"github.com/wealthlens/ragpipe/internal/retrieve"
)

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

// chatModel picks the ChatModel adapter the config has credentials for,
// preferring Anthropic (the grading/generation prompts in
// internal/prompt.Builtin were written for Claude's citation style).
func chatModel(cfg config.Config) domain.ChatModel {
	if cfg.Anthropic.APIKey != "" {
		return anthropic.New(anthropic.Config{
			APIKey: cfg.Anthropic.APIKey, BaseURL: cfg.Anthropic.BaseURL, Model: cfg.Anthropic.Model,
		}, http.DefaultClient)
	}
	return openai.New(openai.Config{
		APIKey: cfg.OpenAI.APIKey, BaseURL: cfg.OpenAI.BaseURL, Model: cfg.OpenAI.Model,
	}, http.DefaultClient)
}

func buildRetriever(ctx context.Context, cfg config.Config) (*hybrid.Store, error) {
	qstore, err := qdrant.New(ctx, qdrant.Config{
		Host: cfg.Qdrant.Host, Port: cfg.Qdrant.Port, UseTLS: cfg.Qdrant.UseTLS,
		APIKey: cfg.Qdrant.APIKey, Collection: cfg.Qdrant.Collection, Dimensions: cfg.Qdrant.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	embedder := embed.New(embed.Config{
		BaseURL: cfg.OpenAI.BaseURL, Model: "text-embedding-3-small", APIKey: cfg.OpenAI.APIKey,
	}, http.DefaultClient)
	return hybrid.New(qstore, lexical.New(), embedder), nil
}

func buildCache(cfg config.Config) (cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return cache.NewMemory(0), nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedis(cfg.Cache.RedisAddr, "", 0, "ragpipe:cache:", time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	}
	return cache.NewMemory(cfg.Cache.MaxSize), nil
}

func buildMetricsSink(cfg config.Config, registerer prometheus.Registerer) domain.MetricsSink {
	sinks := metrics.Multi{metrics.NewRingBuffer(1024), prom.NewSink(registerer)}
	if len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, kafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.Topic))
	}
	return sinks
}

func buildFeedbackSink(ctx context.Context, cfg config.Config) (domain.FeedbackSink, error) {
	if cfg.Postgres.DSN == "" {
		return &feedback.Memory{}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := postgres.NewStore(pool)
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init feedback schema: %w", err)
	}
	return store, nil
}

func buildPipeline(ctx context.Context, cfg config.Config) (*pipeline.Pipeline, error) {
	obs.InitLogger(cfg.Log.Path, cfg.Log.Level)

	retriever, err := buildRetriever(ctx, cfg)
	if err != nil {
		return nil, err
	}
	feedbackSink, err := buildFeedbackSink(ctx, cfg)
	if err != nil {
		return nil, err
	}

	respCache, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}
	model := chatModel(cfg)
	opts := []pipeline.Option{
		pipeline.WithLogger(obs.ZerologLogger{}),
		pipeline.WithMetrics(buildMetricsSink(cfg, prometheus.DefaultRegisterer)),
		pipeline.WithFeedback(feedbackSink),
		pipeline.WithCache(respCache),
		pipeline.WithBreaker(breaker.New(cfg.Breaker.Threshold, time.Duration(cfg.Breaker.ResetS)*time.Second)),
		pipeline.WithRetrieveOptions(retrieve.Options{
			KRetrieve: cfg.Retrieval.KRetrieve, WSemantic: cfg.Retrieval.WSemantic,
			WBM25: cfg.Retrieval.WBM25, Kappa: cfg.Retrieval.Kappa,
		}),
		pipeline.WithGradeOptions(grade.Options{
			Parallelism: cfg.Grader.Parallelism,
			CallTimeout: time.Duration(cfg.Grader.TimeoutMS) * time.Millisecond,
		}),
		pipeline.WithKRetrieve(cfg.Retrieval.KRetrieve),
		pipeline.WithKRerank(cfg.Retrieval.KRerank),
		pipeline.WithFallbackK(cfg.Pipeline.FallbackK),
		pipeline.WithInflightCap(cfg.Pipeline.InflightCap),
		pipeline.WithRequestDeadline(time.Duration(cfg.Pipeline.RequestDeadlineMS) * time.Millisecond),
		pipeline.WithFallbackDeadline(time.Duration(cfg.Pipeline.FallbackDeadlineMS) * time.Millisecond),
		pipeline.WithCacheTTL(time.Duration(cfg.Cache.TTLSeconds) * time.Second),
	}
	if cfg.Pipeline.ExpanderEnabled {
		opts = append(opts, pipeline.WithExpansion(model))
	}
	if cfg.Reranker.Host != "" {
		rerankClient := rerankhttp.New(rerankhttp.Config{
			Host: cfg.Reranker.Host, Model: cfg.Reranker.Model,
			Timeout: time.Duration(cfg.Reranker.TimeoutMS) * time.Millisecond,
		}, nil)
		opts = append(opts, pipeline.WithReranker(retrieve.ExternalReranker{Model: rerankClient}))
	}
	return pipeline.New(retriever, model, opts...), nil
}
