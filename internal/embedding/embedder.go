// Package embedding builds the configured text embedder.
package embedding

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/cache"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
)

// New returns the embedder selected by cfg.Type.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "", "openai":
		return openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}

// WithCache wraps e in the Redis cache when cfg enables it. The returned
// close function releases the Redis connection and is never nil.
func WithCache(e domain.Embedder, cfg config.CacheConfig, log logrus.FieldLogger) (domain.Embedder, func() error, error) {
	noop := func() error { return nil }
	if !cfg.Enabled {
		return e, noop, nil
	}
	store, err := cache.NewRedisStore(cfg.RedisURL, time.Duration(cfg.TTLSecs)*time.Second)
	if err != nil {
		return nil, noop, err
	}
	if log != nil {
		log.WithFields(logrus.Fields{"embedder": e.Name(), "redis": cfg.RedisURL}).Info("embedding cache enabled")
	}
	return cache.Wrap(e, store, log), store.Close, nil
}
