// Package cache memoizes embeddings so repeated texts (re-ingesting the
// same document, asking the same question) skip the remote model.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

// Store is a key/value backend for vectors.
type Store interface {
	Get(ctx context.Context, key string) ([]float64, bool, error)
	Set(ctx context.Context, key string, vec []float64) error
}

// Embedder wraps another embedder with a cache. Cache failures are logged
// and fall through to the wrapped embedder.
type Embedder struct {
	inner domain.Embedder
	store Store
	log   logrus.FieldLogger
}

func Wrap(inner domain.Embedder, store Store, log logrus.FieldLogger) *Embedder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Embedder{inner: inner, store: store, log: log.WithField("component", "embedding-cache")}
}

func (e *Embedder) Name() string                  { return e.inner.Name() }
func (e *Embedder) Prepare(corpus []string) error { return e.inner.Prepare(corpus) }

// Dimension reports the wrapped embedder's dimension.
func (e *Embedder) Dimension() int { return e.inner.Dimension() }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := Key(e.inner.Name(), text)
	vec, ok, err := e.store.Get(ctx, key)
	if err != nil {
		e.log.WithError(err).Warn("cache lookup failed")
	}
	if ok {
		return vec, nil
	}
	vec, err = e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.store.Set(ctx, key, vec); err != nil {
		e.log.WithError(err).Warn("cache write failed")
	}
	return vec, nil
}

// Key derives the cache key of text embedded by the named model.
func Key(model, text string) string {
	h := sha1.Sum([]byte(text))
	return model + ":" + hex.EncodeToString(h[:])
}
