// Package app wires the configured collaborators together.
package app

import (
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/feedback"
	"docqa/internal/generator"
	"docqa/internal/loader"
	"docqa/internal/perflog"
	"docqa/internal/service"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore"
)

type lazy[T any] struct {
	once sync.Once
	v    T
	err  error
}

func (l *lazy[T]) get(build func() (T, error)) (T, error) {
	l.once.Do(func() { l.v, l.err = build() })
	return l.v, l.err
}

// Registry builds each collaborator on first use and hands out the same
// instance afterwards. It is safe for concurrent use.
type Registry struct {
	cfg *config.AppConfig
	log logrus.FieldLogger

	embedder  lazy[domain.Embedder]
	store     lazy[domain.VectorStore]
	generator lazy[domain.Generator]
	chunker   lazy[domain.Chunker]
	service   lazy[*service.RAGServiceImpl]
	loadTest  lazy[*service.RAGServiceImpl]
	perf      lazy[*perflog.Logger]
	loadPerf  lazy[*perflog.Logger]
	feedback  lazy[*feedback.Logger]

	mu      sync.Mutex
	closers []func() error
}

func NewRegistry(cfg *config.AppConfig, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{cfg: cfg, log: log}
}

func (r *Registry) Config() *config.AppConfig { return r.cfg }

func (r *Registry) Logger() logrus.FieldLogger { return r.log }

func (r *Registry) Embedder() (domain.Embedder, error) {
	return r.embedder.get(func() (domain.Embedder, error) {
		e, err := embedding.New(r.cfg.Embedder)
		if err != nil {
			return nil, err
		}
		e, closeFn, err := embedding.WithCache(e, r.cfg.Cache, r.log)
		if err != nil {
			return nil, err
		}
		r.onClose(closeFn)
		return e, nil
	})
}

func (r *Registry) VectorStore() (domain.VectorStore, error) {
	return r.store.get(func() (domain.VectorStore, error) {
		s, err := vectorstore.New(r.cfg.VectorStore, r.log)
		if err != nil {
			return nil, err
		}
		if c, ok := s.(io.Closer); ok {
			r.onClose(c.Close)
		}
		return s, nil
	})
}

func (r *Registry) Generator() (domain.Generator, error) {
	return r.generator.get(func() (domain.Generator, error) {
		return generator.New(r.cfg.Generator, summarizer.NewFrequencySummarizer())
	})
}

func (r *Registry) Chunker() (domain.Chunker, error) {
	return r.chunker.get(func() (domain.Chunker, error) {
		c := r.cfg.Chunker
		return chunker.New(c.Type, c.ChunkSize, c.ChunkOverlap, c.SentencesPerChunk, c.OverlapSentences)
	})
}

// PerfLogger returns the performance logger for the configured log file.
func (r *Registry) PerfLogger() *perflog.Logger {
	l, _ := r.perf.get(func() (*perflog.Logger, error) {
		return perflog.New(r.cfg.Storage.PerformanceLog, r.log), nil
	})
	return l
}

// LoadTestPerfLogger returns the performance logger for load-test timings.
func (r *Registry) LoadTestPerfLogger() *perflog.Logger {
	l, _ := r.loadPerf.get(func() (*perflog.Logger, error) {
		return perflog.New(r.cfg.Storage.LoadTestLog, r.log), nil
	})
	return l
}

// Feedback returns the interaction logger for the configured store.
func (r *Registry) Feedback() *feedback.Logger {
	l, _ := r.feedback.get(func() (*feedback.Logger, error) {
		return feedback.NewLogger(r.cfg.Storage.InteractionsPath, r.log), nil
	})
	return l
}

// Service assembles the question-answering service from the other collaborators.
func (r *Registry) Service() (*service.RAGServiceImpl, error) {
	return r.service.get(func() (*service.RAGServiceImpl, error) {
		return r.newService(r.PerfLogger())
	})
}

// LoadTestService is a service that keeps its own ingest and response
// timings out of the performance log. The load test records its queries
// through LoadTestPerfLogger instead.
func (r *Registry) LoadTestService() (*service.RAGServiceImpl, error) {
	return r.loadTest.get(func() (*service.RAGServiceImpl, error) {
		return r.newService(nil)
	})
}

func (r *Registry) newService(perf *perflog.Logger) (*service.RAGServiceImpl, error) {
	ch, err := r.Chunker()
	if err != nil {
		return nil, err
	}
	emb, err := r.Embedder()
	if err != nil {
		return nil, err
	}
	store, err := r.VectorStore()
	if err != nil {
		return nil, err
	}
	gen, err := r.Generator()
	if err != nil {
		return nil, err
	}
	return service.NewRAGService(service.Deps{
		Loader:     loader.New(),
		Chunker:    ch,
		Embedder:   emb,
		Store:      store,
		Summarizer: summarizer.NewFrequencySummarizer(),
		Generator:  gen,
		Perf:       perf,
		Log:        r.log,
	}, service.Options{
		TopK:                r.cfg.Retrieval.TopK,
		SummaryMaxSentences: r.cfg.Summarizer.MaxSentences,
	}), nil
}

// Close releases connections opened by the collaborators, most recent first.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Registry) onClose(fn func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, fn)
}
