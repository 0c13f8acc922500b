package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
	"docqa/internal/perflog"
	"docqa/internal/scoring"
	"docqa/internal/textutil"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNotIngested   = errors.New("no document has been processed yet")
)

// Options tunes retrieval and the ingest summary.
type Options struct {
	TopK                int
	SummaryMaxSentences int
}

// Deps are the collaborators the service drives.
type Deps struct {
	Loader     domain.Loader
	Chunker    domain.Chunker
	Embedder   domain.Embedder
	Store      domain.VectorStore
	Summarizer domain.Summarizer
	Generator  domain.Generator
	Perf       *perflog.Logger
	Log        logrus.FieldLogger
}

type RAGServiceImpl struct {
	Deps
	opts Options

	mu     sync.RWMutex
	doc    *domain.Document
	chunks []domain.Chunk
}

func NewRAGService(deps Deps, opts Options) *RAGServiceImpl {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.SummaryMaxSentences <= 0 {
		opts.SummaryMaxSentences = 5
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	deps.Log = deps.Log.WithField("component", "service")
	return &RAGServiceImpl{Deps: deps, opts: opts}
}

// Ingest loads, chunks, embeds and indexes one document, replacing whatever
// was indexed before. The whole run is recorded as one document-processing
// timing.
func (s *RAGServiceImpl) Ingest(ctx context.Context, path string) (domain.IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, elapsed, err := perflog.Measure(s.Perf, perflog.OpProcessDocument, func() (domain.IngestReport, error) {
		return s.ingest(ctx, path)
	})
	if err != nil {
		s.Log.WithError(err).WithField("path", path).Error("document processing failed")
		return domain.IngestReport{}, err
	}
	report.Elapsed = elapsed
	s.Log.WithFields(logrus.Fields{
		"path":    path,
		"chunks":  report.Chunks,
		"elapsed": elapsed,
	}).Info("document processed")
	return report, nil
}

func (s *RAGServiceImpl) ingest(ctx context.Context, path string) (domain.IngestReport, error) {
	doc, err := s.Loader.Load(path)
	if err != nil {
		return domain.IngestReport{}, err
	}
	chunks, err := s.Chunker.Chunk(doc)
	if err != nil {
		return domain.IngestReport{}, err
	}
	if len(chunks) == 0 {
		return domain.IngestReport{}, fmt.Errorf("no text could be extracted from %s", path)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := s.Embedder.Prepare(texts); err != nil {
		return domain.IngestReport{}, err
	}
	vectors := make([][]float64, len(chunks))
	for i := range chunks {
		vec, err := s.Embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return domain.IngestReport{}, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		vectors[i] = vec
	}
	// The dimension is only known once a vector came back.
	if err := s.Store.Init(ctx, len(vectors[0])); err != nil {
		return domain.IngestReport{}, err
	}
	if err := s.Store.Clear(ctx); err != nil {
		return domain.IngestReport{}, err
	}
	if err := s.Store.Upsert(ctx, chunks, vectors); err != nil {
		return domain.IngestReport{}, err
	}
	summary, err := s.Summarizer.Summarize(doc.Content, s.opts.SummaryMaxSentences)
	if err != nil {
		return domain.IngestReport{}, err
	}

	s.doc = &doc
	s.chunks = chunks
	return domain.IngestReport{Document: doc, Chunks: len(chunks), Summary: summary}, nil
}

// Ask answers question from the ingested document and scores the answer.
// Retrieval and generation are recorded as one response timing.
func (s *RAGServiceImpl) Ask(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, ErrEmptyQuestion
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return domain.Answer{}, ErrNotIngested
	}

	gen, elapsed, err := perflog.Measure(s.Perf, perflog.OpGetResponse, func() (domain.Generation, error) {
		sources, err := s.retrieve(ctx, question)
		if err != nil {
			return domain.Generation{}, err
		}
		return s.Generator.Generate(ctx, question, sources)
	})
	if err != nil {
		s.Log.WithError(err).Error("answer generation failed")
		return domain.Answer{}, err
	}
	answer := domain.Answer{
		Question:   question,
		Text:       gen.Text,
		Sources:    gen.Sources,
		Confidence: scoring.Score(gen.Text, question, len(gen.Sources)),
		Elapsed:    elapsed,
	}
	s.Log.WithFields(logrus.Fields{
		"sources":    len(answer.Sources),
		"confidence": fmt.Sprintf("%.1f", answer.Confidence),
		"elapsed":    elapsed,
	}).Debug("question answered")
	return answer, nil
}

// Document returns the currently indexed document, if any.
func (s *RAGServiceImpl) Document() (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return domain.Document{}, false
	}
	return *s.doc, true
}

// retrieve embeds the question and searches the index, falling back to
// lexical overlap when the embedding carries no signal.
func (s *RAGServiceImpl) retrieve(ctx context.Context, query string) ([]domain.SearchResult, error) {
	vec, err := s.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if isZero(vec) {
		return s.lexicalSearch(query, s.opts.TopK), nil
	}
	res, err := s.Store.Search(ctx, vec, s.opts.TopK)
	if err != nil {
		return nil, err
	}
	allZero := true
	for _, r := range res {
		if r.Score > 1e-9 {
			allZero = false
			break
		}
	}
	if allZero {
		return s.lexicalSearch(query, s.opts.TopK), nil
	}
	return res, nil
}

func (s *RAGServiceImpl) lexicalSearch(query string, topK int) []domain.SearchResult {
	qset := textutil.WordSet(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(s.chunks))
	for i, ch := range s.chunks {
		scores[i] = pair{i, overlapOchiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	topK = min(topK, len(scores))
	out := make([]domain.SearchResult, 0, topK)
	for _, p := range scores[:topK] {
		out = append(out, domain.SearchResult{Chunk: s.chunks[p.idx], Score: p.score})
	}
	return out
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct words.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	seen := textutil.WordSet(text)
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
