package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/loader"
	"docqa/internal/perflog"
	"docqa/internal/scoring"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore/memory"
)

const document = "Los gatos duermen muchas horas durante el día.\n\n" +
	"La fotosíntesis convierte la luz solar en energía química.\n\n" +
	"Los volcanes expulsan lava y ceniza durante una erupción."

type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	question string
	sources  []domain.SearchResult
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(_ context.Context, question string, sources []domain.SearchResult) (domain.Generation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.question, g.sources = question, sources
	if g.err != nil {
		return domain.Generation{}, g.err
	}
	return domain.Generation{Text: g.text, Sources: sources}, nil
}

type zeroEmbedder struct{}

func (zeroEmbedder) Name() string                  { return "zero" }
func (zeroEmbedder) Prepare(corpus []string) error { return nil }
func (zeroEmbedder) Dimension() int                { return 2 }
func (zeroEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{0, 0}, nil
}

type fixture struct {
	svc  *RAGServiceImpl
	gen  *fakeGenerator
	perf *perflog.Logger
	doc  string
}

func newFixture(t *testing.T, embedder domain.Embedder, topK int) *fixture {
	t.Helper()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "articulo.txt")
	require.NoError(t, os.WriteFile(docPath, []byte(document), 0o644))

	gen := &fakeGenerator{text: "La fotosíntesis convierte la luz solar."}
	perf := perflog.New(filepath.Join(dir, "performance_logs.txt"), logrus.New())
	svc := NewRAGService(Deps{
		Loader:     loader.New(),
		Chunker:    chunker.NewRecursiveChunker(80, 0),
		Embedder:   embedder,
		Store:      memory.NewStorage(),
		Summarizer: summarizer.NewFrequencySummarizer(),
		Generator:  gen,
		Perf:       perf,
		Log:        logrus.New(),
	}, Options{TopK: topK, SummaryMaxSentences: 1})
	return &fixture{svc: svc, gen: gen, perf: perf, doc: docPath}
}

func TestIngest_IndexesDocument(t *testing.T) {
	f := newFixture(t, tfidf.NewEmbedder(), 1)
	report, err := f.svc.Ingest(context.Background(), f.doc)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, "articulo.txt", report.Document.Title)
	assert.NotEmpty(t, report.Summary)
	assert.Positive(t, report.Elapsed)

	doc, ok := f.svc.Document()
	require.True(t, ok)
	assert.Equal(t, f.doc, doc.Path)
}

func TestAsk_RetrievesGeneratesAndScores(t *testing.T) {
	f := newFixture(t, tfidf.NewEmbedder(), 1)
	_, err := f.svc.Ingest(context.Background(), f.doc)
	require.NoError(t, err)

	question := "¿Cómo funciona la fotosíntesis?"
	answer, err := f.svc.Ask(context.Background(), "  "+question+" ")
	require.NoError(t, err)

	assert.Equal(t, question, answer.Question)
	assert.Equal(t, question, f.gen.question)
	require.Len(t, answer.Sources, 1)
	assert.Contains(t, answer.Sources[0].Chunk.Text, "fotosíntesis")
	assert.Equal(t, f.gen.text, answer.Text)
	assert.Equal(t, scoring.Score(answer.Text, question, 1), answer.Confidence)
	assert.Positive(t, answer.Elapsed)
}

func TestAskAndIngest_RecordTimings(t *testing.T) {
	f := newFixture(t, tfidf.NewEmbedder(), 2)
	_, err := f.svc.Ingest(context.Background(), f.doc)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Ask(context.Background(), "volcanes")
		require.NoError(t, err)
	}

	stats, err := perflog.Aggregate(f.perf.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, stats[perflog.OpProcessDocument].Count)
	assert.Equal(t, 3, stats[perflog.OpGetResponse].Count)
}

func TestAsk_LexicalFallback(t *testing.T) {
	f := newFixture(t, zeroEmbedder{}, 1)
	_, err := f.svc.Ingest(context.Background(), f.doc)
	require.NoError(t, err)

	answer, err := f.svc.Ask(context.Background(), "¿Cuánto duermen los gatos?")
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.True(t, strings.HasPrefix(answer.Sources[0].Chunk.Text, "Los gatos"))
	assert.Positive(t, answer.Sources[0].Score)
}

func TestAsk_Errors(t *testing.T) {
	f := newFixture(t, tfidf.NewEmbedder(), 1)

	_, err := f.svc.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = f.svc.Ask(context.Background(), "¿algo?")
	assert.ErrorIs(t, err, ErrNotIngested)

	_, err = f.svc.Ingest(context.Background(), f.doc)
	require.NoError(t, err)
	f.gen.err = errors.New("model offline")
	_, err = f.svc.Ask(context.Background(), "volcanes")
	assert.Error(t, err)

	stats, err := perflog.Aggregate(f.perf.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, stats[perflog.OpGetResponse].Count, "failed responses are still timed")
}

func TestIngest_EmptyDocumentFails(t *testing.T) {
	f := newFixture(t, tfidf.NewEmbedder(), 1)
	empty := filepath.Join(filepath.Dir(f.doc), "vacio.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n "), 0o644))

	_, err := f.svc.Ingest(context.Background(), empty)
	assert.Error(t, err)
	_, ok := f.svc.Document()
	assert.False(t, ok)

	stats, err := perflog.Aggregate(f.perf.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, stats[perflog.OpProcessDocument].Count)
}

func TestOverlapOchiai(t *testing.T) {
	q := map[string]struct{}{"gatos": {}, "perros": {}}
	assert.InDelta(t, 0.5, overlapOchiai(q, "gatos ratones"), 1e-9)
	assert.Zero(t, overlapOchiai(q, ""))
	assert.Zero(t, overlapOchiai(map[string]struct{}{}, "gatos"))
}
