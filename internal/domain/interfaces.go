package domain

import (
	"context"
	"time"
)

// Document represents a single source file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Title   string
	Content string
	Pages   int
}

// Chunk is a contiguous slice of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Generation is what an answer generator produced for one question.
type Generation struct {
	Text    string
	Sources []SearchResult
}

// Answer is the outcome of one question as presented to the user.
type Answer struct {
	Question   string
	Text       string
	Sources    []SearchResult
	Confidence float64
	Elapsed    time.Duration
}

// IngestReport describes a processed document.
type IngestReport struct {
	Document Document
	Chunks   int
	Summary  string
	Elapsed  time.Duration
}

// Loader reads a file into a Document.
type Loader interface {
	Load(path string) (Document, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Generator answers a question from retrieved chunks. There is no
// conversation history: every question is answered on its own.
type Generator interface {
	Name() string
	Generate(ctx context.Context, question string, sources []SearchResult) (Generation, error)
}

// RAGService defines the operations exposed by the application core.
type RAGService interface {
	Ingest(ctx context.Context, path string) (IngestReport, error)
	Ask(ctx context.Context, question string) (Answer, error)
}
