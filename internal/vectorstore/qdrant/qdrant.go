// Package qdrant stores chunk vectors in a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 6334
	DefaultTimeout = 30 * time.Second
)

// Config holds connection details for the Qdrant server.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Timeout    time.Duration
}

// Storage is a VectorStore backed by a single cosine-distance collection.
type Storage struct {
	client     *qdrant.Client
	collection string
	timeout    time.Duration
	log        logrus.FieldLogger

	mu        sync.RWMutex
	dimension int
}

func NewStorage(cfg Config, log logrus.FieldLogger) (*Storage, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant: collection name is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &Storage{
		client:     client,
		collection: cfg.Collection,
		timeout:    cfg.Timeout,
		log:        log.WithFields(logrus.Fields{"component": "qdrant", "collection": cfg.Collection}),
	}, nil
}

// Init creates the collection if it does not exist yet.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.create(ctx)
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := make([]*qdrant.PointStruct, len(chunks))
	for i := range chunks {
		if len(vectors[i]) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		points[i] = toPoint(chunks[i], vectors[i])
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	s.log.WithField("points", len(points)).Debug("points upserted")
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 3
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(toFloat32(vector)),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dense search failed: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, fromScored(p))
	}
	return results, nil
}

// Clear drops the collection and, once a dimension is known, recreates it empty.
func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", s.collection, err)
		}
	}
	if s.dimension == 0 {
		return nil
	}
	return s.create(ctx)
}

func (s *Storage) Close() error { return s.client.Close() }

func (s *Storage) exists(ctx context.Context) (bool, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	for _, c := range collections {
		if c == s.collection {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) create(ctx context.Context) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	s.log.WithField("dimension", s.dimension).Info("collection created")
	return nil
}

// pointID maps a chunk ID onto the UUID space Qdrant accepts. The same
// chunk always lands on the same point.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("docqa:"+chunkID)).String()
}

func toPoint(ch domain.Chunk, vector []float64) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID(ch.ChunkID)),
		Vectors: qdrant.NewVectors(toFloat32(vector)...),
		Payload: qdrant.NewValueMap(map[string]any{
			"document_id": ch.DocumentID,
			"chunk_id":    ch.ChunkID,
			"index":       ch.Index,
			"text":        ch.Text,
		}),
	}
}

func fromScored(p *qdrant.ScoredPoint) domain.SearchResult {
	payload := p.GetPayload()
	return domain.SearchResult{
		Chunk: domain.Chunk{
			DocumentID: payload["document_id"].GetStringValue(),
			ChunkID:    payload["chunk_id"].GetStringValue(),
			Index:      int(payload["index"].GetIntegerValue()),
			Text:       payload["text"].GetStringValue(),
		},
		Score: float64(p.GetScore()),
	}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
