// Package vectorstore builds the configured vector index.
package vectorstore

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
)

// New returns the store selected by cfg.Type. Stores holding a connection
// also implement io.Closer.
func New(cfg config.VectorStoreConfig, log logrus.FieldLogger) (domain.VectorStore, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		key := ""
		if cfg.Qdrant.APIKeyEnv != "" {
			key = os.Getenv(cfg.Qdrant.APIKeyEnv)
		}
		return qdrant.NewStorage(qdrant.Config{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     key,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Qdrant.Collection,
		}, log)
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.Type)
	}
}
