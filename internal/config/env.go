package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// overrides are the DOCQA_* environment variables. Unset variables leave
// the file value alone.
type overrides struct {
	EmbedderType    string `env:"DOCQA_EMBEDDER"`
	EmbedderBaseURL string `env:"DOCQA_EMBEDDER_BASE_URL"`
	EmbedderModel   string `env:"DOCQA_EMBEDDER_MODEL"`

	GeneratorType string `env:"DOCQA_GENERATOR"`
	LLMBaseURL    string `env:"DOCQA_LLM_BASE_URL"`
	LLMModel      string `env:"DOCQA_LLM_MODEL"`

	VectorStoreType string `env:"DOCQA_VECTOR_STORE"`
	QdrantHost      string `env:"DOCQA_QDRANT_HOST"`
	QdrantPort      int    `env:"DOCQA_QDRANT_PORT"`

	RedisURL string `env:"DOCQA_REDIS_URL"`
	TopK     int    `env:"DOCQA_TOP_K"`

	InteractionsPath string `env:"DOCQA_INTERACTIONS_PATH"`
	PerformanceLog   string `env:"DOCQA_PERFORMANCE_LOG"`

	LogLevel string `env:"DOCQA_LOG_LEVEL"`
	LogFile  string `env:"DOCQA_LOG_FILE"`
}

func applyEnv(cfg *AppConfig) error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	set(&cfg.Embedder.Type, o.EmbedderType)
	set(&cfg.Embedder.OpenAI.BaseURL, o.EmbedderBaseURL)
	set(&cfg.Embedder.OpenAI.Model, o.EmbedderModel)
	set(&cfg.Generator.Type, o.GeneratorType)
	set(&cfg.Generator.OpenAI.BaseURL, o.LLMBaseURL)
	set(&cfg.Generator.OpenAI.Model, o.LLMModel)
	set(&cfg.VectorStore.Type, o.VectorStoreType)
	set(&cfg.VectorStore.Qdrant.Host, o.QdrantHost)
	if o.QdrantPort > 0 {
		cfg.VectorStore.Qdrant.Port = o.QdrantPort
	}
	if o.RedisURL != "" {
		cfg.Cache.RedisURL = o.RedisURL
		cfg.Cache.Enabled = true
	}
	if o.TopK > 0 {
		cfg.Retrieval.TopK = o.TopK
	}
	set(&cfg.Storage.InteractionsPath, o.InteractionsPath)
	set(&cfg.Storage.PerformanceLog, o.PerformanceLog)
	set(&cfg.Logging.Level, o.LogLevel)
	set(&cfg.Logging.File, o.LogFile)
	return nil
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
