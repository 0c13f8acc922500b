// Package generator builds the configured answer generator.
package generator

import (
	"fmt"
	"time"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/generator/extractive"
	"docqa/internal/generator/llm"
)

// New returns the generator selected by cfg.Type. The summarizer backs the
// extractive generator.
func New(cfg config.GeneratorConfig, summarizer domain.Summarizer) (domain.Generator, error) {
	switch cfg.Type {
	case "", "llm":
		return llm.New(llm.Config{
			BaseURL:      cfg.OpenAI.BaseURL,
			APIKeyEnv:    cfg.OpenAI.APIKeyEnv,
			Model:        cfg.OpenAI.Model,
			Timeout:      time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			Temperature:  cfg.Temperature,
			SystemPrompt: cfg.SystemPrompt,
		})
	case "extractive":
		return extractive.New(summarizer, 3), nil
	default:
		return nil, fmt.Errorf("unknown generator type %q", cfg.Type)
	}
}
