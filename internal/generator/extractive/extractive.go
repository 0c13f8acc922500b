// Package extractive answers offline by quoting the most representative
// sentences of the retrieved chunks.
package extractive

import (
	"context"
	"strings"

	"docqa/internal/domain"
)

// NoAnswer is returned when nothing was retrieved.
const NoAnswer = "No encontré información relevante en el documento."

type Generator struct {
	summarizer   domain.Summarizer
	maxSentences int
}

func New(summarizer domain.Summarizer, maxSentences int) *Generator {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Generator{summarizer: summarizer, maxSentences: maxSentences}
}

func (g *Generator) Name() string { return "extractive" }

func (g *Generator) Generate(_ context.Context, _ string, sources []domain.SearchResult) (domain.Generation, error) {
	texts := make([]string, 0, len(sources))
	for _, s := range sources {
		if t := strings.TrimSpace(s.Chunk.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return domain.Generation{Text: NoAnswer, Sources: sources}, nil
	}
	text, err := g.summarizer.Summarize(strings.Join(texts, "\n"), g.maxSentences)
	if err != nil {
		return domain.Generation{}, err
	}
	return domain.Generation{Text: text, Sources: sources}, nil
}
