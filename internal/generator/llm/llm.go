// Package llm answers questions with a chat model behind an
// OpenAI-compatible endpoint, using retrieved chunks as context.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docqa/internal/domain"
)

const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "mistral"

	DefaultSystemPrompt = "Eres un asistente experto que siempre responde en español. " +
		"Tus respuestas deben ser claras, profesionales y basadas en el documento proporcionado. " +
		"Proporciona respuestas detalladas y bien estructuradas."
)

// Config configures the chat client.
type Config struct {
	BaseURL      string
	APIKeyEnv    string
	Model        string
	Timeout      time.Duration
	Temperature  float32
	SystemPrompt string
}

// Generator calls the chat completions API once per question. No
// conversation history is sent.
type Generator struct {
	client       *goopenai.Client
	model        string
	temperature  float32
	systemPrompt string
}

func New(cfg Config) (*Generator, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	key := ""
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" && strings.Contains(cfg.BaseURL, "api.openai.com") {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}

	oc := goopenai.DefaultConfig(key)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Generator{
		client:       goopenai.NewClientWithConfig(oc),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		systemPrompt: cfg.SystemPrompt,
	}, nil
}

func (g *Generator) Name() string { return "llm:" + g.model }

func (g *Generator) Generate(ctx context.Context, question string, sources []domain.SearchResult) (domain.Generation, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: Prompt(question, sources)},
		},
	}
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Generation{}, errors.New("chat completion returned no choices")
	}
	return domain.Generation{
		Text:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Sources: sources,
	}, nil
}

// Prompt lays out the numbered context fragments followed by the question.
func Prompt(question string, sources []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Usa los siguientes fragmentos del documento para responder la pregunta. ")
	b.WriteString("Si la respuesta no está en los fragmentos, dilo.\n\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, strings.TrimSpace(s.Chunk.Text))
	}
	b.WriteString("Pregunta: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}
