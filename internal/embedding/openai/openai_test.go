package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingResponse(w http.ResponseWriter, vec []float32) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"model":  "mistral",
		"data": []map[string]any{
			{"object": "embedding", "index": 0, "embedding": vec},
		},
	})
}

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url, Model: "mistral", MaxRetries: retries})
	require.NoError(t, err)
	c.retryDelay = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestClient_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embeddings", r.URL.Path)

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"hola mundo"}, body.Input)
		assert.Equal(t, "mistral", body.Model)

		embeddingResponse(w, []float32{0.5, 0.25, 0.125})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, 0)
	assert.Zero(t, c.Dimension())

	vec, err := c.Embed(context.Background(), "hola mundo")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25, 0.125}, vec)
	assert.Equal(t, 3, c.Dimension())
	assert.Equal(t, "openai:mistral", c.Name())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		embeddingResponse(w, []float32{1})
	}))
	defer server.Close()

	vec, err := newTestClient(t, server.URL, 5).Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, vec)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 5).Embed(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		embeddingResponse(w, nil)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 0).Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewClient_HostedEndpointNeedsKey(t *testing.T) {
	t.Setenv("DOCQA_TEST_KEY", "")
	_, err := NewClient(Config{BaseURL: "https://api.openai.com/v1", APIKeyEnv: "DOCQA_TEST_KEY"})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://localhost:11434/v1"})
	assert.NoError(t, err)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(1))
	assert.Equal(t, 5*time.Second, retryDelay(10))
	assert.Equal(t, 5*time.Second, retryDelay(80))
}
