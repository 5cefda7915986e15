package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescoach/backend/internal/domain"
)

const okResponse = `{
  "choices": [{"message": {"role": "assistant", "content": "  The Camry starts at $28,400.  "}}],
  "usage": {"prompt_tokens": 120, "completion_tokens": 12, "total_tokens": 132}
}`

func newTestClient(url string, retries int) *Client {
	return NewClient(Config{
		BaseURL:           url,
		APIKey:            "test-key",
		Model:             "test-model",
		RequestsPerSecond: 100,
		Burst:             10,
		MaxRetries:        retries,
	}, zerolog.Nop())
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{}, zerolog.Nop())

	assert.Equal(t, defaultBaseURL, client.cfg.BaseURL)
	assert.Equal(t, defaultModel, client.cfg.Model)
	assert.Equal(t, 3, client.cfg.MaxRetries)
	assert.NotNil(t, client.rateLimiter)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
	}
}

func TestChat_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		if !assert.Len(t, req.Messages, 2) {
			return
		}
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "You coach car sales staff.", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okResponse))
	}))
	defer server.Close()

	reply, usage, err := newTestClient(server.URL+"/", 1).Chat(context.Background(),
		"You coach car sales staff.", []domain.ChatMessage{{Role: "user", Content: "How much is the Camry?"}})
	require.NoError(t, err)
	assert.Equal(t, "The Camry starts at $28,400.", reply)
	require.NotNil(t, usage)
	assert.Equal(t, 132, usage.TotalTokens)
	assert.Equal(t, 120, usage.PromptTokens)
}

func TestChat_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(okResponse))
	}))
	defer server.Close()

	reply, _, err := newTestClient(server.URL, 2).Chat(context.Background(), "", []domain.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestChat_ClientErrorIsFinal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "bad key"}`))
	}))
	defer server.Close()

	_, _, err := newTestClient(server.URL, 3).Chat(context.Background(), "", []domain.ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExternalService))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestChat_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	_, _, err := newTestClient(server.URL, 1).Chat(context.Background(), "", nil)
	assert.True(t, errors.Is(err, domain.ErrExternalService))
}

func TestChat_NoAPIKey(t *testing.T) {
	_, _, err := NewClient(Config{}, zerolog.Nop()).Chat(context.Background(), "", nil)
	assert.True(t, errors.Is(err, domain.ErrExternalService))
}
