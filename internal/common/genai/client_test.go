package genai

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

	"nlq-workers/internal/common/config"
)

// ==========================
// Test Helper Functions
// ==========================

const testTemplate = "Generate a SQL query for the table {tableName} with columns {columns}. Query: {query}"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.GenAIConfig{
		BaseURL:     srv.URL + "/",
		APIKey:      "test-key",
		MaxTokens:   256,
		Temperature: 0.1,
		MaxRetries:  2,
	})
	require.NotNil(t, c)
	c.backoff = time.Millisecond
	return c
}

func TestNewClient_Unconfigured(t *testing.T) {
	assert.Nil(t, NewClient(config.GenAIConfig{}))
}

func TestClient_Complete(t *testing.T) {
	var got generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/generate", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "SELECT * FROM AuditLog LIMIT 5"})
	})

	vars := map[string]string{"query": "latest actions", "tableName": "AuditLog", "columns": "id, action"}
	text, err := c.Complete(context.Background(), testTemplate, vars)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM AuditLog LIMIT 5", text)
	assert.Equal(t, testTemplate, got.Template)
	assert.Equal(t, vars, got.Variables)
	assert.Contains(t, got.Prompt, "for the table AuditLog with columns id, action")
	assert.Equal(t, 256, got.MaxTokens)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "ok"})
	})

	text, err := c.Complete(context.Background(), "{query}", map[string]string{"query": "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Complete(context.Background(), "{query}", nil)
	assert.ErrorIs(t, err, ErrLLMGenerationFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "{query}", nil)
	assert.ErrorIs(t, err, ErrLLMTimeout)
}

func TestRenderPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{"all bound", testTemplate, map[string]string{"query": "how many", "tableName": "AuditLog", "columns": "id, action"},
			"Generate a SQL query for the table AuditLog with columns id, action. Query: how many"},
		{"values are not expanded again", "{query}", map[string]string{"query": "{columns}", "columns": "id"}, "{columns}"},
		{"unknown placeholder kept", "{query} {other}", map[string]string{"query": "x"}, "x {other}"},
		{"no vars", "{query}", nil, "{query}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderPrompt(tt.template, tt.vars))
		})
	}
}
