package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completionRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) CompletionClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewCompletionClient(&LLMConfig{
		Model:       "llama-3.1-70b-versatile",
		APIKey:      "test-key",
		BaseURL:     server.URL + "/openai/v1/",
		Temperature: 0.8,
	})
	require.NoError(t, err)
	return client
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":`+
		mustJSON(content)+`},"finish_reason":"stop"}]}`)
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompletionClient_Success(t *testing.T) {
	var got completionRequest
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, "Halo juga!")
	})

	reply, err := client.Complete(context.Background(), []Message{
		SystemPrompt("persona"),
		UserMessage("Hello"),
		AssistantMessage("Hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Halo juga!", reply)

	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "llama-3.1-70b-versatile", got.Model)
	assert.InDelta(t, 0.8, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
}

func TestCompletionClient_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantErr    error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"id":"c1","choices":[]}`)
			},
			wantStatus: http.StatusOK,
			wantErr:    ErrMalformedResponse,
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeCompletion(w, "  ")
			},
			wantStatus: http.StatusOK,
			wantErr:    ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.Complete(context.Background(), []Message{UserMessage("hi")})
			require.Error(t, err)

			var transportErr *CompletionTransportError
			require.ErrorAs(t, err, &transportErr)
			assert.Equal(t, tt.wantStatus, transportErr.StatusCode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCompletionClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, []Message{UserMessage("hi")})
	var transportErr *CompletionTransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 0, transportErr.StatusCode)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewCompletionClient_Validation(t *testing.T) {
	_, err := NewCompletionClient(nil)
	assert.Error(t, err)

	_, err = NewCompletionClient(&LLMConfig{APIKey: "k"})
	assert.Error(t, err)
}

func TestConvertMessages(t *testing.T) {
	out := convertMessages([]Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "u"},
		{Role: "assistant", Content: "a"},
		{Role: "unknown", Content: "x"},
	})
	require.Len(t, out, 4)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "user", out[1].Role)
	assert.Equal(t, "assistant", out[2].Role)
	assert.Equal(t, "user", out[3].Role)
}
