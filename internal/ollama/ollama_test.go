// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

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

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessages(t *testing.T) {
	assert.Equal(t, Message{Role: "user", Content: "Hello"}, NewUserMessage("Hello"))
	assert.Equal(t, Message{Role: "assistant", Content: "Response"}, NewAssistantMessage("Response"))
	assert.Equal(t, Message{Role: "system", Content: "API Error: 500"}, NewSystemMessage("API Error: 500"))
}

func TestChatResponse_TokensPerSecond(t *testing.T) {
	tests := []struct {
		name         string
		evalCount    int
		evalDuration int64
		want         float64
	}{
		{"normal", 100, int64(time.Second), 100.0},
		{"zero duration", 100, 0, 0.0},
		{"fast", 1000, int64(100 * time.Millisecond), 10000.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := &ChatResponse{EvalCount: tc.evalCount, EvalDuration: tc.evalDuration}
			assert.InDelta(t, tc.want, resp.TokensPerSecond(), tc.want*0.01)
		})
	}
}

func TestListModelsResponse_Names(t *testing.T) {
	resp := ListModelsResponse{Models: []ModelInfo{{Name: "b"}, {Name: "a"}}}
	assert.Equal(t, []string{"b", "a"}, resp.Names())
}

// =============================================================================
// LIST MODELS TESTS
// =============================================================================

func TestListModels_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tags", r.URL.Path)
		io.WriteString(w, `{"models":[{"name":"a","size":12},{"name":"b"}]}`)
	}))
	defer srv.Close()

	models, err := NewClient().ListModels(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "a", models[0].Name)
	assert.Equal(t, int64(12), models[0].Size)
	assert.Equal(t, "b", models[1].Name)
}

func TestListModelNames_TrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		io.WriteString(w, `{"models":[]}`)
	}))
	defer srv.Close()

	names, err := NewClient().ListModelNames(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListModels_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"loading"}`)
	}))
	defer srv.Close()

	_, err := NewClient().ListModels(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsStatus(err))
	assert.Equal(t, "503", DetailOf(err))

	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, "loading", clientErr.Message)
}

func TestListModels_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing models", `{"other":1}`},
		{"missing name", `{"models":[{"size":1}]}`},
		{"wrong type", `{"models":"a"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewClient().ListModels(context.Background(), srv.URL)
			require.Error(t, err)
			assert.True(t, IsParse(err), "kind = %v", KindOf(err))
			assert.NotEmpty(t, DetailOf(err))
		})
	}
}

func TestListModels_IgnoresOddMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"models":[
			{"name":"a","modified_at":"2024-05-01 10:00:00","size":"4GB","digest":7},
			{"name":"b","modified_at":"2024-05-01T10:00:00Z","size":42,"details":{"family":"llama"}}
		]}`)
	}))
	defer srv.Close()

	models, err := NewClient().ListModels(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "a", models[0].Name)
	assert.True(t, models[0].ModifiedAt.IsZero())
	assert.Zero(t, models[0].Size)
	assert.Empty(t, models[0].Digest)
	assert.Equal(t, int64(42), models[1].Size)
	assert.Equal(t, 2024, models[1].ModifiedAt.Year())
}

func TestListModels_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient().ListModels(context.Background(), url)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestListModels_MalformedURLIsTransport(t *testing.T) {
	_, err := NewClient().ListModels(context.Background(), "::not a url")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_SendsFullRequest(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"model":"a","message":{"role":"assistant","content":"hello"},"done":true}`)
	}))
	defer srv.Close()

	resp, err := NewClient().Chat(context.Background(), srv.URL, ChatRequest{
		Model:    "a",
		Messages: []Message{NewUserMessage("hi")},
		Stream:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, NewAssistantMessage("hello"), resp.Message)

	assert.Equal(t, "a", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, []Message{NewUserMessage("hi")}, got.Messages)
}

func TestChat_StreamFieldAlwaysPresent(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		io.WriteString(w, `{"message":{"role":"assistant","content":""}}`)
	}))
	defer srv.Close()

	_, err := NewClient().Chat(context.Background(), srv.URL, ChatRequest{Model: "a"})
	require.NoError(t, err)
	assert.Equal(t, false, raw["stream"])
	assert.Equal(t, []any{}, raw["messages"])
}

func TestChat_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient().Chat(context.Background(), srv.URL, ChatRequest{Model: "a"})
	require.Error(t, err)
	assert.True(t, IsStatus(err))
	assert.Equal(t, "500", DetailOf(err))
}

func TestChat_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing message", `{"done":true}`},
		{"missing role", `{"message":{"content":"x"}}`},
		{"missing content", `{"message":{"role":"assistant"}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewClient().Chat(context.Background(), srv.URL, ChatRequest{Model: "a"})
			require.Error(t, err)
			assert.True(t, IsParse(err), "kind = %v", KindOf(err))
		})
	}
}

func TestChat_IgnoresOddMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"model":"m","created_at":1714557600,"done":"yes",
			"message":{"role":"assistant","content":"hi"},"eval_count":"many","eval_duration":1000000000}`)
	}))
	defer srv.Close()

	resp, err := NewClient().Chat(context.Background(), srv.URL, ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, Message{Role: "assistant", Content: "hi"}, resp.Message)
	assert.Equal(t, "m", resp.Model)
	assert.True(t, resp.CreatedAt.IsZero())
	assert.False(t, resp.Done)
	assert.Zero(t, resp.EvalCount)
	assert.Equal(t, int64(time.Second), resp.EvalDuration)
}

func TestChat_UserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rigchat-test", r.Header.Get("User-Agent"))
		io.WriteString(w, `{"message":{"role":"assistant","content":"ok"}}`)
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{UserAgent: "rigchat-test"})
	_, err := client.Chat(context.Background(), srv.URL, ChatRequest{Model: "a"})
	require.NoError(t, err)
}

// =============================================================================
// ERROR TYPE TESTS
// =============================================================================

func TestClientError_Detail(t *testing.T) {
	transport := &ClientError{Kind: KindTransport, Op: "chat", Cause: errors.New("refused")}
	assert.Equal(t, "refused", transport.Detail())
	assert.Equal(t, "chat: transport error: refused", transport.Error())

	status := &ClientError{Kind: KindStatus, Op: "chat", StatusCode: 404, Message: "model not found"}
	assert.Equal(t, "404", status.Detail())
	assert.Equal(t, "chat: status error: 404 (model not found)", status.Error())
}

func TestKindOf_PlainErrorIsTransport(t *testing.T) {
	err := errors.New("refused")
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, "refused", DetailOf(err))
	assert.False(t, IsParse(nil))
}
