package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCompleteSendsExpectedRequest(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"pong"}}]}`))
	}))
	defer server.Close()

	client := NewClient()
	raw, err := client.Complete(context.Background(),
		ChatConfig{BaseURL: server.URL, APIKey: "sk-test", Model: "test-model"},
		"be terse",
		[]ChatMessage{{Role: "user", Content: "ping"}},
	)
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, false, gotBody["stream"])

	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "be terse", first["content"])

	content, err := Extract(raw, "choices[0].message.content")
	require.NoError(t, err)
	assert.Equal(t, "pong", content)
}

func TestClientCompleteNoSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Len(t, body["messages"], 1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient()
	_, err := client.Complete(context.Background(),
		ChatConfig{BaseURL: server.URL, Model: "m"},
		"",
		[]ChatMessage{{Role: "user", Content: "hi"}},
	)
	require.NoError(t, err)
}

func TestClientCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient()
	_, err := client.Complete(context.Background(),
		ChatConfig{BaseURL: server.URL, Model: "m"},
		"", []ChatMessage{{Role: "user", Content: "hi"}},
	)
	assert.Error(t, err)
}

func TestClientCompleteCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient()
	_, err := client.Complete(ctx,
		ChatConfig{BaseURL: server.URL, Model: "m"},
		"", []ChatMessage{{Role: "user", Content: "hi"}},
	)
	assert.Error(t, err)
}
