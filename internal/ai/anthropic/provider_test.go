package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/contentdesk/internal/ai/anthropic"
	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(500), body["max_tokens"])
		assert.Equal(t, 0.8, body["temperature"])

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"1. One\n"},{"type":"text","text":"2. Two"}]}`))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "sk-ant", Model: "claude", BaseURL: srv.URL}, srv.Client())
	text, err := p.Generate(context.Background(), models.CompletionRequest{Prompt: "captions", Temperature: 0.8, MaxTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, "1. One\n2. Two", text)
	assert.Equal(t, "anthropic", p.Name())
}

func TestGenerate_DefaultsMaxTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1024), body["max_tokens"])
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := p.Generate(context.Background(), models.CompletionRequest{Prompt: "x"})
	require.NoError(t, err)
}

func TestGenerate_MissingKey(t *testing.T) {
	p := anthropic.NewProvider(config.AnthropicConfig{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := p.Generate(context.Background(), models.CompletionRequest{Prompt: "x"})
	assert.True(t, apperr.IsConfiguration(err))
}

func TestGenerate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := p.Generate(context.Background(), models.CompletionRequest{Prompt: "x"})

	var up *apperr.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, http.StatusBadGateway, up.StatusCode)
	assert.Equal(t, "overloaded", up.Body)
}

func TestGenerate_NoTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"tool_use"}]}`))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := p.Generate(context.Background(), models.CompletionRequest{Prompt: "x"})
	assert.True(t, apperr.IsUpstream(err))
}
