// Package openai implements models.TextGenerator on the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

const name = "openai"

// Provider implements models.TextGenerator using OpenAI.
type Provider struct {
	cfg    config.OpenAIConfig
	client *http.Client
}

func NewProvider(cfg config.OpenAIConfig, hc *http.Client) *Provider {
	if hc == nil {
		hc = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return name }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *Provider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	if p.cfg.APIKey == "" {
		return "", &apperr.ConfigurationError{Setting: "OPENAI_API_KEY"}
	}

	buf, err := json.Marshal(chatRequest{
		Model:       p.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", apperr.Upstream(name, "completion", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &apperr.UpstreamError{Provider: name, Op: "completion", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperr.UpstreamError{Provider: name, Op: "completion", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &apperr.UpstreamError{Provider: name, Op: "completion", StatusCode: resp.StatusCode, Body: string(raw), Err: err}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &apperr.UpstreamError{Provider: name, Op: "completion", StatusCode: resp.StatusCode, Body: string(raw), Err: errors.New("empty completion")}
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

var _ models.TextGenerator = (*Provider)(nil)
