package anthropic

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

const (
	name       = "anthropic"
	apiVersion = "2023-06-01"
	// The messages API requires max_tokens.
	defaultMaxTokens = 1024
)

// Provider implements models.TextGenerator using Anthropic.
type Provider struct {
	cfg    config.AnthropicConfig
	client *http.Client
}

func NewProvider(cfg config.AnthropicConfig, hc *http.Client) *Provider {
	if hc == nil {
		hc = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return name }

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Provider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	if p.cfg.APIKey == "" {
		return "", &apperr.ConfigurationError{Setting: "ANTHROPIC_API_KEY"}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	buf, err := json.Marshal(messagesRequest{
		Model:       p.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: min(req.Temperature, 1.0),
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding messages request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", apperr.Upstream(name, "messages", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &apperr.UpstreamError{Provider: name, Op: "messages", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperr.UpstreamError{Provider: name, Op: "messages", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out messagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &apperr.UpstreamError{Provider: name, Op: "messages", StatusCode: resp.StatusCode, Body: string(raw), Err: err}
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &apperr.UpstreamError{Provider: name, Op: "messages", StatusCode: resp.StatusCode, Body: string(raw), Err: errors.New("no text content")}
	}
	return text, nil
}

var _ models.TextGenerator = (*Provider)(nil)
