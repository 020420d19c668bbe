package ai

import (
	"fmt"
	"net/http"

	"github.com/kiranshivaraju/contentdesk/internal/ai/anthropic"
	"github.com/kiranshivaraju/contentdesk/internal/ai/openai"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// NewGenerator constructs the text generator selected by config.
// Called once at server startup.
func NewGenerator(cfg config.AIConfig, hc *http.Client) (models.TextGenerator, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.OpenAI, hc), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic, hc), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, anthropic", cfg.Provider)
	}
}
