package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/cache"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

const (
	ideasTTL     = 6 * time.Hour
	ideasCount   = 10
	captionCount = 5
)

// GenerateParams holds validated parameters for a content generation request.
type GenerateParams struct {
	Topic             string
	PracticeArea      string
	Language          string
	IncludeDisclaimer bool
}

// Draft is the generated text bundle. The Es fields are only filled when both
// languages were requested.
type Draft struct {
	Article    string   `json:"article,omitempty"`
	ArticleEs  string   `json:"article_es,omitempty"`
	Script     string   `json:"script,omitempty"`
	ScriptEs   string   `json:"script_es,omitempty"`
	Captions   []string `json:"captions,omitempty"`
	CaptionsEs []string `json:"captions_es,omitempty"`
	Hashtags   []string `json:"hashtags,omitempty"`
	HashtagsEs []string `json:"hashtags_es,omitempty"`
}

// Service builds prompts from the firm profile and runs them through the
// configured text generator.
type Service struct {
	generator models.TextGenerator
	cache     cache.Cache
	firm      config.FirmProfile
	timeout   time.Duration
	logger    *slog.Logger
}

// NewService creates a new Service. A nil cache disables idea caching.
func NewService(generator models.TextGenerator, c cache.Cache, firm config.FirmProfile, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		generator: generator,
		cache:     c,
		firm:      firm,
		timeout:   timeout,
		logger:    logger.With("component", "ai_service", "provider", generator.Name()),
	}
}

// languageSet is one language pass of GenerateContent.
type languageSet struct {
	article  string
	script   string
	captions []string
	hashtags []string
}

// GenerateContent produces the article, script, captions and hashtags for
// params. All completions for all requested languages run concurrently; the
// first failure cancels the rest.
func (s *Service) GenerateContent(ctx context.Context, params GenerateParams) (Draft, error) {
	if strings.TrimSpace(params.Topic) == "" {
		return Draft{}, apperr.Validation("topic", "topic is required")
	}
	if strings.TrimSpace(params.PracticeArea) == "" {
		return Draft{}, apperr.Validation("practice_area", "practice_area is required")
	}

	var langs []string
	switch params.Language {
	case models.LanguageEnglish, "":
		langs = []string{"en"}
	case models.LanguageSpanish:
		langs = []string{"es"}
	case models.LanguageBoth:
		langs = []string{"en", "es"}
	default:
		return Draft{}, apperr.Validation("language", "language must be english, spanish or both")
	}

	sets := make([]languageSet, len(langs))
	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range langs {
		data := promptData{
			Firm:         s.firm,
			Topic:        params.Topic,
			PracticeArea: s.firm.PracticeAreaContext(params.PracticeArea),
			Spanish:      lang == "es",
		}
		set := &sets[i]

		g.Go(func() error {
			text, err := s.complete(gctx, promptArticle, data, 0.7, 2000)
			set.article = text
			return err
		})
		g.Go(func() error {
			text, err := s.complete(gctx, promptScript, data, 0.7, 200)
			set.script = text
			return err
		})
		g.Go(func() error {
			text, err := s.complete(gctx, promptCaptions, data, 0.8, 500)
			set.captions = parseNumberedList(text, captionCount)
			return err
		})
		g.Go(func() error {
			text, err := s.complete(gctx, promptHashtags, data, 0.7, 200)
			set.hashtags = parseHashtags(text)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Draft{}, err
	}

	var draft Draft
	for i, lang := range langs {
		set := sets[i]
		if params.IncludeDisclaimer {
			set.article = set.article + "\n\n---\n\n" + disclaimer(s.firm, "article", lang)
			set.script = set.script + "\n\n" + disclaimer(s.firm, "script", lang)
			social := disclaimer(s.firm, "social", lang)
			for j, c := range set.captions {
				set.captions[j] = c + "\n\n" + social
			}
		}

		if lang == "es" && len(langs) > 1 {
			draft.ArticleEs, draft.ScriptEs = set.article, set.script
			draft.CaptionsEs, draft.HashtagsEs = set.captions, set.hashtags
			continue
		}
		draft.Article, draft.Script = set.article, set.script
		draft.Captions, draft.Hashtags = set.captions, set.hashtags
	}

	s.logger.Info("content generated", "topic", params.Topic, "languages", len(langs))
	return draft, nil
}

// GenerateIdeas returns topic ideas for a practice area. Results are cached
// for six hours per practice area.
func (s *Service) GenerateIdeas(ctx context.Context, practiceArea string) ([]string, error) {
	practiceArea = strings.TrimSpace(practiceArea)
	if practiceArea == "" {
		return nil, apperr.Validation("practice_area", "practice_area is required")
	}

	key := cache.IdeasKey(practiceArea)
	if s.cache != nil {
		raw, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("ideas cache read failed", "error", err)
		}
		if found {
			var ideas []string
			if err := json.Unmarshal(raw, &ideas); err == nil && len(ideas) > 0 {
				return ideas, nil
			}
		}
	}

	text, err := s.complete(ctx, promptIdeas, promptData{
		Firm:         s.firm,
		PracticeArea: s.firm.PracticeAreaContext(practiceArea),
	}, 0.8, 800)
	if err != nil {
		return nil, err
	}

	ideas := parseNumberedList(text, ideasCount)
	if len(ideas) == 0 {
		return nil, fmt.Errorf("%w: no ideas in completion", ErrInvalidResponse)
	}

	if s.cache != nil {
		if buf, err := json.Marshal(ideas); err == nil {
			if err := s.cache.Set(ctx, key, buf, ideasTTL); err != nil {
				s.logger.Warn("ideas cache write failed", "error", err)
			}
		}
	}
	return ideas, nil
}

// complete renders one prompt and calls the generator under the inference timeout.
func (s *Service) complete(ctx context.Context, kind promptKind, data promptData, temperature float64, maxTokens int) (string, error) {
	prompt, err := renderPrompt(kind, data)
	if err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.generator.Generate(ctx, models.CompletionRequest{
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", classifyError(kind, err)
	}
	return text, nil
}

// classifyError tags timeouts and unreachable providers with the package
// sentinels while keeping the original error in the chain.
func classifyError(kind promptKind, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("generating %s: %w: %w", kind, ErrInferenceTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("generating %s: %w", kind, err)
	}
	var up *apperr.UpstreamError
	if errors.As(err, &up) && up.StatusCode == 0 {
		return fmt.Errorf("generating %s: %w: %w", kind, ErrProviderUnavailable, err)
	}
	return fmt.Errorf("generating %s: %w", kind, err)
}

var listPrefix = regexp.MustCompile(`^\d+\.\s*`)

// parseNumberedList strips "1. " prefixes, drops blank lines and keeps at most limit items.
func parseNumberedList(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}

// parseHashtags returns the whitespace-separated tokens starting with '#', de-duplicated in order.
func parseHashtags(text string) []string {
	var out []string
	for _, tok := range strings.Fields(text) {
		if !strings.HasPrefix(tok, "#") || len(tok) == 1 {
			continue
		}
		if !slices.Contains(out, tok) {
			out = append(out, tok)
		}
	}
	return out
}
