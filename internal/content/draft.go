package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/contentdesk/internal/ai"
	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// DraftGenerator produces the text bundle for a topic. *ai.Service satisfies it.
type DraftGenerator interface {
	GenerateContent(ctx context.Context, params ai.GenerateParams) (ai.Draft, error)
}

// DraftRequest holds the parameters of a generation request.
type DraftRequest struct {
	Topic             string `json:"topic"`
	PracticeArea      string `json:"practice_area"`
	Language          string `json:"language"`
	IncludeDisclaimer bool   `json:"include_disclaimer"`
}

// DraftService adds a record in the generating state and fills it in from the
// generator in the background.
type DraftService struct {
	store     *Store
	generator DraftGenerator
	timeout   time.Duration
	logger    *slog.Logger

	wg sync.WaitGroup
}

func NewDraftService(store *Store, generator DraftGenerator, timeout time.Duration, logger *slog.Logger) *DraftService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftService{
		store:     store,
		generator: generator,
		timeout:   timeout,
		logger:    logger.With("component", "draft_service"),
	}
}

// Trigger validates req, adds a generating record and dispatches generation in
// a background goroutine. Returns the record immediately.
func (s *DraftService) Trigger(ctx context.Context, req DraftRequest) (models.ContentRecord, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return models.ContentRecord{}, apperr.Validation("topic", "topic is required")
	}
	if req.PracticeArea == "" {
		return models.ContentRecord{}, apperr.Validation("practice_area", "practice_area is required")
	}
	switch req.Language {
	case "":
		req.Language = models.LanguageEnglish
	case models.LanguageEnglish, models.LanguageSpanish, models.LanguageBoth:
	default:
		return models.ContentRecord{}, apperr.Validation("language", "language must be english, spanish or both")
	}

	rec, err := s.store.Add(ctx, models.ContentRecord{
		ID:           uuid.NewString(),
		Type:         models.ContentTypeNew,
		Topic:        req.Topic,
		PracticeArea: req.PracticeArea,
		Language:     req.Language,
		Status:       models.ContentStatusGenerating,
	})
	if err != nil {
		return models.ContentRecord{}, fmt.Errorf("adding draft: %w", err)
	}

	s.wg.Add(1)
	go s.run(rec.ID, req)

	return rec, nil
}

// Wait blocks until every dispatched generation has finished.
func (s *DraftService) Wait() {
	s.wg.Wait()
}

// run performs generation in a goroutine. It recovers from panics and always
// leaves the record ready or failed.
func (s *DraftService) run(id string, req DraftRequest) {
	defer s.wg.Done()
	ctx := context.Background()
	log := s.logger.With("content_id", id)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in draft generation", "error", r)
			s.fail(ctx, log, id, fmt.Sprintf("panic: %v", r))
		}
	}()

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	draft, err := s.generator.GenerateContent(genCtx, ai.GenerateParams{
		Topic:             req.Topic,
		PracticeArea:      req.PracticeArea,
		Language:          req.Language,
		IncludeDisclaimer: req.IncludeDisclaimer,
	})
	if err != nil {
		log.Warn("draft generation failed", "error", err)
		s.fail(ctx, log, id, err.Error())
		return
	}

	patch := draftPatch(draft)
	patch.Status = models.Ptr(models.ContentStatusReady)
	patch.Error = models.Ptr("")
	if _, err := s.store.Patch(ctx, id, patch); err != nil {
		log.Error("storing draft", "error", err)
		return
	}
	log.Info("draft ready")
}

func (s *DraftService) fail(ctx context.Context, log *slog.Logger, id, msg string) {
	_, err := s.store.Patch(ctx, id, models.ContentPatch{
		Status: models.Ptr(models.ContentStatusFailed),
		Error:  models.Ptr(msg),
	})
	if err != nil {
		log.Error("marking draft failed", "error", err)
	}
}

func draftPatch(d ai.Draft) models.ContentPatch {
	var p models.ContentPatch
	if d.Article != "" {
		p.Article = models.Ptr(d.Article)
	}
	if d.ArticleEs != "" {
		p.ArticleEs = models.Ptr(d.ArticleEs)
	}
	if d.Script != "" {
		p.Script = models.Ptr(d.Script)
	}
	if d.ScriptEs != "" {
		p.ScriptEs = models.Ptr(d.ScriptEs)
	}
	p.Captions = d.Captions
	p.CaptionsEs = d.CaptionsEs
	p.Hashtags = d.Hashtags
	p.HashtagsEs = d.HashtagsEs
	return p
}
