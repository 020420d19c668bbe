package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/poller"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

var ErrVideoInProgress = errors.New("video job already in progress")

// Tracker arms background polling for a submitted job. *poller.Poller satisfies it.
type Tracker interface {
	Track(job poller.Job) error
	Active(contentID, provider string) bool
}

// SubmitParams selects the vendor and render settings for a record's script.
type SubmitParams struct {
	Provider   string `json:"provider"`
	Format     string `json:"format"`
	AvatarType string `json:"avatar_type"`
}

// VideoService submits record scripts to video providers and hands the
// resulting jobs to the poller.
type VideoService struct {
	store     *Store
	providers poller.ProviderLookup
	tracker   Tracker
	clock     clockwork.Clock
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewVideoService(store *Store, providers poller.ProviderLookup, tracker Tracker, clock clockwork.Clock, logger *slog.Logger) *VideoService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoService{
		store:     store,
		providers: providers,
		tracker:   tracker,
		clock:     clock,
		logger:    logger.With("component", "video_service"),
		pending:   make(map[string]struct{}),
	}
}

// Submit creates a render job for the record's script and arms the poller.
// The job id is written to the record before polling starts so Resume can
// pick it up after a restart.
func (s *VideoService) Submit(ctx context.Context, contentID string, params SubmitParams) (models.ContentRecord, error) {
	rec, err := s.store.Get(contentID)
	if err != nil {
		return models.ContentRecord{}, err
	}
	provider, err := s.providers.Get(params.Provider)
	if err != nil {
		return models.ContentRecord{}, err
	}
	name := provider.Name()

	if !s.reserve(rec, name) {
		return models.ContentRecord{}, &apperr.ValidationError{
			Field:  "provider",
			Reason: fmt.Sprintf("a %s video is already being generated for this content", name),
			Err:    ErrVideoInProgress,
		}
	}
	defer s.release(contentID, name)

	lang := rec.LanguageCode()
	req := models.VideoJobRequest{
		Script:   rec.ScriptFor(lang),
		Language: lang,
		Format:   params.Format,
		Options: models.VideoOptions{
			AvatarType: params.AvatarType,
			VideoName:  s.videoName(rec.Topic),
		},
	}

	jobID, err := provider.CreateJob(ctx, req)
	if err != nil {
		if !apperr.IsValidation(err) && !apperr.IsConfiguration(err) {
			s.markFailed(ctx, contentID, name, err)
		}
		return models.ContentRecord{}, err
	}

	format := req.Format
	if format == "" {
		format = models.FormatVertical
	}
	updated, err := s.store.Patch(ctx, contentID, models.ContentPatch{
		Status: models.Ptr(models.ContentStatusProcessingVideo),
		Videos: map[string]models.VideoPatch{
			name: {
				JobID:        models.Ptr(jobID),
				Status:       models.Ptr(models.VideoStatusProcessing),
				Progress:     models.Ptr(0),
				Format:       models.Ptr(format),
				URL:          models.Ptr(""),
				ThumbnailURL: models.Ptr(""),
				DriveURL:     models.Ptr(""),
				Error:        models.Ptr(""),
				Warning:      models.Ptr(""),
			},
		},
	})
	if err != nil {
		return models.ContentRecord{}, err
	}

	err = s.tracker.Track(poller.Job{
		ContentID: contentID,
		Provider:  name,
		JobID:     jobID,
		Topic:     rec.Topic,
		Language:  lang,
	})
	switch {
	case errors.Is(err, poller.ErrAlreadyTracked):
		return models.ContentRecord{}, &apperr.ValidationError{Field: "provider", Reason: "video job already tracked", Err: ErrVideoInProgress}
	case errors.Is(err, poller.ErrShutdown):
		// The record already carries the job id; Resume re-arms it on the next start.
		s.logger.Warn("poller stopped, video job will resume on restart",
			"content_id", contentID, "provider", name, "job_id", jobID)
		return updated, nil
	case err != nil:
		s.markFailed(ctx, contentID, name, fmt.Errorf("tracking job %s: %w", jobID, err))
		return models.ContentRecord{}, err
	}

	s.logger.Info("video job submitted", "content_id", contentID, "provider", name, "job_id", jobID)
	return updated, nil
}

// Resume re-arms polling for every video sub-state left processing by a
// previous run. It returns the number of jobs armed.
func (s *VideoService) Resume(ctx context.Context) int {
	armed := 0
	for rec := range s.store.List("") {
		if ctx.Err() != nil {
			break
		}
		for name, v := range rec.Videos {
			if v.Status != models.VideoStatusProcessing || v.JobID == "" {
				continue
			}
			err := s.tracker.Track(poller.Job{
				ContentID: rec.ID,
				Provider:  name,
				JobID:     v.JobID,
				Topic:     rec.Topic,
				Language:  rec.LanguageCode(),
				Progress:  v.Progress,
			})
			if err != nil {
				s.logger.Warn("resuming video job failed", "content_id", rec.ID, "provider", name, "job_id", v.JobID, "error", err)
				continue
			}
			armed++
		}
	}
	if armed > 0 {
		s.logger.Info("resumed video jobs", "count", armed)
	}
	return armed
}

func (s *VideoService) reserve(rec models.ContentRecord, provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.ID + "/" + provider
	if _, busy := s.pending[key]; busy {
		return false
	}
	if s.tracker.Active(rec.ID, provider) {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *VideoService) release(contentID, provider string) {
	s.mu.Lock()
	delete(s.pending, contentID+"/"+provider)
	s.mu.Unlock()
}

func (s *VideoService) markFailed(ctx context.Context, contentID, provider string, cause error) {
	msg := cause.Error()
	_, err := s.store.Patch(ctx, contentID, models.ContentPatch{
		Status: models.Ptr(models.ContentStatusFailed),
		Videos: map[string]models.VideoPatch{
			provider: {
				Status: models.Ptr(models.VideoStatusFailed),
				Error:  models.Ptr(msg),
			},
		},
	})
	if err != nil {
		s.logger.Error("marking content failed", "content_id", contentID, "provider", provider, "error", err)
	}
}

// videoName is the Pictory storyboard name: topic truncated to 50 runes and
// a unix timestamp.
func (s *VideoService) videoName(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	if r := []rune(topic); len(r) > 50 {
		topic = string(r[:50])
	}
	return fmt.Sprintf("%s_%d", topic, s.clock.Now().Unix())
}
