// Package poller drives submitted video jobs to a terminal state by querying
// their provider on a fixed schedule and merge-patching the owning content record.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

const (
	DefaultInterval       = 10 * time.Second
	DefaultCeiling        = 20 * time.Minute
	DefaultRequestTimeout = 10 * time.Second

	defaultFailureMessage = "Video generation failed"
	terminalWriteTimeout  = 30 * time.Second
)

// ErrAlreadyTracked is returned by Track when the content record already has an
// active job for the provider.
var ErrAlreadyTracked = errors.New("video job already tracked")

// ErrShutdown is returned by Track once Shutdown has been called.
var ErrShutdown = errors.New("poller is shut down")

// Job identifies one submitted render.
type Job struct {
	ContentID string
	Provider  string
	JobID     string
	// Topic and Language name the saved file. When empty they are taken from the record.
	Topic    string
	Language string
	// Progress seeds the monotonic clamp, e.g. when resuming after a restart.
	Progress int
}

type jobKey struct {
	contentID string
	provider  string
}

// Poller runs one goroutine per tracked job.
type Poller struct {
	providers ProviderLookup
	store     Patcher

	clock          clockwork.Clock
	interval       time.Duration
	ceiling        time.Duration
	requestTimeout time.Duration
	saver          Saver
	notifier       Notifier
	mirror         StatusMirror
	logger         *slog.Logger

	baseCtx context.Context
	stop    context.CancelFunc

	mu     sync.Mutex
	active map[jobKey]context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Poller)

func WithClock(c clockwork.Clock) Option { return func(p *Poller) { p.clock = c } }

func WithInterval(d time.Duration) Option { return func(p *Poller) { p.interval = d } }

// WithCeiling bounds how long a job is polled before it is abandoned.
func WithCeiling(d time.Duration) Option { return func(p *Poller) { p.ceiling = d } }

// WithRequestTimeout bounds each individual status call.
func WithRequestTimeout(d time.Duration) Option { return func(p *Poller) { p.requestTimeout = d } }

func WithSaver(s Saver) Option { return func(p *Poller) { p.saver = s } }

func WithNotifier(n Notifier) Option { return func(p *Poller) { p.notifier = n } }

func WithStatusMirror(m StatusMirror) Option { return func(p *Poller) { p.mirror = m } }

func WithLogger(l *slog.Logger) Option { return func(p *Poller) { p.logger = l } }

func New(providers ProviderLookup, store Patcher, opts ...Option) *Poller {
	p := &Poller{
		providers:      providers,
		store:          store,
		clock:          clockwork.NewRealClock(),
		interval:       DefaultInterval,
		ceiling:        DefaultCeiling,
		requestTimeout: DefaultRequestTimeout,
		logger:         slog.Default(),
		active:         make(map[jobKey]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "poller")
	p.baseCtx, p.stop = context.WithCancel(context.Background())
	return p
}

// Track arms a polling loop for job. The first status check happens one
// interval after arming, never immediately.
func (p *Poller) Track(job Job) error {
	if job.ContentID == "" || job.JobID == "" {
		return apperr.Validation("job", "content id and job id are required")
	}
	provider, err := p.providers.Get(job.Provider)
	if err != nil {
		return err
	}

	key := jobKey{contentID: job.ContentID, provider: job.Provider}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.baseCtx.Err() != nil {
		return ErrShutdown
	}
	if _, ok := p.active[key]; ok {
		return fmt.Errorf("%w: content %s provider %s", ErrAlreadyTracked, job.ContentID, job.Provider)
	}

	ctx, cancel := context.WithCancel(p.baseCtx)
	p.active[key] = cancel
	p.wg.Add(1)
	activeJobs.Inc()

	go p.run(ctx, key, job, provider)

	p.logger.Info("video polling started",
		"content_id", job.ContentID,
		"provider", job.Provider,
		"job_id", job.JobID,
	)
	return nil
}

// Active reports whether a loop is running for the record and provider.
func (p *Poller) Active(contentID, provider string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[jobKey{contentID: contentID, provider: provider}]
	return ok
}

// Cancel stops polling one job without touching the record. The vendor job keeps running.
func (p *Poller) Cancel(contentID, provider string) bool {
	p.mu.Lock()
	cancel, ok := p.active[jobKey{contentID: contentID, provider: provider}]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown stops every loop and waits for them to exit.
func (p *Poller) Shutdown() {
	p.mu.Lock()
	p.stop()
	p.mu.Unlock()
	p.wg.Wait()
}

// Wait blocks until every loop armed so far has exited.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, key jobKey, job Job, provider models.VideoProvider) {
	defer func() {
		p.mu.Lock()
		delete(p.active, key)
		p.mu.Unlock()
		activeJobs.Dec()
		p.wg.Done()
	}()

	log := p.logger.With("content_id", job.ContentID, "provider", job.Provider, "job_id", job.JobID)
	started := p.clock.Now()
	progress := models.ClampProgress(job.Progress)

	for {
		timer := p.clock.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}

		if p.clock.Since(started) >= p.ceiling {
			p.abandon(ctx, log, job)
			return
		}

		status, err := p.check(ctx, provider, job.JobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			pollsTotal.WithLabelValues(job.Provider, outcomeError).Inc()
			log.Warn("video status check failed, will retry", "error", err)
			continue
		}
		pollsTotal.WithLabelValues(job.Provider, status.Status).Inc()

		switch status.Status {
		case models.VideoStatusCompleted:
			p.complete(ctx, log, job, status)
			return
		case models.VideoStatusFailed:
			p.fail(ctx, log, job, status)
			return
		default:
			progress = max(progress, models.ClampProgress(status.Progress))
			p.patch(ctx, log, job.ContentID, models.ContentPatch{
				Videos: map[string]models.VideoPatch{job.Provider: {
					Status:   models.Ptr(models.VideoStatusProcessing),
					Progress: models.Ptr(progress),
				}},
			})
		}
	}
}

func (p *Poller) check(ctx context.Context, provider models.VideoProvider, jobID string) (models.VideoJobStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()
	return provider.GetStatus(ctx, jobID)
}

func (p *Poller) complete(ctx context.Context, log *slog.Logger, job Job, status models.VideoJobStatus) {
	ctx, cancel := terminalContext(ctx)
	defer cancel()

	state := models.VideoState{
		JobID:        job.JobID,
		Status:       models.VideoStatusCompleted,
		Progress:     100,
		URL:          status.VideoURL,
		ThumbnailURL: status.ThumbnailURL,
	}
	rec, ok := p.patch(ctx, log, job.ContentID, models.ContentPatch{
		Status: models.Ptr(models.ContentStatusCompleted),
		Videos: map[string]models.VideoPatch{job.Provider: {
			Status:       models.Ptr(models.VideoStatusCompleted),
			Progress:     models.Ptr(100),
			URL:          models.Ptr(status.VideoURL),
			ThumbnailURL: models.Ptr(status.ThumbnailURL),
			Error:        models.Ptr(""),
		}},
	})
	log.Info("video completed", "video_url", status.VideoURL)

	if ok {
		if job.Topic == "" {
			job.Topic = rec.Topic
		}
		if job.Language == "" {
			job.Language = rec.LanguageCode()
		}
		if v, found := rec.Video(job.Provider); found {
			state = v
		}
	}

	if p.saver != nil && status.VideoURL != "" && ok {
		state = p.handOff(ctx, log, job, status.VideoURL, state)
	}

	p.finish(ctx, log, job, state)
}

// handOff saves the finished video. Failure leaves the job completed and records a warning.
func (p *Poller) handOff(ctx context.Context, log *slog.Logger, job Job, videoURL string, state models.VideoState) models.VideoState {
	saved, err := p.saver.SaveVideo(ctx, models.SaveRequest{
		FileName:    VideoFileName(job.Topic),
		SourceURL:   videoURL,
		ContentType: "video/mp4",
		FolderType:  "videos-" + languageOrDefault(job.Language),
	})

	var vp models.VideoPatch
	if err != nil {
		log.Warn("saving video to storage failed", "error", err)
		vp.Warning = models.Ptr("video saved by provider but storage hand-off failed: " + err.Error())
	} else {
		vp.DriveURL = models.Ptr(saved.ViewLink)
	}

	rec, ok := p.patch(ctx, log, job.ContentID, models.ContentPatch{
		Videos: map[string]models.VideoPatch{job.Provider: vp},
	})
	if ok {
		if v, found := rec.Video(job.Provider); found {
			return v
		}
	}
	return state
}

func (p *Poller) fail(ctx context.Context, log *slog.Logger, job Job, status models.VideoJobStatus) {
	ctx, cancel := terminalContext(ctx)
	defer cancel()

	msg := status.Error
	if msg == "" {
		msg = defaultFailureMessage
	}

	state := models.VideoState{JobID: job.JobID, Status: models.VideoStatusFailed, Error: msg}
	rec, ok := p.patch(ctx, log, job.ContentID, models.ContentPatch{
		Status: models.Ptr(models.ContentStatusFailed),
		Videos: map[string]models.VideoPatch{job.Provider: {
			Status: models.Ptr(models.VideoStatusFailed),
			Error:  models.Ptr(msg),
		}},
	})
	if ok {
		if v, found := rec.Video(job.Provider); found {
			state = v
		}
	}
	log.Info("video failed", "error", msg)

	p.finish(ctx, log, job, state)
}

func (p *Poller) abandon(ctx context.Context, log *slog.Logger, job Job) {
	ctx, cancel := terminalContext(ctx)
	defer cancel()

	msg := fmt.Sprintf("video polling abandoned after %s", p.ceiling)
	state := models.VideoState{JobID: job.JobID, Status: models.VideoStatusAbandoned, Error: msg}
	rec, ok := p.patch(ctx, log, job.ContentID, models.ContentPatch{
		Videos: map[string]models.VideoPatch{job.Provider: {
			Status: models.Ptr(models.VideoStatusAbandoned),
			Error:  models.Ptr(msg),
		}},
	})
	if ok {
		if v, found := rec.Video(job.Provider); found {
			state = v
		}
	}
	log.Info("video polling abandoned", "ceiling", p.ceiling.String())

	p.finish(ctx, log, job, state)
}

// finish mirrors and announces a terminal state. Neither step can undo the transition.
func (p *Poller) finish(ctx context.Context, log *slog.Logger, job Job, state models.VideoState) {
	jobsFinished.WithLabelValues(job.Provider, state.Status).Inc()

	if p.mirror != nil {
		if err := p.mirror.SetVideoStatus(ctx, job.Provider, job.JobID, state); err != nil {
			log.Warn("mirroring video status failed", "error", err)
		}
	}

	if p.notifier != nil {
		event := models.VideoEvent{
			ContentID: job.ContentID,
			Provider:  job.Provider,
			JobID:     job.JobID,
			Video:     state,
			At:        p.clock.Now().UTC(),
		}
		if err := p.notifier.Notify(ctx, event); err != nil {
			log.Warn("publishing video event failed", "error", err)
		}
	}
}

// patch applies a merge-patch and reports whether the record still exists.
func (p *Poller) patch(ctx context.Context, log *slog.Logger, contentID string, patch models.ContentPatch) (models.ContentRecord, bool) {
	rec, err := p.store.Patch(ctx, contentID, patch)
	if err != nil {
		if apperr.IsNotFound(err) {
			log.Info("content record no longer exists, dropping update")
		} else {
			log.Error("patching content record failed", "error", err)
		}
		return models.ContentRecord{}, false
	}
	return rec, true
}

// terminalContext detaches terminal writes from loop cancellation so a
// shutdown racing a completion still records it.
func terminalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
}

// VideoFileName names a saved video after the first 50 characters of its topic.
func VideoFileName(topic string) string {
	r := []rune(topic)
	if len(r) > 50 {
		r = r[:50]
	}
	return string(r) + "_video.mp4"
}

func languageOrDefault(lang string) string {
	if lang == "es" {
		return "es"
	}
	return "en"
}
