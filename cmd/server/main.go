// Package main is the entrypoint for the contentdesk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/kiranshivaraju/contentdesk/internal/ai"
	"github.com/kiranshivaraju/contentdesk/internal/api"
	"github.com/kiranshivaraju/contentdesk/internal/api/handler"
	mw "github.com/kiranshivaraju/contentdesk/internal/api/middleware"
	"github.com/kiranshivaraju/contentdesk/internal/cache"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/internal/content"
	"github.com/kiranshivaraju/contentdesk/internal/drive"
	"github.com/kiranshivaraju/contentdesk/internal/events"
	"github.com/kiranshivaraju/contentdesk/internal/poller"
	"github.com/kiranshivaraju/contentdesk/internal/store"
	"github.com/kiranshivaraju/contentdesk/internal/video"
)

const (
	shutdownTimeout = 30 * time.Second
	avatarCacheTTL  = 10 * time.Minute
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, _ := config.ParseLogLevel(cfg.Server.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Run migrations, then connect
	if err := store.RunMigrations(cfg.Database.URL, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	pool, err := store.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	pgStore := store.NewPostgresStore(pool)

	// 3. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 4. Rehydrate the content store
	clock := clockwork.NewRealClock()
	contentStore := content.NewStore(pgStore, content.WithStoreClock(clock), content.WithStoreLogger(logger))
	if err := contentStore.Load(ctx); err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	// 5. Vendor adapters and collaborators
	httpClient := &http.Client{}
	registry, heygenClient := video.NewProviders(cfg.Video, httpClient)
	avatars := video.NewAvatarCatalog(heygenClient, avatarCacheTTL)
	driveClient := drive.New(cfg.Drive, drive.WithHTTPClient(httpClient), drive.WithClock(clock), drive.WithLogger(logger))

	notifier, closeNotifier, err := newNotifier(cfg.RabbitMQ, clock, logger)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer closeNotifier()

	// 6. Poller, re-armed from persisted processing jobs
	pollerOpts := []poller.Option{
		poller.WithClock(clock),
		poller.WithInterval(cfg.Video.PollInterval),
		poller.WithCeiling(cfg.Video.PollCeiling),
		poller.WithRequestTimeout(cfg.Video.RequestTimeout),
		poller.WithNotifier(notifier),
		poller.WithStatusMirror(redisCache),
		poller.WithLogger(logger),
	}
	if cfg.Drive.Enabled() {
		pollerOpts = append(pollerOpts, poller.WithSaver(driveClient))
	} else {
		slog.Warn("GOOGLE_REFRESH_TOKEN not set, finished videos will not be saved to Drive")
	}
	videoPoller := poller.New(registry, contentStore, pollerOpts...)
	videos := content.NewVideoService(contentStore, registry, videoPoller, clock, logger)
	videos.Resume(ctx)

	// 7. AI generation
	generator, err := ai.NewGenerator(cfg.AI, httpClient)
	if err != nil {
		return fmt.Errorf("create AI generator: %w", err)
	}
	slog.Info("AI generator initialized", "provider", generator.Name())
	aiService := ai.NewService(generator, redisCache, cfg.Firm, cfg.AI.InferenceTimeout, logger)
	drafts := content.NewDraftService(contentStore, aiService, 2*cfg.AI.InferenceTimeout, logger)

	// 8. Build router with dependencies
	deps := api.Dependencies{
		Logger:    logger,
		Auth:      mw.NewAuth(cfg.Server.APIKeyHash),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin),

		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": pgStore,
			"cache":    redisCache,
		}),

		CreateContent:   handler.NewCreateContentHandler(contentStore),
		ListContent:     handler.NewListContentHandler(contentStore),
		GetContent:      handler.NewGetContentHandler(contentStore),
		PatchContent:    handler.NewPatchContentHandler(contentStore),
		DeleteContent:   handler.NewDeleteContentHandler(contentStore),
		GenerateContent: handler.NewGenerateContentHandler(drafts),
		ContentIdeas:    handler.NewIdeasHandler(aiService),
		SubmitVideo:     handler.NewSubmitVideoHandler(videos),

		CreateVideo: handler.NewCreateVideoHandler(registry),
		VideoStatus: handler.NewVideoStatusHandler(registry, redisCache),
		ListAvatars: handler.NewAvatarsHandler(avatars),
		SaveToDrive: handler.NewSaveFileHandler(driveClient),
	}
	if !deps.Auth.Enabled() {
		slog.Warn("CONTENTDESK_API_KEY_HASH not set, API is unauthenticated")
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	var serveErr error
	select {
	case err := <-errCh:
		serveErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	return shutdown(srv, videoPoller, drafts, contentStore, serveErr)
}

// shutdown stops intake first, then the background work, then writes the
// final snapshot.
func shutdown(srv *http.Server, p *poller.Poller, drafts *content.DraftService, contentStore *content.Store, serveErr error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil {
		errs = append(errs, serveErr)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	p.Shutdown()
	drafts.Wait()

	if err := contentStore.Flush(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("flush content: %w", err))
	}

	if len(errs) == 0 {
		slog.Info("server stopped gracefully")
	}
	return errors.Join(errs...)
}

// newNotifier connects the RabbitMQ publisher, or returns a no-op notifier
// when no broker is configured.
func newNotifier(cfg config.RabbitMQConfig, clock clockwork.Clock, logger *slog.Logger) (poller.Notifier, func(), error) {
	if cfg.URL == "" {
		slog.Info("RABBITMQ_URL not set, video events are not published")
		return events.Noop{}, func() {}, nil
	}
	pub, err := events.NewPublisher(cfg, clock, logger)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			slog.Warn("closing rabbitmq publisher", "error", err)
		}
	}, nil
}
