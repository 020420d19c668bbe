package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/kiranshivaraju/contentdesk/internal/api/middleware"
	"github.com/kiranshivaraju/contentdesk/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Logger    *slog.Logger
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	CreateContent   http.HandlerFunc
	ListContent     http.HandlerFunc
	GetContent      http.HandlerFunc
	PatchContent    http.HandlerFunc
	DeleteContent   http.HandlerFunc
	GenerateContent http.HandlerFunc
	ContentIdeas    http.HandlerFunc
	SubmitVideo     http.HandlerFunc

	CreateVideo http.HandlerFunc
	VideoStatus http.HandlerFunc
	ListAvatars http.HandlerFunc
	SaveToDrive http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.CORS)
	r.Use(mw.Metrics)
	r.Use(mw.Logger(deps.Logger))
	r.Use(mw.Recovery(deps.Logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "No route matches the request", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed on this route", nil)
	})

	// Public
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	metrics := deps.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metrics)

	// Protected routes
	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Authenticate)
		}
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Route("/api/v1/content", func(r chi.Router) {
			r.Post("/", orNotImplemented(deps.CreateContent))
			r.Get("/", orNotImplemented(deps.ListContent))
			r.Post("/generate", orNotImplemented(deps.GenerateContent))
			r.Post("/ideas", orNotImplemented(deps.ContentIdeas))

			r.Get("/{id}", orNotImplemented(deps.GetContent))
			r.Patch("/{id}", orNotImplemented(deps.PatchContent))
			r.Delete("/{id}", orNotImplemented(deps.DeleteContent))
			r.Post("/{id}/videos", orNotImplemented(deps.SubmitVideo))
		})

		r.Post("/api/v1/videos/{provider}", orNotImplemented(deps.CreateVideo))
		r.Get("/api/v1/videos/{provider}/{videoID}", orNotImplemented(deps.VideoStatus))
		r.Get("/api/v1/avatars", orNotImplemented(deps.ListAvatars))
		r.Post("/api/v1/drive/files", orNotImplemented(deps.SaveToDrive))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
