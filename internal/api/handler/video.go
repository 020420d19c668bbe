package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/contentdesk/internal/api/response"
	"github.com/kiranshivaraju/contentdesk/internal/poller"
	"github.com/kiranshivaraju/contentdesk/internal/video/heygen"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// StatusReader serves terminal video states mirrored by the poller.
type StatusReader interface {
	GetVideoStatus(ctx context.Context, provider, jobID string) (models.VideoState, bool, error)
}

// AvatarSource is implemented by video.AvatarCatalog.
type AvatarSource interface {
	Avatars(ctx context.Context) ([]heygen.Avatar, error)
}

type createVideoResponse struct {
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

// NewCreateVideoHandler returns an http.HandlerFunc for POST /api/v1/videos/{provider}.
// It talks to the vendor directly and does not touch any content record.
func NewCreateVideoHandler(providers poller.ProviderLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := providers.Get(chi.URLParam(r, "provider"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.VideoJobRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		jobID, err := provider.CreateJob(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, createVideoResponse{VideoID: jobID, Status: models.VideoStatusProcessing})
	}
}

// NewVideoStatusHandler returns an http.HandlerFunc for
// GET /api/v1/videos/{provider}/{videoID}. Terminal states are answered from
// the mirror when present; everything else goes to the vendor.
func NewVideoStatusHandler(providers poller.ProviderLookup, mirror StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := providers.Get(chi.URLParam(r, "provider"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		videoID := chi.URLParam(r, "videoID")

		if mirror != nil {
			state, found, err := mirror.GetVideoStatus(r.Context(), provider.Name(), videoID)
			if err == nil && found && models.IsTerminalVideoStatus(state.Status) {
				response.JSON(w, models.VideoJobStatus{
					Status:       state.Status,
					Progress:     state.Progress,
					VideoURL:     state.URL,
					ThumbnailURL: state.ThumbnailURL,
					Error:        state.Error,
				})
				return
			}
		}

		status, err := provider.GetStatus(r.Context(), videoID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, status)
	}
}

// NewAvatarsHandler returns an http.HandlerFunc for GET /api/v1/avatars.
func NewAvatarsHandler(avatars AvatarSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := avatars.Avatars(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if list == nil {
			list = []heygen.Avatar{}
		}
		response.JSON(w, list)
	}
}
