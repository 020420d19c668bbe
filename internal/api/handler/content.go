package handler

import (
	"context"
	"iter"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/contentdesk/internal/api/response"
	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/content"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// ContentStore is the slice of content.Store the handlers use.
type ContentStore interface {
	Add(ctx context.Context, rec models.ContentRecord) (models.ContentRecord, error)
	Get(id string) (models.ContentRecord, error)
	Patch(ctx context.Context, id string, patch models.ContentPatch) (models.ContentRecord, error)
	Remove(ctx context.Context, id string) error
	List(status string) iter.Seq[models.ContentRecord]
}

// DraftTrigger starts background generation. Implemented by content.DraftService.
type DraftTrigger interface {
	Trigger(ctx context.Context, req content.DraftRequest) (models.ContentRecord, error)
}

// IdeaGenerator is implemented by ai.Service.
type IdeaGenerator interface {
	GenerateIdeas(ctx context.Context, practiceArea string) ([]string, error)
}

// VideoSubmitter is implemented by content.VideoService.
type VideoSubmitter interface {
	Submit(ctx context.Context, contentID string, params content.SubmitParams) (models.ContentRecord, error)
}

var contentStatuses = []string{
	models.ContentStatusDraft,
	models.ContentStatusGenerating,
	models.ContentStatusReady,
	models.ContentStatusProcessingVideo,
	models.ContentStatusCompleted,
	models.ContentStatusFailed,
}

func checkStatus(status string) error {
	if status != "" && !slices.Contains(contentStatuses, status) {
		return apperr.Validation("status", "status must be one of "+strings.Join(contentStatuses, ", "))
	}
	return nil
}

// NewCreateContentHandler returns an http.HandlerFunc for POST /api/v1/content.
func NewCreateContentHandler(store ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec models.ContentRecord
		if err := decodeJSON(r, &rec); err != nil {
			writeError(w, r, err)
			return
		}
		if err := checkStatus(rec.Status); err != nil {
			writeError(w, r, err)
			return
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.Videos = nil

		added, err := store.Add(r.Context(), rec)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, added)
	}
}

// NewListContentHandler returns an http.HandlerFunc for GET /api/v1/content.
func NewListContentHandler(store ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if err := checkStatus(status); err != nil {
			writeError(w, r, err)
			return
		}

		records := slices.Collect(store.List(status))
		if records == nil {
			records = []models.ContentRecord{}
		}
		response.Collection(w, records, response.ListMeta{Total: len(records), Status: status})
	}
}

// NewGetContentHandler returns an http.HandlerFunc for GET /api/v1/content/{id}.
func NewGetContentHandler(store ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, rec)
	}
}

// NewPatchContentHandler returns an http.HandlerFunc for PATCH /api/v1/content/{id}.
func NewPatchContentHandler(store ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch models.ContentPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, r, err)
			return
		}
		if patch.Status != nil {
			if err := checkStatus(*patch.Status); err != nil {
				writeError(w, r, err)
				return
			}
		}

		rec, err := store.Patch(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, rec)
	}
}

// NewDeleteContentHandler returns an http.HandlerFunc for DELETE /api/v1/content/{id}.
func NewDeleteContentHandler(store ContentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		response.NoContent(w)
	}
}

// NewGenerateContentHandler returns an http.HandlerFunc for POST /api/v1/content/generate.
// The record comes back in the generating state; the text fills in later.
func NewGenerateContentHandler(drafts DraftTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req content.DraftRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		rec, err := drafts.Trigger(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Accepted(w, rec)
	}
}

// NewIdeasHandler returns an http.HandlerFunc for POST /api/v1/content/ideas.
func NewIdeasHandler(gen IdeaGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PracticeArea string `json:"practice_area"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		ideas, err := gen.GenerateIdeas(r.Context(), req.PracticeArea)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, map[string]any{"practice_area": req.PracticeArea, "ideas": ideas})
	}
}

// NewSubmitVideoHandler returns an http.HandlerFunc for POST /api/v1/content/{id}/videos.
func NewSubmitVideoHandler(videos VideoSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params content.SubmitParams
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, r, err)
			return
		}

		rec, err := videos.Submit(r.Context(), chi.URLParam(r, "id"), params)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Accepted(w, rec)
	}
}
