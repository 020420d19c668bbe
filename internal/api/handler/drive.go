package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/contentdesk/internal/api/response"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// FileSaver is implemented by drive.Client.
type FileSaver interface {
	Save(ctx context.Context, req models.SaveRequest) (models.SavedFile, error)
}

// NewSaveFileHandler returns an http.HandlerFunc for POST /api/v1/drive/files.
func NewSaveFileHandler(saver FileSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SaveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		saved, err := saver.Save(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, saved)
	}
}
