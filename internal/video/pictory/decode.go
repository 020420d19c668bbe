package pictory

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// defaultProgress is reported while rendering when Pictory omits a percentage.
const defaultProgress = 10

// decodeCreate accepts job_id at the top level, under data, or camel-cased.
func decodeCreate(raw []byte) (string, error) {
	var resp struct {
		JobID      string `json:"job_id"`
		JobIDCamel string `json:"jobId"`
		Data       *struct {
			JobID string `json:"job_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}

	switch {
	case resp.JobID != "":
		return resp.JobID, nil
	case resp.Data != nil && resp.Data.JobID != "":
		return resp.Data.JobID, nil
	case resp.JobIDCamel != "":
		return resp.JobIDCamel, nil
	}
	return "", errors.New("response has no job_id")
}

type statusData struct {
	Status       string   `json:"status"`
	Progress     *float64 `json:"progress"`
	VideoURL     string   `json:"videoURL"`
	VideoURLAlt  string   `json:"video_url"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Thumbnail    string   `json:"thumbnail"`
	ErrorMessage string   `json:"error_message"`
	Duration     float64  `json:"duration"`
}

// decodeStatus prefers the data wrapper and falls back to top-level fields.
func decodeStatus(raw []byte) (models.VideoJobStatus, error) {
	var resp struct {
		statusData
		Data *statusData `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.VideoJobStatus{}, fmt.Errorf("decoding status response: %w", err)
	}

	d := &resp.statusData
	if resp.Data != nil && resp.Data.Status != "" {
		d = resp.Data
	}
	if d.Status == "" {
		return models.VideoJobStatus{}, errors.New("response has no status")
	}

	out := models.VideoJobStatus{
		VideoURL:     cmp.Or(d.VideoURL, d.VideoURLAlt),
		ThumbnailURL: cmp.Or(d.ThumbnailURL, d.Thumbnail),
		Duration:     math.Max(d.Duration, 0),
	}

	switch strings.ToLower(d.Status) {
	case "in-progress", "processing", "queued", "pending":
		out.Status = models.VideoStatusProcessing
		out.Progress = defaultProgress
		if d.Progress != nil {
			out.Progress = models.ClampProgress(int(math.Round(*d.Progress)))
		}
	case "completed":
		if out.VideoURL == "" {
			return models.VideoJobStatus{}, errors.New("completed response has no videoURL")
		}
		out.Status = models.VideoStatusCompleted
		out.Progress = 100
	case "failed", "error":
		out.Status = models.VideoStatusFailed
		out.Error = d.ErrorMessage
	default:
		return models.VideoJobStatus{}, fmt.Errorf("unknown job status %q", d.Status)
	}
	return out, nil
}
