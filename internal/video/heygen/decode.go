package heygen

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// Progress estimates for statuses that carry no percentage.
const (
	queuedProgress     = 5
	processingProgress = 30
)

var errNoVideoID = errors.New("response has no video_id")

// decodeCreate accepts {"data":{"video_id":...}} and, for older accounts, a top-level video_id.
func decodeCreate(raw []byte) (string, error) {
	var resp struct {
		Data *struct {
			VideoID string `json:"video_id"`
		} `json:"data"`
		VideoID string `json:"video_id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}

	if resp.Data != nil && resp.Data.VideoID != "" {
		return resp.Data.VideoID, nil
	}
	if resp.VideoID != "" {
		return resp.VideoID, nil
	}
	return "", errNoVideoID
}

type statusData struct {
	Status        string          `json:"status"`
	VideoURL      string          `json:"video_url"`
	VideoURLHTTPS string          `json:"video_url_https"`
	ThumbnailURL  string          `json:"thumbnail_url"`
	Duration      float64         `json:"duration"`
	Error         json.RawMessage `json:"error"`
}

// decodeStatus reads data.{...}, falling back to the same fields at the top
// level for responses that come back unwrapped.
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
		VideoURL:     cmp.Or(d.VideoURL, d.VideoURLHTTPS),
		ThumbnailURL: d.ThumbnailURL,
		Duration:     math.Max(d.Duration, 0),
	}

	switch strings.ToLower(d.Status) {
	case "pending", "waiting":
		out.Status = models.VideoStatusProcessing
		out.Progress = queuedProgress
	case "processing":
		out.Status = models.VideoStatusProcessing
		out.Progress = processingProgress
	case "completed":
		if out.VideoURL == "" {
			return models.VideoJobStatus{}, errors.New("completed response has no video_url")
		}
		out.Status = models.VideoStatusCompleted
		out.Progress = 100
	case "failed":
		out.Status = models.VideoStatusFailed
		out.Error = decodeError(d.Error)
	default:
		return models.VideoJobStatus{}, fmt.Errorf("unknown video status %q", d.Status)
	}
	return out, nil
}

// decodeError reads HeyGen's error field, which is either a string or an
// object carrying a message.
func decodeError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Code    any    `json:"code"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Detail != "" {
			return obj.Detail
		}
	}
	return string(raw)
}
