package models

import (
	"context"
	"strings"
)

// VideoProvider is the normalized contract every script-to-video vendor adapter presents.
// Never call a vendor API directly; inject this interface.
type VideoProvider interface {
	// CreateJob submits a render request and returns the vendor-assigned job id.
	// It never returns an empty id with a nil error.
	CreateJob(ctx context.Context, req VideoJobRequest) (string, error)
	// GetStatus returns the normalized state of a previously created job.
	GetStatus(ctx context.Context, jobID string) (VideoJobStatus, error)
	// Name returns the provider identifier (e.g., "heygen", "pictory").
	Name() string
}

// VideoJobRequest is the vendor-neutral render request.
type VideoJobRequest struct {
	Script   string       `json:"script"`
	Language string       `json:"language"`
	Format   string       `json:"format"`
	Options  VideoOptions `json:"options"`
}

// VideoOptions carries settings only some vendors understand.
type VideoOptions struct {
	AvatarType string `json:"avatar_type,omitempty"`
	VideoName  string `json:"video_name,omitempty"`
}

// VideoJobStatus is a vendor status mapped onto processing|completed|failed.
type VideoJobStatus struct {
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	VideoURL     string  `json:"video_url,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Normalize fills defaults for optional fields and returns the offending field
// name when the request cannot be sent to any vendor.
func (r *VideoJobRequest) Normalize() (field, reason string, ok bool) {
	if strings.TrimSpace(r.Script) == "" {
		return "script", "script is required", false
	}
	switch r.Language {
	case "":
		r.Language = "en"
	case "en", "es":
	default:
		return "language", "language must be en or es", false
	}
	switch r.Format {
	case "":
		r.Format = FormatVertical
	case FormatVertical, FormatSquare:
	default:
		return "format", "format must be 9:16 or 1:1", false
	}
	return "", "", true
}

// ClampProgress bounds p to [0, 100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
