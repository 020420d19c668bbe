package models

import "time"

const (
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
	VideoStatusAbandoned  = "abandoned"
)

const (
	ProviderHeyGen  = "heygen"
	ProviderPictory = "pictory"
)

const (
	FormatVertical = "9:16"
	FormatSquare   = "1:1"
)

// IsTerminalVideoStatus reports whether no further polling happens for status.
func IsTerminalVideoStatus(status string) bool {
	switch status {
	case VideoStatusCompleted, VideoStatusFailed, VideoStatusAbandoned:
		return true
	}
	return false
}

// VideoEvent is emitted when a tracked video job reaches a terminal state.
type VideoEvent struct {
	ContentID string     `json:"content_id"`
	Provider  string     `json:"provider"`
	JobID     string     `json:"job_id"`
	Video     VideoState `json:"video"`
	At        time.Time  `json:"at"`
}

// SaveRequest asks a storage collaborator to persist a file into a named folder.
// Exactly one of Content or SourceURL is set.
type SaveRequest struct {
	FileName    string `json:"file_name"`
	Content     string `json:"content,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	ContentType string `json:"content_type"`
	FolderType  string `json:"folder_type"`
}

// SavedFile describes a file written by a storage collaborator.
type SavedFile struct {
	FileID       string `json:"file_id"`
	ViewLink     string `json:"view_link"`
	DownloadLink string `json:"download_link,omitempty"`
}
