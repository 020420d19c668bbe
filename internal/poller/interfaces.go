package poller

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// Patcher applies merge-patches to content records. Implemented by content.Store.
type Patcher interface {
	Patch(ctx context.Context, id string, patch models.ContentPatch) (models.ContentRecord, error)
}

// ProviderLookup resolves a provider name to its adapter. Implemented by video.Registry.
type ProviderLookup interface {
	Get(name string) (models.VideoProvider, error)
}

// Saver hands a finished video to file storage.
type Saver interface {
	SaveVideo(ctx context.Context, req models.SaveRequest) (models.SavedFile, error)
}

// Notifier announces terminal video transitions.
type Notifier interface {
	Notify(ctx context.Context, event models.VideoEvent) error
}

// StatusMirror keeps a copy of terminal video states outside the content store.
type StatusMirror interface {
	SetVideoStatus(ctx context.Context, provider, jobID string, state models.VideoState) error
}
