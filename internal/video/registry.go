// Package video wires the script-to-video vendor adapters.
package video

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/internal/video/heygen"
	"github.com/kiranshivaraju/contentdesk/internal/video/pictory"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// Registry resolves provider names to adapters.
type Registry struct {
	providers map[string]models.VideoProvider
}

func NewRegistry(providers ...models.VideoProvider) *Registry {
	r := &Registry{providers: make(map[string]models.VideoProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// NewProviders constructs every supported adapter from config.
// Called once at server startup; adapters report missing credentials per call.
func NewProviders(cfg config.VideoConfig, hc *http.Client) (*Registry, *heygen.Client) {
	if hc == nil {
		hc = &http.Client{}
	}
	hg := heygen.New(cfg.HeyGen, heygen.WithHTTPClient(hc))
	pc := pictory.New(cfg.Pictory, pictory.WithHTTPClient(hc))
	return NewRegistry(hg, pc), hg
}

// Get returns the adapter for name or a ValidationError naming the supported providers.
func (r *Registry) Get(name string) (models.VideoProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, &apperr.ValidationError{
			Field:  "provider",
			Reason: fmt.Sprintf("unknown provider %q: must be one of %v", name, r.Names()),
		}
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
