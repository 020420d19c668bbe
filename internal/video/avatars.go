package video

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kiranshivaraju/contentdesk/internal/video/heygen"
)

var (
	avatarCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contentdesk_avatar_cache_hits_total",
		Help: "Avatar listings served from the in-memory cache.",
	})
	avatarCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contentdesk_avatar_cache_misses_total",
		Help: "Avatar listings fetched from HeyGen.",
	})
)

const avatarsKey = "heygen"

// AvatarLister is satisfied by heygen.Client.
type AvatarLister interface {
	ListAvatars(ctx context.Context) ([]heygen.Avatar, error)
}

// AvatarCatalog caches the HeyGen avatar listing for ttl.
type AvatarCatalog struct {
	lister AvatarLister
	cache  *expirable.LRU[string, []heygen.Avatar]
}

func NewAvatarCatalog(lister AvatarLister, ttl time.Duration) *AvatarCatalog {
	return &AvatarCatalog{
		lister: lister,
		cache:  expirable.NewLRU[string, []heygen.Avatar](1, nil, ttl),
	}
}

// Avatars returns the cached listing, fetching it on a miss. Errors are not cached.
func (c *AvatarCatalog) Avatars(ctx context.Context) ([]heygen.Avatar, error) {
	if avatars, ok := c.cache.Get(avatarsKey); ok {
		avatarCacheHits.Inc()
		return avatars, nil
	}
	avatarCacheMisses.Inc()

	avatars, err := c.lister.ListAvatars(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(avatarsKey, avatars)
	return avatars, nil
}

// Purge drops the cached listing.
func (c *AvatarCatalog) Purge() {
	c.cache.Purge()
}
