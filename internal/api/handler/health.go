package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/contentdesk/internal/api/response"
)

// Pinger is implemented by the Postgres store and the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler reports the reachability of each named dependency.
// Any failed check turns the response into a 503.
func NewHealthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		results := make(map[string]string, len(checks))
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				results[name] = "unavailable"
				status = "degraded"
				continue
			}
			results[name] = "ok"
		}

		body := map[string]any{"status": status, "checks": results}
		if status != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "UNHEALTHY", "one or more dependencies are unavailable", body)
			return
		}
		response.JSON(w, body)
	}
}
