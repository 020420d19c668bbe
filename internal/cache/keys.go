package cache

import (
	"fmt"
	"strings"
)

func VideoStatusKey(provider, jobID string) string {
	return fmt.Sprintf("video:%s:%s", provider, jobID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

func IdeasKey(practiceArea string) string {
	return fmt.Sprintf("ideas:%s", strings.ToLower(strings.TrimSpace(practiceArea)))
}
