// Package store persists the content aggregate in PostgreSQL.
package store

import (
	"time"

	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// Snapshot is the persisted record list and its write counter.
// Version increases by one on every successful save.
type Snapshot struct {
	Version   int64
	Records   []models.ContentRecord
	UpdatedAt time.Time
}
