// Package content owns the ordered aggregate of content records and the
// services that mutate it.
package content

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

var ErrDuplicateID = errors.New("duplicate content id")

var snapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "contentdesk_snapshot_failures_total",
	Help: "Content snapshot writes that failed and were left for the next mutation.",
})

// Persister saves and restores the full list of records, newest first.
type Persister interface {
	SaveSnapshot(ctx context.Context, records []models.ContentRecord) error
	LoadSnapshot(ctx context.Context) ([]models.ContentRecord, error)
}

// Store is the in-memory content aggregate. Every mutation is serialised by a
// single lock and followed by a full snapshot write.
type Store struct {
	persister Persister
	clock     clockwork.Clock
	logger    *slog.Logger

	mu      sync.RWMutex
	records []models.ContentRecord
	dirty   bool
}

type StoreOption func(*Store)

func WithStoreClock(c clockwork.Clock) StoreOption { return func(s *Store) { s.clock = c } }

func WithStoreLogger(l *slog.Logger) StoreOption { return func(s *Store) { s.logger = l } }

// NewStore returns an empty store. A nil persister keeps records in memory only.
func NewStore(p Persister, opts ...StoreOption) *Store {
	s := &Store{
		persister: p,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "content_store")
	return s
}

// Load replaces the in-memory records with the persisted snapshot.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	records, err := s.persister.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]models.ContentRecord, 0, len(records))
	for _, r := range records {
		s.records = append(s.records, r.Clone())
	}
	s.dirty = false
	return nil
}

// Add prepends rec so the newest record is listed first.
func (s *Store) Add(ctx context.Context, rec models.ContentRecord) (models.ContentRecord, error) {
	if rec.ID == "" {
		return models.ContentRecord{}, apperr.Validation("id", "id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = models.ContentStatusDraft
	}
	if rec.Type == "" {
		rec.Type = models.ContentTypeNew
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(rec.ID) >= 0 {
		return models.ContentRecord{}, &apperr.ValidationError{Field: "id", Reason: "a record with this id already exists", Err: ErrDuplicateID}
	}

	s.records = slices.Insert(s.records, 0, rec.Clone())
	s.persist(ctx)
	return rec.Clone(), nil
}

// Patch merges patch into the record with id and returns the merged copy.
func (s *Store) Patch(ctx context.Context, id string, patch models.ContentPatch) (models.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.ContentRecord{}, &apperr.NotFoundError{Resource: "content", ID: id}
	}

	patch.Apply(&s.records[i], s.clock.Now().UTC())
	s.persist(ctx)
	return s.records[i].Clone(), nil
}

func (s *Store) Get(id string) (models.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.ContentRecord{}, &apperr.NotFoundError{Resource: "content", ID: id}
	}
	return s.records[i].Clone(), nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &apperr.NotFoundError{Resource: "content", ID: id}
	}
	s.records = slices.Delete(s.records, i, i+1)
	s.persist(ctx)
	return nil
}

// List yields copies of the records whose status equals status, newest first.
// An empty status yields every record. Each iteration starts from a fresh
// snapshot, so the sequence can be ranged over more than once.
func (s *Store) List(status string) iter.Seq[models.ContentRecord] {
	return func(yield func(models.ContentRecord) bool) {
		s.mu.RLock()
		snapshot := make([]models.ContentRecord, 0, len(s.records))
		for _, r := range s.records {
			if status == "" || r.Status == status {
				snapshot = append(snapshot, r.Clone())
			}
		}
		s.mu.RUnlock()

		for _, r := range snapshot {
			if !yield(r) {
				return
			}
		}
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Flush writes the snapshot if the last write failed. Called at shutdown.
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := s.persister.SaveSnapshot(ctx, s.snapshot()); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// persist writes the full snapshot. The caller must hold s.mu.
// A failed write keeps the in-memory state; the next mutation retries.
func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveSnapshot(ctx, s.snapshot()); err != nil {
		s.dirty = true
		snapshotFailures.Inc()
		s.logger.Error("saving content snapshot failed", "error", err, "records", len(s.records))
		return
	}
	s.dirty = false
}

func (s *Store) snapshot() []models.ContentRecord {
	out := make([]models.ContentRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(r models.ContentRecord) bool { return r.ID == id })
}
