package content_test

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/content"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// memPersister keeps the last snapshot in memory and can be told to fail.
type memPersister struct {
	mu       sync.Mutex
	records  []models.ContentRecord
	saves    int
	failSave error
}

func (p *memPersister) SaveSnapshot(_ context.Context, records []models.ContentRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.failSave != nil {
		return p.failSave
	}
	p.records = records
	return nil
}

func (p *memPersister) LoadSnapshot(_ context.Context) ([]models.ContentRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.records, nil
}

func (p *memPersister) setFail(err error) {
	p.mu.Lock()
	p.failSave = err
	p.mu.Unlock()
}

func (p *memPersister) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(p content.Persister) *content.Store {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return content.NewStore(p, content.WithStoreClock(clock), content.WithStoreLogger(quietLogger()))
}

func collect(s *content.Store, status string) []string {
	var ids []string
	for r := range s.List(status) {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestStore_AddPrependsAndDefaults(t *testing.T) {
	s := newStore(nil)
	ctx := context.Background()

	first, err := s.Add(ctx, models.ContentRecord{ID: "a", Topic: "Trusts"})
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusDraft, first.Status)
	assert.Equal(t, models.ContentTypeNew, first.Type)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), first.CreatedAt)

	_, err = s.Add(ctx, models.ContentRecord{ID: "b", Topic: "Wills"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, collect(s, ""))
	assert.Equal(t, 2, s.Len())
}

func TestStore_AddRejectsEmptyAndDuplicateID(t *testing.T) {
	s := newStore(nil)
	ctx := context.Background()

	_, err := s.Add(ctx, models.ContentRecord{})
	assert.True(t, apperr.IsValidation(err))

	_, err = s.Add(ctx, models.ContentRecord{ID: "a"})
	require.NoError(t, err)
	_, err = s.Add(ctx, models.ContentRecord{ID: "a"})
	assert.True(t, apperr.IsValidation(err))
	assert.ErrorIs(t, err, content.ErrDuplicateID)
	assert.Equal(t, 1, s.Len())
}

func TestStore_PatchMergesShallowly(t *testing.T) {
	s := newStore(nil)
	ctx := context.Background()
	_, err := s.Add(ctx, models.ContentRecord{ID: "a", Topic: "Trusts", Script: "Hello", Hashtags: []string{"#law"}})
	require.NoError(t, err)

	got, err := s.Patch(ctx, "a", models.ContentPatch{Status: models.Ptr(models.ContentStatusReady)})
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusReady, got.Status)
	assert.Equal(t, "Trusts", got.Topic)
	assert.Equal(t, "Hello", got.Script)
	assert.Equal(t, []string{"#law"}, got.Hashtags)
}

func TestStore_PatchMissingIsNotFound(t *testing.T) {
	s := newStore(nil)
	_, err := s.Patch(context.Background(), "missing", models.ContentPatch{Status: models.Ptr("ready")})
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
}

func TestStore_ReturnedCopiesDoNotAlias(t *testing.T) {
	s := newStore(nil)
	ctx := context.Background()
	_, err := s.Add(ctx, models.ContentRecord{ID: "a", Captions: []string{"one"}})
	require.NoError(t, err)

	got, err := s.Get("a")
	require.NoError(t, err)
	got.Captions[0] = "changed"

	again, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, again.Captions)
}

func TestStore_Remove(t *testing.T) {
	s := newStore(nil)
	ctx := context.Background()
	_, err := s.Add(ctx, models.ContentRecord{ID: "a"})
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "a"))
	_, err = s.Get("a")
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(s.Remove(ctx, "a")))
}

func TestStore_ListFiltersAndRestarts(t *testing.T) {
	s := newStore(nil)
	ctx := context.Background()
	for _, r := range []models.ContentRecord{
		{ID: "a", Status: models.ContentStatusReady},
		{ID: "b", Status: models.ContentStatusFailed},
		{ID: "c", Status: models.ContentStatusReady},
	} {
		_, err := s.Add(ctx, r)
		require.NoError(t, err)
	}

	seq := s.List(models.ContentStatusReady)
	assert.Equal(t, []string{"c", "a"}, collectSeq(seq))
	assert.Equal(t, []string{"c", "a"}, collectSeq(seq), "second pass must yield the same records")
	assert.Empty(t, collect(s, models.ContentStatusCompleted))
}

func TestStore_ListIsLazyAndStopsEarly(t *testing.T) {
	s := newStore(nil)
	ctx := context.Background()
	seq := s.List("")

	_, err := s.Add(ctx, models.ContentRecord{ID: "a"})
	require.NoError(t, err)
	_, err = s.Add(ctx, models.ContentRecord{ID: "b"})
	require.NoError(t, err)

	var seen []string
	for r := range seq {
		seen = append(seen, r.ID)
		break
	}
	assert.Equal(t, []string{"b"}, seen, "records added after List was called are visible")
}

func collectSeq(seq iter.Seq[models.ContentRecord]) []string {
	var ids []string
	for r := range seq {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	p := &memPersister{}
	s := newStore(p)
	ctx := context.Background()

	_, err := s.Add(ctx, models.ContentRecord{
		ID:           "a",
		Topic:        "Fire Claims",
		PracticeArea: "fire-litigation",
		Language:     models.LanguageBoth,
		Article:      "Article",
		ArticleEs:    "Artículo",
		Captions:     []string{"c1", "c2"},
		Hashtags:     []string{"#fire"},
	})
	require.NoError(t, err)
	_, err = s.Patch(ctx, "a", models.ContentPatch{
		Videos: map[string]models.VideoPatch{
			models.ProviderHeyGen: {JobID: models.Ptr("v1"), Status: models.Ptr(models.VideoStatusProcessing), Progress: models.Ptr(30)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.saveCount())

	want, err := s.Get("a")
	require.NoError(t, err)

	restored := newStore(p)
	require.NoError(t, restored.Load(ctx))
	got, err := restored.Get("a")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_PersistenceFailureKeepsState(t *testing.T) {
	p := &memPersister{}
	s := newStore(p)
	ctx := context.Background()

	p.setFail(errors.New("disk full"))
	_, err := s.Add(ctx, models.ContentRecord{ID: "a"})
	require.NoError(t, err, "a failed snapshot must not fail the mutation")

	_, err = s.Get("a")
	require.NoError(t, err)

	assert.Error(t, s.Flush(ctx))

	p.setFail(nil)
	require.NoError(t, s.Flush(ctx))
	records, err := p.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].ID)

	saves := p.saveCount()
	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, saves, p.saveCount(), "clean store does not write on flush")
}

func TestStore_ConcurrentPatchesOnDifferentProviders(t *testing.T) {
	s := newStore(&memPersister{})
	ctx := context.Background()
	_, err := s.Add(ctx, models.ContentRecord{ID: "a"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(p int) {
			defer wg.Done()
			_, _ = s.Patch(ctx, "a", models.ContentPatch{Videos: map[string]models.VideoPatch{
				models.ProviderHeyGen: {Progress: models.Ptr(p)},
			}})
		}(i)
		go func(p int) {
			defer wg.Done()
			_, _ = s.Patch(ctx, "a", models.ContentPatch{Videos: map[string]models.VideoPatch{
				models.ProviderPictory: {Status: models.Ptr(models.VideoStatusProcessing)},
			}})
		}(i)
	}
	wg.Wait()

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Len(t, got.Videos, 2)
	assert.Equal(t, models.VideoStatusProcessing, got.Videos[models.ProviderPictory].Status)
}
