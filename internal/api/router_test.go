package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kiranshivaraju/contentdesk/internal/ai"
	"github.com/kiranshivaraju/contentdesk/internal/api"
	"github.com/kiranshivaraju/contentdesk/internal/api/handler"
	mw "github.com/kiranshivaraju/contentdesk/internal/api/middleware"
	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/content"
	"github.com/kiranshivaraju/contentdesk/internal/poller"
	"github.com/kiranshivaraju/contentdesk/internal/video"
	"github.com/kiranshivaraju/contentdesk/internal/video/heygen"
	"github.com/kiranshivaraju/contentdesk/internal/video/mock"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- stubs ---

type stubCounter struct{}

func (stubCounter) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(_ context.Context) error { return p.err }

type stubTracker struct {
	mu     sync.Mutex
	active map[string]bool
}

func (s *stubTracker) Track(job poller.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[job.ContentID+"/"+job.Provider] = true
	return nil
}

func (s *stubTracker) Active(contentID, provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[contentID+"/"+provider]
}

type draftFunc func(ctx context.Context, p ai.GenerateParams) (ai.Draft, error)

func (f draftFunc) GenerateContent(ctx context.Context, p ai.GenerateParams) (ai.Draft, error) {
	return f(ctx, p)
}

type ideasFunc func(ctx context.Context, practiceArea string) ([]string, error)

func (f ideasFunc) GenerateIdeas(ctx context.Context, practiceArea string) ([]string, error) {
	return f(ctx, practiceArea)
}

type stubMirror map[string]models.VideoState

func (m stubMirror) GetVideoStatus(_ context.Context, provider, jobID string) (models.VideoState, bool, error) {
	s, ok := m[provider+":"+jobID]
	return s, ok, nil
}

type stubAvatars []heygen.Avatar

func (s stubAvatars) Avatars(_ context.Context) ([]heygen.Avatar, error) { return s, nil }

type stubSaver struct{ got models.SaveRequest }

func (s *stubSaver) Save(_ context.Context, req models.SaveRequest) (models.SavedFile, error) {
	if req.FolderType == "" {
		return models.SavedFile{}, apperr.Validation("folder_type", "folder_type is required")
	}
	s.got = req
	return models.SavedFile{FileID: "f1", ViewLink: "https://drive.example/view/f1"}, nil
}

// --- fixture ---

type fixture struct {
	router  http.Handler
	store   *content.Store
	drafts  *content.DraftService
	heygen  *mock.MockProvider
	pictory *mock.MockProvider
	saver   *stubSaver
	ideas   ideasFunc
}

type options struct {
	keyHash string
	ideas   ideasFunc
	health  map[string]handler.Pinger
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts options) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	logger := quietLogger()

	f := &fixture{
		store:   content.NewStore(nil, content.WithStoreClock(clock), content.WithStoreLogger(logger)),
		heygen:  mock.NewMockProvider(models.ProviderHeyGen),
		pictory: mock.NewScriptedProvider(models.ProviderPictory, "abc123"),
		saver:   &stubSaver{},
	}
	registry := video.NewRegistry(f.heygen, f.pictory)
	f.drafts = content.NewDraftService(f.store, draftFunc(func(_ context.Context, p ai.GenerateParams) (ai.Draft, error) {
		return ai.Draft{Article: "Article on " + p.Topic, Script: "Script"}, nil
	}), time.Minute, logger)
	videos := content.NewVideoService(f.store, registry, &stubTracker{active: map[string]bool{}}, clock, logger)

	ideas := opts.ideas
	if ideas == nil {
		ideas = func(_ context.Context, area string) ([]string, error) {
			if area == "" {
				return nil, apperr.Validation("practice_area", "practice_area is required")
			}
			return []string{"Idea one", "Idea two"}, nil
		}
	}
	health := opts.health
	if health == nil {
		health = map[string]handler.Pinger{"database": stubPinger{}, "cache": stubPinger{}}
	}

	f.router = api.NewRouter(api.Dependencies{
		Logger:          logger,
		Auth:            mw.NewAuth(opts.keyHash),
		RateLimit:       mw.NewRateLimit(stubCounter{}, 60),
		HealthHandler:   handler.NewHealthHandler(health),
		CreateContent:   handler.NewCreateContentHandler(f.store),
		ListContent:     handler.NewListContentHandler(f.store),
		GetContent:      handler.NewGetContentHandler(f.store),
		PatchContent:    handler.NewPatchContentHandler(f.store),
		DeleteContent:   handler.NewDeleteContentHandler(f.store),
		GenerateContent: handler.NewGenerateContentHandler(f.drafts),
		ContentIdeas:    handler.NewIdeasHandler(ideas),
		SubmitVideo:     handler.NewSubmitVideoHandler(videos),
		CreateVideo:     handler.NewCreateVideoHandler(registry),
		VideoStatus: handler.NewVideoStatusHandler(registry, stubMirror{
			"heygen:done-1": {JobID: "done-1", Status: models.VideoStatusCompleted, Progress: 100, URL: "https://cdn.example/done-1.mp4"},
		}),
		ListAvatars: handler.NewAvatarsHandler(stubAvatars{{AvatarID: "av1", AvatarName: "Ana"}}),
		SaveToDrive: handler.NewSaveFileHandler(f.saver),
	})
	t.Cleanup(f.drafts.Wait)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Data
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// --- router tests ---

func TestRouter_HealthEndpoint_Public(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("cd_secret_key_123"), bcrypt.MinCost)
	require.NoError(t, err)
	f := newFixture(t, options{keyHash: string(hash)})

	w := f.do(t, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeData[map[string]any](t, w)["status"])
}

func TestRouter_HealthDegraded(t *testing.T) {
	f := newFixture(t, options{health: map[string]handler.Pinger{
		"database": stubPinger{},
		"cache":    stubPinger{err: errors.New("connection refused")},
	}})

	w := f.do(t, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeErr(t, w)
	assert.Equal(t, "UNHEALTHY", body["code"])
	checks := body["details"].(map[string]any)["checks"].(map[string]any)
	assert.Equal(t, "unavailable", checks["cache"])
	assert.Equal(t, "ok", checks["database"])
}

func TestRouter_MetricsPublic(t *testing.T) {
	f := newFixture(t, options{})
	w := f.do(t, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("cd_secret_key_123"), bcrypt.MinCost)
	require.NoError(t, err)
	f := newFixture(t, options{keyHash: string(hash)})

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/content"},
		{"GET", "/api/v1/content"},
		{"GET", "/api/v1/content/x"},
		{"POST", "/api/v1/content/generate"},
		{"POST", "/api/v1/content/x/videos"},
		{"POST", "/api/v1/videos/heygen"},
		{"GET", "/api/v1/videos/heygen/v1"},
		{"GET", "/api/v1/avatars"},
		{"POST", "/api/v1/drive/files"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := f.do(t, ep.method, ep.path, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "INVALID_TOKEN", decodeErr(t, w)["code"])
		})
	}

	w := f.do(t, "GET", "/api/v1/content", nil, "Authorization", "Bearer cd_secret_key_123")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_OptionsAnsweredEverywhere(t *testing.T) {
	f := newFixture(t, options{})

	for _, path := range []string{"/api/v1/content", "/api/v1/videos/heygen/v1", "/nowhere"} {
		w := f.do(t, http.MethodOptions, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Empty(t, w.Body.Bytes())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRouter_NotFound(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "GET", "/api/v1/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeErr(t, w)["code"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_UnsetHandlerIsNotImplemented(t *testing.T) {
	r := api.NewRouter(api.Dependencies{Logger: quietLogger()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/avatars", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

// --- content routes ---

func TestContent_CRUD(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/content", map[string]any{
		"topic":         "Living Trusts",
		"practice_area": "estate-planning",
		"script":        "Protect your family.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[models.ContentRecord](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.ContentStatusDraft, created.Status)
	assert.Equal(t, models.ContentTypeNew, created.Type)

	w = f.do(t, "PATCH", "/api/v1/content/"+created.ID, map[string]any{"status": "ready", "article": "Body"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decodeData[models.ContentRecord](t, w)
	assert.Equal(t, models.ContentStatusReady, patched.Status)
	assert.Equal(t, "Body", patched.Article)
	assert.Equal(t, "Protect your family.", patched.Script)

	w = f.do(t, "GET", "/api/v1/content?status=ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[[]models.ContentRecord](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	w = f.do(t, "GET", "/api/v1/content?status=draft", nil)
	assert.Empty(t, decodeData[[]models.ContentRecord](t, w))

	w = f.do(t, "GET", "/api/v1/content/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "DELETE", "/api/v1/content/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", "/api/v1/content/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeErr(t, w)["code"])
}

func TestContent_ExplicitIDAndDuplicate(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/content", map[string]any{"id": "fixed", "topic": "Probate"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "fixed", decodeData[models.ContentRecord](t, w).ID)

	w = f.do(t, "POST", "/api/v1/content", map[string]any{"id": "fixed", "topic": "Probate"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeErr(t, w)["code"])
}

func TestContent_BadInput(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/content", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeErr(t, w)["code"])

	w = f.do(t, "GET", "/api/v1/content?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "PATCH", "/api/v1/content/missing", map[string]any{"topic": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContent_GenerateReturnsGeneratingRecord(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/content/generate", map[string]any{
		"topic":         "Eaton Fire claims",
		"practice_area": "fire-litigation",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	rec := decodeData[models.ContentRecord](t, w)
	assert.Equal(t, models.ContentStatusGenerating, rec.Status)

	f.drafts.Wait()
	got, err := f.store.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusReady, got.Status)
	assert.Equal(t, "Article on Eaton Fire claims", got.Article)
}

func TestContent_GenerateValidation(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/content/generate", map[string]any{"practice_area": "probate"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeErr(t, w)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
	assert.Equal(t, "topic", body["details"].(map[string]any)["field"])
	assert.Equal(t, 0, f.store.Len())
}

func TestContent_Ideas(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/content/ideas", map[string]any{"practice_area": "probate"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData[map[string]any](t, w)
	assert.Len(t, data["ideas"], 2)

	w = f.do(t, "POST", "/api/v1/content/ideas", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContent_IdeasAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"timeout", ai.ErrInferenceTimeout, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT"},
		{"unavailable", ai.ErrProviderUnavailable, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE"},
		{"missing key", &apperr.ConfigurationError{Setting: "OPENAI_API_KEY"}, http.StatusInternalServerError, "CONFIGURATION_ERROR"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, options{ideas: func(context.Context, string) ([]string, error) { return nil, tt.err }})
			w := f.do(t, "POST", "/api/v1/content/ideas", map[string]any{"practice_area": "probate"})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeErr(t, w)["code"])
		})
	}
}

func TestContent_SubmitVideoThenConflict(t *testing.T) {
	f := newFixture(t, options{})
	_, err := f.store.Add(context.Background(), models.ContentRecord{ID: "c1", Topic: "Trusts", Script: "Hello", Status: models.ContentStatusReady})
	require.NoError(t, err)

	w := f.do(t, "POST", "/api/v1/content/c1/videos", map[string]any{"provider": "pictory"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	rec := decodeData[models.ContentRecord](t, w)
	assert.Equal(t, models.ContentStatusProcessingVideo, rec.Status)
	assert.Equal(t, "abc123", rec.Videos[models.ProviderPictory].JobID)
	assert.Equal(t, models.VideoStatusProcessing, rec.Videos[models.ProviderPictory].Status)

	w = f.do(t, "POST", "/api/v1/content/c1/videos", map[string]any{"provider": "pictory"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "VIDEO_IN_PROGRESS", decodeErr(t, w)["code"])
	assert.Len(t, f.pictory.CreateCalls(), 1)
}

// --- video routes ---

func TestVideos_CreateDirect(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/videos/heygen", map[string]any{"script": "Hi", "language": "en"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData[map[string]string](t, w)
	assert.Equal(t, "mock-job", data["video_id"])
	assert.Equal(t, "processing", data["status"])
	assert.Equal(t, 0, f.store.Len())
}

func TestVideos_UnknownProvider(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/videos/synthesia", map[string]any{"script": "Hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "provider", decodeErr(t, w)["details"].(map[string]any)["field"])
}

func TestVideos_UpstreamErrorCarriesStatusAndBody(t *testing.T) {
	f := newFixture(t, options{})
	f.heygen.CreateJobFunc = func(context.Context, models.VideoJobRequest) (string, error) {
		return "", &apperr.UpstreamError{Provider: "heygen", Op: "create", StatusCode: 400, Body: `{"message":"avatar not found"}`}
	}

	w := f.do(t, "POST", "/api/v1/videos/heygen", map[string]any{"script": "Hi"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeErr(t, w)
	assert.Equal(t, "UPSTREAM_ERROR", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, float64(400), details["status"])
	assert.Contains(t, details["body"], "avatar not found")
}

func TestVideos_StatusFromMirrorAndProvider(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "GET", "/api/v1/videos/heygen/done-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeData[models.VideoJobStatus](t, w)
	assert.Equal(t, models.VideoStatusCompleted, st.Status)
	assert.Equal(t, "https://cdn.example/done-1.mp4", st.VideoURL)
	assert.Equal(t, 0, f.heygen.StatusCalls())

	w = f.do(t, "GET", "/api/v1/videos/heygen/live-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st = decodeData[models.VideoJobStatus](t, w)
	assert.Equal(t, models.VideoStatusProcessing, st.Status)
	assert.Equal(t, 1, f.heygen.StatusCalls())
}

func TestAvatars(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "GET", "/api/v1/avatars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	avatars := decodeData[[]heygen.Avatar](t, w)
	require.Len(t, avatars, 1)
	assert.Equal(t, "av1", avatars[0].AvatarID)
}

func TestDrive_SaveFile(t *testing.T) {
	f := newFixture(t, options{})

	w := f.do(t, "POST", "/api/v1/drive/files", map[string]any{
		"file_name":   "trusts.txt",
		"content":     "Article",
		"folder_type": "articles-en",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "f1", decodeData[models.SavedFile](t, w).FileID)
	assert.Equal(t, "articles-en", f.saver.got.FolderType)

	w = f.do(t, "POST", "/api/v1/drive/files", map[string]any{"file_name": "a.txt", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
