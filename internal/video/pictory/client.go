// Package pictory adapts the Pictory storyboard API to models.VideoProvider.
package pictory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/internal/oauth"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

const (
	createTimeout = 30 * time.Second
	statusTimeout = 10 * time.Second
)

// Client implements models.VideoProvider against the Pictory REST API.
// Requests are authorised with a client-credentials token cached per client.
type Client struct {
	cfg    config.PictoryConfig
	client *http.Client
	clock  clockwork.Clock
	tokens *oauth.TokenCache
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithClock sets the clock used for token expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func New(cfg config.PictoryConfig, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		client: &http.Client{},
		clock:  clockwork.NewRealClock(),
	}
	c.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	for _, opt := range opts {
		opt(c)
	}
	c.tokens = oauth.NewTokenCache(c.fetchToken, c.clock)
	return c
}

func (c *Client) Name() string { return models.ProviderPictory }

func (c *Client) CreateJob(ctx context.Context, req models.VideoJobRequest) (string, error) {
	if field, reason, ok := req.Normalize(); !ok {
		return "", &apperr.ValidationError{Field: field, Reason: reason}
	}
	if err := c.checkCredentials(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	raw, err := c.do(ctx, "create job", http.MethodPost, c.cfg.BaseURL+"/pictoryapis/v2/video/storyboard", buildStoryboard(req))
	if err != nil {
		return "", err
	}

	jobID, err := decodeCreate(raw)
	if err != nil {
		return "", &apperr.UpstreamError{Provider: models.ProviderPictory, Op: "create job", StatusCode: http.StatusOK, Body: string(raw), Err: err}
	}
	return jobID, nil
}

func (c *Client) GetStatus(ctx context.Context, jobID string) (models.VideoJobStatus, error) {
	if strings.TrimSpace(jobID) == "" {
		return models.VideoJobStatus{}, apperr.Validation("video_id", "job id is required")
	}
	if err := c.checkCredentials(); err != nil {
		return models.VideoJobStatus{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	raw, err := c.do(ctx, "get status", http.MethodGet, c.cfg.BaseURL+"/pictoryapis/v1/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return models.VideoJobStatus{}, err
	}

	status, err := decodeStatus(raw)
	if err != nil {
		return models.VideoJobStatus{}, &apperr.UpstreamError{Provider: models.ProviderPictory, Op: "get status", StatusCode: http.StatusOK, Body: string(raw), Err: err}
	}
	return status, nil
}

func (c *Client) checkCredentials() error {
	if c.cfg.ClientID == "" {
		return &apperr.ConfigurationError{Setting: "PICTORY_CLIENT_ID"}
	}
	if c.cfg.ClientSecret == "" {
		return &apperr.ConfigurationError{Setting: "PICTORY_CLIENT_SECRET"}
	}
	return nil
}

type storyboardRequest struct {
	VideoName       string          `json:"videoName"`
	VideoWidth      int             `json:"videoWidth"`
	VideoHeight     int             `json:"videoHeight"`
	Language        string          `json:"language"`
	Scenes          []scene         `json:"scenes"`
	BackgroundMusic backgroundMusic `json:"backgroundMusic"`
	VoiceOver       voiceOver       `json:"voiceOver"`
}

type scene struct {
	Story                      string `json:"story"`
	CreateSceneOnNewLine       bool   `json:"createSceneOnNewLine"`
	CreateSceneOnEndOfSentence bool   `json:"createSceneOnEndOfSentence"`
}

type backgroundMusic struct {
	Enabled   bool    `json:"enabled"`
	AutoMusic bool    `json:"autoMusic"`
	Volume    float64 `json:"volume"`
}

type voiceOver struct {
	Enabled  bool      `json:"enabled"`
	AIVoices []aiVoice `json:"aiVoices"`
}

type aiVoice struct {
	Speaker string `json:"speaker"`
}

func buildStoryboard(req models.VideoJobRequest) storyboardRequest {
	name := req.Options.VideoName
	if name == "" {
		name = "Law_Firm_Video_" + uuid.NewString()
	}

	width, height := 1080, 1920
	if req.Format == models.FormatSquare {
		height = 1080
	}

	speaker := "Matthew"
	if req.Language == "es" {
		speaker = "Maria"
	}

	return storyboardRequest{
		VideoName:   name,
		VideoWidth:  width,
		VideoHeight: height,
		Language:    req.Language,
		Scenes: []scene{{
			Story:                      req.Script,
			CreateSceneOnNewLine:       true,
			CreateSceneOnEndOfSentence: true,
		}},
		BackgroundMusic: backgroundMusic{Enabled: true, AutoMusic: true, Volume: 0.2},
		VoiceOver:       voiceOver{Enabled: true, AIVoices: []aiVoice{{Speaker: speaker}}},
	}
}

// fetchToken exchanges the client credentials for an access token.
func (c *Client) fetchToken(ctx context.Context) (oauth.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	buf, err := json.Marshal(map[string]string{
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
	})
	if err != nil {
		return oauth.Token{}, fmt.Errorf("encoding token request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/pictoryapis/v1/oauth2/token", bytes.NewReader(buf))
	if err != nil {
		return oauth.Token{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return oauth.Token{}, apperr.Upstream(models.ProviderPictory, "token", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return oauth.Token{}, &apperr.UpstreamError{Provider: models.ProviderPictory, Op: "token", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	tok, err := oauth.DecodeToken(raw)
	if err != nil {
		return oauth.Token{}, &apperr.UpstreamError{Provider: models.ProviderPictory, Op: "token", StatusCode: resp.StatusCode, Body: string(raw), Err: err}
	}
	return tok, nil
}

// do sends an authorised JSON request and returns the raw 2xx body. A 401 drops
// the cached token so the next call fetches a fresh one.
func (c *Client) do(ctx context.Context, op, method, u string, body any) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		var ue *apperr.UpstreamError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, apperr.Upstream(models.ProviderPictory, "token", err)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-Pictory-User-Id", c.cfg.UserID)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Upstream(models.ProviderPictory, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.UpstreamError{Provider: models.ProviderPictory, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.UpstreamError{Provider: models.ProviderPictory, Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

var _ models.VideoProvider = (*Client)(nil)
