// Package heygen adapts the HeyGen avatar video API to models.VideoProvider.
package heygen

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

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

const (
	createTimeout = 30 * time.Second
	statusTimeout = 10 * time.Second
)

// Avatar is a HeyGen avatar available to the configured account.
type Avatar struct {
	AvatarID        string `json:"avatar_id"`
	AvatarName      string `json:"avatar_name"`
	Gender          string `json:"gender,omitempty"`
	PreviewImageURL string `json:"preview_image_url,omitempty"`
	PreviewVideoURL string `json:"preview_video_url,omitempty"`
}

// Client implements models.VideoProvider against the HeyGen REST API.
type Client struct {
	cfg    config.HeyGenConfig
	client *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Per-call deadlines still apply.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func New(cfg config.HeyGenConfig, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		client: &http.Client{},
	}
	c.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return models.ProviderHeyGen }

func (c *Client) CreateJob(ctx context.Context, req models.VideoJobRequest) (string, error) {
	if field, reason, ok := req.Normalize(); !ok {
		return "", &apperr.ValidationError{Field: field, Reason: reason}
	}
	if c.cfg.APIKey == "" {
		return "", &apperr.ConfigurationError{Setting: "HEYGEN_API_KEY"}
	}

	body := c.buildCreateBody(req)

	ctx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	raw, err := c.do(ctx, "create job", http.MethodPost, c.cfg.BaseURL+"/v2/video/generate", body)
	if err != nil {
		return "", err
	}

	videoID, err := decodeCreate(raw)
	if err != nil {
		return "", &apperr.UpstreamError{Provider: models.ProviderHeyGen, Op: "create job", StatusCode: http.StatusOK, Body: string(raw), Err: err}
	}
	return videoID, nil
}

func (c *Client) GetStatus(ctx context.Context, jobID string) (models.VideoJobStatus, error) {
	if strings.TrimSpace(jobID) == "" {
		return models.VideoJobStatus{}, apperr.Validation("video_id", "video id is required")
	}
	if c.cfg.APIKey == "" {
		return models.VideoJobStatus{}, &apperr.ConfigurationError{Setting: "HEYGEN_API_KEY"}
	}

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/v1/video_status.get?%s", c.cfg.BaseURL, url.Values{"video_id": {jobID}}.Encode())
	raw, err := c.do(ctx, "get status", http.MethodGet, u, nil)
	if err != nil {
		return models.VideoJobStatus{}, err
	}

	status, err := decodeStatus(raw)
	if err != nil {
		return models.VideoJobStatus{}, &apperr.UpstreamError{Provider: models.ProviderHeyGen, Op: "get status", StatusCode: http.StatusOK, Body: string(raw), Err: err}
	}
	return status, nil
}

// ListAvatars returns the avatars available to the configured account.
func (c *Client) ListAvatars(ctx context.Context) ([]Avatar, error) {
	if c.cfg.APIKey == "" {
		return nil, &apperr.ConfigurationError{Setting: "HEYGEN_API_KEY"}
	}

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	raw, err := c.do(ctx, "list avatars", http.MethodGet, c.cfg.BaseURL+"/v2/avatars", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data *struct {
			Avatars []Avatar `json:"avatars"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &apperr.UpstreamError{Provider: models.ProviderHeyGen, Op: "list avatars", StatusCode: http.StatusOK, Body: string(raw), Err: err}
	}
	if resp.Data == nil {
		return nil, &apperr.UpstreamError{Provider: models.ProviderHeyGen, Op: "list avatars", StatusCode: http.StatusOK, Body: string(raw), Err: errors.New("response has no data")}
	}
	return resp.Data.Avatars, nil
}

type createRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
	AspectRatio string       `json:"aspect_ratio"`
}

type videoInput struct {
	Character character `json:"character"`
	Voice     voice     `json:"voice"`
}

type character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type voice struct {
	Type      string `json:"type"`
	InputText string `json:"input_text"`
	VoiceID   string `json:"voice_id"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (c *Client) buildCreateBody(req models.VideoJobRequest) createRequest {
	voiceID := c.cfg.VoiceEN
	if req.Language == "es" {
		voiceID = c.cfg.VoiceES
	}

	avatarID := c.cfg.AvatarMale
	if req.Options.AvatarType == "professional_female" {
		avatarID = c.cfg.AvatarFemale
	}

	dim := dimension{Width: 1080, Height: 1920}
	if req.Format == models.FormatSquare {
		dim = dimension{Width: 1080, Height: 1080}
	}

	return createRequest{
		VideoInputs: []videoInput{{
			Character: character{Type: "avatar", AvatarID: avatarID, AvatarStyle: "normal"},
			Voice:     voice{Type: "text", InputText: req.Script, VoiceID: voiceID},
		}},
		Dimension:   dim,
		AspectRatio: req.Format,
	}
}

// do sends a JSON request and returns the raw 2xx body. Transport failures and
// non-2xx responses come back as *apperr.UpstreamError.
func (c *Client) do(ctx context.Context, op, method, u string, body any) ([]byte, error) {
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
	httpReq.Header.Set("X-Api-Key", c.cfg.APIKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Upstream(models.ProviderHeyGen, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.UpstreamError{Provider: models.ProviderHeyGen, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.UpstreamError{Provider: models.ProviderHeyGen, Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

var _ models.VideoProvider = (*Client)(nil)
