// Package drive saves generated content and finished videos into a fixed
// Google Drive folder layout.
package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kiranshivaraju/contentdesk/internal/apperr"
	"github.com/kiranshivaraju/contentdesk/internal/config"
	"github.com/kiranshivaraju/contentdesk/internal/oauth"
	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

const (
	providerName    = "drive"
	folderMimeType  = "application/vnd.google-apps.folder"
	metadataTimeout = 10 * time.Second
	uploadTimeout   = 5 * time.Minute
)

// FolderLayout maps a folder type to its slash-separated path under the root.
var FolderLayout = map[string]string{
	"videos-en":   "Social Media Videos/English",
	"videos-es":   "Social Media Videos/Spanish",
	"articles-en": "Generated Content/Articles/English",
	"articles-es": "Generated Content/Articles/Spanish",
	"scripts":     "Generated Content/Scripts",
	"images":      "Generated Content/Images",
}

// Client uploads files to Google Drive using a configured refresh token.
type Client struct {
	cfg    config.DriveConfig
	client *http.Client
	clock  clockwork.Clock
	logger *slog.Logger
	tokens *oauth.TokenCache

	mu      sync.Mutex
	folders map[string]string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.client = hc } }

func WithClock(clock clockwork.Clock) Option { return func(c *Client) { c.clock = clock } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

func New(cfg config.DriveConfig, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		client:  &http.Client{},
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
		folders: make(map[string]string),
	}
	c.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c.cfg.UploadURL = strings.TrimRight(cfg.UploadURL, "/")
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "drive")

	grant := oauth.FormGrant(c.client, cfg.TokenURL, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {cfg.RefreshToken},
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
	})
	c.tokens = oauth.NewTokenCache(func(ctx context.Context) (oauth.Token, error) {
		ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
		defer cancel()
		return grant(ctx)
	}, c.clock)
	return c
}

// SaveVideo copies a finished video from its source URL into Drive.
func (c *Client) SaveVideo(ctx context.Context, req models.SaveRequest) (models.SavedFile, error) {
	if req.SourceURL == "" {
		return models.SavedFile{}, apperr.Validation("source_url", "source_url is required")
	}
	return c.Save(ctx, req)
}

// Save writes text content or the body fetched from SourceURL into the
// folder named by FolderType, creating folders as needed.
func (c *Client) Save(ctx context.Context, req models.SaveRequest) (models.SavedFile, error) {
	if err := validate(req); err != nil {
		return models.SavedFile{}, err
	}
	folderPath := FolderLayout[req.FolderType]
	if err := c.checkCredentials(); err != nil {
		return models.SavedFile{}, err
	}

	folderID, err := c.ensureFolder(ctx, folderPath)
	if err != nil {
		return models.SavedFile{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	mimeType := detectMimeType(req.FileName, req.ContentType)
	var media io.ReadCloser
	if req.SourceURL != "" {
		media, err = c.fetchSource(ctx, req.SourceURL)
		if err != nil {
			return models.SavedFile{}, err
		}
	} else {
		media = io.NopCloser(strings.NewReader(req.Content))
	}
	defer media.Close()

	saved, err := c.upload(ctx, req.FileName, folderID, mimeType, media)
	if err != nil {
		return models.SavedFile{}, err
	}
	c.logger.Info("file saved", "file_id", saved.FileID, "folder", folderPath, "name", req.FileName)
	return saved, nil
}

func validate(req models.SaveRequest) error {
	if strings.TrimSpace(req.FileName) == "" {
		return apperr.Validation("file_name", "file_name is required")
	}
	if (req.Content == "") == (req.SourceURL == "") {
		return apperr.Validation("content", "exactly one of content or source_url is required")
	}
	if _, ok := FolderLayout[req.FolderType]; !ok {
		return apperr.Validation("folder_type", fmt.Sprintf("unknown folder type %q", req.FolderType))
	}
	return nil
}

func (c *Client) checkCredentials() error {
	switch {
	case c.cfg.ClientID == "":
		return &apperr.ConfigurationError{Setting: "GOOGLE_CLIENT_ID"}
	case c.cfg.ClientSecret == "":
		return &apperr.ConfigurationError{Setting: "GOOGLE_CLIENT_SECRET"}
	case c.cfg.RefreshToken == "":
		return &apperr.ConfigurationError{Setting: "GOOGLE_REFRESH_TOKEN"}
	}
	return nil
}

// ensureFolder resolves folderPath segment by segment, searching for each
// folder and creating it when missing. Resolved ids are memoized.
func (c *Client) ensureFolder(ctx context.Context, folderPath string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.folders[folderPath]; ok {
		return id, nil
	}

	parent := c.cfg.RootFolderID
	walked := ""
	for _, name := range strings.Split(folderPath, "/") {
		walked = path.Join(walked, name)
		if id, ok := c.folders[walked]; ok {
			parent = id
			continue
		}

		id, err := c.findFolder(ctx, name, parent)
		if err != nil {
			return "", err
		}
		if id == "" {
			id, err = c.createFolder(ctx, name, parent)
			if err != nil {
				return "", err
			}
		}
		c.folders[walked] = id
		parent = id
	}
	return parent, nil
}

func (c *Client) findFolder(ctx context.Context, name, parent string) (string, error) {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(name), folderMimeType)
	if parent != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parent))
	}
	params := url.Values{
		"q":      {q},
		"fields": {"files(id, name)"},
		"spaces": {"drive"},
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/drive/v3/files?"+params.Encode(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	raw, err := c.do(req, "find folder")
	if err != nil {
		return "", err
	}

	var resp struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &apperr.UpstreamError{Provider: providerName, Op: "find folder", StatusCode: http.StatusOK, Body: string(raw), Err: err}
	}
	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].ID, nil
}

func (c *Client) createFolder(ctx context.Context, name, parent string) (string, error) {
	meta := fileMetadata{Name: name, MimeType: folderMimeType}
	if parent != "" {
		meta.Parents = []string{parent}
	}
	buf, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encoding folder metadata: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/drive/v3/files?fields=id", strings.NewReader(string(buf)))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req, "create folder")
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.ID == "" {
		return "", &apperr.UpstreamError{Provider: providerName, Op: "create folder", StatusCode: http.StatusOK, Body: string(raw), Err: errors.New("response has no folder id")}
	}
	c.logger.Info("folder created", "name", name, "folder_id", resp.ID)
	return resp.ID, nil
}

type fileMetadata struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

// upload streams a multipart/related body of metadata plus media to the Drive upload endpoint.
func (c *Client) upload(ctx context.Context, name, folderID, mimeType string, media io.Reader) (models.SavedFile, error) {
	meta, err := json.Marshal(fileMetadata{Name: name, Parents: []string{folderID}})
	if err != nil {
		return models.SavedFile{}, fmt.Errorf("encoding file metadata: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeMultipart(mw, meta, mimeType, media)
		pw.CloseWithError(err)
	}()

	params := url.Values{
		"uploadType": {"multipart"},
		"fields":     {"id,webViewLink,webContentLink"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL+"/drive/v3/files?"+params.Encode(), pr)
	if err != nil {
		pr.Close()
		return models.SavedFile{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	raw, err := c.do(req, "upload")
	pr.Close()
	if err != nil {
		return models.SavedFile{}, err
	}

	var resp struct {
		ID             string `json:"id"`
		WebViewLink    string `json:"webViewLink"`
		WebContentLink string `json:"webContentLink"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.ID == "" {
		return models.SavedFile{}, &apperr.UpstreamError{Provider: providerName, Op: "upload", StatusCode: http.StatusOK, Body: string(raw), Err: errors.New("response has no file id")}
	}
	return models.SavedFile{FileID: resp.ID, ViewLink: resp.WebViewLink, DownloadLink: resp.WebContentLink}, nil
}

func writeMultipart(mw *multipart.Writer, meta []byte, mimeType string, media io.Reader) error {
	metaPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return err
	}
	if _, err := metaPart.Write(meta); err != nil {
		return err
	}

	mediaPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {mimeType}})
	if err != nil {
		return err
	}
	if _, err := io.Copy(mediaPart, media); err != nil {
		return fmt.Errorf("copying media: %w", err)
	}
	return mw.Close()
}

// fetchSource opens the media at sourceURL. The caller closes the body.
func (c *Client) fetchSource(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return nil, apperr.Validation("source_url", "source_url is not a valid URL")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream(providerName, "fetch source", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &apperr.UpstreamError{Provider: providerName, Op: "fetch source", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

// do authorizes req with the cached access token and returns the 2xx body.
// A 401 drops the cached token so the next call refreshes it.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		var se *oauth.StatusError
		if errors.As(err, &se) {
			return nil, &apperr.UpstreamError{Provider: providerName, Op: "token", StatusCode: se.StatusCode, Body: se.Body}
		}
		return nil, apperr.Upstream(providerName, "token", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream(providerName, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.UpstreamError{Provider: providerName, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.UpstreamError{Provider: providerName, Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// detectMimeType prefers the file extension over the declared content type.
func detectMimeType(fileName, declared string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".mp4":
		return "video/mp4"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".txt":
		return "text/plain"
	case ".html":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	}
	if declared != "" {
		return declared
	}
	return "text/plain"
}
