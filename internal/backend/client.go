package backend

import (
	"bytes"
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
	"os"
	"strconv"
	"strings"
	"time"

	"clipdeck/internal/logging"
	"clipdeck/internal/services"
)

const (
	defaultUserAgent     = "clipdeck/dev"
	defaultTimeout       = 2 * time.Minute
	defaultUploadTimeout = 30 * time.Minute
	errorBodyLimit       = 4096

	pathVideos          = "videos/"
	pathUpload          = "upload/"
	pathGenerateClips   = "generate-clips/"
	pathGenerateAIClips = "generate-ai-clips/"
	pathTranscript      = "transcript/"
	pathGetClips        = "get-clips/"
	pathDeleteClip      = "delete-clip/"
	pathDeleteVideo     = "delete-video/"
)

// Config describes the backend client configuration.
type Config struct {
	BaseURL       string
	APIToken      string
	UserAgent     string
	Timeout       time.Duration
	UploadTimeout time.Duration
	// HTTPClient overrides the client used for every request except uploads.
	HTTPClient *http.Client
	// UploadHTTPClient overrides the client used for uploads.
	UploadHTTPClient *http.Client
	Logger           *slog.Logger
}

// Client wraps the clip-generation REST API.
type Client struct {
	baseURL   *url.URL
	token     string
	userAgent string
	http      *http.Client
	upload    *http.Client
	logger    *slog.Logger
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("backend: base url is required")
	}
	baseURL, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	uploadClient := cfg.UploadHTTPClient
	if uploadClient == nil {
		uploadClient = &http.Client{Timeout: uploadTimeout}
		if cfg.HTTPClient != nil {
			uploadClient.Transport = cfg.HTTPClient.Transport
		}
	}
	return &Client{
		baseURL:   baseURL,
		token:     strings.TrimSpace(cfg.APIToken),
		userAgent: userAgent,
		http:      httpClient,
		upload:    uploadClient,
		logger:    logging.NewComponentLogger(cfg.Logger, "backend"),
	}, nil
}

// Ping checks that the service root answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, c.http, "ping", http.MethodGet, c.baseURL.String(), nil, "")
	return err
}

// ListVideos returns every source video known to the backend.
func (c *Client) ListVideos(ctx context.Context) ([]Video, error) {
	body, err := c.do(ctx, c.http, "list videos", http.MethodGet, c.endpoint(pathVideos, nil), nil, "")
	if err != nil {
		return nil, err
	}
	videos, err := decodeVideos(body)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "backend", "list videos", "decode response", err)
	}
	return videos, nil
}

// Upload streams file to the backend and returns the canonical filename the
// backend assigned.
func (c *Client) Upload(ctx context.Context, file UploadFile) (string, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "backend", "upload", "open file", err)
	}
	defer f.Close()

	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = f.Name()
	}
	mediaType := strings.TrimSpace(file.MediaType)
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
		header.Set("Content-Type", mediaType)
		part, err := writer.CreatePart(header)
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	body, err := c.do(ctx, c.upload, "upload", http.MethodPost, c.endpoint(pathUpload, nil), pr, writer.FormDataContentType())
	// Unblock the writer goroutine if the request ended before draining the body.
	_ = pr.Close()
	if err != nil {
		return "", err
	}

	var payload struct {
		Filename string `json:"filename"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", services.Wrap(services.ErrRemote, "backend", "upload", "decode response", err)
	}
	canonical := strings.TrimSpace(payload.Filename)
	if canonical == "" {
		canonical = name
	}
	c.logger.Info("upload accepted", logging.String(logging.FieldFilename, canonical), logging.String("message", payload.Message))
	return canonical, nil
}

// GenerateManualClips asks the backend to cut one clip per range.
func (c *Client) GenerateManualClips(ctx context.Context, filename string, ranges []Range) ([]Clip, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, errors.New("backend: filename is required")
	}
	if len(ranges) == 0 {
		return nil, errors.New("backend: at least one range is required")
	}
	params := url.Values{}
	params.Set("filename", filename)
	for _, r := range ranges {
		params.Add("timestamps", formatSeconds(r.Start))
		params.Add("timestamps", formatSeconds(r.End))
	}
	body, err := c.do(ctx, c.http, "generate clips", http.MethodPost, c.endpoint(pathGenerateClips, params), nil, "")
	if err != nil {
		return nil, err
	}
	return c.clipsFrom("generate clips", body)
}

// GenerateAIClips asks the backend to select clips automatically.
func (c *Client) GenerateAIClips(ctx context.Context, filename string) ([]Clip, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, errors.New("backend: filename is required")
	}
	payload, err := json.Marshal(map[string]string{"filename": filename})
	if err != nil {
		return nil, fmt.Errorf("backend: encode ai clip request: %w", err)
	}
	body, err := c.do(ctx, c.http, "generate ai clips", http.MethodPost, c.endpoint(pathGenerateAIClips, nil), bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	return c.clipsFrom("generate ai clips", body)
}

// FetchClips returns the clips previously generated for filename.
func (c *Client) FetchClips(ctx context.Context, filename string) ([]Clip, error) {
	params := url.Values{}
	params.Set("filename", filename)
	body, err := c.do(ctx, c.http, "fetch clips", http.MethodGet, c.endpoint(pathGetClips, params), nil, "")
	if err != nil {
		return nil, err
	}
	return c.clipsFrom("fetch clips", body)
}

// FetchTranscript returns the raw transcript document for filename. A video
// without a transcript yields an error matching services.ErrNotFound.
func (c *Client) FetchTranscript(ctx context.Context, filename string) ([]byte, error) {
	params := url.Values{}
	params.Set("filename", filename)
	return c.do(ctx, c.http, "fetch transcript", http.MethodGet, c.endpoint(pathTranscript, params), nil, "")
}

// DeleteClip removes a clip.
func (c *Client) DeleteClip(ctx context.Context, id ClipID) error {
	params := url.Values{}
	params.Set("clip_id", id.String())
	_, err := c.do(ctx, c.http, "delete clip", http.MethodDelete, c.endpoint(pathDeleteClip, params), nil, "")
	return err
}

// DeleteVideo removes a source video and its clips.
func (c *Client) DeleteVideo(ctx context.Context, filename string) error {
	params := url.Values{}
	params.Set("filename", filename)
	_, err := c.do(ctx, c.http, "delete video", http.MethodDelete, c.endpoint(pathDeleteVideo, params), nil, "")
	return err
}

// DownloadClip fetches the bytes behind a clip URL. Relative URLs resolve
// against the service root.
func (c *Client) DownloadClip(ctx context.Context, clipURL string) (Download, error) {
	target, err := c.baseURL.Parse(strings.TrimSpace(clipURL))
	if err != nil {
		return Download{}, fmt.Errorf("backend: parse clip url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Download{}, fmt.Errorf("backend: build download request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if sameHost(target, c.baseURL) {
		c.applyAuth(req)
	}
	resp, err := c.upload.Do(req)
	if err != nil {
		return Download{}, services.Wrap(services.ErrRemote, "backend", "download clip", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Download{}, newStatusError("download clip", resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Download{}, services.Wrap(services.ErrRemote, "backend", "download clip", "read body", err)
	}
	mediaType := resp.Header.Get("Content-Type")
	if mediaType == "" || strings.HasPrefix(mediaType, "application/octet-stream") {
		mediaType = "video/mp4"
	}
	return Download{Data: data, MediaType: mediaType}, nil
}

func (c *Client) clipsFrom(op string, body []byte) ([]Clip, error) {
	clips, dropped, err := decodeClips(body)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "backend", op, "decode response", err)
	}
	if dropped > 0 {
		logging.WarnWithContext(c.logger, "dropped clips with invalid ranges", "clip_range_invalid",
			logging.String("operation", op),
			logging.Int("dropped", dropped),
			logging.String(logging.FieldImpact, "clips whose end precedes their start are not shown"),
		)
	}
	return clips, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	target := c.baseURL.JoinPath(path)
	// JoinPath drops the trailing slash the service routes depend on.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}
	if len(params) > 0 {
		target.RawQuery = params.Encode()
	}
	return target.String()
}

func (c *Client) do(ctx context.Context, client *http.Client, op, method, target string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("backend: build %s request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if _, rid := services.EnsureRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}
	c.applyAuth(req)

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		marker := services.ErrRemote
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "backend", op, fmt.Sprintf("request failed (latency=%v)", latency.Round(time.Millisecond)), err)
	}
	defer resp.Body.Close()

	logging.WithContext(ctx, c.logger).Debug("backend request",
		logging.String("operation", op),
		logging.String("method", method),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)

	if resp.StatusCode >= 300 {
		return nil, newStatusError(op, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrRemote, "backend", op, "read body", err)
	}
	return data, nil
}

func (c *Client) applyAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func sameHost(a, b *url.URL) bool {
	return strings.EqualFold(a.Host, b.Host)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
