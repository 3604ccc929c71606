package uploadpipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
)

// UploadRequest describes one file upload
type UploadRequest struct {
	FileName    string
	ContentType string
	Title       string
	Folder      string
	Size        int64
	// Open returns a fresh reader of the payload, called once per attempt
	Open func() (io.ReadCloser, error)
	// OnProgress receives the number of payload bytes sent so far
	OnProgress func(sent int64)
}

// CompressRequest describes a server-side video compression
type CompressRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
	TargetSize  int64
}

// CompressResponse is the output of a server-side compression
type CompressResponse struct {
	Data           []byte
	ContentType    string
	OriginalSize   int64
	CompressedSize int64
	// Unchanged is set when the server echoed the original back
	Unchanged bool
}

// MediaAPI is the subset of the media HTTP API used by the pipeline
//
//go:generate mockgen -source=client.go -destination=../mocks/media_api.go -package=mocks -mock_names=MediaAPI=MockMediaAPI
type MediaAPI interface {
	// Upload persists one file and returns its catalog entry
	Upload(ctx context.Context, req UploadRequest) (*domain.MediaFile, error)

	// CompressVideo asks the server to transcode a video toward req.TargetSize
	CompressVideo(ctx context.Context, req CompressRequest) (*CompressResponse, error)

	// Sync triggers a catalog reconciliation
	Sync(ctx context.Context) (*domain.SyncSummary, error)
}

// APIError is a non-2xx response of the media API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("media api: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("media api: %s (status %d)", e.Message, e.Status)
}

// IsAPIErrorCode reports whether err is an APIError carrying code
func IsAPIErrorCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// ClientConfig holds the media API client settings
type ClientConfig struct {
	BaseURL string
	// UserID is sent as X-User-ID and owns uploaded files
	UserID string
	// MaxResponseSize bounds compressed payloads read back from the server
	MaxResponseSize int64
}

type client struct {
	config ClientConfig
	http   adapter.HTTPClient
	io     adapter.IO
}

// NewClient creates a MediaAPI over HTTP
func NewClient(cfg ClientConfig, httpClient adapter.HTTPClient, io adapter.IO) MediaAPI {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = UPLOAD_CEILING * 4
	}
	return &client{config: cfg, http: httpClient, io: io}
}

func (c *client) Upload(ctx context.Context, req UploadRequest) (*domain.MediaFile, error) {
	fields := map[string]string{"title": req.Title}
	if req.Folder != "" {
		fields["folder"] = req.Folder
	}

	resp, err := c.http.Do(ctx, c.multipartRequest("/media/upload", fields, filePart{
		name:        req.FileName,
		contentType: req.ContentType,
		open:        req.Open,
		onProgress:  req.OnProgress,
	}))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var media domain.MediaFile
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &media, nil
}

func (c *client) CompressVideo(ctx context.Context, req CompressRequest) (*CompressResponse, error) {
	fields := map[string]string{
		"targetSizeMB": strconv.FormatFloat(float64(req.TargetSize)/float64(domain.MB), 'f', -1, 64),
	}

	resp, err := c.http.Do(ctx, c.multipartRequest("/media/compress", fields, filePart{
		name:        req.FileName,
		contentType: req.ContentType,
		open:        req.Open,
	}))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := c.io.ReadAtMost(resp.Body, c.config.MaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed video: %w", err)
	}

	out := &CompressResponse{
		Data:           data,
		ContentType:    resp.Header.Get("Content-Type"),
		OriginalSize:   headerInt(resp.Header, "X-Original-Size", req.Size),
		CompressedSize: headerInt(resp.Header, "X-Compressed-Size", int64(len(data))),
		Unchanged:      resp.Header.Get("X-Compression-Unchanged") == "true",
	}
	return out, nil
}

func (c *client) Sync(ctx context.Context) (*domain.SyncSummary, error) {
	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/media/sync", nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var summary domain.SyncSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to decode sync response: %w", err)
	}
	return &summary, nil
}

type filePart struct {
	name        string
	contentType string
	open        func() (io.ReadCloser, error)
	onProgress  func(int64)
}

// multipartRequest streams the form through a pipe so the payload is never buffered whole.
// The body is rebuilt on every attempt.
func (c *client) multipartRequest(path string, fields map[string]string, file filePart) adapter.RequestFactory {
	return func(ctx context.Context) (*http.Request, error) {
		src, err := file.open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file.name, err)
		}

		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)

		go func() {
			defer src.Close()
			pw.CloseWithError(writeForm(mw, fields, file, src))
		}()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, pr)
		if err != nil {
			_ = pr.CloseWithError(err)
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		c.setHeaders(req)
		return req, nil
	}
}

func writeForm(mw *multipart.Writer, fields map[string]string, file filePart, src io.Reader) error {
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.name)))
	contentType := file.contentType
	if contentType == "" {
		contentType = domain.MimeOctetStream
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	if file.onProgress != nil {
		src = &progressReader{r: src, on: file.onProgress}
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.config.UserID != "" {
		req.Header.Set("X-User-ID", c.config.UserID)
	}
}

func (c *client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	body, err := c.io.ReadAtMost(resp.Body, 64*domain.KB)
	if err != nil {
		return apiErr
	}

	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		}
		apiErr.Code = payload.Code
	}
	return apiErr
}

func headerInt(h http.Header, name string, fallback int64) int64 {
	v, err := strconv.ParseInt(h.Get(name), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
