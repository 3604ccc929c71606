// Package retrieval serves object store content over HTTP semantics: range requests for
// time-based media, buffered SVG sanitization and cache headers.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
	"github.com/feral-file/ff-media-library/internal/storage"
	"github.com/feral-file/ff-media-library/internal/storageconfig"
)

const (
	DEFAULT_STREAM_THRESHOLD     int64 = 10 * domain.MB
	DEFAULT_VIEW_CACHE_MAX_AGE         = 24 * time.Hour
	DEFAULT_DEFAULT_CACHE_MAX_AGE      = time.Hour
)

// Request is one retrieval
type Request struct {
	Key string
	// View serves the content inline instead of as an attachment
	View bool
	// Range is the raw Range request header
	Range string
}

// Response is a retrieval result. Exactly one of Body and Data is set for GET responses.
type Response struct {
	Status int
	Header http.Header
	// Body is the streamed content; the caller must close it
	Body io.ReadCloser
	// Data is the buffered content
	Data []byte
}

// Close releases the streamed body, if any
func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Config holds retrieval configuration
type Config struct {
	// StreamThreshold is the size above which content is streamed instead of buffered
	StreamThreshold    int64
	ViewCacheMaxAge    time.Duration
	DefaultCacheMaxAge time.Duration
}

// Service retrieves objects of the active bucket
type Service interface {
	// Retrieve fetches key for a GET request
	Retrieve(ctx context.Context, req Request) (*Response, error)
	// Probe returns the headers a GET of key would carry, without a body
	Probe(ctx context.Context, key string) (*Response, error)
}

type service struct {
	config   Config
	resolver storageconfig.Resolver
	gateway  storage.Gateway
}

// New creates a retrieval service
func New(cfg Config, resolver storageconfig.Resolver, gateway storage.Gateway) Service {
	if cfg.StreamThreshold <= 0 {
		cfg.StreamThreshold = DEFAULT_STREAM_THRESHOLD
	}
	if cfg.ViewCacheMaxAge <= 0 {
		cfg.ViewCacheMaxAge = DEFAULT_VIEW_CACHE_MAX_AGE
	}
	if cfg.DefaultCacheMaxAge <= 0 {
		cfg.DefaultCacheMaxAge = DEFAULT_DEFAULT_CACHE_MAX_AGE
	}
	return &service{config: cfg, resolver: resolver, gateway: gateway}
}

func (s *service) Retrieve(ctx context.Context, req Request) (*Response, error) {
	if req.Key == "" {
		return nil, fmt.Errorf("%w: key is required", domain.ErrInvalidInput)
	}

	cfg, err := s.resolver.GetActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	derivedType := domain.ClassifyByExtension(req.Key)
	timeBased := domain.IsTimeBased(derivedType)

	// Time-based media needs the authoritative size to honor ranges. Keys without a known
	// extension are probed too, since only the store knows whether they are video or audio.
	var (
		head *storage.ObjectInfo
		rng  *storage.ByteRange
	)
	if timeBased || derivedType == domain.MimeOctetStream {
		head, err = s.gateway.Head(ctx, *cfg, req.Key)
		switch {
		case errors.Is(err, domain.ErrObjectNotFound):
			return nil, err
		case err != nil:
			logger.WarnCtx(ctx, "Metadata probe failed, serving without range support",
				zap.String("key", req.Key),
				zap.Error(err),
			)
		default:
			timeBased = timeBased || domain.IsTimeBased(domain.EffectiveContentType(head.ContentType, req.Key))
			if timeBased {
				rng, _ = ParseRange(req.Range, head.SizeBytes)
			}
		}
	}

	stream, err := s.gateway.Get(ctx, *cfg, req.Key, rng)
	if err != nil {
		return nil, err
	}

	contentType := domain.EffectiveContentType(stream.ContentType, req.Key)
	timeBased = timeBased || domain.IsTimeBased(contentType)

	totalSize := stream.SizeBytes
	if head != nil {
		totalSize = head.SizeBytes
	}

	header := s.headers(req.Key, contentType, req.View, timeBased, stream.ObjectInfo)
	resp := &Response{Status: http.StatusOK, Header: header}

	if rng != nil {
		resp.Status = http.StatusPartialContent
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End, totalSize))
		header.Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	} else if stream.SizeBytes > 0 {
		header.Set("Content-Length", strconv.FormatInt(stream.SizeBytes, 10))
	}

	svg := domain.IsSVG(contentType, req.Key)
	if svg {
		header.Set("Content-Security-Policy", svgContentSecurityPolicy)
		header.Set("X-Content-Type-Options", "nosniff")
		header.Set("X-Frame-Options", "DENY")
	}

	// SVGs are always buffered so none is served unsanitized
	if !svg && (timeBased || totalSize > s.config.StreamThreshold) {
		resp.Body = closeOnDone(ctx, stream.Body)
		return resp, nil
	}

	data, err := io.ReadAll(stream.Body)
	_ = stream.Body.Close()
	if err != nil {
		return nil, &storage.Error{Op: "get", Key: req.Key, Kind: domain.ErrStorage, Err: err}
	}

	if svg {
		data = SanitizeSVG(data)
	}
	header.Set("Content-Length", strconv.Itoa(len(data)))
	resp.Data = data
	return resp, nil
}

func (s *service) Probe(ctx context.Context, key string) (*Response, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", domain.ErrInvalidInput)
	}

	cfg, err := s.resolver.GetActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	info, err := s.gateway.Head(ctx, *cfg, key)
	if err != nil {
		return nil, err
	}

	contentType := domain.EffectiveContentType(info.ContentType, key)
	header := s.headers(key, contentType, false, domain.IsTimeBased(contentType), *info)
	header.Set("Content-Length", strconv.FormatInt(info.SizeBytes, 10))
	return &Response{Status: http.StatusOK, Header: header}, nil
}

func (s *service) headers(key, contentType string, view, timeBased bool, info storage.ObjectInfo) http.Header {
	h := http.Header{}
	h.Set("Content-Type", contentType)
	if timeBased {
		h.Set("Accept-Ranges", "bytes")
	}

	maxAge := s.config.DefaultCacheMaxAge
	switch domain.KindOfContentType(contentType) {
	case domain.MediaKindImage, domain.MediaKindVideo, domain.MediaKindAudio:
		if view {
			maxAge = s.config.ViewCacheMaxAge
		}
	}
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int64(maxAge.Seconds())))

	disposition := "attachment"
	if view {
		disposition = "inline"
	}
	h.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": domain.FileNameOf(key)}))

	if info.ETag != "" {
		h.Set("ETag", `"`+info.ETag+`"`)
	}
	if !info.LastModified.IsZero() {
		h.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	return h
}

// cancelableBody closes the upstream body as soon as the request context ends,
// so a disconnected client never leaves the store read draining
type cancelableBody struct {
	io.ReadCloser
	stop func() bool
	once sync.Once
	err  error
}

func closeOnDone(ctx context.Context, body io.ReadCloser) io.ReadCloser {
	b := &cancelableBody{ReadCloser: body}
	b.stop = context.AfterFunc(ctx, func() {
		_ = b.closeBody()
	})
	return b
}

func (b *cancelableBody) closeBody() error {
	b.once.Do(func() {
		b.err = b.ReadCloser.Close()
	})
	return b.err
}

func (b *cancelableBody) Close() error {
	b.stop()
	return b.closeBody()
}
