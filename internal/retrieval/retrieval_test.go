package retrieval_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/retrieval"
	"github.com/feral-file/ff-media-library/internal/storage"
	"github.com/feral-file/ff-media-library/internal/storage/storagetest"
	"github.com/feral-file/ff-media-library/internal/storageconfig"
	"github.com/feral-file/ff-media-library/internal/store/storetest"
)

func newService(t *testing.T, cfg retrieval.Config) (retrieval.Service, *storagetest.MemoryS3) {
	t.Helper()

	env := map[string]string{
		"S3_ACCESS_KEY_ID":     "key",
		"S3_SECRET_ACCESS_KEY": "secret",
		"S3_BUCKET_NAME":       "media",
	}
	resolver := storageconfig.NewResolver(storageconfig.Config{
		LookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	}, storetest.NewMemoryStore(), adapter.NopCache{}, adapter.NewClock())

	mem := storagetest.NewMemoryS3("media")
	return retrieval.New(cfg, resolver, storage.NewGateway(&storagetest.Factory{Client: mem})), mem
}

func readBody(t *testing.T, resp *retrieval.Response) []byte {
	t.Helper()
	if resp.Data != nil {
		return resp.Data
	}
	require.NotNil(t, resp.Body)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Close())
	return b
}

func TestRetrieve_VideoRange(t *testing.T) {
	tests := []struct {
		name                  string
		rangeHeader           string
		expectedStatus        int
		expectedContentRange  string
		expectedLength        int
		expectedUpstreamRange string
	}{
		{
			name:                  "valid range",
			rangeHeader:           "bytes=0-499",
			expectedStatus:        http.StatusPartialContent,
			expectedContentRange:  "bytes 0-499/1000",
			expectedLength:        500,
			expectedUpstreamRange: "bytes=0-499",
		},
		{
			name:                  "open ended range",
			rangeHeader:           "bytes=500-",
			expectedStatus:        http.StatusPartialContent,
			expectedContentRange:  "bytes 500-999/1000",
			expectedLength:        500,
			expectedUpstreamRange: "bytes=500-999",
		},
		{
			name:           "end past size is ignored",
			rangeHeader:    "bytes=900-1500",
			expectedStatus: http.StatusOK,
			expectedLength: 1000,
		},
		{
			name:           "start past size is ignored",
			rangeHeader:    "bytes=1000-1001",
			expectedStatus: http.StatusOK,
			expectedLength: 1000,
		},
		{
			name:           "multiple ranges are ignored",
			rangeHeader:    "bytes=0-1,5-9",
			expectedStatus: http.StatusOK,
			expectedLength: 1000,
		},
		{
			name:           "no range",
			expectedStatus: http.StatusOK,
			expectedLength: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newService(t, retrieval.Config{})
			mem.PutBytes("clips/intro.mp4", []byte(strings.Repeat("v", 1000)), "video/mp4", nil)

			resp, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "clips/intro.mp4", View: true, Range: tt.rangeHeader})
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, resp.Status)
			assert.Equal(t, tt.expectedContentRange, resp.Header.Get("Content-Range"))
			assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
			assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
			assert.Nil(t, resp.Data, "time-based media is streamed")
			assert.Len(t, readBody(t, resp), tt.expectedLength)
			assert.Equal(t, []string{tt.expectedUpstreamRange}, mem.Ranges())
			assert.Equal(t, 1, mem.Calls("HeadObject"))
		})
	}
}

func TestRetrieve_MissingVideoShortCircuits(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{})

	_, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "missing.mp4", Range: "bytes=0-10"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
	assert.Equal(t, 0, mem.Calls("GetObject"))
}

func TestRetrieve_HeadFailureDegrades(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{})
	mem.PutBytes("song.mp3", []byte(strings.Repeat("a", 100)), "audio/mpeg", nil)
	mem.HeadErrs["song.mp3"] = &smithy.GenericAPIError{Code: "SlowDown"}

	resp, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "song.mp3", Range: "bytes=0-9"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Header.Get("Content-Range"))
	assert.Len(t, readBody(t, resp), 100)
	assert.Equal(t, []string{""}, mem.Ranges())
}

func TestRetrieve_SanitizesSVG(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{})
	svg := `<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)"><script>alert(2)</script>` +
		`<a href="javascript:alert(3)"><rect width="10" height="10" onclick='steal()'/></a>` +
		`<image href="data:text/html;base64,PHNjcmlwdD4="/></svg>`
	mem.PutBytes("art/logo.svg", []byte(svg), "image/svg+xml", nil)

	resp, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "art/logo.svg", View: true})
	require.NoError(t, err)
	require.NotNil(t, resp.Data, "svg is buffered")
	assert.True(t, mem.LastBody().Closed())

	body := string(resp.Data)
	assert.NotContains(t, body, "<script")
	assert.NotContains(t, body, "alert(2)")
	assert.NotContains(t, body, "onload")
	assert.NotContains(t, body, "onclick")
	assert.NotContains(t, body, "javascript:")
	assert.NotContains(t, body, "data:text/html")
	assert.Contains(t, body, `<rect width="10" height="10"/>`)

	assert.Equal(t, "default-src 'none'; style-src 'unsafe-inline'; img-src data:; script-src 'none';", resp.Header.Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, `inline; filename=logo.svg`, resp.Header.Get("Content-Disposition"))
}

func TestRetrieve_SanitizesSVGByMediaType(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		storedType string
	}{
		{name: "charset parameter", key: "art/logo.svg", storedType: "image/svg+xml; charset=utf-8"},
		{name: "upper case type", key: "art/logo.svg", storedType: "Image/SVG+XML"},
		{name: "extensionless key", key: "art/logo", storedType: "image/svg+xml;charset=UTF-8"},
		{name: "svg key with text type", key: "art/logo.svg", storedType: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newService(t, retrieval.Config{})
			mem.PutBytes(tt.key, []byte(`<svg><script>alert(1)</script><rect onclick="x()"/></svg>`), tt.storedType, nil)

			resp, err := svc.Retrieve(context.Background(), retrieval.Request{Key: tt.key, View: true})
			require.NoError(t, err)
			assert.Equal(t, "<svg><rect/></svg>", string(readBody(t, resp)))
			assert.Equal(t, "default-src 'none'; style-src 'unsafe-inline'; img-src data:; script-src 'none';", resp.Header.Get("Content-Security-Policy"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
		})
	}
}

func TestRetrieve_LargeSVGIsBuffered(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{StreamThreshold: 10})
	mem.PutBytes("big.svg", []byte(`<svg/onload="alert(1)"><rect width="1000" height="1000"/></svg>`), "image/svg+xml", nil)

	resp, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "big.svg"})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.Equal(t, `<svg><rect width="1000" height="1000"/></svg>`, string(resp.Data))
	assert.Equal(t, "45", resp.Header.Get("Content-Length"))
}

func TestRetrieve_ExtensionlessVideoHonorsRange(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{})
	mem.PutBytes("uploads/clip", make([]byte, 1000), "video/mp4", nil)

	resp, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "uploads/clip", Range: "bytes=100-199"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, resp.Status)
	assert.Equal(t, "bytes 100-199/1000", resp.Header.Get("Content-Range"))
	assert.Equal(t, "100", resp.Header.Get("Content-Length"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Len(t, readBody(t, resp), 100)
	assert.Equal(t, []string{"bytes=100-199"}, mem.Ranges())
}

func TestRetrieve_ExtensionlessDocumentIgnoresRange(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{})
	mem.PutBytes("uploads/README", []byte("hello world"), "text/plain", nil)

	resp, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "uploads/README", Range: "bytes=0-4"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, "hello world", string(readBody(t, resp)))
	assert.Equal(t, 1, mem.Calls("HeadObject"))
	assert.Equal(t, []string{""}, mem.Ranges())
}

func TestRetrieve_Headers(t *testing.T) {
	tests := []struct {
		name                string
		key                 string
		storedType          string
		view                bool
		expectedType        string
		expectedCache       string
		expectedDisposition string
	}{
		{
			name:                "image viewed inline",
			key:                 "a.png",
			storedType:          "image/png",
			view:                true,
			expectedType:        "image/png",
			expectedCache:       "public, max-age=86400",
			expectedDisposition: "inline; filename=a.png",
		},
		{
			name:                "image downloaded",
			key:                 "a.png",
			storedType:          "image/png",
			expectedType:        "image/png",
			expectedCache:       "public, max-age=3600",
			expectedDisposition: "attachment; filename=a.png",
		},
		{
			name:                "document viewed inline",
			key:                 "docs/report.pdf",
			storedType:          "application/pdf",
			view:                true,
			expectedType:        "application/pdf",
			expectedCache:       "public, max-age=3600",
			expectedDisposition: "inline; filename=report.pdf",
		},
		{
			name:                "generic type replaced by extension",
			key:                 "notes.txt",
			storedType:          "application/octet-stream",
			expectedType:        "text/plain",
			expectedCache:       "public, max-age=3600",
			expectedDisposition: "attachment; filename=notes.txt",
		},
		{
			name:                "file name with spaces",
			key:                 "my photo.jpg",
			storedType:          "image/jpeg",
			expectedType:        "image/jpeg",
			expectedCache:       "public, max-age=3600",
			expectedDisposition: `attachment; filename="my photo.jpg"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newService(t, retrieval.Config{})
			mem.PutBytes(tt.key, []byte("content"), tt.storedType, nil)

			resp, err := svc.Retrieve(context.Background(), retrieval.Request{Key: tt.key, View: tt.view})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, tt.expectedType, resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.expectedCache, resp.Header.Get("Cache-Control"))
			assert.Equal(t, tt.expectedDisposition, resp.Header.Get("Content-Disposition"))
			assert.Equal(t, "7", resp.Header.Get("Content-Length"))
			assert.Empty(t, resp.Header.Get("Accept-Ranges"))
			assert.Equal(t, "content", string(resp.Data))
			assert.Equal(t, 0, mem.Calls("HeadObject"), "non time-based media skips the probe")
		})
	}
}

func TestRetrieve_LargeFilesStream(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{StreamThreshold: 100})
	mem.PutBytes("archive.zip", make([]byte, 101), "application/zip", nil)
	mem.PutBytes("small.zip", make([]byte, 100), "application/zip", nil)

	large, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "archive.zip"})
	require.NoError(t, err)
	assert.Nil(t, large.Data)
	assert.Len(t, readBody(t, large), 101)

	small, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "small.zip"})
	require.NoError(t, err)
	assert.NotNil(t, small.Data)
}

func TestRetrieve_CancellationClosesUpstream(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{})
	mem.PutBytes("movie.webm", make([]byte, 4096), "video/webm", nil)

	ctx, cancel := context.WithCancel(context.Background())
	resp, err := svc.Retrieve(ctx, retrieval.Request{Key: "movie.webm"})
	require.NoError(t, err)
	require.NotNil(t, resp.Body)

	body := mem.LastBody()
	assert.False(t, body.Closed())

	cancel()
	assert.Eventually(t, body.Closed, time.Second, 5*time.Millisecond)
	assert.NoError(t, resp.Close())
}

func TestRetrieve_Errors(t *testing.T) {
	svc, _ := newService(t, retrieval.Config{})

	_, err := svc.Retrieve(context.Background(), retrieval.Request{Key: "nope.png"})
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	_, err = svc.Retrieve(context.Background(), retrieval.Request{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProbe(t *testing.T) {
	svc, mem := newService(t, retrieval.Config{})
	mem.PutBytes("clips/intro.mov", make([]byte, 2048), "", nil)

	resp, err := svc.Probe(context.Background(), "clips/intro.mov")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Nil(t, resp.Body)
	assert.Equal(t, "video/quicktime", resp.Header.Get("Content-Type"))
	assert.Equal(t, "2048", resp.Header.Get("Content-Length"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, 0, mem.Calls("GetObject"))

	_, err = svc.Probe(context.Background(), "missing.mov")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		header   string
		size     int64
		expected *storage.ByteRange
	}{
		{"bytes=0-499", 1000, &storage.ByteRange{Start: 0, End: 499}},
		{"bytes=0-", 1000, &storage.ByteRange{Start: 0, End: 999}},
		{"bytes=999-999", 1000, &storage.ByteRange{Start: 999, End: 999}},
		{"bytes=900-1500", 1000, nil},
		{"bytes=1000-", 1000, nil},
		{"bytes=500-100", 1000, nil},
		{"bytes=-500", 1000, nil},
		{"bytes=0-1,2-3", 1000, nil},
		{"items=0-1", 1000, nil},
		{"bytes=a-b", 1000, nil},
		{"", 1000, nil},
		{"bytes=0-0", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := retrieval.ParseRange(tt.header, tt.size)
			assert.Equal(t, tt.expected != nil, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
