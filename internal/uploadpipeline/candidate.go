package uploadpipeline

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/feral-file/ff-media-library/internal/domain"
)

// Status is the upload state of a candidate
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
	// StatusSkipped marks a candidate left out of the upload, e.g. above the ceiling
	StatusSkipped Status = "skipped"
)

// FileKind is the coarse classification driving compression
type FileKind string

const (
	FileKindImage FileKind = "image"
	FileKindVideo FileKind = "video"
	FileKindOther FileKind = "other"
)

// LocalFile is a file selected for upload
type LocalFile struct {
	Path string
	Name string
	Size int64
}

// Identity keys a file by name and size, which stays stable across compression
func (f LocalFile) Identity() string {
	return fmt.Sprintf("%s:%d", f.Name, f.Size)
}

// CompressedFile is the compressed replacement of a candidate's file
type CompressedFile struct {
	Data        []byte
	ContentType string
	// Name may differ from the original when the format changed, e.g. png to jpg
	Name    string
	Warning string
}

// Candidate is one file moving through the pipeline
type Candidate struct {
	File LocalFile
	// Key is unique within a selection, two files may share an identity from different folders
	Key string
	// OriginalKey is File.Identity(), computed before compression so it survives the payload swap
	OriginalKey      string
	ContentType      string
	Kind             FileKind
	NeedsCompression bool
	Compressed       *CompressedFile
	// Progress is a percentage in [0, 100]
	Progress int
	Status   Status
	// Notice is shown to the user for skipped or degraded candidates
	Notice  string
	Err     error
	ErrKind domain.ErrorKind
}

// UploadName is the file name sent to the API
func (c *Candidate) UploadName() string {
	if c.Compressed != nil && c.Compressed.Name != "" {
		return c.Compressed.Name
	}
	return c.File.Name
}

// UploadContentType is the content type sent to the API
func (c *Candidate) UploadContentType() string {
	if c.Compressed != nil && c.Compressed.ContentType != "" {
		return c.Compressed.ContentType
	}
	return c.ContentType
}

// UploadSize is the number of bytes the upload sends
func (c *Candidate) UploadSize() int64 {
	if c.Compressed != nil {
		return int64(len(c.Compressed.Data))
	}
	return c.File.Size
}

// KindOfContentType classifies a MIME type by prefix
func KindOfContentType(contentType string) FileKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return FileKindImage
	case strings.HasPrefix(contentType, "video/"):
		return FileKindVideo
	}
	return FileKindOther
}

// NeedsCompression reports whether a file must be compressed before it can be uploaded
func NeedsCompression(kind FileKind, size, ceiling int64, alreadyCompressed bool) bool {
	return (kind == FileKindImage || kind == FileKindVideo) && size > ceiling && !alreadyCompressed
}

// DetectContentType sniffs r and falls back to the extension of name when the content is not recognized
func DetectContentType(r io.Reader, name string) (string, error) {
	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	ct := detected.String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if domain.IsGenericContentType(ct) {
		return domain.ClassifyByExtension(name), nil
	}
	return ct, nil
}

// trackingKey keys the candidate at position index of a selection
func trackingKey(index int, identity string) string {
	return fmt.Sprintf("%d/%s", index, identity)
}

// tracker holds candidates keyed by their selection key and reports every change
type tracker struct {
	mu       sync.Mutex
	byKey    map[string]*Candidate
	onChange StatusFunc
}

// StatusFunc receives a snapshot of a candidate after each status or progress change
type StatusFunc func(Candidate)

func newTracker(candidates []*Candidate, onChange StatusFunc) *tracker {
	t := &tracker{byKey: make(map[string]*Candidate, len(candidates)), onChange: onChange}
	for i, c := range candidates {
		if c.Key == "" {
			c.Key = trackingKey(i, c.OriginalKey)
		}
		t.byKey[c.Key] = c
	}
	return t
}

func (t *tracker) update(key string, fn func(*Candidate)) {
	t.mu.Lock()
	c, ok := t.byKey[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	fn(c)
	snapshot := *c
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(snapshot)
	}
}

func (t *tracker) snapshot(key string) Candidate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.byKey[key]
}
