package uploadpipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
	"github.com/feral-file/ff-media-library/internal/media/compressor"
)

const (
	// UPLOAD_CEILING is the transport limit of a single upload request
	UPLOAD_CEILING int64 = 4718592 // 4.5MB
	// DEFAULT_CONCURRENCY is the number of uploads in flight
	DEFAULT_CONCURRENCY = 4
)

// Config holds upload pipeline settings
type Config struct {
	// Ceiling is the largest payload a single upload may carry
	Ceiling int64
	// CompressionTarget is the size a compressed file must reach to be uploaded
	CompressionTarget int64
	Concurrency       int
	// Folder is the destination folder, "" for the bucket root
	Folder string
	// SyncAfterUpload triggers a catalog reconciliation once all uploads settled
	SyncAfterUpload bool
}

// Summary is the outcome of an upload run
type Summary struct {
	Uploaded int
	// Failed counts failed uploads and unreadable files
	Failed  int
	Skipped int
	// Results holds one entry per attempted upload, in plan order
	Results []domain.Result[domain.MediaFile]
	// Candidates holds the final state of every selected file
	Candidates []Candidate
	// Sync is set when a reconciliation ran after the uploads
	Sync    *domain.SyncSummary
	SyncErr error
}

// Pipeline plans and executes the upload of local files
type Pipeline interface {
	// Plan classifies files, compresses the ones over the ceiling and partitions the selection.
	// A file that cannot be read fails alone. ErrAllFilesOverCeiling, or ErrNoUploadableFiles
	// when some files were unreadable, is returned with the plan when nothing can be uploaded.
	Plan(ctx context.Context, files []LocalFile) (*Plan, error)

	// Execute uploads every planned file concurrently. A failed upload never cancels its siblings.
	Execute(ctx context.Context, plan *Plan, onStatus StatusFunc) (*Summary, error)

	// Run plans then executes
	Run(ctx context.Context, files []LocalFile, onStatus StatusFunc) (*Summary, error)
}

type pipeline struct {
	config Config
	api    MediaAPI
	images compressor.ImageCompressor
	fs     adapter.FileSystem
	io     adapter.IO
}

// New creates an upload pipeline
func New(cfg Config, api MediaAPI, images compressor.ImageCompressor, fs adapter.FileSystem, io adapter.IO) Pipeline {
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = UPLOAD_CEILING
	}
	if cfg.CompressionTarget <= 0 || cfg.CompressionTarget > cfg.Ceiling {
		cfg.CompressionTarget = min(compressor.DEFAULT_TARGET_SIZE, cfg.Ceiling)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DEFAULT_CONCURRENCY
	}

	return &pipeline{
		config: cfg,
		api:    api,
		images: images,
		fs:     fs,
		io:     io,
	}
}

func (u *pipeline) Run(ctx context.Context, files []LocalFile, onStatus StatusFunc) (*Summary, error) {
	plan, err := u.Plan(ctx, files)
	if err != nil {
		return nil, err
	}
	return u.Execute(ctx, plan, onStatus)
}

func (u *pipeline) Execute(ctx context.Context, plan *Plan, onStatus StatusFunc) (*Summary, error) {
	if plan == nil {
		return nil, ErrNoFiles
	}
	if len(plan.Uploads) == 0 {
		return nil, plan.emptyErr()
	}

	t := newTracker(plan.Candidates(), onStatus)
	for _, c := range plan.Candidates()[len(plan.Uploads):] {
		t.update(c.Key, func(*Candidate) {})
	}

	pool := pond.NewResultPool[domain.Result[domain.MediaFile]](u.config.Concurrency)
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, c := range plan.Uploads {
		group.Submit(func() domain.Result[domain.MediaFile] {
			return u.upload(ctx, t, c)
		})
	}

	results, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to wait for uploads: %w", err)
	}

	summary := &Summary{
		Results: results,
		Skipped: len(plan.Skipped),
		Failed:  len(plan.Failed),
	}
	for _, r := range results {
		if r.IsOk() {
			summary.Uploaded++
		} else {
			summary.Failed++
		}
	}
	for _, c := range plan.Candidates() {
		summary.Candidates = append(summary.Candidates, t.snapshot(c.Key))
	}

	logger.InfoCtx(ctx, "Uploads settled",
		zap.Int("uploaded", summary.Uploaded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)

	if u.config.SyncAfterUpload && summary.Uploaded > 0 {
		summary.Sync, summary.SyncErr = u.api.Sync(ctx)
		if summary.SyncErr != nil {
			logger.WarnCtx(ctx, "Sync after upload failed", zap.Error(summary.SyncErr))
		}
	}

	return summary, nil
}

func (u *pipeline) upload(ctx context.Context, t *tracker, c *Candidate) domain.Result[domain.MediaFile] {
	key := c.Key
	t.update(key, func(c *Candidate) {
		c.Status = StatusUploading
		c.Progress = 0
	})

	size := c.UploadSize()
	var lastPercent atomic.Int64
	lastPercent.Store(-1)
	onProgress := func(sent int64) {
		percent := int64(100)
		if size > 0 {
			percent = min(sent*100/size, 100)
		}
		if lastPercent.Swap(percent) == percent {
			return
		}
		t.update(key, func(c *Candidate) { c.Progress = int(percent) })
	}

	open := u.opener(c.File.Path)
	if c.Compressed != nil {
		data := c.Compressed.Data
		open = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}

	media, err := u.api.Upload(ctx, UploadRequest{
		FileName:    c.UploadName(),
		ContentType: c.UploadContentType(),
		Title:       domain.TitleOf(c.File.Name),
		Folder:      u.config.Folder,
		Size:        size,
		Open:        open,
		OnProgress:  onProgress,
	})
	if err != nil {
		logger.WarnCtx(ctx, "Upload failed",
			zap.String("file", c.File.Name),
			zap.Error(err),
		)
		kind := domain.KindUploadFailed
		if errors.Is(err, context.Canceled) {
			kind = domain.KindInternal
		}
		t.update(key, func(c *Candidate) {
			c.Status = StatusError
			c.Err = err
			c.ErrKind = kind
		})
		return domain.ErrWithKind[domain.MediaFile](kind, fmt.Errorf("failed to upload %s: %w", c.File.Name, err))
	}

	t.update(key, func(c *Candidate) {
		c.Status = StatusSuccess
		c.Progress = 100
	})
	return domain.Ok(*media)
}

func (u *pipeline) opener(path string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		f, err := u.fs.Open(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// progressReader reports the running number of bytes read
type progressReader struct {
	r    io.Reader
	read int64
	on   func(int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.on != nil {
			p.on(p.read)
		}
	}
	return n, err
}
