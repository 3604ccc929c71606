package uploadpipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
)

var (
	// ErrAllFilesOverCeiling is returned when no selected file can be uploaded under the ceiling
	ErrAllFilesOverCeiling = errors.New("all files exceed the upload size limit")

	// ErrNoUploadableFiles is returned when no selected file can be uploaded and some could not be read
	ErrNoUploadableFiles = errors.New("no selected file can be uploaded")

	// ErrNoFiles is returned when the selection is empty
	ErrNoFiles = errors.New("no files selected")
)

// sniffLimit bounds how much of a file is read to detect its content type
const sniffLimit = 3072

// Plan partitions the selection into files to upload, files to skip and files that could not be read
type Plan struct {
	Uploads []*Candidate
	Skipped []*Candidate
	Failed  []*Candidate
}

// Candidates returns every candidate of the plan, uploads first
func (p *Plan) Candidates() []*Candidate {
	all := make([]*Candidate, 0, len(p.Uploads)+len(p.Skipped)+len(p.Failed))
	all = append(all, p.Uploads...)
	all = append(all, p.Skipped...)
	return append(all, p.Failed...)
}

// emptyErr is the error of a plan without uploads
func (p *Plan) emptyErr() error {
	if len(p.Failed) > 0 {
		return ErrNoUploadableFiles
	}
	return ErrAllFilesOverCeiling
}

func (u *pipeline) Plan(ctx context.Context, files []LocalFile) (*Plan, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	plan := &Plan{}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := u.classify(f)
		if err != nil {
			logger.WarnCtx(ctx, "Leaving unreadable file out of the upload",
				zap.String("path", f.Path),
				zap.Error(err),
			)
			c = unreadable(f, err)
			c.Key = trackingKey(i, c.OriginalKey)
			plan.Failed = append(plan.Failed, c)
			continue
		}
		c.Key = trackingKey(i, c.OriginalKey)

		if c.NeedsCompression {
			u.compress(ctx, c)
		}

		if c.UploadSize() > u.config.Ceiling || c.Status == StatusSkipped {
			c.Status = StatusSkipped
			c.ErrKind = domain.KindOverCeiling
			if c.Notice == "" {
				c.Notice = fmt.Sprintf("compression required: %s is %s, the limit is %s",
					c.File.Name, humanSize(c.UploadSize()), humanSize(u.config.Ceiling))
			}
			plan.Skipped = append(plan.Skipped, c)
			continue
		}

		plan.Uploads = append(plan.Uploads, c)
	}

	if len(plan.Uploads) == 0 {
		return plan, plan.emptyErr()
	}

	logger.InfoCtx(ctx, "Upload plan ready",
		zap.Int("uploads", len(plan.Uploads)),
		zap.Int("skipped", len(plan.Skipped)),
		zap.Int("unreadable", len(plan.Failed)),
	)
	return plan, nil
}

func (u *pipeline) classify(f LocalFile) (*Candidate, error) {
	file, err := u.fs.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	defer file.Close()

	if f.Size == 0 {
		info, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", f.Path, err)
		}
		f.Size = info.Size()
	}
	if f.Name == "" {
		f.Name = path.Base(f.Path)
	}

	head, err := u.io.ReadAll(io.LimitReader(file, sniffLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	contentType, err := DetectContentType(bytes.NewReader(head), f.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to detect content type of %s: %w", f.Path, err)
	}

	kind := KindOfContentType(contentType)
	return &Candidate{
		File:             f,
		OriginalKey:      f.Identity(),
		ContentType:      contentType,
		Kind:             kind,
		NeedsCompression: NeedsCompression(kind, f.Size, u.config.Ceiling, false),
		Status:           StatusPending,
	}, nil
}

// unreadable is the failed candidate of a file classify could not read
func unreadable(f LocalFile, err error) *Candidate {
	if f.Name == "" {
		f.Name = path.Base(f.Path)
	}
	return &Candidate{
		File:        f,
		OriginalKey: f.Identity(),
		Status:      StatusError,
		Err:         err,
		ErrKind:     domain.KindReadFailed,
	}
}

// compress replaces the candidate's payload with a compressed one at or below the target,
// or marks it skipped
func (u *pipeline) compress(ctx context.Context, c *Candidate) {
	var (
		out *CompressedFile
		err error
	)
	switch c.Kind {
	case FileKindImage:
		out, err = u.compressImage(ctx, c)
	case FileKindVideo:
		out, err = u.compressVideo(ctx, c)
	default:
		return
	}

	if err != nil {
		logger.WarnCtx(ctx, "Compression failed",
			zap.String("file", c.File.Name),
			zap.Error(err),
		)
		c.Status = StatusSkipped
		c.Err = err
		c.Notice = fmt.Sprintf("compression required: %s could not be compressed: %v", c.File.Name, err)
		return
	}

	size := int64(len(out.Data))
	if size > u.config.CompressionTarget {
		c.Status = StatusSkipped
		c.Notice = fmt.Sprintf("compression required: %s is still %s after compression, the target is %s",
			c.File.Name, humanSize(size), humanSize(u.config.CompressionTarget))
		if out.Warning != "" {
			c.Notice += " (" + out.Warning + ")"
		}
		return
	}

	c.Compressed = out
	c.NeedsCompression = false
	c.Notice = out.Warning
	logger.InfoCtx(ctx, "Compressed file",
		zap.String("file", c.File.Name),
		zap.Int64("original_size", c.File.Size),
		zap.Int64("compressed_size", size),
	)
}

func (u *pipeline) compressImage(ctx context.Context, c *Candidate) (*CompressedFile, error) {
	file, err := u.fs.Open(c.File.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := u.io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	res, err := u.images.Compress(ctx, data, c.ContentType)
	if err != nil {
		return nil, err
	}

	return &CompressedFile{
		Data:        res.Data,
		ContentType: res.ContentType,
		Name:        renameForType(c.File.Name, res.ContentType),
		Warning:     res.Warning,
	}, nil
}

func (u *pipeline) compressVideo(ctx context.Context, c *Candidate) (*CompressedFile, error) {
	res, err := u.api.CompressVideo(ctx, CompressRequest{
		FileName:    c.File.Name,
		ContentType: c.ContentType,
		Size:        c.File.Size,
		Open:        u.opener(c.File.Path),
		TargetSize:  u.config.CompressionTarget,
	})
	if err != nil {
		return nil, err
	}

	out := &CompressedFile{
		Data:        res.Data,
		ContentType: res.ContentType,
		Name:        renameForType(c.File.Name, res.ContentType),
	}
	if res.Unchanged {
		out.Warning = "video could not be made smaller"
	}
	return out, nil
}

// renameForType swaps the extension of name when it does not match the compressed format
func renameForType(name, to string) string {
	if to == "" || to == domain.ClassifyByExtension(name) {
		return name
	}
	var ext string
	switch to {
	case domain.MimeJPEG:
		ext = ".jpg"
	case domain.MimeMP4:
		ext = ".mp4"
	default:
		return name
	}
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

func humanSize(n int64) string {
	return fmt.Sprintf("%.1fMB", float64(n)/float64(domain.MB))
}
