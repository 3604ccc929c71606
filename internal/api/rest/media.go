package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-media-library/internal/api/shared/errors"
	"github.com/feral-file/ff-media-library/internal/catalog"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
	"github.com/feral-file/ff-media-library/internal/reconciler"
	"github.com/feral-file/ff-media-library/internal/retrieval"
)

// Download serves an object of the active bucket
func (h *handler) Download(c *gin.Context) {
	params, err := ParseDownloadQuery(c)
	if err != nil {
		respondMediaError(c, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error()), "Invalid download request")
		return
	}

	resp, err := h.Retrieval.Retrieve(c.Request.Context(), retrieval.Request{
		Key:   params.Key,
		View:  params.View,
		Range: c.GetHeader("Range"),
	})
	if err != nil {
		respondRetrievalError(c, err, "Failed to retrieve file")
		return
	}
	defer resp.Close()

	writeHeaders(c, resp.Header)
	contentType := resp.Header.Get("Content-Type")

	if resp.Body == nil {
		c.Data(resp.Status, contentType, resp.Data)
		return
	}

	length := int64(-1)
	if v, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		length = v
	}
	c.DataFromReader(resp.Status, length, contentType, resp.Body, nil)
}

// ProbeDownload returns the headers of an object with a bare status
func (h *handler) ProbeDownload(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	resp, err := h.Retrieval.Probe(c.Request.Context(), key)
	if err != nil {
		c.Status(apierrors.FromStorageError(err).Status)
		return
	}

	writeHeaders(c, resp.Header)
	c.Status(resp.Status)
}

// DownloadPreflight always allows the download route
func (h *handler) DownloadPreflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Range, Content-Type")
	c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges, Content-Disposition")
	c.Header("Access-Control-Max-Age", "86400")
	c.Status(http.StatusNoContent)
}

func writeHeaders(c *gin.Context, header http.Header) {
	for name, values := range header {
		for i, v := range values {
			if i == 0 {
				c.Writer.Header().Set(name, v)
			} else {
				c.Writer.Header().Add(name, v)
			}
		}
	}
}

// Compress transcodes an uploaded video toward targetSizeMB
func (h *handler) Compress(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondMediaError(c, fmt.Errorf("%w: file is required", domain.ErrInvalidInput), "Missing file")
		return
	}
	defer file.Close()

	targetMB := DEFAULT_TARGET_SIZE_MB
	if v := strings.TrimSpace(c.PostForm("targetSizeMB")); v != "" {
		targetMB, err = strconv.ParseFloat(v, 64)
		if err != nil || targetMB <= 0 {
			respondMediaError(c, fmt.Errorf("%w: targetSizeMB must be a positive number", domain.ErrInvalidInput), "Invalid target size")
			return
		}
	}
	targetSize := int64(targetMB * float64(domain.MB))

	contentType := domain.EffectiveContentType(header.Header.Get("Content-Type"), header.Filename)
	switch domain.KindOfContentType(contentType) {
	case domain.MediaKindImage:
		respondMediaAPIError(c, apierrors.UseClientCompression())
		return
	case domain.MediaKindVideo:
	default:
		respondMediaAPIError(c, apierrors.UnsupportedMediaType(contentType))
		return
	}

	if header.Size > h.config.MaxCompressInput {
		respondMediaError(c, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, header.Size, h.config.MaxCompressInput), "Video too large")
		return
	}

	if !h.Videos.Available() {
		respondMediaError(c, domain.ErrTranscoderUnavailable, "Transcoder missing")
		return
	}

	res, err := h.Videos.Compress(c.Request.Context(), file, header.Size, contentType, targetSize)
	if err != nil {
		respondMediaError(c, err, "Failed to compress video")
		return
	}
	defer res.Cleanup()

	out, err := h.FS.Open(res.Path)
	if err != nil {
		respondMediaError(c, err, "Failed to open compressed video")
		return
	}
	defer out.Close()

	logger.InfoCtx(c.Request.Context(), "Compressed video",
		zap.String("file", header.Filename),
		zap.Int64("original_size", res.OriginalSize),
		zap.Int64("compressed_size", res.SizeBytes),
		zap.Int("passes", res.Passes),
		zap.Bool("unchanged", res.Unchanged),
	)

	c.DataFromReader(http.StatusOK, res.SizeBytes, res.ContentType, out, map[string]string{
		"X-Original-Size":         strconv.FormatInt(res.OriginalSize, 10),
		"X-Compressed-Size":       strconv.FormatInt(res.SizeBytes, 10),
		"X-Compression-Unchanged": strconv.FormatBool(res.Unchanged),
	})
}

// Upload persists one multipart file in the bucket and the catalog
func (h *handler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondMediaError(c, fmt.Errorf("%w: file is required", domain.ErrInvalidInput), "Missing file")
		return
	}
	defer file.Close()

	media, err := h.Catalog.Upload(c.Request.Context(), catalog.UploadParams{
		FileName:    header.Filename,
		Title:       c.PostForm("title"),
		Folder:      c.PostForm("folder"),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		OwnerID:     c.GetHeader(USER_ID_HEADER),
	})
	if err != nil {
		respondMediaError(c, err, "Failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, media)
}

// Sync runs one reconciliation pass and returns its summary
func (h *handler) Sync(c *gin.Context) {
	res, err := h.Reconciler.Reconcile(c.Request.Context(), c.GetHeader(USER_ID_HEADER), nil)
	if err != nil {
		respondMediaError(c, err, "Failed to sync media")
		return
	}
	c.JSON(http.StatusOK, toSyncSummary(res))
}

// syncEvent is one server-sent event of SyncStream
type syncEvent struct {
	Type    string              `json:"type"`
	Current int                 `json:"current,omitempty"`
	Total   int                 `json:"total,omitempty"`
	Result  *domain.SyncSummary `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
	Code    apierrors.ErrorCode `json:"code,omitempty"`
}

// SyncStream runs one reconciliation pass, emitting a data event per processed key and a
// terminal complete or error event
func (h *handler) SyncStream(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := c.GetHeader(USER_ID_HEADER)

	events := make(chan syncEvent, 64)
	var (
		res    *reconciler.Result
		runErr error
	)
	go func() {
		defer close(events)
		res, runErr = h.Reconciler.Reconcile(ctx, ownerID, func(current, total int) {
			select {
			case events <- syncEvent{Type: "progress", Current: current, Total: total}:
			case <-ctx.Done():
			}
		})
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for ev := range events {
		if err := writeEvent(c, ev); err != nil {
			logger.WarnCtx(ctx, "Sync stream client went away", zap.Error(err))
			drain(events)
			return
		}
	}

	if runErr != nil {
		apiErr := apierrors.FromError(runErr)
		logFailure(c, runErr, apiErr, "Failed to sync media")
		_ = writeEvent(c, syncEvent{Type: "error", Error: apiErr.Message, Code: apiErr.Code})
		return
	}
	_ = writeEvent(c, syncEvent{Type: "complete", Result: toSyncSummary(res)})
}

func writeEvent(c *gin.Context, ev syncEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func drain[T any](ch <-chan T) {
	for range ch {
	}
}

func toSyncSummary(res *reconciler.Result) *domain.SyncSummary {
	return &domain.SyncSummary{
		RunID:   res.RunID,
		Synced:  res.Synced,
		Created: res.Created,
		Updated: res.Updated,
		Deleted: res.Deleted,
		Skipped: res.Skipped,
	}
}
