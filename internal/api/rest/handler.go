package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/catalog"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/media/compressor"
	"github.com/feral-file/ff-media-library/internal/reconciler"
	"github.com/feral-file/ff-media-library/internal/retrieval"
	"github.com/feral-file/ff-media-library/internal/storageconfig"
)

const (
	// USER_ID_HEADER identifies the caller; authentication happens upstream
	USER_ID_HEADER = "X-User-ID"

	DEFAULT_MAX_COMPRESS_INPUT int64 = 500 * domain.MB
	DEFAULT_TARGET_SIZE_MB           = 4.0
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
type Handler interface {
	// Download serves an object, honoring single byte ranges for video and audio
	// GET /media/download?key=<key>&view=<true|false>
	Download(c *gin.Context)

	// ProbeDownload returns the headers of a download without a body
	// HEAD /media/download?key=<key>
	ProbeDownload(c *gin.Context)

	// DownloadPreflight answers CORS preflight requests
	// OPTIONS /media/download
	DownloadPreflight(c *gin.Context)

	// Compress transcodes a video toward a target size
	// POST /media/compress (multipart: file, targetSizeMB)
	Compress(c *gin.Context)

	// Upload persists a file in the bucket and the catalog
	// POST /media/upload (multipart: file, title, folder)
	Upload(c *gin.Context)

	// Sync reconciles the catalog with the bucket
	// POST /media/sync
	Sync(c *gin.Context)

	// SyncStream reconciles the catalog with the bucket, streaming progress events
	// POST /media/sync/stream
	SyncStream(c *gin.Context)

	// ListMedia lists catalog entries
	// GET /api/v1/media?page=<page>&limit=<limit>&folder=<folder>&type=<image|video|audio|document|other>&search=<text>
	ListMedia(c *gin.Context)

	// GetMedia retrieves one catalog entry
	// GET /api/v1/media/:id
	GetMedia(c *gin.Context)

	// UpdateMedia changes the display metadata of an entry
	// PATCH /api/v1/media/:id
	UpdateMedia(c *gin.Context)

	// MoveMedia changes the folder of an entry and its object
	// POST /api/v1/media/:id/move
	MoveMedia(c *gin.Context)

	// DeleteMedia removes an entry, and its object when deleteFromStorage is set
	// DELETE /api/v1/media/:id?deleteFromStorage=<true|false>
	DeleteMedia(c *gin.Context)

	// ConvertMedia catalogs one existing object
	// POST /api/v1/media/convert
	ConvertMedia(c *gin.Context)

	// GetStorageConfig returns the active storage config with its secret redacted
	// GET /api/v1/storage/config
	GetStorageConfig(c *gin.Context)

	// SaveStorageConfig stores a new active storage config
	// PUT /api/v1/storage/config
	SaveStorageConfig(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// Config holds handler configuration
type Config struct {
	// MaxCompressInput is the largest video accepted by Compress
	MaxCompressInput int64
}

// Services groups the services the handlers delegate to
type Services struct {
	Catalog    catalog.Service
	Retrieval  retrieval.Service
	Reconciler reconciler.Reconciler
	Resolver   storageconfig.Resolver
	Videos     compressor.VideoCompressor
	FS         adapter.FileSystem
	Clock      adapter.Clock
}

// handler implements the Handler interface
type handler struct {
	config Config
	Services
}

// NewHandler creates a new REST API handler
func NewHandler(cfg Config, services Services) Handler {
	if cfg.MaxCompressInput <= 0 {
		cfg.MaxCompressInput = DEFAULT_MAX_COMPRESS_INPUT
	}
	if services.Clock == nil {
		services.Clock = adapter.NewClock()
	}
	if services.FS == nil {
		services.FS = adapter.NewFileSystem()
	}
	return &handler{config: cfg, Services: services}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.Clock.Now().UTC().Format(time.RFC3339),
	})
}
