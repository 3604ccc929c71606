package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-media-library/internal/domain"
)

// storageConfigResponse wraps the active config, nil when storage is not configured
type storageConfigResponse struct {
	Config *domain.StorageConfig `json:"config"`
}

// GetStorageConfig returns the active storage config with its secret redacted
func (h *handler) GetStorageConfig(c *gin.Context) {
	cfg, err := h.Resolver.GetActiveConfig(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			c.JSON(http.StatusOK, storageConfigResponse{})
			return
		}
		respondError(c, err, "Failed to get storage config")
		return
	}

	redacted := cfg.Redacted()
	c.JSON(http.StatusOK, storageConfigResponse{Config: &redacted})
}

// SaveStorageConfig stores a new active storage config and invalidates the resolved one
func (h *handler) SaveStorageConfig(c *gin.Context) {
	var req StorageConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	cfg, err := h.Resolver.Save(c.Request.Context(), req.ToDomain())
	if err != nil {
		respondError(c, err, "Failed to save storage config")
		return
	}

	redacted := cfg.Redacted()
	c.JSON(http.StatusOK, storageConfigResponse{Config: &redacted})
}
