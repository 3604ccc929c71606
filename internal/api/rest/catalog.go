package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/feral-file/ff-media-library/internal/api/shared/errors"
	"github.com/feral-file/ff-media-library/internal/catalog"
)

// ListMedia lists catalog entries
func (h *handler) ListMedia(c *gin.Context) {
	queryParams, err := ParseListMediaQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := queryParams.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	res, err := h.Catalog.List(c.Request.Context(), queryParams.ToListParams())
	if err != nil {
		respondError(c, err, "Failed to list media")
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetMedia retrieves one catalog entry
func (h *handler) GetMedia(c *gin.Context) {
	id, err := parseMediaID(c)
	if err != nil {
		respondBadRequest(c, "Invalid media ID", err.Error())
		return
	}

	media, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get media")
		return
	}

	c.JSON(http.StatusOK, media)
}

// UpdateMedia changes the display metadata of an entry
func (h *handler) UpdateMedia(c *gin.Context) {
	id, err := parseMediaID(c)
	if err != nil {
		respondBadRequest(c, "Invalid media ID", err.Error())
		return
	}

	var req UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	media, err := h.Catalog.Update(c.Request.Context(), id, catalog.UpdateParams(req))
	if err != nil {
		respondError(c, err, "Failed to update media")
		return
	}

	c.JSON(http.StatusOK, media)
}

// MoveMedia changes the folder of an entry and its object
func (h *handler) MoveMedia(c *gin.Context) {
	id, err := parseMediaID(c)
	if err != nil {
		respondBadRequest(c, "Invalid media ID", err.Error())
		return
	}

	var req MoveMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	media, err := h.Catalog.Move(c.Request.Context(), id, req.Folder)
	if err != nil {
		if errors.Is(err, catalog.ErrDestinationExists) {
			c.JSON(http.StatusConflict, apierrors.Conflict("A file with the same name exists in the destination folder", err.Error()))
			return
		}
		respondError(c, err, "Failed to move media")
		return
	}

	c.JSON(http.StatusOK, media)
}

// DeleteMedia removes an entry
func (h *handler) DeleteMedia(c *gin.Context) {
	id, err := parseMediaID(c)
	if err != nil {
		respondBadRequest(c, "Invalid media ID", err.Error())
		return
	}

	var queryParams DeleteMediaQueryParams
	if err := c.ShouldBindQuery(&queryParams); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.Catalog.Delete(c.Request.Context(), id, queryParams.DeleteFromStorage); err != nil {
		respondError(c, err, "Failed to delete media")
		return
	}

	c.Status(http.StatusNoContent)
}

// ConvertMedia catalogs one existing object
func (h *handler) ConvertMedia(c *gin.Context) {
	var req ConvertMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	media, err := h.Catalog.ConvertObject(c.Request.Context(), req.Key)
	if err != nil {
		respondError(c, err, "Failed to convert object")
		return
	}

	c.JSON(http.StatusOK, media)
}
