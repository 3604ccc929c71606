package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-media-library/internal/api/shared/errors"
	"github.com/feral-file/ff-media-library/internal/logger"
)

// mediaErrorResponse is the error body of the /media routes
type mediaErrorResponse struct {
	Error string              `json:"error"`
	Code  apierrors.ErrorCode `json:"code"`
}

// respondError maps err and responds with the structured error body of the API routes
func respondError(c *gin.Context, err error, message string) {
	apiErr := apierrors.FromError(err)
	logFailure(c, err, apiErr, message)
	c.JSON(apiErr.Status, apiErr)
}

// respondMediaError maps err and responds with the {error, code} body of the /media routes
func respondMediaError(c *gin.Context, err error, message string) {
	apiErr := apierrors.FromError(err)
	logFailure(c, err, apiErr, message)
	c.JSON(apiErr.Status, mediaErrorResponse{Error: apiErr.Message, Code: apiErr.Code})
}

// respondRetrievalError responds like respondMediaError with unknown errors reported as STORAGE_ERROR
func respondRetrievalError(c *gin.Context, err error, message string) {
	apiErr := apierrors.FromStorageError(err)
	logFailure(c, err, apiErr, message)
	c.JSON(apiErr.Status, mediaErrorResponse{Error: apiErr.Message, Code: apiErr.Code})
}

// respondMediaAPIError responds with a prebuilt error on the /media routes
func respondMediaAPIError(c *gin.Context, apiErr *apierrors.APIError) {
	c.JSON(apiErr.Status, mediaErrorResponse{Error: apiErr.Message, Code: apiErr.Code})
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, apierrors.NewValidationError(details))
}

func logFailure(c *gin.Context, err error, apiErr *apierrors.APIError, message string) {
	if apiErr.Status >= http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), err,
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
			zap.String("code", string(apiErr.Code)),
		)
		return
	}
	logger.DebugCtx(c.Request.Context(), message,
		zap.Error(err),
		zap.String("code", string(apiErr.Code)),
	)
}
