package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/feral-file/ff-media-library/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest           ErrorCode = "BAD_REQUEST"
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeFileNotFound         ErrorCode = "FILE_NOT_FOUND"
	ErrCodeBucketNotFound       ErrorCode = "BUCKET_NOT_FOUND"
	ErrCodeMediaNotFound        ErrorCode = "MEDIA_NOT_FOUND"
	ErrCodeAccessDenied         ErrorCode = "ACCESS_DENIED"
	ErrCodeFileTypeNotAllowed   ErrorCode = "FILE_TYPE_NOT_ALLOWED"
	ErrCodeFileTooLarge         ErrorCode = "FILE_TOO_LARGE"
	ErrCodeUseClientCompression ErrorCode = "USE_CLIENT_COMPRESSION"
	ErrCodeUnsupportedMediaType ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeSyncInProgress       ErrorCode = "SYNC_IN_PROGRESS"
	ErrCodeConflict             ErrorCode = "CONFLICT"

	// Server errors (5xx)
	ErrCodeStorageError        ErrorCode = "STORAGE_ERROR"
	ErrCodeNotConfigured       ErrorCode = "NOT_CONFIGURED"
	ErrCodeNoUploaderAvailable ErrorCode = "NO_UPLOADER_AVAILABLE"
	ErrCodeFFmpegNotAvailable  ErrorCode = "FFMPEG_NOT_AVAILABLE"
	ErrCodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Status  int       `json:"-"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

func newError(status int, code ErrorCode, message string, details ...string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return newError(http.StatusBadRequest, ErrCodeBadRequest, message, details...)
}

func NewValidationError(details ...string) *APIError {
	return newError(http.StatusBadRequest, ErrCodeValidationFailed, "Validation failed", details...)
}

func NewInternalError(message string, details ...string) *APIError {
	return newError(http.StatusInternalServerError, ErrCodeInternalError, message, details...)
}

var mappings = []struct {
	err     error
	status  int
	code    ErrorCode
	message string
}{
	{domain.ErrNotConfigured, http.StatusInternalServerError, ErrCodeNotConfigured, "Storage is not configured, ask an administrator to set up the storage settings"},
	{domain.ErrObjectNotFound, http.StatusNotFound, ErrCodeFileNotFound, "File not found"},
	{domain.ErrBucketNotFound, http.StatusNotFound, ErrCodeBucketNotFound, "Storage bucket not found"},
	{domain.ErrAccessDenied, http.StatusForbidden, ErrCodeAccessDenied, "Access to storage denied"},
	{domain.ErrMediaNotFound, http.StatusNotFound, ErrCodeMediaNotFound, "Media file not found"},
	{domain.ErrSyncInProgress, http.StatusConflict, ErrCodeSyncInProgress, "A sync is already in progress"},
	{domain.ErrFileTypeNotAllowed, http.StatusBadRequest, ErrCodeFileTypeNotAllowed, "File type not allowed"},
	{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, ErrCodeFileTooLarge, "File too large"},
	{domain.ErrInvalidInput, http.StatusBadRequest, ErrCodeValidationFailed, "Validation failed"},
	{domain.ErrNoUploaderAvailable, http.StatusInternalServerError, ErrCodeNoUploaderAvailable, "No active user can own the file"},
	{domain.ErrTranscoderUnavailable, http.StatusServiceUnavailable, ErrCodeFFmpegNotAvailable, "FFmpeg is not available on the server"},
	{domain.ErrStorage, http.StatusInternalServerError, ErrCodeStorageError, "Storage error"},
}

// FromError maps a domain error to its API error. Unknown errors become internal errors
// without exposing their text.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			e := newError(m.status, m.code, m.message)
			if m.code == ErrCodeValidationFailed || m.code == ErrCodeFileTypeNotAllowed || m.code == ErrCodeFileTooLarge {
				e.Details = err.Error()
			}
			return e
		}
	}
	return NewInternalError("Internal server error")
}

// FromStorageError maps err like FromError, but reports unknown errors as storage errors.
// Retrieval routes use it since everything behind them is an object store read.
func FromStorageError(err error) *APIError {
	apiErr := FromError(err)
	if apiErr.Code == ErrCodeInternalError {
		return newError(http.StatusInternalServerError, ErrCodeStorageError, "Storage error")
	}
	return apiErr
}

// Conflict builds a 409 error
func Conflict(message string, details ...string) *APIError {
	return newError(http.StatusConflict, ErrCodeConflict, message, details...)
}

// UseClientCompression tells the caller to compress images itself
func UseClientCompression() *APIError {
	return newError(http.StatusBadRequest, ErrCodeUseClientCompression, "Images are compressed by the client")
}

// UnsupportedMediaType rejects a compression input that is not a video
func UnsupportedMediaType(contentType string) *APIError {
	return newError(http.StatusBadRequest, ErrCodeUnsupportedMediaType, "Only video files can be compressed", contentType)
}
