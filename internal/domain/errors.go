package domain

import "errors"

var (
	// ErrNotConfigured is returned when no usable storage configuration exists
	ErrNotConfigured = errors.New("storage is not configured")

	// ErrObjectNotFound is returned when the object key is absent from the store
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied is returned when the store rejects the credentials
	ErrAccessDenied = errors.New("access denied")

	// ErrStorage is returned for any other object store failure
	ErrStorage = errors.New("storage error")

	// ErrNoUploaderAvailable is returned when no owner can be attributed to an object
	ErrNoUploaderAvailable = errors.New("no uploader available")

	// ErrSyncInProgress is returned when a reconciliation pass is already running for the bucket
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrMediaNotFound is returned when a catalog entry does not exist
	ErrMediaNotFound = errors.New("media file not found")

	// ErrInvalidInput is returned when a request fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrFileTypeNotAllowed is returned when an upload's content type is outside the allow-list
	ErrFileTypeNotAllowed = errors.New("file type not allowed")

	// ErrFileTooLarge is returned when an upload exceeds the configured max size
	ErrFileTooLarge = errors.New("file too large")

	// ErrTranscoderUnavailable is returned when ffmpeg or ffprobe cannot be found
	ErrTranscoderUnavailable = errors.New("transcoder not available")
)

// ErrorKind is a stable classification of an error, used at batch boundaries and API responses
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindNotConfigured       ErrorKind = "not_configured"
	KindObjectNotFound      ErrorKind = "object_not_found"
	KindBucketNotFound      ErrorKind = "bucket_not_found"
	KindAccessDenied        ErrorKind = "access_denied"
	KindStorage             ErrorKind = "storage_error"
	KindNoUploaderAvailable ErrorKind = "no_uploader_available"
	KindMetadataFetch       ErrorKind = "metadata_fetch_failed"
	KindUploadFailed        ErrorKind = "upload_failed"
	KindReadFailed          ErrorKind = "read_failed"
	KindOverCeiling         ErrorKind = "compression_required"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindInternal            ErrorKind = "internal"
)

var kindsBySentinel = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotConfigured, KindNotConfigured},
	{ErrObjectNotFound, KindObjectNotFound},
	{ErrBucketNotFound, KindBucketNotFound},
	{ErrAccessDenied, KindAccessDenied},
	{ErrStorage, KindStorage},
	{ErrNoUploaderAvailable, KindNoUploaderAvailable},
	{ErrInvalidInput, KindInvalidInput},
	{ErrFileTypeNotAllowed, KindInvalidInput},
	{ErrFileTooLarge, KindInvalidInput},
}

// KindOf returns the kind of the first known sentinel wrapped by err
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kindsBySentinel {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsRetryable reports whether an object store error may succeed on retry
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindObjectNotFound, KindBucketNotFound, KindAccessDenied, KindNotConfigured:
		return false
	}
	return err != nil
}
