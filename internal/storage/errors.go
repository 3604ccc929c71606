package storage

import (
	"errors"
	"fmt"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/feral-file/ff-media-library/internal/domain"
)

// Error is an object store failure classified into a domain error kind
type Error struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("object store %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("object store %s %q: %v: %v", e.Op, e.Key, e.Kind, e.Err)
}

// Unwrap exposes both the domain kind and the underlying SDK error to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// classify maps an SDK error onto ErrObjectNotFound, ErrBucketNotFound, ErrAccessDenied or ErrStorage
func classify(op, key string, err error) error {
	return &Error{Op: op, Key: key, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	var (
		noSuchKey    *types.NoSuchKey
		notFound     *types.NotFound
		noSuchBucket *types.NoSuchBucket
	)
	switch {
	case errors.As(err, &noSuchBucket):
		return domain.ErrBucketNotFound
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return domain.ErrObjectNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return domain.ErrBucketNotFound
		case "NoSuchKey", "NotFound":
			return domain.ErrObjectNotFound
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AllAccessDisabled":
			return domain.ErrAccessDenied
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusForbidden:
			return domain.ErrAccessDenied
		case http.StatusNotFound:
			return domain.ErrObjectNotFound
		}
	}

	return domain.ErrStorage
}
