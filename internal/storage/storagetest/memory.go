// Package storagetest provides an in-memory S3 client for tests.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/feral-file/ff-media-library/internal/adapter"
)

// StoredObject is one object held by MemoryS3
type StoredObject struct {
	Body         []byte
	ContentType  string
	Metadata     map[string]string
	LastModified time.Time
}

// MemoryS3 implements adapter.S3Client over a map, for a single bucket
type MemoryS3 struct {
	Bucket string
	// PageSize caps the keys returned by one ListObjectsV2 call
	PageSize int

	mu      sync.Mutex
	objects map[string]StoredObject

	// ListErr, when set, fails every ListObjectsV2 call
	ListErr error
	// HeadErrs fails HeadObject for specific keys
	HeadErrs map[string]error
	// GetErr, when set, fails every GetObject call
	GetErr error

	calls map[string]int
	// ranges records the Range header of each GetObject call
	ranges []string
	bodies []*TrackingBody
}

// NewMemoryS3 creates an empty bucket
func NewMemoryS3(bucket string) *MemoryS3 {
	return &MemoryS3{
		Bucket:   bucket,
		PageSize: 1000,
		objects:  map[string]StoredObject{},
		HeadErrs: map[string]error{},
		calls:    map[string]int{},
	}
}

var _ adapter.S3Client = (*MemoryS3)(nil)

// PutBytes stores an object directly
func (m *MemoryS3) PutBytes(key string, body []byte, contentType string, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{Body: body, ContentType: contentType, Metadata: metadata, LastModified: time.Now()}
}

// Remove deletes an object directly
func (m *MemoryS3) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
}

// Object returns a stored object
func (m *MemoryS3) Object(key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o, ok
}

// Calls returns the number of calls to an S3 operation, e.g. "HeadObject"
func (m *MemoryS3) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Ranges returns the Range values sent with GetObject calls in order, "" for full reads
func (m *MemoryS3) Ranges() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ranges...)
}

// LastBody returns the body handed out by the latest successful GetObject call
func (m *MemoryS3) LastBody() *TrackingBody {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.bodies) == 0 {
		return nil
	}
	return m.bodies[len(m.bodies)-1]
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func (m *MemoryS3) checkBucket(bucket *string) error {
	if aws.ToString(bucket) != m.Bucket {
		return &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
	}
	return nil
}

func (m *MemoryS3) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ListObjectsV2"]++

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if err := m.checkBucket(input.Bucket); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(input.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if token := aws.ToString(input.ContinuationToken); token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, apiError("InvalidArgument")
		}
		start = n
	}

	pageSize := m.PageSize
	if input.MaxKeys != nil && int(*input.MaxKeys) < pageSize {
		pageSize = int(*input.MaxKeys)
	}
	end := min(start+pageSize, len(keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		o := m.objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(o.Body))),
			LastModified: aws.Time(o.LastModified),
			ETag:         aws.String(fmt.Sprintf(`"%x"`, len(o.Body))),
			StorageClass: types.ObjectStorageClassStandard,
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (m *MemoryS3) HeadObject(_ context.Context, input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["HeadObject"]++

	key := aws.ToString(input.Key)
	if err, ok := m.HeadErrs[key]; ok {
		return nil, err
	}
	if err := m.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	o, ok := m.objects[key]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(o.Body))),
		ContentType:   aws.String(o.ContentType),
		LastModified:  aws.Time(o.LastModified),
		Metadata:      o.Metadata,
	}, nil
}

func (m *MemoryS3) GetObject(_ context.Context, input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetObject"]++
	m.ranges = append(m.ranges, aws.ToString(input.Range))

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if err := m.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	o, ok := m.objects[aws.ToString(input.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	body := o.Body
	out := &s3.GetObjectOutput{
		ContentType:  aws.String(o.ContentType),
		LastModified: aws.Time(o.LastModified),
		Metadata:     o.Metadata,
	}
	if r := aws.ToString(input.Range); r != "" {
		var start, end int64
		if _, err := fmt.Sscanf(r, "bytes=%d-%d", &start, &end); err != nil || start > end || end >= int64(len(body)) {
			return nil, apiError("InvalidRange")
		}
		out.ContentRange = aws.String(fmt.Sprintf("bytes %d-%d/%d", start, end, len(body)))
		body = body[start : end+1]
	}
	out.ContentLength = aws.Int64(int64(len(body)))
	tb := &TrackingBody{Reader: bytes.NewReader(body)}
	m.bodies = append(m.bodies, tb)
	out.Body = tb
	return out, nil
}

func (m *MemoryS3) PutObject(_ context.Context, input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["PutObject"]++
	if err := m.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	m.objects[aws.ToString(input.Key)] = StoredObject{
		Body:         body,
		ContentType:  aws.ToString(input.ContentType),
		Metadata:     input.Metadata,
		LastModified: time.Now(),
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *MemoryS3) CopyObject(_ context.Context, input *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CopyObject"]++
	if err := m.checkBucket(input.Bucket); err != nil {
		return nil, err
	}

	src := strings.TrimPrefix(aws.ToString(input.CopySource), m.Bucket+"/")
	if unescaped, err := url.PathUnescape(src); err == nil {
		src = unescaped
	}
	o, ok := m.objects[src]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	o.LastModified = time.Now()
	m.objects[aws.ToString(input.Key)] = o
	return &s3.CopyObjectOutput{}, nil
}

func (m *MemoryS3) DeleteObject(_ context.Context, input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["DeleteObject"]++
	if err := m.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	delete(m.objects, aws.ToString(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// Factory implements adapter.S3ClientFactory, always handing out Client
type Factory struct {
	Client adapter.S3Client
	Err    error

	mu      sync.Mutex
	created int
}

func (f *Factory) New(_ context.Context, _ adapter.S3Options) (adapter.S3Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Client, nil
}

// Created returns the number of clients built
func (f *Factory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

// TrackingBody is an object body that records whether it was closed
type TrackingBody struct {
	io.Reader
	mu     sync.Mutex
	closed bool
}

func (b *TrackingBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called
func (b *TrackingBody) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
