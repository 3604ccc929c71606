package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
)

const listPageSize = 1000

// Object is one entry of a bucket listing
type Object struct {
	Key          string
	SizeBytes    int64
	LastModified time.Time
	ETag         string
	StorageClass string
}

// ObjectInfo is the metadata of a single object
type ObjectInfo struct {
	Key          string
	SizeBytes    int64
	ContentType  string
	ETag         string
	LastModified time.Time
	// Metadata holds the user-defined x-amz-meta-* headers with lower-case names
	Metadata map[string]string
}

// ObjectStream is an open object body. The caller must close Body.
type ObjectStream struct {
	ObjectInfo
	Body io.ReadCloser
	// ContentRange is set when a byte range was served
	ContentRange string
}

// ByteRange is an inclusive byte range
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// PutInput describes an object to write
type PutInput struct {
	Key         string
	Body        io.Reader
	SizeBytes   int64
	ContentType string
	Metadata    map[string]string
}

// Gateway issues object store operations against the bucket of a storage config
type Gateway interface {
	// ListAll lists every object under prefix, following continuation tokens to the last page
	ListAll(ctx context.Context, cfg domain.StorageConfig, prefix string) ([]Object, error)
	// Head returns the metadata of key
	Head(ctx context.Context, cfg domain.StorageConfig, key string) (*ObjectInfo, error)
	// Get opens key, restricted to rng when it is not nil
	Get(ctx context.Context, cfg domain.StorageConfig, key string, rng *ByteRange) (*ObjectStream, error)
	// Put writes an object
	Put(ctx context.Context, cfg domain.StorageConfig, input PutInput) error
	// Copy copies src to dst within the bucket
	Copy(ctx context.Context, cfg domain.StorageConfig, src, dst string) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, cfg domain.StorageConfig, key string) error
}

type gateway struct {
	factory adapter.S3ClientFactory

	mu      sync.Mutex
	clients map[adapter.S3Options]adapter.S3Client
}

// NewGateway creates a gateway that builds one client per distinct set of credentials on first use
func NewGateway(factory adapter.S3ClientFactory) Gateway {
	return &gateway{
		factory: factory,
		clients: make(map[adapter.S3Options]adapter.S3Client),
	}
}

func optionsOf(cfg domain.StorageConfig) adapter.S3Options {
	region := cfg.Region
	if region == "" {
		region = domain.DEFAULT_REGION
	}
	return adapter.S3Options{
		Region:          region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Endpoint:        cfg.Endpoint,
		ForcePathStyle:  cfg.ForcePathStyle,
	}
}

func (g *gateway) client(ctx context.Context, cfg domain.StorageConfig) (adapter.S3Client, error) {
	if !cfg.Usable() {
		return nil, domain.ErrNotConfigured
	}

	opts := optionsOf(cfg)

	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[opts]; ok {
		return c, nil
	}

	c, err := g.factory.New(ctx, opts)
	if err != nil {
		return nil, &Error{Op: "connect", Kind: domain.ErrStorage, Err: err}
	}
	g.clients[opts] = c

	logger.InfoCtx(ctx, "Created object store client",
		zap.String("region", opts.Region),
		zap.String("endpoint", opts.Endpoint),
		zap.String("bucket", cfg.BucketName),
	)
	return c, nil
}

func (g *gateway) ListAll(ctx context.Context, cfg domain.StorageConfig, prefix string) ([]Object, error) {
	c, err := g.client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(cfg.BucketName),
		MaxKeys: aws.Int32(listPageSize),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var (
		objects []Object
		pages   int
	)
	for {
		out, err := c.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, classify("list", prefix, err)
		}
		pages++

		for _, o := range out.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(o.Key),
				SizeBytes:    aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
				ETag:         strings.Trim(aws.ToString(o.ETag), `"`),
				StorageClass: string(o.StorageClass),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		if aws.ToString(out.NextContinuationToken) == "" {
			return nil, &Error{Op: "list", Key: prefix, Kind: domain.ErrStorage,
				Err: errors.New("truncated listing without continuation token")}
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	logger.DebugCtx(ctx, "Listed bucket",
		zap.String("bucket", cfg.BucketName),
		zap.Int("objects", len(objects)),
		zap.Int("pages", pages),
	)
	return objects, nil
}

func (g *gateway) Head(ctx context.Context, cfg domain.StorageConfig, key string) (*ObjectInfo, error) {
	c, err := g.client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	out, err := c.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify("head", key, err)
	}

	return &ObjectInfo{
		Key:          key,
		SizeBytes:    aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified: aws.ToTime(out.LastModified),
		Metadata:     lowerKeys(out.Metadata),
	}, nil
}

func (g *gateway) Get(ctx context.Context, cfg domain.StorageConfig, key string, rng *ByteRange) (*ObjectStream, error) {
	c, err := g.client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(cfg.BucketName),
		Key:    aws.String(key),
	}
	if rng != nil {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", rng.Start, rng.End))
	}

	out, err := c.GetObject(ctx, input)
	if err != nil {
		return nil, classify("get", key, err)
	}

	return &ObjectStream{
		ObjectInfo: ObjectInfo{
			Key:          key,
			SizeBytes:    aws.ToInt64(out.ContentLength),
			ContentType:  aws.ToString(out.ContentType),
			ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
			LastModified: aws.ToTime(out.LastModified),
			Metadata:     lowerKeys(out.Metadata),
		},
		Body:         out.Body,
		ContentRange: aws.ToString(out.ContentRange),
	}, nil
}

func (g *gateway) Put(ctx context.Context, cfg domain.StorageConfig, input PutInput) error {
	c, err := g.client(ctx, cfg)
	if err != nil {
		return err
	}

	put := &s3.PutObjectInput{
		Bucket:   aws.String(cfg.BucketName),
		Key:      aws.String(input.Key),
		Body:     input.Body,
		Metadata: input.Metadata,
	}
	if input.SizeBytes > 0 {
		put.ContentLength = aws.Int64(input.SizeBytes)
	}
	if input.ContentType != "" {
		put.ContentType = aws.String(input.ContentType)
	}

	if _, err := c.PutObject(ctx, put); err != nil {
		return classify("put", input.Key, err)
	}
	return nil
}

func (g *gateway) Copy(ctx context.Context, cfg domain.StorageConfig, src, dst string) error {
	c, err := g.client(ctx, cfg)
	if err != nil {
		return err
	}

	_, err = c.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(cfg.BucketName),
		CopySource: aws.String(cfg.BucketName + "/" + escapeCopySource(src)),
		Key:        aws.String(dst),
	})
	if err != nil {
		return classify("copy", src, err)
	}
	return nil
}

func (g *gateway) Delete(ctx context.Context, cfg domain.StorageConfig, key string) error {
	c, err := g.client(ctx, cfg)
	if err != nil {
		return err
	}

	_, err = c.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		cerr := classify("delete", key, err)
		if errors.Is(cerr, domain.ErrObjectNotFound) {
			return nil
		}
		return cerr
	}
	return nil
}

func escapeCopySource(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func lowerKeys(m map[string]string) map[string]string {
	if len(m) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
