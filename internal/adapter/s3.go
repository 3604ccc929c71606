package adapter

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client defines the subset of the S3 API used by the storage gateway
//
//go:generate mockgen -source=s3.go -destination=../mocks/s3.go -package=mocks -mock_names=S3Client=MockS3Client,S3ClientFactory=MockS3ClientFactory
type S3Client interface {
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, input *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, input *s3.CopyObjectInput) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
}

// S3Options holds what is needed to build a client for one storage config
type S3Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint for S3-compatible stores
	Endpoint       string
	ForcePathStyle bool
}

// S3ClientFactory builds S3 clients
type S3ClientFactory interface {
	New(ctx context.Context, opts S3Options) (S3Client, error)
}

// RealS3Client wraps the aws-sdk-go-v2 S3 client
type RealS3Client struct {
	client *s3.Client
}

type realS3ClientFactory struct{}

// NewS3ClientFactory creates a factory producing aws-sdk-go-v2 backed clients
func NewS3ClientFactory() S3ClientFactory {
	return &realS3ClientFactory{}
}

// New loads an aws config with static credentials and builds a client from it
func (f *realS3ClientFactory) New(ctx context.Context, opts S3Options) (S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &RealS3Client{client: client}, nil
}

func (c *RealS3Client) ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	return c.client.ListObjectsV2(ctx, input)
}

func (c *RealS3Client) HeadObject(ctx context.Context, input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	return c.client.HeadObject(ctx, input)
}

func (c *RealS3Client) GetObject(ctx context.Context, input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	return c.client.GetObject(ctx, input)
}

func (c *RealS3Client) PutObject(ctx context.Context, input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	return c.client.PutObject(ctx, input)
}

func (c *RealS3Client) CopyObject(ctx context.Context, input *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
	return c.client.CopyObject(ctx, input)
}

func (c *RealS3Client) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	return c.client.DeleteObject(ctx, input)
}
