package storage_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/mocks"
	"github.com/feral-file/ff-media-library/internal/storage"
	"github.com/feral-file/ff-media-library/internal/storage/storagetest"
)

func testConfig() domain.StorageConfig {
	return domain.StorageConfig{
		Region:          "eu-west-1",
		BucketName:      "media",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
		IsActive:        true,
	}
}

func TestGateway_ListAll_FollowsContinuationTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockS3Client(ctrl)
	factory := mocks.NewMockS3ClientFactory(ctrl)
	factory.EXPECT().New(gomock.Any(), adapter.S3Options{
		Region:          "eu-west-1",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
	}).Return(client, nil).Times(1)

	page := func(token *string, next string, keys ...string) *gomock.Call {
		out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(next != "")}
		if next != "" {
			out.NextContinuationToken = aws.String(next)
		}
		for _, k := range keys {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(10), ETag: aws.String(`"abc"`)})
		}
		return client.EXPECT().
			ListObjectsV2(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
				assert.Equal(t, "media", aws.ToString(in.Bucket))
				assert.Equal(t, aws.ToString(token), aws.ToString(in.ContinuationToken))
				return out, nil
			})
	}

	gomock.InOrder(
		page(nil, "t1", "a.jpg", "b.jpg"),
		page(aws.String("t1"), "t2", "c.jpg", "d/"),
		page(aws.String("t2"), "", "d/e.png", "f.mp4"),
	)

	gw := storage.NewGateway(factory)
	objects, err := gw.ListAll(context.Background(), testConfig(), "")
	require.NoError(t, err)
	require.Len(t, objects, 6)

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d/", "d/e.png", "f.mp4"}, keys)
	assert.Equal(t, "abc", objects[0].ETag)
	assert.Equal(t, int64(10), objects[0].SizeBytes)
}

func TestGateway_ListAll_TruncatedWithoutToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockS3Client(ctrl)
	factory := mocks.NewMockS3ClientFactory(ctrl)
	factory.EXPECT().New(gomock.Any(), gomock.Any()).Return(client, nil)
	client.EXPECT().ListObjectsV2(gomock.Any(), gomock.Any()).
		Return(&s3.ListObjectsV2Output{IsTruncated: aws.Bool(true)}, nil)

	_, err := storage.NewGateway(factory).ListAll(context.Background(), testConfig(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func responseError(status int) error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
			Err:      errors.New("http error"),
		},
	}
}

func TestGateway_Head_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "no such key", err: &types.NoSuchKey{}, expected: domain.ErrObjectNotFound},
		{name: "head not found", err: &types.NotFound{}, expected: domain.ErrObjectNotFound},
		{name: "no such bucket", err: &types.NoSuchBucket{}, expected: domain.ErrBucketNotFound},
		{name: "access denied code", err: &smithy.GenericAPIError{Code: "AccessDenied"}, expected: domain.ErrAccessDenied},
		{name: "bad access key", err: &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, expected: domain.ErrAccessDenied},
		{name: "forbidden status", err: responseError(http.StatusForbidden), expected: domain.ErrAccessDenied},
		{name: "not found status", err: responseError(http.StatusNotFound), expected: domain.ErrObjectNotFound},
		{name: "internal error code", err: &smithy.GenericAPIError{Code: "InternalError"}, expected: domain.ErrStorage},
		{name: "network error", err: errors.New("connection reset"), expected: domain.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mocks.NewMockS3Client(ctrl)
			factory := mocks.NewMockS3ClientFactory(ctrl)
			factory.EXPECT().New(gomock.Any(), gomock.Any()).Return(client, nil)
			client.EXPECT().HeadObject(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			_, err := storage.NewGateway(factory).Head(context.Background(), testConfig(), "a.jpg")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)

			var serr *storage.Error
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, "head", serr.Op)
			assert.Equal(t, "a.jpg", serr.Key)
		})
	}
}

func TestGateway_ReusesClientPerCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockS3Client(ctrl)
	factory := mocks.NewMockS3ClientFactory(ctrl)
	factory.EXPECT().New(gomock.Any(), gomock.Any()).Return(client, nil).Times(2)
	client.EXPECT().DeleteObject(gomock.Any(), gomock.Any()).Return(&s3.DeleteObjectOutput{}, nil).Times(3)

	gw := storage.NewGateway(factory)
	ctx := context.Background()
	cfg := testConfig()

	require.NoError(t, gw.Delete(ctx, cfg, "a"))
	require.NoError(t, gw.Delete(ctx, cfg, "b"))

	rotated := cfg
	rotated.SecretAccessKey = "rotated"
	require.NoError(t, gw.Delete(ctx, rotated, "c"))
}

func TestGateway_NotConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	factory := mocks.NewMockS3ClientFactory(ctrl)
	gw := storage.NewGateway(factory)

	cfg := testConfig()
	cfg.BucketName = ""
	_, err := gw.Head(context.Background(), cfg, "a.jpg")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestGateway_FactoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	factory := mocks.NewMockS3ClientFactory(ctrl)
	factory.EXPECT().New(gomock.Any(), gomock.Any()).Return(nil, errors.New("bad region"))

	err := storage.NewGateway(factory).Put(context.Background(), testConfig(), storage.PutInput{Key: "a", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestGateway_MemoryRoundTrip(t *testing.T) {
	mem := storagetest.NewMemoryS3("media")
	gw := storage.NewGateway(&storagetest.Factory{Client: mem})
	ctx := context.Background()
	cfg := testConfig()

	body := strings.Repeat("x", 1000)
	require.NoError(t, gw.Put(ctx, cfg, storage.PutInput{
		Key:         "photos/my cat.jpg",
		Body:        strings.NewReader(body),
		SizeBytes:   1000,
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"Uploaded-By": "u1"},
	}))

	info, err := gw.Head(ctx, cfg, "photos/my cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), info.SizeBytes)
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.Equal(t, "u1", info.Metadata["uploaded-by"])

	stream, err := gw.Get(ctx, cfg, "photos/my cat.jpg", &storage.ByteRange{Start: 0, End: 499})
	require.NoError(t, err)
	b, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	require.NoError(t, stream.Body.Close())
	assert.Len(t, b, 500)
	assert.Equal(t, "bytes 0-499/1000", stream.ContentRange)
	assert.Equal(t, []string{"bytes=0-499"}, mem.Ranges())

	require.NoError(t, gw.Copy(ctx, cfg, "photos/my cat.jpg", "archive/my cat.jpg"))
	require.NoError(t, gw.Delete(ctx, cfg, "photos/my cat.jpg"))

	_, err = gw.Head(ctx, cfg, "photos/my cat.jpg")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
	_, ok := mem.Object("archive/my cat.jpg")
	assert.True(t, ok)

	other := cfg
	other.BucketName = "missing"
	_, err = gw.ListAll(ctx, other, "")
	assert.ErrorIs(t, err, domain.ErrBucketNotFound)
}
