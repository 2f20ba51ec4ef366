package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dukerupert/mediaguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockS3Client is a mock implementation of the S3 client for testing
type MockS3Client struct {
	mock.Mock
}

// PutObject mocks the S3 PutObject operation
func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

// DeleteObject mocks the S3 DeleteObject operation
func (m *MockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

var s3TestConfig = mediaguard.StorageConfig{
	Provider: "s3",
	S3Bucket: "media",
	S3Region: "us-east-1",
}

func newTestS3Provider(cfg mediaguard.StorageConfig, client s3API) *S3Provider {
	p := NewS3Provider(cfg, discardLogger())
	p.client = func() (s3API, error) { return client, nil }
	p.now = func() time.Time { return time.Unix(1700000000, 0) }
	return p
}

func TestS3Provider_Upload(t *testing.T) {
	m := new(MockS3Client)
	m.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		key := aws.ToString(in.Key)
		return aws.ToString(in.Bucket) == "media" &&
			strings.HasPrefix(key, "avatars/1700000000-") &&
			strings.HasSuffix(key, ".png") &&
			aws.ToString(in.ContentType) == "image/png" &&
			aws.ToInt64(in.ContentLength) == 4
	})).Return(&s3.PutObjectOutput{}, nil)

	p := newTestS3Provider(s3TestConfig, m)
	url, err := p.Upload(context.Background(), []byte("data"), "ignored.png", "image/png", "avatars")
	require.NoError(t, err)

	assert.Regexp(t, `^https://media\.s3\.us-east-1\.amazonaws\.com/avatars/1700000000-[0-9a-f]{32}\.png$`, url)
	m.AssertExpectations(t)
}

func TestS3Provider_UploadFailure(t *testing.T) {
	m := new(MockS3Client)
	m.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	p := newTestS3Provider(s3TestConfig, m)
	_, err := p.Upload(context.Background(), []byte("data"), "x.png", "image/png", "avatars")
	require.Error(t, err)
	assert.True(t, mediaguard.IsErrorCode(err, mediaguard.EUNAVAILABLE))
}

func TestS3Provider_RoundTrip(t *testing.T) {
	m := new(MockS3Client)
	var uploaded string
	m.On("PutObject", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			uploaded = aws.ToString(args.Get(1).(*s3.PutObjectInput).Key)
		}).
		Return(&s3.PutObjectOutput{}, nil)

	cfg := s3TestConfig
	cfg.S3PublicURL = "https://cdn.example.com/"
	p := newTestS3Provider(cfg, m)

	url, err := p.Upload(context.Background(), []byte("data"), "x.webp", "image/webp", "posts")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+uploaded, url)

	m.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Bucket) == "media" && aws.ToString(in.Key) == uploaded
	})).Return(&s3.DeleteObjectOutput{}, nil)

	require.NoError(t, p.Delete(context.Background(), url))
	m.AssertExpectations(t)
}

func TestS3Provider_Delete(t *testing.T) {
	const url = "https://media.s3.us-east-1.amazonaws.com/avatars/1700000000-abc.png"

	tests := []struct {
		name     string
		url      string
		err      error
		wantCode string
		called   bool
	}{
		{name: "deleted", url: url, called: true},
		{name: "already absent", url: url, err: &smithy.GenericAPIError{Code: "NoSuchKey"}, called: true},
		{name: "backend failure", url: url, err: errors.New("timeout"), wantCode: mediaguard.EUNAVAILABLE, called: true},
		{name: "access denied", url: url, err: &smithy.GenericAPIError{Code: "AccessDenied"}, wantCode: mediaguard.EUNAVAILABLE, called: true},
		{name: "other bucket", url: "https://other.s3.us-east-1.amazonaws.com/avatars/abc.png", wantCode: mediaguard.EBADURL},
		{name: "local url", url: "/uploads/avatars/abc.png", wantCode: mediaguard.EBADURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockS3Client)
			if tt.err != nil {
				m.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, tt.err)
			} else {
				m.On("DeleteObject", mock.Anything, mock.Anything).Return(&s3.DeleteObjectOutput{}, nil)
			}

			err := newTestS3Provider(s3TestConfig, m).Delete(context.Background(), tt.url)
			if tt.wantCode != "" {
				assert.True(t, mediaguard.IsErrorCode(err, tt.wantCode), "got %v", err)
			} else {
				assert.NoError(t, err)
			}

			if tt.called {
				m.AssertNumberOfCalls(t, "DeleteObject", 1)
			} else {
				m.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestS3Provider_Config(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")

	tests := []struct {
		name    string
		cfg     mediaguard.StorageConfig
		wantErr bool
	}{
		{name: "missing bucket", cfg: mediaguard.StorageConfig{S3Region: "us-east-1"}, wantErr: true},
		{name: "missing region", cfg: mediaguard.StorageConfig{S3Bucket: "media"}, wantErr: true},
		{
			name:    "access key without secret",
			cfg:     mediaguard.StorageConfig{S3Bucket: "media", S3Region: "us-east-1", S3AccessKey: "AKID"},
			wantErr: true,
		},
		{
			name:    "endpoint without static credentials",
			cfg:     mediaguard.StorageConfig{S3Bucket: "media", S3Region: "us-east-1", S3Endpoint: "http://localhost:9000"},
			wantErr: true,
		},
		{
			name: "relative endpoint",
			cfg: mediaguard.StorageConfig{
				S3Bucket: "media", S3Region: "us-east-1", S3Endpoint: "localhost:9000",
				S3AccessKey: "AKID", S3SecretKey: "SECRET",
			},
			wantErr: true,
		},
		{
			name: "s3-compatible endpoint",
			cfg: mediaguard.StorageConfig{
				S3Bucket: "media", S3Region: "auto", S3Endpoint: "http://localhost:9000",
				S3AccessKey: "AKID", S3SecretKey: "SECRET",
			},
		},
		{name: "default credential chain", cfg: s3TestConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewS3Provider(tt.cfg, discardLogger())
			err := p.Ready()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, mediaguard.IsErrorCode(err, mediaguard.ECONFIG))

				_, err = p.Upload(context.Background(), []byte("x"), "x.png", "image/png", "avatars")
				assert.True(t, mediaguard.IsErrorCode(err, mediaguard.ECONFIG))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestS3Provider_BaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  mediaguard.StorageConfig
		want string
	}{
		{name: "aws default", cfg: s3TestConfig, want: "https://media.s3.us-east-1.amazonaws.com"},
		{
			name: "path-style endpoint",
			cfg:  mediaguard.StorageConfig{S3Bucket: "media", S3Endpoint: "http://localhost:9000/"},
			want: "http://localhost:9000/media",
		},
		{
			name: "public url wins",
			cfg:  mediaguard.StorageConfig{S3Bucket: "media", S3Endpoint: "http://localhost:9000", S3PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewS3Provider(tt.cfg, discardLogger()).baseURL())
		})
	}
}
