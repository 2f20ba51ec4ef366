package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dukerupert/mediaguard"
)

// s3API is the subset of *s3.Client used by S3Provider.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Compile-time interface check
var _ mediaguard.StorageProvider = (*S3Provider)(nil)

// S3Provider implements mediaguard.StorageProvider for AWS S3 and
// S3-compatible services. The client is built on first use.
type S3Provider struct {
	cfg    mediaguard.StorageConfig
	logger *slog.Logger
	now    func() time.Time
	client func() (s3API, error)
}

// NewS3Provider creates an S3 provider. Configuration is checked when the
// client is first needed, not here.
func NewS3Provider(cfg mediaguard.StorageConfig, logger *slog.Logger) *S3Provider {
	p := &S3Provider{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	p.client = sync.OnceValues(p.newClient)
	return p
}

// Name returns "s3".
func (p *S3Provider) Name() string {
	return mediaguard.ProviderS3
}

// Ready builds the client and reports any configuration error.
func (p *S3Provider) Ready() error {
	_, err := p.client()
	return err
}

func (p *S3Provider) newClient() (s3API, error) {
	cfg := p.cfg
	if cfg.S3Bucket == "" {
		return nil, mediaguard.Config("STORAGE_S3_BUCKET is required")
	}
	if cfg.S3Region == "" {
		return nil, mediaguard.Config("STORAGE_S3_REGION is required")
	}
	if (cfg.S3AccessKey == "") != (cfg.S3SecretKey == "") {
		return nil, mediaguard.Config("STORAGE_S3_ACCESS_KEY and STORAGE_S3_SECRET_KEY must be set together")
	}
	if cfg.S3Endpoint != "" {
		if cfg.S3AccessKey == "" {
			return nil, mediaguard.Config("STORAGE_S3_ENDPOINT requires static credentials")
		}
		if u, err := url.Parse(cfg.S3Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, mediaguard.Config("STORAGE_S3_ENDPOINT must be an absolute URL")
		}
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, mediaguard.WrapError(mediaguard.ECONFIG, "loading AWS config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	p.logger.Info("initialized S3 client",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
		slog.String("endpoint", cfg.S3Endpoint))
	return client, nil
}

// Upload puts data at "{folder}/{unix}-{token}{ext}".
func (p *S3Provider) Upload(ctx context.Context, data []byte, filename, contentType, folder string) (string, error) {
	client, err := p.client()
	if err != nil {
		return "", err
	}

	key := objectKey(folder, contentType, p.now())
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.cfg.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", mediaguard.Unavailable("failed to upload to S3", err)
	}

	return joinURL(p.baseURL(), key), nil
}

// Delete removes the object rawURL points to. An object that is already gone
// counts as deleted.
func (p *S3Provider) Delete(ctx context.Context, rawURL string) error {
	client, err := p.client()
	if err != nil {
		return err
	}

	key, err := keyFromURL(p.baseURL(), rawURL)
	if err != nil {
		return err
	}

	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			return nil
		}
		return mediaguard.Unavailable("failed to delete from S3", err)
	}
	return nil
}

// baseURL is the public prefix for object URLs: the configured public URL,
// the path-style endpoint URL, or the virtual-hosted AWS URL.
func (p *S3Provider) baseURL() string {
	switch {
	case p.cfg.S3PublicURL != "":
		return strings.TrimRight(p.cfg.S3PublicURL, "/")
	case p.cfg.S3Endpoint != "":
		return strings.TrimRight(p.cfg.S3Endpoint, "/") + "/" + p.cfg.S3Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", p.cfg.S3Bucket, p.cfg.S3Region)
	}
}
