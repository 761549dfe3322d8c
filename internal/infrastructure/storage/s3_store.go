// Package storage keeps rendered billing documents (receipt PDFs) in object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	infraconfig "github.com/invoicer/backend/internal/infrastructure/config"
)

const (
	s3Scheme                 = "s3://"
	defaultPresignExpiration = 15 * time.Minute
)

var (
	_ appinv.ArtifactStore  = (*S3ArtifactStore)(nil)
	_ appinv.ArtifactReader = (*S3ArtifactStore)(nil)
	_ appinv.ArtifactLinker = (*S3ArtifactStore)(nil)
)

// s3API is the subset of the S3 client the store uses
type s3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3ArtifactStore stores artifacts in an S3-compatible bucket (AWS S3, MinIO, R2).
// Paths returned by Put have the form s3://{bucket}/{key}.
type S3ArtifactStore struct {
	client            s3API
	presigner         s3Presigner
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3Option configures an S3ArtifactStore
type S3Option func(*S3ArtifactStore)

// WithLogger sets the store logger
func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3ArtifactStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPresignExpiration sets how long download links stay valid
func WithPresignExpiration(d time.Duration) S3Option {
	return func(s *S3ArtifactStore) {
		s.presignExpiration = d
	}
}

// NewS3ArtifactStore creates an S3ArtifactStore from configuration.
// Credentials fall back to the default AWS chain when no static key pair is configured.
func NewS3ArtifactStore(ctx context.Context, cfg infraconfig.StorageConfig, opts ...S3Option) (*S3ArtifactStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(regionOrDefault(cfg.Region))}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3ArtifactStore(client, s3.NewPresignClient(client), cfg.Bucket, opts...), nil
}

func newS3ArtifactStore(client s3API, presigner s3Presigner, bucket string, opts ...S3Option) *S3ArtifactStore {
	s := &S3ArtifactStore{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiration <= 0 {
		s.presignExpiration = defaultPresignExpiration
	}
	return s
}

func regionOrDefault(region string) string {
	if region == "" {
		return "us-east-1"
	}
	return region
}

// normalizeEndpoint adds a scheme to bare host:port endpoints. An empty endpoint means AWS.
func normalizeEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", nil
	}
	if strings.Contains(endpoint, "://") {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			return "", fmt.Errorf("invalid storage endpoint %q: scheme must be http or https", endpoint)
		}
		return strings.TrimRight(endpoint, "/"), nil
	}
	return "https://" + strings.TrimRight(endpoint, "/"), nil
}

// Bucket returns the bucket name
func (s *S3ArtifactStore) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket if it does not exist yet.
// Call it at startup.
func (s *S3ArtifactStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating artifact bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put uploads data under key and returns its s3:// path
func (s *S3ArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}
	s.logger.Debug("Artifact uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return s3Scheme + s.bucket + "/" + key, nil
}

// Get downloads the object behind an s3:// path
func (s *S3ArtifactStore) Get(ctx context.Context, path string) ([]byte, error) {
	key, err := s.keyFromPath(path)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to download artifact: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact body: %w", err)
	}
	return data, nil
}

// DownloadURL returns a presigned GET link for an s3:// path.
// A non-positive expiresIn uses the store default.
func (s *S3ArtifactStore) DownloadURL(ctx context.Context, path string, expiresIn time.Duration) (string, time.Time, error) {
	key, err := s.keyFromPath(path)
	if err != nil {
		return "", time.Time{}, err
	}
	if expiresIn <= 0 {
		expiresIn = s.presignExpiration
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

func (s *S3ArtifactStore) keyFromPath(path string) (string, error) {
	prefix := s3Scheme + s.bucket + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("artifact path %q does not belong to bucket %s", path, s.bucket)
	}
	return cleanKey(strings.TrimPrefix(path, prefix))
}
