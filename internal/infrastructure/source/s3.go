package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// ObjectGetter is the part of the S3 client the source needs
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads price lists stored in S3 buckets
type S3Source struct {
	client        ObjectGetter
	defaultBucket string
	maxBytes      int64
	logger        zerolog.Logger
}

// NewS3Source creates an S3 source from the default AWS credential chain
func NewS3Source(ctx context.Context, region, defaultBucket string, logger zerolog.Logger) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	source := NewS3SourceWithClient(s3.NewFromConfig(cfg), defaultBucket, logger)
	source.logger.Info().
		Str("region", region).
		Str("default_bucket", defaultBucket).
		Msg("S3 source initialised")

	return source, nil
}

// NewS3SourceWithClient creates an S3 source around an existing client
func NewS3SourceWithClient(client ObjectGetter, defaultBucket string, logger zerolog.Logger) *S3Source {
	return &S3Source{
		client:        client,
		defaultBucket: defaultBucket,
		maxBytes:      maxDownloadBytes,
		logger:        logger.With().Str("component", "s3-source").Logger(),
	}
}

// Load reads s3://bucket/key, or s3:///key from the default bucket.
// The key extension selects the format.
func (s *S3Source) Load(ctx context.Context, location string, columns domain.Columns) ([]domain.RawRow, error) {
	bucket, key, err := s.parseLocation(location)
	if err != nil {
		return nil, err
	}

	format, err := FormatFromName(key)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("bucket", bucket).Str("key", key).Msg("loading price list from S3")

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("failed to get object from S3")
		return nil, fmt.Errorf("%w: get object (bucket=%s, key=%s): %v", domain.ErrRemoteFetch, bucket, key, err)
	}
	defer result.Body.Close()

	body, err := io.ReadAll(io.LimitReader(result.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading object (bucket=%s, key=%s): %v", domain.ErrRemoteFetch, bucket, key, err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrRemoteFetch, location, s.maxBytes)
	}

	rows, err := Decode(bytes.NewReader(body), format, columns)
	if err != nil {
		return nil, fmt.Errorf("price list %s: %w", location, err)
	}
	return rows, nil
}

func (s *S3Source) parseLocation(location string) (string, string, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: invalid S3 location %q", domain.ErrInvalidRequest, location)
	}

	bucket := u.Host
	if bucket == "" {
		bucket = s.defaultBucket
	}
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: S3 location %q needs a bucket and a key", domain.ErrInvalidRequest, location)
	}
	return bucket, key, nil
}
