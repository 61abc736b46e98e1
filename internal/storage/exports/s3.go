// Package exports archives carrier CSV exports to S3.
package exports

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// PutObjectAPI is the slice of the S3 client the archiver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger zerolog.Logger
}

type Config struct {
	Bucket string
	Prefix string
	Region string
}

// NewS3Archiver loads the default AWS credential chain for cfg.Region.
func NewS3Archiver(ctx context.Context, cfg Config, logger zerolog.Logger) (*S3Archiver, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("exports bucket not configured")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg, logger), nil
}

func NewWithClient(client PutObjectAPI, cfg Config, logger zerolog.Logger) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With().Str("component", "exports").Logger(),
	}
}

// Key builds the object key. The ULID keeps same-day exports apart and
// sorts them by creation time.
func (a *S3Archiver) Key(name string) string {
	return path.Join(a.prefix, ulid.Make().String()+"_"+path.Base(name))
}

// Archive uploads body as text/csv and returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, name string, body []byte) (string, error) {
	key := a.Key(name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	a.logger.Info().Str("bucket", a.bucket).Str("key", key).Int("bytes", len(body)).Msg("export archived")
	return key, nil
}
