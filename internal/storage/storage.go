package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/OFFIS-RIT/interactome/internal/config"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
	loaderio "github.com/OFFIS-RIT/interactome/pkg/loader/io"
	loaders3 "github.com/OFFIS-RIT/interactome/pkg/loader/s3"
)

// Where source files of a load are read from.
const (
	SourceFile = "file"
	SourceS3   = "s3"
)

// NewS3Client creates a path-style client, which S3-compatible stores such
// as MinIO require.
func NewS3Client(ctx context.Context, cfg appconfig.S3Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.Region),
		config.WithBaseEndpoint(cfg.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// NewSourceOpener returns the opener for source. An empty source reads
// from the local filesystem.
func NewSourceOpener(ctx context.Context, cfg appconfig.Config, source string) (loader.SourceOpener, error) {
	switch source {
	case "", SourceFile:
		return loaderio.NewFileSourceOpener(cfg.SourceRoot), nil
	case SourceS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("AWS_BUCKET is required for %s sources", SourceS3)
		}
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return loaders3.NewS3SourceOpener(cfg.S3.Bucket, client), nil
	}
	return nil, fmt.Errorf("unknown source %q", source)
}

// ValidSource reports whether source names a supported location.
func ValidSource(source string) bool {
	switch source {
	case "", SourceFile, SourceS3:
		return true
	}
	return false
}
