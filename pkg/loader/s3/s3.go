package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/OFFIS-RIT/interactome/internal/util"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
)

const (
	openAttempts = 3
	openDelay    = 500 * time.Millisecond
)

// ObjectGetter is the subset of the S3 client used to stream source objects.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3SourceOpener streams source files from an S3 bucket. Object keys are
// the paths given to Open.
type S3SourceOpener struct {
	bucket string
	client ObjectGetter
}

// NewS3SourceOpener creates an opener reading from bucket through client.
func NewS3SourceOpener(bucket string, client ObjectGetter) *S3SourceOpener {
	return &S3SourceOpener{
		bucket: bucket,
		client: client,
	}
}

// Open starts streaming the object stored under key. Failed requests are
// retried a few times since nothing has been written yet.
func (o *S3SourceOpener) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := util.RetryWithContext(ctx, openAttempts, openDelay, func(ctx context.Context) (*s3.GetObjectOutput, error) {
		out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(o.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			logger.Warn("[Loader] Failed to open S3 object", "bucket", o.bucket, "key", key, "err", err)
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from S3: %w", key, err)
	}
	return out.Body, nil
}
