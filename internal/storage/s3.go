package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"pozt-backend/internal/config"
)

// ObjectPutter is the subset of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// LabelArchive copies rendered AWB labels into an S3-compatible bucket.
type LabelArchive struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

func NewLabelArchive(client ObjectPutter, bucket, prefix string, logger *zap.Logger) *LabelArchive {
	return &LabelArchive{client: client, bucket: bucket, prefix: prefix, logger: logger.Named("storage")}
}

// Open returns nil when label archiving is not configured.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*LabelArchive, error) {
	if !cfg.Enabled() || !cfg.ArchiveLabels {
		return nil, nil
	}
	client, err := config.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewLabelArchive(client, cfg.Bucket, cfg.LabelPrefix, logger), nil
}

// Key returns the object key a label is stored under.
func (a *LabelArchive) Key(name string) string {
	return path.Join(a.prefix, name)
}

func (a *LabelArchive) Put(ctx context.Context, name string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	key := a.Key(name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	a.logger.Debug("label archived", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}
