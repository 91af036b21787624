package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pozt-backend/internal/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestLabelArchivePut(t *testing.T) {
	putter := &fakePutter{}
	archive := NewLabelArchive(putter, "labels-bucket", "labels/", zap.NewNop())

	err := archive.Put(context.Background(), "POZT123.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "labels-bucket", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "labels/POZT123.pdf", aws.ToString(putter.input.Key))
	assert.Equal(t, "application/pdf", aws.ToString(putter.input.ContentType))
	assert.Equal(t, []byte("%PDF"), putter.body)
}

func TestLabelArchivePutError(t *testing.T) {
	putter := &fakePutter{err: errors.New("denied")}
	archive := NewLabelArchive(putter, "b", "", zap.NewNop())

	err := archive.Put(context.Background(), "x.pdf", nil, "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://b/x.pdf")
}

func TestOpenDisabled(t *testing.T) {
	a, err := Open(context.Background(), config.StorageConfig{Bucket: "b"}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = Open(context.Background(), config.StorageConfig{ArchiveLabels: true}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, a)
}
