package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"shipment-orchestrator/internal/config"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "labels", AccessKey: "k"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials are required")
	})

	t.Run("endpoint without scheme", func(t *testing.T) {
		s, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket:    "labels",
			AccessKey: "k",
			SecretKey: "s",
			Endpoint:  "localhost:9000",
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, "labels", s.Bucket())
	})
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "labels", AccessKey: "k", SecretKey: "s"}, nil)
	require.NoError(t, err)

	err = s.Upload(context.Background(), "", strings.NewReader("x"), 1, "application/pdf")
	assert.Error(t, err)

	err = s.Delete(context.Background(), "")
	assert.Error(t, err)
}
