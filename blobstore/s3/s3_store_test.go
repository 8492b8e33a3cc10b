package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/percolator/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	prefix := fmt.Sprintf("test-percolator-%d/", time.Now().UnixNano())
	store := NewStore(s3.NewFromConfig(cfg), bucket, prefix)

	require.NoError(t, store.Put(ctx, "queries.snap", []byte("payload")))

	data, err := store.Get(ctx, "queries.snap")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "queries.snap")

	require.NoError(t, store.Delete(ctx, "queries.snap"))
	_, err = store.Get(ctx, "queries.snap")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
