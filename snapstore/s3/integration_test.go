package s3

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vecdex/vecdex/snapstore"
)

// TestIntegration_Archive runs against real S3 and skips unless
// VECDEX_S3_BUCKET is set.
func TestIntegration_Archive(t *testing.T) {
	bucket := os.Getenv("VECDEX_S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: VECDEX_S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	prefix := fmt.Sprintf("test-vecdex-%d/", time.Now().UnixNano())
	archive := NewArchive(awss3.NewFromConfig(cfg), bucket, prefix)

	require.NoError(t, archive.Put(ctx, 10, strings.NewReader("snapshot-10")))
	require.NoError(t, archive.Put(ctx, 20, strings.NewReader("snapshot-20")))
	defer func() {
		_ = archive.Delete(ctx, 10)
		_ = archive.Delete(ctx, 20)
	}()

	heights, err := archive.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 20}, heights)

	latest, err := archive.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), latest)

	_, err = archive.Open(ctx, 999)
	assert.ErrorIs(t, err, snapstore.ErrNotFound)
}
