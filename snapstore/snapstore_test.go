package snapstore_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vecdex/vecdex"
	"github.com/vecdex/vecdex/snapstore"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "snap-0000000000000000.vdx", snapstore.ObjectName(0))
	assert.Equal(t, "snap-00000000000004d2.vdx", snapstore.ObjectName(1234))
	assert.Equal(t, "snap-ffffffffffffffff.vdx", snapstore.ObjectName(^uint64(0)))
}

func TestParseObjectName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   uint64
		wantOK bool
	}{
		{name: "zero", input: "snap-0000000000000000.vdx", want: 0, wantOK: true},
		{name: "round trip", input: snapstore.ObjectName(7_654_321), want: 7_654_321, wantOK: true},
		{name: "max", input: "snap-ffffffffffffffff.vdx", want: ^uint64(0), wantOK: true},
		{name: "wrong prefix", input: "blob-0000000000000001.vdx", wantOK: false},
		{name: "wrong suffix", input: "snap-0000000000000001.bin", wantOK: false},
		{name: "short hex", input: "snap-01.vdx", wantOK: false},
		{name: "not hex", input: "snap-00000000000000zz.vdx", wantOK: false},
		{name: "pointer file", input: "LATEST", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := snapstore.ParseObjectName(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// archiveConformance exercises the Archive contract shared by every
// implementation.
func archiveConformance(t *testing.T, archive snapstore.Archive) {
	t.Helper()
	ctx := context.Background()

	_, err := archive.Latest(ctx)
	assert.ErrorIs(t, err, snapstore.ErrNotFound)

	heights, err := archive.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, heights)

	_, err = archive.Open(ctx, 10)
	assert.ErrorIs(t, err, snapstore.ErrNotFound)

	// Out-of-order puts; Latest must track the numeric maximum.
	require.NoError(t, archive.Put(ctx, 20, strings.NewReader("snapshot-20")))
	require.NoError(t, archive.Put(ctx, 10, strings.NewReader("snapshot-10")))
	require.NoError(t, archive.Put(ctx, 30, strings.NewReader("snapshot-30")))

	latest, err := archive.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), latest)

	heights, err = archive.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 20, 30}, heights)

	rc, err := archive.Open(ctx, 20)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "snapshot-20", string(data))

	// Overwriting a height is allowed and replaces the content.
	require.NoError(t, archive.Put(ctx, 20, strings.NewReader("snapshot-20b")))
	rc, err = archive.Open(ctx, 20)
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "snapshot-20b", string(data))

	require.NoError(t, archive.Delete(ctx, 20))
	_, err = archive.Open(ctx, 20)
	assert.ErrorIs(t, err, snapstore.ErrNotFound)

	// Deleting a missing height is not an error.
	require.NoError(t, archive.Delete(ctx, 20))

	heights, err = archive.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 30}, heights)
}

func TestMemoryArchive(t *testing.T) {
	archiveConformance(t, snapstore.NewMemory())
}

func TestLocalArchive(t *testing.T) {
	local, err := snapstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	archiveConformance(t, local)
}

func TestLocalLatestNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	local, err := snapstore.NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, local.Put(ctx, 50, strings.NewReader("new")))
	// Republishing an older height must not demote the pointer.
	require.NoError(t, local.Put(ctx, 40, strings.NewReader("old")))

	latest, err := local.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), latest)
}

func TestMemoryArchiveConcurrent(t *testing.T) {
	ctx := context.Background()
	archive := snapstore.NewMemory()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, archive.Put(ctx, uint64(i), bytes.NewReader([]byte{byte(i)})))
		}()
	}
	wg.Wait()

	heights, err := archive.List(ctx)
	require.NoError(t, err)
	assert.Len(t, heights, 16)
}

// buildIndex creates a small populated index for publish/fetch tests.
func buildIndex(t *testing.T) *vecdex.Index {
	t.Helper()

	ix, err := vecdex.New(4)
	require.NoError(t, err)

	err = ix.ApplyBlock(context.Background(), [32]byte{0x01}, []vecdex.TxInsert{
		{TxHash: [32]byte{0x0a}, ID: 1, Vector: []float32{0, 0, 0, 1}},
		{TxHash: [32]byte{0x0b}, ID: 2, Vector: []float32{0, 1, 0, 0}},
		{TxHash: [32]byte{0x0c}, ID: 3, Vector: []float32{1, 0, 0, 0}},
	})
	require.NoError(t, err)
	return ix
}

func TestPublisherInterval(t *testing.T) {
	ctx := context.Background()
	archive := snapstore.NewMemory()
	ix := buildIndex(t)
	defer ix.Close()

	pub := snapstore.NewPublisher(archive, ix, snapstore.WithInterval(100))

	published, err := pub.MaybePublish(ctx, 101)
	require.NoError(t, err)
	assert.False(t, published)

	published, err = pub.MaybePublish(ctx, 200)
	require.NoError(t, err)
	assert.True(t, published)

	heights, err := archive.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{200}, heights)
}

func TestPublishFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := snapstore.NewMemory()
	ix := buildIndex(t)
	defer ix.Close()

	pub := snapstore.NewPublisher(archive, ix,
		snapstore.WithUploadRateLimit(64*1024*1024, 0))
	require.NoError(t, pub.Publish(ctx, 42))

	fetcher := snapstore.NewFetcher(archive)
	height, restored, err := fetcher.FetchLatest(ctx)
	require.NoError(t, err)
	defer restored.Close()

	assert.Equal(t, uint64(42), height)
	assert.Equal(t, ix.Len(), restored.Len())
	assert.Equal(t, ix.RootHash(), restored.RootHash())
}

func TestFetcherMissingHeight(t *testing.T) {
	fetcher := snapstore.NewFetcher(snapstore.NewMemory())
	_, err := fetcher.Fetch(context.Background(), 7)
	assert.ErrorIs(t, err, snapstore.ErrNotFound)
}

func TestFetcherRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	archive := snapstore.NewMemory()
	require.NoError(t, archive.Put(ctx, 5, strings.NewReader("not a snapshot container")))

	fetcher := snapstore.NewFetcher(archive)
	_, err := fetcher.Fetch(ctx, 5)
	assert.Error(t, err)
}
