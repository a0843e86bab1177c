package hnsw

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecdex/vecdex/snapshot"
)

func TestSnapshotRoundTrip(t *testing.T) {
	for _, codec := range []snapshot.Codec{snapshot.CodecNone, snapshot.CodecLZ4, snapshot.CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			g := tenNodeGraph(t)

			var buf bytes.Buffer
			require.NoError(t, g.WriteSnapshot(&buf, codec))

			loaded, err := ReadSnapshot(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)

			assert.Equal(t, g.Len(), loaded.Len())
			assert.Equal(t, g.Dimension(), loaded.Dimension())
			assert.Equal(t, g.MaxLayer(), loaded.MaxLayer())
			assert.Equal(t, g.RootHash(), loaded.RootHash())
			checkBidirectional(t, loaded)
		})
	}
}

func TestSnapshotRoundTripEmpty(t *testing.T) {
	g, err := New(func(o *Options) { o.Dimension = 2 })
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.WriteSnapshot(&buf, snapshot.CodecZstd))

	loaded, err := ReadSnapshot(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
	assert.Equal(t, -1, loaded.MaxLayer())
	assert.Equal(t, g.RootHash(), loaded.RootHash())

	_, err = loaded.Search(mustVec(t, []float32{0, 0}), 1)
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

// A graph restored mid-history must replay the remaining inserts to the
// same committed state as one built straight through.
func TestSnapshotReplayEquivalence(t *testing.T) {
	g, err := New(func(o *Options) { o.Dimension = 4 })
	require.NoError(t, err)
	for id := uint64(1); id <= 30; id++ {
		require.NoError(t, g.Insert(id, multiVec(t, id), rngFor(id)))
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteSnapshot(&buf, snapshot.CodecLZ4))
	loaded, err := ReadSnapshot(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	for _, id := range []uint64{40, 60, 226} {
		require.NoError(t, g.Insert(id, multiVec(t, id), rngFor(id)))
		require.NoError(t, loaded.Insert(id, multiVec(t, id), rngFor(id)))
	}

	gRoot, loadedRoot := g.RootHash(), loaded.RootHash()
	assert.Equal(t, gRoot, loadedRoot)
	assert.Equal(t,
		"9e361a2418f98049a15e235b4e088b78a884dfd134aa572ab718906a4fb0b592",
		hex.EncodeToString(gRoot[:]))

	ep, ok := loaded.EntryPoint()
	require.True(t, ok)
	assert.Equal(t, uint64(226), ep)
}

func TestReadSnapshotRejectsParamsMismatch(t *testing.T) {
	pw := snapshot.NewPayloadWriter(64)
	pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{{}})

	meta := snapshot.Meta{
		Params: snapshot.Params{
			Dimension:      2,
			M:              8, // graphs with other bounds are a different fork
			M0:             32,
			EFConstruction: EFConstruction,
		},
		NodeCount:    1,
		MaxLayer:     0,
		EntryPointID: 1,
		HasEntry:     true,
	}

	var buf bytes.Buffer
	require.NoError(t, snapshot.Write(&buf, meta, pw.Bytes()))

	_, err := ReadSnapshot(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, snapshot.ErrParamsMismatch)
}

func writeCraftedSnapshot(t *testing.T, meta snapshot.Meta, build func(*snapshot.PayloadWriter)) []byte {
	t.Helper()
	pw := snapshot.NewPayloadWriter(256)
	build(pw)
	var buf bytes.Buffer
	require.NoError(t, snapshot.Write(&buf, meta, pw.Bytes()))
	return buf.Bytes()
}

func TestReadSnapshotRejectsCorruptStructure(t *testing.T) {
	baseMeta := func(nodes uint64) snapshot.Meta {
		return snapshot.Meta{
			Params: snapshot.Params{
				Dimension:      2,
				M:              M,
				M0:             M0,
				EFConstruction: EFConstruction,
			},
			NodeCount:    nodes,
			MaxLayer:     0,
			EntryPointID: 1,
			HasEntry:     true,
		}
	}

	tests := []struct {
		name  string
		meta  snapshot.Meta
		build func(*snapshot.PayloadWriter)
	}{
		{
			name: "edge to unknown node",
			meta: baseMeta(1),
			build: func(pw *snapshot.PayloadWriter) {
				pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{{99}})
			},
		},
		{
			name: "self edge",
			meta: baseMeta(1),
			build: func(pw *snapshot.PayloadWriter) {
				pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{{1}})
			},
		},
		{
			name: "duplicate node id",
			meta: baseMeta(2),
			build: func(pw *snapshot.PayloadWriter) {
				pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{{}})
				pw.AppendNode(1, 0, []int64{1, 1}, [][]uint64{{}})
			},
		},
		{
			name: "duplicate edge",
			meta: baseMeta(2),
			build: func(pw *snapshot.PayloadWriter) {
				pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{{2, 2}})
				pw.AppendNode(2, 0, []int64{1, 1}, [][]uint64{{1}})
			},
		},
		{
			name: "entry point missing",
			meta: func() snapshot.Meta {
				m := baseMeta(1)
				m.EntryPointID = 5
				return m
			}(),
			build: func(pw *snapshot.PayloadWriter) {
				pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{{}})
			},
		},
		{
			name: "max layer disagrees with nodes",
			meta: func() snapshot.Meta {
				m := baseMeta(1)
				m.MaxLayer = 1
				return m
			}(),
			build: func(pw *snapshot.PayloadWriter) {
				pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{{}})
			},
		},
		{
			name: "trailing payload bytes",
			meta: baseMeta(1),
			build: func(pw *snapshot.PayloadWriter) {
				pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{{}})
				pw.AppendNode(2, 0, []int64{1, 1}, [][]uint64{{}})
			},
		},
		{
			name: "level above cap",
			meta: func() snapshot.Meta {
				m := baseMeta(1)
				m.MaxLayer = 17
				return m
			}(),
			build: func(pw *snapshot.PayloadWriter) {
				pw.AppendNode(1, 17, []int64{0, 0}, make([][]uint64, 18))
			},
		},
		{
			name: "neighbor list over bound",
			meta: baseMeta(34),
			build: func(pw *snapshot.PayloadWriter) {
				over := make([]uint64, M0+1)
				for i := range over {
					over[i] = uint64(i + 2)
				}
				pw.AppendNode(1, 0, []int64{0, 0}, [][]uint64{over})
				for i := uint64(2); i <= 34; i++ {
					pw.AppendNode(i, 0, []int64{int64(i), 0}, [][]uint64{{1}})
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := writeCraftedSnapshot(t, tt.meta, tt.build)
			_, err := ReadSnapshot(bytes.NewReader(data))
			var corrupt *snapshot.CorruptError
			assert.ErrorAs(t, err, &corrupt, "got: %v", err)
		})
	}
}

func TestReadSnapshotPropagatesContainerErrors(t *testing.T) {
	g := tenNodeGraph(t)
	var buf bytes.Buffer
	require.NoError(t, g.WriteSnapshot(&buf, snapshot.CodecNone))
	data := buf.Bytes()

	_, err := ReadSnapshot(bytes.NewReader(data[:40]))
	assert.ErrorIs(t, err, snapshot.ErrTruncated)

	bad := bytes.Clone(data)
	bad[70] ^= 0xFF
	_, err = ReadSnapshot(bytes.NewReader(bad))
	var cerr *snapshot.ChecksumError
	assert.ErrorAs(t, err, &cerr)
}
