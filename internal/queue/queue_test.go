package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecdex/vecdex/fixpoint"
)

func item(id uint64, d int64) Item {
	return Item{ID: id, Distance: fixpoint.Distance(d)}
}

func TestMinHeapOrder(t *testing.T) {
	pq := NewMin(8)
	for _, it := range []Item{item(5, 30), item(2, 10), item(9, 20), item(1, 20), item(7, 10)} {
		pq.PushItem(it)
	}

	// Ascending distance, equal distances by ascending id.
	expected := []uint64{2, 7, 1, 9, 5}
	for _, want := range expected {
		got, ok := pq.PopItem()
		require.True(t, ok)
		assert.Equal(t, want, got.ID)
	}
	_, ok := pq.PopItem()
	assert.False(t, ok)
}

func TestMaxHeapOrder(t *testing.T) {
	pq := NewMax(8)
	for _, it := range []Item{item(5, 30), item(2, 10), item(9, 20), item(1, 20), item(7, 10)} {
		pq.PushItem(it)
	}

	// Worst first: descending distance, equal distances by descending id,
	// so eviction always discards the larger id of a tie.
	expected := []uint64{5, 9, 1, 7, 2}
	for _, want := range expected {
		got, ok := pq.PopItem()
		require.True(t, ok)
		assert.Equal(t, want, got.ID)
	}
}

func TestMinItemOnMaxHeap(t *testing.T) {
	pq := NewMax(4)
	pq.PushItem(item(4, 20))
	pq.PushItem(item(8, 5))
	pq.PushItem(item(3, 5))

	best, ok := pq.MinItem()
	require.True(t, ok)
	assert.Equal(t, uint64(3), best.ID)
	assert.Equal(t, 3, pq.Len())
}

func TestTopItem(t *testing.T) {
	pq := NewMin(2)
	_, ok := pq.TopItem()
	assert.False(t, ok)

	pq.PushItem(item(1, 7))
	top, ok := pq.TopItem()
	require.True(t, ok)
	assert.Equal(t, uint64(1), top.ID)
	assert.Equal(t, 1, pq.Len())
}

func TestReset(t *testing.T) {
	pq := NewMin(2)
	pq.PushItem(item(1, 1))
	pq.PushItem(item(2, 2))
	pq.Reset()

	assert.Equal(t, 0, pq.Len())
	_, ok := pq.PopItem()
	assert.False(t, ok)
}

func TestBefore(t *testing.T) {
	assert.True(t, item(1, 10).Before(item(2, 20)))
	assert.True(t, item(1, 10).Before(item(2, 10)))
	assert.False(t, item(2, 10).Before(item(1, 10)))
	assert.False(t, item(1, 10).Before(item(1, 10)))
}
