package vecdex_test

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/vecdex/vecdex"
)

// Example demonstrates the block-execution flow: apply a block of vector
// mints, fold the resulting root into the state root, then query.
func Example() {
	ctx := context.Background()

	ix, err := vecdex.New(4)
	if err != nil {
		log.Fatal(err)
	}
	defer ix.Close()

	// Hashes come from the chain; fixed values keep the example
	// reproducible.
	blockHash := [32]byte{0x01}
	txA := [32]byte{0x0a}
	txB := [32]byte{0x0b}

	err = ix.ApplyBlock(ctx, blockHash, []vecdex.TxInsert{
		{TxHash: txA, ID: 1, Vector: []float32{0, 0, 0, 1}},
		{TxHash: txB, ID: 2, Vector: []float32{0, 1, 0, 0}},
	})
	if err != nil {
		log.Fatal(err)
	}

	results, err := ix.Search(ctx, []float32{0, 0, 0, 0.9}, 1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("vectors:", ix.Len())
	fmt.Println("nearest:", results[0].ID)
	// Output:
	// vectors: 2
	// nearest: 1
}

// Example_snapshot shows bootstrapping a second index from a snapshot
// instead of replaying blocks.
func Example_snapshot() {
	ctx := context.Background()

	ix, err := vecdex.New(4)
	if err != nil {
		log.Fatal(err)
	}
	defer ix.Close()

	err = ix.ApplyBlock(ctx, [32]byte{0x01}, []vecdex.TxInsert{
		{TxHash: [32]byte{0x0a}, ID: 1, Vector: []float32{0.5, 0, -0.5, 1}},
		{TxHash: [32]byte{0x0b}, ID: 2, Vector: []float32{0.25, 1, 0, 0}},
	})
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ix.WriteSnapshot(&buf); err != nil {
		log.Fatal(err)
	}

	restored, err := vecdex.FromSnapshot(&buf)
	if err != nil {
		log.Fatal(err)
	}
	defer restored.Close()

	fmt.Println("roots match:", restored.RootHash() == ix.RootHash())
	// Output: roots match: true
}

// ExampleNew shows the node-local query options. None of them influence
// the root hash.
func ExampleNew() {
	ix, err := vecdex.New(768,
		vecdex.WithQueryCache(1024),
		vecdex.WithQueryRateLimit(500, 50),
		vecdex.WithSearchParallelism(4),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer ix.Close()

	fmt.Println(ix.Dimension())
	// Output: 768
}
