package vecdex

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vecdex/vecdex/detrand"
	"github.com/vecdex/vecdex/fixpoint"
	"github.com/vecdex/vecdex/hnsw"
	"github.com/vecdex/vecdex/internal/hash"
	"github.com/vecdex/vecdex/snapshot"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// TxInsert is one vector insert drawn from a block's transaction list.
type TxInsert struct {
	TxHash [32]byte
	ID     uint64
	Vector []float32
}

// Index is the deterministic vector index owned by a chain's state database.
//
// The graph itself is the consensus state: it is mutated only by the
// execution layer (Insert, ApplyBlock, ReadSnapshot, one writer at a time)
// and read concurrently by the query side (Search, SearchBatch, RootHash).
// The query cache and rate limiter are node-local and never observable in
// the root hash.
type Index struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph
	version uint64 // bumped on every graph mutation; keys the query cache
	closed  bool

	logger  *Logger
	metrics MetricsCollector

	cache       *lru.Cache[[32]byte, []hnsw.Result]
	limiter     *rate.Limiter
	parallelism int
	snapCodec   snapshot.Codec
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)

	g, err := hnsw.New(func(o *hnsw.Options) {
		o.Dimension = dimension
		if opts.initialCapacity > 0 {
			o.InitialCapacity = opts.initialCapacity
		}
	})
	if err != nil {
		return nil, translateError(err)
	}

	return newIndex(g, opts)
}

// FromSnapshot restores an index from a snapshot container previously
// produced by WriteSnapshot. The restored graph replays subsequent blocks
// to the same root hash as the graph that wrote the snapshot.
func FromSnapshot(r io.Reader, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)

	start := time.Now()
	g, err := hnsw.ReadSnapshot(r)
	opts.metricsCollector.RecordSnapshotLoad(time.Since(start), err)
	if err != nil {
		opts.logger.LogSnapshotLoad(context.Background(), 0, err)
		return nil, err
	}
	opts.logger.LogSnapshotLoad(context.Background(), g.Len(), nil)

	return newIndex(g, opts)
}

func newIndex(g *hnsw.Graph, opts options) (*Index, error) {
	ix := &Index{
		graph:       g,
		logger:      opts.logger,
		metrics:     opts.metricsCollector,
		parallelism: opts.searchParallelism,
		snapCodec:   opts.snapshotCodec,
	}

	if opts.queryCacheSize > 0 {
		cache, err := lru.New[[32]byte, []hnsw.Result](opts.queryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("vecdex: query cache: %w", err)
		}
		ix.cache = cache
	}

	if opts.queryRate > 0 {
		burst := opts.queryBurst
		if burst <= 0 {
			burst = 1
		}
		ix.limiter = rate.NewLimiter(opts.queryRate, burst)
	}

	return ix, nil
}

// Insert applies a single vector-mint transaction. The float32 components
// are converted to fixed point at this boundary; the level draw comes from
// the deterministic RNG seeded by (txHash, blockHash).
//
// The context is consulted once at entry. The insert itself has no
// suspension points: once it starts mutating the graph it runs to
// completion, so a cancelled context can never leave a half-linked node.
func (ix *Index) Insert(ctx context.Context, id uint64, vector []float32, txHash, blockHash [32]byte) error {
	start := time.Now()
	err := ix.insert(ctx, id, vector, txHash, blockHash)
	ix.metrics.RecordInsert(time.Since(start), err)
	ix.logger.LogInsert(ctx, id, len(vector), err)
	return err
}

func (ix *Index) insert(ctx context.Context, id uint64, vector []float32, txHash, blockHash [32]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fixed, err := fixpoint.FromFloat32Slice(vector)
	if err != nil {
		return err
	}
	rng := detrand.New(txHash, blockHash)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return ErrClosed
	}
	// graph.Insert can mutate the graph before failing, so the version
	// advances on every attempt that reached it, not only on success.
	err = ix.graph.Insert(id, fixed, rng)
	ix.version++
	if err != nil {
		return translateError(err)
	}
	return nil
}

// ApplyBlock applies one block's vector-mint transactions in canonical
// order under a single writer lock. The first failing transaction stops the
// batch and its error is returned tagged with the transaction position.
//
// Failure is fatal for the block: transactions before the failing one
// remain applied, so the caller must discard this state (typically by
// restoring the previous snapshot) before attempting another block. Every
// validator replaying the same block fails at the same transaction, so the
// rejection itself is deterministic.
func (ix *Index) ApplyBlock(ctx context.Context, blockHash [32]byte, txs []TxInsert) error {
	start := time.Now()
	err := ix.applyBlock(ctx, blockHash, txs)
	ix.metrics.RecordBlockApply(len(txs), time.Since(start), err)
	ix.logger.LogBlockApply(ctx, blockHash, len(txs), err)
	return err
}

func (ix *Index) applyBlock(ctx context.Context, blockHash [32]byte, txs []TxInsert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return ErrClosed
	}
	for i, tx := range txs {
		fixed, err := fixpoint.FromFloat32Slice(tx.Vector)
		if err != nil {
			return fmt.Errorf("vecdex: tx %d (id %d): %w", i, tx.ID, err)
		}
		err = ix.graph.Insert(tx.ID, fixed, detrand.New(tx.TxHash, blockHash))
		ix.version++
		if err != nil {
			return fmt.Errorf("vecdex: tx %d (id %d): %w", i, tx.ID, translateError(err))
		}
	}
	return nil
}

// Search returns the k nearest neighbors of query, nearest first. Ties
// break by ascending id, so the result order is deterministic.
//
// Search never mutates consensus state and may run concurrently with other
// searches. If a rate limit is configured the call blocks until admitted or
// the context is done.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]hnsw.Result, error) {
	start := time.Now()
	results, err := ix.search(ctx, query, k)
	ix.metrics.RecordSearch(k, time.Since(start), err)
	ix.logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

func (ix *Index) search(ctx context.Context, query []float32, k int) ([]hnsw.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if ix.limiter != nil {
		if err := ix.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, ErrClosed
	}
	return ix.searchLocked(query, k)
}

// SearchBatch answers all queries against a single consistent view of the
// graph: the read lock is held across the whole batch, so every result
// reflects the same state version. Queries run concurrently, bounded by
// WithSearchParallelism.
func (ix *Index) SearchBatch(ctx context.Context, queries [][]float32, k int) ([][]hnsw.Result, error) {
	start := time.Now()
	results, err := ix.searchBatch(ctx, queries, k)
	ix.metrics.RecordSearchBatch(len(queries), time.Since(start), err)
	ix.logger.LogSearchBatch(ctx, len(queries), k, err)
	return results, err
}

func (ix *Index) searchBatch(ctx context.Context, queries [][]float32, k int) ([][]hnsw.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if ix.limiter != nil {
		// One token per query, so a batch cannot sidestep the budget.
		for range queries {
			if err := ix.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, ErrClosed
	}

	out := make([][]hnsw.Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.parallelism)
	for i, query := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, err := ix.searchLocked(query, k)
			if err != nil {
				return fmt.Errorf("vecdex: query %d: %w", i, err)
			}
			out[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// searchLocked runs one query. Callers hold mu for reading.
func (ix *Index) searchLocked(query []float32, k int) ([]hnsw.Result, error) {
	fixed, err := fixpoint.FromFloat32Slice(query)
	if err != nil {
		return nil, err
	}

	var key [32]byte
	if ix.cache != nil {
		key = ix.queryKey(fixed, k)
		if hit, ok := ix.cache.Get(key); ok {
			return slices.Clone(hit), nil
		}
	}

	results, err := ix.graph.Search(fixed, k)
	if err != nil {
		return nil, translateError(err)
	}

	if ix.cache != nil {
		ix.cache.Add(key, slices.Clone(results))
	}
	return results, nil
}

// queryKey derives the cache key for a query. The state version is part of
// the key, so entries written before a graph mutation can never be served
// after it; they simply age out of the LRU.
func (ix *Index) queryKey(query fixpoint.Vector, k int) [32]byte {
	h := hash.NewKeccak256()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], ix.version)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(k))
	h.Write(buf[:])
	for _, c := range query {
		binary.BigEndian.PutUint64(buf[:], uint64(c))
		h.Write(buf[:])
	}
	var key [32]byte
	h.Sum(key[:0])
	return key
}

// RootHash returns the canonical digest of the graph. It is meaningful only
// between blocks, after a block's full batch of inserts has been applied.
func (ix *Index) RootHash() [32]byte {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.graph.RootHash()
}

// StateRoot folds the vector root into the chain state root:
// keccak256(accountRoot || vectorRoot).
func (ix *Index) StateRoot(accountRoot [32]byte) [32]byte {
	vectorRoot := ix.RootHash()
	return hash.Keccak256(accountRoot[:], vectorRoot[:])
}

// WriteSnapshot serializes the graph to w using the configured codec.
// The read lock is held for the duration, so the snapshot is a consistent
// between-blocks view.
func (ix *Index) WriteSnapshot(w io.Writer) error {
	start := time.Now()
	nodes, err := ix.writeSnapshot(w)
	ix.metrics.RecordSnapshotWrite(time.Since(start), err)
	ix.logger.LogSnapshotWrite(context.Background(), nodes, err)
	return err
}

func (ix *Index) writeSnapshot(w io.Writer) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return 0, ErrClosed
	}
	return ix.graph.Len(), ix.graph.WriteSnapshot(w, ix.snapCodec)
}

// ReadSnapshot replaces the index contents with the snapshot read from r.
// The dimension must match the one the index was created with; restoring
// cannot silently change what the chain's transactions mean.
func (ix *Index) ReadSnapshot(r io.Reader) error {
	start := time.Now()
	nodes, err := ix.readSnapshot(r)
	ix.metrics.RecordSnapshotLoad(time.Since(start), err)
	ix.logger.LogSnapshotLoad(context.Background(), nodes, err)
	return err
}

func (ix *Index) readSnapshot(r io.Reader) (int, error) {
	g, err := hnsw.ReadSnapshot(r)
	if err != nil {
		return 0, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return 0, ErrClosed
	}
	if g.Dimension() != ix.graph.Dimension() {
		return 0, &ErrDimensionMismatch{Expected: ix.graph.Dimension(), Actual: g.Dimension()}
	}
	ix.graph = g
	ix.version++
	return g.Len(), nil
}

// Len returns the number of vectors in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.graph.Len()
}

// Dimension returns the vector dimension the index enforces.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.graph.Dimension()
}

// Contains reports whether id is present.
func (ix *Index) Contains(id uint64) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.graph.Contains(id)
}

// VectorByID returns the stored vector converted back to float32. The
// conversion is exact for every vector that entered through the float32
// insert boundary.
func (ix *Index) VectorByID(id uint64) ([]float32, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	vec, err := ix.graph.VectorByID(id)
	if err != nil {
		return nil, translateError(err)
	}
	return vec.Float32Slice(), nil
}

// Stats returns diagnostic counters for the graph. Nothing here feeds the
// root hash.
func (ix *Index) Stats() hnsw.Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.graph.Stats()
}
