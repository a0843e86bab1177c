// Package hnsw implements a deterministic Hierarchical Navigable Small
// World graph for approximate nearest neighbor search under consensus.
//
// Every validator that replays the same insert sequence gets a
// byte-identical graph: distances are fixed-point (see fixpoint), level
// assignment draws from a keccak counter stream (see detrand), and every
// ordering decision breaks ties by ascending node id. RootHash commits
// to the full graph state.
//
// The graph itself is not synchronized. Callers serialize writers and
// may run any number of concurrent readers between writes; the vecdex
// package wraps this in the usual single-writer lock discipline.
package hnsw

import (
	"math"
	"math/bits"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/vecdex/vecdex/detrand"
	"github.com/vecdex/vecdex/fixpoint"
	"github.com/vecdex/vecdex/internal/queue"
	"github.com/vecdex/vecdex/internal/visited"
)

// Consensus parameters. Every one of them shapes the graph and therefore
// the root hash: changing any value is a hard fork.
const (
	// M is the maximum number of neighbors per node on layers above 0.
	M = 16

	// M0 is the maximum number of neighbors per node on layer 0.
	M0 = 32

	// EFConstruction is the candidate list width during construction,
	// and the floor for the search-time candidate width.
	EFConstruction = 200

	// DefaultDimension matches common embedding widths.
	DefaultDimension = 768

	// maxLevelCap is the level assigned to a zero draw. The smallest
	// positive draw maps to 16 as well, so the cap only closes the
	// log(0) hole without bending the distribution.
	maxLevelCap = 16
)

// Options represents the options for configuring a Graph.
type Options struct {
	// Dimension is the vector dimension enforced on every operation.
	Dimension int

	// InitialCapacity pre-sizes the node arena.
	InitialCapacity int
}

// DefaultOptions holds the defaults for New.
var DefaultOptions = Options{
	Dimension: DefaultDimension,
}

// Result is a single search hit.
type Result struct {
	ID       uint64
	Distance fixpoint.Distance
}

type node struct {
	id        uint64
	level     int32
	vector    fixpoint.Vector
	neighbors [][]uint64 // per layer 0..level, ids in selection order
}

// Graph is the deterministic HNSW graph.
type Graph struct {
	dimension int

	nodes []node            // dense arena in insertion order
	byID  map[uint64]uint32 // id -> arena position
	ids   *roaring64.Bitmap // live ids, for ascending iteration

	entryPoint uint32
	hasEntry   bool
	maxLayer   int

	minQueuePool *sync.Pool
	maxQueuePool *sync.Pool
	visitedPool  *sync.Pool
}

// New creates an empty graph.
func New(optFns ...func(o *Options)) (*Graph, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, &ErrInvalidParameter{Name: "Dimension", Reason: "must be positive"}
	}
	if opts.InitialCapacity < 0 {
		return nil, &ErrInvalidParameter{Name: "InitialCapacity", Reason: "must not be negative"}
	}

	return &Graph{
		dimension: opts.Dimension,
		nodes:     make([]node, 0, opts.InitialCapacity),
		byID:      make(map[uint64]uint32, opts.InitialCapacity),
		ids:       roaring64.New(),
		minQueuePool: &sync.Pool{
			New: func() any { return queue.NewMin(EFConstruction) },
		},
		maxQueuePool: &sync.Pool{
			New: func() any { return queue.NewMax(EFConstruction + 1) },
		},
		visitedPool: &sync.Pool{
			New: func() any { return visited.New(1024) },
		},
	}, nil
}

// levelFor maps a raw 64-bit draw to an insertion level.
//
// The reference formula is floor(-ln(u/2^64) / ln(M)). With M = 16 that
// equals max{l : u <= 2^(64-4l)}, which is (64 - ceillog2(u)) / 4 in
// integer arithmetic, so no libm call ever touches the consensus path.
// u = 1 lands on 16 through the same expression; u = 0 (where the
// logarithm diverges) is pinned to the cap.
func levelFor(u uint64) int {
	if u == 0 {
		return maxLevelCap
	}
	return (64 - bits.Len64(u-1)) / 4
}

// maxNeighbors returns the neighbor bound for a layer.
func maxNeighbors(layer int) int {
	if layer == 0 {
		return M0
	}
	return M
}

// Insert adds a vector under a caller-assigned id, drawing the node
// level from rng. Blocks must insert in canonical transaction order;
// replaying the same (id, vector, rng) sequence reproduces the graph
// bit for bit.
//
// On error the graph may hold a partially linked node and must be
// discarded: insertion failures are fatal for the block being applied.
func (g *Graph) Insert(id uint64, vec fixpoint.Vector, rng *detrand.Source) error {
	if len(vec) != g.dimension {
		return &ErrDimensionMismatch{Expected: g.dimension, Actual: len(vec)}
	}
	if _, ok := g.byID[id]; ok {
		return &ErrDuplicateID{ID: id}
	}
	if uint64(len(g.nodes)) >= math.MaxUint32 {
		return ErrFull
	}

	level := levelFor(rng.Uint64())

	pos := uint32(len(g.nodes))
	n := node{
		id:        id,
		level:     int32(level),
		vector:    vec.Clone(),
		neighbors: make([][]uint64, level+1),
	}

	if !g.hasEntry {
		g.nodes = append(g.nodes, n)
		g.byID[id] = pos
		g.ids.Add(id)
		g.entryPoint = pos
		g.maxLayer = level
		g.hasEntry = true
		return nil
	}

	currPos := g.entryPoint
	currDist := fixpoint.SquaredDistance(vec, g.nodes[currPos].vector)

	// 1. Greedy descent through the layers above the node's level.
	var err error
	for layer := g.maxLayer; layer > level; layer-- {
		currPos, currDist, err = g.descend(vec, currPos, currDist, layer)
		if err != nil {
			return err
		}
	}

	// The node joins the arena before linking. It has no inbound edges
	// yet, so the layer searches below cannot reach it.
	g.nodes = append(g.nodes, n)
	g.byID[id] = pos
	g.ids.Add(id)

	// 2. Search and link from min(level, maxLayer) down to 0.
	for layer := min(level, g.maxLayer); layer >= 0; layer-- {
		results, err := g.searchLayer(vec, currPos, currDist, layer, EFConstruction)
		if err != nil {
			return err
		}

		// Carry the best point found into the next layer down.
		if best, ok := results.MinItem(); ok {
			currPos, currDist = best.Pos, best.Distance
		}

		neighbors := selectNeighbors(results, maxNeighbors(layer))
		results.Reset()
		g.maxQueuePool.Put(results)

		layerList := make([]uint64, len(neighbors))
		for i, it := range neighbors {
			layerList[i] = it.ID
		}
		g.nodes[pos].neighbors[layer] = layerList

		for _, it := range neighbors {
			if err := g.addEdge(it.Pos, pos, layer); err != nil {
				return err
			}
		}
	}

	if level > g.maxLayer {
		g.maxLayer = level
		g.entryPoint = pos
	}

	return nil
}

// Search returns the k nearest neighbors of query, ordered by ascending
// distance with ties by ascending id.
func (g *Graph) Search(query fixpoint.Vector, k int) ([]Result, error) {
	if len(query) != g.dimension {
		return nil, &ErrDimensionMismatch{Expected: g.dimension, Actual: len(query)}
	}
	if k < 1 {
		return nil, &ErrInvalidParameter{Name: "k", Reason: "must be positive"}
	}
	if !g.hasEntry {
		return nil, ErrEmptyGraph
	}

	currPos := g.entryPoint
	currDist := fixpoint.SquaredDistance(query, g.nodes[currPos].vector)

	var err error
	for layer := g.maxLayer; layer > 0; layer-- {
		currPos, currDist, err = g.descend(query, currPos, currDist, layer)
		if err != nil {
			return nil, err
		}
	}

	ef := EFConstruction
	if k > ef {
		ef = k
	}

	results, err := g.searchLayer(query, currPos, currDist, 0, ef)
	if err != nil {
		return nil, err
	}
	defer func() {
		results.Reset()
		g.maxQueuePool.Put(results)
	}()

	for results.Len() > k {
		_, _ = results.PopItem()
	}

	out := make([]Result, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		item, _ := results.PopItem()
		out[i] = Result{ID: item.ID, Distance: item.Distance}
	}

	return out, nil
}

// descend performs one layer of greedy routing: move to the best
// neighbor under the (distance, id) order for as long as it improves on
// the current position. Strict descent in a total order, so it
// terminates without a visited set.
func (g *Graph) descend(query fixpoint.Vector, pos uint32, dist fixpoint.Distance, layer int) (uint32, fixpoint.Distance, error) {
	for {
		curr := queue.Item{ID: g.nodes[pos].id, Pos: pos, Distance: dist}
		best := curr

		for _, nid := range g.nodes[pos].neighbors[layer] {
			npos, ok := g.byID[nid]
			if !ok {
				return 0, 0, &ErrInvalidNodeID{ID: nid}
			}
			cand := queue.Item{
				ID:       nid,
				Pos:      npos,
				Distance: fixpoint.SquaredDistance(query, g.nodes[npos].vector),
			}
			if cand.Before(best) {
				best = cand
			}
		}

		if !best.Before(curr) {
			return pos, dist, nil
		}
		pos, dist = best.Pos, best.Distance
	}
}

// searchLayer runs the best-first search on one layer. The returned
// max-heap holds up to ef results; the caller owns it and must Reset and
// return it to maxQueuePool.
func (g *Graph) searchLayer(query fixpoint.Vector, epPos uint32, epDist fixpoint.Distance, layer, ef int) (*queue.PriorityQueue, error) {
	vis := g.visitedPool.Get().(*visited.Set)
	vis.Reset()
	defer g.visitedPool.Put(vis)

	candidates := g.minQueuePool.Get().(*queue.PriorityQueue)
	candidates.Reset()
	defer func() {
		candidates.Reset()
		g.minQueuePool.Put(candidates)
	}()

	results := g.maxQueuePool.Get().(*queue.PriorityQueue)
	results.Reset()

	vis.EnsureCapacity(len(g.nodes))
	vis.Visit(epPos)

	ep := queue.Item{ID: g.nodes[epPos].id, Pos: epPos, Distance: epDist}
	candidates.PushItem(ep)
	results.PushItem(ep)

	for candidates.Len() > 0 {
		curr, _ := candidates.PopItem()

		// The best unexpanded candidate sits after the worst kept
		// result in the total order: nothing reachable can improve
		// the result set.
		if results.Len() >= ef {
			worst, _ := results.TopItem()
			if worst.Before(curr) {
				break
			}
		}

		for _, nid := range g.nodes[curr.Pos].neighbors[layer] {
			npos, ok := g.byID[nid]
			if !ok {
				results.Reset()
				g.maxQueuePool.Put(results)
				return nil, &ErrInvalidNodeID{ID: nid}
			}
			if vis.Visited(npos) {
				continue
			}
			vis.Visit(npos)

			next := queue.Item{
				ID:       nid,
				Pos:      npos,
				Distance: fixpoint.SquaredDistance(query, g.nodes[npos].vector),
			}

			// Skip candidates that cannot enter a full result set.
			if results.Len() >= ef {
				worst, _ := results.TopItem()
				if worst.Before(next) {
					continue
				}
			}

			candidates.PushItem(next)
			results.PushItem(next)
			if results.Len() > ef {
				_, _ = results.PopItem()
			}
		}
	}

	return results, nil
}

// selectNeighbors keeps the m best items of a max-heap and drains them
// in ascending order. Plain top-m selection: the diversity heuristic
// stays out of consensus.
func selectNeighbors(results *queue.PriorityQueue, m int) []queue.Item {
	for results.Len() > m {
		_, _ = results.PopItem()
	}

	out := make([]queue.Item, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		out[i], _ = results.PopItem()
	}
	return out
}

// addEdge links the node at tgtPos into the layer list of the node at
// srcPos. When the list overflows its bound, it is pruned back to the
// bound best by (distance to source, id), and every pruned-out node
// loses its edge back to source in the same step: edges stay
// bidirectional after every insert.
func (g *Graph) addEdge(srcPos, tgtPos uint32, layer int) error {
	src := &g.nodes[srcPos]
	tgtID := g.nodes[tgtPos].id

	conns := src.neighbors[layer]
	for _, c := range conns {
		if c == tgtID {
			return nil
		}
	}

	bound := maxNeighbors(layer)
	if len(conns) < bound {
		src.neighbors[layer] = append(conns, tgtID)
		return nil
	}

	all := make([]queue.Item, 0, len(conns)+1)
	cands := g.maxQueuePool.Get().(*queue.PriorityQueue)
	cands.Reset()
	defer func() {
		cands.Reset()
		g.maxQueuePool.Put(cands)
	}()

	for _, c := range conns {
		cpos, ok := g.byID[c]
		if !ok {
			return &ErrInvalidNodeID{ID: c}
		}
		it := queue.Item{
			ID:       c,
			Pos:      cpos,
			Distance: fixpoint.SquaredDistance(src.vector, g.nodes[cpos].vector),
		}
		all = append(all, it)
		cands.PushItem(it)
	}
	tgtItem := queue.Item{
		ID:       tgtID,
		Pos:      tgtPos,
		Distance: fixpoint.SquaredDistance(src.vector, g.nodes[tgtPos].vector),
	}
	all = append(all, tgtItem)
	cands.PushItem(tgtItem)

	kept := selectNeighbors(cands, bound)

	newList := make([]uint64, len(kept))
	for i, it := range kept {
		newList[i] = it.ID
	}

	for _, it := range all {
		if !containsID(newList, it.ID) {
			g.removeEdge(it.Pos, src.id, layer)
		}
	}

	src.neighbors[layer] = newList
	return nil
}

// removeEdge deletes neighborID from the layer list of the node at pos,
// preserving the order of the remaining entries.
func (g *Graph) removeEdge(pos uint32, neighborID uint64, layer int) {
	conns := g.nodes[pos].neighbors[layer]
	for i, c := range conns {
		if c == neighborID {
			g.nodes[pos].neighbors[layer] = append(conns[:i], conns[i+1:]...)
			return
		}
	}
}

func containsID(ids []uint64, id uint64) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dimension returns the vector dimension.
func (g *Graph) Dimension() int {
	return g.dimension
}

// MaxLayer returns the top layer of the graph, -1 when empty.
func (g *Graph) MaxLayer() int {
	if !g.hasEntry {
		return -1
	}
	return g.maxLayer
}

// Contains reports whether id is present.
func (g *Graph) Contains(id uint64) bool {
	return g.ids.Contains(id)
}

// EntryPoint returns the id of the current entry point.
func (g *Graph) EntryPoint() (uint64, bool) {
	if !g.hasEntry {
		return 0, false
	}
	return g.nodes[g.entryPoint].id, true
}

// VectorByID returns a copy of the stored vector for id.
func (g *Graph) VectorByID(id uint64) (fixpoint.Vector, error) {
	pos, ok := g.byID[id]
	if !ok {
		return nil, &ErrInvalidNodeID{ID: id}
	}
	return g.nodes[pos].vector.Clone(), nil
}
