package hnsw

import (
	"fmt"
	"io"

	"github.com/vecdex/vecdex/fixpoint"
	"github.com/vecdex/vecdex/snapshot"
)

// WriteSnapshot serializes the graph into the snapshot container.
// Node records keep both arena order and neighbor list order, so a
// loaded graph replays future inserts bit-identically to the original.
func (g *Graph) WriteSnapshot(w io.Writer, codec snapshot.Codec) error {
	meta := snapshot.Meta{
		Params: snapshot.Params{
			Dimension:      g.dimension,
			M:              M,
			M0:             M0,
			EFConstruction: EFConstruction,
		},
		Codec:     codec,
		NodeCount: uint64(len(g.nodes)),
		MaxLayer:  g.MaxLayer(),
		HasEntry:  g.hasEntry,
	}
	if g.hasEntry {
		meta.EntryPointID = g.nodes[g.entryPoint].id
	}

	pw := snapshot.NewPayloadWriter(g.payloadSize())
	for i := range g.nodes {
		n := &g.nodes[i]
		pw.AppendNode(n.id, uint32(n.level), n.vector, n.neighbors)
	}
	return snapshot.Write(w, meta, pw.Bytes())
}

func (g *Graph) payloadSize() int {
	size := 0
	for i := range g.nodes {
		n := &g.nodes[i]
		size += 12 + 8*len(n.vector)
		for _, layer := range n.neighbors {
			size += 4 + 8*len(layer)
		}
	}
	return size
}

// ReadSnapshot reconstructs a graph from a snapshot stream. The stream
// is rejected if it was written under different graph parameters or if
// its structure is inconsistent. Authenticity is not established here:
// callers compare RootHash against the chain commitment they trust.
func ReadSnapshot(r io.Reader) (*Graph, error) {
	meta, raw, err := snapshot.Read(r)
	if err != nil {
		return nil, err
	}

	if meta.M != M || meta.M0 != M0 || meta.EFConstruction != EFConstruction {
		return nil, fmt.Errorf("%w: snapshot has M=%d M0=%d efConstruction=%d, this build uses %d/%d/%d",
			snapshot.ErrParamsMismatch, meta.M, meta.M0, meta.EFConstruction, M, M0, EFConstruction)
	}

	g, err := New(func(o *Options) {
		o.Dimension = meta.Dimension
		o.InitialCapacity = int(meta.NodeCount)
	})
	if err != nil {
		return nil, err
	}

	pr := snapshot.NewPayloadReader(raw, meta.Dimension)
	for i := uint64(0); i < meta.NodeCount; i++ {
		rec, err := pr.Next()
		if err != nil {
			return nil, err
		}
		if int(rec.Level) > maxLevelCap {
			return nil, &snapshot.CorruptError{Reason: fmt.Sprintf("node %d: level %d above cap", rec.ID, rec.Level)}
		}
		if _, ok := g.byID[rec.ID]; ok {
			return nil, &snapshot.CorruptError{Reason: fmt.Sprintf("duplicate node id %d", rec.ID)}
		}

		g.byID[rec.ID] = uint32(len(g.nodes))
		g.ids.Add(rec.ID)
		g.nodes = append(g.nodes, node{
			id:        rec.ID,
			level:     int32(rec.Level),
			vector:    fixpoint.Vector(rec.Vector),
			neighbors: rec.Neighbors,
		})
	}
	if pr.Remaining() != 0 {
		return nil, &snapshot.CorruptError{Reason: fmt.Sprintf("%d trailing payload bytes", pr.Remaining())}
	}

	if err := g.adoptLoaded(meta); err != nil {
		return nil, err
	}
	return g, nil
}

// adoptLoaded validates edge structure against the header and installs
// the entry point. Edge reciprocity is not re-walked here: the checksum
// covers transport corruption, and the caller's root hash comparison
// covers everything semantic.
func (g *Graph) adoptLoaded(meta snapshot.Meta) error {
	maxLevel := -1
	for i := range g.nodes {
		n := &g.nodes[i]
		if int(n.level) > maxLevel {
			maxLevel = int(n.level)
		}
		for layer, conns := range n.neighbors {
			if len(conns) > maxNeighbors(layer) {
				return &snapshot.CorruptError{Reason: fmt.Sprintf("node %d: %d neighbors on layer %d", n.id, len(conns), layer)}
			}
			for j, nid := range conns {
				if nid == n.id {
					return &snapshot.CorruptError{Reason: fmt.Sprintf("node %d: self edge on layer %d", n.id, layer)}
				}
				npos, ok := g.byID[nid]
				if !ok {
					return &snapshot.CorruptError{Reason: fmt.Sprintf("node %d: edge to unknown node %d", n.id, nid)}
				}
				if int(g.nodes[npos].level) < layer {
					return &snapshot.CorruptError{Reason: fmt.Sprintf("node %d: edge to node %d below layer %d", n.id, nid, layer)}
				}
				if containsID(conns[:j], nid) {
					return &snapshot.CorruptError{Reason: fmt.Sprintf("node %d: duplicate edge to %d on layer %d", n.id, nid, layer)}
				}
			}
		}
	}

	if !meta.HasEntry {
		return nil
	}

	epPos, ok := g.byID[meta.EntryPointID]
	if !ok {
		return &snapshot.CorruptError{Reason: fmt.Sprintf("entry point %d not in graph", meta.EntryPointID)}
	}
	if maxLevel != meta.MaxLayer {
		return &snapshot.CorruptError{Reason: fmt.Sprintf("top node level is %d, header says %d", maxLevel, meta.MaxLayer)}
	}
	if int(g.nodes[epPos].level) != meta.MaxLayer {
		return &snapshot.CorruptError{Reason: fmt.Sprintf("entry point level %d is not the top layer %d", g.nodes[epPos].level, meta.MaxLayer)}
	}

	g.entryPoint = epPos
	g.maxLayer = meta.MaxLayer
	g.hasEntry = true
	return nil
}
