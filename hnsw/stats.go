package hnsw

// LayerStats describes one layer of the graph.
type LayerStats struct {
	// Nodes is the number of nodes whose level reaches this layer.
	Nodes int

	// Edges is the total number of directed edges on this layer.
	Edges int
}

// Stats is a point-in-time summary of the graph shape.
type Stats struct {
	Nodes      int
	Dimension  int
	MaxLayer   int
	EntryPoint uint64
	Layers     []LayerStats // index 0 is the base layer
}

// Stats summarizes the graph. Diagnostic only: nothing here feeds the
// root hash.
func (g *Graph) Stats() Stats {
	s := Stats{
		Nodes:     len(g.nodes),
		Dimension: g.dimension,
		MaxLayer:  -1,
	}
	if !g.hasEntry {
		return s
	}

	s.MaxLayer = g.maxLayer
	s.EntryPoint = g.nodes[g.entryPoint].id
	s.Layers = make([]LayerStats, g.maxLayer+1)

	for i := range g.nodes {
		n := &g.nodes[i]
		for layer := 0; layer <= int(n.level); layer++ {
			s.Layers[layer].Nodes++
			s.Layers[layer].Edges += len(n.neighbors[layer])
		}
	}

	return s
}
