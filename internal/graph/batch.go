package graph

// Batch buffers the node and edge mutations of one analysis unit. It is not
// safe for concurrent use; each unit owns its batch and submits it to a Store
// with Commit once the unit completes.
type Batch struct {
	file      string
	nodes     []Node
	nodeIndex map[string]int
	edges     []Edge
	edgeIndex map[string]struct{}
}

// NewBatch returns an empty batch for the given file.
func NewBatch(file string) *Batch {
	return &Batch{
		file:      file,
		nodeIndex: make(map[string]int),
		edgeIndex: make(map[string]struct{}),
	}
}

// File returns the file this batch was built for.
func (b *Batch) File() string {
	return b.file
}

// BufferNode adds n unless a node with the same id is already buffered.
// It reports whether the node was added.
func (b *Batch) BufferNode(n Node) bool {
	if _, ok := b.nodeIndex[n.ID]; ok {
		return false
	}
	b.nodeIndex[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)
	return true
}

// BufferEdge adds e unless an identical edge is already buffered.
func (b *Batch) BufferEdge(e Edge) bool {
	k := e.key()
	if _, ok := b.edgeIndex[k]; ok {
		return false
	}
	b.edgeIndex[k] = struct{}{}
	b.edges = append(b.edges, e)
	return true
}

// GetNode returns the buffered node with id, if any.
func (b *Batch) GetNode(id string) (Node, bool) {
	i, ok := b.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return b.nodes[i], true
}

// HasNode reports whether a node with id is buffered.
func (b *Batch) HasNode(id string) bool {
	_, ok := b.nodeIndex[id]
	return ok
}

// Nodes returns the buffered nodes in insertion order. The slice must not be
// modified.
func (b *Batch) Nodes() []Node {
	return b.nodes
}

// Edges returns the buffered edges in insertion order. The slice must not be
// modified.
func (b *Batch) Edges() []Edge {
	return b.edges
}

// OutgoingEdges returns buffered edges leaving id, filtered by type.
func (b *Batch) OutgoingEdges(id string, types ...EdgeType) []Edge {
	var out []Edge
	for _, e := range b.edges {
		if e.Src == id && typeMatches(e.Type, types) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of buffered nodes and edges.
func (b *Batch) Len() (nodes, edges int) {
	return len(b.nodes), len(b.edges)
}

// typeMatches reports whether t is in types. An empty filter matches all.
func typeMatches(t EdgeType, types []EdgeType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}
