package graph

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu    sync.RWMutex
	nodes map[string]Node
	edges []Edge
	seen  map[string]struct{} // edge keys
	out   map[string][]int    // src id -> indexes into edges
	in    map[string][]int    // dst id -> indexes into edges
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes: make(map[string]Node),
		seen:  make(map[string]struct{}),
		out:   make(map[string][]int),
		in:    make(map[string][]int),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// Commit applies every mutation in b under a single write lock, so readers
// observe either none or all of the batch.
func (m *MemStore) Commit(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f := b.File(); f != "" {
		m.deleteLocked(NodeFilter{File: f})
	}
	for _, n := range b.Nodes() {
		m.nodes[n.ID] = n
	}
	for _, e := range b.Edges() {
		k := e.key()
		if _, ok := m.seen[k]; ok {
			continue
		}
		m.seen[k] = struct{}{}
		idx := len(m.edges)
		m.edges = append(m.edges, e)
		m.out[e.Src] = append(m.out[e.Src], idx)
		m.in[e.Dst] = append(m.in[e.Dst], idx)
	}
	return nil
}

// DeleteNodes removes the nodes matching filter and every edge touching them.
func (m *MemStore) DeleteNodes(ctx context.Context, filter NodeFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(filter), nil
}

// deleteLocked removes matching nodes and rebuilds the edge indexes when any
// edge is dropped. Caller holds the write lock.
func (m *MemStore) deleteLocked(filter NodeFilter) int {
	filter.Limit = 0
	removed := make(map[string]bool)
	for id, n := range m.nodes {
		if filter.Matches(n) {
			removed[id] = true
		}
	}
	if len(removed) == 0 {
		return 0
	}
	for id := range removed {
		delete(m.nodes, id)
	}

	kept := m.edges[:0]
	for _, e := range m.edges {
		if removed[e.Src] || removed[e.Dst] {
			delete(m.seen, e.key())
			continue
		}
		kept = append(kept, e)
	}
	m.edges = kept
	m.out = make(map[string][]int)
	m.in = make(map[string][]int)
	for i, e := range m.edges {
		m.out[e.Src] = append(m.out[e.Src], i)
		m.in[e.Dst] = append(m.in[e.Dst], i)
	}
	return len(removed)
}

// GetNode returns the node with the given id, or nil if not found.
func (m *MemStore) GetNode(_ context.Context, id string) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// GetOutgoingEdges returns edges leaving id in commit order.
func (m *MemStore) GetOutgoingEdges(_ context.Context, id string, types ...EdgeType) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(m.out[id], types), nil
}

// GetIncomingEdges returns edges arriving at id in commit order.
func (m *MemStore) GetIncomingEdges(_ context.Context, id string, types ...EdgeType) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(m.in[id], types), nil
}

// collect resolves edge indexes, filtering by type. Caller holds the lock.
func (m *MemStore) collect(idxs []int, types []EdgeType) []Edge {
	var out []Edge
	for _, i := range idxs {
		if typeMatches(m.edges[i].Type, types) {
			out = append(out, m.edges[i])
		}
	}
	return out
}

// QueryNodes returns nodes matching filter, sorted by id. A Limit <= 0
// returns all matches.
func (m *MemStore) QueryNodes(_ context.Context, filter NodeFilter) ([]Node, error) {
	m.mu.RLock()
	var results []Node
	for _, n := range m.nodes {
		if filter.Matches(n) {
			results = append(results, n)
		}
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// AllEdges returns a copy of all edges in the store.
func (m *MemStore) AllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// Stats returns counts of all node kinds and edges in the graph.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{
		NodeCount: len(m.nodes),
		EdgeCount: len(m.edges),
		ByKind:    make(map[NodeKind]int),
	}
	for _, n := range m.nodes {
		stats.ByKind[n.Kind]++
	}
	stats.IssueCount = stats.ByKind[NodeKindIssue]
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
