package graph

import (
	"context"
	"errors"
	"io"
)

// ErrNodeNotFound is returned by lookups that require the node to exist.
var ErrNodeNotFound = errors.New("graph: node not found")

// Reader is the read-only query surface used by the validator and by
// integrity checks.
type Reader interface {
	// GetNode returns the node with id, or nil if it does not exist.
	GetNode(ctx context.Context, id string) (*Node, error)

	// GetOutgoingEdges returns edges with Src == id, in commit order.
	// An empty types list matches every edge type.
	GetOutgoingEdges(ctx context.Context, id string, types ...EdgeType) ([]Edge, error)

	// GetIncomingEdges returns edges with Dst == id, in commit order.
	GetIncomingEdges(ctx context.Context, id string, types ...EdgeType) ([]Edge, error)
}

// Store is the interface for the persistent lineage graph.
// Implementations: KuzuStore (cgo), MemStore (default and testing).
type Store interface {
	io.Closer
	Reader

	// Schema setup: called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Commit writes every node and edge buffered in b as one unit. When
	// b.File() is set, every node previously stored for that file, and every
	// edge touching one, is removed first, so the batch replaces the file's
	// earlier analysis. Nodes whose id already exists are overwritten;
	// duplicate edges are ignored.
	Commit(ctx context.Context, b *Batch) error

	// DeleteNodes removes every node matching filter, ignoring Limit, along
	// with all edges touching them. It returns the number of nodes removed.
	// A zero filter removes everything.
	DeleteNodes(ctx context.Context, filter NodeFilter) (int, error)

	// QueryNodes returns nodes matching filter, ordered by id.
	QueryNodes(ctx context.Context, filter NodeFilter) ([]Node, error)

	// AllEdges returns every edge in commit order.
	AllEdges(ctx context.Context) ([]Edge, error)

	// Stats returns node and edge counts.
	Stats(ctx context.Context) (*GraphStats, error)
}
