package graph

import (
	"context"
	"fmt"
)

// DanglingEdge is an edge with at least one endpoint that was never created.
type DanglingEdge struct {
	Edge       Edge `json:"edge"`
	MissingSrc bool `json:"missingSrc"`
	MissingDst bool `json:"missingDst"`
}

func (d DanglingEdge) String() string {
	var missing string
	switch {
	case d.MissingSrc && d.MissingDst:
		missing = "src and dst"
	case d.MissingSrc:
		missing = "src"
	default:
		missing = "dst"
	}
	return fmt.Sprintf("%s %s -> %s (missing %s)", d.Edge.Type, d.Edge.Src, d.Edge.Dst, missing)
}

// CheckBatch reports every buffered edge whose endpoints are not buffered in
// the same batch. A non-empty result is a builder defect.
func CheckBatch(b *Batch) []DanglingEdge {
	var out []DanglingEdge
	for _, e := range b.Edges() {
		d := DanglingEdge{Edge: e, MissingSrc: !b.HasNode(e.Src), MissingDst: !b.HasNode(e.Dst)}
		if d.MissingSrc || d.MissingDst {
			out = append(out, d)
		}
	}
	return out
}

// EdgeLister is the subset of Store needed to enumerate committed edges.
type EdgeLister interface {
	Reader
	AllEdges(ctx context.Context) ([]Edge, error)
}

// CheckIntegrity verifies that both endpoints of every committed edge
// resolve through GetNode. It is independent of data-flow validation.
func CheckIntegrity(ctx context.Context, s EdgeLister) ([]DanglingEdge, error) {
	edges, err := s.AllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("integrity: list edges: %w", err)
	}
	known := make(map[string]bool)
	exists := func(id string) (bool, error) {
		if ok, cached := known[id]; cached {
			return ok, nil
		}
		n, err := s.GetNode(ctx, id)
		if err != nil {
			return false, err
		}
		known[id] = n != nil
		return n != nil, nil
	}

	var out []DanglingEdge
	for _, e := range edges {
		srcOK, err := exists(e.Src)
		if err != nil {
			return nil, fmt.Errorf("integrity: get node %s: %w", e.Src, err)
		}
		dstOK, err := exists(e.Dst)
		if err != nil {
			return nil, fmt.Errorf("integrity: get node %s: %w", e.Dst, err)
		}
		if !srcOK || !dstOK {
			out = append(out, DanglingEdge{Edge: e, MissingSrc: !srcOK, MissingDst: !dstOK})
		}
	}
	return out, nil
}
