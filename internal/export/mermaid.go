package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/lineage/internal/graph"
)

// lineageEdges are followed when drawing a lineage diagram.
var lineageEdges = []graph.EdgeType{
	graph.EdgeAssignedFrom,
	graph.EdgeDerivesFrom,
	graph.EdgeHasProperty,
	graph.EdgeHasElement,
}

// GenerateLineage produces a Mermaid flowchart of everything start's value
// flows from, up to maxDepth hops. Unlike the validator it follows every
// outgoing edge, so all operands and members are drawn. Issues affecting a
// drawn node are attached to it.
func GenerateLineage(ctx context.Context, r graph.Reader, start string, maxDepth int) (string, error) {
	root, err := r.GetNode(ctx, start)
	if err != nil {
		return "", fmt.Errorf("export: get node %s: %w", start, err)
	}
	if root == nil {
		return "", fmt.Errorf("export: %s: %w", start, graph.ErrNodeNotFound)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	ids := make(map[string]string)
	var order []*graph.Node
	getID := func(n *graph.Node) string {
		if id, ok := ids[n.ID]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", len(ids))
		ids[n.ID] = id
		order = append(order, n)
		return id
	}

	var links []string
	getID(root)
	frontier := []*graph.Node{root}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []*graph.Node
		for _, n := range frontier {
			edges, err := r.GetOutgoingEdges(ctx, n.ID, lineageEdges...)
			if err != nil {
				return "", fmt.Errorf("export: outgoing edges of %s: %w", n.ID, err)
			}
			for _, e := range edges {
				dst, err := r.GetNode(ctx, e.Dst)
				if err != nil {
					return "", fmt.Errorf("export: get node %s: %w", e.Dst, err)
				}
				if dst == nil {
					continue
				}
				_, seen := ids[dst.ID]
				links = append(links, fmt.Sprintf("  %s -->|%s| %s", getID(n), e.Type, getID(dst)))
				if !seen {
					next = append(next, dst)
				}
			}
		}
		frontier = next
	}

	var sb strings.Builder
	sb.WriteString("flowchart LR\n")
	var issues []string
	for _, n := range order {
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", ids[n.ID], escape(label(n))))

		affects, err := r.GetIncomingEdges(ctx, n.ID, graph.EdgeAffects)
		if err != nil {
			return "", fmt.Errorf("export: incoming edges of %s: %w", n.ID, err)
		}
		for i, e := range affects {
			is, err := r.GetNode(ctx, e.Src)
			if err != nil {
				return "", fmt.Errorf("export: get node %s: %w", e.Src, err)
			}
			if is == nil {
				continue
			}
			iid := fmt.Sprintf("%sI%d", ids[n.ID], i)
			issues = append(issues,
				fmt.Sprintf("  %s{{\"%s\"}}", iid, escape(is.Code)),
				fmt.Sprintf("  %s -.-> %s", iid, ids[n.ID]),
				fmt.Sprintf("  class %s issue", iid),
			)
		}
	}
	for _, l := range links {
		sb.WriteString(l + "\n")
	}
	for _, l := range issues {
		sb.WriteString(l + "\n")
	}
	if len(issues) > 0 {
		sb.WriteString("  classDef issue fill:#fdd,stroke:#c00\n")
	}
	return sb.String(), nil
}

// label is the display text of a node: its kind plus the most specific
// attribute available.
func label(n *graph.Node) string {
	switch {
	case n.Kind == graph.NodeKindLiteral:
		return fmt.Sprintf("%s %v", n.Kind, n.Value)
	case n.Kind == graph.NodeKindExpression && n.Operator != "":
		return fmt.Sprintf("%s %s %s", n.Kind, n.ExpressionKind, n.Operator)
	case n.Kind == graph.NodeKindExpression:
		return fmt.Sprintf("%s %s", n.Kind, n.ExpressionKind)
	case n.Name != "":
		return fmt.Sprintf("%s %s", n.Kind, n.Name)
	}
	return fmt.Sprintf("%s %s:%d:%d", n.Kind, n.File, n.Line, n.Column)
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
