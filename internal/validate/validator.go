// Package validate proves that values in a lineage graph trace back to a
// terminal source. It only reads the graph; issues are returned as nodes for
// the caller to commit.
package validate

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/lineage/internal/graph"
)

// DefaultMaxDepth bounds every traversal independently of cycle detection.
const DefaultMaxDepth = 256

// leafKinds need no further tracing.
var leafKinds = map[graph.NodeKind]bool{
	graph.NodeKindLiteral:         true,
	graph.NodeKindObjectLiteral:   true,
	graph.NodeKindArrayLiteral:    true,
	graph.NodeKindCall:            true,
	graph.NodeKindMethodCall:      true,
	graph.NodeKindConstructorCall: true,
	graph.NodeKindFunction:        true,
	graph.NodeKindClass:           true,
	graph.NodeKindImport:          true,
}

// IsLeaf reports whether nodes of kind k are terminal sources.
func IsLeaf(k graph.NodeKind) bool {
	return leafKinds[k]
}

// Status is the outcome of one traversal.
type Status int

const (
	NotFound Status = iota
	Found
)

func (s Status) String() string {
	if s == Found {
		return "found"
	}
	return "not_found"
}

// Result is the outcome of FindLeaf for one starting node.
type Result struct {
	Start  string
	Status Status
	// Leaf is the terminal node reached, or the consuming call when the
	// start is used by one.
	Leaf string
	// Chain lists the visited node ids from Start on. When Cycle is set the
	// repeated id is appended once more.
	Chain []string

	Cycle         bool
	DepthExceeded bool
	// Missing is set when the chain reached an id with no node.
	Missing bool
	// Err is a graph query failure; the traversal stopped there.
	Err error
	// Skipped marks a traversal never started because the run was canceled.
	Skipped bool

	StartNode *graph.Node
}

// Options configures a Validator. Zero values select the defaults.
type Options struct {
	MaxDepth   int
	StartKinds []graph.NodeKind
	Workers    int
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if len(o.StartKinds) == 0 {
		o.StartKinds = []graph.NodeKind{graph.NodeKindVariable}
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// Validator runs lineage traversals against a graph.
type Validator struct {
	r      graph.Reader
	logger *zap.Logger
	opts   Options
}

// NewValidator returns a validator reading from r.
func NewValidator(r graph.Reader, logger *zap.Logger, opts Options) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{r: r, logger: logger, opts: opts.withDefaults()}
}

// FindLeaf follows the first AssignedFrom/DerivesFrom edge from start until
// it reaches a terminal node, a dead end, a repeated node or the depth
// bound. It always returns. A traversal is never interrupted half way:
// cancellation of ctx is ignored once it has started.
func (v *Validator) FindLeaf(ctx context.Context, start string) Result {
	ctx = context.WithoutCancel(ctx)
	res := Result{Start: start}
	visited := make(map[string]bool)

	cur := start
	for depth := 0; ; depth++ {
		if visited[cur] {
			res.Cycle = true
			res.Chain = append(res.Chain, cur)
			return res
		}
		if depth >= v.opts.MaxDepth {
			res.DepthExceeded = true
			return res
		}
		visited[cur] = true
		res.Chain = append(res.Chain, cur)

		n, err := v.r.GetNode(ctx, cur)
		if err != nil {
			res.Err = fmt.Errorf("get node %s: %w", cur, err)
			return res
		}
		if n == nil {
			res.Missing = true
			return res
		}
		if res.StartNode == nil {
			res.StartNode = n
		}

		var next []graph.Edge
		switch {
		case IsLeaf(n.Kind):
			res.Status, res.Leaf = Found, cur
			return res

		case n.Kind == graph.NodeKindExpression:
			next, err = v.r.GetOutgoingEdges(ctx, cur, graph.EdgeDerivesFrom)
			if err != nil {
				res.Err = fmt.Errorf("outgoing edges of %s: %w", cur, err)
				return res
			}
			if len(next) == 0 {
				// Every operand was literal or unresolvable at build time.
				res.Status, res.Leaf = Found, cur
				return res
			}

		case n.Kind == graph.NodeKindVariable || n.Kind == graph.NodeKindParameter:
			call, err := v.usedByCall(ctx, cur)
			if err != nil {
				res.Err = err
				return res
			}
			if call != "" {
				res.Status, res.Leaf = Found, call
				return res
			}
			next, err = v.r.GetOutgoingEdges(ctx, cur, graph.DataFlowEdges...)
			if err != nil {
				res.Err = fmt.Errorf("outgoing edges of %s: %w", cur, err)
				return res
			}
			if len(next) == 0 {
				return res
			}

		default:
			// Modules, branches and issues carry no value.
			return res
		}
		cur = next[0].Dst
	}
}

// usedByCall returns the id of a call consuming id through a Uses edge.
func (v *Validator) usedByCall(ctx context.Context, id string) (string, error) {
	uses, err := v.r.GetIncomingEdges(ctx, id, graph.EdgeUses)
	if err != nil {
		return "", fmt.Errorf("incoming uses of %s: %w", id, err)
	}
	for _, e := range uses {
		src, err := v.r.GetNode(ctx, e.Src)
		if err != nil {
			return "", fmt.Errorf("get node %s: %w", e.Src, err)
		}
		if src != nil && src.Kind.IsCall() {
			return e.Src, nil
		}
	}
	return "", nil
}

// Run traverses from every start in parallel. Cancellation is checked only
// between traversals; traversals not started are marked Skipped. Results
// are in the order of starts.
func (v *Validator) Run(ctx context.Context, starts []string) ([]Result, error) {
	results := make([]Result, len(starts))
	var g errgroup.Group
	g.SetLimit(v.opts.Workers)

	for i, id := range starts {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = Result{Start: id, Skipped: true}
				return nil
			}
			results[i] = v.FindLeaf(ctx, id)
			return nil
		})
	}
	_ = g.Wait() // traversals never return errors

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("validate: %w", err)
	}
	return results, nil
}

// Validate traverses from every start and returns one Issue node per failed
// traversal. A canceled run returns the issues of the traversals that
// completed together with the context error.
func (v *Validator) Validate(ctx context.Context, starts []string) ([]graph.Node, error) {
	ctx, span := startValidateSpan(ctx, len(starts))
	defer span.End()

	results, err := v.Run(ctx, starts)
	var issues []graph.Node
	for _, r := range results {
		if is, ok := v.issueFor(r); ok {
			issues = append(issues, is)
		}
	}

	recordResults(context.WithoutCancel(ctx), results, issues)
	setValidateSpanResult(span, len(issues), err != nil)
	v.logger.Debug("validation finished",
		zap.Int("starts", len(starts)),
		zap.Int("issues", len(issues)),
		zap.Bool("canceled", err != nil),
	)
	return issues, err
}

// ValidateStore validates every node of the configured start kinds in s.
func (v *Validator) ValidateStore(ctx context.Context, s graph.Store) ([]graph.Node, error) {
	nodes, err := s.QueryNodes(ctx, graph.NodeFilter{Kinds: v.opts.StartKinds})
	if err != nil {
		return nil, fmt.Errorf("validate: query start nodes: %w", err)
	}
	starts := make([]string, len(nodes))
	for i, n := range nodes {
		starts[i] = n.ID
	}
	return v.Validate(ctx, starts)
}

// issueFor converts a failed traversal into an Issue node.
func (v *Validator) issueFor(r Result) (graph.Node, bool) {
	if r.Skipped || r.Status == Found {
		return graph.Node{}, false
	}
	code, sev := graph.CodeNoLeafNode, graph.SeverityError
	switch {
	case r.Err != nil:
		code, sev = graph.CodeValidationFailed, graph.SeverityWarning
		v.logger.Warn("lineage query failed", zap.String("start", r.Start), zap.Error(r.Err))
	case r.Missing:
		code = graph.CodeDanglingLineage
		v.logger.Warn("lineage reaches a missing node", zap.String("start", r.Start), zap.Strings("chain", r.Chain))
	}

	is := graph.Node{
		ID:       graph.IssueID(code, r.Start),
		Kind:     graph.NodeKindIssue,
		Severity: sev,
		Code:     code,
		Chain:    r.Chain,
		Message:  message(r),
	}
	// A start that does not exist has nothing to affect.
	if n := r.StartNode; n != nil {
		is.Target = r.Start
		is.File, is.Line, is.Column = n.File, n.Line, n.Column
	}
	return is, true
}

func message(r Result) string {
	subject := r.Start
	if n := r.StartNode; n != nil && n.Name != "" {
		subject = fmt.Sprintf("%s %q", strings.ToLower(string(n.Kind)), n.Name)
	}
	chain := strings.Join(r.Chain, " -> ")
	switch {
	case r.Err != nil:
		return fmt.Sprintf("could not validate %s: %v", subject, r.Err)
	case r.Cycle:
		return fmt.Sprintf("%s has no terminal source: cycle %s", subject, chain)
	case r.DepthExceeded:
		return fmt.Sprintf("%s has no terminal source within depth %d: %s", subject, len(r.Chain), chain)
	case r.Missing:
		return fmt.Sprintf("lineage of %s reaches a node that does not exist: %s", subject, chain)
	}
	return fmt.Sprintf("%s has no terminal source: %s", subject, chain)
}

// IssueBatch buffers issues and an Affects edge from each to its target.
func IssueBatch(issues []graph.Node) *graph.Batch {
	b := graph.NewBatch("")
	for _, is := range issues {
		b.BufferNode(is)
		if is.Target != "" {
			b.BufferEdge(graph.Edge{Type: graph.EdgeAffects, Src: is.ID, Dst: is.Target})
		}
	}
	return b
}
