package orchestrator

import (
	"context"
	"time"

	"github.com/dusk-indust/lineage/internal/extract"
	"github.com/dusk-indust/lineage/internal/graph"
)

// Phase identifies a pipeline phase.
type Phase int

const (
	PhaseDiscover Phase = iota
	PhaseAnalyze
	PhaseValidate
	PhaseIntegrity
)

func (p Phase) String() string {
	names := [...]string{
		"discover",
		"analyze",
		"validate",
		"integrity",
	}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// ProgressEvent is emitted to the user during a run.
type ProgressEvent struct {
	Phase   Phase
	Unit    string // file relative to the project root; empty for phase events
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a unit or phase.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// UnitReport summarizes one analyzed file.
type UnitReport struct {
	File       string        `json:"file"`
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	Unhandled  int           `json:"unhandled"`
	Unresolved int           `json:"unresolved"`
	Duration   time.Duration `json:"durationNs"`
	Skipped    bool          `json:"skipped,omitempty"`
	Err        string        `json:"error,omitempty"`
}

// Report is the outcome of a pipeline run.
type Report struct {
	Root     string               `json:"root"`
	Units    []UnitReport         `json:"units"`
	Issues   []graph.Node         `json:"issues"`
	Dangling []graph.DanglingEdge `json:"dangling,omitempty"`
	Coverage extract.Coverage     `json:"coverage"`
	Stats    *graph.GraphStats    `json:"stats,omitempty"`
	Duration time.Duration        `json:"durationNs"`
}

// Failed returns the number of units that could not be committed.
func (r *Report) Failed() int {
	n := 0
	for _, u := range r.Units {
		if u.Err != "" {
			n++
		}
	}
	return n
}

// Clean reports whether every unit committed and the graph has no issues or
// dangling edges.
func (r *Report) Clean() bool {
	return r.Failed() == 0 && len(r.Issues) == 0 && len(r.Dangling) == 0
}

// Orchestrator runs the lineage pipeline over a project tree.
type Orchestrator interface {
	// Run discovers, analyzes, commits and validates every unit under root.
	Run(ctx context.Context, root string) (*Report, error)

	// Progress returns a channel that emits progress events.
	Progress() <-chan ProgressEvent
}
