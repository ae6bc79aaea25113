package export

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/dusk-indust/lineage/internal/graph"
	"github.com/dusk-indust/lineage/internal/orchestrator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RunExport is the top-level JSON report of one pipeline run.
type RunExport struct {
	RunID      string                    `json:"runId"`
	Root       string                    `json:"root"`
	ExportedAt string                    `json:"exportedAt"`
	Summary    Summary                   `json:"summary"`
	Units      []orchestrator.UnitReport `json:"units"`
	Issues     []IssueExport             `json:"issues"`
	Dangling   []string                  `json:"dangling,omitempty"`
	Unhandled  map[string]int            `json:"unhandled,omitempty"`
	Unresolved map[string]int            `json:"unresolved,omitempty"`
}

// Summary holds the headline counts of a run.
type Summary struct {
	Units      int   `json:"units"`
	Failed     int   `json:"failed"`
	Issues     int   `json:"issues"`
	Dangling   int   `json:"dangling"`
	Unhandled  int   `json:"unhandled"`
	Unresolved int   `json:"unresolved"`
	Nodes      int   `json:"nodes"`
	Edges      int   `json:"edges"`
	DurationMs int64 `json:"durationMs"`
}

// IssueExport describes one validation issue.
type IssueExport struct {
	ID       string         `json:"id"`
	Code     string         `json:"code"`
	Severity graph.Severity `json:"severity"`
	File     string         `json:"file,omitempty"`
	Line     int            `json:"line,omitempty"`
	Column   int            `json:"column,omitempty"`
	Target   string         `json:"target,omitempty"`
	Message  string         `json:"message"`
	Chain    []string       `json:"chain,omitempty"`
}

// ExportRun builds a RunExport from a pipeline report. Every export gets a
// fresh run id.
func ExportRun(rep *orchestrator.Report) *RunExport {
	out := &RunExport{
		RunID:      uuid.NewString(),
		Root:       rep.Root,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Units:      rep.Units,
		Issues:     make([]IssueExport, 0, len(rep.Issues)),
		Unhandled:  rep.Coverage.Unhandled,
		Unresolved: rep.Coverage.Unresolved,
		Summary: Summary{
			Units:      len(rep.Units),
			Failed:     rep.Failed(),
			Issues:     len(rep.Issues),
			Dangling:   len(rep.Dangling),
			Unhandled:  rep.Coverage.UnhandledTotal(),
			Unresolved: rep.Coverage.UnresolvedTotal(),
			DurationMs: rep.Duration.Milliseconds(),
		},
	}
	if rep.Stats != nil {
		out.Summary.Nodes = rep.Stats.NodeCount
		out.Summary.Edges = rep.Stats.EdgeCount
	}
	for _, is := range rep.Issues {
		out.Issues = append(out.Issues, IssueExport{
			ID:       is.ID,
			Code:     is.Code,
			Severity: is.Severity,
			File:     is.File,
			Line:     is.Line,
			Column:   is.Column,
			Target:   is.Target,
			Message:  is.Message,
			Chain:    is.Chain,
		})
	}
	for _, d := range rep.Dangling {
		out.Dangling = append(out.Dangling, d.String())
	}
	return out
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}
