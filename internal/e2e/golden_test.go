//go:build e2e

package e2e

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/export"
	"github.com/dusk-indust/lineage/internal/graph"
	"github.com/dusk-indust/lineage/internal/orchestrator"
)

var update = flag.Bool("update", false, "update golden files")

// goldenDir returns the path to the testdata/golden directory.
func goldenDir() string {
	return filepath.Join("..", "..", "testdata", "golden")
}

func fixtureRoot() string {
	return filepath.Join("..", "..", "testdata", "fixtures", "js_project")
}

// traced lists the variables whose lineage diagrams are pinned.
var traced = []struct {
	file   string
	name   string
	golden string
}{
	{"src/app.js", "total", "app_total.mmd"},
	{"src/app.js", "label", "app_label.mmd"},
	{"src/util.ts", "orphan", "util_orphan.mmd"},
}

// runFixture analyzes the fixture project into a fresh store and renders
// every golden artifact keyed by golden filename.
func runFixture(t *testing.T, store graph.Store) map[string]string {
	t.Helper()

	parser := ast.NewMultiParser(ast.NewTreeSitterParser(), ast.NewESTreeLoader())
	defer parser.Close()

	pipeline := orchestrator.NewPipeline(orchestrator.Config{Workers: 2}, store, parser, nil)
	progressCh := pipeline.Progress()
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range progressCh {
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rep, err := pipeline.Run(ctx, fixtureRoot())
	require.NoError(t, err)

	pipeline.Close()
	<-drainDone

	out := make(map[string]string)
	var issues strings.Builder
	for _, is := range rep.Issues {
		fmt.Fprintf(&issues, "%s:%d:%d %s %s %s\n", is.File, is.Line, is.Column, is.Severity, is.Code, is.Target)
	}
	out["issues.txt"] = issues.String()

	for _, tr := range traced {
		start := graph.DeclarationID(tr.file, "global", graph.NodeKindVariable, tr.name)
		diagram, err := export.GenerateLineage(ctx, store, start, 16)
		require.NoError(t, err, tr.name)
		out[tr.golden] = diagram
	}
	return out
}

// TestGolden compares the rendered issues and lineage diagrams against golden
// files. Missing golden files skip with a message to run with -update.
func TestGolden(t *testing.T) {
	actual := runFixture(t, graph.NewMemStore())
	gDir := goldenDir()

	for name, got := range actual {
		t.Run(name, func(t *testing.T) {
			golden, err := os.ReadFile(filepath.Join(gDir, name))
			if os.IsNotExist(err) {
				t.Skipf("golden file %s not found; run with -update to generate", name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(golden), got, "output for %s does not match golden file", name)
		})
	}
}

// TestUpdateGolden regenerates golden files from the current pipeline output.
// Run with: go test -tags e2e -run TestUpdateGolden ./internal/e2e/ -update
func TestUpdateGolden(t *testing.T) {
	if !*update {
		t.Skip("skipping golden file update; run with -update flag")
	}

	actual := runFixture(t, graph.NewMemStore())
	gDir := goldenDir()
	require.NoError(t, os.MkdirAll(gDir, 0o755))

	for name, data := range actual {
		require.NoError(t, os.WriteFile(filepath.Join(gDir, name), []byte(data), 0o644))
		t.Logf("updated %s", name)
	}
}
