package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/lineage/internal/graph"
)

func TestScopeContext_Paths(t *testing.T) {
	sc := NewScopeContext("m.js")
	assert.Equal(t, "global", sc.Path())

	top := sc.Declare(graph.NodeKindVariable, "x", nil)
	assert.Equal(t, "m.js->global->VARIABLE->x", top.ID)

	sc.PushFunction("outer")
	sc.PushBlock("if")
	assert.Equal(t, "global->outer->if#0", sc.Path())

	inner := sc.Declare(graph.NodeKindVariable, "x", nil)
	assert.Equal(t, "m.js->global->outer->if#0->VARIABLE->x", inner.ID)

	hoisted := sc.DeclareHoisted(graph.NodeKindVariable, "h", nil)
	assert.Equal(t, "m.js->global->outer->VARIABLE->h", hoisted.ID, "var hoists to the function scope")

	got, ok := sc.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, inner.ID, got.ID, "innermost binding shadows")

	sc.Pop()
	sc.PushBlock("if")
	assert.Equal(t, "global->outer->if#1", sc.Path(), "block counters advance per unit")

	sc.Pop()
	sc.Pop()
	got, ok = sc.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, top.ID, got.ID)

	sc.Pop()
	assert.Equal(t, 1, sc.Depth(), "module scope is never popped")

	sc.PushFunction("")
	assert.Equal(t, "global->fn#0", sc.Path())
}

func TestScopeContext_Deterministic(t *testing.T) {
	run := func() []string {
		sc := NewScopeContext("d.js")
		var ids []string
		for _, name := range []string{"a", "b"} {
			sc.PushBlock("block")
			ids = append(ids, sc.Declare(graph.NodeKindVariable, name, nil).ID)
			sc.Pop()
		}
		return ids
	}
	assert.Equal(t, run(), run())
}

func TestScopeContext_Coverage(t *testing.T) {
	sc := NewScopeContext("c.js")

	_, ok := sc.Resolve("ghost", 3, 4)
	assert.False(t, ok)
	_, _ = sc.Resolve("ghost", 3, 4) // same occurrence
	_, _ = sc.Resolve("ghost", 5, 0)

	sc.Declare(graph.NodeKindVariable, "real", nil)
	_, ok = sc.Resolve("real", 6, 0)
	assert.True(t, ok)

	cov := sc.Coverage()
	assert.Equal(t, 2, cov.Unresolved["ghost"])
	assert.Equal(t, 2, cov.UnresolvedTotal())
	assert.NotContains(t, cov.Unresolved, "real")

	var total Coverage
	total.Merge(cov)
	total.Merge(cov)
	assert.Equal(t, 4, total.UnresolvedTotal())
	assert.Equal(t, 0, total.UnhandledTotal())
	assert.Empty(t, total.UnhandledTypes())

	// No meter provider is installed; recording must be a harmless no-op.
	RecordCoverage(context.Background(), total)
}
