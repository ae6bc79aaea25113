package extract

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Coverage records what the extractors could not interpret, separately from
// lineage validation. An Expression with no DerivesFrom edges is only
// trustworthy as terminal when its unit reports no gaps at that position.
type Coverage struct {
	// Unhandled counts AST types the extractors fell through on.
	Unhandled map[string]int
	// Unresolved counts identifier names with no binding in scope.
	Unresolved map[string]int

	seen map[string]struct{}
}

func newCoverage() Coverage {
	return Coverage{
		Unhandled:  make(map[string]int),
		Unresolved: make(map[string]int),
		seen:       make(map[string]struct{}),
	}
}

// Occurrences are keyed by position so that re-emitting a sub-expression
// never double counts.
func (c *Coverage) once(key string) bool {
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	return true
}

func (c *Coverage) addUnhandled(astType string, line, col int) {
	if c.once(fmt.Sprintf("h|%s|%d|%d", astType, line, col)) {
		c.Unhandled[astType]++
	}
}

func (c *Coverage) addUnresolved(name string, line, col int) {
	if c.once(fmt.Sprintf("r|%s|%d|%d", name, line, col)) {
		c.Unresolved[name]++
	}
}

func (c Coverage) clone() Coverage {
	out := newCoverage()
	for k, v := range c.Unhandled {
		out.Unhandled[k] = v
	}
	for k, v := range c.Unresolved {
		out.Unresolved[k] = v
	}
	for k := range c.seen {
		out.seen[k] = struct{}{}
	}
	return out
}

// Merge adds other's counts into c.
func (c *Coverage) Merge(other Coverage) {
	if c.Unhandled == nil {
		*c = newCoverage()
	}
	for k, v := range other.Unhandled {
		c.Unhandled[k] += v
	}
	for k, v := range other.Unresolved {
		c.Unresolved[k] += v
	}
}

// UnhandledTotal returns the number of unhandled occurrences.
func (c Coverage) UnhandledTotal() int {
	return sum(c.Unhandled)
}

// UnresolvedTotal returns the number of unresolved identifier occurrences.
func (c Coverage) UnresolvedTotal() int {
	return sum(c.Unresolved)
}

// UnhandledTypes returns the unhandled AST types, sorted.
func (c Coverage) UnhandledTypes() []string {
	out := make([]string, 0, len(c.Unhandled))
	for k := range c.Unhandled {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sum(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// ---------- Metrics ----------

var meter = otel.Meter("lineage.extract")

var (
	unhandledTotal  metric.Int64Counter
	unresolvedTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		unhandledTotal, err = meter.Int64Counter(
			"lineage_unhandled_ast_total",
			metric.WithDescription("AST nodes the extractors could not interpret"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		unresolvedTotal, err = meter.Int64Counter(
			"lineage_unresolved_identifiers_total",
			metric.WithDescription("Identifier occurrences with no binding in scope"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// RecordCoverage exports a unit's coverage through the global meter
// provider.
func RecordCoverage(ctx context.Context, c Coverage) {
	if err := initMetrics(); err != nil {
		return
	}
	for astType, n := range c.Unhandled {
		unhandledTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("ast.type", astType)))
	}
	if n := c.UnresolvedTotal(); n > 0 {
		unresolvedTotal.Add(ctx, int64(n))
	}
}
