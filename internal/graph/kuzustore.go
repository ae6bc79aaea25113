//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	kuzu "github.com/kuzudb/go-kuzu"
)

var kuzuJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	mu   sync.Mutex // serializes use of conn
	db   *kuzu.Database
	conn *kuzu.Connection
	seq  int64 // next edge sequence number
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the leaf directory itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: the node table must precede the relationship table.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Node(
		id STRING,
		kind STRING,
		file STRING,
		line INT64,
		col INT64,
		name STRING,
		expr_kind STRING,
		operator STRING,
		value STRING,
		value_kind STRING,
		branch_kind STRING,
		constant BOOLEAN,
		unresolved INT64,
		severity STRING,
		code STRING,
		message STRING,
		target STRING,
		chain STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS Edge(FROM Node TO Node, type STRING, seq INT64)`,
}

// InitSchema creates the tables if they do not exist and resumes the edge
// sequence of an existing database.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	rows, err := s.query("MATCH ()-[r:Edge]->() RETURN max(r.seq)", nil)
	if err != nil {
		return fmt.Errorf("kuzu: resume sequence: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] != nil {
		s.seq = int64(toInt(rows[0][0])) + 1
	}
	return nil
}

// ---------- Write operations ----------

const mergeNodeCypher = `MERGE (n:Node {id: $id})
	SET n.kind = $kind, n.file = $file, n.line = $line, n.col = $col,
		n.name = $name, n.expr_kind = $expr_kind, n.operator = $operator,
		n.value = $value, n.value_kind = $value_kind, n.branch_kind = $branch_kind,
		n.constant = $constant, n.unresolved = $unresolved, n.severity = $severity,
		n.code = $code, n.message = $message, n.target = $target, n.chain = $chain`

const mergeEdgeCypher = `MATCH (a:Node {id: $src}), (b:Node {id: $dst})
	MERGE (a)-[r:Edge {type: $type}]->(b)
	ON CREATE SET r.seq = $seq`

// Commit writes the batch inside one Kuzu transaction. Edges whose endpoints
// do not exist are not created; callers check batches with CheckBatch first.
func (s *KuzuStore) Commit(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.exec("BEGIN TRANSACTION", nil); err != nil {
		return err
	}
	rollback := func(cause error) error {
		if err := s.exec("ROLLBACK", nil); err != nil {
			return fmt.Errorf("%w (rollback: %v)", cause, err)
		}
		return cause
	}

	if f := b.File(); f != "" {
		if err := s.exec(deleteFileCypher, map[string]any{"file": f}); err != nil {
			return rollback(fmt.Errorf("kuzu: replace %s: %w", f, err))
		}
	}
	for _, n := range b.Nodes() {
		params, err := nodeParams(n)
		if err != nil {
			return rollback(err)
		}
		if err := s.exec(mergeNodeCypher, params); err != nil {
			return rollback(fmt.Errorf("kuzu: merge node %s: %w", n.ID, err))
		}
	}
	seq := s.seq
	for _, e := range b.Edges() {
		err := s.exec(mergeEdgeCypher, map[string]any{
			"src":  e.Src,
			"dst":  e.Dst,
			"type": string(e.Type),
			"seq":  seq,
		})
		if err != nil {
			return rollback(fmt.Errorf("kuzu: merge edge %s->%s: %w", e.Src, e.Dst, err))
		}
		seq++
	}
	if err := s.exec("COMMIT", nil); err != nil {
		return rollback(err)
	}
	s.seq = seq
	return nil
}

const deleteFileCypher = `MATCH (n:Node) WHERE n.file = $file DETACH DELETE n`

// DeleteNodes removes the nodes matching filter and every edge touching them.
func (s *KuzuStore) DeleteNodes(ctx context.Context, filter NodeFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	where, params := filterWhere(filter)
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query("MATCH (n:Node)"+where+" RETURN count(n)", params)
	if err != nil {
		return 0, err
	}
	count := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		count = toInt(rows[0][0])
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.exec("MATCH (n:Node)"+where+" DETACH DELETE n", params); err != nil {
		return 0, fmt.Errorf("kuzu: delete nodes: %w", err)
	}
	return count, nil
}

// filterWhere renders the File and Kinds of filter as a Cypher WHERE clause
// over n. Limit is ignored.
func filterWhere(filter NodeFilter) (string, map[string]any) {
	var conds []string
	params := make(map[string]any)
	if filter.File != "" {
		conds = append(conds, "n.file = $file")
		params["file"] = filter.File
	}
	if len(filter.Kinds) > 0 {
		var kinds []string
		for i, k := range filter.Kinds {
			name := fmt.Sprintf("k%d", i)
			kinds = append(kinds, "n.kind = $"+name)
			params[name] = string(k)
		}
		conds = append(conds, "("+strings.Join(kinds, " OR ")+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

// nodeParams flattens a Node into Cypher parameters.
func nodeParams(n Node) (map[string]any, error) {
	value := ""
	if n.Kind == NodeKindLiteral || n.Value != nil {
		raw, err := kuzuJSON.Marshal(n.Value)
		if err != nil {
			return nil, fmt.Errorf("kuzu: encode value of %s: %w", n.ID, err)
		}
		value = string(raw)
	}
	chain := ""
	if len(n.Chain) > 0 {
		raw, err := kuzuJSON.Marshal(n.Chain)
		if err != nil {
			return nil, fmt.Errorf("kuzu: encode chain of %s: %w", n.ID, err)
		}
		chain = string(raw)
	}
	return map[string]any{
		"id":          n.ID,
		"kind":        string(n.Kind),
		"file":        n.File,
		"line":        int64(n.Line),
		"col":         int64(n.Column),
		"name":        n.Name,
		"expr_kind":   string(n.ExpressionKind),
		"operator":    n.Operator,
		"value":       value,
		"value_kind":  string(n.ValueKind),
		"branch_kind": string(n.BranchKind),
		"constant":    n.Constant,
		"unresolved":  int64(n.Unresolved),
		"severity":    string(n.Severity),
		"code":        n.Code,
		"message":     n.Message,
		"target":      n.Target,
		"chain":       chain,
	}, nil
}

// ---------- Read operations ----------

const nodeColumns = `n.id, n.kind, n.file, n.line, n.col, n.name, n.expr_kind,
	n.operator, n.value, n.value_kind, n.branch_kind, n.constant, n.unresolved,
	n.severity, n.code, n.message, n.target, n.chain`

// GetNode retrieves a single node by id, or returns nil if not found.
func (s *KuzuStore) GetNode(_ context.Context, id string) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (n:Node {id: $id}) RETURN "+nodeColumns, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToNode(rows[0])
}

// GetOutgoingEdges returns edges leaving id ordered by commit sequence.
func (s *KuzuStore) GetOutgoingEdges(_ context.Context, id string, types ...EdgeType) ([]Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		"MATCH (a:Node {id: $id})-[r:Edge]->(b:Node) RETURN r.type, a.id, b.id ORDER BY r.seq",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	return rowsToEdges(rows, types), nil
}

// GetIncomingEdges returns edges arriving at id ordered by commit sequence.
func (s *KuzuStore) GetIncomingEdges(_ context.Context, id string, types ...EdgeType) ([]Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		"MATCH (a:Node)-[r:Edge]->(b:Node {id: $id}) RETURN r.type, a.id, b.id ORDER BY r.seq",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	return rowsToEdges(rows, types), nil
}

// QueryNodes returns nodes matching filter, ordered by id.
func (s *KuzuStore) QueryNodes(_ context.Context, filter NodeFilter) ([]Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows [][]any
	var err error
	if filter.File != "" {
		rows, err = s.query("MATCH (n:Node) WHERE n.file = $file RETURN "+nodeColumns,
			map[string]any{"file": filter.File})
	} else {
		rows, err = s.query("MATCH (n:Node) RETURN "+nodeColumns, nil)
	}
	if err != nil {
		return nil, err
	}
	var out []Node
	for _, r := range rows {
		n, err := rowToNode(r)
		if err != nil {
			return nil, err
		}
		if filter.Matches(*n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// AllEdges returns every edge ordered by commit sequence.
func (s *KuzuStore) AllEdges(_ context.Context) ([]Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (a:Node)-[r:Edge]->(b:Node) RETURN r.type, a.id, b.id ORDER BY r.seq", nil)
	if err != nil {
		return nil, err
	}
	return rowsToEdges(rows, nil), nil
}

// ---------- Stats ----------

// Stats returns node counts per kind and the total edge count.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (n:Node) RETURN n.kind, count(n)", nil)
	if err != nil {
		return nil, err
	}
	stats := &GraphStats{ByKind: make(map[NodeKind]int)}
	for _, r := range rows {
		c := toInt(r[1])
		stats.ByKind[NodeKind(toString(r[0]))] = c
		stats.NodeCount += c
	}
	stats.IssueCount = stats.ByKind[NodeKindIssue]

	rows, err = s.query("MATCH ()-[r:Edge]->() RETURN count(r)", nil)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		stats.EdgeCount = toInt(rows[0][0])
	}
	return stats, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
// Caller holds s.mu.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	if len(params) == 0 {
		res, err := s.conn.Query(cypher)
		if err != nil {
			return fmt.Errorf("kuzu: execute: %w", err)
		}
		res.Close()
		return nil
	}
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order. Caller holds s.mu.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// rowToNode converts an 18-column result row (see nodeColumns) into a Node.
// A JSON column that does not decode is an error.
func rowToNode(r []any) (*Node, error) {
	n := &Node{
		ID:             toString(r[0]),
		Kind:           NodeKind(toString(r[1])),
		File:           toString(r[2]),
		Line:           toInt(r[3]),
		Column:         toInt(r[4]),
		Name:           toString(r[5]),
		ExpressionKind: ExpressionKind(toString(r[6])),
		Operator:       toString(r[7]),
		ValueKind:      ValueKind(toString(r[9])),
		BranchKind:     BranchKind(toString(r[10])),
		Constant:       toBool(r[11]),
		Unresolved:     toInt(r[12]),
		Severity:       Severity(toString(r[13])),
		Code:           toString(r[14]),
		Message:        toString(r[15]),
		Target:         toString(r[16]),
	}
	if raw := toString(r[8]); raw != "" {
		var v any
		if err := kuzuJSON.UnmarshalFromString(raw, &v); err != nil {
			return nil, fmt.Errorf("kuzu: decode value of %s: %w", n.ID, err)
		}
		n.Value = v
	}
	if raw := toString(r[17]); raw != "" {
		if err := kuzuJSON.UnmarshalFromString(raw, &n.Chain); err != nil {
			return nil, fmt.Errorf("kuzu: decode chain of %s: %w", n.ID, err)
		}
	}
	return n, nil
}

// rowsToEdges converts (type, src, dst) rows into edges matching types.
func rowsToEdges(rows [][]any, types []EdgeType) []Edge {
	var out []Edge
	for _, r := range rows {
		e := Edge{Type: EdgeType(toString(r[0])), Src: toString(r[1]), Dst: toString(r[2])}
		if typeMatches(e.Type, types) {
			out = append(out, e)
		}
	}
	return out
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
