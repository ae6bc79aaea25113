package graph

// --- Enums ---

// NodeKind classifies nodes in the lineage graph. The set is closed.
type NodeKind string

const (
	NodeKindModule          NodeKind = "MODULE"
	NodeKindVariable        NodeKind = "VARIABLE"
	NodeKindParameter       NodeKind = "PARAMETER"
	NodeKindFunction        NodeKind = "FUNCTION"
	NodeKindClass           NodeKind = "CLASS"
	NodeKindCall            NodeKind = "CALL"
	NodeKindMethodCall      NodeKind = "METHOD_CALL"
	NodeKindConstructorCall NodeKind = "CONSTRUCTOR_CALL"
	NodeKindExpression      NodeKind = "EXPRESSION"
	NodeKindLiteral         NodeKind = "LITERAL"
	NodeKindObjectLiteral   NodeKind = "OBJECT_LITERAL"
	NodeKindArrayLiteral    NodeKind = "ARRAY_LITERAL"
	NodeKindBranch          NodeKind = "BRANCH"
	NodeKindImport          NodeKind = "IMPORT"
	NodeKindIssue           NodeKind = "ISSUE"
)

// AllNodeKinds lists every node kind in declaration order.
var AllNodeKinds = []NodeKind{
	NodeKindModule, NodeKindVariable, NodeKindParameter, NodeKindFunction,
	NodeKindClass, NodeKindCall, NodeKindMethodCall, NodeKindConstructorCall,
	NodeKindExpression, NodeKindLiteral, NodeKindObjectLiteral,
	NodeKindArrayLiteral, NodeKindBranch, NodeKindImport, NodeKindIssue,
}

// Valid reports whether k is one of the declared kinds.
func (k NodeKind) Valid() bool {
	for _, known := range AllNodeKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsCall reports whether k is one of the call kinds.
func (k NodeKind) IsCall() bool {
	return k == NodeKindCall || k == NodeKindMethodCall || k == NodeKindConstructorCall
}

// EdgeType classifies directed relations between nodes.
type EdgeType string

const (
	EdgeAssignedFrom  EdgeType = "ASSIGNED_FROM"
	EdgeDerivesFrom   EdgeType = "DERIVES_FROM"
	EdgeUses          EdgeType = "USES"
	EdgeHasCondition  EdgeType = "HAS_CONDITION"
	EdgeHasConsequent EdgeType = "HAS_CONSEQUENT"
	EdgeHasAlternate  EdgeType = "HAS_ALTERNATE"
	EdgeHasCatch      EdgeType = "HAS_CATCH"
	EdgeHasFinally    EdgeType = "HAS_FINALLY"
	EdgeReturns       EdgeType = "RETURNS"
	EdgeContains      EdgeType = "CONTAINS"
	EdgeHasProperty   EdgeType = "HAS_PROPERTY"
	EdgeHasElement    EdgeType = "HAS_ELEMENT"
	EdgeAffects       EdgeType = "AFFECTS"
)

// DataFlowEdges are the edge types followed when tracing lineage.
var DataFlowEdges = []EdgeType{EdgeAssignedFrom, EdgeDerivesFrom}

// ExpressionKind is the sub-kind carried by Expression nodes.
type ExpressionKind string

const (
	ExprMember         ExpressionKind = "MemberExpression"
	ExprBinary         ExpressionKind = "BinaryExpression"
	ExprLogical        ExpressionKind = "LogicalExpression"
	ExprConditional    ExpressionKind = "ConditionalExpression"
	ExprUnary          ExpressionKind = "UnaryExpression"
	ExprUpdate         ExpressionKind = "UpdateExpression"
	ExprTemplate       ExpressionKind = "TemplateLiteral"
	ExprTaggedTemplate ExpressionKind = "TaggedTemplateExpression"
	ExprIteration      ExpressionKind = "Iteration"
)

// ValueKind describes the JavaScript type of a Literal node's value.
type ValueKind string

const (
	ValueString    ValueKind = "string"
	ValueNumber    ValueKind = "number"
	ValueBoolean   ValueKind = "boolean"
	ValueNull      ValueKind = "null"
	ValueUndefined ValueKind = "undefined"
	ValueBigInt    ValueKind = "bigint"
	ValueRegExp    ValueKind = "regexp"
)

// BranchKind describes the construct a Branch node was built from.
type BranchKind string

const (
	BranchTernary BranchKind = "ternary"
	BranchIf      BranchKind = "if"
	BranchSwitch  BranchKind = "switch"
	BranchLoop    BranchKind = "loop"
	BranchTry     BranchKind = "try"
	BranchCatch   BranchKind = "catch"
	BranchFinally BranchKind = "finally"
)

// Severity grades an Issue node.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue codes emitted by the validator.
const (
	CodeNoLeafNode       = "ERR_NO_LEAF_NODE"
	CodeValidationFailed = "ERR_VALIDATION_FAILED"
	// CodeDanglingLineage marks a chain that reached an id with no node. The
	// graph itself is broken there; CheckIntegrity reports the edge.
	CodeDanglingLineage = "ERR_DANGLING_LINEAGE"
)

// --- Models ---

// Node is a tagged entity in the lineage graph. Only the fields relevant to
// Kind are populated.
type Node struct {
	ID     string   `json:"id"`
	Kind   NodeKind `json:"kind"`
	File   string   `json:"file"`
	Line   int      `json:"line"`
	Column int      `json:"column"`

	Name           string         `json:"name,omitempty"`
	ExpressionKind ExpressionKind `json:"expressionKind,omitempty"`
	Operator       string         `json:"operator,omitempty"`
	Value          any            `json:"value,omitempty"`
	ValueKind      ValueKind      `json:"valueKind,omitempty"`
	BranchKind     BranchKind     `json:"branchKind,omitempty"`

	// Constant marks an Expression whose operand slots were all literals.
	Constant bool `json:"constant,omitempty"`
	// Unresolved counts operand identifiers that had no binding in scope.
	Unresolved int `json:"unresolved,omitempty"`

	Severity Severity `json:"severity,omitempty"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message,omitempty"`
	Target   string   `json:"target,omitempty"`
	Chain    []string `json:"chain,omitempty"`
}

// Edge is a directed, typed relation from Src to Dst.
type Edge struct {
	Type EdgeType `json:"type"`
	Src  string   `json:"src"`
	Dst  string   `json:"dst"`
}

// key returns the identity used to deduplicate edges.
func (e Edge) key() string {
	return string(e.Type) + "|" + e.Src + "|" + e.Dst
}

// NodeFilter narrows QueryNodes. Zero-valued fields match everything.
type NodeFilter struct {
	Kinds []NodeKind
	File  string
	Limit int
}

// Matches reports whether n passes the filter.
func (f NodeFilter) Matches(n Node) bool {
	if f.File != "" && n.File != f.File {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// GraphStats summarizes a lineage graph.
type GraphStats struct {
	NodeCount  int              `json:"nodeCount"`
	EdgeCount  int              `json:"edgeCount"`
	IssueCount int              `json:"issueCount"`
	ByKind     map[NodeKind]int `json:"byKind"`
}
