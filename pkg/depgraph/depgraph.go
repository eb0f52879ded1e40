// Package depgraph is the in-memory model of a string-dependency graph:
// nodes tagged Uninit/Literal/Op/Sink, directed edges between them, and the
// small set of accessors the evaluator and driver packages need to walk it.
// The core analysis never parses graph text itself — it consumes a
// pre-built DepGraph produced by LoadText.
package depgraph

// NodeKind is the closed tag of a DepGraph node.
type NodeKind int

const (
	// Uninit marks an untrusted input position for a named field.
	Uninit NodeKind = iota
	// Literal marks a constant string literal.
	Literal
	// Op marks a string operation applied to one or more argument nodes.
	Op
	// Sink marks the node whose language at fixpoint is the observed output.
	Sink
)

func (k NodeKind) String() string {
	switch k {
	case Uninit:
		return "uninit"
	case Literal:
		return "literal"
	case Op:
		return "op"
	case Sink:
		return "sink"
	default:
		return "unknown"
	}
}

// OpKind is the closed set of string operations an Op node may carry.
type OpKind int

const (
	OpConcat OpKind = iota
	OpReplace
	OpHTMLSpecialChars
	OpEncodeURIComponent
	OpRegexMatchExtract
	OpTrim
	OpSubstring
	OpCaseFold
	OpCustomSanitizer
)

func (k OpKind) String() string {
	switch k {
	case OpConcat:
		return "concat"
	case OpReplace:
		return "replace"
	case OpHTMLSpecialChars:
		return "htmlspecialchars"
	case OpEncodeURIComponent:
		return "encodeURIComponent"
	case OpRegexMatchExtract:
		return "regex-match-extract"
	case OpTrim:
		return "trim"
	case OpSubstring:
		return "substring"
	case OpCaseFold:
		return "case-fold"
	case OpCustomSanitizer:
		return "custom-sanitizer"
	default:
		return "unknown"
	}
}

// opKindByName maps the text-format's kind token to an OpKind.
var opKindByName = map[string]OpKind{
	"concat":               OpConcat,
	"replace":              OpReplace,
	"htmlspecialchars":     OpHTMLSpecialChars,
	"encodeURIComponent":   OpEncodeURIComponent,
	"regex-match-extract":  OpRegexMatchExtract,
	"trim":                 OpTrim,
	"substring":            OpSubstring,
	"case-fold":            OpCaseFold,
	"custom-sanitizer":     OpCustomSanitizer,
}

// Node is one DepGraph vertex. Only the fields relevant to Kind are
// meaningful; this mirrors the source format's tagged-union lines rather
// than splitting into four Go types, since every consumer switches on Kind
// anyway.
type Node struct {
	ID int
	Kind NodeKind

	// Field is set for Uninit nodes: the named input field this position
	// receives untrusted data from.
	Field string

	// Text is set for Literal nodes: the constant string value.
	Text string

	// OpKind and Args are set for Op nodes. Args are the textual operation
	// parameters in source order (e.g. htmlspecialchars's mode, or
	// replace's /regex/ from-pattern); ArgIDs are the argument node ids in
	// source order, e.g. concat's operands or replace's subject and to.
	OpKind OpKind
	Args   []string
	ArgIDs []int

	// SinkArg is set for Sink nodes: the single node whose language the
	// sink observes.
	SinkArg int
}

// Edge is a directed dependency from From to To.
type Edge struct {
	From int
	To   int
}

// DepGraph is a directed graph of Nodes connected by Edges, with indexes
// for the accessors required by the evaluator: lookup by id, successors,
// predecessors, and uninit-node lookup by field name.
type DepGraph struct {
	nodes   map[int]*Node
	order   []int
	edges   []Edge
	succ    map[int][]int
	pred    map[int][]int
	uninits map[string]int
}

// New returns an empty, ready-to-populate DepGraph.
func New() *DepGraph {
	return &DepGraph{
		nodes:   make(map[int]*Node),
		succ:    make(map[int][]int),
		pred:    make(map[int][]int),
		uninits: make(map[string]int),
	}
}

// AddNode inserts or replaces the node at n.ID.
func (g *DepGraph) AddNode(n *Node) {
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
	if n.Kind == Uninit {
		g.uninits[n.Field] = n.ID
	}
}

// AddEdge records a directed dependency from -> to.
func (g *DepGraph) AddEdge(from, to int) {
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

// NodeByID returns the node with the given id, or nil and false if absent.
func (g *DepGraph) NodeByID(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Tag returns the NodeKind of id, or false if id is not in the graph.
func (g *DepGraph) Tag(id int) (NodeKind, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return 0, false
	}
	return n.Kind, true
}

// Successors returns the ids id has outgoing edges to, in edge-insertion
// order.
func (g *DepGraph) Successors(id int) []int {
	return g.succ[id]
}

// Predecessors returns the ids with an outgoing edge to id, in
// edge-insertion order.
func (g *DepGraph) Predecessors(id int) []int {
	return g.pred[id]
}

// UninitByField returns the Uninit node for the given field name, or false
// if no such node exists in the graph.
func (g *DepGraph) UninitByField(field string) (*Node, bool) {
	id, ok := g.uninits[field]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// NodeIDs returns every node id in insertion order, for deterministic
// worklist seeding in the evaluator.
func (g *DepGraph) NodeIDs() []int {
	out := make([]int, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns every edge in insertion order.
func (g *DepGraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}
