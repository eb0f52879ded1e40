// Package evaluator runs the forward (post-image) and backward (pre-image)
// fixpoint passes over a depgraph.DepGraph, dispatching each Op node's kind
// to the matching transducer the way worker.MonolithicWorker dispatches a
// task's TaskType to its adapter.
package evaluator

import (
	"context"
	"fmt"

	"github.com/soufianos01/sanitizer-checker/internal/errs"
	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
	"github.com/soufianos01/sanitizer-checker/pkg/depgraph"
	"github.com/soufianos01/sanitizer-checker/pkg/regexcompile"
	"github.com/soufianos01/sanitizer-checker/pkg/transducer"
)

// state is a node's position in the Unvisited -> Pending -> Stable machine
// spec.md §4.F describes for both passes.
type state int

const (
	unvisited state = iota
	pending
	stable
)

// Limits bounds how much work a single pass will do before giving up,
// mirroring spec.md §7's ResourceExhausted and Cancelled failure kinds.
type Limits struct {
	// WideningThreshold is the number of times a node may be recomputed
	// before its next iterate is widened against the previous one.
	WideningThreshold int
	// MaxAutomatonStates caps any single node's automaton size; exceeding
	// it aborts the pass with ResourceExhausted.
	MaxAutomatonStates int
}

// DefaultLimits mirrors spec.md §4.F's "e.g., 3 iterations" widening
// threshold and §7's "e.g., >10^5 states" resource ceiling.
func DefaultLimits() Limits {
	return Limits{WideningThreshold: 3, MaxAutomatonStates: 100000}
}

// ForwardResult is the per-node automaton assignment computed by a forward
// pass, plus enough bookkeeping for a backward pass to reuse it.
type ForwardResult struct {
	Graph  *depgraph.DepGraph
	Field  string
	Values map[int]automaton.Automaton
}

// BackwardResult is the per-node pre-image assignment computed by a
// backward pass seeded from a ForwardResult and an output constraint.
type BackwardResult struct {
	ContextName string
	Values      map[int]automaton.Automaton
}

// IsSafe reports whether the intersection this backward pass was seeded
// with is empty or exactly {epsilon}, per spec.md §4.G's BackwardResult
// definition.
func (r BackwardResult) IsSafe(intersection automaton.Automaton) bool {
	if automaton.IsEmpty(intersection) {
		return true
	}
	return automaton.ContainsEmptyString(intersection) && sameLanguage(intersection, automaton.Epsilon())
}

func sameLanguage(a, b automaton.Automaton) bool {
	return automaton.SubsetOf(a, b) && automaton.SubsetOf(b, a)
}

// ForwardPass computes the post-image automaton at every node of g, given
// that field is the field of interest and input is the automaton supplied
// for its Uninit node (defaulting to Sigma* per spec.md §4.G's
// "forwardAnalysis(graph, field, input=Sigma*)").
func ForwardPass(ctx context.Context, g *depgraph.DepGraph, field string, input automaton.Automaton, limits Limits) (*ForwardResult, error) {
	order := reversePostOrder(g)
	values := make(map[int]automaton.Automaton)
	states := make(map[int]state)
	iterations := make(map[int]int)
	for _, id := range order {
		states[id] = pending
	}

	worklist := append([]int{}, order...)
	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.Cancelled, "forward pass cancelled", err)
		}

		id := worklist[0]
		worklist = worklist[1:]
		if states[id] == stable {
			continue
		}

		next, err := computeForwardNode(g, id, field, input, values)
		if err != nil {
			return nil, err
		}
		if limits.MaxAutomatonStates > 0 && next.NumStates() > limits.MaxAutomatonStates {
			return nil, errs.New(errs.ResourceExhausted, fmt.Sprintf("node %d exceeded %d states", id, limits.MaxAutomatonStates))
		}

		prev, hadPrev := values[id]
		if hadPrev {
			iterations[id]++
			if iterations[id] > limits.WideningThreshold {
				next = automaton.Widen(prev, next)
			}
		}

		if hadPrev && sameLanguage(prev, next) {
			states[id] = stable
			continue
		}

		values[id] = next
		states[id] = pending
		for _, succ := range g.Successors(id) {
			if states[succ] != pending || !containsID(worklist, succ) {
				worklist = append(worklist, succ)
			}
			states[succ] = pending
		}
	}

	return &ForwardResult{Graph: g, Field: field, Values: values}, nil
}

func containsID(list []int, id int) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}

// computeForwardNode applies spec.md §4.F's per-kind rule for node id,
// reading its argument nodes' current (possibly still-Sigma*) values from
// values.
func computeForwardNode(g *depgraph.DepGraph, id int, field string, input automaton.Automaton, values map[int]automaton.Automaton) (automaton.Automaton, error) {
	n, ok := g.NodeByID(id)
	if !ok {
		return automaton.Automaton{}, errs.New(errs.GraphInconsistent, fmt.Sprintf("node %d not found", id))
	}

	switch n.Kind {
	case depgraph.Uninit:
		if n.Field == field {
			return input, nil
		}
		return automaton.AnyString(), nil

	case depgraph.Literal:
		return automaton.Literal([]byte(n.Text)), nil

	case depgraph.Sink:
		return argValue(values, n.SinkArg), nil

	case depgraph.Op:
		return applyOp(g, n, values)

	default:
		return automaton.Automaton{}, errs.New(errs.GraphInconsistent, fmt.Sprintf("node %d has unknown kind", id))
	}
}

func argValue(values map[int]automaton.Automaton, id int) automaton.Automaton {
	if a, ok := values[id]; ok {
		return a
	}
	return automaton.AnyString()
}

// applyOp dispatches an Op node to its transducer, the forward-pass
// analogue of worker.MonolithicWorker's TaskType -> Analyzer registry.
// Op kinds with no transducer defined in spec.md §4.D (regex-match-extract,
// trim, substring, case-fold, custom sanitizer) abort with
// UnsupportedOperation, exactly as spec.md §4.F's Failure clause requires.
func applyOp(g *depgraph.DepGraph, n *depgraph.Node, values map[int]automaton.Automaton) (automaton.Automaton, error) {
	switch n.OpKind {
	case depgraph.OpConcat:
		if len(n.ArgIDs) == 0 {
			return automaton.Epsilon(), nil
		}
		result := argValue(values, n.ArgIDs[0])
		for _, id := range n.ArgIDs[1:] {
			result = automaton.Concat(result, argValue(values, id))
		}
		return result, nil

	case depgraph.OpHTMLSpecialChars:
		if len(n.Args) != 1 || len(n.ArgIDs) != 1 {
			return automaton.Automaton{}, errs.New(errs.GraphInconsistent, "htmlspecialchars op needs one mode arg and one subject id")
		}
		mode, err := parseMode(n.Args[0])
		if err != nil {
			return automaton.Automaton{}, err
		}
		return transducer.Apply(transducer.HTMLSpecialChars(mode), argValue(values, n.ArgIDs[0])), nil

	case depgraph.OpEncodeURIComponent:
		if len(n.ArgIDs) != 1 {
			return automaton.Automaton{}, errs.New(errs.GraphInconsistent, "encodeURIComponent op needs exactly one subject id")
		}
		return transducer.Apply(transducer.EncodeURIComponent(), argValue(values, n.ArgIDs[0])), nil

	case depgraph.OpReplace:
		// Args[0] is the "from" pattern (a /regex/); ArgIDs are [subject, to].
		if len(n.Args) != 1 || len(n.ArgIDs) != 2 {
			return automaton.Automaton{}, errs.New(errs.GraphInconsistent, "replace op needs one from-pattern arg and [subject, to] ids")
		}
		fromAuto, err := regexcompile.Compile(n.Args[0])
		if err != nil {
			return automaton.Automaton{}, err
		}
		toAuto := argValue(values, n.ArgIDs[1])
		subject := argValue(values, n.ArgIDs[0])
		return transducer.Apply(transducer.Replace(fromAuto, toAuto), subject), nil

	case depgraph.OpRegexMatchExtract, depgraph.OpTrim, depgraph.OpSubstring, depgraph.OpCaseFold, depgraph.OpCustomSanitizer:
		return automaton.Automaton{}, errs.New(errs.UnsupportedOperation, fmt.Sprintf("no transducer defined for op kind %q", n.OpKind))

	default:
		return automaton.Automaton{}, errs.New(errs.UnsupportedOperation, fmt.Sprintf("unrecognized op kind %v", n.OpKind))
	}
}

func parseMode(s string) (transducer.Mode, error) {
	switch s {
	case "ENT_NOQUOTES":
		return transducer.ENTNoQuotes, nil
	case "ENT_COMPAT":
		return transducer.ENTCompat, nil
	case "ENT_QUOTES":
		return transducer.ENTQuotes, nil
	case "ENT_SLASH":
		return transducer.ENTSlash, nil
	default:
		return 0, errs.New(errs.GraphInconsistent, fmt.Sprintf("unknown htmlspecialchars mode %q", s))
	}
}

// reversePostOrder returns g's node ids ordered so that, wherever the graph
// is acyclic, every node appears after all of its predecessors — the
// worklist seeding order spec.md §4.F specifies for the forward pass.
func reversePostOrder(g *depgraph.DepGraph) []int {
	visited := map[int]bool{}
	var post []int
	var visit func(id int)
	visit = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, succ := range g.Successors(id) {
			visit(succ)
		}
		post = append(post, id)
	}
	for _, id := range g.NodeIDs() {
		visit(id)
	}
	// post is post-order; reverse it in place for reverse-post-order.
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// postOrder returns g's node ids in plain post-order, the backward pass's
// worklist seeding order per spec.md §4.F.
func postOrder(g *depgraph.DepGraph) []int {
	visited := map[int]bool{}
	var post []int
	var visit func(id int)
	visit = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, succ := range g.Successors(id) {
			visit(succ)
		}
		post = append(post, id)
	}
	for _, id := range g.NodeIDs() {
		visit(id)
	}
	return post
}
