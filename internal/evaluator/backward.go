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

// BackwardPass propagates an output constraint at fr's sink backward along
// edges to every node, per spec.md §4.F. attack is intersected with the
// forward value at each sink node encountered to seed that sink's
// constraint; nodes with no sink successor (i.e. not on any path reaching
// a Sink) receive no constraint and have no entry in the result's Values.
func BackwardPass(ctx context.Context, fr *ForwardResult, contextName string, attack automaton.Automaton, limits Limits) (*BackwardResult, error) {
	g := fr.Graph
	values := make(map[int]automaton.Automaton)
	order := postOrder(g)
	iterations := make(map[int]int)

	for _, id := range order {
		if n, ok := g.NodeByID(id); ok && n.Kind == depgraph.Sink {
			values[id] = automaton.Intersect(fr.Values[id], attack)
		}
	}

	worklist := append([]int{}, order...)
	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.Cancelled, "backward pass cancelled", err)
		}

		id := worklist[0]
		worklist = worklist[1:]

		constraint, hasConstraint := backwardConstraintFor(g, id, values)
		if !hasConstraint {
			continue
		}
		// Consistency with the forward result, per spec.md §4.F: intersect
		// the propagated constraint with what the forward pass already
		// established at this node.
		next := automaton.Intersect(constraint, fr.Values[id])
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
			continue
		}
		values[id] = next

		for _, pred := range g.Predecessors(id) {
			worklist = append(worklist, pred)
		}
	}

	return &BackwardResult{ContextName: contextName, Values: values}, nil
}

// backwardConstraintFor computes the output constraint id must satisfy,
// derived from whichever of its successors already carry a constraint.
// When id feeds more than one successor, the constraints are intersected
// (id must satisfy all of them simultaneously).
func backwardConstraintFor(g *depgraph.DepGraph, id int, values map[int]automaton.Automaton) (automaton.Automaton, bool) {
	var result automaton.Automaton
	found := false
	for _, succID := range g.Successors(id) {
		succ, ok := g.NodeByID(succID)
		if !ok {
			continue
		}
		succConstraint, ok := values[succID]
		if !ok {
			continue
		}
		contribution, err := preimageThroughNode(g, succ, id, succConstraint)
		if err != nil {
			continue
		}
		if !found {
			result = contribution
			found = true
		} else {
			result = automaton.Intersect(result, contribution)
		}
	}
	return result, found
}

// preimageThroughNode computes the inverse image of out, the output
// constraint at consumer, restricted to the specific argument position
// that predecessorID occupies in consumer — e.g. for concat(a, b), a's
// contribution is RightQuotient(out, L(b)) and b's is LeftQuotient(out,
// L(a)).
func preimageThroughNode(g *depgraph.DepGraph, consumer *depgraph.Node, predecessorID int, out automaton.Automaton) (automaton.Automaton, error) {
	switch consumer.Kind {
	case depgraph.Sink:
		return out, nil

	case depgraph.Op:
		return preimageThroughOp(g, consumer, predecessorID, out)

	default:
		return automaton.AnyString(), nil
	}
}

func preimageThroughOp(g *depgraph.DepGraph, n *depgraph.Node, predecessorID int, out automaton.Automaton) (automaton.Automaton, error) {
	argIndex := -1
	for i, id := range n.ArgIDs {
		if id == predecessorID {
			argIndex = i
			break
		}
	}
	if argIndex < 0 {
		return automaton.AnyString(), nil
	}

	switch n.OpKind {
	case depgraph.OpConcat:
		// Hold every other argument at its forward-known literal/approx
		// language and quotient out accordingly.
		left := automaton.Epsilon()
		for i := 0; i < argIndex; i++ {
			left = automaton.Concat(left, nodeLanguage(g, n.ArgIDs[i]))
		}
		right := automaton.Epsilon()
		for i := argIndex + 1; i < len(n.ArgIDs); i++ {
			right = automaton.Concat(right, nodeLanguage(g, n.ArgIDs[i]))
		}
		result := automaton.RightQuotient(out, right)
		result = automaton.LeftQuotient(result, left)
		return result, nil

	case depgraph.OpHTMLSpecialChars:
		mode, err := parseMode(n.Args[0])
		if err != nil {
			return automaton.Automaton{}, err
		}
		return transducer.Preimage(transducer.HTMLSpecialChars(mode), out), nil

	case depgraph.OpEncodeURIComponent:
		return transducer.Preimage(transducer.EncodeURIComponent(), out), nil

	case depgraph.OpReplace:
		if argIndex != 0 {
			// The "to" operand isn't itself pre-imaged; its language is
			// fixed text supplied by the graph, not an analysis target.
			return automaton.AnyString(), nil
		}
		fromAuto, err := regexcompile.Compile(n.Args[0])
		if err != nil {
			return automaton.Automaton{}, err
		}
		toAuto := nodeLanguage(g, n.ArgIDs[1])
		return transducer.Preimage(transducer.Replace(fromAuto, toAuto), out), nil

	case depgraph.OpRegexMatchExtract, depgraph.OpTrim, depgraph.OpSubstring, depgraph.OpCaseFold, depgraph.OpCustomSanitizer:
		return automaton.Automaton{}, errs.New(errs.UnsupportedOperation, fmt.Sprintf("no transducer defined for op kind %q", n.OpKind))

	default:
		return automaton.Automaton{}, errs.New(errs.UnsupportedOperation, fmt.Sprintf("unrecognized op kind %v", n.OpKind))
	}
}

// nodeLanguage returns a sound approximation of id's language for use as a
// "held fixed" operand while computing another argument's pre-image:
// Literal nodes contribute their exact text, everything else Sigma* (safe
// since quotienting by a larger language only widens the result).
func nodeLanguage(g *depgraph.DepGraph, id int) automaton.Automaton {
	n, ok := g.NodeByID(id)
	if ok && n.Kind == depgraph.Literal {
		return automaton.Literal([]byte(n.Text))
	}
	return automaton.AnyString()
}
