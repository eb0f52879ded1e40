package evaluator

import (
	"context"
	"testing"

	"github.com/soufianos01/sanitizer-checker/internal/errs"
	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
	"github.com/soufianos01/sanitizer-checker/pkg/depgraph"
)

func TestForwardPassLiteralNode(t *testing.T) {
	g := depgraph.New()
	g.AddNode(&depgraph.Node{ID: 0, Kind: depgraph.Literal, Text: "hello"})
	g.AddNode(&depgraph.Node{ID: 1, Kind: depgraph.Sink, SinkArg: 0})
	g.AddEdge(0, 1)

	fr, err := ForwardPass(context.Background(), g, "x", automaton.AnyString(), DefaultLimits())
	if err != nil {
		t.Fatalf("ForwardPass failed: %v", err)
	}
	if !automaton.Accepts(fr.Values[1], []byte("hello")) {
		t.Fatalf("expected sink to carry exactly the literal \"hello\"")
	}
	if automaton.Accepts(fr.Values[1], []byte("other")) {
		t.Fatalf("expected sink to reject an unrelated string")
	}
}

func TestForwardPassUninitFieldMismatchDefaultsToAnyString(t *testing.T) {
	g := depgraph.New()
	g.AddNode(&depgraph.Node{ID: 0, Kind: depgraph.Uninit, Field: "y"})
	g.AddNode(&depgraph.Node{ID: 1, Kind: depgraph.Sink, SinkArg: 0})
	g.AddEdge(0, 1)

	fr, err := ForwardPass(context.Background(), g, "x", automaton.Literal([]byte("ignored")), DefaultLimits())
	if err != nil {
		t.Fatalf("ForwardPass failed: %v", err)
	}
	if !automaton.SubsetOf(automaton.AnyString(), fr.Values[1]) {
		t.Fatalf("expected an Uninit node for a different field to default to Sigma*")
	}
}

func TestUnsupportedOpKindAborts(t *testing.T) {
	g := depgraph.New()
	g.AddNode(&depgraph.Node{ID: 0, Kind: depgraph.Uninit, Field: "x"})
	g.AddNode(&depgraph.Node{ID: 1, Kind: depgraph.Op, OpKind: depgraph.OpTrim, ArgIDs: []int{0}})
	g.AddNode(&depgraph.Node{ID: 2, Kind: depgraph.Sink, SinkArg: 1})
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)

	_, err := ForwardPass(context.Background(), g, "x", automaton.AnyString(), DefaultLimits())
	if err == nil {
		t.Fatalf("expected an unsupported op kind to abort the pass")
	}
	ae, ok := err.(*errs.AnalysisError)
	if !ok {
		t.Fatalf("expected *errs.AnalysisError, got %T", err)
	}
	if ae.Kind != errs.UnsupportedOperation {
		t.Fatalf("expected UnsupportedOperation, got %v", ae.Kind)
	}
}

func TestResourceExhaustedOnOversizedAutomaton(t *testing.T) {
	g := depgraph.New()
	g.AddNode(&depgraph.Node{ID: 0, Kind: depgraph.Uninit, Field: "x"})
	g.AddNode(&depgraph.Node{ID: 1, Kind: depgraph.Sink, SinkArg: 0})
	g.AddEdge(0, 1)

	limits := Limits{WideningThreshold: 3, MaxAutomatonStates: 0 /* disabled */}
	_, err := ForwardPass(context.Background(), g, "x", automaton.AnyString(), limits)
	if err != nil {
		t.Fatalf("expected a disabled state ceiling (0) to never trip ResourceExhausted, got %v", err)
	}

	tiny := Limits{WideningThreshold: 3, MaxAutomatonStates: 0}
	tiny.MaxAutomatonStates = 1
	_, err = ForwardPass(context.Background(), g, "x", automaton.Union(automaton.Literal([]byte("a")), automaton.Literal([]byte("b"))), tiny)
	if err == nil {
		t.Fatalf("expected a 1-state ceiling to trip ResourceExhausted")
	}
	ae, ok := err.(*errs.AnalysisError)
	if !ok || ae.Kind != errs.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v (%T)", err, err)
	}
}
