package depgraph

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/soufianos01/sanitizer-checker/internal/errs"
)

// sampleText is scenario 2 from spec.md §8: an Uninit field piped through
// htmlspecialchars(ENT_QUOTES) into a Sink.
const sampleText = `
# untrusted input
node 0 uninit x
node 1 op htmlspecialchars(ENT_QUOTES) 0
node 2 sink 1
edge 0 1
edge 1 2
`

func TestLoadTextBuildsExpectedGraph(t *testing.T) {
	g, err := LoadText(strings.NewReader(sampleText))
	if err != nil {
		t.Fatalf("LoadText failed: %v", err)
	}

	uninit, ok := g.UninitByField("x")
	if !ok || uninit.ID != 0 {
		t.Fatalf("expected uninit node for field x at id 0, got %+v ok=%v", uninit, ok)
	}

	op, ok := g.NodeByID(1)
	if !ok || op.Kind != Op || op.OpKind != OpHTMLSpecialChars {
		t.Fatalf("expected op node 1 to be htmlspecialchars, got %+v", op)
	}
	if len(op.Args) != 1 || op.Args[0] != "ENT_QUOTES" {
		t.Fatalf("expected op node 1 to carry ENT_QUOTES param, got %+v", op.Args)
	}
	if len(op.ArgIDs) != 1 || op.ArgIDs[0] != 0 {
		t.Fatalf("expected op node 1 to reference node 0, got %+v", op.ArgIDs)
	}

	sink, ok := g.NodeByID(2)
	if !ok || sink.Kind != Sink || sink.SinkArg != 1 {
		t.Fatalf("expected sink node 2 referencing node 1, got %+v", sink)
	}

	if succ := g.Successors(0); len(succ) != 1 || succ[0] != 1 {
		t.Fatalf("expected node 0's successor to be [1], got %v", succ)
	}
	if pred := g.Predecessors(2); len(pred) != 1 || pred[0] != 1 {
		t.Fatalf("expected node 2's predecessor to be [1], got %v", pred)
	}
}

func TestLoadTextLiteralUnquotesText(t *testing.T) {
	text := `node 0 literal "a\"b"
node 1 sink 0
edge 0 1`
	g, err := LoadText(strings.NewReader(text))
	if err != nil {
		t.Fatalf("LoadText failed: %v", err)
	}
	n, _ := g.NodeByID(0)
	if n.Text != `a"b` {
		t.Fatalf("expected unquoted literal a\"b, got %q", n.Text)
	}
}

func TestWriteTextRoundTrips(t *testing.T) {
	g, err := LoadText(strings.NewReader(sampleText))
	if err != nil {
		t.Fatalf("LoadText failed: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, g); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	g2, err := LoadText(&buf)
	if err != nil {
		t.Fatalf("re-LoadText of written text failed: %v", err)
	}
	op, ok := g2.NodeByID(1)
	if !ok || op.OpKind != OpHTMLSpecialChars || op.Args[0] != "ENT_QUOTES" {
		t.Fatalf("round trip lost op node data: %+v", op)
	}
	if succ := g2.Successors(1); len(succ) != 1 || succ[0] != 2 {
		t.Fatalf("round trip lost edge 1->2: %v", succ)
	}
}

// TestWriteTextRoundTripsEveryNodeField compares the loaded-then-rewritten-
// then-reloaded graph's full node set against the original, node by node,
// so a field silently dropped by WriteText (unlike TestWriteTextRoundTrips'
// spot checks) fails the test regardless of which field it is.
func TestWriteTextRoundTripsEveryNodeField(t *testing.T) {
	g, err := LoadText(strings.NewReader(sampleText))
	if err != nil {
		t.Fatalf("LoadText failed: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, g); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	g2, err := LoadText(&buf)
	if err != nil {
		t.Fatalf("re-LoadText of written text failed: %v", err)
	}

	nodesOf := func(dg *DepGraph) []*Node {
		ids := dg.NodeIDs()
		sort.Ints(ids)
		out := make([]*Node, len(ids))
		for i, id := range ids {
			n, _ := dg.NodeByID(id)
			out[i] = n
		}
		return out
	}

	if diff := cmp.Diff(nodesOf(g), nodesOf(g2), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round-tripped graph's nodes differ (-original +round-tripped):\n%s", diff)
	}
}

func requireGraphInconsistent(t *testing.T, text string) {
	t.Helper()
	_, err := LoadText(strings.NewReader(text))
	if err == nil {
		t.Fatalf("expected LoadText(%q) to fail", text)
	}
	ae, ok := err.(*errs.AnalysisError)
	if !ok {
		t.Fatalf("expected *errs.AnalysisError, got %T", err)
	}
	if ae.Kind != errs.GraphInconsistent {
		t.Fatalf("expected GraphInconsistent, got %v", ae.Kind)
	}
}

func TestMalformedRecordsAreGraphInconsistent(t *testing.T) {
	requireGraphInconsistent(t, "node 0 bogus x")
	requireGraphInconsistent(t, "node not-a-number uninit x")
	requireGraphInconsistent(t, "node 0 op unknownkind 1")
	requireGraphInconsistent(t, "edge 0")
	requireGraphInconsistent(t, "something 0 1")
}

func TestCyclicGraphSupported(t *testing.T) {
	// Scenario 6 from spec.md §8: x -> concat(x, literal("a")) -> Sink.
	text := `
node 0 uninit x
node 1 literal "a"
node 2 op concat 0 1
node 3 sink 2
edge 0 2
edge 1 2
edge 2 3
edge 2 0
`
	g, err := LoadText(strings.NewReader(text))
	if err != nil {
		t.Fatalf("LoadText failed on cyclic graph: %v", err)
	}
	concat, _ := g.NodeByID(2)
	if concat.OpKind != OpConcat || len(concat.ArgIDs) != 2 {
		t.Fatalf("expected concat node with 2 args, got %+v", concat)
	}
	if succ := g.Successors(2); len(succ) != 2 {
		t.Fatalf("expected concat node to have 2 successors (sink and back-edge to x), got %v", succ)
	}
}
