package driver

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/soufianos01/sanitizer-checker/internal/evaluator"
	"github.com/soufianos01/sanitizer-checker/pkg/attackpatterns"
	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
	"github.com/soufianos01/sanitizer-checker/pkg/depgraph"
)

// TestMain verifies that CombinedAnalysis's errgroup fan-out leaves no
// goroutine running past the test, the way the teacher's evolution/bus
// tests guard their own concurrent components.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func noOpSanitizerGraph() *depgraph.DepGraph {
	g := depgraph.New()
	g.AddNode(&depgraph.Node{ID: 0, Kind: depgraph.Uninit, Field: "x"})
	g.AddNode(&depgraph.Node{ID: 1, Kind: depgraph.Sink, SinkArg: 0})
	g.AddEdge(0, 1)
	return g
}

// TestScenario1NoOpSanitizerIsVulnerable is spec.md §8 scenario 1.
func TestScenario1NoOpSanitizerIsVulnerable(t *testing.T) {
	g := noOpSanitizerGraph()
	verdicts, err := CombinedAnalysis(context.Background(), g, "x", automaton.AnyString(),
		[]Context{FromCatalogue("Html", attackpatterns.Html)}, 2, evaluator.DefaultLimits())
	if err != nil {
		t.Fatalf("CombinedAnalysis failed: %v", err)
	}
	v := verdicts[0]
	if v.Safe {
		t.Fatalf("expected scenario 1 (no-op sanitizer) to be vulnerable")
	}
	if !v.HasWitness {
		t.Fatalf("expected a witness string for scenario 1")
	}
	if !strings.ContainsAny(string(v.Witness), `<>"'&/`) {
		t.Fatalf("expected witness %q to contain an unescaped HTML-special byte", v.Witness)
	}
}

func htmlSpecialCharsGraph(mode string) *depgraph.DepGraph {
	g := depgraph.New()
	g.AddNode(&depgraph.Node{ID: 0, Kind: depgraph.Uninit, Field: "x"})
	g.AddNode(&depgraph.Node{ID: 1, Kind: depgraph.Op, OpKind: depgraph.OpHTMLSpecialChars, Args: []string{mode}, ArgIDs: []int{0}})
	g.AddNode(&depgraph.Node{ID: 2, Kind: depgraph.Sink, SinkArg: 1})
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	return g
}

// TestScenario2HTMLSpecialCharsEntQuotesIsSafe is spec.md §8 scenario 2.
func TestScenario2HTMLSpecialCharsEntQuotesIsSafe(t *testing.T) {
	g := htmlSpecialCharsGraph("ENT_QUOTES")
	verdicts, err := CombinedAnalysis(context.Background(), g, "x", automaton.AnyString(),
		[]Context{FromCatalogue("Html", attackpatterns.Html)}, 2, evaluator.DefaultLimits())
	if err != nil {
		t.Fatalf("CombinedAnalysis failed: %v", err)
	}
	if !verdicts[0].Safe {
		t.Fatalf("expected htmlspecialchars(ENT_QUOTES) into an Html sink to be safe, witness=%q", verdicts[0].Witness)
	}
}

// TestScenario3HTMLSpecialCharsNoQuotesLeaksQuoteIntoAttr is spec.md §8
// scenario 3.
func TestScenario3HTMLSpecialCharsNoQuotesLeaksQuoteIntoAttr(t *testing.T) {
	g := htmlSpecialCharsGraph("ENT_NOQUOTES")
	verdicts, err := CombinedAnalysis(context.Background(), g, "x", automaton.AnyString(),
		[]Context{FromCatalogue("HtmlAttr", attackpatterns.HtmlAttr)}, 2, evaluator.DefaultLimits())
	if err != nil {
		t.Fatalf("CombinedAnalysis failed: %v", err)
	}
	v := verdicts[0]
	if v.Safe {
		t.Fatalf("expected htmlspecialchars(ENT_NOQUOTES) into an HtmlAttr sink to be vulnerable")
	}
	if !v.HasWitness || !strings.Contains(string(v.Witness), `"`) {
		t.Fatalf("expected witness to contain a raw quote, got %q", v.Witness)
	}
}

func encodeURIComponentGraph() *depgraph.DepGraph {
	g := depgraph.New()
	g.AddNode(&depgraph.Node{ID: 0, Kind: depgraph.Uninit, Field: "x"})
	g.AddNode(&depgraph.Node{ID: 1, Kind: depgraph.Op, OpKind: depgraph.OpEncodeURIComponent, ArgIDs: []int{0}})
	g.AddNode(&depgraph.Node{ID: 2, Kind: depgraph.Sink, SinkArg: 1})
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	return g
}

// TestScenario4EncodeURIComponentIntoURLIsSafe is spec.md §8 scenario 4.
func TestScenario4EncodeURIComponentIntoURLIsSafe(t *testing.T) {
	g := encodeURIComponentGraph()
	verdicts, err := CombinedAnalysis(context.Background(), g, "x", automaton.AnyString(),
		[]Context{FromCatalogue("Url", attackpatterns.Url)}, 2, evaluator.DefaultLimits())
	if err != nil {
		t.Fatalf("CombinedAnalysis failed: %v", err)
	}
	if !verdicts[0].Safe {
		t.Fatalf("expected encodeURIComponent into a Url sink to be safe, witness=%q", verdicts[0].Witness)
	}
}

// TestScenario5EncodeURIComponentIntoHTMLIsVulnerable is spec.md §8
// scenario 5.
func TestScenario5EncodeURIComponentIntoHTMLIsVulnerable(t *testing.T) {
	g := encodeURIComponentGraph()
	verdicts, err := CombinedAnalysis(context.Background(), g, "x", automaton.AnyString(),
		[]Context{FromCatalogue("Html", attackpatterns.Html)}, 2, evaluator.DefaultLimits())
	if err != nil {
		t.Fatalf("CombinedAnalysis failed: %v", err)
	}
	if verdicts[0].Safe {
		t.Fatalf("expected encodeURIComponent into an Html sink to be vulnerable (percent-encoded bytes aren't HTML entities)")
	}
}

// TestScenario6CyclicConcatGraph is spec.md §8 scenario 6.
func TestScenario6CyclicConcatGraph(t *testing.T) {
	g := depgraph.New()
	g.AddNode(&depgraph.Node{ID: 0, Kind: depgraph.Uninit, Field: "x"})
	g.AddNode(&depgraph.Node{ID: 1, Kind: depgraph.Literal, Text: "a"})
	g.AddNode(&depgraph.Node{ID: 2, Kind: depgraph.Op, OpKind: depgraph.OpConcat, ArgIDs: []int{0, 1}})
	g.AddNode(&depgraph.Node{ID: 3, Kind: depgraph.Sink, SinkArg: 2})
	g.AddEdge(0, 2)
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(2, 0) // feeds back into x, per the cyclic scenario

	verdicts, err := CombinedAnalysis(context.Background(), g, "x", automaton.AnyString(),
		[]Context{FromCatalogue("LessThan", attackpatterns.LessThan)}, 2, evaluator.DefaultLimits())
	if err != nil {
		t.Fatalf("CombinedAnalysis failed on cyclic graph: %v", err)
	}
	v := verdicts[0]
	if v.Safe {
		t.Fatalf("expected the cyclic concat graph to be vulnerable under the LessThan context")
	}
	if !v.HasWitness || !strings.Contains(string(v.Witness), "<") {
		t.Fatalf("expected witness to contain '<', got %q", v.Witness)
	}
}

// TestCancellationAbortsForwardPass exercises the cooperative-cancellation
// path spec.md §5 requires.
func TestCancellationAbortsForwardPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := noOpSanitizerGraph()
	_, err := ForwardAnalysis(ctx, g, "x", automaton.AnyString(), evaluator.DefaultLimits())
	if err == nil {
		t.Fatalf("expected a cancelled context to abort the forward pass")
	}
}
