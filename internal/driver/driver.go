// Package driver exposes the three top-level analysis operations spec.md
// §4.G names: a forward pass, a single backward pass, and a combined
// analysis that runs one forward pass and fans backward passes out across
// it concurrently, one per requested context, grounded on the
// errgroup-based concurrent task fan-out in the teacher's idor.Detect.
package driver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/soufianos01/sanitizer-checker/internal/errs"
	"github.com/soufianos01/sanitizer-checker/internal/evaluator"
	"github.com/soufianos01/sanitizer-checker/pkg/attackpatterns"
	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
	"github.com/soufianos01/sanitizer-checker/pkg/depgraph"
)

// ForwardAnalysis runs a single forward pass over g for field, seeded with
// input (defaulting to Sigma* when the caller passes the zero Automaton).
func ForwardAnalysis(ctx context.Context, g *depgraph.DepGraph, field string, input automaton.Automaton, limits evaluator.Limits) (*evaluator.ForwardResult, error) {
	if input.NumStates() == 0 {
		input = automaton.AnyString()
	}
	return evaluator.ForwardPass(ctx, g, field, input, limits)
}

// Context names either an AttackContext from the catalogue or a
// caller-supplied automaton with its own name — spec.md §4.G's
// "an AttackContext ... or a user-supplied automaton plus a name".
type Context struct {
	Name string
	// Attack is used verbatim when set; otherwise AttackCtx is looked up
	// in the catalogue.
	Attack    automaton.Automaton
	AttackCtx attackpatterns.AttackContext
	HasAttack bool
}

// FromCatalogue builds a Context from a named AttackContext.
func FromCatalogue(name string, c attackpatterns.AttackContext) Context {
	return Context{Name: name, AttackCtx: c}
}

// FromAutomaton builds a Context from a caller-supplied attack automaton.
func FromAutomaton(name string, attack automaton.Automaton) Context {
	return Context{Name: name, Attack: attack, HasAttack: true}
}

func (c Context) resolve() automaton.Automaton {
	if c.HasAttack {
		return c.Attack
	}
	return attackpatterns.ForContext(c.AttackCtx)
}

// Verdict is the outcome of one (field, context) backward pass.
type Verdict struct {
	ContextName  string
	Safe         bool
	// Unknown marks a pass that could not reach a verdict because it hit
	// the automaton state-count ceiling (errs.ResourceExhausted) before
	// converging. Per spec.md §7 this must never be folded into Safe.
	Unknown      bool
	Reason       string
	// Witness, when HasWitness, is a sample input for field drawn from the
	// pre-image at the Uninit(field) node — a string that, if assigned to
	// field, reaches the sink in ctxSpec's attack language. Not a sample of
	// the sink's own output language, which a non-identity transformation
	// (htmlspecialchars, encodeURIComponent, concat with a literal, ...)
	// would make unreproducible by any input to field.
	Witness      []byte
	HasWitness   bool
	Intersection automaton.Automaton
}

// BackwardAnalysis runs a single backward pass against fr's sink(s) using
// ctxSpec's attack language, and reports the resulting Verdict. A
// ResourceExhausted failure is not propagated as an error: it is reported
// as an Unknown verdict, since giving up on convergence is not evidence of
// safety.
func BackwardAnalysis(ctx context.Context, fr *evaluator.ForwardResult, ctxSpec Context, limits evaluator.Limits) (Verdict, error) {
	attack := ctxSpec.resolve()
	sinkID, ok := findSink(fr.Graph)
	if !ok {
		return Verdict{ContextName: ctxSpec.Name, Safe: true}, nil
	}

	intersection := automaton.Intersect(fr.Values[sinkID], attack)
	br, err := evaluator.BackwardPass(ctx, fr, ctxSpec.Name, attack, limits)
	if err != nil {
		if ae, ok := err.(*errs.AnalysisError); ok && ae.Kind == errs.ResourceExhausted {
			return Verdict{ContextName: ctxSpec.Name, Unknown: true, Reason: ae.Error()}, nil
		}
		return Verdict{}, err
	}

	safe := br.IsSafe(intersection)
	v := Verdict{ContextName: ctxSpec.Name, Safe: safe, Intersection: intersection}
	if !safe {
		if uninit, ok := fr.Graph.UninitByField(fr.Field); ok {
			if preimage, ok := br.Values[uninit.ID]; ok {
				if witness, ok := automaton.Sample(preimage); ok {
					v.Witness = witness
					v.HasWitness = true
				}
			}
		}
	}
	return v, nil
}

func findSink(g *depgraph.DepGraph) (int, bool) {
	for _, id := range g.NodeIDs() {
		if n, ok := g.NodeByID(id); ok && n.Kind == depgraph.Sink {
			return id, true
		}
	}
	return 0, false
}

// CombinedAnalysis runs one forward pass then fans the given contexts'
// backward passes out concurrently (bounded by concurrency), each reusing
// the shared, read-only forward result.
func CombinedAnalysis(ctx context.Context, g *depgraph.DepGraph, field string, input automaton.Automaton, contexts []Context, concurrency int, limits evaluator.Limits) ([]Verdict, error) {
	fr, err := ForwardAnalysis(ctx, g, field, input, limits)
	if err != nil {
		return nil, err
	}

	verdicts := make([]Verdict, len(contexts))
	grp, groupCtx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		grp.SetLimit(concurrency)
	}

	for i, c := range contexts {
		i, c := i, c
		grp.Go(func() error {
			v, err := BackwardAnalysis(groupCtx, fr, c, limits)
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}
