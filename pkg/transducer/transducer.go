// Package transducer implements the fixed, library-provided finite-state
// transducers that model sanitizer operations (htmlspecialchars,
// encodeURIComponent, tag-only escaping, and substring replace), plus the
// generic composition engine that applies any Transducer to an
// automaton.Automaton to compute a post-image, or inverts the relation to
// compute a pre-image.
//
// Transducers here are never constructed at analysis time from
// user-controlled data (spec.md §3's "Transducer" contract) — each
// exported constructor in this package builds one of a small, fixed set of
// relations baked in at compile time; only Replace takes caller-supplied
// automata, and even then only as the from/to languages of a literal
// search-and-replace, not as arbitrary transducer structure.
package transducer

import "github.com/soufianos01/sanitizer-checker/pkg/charset"

// edge is one relation entry out of state "from". Two shapes exist:
//
//   - Input-consuming (hasInput=true): consumes exactly one input byte
//     drawn from inCS. If identity is true the byte consumed is emitted
//     unchanged (inCS may then be any union of ranges, since every byte
//     trivially maps to itself); otherwise the fixed sequence out is
//     emitted regardless of which byte in inCS was consumed. Rewrites
//     (entities, percent-encoding) use a singleton inCS; Replace's flush
//     edges share one output across a wider inCS.
//
//   - Insertion (hasInput=false): consumes no input byte at all and emits
//     one byte drawn from outCS, chosen non-deterministically. This is how
//     Replace walks the replacement automaton's structure: inserting text
//     that did not come from the input.
type edge struct {
	from, to int
	hasInput bool

	inCS     charset.CharSet
	identity bool
	out      []byte

	outCS charset.CharSet
}

// Transducer is a finite-state relation between an input byte sequence and
// an output byte sequence. A state's outgoing edges need not partition
// Sigma the way automaton.Automaton's do — a byte with no matching edge
// simply has no successor in this relation, which Apply/Preimage treat as
// "this path of the transducer rejects this input", not as an error.
type Transducer struct {
	edges  []edge
	start  int
	accept map[int]bool
	states int
}

// builder assembles a Transducer one state/edge at a time.
type builder struct {
	t Transducer
}

func newBuilder() *builder {
	return &builder{t: Transducer{accept: map[int]bool{}}}
}

func (b *builder) newState() int {
	s := b.t.states
	b.t.states++
	return s
}

func (b *builder) setStart(s int)   { b.t.start = s }
func (b *builder) markAccept(s int) { b.t.accept[s] = true }

func (b *builder) addIdentity(from int, cs charset.CharSet, to int) {
	if cs.IsEmpty() {
		return
	}
	b.t.edges = append(b.t.edges, edge{from: from, to: to, hasInput: true, inCS: cs, identity: true})
}

func (b *builder) addRewrite(from int, in byte, out []byte, to int) {
	b.addFixedOutput(from, charset.Singleton(in), out, to)
}

// addFixedOutput adds an input-consuming edge whose output does not depend
// on which byte in cs was consumed. Usually cs is a singleton (percent
// encoding, entity rewriting differ per input byte), but Replace's
// non-matching-byte transitions can share identical flush output across a
// wider charset, so this is exposed distinctly from addRewrite.
func (b *builder) addFixedOutput(from int, cs charset.CharSet, out []byte, to int) {
	if cs.IsEmpty() {
		return
	}
	b.t.edges = append(b.t.edges, edge{from: from, to: to, hasInput: true, inCS: cs, out: out})
}

// addInsertion adds a no-input edge that emits one byte chosen from outCS.
func (b *builder) addInsertion(from int, outCS charset.CharSet, to int) {
	if outCS.IsEmpty() {
		return
	}
	b.t.edges = append(b.t.edges, edge{from: from, to: to, hasInput: false, outCS: outCS})
}

// addEpsilon adds a no-input, no-output edge: a free move between states.
func (b *builder) addEpsilon(from, to int) {
	b.t.edges = append(b.t.edges, edge{from: from, to: to, hasInput: false, outCS: charset.Empty()})
}

func (b *builder) build() Transducer { return b.t }

func (t Transducer) edgesFrom(s int) []edge {
	var out []edge
	for _, e := range t.edges {
		if e.from == s {
			out = append(out, e)
		}
	}
	return out
}
