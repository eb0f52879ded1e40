package automaton

import "github.com/soufianos01/sanitizer-checker/pkg/charset"

// Builder lets other packages (chiefly pkg/transducer) assemble an
// arbitrary non-deterministic, epsilon-bearing automaton and then hand it
// to this package's determinize+minimize pipeline, without duplicating
// that pipeline or reaching into automaton's unexported NFA type directly.
type Builder struct {
	n *nfa
}

// NewBuilder returns an empty Builder with no states.
func NewBuilder() *Builder {
	return &Builder{n: newNFA()}
}

// NewState allocates a fresh state and returns its index.
func (b *Builder) NewState() int { return b.n.newState() }

// SetStart designates s as the initial state.
func (b *Builder) SetStart(s int) { b.n.start = s }

// MarkAccept designates s as an accepting state.
func (b *Builder) MarkAccept(s int) { b.n.markAccept(s) }

// AddEpsilon adds a free (non-byte-consuming) move from from to to.
func (b *Builder) AddEpsilon(from, to int) { b.n.addEps(from, to) }

// AddByteTransition adds a move from from to to that consumes exactly one
// byte drawn from cs.
func (b *Builder) AddByteTransition(from int, cs charset.CharSet, to int) {
	b.n.addTrans(from, cs, to)
}

// AddByteChain adds a chain of single-byte transitions from from to to
// that consumes exactly the literal bytes in seq, in order. An empty seq
// is equivalent to AddEpsilon.
func (b *Builder) AddByteChain(from int, seq []byte, to int) {
	if len(seq) == 0 {
		b.AddEpsilon(from, to)
		return
	}
	cur := from
	for i, byt := range seq {
		next := to
		if i < len(seq)-1 {
			next = b.NewState()
		}
		b.AddByteTransition(cur, charset.Singleton(byt), next)
		cur = next
	}
}

// Build determinizes and minimizes the assembled automaton.
func (b *Builder) Build() Automaton {
	return minimize(determinize(b.n))
}
