package automaton

import "github.com/soufianos01/sanitizer-checker/pkg/charset"

// nfaEdge is a labeled transition in a Thompson-style NFA. eps marks an
// epsilon move instead of a byte-consuming one; cs is unused on such edges.
type nfaEdge struct {
	cs  charset.CharSet
	to  int
	eps bool
}

type nfaState struct {
	out []nfaEdge
}

// nfa is the intermediate, non-deterministic representation used while
// building automata from regex syntax trees or from concat/star. It is
// always discarded after determinize(); it never escapes this package.
type nfa struct {
	states []nfaState
	accept map[int]bool
	start  int
}

func newNFA() *nfa {
	return &nfa{accept: map[int]bool{}}
}

func (n *nfa) newState() int {
	n.states = append(n.states, nfaState{})
	return len(n.states) - 1
}

func (n *nfa) addEps(from, to int) {
	n.states[from].out = append(n.states[from].out, nfaEdge{to: to, eps: true})
}

func (n *nfa) addTrans(from int, cs charset.CharSet, to int) {
	if cs.IsEmpty() {
		return
	}
	n.states[from].out = append(n.states[from].out, nfaEdge{cs: cs, to: to})
}

func (n *nfa) markAccept(s int) { n.accept[s] = true }

// literalNFA builds the chain automaton accepting exactly {s}.
func literalNFA(s []byte) *nfa {
	n := newNFA()
	cur := n.newState()
	n.start = cur
	for _, b := range s {
		next := n.newState()
		n.addTrans(cur, charset.Singleton(b), next)
		cur = next
	}
	n.markAccept(cur)
	return n
}

// epsilonNFA builds the automaton accepting exactly {epsilon}.
func epsilonNFA() *nfa {
	n := newNFA()
	n.start = n.newState()
	n.markAccept(n.start)
	return n
}

// emptyNFA builds the automaton accepting no string at all.
func emptyNFA() *nfa {
	n := newNFA()
	n.start = n.newState()
	return n
}

// anyByteNFA builds the automaton accepting exactly the one-byte strings in cs.
func anyByteNFA(cs charset.CharSet) *nfa {
	n := newNFA()
	n.start = n.newState()
	end := n.newState()
	n.addTrans(n.start, cs, end)
	n.markAccept(end)
	return n
}

// anyStringNFA builds the automaton accepting Sigma*.
func anyStringNFA() *nfa {
	n := newNFA()
	n.start = n.newState()
	n.markAccept(n.start)
	n.addTrans(n.start, charset.Universe(), n.start)
	return n
}

// append merges o's states into n (renumbered) and returns the offset
// applied to o's state indices, so callers can translate o's start/accept
// references into n's numbering.
func (n *nfa) append(o *nfa) int {
	offset := len(n.states)
	for _, st := range o.states {
		ns := n.newState()
		for _, e := range st.out {
			if e.eps {
				n.addEps(ns, e.to+offset)
			} else {
				n.addTrans(ns, e.cs, e.to+offset)
			}
		}
	}
	return offset
}

// concatNFA returns an automaton accepting L(a) . L(b).
func concatNFA(a, b *nfa) *nfa {
	n := newNFA()
	offA := n.append(a)
	offB := n.append(b)
	n.start = a.start + offA
	for s := range a.accept {
		n.addEps(s+offA, b.start+offB)
	}
	for s := range b.accept {
		n.markAccept(s + offB)
	}
	return n
}

// unionNFA returns an automaton accepting L(a) union L(b).
func unionNFA(a, b *nfa) *nfa {
	n := newNFA()
	offA := n.append(a)
	offB := n.append(b)
	n.start = n.newState()
	n.addEps(n.start, a.start+offA)
	n.addEps(n.start, b.start+offB)
	for s := range a.accept {
		n.markAccept(s + offA)
	}
	for s := range b.accept {
		n.markAccept(s + offB)
	}
	return n
}

// starNFA returns an automaton accepting L(a)* (the Kleene closure).
func starNFA(a *nfa) *nfa {
	n := newNFA()
	off := n.append(a)
	n.start = n.newState()
	n.markAccept(n.start)
	n.addEps(n.start, a.start+off)
	for s := range a.accept {
		n.markAccept(s + off)
		n.addEps(s+off, a.start+off)
	}
	return n
}

// plusNFA returns an automaton accepting L(a)+ (one or more repetitions).
func plusNFA(a *nfa) *nfa {
	return concatNFA(a, starNFA(a))
}

// optionalNFA returns an automaton accepting L(a) union {epsilon}.
func optionalNFA(a *nfa) *nfa {
	return unionNFA(a, epsilonNFA())
}
