// Package automaton implements the symbolic DFA algebra at the heart of the
// analysis engine: construction, union/intersection/complement/concatenation,
// determinization, Hopcroft-style minimization, and the decision procedures
// (emptiness, subset, sampling) every other component builds on.
//
// Automaton is a value type. No operation in this package ever mutates an
// input Automaton or lets a result alias a caller-visible slice of one — the
// source's "return pointer, caller deletes" C++ idiom is replaced entirely by
// value semantics plus Go's garbage collector (see DESIGN.md's note on
// pkg/automaton).
package automaton

import "github.com/soufianos01/sanitizer-checker/pkg/charset"

// edge is one labeled transition out of a state. Every state's outgoing
// edges partition Sigma: for any byte b exactly one edge's CharSet contains
// it. This totality is what lets complement() simply flip accept bits.
type edge struct {
	cs charset.CharSet
	to int
}

// Automaton is a complete, deterministic, symbolic DFA over Sigma = {0..255}.
type Automaton struct {
	trans  [][]edge
	accept []bool
	start  int
}

// NumStates reports the number of states in the automaton's current
// (minimized) representation. Used by the evaluator to enforce the
// ResourceExhausted ceiling from spec.md §7.
func (a Automaton) NumStates() int { return len(a.trans) }

// Start returns the index of the initial state.
func (a Automaton) Start() int { return a.start }

// IsAccept reports whether state s is an accepting state.
func (a Automaton) IsAccept(s int) bool { return a.accept[s] }

// Transition is one outgoing, CharSet-labeled move exposed to callers that
// need to walk the automaton's structure directly (DOT serialization,
// transducer composition).
type Transition struct {
	CharSet charset.CharSet
	To      int
}

// Transitions returns the (total, partitioning) outgoing edges of state s.
func (a Automaton) Transitions(s int) []Transition {
	out := make([]Transition, len(a.trans[s]))
	for i, e := range a.trans[s] {
		out[i] = Transition{CharSet: e.cs, To: e.to}
	}
	return out
}

// Step follows the single total transition out of state s on byte b. It is
// the deterministic single-byte primitive transducer composition builds on
// to walk a multi-byte replacement string through a (total) output-side
// automaton when computing a pre-image.
func (a Automaton) Step(s int, b byte) int { return a.step(s, b) }

// step follows the single total transition out of state s on byte b.
func (a Automaton) step(s int, b byte) int {
	for _, e := range a.trans[s] {
		if e.cs.Contains(b) {
			return e.to
		}
	}
	// Unreachable if the automaton is well-formed (transitions are total);
	// fall back to whichever state exists to avoid a panic on malformed
	// internal state.
	return s
}

// Empty returns the automaton accepting no strings, in canonical form: a
// single non-accepting state with a self-loop on all of Sigma.
func Empty() Automaton {
	return Automaton{
		trans:  [][]edge{{{cs: charset.Universe(), to: 0}}},
		accept: []bool{false},
		start:  0,
	}
}

// Epsilon returns the automaton accepting exactly the empty string.
func Epsilon() Automaton {
	return minimize(determinize(epsilonNFA()))
}

// AnyString returns the automaton accepting Sigma* (every string).
func AnyString() Automaton {
	return Automaton{
		trans:  [][]edge{{{cs: charset.Universe(), to: 0}}},
		accept: []bool{true},
		start:  0,
	}
}

// Literal returns the automaton accepting exactly the single string s.
func Literal(s []byte) Automaton {
	if len(s) == 0 {
		return Epsilon()
	}
	return minimize(determinize(literalNFA(s)))
}

// UnionWithEmptyString returns A union {epsilon}.
func UnionWithEmptyString(a Automaton) Automaton {
	return Union(a, Epsilon())
}

// totalize ensures every state has a transition defined for all of Sigma,
// adding an explicit non-accepting dead state for any uncovered remainder.
// Determinize already produces total automata (minterms always cover
// Sigma), so this is primarily used by complement() and as a defensive
// normalization before minimize().
func totalize(a Automaton) Automaton {
	needsDead := false
	for _, st := range a.trans {
		covered := charset.Empty()
		for _, e := range st {
			covered = covered.Union(e.cs)
		}
		if !covered.Equals(charset.Universe()) {
			needsDead = true
			break
		}
	}
	if !needsDead {
		return a
	}

	dead := len(a.trans)
	trans := make([][]edge, len(a.trans)+1)
	accept := make([]bool, len(a.accept)+1)
	copy(accept, a.accept)

	for i, st := range a.trans {
		covered := charset.Empty()
		for _, e := range st {
			covered = covered.Union(e.cs)
		}
		newSt := append([]edge{}, st...)
		rest := covered.Complement()
		if !rest.IsEmpty() {
			newSt = append(newSt, edge{cs: rest, to: dead})
		}
		trans[i] = newSt
	}
	trans[dead] = []edge{{cs: charset.Universe(), to: dead}}

	return Automaton{trans: trans, accept: accept, start: a.start}
}

// reachableFrom returns the set of state indices reachable from start,
// following only byte-consuming (always total) transitions.
func reachableFrom(a Automaton, start int) map[int]bool {
	seen := map[int]bool{start: true}
	stack := []int{start}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range a.trans[s] {
			if !seen[e.to] {
				seen[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return seen
}

// IsEmpty reports whether a accepts no string at all: no accepting state is
// reachable from the start state.
func IsEmpty(a Automaton) bool {
	for s := range reachableFrom(a, a.start) {
		if a.accept[s] {
			return false
		}
	}
	return true
}

// ContainsEmptyString reports whether epsilon is in L(a).
func ContainsEmptyString(a Automaton) bool {
	return a.accept[a.start]
}

// SubsetOf reports whether L(a) is a subset of L(b).
func SubsetOf(a, b Automaton) bool {
	return IsEmpty(Intersect(a, Complement(b)))
}

// Accepts runs a over s and reports whether it reaches an accepting state.
// Every other membership-style decision in this package (IsEmpty,
// ContainsEmptyString, SubsetOf) is expressed in terms of whole-language
// operations rather than per-string simulation; Accepts is the one place a
// caller (chiefly tests) can check a single concrete string directly.
func Accepts(a Automaton, s []byte) bool {
	st := a.start
	for _, b := range s {
		st = a.step(st, b)
	}
	return a.accept[st]
}
