package transducer

import "github.com/soufianos01/sanitizer-checker/pkg/automaton"

// pairKey packs a (transducer-state, automaton-state) pair into one map key.
func pairKey(t, a int) int64 { return int64(t)<<32 | int64(uint32(a)) }

// Apply computes the post-image of a under t: the automaton accepting every
// output string t can produce while consuming some string in L(a).
//
// The construction is a product BFS over (transducer state, automaton
// state) pairs. Input-consuming edges advance both sides in lockstep on the
// intersection of what the edge accepts as input and what a's outgoing
// edge accepts; insertion edges advance only the transducer side and emit
// one byte from a non-empty output charset, leaving a's state untouched
// since no input is consumed.
func Apply(t Transducer, a automaton.Automaton) automaton.Automaton {
	b := automaton.NewBuilder()
	index := map[int64]int{}

	stateFor := func(ts, as int) int {
		k := pairKey(ts, as)
		if s, ok := index[k]; ok {
			return s
		}
		s := b.NewState()
		index[k] = s
		return s
	}

	start := stateFor(t.start, a.Start())
	b.SetStart(start)

	type pair struct{ ts, as int }
	seen := map[int64]bool{pairKey(t.start, a.Start()): true}
	queue := []pair{{t.start, a.Start()}}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		from := stateFor(p.ts, p.as)

		if t.accept[p.ts] && a.IsAccept(p.as) {
			b.MarkAccept(from)
		}

		for _, e := range t.edgesFrom(p.ts) {
			if e.hasInput {
				for _, ae := range a.Transitions(p.as) {
					atom := e.inCS.Intersect(ae.CharSet)
					if atom.IsEmpty() {
						continue
					}
					to := stateFor(e.to, ae.To)
					if e.identity {
						b.AddByteTransition(from, atom, to)
					} else {
						b.AddByteChain(from, e.out, to)
					}
					k := pairKey(e.to, ae.To)
					if !seen[k] {
						seen[k] = true
						queue = append(queue, pair{e.to, ae.To})
					}
				}
				continue
			}
			// Insertion edge: a's state is unchanged. A true epsilon
			// (empty outCS) is a free move; otherwise one output byte
			// chosen from e.outCS is emitted.
			to := stateFor(e.to, p.as)
			if e.outCS.IsEmpty() {
				b.AddEpsilon(from, to)
			} else {
				b.AddByteTransition(from, e.outCS, to)
			}
			k := pairKey(e.to, p.as)
			if !seen[k] {
				seen[k] = true
				queue = append(queue, pair{e.to, p.as})
			}
		}
	}

	return b.Build()
}

// Preimage computes the pre-image of out under t: the automaton accepting
// every input string t can consume while producing some string in L(out).
//
// This mirrors Apply's product construction but builds an automaton over
// the INPUT alphabet. Identity edges intersect their input charset directly
// against out's outgoing edges, since input and output coincide.
// Fixed-output edges instead walk their output bytes deterministically
// through out (out is always a total DFA) via Automaton.Step, since no
// branching is possible on a fixed sequence. Insertion edges consume no
// input, so they become epsilon moves guarded by out being able to accept
// at least one byte from the inserted charset.
func Preimage(t Transducer, out automaton.Automaton) automaton.Automaton {
	b := automaton.NewBuilder()
	index := map[int64]int{}

	stateFor := func(ts, os int) int {
		k := pairKey(ts, os)
		if s, ok := index[k]; ok {
			return s
		}
		s := b.NewState()
		index[k] = s
		return s
	}

	start := stateFor(t.start, out.Start())
	b.SetStart(start)

	type pair struct{ ts, os int }
	seen := map[int64]bool{pairKey(t.start, out.Start()): true}
	queue := []pair{{t.start, out.Start()}}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		from := stateFor(p.ts, p.os)

		if t.accept[p.ts] && out.IsAccept(p.os) {
			b.MarkAccept(from)
		}

		for _, e := range t.edgesFrom(p.ts) {
			if e.hasInput {
				if e.identity {
					for _, oe := range out.Transitions(p.os) {
						atom := e.inCS.Intersect(oe.CharSet)
						if atom.IsEmpty() {
							continue
						}
						to := stateFor(e.to, oe.To)
						b.AddByteTransition(from, atom, to)
						k := pairKey(e.to, oe.To)
						if !seen[k] {
							seen[k] = true
							queue = append(queue, pair{e.to, oe.To})
						}
					}
					continue
				}
				// Fixed-output rewrite: walk e.out through out
				// deterministically, then consume one input byte from
				// e.inCS (a singleton for rewrite edges, wider for
				// Replace's flush edges).
				os := p.os
				for _, byt := range e.out {
					os = out.Step(os, byt)
				}
				to := stateFor(e.to, os)
				b.AddByteTransition(from, e.inCS, to)
				k := pairKey(e.to, os)
				if !seen[k] {
					seen[k] = true
					queue = append(queue, pair{e.to, os})
				}
				continue
			}
			// Insertion edge: no input consumed. A true epsilon (empty
			// outCS) is a free move on the transducer side alone;
			// otherwise branch into every out-state reachable by some
			// byte in e.outCS.
			if e.outCS.IsEmpty() {
				to := stateFor(e.to, p.os)
				b.AddEpsilon(from, to)
				k := pairKey(e.to, p.os)
				if !seen[k] {
					seen[k] = true
					queue = append(queue, pair{e.to, p.os})
				}
				continue
			}
			for _, oe := range out.Transitions(p.os) {
				atom := e.outCS.Intersect(oe.CharSet)
				if atom.IsEmpty() {
					continue
				}
				to := stateFor(e.to, oe.To)
				b.AddEpsilon(from, to)
				k := pairKey(e.to, oe.To)
				if !seen[k] {
					seen[k] = true
					queue = append(queue, pair{e.to, oe.To})
				}
			}
		}
	}

	return b.Build()
}
