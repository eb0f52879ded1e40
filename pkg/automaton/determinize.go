package automaton

import (
	"sort"
	"strconv"
	"strings"

	"github.com/soufianos01/sanitizer-checker/pkg/charset"
)

// epsilonClosure returns the set of NFA states reachable from any state in
// seed via zero or more epsilon transitions, as a sorted slice (used as a
// canonical subset-construction key).
func epsilonClosure(n *nfa, seed []int) []int {
	seen := map[int]bool{}
	stack := append([]int{}, seed...)
	for _, s := range seed {
		seen[s] = true
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.states[s].out {
			if e.eps && !seen[e.to] {
				seen[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

func subsetKey(subset []int) string {
	parts := make([]string, len(subset))
	for i, s := range subset {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

// minterms computes a partition of Sigma into the coarsest set of
// pairwise-disjoint, non-empty atoms such that every set in css is exactly
// a union of atoms. This is the symbolic-alphabet analogue of "the set of
// distinct input symbols" in a textbook subset construction: instead of
// iterating 256 concrete bytes, we iterate only the atoms, at most
// 2^len(css) of them and never more than 256.
func minterms(css []charset.CharSet) []charset.CharSet {
	atoms := []charset.CharSet{charset.Universe()}
	for _, c := range css {
		if c.IsEmpty() {
			continue
		}
		var next []charset.CharSet
		for _, a := range atoms {
			in := a.Intersect(c)
			out := a.Subtract(c)
			if !in.IsEmpty() {
				next = append(next, in)
			}
			if !out.IsEmpty() {
				next = append(next, out)
			}
		}
		atoms = next
	}
	return atoms
}

// determinize runs subset construction over the symbolic alphabet,
// producing a complete (total), deterministic, but not-yet-minimized
// Automaton.
func determinize(n *nfa) Automaton {
	start := epsilonClosure(n, []int{n.start})
	startKey := subsetKey(start)

	indexOf := map[string]int{startKey: 0}
	subsets := [][]int{start}
	order := []string{startKey}

	var trans [][]edge
	var accept []bool

	for i := 0; i < len(subsets); i++ {
		subset := subsets[i]

		isAccept := false
		var css []charset.CharSet
		for _, s := range subset {
			if n.accept[s] {
				isAccept = true
			}
			for _, e := range n.states[s].out {
				if !e.eps {
					css = append(css, e.cs)
				}
			}
		}

		atoms := minterms(css)
		var stateTrans []edge
		for _, atom := range atoms {
			var dest []int
			for _, s := range subset {
				for _, e := range n.states[s].out {
					if !e.eps && e.cs.Intersect(atom).Equals(atom) {
						dest = append(dest, e.to)
					}
				}
			}
			closure := epsilonClosure(n, dest)
			key := subsetKey(closure)
			to, ok := indexOf[key]
			if !ok {
				to = len(subsets)
				indexOf[key] = to
				subsets = append(subsets, closure)
				order = append(order, key)
			}
			stateTrans = append(stateTrans, edge{cs: atom, to: to})
		}

		trans = append(trans, stateTrans)
		accept = append(accept, isAccept)
	}

	return totalize(Automaton{trans: trans, accept: accept, start: 0})
}
