package automaton

import "github.com/soufianos01/sanitizer-checker/pkg/charset"

// Widen returns an automaton that soundly over-approximates L(old) union
// L(new), shaped so that a fixpoint loop repeatedly calling Widen on its
// own successive iterates stops growing: apart from old's start state,
// each old state is followed together with at most one new state, and
// every further pairing is sent to one absorbing accept-everything state,
// rather than tracking new's structure precisely.
//
// This is a deliberate simplification of the widening operators described
// in the automata-widening literature (e.g. Bartzis & Bultan): a textbook
// widening picks the coarsest still-useful generalization per transition;
// this one instead detects, per old-automaton state, whether new requires
// more than one distinct continuation to explain the same old state and,
// the moment it does, collapses that branch to a single absorbing state
// that accepts everything from then on (the "generalize differing
// transitions to Sigma" from spec.md's description, applied at the
// granularity of whole states rather than individual edges). The trade-off
// mirrors minimize.go's partition-refinement note: easier to reason about
// correctness of, less precise than the textbook version.
func Widen(old, new Automaton) Automaton {
	to := totalize(old)
	tn := totalize(new)

	type pair struct{ o, n int }
	indexOf := map[int64]int{}
	var pairs []pair
	pairedWith := map[int]int{} // old-state -> the one new-state it's been paired with so far
	topState := -1

	ensureTop := func(trans *[][]edge, accept *[]bool) int {
		if topState >= 0 {
			return topState
		}
		topState = len(*trans)
		*trans = append(*trans, nil)
		*accept = append(*accept, true)
		(*trans)[topState] = []edge{{cs: charset.Universe(), to: topState}}
		return topState
	}

	start := pair{to.start, tn.start}
	indexOf[pairKey(start.o, start.n)] = 0
	pairs = append(pairs, start)
	pairedWith[start.o] = start.n

	var trans [][]edge
	var accept []bool
	trans = append(trans, nil)
	accept = append(accept, to.accept[start.o] || tn.accept[start.n])

	for i := 0; i < len(pairs); i++ {
		pr := pairs[i]
		if prevN, seen := pairedWith[pr.o]; pr.o != start.o && seen && prevN != pr.n {
			// Already reached this old-state via a different new-state:
			// new keeps branching past what old's structure can explain.
			// Collapse the whole branch to the absorbing top state.
			top := ensureTop(&trans, &accept)
			trans[i] = []edge{{cs: charset.Universe(), to: top}}
			continue
		}
		pairedWith[pr.o] = pr.n

		var stateTrans []edge
		for _, eo := range to.trans[pr.o] {
			for _, en := range tn.trans[pr.n] {
				cs := eo.cs.Intersect(en.cs)
				if cs.IsEmpty() {
					continue
				}
				np := pair{eo.to, en.to}
				key := pairKey(np.o, np.n)
				target, ok := indexOf[key]
				if !ok {
					target = len(pairs)
					indexOf[key] = target
					pairs = append(pairs, np)
					trans = append(trans, nil)
					accept = append(accept, to.accept[np.o] || tn.accept[np.n])
				}
				stateTrans = append(stateTrans, edge{cs: cs, to: target})
			}
		}
		trans[i] = stateTrans
	}

	return minimize(Automaton{trans: trans, accept: accept, start: 0})
}
