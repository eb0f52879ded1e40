package automaton

// pairKey packs two state indices (bounded well under 2^32 for any
// automaton this analysis will ever build) into one map key for the
// product-construction worklist.
func pairKey(p, q int) int64 { return int64(p)<<32 | int64(uint32(q)) }

// product runs the standard DFA product construction: since a and b are
// both already total (every state's outgoing edges partition Sigma), the
// cross product of their edges at any pair of states also partitions
// Sigma, so no symbolic-alphabet refinement (minterms) is needed here —
// unlike determinize(), which must merge edges from many NFA states at
// once.
func product(a, b Automaton, combine func(acceptA, acceptB bool) bool) Automaton {
	indexOf := map[int64]int{}
	type pair struct{ p, q int }
	var pairs []pair

	start := pair{a.start, b.start}
	indexOf[pairKey(start.p, start.q)] = 0
	pairs = append(pairs, start)

	var trans [][]edge
	var accept []bool

	for i := 0; i < len(pairs); i++ {
		pr := pairs[i]
		var stateTrans []edge
		for _, ea := range a.trans[pr.p] {
			for _, eb := range b.trans[pr.q] {
				cs := ea.cs.Intersect(eb.cs)
				if cs.IsEmpty() {
					continue
				}
				np := pair{ea.to, eb.to}
				key := pairKey(np.p, np.q)
				to, ok := indexOf[key]
				if !ok {
					to = len(pairs)
					indexOf[key] = to
					pairs = append(pairs, np)
				}
				stateTrans = append(stateTrans, edge{cs: cs, to: to})
			}
		}
		trans = append(trans, stateTrans)
		accept = append(accept, combine(a.accept[pr.p], b.accept[pr.q]))
	}

	return Automaton{trans: trans, accept: accept, start: 0}
}

// Union returns the automaton accepting L(a) union L(b).
func Union(a, b Automaton) Automaton {
	return minimize(product(a, b, func(x, y bool) bool { return x || y }))
}

// Intersect returns the automaton accepting L(a) intersect L(b).
func Intersect(a, b Automaton) Automaton {
	return minimize(product(a, b, func(x, y bool) bool { return x && y }))
}

// Complement returns the automaton accepting Sigma* minus L(a).
func Complement(a Automaton) Automaton {
	t := totalize(a)
	accept := make([]bool, len(t.accept))
	for i, acc := range t.accept {
		accept[i] = !acc
	}
	return minimize(Automaton{trans: t.trans, accept: accept, start: t.start})
}

// toNFA embeds a (complete, deterministic) Automaton's structure into an nfa
// value so concat/star can be built uniformly via Thompson composition
// regardless of whether their operands came from determinize() or from a
// prior DFA-level operation.
func (a Automaton) toNFA() *nfa {
	n := newNFA()
	for range a.trans {
		n.newState()
	}
	for s, st := range a.trans {
		for _, e := range st {
			n.addTrans(s, e.cs, e.to)
		}
	}
	n.start = a.start
	for s, acc := range a.accept {
		if acc {
			n.markAccept(s)
		}
	}
	return n
}

// Concat returns the automaton accepting L(a) . L(b) (every string formed
// by a string from L(a) followed by a string from L(b)).
func Concat(a, b Automaton) Automaton {
	return minimize(determinize(concatNFA(a.toNFA(), b.toNFA())))
}

// KleeneStar returns the automaton accepting L(a)* (zero or more
// concatenated repetitions, including the empty string).
func KleeneStar(a Automaton) Automaton {
	return minimize(determinize(starNFA(a.toNFA())))
}

// Contains returns the automaton accepting Sigma* . {substr} . Sigma*: the
// language of all strings that contain substr anywhere.
func Contains(substr []byte) Automaton {
	return Concat(Concat(AnyString(), Literal(substr)), AnyString())
}

// Sample returns a shortest string in L(a), ties broken lexicographically
// by byte value, and true — or ("", false) if L(a) is empty.
func Sample(a Automaton) ([]byte, bool) {
	if IsEmpty(a) {
		return nil, false
	}
	if a.accept[a.start] {
		return nil, true
	}

	type entry struct {
		state int
		str   []byte
	}
	layer := []entry{{state: a.start, str: nil}}
	visited := map[int]bool{a.start: true}

	for len(layer) > 0 {
		best := map[int][]byte{}
		var bestOrder []int
		for _, e := range layer {
			for _, tr := range a.trans[e.state] {
				if visited[tr.to] {
					continue
				}
				b, ok := tr.cs.Min()
				if !ok {
					continue
				}
				cand := append(append([]byte{}, e.str...), b)
				if cur, ok := best[tr.to]; !ok {
					best[tr.to] = cand
					bestOrder = append(bestOrder, tr.to)
				} else if lexLess(cand, cur) {
					best[tr.to] = cand
				}
			}
		}

		var acceptedStrs [][]byte
		for _, s := range bestOrder {
			if a.accept[s] {
				acceptedStrs = append(acceptedStrs, best[s])
			}
		}
		if len(acceptedStrs) > 0 {
			winner := acceptedStrs[0]
			for _, s := range acceptedStrs[1:] {
				if lexLess(s, winner) {
					winner = s
				}
			}
			return winner, true
		}

		var nextLayer []entry
		for _, s := range bestOrder {
			if !visited[s] {
				visited[s] = true
				nextLayer = append(nextLayer, entry{state: s, str: best[s]})
			}
		}
		layer = nextLayer
	}
	return nil, false
}

func lexLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

