package automaton

// LeftQuotient returns { w : exists p in L(prefix), p.w in L(a) } — the set
// of suffixes left over after stripping some string accepted by prefix off
// the front of a string accepted by a. This is the backward-analysis
// operator for the right argument of a two-operand Concat: if y = concat(a,
// b) and y's output must land in I, then b's required language is
// LeftQuotient(I, a).
func LeftQuotient(a, prefix Automaton) Automaton {
	type pair struct{ p, q int }
	start := pair{prefix.start, a.start}
	indexOf := map[int64]pair{pairKey(start.p, start.q): start}
	queue := []pair{start}
	reachable := map[int64]bool{pairKey(start.p, start.q): true}
	newStarts := map[int]bool{}

	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		if prefix.accept[cur.p] {
			newStarts[cur.q] = true
		}
		for _, ep := range prefix.trans[cur.p] {
			for _, ea := range a.trans[cur.q] {
				cs := ep.cs.Intersect(ea.cs)
				if cs.IsEmpty() {
					continue
				}
				np := pair{ep.to, ea.to}
				key := pairKey(np.p, np.q)
				if reachable[key] {
					continue
				}
				reachable[key] = true
				indexOf[key] = np
				queue = append(queue, np)
			}
		}
	}

	if len(newStarts) == 0 {
		return Empty()
	}

	n := a.toNFA()
	freshStart := n.newState()
	for q := range newStarts {
		n.addEps(freshStart, q)
	}
	n.start = freshStart
	return minimize(determinize(n))
}

// RightQuotient returns { w : exists s in L(suffix), w.s in L(a) } — the
// set of prefixes left over after stripping some string accepted by
// suffix off the back of a string accepted by a. This is the
// backward-analysis operator for the left argument of a two-operand
// Concat: if y = concat(a, b) and y's output must land in I, then a's
// required language is RightQuotient(I, b).
func RightQuotient(a, suffix Automaton) Automaton {
	type pair struct{ p, q int }

	// Build the full (a-state x suffix-state) product transition graph,
	// then find every a-state p such that (p, suffix.start) can reach a
	// joint-accept pair -- computed once via a single backward BFS from
	// every joint-accept pair, rather than one forward BFS per a-state.
	numA, numS := len(a.trans), len(suffix.trans)
	idx := func(p, q int) int { return p*numS + q }

	type fwdEdge struct{ to int }
	adj := make([][]int, numA*numS)
	var acceptPairs []int
	for p := 0; p < numA; p++ {
		for q := 0; q < numS; q++ {
			if a.accept[p] && suffix.accept[q] {
				acceptPairs = append(acceptPairs, idx(p, q))
			}
			for _, ea := range a.trans[p] {
				for _, es := range suffix.trans[q] {
					cs := ea.cs.Intersect(es.cs)
					if cs.IsEmpty() {
						continue
					}
					adj[idx(p, q)] = append(adj[idx(p, q)], idx(ea.to, es.to))
				}
			}
		}
	}

	// Reverse adjacency for the backward BFS.
	rev := make([][]int, numA*numS)
	for u, outs := range adj {
		for _, v := range outs {
			rev[v] = append(rev[v], u)
		}
	}

	canReachAccept := make([]bool, numA*numS)
	var queue []int
	for _, ap := range acceptPairs {
		if !canReachAccept[ap] {
			canReachAccept[ap] = true
			queue = append(queue, ap)
		}
	}
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		for _, v := range rev[u] {
			if !canReachAccept[v] {
				canReachAccept[v] = true
				queue = append(queue, v)
			}
		}
	}

	newAccept := make([]bool, numA)
	for p := 0; p < numA; p++ {
		newAccept[p] = canReachAccept[idx(p, suffix.start)]
	}

	return minimize(Automaton{trans: a.trans, accept: newAccept, start: a.start})
}
