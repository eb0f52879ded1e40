package transducer

import (
	"strconv"

	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
	"github.com/soufianos01/sanitizer-checker/pkg/charset"
)

// Replace builds the transducer that scans for non-overlapping, left-to-
// right occurrences of from and replaces each one with some string in
// L(to), passing every other byte through unchanged.
//
// from is restricted to a literal: the shortest, lexicographically-first
// string in L(from) (via automaton.Sample) is the pattern actually
// matched. This mirrors how real search-and-replace sanitizers are
// configured (a fixed needle, e.g. "<script" or a single quote) rather
// than an arbitrary regular pattern, and keeps the construction a
// classical string-matching automaton instead of a general automaton
// intersection. If L(from) is empty or contains the empty string, no
// well-defined non-overlapping match exists, so Replace degrades to the
// identity transducer (every byte passed through unchanged).
func Replace(from, to automaton.Automaton) Transducer {
	lit, ok := automaton.Sample(from)
	if !ok || len(lit) == 0 {
		return identityTransducer()
	}
	m := len(lit)

	// pi is the KMP failure function: pi[i] is the length of the longest
	// proper prefix of lit[0:i+1] that is also a suffix of it.
	pi := make([]int, m)
	for i := 1; i < m; i++ {
		k := pi[i-1]
		for k > 0 && lit[i] != lit[k] {
			k = pi[k-1]
		}
		if lit[i] == lit[k] {
			k++
		}
		pi[i] = k
	}

	// delta[j] resolves, for every byte c, the pending-match length
	// reached by consuming c from state j. Computed bottom-up since
	// delta(j,c) for a mismatch always falls back to a strictly smaller
	// state (pi[j-1] < j).
	delta := make([][256]int, m)
	for j := 0; j < m; j++ {
		for c := 0; c < 256; c++ {
			if byte(c) == lit[j] {
				delta[j][c] = j + 1
				continue
			}
			if j == 0 {
				delta[j][c] = 0
				continue
			}
			delta[j][c] = delta[pi[j-1]][c]
		}
	}

	b := newBuilder()
	pending := make([]int, m)
	for j := 0; j < m; j++ {
		pending[j] = b.newState()
	}
	b.setStart(pending[0])
	b.markAccept(pending[0])

	embedded := make([]int, to.NumStates())
	for ts := range embedded {
		embedded[ts] = b.newState()
	}
	for ts := range embedded {
		for _, tr := range to.Transitions(ts) {
			b.addInsertion(embedded[ts], tr.CharSet, embedded[tr.To])
		}
		if to.IsAccept(ts) {
			b.addEpsilon(embedded[ts], pending[0])
		}
	}

	for j := 0; j < m; j++ {
		groups := map[string]*replaceGroup{}
		for c := 0; c < 256; c++ {
			byt := byte(c)

			var nextState int
			var flushUpTo int // index into (lit[0:j]+byt) to flush through, exclusive
			if byt == lit[j] {
				// Full match on this byte: nothing flushed, nothing
				// buffered either, since a complete match never reaches
				// the output as literal text.
				if j+1 == m {
					nextState = embedded[to.Start()]
				} else {
					nextState = pending[j+1]
				}
				flushUpTo = 0
			} else {
				jp := delta[j][c]
				nextState = pending[jp]
				flushUpTo = j + 1 - jp
			}

			var out []byte
			if flushUpTo > 0 {
				candidate := append(append([]byte{}, lit[:j]...), byt)
				out = candidate[:flushUpTo]
			}
			key := string(out) + "\x00" + strconv.Itoa(nextState)
			g, exists := groups[key]
			if !exists {
				g = &replaceGroup{out: out, to: nextState}
				groups[key] = g
			}
			g.bytes = append(g.bytes, byt)
		}
		for _, g := range groups {
			b.addFixedOutput(pending[j], byteSetOf(g.bytes), g.out, g.to)
		}
	}

	// End of input inside a partial match: flush the buffered prefix
	// lit[:j] through insertion edges into an accepting state with no
	// outgoing edges, so this path only survives when no input remains.
	for j := 1; j < m; j++ {
		cur := pending[j]
		for _, byt := range lit[:j] {
			next := b.newState()
			b.addInsertion(cur, charset.Singleton(byt), next)
			cur = next
		}
		b.markAccept(cur)
	}

	return b.build()
}

type replaceGroup struct {
	bytes []byte
	out   []byte
	to    int
}

// byteSetOf unions a list of concrete bytes into a CharSet.
func byteSetOf(bytes []byte) charset.CharSet {
	cs := charset.Empty()
	for _, b := range bytes {
		cs = cs.Union(charset.Singleton(b))
	}
	return cs
}

func identityTransducer() Transducer {
	b := newBuilder()
	s := b.newState()
	b.setStart(s)
	b.markAccept(s)
	b.addIdentity(s, charset.Universe(), s)
	return b.build()
}
