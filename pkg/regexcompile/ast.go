package regexcompile

import "github.com/soufianos01/sanitizer-checker/pkg/charset"

// node is one AST node of a parsed regex. The parser builds a tree of
// these; compile walks the tree once to emit an NFA via automaton.Builder.
type node interface{}

type litNode struct{ b byte }

// anyByteNode matches any byte in Sigma, including newline — the resolved
// convention for this dialect's "." (see DESIGN.md's Open Question
// decisions).
type anyByteNode struct{}

type classNode struct{ cs charset.CharSet }

type concatNode struct{ parts []node }

type altNode struct{ options []node }

type starNode struct{ inner node }

type plusNode struct{ inner node }

type optNode struct{ inner node }

// repeatNode matches inner between min and max times, inclusive. max < 0
// means unbounded (the `{n,}` form).
type repeatNode struct {
	inner   node
	min, max int
}
