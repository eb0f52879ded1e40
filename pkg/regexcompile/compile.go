package regexcompile

import (
	"strings"

	"github.com/soufianos01/sanitizer-checker/internal/errs"
	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
	"github.com/soufianos01/sanitizer-checker/pkg/charset"
)

// anyByteSet is the charset "." matches. The source dialect's convention
// (resolved in DESIGN.md's Open Question decisions) is that "." matches
// every byte in Sigma, including newline — unlike most regex flavors'
// default, but matching how the source's attack-pattern regexes are
// actually written and tested against multi-line payloads.
func anyByteSet() charset.CharSet { return charset.Universe() }

// Compile parses the source's slash-delimited regex dialect (`/pattern/`)
// and returns the minimized automaton accepting exactly the strings the
// pattern matches. The supported grammar is given in the comments on
// parser.go's parse* methods.
func Compile(pattern string) (automaton.Automaton, error) {
	body, err := stripDelimiters(pattern)
	if err != nil {
		return automaton.Automaton{}, err
	}

	p := newParser(body)
	ast, err := p.parseAlternation()
	if err != nil {
		return automaton.Automaton{}, err
	}
	if !p.eof() {
		return automaton.Automaton{}, errs.New(errs.MalformedRegex, "unbalanced ) with no matching (")
	}

	b := automaton.NewBuilder()
	start := b.NewState()
	b.SetStart(start)
	end := emit(b, ast, start)
	b.MarkAccept(end)

	return b.Build(), nil
}

func stripDelimiters(pattern string) (string, error) {
	if !strings.HasPrefix(pattern, "/") {
		return "", errs.New(errs.MalformedRegex, "pattern must start with /")
	}
	rest := pattern[1:]
	idx := strings.LastIndex(rest, "/")
	if idx < 0 {
		return "", errs.New(errs.MalformedRegex, "pattern must end with /")
	}
	return rest[:idx], nil
}

// emit walks n, appending Thompson-construction states/edges to b starting
// at state from, and returns the state reached after matching n.
func emit(b *automaton.Builder, n node, from int) int {
	switch t := n.(type) {
	case litNode:
		to := b.NewState()
		b.AddByteChain(from, []byte{t.b}, to)
		return to

	case anyByteNode:
		to := b.NewState()
		b.AddByteTransition(from, anyByteSet(), to)
		return to

	case classNode:
		to := b.NewState()
		b.AddByteTransition(from, t.cs, to)
		return to

	case concatNode:
		cur := from
		for _, part := range t.parts {
			cur = emit(b, part, cur)
		}
		return cur

	case altNode:
		end := b.NewState()
		for _, opt := range t.options {
			optEnd := emit(b, opt, from)
			b.AddEpsilon(optEnd, end)
		}
		return end

	case starNode:
		loopStart := b.NewState()
		b.AddEpsilon(from, loopStart)
		innerEnd := emit(b, t.inner, loopStart)
		b.AddEpsilon(innerEnd, loopStart)
		end := b.NewState()
		b.AddEpsilon(loopStart, end)
		return end

	case plusNode:
		// One mandatory copy followed by a star of the same pattern.
		innerEnd := emit(b, t.inner, from)
		return emit(b, starNode{inner: t.inner}, innerEnd)

	case optNode:
		innerEnd := emit(b, t.inner, from)
		end := b.NewState()
		b.AddEpsilon(innerEnd, end)
		b.AddEpsilon(from, end)
		return end

	case repeatNode:
		return emitRepeat(b, t, from)

	default:
		// Unreachable: every node type produced by the parser is handled
		// above.
		return from
	}
}

func emitRepeat(b *automaton.Builder, t repeatNode, from int) int {
	cur := from
	for i := 0; i < t.min; i++ {
		cur = emit(b, t.inner, cur)
	}
	if t.max < 0 {
		// `{n,}`: min mandatory copies followed by Kleene star.
		return emit(b, starNode{inner: t.inner}, cur)
	}
	// `{n,m}`: min mandatory copies, then (max-min) optional copies, each
	// of which can be skipped via an epsilon straight to the shared end.
	end := b.NewState()
	b.AddEpsilon(cur, end)
	for i := t.min; i < t.max; i++ {
		next := emit(b, t.inner, cur)
		b.AddEpsilon(next, end)
		cur = next
	}
	return end
}
