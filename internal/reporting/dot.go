package reporting

import (
	"fmt"
	"strings"

	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
)

// ToDOT serializes a to Graphviz DOT text, one node per automaton state and
// one edge per outgoing transition, labeled with the byte ranges it
// accepts. Accepting states are drawn as double circles the way Graphviz's
// own FSA examples do. Intended for the intersection automaton spec.md §6
// says a vulnerable verdict must carry, so a reader can render the exact
// attack-shaped residue a sink accepts.
func ToDOT(name string, a automaton.Automaton) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", strings.ReplaceAll(name, " ", "_"))
	b.WriteString("  rankdir=LR;\n")

	for s := 0; s < a.NumStates(); s++ {
		shape := "circle"
		if a.IsAccept(s) {
			shape = "doublecircle"
		}
		fmt.Fprintf(&b, "  s%d [shape=%s,label=\"%d\"];\n", s, shape, s)
	}
	fmt.Fprintf(&b, "  start [shape=point];\n  start -> s%d;\n", a.Start())

	for s := 0; s < a.NumStates(); s++ {
		for _, t := range a.Transitions(s) {
			fmt.Fprintf(&b, "  s%d -> s%d [label=%q];\n", s, t.To, rangesLabel(t.CharSet))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// rangesLabel renders a CharSet's accepted bytes as a compact, comma-joined
// list of ranges ("0-9,a-z") rather than materializing every matching
// byte individually.
func rangesLabel(cs interface{ Bytes() []byte }) string {
	bytes := cs.Bytes()
	if len(bytes) == 0 {
		return ""
	}
	if len(bytes) == 256 {
		return "*"
	}

	var parts []string
	lo, hi := bytes[0], bytes[0]
	flush := func() {
		if lo == hi {
			parts = append(parts, renderByte(lo))
		} else {
			parts = append(parts, renderByte(lo)+"-"+renderByte(hi))
		}
	}
	for _, b := range bytes[1:] {
		if int(b) == int(hi)+1 {
			hi = b
			continue
		}
		flush()
		lo, hi = b, b
	}
	flush()
	return strings.Join(parts, ",")
}

func renderByte(b byte) string {
	if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
		return string(rune(b))
	}
	return fmt.Sprintf("\\\\x%02x", b)
}
