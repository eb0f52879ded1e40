package depgraph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soufianos01/sanitizer-checker/internal/errs"
)

// LoadText reads the line-oriented dep-graph format from r:
//
//	node <id> uninit <field>
//	node <id> literal <quoted-string>
//	node <id> op <kind> <arg-id>...
//	node <id> sink <arg-id>
//	edge <from-id> <to-id>
//
// kind for an op node may carry parenthesized parameters, e.g.
// htmlspecialchars(ENT_QUOTES), matching the notation spec.md itself uses.
// Blank lines and lines starting with "#" are ignored. Edge lines may
// appear before or after the node lines they reference: each edge is
// wired as soon as its line is read, and LoadText does not check that its
// endpoints exist.
//
// This is a small bespoke line format with no upstream grammar to match
// (the original dep-graph producer is out of scope), so a hand-written
// bufio.Scanner reader is used rather than reaching for a general parser
// library — see DESIGN.md for this stdlib-use justification.
func LoadText(r io.Reader) (*DepGraph, error) {
	g := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "node":
			if err := parseNodeLine(g, fields, line, lineNo); err != nil {
				return nil, err
			}
		case "edge":
			if err := parseEdgeLine(g, fields, line, lineNo); err != nil {
				return nil, err
			}
		default:
			return nil, errs.New(errs.GraphInconsistent,
				fmt.Sprintf("line %d: unknown record kind %q", lineNo, fields[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.GraphInconsistent, "reading dep-graph text", err)
	}
	return g, nil
}

func parseNodeLine(g *DepGraph, fields []string, line string, lineNo int) error {
	if len(fields) < 3 {
		return errs.New(errs.GraphInconsistent, fmt.Sprintf("line %d: malformed node record %q", lineNo, line))
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return errs.Wrap(errs.GraphInconsistent, fmt.Sprintf("line %d: bad node id", lineNo), err)
	}
	switch fields[2] {
	case "uninit":
		if len(fields) != 4 {
			return errs.New(errs.GraphInconsistent, fmt.Sprintf("line %d: uninit node needs exactly one field name", lineNo))
		}
		g.AddNode(&Node{ID: id, Kind: Uninit, Field: fields[3]})
	case "literal":
		if len(fields) < 4 {
			return errs.New(errs.GraphInconsistent, fmt.Sprintf("line %d: literal node missing quoted string", lineNo))
		}
		raw := strings.TrimSpace(strings.SplitN(line, "literal", 2)[1])
		text, err := strconv.Unquote(raw)
		if err != nil {
			return errs.Wrap(errs.GraphInconsistent, fmt.Sprintf("line %d: malformed quoted literal %q", lineNo, raw), err)
		}
		g.AddNode(&Node{ID: id, Kind: Literal, Text: text})
	case "op":
		if len(fields) < 4 {
			return errs.New(errs.GraphInconsistent, fmt.Sprintf("line %d: op node missing kind", lineNo))
		}
		kind, params, err := parseOpToken(fields[3])
		if err != nil {
			return errs.Wrap(errs.GraphInconsistent, fmt.Sprintf("line %d", lineNo), err)
		}
		argIDs, err := parseIntList(fields[4:])
		if err != nil {
			return errs.Wrap(errs.GraphInconsistent, fmt.Sprintf("line %d: bad op arg-id list", lineNo), err)
		}
		g.AddNode(&Node{ID: id, Kind: Op, OpKind: kind, Args: params, ArgIDs: argIDs})
	case "sink":
		if len(fields) != 4 {
			return errs.New(errs.GraphInconsistent, fmt.Sprintf("line %d: sink node needs exactly one arg-id", lineNo))
		}
		argID, err := strconv.Atoi(fields[3])
		if err != nil {
			return errs.Wrap(errs.GraphInconsistent, fmt.Sprintf("line %d: bad sink arg-id", lineNo), err)
		}
		g.AddNode(&Node{ID: id, Kind: Sink, SinkArg: argID})
	default:
		return errs.New(errs.GraphInconsistent, fmt.Sprintf("line %d: unknown node tag %q", lineNo, fields[2]))
	}
	return nil
}

func parseEdgeLine(g *DepGraph, fields []string, line string, lineNo int) error {
	if len(fields) != 3 {
		return errs.New(errs.GraphInconsistent, fmt.Sprintf("line %d: malformed edge record %q", lineNo, line))
	}
	from, err := strconv.Atoi(fields[1])
	if err != nil {
		return errs.Wrap(errs.GraphInconsistent, fmt.Sprintf("line %d: bad edge from-id", lineNo), err)
	}
	to, err := strconv.Atoi(fields[2])
	if err != nil {
		return errs.Wrap(errs.GraphInconsistent, fmt.Sprintf("line %d: bad edge to-id", lineNo), err)
	}
	g.AddEdge(from, to)
	return nil
}

// parseOpToken splits a kind token like "htmlspecialchars(ENT_QUOTES)" into
// its OpKind and comma-separated parameter list. A token with no
// parentheses (e.g. "concat") has an empty parameter list.
func parseOpToken(tok string) (OpKind, []string, error) {
	name := tok
	var params []string
	if open := strings.IndexByte(tok, '('); open >= 0 {
		if !strings.HasSuffix(tok, ")") {
			return 0, nil, fmt.Errorf("malformed op parameters in %q", tok)
		}
		name = tok[:open]
		inner := tok[open+1 : len(tok)-1]
		if inner != "" {
			for _, p := range strings.Split(inner, ",") {
				params = append(params, strings.TrimSpace(p))
			}
		}
	}
	kind, ok := opKindByName[name]
	if !ok {
		return 0, nil, fmt.Errorf("unknown op kind %q", name)
	}
	return kind, params, nil
}

func parseIntList(fields []string) ([]int, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteText serializes g back into the same line format LoadText accepts,
// nodes in insertion order followed by edges in insertion order.
func WriteText(w io.Writer, g *DepGraph) error {
	bw := bufio.NewWriter(w)
	for _, id := range g.NodeIDs() {
		n, _ := g.NodeByID(id)
		var err error
		switch n.Kind {
		case Uninit:
			_, err = fmt.Fprintf(bw, "node %d uninit %s\n", n.ID, n.Field)
		case Literal:
			_, err = fmt.Fprintf(bw, "node %d literal %s\n", n.ID, strconv.Quote(n.Text))
		case Op:
			tok := n.OpKind.String()
			if len(n.Args) > 0 {
				tok = fmt.Sprintf("%s(%s)", tok, strings.Join(n.Args, ","))
			}
			parts := make([]string, len(n.ArgIDs))
			for i, a := range n.ArgIDs {
				parts[i] = strconv.Itoa(a)
			}
			_, err = fmt.Fprintf(bw, "node %d op %s %s\n", n.ID, tok, strings.Join(parts, " "))
		case Sink:
			_, err = fmt.Fprintf(bw, "node %d sink %d\n", n.ID, n.SinkArg)
		}
		if err != nil {
			return err
		}
	}
	for _, e := range g.Edges() {
		if _, err := fmt.Fprintf(bw, "edge %d %d\n", e.From, e.To); err != nil {
			return err
		}
	}
	return bw.Flush()
}
