package automaton

import (
	"testing"

	"github.com/soufianos01/sanitizer-checker/pkg/charset"
)

func acceptsAll(t *testing.T, a Automaton, strs ...string) {
	t.Helper()
	for _, s := range strs {
		if !Accepts(a, []byte(s)) {
			t.Errorf("expected %q to be accepted", s)
		}
	}
}

func rejectsAll(t *testing.T, a Automaton, strs ...string) {
	t.Helper()
	for _, s := range strs {
		if Accepts(a, []byte(s)) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestLiteralAcceptsExactlyItself(t *testing.T) {
	a := Literal([]byte("abc"))
	acceptsAll(t, a, "abc")
	rejectsAll(t, a, "", "ab", "abcd", "abd")
}

func TestEpsilonAndEmpty(t *testing.T) {
	if !ContainsEmptyString(Epsilon()) {
		t.Errorf("Epsilon() should contain the empty string")
	}
	if !IsEmpty(Empty()) {
		t.Errorf("Empty() should be empty")
	}
	if IsEmpty(Epsilon()) {
		t.Errorf("Epsilon() should not be empty (it contains \"\")")
	}
	if ContainsEmptyString(Empty()) {
		t.Errorf("Empty() should not contain the empty string")
	}
}

func TestAnyStringAcceptsEverything(t *testing.T) {
	a := AnyString()
	acceptsAll(t, a, "", "a", "hello world", "\x00\xff")
}

func TestUnionIntersect(t *testing.T) {
	a := Literal([]byte("foo"))
	b := Literal([]byte("bar"))
	u := Union(a, b)
	acceptsAll(t, u, "foo", "bar")
	rejectsAll(t, u, "baz", "")

	i := Intersect(a, b)
	if !IsEmpty(i) {
		t.Errorf("intersection of two disjoint literals should be empty")
	}

	same := Intersect(a, a)
	acceptsAll(t, same, "foo")
	rejectsAll(t, same, "bar")
}

func TestComplementComplementIsIdentity(t *testing.T) {
	a := Literal([]byte("xss"))
	cc := Complement(Complement(a))
	acceptsAll(t, cc, "xss")
	rejectsAll(t, cc, "", "xs", "xssy")
}

func TestConcatAndStar(t *testing.T) {
	ab := Concat(Literal([]byte("a")), Literal([]byte("b")))
	acceptsAll(t, ab, "ab")
	rejectsAll(t, ab, "a", "b", "abc", "")

	aStar := KleeneStar(Literal([]byte("a")))
	acceptsAll(t, aStar, "", "a", "aaaa")
	rejectsAll(t, aStar, "b", "aaab")
}

func TestContainsSubstr(t *testing.T) {
	c := Contains([]byte("<script>"))
	acceptsAll(t, c, "<script>", "xx<script>yy", "<script>alert(1)</script>")
	rejectsAll(t, c, "", "<scrip>", "scriptwithout brackets")
}

func TestSubsetOf(t *testing.T) {
	digits := rangeAuto('0', '9')
	alnum := Union(digits, rangeAuto('a', 'z'))
	if !SubsetOf(digits, alnum) {
		t.Errorf("digits should be a subset of alnum")
	}
	if SubsetOf(alnum, digits) {
		t.Errorf("alnum should not be a subset of digits")
	}
}

func TestSampleShortestLexFirst(t *testing.T) {
	a := Union(Literal([]byte("zz")), Union(Literal([]byte("b")), Literal([]byte("a"))))
	s, ok := Sample(a)
	if !ok {
		t.Fatalf("sample should find a string")
	}
	if string(s) != "a" {
		t.Errorf("expected shortest+lex-smallest sample 'a', got %q", s)
	}
}

func TestSampleEmptyIsNone(t *testing.T) {
	_, ok := Sample(Empty())
	if ok {
		t.Errorf("Sample(Empty()) should report no witness")
	}
}

func TestUnionWithEmptyString(t *testing.T) {
	a := Literal([]byte("x"))
	u := UnionWithEmptyString(a)
	if !ContainsEmptyString(u) {
		t.Errorf("UnionWithEmptyString should contain the empty string")
	}
	acceptsAll(t, u, "x", "")
}

func TestMinimizeIsAFixedPoint(t *testing.T) {
	a := Union(Literal([]byte("abc")), Literal([]byte("abd")))
	once := minimize(a)
	twice := minimize(once)
	if once.NumStates() != twice.NumStates() {
		t.Errorf("minimize should be a fixed point: %d vs %d states", once.NumStates(), twice.NumStates())
	}
}

func rangeAuto(lo, hi byte) Automaton {
	n := anyByteNFA(charset.Range(lo, hi))
	return minimize(determinize(n))
}
