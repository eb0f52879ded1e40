package regexcompile

import (
	"testing"

	"github.com/soufianos01/sanitizer-checker/internal/errs"
	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
)

func mustCompile(t *testing.T, pattern string) automaton.Automaton {
	t.Helper()
	a, err := Compile(pattern)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", pattern, err)
	}
	return a
}

func TestLiteralPattern(t *testing.T) {
	a := mustCompile(t, "/abc/")
	if !automaton.Accepts(a, []byte("abc")) {
		t.Fatalf("expected /abc/ to accept \"abc\"")
	}
	if automaton.Accepts(a, []byte("abcd")) {
		t.Fatalf("expected /abc/ to reject \"abcd\"")
	}
}

func TestAlternationAndGrouping(t *testing.T) {
	a := mustCompile(t, "/(cat|dog)s?/")
	for _, s := range []string{"cat", "cats", "dog", "dogs"} {
		if !automaton.Accepts(a, []byte(s)) {
			t.Fatalf("expected /(cat|dog)s?/ to accept %q", s)
		}
	}
	if automaton.Accepts(a, []byte("cad")) {
		t.Fatalf("expected /(cat|dog)s?/ to reject \"cad\"")
	}
}

func TestStarPlusQuestion(t *testing.T) {
	a := mustCompile(t, "/ab*c+d?/")
	for _, s := range []string{"ac", "abc", "abbbc", "acd", "abcccd"} {
		if !automaton.Accepts(a, []byte(s)) {
			t.Fatalf("expected /ab*c+d?/ to accept %q", s)
		}
	}
	if automaton.Accepts(a, []byte("ad")) {
		t.Fatalf("expected /ab*c+d?/ to reject \"ad\" (c+ requires at least one c)")
	}
}

func TestBoundedRepeat(t *testing.T) {
	a := mustCompile(t, `/a{2,3}/`)
	if automaton.Accepts(a, []byte("a")) {
		t.Fatalf("expected /a{2,3}/ to reject \"a\"")
	}
	if !automaton.Accepts(a, []byte("aa")) || !automaton.Accepts(a, []byte("aaa")) {
		t.Fatalf("expected /a{2,3}/ to accept \"aa\" and \"aaa\"")
	}
	if automaton.Accepts(a, []byte("aaaa")) {
		t.Fatalf("expected /a{2,3}/ to reject \"aaaa\"")
	}
}

func TestExactRepeat(t *testing.T) {
	a := mustCompile(t, `/\x41{4}/`)
	if !automaton.Accepts(a, []byte("AAAA")) {
		t.Fatalf("expected /\\x41{4}/ to accept \"AAAA\"")
	}
	if automaton.Accepts(a, []byte("AAA")) || automaton.Accepts(a, []byte("AAAAA")) {
		t.Fatalf("expected /\\x41{4}/ to reject anything but exactly 4 A's")
	}
}

func TestCharacterClassAndNegation(t *testing.T) {
	a := mustCompile(t, "/[a-z0-9]+/")
	if !automaton.Accepts(a, []byte("abc123")) {
		t.Fatalf("expected [a-z0-9]+ to accept \"abc123\"")
	}
	if automaton.Accepts(a, []byte("abc-123")) {
		t.Fatalf("expected [a-z0-9]+ to reject \"abc-123\" (- not in class)")
	}

	neg := mustCompile(t, "/[^<>]+/")
	if !automaton.Accepts(neg, []byte("hello")) {
		t.Fatalf("expected [^<>]+ to accept \"hello\"")
	}
	if automaton.Accepts(neg, []byte("<script>")) {
		t.Fatalf("expected [^<>]+ to reject a string containing <")
	}
}

func TestDotMatchesNewline(t *testing.T) {
	// Resolved Open Question: this dialect's "." matches every byte in
	// Sigma, including \n, unlike most regex flavors' default.
	a := mustCompile(t, "/a.b/")
	if !automaton.Accepts(a, []byte("a\nb")) {
		t.Fatalf("expected . to match newline under this dialect's convention")
	}
	if !automaton.Accepts(a, []byte("axb")) {
		t.Fatalf("expected . to match an ordinary byte")
	}
}

func TestWhitespaceEscape(t *testing.T) {
	a := mustCompile(t, `/a\sb/`)
	for _, s := range []string{"a b", "a\tb", "a\nb"} {
		if !automaton.Accepts(a, []byte(s)) {
			t.Fatalf("expected \\s to accept whitespace byte in %q", s)
		}
	}
	if automaton.Accepts(a, []byte("axb")) {
		t.Fatalf("expected \\s to reject a non-whitespace byte")
	}
}

func TestUnicodeEscapeEncodesUTF8Bytes(t *testing.T) {
	// \u{263A} is U+263A (WHITE SMILING FACE), a 3-byte UTF-8 sequence.
	a := mustCompile(t, `/\u{263A}/`)
	want := string([]byte{0xE2, 0x98, 0xBA})
	if !automaton.Accepts(a, []byte(want)) {
		t.Fatalf("expected \\u{263A} to match its UTF-8 encoding")
	}
}

func requireMalformed(t *testing.T, pattern string) {
	t.Helper()
	_, err := Compile(pattern)
	if err == nil {
		t.Fatalf("expected Compile(%q) to fail", pattern)
	}
	ae, ok := err.(*errs.AnalysisError)
	if !ok {
		t.Fatalf("expected *errs.AnalysisError, got %T", err)
	}
	if ae.Kind != errs.MalformedRegex {
		t.Fatalf("expected MalformedRegex, got %v", ae.Kind)
	}
}

func TestMalformedRegexUnbalancedBrackets(t *testing.T) {
	requireMalformed(t, "/[a-z/")
	requireMalformed(t, "/(abc/")
	requireMalformed(t, "/abc)/")
}

func TestMalformedRegexEmptyQuantifierBody(t *testing.T) {
	requireMalformed(t, "/a{}/")
	requireMalformed(t, "/a{,5}/")
}

func TestMalformedRegexUnknownEscape(t *testing.T) {
	requireMalformed(t, `/a\qb/`)
}

func TestMalformedRegexMissingDelimiters(t *testing.T) {
	requireMalformed(t, "abc")
	requireMalformed(t, "/abc")
}
