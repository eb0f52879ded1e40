package charset

import "testing"

func TestEmptyUniverse(t *testing.T) {
	if !Empty().IsEmpty() {
		t.Errorf("Empty() should be empty")
	}
	if Universe().IsEmpty() {
		t.Errorf("Universe() should not be empty")
	}
	for b := 0; b < 256; b++ {
		if !Universe().Contains(byte(b)) {
			t.Fatalf("Universe() should contain byte %d", b)
		}
	}
}

func TestSingletonRange(t *testing.T) {
	s := Singleton('a')
	if !s.Contains('a') {
		t.Errorf("singleton('a') should contain 'a'")
	}
	if s.Contains('b') {
		t.Errorf("singleton('a') should not contain 'b'")
	}

	r := Range('a', 'z')
	for b := byte('a'); b <= 'z'; b++ {
		if !r.Contains(b) {
			t.Errorf("range(a,z) should contain %q", b)
		}
	}
	if r.Contains('A') {
		t.Errorf("range(a,z) should not contain 'A'")
	}
}

func TestUnionIntersectComplement(t *testing.T) {
	az := Range('a', 'z')
	AZ := Range('A', 'Z')
	letters := az.Union(AZ)

	if !letters.Contains('m') || !letters.Contains('M') {
		t.Errorf("union should contain both cases")
	}
	if letters.Contains('5') {
		t.Errorf("union should not contain digit")
	}

	digits := Range('0', '9')
	alnum := letters.Union(digits)
	nonAlnum := alnum.Complement()
	if nonAlnum.Contains('a') || nonAlnum.Contains('5') {
		t.Errorf("complement of alnum should not contain alnum bytes")
	}
	if !nonAlnum.Contains('!') {
		t.Errorf("complement of alnum should contain '!'")
	}

	inter := az.Intersect(Range('m', 'z'))
	if inter.Contains('a') || !inter.Contains('m') || !inter.Contains('z') {
		t.Errorf("intersect(a-z, m-z) wrong: got %v", inter.Bytes())
	}
}

func TestComplementComplementIsIdentity(t *testing.T) {
	sets := []CharSet{Empty(), Universe(), Singleton('<'), Range('a', 'z')}
	for _, s := range sets {
		cc := s.Complement().Complement()
		if !cc.Equals(s) {
			t.Errorf("complement(complement(%v)) != %v", s.Bytes(), s.Bytes())
		}
	}
}

func TestEqualsIsInterned(t *testing.T) {
	a := Range('a', 'c').Union(Range('e', 'g'))
	b := Singleton('a').Union(Range('b', 'c')).Union(Singleton('e')).Union(Range('f', 'g'))
	if !a.Equals(b) {
		t.Errorf("equivalent constructions should be equal via interning: %v vs %v", a.Bytes(), b.Bytes())
	}
}

func TestAdjacentRangesMerge(t *testing.T) {
	a := Range(0, 127).Union(Range(128, 255))
	if !a.Equals(Universe()) {
		t.Errorf("adjacent ranges should merge into the universe, got %v bytes", len(a.Bytes()))
	}
}

func TestSubtract(t *testing.T) {
	alnum := Range('a', 'z').Union(Range('0', '9'))
	noDigits := alnum.Subtract(Range('0', '9'))
	if noDigits.Contains('5') {
		t.Errorf("subtract should remove digits")
	}
	if !noDigits.Contains('a') {
		t.Errorf("subtract should keep letters")
	}
}
