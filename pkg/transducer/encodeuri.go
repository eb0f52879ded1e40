package transducer

import "github.com/soufianos01/sanitizer-checker/pkg/charset"

const hexDigits = "0123456789ABCDEF"

// uriUnreserved is [A-Za-z0-9\-_.!~*'()], the set encodeURIComponent
// leaves untouched per spec.md §4.D.
func uriUnreserved() charset.CharSet {
	return charset.Range('A', 'Z').
		Union(charset.Range('a', 'z')).
		Union(charset.Range('0', '9')).
		Union(charset.Singleton('-')).
		Union(charset.Singleton('_')).
		Union(charset.Singleton('.')).
		Union(charset.Singleton('!')).
		Union(charset.Singleton('~')).
		Union(charset.Singleton('*')).
		Union(charset.Singleton('\'')).
		Union(charset.Singleton('(')).
		Union(charset.Singleton(')'))
}

// EncodeURIComponent builds the transducer that percent-encodes every byte
// outside [A-Za-z0-9\-_.!~*'()] and passes the rest through unchanged.
func EncodeURIComponent() Transducer {
	b := newBuilder()
	s := b.newState()
	b.setStart(s)
	b.markAccept(s)

	unreserved := uriUnreserved()
	b.addIdentity(s, unreserved, s)

	reserved := unreserved.Complement()
	for i := 0; i < 256; i++ {
		byt := byte(i)
		if !reserved.Contains(byt) {
			continue
		}
		out := []byte{'%', hexDigits[byt>>4], hexDigits[byt&0x0f]}
		b.addRewrite(s, byt, out, s)
	}
	return b.build()
}
