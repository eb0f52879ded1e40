package transducer

import "github.com/soufianos01/sanitizer-checker/pkg/charset"

// Mode selects which subset of `<>"'&/` htmlSpecialChars encodes, mirroring
// PHP's ENT_* flags named in spec.md §4.D.
type Mode int

const (
	// ENTNoQuotes encodes only < > &.
	ENTNoQuotes Mode = iota
	// ENTCompat adds " to ENTNoQuotes.
	ENTCompat
	// ENTQuotes adds ' to ENTCompat (both quote characters encoded).
	ENTQuotes
	// ENTSlash adds / to ENTQuotes.
	ENTSlash
)

// entity is the named-entity encoding applied to one special byte.
var entityFor = map[byte]string{
	'<':  "&lt;",
	'>':  "&gt;",
	'&':  "&amp;",
	'"':  "&quot;",
	'\'': "&#039;",
	'/':  "&#x2F;",
}

// specialBytesFor returns the bytes mode encodes, in the order given by
// spec.md §4.D: ENT_NOQUOTES encodes < > &; ENT_COMPAT adds "; ENT_QUOTES
// adds '; ENT_SLASH adds /. All others pass through unchanged.
func specialBytesFor(mode Mode) []byte {
	bytes := []byte{'<', '>', '&'}
	if mode >= ENTCompat {
		bytes = append(bytes, '"')
	}
	if mode >= ENTQuotes {
		bytes = append(bytes, '\'')
	}
	if mode >= ENTSlash {
		bytes = append(bytes, '/')
	}
	return bytes
}

// HTMLSpecialChars builds the transducer modeling htmlspecialchars(mode):
// every byte named for mode is rewritten to its named HTML entity; every
// other byte passes through unchanged.
func HTMLSpecialChars(mode Mode) Transducer {
	b := newBuilder()
	s := b.newState()
	b.setStart(s)
	b.markAccept(s)

	special := charset.Empty()
	for _, byt := range specialBytesFor(mode) {
		special = special.Union(charset.Singleton(byt))
		b.addRewrite(s, byt, []byte(entityFor[byt]), s)
	}
	b.addIdentity(s, special.Complement(), s)
	return b.build()
}

// EscapeHTMLTags builds the transducer that encodes only < and >, leaving
// every other byte (including " ' & /) unchanged.
func EscapeHTMLTags() Transducer {
	b := newBuilder()
	s := b.newState()
	b.setStart(s)
	b.markAccept(s)

	b.addRewrite(s, '<', []byte(entityFor['<']), s)
	b.addRewrite(s, '>', []byte(entityFor['>']), s)
	b.addIdentity(s, charset.Singleton('<').Union(charset.Singleton('>')).Complement(), s)
	return b.build()
}
