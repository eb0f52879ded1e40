// Package attackpatterns is the closed catalogue of context-specific
// "dangerous output" languages: for each AttackContext, either the
// complement of an allowed-character regex, the language of strings
// containing a literal character or payload needle, the exact-match
// language of a sample payload, or (for contexts with no pattern) the
// empty-string automaton.
package attackpatterns

import (
	"strings"
	"sync"

	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
	"github.com/soufianos01/sanitizer-checker/pkg/regexcompile"
)

// AttackContext is the closed tagged enumeration of output contexts the
// catalogue knows how to characterize.
type AttackContext int

const (
	LessThan AttackContext = iota
	GreaterThan
	Ampersand
	Quote
	SingleQuote
	Slash
	Backtick
	Equals
	OpenParen
	CloseParen
	Space
	Comma
	FullStop
	Dash
	Script
	Alert
	Html
	HtmlMedium
	HtmlMinimal
	HtmlNoSlash
	HtmlBacktick
	HtmlAttr
	HtmlPayload
	HtmlAttributePayload
	HtmlSingleQuoteAttributePayload
	HtmlPolygotPayload
	UrlPayload
	JavaScript
	JavaScriptMinimal
	Url
)

// entitiesPattern is the shared "one HTML character-reference" alternation
// spec.md §4.E's regex table abbreviates as "entities" inside several
// other patterns.
const entitiesPattern = `(&[a-zA-Z]+;|&#[xX][0-9a-fA-F]+;|&#[0-9]+;)`

// Regex literals reproduced byte-for-byte from spec.md §4.E, with
// "entities" expanded via entitiesPattern where the table abbreviates it.
// htmlEscapedAmpersand has no AttackContext of its own in spec.md §3 (no
// enum variant maps to it) but is reproduced here for completeness since
// it is part of the byte-for-byte regex table in spec.md §4.E.
// htmlEscapedNoSlashRegExp/htmlEscapedBacktickRegExp are likewise kept for
// completeness though build() doesn't reach for them: getHtmlNoSlashesPattern
// and getHtmlBacktickPattern exist in AttackPatterns.cpp but are never
// called from getAttackPatternForContext's switch.
var (
	htmlEscapedAmpersand     = `/([^&]+|` + entitiesPattern + `+)+/`
	htmlEscapedRegExp        = `/([^<>'"&\/]+|` + entitiesPattern + `+)+/`
	htmlMinimalRegExp        = `/[^<>]+/`
	htmlMediumRegExp         = `/[^<>'"]+/`
	htmlEscapedNoSlashRegExp = strings.ReplaceAll(`/([^<>'"&]+|(entities)+)+/`, "entities", entitiesPattern)
	htmlEscapedBacktickRegExp = strings.ReplaceAll("/([^<>'\"&`]+|(entities)+)+/", "entities", entitiesPattern)
	htmlAttrEscapedRegExp    = strings.ReplaceAll(`/([^\s%*+,\-\/;<=>\^'"\|]+|((entities)))+/`, "entities", entitiesPattern)
	javascriptEscapedRegExp  = `/([a-zA-Z0-9,._\s]+|((\\u[a-fA-F0-9]{4})|(\\x[a-fA-F0-9]{2})))+/`
	slashEscapeQuotes        = `/([^\\"']|((\\\\)|(\\")|(\\')))+/`
	urlEscapedRegExp         = `/([a-zA-Z0-9-_.!~*'()]+|((%[a-fA-F0-9]{2})))+/`
)

// Sample payload literals (strings, not regexes), reproduced verbatim from
// AttackPatterns.cpp's m_htmlPayload/m_htmlAttributePayload/
// m_htmlSingleQuoteAttributePayload/m_urlPayload/m_htmlPolygotPayload.
const (
	htmlPayloadSample                      = `<script>alert(1)</script>`
	htmlAttributePayloadSample             = `" onload="alert(1)`
	htmlSingleQuoteAttributePayloadSample  = `' onload='alert(1)`
	urlPayloadSample                       = `javascript:alert(1)`
	htmlPolygotPayloadSample               = `javascript:/*--></title></style></textarea></script></xmp><svg/onload='+/"/+/onmouseover=1/+/[*/[]/+alert(1)//'>`
)

var (
	once      sync.Once
	catalogue map[AttackContext]automaton.Automaton
)

// allowedFromRegEx builds the allowed-character language for r, unioned
// with the empty string per spec.md §4.E.
func allowedFromRegEx(r string) automaton.Automaton {
	a, err := regexcompile.Compile(r)
	if err != nil {
		// Catalogue regexes are fixed literals reproduced from spec.md;
		// a compile failure here is a programming error in this file,
		// not a runtime condition to recover from.
		panic("attackpatterns: malformed catalogue regex " + r + ": " + err.Error())
	}
	return automaton.UnionWithEmptyString(a)
}

// attackFromAllowed is the attack language for an allowed-character regex:
// everything the allowed language does NOT cover.
func attackFromAllowed(r string) automaton.Automaton {
	return automaton.Complement(allowedFromRegEx(r))
}

// singleCharAttack returns the language of strings containing the byte c
// anywhere, the "single-character attack patterns" rule from spec.md §4.E.
func singleCharAttack(c byte) automaton.Automaton {
	return automaton.Contains([]byte{c})
}

// exactPayloadAttack is the attack language of a sample payload used
// verbatim, e.g. AttackPatterns.cpp's getHtmlPayload (makeString): only the
// literal payload string itself counts as a hit, not any string containing
// it.
func exactPayloadAttack(payload string) automaton.Automaton {
	return automaton.Literal([]byte(payload))
}

// containsPayloadAttack is the attack language of strings containing
// payload anywhere, e.g. AttackPatterns.cpp's getHtmlPolygotPayload
// (makeContainsString) — the only payload context the source treats this
// way.
func containsPayloadAttack(payload string) automaton.Automaton {
	return automaton.Contains([]byte(payload))
}

func build() map[AttackContext]automaton.Automaton {
	m := map[AttackContext]automaton.Automaton{
		LessThan:    singleCharAttack('<'),
		GreaterThan: singleCharAttack('>'),
		Ampersand:   singleCharAttack('&'),
		Quote:       singleCharAttack('"'),
		SingleQuote: singleCharAttack('\''),
		Slash:       singleCharAttack('/'),
		Backtick:    singleCharAttack('`'),
		Equals:      singleCharAttack('='),
		OpenParen:   singleCharAttack('('),
		CloseParen:  singleCharAttack(')'),
		Space:       singleCharAttack(' '),
		Comma:       singleCharAttack(','),
		FullStop:    singleCharAttack('.'),
		Dash:        singleCharAttack('-'),

		// getAttackPatternForContext's Script/Alert cases both call
		// getSingleCharPattern, which despite its name builds a
		// contains-substring automaton (".*pattern.*"), not an exact match
		// and not the narrower "<script"/"alert(" needles.
		Script: containsPayloadAttack("script"),
		Alert:  containsPayloadAttack("alert"),

		Html:        attackFromAllowed(htmlEscapedRegExp),
		HtmlMedium:  attackFromAllowed(htmlMediumRegExp),
		HtmlMinimal: attackFromAllowed(htmlMinimalRegExp),
		HtmlAttr:    attackFromAllowed(htmlAttrEscapedRegExp),

		// HtmlNoSlash and HtmlBacktick have helper functions
		// (getHtmlNoSlashesPattern, getHtmlBacktickPattern) but no case in
		// getAttackPatternForContext's switch, so the source's default
		// (makeEmptyString) applies; they're intentionally absent from this
		// map and fall through to ForContext's empty-string default below.

		JavaScript:        attackFromAllowed(javascriptEscapedRegExp),
		JavaScriptMinimal: attackFromAllowed(slashEscapeQuotes),
		Url:               attackFromAllowed(urlEscapedRegExp),

		HtmlPayload:                     exactPayloadAttack(htmlPayloadSample),
		HtmlAttributePayload:            exactPayloadAttack(htmlAttributePayloadSample),
		HtmlSingleQuoteAttributePayload: exactPayloadAttack(htmlSingleQuoteAttributePayloadSample),
		HtmlPolygotPayload:              containsPayloadAttack(htmlPolygotPayloadSample),
		UrlPayload:                      exactPayloadAttack(urlPayloadSample),
	}
	return m
}

// ForContext returns the attack-pattern automaton for c. Contexts with no
// entry in build()'s map (HtmlNoSlash, HtmlBacktick, and any value outside
// the closed enumeration) default to the empty-string automaton, per spec.md §4.E's "every context must map to either a
// pattern above or the empty-string automaton".
func ForContext(c AttackContext) automaton.Automaton {
	once.Do(func() { catalogue = build() })
	if a, ok := catalogue[c]; ok {
		return a
	}
	return automaton.Literal(nil)
}
