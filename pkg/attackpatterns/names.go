package attackpatterns

// names gives each AttackContext a stable, kebab-case identifier for use
// on the command line and in reports, where the bare iota value would be
// meaningless to a reader.
var names = map[AttackContext]string{
	LessThan:                        "less-than",
	GreaterThan:                     "greater-than",
	Ampersand:                       "ampersand",
	Quote:                           "quote",
	SingleQuote:                     "single-quote",
	Slash:                           "slash",
	Backtick:                        "backtick",
	Equals:                          "equals",
	OpenParen:                       "open-paren",
	CloseParen:                      "close-paren",
	Space:                           "space",
	Comma:                           "comma",
	FullStop:                        "full-stop",
	Dash:                            "dash",
	Script:                          "script",
	Alert:                           "alert",
	Html:                            "html",
	HtmlMedium:                      "html-medium",
	HtmlMinimal:                     "html-minimal",
	HtmlNoSlash:                     "html-no-slash",
	HtmlBacktick:                    "html-backtick",
	HtmlAttr:                        "html-attr",
	HtmlPayload:                     "html-payload",
	HtmlAttributePayload:            "html-attribute-payload",
	HtmlSingleQuoteAttributePayload: "html-single-quote-attribute-payload",
	HtmlPolygotPayload:              "html-polyglot-payload",
	UrlPayload:                      "url-payload",
	JavaScript:                      "javascript",
	JavaScriptMinimal:               "javascript-minimal",
	Url:                             "url",
}

// String renders c's stable name, or "unknown" for a value outside the
// closed enumeration.
func (c AttackContext) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown"
}

// ParseContext resolves a name produced by String back to its
// AttackContext, for command-line parsing.
func ParseContext(name string) (AttackContext, bool) {
	for c, n := range names {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// ContextNames returns every known context name, in enum order, for
// listing available contexts (e.g. in CLI help text).
func ContextNames() []string {
	out := make([]string, 0, len(names))
	for c := LessThan; c <= Url; c++ {
		if n, ok := names[c]; ok {
			out = append(out, n)
		}
	}
	return out
}
