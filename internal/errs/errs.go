// Package errs defines the closed set of typed failures the analysis
// engine can raise, in the idiom of the browser session's own typed
// errors (internal/browser/jsbind.NavigationError): a struct carrying a
// classification plus an optional wrapped cause, so callers can branch on
// Kind with errors.As instead of matching error strings.
package errs

import "fmt"

// Kind classifies an AnalysisError. Using a dedicated type instead of a
// bare string or int keeps the enumeration closed at the type-check level
// the way agent.ErrorCode does for executor failures.
type Kind string

const (
	// MalformedRegex marks a failure to parse an attack-pattern or
	// sanitizer regex literal: unbalanced brackets, an empty quantifier
	// body, or an unknown escape sequence.
	MalformedRegex Kind = "MALFORMED_REGEX"
	// UnsupportedOperation marks a dependency-graph node whose Op kind
	// the evaluator has no transducer or automaton rule for.
	UnsupportedOperation Kind = "UNSUPPORTED_OPERATION"
	// GraphInconsistent marks a dependency graph that is malformed: an
	// unparsable record, a node id the evaluator cannot find, or an Op
	// node with the wrong number of arguments or an unknown mode.
	GraphInconsistent Kind = "GRAPH_INCONSISTENT"
	// Cancelled marks a worklist loop that observed ctx.Err() != nil.
	Cancelled Kind = "CANCELLED"
	// ResourceExhausted marks an automaton that grew past the
	// configured state-count ceiling before reaching a fixpoint.
	ResourceExhausted Kind = "RESOURCE_EXHAUSTED"
)

// AnalysisError is the one error type the analysis engine (regex
// compiler, dep-graph loader, evaluator) returns on failure; the CLI,
// config, reporting and store layers return plain wrapped errors. Msg is a short,
// human-readable description; Err, when non-nil, is the underlying cause.
type AnalysisError struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *AnalysisError) Unwrap() error { return e.Err }

// New builds an AnalysisError with no wrapped cause.
func New(kind Kind, msg string) *AnalysisError {
	return &AnalysisError{Kind: kind, Msg: msg}
}

// Wrap builds an AnalysisError around an existing cause.
func Wrap(kind Kind, msg string, cause error) *AnalysisError {
	return &AnalysisError{Kind: kind, Msg: msg, Err: cause}
}
