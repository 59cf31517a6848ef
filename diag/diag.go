// Package diag is Nova's shared diagnostic schema: every component that can fail locally — the
// parser, name resolution, the type checker, flow analysis — reports
// its failures as values of this one shape rather than aborting, so the
// facade can collect them uniformly for diagnostics(file).
package diag

import "github.com/termfx/nova/internal/intern"

// Severity is how seriously a host should treat a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Code is a stable, machine-readable diagnostic tag. The set is closed
// so tests can assert on specific codes.
type Code string

const (
	CodeSyntaxError       Code = "syntax-error"
	CodeUnresolvedRef     Code = "unresolved-reference"
	CodeAmbiguousRef      Code = "ambiguous-reference"
	CodeAmbiguousOverload Code = "ambiguous-overload"
	CodeShadowedDecl      Code = "shadowed-declaration"
	CodeUnassigned        Code = "unassigned"
	CodeUnreachable       Code = "unreachable-code"
	CodePossibleNullDeref Code = "possible-null-deref"
	CodeCycle             Code = "cycle"
)

// Range is a half-open byte range within one file.
type Range struct {
	Start, End int
}

// RelatedInfo points a diagnostic at a secondary, explanatory location.
type RelatedInfo struct {
	File  intern.FileId
	Range Range
	Label string
}

// Diagnostic is one reported problem, always attached to a specific
// file and range, never an abort.
type Diagnostic struct {
	File     intern.FileId
	Range    Range
	Severity Severity
	Code     Code
	Message  string
	Related  []RelatedInfo
}
