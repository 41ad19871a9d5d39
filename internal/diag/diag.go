package diag

import "fmt"

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
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
		return "info"
	}
}

// Pos is a zero-based (line, column) position in a document.
type Pos struct {
	Line int
	Col  int
}

// Range is half-open: [Start, End).
type Range struct {
	Start Pos
	End   Pos
}

// WholeLine is the range covering reported 1-based line n. The analyzer
// reports a line number but no column, so every diagnostic spans the full
// line: start (n-1, 0), end (n, 0).
func WholeLine(n int) Range {
	return Range{Start: Pos{Line: n - 1}, End: Pos{Line: n}}
}

// Repair describes an automated fix for a diagnostic. Change is the exact
// text to insert.
type Repair struct {
	Title  string
	Change string
}

type Diagnostic struct {
	Severity Severity
	Range    Range
	Message  string
	Source   string  // file path as reported by the analyzer, display only
	Repair   *Repair // nil when no automated fix is known
}

func (d Diagnostic) Format() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.Source, d.Range.Start.Line+1, d.Severity.String(), d.Message)
}
