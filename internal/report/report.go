// Package report turns the analyzer's free-text output into diagnostics.
package report

import (
	"regexp"
	"strconv"
	"strings"

	"unitsense/internal/diag"
)

// Category identifies one known finding shape in the analyzer's output.
type Category int

const (
	CategoryIncorrectStore Category = iota
	CategoryVariableDecl
	CategoryAssignment
	CategoryCall
)

type rule struct {
	cat Category
	re  *regexp.Regexp
}

// The catalog order is load-bearing: it is tried top to bottom and the first
// match wins. Later patterns are more general and would shadow earlier ones
// if tried first. The wording is a fixed integration contract with the
// analyzer; if the analyzer's messages change, these patterns must too.
var catalog = []rule{
	{CategoryIncorrectStore, regexp.MustCompile(`Incorrect store to variable (?P<name>\S+) in (?P<file>\S+) line (?P<line>[0-9]+)\.`)},
	{CategoryVariableDecl, regexp.MustCompile(`Variable (?P<name>\S+) declared in (?P<file>\S+) on line (?P<line>[0-9]+)`)},
	{CategoryAssignment, regexp.MustCompile(`Assignment to (?P<name>\S+) in (?P<file>\S+) on line (?P<line>[0-9]+)`)},
	{CategoryCall, regexp.MustCompile(`Call to (?P<name>\S+) in (?P<file>\S+) on line (?P<line>[0-9]+)`)},
}

// ParseLine matches one output line against the catalog. Lines that match no
// rule, and matches whose line-number capture does not parse as a positive
// integer, yield no diagnostic.
func ParseLine(line string) (diag.Diagnostic, bool) {
	for _, r := range catalog {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[r.re.SubexpIndex("name")]
		file := m[r.re.SubexpIndex("file")]
		n, err := strconv.Atoi(m[r.re.SubexpIndex("line")])
		if err != nil || n <= 0 {
			continue
		}
		return fromCapture(r.cat, name, file, n), true
	}
	return diag.Diagnostic{}, false
}

func fromCapture(cat Category, name, file string, line int) diag.Diagnostic {
	d := diag.Diagnostic{
		Severity: diag.SeverityError,
		Range:    diag.WholeLine(line),
		Source:   file,
	}
	switch cat {
	case CategoryIncorrectStore, CategoryVariableDecl:
		d.Message = "Incorrect store to " + name + "."
		d.Repair = multiplyRepair(name)
	case CategoryAssignment:
		d.Message = "Stores to " + name + "."
		d.Repair = multiplyRepair(name)
	case CategoryCall:
		d.Message = "Calls to " + name + "."
	}
	return d
}

// The only repair kind the analyzer's findings support: scale the stored
// value by 100. The insertion text attaches inside the original expression;
// see lsp.ComputeFix for the placement convention.
func multiplyRepair(name string) *diag.Repair {
	return &diag.Repair{
		Title:  "Multiply " + name + " by 100.",
		Change: " * 100",
	}
}

// Parse collects the diagnostics for one full analyzer run, in output order.
// Duplicate lines produce duplicate diagnostics.
func Parse(output string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if d, ok := ParseLine(line); ok {
			out = append(out, d)
		}
	}
	return out
}
