package lsp

import (
	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"unitsense/internal/diag"
)

// FixData rides a diagnostic's data field through the client and comes back
// unchanged in the code-action request context.
type FixData struct {
	Title  string `json:"title"`
	Change string `json:"change"`
}

func toLspPosition(p diag.Pos) protocol.Position {
	line, err := safecast.Conv[uint32](p.Line)
	if err != nil {
		line = 0
	}
	char, err := safecast.Conv[uint32](p.Col)
	if err != nil {
		char = 0
	}
	return protocol.Position{Line: line, Character: char}
}

func toLspRange(r diag.Range) protocol.Range {
	return protocol.Range{Start: toLspPosition(r.Start), End: toLspPosition(r.End)}
}

func ToLspDiagnostics(ds []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		severity := protocol.DiagnosticSeverityError
		switch d.Severity {
		case diag.SeverityWarning:
			severity = protocol.DiagnosticSeverityWarning
		case diag.SeverityInfo:
			severity = protocol.DiagnosticSeverityInformation
		case diag.SeverityHint:
			severity = protocol.DiagnosticSeverityHint
		}

		source := d.Source
		if source == "" {
			source = "unitsense"
		}
		pd := protocol.Diagnostic{
			Range:    toLspRange(d.Range),
			Severity: &severity,
			Source:   ptrString(source),
			Message:  d.Message,
		}
		if d.Repair != nil {
			pd.Data = FixData{Title: d.Repair.Title, Change: d.Repair.Change}
		}
		out = append(out, pd)
	}
	return out
}

// PublishParams builds the full-replacement diagnostics push for a document
// at the version the diagnostics were computed against.
func PublishParams(uri string, version int32, ds []diag.Diagnostic) *protocol.PublishDiagnosticsParams {
	params := &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: ToLspDiagnostics(ds),
	}
	if v, err := safecast.Conv[uint32](version); err == nil {
		params.Version = &v
	}
	return params
}

func ptrString(s string) *string { return &s }
