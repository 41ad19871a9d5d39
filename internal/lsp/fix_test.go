package lsp

import (
	"errors"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"unitsense/internal/diag"
	"unitsense/internal/report"
)

func TestComputeFixInsertsBeforeTerminator(t *testing.T) {
	text := "double z = 0.0;\nset_alt_in_cm(z);\nreturn 0;\n"
	// Finding on line 2 (1-based): range is (1,0)..(2,0).
	r := wholeLineRange(2)

	edit, err := ComputeFix(text, r, " * 100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edit.NewText != " * 100" {
		t.Fatalf("unexpected text: %q", edit.NewText)
	}
	if edit.Range.Start != edit.Range.End {
		t.Fatalf("expected an insert-only edit, got %+v", edit.Range)
	}
	// Offset of the range end is 34; minus 3 lands before ");\n",
	// line 1 (0-based), column 15.
	want := protocol.Position{Line: 1, Character: 15}
	if edit.Range.Start != want {
		t.Fatalf("unexpected insertion point: %+v", edit.Range.Start)
	}

	off, ok := offsetForPos(text, edit.Range.Start)
	if !ok {
		t.Fatalf("insertion point not addressable")
	}
	patched := text[:off] + edit.NewText + text[off:]
	if patched != "double z = 0.0;\nset_alt_in_cm(z * 100);\nreturn 0;\n" {
		t.Fatalf("unexpected patched text: %q", patched)
	}
}

func TestComputeFixRejectsOutOfRange(t *testing.T) {
	text := "a;\n"
	beyond := protocol.Range{
		Start: protocol.Position{Line: 4, Character: 0},
		End:   protocol.Position{Line: 5, Character: 0},
	}
	if _, err := ComputeFix(text, beyond, " * 100"); err == nil {
		t.Fatalf("expected an error for a range beyond the document")
	}

	// End offset smaller than the attachment offset.
	tiny := protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 1},
	}
	if _, err := ComputeFix("a", tiny, " * 100"); err == nil {
		t.Fatalf("expected an error when the insertion offset precedes the document")
	}
}

func TestComputeFixUtf16InsertionPoint(t *testing.T) {
	// Columns sent to the client are UTF-16 code units, not bytes.
	text := "v = π;\nset(π);\n"
	edit, err := ComputeFix(text, wholeLineRange(2), " * 100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := protocol.Position{Line: 1, Character: 5}
	if edit.Range.Start != want {
		t.Fatalf("unexpected insertion point: %+v", edit.Range.Start)
	}

	off, ok := offsetForPos(text, edit.Range.Start)
	if !ok {
		t.Fatalf("insertion point not addressable")
	}
	patched := text[:off] + edit.NewText + text[off:]
	if patched != "v = π;\nset(π * 100);\n" {
		t.Fatalf("unexpected patched text: %q", patched)
	}
}

func TestResolveFixRejectsMismatchedVersion(t *testing.T) {
	text := "update_alt(z);\n"
	args := FixArgs{
		URI:    "file:///src/alt.cpp",
		Change: " * 100",
		Range:  wholeLineRange(1),
	}

	// Diagnostics computed at version 1, document now at version 2.
	edit, err := ResolveFix(text, 2, 1, args)
	if !errors.Is(err, ErrStaleFix) {
		t.Fatalf("expected ErrStaleFix, got %v", err)
	}
	if edit != (protocol.TextEdit{}) {
		t.Fatalf("a rejected fix must produce no edit, got %+v", edit)
	}

	// Matching versions produce the same edit as the direct computation.
	edit, err = ResolveFix(text, 2, 2, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	direct, err := ComputeFix(text, args.Range, args.Change)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edit != direct {
		t.Fatalf("expected %+v, got %+v", direct, edit)
	}
}

func TestFixCycleFromAnalyzerLine(t *testing.T) {
	text := "double z = 3.0;\nupdate_alt(z);\nreturn;\n"
	d, ok := report.ParseLine("Assignment to z in /src/alt.cpp on line 2")
	if !ok {
		t.Fatalf("expected a diagnostic")
	}

	lspDiags := ToLspDiagnostics([]diag.Diagnostic{d})
	actions := QuickFixes("file:///src/alt.cpp", lspDiags[0].Range, lspDiags)
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	args, err := DecodeFixArgs(actions[0].Command.Arguments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edit, err := ResolveFix(text, 1, 1, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	off, ok := offsetForPos(text, edit.Range.Start)
	if !ok {
		t.Fatalf("insertion point not addressable")
	}
	patched := text[:off] + edit.NewText + text[off:]
	if patched != "double z = 3.0;\nupdate_alt(z * 100);\nreturn;\n" {
		t.Fatalf("unexpected patched text: %q", patched)
	}

	// The same payload against a moved-on document is rejected.
	if _, err := ResolveFix(patched, 2, 1, args); !errors.Is(err, ErrStaleFix) {
		t.Fatalf("expected ErrStaleFix, got %v", err)
	}
}

func TestOffsetPositionRoundTrip(t *testing.T) {
	text := "one;\ntwo;\nthree;\n"
	for off := 0; off <= len(text); off++ {
		pos := posForOffset(text, off)
		got, ok := offsetForPos(text, pos)
		if !ok || got != off {
			t.Fatalf("round trip failed at %d: pos=%+v got=%d ok=%v", off, pos, got, ok)
		}
	}
}
