package lsp

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// The insertion point sits three characters before the end of the
// diagnostic's range. Ranges end at the start of the line after the finding,
// so this lands just before the expression's closing ");" and the newline,
// splicing the multiplication into the original expression. This convention
// only holds for the multiply-by-100 repair; any new repair kind needs its
// own attachment point.
const fixAttachmentOffset = 3

// ErrStaleFix marks a fix whose diagnostics predate the document's current
// version; applying it would use stale offsets.
var ErrStaleFix = errors.New("document changed since the diagnostic was computed")

// Convert 0-based LSP position -> absolute byte index in text. Columns are
// UTF-16 code units, the way clients count them. Reports false when the
// position lies beyond the document.
func offsetForPos(text string, pos protocol.Position) (int, bool) {
	line := int(pos.Line)
	i := 0
	curLine := 0
	for curLine < line {
		if i >= len(text) {
			return 0, false
		}
		if text[i] == '\n' {
			curLine++
		}
		i++
	}
	remaining := int(pos.Character)
	for remaining > 0 {
		if i >= len(text) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			return 0, false
		}
		remaining -= utf16RuneLen(r)
		i += size
	}
	return i, true
}

// posForOffset is the inverse: byte index -> LSP position with UTF-16
// columns.
func posForOffset(text string, off int) protocol.Position {
	var line, char uint32
	for i, r := range text {
		if i >= off {
			break
		}
		if r == '\n' {
			line++
			char = 0
			continue
		}
		char += uint32(utf16RuneLen(r))
	}
	return protocol.Position{Line: line, Character: char}
}

func utf16RuneLen(r rune) int {
	// Invalid runes encode as U+FFFD, yielding 1, matching utf16.RuneLen's
	// negative-result fallback.
	return len(utf16.Encode([]rune{r}))
}

// ComputeFix turns a fix payload into the single insert-only edit that
// performs the repair against the current text.
func ComputeFix(text string, r protocol.Range, change string) (protocol.TextEdit, error) {
	end, ok := offsetForPos(text, r.End)
	if !ok {
		return protocol.TextEdit{}, fmt.Errorf("range end %d:%d is outside the document", r.End.Line, r.End.Character)
	}
	at := end - fixAttachmentOffset
	if at < 0 {
		return protocol.TextEdit{}, fmt.Errorf("insertion offset %d is before the document start", at)
	}
	pos := posForOffset(text, at)
	return protocol.TextEdit{
		Range:   protocol.Range{Start: pos, End: pos},
		NewText: change,
	}, nil
}

// ResolveFix validates a fix payload against the live document state.
// diagsVersion is the version the document's diagnostics were computed
// against; when the document has moved past it the fix is rejected with
// ErrStaleFix and no edit is produced.
func ResolveFix(text string, docVersion, diagsVersion int32, args FixArgs) (protocol.TextEdit, error) {
	if diagsVersion != docVersion {
		return protocol.TextEdit{}, ErrStaleFix
	}
	return ComputeFix(text, args.Range, args.Change)
}
