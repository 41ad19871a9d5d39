package lsp

import (
	"encoding/json"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CommandApplyFix is the single command this server registers. Its arguments
// are [documentUri, insertionText, range].
const CommandApplyFix = "unitsense.applyFix"

// QuickFixes offers one action per in-context diagnostic that carries fix
// data and whose range equals the requested range in all four coordinates.
// Exact equality pins each fix to the diagnostic that produced it; an
// overlapping selection offers nothing.
func QuickFixes(uri string, requested protocol.Range, diags []protocol.Diagnostic) []protocol.CodeAction {
	var actions []protocol.CodeAction
	for _, d := range diags {
		if d.Range != requested {
			continue
		}
		data, ok := decodeFixData(d.Data)
		if !ok {
			continue
		}
		kind := protocol.CodeActionKindQuickFix
		actions = append(actions, protocol.CodeAction{
			Title:       data.Title,
			Kind:        &kind,
			Diagnostics: []protocol.Diagnostic{d},
			Command: &protocol.Command{
				Title:     data.Title,
				Command:   CommandApplyFix,
				Arguments: []any{uri, data.Change, d.Range},
			},
		})
	}
	return actions
}

// decodeFixData accepts both the server-side struct and the generic map the
// client echoes back through the code-action round trip.
func decodeFixData(data any) (FixData, bool) {
	switch v := data.(type) {
	case nil:
		return FixData{}, false
	case FixData:
		return v, v.Change != ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return FixData{}, false
		}
		var fd FixData
		if err := json.Unmarshal(b, &fd); err != nil {
			return FixData{}, false
		}
		return fd, fd.Change != ""
	}
}

// FixArgs is the decoded payload of a CommandApplyFix invocation.
type FixArgs struct {
	URI    string
	Change string
	Range  protocol.Range
}

// DecodeFixArgs validates the wire arguments of an execute-command request.
// Arguments arrive as untyped JSON values.
func DecodeFixArgs(args []any) (FixArgs, error) {
	if len(args) != 3 {
		return FixArgs{}, fmt.Errorf("expected 3 arguments, got %d", len(args))
	}
	uri, ok := args[0].(string)
	if !ok || uri == "" {
		return FixArgs{}, fmt.Errorf("argument 0: expected document uri")
	}
	change, ok := args[1].(string)
	if !ok || change == "" {
		return FixArgs{}, fmt.Errorf("argument 1: expected insertion text")
	}
	b, err := json.Marshal(args[2])
	if err != nil {
		return FixArgs{}, fmt.Errorf("argument 2: %w", err)
	}
	var r protocol.Range
	if err := json.Unmarshal(b, &r); err != nil {
		return FixArgs{}, fmt.Errorf("argument 2: %w", err)
	}
	return FixArgs{URI: uri, Change: change, Range: r}, nil
}
