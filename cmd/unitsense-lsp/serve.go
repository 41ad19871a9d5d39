package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"unitsense/internal/analyzer"
	"unitsense/internal/config"
	"unitsense/internal/diag"
	"unitsense/internal/lsp"
	"unitsense/internal/report"
)

var store = lsp.NewStore()
var handler protocol.Handler
var invoker *analyzer.Invoker

// Workspace-level config. When the --config flag names a file it wins over
// per-document discovery.
var baseCfg = config.Default()
var cfgPinned bool

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Run the language server over stdio",
	SilenceUsage: true,
	RunE:         runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	configureLogging(cmd)

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		baseCfg = cfg
		cfgPinned = true
	}
	invoker = analyzer.New(baseCfg.Analyzer.MaxConcurrent)

	handler = protocol.Handler{
		Initialize:              initialize,
		Initialized:             initialized,
		Shutdown:                shutdown,
		SetTrace:                setTrace,
		TextDocumentDidOpen:     textDocumentDidOpen,
		TextDocumentDidChange:   textDocumentDidChange,
		TextDocumentDidSave:     textDocumentDidSave,
		TextDocumentDidClose:    textDocumentDidClose,
		TextDocumentCodeAction:  textDocumentCodeAction,
		WorkspaceExecuteCommand: workspaceExecuteCommand,
	}

	srv := server.NewServer(&handler, lsName, false)
	return srv.RunStdio()
}

func initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if !cfgPinned && params.RootURI != nil {
		if root := lsp.UriToPath(*params.RootURI); root != "" {
			if cfg, path, err := config.Discover(root); err == nil {
				baseCfg = cfg
				if path != "" {
					log.Infof("using config %s", path)
				}
			} else {
				log.Warningf("config discovery failed: %s", err.Error())
			}
		}
	}

	full := protocol.TextDocumentSyncKindFull
	caps := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &protocol.True,
			Change:    &full,
			Save:      protocol.SaveOptions{IncludeText: &protocol.False},
		},
		CodeActionProvider: protocol.CodeActionOptions{
			CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
		},
		ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
			Commands: []string{lsp.CommandApplyFix},
		},
	}

	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: ptrString(version),
		},
	}, nil
}

func initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func shutdown(ctx *glsp.Context) error {
	return nil
}

func setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	store.Open(uri, params.TextDocument.Text, int32(params.TextDocument.Version))
	validate(ctx, uri)
	return nil
}

func textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if len(params.ContentChanges) == 0 {
		return nil
	}
	text, ok := extractFullText(params.ContentChanges[len(params.ContentChanges)-1])
	if !ok {
		return nil
	}
	store.Update(uri, text, int32(params.TextDocument.Version))
	return nil
}

func textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if _, _, ok := store.Get(uri); ok {
		validate(ctx, uri)
	}
	return nil
}

func textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	store.Close(uri)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// validate runs the analyzer off the handler goroutine: a container run takes
// seconds and must not hold up other protocol traffic. Concurrent runs for
// the same document are allowed; the last publish wins.
func validate(ctx *glsp.Context, uri string) {
	_, docVersion, ok := store.Get(uri)
	if !ok {
		return
	}
	go func() {
		ds := analyze(uri)
		if !store.SetDiagnostics(uri, docVersion, ds) {
			// Closed while the analyzer was running.
			return
		}
		ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, lsp.PublishParams(uri, docVersion, ds))
	}()
}

// analyze returns the parsed findings for one document, or nil when the
// invocation fails. Invocation failure is contained here: it is logged and
// the document gets an empty diagnostic set. The run is tied to the
// document's session context, so closing the document abandons it.
func analyze(uri string) []diag.Diagnostic {
	dir := lsp.DirForURI(uri)
	if dir == "" {
		return nil
	}
	ctx, ok := store.Context(uri)
	if !ok {
		return nil
	}
	cfg := settingsFor(uri, dir)
	out, err := invoker.Run(ctx, dir, cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		log.Warningf("analyzer failed for %s: %s", uri, err.Error())
		return nil
	}
	return report.Parse(out)
}

func settingsFor(uri, dir string) config.Analyzer {
	if cfg, ok := store.Settings(uri); ok {
		return cfg
	}
	cfg := baseCfg.Analyzer
	if !cfgPinned {
		if discovered, path, err := config.Discover(dir); err == nil && path != "" {
			cfg = discovered.Analyzer
		}
	}
	store.SetSettings(uri, cfg)
	return cfg
}

func textDocumentCodeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	uri := string(params.TextDocument.URI)
	if _, _, ok := store.Get(uri); !ok {
		return nil, nil
	}
	actions := lsp.QuickFixes(uri, params.Range, params.Context.Diagnostics)
	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

func workspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	if params.Command != lsp.CommandApplyFix {
		return nil, nil
	}
	args, err := lsp.DecodeFixArgs(params.Arguments)
	if err != nil {
		log.Errorf("rejected fix command: %s", err.Error())
		return nil, nil
	}

	text, docVersion, ok := store.Get(args.URI)
	if !ok {
		return nil, nil
	}
	_, diagsVersion, ok := store.Diagnostics(args.URI)
	if !ok {
		return nil, nil
	}

	edit, err := lsp.ResolveFix(text, docVersion, diagsVersion, args)
	if errors.Is(err, lsp.ErrStaleFix) {
		showMessage(ctx, protocol.MessageTypeWarning, "The quick fix is out of date. Save the file to re-run analysis.")
		return nil, nil
	}
	if err != nil {
		log.Errorf("rejected fix command: %s", err.Error())
		showMessage(ctx, protocol.MessageTypeWarning, "The quick fix could not be applied.")
		return nil, nil
	}

	apply := protocol.ApplyWorkspaceEditParams{
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				protocol.DocumentUri(args.URI): {edit},
			},
		},
	}
	var result struct {
		Applied bool `json:"applied"`
	}
	ctx.Call(protocol.ServerWorkspaceApplyEdit, &apply, &result)
	if !result.Applied {
		log.Warningf("client did not apply fix for %s", args.URI)
	}
	return nil, nil
}

func showMessage(ctx *glsp.Context, kind protocol.MessageType, message string) {
	ctx.Notify(protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
		Type:    kind,
		Message: message,
	})
}

func extractFullText(change any) (string, bool) {
	switch typed := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return typed.Text, true
	case protocol.TextDocumentContentChangeEvent:
		return typed.Text, true
	default:
		return "", false
	}
}

func ptrString(s string) *string { return &s }
