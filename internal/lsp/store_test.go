package lsp

import (
	"context"
	"errors"
	"testing"

	"unitsense/internal/config"
	"unitsense/internal/diag"
)

func TestStoreReplacesDiagnostics(t *testing.T) {
	s := NewStore()
	s.Open("file:///a.cpp", "int x;\n", 1)

	first := []diag.Diagnostic{
		{Message: "Incorrect store to x.", Range: diag.WholeLine(1)},
		{Message: "Calls to f.", Range: diag.WholeLine(2)},
	}
	if !s.SetDiagnostics("file:///a.cpp", 1, first) {
		t.Fatalf("expected set to succeed")
	}

	second := []diag.Diagnostic{{Message: "Stores to y.", Range: diag.WholeLine(3)}}
	if !s.SetDiagnostics("file:///a.cpp", 1, second) {
		t.Fatalf("expected set to succeed")
	}

	ds, version, ok := s.Diagnostics("file:///a.cpp")
	if !ok || version != 1 {
		t.Fatalf("expected diagnostics at version 1, ok=%v version=%d", ok, version)
	}
	if len(ds) != 1 || ds[0].Message != "Stores to y." {
		t.Fatalf("revalidation must fully replace the prior set, got %+v", ds)
	}
}

func TestStoreDiagnosticsVersionTracksComputation(t *testing.T) {
	s := NewStore()
	s.Open("file:///a.cpp", "int x;\n", 1)
	s.SetDiagnostics("file:///a.cpp", 1, nil)
	s.Update("file:///a.cpp", "int x;\nint y;\n", 2)

	_, version, ok := s.Diagnostics("file:///a.cpp")
	if !ok || version != 1 {
		t.Fatalf("expected diagnostics pinned to version 1, ok=%v version=%d", ok, version)
	}
	_, docVersion, _ := s.Get("file:///a.cpp")
	if docVersion != 2 {
		t.Fatalf("expected document at version 2, got %d", docVersion)
	}
}

func TestStoreCloseDropsEverything(t *testing.T) {
	s := NewStore()
	s.Open("file:///a.cpp", "int x;\n", 1)
	s.SetSettings("file:///a.cpp", config.Default().Analyzer)
	s.Close("file:///a.cpp")

	if _, _, ok := s.Get("file:///a.cpp"); ok {
		t.Fatalf("expected document gone after close")
	}
	if _, ok := s.Settings("file:///a.cpp"); ok {
		t.Fatalf("expected settings gone after close")
	}
	if s.SetDiagnostics("file:///a.cpp", 1, nil) {
		t.Fatalf("a publish for a closed document must be dropped")
	}
}

func TestStoreSessionContextCancelledOnClose(t *testing.T) {
	s := NewStore()
	s.Open("file:///a.cpp", "int x;\n", 1)

	ctx, ok := s.Context("file:///a.cpp")
	if !ok || ctx.Err() != nil {
		t.Fatalf("expected a live session context, ok=%v err=%v", ok, ctx.Err())
	}

	s.Close("file:///a.cpp")
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Fatalf("expected the session context cancelled on close, got %v", ctx.Err())
	}
	if _, ok := s.Context("file:///a.cpp"); ok {
		t.Fatalf("expected no context for a closed document")
	}
}

func TestStoreReopenCancelsPriorSession(t *testing.T) {
	s := NewStore()
	s.Open("file:///a.cpp", "int x;\n", 1)
	first, _ := s.Context("file:///a.cpp")

	s.Open("file:///a.cpp", "int y;\n", 1)
	if !errors.Is(first.Err(), context.Canceled) {
		t.Fatalf("expected the prior session cancelled on reopen, got %v", first.Err())
	}
	second, ok := s.Context("file:///a.cpp")
	if !ok || second.Err() != nil {
		t.Fatalf("expected a fresh session context, ok=%v err=%v", ok, second.Err())
	}
}

func TestStoreSettingsCache(t *testing.T) {
	s := NewStore()
	s.Open("file:///a.cpp", "", 1)
	if _, ok := s.Settings("file:///a.cpp"); ok {
		t.Fatalf("expected no settings before caching")
	}
	cfg := config.Analyzer{Image: "checker:dev"}
	s.SetSettings("file:///a.cpp", cfg)
	got, ok := s.Settings("file:///a.cpp")
	if !ok || got.Image != "checker:dev" {
		t.Fatalf("unexpected settings: %+v ok=%v", got, ok)
	}
}
