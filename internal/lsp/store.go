package lsp

import (
	"context"
	"sync"

	"unitsense/internal/config"
	"unitsense/internal/diag"
)

type document struct {
	text    string
	version int32

	// Session context: cancelled on close so in-flight analyzer runs for
	// the document are abandoned.
	ctx    context.Context
	cancel context.CancelFunc

	// Diagnostics from the last completed analyzer run, and the document
	// version they were computed against.
	diags        []diag.Diagnostic
	diagsVersion int32
	hasDiags     bool

	// Analyzer settings resolved for this document, cached until close.
	settings    config.Analyzer
	hasSettings bool
}

// Store owns all per-document session state, keyed by URI. Entries are
// created on open and discarded on close.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*document
}

func NewStore() *Store {
	return &Store{docs: map[string]*document{}}
}

func (s *Store) Open(uri, text string, version int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.docs[uri]; ok {
		old.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.docs[uri] = &document{text: text, version: version, ctx: ctx, cancel: cancel}
}

// Update replaces the document text. Stale diagnostics are kept so that the
// version check in the fix path can reject them explicitly.
func (s *Store) Update(uri, text string, version int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[uri]; ok {
		d.text = text
		d.version = version
	}
}

func (s *Store) Get(uri string) (string, int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	if !ok {
		return "", 0, false
	}
	return d.text, d.version, true
}

func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[uri]; ok {
		d.cancel()
	}
	delete(s.docs, uri)
}

// Context returns the document's session context. Work keyed to the
// document should run under it so that closing the document cancels it.
func (s *Store) Context(uri string) (context.Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	if !ok {
		return nil, false
	}
	return d.ctx, true
}

// SetDiagnostics replaces the document's whole diagnostic set. It reports
// false when the document has been closed, in which case the caller should
// drop the pending publish.
func (s *Store) SetDiagnostics(uri string, version int32, ds []diag.Diagnostic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[uri]
	if !ok {
		return false
	}
	d.diags = ds
	d.diagsVersion = version
	d.hasDiags = true
	return true
}

func (s *Store) Diagnostics(uri string) ([]diag.Diagnostic, int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	if !ok || !d.hasDiags {
		return nil, 0, false
	}
	return d.diags, d.diagsVersion, true
}

func (s *Store) Settings(uri string) (config.Analyzer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	if !ok || !d.hasSettings {
		return config.Analyzer{}, false
	}
	return d.settings, true
}

func (s *Store) SetSettings(uri string, cfg config.Analyzer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[uri]; ok {
		d.settings = cfg
		d.hasSettings = true
	}
}
