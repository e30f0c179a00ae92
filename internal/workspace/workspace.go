// Copyright 2024 The HLASM Language Server Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workspace owns the set of opened files and their analyses for one
// HLASM project root: processor-group libraries, a per-file diagnostics
// accumulator, and the parse queue the orchestrator drains.
package workspace

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/eclipse-che4z/hlasm-language-server/internal/ca"
	"github.com/eclipse-che4z/hlasm-language-server/internal/library"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
)

// SymbolKind distinguishes the entities document_symbol/completion report.
type SymbolKind int

const (
	SymbolOrdinary SymbolKind = iota
	SymbolMacro
	SymbolSection
	SymbolOpcode
)

// Symbol is one named entity discovered by analysis.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Range resource.Range
}

// Analysis is the per-file result of parsing: diagnostics, the symbol
// table, and the cross-reference maps the query operations read from.
// Keyed by symbol name; a real implementation may key references by
// position too, but the core only needs name-addressed lookups plus a
// position-to-symbol resolver (ResolveAt).
type Analysis struct {
	Version     int64
	Statements  int
	Diagnostics []ca.Diagnostic
	Symbols     []Symbol
	Definitions map[string]resource.Location
	References  map[string][]resource.Location
	Hovers      map[string]string
}

// ResolveAt returns the symbol name whose range contains pos, if any. It is
// a simple linear scan: analyses are per-file and the symbol table for a
// single HLASM member is small enough that this never shows up in a
// profile the way the macro cache's reuse does.
func (a Analysis) ResolveAt(pos resource.Position) (string, bool) {
	for _, s := range a.Symbols {
		if withinRange(pos, s.Range) {
			return s.Name, true
		}
	}
	return "", false
}

func withinRange(pos resource.Position, r resource.Range) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character >= r.End.Character {
		return false
	}
	return true
}

// Analyzer is the out-of-scope collaborator that turns file content plus
// the libraries visible to it into an Analysis. The statement lexer/parser
// and macro/copy expansion live behind this seam. version is the file
// manager's version stamp for content, threaded through so the analyzer
// can stamp (and validate) its macro cache against it.
type Analyzer interface {
	Analyze(ctx context.Context, loc resource.Location, content string, version int64, libs []*library.Library) (Analysis, error)
}

// ParseTask is the result of running one file's parse to completion.
type ParseTask struct {
	Location   resource.Location
	Statements int
	Errors     []ca.Diagnostic
	Warnings   []ca.Diagnostic
}

// Workspace owns one project root's libraries, open files, and analyses.
type Workspace struct {
	Root resource.Location

	mu       sync.Mutex
	files    *resource.Manager
	analyzer Analyzer
	groups   map[string][]*library.Library
	analyses map[resource.Location]*Analysis
	pending  []resource.Location
	settings json.RawMessage
	quiet    bool
}

// Option configures a Workspace at construction.
type Option func(*Workspace)

// WithQuiet marks the workspace as the quiet implicit fallback: diagnostics
// are computed but never surfaced.
func WithQuiet(quiet bool) Option {
	return func(w *Workspace) { w.quiet = quiet }
}

// New constructs a Workspace rooted at root, backed by files for content
// tracking and analyzer for turning content into an Analysis.
func New(root resource.Location, files *resource.Manager, analyzer Analyzer, opts ...Option) *Workspace {
	w := &Workspace{
		Root:     root,
		files:    files,
		analyzer: analyzer,
		groups:   make(map[string][]*library.Library),
		analyses: make(map[resource.Location]*Analysis),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Quiet reports whether this is the quiet implicit workspace.
func (w *Workspace) Quiet() bool { return w.quiet }

// SetGroup assigns the libraries that back a named processor group.
func (w *Workspace) SetGroup(name string, libs []*library.Library) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.groups[name] = libs
}

// librariesFor returns the libraries of the processor group named group
// when one is configured; otherwise it returns every library across every
// processor group, with the order between groups not defined.
func (w *Workspace) librariesFor(group string) []*library.Library {
	w.mu.Lock()
	defer w.mu.Unlock()
	if libs, ok := w.groups[group]; ok {
		return libs
	}
	var all []*library.Library
	for _, libs := range w.groups {
		all = append(all, libs...)
	}
	return all
}

// Open marks every currently-tracked file under Root as needing a parse.
func (w *Workspace) Open(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for loc := range w.analyses {
		w.pending = append(w.pending, loc)
	}
	return nil
}

// DidOpenFile queues loc for parsing.
func (w *Workspace) DidOpenFile(loc resource.Location, _ resource.State) {
	w.enqueueParse(loc)
}

// DidChangeFile queues loc for a reparse.
func (w *Workspace) DidChangeFile(loc resource.Location, state resource.State) {
	if state == resource.Identical {
		return
	}
	w.enqueueParse(loc)
}

// DidCloseFile drops loc's analysis; it is no longer an opened file, but a
// reference may still be held by another file's cached macro dependency.
func (w *Workspace) DidCloseFile(loc resource.Location) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.analyses, loc)
}

// DidChangeWatchedFiles queues every changed location for a reparse.
func (w *Workspace) DidChangeWatchedFiles(locs []resource.Location, states []resource.State) {
	for i, loc := range locs {
		if i < len(states) && states[i] == resource.Identical {
			continue
		}
		w.enqueueParse(loc)
	}
}

// SettingsUpdated replaces the workspace's settings JSON, reporting
// whether the effective configuration actually changed.
func (w *Workspace) SettingsUpdated(raw json.RawMessage) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if string(raw) == string(w.settings) {
		return false
	}
	w.settings = raw
	for loc := range w.analyses {
		w.pending = append(w.pending, loc)
	}
	return true
}

// Settings returns the workspace's current settings JSON, as last replaced
// by SettingsUpdated.
func (w *Workspace) Settings() json.RawMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

func (w *Workspace) enqueueParse(loc resource.Location) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, loc)
}

// ParseFile pops the next file needing a parse and runs the analyzer
// against its current content, or reports false if the workspace is
// quiescent.
func (w *Workspace) ParseFile(ctx context.Context) (*ParseTask, bool) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return nil, false
	}
	loc := w.pending[0]
	w.pending = w.pending[1:]
	w.mu.Unlock()

	file, ok := w.files.GetFile(loc)
	if !ok {
		return &ParseTask{Location: loc}, true
	}

	analysis, err := w.analyzer.Analyze(ctx, loc, file.Content, file.Version, w.librariesFor(""))
	if err != nil {
		return &ParseTask{Location: loc, Errors: []ca.Diagnostic{{Message: err.Error(), Severity: ca.SeverityError}}}, true
	}
	analysis.Version = file.Version

	w.mu.Lock()
	w.analyses[loc] = &analysis
	w.mu.Unlock()

	task := &ParseTask{Location: loc, Statements: analysis.Statements}
	for _, d := range analysis.Diagnostics {
		if d.Severity == ca.SeverityError {
			task.Errors = append(task.Errors, d)
		} else {
			task.Warnings = append(task.Warnings, d)
		}
	}
	return task, true
}

// Pending reports whether any file in this workspace still needs parsing.
func (w *Workspace) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending) > 0
}

func (w *Workspace) analysis(loc resource.Location) (Analysis, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.analyses[loc]
	if !ok {
		return Analysis{}, false
	}
	return *a, true
}

// Definition resolves the symbol under pos in loc to its defining location.
func (w *Workspace) Definition(loc resource.Location, pos resource.Position) (resource.Location, bool) {
	a, ok := w.analysis(loc)
	if !ok {
		return resource.Location{}, false
	}
	name, ok := a.ResolveAt(pos)
	if !ok {
		return resource.Location{}, false
	}
	def, ok := a.Definitions[name]
	return def, ok
}

// References returns every recorded use of the symbol under pos in loc.
func (w *Workspace) References(loc resource.Location, pos resource.Position) []resource.Location {
	a, ok := w.analysis(loc)
	if !ok {
		return nil
	}
	name, ok := a.ResolveAt(pos)
	if !ok {
		return nil
	}
	return a.References[name]
}

// Hover returns hover text for the symbol under pos in loc.
func (w *Workspace) Hover(loc resource.Location, pos resource.Position) (string, bool) {
	a, ok := w.analysis(loc)
	if !ok {
		return "", false
	}
	name, ok := a.ResolveAt(pos)
	if !ok {
		return "", false
	}
	text, ok := a.Hovers[name]
	return text, ok
}

// DocumentSymbol returns every symbol defined in loc.
func (w *Workspace) DocumentSymbol(loc resource.Location) []Symbol {
	a, ok := w.analysis(loc)
	if !ok {
		return nil
	}
	return a.Symbols
}

// Completion returns candidate symbol names with prefix in loc.
func (w *Workspace) Completion(loc resource.Location, prefix string) []string {
	a, ok := w.analysis(loc)
	if !ok {
		return nil
	}
	var out []string
	for _, s := range a.Symbols {
		if len(prefix) == 0 || (len(s.Name) >= len(prefix) && s.Name[:len(prefix)] == prefix) {
			out = append(out, s.Name)
		}
	}
	return out
}

// SemanticTokens returns the full symbol table as the core's semantic
// token source; tokenization into the LSP delta-encoded wire array is the
// feature layer's job.
func (w *Workspace) SemanticTokens(loc resource.Location) []Symbol {
	return w.DocumentSymbol(loc)
}

// MakeOpcodeSuggestion returns every opcode-kind symbol name in loc's
// analysis, for did-you-mean diagnostics on an unrecognized mnemonic;
// prefix neither filters nor ranks them.
func (w *Workspace) MakeOpcodeSuggestion(loc resource.Location, prefix string) []string {
	a, ok := w.analysis(loc)
	if !ok {
		return nil
	}
	var out []string
	for _, s := range a.Symbols {
		if s.Kind == SymbolOpcode {
			out = append(out, s.Name)
		}
	}
	return out
}
