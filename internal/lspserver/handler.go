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

// Package lspserver adapts the orchestrator's async operations to the LSP
// wire protocol: it decodes/encodes JSON-RPC requests, resolves queries
// synchronously within the request's own goroutine (sourcegraph/jsonrpc2
// runs every Handle call on its own goroutine), and fans the orchestrator's
// diagnostics observer out over textDocument/publishDiagnostics.
package lspserver

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/google/uuid"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"golang.org/x/sync/errgroup"

	"github.com/eclipse-che4z/hlasm-language-server/internal/config"
	"github.com/eclipse-che4z/hlasm-language-server/internal/library"
	"github.com/eclipse-che4z/hlasm-language-server/internal/orchestrator"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/workspace"
)

const serverName = "hlasmls"

const (
	errParseParams = "failed to parse request parameters"
	errUnmarshalID = "failed to parse cancelled request id"
)

// syncKind describes how text synchronization works: every edit is an
// incremental range replace, the cheapest shape for HLASM member sizes.
var syncKind = lsp.TDSKIncremental

// Handler handles LSP requests over one jsonrpc2 connection, translating
// them into orchestrator.Orchestrator operations.
type Handler struct {
	log       logging.Logger
	sessionID string
	files     *resource.Manager
	loader    resource.Loader
	analyzer  workspace.Analyzer
	orch      *orchestrator.Orchestrator
	client    *rpcClient

	runCtx    context.Context
	runCancel context.CancelFunc
	run       *errgroup.Group

	mu    sync.Mutex
	roots []resource.Location
}

// Option configures a Handler at construction.
type Option func(*Handler)

// WithLogger sets the logger every component (orchestrator included) uses.
func WithLogger(log logging.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// New constructs a Handler backed by files for content tracking and
// analyzer for turning file content into an analysis, and starts the
// orchestrator's cooperative idle loop in the background.
func New(files *resource.Manager, loader resource.Loader, analyzer workspace.Analyzer, opts ...Option) *Handler {
	h := &Handler{
		log:       logging.NewNopLogger(),
		sessionID: uuid.NewString(),
		files:     files,
		loader:    loader,
		analyzer:  analyzer,
		client:    &rpcClient{},
	}
	for _, o := range opts {
		o(h)
	}
	h.client.log = h.log
	h.orch = orchestrator.New(files, analyzer, orchestrator.WithLogger(h.log), orchestrator.WithClient(h.client))
	h.orch.Subscribe(h.publishDiagnostics)

	h.runCtx, h.runCancel = context.WithCancel(context.Background())
	h.run, h.runCtx = errgroup.WithContext(h.runCtx)
	h.run.Go(func() error {
		if err := h.orch.Run(h.runCtx); err != nil && !errors.Is(err, context.Canceled) {
			h.log.Debug("orchestrator run loop stopped", "error", err)
		}
		return nil
	})
	return h
}

// Close stops the background idle loop and waits for it to exit.
func (h *Handler) Close() {
	h.runCancel()
	_ = h.run.Wait()
}

func (h *Handler) currentConn() *jsonrpc2.Conn { return h.client.getConn() }

// Handle routes one JSON-RPC request or notification to the matching
// orchestrator operation.
func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) { //nolint:gocyclo
	switch r.Method {
	case "initialize":
		h.handleInitialize(ctx, conn, r)
	case "initialized":
		// No response expected.
	case "textDocument/didOpen":
		h.handleDidOpen(r)
	case "textDocument/didChange":
		h.handleDidChange(r)
	case "textDocument/didClose":
		h.handleDidClose(r)
	case "textDocument/definition":
		h.handleDefinition(ctx, conn, r)
	case "textDocument/references":
		h.handleReferences(ctx, conn, r)
	case "textDocument/hover":
		h.handleHover(ctx, conn, r)
	case "textDocument/documentSymbol":
		h.handleDocumentSymbol(ctx, conn, r)
	case "textDocument/completion":
		h.handleCompletion(ctx, conn, r)
	case "textDocument/semanticTokens/full":
		h.handleSemanticTokens(ctx, conn, r)
	case "workspace/didChangeConfiguration":
		h.handleDidChangeConfiguration(ctx, r)
	case "workspace/didChangeWatchedFiles":
		h.handleDidChangeWatchedFiles(ctx, r)
	case "workspace/didChangeWorkspaceFolders":
		h.handleDidChangeWorkspaceFolders(ctx, r)
	case "$/cancelRequest":
		h.handleCancelRequest(r)
	}
}

func (h *Handler) unmarshalParams(r *jsonrpc2.Request, v interface{}) bool {
	if r.Params == nil {
		return false
	}
	if err := json.Unmarshal(*r.Params, v); err != nil {
		h.log.Debug(errParseParams, "method", r.Method, "error", err)
		return false
	}
	return true
}

func (h *Handler) handleInitialize(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	h.client.setConn(conn)
	h.log.Debug("session initialized", "session", h.sessionID)

	var params lsp.InitializeParams
	h.unmarshalParams(r, &params)

	if params.RootURI != "" {
		h.openRoot(ctx, resource.NewLocation(string(params.RootURI)))
	}

	completionChars := []string{}
	result := lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Kind: &syncKind,
			},
			DefinitionProvider:     true,
			ReferencesProvider:     true,
			HoverProvider:          true,
			DocumentSymbolProvider: true,
			CompletionProvider: &lsp.CompletionOptions{
				TriggerCharacters: completionChars,
			},
		},
	}
	if err := conn.Reply(ctx, r.ID, result); err != nil {
		h.log.Debug("failed to reply to initialize", "error", err)
	}
}

func (h *Handler) openRoot(ctx context.Context, root resource.Location) {
	h.mu.Lock()
	h.roots = append(h.roots, root)
	h.mu.Unlock()
	h.orch.OpenWorkspace(ctx, root)
}

func (h *Handler) handleDidOpen(r *jsonrpc2.Request) {
	var params lsp.DidOpenTextDocumentParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	loc := resource.NewLocation(string(params.TextDocument.URI))
	h.orch.DidOpenFile(loc, int64(params.TextDocument.Version), params.TextDocument.Text)
}

func (h *Handler) handleDidChange(r *jsonrpc2.Request) {
	var params lsp.DidChangeTextDocumentParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	loc := resource.NewLocation(string(params.TextDocument.URI))
	edits := make([]resource.Edit, len(params.ContentChanges))
	for i, c := range params.ContentChanges {
		e := resource.Edit{NewText: c.Text}
		if c.Range != nil {
			e.Range = &resource.Range{
				Start: resource.Position{Line: c.Range.Start.Line, Character: c.Range.Start.Character},
				End:   resource.Position{Line: c.Range.End.Line, Character: c.Range.End.Character},
			}
		}
		edits[i] = e
	}
	h.orch.DidChangeFile(loc, int64(params.TextDocument.Version), edits)
}

func (h *Handler) handleDidClose(r *jsonrpc2.Request) {
	var params lsp.DidCloseTextDocumentParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	h.orch.DidCloseFile(resource.NewLocation(string(params.TextDocument.URI)))
}

func (h *Handler) handleDefinition(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	var params lsp.TextDocumentPositionParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	loc := resource.NewLocation(string(params.TextDocument.URI))
	pos := resource.Position{Line: params.Position.Line, Character: params.Position.Character}
	ch := h.orch.Definition(fromRPCID(r.ID), loc, pos)
	result, invalid, err := ch.Wait(ctx)
	if invalid || err != nil || !result.Found {
		h.reply(ctx, conn, r.ID, nil)
		return
	}
	h.reply(ctx, conn, r.ID, lsp.Location{
		URI: lsp.DocumentURI(result.Location.String()),
	})
}

func (h *Handler) handleReferences(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	var params struct {
		lsp.TextDocumentPositionParams
		Context struct {
			IncludeDeclaration bool `json:"includeDeclaration"`
		} `json:"context"`
	}
	if !h.unmarshalParams(r, &params) {
		return
	}
	loc := resource.NewLocation(string(params.TextDocument.URI))
	pos := resource.Position{Line: params.Position.Line, Character: params.Position.Character}
	ch := h.orch.References(fromRPCID(r.ID), loc, pos)
	result, invalid, err := ch.Wait(ctx)
	if invalid || err != nil {
		h.reply(ctx, conn, r.ID, []lsp.Location{})
		return
	}
	out := make([]lsp.Location, len(result))
	for i, rl := range result {
		out[i] = lsp.Location{URI: lsp.DocumentURI(rl.String())}
	}
	h.reply(ctx, conn, r.ID, out)
}

func (h *Handler) handleHover(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	var params lsp.TextDocumentPositionParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	loc := resource.NewLocation(string(params.TextDocument.URI))
	pos := resource.Position{Line: params.Position.Line, Character: params.Position.Character}
	ch := h.orch.Hover(fromRPCID(r.ID), loc, pos)
	result, invalid, err := ch.Wait(ctx)
	if invalid || err != nil || !result.Found {
		h.reply(ctx, conn, r.ID, lsp.Hover{})
		return
	}
	h.reply(ctx, conn, r.ID, lsp.Hover{
		Contents: []lsp.MarkedString{{Language: "", Value: result.Text}},
	})
}

func (h *Handler) handleDocumentSymbol(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	var params lsp.DocumentSymbolParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	loc := resource.NewLocation(string(params.TextDocument.URI))
	ch := h.orch.DocumentSymbol(fromRPCID(r.ID), loc)
	result, invalid, err := ch.Wait(ctx)
	if invalid || err != nil {
		h.reply(ctx, conn, r.ID, []lsp.SymbolInformation{})
		return
	}
	out := make([]lsp.SymbolInformation, len(result))
	for i, s := range result {
		out[i] = lsp.SymbolInformation{
			Name: s.Name,
			Kind: symbolKindOf(s.Kind),
			Location: lsp.Location{
				URI: params.TextDocument.URI,
				Range: lsp.Range{
					Start: lsp.Position{Line: s.Range.Start.Line, Character: s.Range.Start.Character},
					End:   lsp.Position{Line: s.Range.End.Line, Character: s.Range.End.Character},
				},
			},
		}
	}
	h.reply(ctx, conn, r.ID, out)
}

func (h *Handler) handleCompletion(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	var params lsp.TextDocumentPositionParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	loc := resource.NewLocation(string(params.TextDocument.URI))
	ch := h.orch.Completion(fromRPCID(r.ID), loc, "")
	result, invalid, err := ch.Wait(ctx)
	if invalid || err != nil {
		h.reply(ctx, conn, r.ID, lsp.CompletionList{})
		return
	}
	items := make([]lsp.CompletionItem, len(result))
	for i, name := range result {
		items[i] = lsp.CompletionItem{Label: name}
	}
	h.reply(ctx, conn, r.ID, lsp.CompletionList{Items: items})
}

func (h *Handler) handleSemanticTokens(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	var params semanticTokensParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	loc := resource.NewLocation(params.TextDocument.URI)
	ch := h.orch.SemanticTokens(fromRPCID(r.ID), loc)
	result, invalid, err := ch.Wait(ctx)
	if invalid || err != nil {
		h.reply(ctx, conn, r.ID, semanticTokensResult{})
		return
	}
	h.reply(ctx, conn, r.ID, semanticTokensResult{Data: encodeSemanticTokens(result)})
}

func (h *Handler) handleDidChangeConfiguration(ctx context.Context, r *jsonrpc2.Request) {
	var params didChangeConfigurationParams
	h.unmarshalParams(r, &params)
	h.mu.Lock()
	roots := append([]resource.Location(nil), h.roots...)
	h.mu.Unlock()
	for _, root := range roots {
		h.orch.SettingsChanged(ctx, root)
	}
}

func (h *Handler) handleDidChangeWatchedFiles(ctx context.Context, r *jsonrpc2.Request) {
	var params lsp.DidChangeWatchedFilesParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	locs := make([]resource.Location, len(params.Changes))
	for i, c := range params.Changes {
		locs[i] = resource.NewLocation(string(c.URI))
	}
	h.orch.DidChangeWatchedFiles(ctx, locs)
}

func (h *Handler) handleDidChangeWorkspaceFolders(ctx context.Context, r *jsonrpc2.Request) {
	var params didChangeWorkspaceFoldersParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	for _, f := range params.Event.Added {
		h.openRoot(ctx, resource.NewLocation(f.URI))
	}
	for _, f := range params.Event.Removed {
		root := resource.NewLocation(f.URI)
		h.orch.RemoveWorkspace(root)
		h.mu.Lock()
		for i, known := range h.roots {
			if known == root {
				h.roots = append(h.roots[:i], h.roots[i+1:]...)
				break
			}
		}
		h.mu.Unlock()
	}
}

func (h *Handler) handleCancelRequest(r *jsonrpc2.Request) {
	var params cancelParams
	if !h.unmarshalParams(r, &params) {
		return
	}
	var asInt int64
	if err := json.Unmarshal(params.ID, &asInt); err == nil {
		h.orch.CancelRequest(orchestrator.IntID(asInt))
		return
	}
	var asStr string
	if err := json.Unmarshal(params.ID, &asStr); err == nil {
		h.orch.CancelRequest(orchestrator.StringID(asStr))
		return
	}
	h.log.Debug(errUnmarshalID)
}

func (h *Handler) reply(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, result interface{}) {
	if err := conn.Reply(ctx, id, result); err != nil {
		h.log.Debug("failed to reply to request", "error", err)
	}
}

// ApplyServerConfig seeds every currently-open workspace's libraries from
// an on-disk ServerConfig's processor-group defaults, ahead of the first
// workspace/configuration round trip.
func (h *Handler) ApplyServerConfig(cfg config.ServerConfig) {
	h.mu.Lock()
	roots := append([]resource.Location(nil), h.roots...)
	h.mu.Unlock()
	for _, root := range roots {
		ws, ok := h.orch.Workspace(root)
		if !ok {
			continue
		}
		for name, defaults := range cfg.ProcessorGroups {
			libs := make([]*library.Library, len(defaults.Libs))
			for i, p := range defaults.Libs {
				libs[i] = library.New(resource.NewLocation(p), h.loader)
			}
			ws.SetGroup(name, libs)
		}
	}
}

func fromRPCID(id jsonrpc2.ID) orchestrator.ID {
	if id.IsString {
		return orchestrator.StringID(id.Str)
	}
	return orchestrator.IntID(int64(id.Num))
}

func symbolKindOf(k workspace.SymbolKind) lsp.SymbolKind {
	switch k {
	case workspace.SymbolMacro:
		return lsp.SKFunction
	case workspace.SymbolSection:
		return lsp.SKNamespace
	case workspace.SymbolOpcode:
		return lsp.SKOperator
	default:
		return lsp.SKVariable
	}
}

// tokenTypeOf uses a workspace.SymbolKind's own numeric value as its
// semantic-token type index; the server advertises no token legend.
func tokenTypeOf(k workspace.SymbolKind) uint32 {
	return uint32(k)
}

// encodeSemanticTokens renders symbols as the LSP spec's delta-encoded
// integer quintuples, in source order.
func encodeSemanticTokens(symbols []workspace.Symbol) []uint32 {
	data := make([]uint32, 0, len(symbols)*5)
	prevLine, prevChar := 0, 0
	for _, s := range symbols {
		line := s.Range.Start.Line
		char := s.Range.Start.Character
		deltaLine := line - prevLine
		deltaChar := char
		if deltaLine == 0 {
			deltaChar = char - prevChar
		}
		length := s.Range.End.Character - s.Range.Start.Character
		if s.Range.End.Line != s.Range.Start.Line {
			length = 0
		}
		data = append(data, uint32(deltaLine), uint32(deltaChar), uint32(length), tokenTypeOf(s.Kind), 0)
		prevLine, prevChar = line, char
	}
	return data
}
