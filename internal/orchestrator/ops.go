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

package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/crossplane/crossplane-runtime/pkg/errors"

	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/respchan"
	"github.com/eclipse-che4z/hlasm-language-server/internal/workspace"
)

const errNoSuchWorkspaceFmt = "orchestrator: no workspace for %s"

// OpenWorkspace creates a workspace rooted at root and enqueues a
// workspace_open item carrying a pending workspace/configuration pull, per
// spec.md §4.8's "Configuration pull".
func (o *Orchestrator) OpenWorkspace(ctx context.Context, root resource.Location) {
	key := root.String()
	ws := workspace.New(root, o.files, o.analyzer)

	o.mu.Lock()
	o.workspaces[key] = ws
	o.order = append(o.order, key)
	o.mu.Unlock()

	pending := respchan.New[json.RawMessage]()
	o.client.RequestWorkspaceConfiguration(ctx, key, pending)

	o.push(&workItem{
		workspace:     key,
		kind:          KindWorkspaceOpen,
		pendingConfig: pending,
		applyConfig:   func(raw json.RawMessage) { ws.SettingsUpdated(raw) },
		action:        func(ctx context.Context) error { return ws.Open(ctx) },
	})
}

// SettingsChanged handles workspace/didChangeConfiguration for root: it
// re-pulls the authoritative settings via Client rather than trusting the
// notification payload, matching the teacher's pull-over-push model.
func (o *Orchestrator) SettingsChanged(ctx context.Context, root resource.Location) {
	key := root.String()
	pending := respchan.New[json.RawMessage]()
	o.client.RequestWorkspaceConfiguration(ctx, key, pending)

	o.push(&workItem{
		workspace:     key,
		kind:          KindSettingsChange,
		pendingConfig: pending,
		applyConfig: func(raw json.RawMessage) {
			if ws := o.lookup(key); ws != nil {
				ws.SettingsUpdated(raw)
			}
		},
		action: func(ctx context.Context) error { return nil },
	})
}

// RemoveWorkspace drops root from the workspace set and cancels every
// queued item that targets it, per spec.md §4.8's cancellation semantics:
// "Removing a workspace sets workspace_removed on all its in-queue items
// and invalidates their pending-configuration channels."
func (o *Orchestrator) RemoveWorkspace(root resource.Location) {
	key := root.String()

	o.mu.Lock()
	delete(o.workspaces, key)
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	o.mu.Unlock()

	o.qmu.Lock()
	for _, item := range o.queue {
		if item.workspace != key {
			continue
		}
		item.removed = true
		if item.pendingConfig != nil {
			_ = item.pendingConfig.Invalidate()
		}
		if item.invalidate != nil {
			item.invalidate()
		}
	}
	if o.inFlightKey == key {
		o.inFlightKey = ""
	}
	o.qmu.Unlock()
}

// DidOpenFile enqueues the two-item file-change sequence spec.md §4.8
// mandates: a file-manager mutation bound to no workspace, then a
// workspace-side task bound to the resolved workspace.
func (o *Orchestrator) DidOpenFile(loc resource.Location, version int64, text string) {
	var state resource.State
	o.push(&workItem{
		kind: KindFileChange,
		action: func(ctx context.Context) error {
			state = o.files.DidOpen(loc, version, text)
			return nil
		},
	})
	key := o.resolveKey(loc)
	o.push(&workItem{
		workspace: key,
		kind:      KindFileChange,
		action: func(ctx context.Context) error {
			if ws := o.lookup(key); ws != nil {
				ws.DidOpenFile(loc, state)
			}
			return nil
		},
	})
}

// DidChangeFile enqueues the two-item sequence for an incremental edit.
func (o *Orchestrator) DidChangeFile(loc resource.Location, version int64, edits []resource.Edit) {
	var state resource.State
	o.push(&workItem{
		kind: KindFileChange,
		action: func(ctx context.Context) error {
			s, err := o.files.DidChange(loc, version, edits)
			state = s
			return err
		},
	})
	key := o.resolveKey(loc)
	o.push(&workItem{
		workspace: key,
		kind:      KindFileChange,
		action: func(ctx context.Context) error {
			if ws := o.lookup(key); ws != nil {
				ws.DidChangeFile(loc, state)
			}
			return nil
		},
	})
}

// DidCloseFile enqueues the two-item sequence releasing loc.
func (o *Orchestrator) DidCloseFile(loc resource.Location) {
	o.push(&workItem{
		kind: KindFileChange,
		action: func(ctx context.Context) error {
			o.files.DidClose(loc)
			return nil
		},
	})
	key := o.resolveKey(loc)
	o.push(&workItem{
		workspace: key,
		kind:      KindFileChange,
		action: func(ctx context.Context) error {
			if ws := o.lookup(key); ws != nil {
				ws.DidCloseFile(loc)
			}
			return nil
		},
	})
}

// DidChangeWatchedFiles re-reads every changed location through the file
// manager, then enqueues one workspace-side task per distinct resolved
// workspace so each workspace still sees its own locations in request
// order.
func (o *Orchestrator) DidChangeWatchedFiles(ctx context.Context, locs []resource.Location) {
	states := make([]resource.State, len(locs))
	o.push(&workItem{
		kind: KindFileChange,
		action: func(ctx context.Context) error {
			for i, loc := range locs {
				s, err := o.files.UpdateFile(ctx, loc)
				if err != nil {
					continue
				}
				states[i] = s
			}
			return nil
		},
	})

	byKey := make(map[string][]int)
	var order []string
	for i, loc := range locs {
		key := o.resolveKey(loc)
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], i)
	}
	for _, key := range order {
		key, idxs := key, byKey[key]
		o.push(&workItem{
			workspace: key,
			kind:      KindFileChange,
			action: func(ctx context.Context) error {
				ws := o.lookup(key)
				if ws == nil {
					return nil
				}
				sub := make([]resource.Location, len(idxs))
				subStates := make([]resource.State, len(idxs))
				for j, i := range idxs {
					sub[j] = locs[i]
					subStates[j] = states[i]
				}
				ws.DidChangeWatchedFiles(sub, subStates)
				return nil
			},
		})
	}
}

// CancelRequest implements $/cancelRequest: it invalidates the query item
// with the given id, if it is still queued, so the driver drops it
// without running its body.
func (o *Orchestrator) CancelRequest(id ID) {
	o.qmu.Lock()
	defer o.qmu.Unlock()
	for _, item := range o.queue {
		if item.hasID && item.id == id {
			if item.invalidate != nil {
				item.invalidate()
			}
			return
		}
	}
}

// Query enqueues a query-kind work item against the workspace that owns
// loc, running compute once the item reaches the head of the queue and
// the target workspace has no pending parse work (spec.md §4.8's "queries
// observe a consistent snapshot"). It is a free function rather than a
// method because Go methods cannot be generic.
func Query[T any](o *Orchestrator, id ID, loc resource.Location, compute func(ws *workspace.Workspace) T) *respchan.Chan[T] {
	ch := respchan.New[T]()
	key := o.resolveKey(loc)
	o.push(&workItem{
		id:        id,
		hasID:     true,
		workspace: key,
		kind:      KindQuery,
		valid:     ch.Valid,
		invalidate: func() {
			_ = ch.Invalidate()
		},
		action: func(ctx context.Context) error {
			ws := o.lookup(key)
			if ws == nil {
				return ch.Error(errors.Errorf(errNoSuchWorkspaceFmt, loc.String()))
			}
			return ch.Provide(compute(ws))
		},
	})
	return ch
}

// DefinitionResult is the result of a Definition query.
type DefinitionResult struct {
	Location resource.Location
	Found    bool
}

// Definition queries the definition of the symbol under pos in loc.
func (o *Orchestrator) Definition(id ID, loc resource.Location, pos resource.Position) *respchan.Chan[DefinitionResult] {
	return Query(o, id, loc, func(ws *workspace.Workspace) DefinitionResult {
		def, ok := ws.Definition(loc, pos)
		return DefinitionResult{Location: def, Found: ok}
	})
}

// References queries every recorded use of the symbol under pos in loc.
func (o *Orchestrator) References(id ID, loc resource.Location, pos resource.Position) *respchan.Chan[[]resource.Location] {
	return Query(o, id, loc, func(ws *workspace.Workspace) []resource.Location {
		return ws.References(loc, pos)
	})
}

// HoverResult is the result of a Hover query.
type HoverResult struct {
	Text  string
	Found bool
}

// Hover queries hover text for the symbol under pos in loc.
func (o *Orchestrator) Hover(id ID, loc resource.Location, pos resource.Position) *respchan.Chan[HoverResult] {
	return Query(o, id, loc, func(ws *workspace.Workspace) HoverResult {
		text, ok := ws.Hover(loc, pos)
		return HoverResult{Text: text, Found: ok}
	})
}

// DocumentSymbol queries every symbol defined in loc.
func (o *Orchestrator) DocumentSymbol(id ID, loc resource.Location) *respchan.Chan[[]workspace.Symbol] {
	return Query(o, id, loc, func(ws *workspace.Workspace) []workspace.Symbol {
		return ws.DocumentSymbol(loc)
	})
}

// Completion queries candidate symbol names with the given prefix in loc.
func (o *Orchestrator) Completion(id ID, loc resource.Location, prefix string) *respchan.Chan[[]string] {
	return Query(o, id, loc, func(ws *workspace.Workspace) []string {
		return ws.Completion(loc, prefix)
	})
}

// SemanticTokens queries the full symbol table backing loc's semantic
// tokens.
func (o *Orchestrator) SemanticTokens(id ID, loc resource.Location) *respchan.Chan[[]workspace.Symbol] {
	return Query(o, id, loc, func(ws *workspace.Workspace) []workspace.Symbol {
		return ws.SemanticTokens(loc)
	})
}

// MakeOpcodeSuggestion queries every opcode-kind symbol in loc's analysis,
// for did-you-mean diagnostics on an unrecognized mnemonic; prefix neither
// filters nor ranks them.
func (o *Orchestrator) MakeOpcodeSuggestion(id ID, loc resource.Location, prefix string) *respchan.Chan[[]string] {
	return Query(o, id, loc, func(ws *workspace.Workspace) []string {
		return ws.MakeOpcodeSuggestion(loc, prefix)
	})
}
