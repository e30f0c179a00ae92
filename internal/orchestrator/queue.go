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

	"github.com/eclipse-che4z/hlasm-language-server/internal/respchan"
)

// Kind distinguishes the four work-item shapes the orchestrator queues.
type Kind int

const (
	// KindWorkspaceOpen opens a new workspace root.
	KindWorkspaceOpen Kind = iota
	// KindSettingsChange applies a workspace/didChangeConfiguration.
	KindSettingsChange
	// KindFileChange is a file-manager mutation or a workspace-side
	// reparse trigger.
	KindFileChange
	// KindQuery is a synchronous feature request (definition, hover, ...).
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindWorkspaceOpen:
		return "workspace_open"
	case KindSettingsChange:
		return "settings_change"
	case KindFileChange:
		return "file_change"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// workItem is one unit of serialized work. Workspace is the owning
// workspace's root key ("" for file-manager mutations, which are bound to
// no workspace per spec.md §4.8's enqueue discipline).
type workItem struct {
	id        ID
	hasID     bool
	workspace string
	kind      Kind
	action    func(ctx context.Context) error

	// pendingConfig, when non-nil, is a workspace_open/settings_change
	// item's in-flight workspace/configuration pull. The item cannot
	// advance while it is pending and still valid.
	pendingConfig *respchan.Chan[json.RawMessage]
	applyConfig   func(raw json.RawMessage)

	// removed is set by RemoveWorkspace on every item still queued for a
	// removed workspace; advanceHead drops such an item without running
	// its action.
	removed bool

	// invalidate cancels this item's own result channel (queries only),
	// so $/cancelRequest and workspace removal can drop it without
	// running its body.
	invalidate func()
	// valid reports whether the item's own result channel is still live;
	// nil means always valid (nothing to cancel).
	valid func() bool
}
