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
	"strings"

	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
)

// resolveKey implements spec.md §4.8's workspace-resolution-for-a-URI
// rules, returning the workspace key (root string) that owns loc.
//
//	(a) a virtual-file id resolves to the workspace that created it;
//	(b) a hlasm-external:// URI is decoded and resolution restarts on the
//	    decoded location;
//	(c) otherwise the workspace whose root is the longest prefix of the
//	    URI wins;
//	(d) failing that, the implicit workspace for file:/untitled:, else
//	    the quiet implicit workspace.
func (o *Orchestrator) resolveKey(loc resource.Location) string {
	if id, ok := loc.VirtualID(); ok {
		o.mu.Lock()
		key, ok := o.virtualOwner[id]
		o.mu.Unlock()
		if ok {
			if _, exists := o.workspaceSet(key); exists {
				return key
			}
		}
	}

	if decoded, ok := loc.DecodeExternal(); ok {
		return o.resolveKey(decoded)
	}

	uri := loc.String()
	best := ""
	bestLen := -1
	o.mu.Lock()
	for key := range o.workspaces {
		if strings.HasPrefix(uri, key) && len(key) > bestLen {
			best = key
			bestLen = len(key)
		}
	}
	o.mu.Unlock()
	if bestLen >= 0 {
		return best
	}

	if strings.HasPrefix(uri, "file:") || strings.HasPrefix(uri, "untitled:") {
		return implicitKey
	}
	return quietImplicitKey
}

func (o *Orchestrator) workspaceSet(key string) (struct{}, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.workspaces[key]
	return struct{}{}, ok
}

// RegisterVirtualFile records that the workspace identified by owner
// created the virtual file addressed by id, so later resolveKey calls
// route hlasm://<id>/... locations back to that workspace. Called by the
// out-of-scope preprocessor/analyzer when it materializes a virtual file.
func (o *Orchestrator) RegisterVirtualFile(id, owner string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.virtualOwner[id] = owner
}
