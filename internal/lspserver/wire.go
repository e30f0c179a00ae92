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

package lspserver

import "encoding/json"

// The wire shapes below fill gaps sourcegraph/go-lsp doesn't cover: pulled
// configuration, semantic tokens, and cancellation are all newer additions
// to the LSP spec than that package's vintage.

// configurationItem is one entry of a workspace/configuration request.
type configurationItem struct {
	ScopeURI string `json:"scopeUri,omitempty"`
	Section  string `json:"section,omitempty"`
}

// configurationParams is the params object of a workspace/configuration
// request the server sends to the client.
type configurationParams struct {
	Items []configurationItem `json:"items"`
}

// didChangeConfigurationParams is workspace/didChangeConfiguration's
// notification payload. The settings shape is opaque to the server: it
// always re-pulls the authoritative value via workspace/configuration
// rather than trusting this one, so only its presence matters.
type didChangeConfigurationParams struct {
	Settings json.RawMessage `json:"settings"`
}

// cancelParams is $/cancelRequest's notification payload.
type cancelParams struct {
	ID json.RawMessage `json:"id"`
}

// semanticTokensParams is textDocument/semanticTokens/full's request
// payload.
type semanticTokensParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
}

// semanticTokensResult is the delta-encoded token array the LSP spec
// defines: every token is five integers relative to the previous one
// (deltaLine, deltaStartChar, length, tokenType, tokenModifiers).
type semanticTokensResult struct {
	Data []uint32 `json:"data"`
}

// workspaceFolder names one root of a multi-root workspace.
type workspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// didChangeWorkspaceFoldersParams is workspace/didChangeWorkspaceFolders's
// notification payload.
type didChangeWorkspaceFoldersParams struct {
	Event struct {
		Added   []workspaceFolder `json:"added"`
		Removed []workspaceFolder `json:"removed"`
	} `json:"event"`
}
