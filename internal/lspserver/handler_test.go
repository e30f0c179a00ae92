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

package lspserver_test

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/eclipse-che4z/hlasm-language-server/internal/library"
	"github.com/eclipse-che4z/hlasm-language-server/internal/lspserver"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/transport"
	"github.com/eclipse-che4z/hlasm-language-server/internal/workspace"
)

// TestMain verifies that every Handler started by a test shuts its
// errgroup-managed orchestrator goroutine down cleanly via Close.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type noopLoader struct{}

func (noopLoader) LoadText(context.Context, resource.Location) (string, bool, error) {
	return "", false, nil
}

func (noopLoader) ListDirectory(context.Context, resource.Location) ([]resource.DirEntry, resource.ListStatus, error) {
	return nil, resource.ListNotFound, nil
}

// lineAnalyzer defines one symbol, "S", spanning all of line 0, whose
// definition points at a synthetic location derived from the content.
type lineAnalyzer struct{}

func (lineAnalyzer) Analyze(_ context.Context, loc resource.Location, content string, _ int64, _ []*library.Library) (workspace.Analysis, error) {
	return workspace.Analysis{
		Statements: 1,
		Symbols: []workspace.Symbol{{
			Name:  "S",
			Range: resource.Range{Start: resource.Position{Line: 0}, End: resource.Position{Line: 0, Character: 1000}},
		}},
		Definitions: map[string]resource.Location{"S": resource.NewLocation("mem://" + content)},
	}, nil
}

type fakeClientHandler struct{}

func (fakeClientHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, r *jsonrpc2.Request) {
	if r.Method == "workspace/configuration" {
		_ = conn.Reply(ctx, r.ID, []json.RawMessage{json.RawMessage(`{}`)})
	}
}

func TestInitializeDidOpenThenDefinitionRoundTrips(t *testing.T) {
	serverEnd, clientEnd := net.Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	files := resource.NewManager(noopLoader{})
	h := lspserver.New(files, noopLoader{}, lineAnalyzer{})
	defer h.Close()

	go func() { _ = transport.Serve(ctx, transport.NewStream(serverEnd), h) }()

	client := jsonrpc2.NewConn(ctx, transport.NewStream(clientEnd), fakeClientHandler{})
	defer client.Close()

	var initResult lsp.InitializeResult
	require.NoError(t, client.Call(ctx, "initialize", lsp.InitializeParams{RootURI: "file:///proj"}, &initResult))
	assert.True(t, initResult.Capabilities.DefinitionProvider)

	require.NoError(t, client.Notify(ctx, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: "file:///proj/a.hlasm", Version: 1, Text: "v1"},
	}))

	// Give the background idle loop a moment to run the parse.
	deadline := time.Now().Add(2 * time.Second)
	var defResult *lsp.Location
	for time.Now().Before(deadline) {
		var result lsp.Location
		err := client.Call(ctx, "textDocument/definition", lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: "file:///proj/a.hlasm"},
			Position:     lsp.Position{Line: 0, Character: 0},
		}, &result)
		if err == nil && result.URI != "" {
			defResult = &result
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotNil(t, defResult, "definition should eventually resolve once the background parse completes")
	assert.Equal(t, lsp.DocumentURI("mem://v1"), defResult.URI)
}
