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

package orchestrator_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-language-server/internal/library"
	"github.com/eclipse-che4z/hlasm-language-server/internal/orchestrator"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/respchan"
	"github.com/eclipse-che4z/hlasm-language-server/internal/workspace"
)

type noopLoader struct{}

func (noopLoader) LoadText(context.Context, resource.Location) (string, bool, error) {
	return "", false, nil
}

func (noopLoader) ListDirectory(context.Context, resource.Location) ([]resource.DirEntry, resource.ListStatus, error) {
	return nil, resource.ListNotFound, nil
}

// lineAnalyzer defines one symbol, "S", spanning line 0, whose definition
// is a synthetic location built from the file's current content — enough
// to prove a query observes the latest analyzed version.
type lineAnalyzer struct{}

func (lineAnalyzer) Analyze(_ context.Context, loc resource.Location, content string, _ int64, _ []*library.Library) (workspace.Analysis, error) {
	return workspace.Analysis{
		Statements: 1,
		Symbols: []workspace.Symbol{{
			Name: "S",
			Range: resource.Range{
				Start: resource.Position{Line: 0},
				End:   resource.Position{Line: 0, Character: 1000},
			},
		}},
		Definitions: map[string]resource.Location{"S": resource.NewLocation("mem://" + content)},
	}, nil
}

type immediateClient struct{ raw json.RawMessage }

func (c immediateClient) RequestWorkspaceConfiguration(_ context.Context, _ string, result *respchan.Chan[json.RawMessage]) {
	_ = result.Provide(c.raw)
}

type erroringClient struct{ err error }

func (c erroringClient) RequestWorkspaceConfiguration(_ context.Context, _ string, result *respchan.Chan[json.RawMessage]) {
	_ = result.Error(c.err)
}

func newTestOrchestrator(t *testing.T, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()
	files := resource.NewManager(noopLoader{})
	return orchestrator.New(files, lineAnalyzer{}, opts...)
}

func runUntil(t *testing.T, ctx context.Context, o *orchestrator.Orchestrator, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for orchestrator progress")
		}
		if _, err := o.Step(ctx); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
}

// TestQueryObservesLatestEditBeforeEarlierVersion is spec.md §8 scenario 6:
// did_open(f,1), did_change(f,2), definition(f,pos) must observe version 2.
func TestQueryObservesLatestEditBeforeEarlierVersion(t *testing.T) {
	o := newTestOrchestrator(t, orchestrator.WithClient(immediateClient{raw: json.RawMessage(`{}`)}))
	ctx := context.Background()

	root := resource.NewLocation("file:///proj")
	o.OpenWorkspace(ctx, root)

	loc := resource.NewLocation("file:///proj/a.hlasm")
	o.DidOpenFile(loc, 1, "v1")
	o.DidChangeFile(loc, 2, []resource.Edit{{NewText: "v2"}})

	ch := o.Definition(orchestrator.IntID(1), loc, resource.Position{Line: 0, Character: 0})

	runUntil(t, ctx, o, func() bool {
		_, _, _, resolved := ch.Poll()
		return resolved
	})

	result, invalid, err := ch.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, invalid)
	require.True(t, result.Found)
	assert.Equal(t, "mem://v2", result.Location.String())
}

func TestCancelRequestDropsQueuedQueryWithoutRunningIt(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	root := resource.NewLocation("file:///proj")
	o.OpenWorkspace(ctx, root)
	for i := 0; i < 3; i++ {
		_, _ = o.Step(ctx)
	} // drain the workspace_open item

	loc := resource.NewLocation("file:///proj/a.hlasm")
	id := orchestrator.IntID(42)
	ch := o.Definition(id, loc, resource.Position{})
	o.CancelRequest(id)

	for i := 0; i < 5; i++ {
		_, _ = o.Step(ctx)
	}

	_, invalid, err := ch.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, invalid, "a cancelled query must resolve invalidated, not run its body")
}

func TestRemoveWorkspaceCancelsItsQueuedWork(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	root := resource.NewLocation("file:///proj")
	o.OpenWorkspace(ctx, root)
	for i := 0; i < 3; i++ {
		_, _ = o.Step(ctx)
	}

	loc := resource.NewLocation("file:///proj/a.hlasm")
	ch := o.Definition(orchestrator.IntID(1), loc, resource.Position{})
	o.RemoveWorkspace(root)

	for i := 0; i < 5; i++ {
		_, _ = o.Step(ctx)
	}

	_, invalid, err := ch.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, invalid)
}

func TestConfigurationErrorFallsBackToEmptyObject(t *testing.T) {
	o := newTestOrchestrator(t, orchestrator.WithClient(erroringClient{err: assertableErr{}}))
	ctx := context.Background()

	root := resource.NewLocation("file:///proj")
	o.OpenWorkspace(ctx, root)
	for i := 0; i < 3; i++ {
		_, _ = o.Step(ctx)
	}

	// The workspace_open item's applyConfig ran with the fallback empty
	// object; settings-dependent reparse logic should see "{}" rather than
	// panicking on a nil/garbage payload.
	ws, ok := o.Workspace(root)
	require.True(t, ok)
	assert.JSONEq(t, `{}`, string(ws.Settings()))

	loc := resource.NewLocation("file:///proj/a.hlasm")
	o.DidOpenFile(loc, 1, "v1")
	for i := 0; i < 5; i++ {
		_, _ = o.Step(ctx)
	}

	ch := o.Definition(orchestrator.IntID(2), loc, resource.Position{})
	for i := 0; i < 5; i++ {
		_, _ = o.Step(ctx)
	}
	result, invalid, err := ch.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, invalid)
	assert.True(t, result.Found)
}

type assertableErr struct{}

func (assertableErr) Error() string { return "boom" }

func TestIDOrdering(t *testing.T) {
	assert.True(t, orchestrator.IntID(1).Less(orchestrator.StringID("a")))
	assert.False(t, orchestrator.StringID("a").Less(orchestrator.IntID(1)))
	assert.True(t, orchestrator.IntID(1).Less(orchestrator.IntID(2)))
	assert.True(t, orchestrator.StringID("a").Less(orchestrator.StringID("b")))
	assert.True(t, orchestrator.IntID(5).Equal(orchestrator.IntID(5)))
}
