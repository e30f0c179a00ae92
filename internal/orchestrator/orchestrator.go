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

// Package orchestrator implements the single-threaded cooperative work
// queue that sits between the LSP transport and the workspaces: it
// serializes file-change/settings/query operations per workspace,
// interleaves them with the parse loop, and mediates pull-style
// configuration requests back to the editor.
package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/eclipse-che4z/hlasm-language-server/internal/ca"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/respchan"
	"github.com/eclipse-che4z/hlasm-language-server/internal/workspace"
)

const (
	// implicitKey is the fallback workspace for file:/untitled: locations
	// that don't fall under any opened workspace root.
	implicitKey = "\x00implicit"
	// quietImplicitKey is the fallback for everything else; it computes
	// diagnostics but never surfaces them.
	quietImplicitKey = "\x00quiet"
)

// Client is the out-of-scope collaborator that turns an orchestrator-issued
// configuration pull into an actual client-bound JSON-RPC round trip
// (`workspace/configuration`). The implementation must eventually resolve
// result via Provide/Error/Invalidate; it must not block the caller.
type Client interface {
	RequestWorkspaceConfiguration(ctx context.Context, uri string, result *respchan.Chan[json.RawMessage])
}

// noopClient resolves every configuration pull with an empty object,
// matching spec.md §4.8's "on error, replaced with an empty object" path
// for hosts that never answer.
type noopClient struct{}

func (noopClient) RequestWorkspaceConfiguration(_ context.Context, _ string, result *respchan.Chan[json.RawMessage]) {
	_ = result.Provide(json.RawMessage(`{}`))
}

// ParseMetrics is recorded for every completed parse task, the "perf_metrics"
// component of spec.md §4.7's `(uri, metadata, perf_metrics, errors,
// warnings)` parse result.
type ParseMetrics struct {
	Location   resource.Location
	Duration   time.Duration
	Statements int
}

// DiagnosticsObserver is notified with a file's latest errors+warnings
// each time the idle loop completes a parse of it outside the quiet
// workspace, the seam the LSP feature layer
// uses to publish textDocument/publishDiagnostics notifications.
type DiagnosticsObserver func(loc resource.Location, errs, warnings []ca.Diagnostic)

// Orchestrator owns every opened workspace and the single FIFO queue of
// file-change/settings/query work items that drives them. It is not safe
// for the Run loop to execute on more than one goroutine at a time; public
// methods that enqueue work are safe to call from any goroutine (e.g. the
// transport's per-request handler).
type Orchestrator struct {
	log      logging.Logger
	client   Client
	files    *resource.Manager
	analyzer workspace.Analyzer

	mu           sync.Mutex
	workspaces   map[string]*workspace.Workspace
	order        []string
	virtualOwner map[string]string

	qmu   sync.Mutex
	queue []*workItem
	wake  chan struct{}

	inFlightKey string

	metricsMu sync.Mutex
	metrics   []ParseMetrics

	obsMu     sync.Mutex
	observers []DiagnosticsObserver
}

// Option configures an Orchestrator at construction.
type Option func(*Orchestrator)

// WithLogger sets the logger used for debug-level tracing of queue
// activity, the way every teacher constructor takes a logging.Logger.
func WithLogger(log logging.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithClient sets the collaborator used to pull workspace configuration.
// Defaults to a client that immediately resolves with an empty object.
func WithClient(c Client) Option {
	return func(o *Orchestrator) { o.client = c }
}

// New constructs an Orchestrator backed by files for content tracking and
// analyzer for turning file content into a workspace.Analysis. Both the
// implicit and the quiet-implicit workspaces are created eagerly, rooted
// at the empty location, since they're singletons per orchestrator
// instance rather than process-wide state.
func New(files *resource.Manager, analyzer workspace.Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:          logging.NewNopLogger(),
		client:       noopClient{},
		files:        files,
		analyzer:     analyzer,
		workspaces:   make(map[string]*workspace.Workspace),
		virtualOwner: make(map[string]string),
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.workspaces[implicitKey] = workspace.New(resource.Location{}, files, analyzer)
	o.workspaces[quietImplicitKey] = workspace.New(resource.Location{}, files, analyzer, workspace.WithQuiet(true))
	o.order = []string{implicitKey, quietImplicitKey}
	return o
}

// lookup returns the workspace registered under key, if any.
func (o *Orchestrator) lookup(key string) *workspace.Workspace {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.workspaces[key]
}

// Workspace returns the workspace rooted at root, if one is currently
// open. Exposed for callers (the LSP feature layer, tests) that need
// direct access beyond the query operations, e.g. to assign processor
// group libraries via Workspace.SetGroup.
func (o *Orchestrator) Workspace(root resource.Location) (*workspace.Workspace, bool) {
	ws := o.lookup(root.String())
	return ws, ws != nil
}

// Subscribe registers a DiagnosticsObserver invoked whenever the idle loop
// makes progress publishing a file's diagnostics.
func (o *Orchestrator) Subscribe(fn DiagnosticsObserver) {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	o.observers = append(o.observers, fn)
}

// Metrics returns every ParseMetrics recorded so far, for tests and
// observability.
func (o *Orchestrator) Metrics() []ParseMetrics {
	o.metricsMu.Lock()
	defer o.metricsMu.Unlock()
	return append([]ParseMetrics(nil), o.metrics...)
}

func (o *Orchestrator) push(item *workItem) {
	o.qmu.Lock()
	o.queue = append(o.queue, item)
	o.qmu.Unlock()
	o.wakeUp()
}

// wakeUp nudges a blocked Run loop to re-check the queue; a full channel
// means a wake is already pending, so the send is dropped.
func (o *Orchestrator) wakeUp() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}
