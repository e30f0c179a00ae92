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
	"time"

	"github.com/eclipse-che4z/hlasm-language-server/internal/ca"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
)

const errWorkItemFailed = "work item failed"

// Run drives the idle loop until ctx is cancelled: advance the head work
// item when possible, then give the parse loop a turn; each parse the loop
// completes outside the quiet workspace publishes that file's diagnostics.
// This is the single
// cooperative driver goroutine spec.md §5 describes; callers that need
// the result of an enqueued operation use the respchan.Chan it returns,
// not a separate notification.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		progress, err := o.tick(ctx)
		if err != nil {
			return err
		}
		if progress {
			continue
		}
		if o.quiescent() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-o.wake:
			}
			continue
		}
		// Blocked on an in-flight suspension (a pending configuration
		// pull, or a query waiting for its workspace's parse queue to
		// drain): give the goroutine that resolves it a chance to run
		// instead of busy-spinning.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		case <-o.wake:
		}
	}
}

// tick runs one idle_handler increment: advance the head item if it's
// ready, then request parse_file from each workspace in turn until one
// returns a task. Reports whether either step made progress.
func (o *Orchestrator) tick(ctx context.Context) (bool, error) {
	advanced, err := o.advanceHead(ctx)
	if err != nil {
		return false, err
	}
	parsed, err := o.runParseStep(ctx)
	if err != nil {
		return false, err
	}
	return advanced || parsed, nil
}

// Step runs exactly one tick synchronously and reports whether it made
// progress, for tests and embedders that want to drive the loop by hand
// instead of via Run.
func (o *Orchestrator) Step(ctx context.Context) (bool, error) {
	return o.tick(ctx)
}

func (o *Orchestrator) popHead() {
	o.qmu.Lock()
	if len(o.queue) > 0 {
		o.queue = o.queue[1:]
	}
	o.qmu.Unlock()
}

// advanceHead implements spec.md §4.8's "Advance rule": the head item runs
// when it has no valid pending configuration request, and it is either a
// non-query action or a query whose workspace has no pending parse work.
func (o *Orchestrator) advanceHead(ctx context.Context) (bool, error) {
	o.qmu.Lock()
	if len(o.queue) == 0 {
		o.qmu.Unlock()
		return false, nil
	}
	item := o.queue[0]
	o.qmu.Unlock()

	if item.removed {
		o.popHead()
		return true, nil
	}
	if item.valid != nil && !item.valid() {
		o.popHead()
		return true, nil
	}

	if item.pendingConfig != nil {
		raw, invalid, perr, resolved := item.pendingConfig.Poll()
		if !resolved {
			return false, nil
		}
		switch {
		case invalid, perr != nil:
			raw = json.RawMessage(`{}`)
		}
		if item.applyConfig != nil {
			item.applyConfig(raw)
		}
		item.pendingConfig = nil
	}

	if item.kind == KindQuery {
		if ws := o.lookup(item.workspace); ws != nil && ws.Pending() {
			return false, nil
		}
	}

	o.popHead()
	if err := item.action(ctx); err != nil {
		o.log.Debug(errWorkItemFailed, "kind", item.kind.String(), "error", err)
	}
	return true, nil
}

// runParseStep asks every workspace in registration order for its next
// parse task, stopping at the first one that has work. Only one file is
// parsed per tick, matching spec.md §4.8's "resume it... if it completes,
// record perf metrics" single-task-in-flight model.
func (o *Orchestrator) runParseStep(ctx context.Context) (bool, error) {
	o.mu.Lock()
	keys := append([]string(nil), o.order...)
	o.mu.Unlock()

	for _, key := range keys {
		ws := o.lookup(key)
		if ws == nil {
			continue
		}
		start := time.Now()
		task, ok := ws.ParseFile(ctx)
		if !ok {
			continue
		}
		dur := time.Since(start)

		o.metricsMu.Lock()
		o.metrics = append(o.metrics, ParseMetrics{Location: task.Location, Duration: dur, Statements: task.Statements})
		o.metricsMu.Unlock()

		if !ws.Quiet() {
			o.notify(task.Location, task.Errors, task.Warnings)
		}
		return true, nil
	}
	return false, nil
}

func (o *Orchestrator) quiescent() bool {
	o.qmu.Lock()
	qlen := len(o.queue)
	o.qmu.Unlock()
	if qlen > 0 {
		return false
	}
	o.mu.Lock()
	keys := append([]string(nil), o.order...)
	o.mu.Unlock()
	for _, key := range keys {
		if ws := o.lookup(key); ws != nil && ws.Pending() {
			return false
		}
	}
	return true
}

func (o *Orchestrator) notify(loc resource.Location, errs, warnings []ca.Diagnostic) {
	o.obsMu.Lock()
	obs := append([]DiagnosticsObserver(nil), o.observers...)
	o.obsMu.Unlock()
	for _, fn := range obs {
		fn(loc, errs, warnings)
	}
}
