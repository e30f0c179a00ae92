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

// Package respchan implements a one-shot, single-producer/single-consumer
// response channel: a suspension point the orchestrator's driver goroutine
// can wait on without spinning up a new goroutine per request.
package respchan

import (
	"context"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

// state is the channel's sticky terminal lifecycle.
type state int

const (
	pending state = iota
	provided
	errored
	invalidated
)

// errAlreadyResolved is returned when Provide/Error/Invalidate is called on
// a channel that has already left the pending state.
var errAlreadyResolved = errors.New("respchan: already resolved")

// Chan[T] is resolved exactly once, by exactly one of Provide, Error, or
// Invalidate. Wait blocks the single consumer until resolution or context
// cancellation; Poll checks without blocking.
type Chan[T any] struct {
	mu    sync.Mutex
	st    state
	value T
	err   error
	done  chan struct{}
}

// New constructs a pending Chan.
func New[T any]() *Chan[T] {
	return &Chan[T]{done: make(chan struct{})}
}

// Provide resolves the channel with a value. Calling it more than once, or
// after Error/Invalidate, is a programmer error reported via error rather
// than panic, since the caller is usually a cooperative scheduler step
// that would rather log and continue than crash the process.
func (c *Chan[T]) Provide(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != pending {
		return errAlreadyResolved
	}
	c.value = v
	c.st = provided
	close(c.done)
	return nil
}

// Error resolves the channel with a failure.
func (c *Chan[T]) Error(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != pending {
		return errAlreadyResolved
	}
	c.err = err
	c.st = errored
	close(c.done)
	return nil
}

// Invalidate resolves the channel as cancelled: the request is moot (e.g.
// the file that triggered it closed before a response arrived) and the
// consumer should discard it without treating it as a failure.
func (c *Chan[T]) Invalidate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != pending {
		return errAlreadyResolved
	}
	c.st = invalidated
	close(c.done)
	return nil
}

// Valid reports whether the channel has not been invalidated: it is true
// while pending and after Provide or Error — i.e. whether a consumer should
// still care about it.
func (c *Chan[T]) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st != invalidated
}

// Poll reports the channel's resolution without blocking: resolved is
// false while the channel is still pending, letting a cooperative driver
// check a pending configuration request on every idle tick instead of
// stalling the whole queue behind one Wait.
func (c *Chan[T]) Poll() (value T, invalid bool, err error, resolved bool) {
	select {
	case <-c.done:
	default:
		return value, false, nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.st {
	case provided:
		return c.value, false, nil, true
	case errored:
		return value, false, c.err, true
	case invalidated:
		return value, true, nil, true
	default:
		return value, false, nil, false
	}
}

// Wait blocks until the channel resolves or ctx is done, returning the
// value, whether it was invalidated, and any error.
func (c *Chan[T]) Wait(ctx context.Context) (value T, invalid bool, err error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		return value, false, ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.st {
	case provided:
		return c.value, false, nil
	case errored:
		return value, false, c.err
	case invalidated:
		return value, true, nil
	default:
		return value, false, errors.New("respchan: done closed in pending state")
	}
}
