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

package resource

import (
	"context"
	"sync"
)

// DirEntry is one member of a directory listing.
type DirEntry struct {
	Name  string
	IsDir bool
}

// ListStatus reports the outcome of a directory enumeration.
type ListStatus int

const (
	// ListOK means entries is a complete, valid listing.
	ListOK ListStatus = iota
	// ListNotFound means the directory does not exist.
	ListNotFound
	// ListError means enumeration failed for another reason.
	ListError
)

// Loader is the external collaborator that reads file content and
// enumerates directories on the server's behalf. Both operations are
// asynchronous and may suspend the orchestrator's cooperative scheduler;
// they are out of this package's scope beyond this contract.
type Loader interface {
	LoadText(ctx context.Context, loc Location) (text string, ok bool, err error)
	ListDirectory(ctx context.Context, loc Location) ([]DirEntry, ListStatus, error)
}

// Observer is notified whenever a tracked file's content transitions.
type Observer func(loc Location, state State)

// Manager owns the set of tracked files, their editor-reported versions,
// and the content any live analysis borrows by reference. It is safe for
// concurrent use, though the orchestrator's single-threaded discipline
// means contention is rare in practice.
type Manager struct {
	mu     sync.RWMutex
	files  map[Location]*File
	loader Loader

	obsMu     sync.Mutex
	observers []Observer
}

// NewManager constructs a Manager backed by the supplied Loader.
func NewManager(loader Loader) *Manager {
	return &Manager{
		files:  make(map[Location]*File),
		loader: loader,
	}
}

// Subscribe registers an Observer invoked after every content transition.
func (m *Manager) Subscribe(o Observer) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, o)
}

func (m *Manager) notify(loc Location, state State) {
	m.obsMu.Lock()
	obs := append([]Observer(nil), m.observers...)
	m.obsMu.Unlock()
	for _, o := range obs {
		o(loc, state)
	}
}

// DidOpen registers the editor's copy of loc at version with the given
// text. When loc is already on file at a version not below version and with
// the same text, the call is a no-op returning Identical; otherwise text and
// version replace what is on file, even when version is lower than the
// recorded one.
func (m *Manager) DidOpen(loc Location, version int64, text string) State {
	m.mu.Lock()
	f, ok := m.files[loc]
	if !ok {
		f = &File{Location: loc}
		m.files[loc] = f
	}
	if ok && version <= f.Version && f.Content == text {
		m.mu.Unlock()
		return Identical
	}
	f.Version = version
	f.Content = text
	f.edClosed = false
	m.mu.Unlock()
	m.notify(loc, ChangedLSP)
	return ChangedLSP
}

// DidChange applies edits to loc's tracked content and bumps its version.
// A change reported against an unknown file is a no-op returning Identical.
func (m *Manager) DidChange(loc Location, version int64, edits []Edit) (State, error) {
	m.mu.Lock()
	f, ok := m.files[loc]
	if !ok {
		m.mu.Unlock()
		return Identical, nil
	}
	content, err := ApplyEdits(f.Content, edits)
	if err != nil {
		m.mu.Unlock()
		return Identical, err
	}
	if content == f.Content {
		f.Version = version
		m.mu.Unlock()
		return Identical, nil
	}
	f.Content = content
	f.Version = version
	m.mu.Unlock()
	m.notify(loc, ChangedContent)
	return ChangedContent, nil
}

// DidClose releases the editor-owned copy of loc. The cached content is
// kept alive as long as a live analysis still references it; only once the
// last reference drops does the entry actually disappear.
func (m *Manager) DidClose(loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[loc]
	if !ok {
		return
	}
	f.edClosed = true
	if f.refs == 0 {
		delete(m.files, loc)
	}
}

// UpdateFile re-reads loc from the external loader and reports the
// resulting state transition.
func (m *Manager) UpdateFile(ctx context.Context, loc Location) (State, error) {
	text, ok, err := m.loader.LoadText(ctx, loc)
	if err != nil {
		return Identical, err
	}
	if !ok {
		m.mu.Lock()
		_, existed := m.files[loc]
		delete(m.files, loc)
		m.mu.Unlock()
		if existed {
			m.notify(loc, ChangedContent)
			return ChangedContent, nil
		}
		return Identical, nil
	}

	m.mu.Lock()
	f, existed := m.files[loc]
	if existed && f.Content == text {
		m.mu.Unlock()
		return Identical, nil
	}
	if !existed {
		f = &File{Location: loc}
		m.files[loc] = f
	}
	f.Content = text
	f.Version++
	m.mu.Unlock()
	m.notify(loc, ChangedContent)
	return ChangedContent, nil
}

// GetFile returns the tracked File for loc, if any. The returned pointer is
// shared with the manager; callers that need it to outlive a DidClose must
// call AddRef first.
func (m *Manager) GetFile(loc Location) (*File, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[loc]
	return f, ok
}

// GetVirtualFile resolves a virtual-file id to its tracked File, if a
// preprocessor has materialized one under that id.
func (m *Manager) GetVirtualFile(id string) (*File, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for loc, f := range m.files {
		if vid, ok := loc.VirtualID(); ok && vid == id {
			return f, true
		}
	}
	return nil, false
}

// ListDirectory delegates to the Loader, giving callers (the Library) a
// single seam to mock in tests.
func (m *Manager) ListDirectory(ctx context.Context, loc Location) ([]DirEntry, ListStatus, error) {
	return m.loader.ListDirectory(ctx, loc)
}
