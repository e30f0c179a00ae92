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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	text map[Location]string
}

func (f *fakeLoader) LoadText(_ context.Context, loc Location) (string, bool, error) {
	t, ok := f.text[loc]
	return t, ok, nil
}

func (f *fakeLoader) ListDirectory(_ context.Context, _ Location) ([]DirEntry, ListStatus, error) {
	return nil, ListOK, nil
}

func TestDidChangeUnknownFileIsNoOp(t *testing.T) {
	m := NewManager(&fakeLoader{})
	loc := NewLocation("file:///a.hlasm")
	state, err := m.DidChange(loc, 2, []Edit{{NewText: "X"}})
	require.NoError(t, err)
	assert.Equal(t, Identical, state)
	_, ok := m.GetFile(loc)
	assert.False(t, ok)
}

func TestDidChangeWatchedFilesIdempotent(t *testing.T) {
	loc := NewLocation("file:///a.hlasm")
	loader := &fakeLoader{text: map[Location]string{loc: "MAIN START\n"}}
	m := NewManager(loader)

	state, err := m.UpdateFile(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, ChangedContent, state)

	// Repeated update with no version change must be identical and trigger
	// no reparse signal.
	state, err = m.UpdateFile(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, Identical, state)
}

func TestDidCloseKeepsContentWhileReferenced(t *testing.T) {
	loc := NewLocation("file:///a.hlasm")
	m := NewManager(&fakeLoader{})
	m.DidOpen(loc, 1, "MAIN START\n")

	f, ok := m.GetFile(loc)
	require.True(t, ok)
	f.AddRef()

	m.DidClose(loc)
	// still present: an analysis references it
	f2, ok := m.GetFile(loc)
	require.True(t, ok)
	assert.Equal(t, f, f2)

	evict := f2.Release()
	assert.True(t, evict)
}

func TestVersionOrderingObservedInSequence(t *testing.T) {
	loc := NewLocation("file:///a.hlasm")
	m := NewManager(&fakeLoader{})
	m.DidOpen(loc, 1, "A\n")
	_, err := m.DidChange(loc, 2, []Edit{{NewText: "B\n"}})
	require.NoError(t, err)

	f, ok := m.GetFile(loc)
	require.True(t, ok)
	assert.Equal(t, int64(2), f.Version)
	assert.Equal(t, "B\n", f.Content)
}

func TestVirtualLocationRoundTrip(t *testing.T) {
	loc := NewVirtual("42", "SOME/MEMBER")
	id, ok := loc.VirtualID()
	require.True(t, ok)
	assert.Equal(t, "42", id)
	assert.True(t, loc.IsVirtual())
}

func TestExternalLocationRoundTrip(t *testing.T) {
	inner := NewLocation("db2://HOST/TABLE")
	wrapped := EncodeExternal(inner, "decl.hlasm")
	assert.True(t, wrapped.IsExternal())

	decoded, ok := wrapped.DecodeExternal()
	require.True(t, ok)
	assert.Equal(t, inner, decoded)
}

func TestApplyEditsFullReplace(t *testing.T) {
	out, err := ApplyEdits("old", []Edit{{NewText: "new"}})
	require.NoError(t, err)
	assert.Equal(t, "new", out)
}

func TestApplyEditsRange(t *testing.T) {
	content := "line one\nline two\n"
	out, err := ApplyEdits(content, []Edit{{
		Range:   &Range{Start: Position{Line: 1, Character: 5}, End: Position{Line: 1, Character: 8}},
		NewText: "TWO",
	}})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline TWO\n", out)
}

func TestApplyEditsNoChanges(t *testing.T) {
	_, err := ApplyEdits("x", nil)
	assert.Error(t, err)
}
