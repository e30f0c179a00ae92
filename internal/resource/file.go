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

// State describes the kind of content transition a file underwent.
type State int

const (
	// Identical means the operation produced no observable change.
	Identical State = iota
	// ChangedContent means the file's text changed.
	ChangedContent
	// ChangedLSP means an editor-owned version transition occurred (e.g. a
	// didOpen/didClose boundary) without necessarily changing the text.
	ChangedLSP
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Identical:
		return "identical"
	case ChangedContent:
		return "changed_content"
	case ChangedLSP:
		return "changed_lsp"
	default:
		return "unknown"
	}
}

// File is a single tracked source file: its location, the monotonically
// increasing version the editor last reported, and its current text.
type File struct {
	Location Location
	Version  int64
	Content  string

	// refs counts live analysis handles that still need the content even
	// after the editor has closed the document. The file manager only
	// drops content once refs reaches zero and the editor copy is closed.
	refs     int
	edClosed bool
}

// AddRef records that an analysis now holds a reference to this file's
// content, keeping it alive past a subsequent DidClose.
func (f *File) AddRef() { f.refs++ }

// Release drops a previously acquired reference. It reports whether the
// file should now be evicted from the manager (editor closed and no
// analyses reference it any longer).
func (f *File) Release() bool {
	if f.refs > 0 {
		f.refs--
	}
	return f.edClosed && f.refs == 0
}
