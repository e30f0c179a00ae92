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
	"strings"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
)

// Position is a zero-based line/character position, matching the LSP wire
// protocol (textDocument/didChange ranges).
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) span within a document.
type Range struct {
	Start, End Position
}

// Edit is a single incremental content change. A nil Range means "replace
// the whole document", mirroring the LSP TextDocumentContentChangeEvent's
// full-replacement form.
type Edit struct {
	Range   *Range
	NewText string
}

const (
	errNoChangesSupplied = "no content changes supplied"
	errInvalidRange      = "invalid range supplied"
)

// ApplyEdits applies a sequence of incremental edits to content, the way
// the teacher's workspace.updateChanges injects LSP content changes into a
// document body. Edits are applied in order against the document as it
// stands after each prior edit, per the LSP spec.
func ApplyEdits(content string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return "", errors.New(errNoChangesSupplied)
	}
	for _, e := range edits {
		if e.Range == nil {
			content = e.NewText
			continue
		}
		start, err := offsetOf(content, e.Range.Start)
		if err != nil {
			return "", err
		}
		end, err := offsetOf(content, e.Range.End)
		if err != nil {
			return "", err
		}
		if end < start {
			return "", errors.New(errInvalidRange)
		}
		var b strings.Builder
		b.WriteString(content[:start])
		b.WriteString(e.NewText)
		b.WriteString(content[end:])
		content = b.String()
	}
	return content, nil
}

// offsetOf converts a line/character position into a byte offset. Character
// is treated as a rune count within the line, which is sufficient for the
// ASCII-heavy HLASM source the server targets; a UTF-16-exact converter
// would be needed for arbitrary Unicode column semantics.
func offsetOf(content string, pos Position) (int, error) {
	if pos.Line < 0 || pos.Character < 0 {
		return 0, errors.New(errInvalidRange)
	}
	offset := 0
	line := 0
	for line < pos.Line {
		idx := strings.IndexByte(content[offset:], '\n')
		if idx < 0 {
			return 0, errors.New(errInvalidRange)
		}
		offset += idx + 1
		line++
	}
	rest := content[offset:]
	col := 0
	for i, r := range rest {
		if col == pos.Character {
			return offset + i, nil
		}
		_ = r
		col++
	}
	if col == pos.Character {
		return offset + len(rest), nil
	}
	return 0, errors.New(errInvalidRange)
}
