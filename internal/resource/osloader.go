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
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// OSLoader implements Loader by reading file:// locations off an afero
// filesystem, the same abstraction the teacher's xpls package reaches for
// when it needs a real, testable filesystem.
type OSLoader struct {
	fs afero.Fs
}

// NewOSLoader constructs an OSLoader backed by fs. Pass afero.NewOsFs() for
// the real filesystem, or an afero.MemMapFs in tests.
func NewOSLoader(fs afero.Fs) *OSLoader {
	return &OSLoader{fs: fs}
}

func (l *OSLoader) path(loc Location) string {
	return strings.TrimPrefix(loc.String(), "file://")
}

// LoadText implements Loader.
func (l *OSLoader) LoadText(_ context.Context, loc Location) (string, bool, error) {
	f, err := l.fs.Open(l.path(loc))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	defer f.Close() //nolint:errcheck

	b, err := io.ReadAll(f)
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

// ListDirectory implements Loader.
func (l *OSLoader) ListDirectory(_ context.Context, loc Location) ([]DirEntry, ListStatus, error) {
	entries, err := afero.ReadDir(l.fs, l.path(loc))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ListNotFound, nil
		}
		return nil, ListError, err
	}
	out := make([]DirEntry, len(entries))
	for i, e := range entries {
		out[i] = DirEntry{Name: e.Name(), IsDir: e.IsDir()}
	}
	return out, ListOK, nil
}
