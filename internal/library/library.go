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

// Package library implements a single entry on the HLASM search path: a
// directory of macro/copy members, lazily enumerated and cached until
// refreshed.
package library

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
)

// Diagnostic is a simple enumeration-time diagnostic (e.g. "directory does
// not exist"). It carries no position since it is not tied to a source
// file.
type Diagnostic struct {
	Message string
}

// Library is one root of the library search path. It answers has_file
// lookups against a lazily built, refreshable member map.
type Library struct {
	root       resource.Location
	extensions []string
	optional   bool

	loader resource.Loader

	mu      sync.Mutex
	loaded  bool
	members map[string]resource.Location
	diags   []Diagnostic
}

// Option configures a Library.
type Option func(*Library)

// WithExtensions overrides the ordered list of extensions tried against
// each candidate member name ("" matches a file with no extension).
func WithExtensions(exts ...string) Option {
	return func(l *Library) { l.extensions = exts }
}

// WithOptional marks the library optional: enumeration failure produces no
// diagnostic.
func WithOptional(optional bool) Option {
	return func(l *Library) { l.optional = optional }
}

// New constructs a Library rooted at root, reading through loader.
func New(root resource.Location, loader resource.Loader, opts ...Option) *Library {
	l := &Library{
		root:       root,
		extensions: []string{""},
		loader:     loader,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Root returns the library's root location.
func (l *Library) Root() resource.Location { return l.root }

// Optional reports whether the library is optional.
func (l *Library) Optional() bool { return l.optional }

// Refresh clears the cached member map, forcing the next HasFile call to
// re-enumerate the directory.
func (l *Library) Refresh() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = false
	l.members = nil
	l.diags = nil
}

// Diagnostics returns any diagnostics produced by the most recent
// enumeration (empty for an optional library whose directory is missing).
func (l *Library) Diagnostics() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Diagnostic(nil), l.diags...)
}

// HasFile reports whether member name exists in this library, lazily
// enumerating the directory on first access. On success it also returns
// the resolved Location.
func (l *Library) HasFile(ctx context.Context, name string) (resource.Location, bool) {
	if err := l.ensureLoaded(ctx); err != nil {
		return resource.Location{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	loc, ok := l.members[strings.ToUpper(name)]
	return loc, ok
}

func (l *Library) ensureLoaded(ctx context.Context) error {
	l.mu.Lock()
	if l.loaded {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	entries, status, err := l.loader.ListDirectory(ctx, l.root)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return nil
	}
	if err != nil || status != resource.ListOK {
		l.members = make(map[string]resource.Location)
		if !l.optional {
			l.diags = []Diagnostic{{Message: "failed to enumerate library: " + l.root.String()}}
		}
		l.loaded = true
		return nil
	}

	// Group candidates by upper-cased base name so that the first matching
	// extension in the ordered list wins instead of whichever happens to be
	// returned first by the filesystem.
	byName := make(map[string]map[string]string) // name -> ext -> filename
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		ext, ok := l.matchExtension(e.Name)
		if !ok {
			continue
		}
		name, _ := splitExt(e.Name)
		key := strings.ToUpper(name)
		if byName[key] == nil {
			byName[key] = make(map[string]string)
		}
		byName[key][strings.ToUpper(ext)] = e.Name
	}

	l.members = make(map[string]resource.Location)
	for key, byExt := range byName {
		for _, want := range l.extensions {
			if fname, ok := byExt[strings.ToUpper(strings.TrimPrefix(want, "."))]; ok {
				l.members[key] = resource.NewLocation(joinLocation(l.root.String(), fname))
				break
			}
		}
	}
	l.loaded = true
	return nil
}

// matchExtension reports whether filename matches one of the library's
// configured extensions, glob-matched case-insensitively via doublestar,
// and returns the matching extension (without its leading dot). An empty
// configured extension matches a filename with no extension at all,
// which isn't expressible as a glob pattern, so it's checked directly
// instead of going through doublestar.
func (l *Library) matchExtension(filename string) (string, bool) {
	_, ext := splitExt(filename)
	lower := strings.ToLower(filename)
	for _, want := range l.extensions {
		trimmed := strings.TrimPrefix(want, ".")
		if trimmed == "" {
			if ext == "" {
				return "", true
			}
			continue
		}
		pattern := "*." + strings.ToLower(trimmed)
		if ok, err := doublestar.Match(pattern, lower); err == nil && ok {
			return ext, true
		}
	}
	return "", false
}

func splitExt(name string) (base, ext string) {
	e := filepath.Ext(name)
	if e == "" {
		return name, ""
	}
	return strings.TrimSuffix(name, e), strings.TrimPrefix(e, ".")
}

func joinLocation(root, name string) string {
	if strings.HasSuffix(root, "/") {
		return root + name
	}
	return root + "/" + name
}
