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

// Package resource provides the identity of every file the server touches:
// a normalized URI, the file-manager that owns their content and version,
// and the virtual-file/hlasm-external URI schemes preprocessors use.
package resource

import (
	"encoding/hex"
	"strings"
)

// virtualScheme identifies a synthetic file materialized by a preprocessor.
const virtualScheme = "hlasm://"

// externalScheme wraps another URI whose scheme the client can't address
// directly, with the real URI base16-encoded in the host position.
const externalScheme = "hlasm-external://"

// Location is the normalized identity of a file. Equality and hashing are
// structural: two Locations are equal iff their normalized strings match.
type Location struct {
	uri string
}

// NewLocation normalizes the supplied URI and returns its Location.
//
// Normalization lower-cases the scheme, collapses repeated slashes in the
// path component, and strips a trailing slash. It does not resolve "..";
// that is the caller's (file-manager's) concern, not identity's.
func NewLocation(uri string) Location {
	return Location{uri: normalize(uri)}
}

func normalize(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	scheme = strings.ToLower(scheme)
	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}
	rest = strings.TrimSuffix(rest, "/")
	return scheme + "://" + rest
}

// String returns the normalized URI.
func (l Location) String() string { return l.uri }

// IsZero reports whether l is the empty Location.
func (l Location) IsZero() bool { return l.uri == "" }

// IsVirtual reports whether l addresses a synthetic preprocessor file.
func (l Location) IsVirtual() bool { return strings.HasPrefix(l.uri, virtualScheme) }

// VirtualID extracts the decimal id from a hlasm://<id>/... location. The
// second return value is false if l is not a virtual-file location or the
// id segment isn't a valid non-negative integer.
func (l Location) VirtualID() (string, bool) {
	if !l.IsVirtual() {
		return "", false
	}
	rest := strings.TrimPrefix(l.uri, virtualScheme)
	id, _, _ := strings.Cut(rest, "/")
	if id == "" {
		return "", false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return id, true
}

// IsExternal reports whether l uses the hlasm-external:// scheme.
func (l Location) IsExternal() bool { return strings.HasPrefix(l.uri, externalScheme) }

// DecodeExternal base16-decodes the host segment of a hlasm-external://
// location and returns the Location it encodes. ok is false if l is not an
// external location or the host isn't valid base16.
func (l Location) DecodeExternal() (Location, bool) {
	if !l.IsExternal() {
		return Location{}, false
	}
	rest := strings.TrimPrefix(l.uri, externalScheme)
	host, _, _ := strings.Cut(rest, "/")
	decoded, err := hex.DecodeString(host)
	if err != nil {
		return Location{}, false
	}
	return NewLocation(string(decoded)), true
}

// EncodeExternal builds a hlasm-external://<host>/<suffix> location wrapping
// inner, the way a preprocessor addresses content from an alternate scheme
// (e.g. a DB2/CICS virtual source) that the editor can't open directly.
func EncodeExternal(inner Location, suffix string) Location {
	host := hex.EncodeToString([]byte(inner.String()))
	u := externalScheme + host
	if suffix != "" {
		u += "/" + strings.TrimPrefix(suffix, "/")
	}
	return NewLocation(u)
}

// NewVirtual builds a hlasm://<id>/<suffix> location for a preprocessor's
// synthetic file.
func NewVirtual(id string, suffix string) Location {
	u := virtualScheme + id
	if suffix != "" {
		u += "/" + strings.TrimPrefix(suffix, "/")
	}
	return NewLocation(u)
}
