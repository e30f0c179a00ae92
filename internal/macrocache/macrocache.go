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

// Package macrocache caches parsed macro definitions keyed on the open-code
// file they were expanded from, the library they were resolved against, and
// the OPSYN aliasing state in effect at resolution time.
package macrocache

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// OpsynTriple is one (name, target, valid) OPSYN aliasing entry in effect
// when a macro was resolved.
type OpsynTriple struct {
	Name   string
	Target string
	Valid  bool
}

// Key identifies a cached macro the way the underlying C++ resolver does:
// by the handle of the open-code file that triggered the lookup, the
// library the macro body was read from, and the sorted OPSYN state. Two
// keys with equal fields are equal regardless of slice order, so
// NewKey sorts opsyn before storing it.
type Key struct {
	OpenCodeID  string
	LibraryData string
	opsyn       string // pre-joined, sorted opsyn triples; see NewKey
}

// NewKey builds a Key, normalizing opsyn into the sorted, joined form used
// for comparison and hashing.
func NewKey(openCodeID, libraryData string, opsyn []OpsynTriple) Key {
	sorted := make([]OpsynTriple, len(opsyn))
	copy(sorted, opsyn)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		if sorted[i].Target != sorted[j].Target {
			return sorted[i].Target < sorted[j].Target
		}
		return !sorted[i].Valid && sorted[j].Valid
	})

	var b strings.Builder
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(t.Name)
		b.WriteByte(',')
		b.WriteString(t.Target)
		b.WriteByte(',')
		if t.Valid {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}

	return Key{OpenCodeID: openCodeID, LibraryData: libraryData, opsyn: b.String()}
}

// hash returns a stable xxhash of the key, used as the LRU's lookup key
// since Key itself (containing a string built from a slice) is comparable
// but we want O(1) average-case hashing independent of opsyn length.
func (k Key) hash() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(k.OpenCodeID)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(k.LibraryData)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(k.opsyn)
	return h.Sum64()
}

// Entry is a cached macro: its parsed definition plus the file version
// stamps it was built from, so a cache hit can be invalidated the moment
// any contributing file changes.
type Entry struct {
	Definition  any
	Versions    map[string]int64 // resource location string -> version at cache time
}

// slot pairs a Key with its Entry so hash collisions (same uint64, different
// Key) can be disambiguated without a second map.
type slot struct {
	key   Key
	entry Entry
}

// Cache is an LRU-backed macro cache. Each golang-lru call is synchronized
// internally, but Save and EraseUnused read a bucket, modify it and store
// it back as separate calls, so concurrent Save/EraseUnused calls are not
// safe; the orchestrator's single-threaded driver is the only real caller.
type Cache struct {
	lru *lru.Cache[uint64, []slot]
}

// New constructs a Cache holding at most size distinct macro definitions.
func New(size int) (*Cache, error) {
	l, err := lru.New[uint64, []slot](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Load returns the cached Entry for key, if present and not evicted.
func (c *Cache) Load(key Key) (Entry, bool) {
	h := key.hash()
	slots, ok := c.lru.Get(h)
	if !ok {
		return Entry{}, false
	}
	for _, s := range slots {
		if s.key == key {
			return s.entry, true
		}
	}
	return Entry{}, false
}

// Save stores def under key with the given version stamps, replacing any
// existing entry for an equal key (collision-disambiguated).
func (c *Cache) Save(key Key, def any, versions map[string]int64) {
	h := key.hash()
	slots, _ := c.lru.Get(h)
	for i, s := range slots {
		if s.key == key {
			slots[i] = slot{key: key, entry: Entry{Definition: def, Versions: versions}}
			c.lru.Add(h, slots)
			return
		}
	}
	slots = append(slots, slot{key: key, entry: Entry{Definition: def, Versions: versions}})
	c.lru.Add(h, slots)
}

// Stale reports whether any version in current differs from the versions
// the entry was cached with, i.e. whether a defining file changed since.
func (e Entry) Stale(current map[string]int64) bool {
	for loc, v := range e.Versions {
		if cur, ok := current[loc]; !ok || cur != v {
			return true
		}
	}
	return false
}

// EraseUnused drops every cached entry whose OpenCodeID is not in live,
// i.e. whose open-code root is no longer reachable. It runs only when a
// caller invokes it with the live set; nothing in the cache calls it.
func (c *Cache) EraseUnused(live map[string]bool) {
	for _, h := range c.lru.Keys() {
		slots, ok := c.lru.Peek(h)
		if !ok {
			continue
		}
		kept := slots[:0]
		for _, s := range slots {
			if live[s.key.OpenCodeID] {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			c.lru.Remove(h)
		} else {
			c.lru.Add(h, kept)
		}
	}
}

// Len reports the number of distinct hash buckets currently held (an
// upper bound on distinct macro keys, since collisions share a bucket).
func (c *Cache) Len() int { return c.lru.Len() }
