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

package macrocache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEqualityIgnoresOpsynOrder(t *testing.T) {
	a := NewKey("oc1", "lib1", []OpsynTriple{{Name: "X", Target: "Y", Valid: true}, {Name: "A", Target: "B", Valid: false}})
	b := NewKey("oc1", "lib1", []OpsynTriple{{Name: "A", Target: "B", Valid: false}, {Name: "X", Target: "Y", Valid: true}})
	assert.Equal(t, a, b)
}

func TestKeyDistinguishesDifferentOpsynValidity(t *testing.T) {
	a := NewKey("oc1", "lib1", []OpsynTriple{{Name: "A", Target: "B", Valid: true}})
	b := NewKey("oc1", "lib1", []OpsynTriple{{Name: "A", Target: "B", Valid: false}})
	assert.NotEqual(t, a, b)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	key := NewKey("oc1", "lib1", nil)
	c.Save(key, "MACRO-DEF", map[string]int64{"lib1/FOO": 1})

	entry, ok := c.Load(key)
	require.True(t, ok)
	assert.Equal(t, "MACRO-DEF", entry.Definition)
	assert.False(t, entry.Stale(map[string]int64{"lib1/FOO": 1}))
	assert.True(t, entry.Stale(map[string]int64{"lib1/FOO": 2}))
}

func TestLoadMissingKeyFails(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	_, ok := c.Load(NewKey("oc1", "lib1", nil))
	assert.False(t, ok)
}

func TestHashCollisionsAreDisambiguatedByKey(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	k1 := NewKey("oc1", "lib1", nil)
	k2 := NewKey("oc2", "lib1", nil)
	c.Save(k1, "DEF1", nil)
	c.Save(k2, "DEF2", nil)

	e1, ok := c.Load(k1)
	require.True(t, ok)
	assert.Equal(t, "DEF1", e1.Definition)

	e2, ok := c.Load(k2)
	require.True(t, ok)
	assert.Equal(t, "DEF2", e2.Definition)
}

func TestEraseUnusedDropsEntriesForClosedOpenCode(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	k1 := NewKey("oc1", "lib1", nil)
	k2 := NewKey("oc2", "lib1", nil)
	c.Save(k1, "DEF1", nil)
	c.Save(k2, "DEF2", nil)

	c.EraseUnused(map[string]bool{"oc1": true})

	_, ok := c.Load(k1)
	assert.True(t, ok)
	_, ok = c.Load(k2)
	assert.False(t, ok)
}

func TestSaveOverwritesExistingEntryForSameKey(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	key := NewKey("oc1", "lib1", nil)
	c.Save(key, "OLD", nil)
	c.Save(key, "NEW", nil)

	entry, ok := c.Load(key)
	require.True(t, ok)
	assert.Equal(t, "NEW", entry.Definition)
}
