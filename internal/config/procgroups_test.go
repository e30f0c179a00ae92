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

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcGroupsRoundTrip(t *testing.T) {
	input := `{"pgroups":[{"name":"P1","libs":["lib1",{"path":"lib2","optional":true}]}]}`

	pg, err := ParseProcGroups(json.RawMessage(input))
	require.NoError(t, err)

	require.Len(t, pg.Pgroups, 1)
	g, ok := pg.Group("P1")
	require.True(t, ok)
	assert.Equal(t, []Library{
		{Path: "lib1", Optional: false},
		{Path: "lib2", Optional: true},
	}, g.Libs)

	out, err := json.Marshal(pg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pgroups":[{"name":"P1","libs":[{"path":"lib1","optional":false},{"path":"lib2","optional":true}]}]}`, string(out))
}

func TestParseProcGroupsEmpty(t *testing.T) {
	pg, err := ParseProcGroups(nil)
	require.NoError(t, err)
	assert.Empty(t, pg.Pgroups)

	_, ok := pg.Group("missing")
	assert.False(t, ok)
}
