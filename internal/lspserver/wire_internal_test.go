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

package lspserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/workspace"
)

func TestEncodeSemanticTokensDeltaEncodesConsecutiveSymbols(t *testing.T) {
	symbols := []workspace.Symbol{
		{Kind: workspace.SymbolOrdinary, Range: resource.Range{
			Start: resource.Position{Line: 0, Character: 0},
			End:   resource.Position{Line: 0, Character: 3},
		}},
		{Kind: workspace.SymbolMacro, Range: resource.Range{
			Start: resource.Position{Line: 2, Character: 4},
			End:   resource.Position{Line: 2, Character: 9},
		}},
	}

	data := encodeSemanticTokens(symbols)

	assert.Equal(t, []uint32{
		0, 0, 3, uint32(workspace.SymbolOrdinary), 0,
		2, 4, 5, uint32(workspace.SymbolMacro), 0,
	}, data)
}

func TestSymbolKindMapping(t *testing.T) {
	assert.NotEqual(t, symbolKindOf(workspace.SymbolOrdinary), symbolKindOf(workspace.SymbolOpcode))
}
