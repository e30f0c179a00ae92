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

package analysis

import "github.com/eclipse-che4z/hlasm-language-server/internal/ca"

// varStore backs one file's SETA/SETB/SETC variables. Subscripted access
// (&ARR(n)) collapses to the unindexed value: tracking per-index arrays
// would need a second dimension this single-file analyzer has no use for
// yet.
type varStore struct {
	values map[string]ca.Value
}

func newVarStore() *varStore {
	return &varStore{values: make(map[string]ca.Value)}
}

func (v *varStore) Get(name string) (ca.Value, bool) {
	val, ok := v.values[name]
	return val, ok
}

func (v *varStore) GetIndexed(name string, _ int32) (ca.Value, bool) {
	return v.Get(name)
}

func (v *varStore) Set(name string, val ca.Value) {
	v.values[name] = val
}

// ordinarySymbols backs ordinary-symbol attribute references (L', T', ...):
// an attribute is resolvable once the symbol's defining statement has been
// seen, which this analyzer tracks simply as definition order.
type ordinarySymbols struct {
	defined map[string]bool
}

func newOrdinarySymbols() *ordinarySymbols {
	return &ordinarySymbols{defined: make(map[string]bool)}
}

func (o *ordinarySymbols) define(name string) { o.defined[name] = true }

func (o *ordinarySymbols) Resolved(symbol string) bool { return o.defined[symbol] }

// Get implements ca.Attributes with the handful of attributes small enough
// to approximate without a real operand-length/type model.
func (o *ordinarySymbols) Get(symbol string, attr byte) (ca.Value, bool) {
	if !o.defined[symbol] {
		return ca.Value{}, false
	}
	switch attr {
	case 'L':
		return ca.Int(int32(len(symbol))), true
	case 'T':
		return ca.Str("U"), true
	default:
		return ca.Int(0), true
	}
}
