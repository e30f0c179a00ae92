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

import (
	"strings"

	"github.com/eclipse-che4z/hlasm-language-server/internal/extfunc"
)

// defaultExternalFunctions is the small built-in SETAF/SETCF library every
// Analyzer registers; a real deployment would load these (and a host's own)
// from a configured external-function library instead.
func defaultExternalFunctions() []extfunc.Definition {
	return []extfunc.Definition{
		{Name: "MAX", Callable: func(b *extfunc.ArgBundle) {
			if len(b.ArithArgs) == 0 {
				return
			}
			m := b.ArithArgs[0]
			for _, v := range b.ArithArgs[1:] {
				if v > m {
					m = v
				}
			}
			b.ArithResult = m
		}},
		{Name: "MIN", Callable: func(b *extfunc.ArgBundle) {
			if len(b.ArithArgs) == 0 {
				return
			}
			m := b.ArithArgs[0]
			for _, v := range b.ArithArgs[1:] {
				if v < m {
					m = v
				}
			}
			b.ArithResult = m
		}},
		{Name: "UPPER", Callable: func(b *extfunc.ArgBundle) {
			if len(b.CharArgs) > 0 {
				b.CharResult = strings.ToUpper(b.CharArgs[0])
			}
		}},
		{Name: "CONCAT", Callable: func(b *extfunc.ArgBundle) {
			b.CharResult = strings.Join(b.CharArgs, "")
		}},
	}
}
