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

// Package ca implements the conditional-assembly expression core: typed
// SET_t values, the two-phase undefined-attribute/evaluate resolution, and
// the SETAF/SETCF external-function invocation contract.
package ca

import "fmt"

// Kind discriminates the SET_t sum type.
type Kind int

const (
	Arithmetic Kind = iota
	Boolean
	Character
)

// MaxStringLength is the HLASM maximum CA string size, in code units.
const MaxStringLength = 4064

// Value is a SET_t: the result of evaluating a CA expression.
type Value struct {
	Kind   Kind
	Number int32
	Bool   bool
	Str    string
}

// Int builds an arithmetic Value.
func Int(n int32) Value { return Value{Kind: Arithmetic, Number: n} }

// Bool builds a boolean Value.
func Bool(b bool) Value { return Value{Kind: Boolean, Bool: b} }

// Str builds a character Value.
func Str(s string) Value { return Value{Kind: Character, Str: s} }

// AsInt coerces v to an arithmetic int32, accepting integers and booleans
// (0/1).
func (v Value) AsInt() (int32, bool) {
	switch v.Kind {
	case Arithmetic:
		return v.Number, true
	case Boolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsString coerces v to its character representation. Arithmetic and
// boolean values format as their decimal/0-1 text.
func (v Value) AsString() string {
	switch v.Kind {
	case Character:
		return v.Str
	case Boolean:
		if v.Bool {
			return "1"
		}
		return "0"
	case Arithmetic:
		return fmt.Sprintf("%d", v.Number)
	default:
		return ""
	}
}

// String implements fmt.Stringer for debugging/tests.
func (v Value) String() string {
	switch v.Kind {
	case Arithmetic:
		return fmt.Sprintf("Int(%d)", v.Number)
	case Boolean:
		return fmt.Sprintf("Bool(%t)", v.Bool)
	case Character:
		return fmt.Sprintf("Str(%q)", v.Str)
	default:
		return "Value(?)"
	}
}
