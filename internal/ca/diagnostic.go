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

package ca

// Severity mirrors the wire severities the LSP feature layer maps
// diagnostics to.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Position is a zero-based line/character source position.
type Position struct {
	Line, Character int
}

// Range is the source span a Diagnostic attaches to.
type Range struct {
	Start, End Position
}

// Diagnostic is a CA evaluation error or warning. These are never Go
// errors: they accumulate on a Consumer instead of propagating via
// panic/return.
type Diagnostic struct {
	Code     string
	Message  string
	Severity Severity
	Range    Range
}

// Consumer receives diagnostics produced while resolving or evaluating a
// CA expression tree.
type Consumer interface {
	Diag(Diagnostic)
}

// ConsumerFunc adapts a function to a Consumer.
type ConsumerFunc func(Diagnostic)

// Diag implements Consumer.
func (f ConsumerFunc) Diag(d Diagnostic) { f(d) }

// Well-known diagnostic codes this package emits.
const (
	CodeOverflowDuplicate = "CE011" // duplicate(factor, s): factor*|s| > 4064
	CodeMissingFunction   = "E022" // SETAF/SETCF missing the function-name operand
	CodeUnknownFunction   = "E083" // external function name not registered
	CodeTruncatedResult   = "W019" // character result truncated at 4064
	CodeExternalMessage   = "EXT" // a message surfaced by an external function
)
