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

// Package extfunc implements the external-function registry: the
// host-supplied SETAF/SETCF callables, their argument/result contract, and
// the 4064-code-unit truncation rule.
package extfunc

import (
	"fmt"
	"strings"
)

// Type is the arity/type shape of an external function.
type Type int

const (
	// Arithmetic functions take int32 arguments and return an int32.
	Arithmetic Type = iota
	// Character functions take string arguments and return a string.
	Character
)

// MaxStringLength is the HLASM maximum string length, in code units.
const MaxStringLength = 4064

// Severity levels for a Message.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	// FatalError is reported at Info severity: the worked example in
	// spec.md §8 scenario 3 (message=(3,"EXTERNAL") on a SETAF call) and
	// the original implementation's external_functions_test.cpp both
	// assert diagnostic_severity::info for this value, despite the
	// general "{0=info,1=warning,2=error,3=error}" prose description.
	FatalError
)

// wireSeverity maps a Severity to its CA-diagnostic severity. FatalError
// renders as Info per the ground-truth worked example, not Error.
func (s Severity) wireSeverity() Severity {
	if s == FatalError {
		return Info
	}
	return s
}

// Message is an optional diagnostic a callable may attach to the bundle.
type Message struct {
	Severity Severity
	Text     string
}

// ArgBundle is the tagged argument/result bundle passed to a callable. The
// callee mutates ArithResult/CharResult and/or Msg; the caller treats the
// argument slices as read-only and must not retain any reference to the
// bundle after returning.
type ArgBundle struct {
	Kind Type

	ArithArgs   []int32
	ArithResult int32

	CharArgs   []string
	CharResult string

	Msg *Message
}

// NewArithmeticBundle builds an arithmetic ArgBundle over args.
func NewArithmeticBundle(args []int32) *ArgBundle {
	return &ArgBundle{Kind: Arithmetic, ArithArgs: args}
}

// NewCharacterBundle builds a character ArgBundle over args.
func NewCharacterBundle(args []string) *ArgBundle {
	return &ArgBundle{Kind: Character, CharArgs: args}
}

// Truncated enforces the HLASM maximum string length on the character
// result, reporting whether truncation occurred.
func (b *ArgBundle) Truncated() bool {
	if b.Kind != Character {
		return false
	}
	if len([]rune(b.CharResult)) <= MaxStringLength {
		return false
	}
	r := []rune(b.CharResult)
	b.CharResult = string(r[:MaxStringLength])
	return true
}

// Callable is a host-supplied external function body.
type Callable func(*ArgBundle)

type entry struct {
	name     string
	callable Callable
}

// Definition is one (name, callable) pair to register.
type Definition struct {
	Name     string
	Callable Callable
}

// Registry maps case-insensitively-unique names to callables, in
// registration order.
type Registry struct {
	entries []entry
	byName  map[string]int
}

// NewRegistry constructs a Registry from an ordered list of (name,
// callable) pairs. Duplicate names (compared case-insensitively) are a
// programmer error: NewRegistry panics, since a duplicate can only arise
// from a misconfigured host before any source is analyzed.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{byName: make(map[string]int)}
	for _, p := range defs {
		key := strings.ToUpper(p.Name)
		if _, exists := r.byName[key]; exists {
			panic(fmt.Sprintf("extfunc: duplicate external function name %q", p.Name))
		}
		r.byName[key] = len(r.entries)
		r.entries = append(r.entries, entry{name: p.Name, callable: p.Callable})
	}
	return r
}

// Lookup finds the callable registered under name, compared
// case-insensitively.
func (r *Registry) Lookup(name string) (Callable, bool) {
	idx, ok := r.byName[strings.ToUpper(name)]
	if !ok {
		return nil, false
	}
	return r.entries[idx].callable, true
}

// Invoke runs the callable registered under name against bundle, applying
// the message-prefixing and truncation rules. It reports ok=false if name
// is not registered; callers translate that into CA error E083 on the
// calling statement.
func Invoke(r *Registry, name string, bundle *ArgBundle) (msg *Message, truncated bool, ok bool) {
	idx, found := r.byName[strings.ToUpper(name)]
	if !found {
		return nil, false, false
	}
	canonical := r.entries[idx].name
	r.entries[idx].callable(bundle)

	truncated = bundle.Truncated()

	if bundle.Msg != nil {
		msg = &Message{
			Severity: bundle.Msg.Severity.wireSeverity(),
			Text:     fmt.Sprintf("External function %s: %s", canonical, bundle.Msg.Text),
		}
	}
	return msg, truncated, true
}
