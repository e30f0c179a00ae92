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

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-language-server/internal/extfunc"
)

type fakeVars struct{ m map[string]Value }

func newFakeVars() *fakeVars { return &fakeVars{m: make(map[string]Value)} }

func (v *fakeVars) Get(name string) (Value, bool) {
	val, ok := v.m[name]
	return val, ok
}

func (v *fakeVars) GetIndexed(name string, index int32) (Value, bool) {
	return v.Get(name)
}

func (v *fakeVars) Set(name string, val Value) { v.m[name] = val }

type fakeAttrs struct{}

func (fakeAttrs) Get(symbol string, attr byte) (Value, bool) { return Value{}, false }

type diagCollector struct{ diags []Diagnostic }

func (d *diagCollector) Diag(diag Diagnostic) { d.diags = append(d.diags, diag) }

func newCtx(reg *extfunc.Registry, vars *fakeVars) (*EvalContext, *diagCollector) {
	diags := &diagCollector{}
	ctx := &EvalContext{
		Vars:   vars,
		Attrs:  fakeAttrs{},
		Diags:  diags,
		Invoke: ExternalInvoker(reg),
	}
	return ctx, diags
}

// scenario 2: SETAF invokes a registered arithmetic external function.
func TestSetafArithmeticEndToEnd(t *testing.T) {
	reg := extfunc.NewRegistry(extfunc.Definition{Name: "ADD", Callable: func(b *extfunc.ArgBundle) {
		var sum int32
		for _, a := range b.ArithArgs {
			sum += a
		}
		b.ArithResult = sum
	}})
	vars := newFakeVars()
	ctx, diags := newCtx(reg, vars)

	stmt := SetFuncStmt{
		Kind:   SetArithmetic,
		Name:   Literal{Value: Str("ADD")},
		Args:   []Expr{Literal{Value: Int(1)}, Literal{Value: Int(2)}},
		Target: "&RESULT",
	}
	ok := stmt.Exec(ctx)
	require.True(t, ok)
	assert.Empty(t, diags.diags)

	got, found := vars.Get("&RESULT")
	require.True(t, found)
	n, _ := got.AsInt()
	assert.Equal(t, int32(3), n)
}

// scenario 3: SETCF surfaces a message as an EXT diagnostic.
func TestSetcfCharacterMessageEndToEnd(t *testing.T) {
	reg := extfunc.NewRegistry(extfunc.Definition{Name: "MSG", Callable: func(b *extfunc.ArgBundle) {
		b.CharResult = "DONE"
		b.Msg = &extfunc.Message{Severity: extfunc.FatalError, Text: "EXTERNAL"}
	}})
	vars := newFakeVars()
	ctx, diags := newCtx(reg, vars)

	stmt := SetFuncStmt{
		Kind:   SetCharacter,
		Name:   Literal{Value: Str("MSG")},
		Args:   []Expr{Literal{Value: Str("1")}, Literal{Value: Str("2")}},
		Target: "&RESULT",
	}
	ok := stmt.Exec(ctx)
	require.True(t, ok)
	require.Len(t, diags.diags, 1)
	assert.Equal(t, CodeExternalMessage, diags.diags[0].Code)
	assert.Equal(t, SeverityInfo, diags.diags[0].Severity)
	assert.Equal(t, "External function MSG: EXTERNAL", diags.diags[0].Message)

	got, _ := vars.Get("&RESULT")
	assert.Equal(t, "DONE", got.AsString())
}

func TestSetfuncMissingOperandRaisesE022(t *testing.T) {
	reg := extfunc.NewRegistry()
	vars := newFakeVars()
	ctx, diags := newCtx(reg, vars)

	stmt := SetFuncStmt{Kind: SetArithmetic, Target: "&R"}
	ok := stmt.Exec(ctx)
	assert.False(t, ok)
	require.Len(t, diags.diags, 1)
	assert.Equal(t, CodeMissingFunction, diags.diags[0].Code)
}

func TestSetfuncUnknownNameRaisesE083(t *testing.T) {
	reg := extfunc.NewRegistry()
	vars := newFakeVars()
	ctx, diags := newCtx(reg, vars)

	stmt := SetFuncStmt{Kind: SetArithmetic, Name: Literal{Value: Str("NOPE")}, Target: "&R"}
	ok := stmt.Exec(ctx)
	assert.False(t, ok)
	require.Len(t, diags.diags, 1)
	assert.Equal(t, CodeUnknownFunction, diags.diags[0].Code)
}

func TestSetfuncTruncationRaisesW019(t *testing.T) {
	long := strings.Repeat("Z", MaxStringLength+5)
	reg := extfunc.NewRegistry(extfunc.Definition{Name: "BIG", Callable: func(b *extfunc.ArgBundle) {
		b.CharResult = long
	}})
	vars := newFakeVars()
	ctx, diags := newCtx(reg, vars)

	stmt := SetFuncStmt{Kind: SetCharacter, Name: Literal{Value: Str("BIG")}, Target: "&R"}
	ok := stmt.Exec(ctx)
	require.True(t, ok)
	require.Len(t, diags.diags, 1)
	assert.Equal(t, CodeTruncatedResult, diags.diags[0].Code)

	got, _ := vars.Get("&R")
	assert.Len(t, got.Str, MaxStringLength)
}

// "&A SETAF 'F',&A+&A": the argument reads &A's pre-assignment value.
func TestSetfuncSelfReferenceReadsPreAssignmentValue(t *testing.T) {
	reg := extfunc.NewRegistry(extfunc.Definition{Name: "F", Callable: func(b *extfunc.ArgBundle) {
		b.ArithResult = b.ArithArgs[0]
	}})
	vars := newFakeVars()
	vars.Set("&A", Int(5))
	ctx, _ := newCtx(reg, vars)

	stmt := SetFuncStmt{
		Kind:   SetArithmetic,
		Name:   Literal{Value: Str("F")},
		Args:   []Expr{BinOp{Op: "+", Left: VarRef{Name: "&A"}, Right: VarRef{Name: "&A"}}},
		Target: "&A",
	}
	ok := stmt.Exec(ctx)
	require.True(t, ok)

	got, _ := vars.Get("&A")
	n, _ := got.AsInt()
	assert.Equal(t, int32(10), n)
}

func TestDuplicateWithinLimit(t *testing.T) {
	d := Dup{Factor: Literal{Value: Int(3)}, Source: Literal{Value: Str("AB")}}
	ctx, diags := newCtx(extfunc.NewRegistry(), newFakeVars())
	v, ok := d.Eval(ctx)
	require.True(t, ok)
	assert.Equal(t, "ABABAB", v.AsString())
	assert.Empty(t, diags.diags)
}

func TestDuplicateOverflowRaisesCE011(t *testing.T) {
	long := strings.Repeat("X", 2033)
	d := Dup{Factor: Literal{Value: Int(2)}, Source: Literal{Value: Str(long)}}
	ctx, diags := newCtx(extfunc.NewRegistry(), newFakeVars())
	_, ok := d.Eval(ctx)
	assert.False(t, ok)
	require.Len(t, diags.diags, 1)
	assert.Equal(t, CodeOverflowDuplicate, diags.diags[0].Code)
}

func TestSubstringBasic(t *testing.T) {
	s := Substring{
		Source: Literal{Value: Str("HLASM")},
		Start:  Literal{Value: Int(2)},
		Count:  Literal{Value: Int(3)},
	}
	ctx, _ := newCtx(extfunc.NewRegistry(), newFakeVars())
	v, ok := s.Eval(ctx)
	require.True(t, ok)
	assert.Equal(t, "LAS", v.AsString())
}

func TestSubstringStartBeyondLengthIsEmpty(t *testing.T) {
	s := Substring{
		Source: Literal{Value: Str("AB")},
		Start:  Literal{Value: Int(5)},
		Count:  Literal{Value: Int(1)},
	}
	ctx, _ := newCtx(extfunc.NewRegistry(), newFakeVars())
	v, ok := s.Eval(ctx)
	require.True(t, ok)
	assert.Equal(t, "", v.AsString())
}

func TestSubstringCountClampedToRemainingLength(t *testing.T) {
	s := Substring{
		Source: Literal{Value: Str("HLASM")},
		Start:  Literal{Value: Int(4)},
		Count:  Literal{Value: Int(10)},
	}
	ctx, _ := newCtx(extfunc.NewRegistry(), newFakeVars())
	v, ok := s.Eval(ctx)
	require.True(t, ok)
	assert.Equal(t, "SM", v.AsString())
}

func TestCollectUndefinedStopsResolutionUntilAttributeKnown(t *testing.T) {
	solver := fakeSolver{resolved: map[string]bool{"SYM": false}}
	var undefined []string
	e := AttrRef{Symbol: "SYM", Attr: 'L'}
	resolvable := e.CollectUndefined(solver, &undefined)
	assert.False(t, resolvable)
	assert.Equal(t, []string{"SYM"}, undefined)

	solver.resolved["SYM"] = true
	undefined = nil
	resolvable = e.CollectUndefined(solver, &undefined)
	assert.True(t, resolvable)
	assert.Empty(t, undefined)
}

type fakeSolver struct{ resolved map[string]bool }

func (f fakeSolver) Resolved(symbol string) bool { return f.resolved[symbol] }
