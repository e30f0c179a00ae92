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

import "strings"

// DependencySolver answers whether an ordinary symbol's attribute is
// currently resolvable. The concrete dependency graph lives outside this
// package (it belongs to the analyzer's symbol table); CA expressions only
// need this one query.
type DependencySolver interface {
	Resolved(symbol string) bool
}

// Variables resolves ordinary and system variable references by name, and
// indexed (subscripted) references.
type Variables interface {
	Get(name string) (Value, bool)
	GetIndexed(name string, index int32) (Value, bool)
	Set(name string, v Value)
}

// Attributes resolves an ordinary-symbol attribute reference (e.g. L', T',
// D') to its value once the symbol is defined.
type Attributes interface {
	Get(symbol string, attr byte) (Value, bool)
}

// EvalContext bundles everything Eval needs: variable/attribute lookup, the
// external-function invocation seam, and the diagnostic sink.
type EvalContext struct {
	Vars  Variables
	Attrs Attributes
	Diags Consumer

	// Invoke runs a registered external function by name, returning its
	// assignable result Value, any surfaced Message, whether the character
	// result was truncated at MaxStringLength, and whether the name was
	// found. A func field rather than an interface so tests can stub it
	// directly.
	Invoke func(name string, kind Kind, args []Value) (result Value, msg *Message, truncated bool, found bool)
}

// Message mirrors extfunc.Message as ca's own type, so EvalContext.Invoke
// does not expose the registry's concrete type; ExternalInvoker converts
// between the two.
type Message struct {
	Severity Severity
	Text     string
}

// Expr is a node in a CA expression tree.
type Expr interface {
	// CollectUndefined appends the ids of unresolved ordinary-symbol
	// attribute references reachable from this node to out, and reports
	// whether the subtree is fully resolvable.
	CollectUndefined(solver DependencySolver, out *[]string) bool
	// Eval evaluates the node, returning ok=false if a diagnostic was
	// raised and no meaningful Value is available.
	Eval(ctx *EvalContext) (Value, bool)
}

// Literal is a constant SET_t value.
type Literal struct{ Value Value }

func (l Literal) CollectUndefined(DependencySolver, *[]string) bool { return true }
func (l Literal) Eval(*EvalContext) (Value, bool)                   { return l.Value, true }

// VarRef reads an ordinary or system variable by name.
type VarRef struct{ Name string }

func (r VarRef) CollectUndefined(DependencySolver, *[]string) bool { return true }
func (r VarRef) Eval(ctx *EvalContext) (Value, bool) {
	v, ok := ctx.Vars.Get(r.Name)
	if !ok {
		return Value{}, false
	}
	return v, true
}

// Subscript reads an indexed variable reference, e.g. &ARR(5).
type Subscript struct {
	Name  string
	Index Expr
}

func (s Subscript) CollectUndefined(solver DependencySolver, out *[]string) bool {
	return s.Index.CollectUndefined(solver, out)
}

func (s Subscript) Eval(ctx *EvalContext) (Value, bool) {
	idxV, ok := s.Index.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	idx, ok := idxV.AsInt()
	if !ok {
		return Value{}, false
	}
	v, ok := ctx.Vars.GetIndexed(s.Name, idx)
	if !ok {
		return Value{}, false
	}
	return v, true
}

// AttrRef reads an ordinary-symbol attribute (L', T', D', ...).
type AttrRef struct {
	Symbol string
	Attr   byte
}

func (a AttrRef) CollectUndefined(solver DependencySolver, out *[]string) bool {
	if solver == nil || solver.Resolved(a.Symbol) {
		return true
	}
	*out = append(*out, a.Symbol)
	return false
}

func (a AttrRef) Eval(ctx *EvalContext) (Value, bool) {
	return ctx.Attrs.Get(a.Symbol, a.Attr)
}

// BinOp is a binary arithmetic, comparison, or logical operator.
type BinOp struct {
	Op          string
	Left, Right Expr
}

func (b BinOp) CollectUndefined(solver DependencySolver, out *[]string) bool {
	l := b.Left.CollectUndefined(solver, out)
	r := b.Right.CollectUndefined(solver, out)
	return l && r
}

func (b BinOp) Eval(ctx *EvalContext) (Value, bool) {
	lv, ok := b.Left.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	rv, ok := b.Right.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	switch strings.ToUpper(b.Op) {
	case "+":
		li, lok := lv.AsInt()
		ri, rok := rv.AsInt()
		if !lok || !rok {
			return Value{}, false
		}
		return Int(li + ri), true
	case "-":
		li, lok := lv.AsInt()
		ri, rok := rv.AsInt()
		if !lok || !rok {
			return Value{}, false
		}
		return Int(li - ri), true
	case "*":
		li, lok := lv.AsInt()
		ri, rok := rv.AsInt()
		if !lok || !rok {
			return Value{}, false
		}
		return Int(li * ri), true
	case "/":
		li, lok := lv.AsInt()
		ri, rok := rv.AsInt()
		if !lok || !rok || ri == 0 {
			return Value{}, false
		}
		return Int(li / ri), true
	case "AND":
		return Bool(boolOf(lv) && boolOf(rv)), true
	case "OR":
		return Bool(boolOf(lv) || boolOf(rv)), true
	case "EQ":
		return Bool(equalValues(lv, rv)), true
	case "NE":
		return Bool(!equalValues(lv, rv)), true
	default:
		return Value{}, false
	}
}

func boolOf(v Value) bool {
	switch v.Kind {
	case Boolean:
		return v.Bool
	case Arithmetic:
		return v.Number != 0
	default:
		return v.Str != ""
	}
}

func equalValues(a, b Value) bool {
	if a.Kind == Character || b.Kind == Character {
		return a.AsString() == b.AsString()
	}
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	return ai == bi
}

// Upper upper-cases a character expression (HLASM's UPPER builtin).
type Upper struct{ Inner Expr }

func (u Upper) CollectUndefined(solver DependencySolver, out *[]string) bool {
	return u.Inner.CollectUndefined(solver, out)
}

func (u Upper) Eval(ctx *EvalContext) (Value, bool) {
	v, ok := u.Inner.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	return Str(strings.ToUpper(v.AsString())), true
}

// Concat joins character expressions, matching HLASM's implicit string
// concatenation in a CA expression.
type Concat struct{ Parts []Expr }

func (c Concat) CollectUndefined(solver DependencySolver, out *[]string) bool {
	ok := true
	for _, p := range c.Parts {
		if !p.CollectUndefined(solver, out) {
			ok = false
		}
	}
	return ok
}

func (c Concat) Eval(ctx *EvalContext) (Value, bool) {
	var b strings.Builder
	for _, p := range c.Parts {
		v, ok := p.Eval(ctx)
		if !ok {
			return Value{}, false
		}
		b.WriteString(v.AsString())
	}
	return Str(b.String()), true
}
