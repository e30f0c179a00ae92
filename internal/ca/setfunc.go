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

// SetKind distinguishes a SETAF call (arithmetic result) from a SETCF call
// (character result).
type SetKind int

const (
	SetArithmetic SetKind = iota
	SetCharacter
)

// SetFuncStmt is a SETAF/SETCF statement: the first operand names a
// registered external function, the remaining operands are its arguments,
// and the result assigns into Target.
//
// Operands are evaluated left to right before Target is assigned, so a
// self-referencing argument such as "&A SETAF 'F',&A+&A" reads the
// pre-assignment value of &A.
type SetFuncStmt struct {
	Kind   SetKind
	Name   Expr
	Args   []Expr
	Target string
	Range  Range
}

// Exec runs the statement: it resolves the function name, evaluates every
// argument, invokes the external function through ctx.Invoke, and assigns
// the (possibly truncated) result to Target. Any Message the callable
// attaches is routed to ctx.Diags as an EXT diagnostic. Exec reports
// ok=false if the name or an argument failed to resolve, or the name
// wasn't registered — in the latter case it raises E083 itself.
func (s SetFuncStmt) Exec(ctx *EvalContext) bool {
	if s.Name == nil {
		ctx.diag(Diagnostic{Code: CodeMissingFunction, Message: "SETAF/SETCF requires a function-name operand", Severity: SeverityError, Range: s.Range})
		return false
	}
	nameV, ok := s.Name.Eval(ctx)
	if !ok {
		return false
	}
	name := nameV.AsString()

	args := make([]Value, 0, len(s.Args))
	for _, a := range s.Args {
		v, ok := a.Eval(ctx)
		if !ok {
			return false
		}
		args = append(args, v)
	}

	var kind Kind
	if s.Kind == SetArithmetic {
		kind = Arithmetic
	} else {
		kind = Character
	}

	result, msg, truncated, found := ctx.Invoke(name, kind, args)
	if !found {
		ctx.diag(Diagnostic{Code: CodeUnknownFunction, Message: "unknown external function: " + name, Severity: SeverityError, Range: s.Range})
		return false
	}
	if msg != nil {
		ctx.diag(Diagnostic{Code: CodeExternalMessage, Message: msg.Text, Severity: msg.Severity, Range: s.Range})
	}
	if truncated {
		ctx.diag(Diagnostic{Code: CodeTruncatedResult, Message: "external function result truncated to the maximum string length", Severity: SeverityWarning, Range: s.Range})
	}

	ctx.Vars.Set(s.Target, result)
	return true
}

func (ctx *EvalContext) diag(d Diagnostic) {
	if ctx.Diags != nil {
		ctx.Diags.Diag(d)
	}
}
