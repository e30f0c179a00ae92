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

// Substring implements s[start, count]: 1-based indexing, an empty result
// if start exceeds the source length, and count clamped to the remaining
// length if it would otherwise run past the end.
type Substring struct {
	Source Expr
	Start  Expr
	Count  Expr
}

func (s Substring) CollectUndefined(solver DependencySolver, out *[]string) bool {
	src := s.Source.CollectUndefined(solver, out)
	start := s.Start.CollectUndefined(solver, out)
	count := s.Count.CollectUndefined(solver, out)
	return src && start && count
}

func (s Substring) Eval(ctx *EvalContext) (Value, bool) {
	srcV, ok := s.Source.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	startV, ok := s.Start.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	countV, ok := s.Count.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	start, ok := startV.AsInt()
	if !ok {
		return Value{}, false
	}
	count, ok := countV.AsInt()
	if !ok {
		return Value{}, false
	}
	return Str(substring(srcV.AsString(), int(start), int(count))), true
}

// substring applies 1-based indexing: the character at position 1 is the
// first rune of src. A start beyond the source length yields "". A count
// reaching past the end is clamped to the remaining runes; a non-positive
// count yields "".
func substring(src string, start, count int) string {
	runes := []rune(src)
	if start < 1 || start > len(runes) {
		return ""
	}
	if count <= 0 {
		return ""
	}
	begin := start - 1
	end := begin + count
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[begin:end])
}

// Dup implements duplicate(factor, s): factor copies of s concatenated.
// factor*|s| must not exceed MaxStringLength; an overflow raises CE011 on
// ctx.Diags and Eval reports ok=false.
type Dup struct {
	Factor Expr
	Source Expr
	Range  Range
}

func (d Dup) CollectUndefined(solver DependencySolver, out *[]string) bool {
	f := d.Factor.CollectUndefined(solver, out)
	s := d.Source.CollectUndefined(solver, out)
	return f && s
}

func (d Dup) Eval(ctx *EvalContext) (Value, bool) {
	factorV, ok := d.Factor.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	sourceV, ok := d.Source.Eval(ctx)
	if !ok {
		return Value{}, false
	}
	factor, ok := factorV.AsInt()
	if !ok {
		return Value{}, false
	}
	s := sourceV.AsString()

	result, ok := duplicate(int(factor), s)
	if !ok {
		if ctx.Diags != nil {
			ctx.Diags.Diag(Diagnostic{
				Code:     CodeOverflowDuplicate,
				Message:  "duplicate() result exceeds the maximum string length",
				Severity: SeverityError,
				Range:    d.Range,
			})
		}
		return Value{}, false
	}
	return Str(result), true
}

// duplicate concatenates factor copies of s, reporting ok=false if the
// result would exceed MaxStringLength code units. A non-positive factor
// yields the empty string.
func duplicate(factor int, s string) (string, bool) {
	if factor <= 0 {
		return "", true
	}
	runeLen := len([]rune(s))
	if factor*runeLen > MaxStringLength {
		return "", false
	}
	out := make([]rune, 0, factor*runeLen)
	r := []rune(s)
	for i := 0; i < factor; i++ {
		out = append(out, r...)
	}
	return string(out), true
}
