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

// Package analysis implements workspace.Analyzer: it turns one file's text
// into the symbol table, diagnostics, and cross-reference maps the
// orchestrator's query operations read from. Statement tokenizing,
// conditional-assembly evaluation (via internal/ca), macro-definition
// caching (via internal/macrocache), and external-function calls (via
// internal/extfunc) all meet here.
package analysis

import (
	"context"
	"strings"

	"github.com/eclipse-che4z/hlasm-language-server/internal/ca"
	"github.com/eclipse-che4z/hlasm-language-server/internal/extfunc"
	"github.com/eclipse-che4z/hlasm-language-server/internal/frame"
	"github.com/eclipse-che4z/hlasm-language-server/internal/library"
	"github.com/eclipse-che4z/hlasm-language-server/internal/macrocache"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/workspace"
)

// Analyzer implements workspace.Analyzer over the statement tokenizer and
// the ca/frame/macrocache/extfunc packages. It is safe for reuse across
// files: the macro cache and external-function registry are shared state,
// everything else is local to one Analyze call.
type Analyzer struct {
	registry *extfunc.Registry
	frames   *frame.Tree
	macros   *macrocache.Cache

	cacheHits int
}

// New constructs an Analyzer with the built-in external-function library
// registered and a macro cache sized for a typical project's definitions.
func New() *Analyzer {
	cache, err := macrocache.New(512)
	if err != nil {
		// Only returns an error for a non-positive size; 512 is constant.
		panic(err)
	}
	return &Analyzer{
		registry: extfunc.NewRegistry(defaultExternalFunctions()...),
		frames:   frame.New(),
		macros:   cache,
	}
}

type macroDef struct {
	Name string
	Body []string
}

// CacheHits reports how many macro definitions have been grafted back from
// the cache, across every Analyze call this Analyzer has served, instead
// of being re-tokenized from source.
func (a *Analyzer) CacheHits() int { return a.cacheHits }

// Analyze implements workspace.Analyzer. version is the file manager's
// version stamp for content, used to validate and refresh macro cache
// entries keyed on this location.
func (a *Analyzer) Analyze(ctx context.Context, loc resource.Location, content string, version int64, libs []*library.Library) (workspace.Analysis, error) {
	lines := strings.Split(content, "\n")
	root := a.frames.Step(nil, frame.Position{}, loc, "", frame.Opencode)

	out := workspace.Analysis{
		Definitions: make(map[string]resource.Location),
		References:  make(map[string][]resource.Location),
		Hovers:      make(map[string]string),
	}

	vars := newVarStore()
	ordinary := newOrdinarySymbols()
	macroNames := make(map[string]bool)

	var inMacro bool
	var macroBody []string
	var macroLineStart, macroProtoLine int
	var macroCacheHit bool

	diag := func(code, msg string, sev ca.Severity, lineNo int) {
		out.Diagnostics = append(out.Diagnostics, ca.Diagnostic{
			Code: code, Message: msg, Severity: sev,
			Range: ca.Range{
				Start: ca.Position{Line: lineNo},
				End:   ca.Position{Line: lineNo, Character: len(lines[lineNo])},
			},
		})
	}

	addSymbol := func(name string, kind workspace.SymbolKind, lineNo int, length int, hover string) {
		rng := resource.Range{
			Start: resource.Position{Line: lineNo},
			End:   resource.Position{Line: lineNo, Character: length},
		}
		out.Symbols = append(out.Symbols, workspace.Symbol{Name: name, Kind: kind, Range: rng})
		if hover != "" {
			out.Hovers[name] = hover
		}
	}

	for i, raw := range lines {
		st := tokenizeLine(i, raw)
		if st.Blank {
			continue
		}

		if inMacro {
			if st.Opcode == "MEND" {
				if !macroCacheHit {
					name := macroNameFromBody(macroBody)
					key := macrocache.NewKey(loc.String(), name, nil)
					a.macros.Save(key, macroDef{Name: name, Body: macroBody}, map[string]int64{loc.String(): version})
					if name != "" {
						macroNames[name] = true
						out.Definitions[name] = loc
						ordinary.define(name)
						addSymbol(name, workspace.SymbolMacro, macroProtoLine, len(name), "macro "+name)
					}
				}
				inMacro = false
				macroBody = nil
				macroCacheHit = false
				continue
			}

			if len(macroBody) == 0 && !macroCacheHit {
				// The first body line is always the macro's prototype
				// statement, so its opcode is the macro name. Check the
				// cache before paying to accumulate and re-derive the rest
				// of the body: a hit whose version stamp still matches
				// this file means nothing in it changed since it was last
				// parsed, and the cached definition can be grafted back in
				// directly instead of re-tokenizing every body line.
				macroProtoLine = i
				name := st.Opcode
				key := macrocache.NewKey(loc.String(), name, nil)
				if entry, ok := a.macros.Load(key); ok && !entry.Stale(map[string]int64{loc.String(): version}) {
					if def, ok := entry.Definition.(macroDef); ok {
						macroCacheHit = true
						a.cacheHits++
						macroNames[def.Name] = true
						out.Definitions[def.Name] = loc
						ordinary.define(def.Name)
						addSymbol(def.Name, workspace.SymbolMacro, macroProtoLine, len(def.Name), "macro "+def.Name)
						continue
					}
				}
			}

			if !macroCacheHit {
				macroBody = append(macroBody, raw)
			}
			continue
		}

		out.Statements++

		switch {
		case st.Opcode == "MACRO":
			inMacro = true
			macroBody = nil
			macroLineStart = i

		case sectionOpcodes[st.Opcode]:
			if st.Label != "" {
				out.Definitions[st.Label] = loc
				ordinary.define(st.Label)
				addSymbol(st.Label, workspace.SymbolSection, i, len(st.Label), "section "+st.Label)
			}

		case st.Opcode == "COPY":
			member := strings.TrimSpace(st.Operands)
			resolved, found := resolveMember(ctx, libs, member)
			if !found {
				diag("E049", "copy member not found: "+member, ca.SeverityError, i)
				break
			}
			out.Definitions[strings.ToUpper(member)] = resolved
			addSymbol(member, workspace.SymbolOrdinary, i, len(member), "copy member "+member)

		case st.Opcode == "SETA" || st.Opcode == "SETB" || st.Opcode == "SETC":
			a.evalSet(st, vars, ordinary, diag)

		case st.Opcode == "SETAF" || st.Opcode == "SETCF":
			a.evalSetFunc(st, vars, ordinary, diag)

		case caDirectives[st.Opcode]:
			// AIF/AGO/ANOP/MEXIT/GBLx/LCLx: acknowledged but not modeled
			// further; they don't define symbols an editor needs to jump to.

		default:
			if st.Label != "" {
				out.Definitions[st.Label] = loc
				ordinary.define(st.Label)
				addSymbol(st.Label, workspace.SymbolOrdinary, i, len(st.Label), "symbol "+st.Label)
			}
			switch {
			case macroNames[st.Opcode]:
				// The macro's definition (cached or freshly parsed) was
				// already resolved above; a call site only needs to
				// record the expansion frame.
				a.frames.Step(root, frame.Position{Line: i}, loc, st.Opcode, frame.Macro)
			case isBuiltinOpcode(st.Opcode):
				// already covered by the shared builtin opcode symbol set
			default:
				if _, resolved := resolveMember(ctx, libs, st.Opcode); resolved {
					macroNames[st.Opcode] = true
				} else {
					diag("E010", "unrecognized mnemonic "+st.Opcode, ca.SeverityWarning, i)
				}
			}
		}
	}

	if inMacro {
		diag("E067", "unterminated macro definition", ca.SeverityError, macroLineStart)
	}

	for _, name := range builtinOpcodes {
		addSymbol(name, workspace.SymbolOpcode, 0, 0, "instruction "+name)
	}

	a.buildReferences(lines, out.Definitions, out.References)

	return out, nil
}

// macroNameFromBody recovers a macro's name from its prototype statement,
// the first non-blank line of the captured body.
func macroNameFromBody(body []string) string {
	for _, raw := range body {
		st := tokenizeLine(0, raw)
		if st.Blank {
			continue
		}
		return st.Opcode
	}
	return ""
}

func resolveMember(ctx context.Context, libs []*library.Library, name string) (resource.Location, bool) {
	for _, lib := range libs {
		if loc, ok := lib.HasFile(ctx, name); ok {
			return loc, true
		}
	}
	return resource.Location{}, false
}

func (a *Analyzer) evalSet(st statement, vars *varStore, ordinary *ordinarySymbols, diag func(string, string, ca.Severity, int)) {
	if st.Label == "" {
		diag("E012", st.Opcode+" requires a variable operand", ca.SeverityError, st.LineNo)
		return
	}
	expr, err := parseExpr(st.Operands)
	if err != nil {
		diag("E013", "malformed "+st.Opcode+" expression: "+err.Error(), ca.SeverityError, st.LineNo)
		return
	}
	var undefined []string
	expr.CollectUndefined(ordinary, &undefined)
	if len(undefined) > 0 {
		diag("E014", "undefined attribute reference to "+strings.Join(undefined, ", "), ca.SeverityError, st.LineNo)
		return
	}
	evalCtx := &ca.EvalContext{Vars: vars, Attrs: ordinary, Diags: ca.ConsumerFunc(func(d ca.Diagnostic) {
		diag(d.Code, d.Message, d.Severity, st.LineNo)
	}), Invoke: ca.ExternalInvoker(a.registry)}
	val, ok := expr.Eval(evalCtx)
	if !ok {
		diag("E015", st.Opcode+" could not be evaluated", ca.SeverityError, st.LineNo)
		return
	}
	vars.Set(st.Label, val)
	ordinary.define(st.Label)
}

func (a *Analyzer) evalSetFunc(st statement, vars *varStore, ordinary *ordinarySymbols, diag func(string, string, ca.Severity, int)) {
	if st.Label == "" {
		diag("E012", st.Opcode+" requires a variable operand", ca.SeverityError, st.LineNo)
		return
	}
	parts := splitTopLevelCommas(st.Operands)
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "'") {
		diag(ca.CodeMissingFunction, st.Opcode+" is missing its function-name operand", ca.SeverityError, st.LineNo)
		return
	}
	name := strings.Trim(parts[0], "'")
	args := make([]ca.Expr, 0, len(parts)-1)
	for _, p := range parts[1:] {
		e, err := parseExpr(p)
		if err != nil {
			diag("E013", "malformed "+st.Opcode+" argument: "+err.Error(), ca.SeverityError, st.LineNo)
			return
		}
		args = append(args, e)
	}
	kind := ca.SetArithmetic
	if st.Opcode == "SETCF" {
		kind = ca.SetCharacter
	}
	stmt := ca.SetFuncStmt{
		Kind:   kind,
		Name:   ca.Literal{Value: ca.Str(name)},
		Args:   args,
		Target: st.Label,
	}
	evalCtx := &ca.EvalContext{Vars: vars, Attrs: ordinary, Diags: ca.ConsumerFunc(func(d ca.Diagnostic) {
		diag(d.Code, d.Message, d.Severity, st.LineNo)
	}), Invoke: ca.ExternalInvoker(a.registry)}
	if !stmt.Exec(evalCtx) {
		return
	}
	ordinary.define(st.Label)
}

// buildReferences scans every statement's operand text for identifiers that
// name a known definition and, once per occurrence, appends that
// identifier's definition location to refs. The occurrence's own file and
// position are not recorded.
func (a *Analyzer) buildReferences(lines []string, defs map[string]resource.Location, refs map[string][]resource.Location) {
	for i, raw := range lines {
		st := tokenizeLine(i, raw)
		if st.Blank || st.Operands == "" {
			continue
		}
		for _, id := range identifiersIn(st.Operands) {
			if loc, ok := defs[id]; ok {
				refs[id] = append(refs[id], loc)
			}
		}
	}
}
