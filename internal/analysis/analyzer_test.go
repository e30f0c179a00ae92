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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-language-server/internal/ca"
	"github.com/eclipse-che4z/hlasm-language-server/internal/resource"
	"github.com/eclipse-che4z/hlasm-language-server/internal/workspace"
)

func TestAnalyzeDefinesOrdinaryLabel(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://a.hlasm")
	analysis, err := a.Analyze(context.Background(), loc, "LBL    LR 1,2\n", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, analysis.Definitions["LBL"])
	found := false
	for _, s := range analysis.Symbols {
		if s.Name == "LBL" && s.Kind == workspace.SymbolOrdinary {
			found = true
		}
	}
	assert.True(t, found, "expected LBL to be recorded as an ordinary symbol")
}

func TestAnalyzeFlagsUnrecognizedMnemonic(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://b.hlasm")
	analysis, err := a.Analyze(context.Background(), loc, "   BOGUSOP 1,2\n", 0, nil)
	require.NoError(t, err)
	require.Len(t, analysis.Diagnostics, 1)
	assert.Equal(t, ca.SeverityWarning, analysis.Diagnostics[0].Severity)
}

func TestAnalyzeSectionSymbol(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://c.hlasm")
	analysis, err := a.Analyze(context.Background(), loc, "MYSECT CSECT\n", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, analysis.Definitions["MYSECT"])
}

func TestAnalyzeSetaEvaluatesArithmetic(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://d.hlasm")
	src := "&X     SETA 2+3*4\n"
	analysis, err := a.Analyze(context.Background(), loc, src, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, analysis.Diagnostics)
}

func TestAnalyzeSetaUndefinedAttributeIsDiagnosed(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://e.hlasm")
	src := "&X     SETA L'NOPE\n"
	analysis, err := a.Analyze(context.Background(), loc, src, 0, nil)
	require.NoError(t, err)
	require.Len(t, analysis.Diagnostics, 1)
	assert.Equal(t, ca.SeverityError, analysis.Diagnostics[0].Severity)
}

func TestAnalyzeSetafInvokesExternalFunction(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://f.hlasm")
	src := "&X     SETAF 'MAX',3,7\n"
	analysis, err := a.Analyze(context.Background(), loc, src, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, analysis.Diagnostics)
}

func TestAnalyzeSetafUnknownFunctionIsDiagnosed(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://g.hlasm")
	src := "&X     SETAF 'NOSUCHFUNC',1\n"
	analysis, err := a.Analyze(context.Background(), loc, src, 0, nil)
	require.NoError(t, err)
	require.Len(t, analysis.Diagnostics, 1)
	assert.Equal(t, ca.CodeUnknownFunction, analysis.Diagnostics[0].Code)
}

func TestAnalyzeMacroDefinitionThenCall(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://h.hlasm")
	src := "" +
		"         MACRO\n" +
		"         MYMAC &A\n" +
		"         LR 1,1\n" +
		"         MEND\n" +
		"         MYMAC 5\n"
	analysis, err := a.Analyze(context.Background(), loc, src, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, analysis.Definitions["MYMAC"])
	assert.Empty(t, analysis.Diagnostics)
	macroSymbol := false
	for _, s := range analysis.Symbols {
		if s.Name == "MYMAC" && s.Kind == workspace.SymbolMacro {
			macroSymbol = true
		}
	}
	assert.True(t, macroSymbol)
}

func TestAnalyzeMacroCacheHitSkipsReparseOfUnchangedBody(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://h2.hlasm")
	src := "" +
		"         MACRO\n" +
		"         MYMAC &A\n" +
		"         LR 1,1\n" +
		"         MEND\n" +
		"         MYMAC 5\n"
	first, err := a.Analyze(context.Background(), loc, src, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, first.Definitions["MYMAC"])
	assert.Equal(t, 0, a.CacheHits(), "first analysis of a file has nothing cached yet")

	// Same version stamp: the cached definition's version stamp still
	// matches, so the body is grafted back from cache instead of being
	// re-tokenized.
	second, err := a.Analyze(context.Background(), loc, src, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, second.Definitions["MYMAC"])
	assert.Equal(t, 1, a.CacheHits())

	// A bumped version stamp means the file changed, so the cache entry is
	// stale and the macro is genuinely reparsed again (no hit recorded).
	third, err := a.Analyze(context.Background(), loc, src, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, third.Definitions["MYMAC"])
	assert.Equal(t, 1, a.CacheHits())
}

// Two distinct macros defined in the same file must not collide under a
// single cache key: each gets its own entry keyed on its own name.
func TestAnalyzeMacroCacheKeysDoNotCollideAcrossMacroNames(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://h3.hlasm")
	src := "" +
		"         MACRO\n" +
		"         MACA &A\n" +
		"         LR 1,1\n" +
		"         MEND\n" +
		"         MACRO\n" +
		"         MACB &B\n" +
		"         LR 2,2\n" +
		"         MEND\n"
	analysis, err := a.Analyze(context.Background(), loc, src, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, analysis.Definitions["MACA"])
	assert.Equal(t, loc, analysis.Definitions["MACB"])

	reanalysis, err := a.Analyze(context.Background(), loc, src, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, reanalysis.Definitions["MACA"])
	assert.Equal(t, loc, reanalysis.Definitions["MACB"])
	assert.Equal(t, 2, a.CacheHits(), "both macros should be grafted from their own cache entry")
}

func TestAnalyzeBuiltinOpcodesAreCompletionCandidates(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://i.hlasm")
	analysis, err := a.Analyze(context.Background(), loc, "\n", 0, nil)
	require.NoError(t, err)
	found := false
	for _, s := range analysis.Symbols {
		if s.Name == "USING" && s.Kind == workspace.SymbolOpcode {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeReferencesResolveToDefinitions(t *testing.T) {
	a := New()
	loc := resource.NewLocation("mem://j.hlasm")
	src := "LBL    DS 1F\n" +
		"       L  1,LBL\n"
	analysis, err := a.Analyze(context.Background(), loc, src, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []resource.Location{loc}, analysis.References["LBL"])
}
