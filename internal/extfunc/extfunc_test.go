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

package extfunc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumArithmetic(b *ArgBundle) {
	var sum int32
	for _, a := range b.ArithArgs {
		sum += a
	}
	b.ArithResult = sum
}

// scenario 2: arithmetic external function `ADD`.
func TestArithmeticExternalFunction(t *testing.T) {
	reg := NewRegistry(Definition{"ADD", sumArithmetic})

	bundle := NewArithmeticBundle([]int32{1, 2})
	msg, truncated, ok := Invoke(reg, "ADD", bundle)
	require.True(t, ok)
	assert.Nil(t, msg)
	assert.False(t, truncated)
	assert.Equal(t, int32(3), bundle.ArithResult)
}

// scenario 3: character external function with a message.
func TestCharacterExternalFunctionWithMessage(t *testing.T) {
	reg := NewRegistry(Definition{"MSG", func(b *ArgBundle) {
		b.Msg = &Message{Severity: FatalError, Text: "EXTERNAL"}
	}})

	bundle := NewCharacterBundle([]string{"1", "2"})
	msg, _, ok := Invoke(reg, "MSG", bundle)
	require.True(t, ok)
	require.NotNil(t, msg)
	assert.Equal(t, Info, msg.Severity)
	assert.Equal(t, "External function MSG: EXTERNAL", msg.Text)
}

func TestMessageSeverityMapping(t *testing.T) {
	cases := []struct {
		in   Severity
		want Severity
	}{
		{Info, Info},
		{Warning, Warning},
		{Error, Error},
		{FatalError, Info},
	}
	for _, c := range cases {
		reg := NewRegistry(Definition{"F", func(b *ArgBundle) { b.Msg = &Message{Severity: c.in, Text: "x"} }})
		bundle := NewCharacterBundle(nil)
		msg, _, _ := Invoke(reg, "F", bundle)
		assert.Equal(t, c.want, msg.Severity)
	}
}

// scenario 5: duplicate external-function names must fail deterministically
// before any source is analyzed.
func TestDuplicateNamePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(
			Definition{"a", func(*ArgBundle) {}},
			Definition{"A", func(*ArgBundle) {}},
		)
	})
}

func TestLookupMissingNameFails(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Lookup("NOPE")
	assert.False(t, ok)
	_, _, ok = Invoke(reg, "NOPE", NewArithmeticBundle(nil))
	assert.False(t, ok)
}

func TestArgCountIncludesEmptyTailOperands(t *testing.T) {
	var seen int
	reg := NewRegistry(Definition{"ADD", func(b *ArgBundle) { seen = len(b.CharArgs) }})

	cases := []struct {
		args []string
		want int
	}{
		{[]string{"ADD"}, 0},
		{[]string{"ADD", ""}, 1},
		{[]string{"ADD", "", ""}, 2},
	}
	for _, c := range cases {
		bundle := NewCharacterBundle(c.args[1:])
		_, _, ok := Invoke(reg, "ADD", bundle)
		require.True(t, ok)
		assert.Equal(t, c.want, seen)
	}
}

func TestCharacterResultTruncatedAt4064(t *testing.T) {
	long := strings.Repeat("X", MaxStringLength+10)
	reg := NewRegistry(Definition{"BIG", func(b *ArgBundle) { b.CharResult = long }})

	bundle := NewCharacterBundle(nil)
	_, truncated, ok := Invoke(reg, "BIG", bundle)
	require.True(t, ok)
	assert.True(t, truncated)
	assert.Len(t, bundle.CharResult, MaxStringLength)
}

func TestCharacterResultUnderLimitNotTruncated(t *testing.T) {
	reg := NewRegistry(Definition{"SMALL", func(b *ArgBundle) { b.CharResult = "ok" }})

	bundle := NewCharacterBundle(nil)
	_, truncated, ok := Invoke(reg, "SMALL", bundle)
	require.True(t, ok)
	assert.False(t, truncated)
}
