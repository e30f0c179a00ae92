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

import "github.com/eclipse-che4z/hlasm-language-server/internal/extfunc"

// ExternalInvoker adapts an extfunc.Registry into the EvalContext.Invoke
// seam, translating between this package's Value/Kind/Message types and
// extfunc's ArgBundle/Severity wire shapes.
func ExternalInvoker(reg *extfunc.Registry) func(name string, kind Kind, args []Value) (Value, *Message, bool, bool) {
	return func(name string, kind Kind, args []Value) (Value, *Message, bool, bool) {
		var bundle *extfunc.ArgBundle
		if kind == Character {
			strs := make([]string, len(args))
			for i, a := range args {
				strs[i] = a.AsString()
			}
			bundle = extfunc.NewCharacterBundle(strs)
		} else {
			nums := make([]int32, len(args))
			for i, a := range args {
				n, _ := a.AsInt()
				nums[i] = n
			}
			bundle = extfunc.NewArithmeticBundle(nums)
		}

		msg, truncated, ok := extfunc.Invoke(reg, name, bundle)
		if !ok {
			return Value{}, nil, false, false
		}

		var result Value
		if kind == Character {
			result = Str(bundle.CharResult)
		} else {
			result = Int(bundle.ArithResult)
		}

		var out *Message
		if msg != nil {
			out = &Message{Severity: extSeverity(msg.Severity), Text: msg.Text}
		}
		return result, out, truncated, true
	}
}

// extSeverity mirrors extfunc.Severity.wireSeverity's mapping: FatalError
// renders as info, matching spec.md §8 scenario 3 and the original
// implementation's external_functions_test.cpp.
func extSeverity(s extfunc.Severity) Severity {
	switch s {
	case extfunc.Warning:
		return SeverityWarning
	case extfunc.Error:
		return SeverityError
	default:
		return SeverityInfo
	}
}
