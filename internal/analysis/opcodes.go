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

// builtinOpcodes lists the machine/assembler instructions this analyzer
// recognizes without a library lookup. A real instruction set is selected
// per processor group (the architecture-level pgroup setting); this is the
// common subset that lets the analyzer work usefully with no configuration
// at all.
var builtinOpcodes = []string{
	"LR", "LA", "L", "LH", "ST", "STC", "STH", "IC",
	"A", "AR", "AH", "S", "SR", "SH", "M", "MR", "D", "DR",
	"B", "BR", "BC", "BCR", "BAL", "BALR", "BAS", "BASR",
	"USING", "DROP", "EQU", "DC", "DS", "ORG", "LTORG", "ENTRY", "EXTRN", "CNOP",
	"CL", "CLC", "CLI", "MVC", "MVI", "TM", "TR", "XC", "OC", "NC",
	"SVC", "STM", "LM", "PUSH", "POP",
}

// sectionOpcodes introduce a named control section rather than an
// instruction or ordinary symbol.
var sectionOpcodes = map[string]bool{
	"CSECT": true,
	"DSECT": true,
	"START": true,
}

// caDirectives are conditional-assembly statements this analyzer evaluates
// (or at least recognizes) instead of treating as ordinary instructions.
var caDirectives = map[string]bool{
	"MACRO": true, "MEND": true, "MEXIT": true, "COPY": true,
	"SETA": true, "SETB": true, "SETC": true, "SETAF": true, "SETCF": true,
	"AIF": true, "AGO": true, "ANOP": true,
	"GBLA": true, "GBLB": true, "GBLC": true,
	"LCLA": true, "LCLB": true, "LCLC": true,
}

func isBuiltinOpcode(op string) bool {
	for _, b := range builtinOpcodes {
		if b == op {
			return true
		}
	}
	return false
}
