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

import "strings"

// statement is one tokenized source line: the label/opcode/operands fields
// a fixed-form HLASM statement carries. Continuation (column 72) and the
// sequence-number field (columns 73-80) are not modeled; this targets the
// free-form subset most editors work with today.
type statement struct {
	LineNo   int
	Raw      string
	Label    string
	Opcode   string
	Operands string
	Blank    bool
}

func isBlankOrSpace(c byte) bool { return c == ' ' || c == '\t' }

// tokenizeLine splits raw into label/opcode/operands by column position:
// a non-blank column 1 starts a label, the next whitespace-delimited token
// is the opcode, and everything after it (spacing and literals intact) is
// the operand text.
func tokenizeLine(lineNo int, raw string) statement {
	s := statement{LineNo: lineNo, Raw: raw}
	trimmed := strings.TrimRight(raw, "\r")
	if strings.TrimSpace(trimmed) == "" {
		s.Blank = true
		return s
	}
	if trimmed[0] == '*' {
		s.Blank = true
		return s
	}

	i := 0
	if !isBlankOrSpace(trimmed[0]) {
		start := i
		for i < len(trimmed) && !isBlankOrSpace(trimmed[i]) {
			i++
		}
		s.Label = trimmed[start:i]
	}
	for i < len(trimmed) && isBlankOrSpace(trimmed[i]) {
		i++
	}
	opStart := i
	for i < len(trimmed) && !isBlankOrSpace(trimmed[i]) {
		i++
	}
	if opStart == i {
		s.Blank = true
		return s
	}
	s.Opcode = strings.ToUpper(trimmed[opStart:i])
	for i < len(trimmed) && isBlankOrSpace(trimmed[i]) {
		i++
	}
	s.Operands = strings.TrimRight(trimmed[i:], " \t")
	return s
}

// splitTopLevelCommas splits s on commas that are not nested inside
// parentheses or a character literal.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	inStr := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inStr = !inStr
		case '(':
			if !inStr {
				depth++
			}
		case ')':
			if !inStr && depth > 0 {
				depth--
			}
		case ',':
			if !inStr && depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

// identifiersIn returns every &variable/bare-name identifier token found in
// s, in order, for building the operand-reference pass.
func identifiersIn(s string) []string {
	var out []string
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '\'' {
			i++
			for i < len(s) && s[i] != '\'' {
				i++
			}
			i++
			continue
		}
		if isIdentStart(c) {
			j := i + 1
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			out = append(out, s[i:j])
			i = j
			continue
		}
		i++
	}
	return out
}
