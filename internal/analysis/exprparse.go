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
	"fmt"
	"strconv"
	"strings"

	"github.com/eclipse-che4z/hlasm-language-server/internal/ca"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokStr
	tokIdent
	tokAttr
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	// attr/symbol only set for tokAttr
	attr   byte
	symbol string
}

var attrLetters = map[byte]bool{'L': true, 'T': true, 'D': true, 'S': true, 'I': true, 'K': true, 'N': true, 'O': true}

func isIdentStart(c byte) bool {
	return c == '&' || c == '#' || c == '@' || c == '$' || c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// tokenize lexes a CA operand expression: numeric/character literals,
// &variable references (with optional (&subscript)), L'/T'/.../ attribute
// references, parens, and the +-*/ AND OR EQ NE operators.
func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		case c == '\'':
			j := i + 1
			var b strings.Builder
			for j < len(s) {
				if s[j] == '\'' {
					if j+1 < len(s) && s[j+1] == '\'' {
						b.WriteByte('\'')
						j += 2
						continue
					}
					break
				}
				b.WriteByte(s[j])
				j++
			}
			if j >= len(s) {
				return nil, fmt.Errorf("unterminated character literal at %d", i)
			}
			toks = append(toks, token{kind: tokStr, text: b.String()})
			i = j + 1
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			toks = append(toks, token{kind: tokNum, text: s[i:j]})
			i = j
		case attrLetters[upper(c)] && i+1 < len(s) && s[i+1] == '\'':
			letter := upper(c)
			j := i + 2
			k := j
			for k < len(s) && isIdentChar(s[k]) {
				k++
			}
			if k == j {
				return nil, fmt.Errorf("attribute reference missing symbol at %d", i)
			}
			toks = append(toks, token{kind: tokAttr, attr: letter, symbol: s[j:k]})
			i = k
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", c, i)
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

type exprParser struct {
	toks []token
	pos  int
}

func parseExpr(s string) (ca.Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	e, err := p.parseKeyword()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing input near %q", p.peek().text)
	}
	return e, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) parseKeyword() (ca.Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		op := strings.ToUpper(t.text)
		if t.kind != tokIdent || (op != "AND" && op != "OR" && op != "EQ" && op != "NE") {
			return left, nil
		}
		p.next()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = ca.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *exprParser) parseAdd() (ca.Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = ca.BinOp{Op: t.text, Left: left, Right: right}
	}
}

func (p *exprParser) parseMul() (ca.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ca.BinOp{Op: t.text, Left: left, Right: right}
	}
}

func (p *exprParser) parseUnary() (ca.Expr, error) {
	if t := p.peek(); t.kind == tokOp && t.text == "-" {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ca.BinOp{Op: "-", Left: ca.Literal{Value: ca.Int(0)}, Right: inner}, nil
	}
	return p.parseFactor()
}

func (p *exprParser) parseFactor() (ca.Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, err
		}
		return ca.Literal{Value: ca.Int(int32(n))}, nil
	case tokStr:
		return ca.Literal{Value: ca.Str(t.text)}, nil
	case tokAttr:
		return ca.AttrRef{Symbol: t.symbol, Attr: t.attr}, nil
	case tokIdent:
		if strings.ToUpper(t.text) == "UPPER" && p.peek().kind == tokLParen {
			p.next()
			inner, err := p.parseKeyword()
			if err != nil {
				return nil, err
			}
			if p.peek().kind != tokRParen {
				return nil, fmt.Errorf("missing closing paren after UPPER(")
			}
			p.next()
			return ca.Upper{Inner: inner}, nil
		}
		if strings.HasPrefix(t.text, "&") && p.peek().kind == tokLParen {
			p.next()
			idx, err := p.parseKeyword()
			if err != nil {
				return nil, err
			}
			if p.peek().kind != tokRParen {
				return nil, fmt.Errorf("missing closing paren after subscript")
			}
			p.next()
			return ca.Subscript{Name: t.text, Index: idx}, nil
		}
		if strings.HasPrefix(t.text, "&") {
			return ca.VarRef{Name: t.text}, nil
		}
		return ca.Literal{Value: ca.Str(t.text)}, nil
	case tokLParen:
		e, err := p.parseKeyword()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("missing closing paren")
		}
		p.next()
		return e, nil
	default:
		return nil, fmt.Errorf("unexpected token in expression")
	}
}
