package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse parses a condition expression into its AST. An empty or
// whitespace-only expression is invalid here; callers treat empty
// conditions as "always applies" before parsing.
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("unexpected token %q after expression", p.peek().text)
	}
	return expr, nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokEq
	tokNeq
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokAnd
	tokOr
	tokNot
	tokIn
	tokTrue
	tokFalse
)

type token struct {
	kind tokenKind
	text string
}

var keywords = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"in":    tokIn,
	"true":  tokTrue,
	"false": tokFalse,
}

func lex(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case r == '[':
			toks = append(toks, token{tokLBracket, "["})
			i++
		case r == ']':
			toks = append(toks, token{tokRBracket, "]"})
			i++
		case r == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case r == '=':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, token{tokEq, "=="})
				i += 2
			} else {
				return nil, fmt.Errorf("single '=' at position %d, use '=='", i)
			}
		case r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, token{tokNeq, "!="})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected '!' at position %d", i)
			}
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string starting at position %d", i)
			}
			toks = append(toks, token{tokString, string(runes[i+1 : j])})
			i = j + 1
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i + 1
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, string(runes[i:j])})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_' || runes[j] == '.') {
				j++
			}
			word := string(runes[i:j])
			if kind, ok := keywords[strings.ToLower(word)]; ok {
				toks = append(toks, token{kind, word})
			} else {
				toks = append(toks, token{tokIdent, word})
			}
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", r, i)
		}
	}

	if len(toks) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peek() token {
	if p.atEnd() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.atEnd() || p.peek().kind != kind {
		return token{}, fmt.Errorf("expected %s, got %q", what, p.peek().text)
	}
	return p.next(), nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for !p.atEnd() && p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for !p.atEnd() && p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if !p.atEnd() && p.peek().kind == tokNot {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	if p.atEnd() {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	if p.peek().kind == tokLParen {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	field, err := p.expect(tokIdent, "field name")
	if err != nil {
		return nil, err
	}

	switch p.peek().kind {
	case tokEq:
		p.next()
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return Compare{Field: field.text, Value: lit}, nil
	case tokNeq:
		p.next()
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return Compare{Field: field.text, Value: lit, Negate: true}, nil
	case tokIn:
		p.next()
		if _, err := p.expect(tokLBracket, "'['"); err != nil {
			return nil, err
		}
		var values []Literal
		for {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			values = append(values, lit)
			if p.peek().kind == tokComma {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		return Membership{Field: field.text, Values: values}, nil
	default:
		return nil, fmt.Errorf("expected '==', '!=' or 'in' after %q", field.text)
	}
}

func (p *parser) parseLiteral() (Literal, error) {
	if p.atEnd() {
		return Literal{}, fmt.Errorf("expected literal, got end of expression")
	}
	t := p.next()
	switch t.kind {
	case tokString:
		return Literal{Kind: LitString, Str: t.text}, nil
	case tokNumber:
		n, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Literal{}, fmt.Errorf("bad number literal %q", t.text)
		}
		return Literal{Kind: LitNumber, Num: n}, nil
	case tokTrue:
		return Literal{Kind: LitBool, Bool: true}, nil
	case tokFalse:
		return Literal{Kind: LitBool, Bool: false}, nil
	case tokIdent:
		// Catalog authors commonly write bare words for choice values.
		return Literal{Kind: LitString, Str: t.text}, nil
	default:
		return Literal{}, fmt.Errorf("expected literal, got %q", t.text)
	}
}
