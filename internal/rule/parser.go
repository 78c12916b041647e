package rule

import (
	"fmt"
	"strconv"
	"strings"
)

// DynamicVars are runtime variables resolved from the live portfolio
// snapshot on every evaluation. They are never cached.
var DynamicVars = map[string]bool{
	"position_size":   true,
	"avg_cost":        true,
	"cash":            true,
	"equity":          true,
	"initial_capital": true,
}

// compileContext answers name-resolution questions during compilation.
type compileContext interface {
	isField(name string) bool
	isIndicator(name string) bool
}

type parser struct {
	tokens []token
	pos    int
	ctx    compileContext
}

// ValidateSyntax checks an expression for lexical and grammatical
// validity without resolving names. Used by configuration validation
// before any data is loaded.
func ValidateSyntax(src string) error {
	if strings.TrimSpace(src) == "" {
		return &ParseError{Pos: 0, Msg: "empty rule expression"}
	}
	tokens, err := lex(src)
	if err != nil {
		return err
	}
	p := &parser{tokens: tokens, ctx: permissiveContext{}}
	if _, err := p.parseExpr(); err != nil {
		return err
	}
	return p.expectEOF()
}

// permissiveContext accepts any identifier or function name; used for
// syntax-only validation.
type permissiveContext struct{}

func (permissiveContext) isField(string) bool     { return true }
func (permissiveContext) isIndicator(string) bool { return true }

func (p *parser) current() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.current()
	if t.kind != kind {
		return t, &ParseError{Pos: t.pos, Token: t.text, Msg: fmt.Sprintf("expected %s", kind)}
	}
	return p.advance(), nil
}

func (p *parser) expectEOF() error {
	if t := p.current(); t.kind != tokenEOF {
		return &ParseError{Pos: t.pos, Token: t.text, Msg: "unexpected trailing input"}
	}
	return nil
}

// parseExpr handles '|', the lowest-precedence operator.
func (p *parser) parseExpr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokenOr {
		op := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tokenOr, left: left, right: right, token: op}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokenAnd {
		op := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tokenAnd, left: left, right: right, token: op}
	}
	return left, nil
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	switch k := p.current().kind; k {
	case tokenLT, tokenGT, tokenLE, tokenGE, tokenEQ:
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: k, left: left, right: right, token: op}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		k := p.current().kind
		if k != tokenPlus && k != tokenMinus {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: k, left: left, right: right, token: op}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		k := p.current().kind
		if k != tokenStar && k != tokenSlash {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: k, left: left, right: right, token: op}
	}
}

func (p *parser) parseUnary() (node, error) {
	switch t := p.current(); t.kind {
	case tokenNot:
		op := p.advance()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tokenNot, child: child, token: op}, nil
	case tokenMinus:
		op := p.advance()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tokenMinus, child: child, token: op}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.current()
	switch t.kind {
	case tokenNumber:
		p.advance()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &ParseError{Pos: t.pos, Token: t.text, Msg: "malformed number"}
		}
		return &numberNode{value: v, token: t}, nil

	case tokenLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case tokenIdent:
		p.advance()
		if p.current().kind == tokenLParen {
			return p.parseCall(t)
		}
		return p.resolveIdent(t)

	default:
		return nil, &ParseError{Pos: t.pos, Token: t.text, Msg: "expected number, identifier or '('"}
	}
}

func (p *parser) resolveIdent(t token) (node, error) {
	name := strings.ToLower(t.text)
	if p.ctx.isField(name) {
		return &identNode{name: name, token: t}, nil
	}
	if DynamicVars[name] {
		return &identNode{name: name, dynamic: true, token: t}, nil
	}
	return nil, &ParseError{Pos: t.pos, Token: t.text, Msg: "unknown identifier"}
}

func (p *parser) parseCall(nameTok token) (node, error) {
	name := strings.ToUpper(nameTok.text)
	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}

	if name == "REF" {
		return p.parseRef(nameTok)
	}

	if !p.ctx.isIndicator(name) {
		return nil, &ParseError{Pos: nameTok.pos, Token: nameTok.text, Msg: "unknown function"}
	}

	// First argument names the raw field the indicator reads.
	fieldTok, err := p.expect(tokenIdent)
	if err != nil {
		return nil, &ParseError{Pos: fieldTok.pos, Token: fieldTok.text,
			Msg: fmt.Sprintf("first argument of %s must name a price field", name)}
	}
	field := strings.ToLower(fieldTok.text)
	if !p.ctx.isField(field) {
		return nil, &ParseError{Pos: fieldTok.pos, Token: fieldTok.text, Msg: "unknown price field"}
	}

	var args []node
	for p.current().kind == tokenComma {
		p.advance()
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	return &callNode{name: name, field: field, args: args, token: nameTok}, nil
}

func (p *parser) parseRef(nameTok token) (node, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenComma); err != nil {
		return nil, &ParseError{Pos: nameTok.pos, Token: nameTok.text, Msg: "REF requires two arguments: REF(expr, period)"}
	}
	period, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	return &refNode{expr: expr, period: period, token: nameTok}, nil
}
