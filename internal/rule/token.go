package rule

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind enumerates lexical token types of the rule grammar.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenLParen
	tokenRParen
	tokenComma
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLT
	tokenGT
	tokenLE
	tokenGE
	tokenEQ
	tokenAnd
	tokenOr
	tokenNot
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of expression"
	case tokenNumber:
		return "number"
	case tokenIdent:
		return "identifier"
	case tokenLParen:
		return "("
	case tokenRParen:
		return ")"
	case tokenComma:
		return ","
	case tokenPlus:
		return "+"
	case tokenMinus:
		return "-"
	case tokenStar:
		return "*"
	case tokenSlash:
		return "/"
	case tokenLT:
		return "<"
	case tokenGT:
		return ">"
	case tokenLE:
		return "<="
	case tokenGE:
		return ">="
	case tokenEQ:
		return "=="
	case tokenAnd:
		return "&"
	case tokenOr:
		return "|"
	case tokenNot:
		return "!"
	default:
		return "unknown"
	}
}

// token is one lexical unit with its byte position in the source text.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits a rule expression into tokens.
func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case c == ',':
			tokens = append(tokens, token{tokenComma, ",", i})
			i++
		case c == '+':
			tokens = append(tokens, token{tokenPlus, "+", i})
			i++
		case c == '-':
			tokens = append(tokens, token{tokenMinus, "-", i})
			i++
		case c == '*':
			tokens = append(tokens, token{tokenStar, "*", i})
			i++
		case c == '/':
			tokens = append(tokens, token{tokenSlash, "/", i})
			i++
		case c == '&':
			tokens = append(tokens, token{tokenAnd, "&", i})
			i++
		case c == '|':
			tokens = append(tokens, token{tokenOr, "|", i})
			i++
		case c == '!':
			tokens = append(tokens, token{tokenNot, "!", i})
			i++
		case c == '<':
			if i+1 < len(src) && src[i+1] == '=' {
				tokens = append(tokens, token{tokenLE, "<=", i})
				i += 2
			} else {
				tokens = append(tokens, token{tokenLT, "<", i})
				i++
			}
		case c == '>':
			if i+1 < len(src) && src[i+1] == '=' {
				tokens = append(tokens, token{tokenGE, ">=", i})
				i += 2
			} else {
				tokens = append(tokens, token{tokenGT, ">", i})
				i++
			}
		case c == '=':
			if i+1 < len(src) && src[i+1] == '=' {
				tokens = append(tokens, token{tokenEQ, "==", i})
				i += 2
			} else {
				return nil, &ParseError{Pos: i, Token: "=", Msg: "single '=' is not valid, use '=='"}
			}
		case unicode.IsDigit(rune(c)) || c == '.':
			start := i
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || src[i] == '.') {
				i++
			}
			text := src[start:i]
			if strings.Count(text, ".") > 1 {
				return nil, &ParseError{Pos: start, Token: text, Msg: "malformed number"}
			}
			tokens = append(tokens, token{tokenNumber, text, start})
		case unicode.IsLetter(rune(c)) || c == '_':
			start := i
			for i < len(src) && (unicode.IsLetter(rune(src[i])) || unicode.IsDigit(rune(src[i])) || src[i] == '_') {
				i++
			}
			tokens = append(tokens, token{tokenIdent, src[start:i], start})
		default:
			return nil, &ParseError{Pos: i, Token: string(c), Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	tokens = append(tokens, token{tokenEOF, "", len(src)})
	return tokens, nil
}
