// Package expr implements the restricted boolean/arithmetic language used by
// expression guards. Free variables resolve only against a property snapshot.
package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokFloat
	tokString
	tokIdent
	tokTrue
	tokFalse
	tokAnd
	tokOr
	tokNot
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokLParen
	tokRParen
)

var tokenNames = map[tokenKind]string{
	tokEOF:     "end of input",
	tokInt:     "integer",
	tokFloat:   "float",
	tokString:  "string",
	tokIdent:   "identifier",
	tokTrue:    "true",
	tokFalse:   "false",
	tokAnd:     "and",
	tokOr:      "or",
	tokNot:     "not",
	tokEq:      "==",
	tokNe:      "!=",
	tokLt:      "<",
	tokLe:      "<=",
	tokGt:      ">",
	tokGe:      ">=",
	tokPlus:    "+",
	tokMinus:   "-",
	tokStar:    "*",
	tokSlash:   "/",
	tokPercent: "%",
	tokLParen:  "(",
	tokRParen:  ")",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	text string
	pos  int
}

var keywords = map[string]tokenKind{
	"true":  tokTrue,
	"false": tokFalse,
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
}

// Error is a parse or evaluation diagnostic positioned at a byte offset of the source.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Pos, e.Msg)
}

func errorf(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, w := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += w
		case r >= '0' && r <= '9', r == '.' && i+1 < len(src) && isDigit(src[i+1]):
			start := i
			kind := tokInt
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == '_') {
				if src[i] == '.' {
					if kind == tokFloat {
						return nil, errorf(i, "malformed number")
					}
					kind = tokFloat
				}
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				kind = tokFloat
				i++
				if i < len(src) && (src[i] == '+' || src[i] == '-') {
					i++
				}
				if i >= len(src) || !isDigit(src[i]) {
					return nil, errorf(i, "malformed exponent")
				}
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			toks = append(toks, token{kind: kind, text: strings.ReplaceAll(src[start:i], "_", ""), pos: start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r, w = utf8.DecodeRuneInString(src[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += w
			}
			word := src[start:i]
			kind, ok := keywords[word]
			if !ok {
				kind = tokIdent
			}
			toks = append(toks, token{kind: kind, text: word, pos: start})
		case r == '"' || r == '\'':
			s, n, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i += n
		default:
			kind, n := lexOperator(src[i:])
			if n == 0 {
				return nil, errorf(i, "unexpected character %q", r)
			}
			toks = append(toks, token{kind: kind, text: src[i : i+n], pos: i})
			i += n
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func lexOperator(s string) (tokenKind, int) {
	if len(s) >= 2 {
		switch s[:2] {
		case "==":
			return tokEq, 2
		case "!=":
			return tokNe, 2
		case "<=":
			return tokLe, 2
		case ">=":
			return tokGe, 2
		case "&&":
			return tokAnd, 2
		case "||":
			return tokOr, 2
		}
	}
	switch s[0] {
	case '<':
		return tokLt, 1
	case '>':
		return tokGt, 1
	case '!':
		return tokNot, 1
	case '+':
		return tokPlus, 1
	case '-':
		return tokMinus, 1
	case '*':
		return tokStar, 1
	case '/':
		return tokSlash, 1
	case '%':
		return tokPercent, 1
	case '(':
		return tokLParen, 1
	case ')':
		return tokRParen, 1
	}
	return tokEOF, 0
}

// lexString reads a quoted literal starting at src[start] and returns the unescaped text
// and the number of bytes consumed.
func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return b.String(), i + 1 - start, nil
		case c == '\\':
			if i+1 >= len(src) {
				return "", 0, errorf(i, "unterminated escape")
			}
			switch src[i+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"', '\'':
				b.WriteByte(src[i+1])
			default:
				return "", 0, errorf(i, "unknown escape \\%c", src[i+1])
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, errorf(start, "unterminated string")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
