package syntax

import (
	"fmt"
	"strings"
	"unicode"

	"gotam/pkg/ast"
)

// SyntaxError is a lexical or syntactic error at a source position.
type SyntaxError struct {
	Pos     ast.Pos
	Msg     string
	Snippet string // the offending source line, trimmed
}

func (e *SyntaxError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("line %d: %s", e.Pos.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s\n  |> %s", e.Pos.Line, e.Msg, e.Snippet)
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int
	col  int
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) errorf(line, col int, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Pos: ast.Pos{Line: line, Col: col},
		Msg: fmt.Sprintf(format, args...),
	}
}

// skipSeparators discards white space and comments, which run from ! to end
// of line.
func (l *Lexer) skipSeparators() {
	for l.pos < len(l.src) {
		switch r := l.peek(); {
		case r == '!':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func isOperatorChar(r rune) bool {
	return strings.ContainsRune(`+-*/=<>\&@%^?`, r)
}

func (l *Lexer) scanWhile(line, col int, tt TokenType, ok func(rune) bool) Token {
	start := l.pos
	for l.pos < len(l.src) && ok(l.peek()) {
		l.advance()
	}
	return Token{Type: tt, Lexeme: string(l.src[start:l.pos]), Line: line, Col: col}
}

// nextToken skips separators and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	l.skipSeparators()
	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Line: line, Col: col}, nil
	}

	ch := l.peek()
	switch {
	case unicode.IsLetter(ch):
		tok := l.scanWhile(line, col, IDENTIFIER, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		})
		if kw, ok := keywords[tok.Lexeme]; ok {
			tok.Type = kw
		}
		return tok, nil
	case unicode.IsDigit(ch):
		return l.scanWhile(line, col, INTLITERAL, unicode.IsDigit), nil
	case isOperatorChar(ch):
		return l.scanWhile(line, col, OPERATOR, isOperatorChar), nil
	case ch == '\'':
		l.advance()
		c := l.peek()
		if c == 0 || c == '\n' || l.peek2() != '\'' {
			return Token{}, l.errorf(line, col, "malformed character literal")
		}
		l.advance()
		l.advance()
		return Token{Type: CHARLITERAL, Lexeme: "'" + string(c) + "'", Line: line, Col: col}, nil
	}

	l.advance()
	simple := func(tt TokenType) (Token, error) {
		return Token{Type: tt, Lexeme: string(ch), Line: line, Col: col}, nil
	}
	switch ch {
	case '.':
		return simple(DOT)
	case ':':
		if l.peek() == '=' {
			l.advance()
			return Token{Type: BECOMES, Lexeme: ":=", Line: line, Col: col}, nil
		}
		return simple(COLON)
	case ';':
		return simple(SEMICOLON)
	case ',':
		return simple(COMMA)
	case '~':
		return simple(IS)
	case '(':
		return simple(LPAREN)
	case ')':
		return simple(RPAREN)
	case '[':
		return simple(LBRACKET)
	case ']':
		return simple(RBRACKET)
	case '{':
		return simple(LCURLY)
	case '}':
		return simple(RCURLY)
	}
	return Token{}, l.errorf(line, col, "unexpected character %q", ch)
}

// Tokenize scans the whole of src. The last token is always EOF.
func Tokenize(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
