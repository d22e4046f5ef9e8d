package syntax

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota

	// Literals and names
	INTLITERAL
	CHARLITERAL
	IDENTIFIER
	OPERATOR // run of + - * / = < > \ & @ % ^ ?

	// Keywords
	ARRAY
	BEGIN
	CONST
	DO
	ELSE
	END
	FUNC
	IF
	IN
	LET
	OF
	PROC
	RECORD
	THEN
	TYPE
	VAR
	WHILE

	// Punctuation
	DOT       // .
	COLON     // :
	SEMICOLON // ;
	COMMA     // ,
	BECOMES   // :=
	IS        // ~

	// Brackets
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	LCURLY   // {
	RCURLY   // }
)

var keywords = map[string]TokenType{
	"array":  ARRAY,
	"begin":  BEGIN,
	"const":  CONST,
	"do":     DO,
	"else":   ELSE,
	"end":    END,
	"func":   FUNC,
	"if":     IF,
	"in":     IN,
	"let":    LET,
	"of":     OF,
	"proc":   PROC,
	"record": RECORD,
	"then":   THEN,
	"type":   TYPE,
	"var":    VAR,
	"while":  WHILE,
}

var tokenNames = [...]string{
	EOF:         "end of text",
	INTLITERAL:  "integer literal",
	CHARLITERAL: "character literal",
	IDENTIFIER:  "identifier",
	OPERATOR:    "operator",
	ARRAY:       "\"array\"",
	BEGIN:       "\"begin\"",
	CONST:       "\"const\"",
	DO:          "\"do\"",
	ELSE:        "\"else\"",
	END:         "\"end\"",
	FUNC:        "\"func\"",
	IF:          "\"if\"",
	IN:          "\"in\"",
	LET:         "\"let\"",
	OF:          "\"of\"",
	PROC:        "\"proc\"",
	RECORD:      "\"record\"",
	THEN:        "\"then\"",
	TYPE:        "\"type\"",
	VAR:         "\"var\"",
	WHILE:       "\"while\"",
	DOT:         "\".\"",
	COLON:       "\":\"",
	SEMICOLON:   "\";\"",
	COMMA:       "\",\"",
	BECOMES:     "\":=\"",
	IS:          "\"~\"",
	LPAREN:      "\"(\"",
	RPAREN:      "\")\"",
	LBRACKET:    "\"[\"",
	RBRACKET:    "\"]\"",
	LCURLY:      "\"{\"",
	RCURLY:      "\"}\"",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Col    int
}

func (t Token) String() string {
	return fmt.Sprintf("%-18s %-10q %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}
