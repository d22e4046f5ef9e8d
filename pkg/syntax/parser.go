// Package syntax turns Triangle source text into an *ast.Program.
package syntax

import (
	"errors"
	"fmt"
	"strings"

	"gotam/pkg/ast"
)

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
// It stops at the first error.
//
//	Command         = single-Command (";" single-Command)*
//	single-Command  = ε | V-name ":=" Expression | Identifier "(" APS ")"
//	                | "begin" Command "end" | "let" Declaration "in" single-Command
//	                | "if" Expression "then" single-Command "else" single-Command
//	                | "while" Expression "do" single-Command
//	                | "do" single-Command "while" Expression "do" single-Command
//	Expression      = secondary | "let" Declaration "in" Expression
//	                | "if" Expression "then" Expression "else" Expression
//	secondary       = primary (Operator primary)*
//	primary         = IntLit | CharLit | V-name | Identifier "(" APS ")"
//	                | Operator primary | "(" Expression ")"
//	                | "{" RecordAggregate "}" | "[" ArrayAggregate "]"
//	V-name          = Identifier ("." Identifier | "[" Expression "]")*
//	Declaration     = single-Declaration (";" single-Declaration)*
//	Type-denoter    = Identifier | "array" IntLit "of" Type-denoter
//	                | "record" Identifier ":" Type-denoter ("," ...)* "end"
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// Parse scans and parses a whole compilation unit. The error, if any, is a
// *SyntaxError.
func Parse(src string) (*ast.Program, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, withSnippet(err, strings.Split(src, "\n"))
	}
	return NewParser(tokens, src).ParseProgram()
}

func withSnippet(err error, lines []string) error {
	var se *SyntaxError
	if errors.As(err, &se) && se.Snippet == "" {
		if i := se.Pos.Line - 1; i >= 0 && i < len(lines) {
			se.Snippet = strings.TrimSpace(lines[i])
		}
	}
	return err
}

// fmtError builds a SyntaxError at tok carrying its source line.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	err := &SyntaxError{Pos: pos(tok), Msg: fmt.Sprintf(format, args...)}
	return withSnippet(err, p.sourceLines)
}

func pos(tok Token) ast.Pos { return ast.Pos{Line: tok.Line, Col: tok.Col} }

func (p *Parser) peek() Token {
	return p.peekAt(0)
}

func (p *Parser) peekNext() Token {
	return p.peekAt(1)
}

func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			return Token{Type: EOF, Line: last.Line, Col: last.Col}
		}
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "%s expected here, found %q", tt, tok.Lexeme)
	}
	return p.advance(), nil
}

// ParseProgram parses Command EOF.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	start := p.peek()
	cmd, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, p.fmtError(tok, "%q not expected after end of program", tok.Lexeme)
	}
	return &ast.Program{Command: cmd, Pos: pos(start)}, nil
}

//  Commands

func (p *Parser) parseCommand() (ast.Command, error) {
	start := p.peek()
	cmd, err := p.parseSingleCommand()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == SEMICOLON {
		p.advance()
		next, err := p.parseSingleCommand()
		if err != nil {
			return nil, err
		}
		cmd = &ast.SequentialCommand{C1: cmd, C2: next, Pos: pos(start)}
	}
	return cmd, nil
}

func (p *Parser) parseSingleCommand() (ast.Command, error) {
	tok := p.peek()
	switch tok.Type {
	case IDENTIFIER:
		if p.peekNext().Type == LPAREN {
			name := p.parseIdentifier()
			aps, err := p.parseParenthesizedActuals()
			if err != nil {
				return nil, err
			}
			return &ast.CallCommand{Name: name, Actuals: aps, Pos: pos(tok)}, nil
		}
		v, err := p.parseVname()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(BECOMES); err != nil {
			return nil, err
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.AssignCommand{V: v, E: e, Pos: pos(tok)}, nil

	case BEGIN:
		p.advance()
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(END); err != nil {
			return nil, err
		}
		return cmd, nil

	case LET:
		p.advance()
		d, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(IN); err != nil {
			return nil, err
		}
		c, err := p.parseSingleCommand()
		if err != nil {
			return nil, err
		}
		return &ast.LetCommand{D: d, C: c, Pos: pos(tok)}, nil

	case IF:
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(THEN); err != nil {
			return nil, err
		}
		c1, err := p.parseSingleCommand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ELSE); err != nil {
			return nil, err
		}
		c2, err := p.parseSingleCommand()
		if err != nil {
			return nil, err
		}
		return &ast.IfCommand{E: e, C1: c1, C2: c2, Pos: pos(tok)}, nil

	case WHILE:
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(DO); err != nil {
			return nil, err
		}
		c, err := p.parseSingleCommand()
		if err != nil {
			return nil, err
		}
		return &ast.WhileCommand{E: e, C: c, Pos: pos(tok)}, nil

	case DO:
		p.advance()
		c1, err := p.parseSingleCommand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(WHILE); err != nil {
			return nil, err
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(DO); err != nil {
			return nil, err
		}
		c2, err := p.parseSingleCommand()
		if err != nil {
			return nil, err
		}
		return &ast.LoopWhileCommand{C1: c1, E: e, C2: c2, Pos: pos(tok)}, nil

	case SEMICOLON, END, ELSE, IN, EOF:
		return &ast.EmptyCommand{Pos: pos(tok)}, nil
	}
	return nil, p.fmtError(tok, "%q cannot start a command", tok.Lexeme)
}

//  Expressions

func (p *Parser) parseExpression() (ast.Expression, error) {
	tok := p.peek()
	switch tok.Type {
	case LET:
		p.advance()
		d, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(IN); err != nil {
			return nil, err
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.LetExpression{D: d, E: e, Pos: pos(tok)}, nil

	case IF:
		p.advance()
		e1, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(THEN); err != nil {
			return nil, err
		}
		e2, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ELSE); err != nil {
			return nil, err
		}
		e3, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.IfExpression{E1: e1, E2: e2, E3: e3, Pos: pos(tok)}, nil
	}
	return p.parseSecondary()
}

// parseSecondary handles binary operators: all of equal precedence, left
// associative.
func (p *Parser) parseSecondary() (ast.Expression, error) {
	start := p.peek()
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == OPERATOR {
		op := p.parseOperator()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		e = &ast.BinaryExpression{E1: e, Op: op, E2: right, Pos: pos(start)}
	}
	return e, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()
	switch tok.Type {
	case INTLITERAL:
		p.advance()
		lit := &ast.IntegerLiteral{Spelling: tok.Lexeme, Pos: pos(tok)}
		return &ast.IntegerExpression{Literal: lit, Pos: pos(tok)}, nil

	case CHARLITERAL:
		p.advance()
		lit := &ast.CharacterLiteral{Spelling: tok.Lexeme, Pos: pos(tok)}
		return &ast.CharacterExpression{Literal: lit, Pos: pos(tok)}, nil

	case LBRACKET:
		p.advance()
		agg := &ast.ArrayAggregate{Pos: pos(tok)}
		for {
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			agg.Elements = append(agg.Elements, e)
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		return &ast.ArrayExpression{Aggregate: agg, Pos: pos(tok)}, nil

	case LCURLY:
		p.advance()
		agg := &ast.RecordAggregate{Pos: pos(tok)}
		for {
			if p.peek().Type != IDENTIFIER {
				return nil, p.fmtError(p.peek(), "field name expected here, found %q", p.peek().Lexeme)
			}
			name := p.parseIdentifier()
			if _, err := p.expect(IS); err != nil {
				return nil, err
			}
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			agg.Fields = append(agg.Fields, ast.FieldInit{Name: name, Value: e})
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
		if _, err := p.expect(RCURLY); err != nil {
			return nil, err
		}
		return &ast.RecordExpression{Aggregate: agg, Pos: pos(tok)}, nil

	case IDENTIFIER:
		if p.peekNext().Type == LPAREN {
			name := p.parseIdentifier()
			aps, err := p.parseParenthesizedActuals()
			if err != nil {
				return nil, err
			}
			return &ast.CallExpression{Name: name, Actuals: aps, Pos: pos(tok)}, nil
		}
		v, err := p.parseVname()
		if err != nil {
			return nil, err
		}
		return &ast.VnameExpression{V: v, Pos: pos(tok)}, nil

	case OPERATOR:
		op := p.parseOperator()
		e, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Op: op, E: e, Pos: pos(tok)}, nil

	case LPAREN:
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, p.fmtError(tok, "%q cannot start an expression", tok.Lexeme)
}

func (p *Parser) parseVname() (ast.Vname, error) {
	tok := p.peek()
	if tok.Type != IDENTIFIER {
		return nil, p.fmtError(tok, "identifier expected here, found %q", tok.Lexeme)
	}
	var v ast.Vname = &ast.SimpleVname{Name: p.parseIdentifier(), Pos: pos(tok)}
	for {
		switch p.peek().Type {
		case DOT:
			p.advance()
			if p.peek().Type != IDENTIFIER {
				return nil, p.fmtError(p.peek(), "field name expected here, found %q", p.peek().Lexeme)
			}
			v = &ast.DotVname{V: v, Field: p.parseIdentifier(), Pos: pos(tok)}
		case LBRACKET:
			p.advance()
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			v = &ast.SubscriptVname{V: v, Index: e, Pos: pos(tok)}
		default:
			return v, nil
		}
	}
}

// parseIdentifier consumes the current token, which must be an IDENTIFIER.
func (p *Parser) parseIdentifier() *ast.Identifier {
	tok := p.advance()
	return &ast.Identifier{Spelling: tok.Lexeme, Pos: pos(tok)}
}

func (p *Parser) parseOperator() *ast.Operator {
	tok := p.advance()
	return &ast.Operator{Spelling: tok.Lexeme, Pos: pos(tok)}
}

func (p *Parser) expectIdentifier() (*ast.Identifier, error) {
	if tok := p.peek(); tok.Type != IDENTIFIER {
		return nil, p.fmtError(tok, "identifier expected here, found %q", tok.Lexeme)
	}
	return p.parseIdentifier(), nil
}

//  Declarations

func (p *Parser) parseDeclaration() (ast.Declaration, error) {
	start := p.peek()
	d, err := p.parseSingleDeclaration()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == SEMICOLON {
		p.advance()
		next, err := p.parseSingleDeclaration()
		if err != nil {
			return nil, err
		}
		d = &ast.SequentialDeclaration{D1: d, D2: next, Pos: pos(start)}
	}
	return d, nil
}

func (p *Parser) parseSingleDeclaration() (ast.Declaration, error) {
	tok := p.advance()
	switch tok.Type {
	case CONST:
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(IS); err != nil {
			return nil, err
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.ConstDeclaration{Name: name, E: e, Pos: pos(tok)}, nil

	case VAR:
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		t, err := p.parseTypeDenoter()
		if err != nil {
			return nil, err
		}
		return &ast.VarDeclaration{Name: name, T: t, Pos: pos(tok)}, nil

	case PROC:
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		fps, err := p.parseParenthesizedFormals()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(IS); err != nil {
			return nil, err
		}
		c, err := p.parseSingleCommand()
		if err != nil {
			return nil, err
		}
		return &ast.ProcDeclaration{Name: name, Formals: fps, C: c, Pos: pos(tok)}, nil

	case FUNC:
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		fps, err := p.parseParenthesizedFormals()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		t, err := p.parseTypeDenoter()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(IS); err != nil {
			return nil, err
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.FuncDeclaration{Name: name, Formals: fps, T: t, E: e, Pos: pos(tok)}, nil

	case TYPE:
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(IS); err != nil {
			return nil, err
		}
		t, err := p.parseTypeDenoter()
		if err != nil {
			return nil, err
		}
		return &ast.TypeDeclaration{Name: name, T: t, Pos: pos(tok)}, nil
	}
	return nil, p.fmtError(tok, "%q cannot start a declaration", tok.Lexeme)
}

//  Parameters

func (p *Parser) parseParenthesizedFormals() (ast.FormalParameterSequence, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	fps := ast.FormalParameterSequence{}
	if p.peek().Type != RPAREN {
		for {
			fp, err := p.parseFormal()
			if err != nil {
				return nil, err
			}
			fps = append(fps, fp)
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return fps, nil
}

func (p *Parser) parseFormal() (ast.FormalParameter, error) {
	tok := p.peek()
	switch tok.Type {
	case IDENTIFIER:
		name := p.parseIdentifier()
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		t, err := p.parseTypeDenoter()
		if err != nil {
			return nil, err
		}
		return &ast.ConstFormalParameter{Name: name, T: t, Pos: pos(tok)}, nil

	case VAR:
		p.advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		t, err := p.parseTypeDenoter()
		if err != nil {
			return nil, err
		}
		return &ast.VarFormalParameter{Name: name, T: t, Pos: pos(tok)}, nil

	case PROC:
		p.advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		fps, err := p.parseParenthesizedFormals()
		if err != nil {
			return nil, err
		}
		return &ast.ProcFormalParameter{Name: name, Formals: fps, Pos: pos(tok)}, nil

	case FUNC:
		p.advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		fps, err := p.parseParenthesizedFormals()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		t, err := p.parseTypeDenoter()
		if err != nil {
			return nil, err
		}
		return &ast.FuncFormalParameter{Name: name, Formals: fps, T: t, Pos: pos(tok)}, nil
	}
	return nil, p.fmtError(tok, "%q cannot start a formal parameter", tok.Lexeme)
}

func (p *Parser) parseParenthesizedActuals() (ast.ActualParameterSequence, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	aps := ast.ActualParameterSequence{}
	if p.peek().Type != RPAREN {
		for {
			ap, err := p.parseActual()
			if err != nil {
				return nil, err
			}
			aps = append(aps, ap)
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return aps, nil
}

func (p *Parser) parseActual() (ast.ActualParameter, error) {
	tok := p.peek()
	switch tok.Type {
	case VAR:
		p.advance()
		v, err := p.parseVname()
		if err != nil {
			return nil, err
		}
		return &ast.VarActualParameter{V: v, Pos: pos(tok)}, nil
	case PROC:
		p.advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.ProcActualParameter{Name: name, Pos: pos(tok)}, nil
	case FUNC:
		p.advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.FuncActualParameter{Name: name, Pos: pos(tok)}, nil
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ConstActualParameter{E: e, Pos: pos(tok)}, nil
}

//  Type denoters

func (p *Parser) parseTypeDenoter() (ast.TypeDenoter, error) {
	tok := p.peek()
	switch tok.Type {
	case IDENTIFIER:
		return &ast.SimpleTypeDenoter{Name: p.parseIdentifier(), Pos: pos(tok)}, nil

	case ARRAY:
		p.advance()
		size, err := p.expect(INTLITERAL)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(OF); err != nil {
			return nil, err
		}
		elem, err := p.parseTypeDenoter()
		if err != nil {
			return nil, err
		}
		lit := &ast.IntegerLiteral{Spelling: size.Lexeme, Pos: pos(size)}
		return &ast.ArrayTypeDenoter{Size: lit, T: elem, Pos: pos(tok)}, nil

	case RECORD:
		p.advance()
		rec := &ast.RecordTypeDenoter{Pos: pos(tok)}
		for {
			name, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(COLON); err != nil {
				return nil, err
			}
			t, err := p.parseTypeDenoter()
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, ast.FieldDenoter{Name: name, T: t})
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
		if _, err := p.expect(END); err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, p.fmtError(tok, "%q cannot start a type denoter", tok.Lexeme)
}
