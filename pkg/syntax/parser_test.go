package syntax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotam/pkg/ast"
)

func TestTokenize(t *testing.T) {
	tokens, err := Tokenize("let var x: Integer ! comment\nin x := x /\\ 'a' \\= 12")
	require.NoError(t, err)

	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		LET, VAR, IDENTIFIER, COLON, IDENTIFIER,
		IN, IDENTIFIER, BECOMES, IDENTIFIER, OPERATOR, CHARLITERAL, OPERATOR, INTLITERAL,
		EOF,
	}, types)

	assert.Equal(t, "/\\", tokens[9].Lexeme)
	assert.Equal(t, "'a'", tokens[10].Lexeme)
	assert.Equal(t, 2, tokens[5].Line)
	assert.Equal(t, 1, tokens[5].Col)
}

func TestTokenizeErrors(t *testing.T) {
	_, err := Tokenize("x := #")
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ast.Pos{Line: 1, Col: 6}, se.Pos)

	_, err = Tokenize("x := 'ab'")
	assert.ErrorContains(t, err, "malformed character literal")
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"", "(Program (skip))"},
		{"x := 1", "(Program (:= x 1))"},
		{"putint(1); puteol()", "(Program (; (call putint (1)) (call puteol ())))"},
		{"begin x := 1 end", "(Program (:= x 1))"},
		{"if a then x := 1 else x := 2", "(Program (if a (:= x 1) (:= x 2)))"},
		{"if a then x := 1 else", "(Program (if a (:= x 1) (skip)))"},
		{"while a do x := x + 1", "(Program (while a (:= x (x + 1))))"},
		{"do get(var c) while c \\= ' ' do put(c)", "(Program (do (call get (var c)) while (c \\= ' ') (call put (c))))"},
		{"a[i].f := 1", "(Program (:= a[i].f 1))"},
		{"let var x: Integer in x := 1", "(Program (let (var x Integer) (:= x 1)))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prog.String())
		})
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		// No precedence: strictly left to right.
		{"1 + 2 * 3", "((1 + 2) * 3)"},
		{"1 + (2 * 3)", "(1 + (2 * 3))"},
		{"-x", "(- x)"},
		{"\\ b /\\ c", "((\\ b) /\\ c)"},
		{"if b then 1 else 2", "(if b 1 2)"},
		{"let const k ~ 3 in k * k", "(let (const k 3) (k * k))"},
		{"f(1, var v, proc p, func g)", "(call f (1, var v, proc p, func g))"},
		{"[1, 2, 3]", "[1, 2, 3]"},
		{"{x ~ 1, y ~ 'c'}", "{x ~ 1, y ~ 'c'}"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog, err := Parse("x := " + tt.src)
			require.NoError(t, err)
			assign, ok := prog.Command.(*ast.AssignCommand)
			require.True(t, ok)
			assert.Equal(t, tt.want, assign.E.String())
		})
	}
}

func TestParseDeclarations(t *testing.T) {
	src := `
let
  type Point ~ record x: Integer, y: Integer end;
  type Row ~ array 3 of Char;
  const origin ~ {x ~ 0, y ~ 0};
  var p: Point;
  proc swap(var a: Integer, var b: Integer) ~
    let const t ~ a in begin a := b; b := t end;
  func apply(func f(n: Integer): Integer, n: Integer): Integer ~ f(n);
  proc each(proc visit(c: Char)) ~ visit('x')
in
  swap(var p.x, var p.y)`
	prog, err := Parse(src)
	require.NoError(t, err)

	let, ok := prog.Command.(*ast.LetCommand)
	require.True(t, ok)

	var decls []string
	var flatten func(d ast.Declaration)
	flatten = func(d ast.Declaration) {
		if seq, ok := d.(*ast.SequentialDeclaration); ok {
			flatten(seq.D1)
			flatten(seq.D2)
			return
		}
		decls = append(decls, d.String())
	}
	flatten(let.D)

	assert.Equal(t, []string{
		"(type Point record x: Integer, y: Integer end)",
		"(type Row array 3 of Char)",
		"(const origin {x ~ 0, y ~ 0})",
		"(var p Point)",
		"(proc swap (var a: Integer, var b: Integer) (let (const t a) (; (:= a b) (:= b t))))",
		"(func apply (func f(n: Integer): Integer, n: Integer) Integer (call f (n)))",
		"(proc each (proc visit(c: Char)) (call visit ('x')))",
	}, decls)
}

func TestParsePositions(t *testing.T) {
	prog, err := Parse("x := 1;\n  y := 2")
	require.NoError(t, err)
	seq := prog.Command.(*ast.SequentialCommand)
	assert.Equal(t, ast.Pos{Line: 1, Col: 1}, seq.C1.Position())
	assert.Equal(t, ast.Pos{Line: 2, Col: 3}, seq.C2.Position())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		msg  string
		line int
	}{
		{"x = 1", `":=" expected here, found "="`, 1},
		{"x := ", `"" cannot start an expression`, 1},
		{"let var x: Integer\nx := 1", `"in" expected here, found "x"`, 2},
		{"begin x := 1", `"end" expected here, found ""`, 1},
		{"x := 1 )", `")" not expected after end of program`, 1},
		{"let x ~ 1 in x := 1", `"x" cannot start a declaration`, 1},
		{"let type T ~ array n of Integer in x := 1", `integer literal expected here, found "n"`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.msg, se.Msg)
			assert.Equal(t, tt.line, se.Pos.Line)
			assert.NotEmpty(t, se.Snippet)
		})
	}
}
