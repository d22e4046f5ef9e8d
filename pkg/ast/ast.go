// Package ast defines the abstract syntax tree of Triangle programs.
//
// Every syntactic category is a closed set of node kinds: an interface with
// an unexported marker method, implemented only by the node structs in this
// package. Passes (checker, optimizer, codegen) switch over the concrete
// kinds. Nodes are never annotated in place; passes record what they learn
// in side tables keyed by node pointer.
package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a source position. Lines and columns are 1-based; the zero Pos means
// "no position" and is used by the standard environment.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Node is implemented by every AST node.
type Node interface {
	Position() Pos
	String() string
}

// Program is the root of a compilation unit.
type Program struct {
	Command Command
	Pos     Pos
}

func (p *Program) Position() Pos  { return p.Pos }
func (p *Program) String() string { return fmt.Sprintf("(Program %s)", p.Command) }

//  Terminals

// Identifier is a name occurrence, either defining or applied.
type Identifier struct {
	Spelling string
	Pos      Pos
}

func (i *Identifier) Position() Pos  { return i.Pos }
func (i *Identifier) String() string { return i.Spelling }

// Operator is an operator symbol such as + or /\.
type Operator struct {
	Spelling string
	Pos      Pos
}

func (o *Operator) Position() Pos  { return o.Pos }
func (o *Operator) String() string { return o.Spelling }

// IntegerLiteral holds the literal's spelling. Folding may produce negative
// spellings such as "-3".
type IntegerLiteral struct {
	Spelling string
	Pos      Pos
}

func (l *IntegerLiteral) Position() Pos  { return l.Pos }
func (l *IntegerLiteral) String() string { return l.Spelling }

// Value returns the literal's value and false if the spelling does not fit
// in an int.
func (l *IntegerLiteral) Value() (int, bool) {
	n, err := strconv.Atoi(l.Spelling)
	return n, err == nil
}

// CharacterLiteral holds the quoted spelling, e.g. 'a'.
type CharacterLiteral struct {
	Spelling string
	Pos      Pos
}

func (l *CharacterLiteral) Position() Pos  { return l.Pos }
func (l *CharacterLiteral) String() string { return l.Spelling }

// Value returns the character between the quotes.
func (l *CharacterLiteral) Value() rune {
	s := strings.TrimSuffix(strings.TrimPrefix(l.Spelling, "'"), "'")
	for _, r := range s {
		return r
	}
	return 0
}

// IntLit builds an IntegerLiteral for a value. Used when code synthesizes
// literals, e.g. constant folding.
func IntLit(v int, pos Pos) *IntegerLiteral {
	return &IntegerLiteral{Spelling: strconv.Itoa(v), Pos: pos}
}
