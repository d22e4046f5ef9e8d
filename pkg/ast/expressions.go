package ast

import (
	"fmt"
	"strings"
)

//  Expression nodes

// Expression is implemented by every node that produces a value.
type Expression interface {
	Node
	exprNode()
}

// BinaryExpression is E1 Op E2. Triangle operators have no precedence and
// associate to the left.
//
//	a + b * c   parses as   (a + b) * c
type BinaryExpression struct {
	E1  Expression
	Op  *Operator
	E2  Expression
	Pos Pos
}

func (*BinaryExpression) exprNode()        {}
func (e *BinaryExpression) Position() Pos { return e.Pos }
func (e *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.E1, e.Op, e.E2)
}

// UnaryExpression is Op E, e.g. \b.
type UnaryExpression struct {
	Op  *Operator
	E   Expression
	Pos Pos
}

func (*UnaryExpression) exprNode()        {}
func (e *UnaryExpression) Position() Pos  { return e.Pos }
func (e *UnaryExpression) String() string { return fmt.Sprintf("(%s %s)", e.Op, e.E) }

// CallExpression is a function call I(APS).
type CallExpression struct {
	Name    *Identifier
	Actuals ActualParameterSequence
	Pos     Pos
}

func (*CallExpression) exprNode()       {}
func (e *CallExpression) Position() Pos { return e.Pos }
func (e *CallExpression) String() string {
	return fmt.Sprintf("(call %s %s)", e.Name, e.Actuals)
}

// IfExpression is if E1 then E2 else E3.
type IfExpression struct {
	E1, E2, E3 Expression
	Pos        Pos
}

func (*IfExpression) exprNode()       {}
func (e *IfExpression) Position() Pos { return e.Pos }
func (e *IfExpression) String() string {
	return fmt.Sprintf("(if %s %s %s)", e.E1, e.E2, e.E3)
}

// LetExpression is let D in E.
type LetExpression struct {
	D   Declaration
	E   Expression
	Pos Pos
}

func (*LetExpression) exprNode()        {}
func (e *LetExpression) Position() Pos  { return e.Pos }
func (e *LetExpression) String() string { return fmt.Sprintf("(let %s %s)", e.D, e.E) }

// VnameExpression reads the value named by V.
type VnameExpression struct {
	V   Vname
	Pos Pos
}

func (*VnameExpression) exprNode()        {}
func (e *VnameExpression) Position() Pos  { return e.Pos }
func (e *VnameExpression) String() string { return e.V.String() }

// ArrayExpression is an array aggregate [E1, E2, ...].
type ArrayExpression struct {
	Aggregate *ArrayAggregate
	Pos       Pos
}

func (*ArrayExpression) exprNode()        {}
func (e *ArrayExpression) Position() Pos  { return e.Pos }
func (e *ArrayExpression) String() string { return e.Aggregate.String() }

// RecordExpression is a record aggregate {I1 ~ E1, I2 ~ E2, ...}.
type RecordExpression struct {
	Aggregate *RecordAggregate
	Pos       Pos
}

func (*RecordExpression) exprNode()        {}
func (e *RecordExpression) Position() Pos  { return e.Pos }
func (e *RecordExpression) String() string { return e.Aggregate.String() }

// IntegerExpression is an integer literal used as an expression.
type IntegerExpression struct {
	Literal *IntegerLiteral
	Pos     Pos
}

func (*IntegerExpression) exprNode()        {}
func (e *IntegerExpression) Position() Pos  { return e.Pos }
func (e *IntegerExpression) String() string { return e.Literal.String() }

// CharacterExpression is a character literal used as an expression.
type CharacterExpression struct {
	Literal *CharacterLiteral
	Pos     Pos
}

func (*CharacterExpression) exprNode()        {}
func (e *CharacterExpression) Position() Pos  { return e.Pos }
func (e *CharacterExpression) String() string { return e.Literal.String() }

// EmptyExpression stands for a missing expression, e.g. the body of a
// standard-environment function.
type EmptyExpression struct {
	Pos Pos
}

func (*EmptyExpression) exprNode()        {}
func (e *EmptyExpression) Position() Pos  { return e.Pos }
func (e *EmptyExpression) String() string { return "()" }

//  Aggregates

// ArrayAggregate lists the element expressions of an array literal.
type ArrayAggregate struct {
	Elements []Expression
	Pos      Pos
}

func (a *ArrayAggregate) Position() Pos { return a.Pos }
func (a *ArrayAggregate) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FieldInit is one I ~ E component of a record aggregate.
type FieldInit struct {
	Name  *Identifier
	Value Expression
}

// RecordAggregate lists the fields of a record literal in source order.
type RecordAggregate struct {
	Fields []FieldInit
	Pos    Pos
}

func (a *RecordAggregate) Position() Pos { return a.Pos }
func (a *RecordAggregate) String() string {
	parts := make([]string, len(a.Fields))
	for i, f := range a.Fields {
		parts[i] = fmt.Sprintf("%s ~ %s", f.Name, f.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
