package ast

import (
	"fmt"
	"strings"
)

// TypeDenoter is the syntactic form of a type. The checker resolves each one
// to a semantic type.
type TypeDenoter interface {
	Node
	typeNode()
}

// SimpleTypeDenoter names a declared type, e.g. Integer.
type SimpleTypeDenoter struct {
	Name *Identifier
	Pos  Pos
}

func (*SimpleTypeDenoter) typeNode()        {}
func (t *SimpleTypeDenoter) Position() Pos  { return t.Pos }
func (t *SimpleTypeDenoter) String() string { return t.Name.String() }

// ArrayTypeDenoter is array N of T.
type ArrayTypeDenoter struct {
	Size *IntegerLiteral
	T    TypeDenoter
	Pos  Pos
}

func (*ArrayTypeDenoter) typeNode()       {}
func (t *ArrayTypeDenoter) Position() Pos { return t.Pos }
func (t *ArrayTypeDenoter) String() string {
	return fmt.Sprintf("array %s of %s", t.Size, t.T)
}

// FieldDenoter is one I : T component of a record type.
type FieldDenoter struct {
	Name *Identifier
	T    TypeDenoter
}

// RecordTypeDenoter is record I1 : T1, ... end.
type RecordTypeDenoter struct {
	Fields []FieldDenoter
	Pos    Pos
}

func (*RecordTypeDenoter) typeNode()       {}
func (t *RecordTypeDenoter) Position() Pos { return t.Pos }
func (t *RecordTypeDenoter) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.T)
	}
	return "record " + strings.Join(parts, ", ") + " end"
}

// The remaining denoters have no source syntax. The standard environment
// uses them to describe primitive types.

type IntTypeDenoter struct{ Pos Pos }

func (*IntTypeDenoter) typeNode()        {}
func (t *IntTypeDenoter) Position() Pos  { return t.Pos }
func (t *IntTypeDenoter) String() string { return "int" }

type BoolTypeDenoter struct{ Pos Pos }

func (*BoolTypeDenoter) typeNode()        {}
func (t *BoolTypeDenoter) Position() Pos  { return t.Pos }
func (t *BoolTypeDenoter) String() string { return "bool" }

type CharTypeDenoter struct{ Pos Pos }

func (*CharTypeDenoter) typeNode()        {}
func (t *CharTypeDenoter) Position() Pos  { return t.Pos }
func (t *CharTypeDenoter) String() string { return "char" }

// AnyTypeDenoter marks the operands of the polymorphic = and \= operators.
type AnyTypeDenoter struct{ Pos Pos }

func (*AnyTypeDenoter) typeNode()        {}
func (t *AnyTypeDenoter) Position() Pos  { return t.Pos }
func (t *AnyTypeDenoter) String() string { return "any" }

// ErrorTypeDenoter stands in for a type that could not be resolved.
type ErrorTypeDenoter struct{ Pos Pos }

func (*ErrorTypeDenoter) typeNode()        {}
func (t *ErrorTypeDenoter) Position() Pos  { return t.Pos }
func (t *ErrorTypeDenoter) String() string { return "error" }
