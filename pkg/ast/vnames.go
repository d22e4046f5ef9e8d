package ast

import "fmt"

// Vname is a value-or-variable name: something that denotes a storage
// location or a constant.
type Vname interface {
	Node
	vnameNode()
}

// SimpleVname is a plain identifier.
//
//	x := 1
//	^  SimpleVname{Name: x}
type SimpleVname struct {
	Name *Identifier
	Pos  Pos
}

func (*SimpleVname) vnameNode()        {}
func (v *SimpleVname) Position() Pos  { return v.Pos }
func (v *SimpleVname) String() string { return v.Name.String() }

// DotVname selects a record field.
//
//	p.x
//	^ ^
//	| Field
//	V
type DotVname struct {
	V     Vname
	Field *Identifier
	Pos   Pos
}

func (*DotVname) vnameNode()        {}
func (v *DotVname) Position() Pos  { return v.Pos }
func (v *DotVname) String() string { return fmt.Sprintf("%s.%s", v.V, v.Field) }

// SubscriptVname indexes an array.
//
//	a[i + 1]
//	^ ^^^^^
//	V Index
type SubscriptVname struct {
	V     Vname
	Index Expression
	Pos   Pos
}

func (*SubscriptVname) vnameNode()        {}
func (v *SubscriptVname) Position() Pos  { return v.Pos }
func (v *SubscriptVname) String() string { return fmt.Sprintf("%s[%s]", v.V, v.Index) }
