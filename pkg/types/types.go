// Package types describes the semantic types of Triangle and their
// structural equivalence.
package types

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindError Kind = iota
	KindAny
	KindInt
	KindBool
	KindChar
	KindArray
	KindRecord
)

// Type is a resolved Triangle type. Named aliases are resolved away by the
// checker, so two Types are compared by shape only.
type Type struct {
	Kind Kind

	// Arrays
	Len  int
	Elem *Type

	// Records, in declaration order
	Fields []Field
}

type Field struct {
	Name string
	Type *Type
}

// Shared instances of the scalar types. Callers must not modify them.
var (
	Error = &Type{Kind: KindError}
	Any   = &Type{Kind: KindAny}
	Int   = &Type{Kind: KindInt}
	Bool  = &Type{Kind: KindBool}
	Char  = &Type{Kind: KindChar}
)

func NewArray(n int, elem *Type) *Type {
	return &Type{Kind: KindArray, Len: n, Elem: elem}
}

func NewRecord(fields []Field) *Type {
	return &Type{Kind: KindRecord, Fields: fields}
}

func (t *Type) IsError() bool { return t == nil || t.Kind == KindError }

// Field returns the named field and its index.
func (t *Type) Field(name string) (Field, int, bool) {
	if t.Kind != KindRecord {
		return Field{}, -1, false
	}
	for i, f := range t.Fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// Equal reports whether a and b are structurally equivalent. The error type
// is equivalent to every type so that one mistake is reported once. Any is
// only a marker for polymorphic operators and equals nothing else.
//
//	array 3 of Integer  ==  array 3 of Integer
//	record x: Integer end  !=  record y: Integer end
func Equal(a, b *Type) bool {
	if a.IsError() || b.IsError() {
		return true
	}
	if a == b {
		return a.Kind != KindAny
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt, KindBool, KindChar:
		return true
	case KindArray:
		return a.Len == b.Len && Equal(a.Elem, b.Elem)
	case KindRecord:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}

// Size returns the number of TAM words a value of type t occupies.
func (t *Type) Size() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KindInt, KindBool, KindChar:
		return 1
	case KindArray:
		return t.Len * t.Elem.Size()
	case KindRecord:
		n := 0
		for _, f := range t.Fields {
			n += f.Type.Size()
		}
		return n
	}
	return 0
}

// FieldOffset returns the word offset of field i within a record value.
func (t *Type) FieldOffset(i int) int {
	off := 0
	for _, f := range t.Fields[:i] {
		off += f.Type.Size()
	}
	return off
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindError:
		return "error"
	case KindAny:
		return "any"
	case KindInt:
		return "Integer"
	case KindBool:
		return "Boolean"
	case KindChar:
		return "Char"
	case KindArray:
		return fmt.Sprintf("array %d of %s", t.Len, t.Elem)
	case KindRecord:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
		}
		return "record " + strings.Join(parts, ", ") + " end"
	}
	return fmt.Sprintf("Kind(%d)", int(t.Kind))
}
