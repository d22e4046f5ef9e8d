package codegen

import "gotam/pkg/tam"

// Frame is the activation record code is being generated for: its routine
// nesting level and the number of words already on the stack above its base.
type Frame struct {
	Level int
	Size  int
}

// Expand returns f with n more words in use.
func (f Frame) Expand(n int) Frame { return Frame{Level: f.Level, Size: f.Size + n} }

// ObjectAddress locates an object: displacement within the frame at Level,
// or within the code store for routines.
type ObjectAddress struct {
	Level        int
	Displacement int
}

// Entity is the run-time representation the encoder chose for a declaration.
type Entity interface {
	entity()
}

// KnownValue is a constant whose value is known at compile time.
type KnownValue struct {
	Size  int
	Value int
}

// UnknownValue is a constant evaluated at run time and kept on the stack.
type UnknownValue struct {
	Size    int
	Address ObjectAddress
}

// KnownAddress is a variable at a fixed place in a frame.
type KnownAddress struct {
	Size    int
	Address ObjectAddress
}

// UnknownAddress is a var parameter: the frame slot holds its address.
type UnknownAddress struct {
	Size    int
	Address ObjectAddress
}

// KnownRoutine is a routine whose code address is known.
type KnownRoutine struct {
	Size    int
	Address ObjectAddress
}

// UnknownRoutine is a proc or func parameter: the frame slot holds a
// closure.
type UnknownRoutine struct {
	Size    int
	Address ObjectAddress
}

// PrimitiveRoutine is a routine built into the machine at PB+Displacement.
type PrimitiveRoutine struct {
	Size         int
	Displacement int
}

// EqualityRoutine is a primitive that needs the operand size pushed before
// the call (= and \=).
type EqualityRoutine struct {
	Size         int
	Displacement int
}

func (KnownValue) entity()       {}
func (UnknownValue) entity()     {}
func (KnownAddress) entity()     {}
func (UnknownAddress) entity()   {}
func (KnownRoutine) entity()     {}
func (UnknownRoutine) entity()   {}
func (PrimitiveRoutine) entity() {}
func (EqualityRoutine) entity()  {}

// record describes e for the debug entity table.
func record(name string, line int, e Entity) tam.EntityRecord {
	r := tam.EntityRecord{Name: name, Line: line}
	switch e := e.(type) {
	case KnownValue:
		r.Kind, r.Size, r.Value = "KnownValue", e.Size, e.Value
	case UnknownValue:
		r.Kind, r.Size, r.Level, r.Displacement = "UnknownValue", e.Size, e.Address.Level, e.Address.Displacement
	case KnownAddress:
		r.Kind, r.Size, r.Level, r.Displacement = "KnownAddress", e.Size, e.Address.Level, e.Address.Displacement
	case UnknownAddress:
		r.Kind, r.Size, r.Level, r.Displacement = "UnknownAddress", e.Size, e.Address.Level, e.Address.Displacement
	case KnownRoutine:
		r.Kind, r.Size, r.Level, r.Displacement = "KnownRoutine", e.Size, e.Address.Level, e.Address.Displacement
	case UnknownRoutine:
		r.Kind, r.Size, r.Level, r.Displacement = "UnknownRoutine", e.Size, e.Address.Level, e.Address.Displacement
	case PrimitiveRoutine:
		r.Kind, r.Size, r.Displacement = "PrimitiveRoutine", e.Size, e.Displacement
	case EqualityRoutine:
		r.Kind, r.Size, r.Displacement = "EqualityRoutine", e.Size, e.Displacement
	}
	return r
}
