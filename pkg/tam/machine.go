// Package tam defines the Triangle Abstract Machine: its instruction set,
// object-file format, debug information and a reference interpreter.
package tam

import "fmt"

// OpCode is the operation field of an instruction.
type OpCode int

const (
	LOAD   OpCode = 0
	LOADA  OpCode = 1
	LOADI  OpCode = 2
	LOADL  OpCode = 3
	STORE  OpCode = 4
	STOREI OpCode = 5
	CALL   OpCode = 6
	CALLI  OpCode = 7
	RETURN OpCode = 8
	PUSH   OpCode = 10
	POP    OpCode = 11
	JUMP   OpCode = 12
	JUMPI  OpCode = 13
	JUMPIF OpCode = 14
	HALT   OpCode = 15
)

var opNames = map[OpCode]string{
	LOAD: "LOAD", LOADA: "LOADA", LOADI: "LOADI", LOADL: "LOADL",
	STORE: "STORE", STOREI: "STOREI", CALL: "CALL", CALLI: "CALLI",
	RETURN: "RETURN", PUSH: "PUSH", POP: "POP", JUMP: "JUMP",
	JUMPI: "JUMPI", JUMPIF: "JUMPIF", HALT: "HALT",
}

func (op OpCode) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("OP%d", int(op))
}

// LookupOp returns the opcode with the given mnemonic.
func LookupOp(name string) (OpCode, bool) {
	for op, s := range opNames {
		if s == name {
			return op, true
		}
	}
	return 0, false
}

// Register numbers as they appear in the r and n fields.
type Register int

const (
	CB Register = iota
	CT
	PB
	PT
	SB
	ST
	HB
	HT
	LB
	L1
	L2
	L3
	L4
	L5
	L6
	CP
)

var regNames = [...]string{"CB", "CT", "PB", "PT", "SB", "ST", "HB", "HT", "LB", "L1", "L2", "L3", "L4", "L5", "L6", "CP"}

func (r Register) String() string {
	if r >= 0 && int(r) < len(regNames) {
		return regNames[r]
	}
	return fmt.Sprintf("R%d", int(r))
}

// LookupRegister returns the register with the given name.
func LookupRegister(name string) (Register, bool) {
	for i, s := range regNames {
		if s == name {
			return Register(i), true
		}
	}
	return 0, false
}

// Primitive routine displacements relative to PB.
const (
	PrimID      = 1
	PrimNot     = 2
	PrimAnd     = 3
	PrimOr      = 4
	PrimSucc    = 5
	PrimPred    = 6
	PrimNeg     = 7
	PrimAdd     = 8
	PrimSub     = 9
	PrimMult    = 10
	PrimDiv     = 11
	PrimMod     = 12
	PrimLt      = 13
	PrimLe      = 14
	PrimGe      = 15
	PrimGt      = 16
	PrimEq      = 17
	PrimNe      = 18
	PrimEol     = 19
	PrimEof     = 20
	PrimGet     = 21
	PrimPut     = 22
	PrimGeteol  = 23
	PrimPuteol  = 24
	PrimGetint  = 25
	PrimPutint  = 26
	PrimNew     = 27
	PrimDispose = 28
)

var primNames = [...]string{
	"", "id", "not", "and", "or", "succ", "pred", "neg", "add", "sub", "mult",
	"div", "mod", "lt", "le", "ge", "gt", "eq", "ne", "eol", "eof", "get",
	"put", "geteol", "puteol", "getint", "putint", "new", "dispose",
}

// PrimitiveName returns the name of the primitive at displacement d, or ""
// if there is none.
func PrimitiveName(d int) string {
	if d > 0 && d < len(primNames) {
		return primNames[d]
	}
	return ""
}

// LookupPrimitive returns the displacement of the named primitive.
func LookupPrimitive(name string) (int, bool) {
	for d, s := range primNames {
		if d > 0 && s == name {
			return d, true
		}
	}
	return 0, false
}

// Store layout and data representation.
const (
	// CodeBase .. PrimitiveBase is the code store.
	CodeBase      = 0
	PrimitiveBase = 1024
	PrimitiveTop  = PrimitiveBase + PrimDispose

	// DataSize words of data store: stack grows up from SB, heap down from HB.
	DataSize  = 1024
	StackBase = 0
	HeapBase  = DataSize

	BooleanSize = 1
	CharSize    = 1
	IntegerSize = 1
	AddressSize = 1
	ClosureSize = 2 * AddressSize
	LinkSize    = 3 * AddressSize

	FalseRep = 0
	TrueRep  = 1
	MaxInt   = 32767

	// MaxRoutineLevel is the deepest frame level reachable through L1..L6.
	MaxRoutineLevel = 6
)

// Instruction is one TAM instruction: op (n) d[r].
type Instruction struct {
	Op OpCode
	R  Register
	N  int
	D  int
}

// String renders the instruction in listing form, e.g. LOAD (1) 3[LB] or
// CALL add for a primitive call.
func (i Instruction) String() string {
	switch i.Op {
	case LOAD, STORE, JUMPIF:
		return fmt.Sprintf("%s (%d) %d[%s]", i.Op, i.N, i.D, i.R)
	case LOADA, JUMP:
		return fmt.Sprintf("%s %d[%s]", i.Op, i.D, i.R)
	case LOADI, STOREI:
		return fmt.Sprintf("%s (%d)", i.Op, i.N)
	case LOADL, PUSH:
		return fmt.Sprintf("%s %d", i.Op, i.D)
	case CALL:
		if i.R == PB {
			if name := PrimitiveName(i.D); name != "" {
				return "CALL " + name
			}
		}
		return fmt.Sprintf("CALL (%s) %d[%s]", Register(i.N), i.D, i.R)
	case RETURN, POP:
		return fmt.Sprintf("%s (%d) %d", i.Op, i.N, i.D)
	case CALLI, JUMPI, HALT:
		return i.Op.String()
	}
	return fmt.Sprintf("%s (%d) %d[%s]", i.Op, i.N, i.D, i.R)
}
