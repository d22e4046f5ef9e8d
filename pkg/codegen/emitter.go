package codegen

import (
	"gotam/pkg/ast"
	"gotam/pkg/diag"
	"gotam/pkg/tam"
)

// Emitter accumulates the code store. Forward jumps are emitted with a zero
// target and patched once the target address is known.
type Emitter struct {
	reporter *diag.Reporter
	code     []tam.Instruction
	lines    []int
	line     int
	full     bool
}

func NewEmitter(reporter *diag.Reporter) *Emitter {
	return &Emitter{reporter: reporter}
}

// Next is the address the next instruction will occupy.
func (e *Emitter) Next() int { return len(e.code) }

// At sets the source position attributed to the following instructions.
func (e *Emitter) At(pos ast.Pos) {
	if pos.IsValid() {
		e.line = pos.Line
	}
}

// Emit appends op (n) d[r] and returns its address. A program that outgrows
// the code store is reported once.
func (e *Emitter) Emit(op tam.OpCode, n int, r tam.Register, d int) int {
	addr := len(e.code)
	if addr >= tam.PrimitiveBase && !e.full {
		e.full = true
		e.reporter.Restrictionf(ast.Pos{Line: e.line}, "program too large for the code store (%d words)", tam.PrimitiveBase)
	}
	e.code = append(e.code, tam.Instruction{Op: op, R: r, N: n, D: d})
	e.lines = append(e.lines, e.line)
	return addr
}

// Patch sets the target of the jump at addr to d.
func (e *Emitter) Patch(addr, d int) {
	e.code[addr].D = d
}

// PatchHere points the jump at addr to the next instruction.
func (e *Emitter) PatchHere(addr int) {
	e.Patch(addr, e.Next())
}

func (e *Emitter) Code() []tam.Instruction { return e.code }

// Lines maps each code address to the source line it came from.
func (e *Emitter) Lines() []int { return e.lines }
