// Package codegen allocates storage for a checked Triangle program and emits
// TAM code for it.
package codegen

import (
	"fmt"

	"gotam/pkg/ast"
	"gotam/pkg/checker"
	"gotam/pkg/diag"
	"gotam/pkg/tam"
)

// maxLoadSize is the largest value LOAD, STORE and friends can move.
const maxLoadSize = 255

// Program is the output of a successful encoding.
type Program struct {
	Code     []tam.Instruction
	Lines    []int
	Entities []tam.EntityRecord
}

// Encoder walks a checked program once, allocating storage in declaration
// order and emitting code as it goes.
type Encoder struct {
	info     *checker.Info
	reporter *diag.Reporter
	emitter  *Emitter
	entities map[ast.Declaration]Entity
	records  []tam.EntityRecord
	pos      ast.Pos
}

// Encode generates code for prog. It returns nil if reporter holds errors,
// whether from earlier passes or from encoding itself.
func Encode(prog *ast.Program, info *checker.Info, reporter *diag.Reporter) *Program {
	if reporter.ErrorCount() > 0 {
		return nil
	}
	enc := &Encoder{
		info:     info,
		reporter: reporter,
		emitter:  NewEmitter(reporter),
		entities: make(map[ast.Declaration]Entity),
	}
	enc.elaborateStdEnvironment()
	enc.command(prog.Command, Frame{})
	enc.emit(tam.HALT, 0, 0, 0)

	if reporter.ErrorCount() > 0 {
		return nil
	}
	return &Program{
		Code:     enc.emitter.Code(),
		Lines:    enc.emitter.Lines(),
		Entities: enc.records,
	}
}

func (enc *Encoder) emit(op tam.OpCode, n int, r tam.Register, d int) int {
	return enc.emitter.Emit(op, n, r, d)
}

func (enc *Encoder) at(n ast.Node) {
	if p := n.Position(); p.IsValid() {
		enc.pos = p
		enc.emitter.At(p)
	}
}

func (enc *Encoder) restrictionf(format string, args ...any) {
	enc.reporter.Restrictionf(enc.pos, format, args...)
}

func (enc *Encoder) bind(d ast.Declaration, name *ast.Identifier, e Entity) {
	enc.entities[d] = e
	if name != nil && !enc.info.Std.IsStd(d) {
		enc.records = append(enc.records, record(name.Spelling, d.Position().Line, e))
	}
}

func (enc *Encoder) elaborateStdEnvironment() {
	std := enc.info.Std
	known := func(d *ast.ConstDeclaration, v int) {
		enc.entities[d] = KnownValue{Size: tam.IntegerSize, Value: v}
	}
	known(std.FalseDecl, tam.FalseRep)
	known(std.TrueDecl, tam.TrueRep)
	known(std.MaxintDecl, tam.MaxInt)

	prim := func(d ast.Declaration, disp int) {
		enc.entities[d] = PrimitiveRoutine{Size: tam.ClosureSize, Displacement: disp}
	}
	prim(std.NotDecl, tam.PrimNot)
	prim(std.AndDecl, tam.PrimAnd)
	prim(std.OrDecl, tam.PrimOr)
	prim(std.LessDecl, tam.PrimLt)
	prim(std.NotGreaterDecl, tam.PrimLe)
	prim(std.GreaterDecl, tam.PrimGt)
	prim(std.NotLessDecl, tam.PrimGe)
	prim(std.AddDecl, tam.PrimAdd)
	prim(std.SubtractDecl, tam.PrimSub)
	prim(std.MultiplyDecl, tam.PrimMult)
	prim(std.DivideDecl, tam.PrimDiv)
	prim(std.ModuloDecl, tam.PrimMod)
	prim(std.ChrDecl, tam.PrimID)
	prim(std.OrdDecl, tam.PrimID)
	prim(std.EolDecl, tam.PrimEol)
	prim(std.EofDecl, tam.PrimEof)
	prim(std.GetDecl, tam.PrimGet)
	prim(std.PutDecl, tam.PrimPut)
	prim(std.GetintDecl, tam.PrimGetint)
	prim(std.PutintDecl, tam.PrimPutint)
	prim(std.GeteolDecl, tam.PrimGeteol)
	prim(std.PuteolDecl, tam.PrimPuteol)

	enc.entities[std.EqualDecl] = EqualityRoutine{Size: tam.ClosureSize, Displacement: tam.PrimEq}
	enc.entities[std.UnequalDecl] = EqualityRoutine{Size: tam.ClosureSize, Displacement: tam.PrimNe}
}

// displayRegister returns the register that addresses a frame at
// objectLevel from code running at currentLevel.
func (enc *Encoder) displayRegister(currentLevel, objectLevel int) tam.Register {
	if objectLevel == 0 {
		return tam.SB
	}
	if currentLevel-objectLevel <= tam.MaxRoutineLevel {
		return tam.LB + tam.Register(currentLevel-objectLevel)
	}
	enc.restrictionf("can't access data more than %d levels out", tam.MaxRoutineLevel)
	return tam.L6
}

func (enc *Encoder) size(n ast.Node) int {
	return enc.info.TypeOf(n).Size()
}

//  Commands

func (enc *Encoder) command(c ast.Command, f Frame) {
	enc.at(c)
	switch c := c.(type) {
	case *ast.AssignCommand:
		valSize := enc.expr(c.E, f)
		enc.store(c.V, f.Expand(valSize), valSize)

	case *ast.CallCommand:
		argsSize := enc.actuals(c.Actuals, f)
		enc.at(c)
		enc.call(enc.info.Uses[c.Name], Frame{Level: f.Level, Size: argsSize})

	case *ast.IfCommand:
		enc.expr(c.E, f)
		jumpifAddr := enc.emit(tam.JUMPIF, tam.FalseRep, tam.CB, 0)
		enc.command(c.C1, f)
		jumpAddr := enc.emit(tam.JUMP, 0, tam.CB, 0)
		enc.emitter.PatchHere(jumpifAddr)
		enc.command(c.C2, f)
		enc.emitter.PatchHere(jumpAddr)

	case *ast.LetCommand:
		extraSize := enc.declaration(c.D, f)
		enc.command(c.C, f.Expand(extraSize))
		if extraSize > 0 {
			enc.emit(tam.POP, 0, 0, extraSize)
		}

	case *ast.WhileCommand:
		jumpAddr := enc.emit(tam.JUMP, 0, tam.CB, 0)
		loopAddr := enc.emitter.Next()
		enc.command(c.C, f)
		enc.emitter.PatchHere(jumpAddr)
		enc.at(c.E)
		enc.expr(c.E, f)
		enc.emit(tam.JUMPIF, tam.TrueRep, tam.CB, loopAddr)

	case *ast.LoopWhileCommand:
		loopAddr := enc.emitter.Next()
		enc.command(c.C1, f)
		enc.at(c.E)
		enc.expr(c.E, f)
		exitAddr := enc.emit(tam.JUMPIF, tam.FalseRep, tam.CB, 0)
		enc.command(c.C2, f)
		enc.emit(tam.JUMP, 0, tam.CB, loopAddr)
		enc.emitter.PatchHere(exitAddr)

	case *ast.SequentialCommand:
		enc.command(c.C1, f)
		enc.command(c.C2, f)

	case *ast.EmptyCommand:

	default:
		panic(fmt.Sprintf("codegen: unexpected command %T", c))
	}
}

//  Expressions

// expr emits code that pushes the value of e and returns its size.
func (enc *Encoder) expr(e ast.Expression, f Frame) int {
	e = enc.info.Expr(e)
	valSize := enc.size(e)

	switch e := e.(type) {
	case *ast.IntegerExpression:
		v, _ := e.Literal.Value()
		enc.emit(tam.LOADL, 0, 0, v)

	case *ast.CharacterExpression:
		enc.emit(tam.LOADL, 0, 0, int(e.Literal.Value()))

	case *ast.EmptyExpression:
		return 0

	case *ast.VnameExpression:
		enc.fetch(e.V, f, valSize)

	case *ast.UnaryExpression:
		argSize := enc.expr(e.E, f)
		enc.call(enc.info.Operators[e.Op], Frame{Level: f.Level, Size: argSize})

	case *ast.BinaryExpression:
		size1 := enc.expr(e.E1, f)
		size2 := enc.expr(e.E2, f.Expand(size1))
		enc.call(enc.info.Operators[e.Op], Frame{Level: f.Level, Size: size1 + size2})

	case *ast.CallExpression:
		argsSize := enc.actuals(e.Actuals, f)
		enc.call(enc.info.Uses[e.Name], Frame{Level: f.Level, Size: argsSize})

	case *ast.IfExpression:
		enc.expr(e.E1, f)
		jumpifAddr := enc.emit(tam.JUMPIF, tam.FalseRep, tam.CB, 0)
		enc.expr(e.E2, f)
		jumpAddr := enc.emit(tam.JUMP, 0, tam.CB, 0)
		enc.emitter.PatchHere(jumpifAddr)
		enc.expr(e.E3, f)
		enc.emitter.PatchHere(jumpAddr)

	case *ast.LetExpression:
		extraSize := enc.declaration(e.D, f)
		enc.expr(e.E, f.Expand(extraSize))
		if extraSize > 0 {
			enc.emit(tam.POP, valSize, 0, extraSize)
		}

	case *ast.ArrayExpression:
		g := f
		for _, el := range e.Aggregate.Elements {
			g = g.Expand(enc.expr(el, g))
		}

	case *ast.RecordExpression:
		g := f
		for _, fi := range e.Aggregate.Fields {
			g = g.Expand(enc.expr(fi.Value, g))
		}

	default:
		panic(fmt.Sprintf("codegen: unexpected expression %T", e))
	}
	return valSize
}

// call emits a call to the routine or operator declared by d. f.Size is the
// size of the arguments already pushed.
func (enc *Encoder) call(d ast.Declaration, f Frame) {
	switch ent := enc.entities[d].(type) {
	case KnownRoutine:
		enc.emit(tam.CALL, int(enc.displayRegister(f.Level, ent.Address.Level)), tam.CB, ent.Address.Displacement)
	case UnknownRoutine:
		enc.emit(tam.LOAD, tam.ClosureSize, enc.displayRegister(f.Level, ent.Address.Level), ent.Address.Displacement)
		enc.emit(tam.CALLI, 0, 0, 0)
	case PrimitiveRoutine:
		if ent.Displacement != tam.PrimID {
			enc.emit(tam.CALL, int(tam.SB), tam.PB, ent.Displacement)
		}
	case EqualityRoutine:
		enc.emit(tam.LOADL, 0, 0, f.Size/2)
		enc.emit(tam.CALL, int(tam.SB), tam.PB, ent.Displacement)
	default:
		panic(fmt.Sprintf("codegen: %T is not callable", ent))
	}
}

//  Declarations

// declaration elaborates d and returns the number of words it pushed.
func (enc *Encoder) declaration(d ast.Declaration, f Frame) int {
	enc.at(d)
	switch d := d.(type) {
	case *ast.ConstDeclaration:
		if v, ok := enc.knownValue(d.E); ok {
			enc.bind(d, d.Name, KnownValue{Size: enc.size(d), Value: v})
			return 0
		}
		valSize := enc.expr(d.E, f)
		enc.bind(d, d.Name, UnknownValue{Size: valSize, Address: ObjectAddress{f.Level, f.Size}})
		return valSize

	case *ast.VarDeclaration:
		size := enc.size(d)
		enc.emit(tam.PUSH, 0, 0, size)
		enc.bind(d, d.Name, KnownAddress{Size: size, Address: ObjectAddress{f.Level, f.Size}})
		return size

	case *ast.ProcDeclaration:
		enc.routine(d, d.Name, d.Formals, f, func(body Frame) int {
			enc.command(d.C, body)
			return 0
		})
		return 0

	case *ast.FuncDeclaration:
		enc.routine(d, d.Name, d.Formals, f, func(body Frame) int {
			return enc.expr(d.E, body)
		})
		return 0

	case *ast.TypeDeclaration:
		return 0

	case *ast.SequentialDeclaration:
		size1 := enc.declaration(d.D1, f)
		size2 := enc.declaration(d.D2, f.Expand(size1))
		return size1 + size2
	}
	panic(fmt.Sprintf("codegen: unexpected declaration %T", d))
}

// knownValue reports whether e is a compile-time constant: a literal, or a
// name already bound to a known value such as true.
func (enc *Encoder) knownValue(e ast.Expression) (int, bool) {
	switch e := enc.info.Expr(e).(type) {
	case *ast.IntegerExpression:
		return e.Literal.Value()
	case *ast.CharacterExpression:
		return int(e.Literal.Value()), true
	case *ast.VnameExpression:
		if sv, ok := e.V.(*ast.SimpleVname); ok {
			if kv, ok := enc.entities[enc.info.Uses[sv.Name]].(KnownValue); ok {
				return kv.Value, true
			}
		}
	}
	return 0, false
}

// routine emits a routine body out of line, behind a jump, and binds d to
// its code address before the body so that it may call itself.
func (enc *Encoder) routine(d ast.Declaration, name *ast.Identifier, fps ast.FormalParameterSequence, f Frame, body func(Frame) int) {
	jumpAddr := enc.emit(tam.JUMP, 0, tam.CB, 0)
	enc.bind(d, name, KnownRoutine{Size: tam.ClosureSize, Address: ObjectAddress{f.Level, enc.emitter.Next()}})

	valSize, argsSize := 0, 0
	if f.Level == tam.MaxRoutineLevel {
		enc.restrictionf("can't nest routines more than %d deep", tam.MaxRoutineLevel)
	} else {
		argsSize = enc.formals(fps, Frame{Level: f.Level + 1})
		valSize = body(Frame{Level: f.Level + 1, Size: tam.LinkSize})
	}
	enc.emit(tam.RETURN, valSize, 0, argsSize)
	enc.emitter.PatchHere(jumpAddr)
}

// formals allocates parameters below the frame's link data. The last
// parameter is pushed last, so it sits nearest LB.
func (enc *Encoder) formals(fps ast.FormalParameterSequence, f Frame) int {
	size := 0
	for i := len(fps) - 1; i >= 0; i-- {
		size += enc.formal(fps[i], Frame{Level: f.Level, Size: size})
	}
	return size
}

func (enc *Encoder) formal(fp ast.FormalParameter, f Frame) int {
	switch fp := fp.(type) {
	case *ast.ConstFormalParameter:
		size := enc.size(fp)
		enc.bind(fp, fp.Name, UnknownValue{Size: size, Address: ObjectAddress{f.Level, -f.Size - size}})
		return size
	case *ast.VarFormalParameter:
		enc.bind(fp, fp.Name, UnknownAddress{Size: tam.AddressSize, Address: ObjectAddress{f.Level, -f.Size - tam.AddressSize}})
		return tam.AddressSize
	case *ast.ProcFormalParameter:
		enc.bind(fp, fp.Name, UnknownRoutine{Size: tam.ClosureSize, Address: ObjectAddress{f.Level, -f.Size - tam.ClosureSize}})
		return tam.ClosureSize
	case *ast.FuncFormalParameter:
		enc.bind(fp, fp.Name, UnknownRoutine{Size: tam.ClosureSize, Address: ObjectAddress{f.Level, -f.Size - tam.ClosureSize}})
		return tam.ClosureSize
	}
	panic(fmt.Sprintf("codegen: unexpected formal parameter %T", fp))
}

//  Actual parameters

// actuals pushes the arguments of a call in order and returns their size.
func (enc *Encoder) actuals(aps ast.ActualParameterSequence, f Frame) int {
	size := 0
	for _, ap := range aps {
		size += enc.actual(ap, f.Expand(size))
	}
	return size
}

func (enc *Encoder) actual(ap ast.ActualParameter, f Frame) int {
	switch ap := ap.(type) {
	case *ast.ConstActualParameter:
		return enc.expr(ap.E, f)
	case *ast.VarActualParameter:
		enc.fetchAddress(ap.V, f)
		return tam.AddressSize
	case *ast.ProcActualParameter:
		enc.closure(enc.info.Uses[ap.Name], f)
		return tam.ClosureSize
	case *ast.FuncActualParameter:
		enc.closure(enc.info.Uses[ap.Name], f)
		return tam.ClosureSize
	}
	panic(fmt.Sprintf("codegen: unexpected actual parameter %T", ap))
}

// closure pushes a static link and code address for the routine d.
func (enc *Encoder) closure(d ast.Declaration, f Frame) {
	switch ent := enc.entities[d].(type) {
	case KnownRoutine:
		enc.emit(tam.LOADA, 0, enc.displayRegister(f.Level, ent.Address.Level), 0)
		enc.emit(tam.LOADA, 0, tam.CB, ent.Address.Displacement)
	case UnknownRoutine:
		enc.emit(tam.LOAD, tam.ClosureSize, enc.displayRegister(f.Level, ent.Address.Level), ent.Address.Displacement)
	case PrimitiveRoutine:
		enc.emit(tam.LOADA, 0, tam.SB, 0)
		enc.emit(tam.LOADA, 0, tam.PB, ent.Displacement)
	default:
		panic(fmt.Sprintf("codegen: %T cannot be passed as a routine", ent))
	}
}

//  Value-or-variable names

// location is where a vname lives relative to its base entity: a static
// offset, plus a run-time index already pushed if indexed is set.
type location struct {
	base    Entity
	offset  int
	indexed bool
}

func (enc *Encoder) locate(v ast.Vname, f Frame) location {
	switch v := v.(type) {
	case *ast.SimpleVname:
		return location{base: enc.entities[enc.info.Uses[v.Name]]}

	case *ast.DotVname:
		loc := enc.locate(v.V, f)
		rt := enc.info.TypeOf(v.V)
		if _, i, ok := rt.Field(v.Field.Spelling); ok {
			loc.offset += rt.FieldOffset(i)
		}
		return loc

	case *ast.SubscriptVname:
		loc := enc.locate(v.V, f)
		elemSize := enc.size(v)
		if lit, ok := enc.info.Expr(v.Index).(*ast.IntegerExpression); ok {
			n, _ := lit.Literal.Value()
			loc.offset += n * elemSize
			return loc
		}
		g := f
		if loc.indexed {
			g = f.Expand(tam.IntegerSize)
		}
		enc.expr(v.Index, g)
		if elemSize != 1 {
			enc.emit(tam.LOADL, 0, 0, elemSize)
			enc.emit(tam.CALL, int(tam.SB), tam.PB, tam.PrimMult)
		}
		if loc.indexed {
			enc.emit(tam.CALL, int(tam.SB), tam.PB, tam.PrimAdd)
		}
		loc.indexed = true
		return loc
	}
	panic(fmt.Sprintf("codegen: unexpected vname %T", v))
}

func (enc *Encoder) checkLoadSize(valSize int) {
	if valSize > maxLoadSize {
		enc.restrictionf("can't load values larger than %d words", maxLoadSize)
	}
}

// fetch pushes the value of v.
func (enc *Encoder) fetch(v ast.Vname, f Frame, valSize int) {
	loc := enc.locate(v, f)
	enc.checkLoadSize(valSize)
	switch base := loc.base.(type) {
	case KnownValue:
		enc.emit(tam.LOADL, 0, 0, base.Value)
	case UnknownValue:
		enc.fetchDirect(base.Address, loc, f, valSize)
	case KnownAddress:
		enc.fetchDirect(base.Address, loc, f, valSize)
	case UnknownAddress:
		enc.indirectAddress(base.Address, loc, f)
		enc.emit(tam.LOADI, valSize, 0, 0)
	default:
		panic(fmt.Sprintf("codegen: cannot fetch %T", base))
	}
}

func (enc *Encoder) fetchDirect(addr ObjectAddress, loc location, f Frame, valSize int) {
	reg := enc.displayRegister(f.Level, addr.Level)
	if loc.indexed {
		enc.emit(tam.LOADA, 0, reg, addr.Displacement+loc.offset)
		enc.emit(tam.CALL, int(tam.SB), tam.PB, tam.PrimAdd)
		enc.emit(tam.LOADI, valSize, 0, 0)
		return
	}
	enc.emit(tam.LOAD, valSize, reg, addr.Displacement+loc.offset)
}

// indirectAddress pushes the address held in a var parameter's slot,
// adjusted by loc.
func (enc *Encoder) indirectAddress(addr ObjectAddress, loc location, f Frame) {
	enc.emit(tam.LOAD, tam.AddressSize, enc.displayRegister(f.Level, addr.Level), addr.Displacement)
	if loc.indexed {
		enc.emit(tam.CALL, int(tam.SB), tam.PB, tam.PrimAdd)
	}
	if loc.offset != 0 {
		enc.emit(tam.LOADL, 0, 0, loc.offset)
		enc.emit(tam.CALL, int(tam.SB), tam.PB, tam.PrimAdd)
	}
}

// store pops a value of valSize words into v. f already counts the value.
func (enc *Encoder) store(v ast.Vname, f Frame, valSize int) {
	loc := enc.locate(v, f)
	enc.checkLoadSize(valSize)
	switch base := loc.base.(type) {
	case KnownAddress:
		reg := enc.displayRegister(f.Level, base.Address.Level)
		if loc.indexed {
			enc.emit(tam.LOADA, 0, reg, base.Address.Displacement+loc.offset)
			enc.emit(tam.CALL, int(tam.SB), tam.PB, tam.PrimAdd)
			enc.emit(tam.STOREI, valSize, 0, 0)
			return
		}
		enc.emit(tam.STORE, valSize, reg, base.Address.Displacement+loc.offset)
	case UnknownAddress:
		enc.indirectAddress(base.Address, loc, f)
		enc.emit(tam.STOREI, valSize, 0, 0)
	default:
		panic(fmt.Sprintf("codegen: cannot store into %T", base))
	}
}

// fetchAddress pushes the address of v.
func (enc *Encoder) fetchAddress(v ast.Vname, f Frame) {
	loc := enc.locate(v, f)
	switch base := loc.base.(type) {
	case KnownAddress:
		enc.emit(tam.LOADA, 0, enc.displayRegister(f.Level, base.Address.Level), base.Address.Displacement+loc.offset)
		if loc.indexed {
			enc.emit(tam.CALL, int(tam.SB), tam.PB, tam.PrimAdd)
		}
	case UnknownAddress:
		enc.indirectAddress(base.Address, loc, f)
	default:
		panic(fmt.Sprintf("codegen: cannot take the address of %T", base))
	}
}
