// Package optimizer holds the passes that run between checking and code
// generation: constant folding and literal statistics.
package optimizer

import (
	"gotam/pkg/ast"
	"gotam/pkg/checker"
	"gotam/pkg/diag"
	"gotam/pkg/tam"
	"gotam/pkg/types"
)

// constant is a compile-time value of a scalar type.
type constant struct {
	t *types.Type
	v int
}

// Folder rewrites operator and if-expressions whose operands are literals.
// Rewrites are recorded in info.Folded; the tree itself is not touched.
type Folder struct {
	info     *checker.Info
	reporter *diag.Reporter
	count    int
}

// NewFolder returns a folder over info. If reporter is not nil, constant
// divisions by zero are reported to it as warnings.
func NewFolder(info *checker.Info, reporter *diag.Reporter) *Folder {
	return &Folder{info: info, reporter: reporter}
}

// Fold folds prog in one bottom-up sweep and returns the number of
// expressions replaced. Folding an already folded program replaces nothing.
func Fold(prog *ast.Program, info *checker.Info) int {
	return NewFolder(info, nil).Fold(prog)
}

func (f *Folder) Fold(prog *ast.Program) int {
	f.count = 0
	f.command(prog.Command)
	return f.count
}

func (f *Folder) command(c ast.Command) {
	switch c := c.(type) {
	case *ast.AssignCommand:
		f.vname(c.V)
		f.expr(c.E)
	case *ast.CallCommand:
		f.actuals(c.Actuals)
	case *ast.IfCommand:
		f.expr(c.E)
		f.command(c.C1)
		f.command(c.C2)
	case *ast.LetCommand:
		f.declaration(c.D)
		f.command(c.C)
	case *ast.WhileCommand:
		f.expr(c.E)
		f.command(c.C)
	case *ast.LoopWhileCommand:
		f.command(c.C1)
		f.expr(c.E)
		f.command(c.C2)
	case *ast.SequentialCommand:
		f.command(c.C1)
		f.command(c.C2)
	}
}

func (f *Folder) declaration(d ast.Declaration) {
	switch d := d.(type) {
	case *ast.ConstDeclaration:
		f.expr(d.E)
	case *ast.FuncDeclaration:
		f.expr(d.E)
	case *ast.ProcDeclaration:
		f.command(d.C)
	case *ast.SequentialDeclaration:
		f.declaration(d.D1)
		f.declaration(d.D2)
	}
}

func (f *Folder) actuals(aps ast.ActualParameterSequence) {
	for _, ap := range aps {
		switch ap := ap.(type) {
		case *ast.ConstActualParameter:
			f.expr(ap.E)
		case *ast.VarActualParameter:
			f.vname(ap.V)
		}
	}
}

func (f *Folder) vname(v ast.Vname) {
	switch v := v.(type) {
	case *ast.DotVname:
		f.vname(v.V)
	case *ast.SubscriptVname:
		f.vname(v.V)
		f.expr(v.Index)
	}
}

// expr folds the children of e and then e itself.
func (f *Folder) expr(e ast.Expression) {
	switch e := e.(type) {
	case *ast.BinaryExpression:
		f.expr(e.E1)
		f.expr(e.E2)
		f.foldBinary(e)
	case *ast.UnaryExpression:
		f.expr(e.E)
		f.foldUnary(e)
	case *ast.CallExpression:
		f.actuals(e.Actuals)
	case *ast.IfExpression:
		f.expr(e.E1)
		f.expr(e.E2)
		f.expr(e.E3)
		f.foldIf(e)
	case *ast.LetExpression:
		f.declaration(e.D)
		f.expr(e.E)
	case *ast.VnameExpression:
		f.vname(e.V)
	case *ast.ArrayExpression:
		for _, el := range e.Aggregate.Elements {
			f.expr(el)
		}
	case *ast.RecordExpression:
		for _, fi := range e.Aggregate.Fields {
			f.expr(fi.Value)
		}
	}
}

// value returns the constant e denotes after folding, if it is a literal.
func (f *Folder) value(e ast.Expression) (constant, bool) {
	switch e := f.info.Expr(e).(type) {
	case *ast.IntegerExpression:
		v, ok := e.Literal.Value()
		if !ok || v > tam.MaxInt || v < -tam.MaxInt {
			return constant{}, false
		}
		return constant{types.Int, v}, true
	case *ast.CharacterExpression:
		return constant{types.Char, int(e.Literal.Value())}, true
	case *ast.VnameExpression:
		sv, ok := e.V.(*ast.SimpleVname)
		if !ok {
			return constant{}, false
		}
		switch f.info.Uses[sv.Name] {
		case f.info.Std.TrueDecl:
			return constant{types.Bool, tam.TrueRep}, true
		case f.info.Std.FalseDecl:
			return constant{types.Bool, tam.FalseRep}, true
		}
	}
	return constant{}, false
}

func (f *Folder) foldBinary(e *ast.BinaryExpression) {
	if _, done := f.info.Folded[e]; done {
		return
	}
	a, ok := f.value(e.E1)
	if !ok {
		return
	}
	b, ok := f.value(e.E2)
	if !ok {
		return
	}

	std := f.info.Std
	var r constant
	switch f.info.Operators[e.Op] {
	case std.AddDecl:
		r = constant{types.Int, a.v + b.v}
	case std.SubtractDecl:
		r = constant{types.Int, a.v - b.v}
	case std.MultiplyDecl:
		r = constant{types.Int, a.v * b.v}
	case std.DivideDecl:
		if b.v == 0 {
			f.zeroDivide(e)
			return
		}
		r = constant{types.Int, a.v / b.v}
	case std.ModuloDecl:
		if b.v == 0 {
			f.zeroDivide(e)
			return
		}
		r = constant{types.Int, a.v % b.v}
	case std.LessDecl:
		r = boolConst(a.v < b.v)
	case std.NotGreaterDecl:
		r = boolConst(a.v <= b.v)
	case std.GreaterDecl:
		r = boolConst(a.v > b.v)
	case std.NotLessDecl:
		r = boolConst(a.v >= b.v)
	case std.EqualDecl:
		r = boolConst(a.v == b.v)
	case std.UnequalDecl:
		r = boolConst(a.v != b.v)
	case std.AndDecl:
		r = boolConst(a.v != tam.FalseRep && b.v != tam.FalseRep)
	case std.OrDecl:
		r = boolConst(a.v != tam.FalseRep || b.v != tam.FalseRep)
	default:
		return
	}
	f.replace(e, r)
}

// zeroDivide leaves e unfolded; the machine reports the failure if e is
// ever evaluated.
func (f *Folder) zeroDivide(e *ast.BinaryExpression) {
	if f.reporter != nil {
		f.reporter.Warnf(e.Position(), "division by zero in %s is left for run time", e)
	}
}

func (f *Folder) foldUnary(e *ast.UnaryExpression) {
	if _, done := f.info.Folded[e]; done {
		return
	}
	a, ok := f.value(e.E)
	if !ok || f.info.Operators[e.Op] != f.info.Std.NotDecl {
		return
	}
	f.replace(e, boolConst(a.v == tam.FalseRep))
}

// foldIf replaces an if-expression with a literal condition by the chosen
// limb.
func (f *Folder) foldIf(e *ast.IfExpression) {
	if _, done := f.info.Folded[e]; done {
		return
	}
	cond, ok := f.value(e.E1)
	if !ok {
		return
	}
	limb := e.E3
	if cond.v != tam.FalseRep {
		limb = e.E2
	}
	f.info.Folded[e] = f.info.Expr(limb)
	f.count++
}

func boolConst(b bool) constant {
	if b {
		return constant{types.Bool, tam.TrueRep}
	}
	return constant{types.Bool, tam.FalseRep}
}

// replace records a literal for e. Integer results that the machine could
// not represent are left for the program to fail on at run time.
func (f *Folder) replace(e ast.Expression, r constant) {
	if r.v > tam.MaxInt || r.v < -tam.MaxInt {
		return
	}
	pos := e.Position()
	var lit ast.Expression
	switch r.t {
	case types.Int:
		lit = &ast.IntegerExpression{Literal: ast.IntLit(r.v, pos), Pos: pos}
	case types.Bool:
		decl, name := f.info.Std.FalseDecl, "false"
		if r.v != tam.FalseRep {
			decl, name = f.info.Std.TrueDecl, "true"
		}
		id := &ast.Identifier{Spelling: name, Pos: pos}
		v := &ast.SimpleVname{Name: id, Pos: pos}
		f.info.Uses[id] = decl
		f.info.Types[v] = types.Bool
		f.info.Variables[v] = false
		lit = &ast.VnameExpression{V: v, Pos: pos}
	default:
		return
	}
	f.info.Types[lit] = f.info.TypeOf(e)
	f.info.Folded[e] = lit
	f.count++
}
