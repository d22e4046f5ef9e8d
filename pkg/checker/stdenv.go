package checker

import "gotam/pkg/ast"

// StdEnvironment holds the predeclared entities of one compilation. It is
// built afresh for every run so that side tables keyed by its nodes never
// leak between compilations.
type StdEnvironment struct {
	BooleanDecl, CharDecl, IntegerDecl *ast.TypeDeclaration

	FalseDecl, TrueDecl, MaxintDecl *ast.ConstDeclaration

	NotDecl *ast.UnaryOperatorDeclaration

	AndDecl, OrDecl                     *ast.BinaryOperatorDeclaration
	EqualDecl, UnequalDecl              *ast.BinaryOperatorDeclaration
	LessDecl, NotGreaterDecl            *ast.BinaryOperatorDeclaration
	GreaterDecl, NotLessDecl            *ast.BinaryOperatorDeclaration
	AddDecl, SubtractDecl, MultiplyDecl *ast.BinaryOperatorDeclaration
	DivideDecl, ModuloDecl              *ast.BinaryOperatorDeclaration

	ChrDecl, OrdDecl, EofDecl, EolDecl *ast.FuncDeclaration

	GetDecl, PutDecl, GetintDecl, PutintDecl, GeteolDecl, PuteolDecl *ast.ProcDeclaration

	// Decls lists everything above in the order it is entered.
	Decls []ast.Declaration
}

func NewStdEnvironment() *StdEnvironment {
	std := &StdEnvironment{}
	var (
		boolT = func() ast.TypeDenoter { return &ast.BoolTypeDenoter{} }
		intT  = func() ast.TypeDenoter { return &ast.IntTypeDenoter{} }
		charT = func() ast.TypeDenoter { return &ast.CharTypeDenoter{} }
		anyT  = func() ast.TypeDenoter { return &ast.AnyTypeDenoter{} }
	)
	id := func(s string) *ast.Identifier { return &ast.Identifier{Spelling: s} }
	op := func(s string) *ast.Operator { return &ast.Operator{Spelling: s} }
	typ := func(name string, t ast.TypeDenoter) *ast.TypeDeclaration {
		d := &ast.TypeDeclaration{Name: id(name), T: t}
		std.Decls = append(std.Decls, d)
		return d
	}
	cnst := func(name string) *ast.ConstDeclaration {
		d := &ast.ConstDeclaration{Name: id(name), E: &ast.EmptyExpression{}}
		std.Decls = append(std.Decls, d)
		return d
	}
	binop := func(sym string, a1, a2, res ast.TypeDenoter) *ast.BinaryOperatorDeclaration {
		d := &ast.BinaryOperatorDeclaration{Op: op(sym), Arg1: a1, Arg2: a2, Result: res}
		std.Decls = append(std.Decls, d)
		return d
	}
	fn := func(name string, fps ast.FormalParameterSequence, res ast.TypeDenoter) *ast.FuncDeclaration {
		d := &ast.FuncDeclaration{Name: id(name), Formals: fps, T: res, E: &ast.EmptyExpression{}}
		std.Decls = append(std.Decls, d)
		return d
	}
	proc := func(name string, fps ast.FormalParameterSequence) *ast.ProcDeclaration {
		d := &ast.ProcDeclaration{Name: id(name), Formals: fps, C: &ast.EmptyCommand{}}
		std.Decls = append(std.Decls, d)
		return d
	}
	constParam := func(name string, t ast.TypeDenoter) ast.FormalParameterSequence {
		return ast.FormalParameterSequence{&ast.ConstFormalParameter{Name: id(name), T: t}}
	}
	varParam := func(name string, t ast.TypeDenoter) ast.FormalParameterSequence {
		return ast.FormalParameterSequence{&ast.VarFormalParameter{Name: id(name), T: t}}
	}

	std.BooleanDecl = typ("Boolean", boolT())
	std.FalseDecl = cnst("false")
	std.TrueDecl = cnst("true")
	std.NotDecl = &ast.UnaryOperatorDeclaration{Op: op(`\`), Arg: boolT(), Result: boolT()}
	std.Decls = append(std.Decls, std.NotDecl)
	std.AndDecl = binop(`/\`, boolT(), boolT(), boolT())
	std.OrDecl = binop(`\/`, boolT(), boolT(), boolT())

	std.IntegerDecl = typ("Integer", intT())
	std.MaxintDecl = cnst("maxint")
	std.AddDecl = binop("+", intT(), intT(), intT())
	std.SubtractDecl = binop("-", intT(), intT(), intT())
	std.MultiplyDecl = binop("*", intT(), intT(), intT())
	std.DivideDecl = binop("/", intT(), intT(), intT())
	std.ModuloDecl = binop("//", intT(), intT(), intT())
	std.LessDecl = binop("<", intT(), intT(), boolT())
	std.NotGreaterDecl = binop("<=", intT(), intT(), boolT())
	std.GreaterDecl = binop(">", intT(), intT(), boolT())
	std.NotLessDecl = binop(">=", intT(), intT(), boolT())

	std.CharDecl = typ("Char", charT())
	std.ChrDecl = fn("chr", constParam("i", intT()), charT())
	std.OrdDecl = fn("ord", constParam("c", charT()), intT())
	std.EofDecl = fn("eof", ast.FormalParameterSequence{}, boolT())
	std.EolDecl = fn("eol", ast.FormalParameterSequence{}, boolT())
	std.GetDecl = proc("get", varParam("c", charT()))
	std.PutDecl = proc("put", constParam("c", charT()))
	std.GetintDecl = proc("getint", varParam("i", intT()))
	std.PutintDecl = proc("putint", constParam("i", intT()))
	std.GeteolDecl = proc("geteol", ast.FormalParameterSequence{})
	std.PuteolDecl = proc("puteol", ast.FormalParameterSequence{})

	std.EqualDecl = binop("=", anyT(), anyT(), boolT())
	std.UnequalDecl = binop(`\=`, anyT(), anyT(), boolT())
	return std
}

// IsStd reports whether d belongs to the standard environment.
func (std *StdEnvironment) IsStd(d ast.Declaration) bool {
	for _, s := range std.Decls {
		if s == d {
			return true
		}
	}
	return false
}
