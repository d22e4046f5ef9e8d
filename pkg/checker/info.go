package checker

import (
	"gotam/pkg/ast"
	"gotam/pkg/types"
)

// Info holds everything the later passes need to know about a checked
// program. The tree itself is never modified; Info is keyed by node.
type Info struct {
	// Types maps expressions, vnames and type denoters to their types, and
	// declarations to the type of the entity they declare (the result type
	// for functions).
	Types map[ast.Node]*types.Type

	// Uses maps every applied identifier to its declaration.
	Uses map[*ast.Identifier]ast.Declaration

	// Operators maps every applied operator to its declaration.
	Operators map[*ast.Operator]ast.Declaration

	// Variables records the vnames that denote assignable locations.
	Variables map[ast.Vname]bool

	// Levels holds the scope level at which each declaration was entered.
	// This is the nesting depth of let blocks and routines seen by the
	// identification table, not the frame level: a let block opens a scope
	// but no frame. Storage addressing uses the frame levels computed by
	// codegen.
	Levels map[ast.Declaration]int

	// Folded maps an expression to the literal that replaces it. Written by
	// the constant folder.
	Folded map[ast.Expression]ast.Expression

	Std *StdEnvironment
}

func newInfo(std *StdEnvironment) *Info {
	return &Info{
		Types:     make(map[ast.Node]*types.Type),
		Uses:      make(map[*ast.Identifier]ast.Declaration),
		Operators: make(map[*ast.Operator]ast.Declaration),
		Variables: make(map[ast.Vname]bool),
		Levels:    make(map[ast.Declaration]int),
		Folded:    make(map[ast.Expression]ast.Expression),
		Std:       std,
	}
}

// TypeOf returns the recorded type of n, or types.Error if there is none.
func (info *Info) TypeOf(n ast.Node) *types.Type {
	if t, ok := info.Types[n]; ok && t != nil {
		return t
	}
	return types.Error
}

// Expr returns e as later passes see it: its folded replacement if it has
// one.
func (info *Info) Expr(e ast.Expression) ast.Expression {
	for {
		r, ok := info.Folded[e]
		if !ok {
			return e
		}
		e = r
	}
}

// Formals returns the parameter list of a routine declaration, or false if
// d is not a routine.
func Formals(d ast.Declaration) (ast.FormalParameterSequence, bool) {
	switch d := d.(type) {
	case *ast.ProcDeclaration:
		return d.Formals, true
	case *ast.FuncDeclaration:
		return d.Formals, true
	case *ast.ProcFormalParameter:
		return d.Formals, true
	case *ast.FuncFormalParameter:
		return d.Formals, true
	}
	return nil, false
}
