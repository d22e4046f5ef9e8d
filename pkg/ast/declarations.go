package ast

import (
	"fmt"
	"strings"
)

// Declaration is implemented by every node that binds a name. Formal
// parameters are declarations too.
type Declaration interface {
	Node
	declNode()
}

// ConstDeclaration is const I ~ E.
type ConstDeclaration struct {
	Name *Identifier
	E    Expression
	Pos  Pos
}

func (*ConstDeclaration) declNode()        {}
func (d *ConstDeclaration) Position() Pos  { return d.Pos }
func (d *ConstDeclaration) String() string { return fmt.Sprintf("(const %s %s)", d.Name, d.E) }

// VarDeclaration is var I : T.
type VarDeclaration struct {
	Name *Identifier
	T    TypeDenoter
	Pos  Pos
}

func (*VarDeclaration) declNode()        {}
func (d *VarDeclaration) Position() Pos  { return d.Pos }
func (d *VarDeclaration) String() string { return fmt.Sprintf("(var %s %s)", d.Name, d.T) }

// FuncDeclaration is func I (FPS) : T ~ E.
type FuncDeclaration struct {
	Name    *Identifier
	Formals FormalParameterSequence
	T       TypeDenoter
	E       Expression
	Pos     Pos
}

func (*FuncDeclaration) declNode()       {}
func (d *FuncDeclaration) Position() Pos { return d.Pos }
func (d *FuncDeclaration) String() string {
	return fmt.Sprintf("(func %s %s %s %s)", d.Name, d.Formals, d.T, d.E)
}

// ProcDeclaration is proc I (FPS) ~ C.
type ProcDeclaration struct {
	Name    *Identifier
	Formals FormalParameterSequence
	C       Command
	Pos     Pos
}

func (*ProcDeclaration) declNode()       {}
func (d *ProcDeclaration) Position() Pos { return d.Pos }
func (d *ProcDeclaration) String() string {
	return fmt.Sprintf("(proc %s %s %s)", d.Name, d.Formals, d.C)
}

// TypeDeclaration is type I ~ T.
type TypeDeclaration struct {
	Name *Identifier
	T    TypeDenoter
	Pos  Pos
}

func (*TypeDeclaration) declNode()        {}
func (d *TypeDeclaration) Position() Pos  { return d.Pos }
func (d *TypeDeclaration) String() string { return fmt.Sprintf("(type %s %s)", d.Name, d.T) }

// BinaryOperatorDeclaration declares an infix operator. Only the standard
// environment declares operators.
type BinaryOperatorDeclaration struct {
	Op     *Operator
	Arg1   TypeDenoter
	Arg2   TypeDenoter
	Result TypeDenoter
	Pos    Pos
}

func (*BinaryOperatorDeclaration) declNode()       {}
func (d *BinaryOperatorDeclaration) Position() Pos { return d.Pos }
func (d *BinaryOperatorDeclaration) String() string {
	return fmt.Sprintf("(binop %s %s %s %s)", d.Op, d.Arg1, d.Arg2, d.Result)
}

// UnaryOperatorDeclaration declares a prefix operator.
type UnaryOperatorDeclaration struct {
	Op     *Operator
	Arg    TypeDenoter
	Result TypeDenoter
	Pos    Pos
}

func (*UnaryOperatorDeclaration) declNode()       {}
func (d *UnaryOperatorDeclaration) Position() Pos { return d.Pos }
func (d *UnaryOperatorDeclaration) String() string {
	return fmt.Sprintf("(unop %s %s %s)", d.Op, d.Arg, d.Result)
}

// SequentialDeclaration is D1 ; D2. D2 is in the scope of D1.
type SequentialDeclaration struct {
	D1, D2 Declaration
	Pos    Pos
}

func (*SequentialDeclaration) declNode()        {}
func (d *SequentialDeclaration) Position() Pos  { return d.Pos }
func (d *SequentialDeclaration) String() string { return fmt.Sprintf("(; %s %s)", d.D1, d.D2) }

//  Formal parameters

// FormalParameter is a declaration introduced by a routine heading.
type FormalParameter interface {
	Declaration
	formalNode()
}

// ConstFormalParameter is I : T, passed by value.
type ConstFormalParameter struct {
	Name *Identifier
	T    TypeDenoter
	Pos  Pos
}

func (*ConstFormalParameter) declNode()        {}
func (*ConstFormalParameter) formalNode()      {}
func (f *ConstFormalParameter) Position() Pos  { return f.Pos }
func (f *ConstFormalParameter) String() string { return fmt.Sprintf("%s: %s", f.Name, f.T) }

// VarFormalParameter is var I : T, passed by reference.
type VarFormalParameter struct {
	Name *Identifier
	T    TypeDenoter
	Pos  Pos
}

func (*VarFormalParameter) declNode()        {}
func (*VarFormalParameter) formalNode()      {}
func (f *VarFormalParameter) Position() Pos  { return f.Pos }
func (f *VarFormalParameter) String() string { return fmt.Sprintf("var %s: %s", f.Name, f.T) }

// ProcFormalParameter is proc I (FPS), passed as a closure.
type ProcFormalParameter struct {
	Name    *Identifier
	Formals FormalParameterSequence
	Pos     Pos
}

func (*ProcFormalParameter) declNode()       {}
func (*ProcFormalParameter) formalNode()     {}
func (f *ProcFormalParameter) Position() Pos { return f.Pos }
func (f *ProcFormalParameter) String() string {
	return fmt.Sprintf("proc %s%s", f.Name, f.Formals)
}

// FuncFormalParameter is func I (FPS) : T, passed as a closure.
type FuncFormalParameter struct {
	Name    *Identifier
	Formals FormalParameterSequence
	T       TypeDenoter
	Pos     Pos
}

func (*FuncFormalParameter) declNode()       {}
func (*FuncFormalParameter) formalNode()     {}
func (f *FuncFormalParameter) Position() Pos { return f.Pos }
func (f *FuncFormalParameter) String() string {
	return fmt.Sprintf("func %s%s: %s", f.Name, f.Formals, f.T)
}

// FormalParameterSequence is the parameter list of a routine heading.
type FormalParameterSequence []FormalParameter

func (s FormalParameterSequence) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

//  Actual parameters

// ActualParameter is one argument of a call.
type ActualParameter interface {
	Node
	actualNode()
}

// ConstActualParameter passes the value of E.
type ConstActualParameter struct {
	E   Expression
	Pos Pos
}

func (*ConstActualParameter) actualNode()      {}
func (a *ConstActualParameter) Position() Pos  { return a.Pos }
func (a *ConstActualParameter) String() string { return a.E.String() }

// VarActualParameter passes the address of V.
type VarActualParameter struct {
	V   Vname
	Pos Pos
}

func (*VarActualParameter) actualNode()      {}
func (a *VarActualParameter) Position() Pos  { return a.Pos }
func (a *VarActualParameter) String() string { return "var " + a.V.String() }

// ProcActualParameter passes procedure I as a closure.
type ProcActualParameter struct {
	Name *Identifier
	Pos  Pos
}

func (*ProcActualParameter) actualNode()      {}
func (a *ProcActualParameter) Position() Pos  { return a.Pos }
func (a *ProcActualParameter) String() string { return "proc " + a.Name.String() }

// FuncActualParameter passes function I as a closure.
type FuncActualParameter struct {
	Name *Identifier
	Pos  Pos
}

func (*FuncActualParameter) actualNode()      {}
func (a *FuncActualParameter) Position() Pos  { return a.Pos }
func (a *FuncActualParameter) String() string { return "func " + a.Name.String() }

// ActualParameterSequence is the argument list of a call.
type ActualParameterSequence []ActualParameter

func (s ActualParameterSequence) String() string {
	parts := make([]string, len(s))
	for i, a := range s {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
