package ast

import "fmt"

// A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children of
// node with the visitor w.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses the tree rooted at node in depth-first order, the same
// contract as go/ast.Walk. Terminals (identifiers, operators and literals)
// are visited too. Sequences and aggregates are walked element by element;
// FieldInit and FieldDenoter are not nodes themselves.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		Walk(v, n.Command)

	case *Identifier, *Operator, *IntegerLiteral, *CharacterLiteral:
		// leaves

	// Expressions
	case *BinaryExpression:
		Walk(v, n.E1)
		Walk(v, n.Op)
		Walk(v, n.E2)
	case *UnaryExpression:
		Walk(v, n.Op)
		Walk(v, n.E)
	case *CallExpression:
		Walk(v, n.Name)
		walkActuals(v, n.Actuals)
	case *IfExpression:
		Walk(v, n.E1)
		Walk(v, n.E2)
		Walk(v, n.E3)
	case *LetExpression:
		Walk(v, n.D)
		Walk(v, n.E)
	case *VnameExpression:
		Walk(v, n.V)
	case *ArrayExpression:
		Walk(v, n.Aggregate)
	case *RecordExpression:
		Walk(v, n.Aggregate)
	case *IntegerExpression:
		Walk(v, n.Literal)
	case *CharacterExpression:
		Walk(v, n.Literal)
	case *EmptyExpression:
	case *ArrayAggregate:
		for _, e := range n.Elements {
			Walk(v, e)
		}
	case *RecordAggregate:
		for _, f := range n.Fields {
			Walk(v, f.Name)
			Walk(v, f.Value)
		}

	// Commands
	case *AssignCommand:
		Walk(v, n.V)
		Walk(v, n.E)
	case *CallCommand:
		Walk(v, n.Name)
		walkActuals(v, n.Actuals)
	case *IfCommand:
		Walk(v, n.E)
		Walk(v, n.C1)
		Walk(v, n.C2)
	case *LetCommand:
		Walk(v, n.D)
		Walk(v, n.C)
	case *WhileCommand:
		Walk(v, n.E)
		Walk(v, n.C)
	case *LoopWhileCommand:
		Walk(v, n.C1)
		Walk(v, n.E)
		Walk(v, n.C2)
	case *SequentialCommand:
		Walk(v, n.C1)
		Walk(v, n.C2)
	case *EmptyCommand:

	// Declarations
	case *ConstDeclaration:
		Walk(v, n.Name)
		Walk(v, n.E)
	case *VarDeclaration:
		Walk(v, n.Name)
		Walk(v, n.T)
	case *FuncDeclaration:
		Walk(v, n.Name)
		walkFormals(v, n.Formals)
		Walk(v, n.T)
		Walk(v, n.E)
	case *ProcDeclaration:
		Walk(v, n.Name)
		walkFormals(v, n.Formals)
		Walk(v, n.C)
	case *TypeDeclaration:
		Walk(v, n.Name)
		Walk(v, n.T)
	case *BinaryOperatorDeclaration:
		Walk(v, n.Op)
		Walk(v, n.Arg1)
		Walk(v, n.Arg2)
		Walk(v, n.Result)
	case *UnaryOperatorDeclaration:
		Walk(v, n.Op)
		Walk(v, n.Arg)
		Walk(v, n.Result)
	case *SequentialDeclaration:
		Walk(v, n.D1)
		Walk(v, n.D2)

	// Parameters
	case *ConstFormalParameter:
		Walk(v, n.Name)
		Walk(v, n.T)
	case *VarFormalParameter:
		Walk(v, n.Name)
		Walk(v, n.T)
	case *ProcFormalParameter:
		Walk(v, n.Name)
		walkFormals(v, n.Formals)
	case *FuncFormalParameter:
		Walk(v, n.Name)
		walkFormals(v, n.Formals)
		Walk(v, n.T)
	case *ConstActualParameter:
		Walk(v, n.E)
	case *VarActualParameter:
		Walk(v, n.V)
	case *ProcActualParameter:
		Walk(v, n.Name)
	case *FuncActualParameter:
		Walk(v, n.Name)

	// Types
	case *SimpleTypeDenoter:
		Walk(v, n.Name)
	case *ArrayTypeDenoter:
		Walk(v, n.Size)
		Walk(v, n.T)
	case *RecordTypeDenoter:
		for _, f := range n.Fields {
			Walk(v, f.Name)
			Walk(v, f.T)
		}
	case *IntTypeDenoter, *BoolTypeDenoter, *CharTypeDenoter, *AnyTypeDenoter, *ErrorTypeDenoter:

	// Vnames
	case *SimpleVname:
		Walk(v, n.Name)
	case *DotVname:
		Walk(v, n.V)
		Walk(v, n.Field)
	case *SubscriptVname:
		Walk(v, n.V)
		Walk(v, n.Index)

	default:
		panic(fmt.Sprintf("ast.Walk: unexpected node type %T", n))
	}

	v.Visit(nil)
}

func walkActuals(v Visitor, aps ActualParameterSequence) {
	for _, a := range aps {
		Walk(v, a)
	}
}

func walkFormals(v Visitor, fps FormalParameterSequence) {
	for _, f := range fps {
		Walk(v, f)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses the tree in depth-first order, calling f for each node
// and then f(nil) after its children. If f returns false, the children are
// skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
