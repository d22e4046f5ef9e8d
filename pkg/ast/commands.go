package ast

import "fmt"

// Command is implemented by every statement node.
type Command interface {
	Node
	commandNode()
}

// AssignCommand is V := E.
type AssignCommand struct {
	V   Vname
	E   Expression
	Pos Pos
}

func (*AssignCommand) commandNode()     {}
func (c *AssignCommand) Position() Pos  { return c.Pos }
func (c *AssignCommand) String() string { return fmt.Sprintf("(:= %s %s)", c.V, c.E) }

// CallCommand is a procedure call I(APS).
type CallCommand struct {
	Name    *Identifier
	Actuals ActualParameterSequence
	Pos     Pos
}

func (*CallCommand) commandNode()    {}
func (c *CallCommand) Position() Pos { return c.Pos }
func (c *CallCommand) String() string {
	return fmt.Sprintf("(call %s %s)", c.Name, c.Actuals)
}

// IfCommand is if E then C1 else C2.
type IfCommand struct {
	E      Expression
	C1, C2 Command
	Pos    Pos
}

func (*IfCommand) commandNode()    {}
func (c *IfCommand) Position() Pos { return c.Pos }
func (c *IfCommand) String() string {
	return fmt.Sprintf("(if %s %s %s)", c.E, c.C1, c.C2)
}

// LetCommand is let D in C.
type LetCommand struct {
	D   Declaration
	C   Command
	Pos Pos
}

func (*LetCommand) commandNode()     {}
func (c *LetCommand) Position() Pos  { return c.Pos }
func (c *LetCommand) String() string { return fmt.Sprintf("(let %s %s)", c.D, c.C) }

// WhileCommand is while E do C.
type WhileCommand struct {
	E   Expression
	C   Command
	Pos Pos
}

func (*WhileCommand) commandNode()     {}
func (c *WhileCommand) Position() Pos  { return c.Pos }
func (c *WhileCommand) String() string { return fmt.Sprintf("(while %s %s)", c.E, c.C) }

// LoopWhileCommand is do C1 while E do C2: C1 runs at least once, the loop
// exits when E is false, otherwise C2 runs and the loop repeats.
type LoopWhileCommand struct {
	C1  Command
	E   Expression
	C2  Command
	Pos Pos
}

func (*LoopWhileCommand) commandNode()    {}
func (c *LoopWhileCommand) Position() Pos { return c.Pos }
func (c *LoopWhileCommand) String() string {
	return fmt.Sprintf("(do %s while %s %s)", c.C1, c.E, c.C2)
}

// SequentialCommand is C1 ; C2.
type SequentialCommand struct {
	C1, C2 Command
	Pos    Pos
}

func (*SequentialCommand) commandNode()     {}
func (c *SequentialCommand) Position() Pos  { return c.Pos }
func (c *SequentialCommand) String() string { return fmt.Sprintf("(; %s %s)", c.C1, c.C2) }

// EmptyCommand does nothing.
type EmptyCommand struct {
	Pos Pos
}

func (*EmptyCommand) commandNode()     {}
func (c *EmptyCommand) Position() Pos  { return c.Pos }
func (c *EmptyCommand) String() string { return "(skip)" }
