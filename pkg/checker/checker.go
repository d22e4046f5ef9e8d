// Package checker performs contextual analysis: it resolves every applied
// identifier and operator to its declaration and infers a type for every
// expression, reporting violations of the scope and type rules.
package checker

import (
	"fmt"
	"sort"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"gotam/pkg/ast"
	"gotam/pkg/diag"
	"gotam/pkg/tam"
	"gotam/pkg/types"
)

// Checker walks a program once. Every failed check reports one diagnostic
// and substitutes types.Error so that the walk carries on; types.Error is
// compatible with everything, so it never produces a second diagnostic.
type Checker struct {
	reporter *diag.Reporter
	table    *IdentificationTable
	info     *Info
}

// Check analyses prog with a fresh standard environment and returns the
// side tables. Diagnostics go to reporter.
func Check(prog *ast.Program, reporter *diag.Reporter) *Info {
	std := NewStdEnvironment()
	c := &Checker{
		reporter: reporter,
		table:    NewIdentificationTable(),
		info:     newInfo(std),
	}
	c.declareStdEnvironment()
	c.checkCommand(prog.Command)
	return c.info
}

func (c *Checker) errorf(pos ast.Pos, format string, args ...any) {
	c.reporter.Errorf(pos, format, args...)
}

func (c *Checker) declareStdEnvironment() {
	std := c.info.Std
	c.info.Types[std.FalseDecl.E] = types.Bool
	c.info.Types[std.TrueDecl.E] = types.Bool
	c.info.Types[std.MaxintDecl.E] = types.Int

	for _, d := range std.Decls {
		switch d := d.(type) {
		case *ast.TypeDeclaration:
			c.info.Types[d] = c.resolveType(d.T)
			c.enter(d.Name, d)
		case *ast.ConstDeclaration:
			c.info.Types[d] = c.info.Types[d.E]
			c.enter(d.Name, d)
		case *ast.UnaryOperatorDeclaration:
			c.resolveType(d.Arg)
			c.resolveType(d.Result)
			c.table.Enter(d.Op.Spelling, d)
		case *ast.BinaryOperatorDeclaration:
			c.resolveType(d.Arg1)
			c.resolveType(d.Arg2)
			c.resolveType(d.Result)
			c.table.Enter(d.Op.Spelling, d)
		case *ast.FuncDeclaration:
			c.table.OpenScope()
			c.declareFormals(d.Formals)
			c.table.CloseScope()
			c.info.Types[d] = c.resolveType(d.T)
			c.enter(d.Name, d)
		case *ast.ProcDeclaration:
			c.table.OpenScope()
			c.declareFormals(d.Formals)
			c.table.CloseScope()
			c.enter(d.Name, d)
		}
	}
}

// enter declares name in the current scope. A duplicate is reported and the
// first declaration stays in force.
func (c *Checker) enter(name *ast.Identifier, d ast.Declaration) {
	c.info.Levels[d] = c.table.Level()
	if !c.table.Enter(name.Spelling, d) {
		c.errorf(name.Pos, "identifier %q already declared in this scope", name.Spelling)
	}
}

// retrieve resolves an applied identifier and records the use. An
// undeclared name is reported with the closest visible spelling, if any.
func (c *Checker) retrieve(name *ast.Identifier) (ast.Declaration, bool) {
	d, ok := c.table.Retrieve(name.Spelling)
	if !ok {
		c.undeclared(name.Pos, name.Spelling)
		return nil, false
	}
	c.info.Uses[name] = d
	return d, true
}

func (c *Checker) undeclared(pos ast.Pos, spelling string) {
	var names []string
	for _, n := range c.table.VisibleNames() {
		if isIdentifier(n) {
			names = append(names, n)
		}
	}
	if s := closestMatch(spelling, names); s != "" {
		c.errorf(pos, "%q is not declared; did you mean %q?", spelling, s)
		return
	}
	c.errorf(pos, "%q is not declared", spelling)
}

// isIdentifier filters operator spellings out of the suggestion candidates.
func isIdentifier(s string) bool {
	return s != "" && unicode.IsLetter(rune(s[0]))
}

// closestMatch ranks candidates by fuzzy match first and falls back to edit
// distance for transpositions, which fuzzy matching does not catch.
func closestMatch(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	// A fuzzy match may add fewer characters than twice the length of the
	// typed name, so "cnt" finds "counter" but "T" does not find "get".
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		if ranks[0].Distance < 2*len(target) {
			return ranks[0].Target
		}
	}
	// Short names would match almost anything within two edits.
	best, bestDist := "", min(max(1, len(target)/2), 2)+1
	for _, cand := range candidates {
		if d := fuzzy.LevenshteinDistance(target, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}

//  Commands

func (c *Checker) checkCommand(cmd ast.Command) {
	switch cmd := cmd.(type) {
	case *ast.AssignCommand:
		vt := c.checkVname(cmd.V)
		et := c.checkExpr(cmd.E)
		if !c.info.Variables[cmd.V] && !vt.IsError() {
			c.errorf(cmd.V.Position(), "left side of assignment is not a variable")
		} else if !types.Equal(vt, et) {
			c.errorf(cmd.Pos, "assignment incompatibility: %s := %s", vt, et)
		}

	case *ast.CallCommand:
		d, ok := c.retrieve(cmd.Name)
		if !ok {
			c.checkActualsLoosely(cmd.Actuals)
			return
		}
		switch d.(type) {
		case *ast.ProcDeclaration, *ast.ProcFormalParameter:
			formals, _ := Formals(d)
			c.checkActuals(cmd.Name, formals, cmd.Actuals, cmd.Pos)
		default:
			c.errorf(cmd.Name.Pos, "%q is not a procedure identifier", cmd.Name.Spelling)
			c.checkActualsLoosely(cmd.Actuals)
		}

	case *ast.IfCommand:
		c.expectBoolean(cmd.E)
		c.checkCommand(cmd.C1)
		c.checkCommand(cmd.C2)

	case *ast.LetCommand:
		c.table.OpenScope()
		c.checkDeclaration(cmd.D)
		c.checkCommand(cmd.C)
		c.table.CloseScope()

	case *ast.WhileCommand:
		c.expectBoolean(cmd.E)
		c.checkCommand(cmd.C)

	case *ast.LoopWhileCommand:
		c.checkCommand(cmd.C1)
		c.expectBoolean(cmd.E)
		c.checkCommand(cmd.C2)

	case *ast.SequentialCommand:
		c.checkCommand(cmd.C1)
		c.checkCommand(cmd.C2)

	case *ast.EmptyCommand:

	default:
		panic(fmt.Sprintf("checker: unexpected command %T", cmd))
	}
}

func (c *Checker) expectBoolean(e ast.Expression) {
	if t := c.checkExpr(e); !types.Equal(t, types.Bool) {
		c.errorf(e.Position(), "Boolean expression expected here, found %s", t)
	}
}

//  Expressions

// checkExpr infers the type of e and records it.
func (c *Checker) checkExpr(e ast.Expression) *types.Type {
	t := c.exprType(e)
	c.info.Types[e] = t
	return t
}

func (c *Checker) exprType(e ast.Expression) *types.Type {
	switch e := e.(type) {
	case *ast.IntegerExpression:
		if n, ok := e.Literal.Value(); !ok || n > tam.MaxInt {
			c.errorf(e.Pos, "integer literal %s is too large (maxint is %d)", e.Literal.Spelling, tam.MaxInt)
		}
		return types.Int

	case *ast.CharacterExpression:
		return types.Char

	case *ast.EmptyExpression:
		return types.Error

	case *ast.VnameExpression:
		return c.checkVname(e.V)

	case *ast.UnaryExpression:
		t := c.checkExpr(e.E)
		d, ok := c.retrieveOperator(e.Op)
		if !ok {
			return types.Error
		}
		un, ok := d.(*ast.UnaryOperatorDeclaration)
		if !ok {
			c.errorf(e.Op.Pos, "%q is not a unary operator", e.Op.Spelling)
			return types.Error
		}
		if !types.Equal(t, c.info.TypeOf(un.Arg)) {
			c.errorf(e.Pos, "wrong argument type for %q: %s", e.Op.Spelling, t)
			return types.Error
		}
		return c.info.TypeOf(un.Result)

	case *ast.BinaryExpression:
		t1 := c.checkExpr(e.E1)
		t2 := c.checkExpr(e.E2)
		d, ok := c.retrieveOperator(e.Op)
		if !ok {
			return types.Error
		}
		bin, ok := d.(*ast.BinaryOperatorDeclaration)
		if !ok {
			c.errorf(e.Op.Pos, "%q is not a binary operator", e.Op.Spelling)
			return types.Error
		}
		arg1 := c.info.TypeOf(bin.Arg1)
		if arg1.Kind == types.KindAny {
			if !types.Equal(t1, t2) {
				c.errorf(e.Pos, "incompatible argument types for %q: %s and %s", e.Op.Spelling, t1, t2)
				return types.Error
			}
		} else if !types.Equal(t1, arg1) || !types.Equal(t2, c.info.TypeOf(bin.Arg2)) {
			c.errorf(e.Pos, "wrong argument types for %q: %s and %s", e.Op.Spelling, t1, t2)
			return types.Error
		}
		return c.info.TypeOf(bin.Result)

	case *ast.CallExpression:
		d, ok := c.retrieve(e.Name)
		if !ok {
			c.checkActualsLoosely(e.Actuals)
			return types.Error
		}
		switch d.(type) {
		case *ast.FuncDeclaration, *ast.FuncFormalParameter:
			formals, _ := Formals(d)
			c.checkActuals(e.Name, formals, e.Actuals, e.Pos)
			return c.info.TypeOf(d)
		}
		c.errorf(e.Name.Pos, "%q is not a function identifier", e.Name.Spelling)
		c.checkActualsLoosely(e.Actuals)
		return types.Error

	case *ast.IfExpression:
		c.expectBoolean(e.E1)
		t2 := c.checkExpr(e.E2)
		t3 := c.checkExpr(e.E3)
		if !types.Equal(t2, t3) {
			c.errorf(e.Pos, "incompatible limbs in if-expression: %s and %s", t2, t3)
			return types.Error
		}
		if t2.IsError() {
			return t3
		}
		return t2

	case *ast.LetExpression:
		c.table.OpenScope()
		c.checkDeclaration(e.D)
		t := c.checkExpr(e.E)
		c.table.CloseScope()
		return t

	case *ast.ArrayExpression:
		var elem *types.Type
		for i, el := range e.Aggregate.Elements {
			t := c.checkExpr(el)
			if i == 0 {
				elem = t
			} else if !types.Equal(elem, t) {
				c.errorf(el.Position(), "incompatible array-aggregate element: %s, expected %s", t, elem)
			} else if elem.IsError() {
				elem = t
			}
		}
		if elem == nil {
			return types.Error
		}
		t := types.NewArray(len(e.Aggregate.Elements), elem)
		c.info.Types[e.Aggregate] = t
		return t

	case *ast.RecordExpression:
		var fields []types.Field
		seen := map[string]bool{}
		for _, f := range e.Aggregate.Fields {
			t := c.checkExpr(f.Value)
			if seen[f.Name.Spelling] {
				c.errorf(f.Name.Pos, "duplicate field %q in record aggregate", f.Name.Spelling)
				continue
			}
			seen[f.Name.Spelling] = true
			fields = append(fields, types.Field{Name: f.Name.Spelling, Type: t})
		}
		t := types.NewRecord(fields)
		c.info.Types[e.Aggregate] = t
		return t
	}
	panic(fmt.Sprintf("checker: unexpected expression %T", e))
}

func (c *Checker) retrieveOperator(op *ast.Operator) (ast.Declaration, bool) {
	d, ok := c.table.Retrieve(op.Spelling)
	if !ok {
		c.errorf(op.Pos, "%q is not a declared operator", op.Spelling)
		return nil, false
	}
	c.info.Operators[op] = d
	return d, true
}

//  Value-or-variable names

// checkVname infers the type of v and records whether it is a variable.
func (c *Checker) checkVname(v ast.Vname) *types.Type {
	t, variable := c.vnameType(v)
	c.info.Types[v] = t
	c.info.Variables[v] = variable
	return t
}

func (c *Checker) vnameType(v ast.Vname) (*types.Type, bool) {
	switch v := v.(type) {
	case *ast.SimpleVname:
		d, ok := c.retrieve(v.Name)
		if !ok {
			return types.Error, false
		}
		switch d.(type) {
		case *ast.ConstDeclaration, *ast.ConstFormalParameter:
			return c.info.TypeOf(d), false
		case *ast.VarDeclaration, *ast.VarFormalParameter:
			return c.info.TypeOf(d), true
		}
		c.errorf(v.Name.Pos, "%q is not a const or var identifier", v.Name.Spelling)
		return types.Error, false

	case *ast.DotVname:
		rt := c.checkVname(v.V)
		variable := c.info.Variables[v.V]
		if rt.IsError() {
			return types.Error, variable
		}
		if rt.Kind != types.KindRecord {
			c.errorf(v.V.Position(), "record expected here, found %s", rt)
			return types.Error, variable
		}
		f, _, ok := rt.Field(v.Field.Spelling)
		if !ok {
			c.errorf(v.Field.Pos, "no field %q in this record type", v.Field.Spelling)
			return types.Error, variable
		}
		return f.Type, variable

	case *ast.SubscriptVname:
		at := c.checkVname(v.V)
		variable := c.info.Variables[v.V]
		it := c.checkExpr(v.Index)
		if !types.Equal(it, types.Int) {
			c.errorf(v.Index.Position(), "Integer expression expected here, found %s", it)
		}
		if at.IsError() {
			return types.Error, variable
		}
		if at.Kind != types.KindArray {
			c.errorf(v.V.Position(), "array expected here, found %s", at)
			return types.Error, variable
		}
		return at.Elem, variable
	}
	panic(fmt.Sprintf("checker: unexpected vname %T", v))
}

//  Declarations

func (c *Checker) checkDeclaration(d ast.Declaration) {
	switch d := d.(type) {
	case *ast.ConstDeclaration:
		c.info.Types[d] = c.checkExpr(d.E)
		c.enter(d.Name, d)

	case *ast.VarDeclaration:
		c.info.Types[d] = c.resolveType(d.T)
		c.enter(d.Name, d)

	case *ast.TypeDeclaration:
		c.info.Types[d] = c.resolveType(d.T)
		c.enter(d.Name, d)

	case *ast.FuncDeclaration:
		t := c.resolveType(d.T)
		c.info.Types[d] = t
		// Entered before the body so that it may call itself.
		c.enter(d.Name, d)
		c.table.OpenScope()
		c.declareFormals(d.Formals)
		et := c.checkExpr(d.E)
		c.table.CloseScope()
		if !types.Equal(t, et) {
			c.errorf(d.E.Position(), "body of function %q has type %s, expected %s", d.Name.Spelling, et, t)
		}

	case *ast.ProcDeclaration:
		c.enter(d.Name, d)
		c.table.OpenScope()
		c.declareFormals(d.Formals)
		c.checkCommand(d.C)
		c.table.CloseScope()

	case *ast.SequentialDeclaration:
		c.checkDeclaration(d.D1)
		c.checkDeclaration(d.D2)

	default:
		panic(fmt.Sprintf("checker: unexpected declaration %T", d))
	}
}

func (c *Checker) declareFormals(fps ast.FormalParameterSequence) {
	for _, fp := range fps {
		switch fp := fp.(type) {
		case *ast.ConstFormalParameter:
			c.info.Types[fp] = c.resolveType(fp.T)
			c.enter(fp.Name, fp)
		case *ast.VarFormalParameter:
			c.info.Types[fp] = c.resolveType(fp.T)
			c.enter(fp.Name, fp)
		case *ast.ProcFormalParameter:
			c.table.OpenScope()
			c.declareFormals(fp.Formals)
			c.table.CloseScope()
			c.enter(fp.Name, fp)
		case *ast.FuncFormalParameter:
			c.table.OpenScope()
			c.declareFormals(fp.Formals)
			c.table.CloseScope()
			c.info.Types[fp] = c.resolveType(fp.T)
			c.enter(fp.Name, fp)
		}
	}
}

//  Parameters

// checkActuals matches a call's arguments against the callee's formals. An
// arity mismatch is reported once for the whole call; the arguments are
// then only checked on their own.
func (c *Checker) checkActuals(name *ast.Identifier, formals ast.FormalParameterSequence, actuals ast.ActualParameterSequence, pos ast.Pos) {
	switch {
	case len(actuals) < len(formals):
		c.errorf(pos, "too few actual parameters in call to %q: got %d, expected %d", name.Spelling, len(actuals), len(formals))
		c.checkActualsLoosely(actuals)
		return
	case len(actuals) > len(formals):
		c.errorf(pos, "too many actual parameters in call to %q: got %d, expected %d", name.Spelling, len(actuals), len(formals))
		c.checkActualsLoosely(actuals)
		return
	}
	for i, ap := range actuals {
		c.checkActual(formals[i], ap)
	}
}

func (c *Checker) checkActual(fp ast.FormalParameter, ap ast.ActualParameter) {
	switch fp := fp.(type) {
	case *ast.ConstFormalParameter:
		a, ok := ap.(*ast.ConstActualParameter)
		if !ok {
			c.modeMismatch(ap, "const", fp.Name)
			return
		}
		if t := c.checkExpr(a.E); !types.Equal(t, c.info.TypeOf(fp)) {
			c.errorf(a.Pos, "wrong type for const actual parameter %q: %s, expected %s", fp.Name.Spelling, t, c.info.TypeOf(fp))
		}

	case *ast.VarFormalParameter:
		a, ok := ap.(*ast.VarActualParameter)
		if !ok {
			c.modeMismatch(ap, "var", fp.Name)
			return
		}
		t := c.checkVname(a.V)
		if !c.info.Variables[a.V] && !t.IsError() {
			c.errorf(a.Pos, "actual parameter for var %q is not a variable", fp.Name.Spelling)
		} else if !types.Equal(t, c.info.TypeOf(fp)) {
			c.errorf(a.Pos, "wrong type for var actual parameter %q: %s, expected %s", fp.Name.Spelling, t, c.info.TypeOf(fp))
		}

	case *ast.ProcFormalParameter:
		a, ok := ap.(*ast.ProcActualParameter)
		if !ok {
			c.modeMismatch(ap, "proc", fp.Name)
			return
		}
		d, ok := c.retrieve(a.Name)
		if !ok {
			return
		}
		switch d.(type) {
		case *ast.ProcDeclaration, *ast.ProcFormalParameter:
			formals, _ := Formals(d)
			if !c.equalFormals(fp.Formals, formals) {
				c.errorf(a.Pos, "wrong signature for procedure %q passed as %q", a.Name.Spelling, fp.Name.Spelling)
			}
		default:
			c.errorf(a.Name.Pos, "%q is not a procedure identifier", a.Name.Spelling)
		}

	case *ast.FuncFormalParameter:
		a, ok := ap.(*ast.FuncActualParameter)
		if !ok {
			c.modeMismatch(ap, "func", fp.Name)
			return
		}
		d, ok := c.retrieve(a.Name)
		if !ok {
			return
		}
		switch d.(type) {
		case *ast.FuncDeclaration, *ast.FuncFormalParameter:
			formals, _ := Formals(d)
			if !c.equalFormals(fp.Formals, formals) || !types.Equal(c.info.TypeOf(fp), c.info.TypeOf(d)) {
				c.errorf(a.Pos, "wrong signature for function %q passed as %q", a.Name.Spelling, fp.Name.Spelling)
			}
		default:
			c.errorf(a.Name.Pos, "%q is not a function identifier", a.Name.Spelling)
		}
	}
}

func (c *Checker) modeMismatch(ap ast.ActualParameter, want string, formal *ast.Identifier) {
	c.checkActualLoosely(ap)
	c.errorf(ap.Position(), "%s actual parameter expected here for %q", want, formal.Spelling)
}

func (c *Checker) checkActualsLoosely(aps ast.ActualParameterSequence) {
	for _, ap := range aps {
		c.checkActualLoosely(ap)
	}
}

// checkActualLoosely checks an argument without a formal to match it
// against, so that errors inside it are still found.
func (c *Checker) checkActualLoosely(ap ast.ActualParameter) {
	switch ap := ap.(type) {
	case *ast.ConstActualParameter:
		c.checkExpr(ap.E)
	case *ast.VarActualParameter:
		c.checkVname(ap.V)
	case *ast.ProcActualParameter:
		c.retrieve(ap.Name)
	case *ast.FuncActualParameter:
		c.retrieve(ap.Name)
	}
}

// equalFormals reports whether two parameter lists have the same modes and
// types, position by position.
func (c *Checker) equalFormals(a, b ast.FormalParameterSequence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch x := a[i].(type) {
		case *ast.ConstFormalParameter:
			y, ok := b[i].(*ast.ConstFormalParameter)
			if !ok || !types.Equal(c.info.TypeOf(x), c.info.TypeOf(y)) {
				return false
			}
		case *ast.VarFormalParameter:
			y, ok := b[i].(*ast.VarFormalParameter)
			if !ok || !types.Equal(c.info.TypeOf(x), c.info.TypeOf(y)) {
				return false
			}
		case *ast.ProcFormalParameter:
			y, ok := b[i].(*ast.ProcFormalParameter)
			if !ok || !c.equalFormals(x.Formals, y.Formals) {
				return false
			}
		case *ast.FuncFormalParameter:
			y, ok := b[i].(*ast.FuncFormalParameter)
			if !ok || !c.equalFormals(x.Formals, y.Formals) || !types.Equal(c.info.TypeOf(x), c.info.TypeOf(y)) {
				return false
			}
		}
	}
	return true
}

//  Type denoters

// resolveType maps a type denoter to its type and records it.
func (c *Checker) resolveType(td ast.TypeDenoter) *types.Type {
	t := c.denotedType(td)
	c.info.Types[td] = t
	return t
}

func (c *Checker) denotedType(td ast.TypeDenoter) *types.Type {
	switch td := td.(type) {
	case *ast.IntTypeDenoter:
		return types.Int
	case *ast.BoolTypeDenoter:
		return types.Bool
	case *ast.CharTypeDenoter:
		return types.Char
	case *ast.AnyTypeDenoter:
		return types.Any
	case *ast.ErrorTypeDenoter:
		return types.Error

	case *ast.SimpleTypeDenoter:
		d, ok := c.retrieve(td.Name)
		if !ok {
			return types.Error
		}
		if _, ok := d.(*ast.TypeDeclaration); !ok {
			c.errorf(td.Name.Pos, "%q is not a type identifier", td.Name.Spelling)
			return types.Error
		}
		return c.info.TypeOf(d)

	case *ast.ArrayTypeDenoter:
		elem := c.resolveType(td.T)
		n, ok := td.Size.Value()
		switch {
		case !ok || n > tam.MaxInt:
			c.errorf(td.Size.Pos, "integer literal %s is too large (maxint is %d)", td.Size.Spelling, tam.MaxInt)
			return types.Error
		case n == 0:
			c.errorf(td.Size.Pos, "arrays must have at least one element")
			return types.Error
		}
		return types.NewArray(n, elem)

	case *ast.RecordTypeDenoter:
		var fields []types.Field
		seen := map[string]bool{}
		for _, f := range td.Fields {
			t := c.resolveType(f.T)
			if seen[f.Name.Spelling] {
				c.errorf(f.Name.Pos, "duplicate field %q in record type", f.Name.Spelling)
				continue
			}
			seen[f.Name.Spelling] = true
			fields = append(fields, types.Field{Name: f.Name.Spelling, Type: t})
		}
		return types.NewRecord(fields)
	}
	panic(fmt.Sprintf("checker: unexpected type denoter %T", td))
}
