package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotam/pkg/ast"
	"gotam/pkg/diag"
	"gotam/pkg/syntax"
	"gotam/pkg/types"
)

func check(t *testing.T, src string) (*ast.Program, *Info, *diag.Reporter) {
	t.Helper()
	prog, err := syntax.Parse(src)
	require.NoError(t, err)
	reporter := diag.NewReporter()
	info := Check(prog, reporter)
	return prog, info, reporter
}

// declNamed finds the first declaration of name in prog.
func declNamed(prog *ast.Program, name string) ast.Declaration {
	var found ast.Declaration
	ast.Inspect(prog, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		switch d := n.(type) {
		case *ast.VarDeclaration:
			if d.Name.Spelling == name {
				found = d
			}
		case *ast.ConstDeclaration:
			if d.Name.Spelling == name {
				found = d
			}
		case *ast.ProcDeclaration:
			if d.Name.Spelling == name {
				found = d
			}
		case *ast.FuncDeclaration:
			if d.Name.Spelling == name {
				found = d
			}
		}
		return true
	})
	return found
}

func TestCheckWellTyped(t *testing.T) {
	srcs := map[string]string{
		"scalars": `
let
  var n: Integer;
  var c: Char;
  var b: Boolean
in begin
  getint(var n);
  c := chr(ord('a') + 1);
  b := (n < 10) /\ \(c = 'z');
  if b then putint(n) else put(c);
  puteol()
end`,
		"records and arrays": `
let
  type Point ~ record x: Integer, y: Integer end;
  var p: Point;
  var a: array 3 of Integer
in begin
  p := {x ~ 1, y ~ 2};
  a := [1, 2, 3];
  a[p.x] := p.y;
  if a = [1, 2, 2] then puteol() else
end`,
		"recursion": `
let
  func fact(n: Integer): Integer ~
    if n <= 0 then 1 else n * fact(n - 1)
in putint(fact(5))`,
		"routine parameters": `
let
  proc twice(proc f(x: Integer), v: Integer) ~ begin f(v); f(v) end;
  proc show(x: Integer) ~ putint(x);
  func apply(func g(x: Integer): Integer, v: Integer): Integer ~ g(v);
  func double(x: Integer): Integer ~ x + x
in begin
  twice(proc show, 3);
  putint(apply(func double, 4))
end`,
		"let expression": `
let const k ~ let const a ~ 2 in a * a
in putint(k)`,
		"loop while": `
let var c: Char
in do get(var c) while \eol() do put(c)`,
	}
	for name, src := range srcs {
		t.Run(name, func(t *testing.T) {
			_, _, reporter := check(t, src)
			assert.Empty(t, reporter.Messages())
		})
	}
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			"declared type mismatch",
			"let var x: Boolean in x := 1",
			[]string{"assignment incompatibility: Boolean := Integer"},
		},
		{
			"assign to constant",
			"let const c ~ 1 in c := 2",
			[]string{"left side of assignment is not a variable"},
		},
		{
			"undeclared with cascade suppressed",
			"let var x: Integer in x := y + 1",
			[]string{`"y" is not declared; did you mean "x"?`},
		},
		{
			"duplicate keeps first",
			"let var x: Integer; var x: Boolean in x := 1",
			[]string{`identifier "x" already declared in this scope`},
		},
		{
			"not a type",
			"let var x: true in x := 1",
			[]string{`"true" is not a type identifier`},
		},
		{
			"literal too large",
			"putint(40000)",
			[]string{"integer literal 40000 is too large (maxint is 32767)"},
		},
		{
			"empty array",
			"let var a: array 0 of Integer in a := a",
			[]string{"arrays must have at least one element"},
		},
		{
			"duplicate record field",
			"let var r: record a: Integer, a: Char end in r.a := 1",
			[]string{`duplicate field "a" in record type`},
		},
		{
			"condition",
			"while 1 do puteol()",
			[]string{"Boolean expression expected here, found Integer"},
		},
		{
			"if limbs",
			"putint(if true then 1 else 'a')",
			[]string{"incompatible limbs in if-expression: Integer and Char"},
		},
		{
			"operator operands",
			"putint(1 + 'a')",
			[]string{`wrong argument types for "+": Integer and Char`},
		},
		{
			"equality operands",
			"if 1 = 'a' then puteol() else",
			[]string{`incompatible argument types for "=": Integer and Char`},
		},
		{
			"not a procedure",
			"let var x: Integer in x(1)",
			[]string{`"x" is not a procedure identifier`},
		},
		{
			"not a function",
			"putint(puteol())",
			[]string{`"puteol" is not a function identifier`},
		},
		{
			"missing field",
			"let var r: record a: Integer end in r.b := 1",
			[]string{`no field "b" in this record type`},
		},
		{
			"not an array",
			"let var n: Integer in n[0] := 1",
			[]string{"array expected here, found Integer"},
		},
		{
			"non-integer index",
			"let var a: array 2 of Integer in a['x'] := 1",
			[]string{"Integer expression expected here, found Char"},
		},
		{
			"function body",
			"let func f(): Integer ~ 'a' in putint(f())",
			[]string{`body of function "f" has type Char, expected Integer`},
		},
		{
			"aggregate elements",
			"let var a: array 2 of Integer in a := [1, 'b']",
			[]string{"incompatible array-aggregate element: Char, expected Integer"},
		},
		{
			"independent errors",
			"let var b: Boolean in begin b := 1; putint(b); b := true end",
			[]string{
				"assignment incompatibility: Boolean := Integer",
				`wrong type for const actual parameter "i": Boolean, expected Integer`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, reporter := check(t, tt.src)
			assert.Equal(t, tt.want, reporter.Messages())
			assert.Equal(t, len(tt.want), reporter.ErrorCount())
		})
	}
}

func TestCheckCalls(t *testing.T) {
	const decls = `
let
  proc p(a: Integer, b: Integer) ~ putint(a + b);
  proc inc(var n: Integer) ~ n := n + 1;
  proc q(x: Integer) ~ putint(x);
  proc each(proc f(b: Boolean)) ~ f(true);
  const k ~ 3;
  var v: Integer
in `
	tests := []struct {
		name string
		call string
		want []string
	}{
		{"too few", "p(1)", []string{`too few actual parameters in call to "p": got 1, expected 2`}},
		{"too many", "p(1, 2, 3)", []string{`too many actual parameters in call to "p": got 3, expected 2`}},
		{"arity hides modes", "p(var v)", []string{`too few actual parameters in call to "p": got 1, expected 2`}},
		{"arity still checks arguments", "p(zz)", []string{
			`too few actual parameters in call to "p": got 1, expected 2`,
			`"zz" is not declared`,
		}},
		{"const for var", "inc(3)", []string{`var actual parameter expected here for "n"`}},
		{"var for const", "q(var v)", []string{`const actual parameter expected here for "x"`}},
		{"constant for var", "inc(var k)", []string{`actual parameter for var "n" is not a variable`}},
		{"per parameter", "p('a', true)", []string{
			`wrong type for const actual parameter "a": Char, expected Integer`,
			`wrong type for const actual parameter "b": Boolean, expected Integer`,
		}},
		{"proc signature", "each(proc q)", []string{`wrong signature for procedure "q" passed as "f"`}},
		{"func for proc", "each(func q)", []string{`proc actual parameter expected here for "f"`}},
		{"suggested routine", "begin p(1, 2); inc(var v); each(proc each2) end", []string{`"each2" is not declared; did you mean "each"?`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, reporter := check(t, decls+tt.call)
			assert.Equal(t, tt.want, reporter.Messages())
		})
	}
}

func TestCheckShadowing(t *testing.T) {
	prog, info, reporter := check(t, `
let var x: Integer
in begin
  let var x: Boolean in x := true;
  x := 1
end`)
	require.Zero(t, reporter.ErrorCount())

	var targets []ast.Declaration
	ast.Inspect(prog, func(n ast.Node) bool {
		if a, ok := n.(*ast.AssignCommand); ok {
			targets = append(targets, info.Uses[a.V.(*ast.SimpleVname).Name])
		}
		return true
	})
	require.Len(t, targets, 2)

	inner := targets[0].(*ast.VarDeclaration)
	outer := targets[1].(*ast.VarDeclaration)
	assert.NotSame(t, inner, outer)
	assert.Equal(t, types.Bool, info.TypeOf(inner))
	assert.Equal(t, types.Int, info.TypeOf(outer))
	assert.Equal(t, info.Levels[outer]+1, info.Levels[inner])
}

func TestCheckRecordsSideTables(t *testing.T) {
	prog, info, reporter := check(t, `
let
  type Pair ~ record a: Integer, b: Char end;
  var p: Pair;
  const two ~ 2
in p.a := two + 1`)
	require.Zero(t, reporter.ErrorCount())

	p := declNamed(prog, "p")
	want := types.NewRecord([]types.Field{{Name: "a", Type: types.Int}, {Name: "b", Type: types.Char}})
	assert.True(t, types.Equal(want, info.TypeOf(p)))
	assert.Equal(t, 1, info.Levels[p])

	var assign *ast.AssignCommand
	ast.Inspect(prog, func(n ast.Node) bool {
		if a, ok := n.(*ast.AssignCommand); ok {
			assign = a
		}
		return true
	})
	require.NotNil(t, assign)
	assert.True(t, info.Variables[assign.V])
	assert.Equal(t, types.Int, info.TypeOf(assign.V))
	assert.Equal(t, types.Int, info.TypeOf(assign.E))

	sum := assign.E.(*ast.BinaryExpression)
	assert.Same(t, info.Std.AddDecl, info.Operators[sum.Op])
	two := sum.E1.(*ast.VnameExpression).V.(*ast.SimpleVname)
	assert.Same(t, declNamed(prog, "two"), info.Uses[two.Name])
	assert.False(t, info.Variables[two])
}

func TestCheckFuzzySuggestion(t *testing.T) {
	_, _, reporter := check(t, "let var counter: Integer in cnt := 1")
	assert.Equal(t, []string{`"cnt" is not declared; did you mean "counter"?`}, reporter.Messages())

	_, _, reporter = check(t, "let var count: Integer in cuont := 1")
	assert.Equal(t, []string{`"cuont" is not declared; did you mean "count"?`}, reporter.Messages())

	_, _, reporter = check(t, "let var count: T in count := 1")
	require.NotEmpty(t, reporter.Messages())
	assert.Equal(t, `"T" is not declared`, reporter.Messages()[0])
}

func TestCheckFreshEnvironmentPerRun(t *testing.T) {
	_, first, _ := check(t, "putint(maxint)")
	_, second, _ := check(t, "putint(maxint)")
	assert.NotSame(t, first.Std.MaxintDecl, second.Std.MaxintDecl)
	assert.Equal(t, types.Int, second.TypeOf(second.Std.MaxintDecl))
}

func TestClosestMatch(t *testing.T) {
	names := []string{"Boolean", "Integer", "total", "value"}
	assert.Equal(t, "total", closestMatch("tot", names))
	assert.Equal(t, "value", closestMatch("vlaue", names))
	assert.Equal(t, "", closestMatch("zzzzzz", names))
	assert.Equal(t, "", closestMatch("x", nil))
	assert.Equal(t, "", closestMatch("T", []string{"get", "put", "eol"}))
	assert.Equal(t, "", closestMatch("ab", []string{"alphabet"}))
}
