package codegen

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotam/pkg/ast"
	"gotam/pkg/checker"
	"gotam/pkg/diag"
	"gotam/pkg/optimizer"
	"gotam/pkg/syntax"
	"gotam/pkg/tam"
)

func encode(t *testing.T, src string, fold bool) (*Program, *diag.Reporter) {
	t.Helper()
	prog, err := syntax.Parse(src)
	require.NoError(t, err)
	reporter := diag.NewReporter()
	info := checker.Check(prog, reporter)
	require.Zero(t, reporter.ErrorCount(), reporter.Messages())
	if fold {
		optimizer.Fold(prog, info)
	}
	return Encode(prog, info, reporter), reporter
}

func execute(t *testing.T, code []tam.Instruction, input string) string {
	t.Helper()
	m, err := tam.NewMachine(code)
	require.NoError(t, err)
	var out bytes.Buffer
	m.Input = strings.NewReader(input)
	m.Output = &out
	m.MaxSteps = 1_000_000
	require.NoError(t, m.Run())
	return out.String()
}

// run compiles src with and without folding and checks both agree.
func run(t *testing.T, src, input string) string {
	t.Helper()
	plain, _ := encode(t, src, false)
	require.NotNil(t, plain)
	folded, _ := encode(t, src, true)
	require.NotNil(t, folded)

	out := execute(t, plain.Code, input)
	assert.Equal(t, out, execute(t, folded.Code, input), "folding changed the program's behaviour")
	return out
}

func TestEncodeIfLayout(t *testing.T) {
	p, _ := encode(t, "let var x: Integer in if x = 0 then x := 1 else x := 2", false)
	require.NotNil(t, p)

	prim := func(d int) tam.Instruction {
		return tam.Instruction{Op: tam.CALL, N: int(tam.SB), R: tam.PB, D: d}
	}
	want := []tam.Instruction{
		{Op: tam.PUSH, D: 1},
		{Op: tam.LOAD, N: 1, R: tam.SB, D: 0},
		{Op: tam.LOADL, D: 0},
		{Op: tam.LOADL, D: 1},
		prim(tam.PrimEq),
		{Op: tam.JUMPIF, N: tam.FalseRep, R: tam.CB, D: 9},
		{Op: tam.LOADL, D: 1},
		{Op: tam.STORE, N: 1, R: tam.SB, D: 0},
		{Op: tam.JUMP, R: tam.CB, D: 11},
		{Op: tam.LOADL, D: 2},
		{Op: tam.STORE, N: 1, R: tam.SB, D: 0},
		{Op: tam.POP, D: 1},
		{Op: tam.HALT},
	}
	if diff := cmp.Diff(want, p.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeNestedIf(t *testing.T) {
	src := `
let var a: Integer; var b: Integer; var c: Integer
in begin
  getint(var a); getint(var b); getint(var c);
  if a > 0 then
    if b > 0 then
      if c > 0 then putint(1) else putint(2)
    else
      if c > 0 then putint(3) else putint(4)
  else
    if b > 0 then
      if c > 0 then putint(5) else putint(6)
    else
      if c > 0 then putint(7) else putint(8)
end`
	want := 1
	for _, a := range []int{1, 0} {
		for _, b := range []int{1, 0} {
			for _, c := range []int{1, 0} {
				input := fmt.Sprintf("%d %d %d", a, b, c)
				assert.Equal(t, fmt.Sprint(want), run(t, src, input), input)
				want++
			}
		}
	}
}

func TestEncodeNestedWhile(t *testing.T) {
	src := `
let var i: Integer; var j: Integer; var k: Integer; var n: Integer
in begin
  getint(var n);
  i := 0;
  while i < n do begin
    j := 0;
    while j < i do begin
      k := 0;
      while k < j do begin putint(k); k := k + 1 end;
      j := j + 1
    end;
    i := i + 1
  end
end`
	assert.Equal(t, "", run(t, src, "0"))
	assert.Equal(t, "", run(t, src, "2"))
	assert.Equal(t, "0", run(t, src, "3"))
	assert.Equal(t, "0001", run(t, src, "4"))
}

func TestEncodeNestedLoopWhile(t *testing.T) {
	src := `
let var i: Integer; var j: Integer; var n: Integer
in begin
  getint(var n);
  i := 0;
  do i := i + 1 while i <= n do begin
    j := 0;
    do j := j + 1 while j <= i do
      if j = i then put('!') else put('*');
    puteol()
  end
end`
	assert.Equal(t, "", run(t, src, "0"))
	assert.Equal(t, "!\n*!\n**!\n", run(t, src, "3"))
}

func TestEncodeMixedNesting(t *testing.T) {
	src := `
let var i: Integer; var j: Integer
in begin
  getint(var i);
  while i > 0 do begin
    j := i;
    do j := j - 1 while j > 0 do
      if (j // 2) = 0 then put('e') else put('o');
    putint(i);
    i := i - 1
  end
end`
	assert.Equal(t, "", run(t, src, "0"))
	assert.Equal(t, "1", run(t, src, "1"))
	assert.Equal(t, "eo3o21", run(t, src, "3"))
}

func TestEncodeRoutines(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input string
		want  string
	}{
		{"recursion", `
let func fact(n: Integer): Integer ~ if n <= 1 then 1 else n * fact(n - 1)
in putint(fact(7))`, "", "5040"},

		{"var parameter", `
let
  var x: Integer;
  proc inc(var n: Integer, by: Integer) ~ n := n + by
in begin x := 40; inc(var x, 2); putint(x) end`, "", "42"},

		{"static link", `
let
  var total: Integer;
  proc outer(n: Integer) ~
    let
      var acc: Integer;
      proc add(k: Integer) ~ begin acc := acc + k; total := total + k end
    in begin acc := 0; add(n); add(n); putint(acc) end
in begin total := 1; outer(5); put(' '); putint(total) end`, "", "10 11"},

		{"proc parameter", `
let
  proc twice(proc p(x: Integer), v: Integer) ~ begin p(v); p(v + 1) end;
  proc show(x: Integer) ~ begin putint(x); put(';') end
in twice(proc show, 3)`, "", "3;4;"},

		{"primitive as parameter", `
let proc each(proc p(x: Integer)) ~ begin p(1); p(2) end
in each(proc putint)`, "", "12"},

		{"func parameter through two levels", `
let
  func apply(func f(x: Integer): Integer, v: Integer): Integer ~ f(v);
  func applyTwice(func g(x: Integer): Integer, v: Integer): Integer ~ apply(func g, apply(func g, v));
  func sq(x: Integer): Integer ~ x * x
in putint(applyTwice(func sq, 3))`, "", "81"},

		{"unknown constant", `
let
  var n: Integer;
  proc show(k: Integer) ~
    let const twice ~ k + k
    in putint(twice)
in begin getint(var n); show(n) end`, "21", "42"},

		{"let expression", `
putint(let const a ~ 6; var b: Integer in a * 7)`, "", "42"},

		{"character io", `
let var c: Char
in begin
  while \eol() do begin get(var c); put(chr(ord(c) + 1)) end
end`, "HAL\n", "IBM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.src, tt.input))
		})
	}
}

func TestEncodeComposites(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"array aggregate and dynamic index", `
let var a: array 4 of Integer; var i: Integer
in begin
  a := [10, 20, 30, 40];
  i := 0;
  while i < 4 do begin putint(a[i]); i := i + 1 end
end`, "10203040"},

		{"literal index", `
let var a: array 3 of Integer
in begin a[0] := 7; a[2] := 9; putint(a[2] - a[0]) end`, "2"},

		{"records", `
let
  type Point ~ record x: Integer, y: Integer end;
  var p: Point; var q: Point
in begin
  p := {x ~ 3, y ~ 4};
  q := p;
  q.y := q.y + 1;
  putint(p.y); putint(q.y); putint(q.x)
end`, "453"},

		{"array of records", `
let
  type Cell ~ record tag: Char, n: Integer end;
  var cells: array 3 of Cell;
  var i: Integer
in begin
  i := 0;
  while i < 3 do begin
    cells[i] := {tag ~ chr(ord('a') + i), n ~ i * i};
    i := i + 1
  end;
  i := 2;
  put(cells[i].tag); putint(cells[i].n); put(cells[1].tag)
end`, "c4b"},

		{"matrix", `
let
  var m: array 3 of array 3 of Integer;
  var i: Integer; var j: Integer
in begin
  i := 0;
  while i < 3 do begin
    j := 0;
    while j < 3 do begin m[i][j] := i * 10 + j; j := j + 1 end;
    i := i + 1
  end;
  i := 2; j := 1;
  putint(m[i][j]); put(' '); putint(m[1][2])
end`, "21 12"},

		{"var parameter into a record", `
let
  type Pair ~ record a: Integer, b: array 2 of Integer end;
  var p: Pair;
  var k: Integer;
  proc bump(var q: Pair, i: Integer) ~ begin q.b[i] := q.b[i] + 1; q.a := q.a + 10 end
in begin
  p := {a ~ 0, b ~ [5, 6]};
  k := 1;
  bump(var p, k);
  putint(p.a); put(' '); putint(p.b[0]); put(' '); putint(p.b[1])
end`, "10 5 7"},

		{"structural equality", `
let
  var a: array 2 of Integer; var b: array 2 of Integer
in begin
  a := [1, 2]; b := [1, 2];
  if a = b then put('y') else put('n');
  b[1] := 3;
  if a \= b then put('y') else put('n')
end`, "yy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.src, ""))
		})
	}
}

func TestEncodeAllocation(t *testing.T) {
	p, _ := encode(t, `
let
  var a: Integer;
  var b: array 3 of Integer;
  const k ~ 5;
  var c: Char;
  proc p(x: Integer, var y: Integer) ~
    let var local: Integer in local := x
in p(k, var a)`, false)
	require.NotNil(t, p)

	byName := map[string]tam.EntityRecord{}
	for _, r := range p.Entities {
		byName[r.Name] = r
	}
	assert.Equal(t, tam.EntityRecord{Name: "a", Kind: "KnownAddress", Level: 0, Displacement: 0, Size: 1, Line: 3}, byName["a"])
	assert.Equal(t, tam.EntityRecord{Name: "b", Kind: "KnownAddress", Level: 0, Displacement: 1, Size: 3, Line: 4}, byName["b"])
	assert.Equal(t, tam.EntityRecord{Name: "k", Kind: "KnownValue", Size: 1, Value: 5, Line: 5}, byName["k"])
	assert.Equal(t, tam.EntityRecord{Name: "c", Kind: "KnownAddress", Level: 0, Displacement: 4, Size: 1, Line: 6}, byName["c"])

	assert.Equal(t, "KnownRoutine", byName["p"].Kind)
	assert.Equal(t, -2, byName["x"].Displacement)
	assert.Equal(t, 1, byName["x"].Level)
	assert.Equal(t, "UnknownAddress", byName["y"].Kind)
	assert.Equal(t, -1, byName["y"].Displacement)
	assert.Equal(t, tam.LinkSize, byName["local"].Displacement)
	assert.Equal(t, 1, byName["local"].Level)
}

func TestEncodeSourceLines(t *testing.T) {
	p, _ := encode(t, "let var x: Integer\nin begin\n  x := 1;\n  putint(x)\nend", false)
	require.NotNil(t, p)
	require.Len(t, p.Lines, len(p.Code))
	assert.Equal(t, 1, p.Lines[0])
	assert.Equal(t, 3, p.Lines[1])
	assert.Equal(t, 4, p.Lines[len(p.Lines)-3])
}

func TestEncodeRestrictions(t *testing.T) {
	// p1 declares p2 in its body, and so on down to p7.
	var sb strings.Builder
	sb.WriteString("let\n")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&sb, "proc p%d() ~ let\n", i)
	}
	sb.WriteString("var x: Integer in x := 1\n")
	for i := 7; i >= 1; i-- {
		fmt.Fprintf(&sb, "in p%d()\n", i)
	}

	prog, err := syntax.Parse(sb.String())
	require.NoError(t, err)
	reporter := diag.NewReporter()
	info := checker.Check(prog, reporter)
	require.Zero(t, reporter.ErrorCount(), reporter.Messages())

	assert.Nil(t, Encode(prog, info, reporter))
	require.Len(t, reporter.Diagnostics(), 1)
	d := reporter.Diagnostics()[0]
	assert.Equal(t, diag.Restriction, d.Severity)
	assert.Equal(t, "can't nest routines more than 6 deep", d.Message)
}

func TestEncodeSkipsAfterErrors(t *testing.T) {
	prog, err := syntax.Parse("let var x: Boolean in x := 1")
	require.NoError(t, err)
	reporter := diag.NewReporter()
	info := checker.Check(prog, reporter)
	require.Equal(t, 1, reporter.ErrorCount())

	assert.Nil(t, Encode(prog, info, reporter))
	assert.Equal(t, 1, reporter.ErrorCount())
}

func TestEmitterOverflow(t *testing.T) {
	reporter := diag.NewReporter()
	e := NewEmitter(reporter)
	for i := 0; i < tam.PrimitiveBase+10; i++ {
		e.Emit(tam.PUSH, 0, 0, 0)
	}
	assert.Equal(t, 1, reporter.ErrorCount())
	assert.Equal(t, tam.PrimitiveBase+10, e.Next())
}

func TestEmitterPatch(t *testing.T) {
	e := NewEmitter(diag.NewReporter())
	j := e.Emit(tam.JUMP, 0, tam.CB, 0)
	e.At(ast.Pos{Line: 7})
	e.Emit(tam.HALT, 0, 0, 0)
	e.PatchHere(j)
	assert.Equal(t, 2, e.Code()[j].D)
	assert.Equal(t, []int{0, 7}, e.Lines())
}
