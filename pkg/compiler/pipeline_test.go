package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotam/pkg/ast"
	"gotam/pkg/diag"
)

func TestCompileBanners(t *testing.T) {
	var log bytes.Buffer
	res := Compile("ok.tri", "putint(1)", Options{Log: &log})
	require.True(t, res.Success)

	lines := strings.Split(strings.TrimSpace(log.String()), "\n")
	assert.Equal(t, []string{
		"********** Triangle Compiler (gotam) **********",
		"Syntactic Analysis ...",
		"Contextual Analysis ...",
		"Code Generation ...",
		"Compilation was successful.",
	}, lines)
}

func TestCompileReportsDiagnosticsInOrder(t *testing.T) {
	var log bytes.Buffer
	res := Compile("bad.tri", "let var b: Boolean in begin b := 1; putint(b) end", Options{Log: &log})

	assert.False(t, res.Success)
	assert.Nil(t, res.Code)
	assert.Nil(t, res.DebugInfo())
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, diag.Error, res.Diagnostics[0].Severity)
	assert.Less(t, res.Diagnostics[0].Pos.Col, res.Diagnostics[1].Pos.Col)

	out := log.String()
	assert.Contains(t, out, "ERROR: assignment incompatibility: Boolean := Integer")
	assert.NotContains(t, out, "Code Generation ...")
	assert.True(t, strings.HasSuffix(out, "Compilation was unsuccessful.\n"))
}

func TestCompileShowsStatsAfterCheckErrors(t *testing.T) {
	var log bytes.Buffer
	res := Compile("bad.tri", "begin putint('a'); putint(1 + 2) end", Options{ShowStats: true, Log: &log})

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Stats.CharacterExpressions)
	assert.Equal(t, 2, res.Stats.IntegerExpressions)

	out := log.String()
	assert.Contains(t, out, "=== Program Statistics ===\nCharacter Expressions: 1\nInteger Expressions: 2\n")
	assert.Less(t, strings.Index(out, "ERROR: "), strings.Index(out, "=== Program Statistics ==="))
	assert.NotContains(t, out, "Code Generation ...")
}

func TestCompileWarningDoesNotFail(t *testing.T) {
	var log bytes.Buffer
	res := Compile("warn.tri", "let var x: Integer in begin x := 1; if x = 0 then putint(1 / 0) else putint(x) end",
		Options{Folding: true, Log: &log})

	require.True(t, res.Success, res.Messages())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.Warning, res.Diagnostics[0].Severity)
	assert.Contains(t, log.String(), "WARNING: division by zero")
}

func TestCompileSyntaxError(t *testing.T) {
	var log bytes.Buffer
	res := Compile("syntax.tri", "let var x: Integer\nx := 1", Options{Log: &log})

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, `"in" expected here, found "x"`, d.Message)
	assert.Equal(t, ast.Pos{Line: 2, Col: 1}, d.Pos)
	assert.Nil(t, res.Unit.Program)
	assert.NotContains(t, log.String(), "Contextual Analysis ...")
	assert.Contains(t, log.String(), "|> x := 1")
}

func TestCompileListings(t *testing.T) {
	var log bytes.Buffer
	res := Compile("listing.tri", "let const k ~ 2 + 3; var x: Integer in x := k", Options{
		Folding:       true,
		ShowTree:      true,
		ShowTreeAfter: true,
		ShowStats:     true,
		ShowTable:     true,
		Log:           &log,
	})
	require.True(t, res.Success, res.Messages())
	assert.Equal(t, 1, res.Folds)

	out := log.String()
	assert.Contains(t, out, "(2 + 3)")
	assert.Contains(t, out, "=== Program Statistics ===\nCharacter Expressions: 0\nInteger Expressions: 2\n")
	assert.Regexp(t, `k\s+KnownValue\s+0\s+=5\s+1`, out)
	assert.Regexp(t, `x\s+KnownAddress\s+0\s+0\s+1`, out)
}

func TestUnitStagesAreGuarded(t *testing.T) {
	u := NewUnit("guard.tri", "putint(1 + 1)", Options{})
	assert.Zero(t, u.Fold(), "fold before check")
	assert.Nil(t, u.Encode(), "encode before check")

	require.True(t, u.Parse())
	require.True(t, u.Check())
	assert.Equal(t, 1, u.Fold())
	assert.Zero(t, u.Fold(), "second fold")

	obj := u.Encode()
	require.NotNil(t, obj)
	dbg := u.DebugInfo()
	require.NotNil(t, dbg)
	assert.True(t, dbg.Matches(obj.Code))
	assert.Equal(t, "guard.tri", dbg.Source)
	assert.Equal(t, 1, dbg.Line(0))
}

func TestUnitFoldSkipsProgramsWithErrors(t *testing.T) {
	u := NewUnit("err.tri", "putint(1 + 'a')", Options{})
	require.True(t, u.Parse())
	assert.False(t, u.Check())
	assert.Zero(t, u.Fold())
	assert.Empty(t, u.Info.Folded)
}
