package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotam/pkg/compiler"
	"gotam/pkg/tam"
)

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func compileTo(t *testing.T, dir, src string, withDebug bool) string {
	t.Helper()
	res := compiler.Compile("prog.tri", src, compiler.Options{})
	require.True(t, res.Success, res.Messages())
	path := filepath.Join(dir, "prog.tam")
	require.NoError(t, tam.SaveObject(path, res.Code))
	if withDebug {
		require.NoError(t, tam.SaveDebugInfo(tam.DebugPath(path), res.DebugInfo()))
	}
	return path
}

func TestRun(t *testing.T) {
	obj := compileTo(t, t.TempDir(), "let var n: Integer in begin getint(var n); putint(n * 2) end", false)

	stdout, _, err := execute(t, "21\n", "run", obj)
	require.NoError(t, err)
	assert.Equal(t, "42", stdout)
}

func TestRunTrace(t *testing.T) {
	obj := compileTo(t, t.TempDir(), "begin\n  putint(1);\n  puteol()\nend", true)

	stdout, stderr, err := execute(t, "", "run", "--trace", obj)
	require.NoError(t, err)
	assert.Equal(t, "1\n", stdout)
	assert.Contains(t, stderr, "CALL putint")
	assert.Contains(t, stderr, "; line 2")
	assert.Contains(t, stderr, "; line 3")
}

func TestRunStepLimit(t *testing.T) {
	obj := compileTo(t, t.TempDir(), "while true do puteol()", false)

	_, _, err := execute(t, "", "run", "--max-steps", "100", obj)
	assert.ErrorIs(t, err, tam.ErrStepLimit)
}

func TestDisasmIgnoresStaleDebugInfo(t *testing.T) {
	dir := t.TempDir()
	obj := compileTo(t, dir, "putint(7)", true)
	other := compiler.Compile("other.tri", "putint(8)", compiler.Options{})
	require.NoError(t, tam.SaveDebugInfo(tam.DebugPath(obj), other.DebugInfo()))

	stdout, stderr, err := execute(t, "", "disasm", obj)
	require.NoError(t, err)
	assert.Contains(t, stdout, "LOADL 7")
	assert.NotContains(t, stdout, "; line")
	assert.Contains(t, stderr, "ignoring")
}

func TestAsmThenRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "count.s")
	require.NoError(t, os.WriteFile(src, []byte(`
        PUSH 1
        LOADL 0
        STORE (1) 0[SB]
loop:   LOAD (1) 0[SB]
        CALL putint
        LOAD (1) 0[SB]
        CALL succ
        STORE (1) 0[SB]
        LOAD (1) 0[SB]
        LOADL 3
        CALL lt
        JUMPIF (1) loop[CB]
        HALT
`), 0o644))

	_, _, err := execute(t, "", "asm", src)
	require.NoError(t, err)

	stdout, _, err := execute(t, "", "run", filepath.Join(dir, "count.tam"))
	require.NoError(t, err)
	assert.Equal(t, "012", stdout)
}
