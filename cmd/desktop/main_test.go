package main

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotam/pkg/compiler"
	"gotam/pkg/tam"
)

func wait(t *testing.T, s *session) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("program did not finish")
	}
}

func TestSessionEchoesInput(t *testing.T) {
	res := compiler.Compile("upper.tri", `
let var c: Char in begin
  get(var c);
  while c \= '.' do begin put(chr(ord(c) - 32)); get(var c) end;
  puteol()
end`, compiler.Options{})
	require.True(t, res.Success, res.Messages())

	s, err := start(res.Code, 0)
	require.NoError(t, err)
	assert.Equal(t, "running", s.status())

	for _, r := range "hi." {
		s.Type(r)
	}
	wait(t, s)

	assert.Equal(t, "halted", s.status())
	// Typed keys are echoed as they arrive, so the program's output may be
	// interleaved with them; every character must be there once.
	first := s.screen.Lines()[0]
	assert.Len(t, first, 5)
	for _, r := range "hiHI." {
		assert.ContainsRune(t, first, r)
	}
}

func TestSessionReportsFailure(t *testing.T) {
	res := compiler.Compile("div.tri", "let var z: Integer in begin z := 0; putint(1 / z) end", compiler.Options{})
	require.True(t, res.Success, res.Messages())

	s, err := start(res.Code, 0)
	require.NoError(t, err)
	wait(t, s)
	assert.ErrorIs(t, s.err, tam.ErrZeroDivide)
	assert.Contains(t, s.status(), "stopped: ")
}

func TestKeyboardReadUnblocksOnClose(t *testing.T) {
	k := newKeyboard()
	k.Push('a')
	k.Push('b')

	buf := make([]byte, 8)
	n, err := k.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(buf[:n]))

	go func() {
		time.Sleep(10 * time.Millisecond)
		k.Close()
	}()
	_, err = k.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
	k.Close()
}

func TestLoadObjectFile(t *testing.T) {
	res := compiler.Compile("seven.tri", "putint(7)", compiler.Options{})
	require.True(t, res.Success)
	path := filepath.Join(t.TempDir(), "seven.tam")
	require.NoError(t, tam.SaveObject(path, res.Code))

	code, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, res.Code, code)

	_, err = load(filepath.Join(t.TempDir(), "missing.tri"))
	assert.Error(t, err)
}
