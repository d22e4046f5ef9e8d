package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPathInfo(t *testing.T) {
	full, dir, err := GetPathInfo(filepath.Join("a", "..", "b", "prog.tri"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(full))
	assert.Equal(t, "prog.tri", filepath.Base(full))
	assert.Equal(t, "b", filepath.Base(dir))
}

func TestReadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.tri")
	require.NoError(t, os.WriteFile(path, []byte("begin\r\n  puteol()\r\nend\r\n"), 0o644))

	src, err := ReadSource(path)
	require.NoError(t, err)
	assert.Equal(t, "begin\n  puteol()\nend\n", src)

	_, err = ReadSource(filepath.Join(t.TempDir(), "missing.tri"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWithExt(t *testing.T) {
	assert.Equal(t, "prog.tam", WithExt("prog.s", ".tam"))
	assert.Equal(t, filepath.Join("dir", "prog.tam"), WithExt(filepath.Join("dir", "prog"), ".tam"))
}
