package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"gotam/pkg/ast"
)

func TestReporter(t *testing.T) {
	var echo bytes.Buffer
	r := NewReporter()
	r.Echo = &echo

	r.Errorf(ast.Pos{Line: 2, Col: 5}, "%q is not declared", "x")
	r.Warnf(ast.Pos{}, "unused")
	r.Restrictionf(ast.Pos{Line: 9, Col: 1}, "too deep")

	assert.Equal(t, 2, r.ErrorCount(), "warnings do not count")
	assert.Equal(t, []string{`"x" is not declared`, "unused", "too deep"}, r.Messages())
	assert.Equal(t, "ERROR: \"x\" is not declared 2:5\nWARNING: unused -\nRESTRICTION: too deep 9:1\n", echo.String())

	diags := r.Diagnostics()
	diags[0].Message = "changed"
	assert.Equal(t, `"x" is not declared`, r.Diagnostics()[0].Message)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "ERROR", Error.String())
	assert.Equal(t, "Severity(7)", Severity(7).String())
}
