package compiler_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotam/pkg/compiler"
	"gotam/pkg/mdtest"
	"gotam/pkg/optimizer"
	"gotam/pkg/tam"
	"gotam/pkg/tamasm"
)

func TestMarkdownSuites(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*_test.md"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), "_test.md"), func(t *testing.T) {
			data, err := os.ReadFile(file)
			require.NoError(t, err)
			cases, err := mdtest.ExtractTestCases(string(data))
			require.NoError(t, err)

			for _, tc := range cases {
				t.Run(tc.Name, func(t *testing.T) {
					runCase(t, file, tc)
				})
			}
		})
	}
}

func runCase(t *testing.T, file string, tc mdtest.TestCase) {
	t.Helper()
	res := compiler.Compile(file, tc.Source, compiler.Options{Folding: tc.Folding})

	for _, a := range tc.Assertions {
		switch a.Type {
		case mdtest.AssertionCompileError:
			assert.False(t, res.Success, "%s:%d: expected compilation to fail", file, a.Line)
			assert.Equal(t, strings.Split(a.Content, "\n"), res.Messages(), "%s:%d", file, a.Line)

		case mdtest.AssertionOutput:
			require.True(t, res.Success, "%s:%d: %v", file, a.Line, res.Messages())
			out := execute(t, res.Code, tc.Input)
			assert.Equal(t, a.Content, strings.TrimRight(out, "\n"), "%s:%d", file, a.Line)

		case mdtest.AssertionStats:
			var buf bytes.Buffer
			res.Stats.Print(&buf)
			assert.Equal(t, a.Content, strings.TrimRight(buf.String(), "\n"), "%s:%d", file, a.Line)

		case mdtest.AssertionAST:
			u := res.Unit
			require.NotNil(t, u.Program, "%s:%d: %v", file, a.Line, res.Messages())
			assert.Equal(t, a.Content, optimizer.Tree(u.Program, u.Info), "%s:%d", file, a.Line)

		case mdtest.AssertionCode:
			require.True(t, res.Success, "%s:%d: %v", file, a.Line, res.Messages())
			var buf bytes.Buffer
			require.NoError(t, tamasm.Disassemble(&buf, res.Code, nil))
			if diff := cmp.Diff(a.Content, strings.TrimRight(buf.String(), "\n")); diff != "" {
				t.Errorf("%s:%d: listing mismatch (-want +got):\n%s", file, a.Line, diff)
			}
		}
	}
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
