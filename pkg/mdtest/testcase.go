// Package mdtest extracts compiler test cases from Markdown documents.
//
// A test starts at a heading "Test: <name>". It has exactly one `triangle`
// fence holding the program, an optional `input` fence with the program's
// standard input, and one or more assertion fences:
//
//	output         expected standard output of the compiled program
//	compile-error  expected diagnostics, one message per line
//	ast            expected tree, as printed by ast.Program.String
//	stats          expected literal statistics
//	code           expected disassembly
package mdtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const sourceFence = "triangle"

// AssertionType is the language tag of an assertion fence.
type AssertionType string

const (
	AssertionOutput       AssertionType = "output"
	AssertionCompileError AssertionType = "compile-error"
	AssertionAST          AssertionType = "ast"
	AssertionStats        AssertionType = "stats"
	AssertionCode         AssertionType = "code"

	// input is not an assertion, but it may appear anywhere in a test.
	inputFence AssertionType = "input"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

type TestCase struct {
	Name       string
	Source     string
	Input      string
	Folding    bool
	Assertions []Assertion
	Line       int
}

// ExtractTestCases parses a Markdown document and returns its test cases in
// document order. A heading "Test: name (folding)" compiles with constant
// folding enabled.
func ExtractTestCases(markdown string) ([]TestCase, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []TestCase
	var current *TestCase

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			name := strings.TrimPrefix(heading, "Test: ")
			folding := false
			if trimmed, ok := strings.CutSuffix(name, " (folding)"); ok {
				name, folding = trimmed, true
			}
			current = &TestCase{Name: name, Folding: folding, Line: lineOf(n, source)}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			content := codeBlockContent(n, source)
			line := lineOf(n, source)

			if current == nil {
				if lang != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of a test case", line, lang)
				}
				return ast.WalkContinue, nil
			}

			switch {
			case lang == sourceFence:
				if current.Source != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple %s fences in test %q", line, sourceFence, current.Name)
				}
				current.Source = content
			case AssertionType(lang) == inputFence:
				current.Input = content
			case isAssertion(lang):
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(lang),
					Content: strings.TrimRight(content, "\n"),
					Line:    line,
				})
			case lang == "":
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language %q in test %q", line, lang, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking markdown: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func isAssertion(lang string) bool {
	switch AssertionType(lang) {
	case AssertionOutput, AssertionCompileError, AssertionAST, AssertionStats, AssertionCode:
		return true
	}
	return false
}

func validate(tc *TestCase) error {
	if tc.Source == "" {
		return fmt.Errorf("line %d: test %q has no %s fence", tc.Line, tc.Name, sourceFence)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("line %d: test %q has no assertion fences", tc.Line, tc.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func codeBlockContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line a node starts on. For a fenced block that
// is the line of the opening fence.
func lineOf(node ast.Node, source []byte) int {
	var start int
	fence, isFence := node.(*ast.FencedCodeBlock)
	switch {
	case isFence && fence.Info != nil:
		start = fence.Info.Segment.Start
	case node.Lines().Len() > 0:
		start = node.Lines().At(0).Start
	case node.FirstChild() != nil:
		if t, ok := node.FirstChild().(*ast.Text); ok {
			start = t.Segment.Start
		}
	}
	return bytes.Count(source[:min(start, len(source))], []byte("\n")) + 1
}
