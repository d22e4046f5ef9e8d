package optimizer

import (
	"fmt"
	"io"

	"gotam/pkg/ast"
	"gotam/pkg/checker"
)

// Stats counts the literal expressions of a program.
type Stats struct {
	CharacterExpressions int
	IntegerExpressions   int
}

// CountLiterals walks prog as later passes see it, so after folding it
// counts the replacement literals rather than the folded subtrees. info may
// be nil to count the tree as parsed.
func CountLiterals(prog *ast.Program, info *checker.Info) Stats {
	var s Stats
	var visit func(ast.Node) bool
	visit = func(n ast.Node) bool {
		e, ok := n.(ast.Expression)
		if !ok {
			return true
		}
		if info != nil {
			if r := info.Expr(e); r != e {
				ast.Inspect(r, visit)
				return false
			}
		}
		switch e.(type) {
		case *ast.CharacterExpression:
			s.CharacterExpressions++
		case *ast.IntegerExpression:
			s.IntegerExpressions++
		}
		return true
	}
	ast.Inspect(prog, visit)
	return s
}

func (s Stats) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Program Statistics ===")
	fmt.Fprintf(w, "Character Expressions: %d\n", s.CharacterExpressions)
	fmt.Fprintf(w, "Integer Expressions: %d\n", s.IntegerExpressions)
	fmt.Fprintln(w, "=========================")
}
