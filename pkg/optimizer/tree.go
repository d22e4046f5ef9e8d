package optimizer

import (
	"sort"
	"strings"

	"gotam/pkg/ast"
	"gotam/pkg/checker"
)

// Tree renders prog with every folded expression shown as its replacement
// literal. Identical constant subtrees always fold to the same literal, so
// the substitution is done on the rendered text, longest expression first.
func Tree(prog *ast.Program, info *checker.Info) string {
	out := prog.String()
	if info == nil || len(info.Folded) == 0 {
		return out
	}

	type rewrite struct{ from, to string }
	seen := make(map[string]bool)
	var rewrites []rewrite
	for e := range info.Folded {
		from := e.String()
		if seen[from] {
			continue
		}
		seen[from] = true
		rewrites = append(rewrites, rewrite{from, info.Expr(e).String()})
	}
	sort.Slice(rewrites, func(i, j int) bool {
		if len(rewrites[i].from) != len(rewrites[j].from) {
			return len(rewrites[i].from) > len(rewrites[j].from)
		}
		return rewrites[i].from < rewrites[j].from
	})

	pairs := make([]string, 0, 2*len(rewrites))
	for _, r := range rewrites {
		pairs = append(pairs, r.from, r.to)
	}
	return strings.NewReplacer(pairs...).Replace(out)
}
