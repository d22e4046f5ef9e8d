package checker

import (
	"sort"

	"gotam/pkg/ast"
)

// Binding is one identifier known to the table.
type Binding struct {
	Decl  ast.Declaration
	Level int
}

// IdentificationTable maps identifier spellings to declarations. It is a
// stack of scopes; scope 0 holds the standard environment and every
// OpenScope adds one level.
type IdentificationTable struct {
	scopes []map[string]Binding
}

func NewIdentificationTable() *IdentificationTable {
	return &IdentificationTable{scopes: []map[string]Binding{{}}}
}

// Level is the nesting level of the innermost open scope.
func (t *IdentificationTable) Level() int { return len(t.scopes) - 1 }

func (t *IdentificationTable) OpenScope() {
	t.scopes = append(t.scopes, map[string]Binding{})
}

// CloseScope discards every binding made since the matching OpenScope. The
// standard environment scope is never closed.
func (t *IdentificationTable) CloseScope() {
	if len(t.scopes) > 1 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}

// Enter binds name in the innermost scope. It returns false, and leaves the
// earlier binding in place, if name is already declared in that scope.
func (t *IdentificationTable) Enter(name string, decl ast.Declaration) bool {
	scope := t.scopes[len(t.scopes)-1]
	if _, exists := scope[name]; exists {
		return false
	}
	scope[name] = Binding{Decl: decl, Level: t.Level()}
	return true
}

// Retrieve finds the innermost declaration of name.
func (t *IdentificationTable) Retrieve(name string) (ast.Declaration, bool) {
	b, ok := t.Lookup(name)
	return b.Decl, ok
}

func (t *IdentificationTable) Lookup(name string) (Binding, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if b, ok := t.scopes[i][name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// VisibleNames lists every name that Retrieve would find, sorted.
func (t *IdentificationTable) VisibleNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, scope := range t.scopes {
		for name := range scope {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
