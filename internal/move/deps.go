package move

import (
	"sort"

	"github.com/phobologic/pyrefactor/internal/rename"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// MissingImports returns the names def uses that a top-level import of
// source binds and no top-level import of dest does. Moving def without
// those imports leaves the names undefined at the destination.
func MissingImports(source, dest, def *syntax.Node) []string {
	bound := importBindings(source)
	if len(bound) == 0 {
		return nil
	}
	have := importBindings(dest)

	var names []string
	seen := make(map[string]bool)
	syntax.Walk(def, visitor(func(n *syntax.Node) {
		if n.Kind != syntax.Identifier || n.Field == "attribute" || n.Field == "name" {
			return
		}
		if bound[n.Text] && !have[n.Text] && !seen[n.Text] {
			seen[n.Text] = true
			names = append(names, n.Text)
		}
	}))
	sort.Strings(names)
	return names
}

// importBindings returns the local names bound by module's top-level
// imports.
func importBindings(module *syntax.Node) map[string]bool {
	names := make(map[string]bool)
	if module == nil {
		return names
	}
	var imports rename.ImportTracker
	for _, stmt := range module.Children {
		if !syntax.IsImportStatement(stmt) {
			continue
		}
		syntax.Walk(stmt, hooks{
			enter: func(n *syntax.Node) {
				imports.Enter(n)
				if a := imports.Alias; a != nil && a.Node == n {
					names[rootName(a.Binding())] = true
				}
			},
			leave: imports.Leave,
		})
	}
	return names
}

// hooks adapts a pair of functions to syntax.Transformer for read-only walks.
type hooks struct {
	enter func(*syntax.Node)
	leave func(*syntax.Node)
}

func (h hooks) Enter(n *syntax.Node) {
	if h.enter != nil {
		h.enter(n)
	}
}

func (h hooks) Leave(original, updated *syntax.Node) *syntax.Node {
	if h.leave != nil {
		h.leave(original)
	}
	return updated
}

func visitor(enter func(*syntax.Node)) hooks {
	return hooks{enter: enter}
}
