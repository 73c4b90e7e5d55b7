package rename

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/pyrefactor/internal/modpath"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// ErrWildcardImport is matched by errors reporting a star import of the
// module being refactored. Names bound that way cannot be resolved safely.
var ErrWildcardImport = errors.New("wildcard import is unsupported")

// WildcardError locates an unsupported "from module import *".
type WildcardError struct {
	Module string
	Line   int
}

func (e *WildcardError) Error() string {
	return fmt.Sprintf("line %d: cannot resolve names bound by \"from %s import *\"", e.Line, e.Module)
}

// Is makes errors.Is(err, ErrWildcardImport) hold.
func (e *WildcardError) Is(target error) bool {
	return target == ErrWildcardImport
}

// State is the position of the traversal relative to import statements.
type State uint8

const (
	Outside State = iota
	InImport
	InFromImport
)

// ImportedName is one name of an import statement.
type ImportedName struct {
	// Path is the dotted name as imported ("func", "pkg.base").
	Path string
	// As is the alias, or "".
	As   string
	Node *syntax.Node
}

// Binding returns the local name the import binds: the alias if present,
// otherwise the imported path.
func (a ImportedName) Binding() string {
	if a.As != "" {
		return a.As
	}
	return a.Path
}

// ImportTracker follows the traversal through import statements. Both
// import-aware transformers embed it and forward their hooks to it.
type ImportTracker struct {
	// Importer is the file being processed; relative imports resolve
	// against its package.
	Importer modpath.Path

	State State
	// Statement is the import statement being traversed.
	Statement *syntax.Node
	// From is the resolved module path of the current from-import. It is
	// empty when a relative import climbs above the top-level package.
	From string
	// Relative is set when the from-import used leading dots.
	Relative bool
	// Names counts the names the current statement imports.
	Names    int
	Wildcard bool
	// Alias is the imported name being traversed, or nil.
	Alias *ImportedName
}

// Enter updates the tracker on the way down.
func (t *ImportTracker) Enter(n *syntax.Node) {
	switch n.Kind {
	case syntax.Import:
		t.State = InImport
		t.Statement = n
		t.Names = len(n.ChildrenByField("name"))
	case syntax.ImportFrom:
		t.State = InFromImport
		t.Statement = n
		t.Names = len(n.ChildrenByField("name"))
		t.Wildcard = n.ChildOfKind(syntax.Wildcard) != nil
		t.From, t.Relative = t.resolveModule(n.ChildByField("module_name"))
	case syntax.ImportAlias:
		if t.State != Outside && n.Field == "name" {
			name := importedName(n)
			t.Alias = &name
		}
	}
}

// Leave updates the tracker on the way up.
func (t *ImportTracker) Leave(original *syntax.Node) {
	switch original.Kind {
	case syntax.ImportAlias:
		if t.Alias != nil && t.Alias.Node == original {
			t.Alias = nil
		}
	case syntax.Import, syntax.ImportFrom:
		*t = ImportTracker{Importer: t.Importer}
	}
}

// CheckWildcard returns a *WildcardError when the current statement is a
// star import of module.
func (t *ImportTracker) CheckWildcard(module string) error {
	if t.State != InFromImport || !t.Wildcard || t.From != module || module == "" {
		return nil
	}
	return &WildcardError{Module: module, Line: t.Statement.Line}
}

// InAliasName reports whether ident is part of the imported name currently
// being traversed, as opposed to its alias.
func (t *ImportTracker) InAliasName(ident *syntax.Node) bool {
	return t.Alias != nil && ident.Field != "alias"
}

func (t *ImportTracker) resolveModule(m *syntax.Node) (string, bool) {
	if m == nil {
		return "", false
	}
	if m.Kind != syntax.RelativeImport {
		path, _ := syntax.DottedText(m)
		return path, false
	}

	dots := 0
	if prefix := m.ChildOfKind(syntax.ImportPrefix); prefix != nil {
		dots = strings.Count(prefix.String(), ".")
	}
	var name string
	if dn := m.ChildOfKind(syntax.DottedName); dn != nil {
		name, _ = syntax.DottedText(dn)
	}
	path, ok := t.Importer.ResolveRelative(dots, name)
	if !ok {
		return "", true
	}
	return path, true
}

func importedName(n *syntax.Node) ImportedName {
	if n.Type == "aliased_import" {
		path, _ := syntax.DottedText(n.ChildByField("name"))
		var as string
		if alias := n.ChildByField("alias"); alias != nil {
			as = alias.Text
		}
		return ImportedName{Path: path, As: as, Node: n}
	}
	path, _ := syntax.DottedText(n)
	return ImportedName{Path: path, Node: n}
}
