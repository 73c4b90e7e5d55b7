package rename

import (
	"github.com/phobologic/pyrefactor/internal/modpath"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// ImportRenamer updates a file that may import a renamed symbol. It only
// touches names that resolve to the symbol through the file's imports:
//
//   - from owner import old [as alias]: the imported name is renamed and,
//     when unaliased, later uses of old are renamed too.
//   - from owner.parent import owner_leaf [as alias]: attribute accesses
//     binding.old become binding.new.
//   - import owner [as alias]: likewise for owner.old or alias.old.
//
// A use that precedes the import binding it is not renamed.
type ImportRenamer struct {
	*Renamer
	imports ImportTracker
	targets TargetSet
	owner   modpath.Path

	// Set while traversing an imported name that is the symbol itself.
	renameImported bool
	// One entry per attribute being traversed: whether its chain is
	// rooted at a tracked module binding.
	qualified []bool

	err error
}

// NewImportRenamer returns a transformer for importer, a file that may
// import oldName from the module owner.
func NewImportRenamer(oldName, newName string, owner, importer modpath.Path) *ImportRenamer {
	return &ImportRenamer{
		Renamer: NewRenamer(oldName, newName),
		imports: ImportTracker{Importer: importer},
		owner:   owner,
	}
}

// Err returns the first unsupported construct met during the traversal.
func (r *ImportRenamer) Err() error {
	return r.err
}

// Targets returns the bindings discovered so far.
func (r *ImportRenamer) Targets() []Binding {
	return r.targets.Bindings()
}

func (r *ImportRenamer) Enter(n *syntax.Node) {
	r.imports.Enter(n)
	r.Renamer.Enter(n)

	switch n.Kind {
	case syntax.Module:
		r.targets.Reset()
	case syntax.ImportFrom:
		if err := r.imports.CheckWildcard(r.owner.Full); err != nil && r.err == nil {
			r.err = err
		}
	case syntax.ImportAlias:
		if a := r.imports.Alias; a != nil && a.Node == n {
			r.track(*a)
		}
	case syntax.Attribute:
		root := syntax.RootOf(n)
		r.qualified = append(r.qualified, root != nil && r.targets.HasModuleRoot(root.Text))
	}
}

// track records the binding an imported name creates, if it reaches the
// renamed symbol.
func (r *ImportRenamer) track(a ImportedName) {
	r.renameImported = false
	switch r.imports.State {
	case InFromImport:
		switch {
		case r.imports.From == r.owner.Full && a.Path == r.oldName:
			r.renameImported = true
			if a.As == "" {
				r.targets.Add(r.oldName, Symbol)
			}
		case r.owner.Parent != "" && r.imports.From == r.owner.Parent && a.Path == r.owner.Leaf:
			r.targets.Add(a.Binding(), ModuleBinding)
		}
	case InImport:
		if a.Path == r.owner.Full {
			r.targets.Add(a.Binding(), ModuleBinding)
		}
	}
}

func (r *ImportRenamer) Leave(original, updated *syntax.Node) *syntax.Node {
	switch original.Kind {
	case syntax.Identifier:
		updated = r.leaveIdentifier(original, updated)
	case syntax.Argument:
		updated = r.popKeyword(updated)
	case syntax.Attribute:
		updated = r.leaveAttribute(original, updated)
	case syntax.ImportAlias:
		if a := r.imports.Alias; a != nil && a.Node == original {
			r.renameImported = false
		}
	}
	r.imports.Leave(original)
	return updated
}

func (r *ImportRenamer) leaveIdentifier(original, updated *syntax.Node) *syntax.Node {
	if original.Text != r.oldName {
		return updated
	}
	switch {
	case r.imports.Alias != nil:
		if r.renameImported && r.imports.InAliasName(original) {
			return r.rename(updated)
		}
	case r.imports.State != Outside:
		// Module paths of import statements.
	case original.Field == "attribute":
		// Resolved by the enclosing attribute.
	case r.targets.Has(original.Text, Symbol):
		return r.rename(updated)
	}
	return updated
}

func (r *ImportRenamer) leaveAttribute(original, updated *syntax.Node) *syntax.Node {
	qualified := false
	if n := len(r.qualified); n > 0 {
		qualified = r.qualified[n-1]
		r.qualified = r.qualified[:n-1]
	}
	if !qualified || r.imports.State != Outside {
		return updated
	}

	attr := original.ChildByField("attribute")
	if attr == nil || attr.Text != r.oldName {
		return updated
	}
	object, ok := syntax.DottedText(original.ChildByField("object"))
	if !ok || !r.targets.Has(object, ModuleBinding) {
		return updated
	}
	cur := updated.ChildByField("attribute")
	return updated.ReplaceChild(cur, r.rename(cur))
}
