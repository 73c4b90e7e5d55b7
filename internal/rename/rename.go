// Package rename renames a top-level Python symbol in its defining file and
// updates the files that import it.
package rename

import "github.com/phobologic/pyrefactor/internal/syntax"

// Renamer replaces every identifier spelled oldName in a file with newName.
// Keyword names in calls ("f(old=...)") are parameter names of the callee,
// not references, and keep their spelling.
type Renamer struct {
	oldName string
	newName string

	// One entry per keyword argument being traversed: the keyword to put
	// back, or "" when the keyword is unrelated.
	restore []string
}

// NewRenamer returns a transformer renaming oldName to newName.
func NewRenamer(oldName, newName string) *Renamer {
	return &Renamer{oldName: oldName, newName: newName}
}

func (r *Renamer) Enter(n *syntax.Node) {
	if n.Kind == syntax.Argument {
		r.pushKeyword(n)
	}
}

func (r *Renamer) Leave(original, updated *syntax.Node) *syntax.Node {
	switch original.Kind {
	case syntax.Identifier:
		if original.Text == r.oldName {
			return r.rename(updated)
		}
	case syntax.Argument:
		return r.popKeyword(updated)
	}
	return updated
}

func (r *Renamer) rename(ident *syntax.Node) *syntax.Node {
	return ident.WithText(r.newName)
}

func (r *Renamer) pushKeyword(arg *syntax.Node) {
	var kw string
	if name := arg.ChildByField("name"); name != nil && name.Text == r.oldName {
		kw = name.Text
	}
	r.restore = append(r.restore, kw)
}

// popKeyword undoes any rename applied to the keyword of arg.
func (r *Renamer) popKeyword(arg *syntax.Node) *syntax.Node {
	if len(r.restore) == 0 {
		return arg
	}
	kw := r.restore[len(r.restore)-1]
	r.restore = r.restore[:len(r.restore)-1]
	if kw == "" {
		return arg
	}
	name := arg.ChildByField("name")
	if name == nil || name.Text == kw {
		return arg
	}
	return arg.ReplaceChild(name, name.WithText(kw))
}
