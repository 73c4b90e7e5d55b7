package move

import (
	"github.com/phobologic/pyrefactor/internal/modpath"
	"github.com/phobologic/pyrefactor/internal/rename"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// Inserter adds an extracted definition to the module it walks, right after
// the leading import block. Top-level imports of the symbol from its old
// module are dropped, since the destination now defines it.
type Inserter struct {
	imports rename.ImportTracker
	unit    *syntax.Node
	symbol  string
	source  modpath.Path

	top    map[*syntax.Node]bool
	marked []*syntax.Node
	drop   []*syntax.Node

	err error
}

// NewInserter returns an Inserter placing unit, the definition of symbol
// extracted from source, into destination.
func NewInserter(unit *syntax.Node, source, destination modpath.Path) *Inserter {
	return &Inserter{
		imports: rename.ImportTracker{Importer: destination},
		unit:    unit,
		symbol:  syntax.DefinitionName(unit),
		source:  source,
	}
}

// Err returns why the definition was not inserted.
func (in *Inserter) Err() error {
	return in.err
}

func (in *Inserter) Enter(n *syntax.Node) {
	in.imports.Enter(n)
	switch n.Kind {
	case syntax.Module:
		in.top = make(map[*syntax.Node]bool, len(n.Children))
		for _, c := range n.Children {
			in.top[c] = true
		}
	case syntax.ImportAlias:
		a := in.imports.Alias
		if a == nil || a.Node != n || !in.top[in.imports.Statement] {
			return
		}
		if in.imports.State == rename.InFromImport && in.imports.From == in.source.Full &&
			a.Path == in.symbol && a.As == "" {
			in.marked = append(in.marked, n)
		}
	}
}

func (in *Inserter) Leave(original, updated *syntax.Node) *syntax.Node {
	switch original.Kind {
	case syntax.ImportFrom:
		updated = in.leaveImport(original, updated)
	case syntax.Module:
		updated = in.leaveModule(updated)
	}
	in.imports.Leave(original)
	return updated
}

func (in *Inserter) leaveImport(original, updated *syntax.Node) *syntax.Node {
	marked := in.marked
	in.marked = nil
	if len(marked) == 0 {
		return updated
	}
	if len(marked) == in.imports.Names {
		in.drop = append(in.drop, original)
		return updated
	}
	for _, m := range marked {
		updated = syntax.RemoveListItem(updated, m)
	}
	return updated
}

func (in *Inserter) leaveModule(updated *syntax.Node) *syntax.Node {
	if existing := TopLevelDefinitions(updated, in.symbol); len(existing) > 0 {
		in.err = &DefinitionError{Symbol: in.symbol, Lines: lines(existing), Err: ErrDefinitionExists}
		return updated
	}
	out := syntax.RemoveStatements(updated, in.drop...)
	return syntax.InsertStatements(out, syntax.ImportBoundary(out), []*syntax.Node{in.unit}, syntax.DefinitionBreak)
}
