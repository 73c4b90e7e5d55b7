package move

import "github.com/phobologic/pyrefactor/internal/syntax"

// Extractor removes the top-level definition of a symbol from the module it
// walks and keeps it, with the comment lines attached above it, for an
// Inserter.
type Extractor struct {
	symbol   string
	reimport *syntax.Node

	top   map[*syntax.Node]bool
	found []*syntax.Node
	// The definition being traversed; its own identifiers are not uses.
	inside *syntax.Node
	uses   int

	unit *syntax.Node
	err  error
}

// NewExtractor returns an Extractor for symbol.
func NewExtractor(symbol string) *Extractor {
	return &Extractor{symbol: symbol}
}

// Reimport sets a statement added to the module's import block when code
// left behind still refers to the symbol.
func (e *Extractor) Reimport(stmt *syntax.Node) {
	e.reimport = stmt
}

// Definition returns the extracted definition, or nil before a successful
// walk.
func (e *Extractor) Definition() *syntax.Node {
	return e.unit
}

// Err returns why nothing was extracted.
func (e *Extractor) Err() error {
	return e.err
}

func (e *Extractor) Enter(n *syntax.Node) {
	switch {
	case n.Kind == syntax.Module:
		e.top = make(map[*syntax.Node]bool, len(n.Children))
		for _, c := range n.Children {
			e.top[c] = true
		}
	case e.top[n] && syntax.IsDefinition(n) && syntax.DefinitionName(n) == e.symbol:
		e.found = append(e.found, n)
		e.inside = n
	case n.Kind == syntax.Identifier && e.inside == nil && n.Text == e.symbol:
		// Attribute and keyword names are not references to the symbol.
		if n.Field != "attribute" && n.Field != "name" {
			e.uses++
		}
	}
}

func (e *Extractor) Leave(original, updated *syntax.Node) *syntax.Node {
	if original == e.inside {
		e.inside = nil
	}
	if original.Kind != syntax.Module {
		return updated
	}

	switch len(e.found) {
	case 0:
		e.err = &DefinitionError{Symbol: e.symbol, Err: ErrDefinitionNotFound}
		return updated
	case 1:
	default:
		e.err = &DefinitionError{Symbol: e.symbol, Lines: lines(e.found), Err: ErrAmbiguousDefinition}
		return updated
	}

	// The extractor never rebuilds top-level statements, so the originals
	// are still the module's children.
	unit := attached(updated, updated.IndexOf(e.found[0]))
	e.unit = syntax.NewGroup(unit, syntax.LineBreak)

	out := syntax.RemoveStatements(updated, unit...)
	if e.uses > 0 && e.reimport != nil {
		out = syntax.InsertStatements(out, syntax.ImportBoundary(out), []*syntax.Node{e.reimport}, syntax.LineBreak)
	}
	return out
}
