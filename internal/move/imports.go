package move

import (
	"context"
	"fmt"
	"strings"

	"github.com/phobologic/pyrefactor/internal/modpath"
	"github.com/phobologic/pyrefactor/internal/rename"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// ImportRewriter redirects the imports of a file that depends on a moved
// symbol:
//
//   - from source import sym [as alias] loses the name (or the whole
//     statement) and "from destination import sym [as alias]" is added.
//   - from source.parent import source_leaf [as alias] and
//     import source [as alias] bind the old module; accesses binding.sym are
//     retargeted to the destination module, which gets its own import. The
//     old import is removed once nothing else uses it.
//
// Added imports go after the file's leading import block, in the order they
// were needed. Imports inside blocks are rewritten in place.
type ImportRewriter struct {
	ctx    context.Context
	parser *syntax.Parser

	imports rename.ImportTracker
	targets rename.TargetSet
	lines   syntax.LineTracker
	symbol  string
	source  modpath.Path
	dest    modpath.Path

	top map[*syntax.Node]bool
	// Names of the current statement importing the symbol directly, and
	// the statements that replace them.
	dropNames []*syntax.Node
	added     []*syntax.Node

	drop     []*syntax.Node
	queue    []*syntax.Node
	queued   map[string]bool
	bindings map[string]*moduleBinding
	order    []string

	qualified  []bool
	uses       map[string]int
	retargeted map[string]int
	exprs      map[string]*syntax.Node

	err error
}

// moduleBinding is a local name bound to the source module.
type moduleBinding struct {
	// Replacement is the expression naming the destination module.
	Replacement string
	// Statement imports the destination module under Replacement.
	Statement string
	// Alias is the imported name in the original statement.
	Alias *syntax.Node
	// Import is the statement that created the binding.
	Import *syntax.Node
}

// NewImportRewriter returns a rewriter for importer, a file that may depend
// on symbol moving from source to dest. The parser synthesizes the new
// import statements and must not be in use elsewhere.
func NewImportRewriter(ctx context.Context, parser *syntax.Parser, symbol string, source, dest, importer modpath.Path) *ImportRewriter {
	return &ImportRewriter{
		ctx:        ctx,
		parser:     parser,
		imports:    rename.ImportTracker{Importer: importer},
		symbol:     symbol,
		source:     source,
		dest:       dest,
		queued:     make(map[string]bool),
		bindings:   make(map[string]*moduleBinding),
		uses:       make(map[string]int),
		retargeted: make(map[string]int),
		exprs:      make(map[string]*syntax.Node),
	}
}

// Err returns the first error met during the traversal: an unsupported
// construct or a failure to synthesize an import.
func (r *ImportRewriter) Err() error {
	return r.err
}

func (r *ImportRewriter) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *ImportRewriter) Enter(n *syntax.Node) {
	r.imports.Enter(n)
	r.lines.Enter(n)

	switch n.Kind {
	case syntax.Module:
		r.targets.Reset()
		r.top = make(map[*syntax.Node]bool, len(n.Children))
		for _, c := range n.Children {
			r.top[c] = true
		}
	case syntax.ImportFrom:
		if err := r.imports.CheckWildcard(r.source.Full); err != nil {
			r.fail(err)
		}
	case syntax.ImportAlias:
		if a := r.imports.Alias; a != nil && a.Node == n {
			r.classify(*a)
		}
	case syntax.Attribute:
		root := syntax.RootOf(n)
		r.qualified = append(r.qualified, root != nil && r.targets.HasModuleRoot(root.Text))
	case syntax.Identifier:
		if r.imports.State == rename.Outside && n.Field != "attribute" {
			r.uses[n.Text]++
		}
	}
}

func (r *ImportRewriter) classify(a rename.ImportedName) {
	switch r.imports.State {
	case rename.InFromImport:
		switch {
		case r.imports.From == r.source.Full && a.Path == r.symbol:
			stmt, err := r.parser.ParseStatement(r.ctx,
				fmt.Sprintf("from %s import %s%s", r.moduleRef(r.dest.Full), r.symbol, asClause(a.As)))
			if err != nil {
				r.fail(fmt.Errorf("synthesize import of %s: %w", r.symbol, err))
				return
			}
			r.dropNames = append(r.dropNames, a.Node)
			r.added = append(r.added, stmt)
		case r.source.Parent != "" && r.imports.From == r.source.Parent && a.Path == r.source.Leaf:
			stmt := "import " + r.dest.Leaf
			if r.dest.Parent != "" {
				stmt = fmt.Sprintf("from %s import %s", r.moduleRef(r.dest.Parent), r.dest.Leaf)
			}
			r.bind(a, r.dest.Leaf, stmt)
		}
	case rename.InImport:
		if a.Path != r.source.Full {
			return
		}
		if a.As != "" {
			r.bind(a, r.dest.Leaf, fmt.Sprintf("import %s as %s", r.dest.Full, r.dest.Leaf))
		} else {
			r.bind(a, r.dest.Full, "import "+r.dest.Full)
		}
	}
}

func (r *ImportRewriter) bind(a rename.ImportedName, replacement, stmt string) {
	name := a.Binding()
	r.targets.Add(name, rename.ModuleBinding)
	if _, ok := r.bindings[name]; !ok {
		r.order = append(r.order, name)
	}
	r.bindings[name] = &moduleBinding{
		Replacement: replacement,
		Statement:   stmt,
		Alias:       a.Node,
		Import:      r.imports.Statement,
	}
}

// moduleRef spells module the way the current statement spells its own:
// relative when the statement is relative and the module shares a package
// with the importer.
func (r *ImportRewriter) moduleRef(module string) string {
	if r.imports.Relative {
		if rel, ok := r.imports.Importer.Relative(module); ok {
			return rel
		}
	}
	return module
}

func asClause(alias string) string {
	if alias == "" {
		return ""
	}
	return " as " + alias
}

func (r *ImportRewriter) Leave(original, updated *syntax.Node) *syntax.Node {
	switch original.Kind {
	case syntax.Import, syntax.ImportFrom:
		updated = r.leaveStatement(original, updated)
	case syntax.Attribute:
		updated = r.leaveAttribute(original, updated)
	case syntax.Module:
		updated = r.leaveModule(updated)
	}
	r.imports.Leave(original)
	r.lines.Leave()
	return updated
}

func (r *ImportRewriter) leaveStatement(original, updated *syntax.Node) *syntax.Node {
	names, added := r.dropNames, r.added
	r.dropNames, r.added = nil, nil
	if len(names) == 0 {
		return updated
	}

	whole := len(names) == r.imports.Names
	if !whole {
		for _, n := range names {
			updated = syntax.RemoveListItem(updated, n)
		}
	}

	if r.top[original] {
		if whole {
			r.drop = append(r.drop, original)
		}
		for _, stmt := range added {
			r.enqueue(stmt)
		}
		return updated
	}

	// Inside a block: replace in place so the block never ends up empty.
	// A statement sharing its line with a block opener stays on that line.
	stmts := added
	if !whole {
		stmts = append([]*syntax.Node{updated}, added...)
	}
	sep := syntax.LineBreak + strings.Repeat(" ", original.Column)
	if !r.lines.StartsLine() {
		sep = "; "
	}
	return syntax.NewGroup(stmts, sep)
}

func (r *ImportRewriter) enqueue(stmt *syntax.Node) {
	text := stmt.String()
	if r.queued[text] {
		return
	}
	r.queued[text] = true
	r.queue = append(r.queue, stmt)
}

func (r *ImportRewriter) leaveAttribute(original, updated *syntax.Node) *syntax.Node {
	qualified := false
	if n := len(r.qualified); n > 0 {
		qualified = r.qualified[n-1]
		r.qualified = r.qualified[:n-1]
	}
	if !qualified || r.imports.State != rename.Outside {
		return updated
	}

	attr := original.ChildByField("attribute")
	if attr == nil || attr.Text != r.symbol {
		return updated
	}
	object, ok := syntax.DottedText(original.ChildByField("object"))
	if !ok {
		return updated
	}
	b, ok := r.bindings[object]
	if !ok {
		return updated
	}

	expr, err := r.expression(b.Replacement)
	if err != nil {
		r.fail(err)
		return updated
	}
	stmt, err := r.parser.ParseStatement(r.ctx, b.Statement)
	if err != nil {
		r.fail(fmt.Errorf("synthesize import of %s: %w", r.dest.Full, err))
		return updated
	}
	r.enqueue(stmt)
	r.retargeted[rootName(object)]++

	return updated.ReplaceChild(updated.ChildByField("object"), expr)
}

func (r *ImportRewriter) expression(text string) (*syntax.Node, error) {
	if expr, ok := r.exprs[text]; ok {
		return expr, nil
	}
	expr, err := r.parser.ParseExpression(r.ctx, text)
	if err != nil {
		return nil, fmt.Errorf("synthesize reference to %s: %w", text, err)
	}
	r.exprs[text] = expr
	return expr, nil
}

func (r *ImportRewriter) leaveModule(updated *syntax.Node) *syntax.Node {
	if r.err != nil {
		return updated
	}
	out := r.dropUnused(updated)
	out = syntax.RemoveStatements(out, r.drop...)
	return syntax.InsertStatements(out, syntax.ImportBoundary(out), r.queue, syntax.LineBreak)
}

// dropUnused removes top-level imports of the source module whose binding
// was only used to reach the moved symbol.
func (r *ImportRewriter) dropUnused(module *syntax.Node) *syntax.Node {
	unused := make(map[*syntax.Node][]*syntax.Node)
	var stmts []*syntax.Node
	for _, name := range r.order {
		b := r.bindings[name]
		root := rootName(name)
		if !r.top[b.Import] || r.retargeted[root] == 0 || r.uses[root] != r.retargeted[root] {
			continue
		}
		if _, ok := unused[b.Import]; !ok {
			stmts = append(stmts, b.Import)
		}
		unused[b.Import] = append(unused[b.Import], b.Alias)
	}

	for _, stmt := range stmts {
		aliases := unused[stmt]
		if len(aliases) == len(stmt.ChildrenByField("name")) {
			r.drop = append(r.drop, stmt)
			continue
		}
		reduced := stmt
		for _, a := range aliases {
			reduced = syntax.RemoveListItem(reduced, a)
		}
		module = module.ReplaceChild(stmt, reduced)
	}
	return module
}

func rootName(dotted string) string {
	root, _, _ := strings.Cut(dotted, ".")
	return root
}
