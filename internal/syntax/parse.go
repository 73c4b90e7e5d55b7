package syntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyrefactor/internal/lang"
)

// ErrSyntax is matched by every error reporting unparsable source.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates the first error or missing token tree-sitter reported.
type SyntaxError struct {
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("syntax error at line %d, column %d near %q", e.Line, e.Column, e.Near)
	}
	return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
}

// Is makes errors.Is(err, ErrSyntax) hold.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

var kinds = map[string]Kind{
	"module":                  Module,
	"identifier":              Identifier,
	"attribute":               Attribute,
	"call":                    Call,
	"keyword_argument":        Argument,
	"import_statement":        Import,
	"import_from_statement":   ImportFrom,
	"future_import_statement": FutureImport,
	"aliased_import":          ImportAlias,
	"dotted_name":             DottedName,
	"relative_import":         RelativeImport,
	"import_prefix":           ImportPrefix,
	"wildcard_import":         Wildcard,
	"function_definition":     FunctionDef,
	"class_definition":        ClassDef,
	"decorated_definition":    Decorated,
	"block":                   Block,
	"comment":                 Comment,
}

func kindOf(typ, field, parentType string, named bool) Kind {
	if !named {
		return Other
	}
	// An unaliased imported name is a bare dotted_name; give it the same
	// kind as "name as alias" so both forms are handled alike.
	if typ == "dotted_name" && field == "name" &&
		(parentType == "import_statement" || parentType == "import_from_statement") {
		return ImportAlias
	}
	return kinds[typ]
}

// Parser turns Python source into trees. It wraps a tree-sitter parser and,
// like it, must not be shared between goroutines.
type Parser struct {
	p *sitter.Parser
}

// NewParser creates a Python parser.
func NewParser() *Parser {
	return &Parser{p: lang.Languages[lang.Python].NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.p.Close()
}

// Parse builds the tree for source. Source that tree-sitter can only parse
// with error recovery is rejected with a *SyntaxError.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Node, error) {
	if len(source) == 0 {
		return &Node{Kind: Module, Type: "module", Line: 1}, nil
	}

	tree, err := p.p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root node")
	}
	if root.HasError() {
		return nil, firstError(root, source)
	}

	// The root is widened to the whole input so leading and trailing
	// whitespace survive a round trip.
	return build(root, "", "", 0, uint32(len(source)), source)
}

// ParseStatement parses a single statement, such as a synthesized import.
func (p *Parser) ParseStatement(ctx context.Context, text string) (*Node, error) {
	mod, err := p.Parse(ctx, []byte(text))
	if err != nil {
		return nil, err
	}
	if len(mod.Children) != 1 {
		return nil, fmt.Errorf("%q is not a single statement", text)
	}
	stmt := mod.Children[0].WithField("")
	stmt.Line, stmt.Column = 0, 0
	return stmt, nil
}

// ParseExpression parses a single expression such as a dotted name.
func (p *Parser) ParseExpression(ctx context.Context, text string) (*Node, error) {
	stmt, err := p.ParseStatement(ctx, text)
	if err != nil {
		return nil, err
	}
	if stmt.Type != "expression_statement" || len(stmt.Children) != 1 {
		return nil, fmt.Errorf("%q is not an expression", text)
	}
	expr := stmt.Children[0].WithField("")
	expr.Line, expr.Column = 0, 0
	return expr, nil
}

func build(n *sitter.Node, field, parentType string, start, end uint32, source []byte) (*Node, error) {
	typ := n.Type()
	node := &Node{
		Kind:   kindOf(typ, field, parentType, n.IsNamed()),
		Type:   typ,
		Field:  field,
		Line:   int(n.StartPoint().Row) + 1,
		Column: int(n.StartPoint().Column),
	}

	count := int(n.ChildCount())
	if count == 0 {
		node.Text = string(source[start:end])
		return node, nil
	}

	node.Children = make([]*Node, 0, count)
	node.Gaps = make([]string, 0, count+1)
	pos := start
	for i := 0; i < count; i++ {
		child := n.Child(i)
		cs, ce := child.StartByte(), child.EndByte()
		if cs < pos || ce > end {
			return nil, fmt.Errorf("%w: overlapping %s node at line %d", ErrSyntax, child.Type(), child.StartPoint().Row+1)
		}
		c, err := build(child, n.FieldNameForChild(i), typ, cs, ce, source)
		if err != nil {
			return nil, err
		}
		node.Gaps = append(node.Gaps, string(source[pos:cs]))
		node.Children = append(node.Children, c)
		pos = ce
	}
	node.Gaps = append(node.Gaps, string(source[pos:end]))
	return node, nil
}

func firstError(root *sitter.Node, source []byte) error {
	n := root
	for {
		if n.IsMissing() || n.Type() == "ERROR" {
			break
		}
		var next *sitter.Node
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.HasError() || c.IsMissing() {
				next = c
				break
			}
		}
		if next == nil {
			break
		}
		n = next
	}

	pt := n.StartPoint()
	e := &SyntaxError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
	if n.IsMissing() {
		e.Near = "missing " + n.Type()
	} else {
		near := lang.NodeText(n, source)
		if len(near) > 40 {
			near = near[:40]
		}
		e.Near = near
	}
	return e
}
