// Package syntax is a lossless, immutable Python syntax tree.
//
// Trees are built from tree-sitter parse trees. Every interior node keeps the
// exact source text found between its children (whitespace, line
// continuations), so printing an unmodified tree reproduces the input byte for
// byte. Nodes are never mutated after construction: edits produce new nodes
// that share every untouched subtree with the original.
package syntax

import (
	"strings"
)

// Kind classifies the nodes the refactoring engines care about. Everything
// else is Other.
type Kind uint8

const (
	Other Kind = iota
	Module
	Identifier
	Attribute
	Call
	Argument
	Import
	ImportFrom
	FutureImport
	ImportAlias
	DottedName
	RelativeImport
	ImportPrefix
	Wildcard
	FunctionDef
	ClassDef
	Decorated
	Block
	Comment
	Group
)

var kindNames = [...]string{
	Other:          "Other",
	Module:         "Module",
	Identifier:     "Identifier",
	Attribute:      "Attribute",
	Call:           "Call",
	Argument:       "Argument",
	Import:         "Import",
	ImportFrom:     "ImportFrom",
	FutureImport:   "FutureImport",
	ImportAlias:    "ImportAlias",
	DottedName:     "DottedName",
	RelativeImport: "RelativeImport",
	ImportPrefix:   "ImportPrefix",
	Wildcard:       "Wildcard",
	FunctionDef:    "FunctionDef",
	ClassDef:       "ClassDef",
	Decorated:      "Decorated",
	Block:          "Block",
	Comment:        "Comment",
	Group:          "Group",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Node is one node of the tree. A node without children is a leaf and
// carries its source text in Text. An interior node carries len(Children)+1
// gaps: Gaps[i] is the text preceding Children[i] and the last gap is the
// text after the final child.
type Node struct {
	Kind Kind
	// Type is the tree-sitter node type ("identifier", "import_statement", "(").
	Type string
	// Field is the grammar field this node fills in its parent, if any.
	Field string
	// Line is the 1-based line the node started on in its source, or 0 for
	// synthesized nodes.
	Line int
	// Column is the 0-based byte column the node started at.
	Column int

	Text     string
	Children []*Node
	Gaps     []string
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// String prints n back to source text.
func (n *Node) String() string {
	var b strings.Builder
	n.print(&b)
	return b.String()
}

func (n *Node) print(b *strings.Builder) {
	if n.IsLeaf() {
		b.WriteString(n.Text)
		return
	}
	for i, c := range n.Children {
		b.WriteString(n.Gaps[i])
		c.print(b)
	}
	b.WriteString(n.Gaps[len(n.Children)])
}

// ChildByField returns the first child filling field, or nil.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildrenByField returns every child filling field, in document order.
func (n *Node) ChildrenByField(field string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}

// ChildOfKind returns the first child of kind k, or nil.
func (n *Node) ChildOfKind(k Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// IndexOf returns the position of child among n's children, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}

// WithText returns a copy of the leaf n holding text.
func (n *Node) WithText(text string) *Node {
	c := n.clone()
	c.Text = text
	return c
}

// WithField returns a copy of n that fills field in its parent.
func (n *Node) WithField(field string) *Node {
	c := n.clone()
	c.Field = field
	return c
}

// WithChildren returns a copy of n with children replaced. The gaps are
// shared, so len(children) must equal len(n.Children).
func (n *Node) WithChildren(children []*Node) *Node {
	if len(children) != len(n.Children) {
		panic("syntax: WithChildren changes child count")
	}
	c := n.clone()
	c.Children = children
	return c
}

// ReplaceChild returns a copy of n with old swapped for repl. The replacement
// takes over old's field. It returns n itself when old is not a child.
func (n *Node) ReplaceChild(old, repl *Node) *Node {
	i := n.IndexOf(old)
	if i < 0 {
		return n
	}
	if repl.Field != old.Field {
		repl = repl.WithField(old.Field)
	}
	children := append([]*Node(nil), n.Children...)
	children[i] = repl
	return n.WithChildren(children)
}

// NewLeaf returns a synthesized leaf.
func NewLeaf(kind Kind, typ, text string) *Node {
	return &Node{Kind: kind, Type: typ, Text: text}
}

// NewGroup joins consecutive statements into one node that prints them with
// sep between each pair. Used to keep a definition together with the comment
// lines directly above it.
func NewGroup(nodes []*Node, sep string) *Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	gaps := make([]string, len(nodes)+1)
	for i := 1; i < len(nodes); i++ {
		gaps[i] = sep
	}
	return &Node{
		Kind:     Group,
		Type:     "group",
		Line:     nodes[0].Line,
		Column:   nodes[0].Column,
		Children: append([]*Node(nil), nodes...),
		Gaps:     gaps,
	}
}

// IsImportStatement reports whether n is an import statement of any form.
func IsImportStatement(n *Node) bool {
	switch n.Kind {
	case Import, ImportFrom, FutureImport:
		return true
	}
	return false
}

// IsDefinition reports whether n is a function or class definition, with or
// without decorators.
func IsDefinition(n *Node) bool {
	switch n.Kind {
	case FunctionDef, ClassDef, Decorated:
		return true
	case Group:
		return IsDefinition(n.Children[len(n.Children)-1])
	}
	return false
}

// DefinitionName returns the declared name of a function or class
// definition, looking through decorators. It returns "" for other nodes.
func DefinitionName(n *Node) string {
	switch n.Kind {
	case Decorated:
		if def := n.ChildByField("definition"); def != nil {
			return DefinitionName(def)
		}
	case FunctionDef, ClassDef:
		if name := n.ChildByField("name"); name != nil {
			return name.Text
		}
	case Group:
		return DefinitionName(n.Children[len(n.Children)-1])
	}
	return ""
}
