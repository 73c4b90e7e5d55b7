package syntax

import "strings"

// A Transformer receives a callback on the way down to every node and on the
// way back up. Leave gets the node as it was before the traversal and the
// node rebuilt from the transformed children; the value it returns replaces
// the node in the rebuilt parent. Leave must not return nil.
type Transformer interface {
	Enter(n *Node)
	Leave(original, updated *Node) *Node
}

// Walk traverses n depth-first in document order and returns the rebuilt
// tree. Subtrees no hook touched are shared with n.
func Walk(n *Node, t Transformer) *Node {
	t.Enter(n)

	updated := n
	var children []*Node
	for i, c := range n.Children {
		nc := Walk(c, t)
		if nc == c {
			continue
		}
		if children == nil {
			children = append([]*Node(nil), n.Children...)
		}
		children[i] = nc
	}
	if children != nil {
		updated = n.WithChildren(children)
	}

	return t.Leave(n, updated)
}

// LineTracker follows a Walk and reports whether the innermost node entered
// and not yet left is the first token on its line. Transformers call Enter
// and Leave from their own hooks.
type LineTracker struct {
	path   []*Node
	starts []bool
}

// Enter records n, which must be a child of the previously entered node or
// the root of the walk.
func (t *LineTracker) Enter(n *Node) {
	starts := true
	if k := len(t.path); k > 0 {
		parent := t.path[k-1]
		i := parent.IndexOf(n)
		starts = i >= 0 && (strings.Contains(parent.Gaps[i], "\n") || (i == 0 && t.starts[k-1]))
	}
	t.path = append(t.path, n)
	t.starts = append(t.starts, starts)
}

// Leave forgets the innermost node.
func (t *LineTracker) Leave() {
	if k := len(t.path); k > 0 {
		t.path, t.starts = t.path[:k-1], t.starts[:k-1]
	}
}

// StartsLine reports whether the innermost node begins its line.
func (t *LineTracker) StartsLine() bool {
	if k := len(t.starts); k > 0 {
		return t.starts[k-1]
	}
	return true
}

// RootOf unwraps attribute and call wrappers ("a.b().c") down to the
// identifier at the root of the chain. It returns nil when the chain is
// rooted at anything else, such as a string literal or subscript.
func RootOf(n *Node) *Node {
	for n != nil {
		switch n.Kind {
		case Attribute:
			n = n.ChildByField("object")
		case Call:
			n = n.ChildByField("function")
		case Identifier:
			return n
		default:
			return nil
		}
	}
	return nil
}

// DottedText returns the canonical dotted spelling of an identifier, a
// dotted name, or an attribute chain made only of identifiers ("pkg.base"),
// ignoring any whitespace inside it. It reports false for other expressions.
func DottedText(n *Node) (string, bool) {
	var parts []string
	for n != nil {
		switch n.Kind {
		case Identifier:
			parts = append(parts, n.Text)
			reverse(parts)
			return strings.Join(parts, "."), true
		case DottedName, ImportAlias:
			if n.Kind == ImportAlias && n.Type != "dotted_name" {
				return "", false
			}
			var names []string
			for _, c := range n.Children {
				if c.Kind == Identifier {
					names = append(names, c.Text)
				}
			}
			reverse(parts)
			return strings.Join(append(names, parts...), "."), len(names) > 0
		case Attribute:
			attr := n.ChildByField("attribute")
			if attr == nil {
				return "", false
			}
			parts = append(parts, attr.Text)
			n = n.ChildByField("object")
		default:
			return "", false
		}
	}
	return "", false
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
