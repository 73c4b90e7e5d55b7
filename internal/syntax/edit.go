package syntax

import "strings"

// Separators used between top-level statements.
const (
	LineBreak       = "\n"
	DefinitionBreak = "\n\n\n"
)

// RemoveStatements returns module without the listed top-level statements.
// Blank lines around a removed statement collapse to the widest of its
// neighbouring gaps, so the remaining layout keeps its separation. A ";"
// joining a removed statement to another on the same line goes with it, as
// does a comment trailing it on its line. Statements not found among
// module's children are ignored.
func RemoveStatements(module *Node, drop ...*Node) *Node {
	if len(drop) == 0 || module.IsLeaf() {
		return module
	}
	remove := make(map[*Node]bool, len(drop))
	for _, d := range drop {
		remove[d] = true
	}

	children := module.Children
	n := len(children)
	gone := make([]bool, n)
	changed := false
	for i, c := range children {
		if !remove[c] {
			continue
		}
		changed = true
		gone[i] = true

		end := i
		switch {
		case i+1 < n && children[i+1].Type == ";":
			gone[i+1] = true
			end = i + 1
		case i > 0 && children[i-1].Type == ";":
			gone[i-1] = true
		}
		if end+1 < n && children[end+1].Kind == Comment && !strings.Contains(module.Gaps[end+1], "\n") {
			gone[end+1] = true
		}
	}
	if !changed {
		return module
	}

	gaps := append([]string(nil), module.Gaps...)
	var kept []*Node
	var keptGaps []string
	for i := 0; i < n; {
		if !gone[i] {
			kept = append(kept, children[i])
			keptGaps = append(keptGaps, gaps[i])
			i++
			continue
		}
		lo := i
		for i < n && gone[i] {
			i++
		}
		switch {
		case i == n:
			// The text after the last child stays where it is.
		case lo == 0:
			gaps[i] = gaps[0]
		default:
			w := gaps[lo]
			for _, g := range gaps[lo+1 : i+1] {
				w = widest(w, g)
			}
			gaps[i] = w
		}
	}

	c := module.clone()
	if len(kept) == 0 {
		c.Children, c.Gaps, c.Text = nil, nil, ""
		return c
	}
	c.Children, c.Gaps = kept, append(keptGaps, gaps[n])
	return c
}

// InsertStatements returns module with nodes spliced in before the top-level
// statement at index at. sep separates the inserted statements from each
// other and from the statement before them; the gap after them is at least
// sep wide.
func InsertStatements(module *Node, at int, nodes []*Node, sep string) *Node {
	if len(nodes) == 0 {
		return module
	}
	c := module.clone()

	n := len(module.Children)
	if n == 0 {
		c.Text = ""
		c.Children = append([]*Node(nil), nodes...)
		c.Gaps = make([]string, 0, len(nodes)+1)
		c.Gaps = append(c.Gaps, "")
		for range nodes[1:] {
			c.Gaps = append(c.Gaps, sep)
		}
		c.Gaps = append(c.Gaps, LineBreak)
		return c
	}
	if at < 0 {
		at = 0
	}
	if at > n {
		at = n
	}

	children := make([]*Node, 0, n+len(nodes))
	gaps := make([]string, 0, n+len(nodes)+1)
	children = append(children, module.Children[:at]...)
	gaps = append(gaps, module.Gaps[:at]...)

	lead := sep
	if at == 0 {
		lead = module.Gaps[0]
	}
	for i, node := range nodes {
		if i == 0 {
			gaps = append(gaps, lead)
		} else {
			gaps = append(gaps, sep)
		}
		children = append(children, node)
	}

	var trail string
	switch {
	case at == n:
		trail = module.Gaps[n]
	case at == 0:
		trail = widest(sep, "\n\n")
		if IsDefinition(module.Children[0]) {
			trail = widest(trail, DefinitionBreak)
		}
	default:
		trail = widest(module.Gaps[at], sep)
	}
	gaps = append(gaps, trail)

	children = append(children, module.Children[at:]...)
	if at < n {
		gaps = append(gaps, module.Gaps[at+1:]...)
	}

	c.Children, c.Gaps = children, gaps
	return c
}

// ImportBoundary returns the index of the first top-level statement after the
// module's leading import block. A module docstring and a detached header
// comment (licence, shebang) count as part of the leading block, as do
// comments between imports.
func ImportBoundary(module *Node) int {
	children := module.Children
	n := len(children)
	boundary := 0
	i := 0

	for i < n && children[i].Kind == Comment {
		i++
	}
	if i > 0 && i < n && !strings.Contains(module.Gaps[i], "\n\n") &&
		!IsImportStatement(children[i]) && !isDocstring(children[i]) {
		// The comments are attached to the statement below them.
		return 0
	}
	if i > 0 {
		boundary = i
	}
	if i < n && isDocstring(children[i]) {
		i++
		boundary = i
	}

	for ; i < n; i++ {
		c := children[i]
		if IsImportStatement(c) {
			boundary = i + 1
			continue
		}
		if c.Kind == Comment {
			continue
		}
		break
	}
	return boundary
}

// RemoveListItem returns the comma-separated list n (an import statement's
// names, an argument list) without item and the comma that joined it to its
// neighbour.
func RemoveListItem(n *Node, item *Node) *Node {
	i := n.IndexOf(item)
	if i < 0 {
		return n
	}
	children := n.Children
	gaps := n.Gaps

	var nc []*Node
	var ng []string
	switch {
	case i+1 < len(children) && children[i+1].Type == ",":
		nc = concat(children[:i], children[i+2:])
		ng = concat(gaps[:i], gaps[i+2:])
	case i > 0 && children[i-1].Type == ",":
		nc = concat(children[:i-1], children[i+1:])
		ng = concat(gaps[:i-1], gaps[i+1:])
	default:
		nc = concat(children[:i], children[i+1:])
		ng = concat(gaps[:i], gaps[i+1:])
	}

	c := n.clone()
	c.Children, c.Gaps = nc, ng
	return c
}

func isDocstring(n *Node) bool {
	return n.Type == "expression_statement" && len(n.Children) == 1 && n.Children[0].Type == "string"
}

// widest returns whichever gap spans more line breaks, preferring a.
func widest(a, b string) string {
	if strings.Count(b, "\n") > strings.Count(a, "\n") {
		return b
	}
	return a
}

func concat[T any](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
