package syntax

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Node {
	t.Helper()
	p := NewParser()
	t.Cleanup(p.Close)
	mod, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return mod
}

func statement(t *testing.T, src string) *Node {
	t.Helper()
	p := NewParser()
	t.Cleanup(p.Close)
	stmt, err := p.ParseStatement(context.Background(), src)
	require.NoError(t, err)
	return stmt
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	sources := map[string]string{
		"empty":        "",
		"blank lines":  "\n\n\n",
		"no newline":   "x = 1",
		"comments":     "# header\n\nimport os  # trailing\n\n\n# about f\ndef f(a, b=2):\n    return a + b  # sum\n",
		"decorated":    "@decorator(arg=1)\nclass C(Base):\n    @property\n    def p(self):\n        return self._p\n",
		"strings":      "s = 'it''s'\nt = f\"{s!r:>10}\"\nu = \"\"\"doc\n  string\"\"\"\n",
		"unicode":      "name = 'héllo wörld'  # ünïcode\n",
		"continuation": "total = 1 + \\\n    2\n",
		"imports":      "from pkg import (\n    a,\n    b as c,\n)\nimport x.y as z, w\n",
	}

	for name, src := range sources {
		src := src
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, src, parse(t, src).String())
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	t.Parallel()

	p := NewParser()
	defer p.Close()

	_, err := p.Parse(context.Background(), []byte("x = 1\ndef f(:\n    pass\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Line)
}

func TestKinds(t *testing.T) {
	t.Parallel()

	mod := parse(t, "from pkg.base import func as f, other\nimport pkg.base\ncall(x, key=1)\n")
	require.Equal(t, Module, mod.Kind)
	require.Len(t, mod.Children, 3)

	from := mod.Children[0]
	assert.Equal(t, ImportFrom, from.Kind)
	assert.Equal(t, DottedName, from.ChildByField("module_name").Kind)
	names := from.ChildrenByField("name")
	require.Len(t, names, 2)
	assert.Equal(t, ImportAlias, names[0].Kind)
	assert.Equal(t, "aliased_import", names[0].Type)
	assert.Equal(t, "f", names[0].ChildByField("alias").Text)
	assert.Equal(t, ImportAlias, names[1].Kind)
	assert.Equal(t, "dotted_name", names[1].Type)

	assert.Equal(t, Import, mod.Children[1].Kind)

	call := mod.Children[2].Children[0]
	require.Equal(t, Call, call.Kind)
	args := call.ChildByField("arguments")
	kw := args.ChildOfKind(Argument)
	require.NotNil(t, kw)
	assert.Equal(t, "key", kw.ChildByField("name").Text)
	assert.Equal(t, Identifier, kw.ChildByField("name").Kind)
}

type counter struct {
	enters, leaves int
}

func (c *counter) Enter(*Node) { c.enters++ }

func (c *counter) Leave(_, updated *Node) *Node {
	c.leaves++
	return updated
}

func TestWalkSharesUntouchedTree(t *testing.T) {
	t.Parallel()

	mod := parse(t, "import os\n\ndef f():\n    return os.getcwd()\n")
	c := &counter{}
	out := Walk(mod, c)
	assert.Same(t, mod, out)
	assert.Equal(t, c.enters, c.leaves)
	assert.Greater(t, c.enters, 10)
}

type renameIdent struct {
	from, to string
}

func (r renameIdent) Enter(*Node) {}

func (r renameIdent) Leave(original, updated *Node) *Node {
	if original.Kind == Identifier && original.Text == r.from {
		return updated.WithText(r.to)
	}
	return updated
}

func TestWalkRebuildsChangedPath(t *testing.T) {
	t.Parallel()

	mod := parse(t, "a = a + c\n\ndef g():\n    pass\n")
	out := Walk(mod, renameIdent{from: "a", to: "bb"})
	assert.Equal(t, "bb = bb + c\n\ndef g():\n    pass\n", out.String())
	assert.Equal(t, "a = a + c\n\ndef g():\n    pass\n", mod.String(), "original must not change")
	assert.Same(t, mod.Children[1], out.Children[1], "untouched subtree is shared")
}

// lineStarts records, per import statement, whether it begins its line.
type lineStarts struct {
	lines LineTracker
	seen  []bool
}

func (l *lineStarts) Enter(n *Node) {
	l.lines.Enter(n)
	if IsImportStatement(n) {
		l.seen = append(l.seen, l.lines.StartsLine())
	}
}

func (l *lineStarts) Leave(_, updated *Node) *Node {
	l.lines.Leave()
	return updated
}

func TestLineTracker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []bool
	}{
		{"top level", "import a\nimport b\n", []bool{true, true}},
		{"semicolon", "x = 1; import a\n", []bool{false}},
		{"block", "def f():\n    import a\n    import b\n", []bool{true, true}},
		{"inline block", "if x: import a\n", []bool{false}},
		{"inline block then semicolon", "if x: y = 1; import a\n", []bool{false}},
		{"nested block", "if x:\n    if y: import a\n    import b\n", []bool{false, true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := &lineStarts{}
			Walk(parse(t, tt.src), l)
			assert.Equal(t, tt.want, l.seen)
			assert.True(t, l.lines.StartsLine(), "tracker is empty after the walk")
		})
	}
}

func TestRootOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"a.b().c\n", "a"},
		{"base.func()\n", "base"},
		{"x\n", "x"},
		{"'s'.join\n", ""},
		{"a[0].b\n", ""},
	}
	for _, tt := range tests {
		expr := parse(t, tt.src).Children[0].Children[0]
		root := RootOf(expr)
		if tt.want == "" {
			assert.Nil(t, root, tt.src)
			continue
		}
		require.NotNil(t, root, tt.src)
		assert.Equal(t, tt.want, root.Text, tt.src)
	}
}

func TestDottedText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
		ok   bool
	}{
		{"pkg.base.func\n", "pkg.base.func", true},
		{"pkg . base\n", "pkg.base", true},
		{"name\n", "name", true},
		{"f().x\n", "", false},
	}
	for _, tt := range tests {
		expr := parse(t, tt.src).Children[0].Children[0]
		got, ok := DottedText(expr)
		assert.Equal(t, tt.want, got, tt.src)
		assert.Equal(t, tt.ok, ok, tt.src)
	}

	imp := parse(t, "import pkg.base\n").Children[0]
	got, ok := DottedText(imp.ChildByField("name"))
	assert.True(t, ok)
	assert.Equal(t, "pkg.base", got)
}

func TestRemoveStatements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		index int
		want  string
	}{
		{
			name:  "middle",
			src:   "import os\n\n\ndef func():\n    pass\n\n\ndef other():\n    pass\n",
			index: 1,
			want:  "import os\n\n\ndef other():\n    pass\n",
		},
		{
			name:  "last",
			src:   "import os\n\n\ndef func():\n    pass\n\n\ndef other():\n    pass\n",
			index: 2,
			want:  "import os\n\n\ndef func():\n    pass\n",
		},
		{
			name:  "first",
			src:   "from a import b\n\n\ndef main():\n    b()\n",
			index: 0,
			want:  "def main():\n    b()\n",
		},
		{
			name:  "only",
			src:   "def f():\n    pass\n",
			index: 0,
			want:  "",
		},
		{
			name:  "keeps wider gap",
			src:   "import a\nimport b\n\n\nx = 1\n",
			index: 1,
			want:  "import a\n\n\nx = 1\n",
		},
		{
			name:  "semicolon after",
			src:   "import a; x = 1\ny = 2\n",
			index: 0,
			want:  "x = 1\ny = 2\n",
		},
		{
			name:  "semicolon before",
			src:   "x = 1; import a\ny = 2\n",
			index: 2,
			want:  "x = 1\ny = 2\n",
		},
		{
			name:  "between semicolons",
			src:   "x = 1; import a; y = 2\n",
			index: 2,
			want:  "x = 1; y = 2\n",
		},
		{
			name:  "trailing semicolon",
			src:   "import a;\nx = 1\n",
			index: 0,
			want:  "x = 1\n",
		},
		{
			name:  "trailing comment",
			src:   "import a  # noqa\nx = 1\n",
			index: 0,
			want:  "x = 1\n",
		},
		{
			name:  "comment on next line stays",
			src:   "import a\n# note\nx = 1\n",
			index: 0,
			want:  "# note\nx = 1\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mod := parse(t, tt.src)
			out := RemoveStatements(mod, mod.Children[tt.index])
			assert.Equal(t, tt.want, out.String())
			parse(t, out.String())
			assert.Equal(t, tt.src, mod.String())
		})
	}
}

func TestRemoveStatementsIgnoresStrangers(t *testing.T) {
	t.Parallel()

	mod := parse(t, "x = 1\n")
	other := parse(t, "y = 2\n")
	assert.Same(t, mod, RemoveStatements(mod, other.Children[0]))
}

func TestInsertStatements(t *testing.T) {
	t.Parallel()

	def := "def func():\n    pass"
	imp := "from a import b"

	tests := []struct {
		name string
		src  string
		stmt string
		sep  string
		want string
	}{
		{
			name: "definition after imports",
			src:  "import os\n\nx = 1\n",
			stmt: def,
			sep:  DefinitionBreak,
			want: "import os\n\n\ndef func():\n    pass\n\n\nx = 1\n",
		},
		{
			name: "import joins import block",
			src:  "import os\n\n\ndef main():\n    pass\n",
			stmt: imp,
			sep:  LineBreak,
			want: "import os\nfrom a import b\n\n\ndef main():\n    pass\n",
		},
		{
			name: "import above definition",
			src:  "def main():\n    pass\n",
			stmt: imp,
			sep:  LineBreak,
			want: "from a import b\n\n\ndef main():\n    pass\n",
		},
		{
			name: "empty module",
			src:  "",
			stmt: def,
			sep:  DefinitionBreak,
			want: "def func():\n    pass\n",
		},
		{
			name: "only imports",
			src:  "import os\n",
			stmt: def,
			sep:  DefinitionBreak,
			want: "import os\n\n\ndef func():\n    pass\n",
		},
		{
			name: "after docstring",
			src:  "\"\"\"Docs.\"\"\"\n\nx = 1\n",
			stmt: imp,
			sep:  LineBreak,
			want: "\"\"\"Docs.\"\"\"\nfrom a import b\n\nx = 1\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mod := parse(t, tt.src)
			out := InsertStatements(mod, ImportBoundary(mod), []*Node{statement(t, tt.stmt)}, tt.sep)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestImportBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want int
	}{
		{"imports then code", "import a\nimport b\nx = 1\n", 2},
		{"docstring", "\"\"\"doc\"\"\"\nimport a\n\nx = 1\n", 2},
		{"header comment", "#!/usr/bin/env python\n\nx = 1\n", 1},
		{"attached comment", "# about f\ndef f():\n    pass\n", 0},
		{"code first", "x = 1\nimport a\n", 0},
		{"future import", "from __future__ import annotations\nimport a\n", 2},
		{"comment inside block", "import a\n# more\nimport b\nx = 1\n", 3},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ImportBoundary(parse(t, tt.src)))
		})
	}
}

func TestRemoveListItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		item int
		want string
	}{
		{"first", "from a import func, other", 0, "from a import other"},
		{"last", "from a import other, func", 1, "from a import other"},
		{"middle", "from a import x, func, y", 1, "from a import x, y"},
		{"parenthesized", "from a import (x, func)", 1, "from a import (x)"},
		{"multiline", "from a import (\n    x,\n    func,\n)", 1, "from a import (\n    x,\n)"},
		{"plain import", "import func, other", 0, "import other"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stmt := statement(t, tt.src)
			item := stmt.ChildrenByField("name")[tt.item]
			assert.Equal(t, tt.want, RemoveListItem(stmt, item).String())
		})
	}
}

func TestDefinitionName(t *testing.T) {
	t.Parallel()

	mod := parse(t, "def f():\n    pass\n\n@dec\nclass C:\n    pass\n\nx = 1\n")
	assert.Equal(t, "f", DefinitionName(mod.Children[0]))
	assert.Equal(t, "C", DefinitionName(mod.Children[1]))
	assert.Equal(t, "", DefinitionName(mod.Children[2]))
	assert.True(t, IsDefinition(mod.Children[1]))

	group := NewGroup([]*Node{statement(t, "# note"), mod.Children[0]}, LineBreak)
	assert.Equal(t, Group, group.Kind)
	assert.Equal(t, "f", DefinitionName(group))
	assert.Equal(t, "# note\ndef f():\n    pass", group.String())
}
