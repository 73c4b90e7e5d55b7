// Package move relocates a top-level Python definition from one module to
// another and rewrites the imports of the files that depend on it.
package move

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/pyrefactor/internal/syntax"
)

var (
	// ErrDefinitionNotFound means the source module has no top-level
	// definition of the symbol.
	ErrDefinitionNotFound = errors.New("definition not found")
	// ErrAmbiguousDefinition means the source module defines the symbol
	// more than once at top level.
	ErrAmbiguousDefinition = errors.New("ambiguous definition")
	// ErrDefinitionExists means the destination module already defines the
	// symbol.
	ErrDefinitionExists = errors.New("definition already exists")
)

// DefinitionError reports why a definition could not be moved.
type DefinitionError struct {
	Symbol string
	// Lines lists the lines of the conflicting definitions, if any.
	Lines []int
	Err   error
}

func (e *DefinitionError) Error() string {
	switch {
	case errors.Is(e.Err, ErrDefinitionNotFound):
		return fmt.Sprintf("no top-level definition of %q", e.Symbol)
	case errors.Is(e.Err, ErrAmbiguousDefinition):
		return fmt.Sprintf("%q is defined %d times at top level (lines %s)", e.Symbol, len(e.Lines), joinLines(e.Lines))
	case errors.Is(e.Err, ErrDefinitionExists):
		return fmt.Sprintf("%q is already defined (line %s)", e.Symbol, joinLines(e.Lines))
	}
	return fmt.Sprintf("%q: %v", e.Symbol, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// TopLevelDefinitions returns the top-level function and class definitions
// of module named name.
func TopLevelDefinitions(module *syntax.Node, name string) []*syntax.Node {
	var defs []*syntax.Node
	for _, c := range module.Children {
		if syntax.IsDefinition(c) && syntax.DefinitionName(c) == name {
			defs = append(defs, c)
		}
	}
	return defs
}

// attached returns the definition at index i of module together with the
// comment lines directly above it (no blank line in between).
func attached(module *syntax.Node, i int) []*syntax.Node {
	start := i
	for start > 0 {
		prev := module.Children[start-1]
		if prev.Kind != syntax.Comment || strings.Count(module.Gaps[start], "\n") != 1 {
			break
		}
		// A comment trailing the statement before it on the same line.
		if start-1 > 0 && !strings.Contains(module.Gaps[start-1], "\n") {
			break
		}
		start--
	}
	return module.Children[start : i+1]
}

func lines(nodes []*syntax.Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Line
	}
	return out
}

func joinLines(ls []int) string {
	s := make([]string, len(ls))
	for i, l := range ls {
		s[i] = fmt.Sprint(l)
	}
	return strings.Join(s, ", ")
}
