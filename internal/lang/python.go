package lang

import (
	"github.com/smacker/go-tree-sitter/python"
)

// Python is the only language the refactoring engines understand.
const Python = "python"

func init() {
	Languages[Python] = &Language{
		Name:       Python,
		Extensions: []string{".py", ".pyi"},
		lang:       python.GetLanguage(),
	}
}
