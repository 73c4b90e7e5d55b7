package refactor

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/phobologic/pyrefactor/internal/move"
	"github.com/phobologic/pyrefactor/internal/rename"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// Errors reported by the engine. Each is wrapped in a *FileError when it
// concerns a single file.
var (
	ErrUnparsable          = syntax.ErrSyntax
	ErrDefinitionNotFound  = move.ErrDefinitionNotFound
	ErrAmbiguousDefinition = move.ErrAmbiguousDefinition
	ErrDefinitionExists    = move.ErrDefinitionExists
	ErrUnsupported         = rename.ErrWildcardImport
	ErrInvalidName         = errors.New("invalid name")
	ErrSameFile            = errors.New("source and destination are the same file")
	ErrFileTooLarge        = errors.New("file too large")
)

// FileError identifies the file an operation failed on.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}

var keywords = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {},
	"async": {}, "await": {}, "break": {}, "class": {}, "continue": {},
	"def": {}, "del": {}, "elif": {}, "else": {}, "except": {},
	"finally": {}, "for": {}, "from": {}, "global": {}, "if": {},
	"import": {}, "in": {}, "is": {}, "lambda": {}, "nonlocal": {},
	"not": {}, "or": {}, "pass": {}, "raise": {}, "return": {}, "try": {},
	"while": {}, "with": {}, "yield": {},
}

// ValidateName checks that name is a Python identifier and not a keyword.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidName, name)
	}
	if _, ok := keywords[name]; ok {
		return fmt.Errorf("%w: %q is a keyword", ErrInvalidName, name)
	}
	return nil
}
