// Package model defines core data structures for pyrefactor.
package model

// Operation names a refactoring kind.
type Operation string

const (
	Rename Operation = "rename"
	Move   Operation = "move"
)

// RenameRequest renames a module-level definition. Both names are bare
// identifiers, not dotted paths.
type RenameRequest struct {
	File    string
	OldName string
	NewName string
}

// MoveRequest relocates a top-level function or class between two files.
type MoveRequest struct {
	Symbol      string
	Source      string
	Destination string
}

// Result maps a file path to its resulting source text. It holds an entry for
// every file the operation visited, changed or not.
type Result map[string]string

// Status describes what an operation did to one file.
type Status string

const (
	Modified  Status = "modified"
	Created   Status = "created"
	Unchanged Status = "unchanged"
)

// FileChange summarizes the effect of an operation on a single file.
type FileChange struct {
	Path    string
	Status  Status
	Added   int
	Deleted int
}

// Summary is the complete outcome of an operation, ready for serialization.
type Summary struct {
	Operation Operation
	Target    string
	Files     []FileChange
}

// Changed returns the number of files whose text differs from the original.
func (s *Summary) Changed() int {
	n := 0
	for _, f := range s.Files {
		if f.Status != Unchanged {
			n++
		}
	}
	return n
}
