package refactor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/phobologic/pyrefactor/internal/model"
	"github.com/phobologic/pyrefactor/internal/move"
	"github.com/phobologic/pyrefactor/internal/rename"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// Rename renames req.OldName to req.NewName throughout req.File, which
// should define it, then updates the files under scanRoot that import it.
// The result holds req.File and every scanned file.
func (e *Engine) Rename(ctx context.Context, req model.RenameRequest, scanRoot string) (model.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, oldName, newName := req.File, req.OldName, req.NewName
	for _, name := range []string{oldName, newName} {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
	}
	if oldName == newName {
		return nil, fmt.Errorf("%w: old and new name are both %q", ErrInvalidName, oldName)
	}

	target = filepath.Clean(target)
	owner, err := e.module(target)
	if err != nil {
		return nil, err
	}
	log := e.logger.With("op", model.Rename, "module", owner.Full, "old", oldName, "new", newName)

	p := syntax.NewParser()
	tree, src, _, err := e.parse(ctx, p, target, false)
	p.Close()
	if err != nil {
		return nil, err
	}
	if len(move.TopLevelDefinitions(tree, oldName)) == 0 {
		log.Warn("no top-level definition found; renaming every occurrence", "path", target)
	}
	renamed := syntax.Walk(tree, rename.NewRenamer(oldName, newName)).String()

	paths, err := e.dependents(scanRoot, target)
	if err != nil {
		return nil, err
	}
	log.Debug("scanning dependents", "root", scanRoot, "files", len(paths))

	result, changed, err := e.transform(ctx, paths, func(ctx context.Context, p *syntax.Parser, path string) (string, bool, error) {
		tree, src, _, err := e.parse(ctx, p, path, false)
		if err != nil {
			return "", false, err
		}
		r := rename.NewImportRenamer(oldName, newName, owner, e.importer(path))
		out := syntax.Walk(tree, r)
		if err := r.Err(); err != nil {
			return "", false, &FileError{Path: path, Err: err}
		}
		text := out.String()
		return text, text != string(src), nil
	})
	if err != nil {
		return nil, err
	}

	result[target] = renamed
	if renamed != string(src) {
		changed++
	}
	log.Info("rename complete", "files", len(result), "changed", changed)
	return result, nil
}
