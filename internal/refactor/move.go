package refactor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/phobologic/pyrefactor/internal/model"
	"github.com/phobologic/pyrefactor/internal/modpath"
	"github.com/phobologic/pyrefactor/internal/move"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// Move moves the top-level definition of req.Symbol from req.Source to
// req.Destination, which is created when missing, then redirects the
// imports of the files under scanRoot. The result holds both files and
// every scanned file.
func (e *Engine) Move(ctx context.Context, req model.MoveRequest, scanRoot string) (model.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	source, destination, symbol := req.Source, req.Destination, req.Symbol
	if err := ValidateName(symbol); err != nil {
		return nil, err
	}
	source, destination = filepath.Clean(source), filepath.Clean(destination)
	if absPath(source) == absPath(destination) {
		return nil, &FileError{Path: source, Err: ErrSameFile}
	}

	from, err := e.module(source)
	if err != nil {
		return nil, err
	}
	to, err := e.module(destination)
	if err != nil {
		return nil, err
	}
	log := e.logger.With("op", model.Move, "symbol", symbol, "from", from.Full, "to", to.Full)

	p := syntax.NewParser()
	srcText, destText, changed, err := e.relocate(ctx, p, source, destination, symbol, from, to)
	p.Close()
	if err != nil {
		return nil, err
	}

	paths, err := e.dependents(scanRoot, source, destination)
	if err != nil {
		return nil, err
	}
	log.Debug("scanning dependents", "root", scanRoot, "files", len(paths))

	result, n, err := e.transform(ctx, paths, func(ctx context.Context, p *syntax.Parser, path string) (string, bool, error) {
		tree, src, _, err := e.parse(ctx, p, path, false)
		if err != nil {
			return "", false, err
		}
		r := move.NewImportRewriter(ctx, p, symbol, from, to, e.importer(path))
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

	result[source] = srcText
	result[destination] = destText
	log.Info("move complete", "files", len(result), "changed", n+changed)
	return result, nil
}

// relocate extracts the definition from source and inserts it into
// destination. It returns both new texts and how many of them changed.
func (e *Engine) relocate(ctx context.Context, p *syntax.Parser, source, destination, symbol string, from, to modpath.Path) (string, string, int, error) {
	srcTree, _, _, err := e.parse(ctx, p, source, false)
	if err != nil {
		return "", "", 0, err
	}
	destTree, destSrc, existed, err := e.parse(ctx, p, destination, true)
	if err != nil {
		return "", "", 0, err
	}

	reimport, err := p.ParseStatement(ctx, fmt.Sprintf("from %s import %s", to.Full, symbol))
	if err != nil {
		return "", "", 0, fmt.Errorf("synthesize import of %s: %w", symbol, err)
	}
	ex := move.NewExtractor(symbol)
	ex.Reimport(reimport)
	srcOut := syntax.Walk(srcTree, ex)
	if err := ex.Err(); err != nil {
		return "", "", 0, &FileError{Path: source, Err: err}
	}

	if names := move.MissingImports(srcTree, destTree, ex.Definition()); len(names) > 0 {
		e.logger.Warn("moved definition uses names imported only by the source; add the imports to the destination",
			"symbol", symbol, "path", destination, "names", names)
	}

	in := move.NewInserter(ex.Definition(), from, to)
	destOut := syntax.Walk(destTree, in)
	if err := in.Err(); err != nil {
		return "", "", 0, &FileError{Path: destination, Err: err}
	}

	// The source always loses the definition.
	changed := 1
	if !existed || destOut.String() != string(destSrc) {
		changed++
	}
	return srcOut.String(), destOut.String(), changed, nil
}
