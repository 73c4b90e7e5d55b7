// Package refactor runs rename and move operations over a source tree and
// collects the resulting text of every file it visited.
package refactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/pyrefactor/internal/config"
	"github.com/phobologic/pyrefactor/internal/discover"
	"github.com/phobologic/pyrefactor/internal/model"
	"github.com/phobologic/pyrefactor/internal/modpath"
	"github.com/phobologic/pyrefactor/internal/syntax"
)

// Engine performs refactorings. Files are read once and never written; the
// caller decides what to do with the returned result.
type Engine struct {
	cfg    config.Config
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New returns an Engine using cfg.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.Workers < 1 {
		e.cfg.Workers = 1
	}
	return e
}

// fileFunc transforms the file at path with a parser owned by the calling
// worker. It returns the new text and whether it differs from the old.
type fileFunc func(ctx context.Context, p *syntax.Parser, path string) (text string, changed bool, err error)

// dependents lists the files under scanRoot other than the excluded ones.
func (e *Engine) dependents(scanRoot string, exclude ...string) ([]string, error) {
	entries, err := discover.Files(scanRoot, discover.Options{
		SkipDirs:         e.cfg.SkipDirs,
		Exclude:          e.cfg.Exclude,
		FixtureSuffix:    e.cfg.FixtureSuffix,
		RespectGitignore: e.cfg.RespectGitignore,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}

	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		skip[absPath(p)] = true
	}

	var paths []string
	for _, entry := range entries {
		p := filepath.Join(scanRoot, entry.Path)
		if skip[absPath(p)] {
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// transform applies fn to every path with up to cfg.Workers workers, each
// owning one parser. The first error cancels the rest and no result is
// returned. It also reports how many files changed.
func (e *Engine) transform(ctx context.Context, paths []string, fn fileFunc) (model.Result, int, error) {
	out := make([]string, len(paths))
	changed := make([]bool, len(paths))

	workers := min(e.cfg.Workers, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	work := make(chan int)

	g.Go(func() error {
		defer close(work)
		for i := range paths {
			select {
			case work <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			p := syntax.NewParser()
			defer p.Close()

			for i := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				text, ok, err := fn(ctx, p, paths[i])
				if err != nil {
					return err
				}
				e.logger.Debug("visited", "path", paths[i], "changed", ok)
				out[i], changed[i] = text, ok
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	result := make(model.Result, len(paths))
	n := 0
	for i, p := range paths {
		result[p] = out[i]
		if changed[i] {
			n++
		}
	}
	return result, n, nil
}

// read returns the contents of path. With allowMissing, a file that does
// not exist reads as empty and existed is false.
func (e *Engine) read(path string, allowMissing bool) (src []byte, existed bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &FileError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, false, &FileError{Path: path, Err: errors.New("is a directory")}
	}
	if info.Size() > e.cfg.MaxFileSize {
		return nil, false, &FileError{
			Path: path,
			Err:  fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, info.Size(), e.cfg.MaxFileSize),
		}
	}
	src, err = os.ReadFile(path)
	if err != nil {
		return nil, false, &FileError{Path: path, Err: err}
	}
	return src, true, nil
}

// parse reads and parses path.
func (e *Engine) parse(ctx context.Context, p *syntax.Parser, path string, allowMissing bool) (*syntax.Node, []byte, bool, error) {
	src, existed, err := e.read(path, allowMissing)
	if err != nil {
		return nil, nil, false, err
	}
	tree, err := p.Parse(ctx, src)
	if err != nil {
		return nil, nil, false, &FileError{Path: path, Err: err}
	}
	return tree, src, existed, nil
}

// module resolves the dotted module path of a file named by the caller.
func (e *Engine) module(path string) (modpath.Path, error) {
	mp, err := modpath.ResolveIn(e.cfg.ImportRoot, path)
	if err != nil {
		return modpath.Path{}, &FileError{Path: path, Err: err}
	}
	if mp.Full == "" {
		return modpath.Path{}, &FileError{Path: path, Err: errors.New("no module path")}
	}
	return mp, nil
}

// importer resolves the module path of a dependent file. Files outside the
// import root still have their absolute imports matched; only relative
// imports go unresolved.
func (e *Engine) importer(path string) modpath.Path {
	mp, err := modpath.ResolveIn(e.cfg.ImportRoot, path)
	if err != nil {
		e.logger.Debug("file outside import root", "path", path, "error", err)
		return modpath.Path{}
	}
	return mp
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
