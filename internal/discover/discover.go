// Package discover finds the Python files a refactoring has to visit.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/pyrefactor/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the scan root; empty when the root is the file itself
	Language string
}

// Options narrows the scan.
type Options struct {
	// SkipDirs names directories skipped in addition to the defaults.
	SkipDirs []string
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the root.
	Exclude []string
	// FixtureSuffix skips files whose name, minus extension, ends with it.
	FixtureSuffix string
	// RespectGitignore skips files git would ignore.
	RespectGitignore bool
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	".env":          {},
	"build":         {},
	"dist":          {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"egg-info":      {},
}

// Files discovers the Python files under root, sorted by path. Directories
// are visited from an explicit work list, so deep trees do not grow the call
// stack. A root that is itself a Python file yields just that file.
func Files(root string, opts Options) ([]FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		langName := lang.ForExtension(filepath.Ext(root))
		if langName == "" {
			return nil, nil
		}
		return []FileEntry{{Language: langName}}, nil
	}

	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	skip := make(map[string]struct{}, len(skipDirs)+len(opts.SkipDirs))
	for name := range skipDirs {
		skip[name] = struct{}{}
	}
	for _, name := range opts.SkipDirs {
		skip[name] = struct{}{}
	}

	var gitFiles map[string]struct{}
	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gitFiles = gitLsFiles(root)
		if gitFiles == nil {
			gi = loadGitignore(root)
		}
	}

	var results []FileEntry
	pending := []string{""}
	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err != nil {
			if dir == "" {
				return nil, fmt.Errorf("scan root: %w", err)
			}
			continue // unreadable subdirectory
		}

		for _, d := range entries {
			name := d.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			// Skip symlinks
			if d.Type()&os.ModeSymlink != 0 {
				continue
			}

			rel := filepath.Join(dir, name)
			if d.IsDir() {
				if _, ok := skip[name]; ok || excluded(opts.Exclude, rel) {
					continue
				}
				if gi != nil && gi.MatchesPath(filepath.ToSlash(rel)+"/") {
					continue
				}
				pending = append(pending, rel)
				continue
			}

			langName := lang.ForExtension(filepath.Ext(name))
			if langName == "" {
				continue
			}
			if IsFixture(name, opts.FixtureSuffix) || excluded(opts.Exclude, rel) {
				continue
			}
			if gitFiles != nil {
				if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
					continue
				}
			} else if gi != nil && gi.MatchesPath(filepath.ToSlash(rel)) {
				continue
			}

			results = append(results, FileEntry{Path: rel, Language: langName})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// IsFixture reports whether the file at path is named with the fixture
// suffix ("base_expected.py" for suffix "_expected"). An empty suffix
// matches nothing.
func IsFixture(path, suffix string) bool {
	if suffix == "" {
		return false
	}
	name := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), suffix)
}

func excluded(patterns []string, rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
