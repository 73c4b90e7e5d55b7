// Package modpath derives the dotted module identity of a Python source file.
//
// A file's identity is the triple (full dotted path, parent dotted path, leaf
// name). Import statements are matched against these forms to decide whether
// they refer to a given file: "from pkg.base import func" names pkg/base.py by
// its full path, while "from pkg import base" names it by parent and leaf.
package modpath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/phobologic/pyrefactor/internal/lang"
)

const initModule = "__init__"

// Path is the dotted identity of a module.
type Path struct {
	Full   string
	Parent string
	Leaf   string

	// IsPackage is set for __init__ modules, whose identity is the package
	// directory itself.
	IsPackage bool
}

// String returns the full dotted path.
func (p Path) String() string {
	return p.Full
}

// Resolve derives the dotted identity of file. It strips a known source
// extension and treats the remaining path segments as dotted components.
// It does not touch the file system.
func Resolve(file string) Path {
	p := filepath.ToSlash(filepath.Clean(file))
	p = stripExtension(p)

	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s == "" || s == "." {
			continue
		}
		segs = append(segs, s)
	}

	isPackage := false
	if n := len(segs); n > 1 && segs[n-1] == initModule {
		segs = segs[:n-1]
		isPackage = true
	}

	path := fromSegments(segs)
	path.IsPackage = isPackage
	return path
}

// ResolveIn derives the dotted identity of file relative to the import root.
func ResolveIn(root, file string) (Path, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Path{}, fmt.Errorf("resolving import root: %w", err)
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return Path{}, fmt.Errorf("resolving %s: %w", file, err)
	}
	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil {
		return Path{}, fmt.Errorf("resolving %s: %w", file, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Path{}, fmt.Errorf("%s is outside import root %s", file, root)
	}
	return Resolve(rel), nil
}

// Split builds a Path from an already dotted module name.
func Split(dotted string) Path {
	return fromSegments(split(dotted))
}

// Package returns the dotted package that relative imports inside this
// module are resolved against.
func (p Path) Package() string {
	if p.IsPackage {
		return p.Full
	}
	return p.Parent
}

// ResolveRelative resolves the module named by a relative import with the
// given number of leading dots and optional dotted remainder. It reports
// false when the dots climb above the top-level package.
func (p Path) ResolveRelative(dots int, name string) (string, bool) {
	if dots < 1 {
		return name, true
	}
	segs := split(p.Package())
	up := dots - 1
	if up > len(segs) {
		return "", false
	}
	base := append([]string(nil), segs[:len(segs)-up]...)
	base = append(base, split(name)...)
	return strings.Join(base, "."), true
}

// Relative expresses the dotted module target as a relative reference from
// this module's package ("..util.io"). It reports false when the two share no
// leading package, in which case only the absolute form is meaningful.
func (p Path) Relative(target string) (string, bool) {
	pkg := split(p.Package())
	tgt := split(target)
	common := 0
	for common < len(pkg) && common < len(tgt) && pkg[common] == tgt[common] {
		common++
	}
	if common == 0 {
		return "", false
	}
	dots := len(pkg) - common + 1
	return strings.Repeat(".", dots) + strings.Join(tgt[common:], "."), true
}

func fromSegments(segs []string) Path {
	if len(segs) == 0 {
		return Path{}
	}
	return Path{
		Full:   strings.Join(segs, "."),
		Parent: strings.Join(segs[:len(segs)-1], "."),
		Leaf:   segs[len(segs)-1],
	}
}

func split(dotted string) []string {
	if dotted == "" {
		return nil
	}
	return strings.Split(dotted, ".")
}

func stripExtension(p string) string {
	ext := filepath.Ext(p)
	if ext == "" {
		return p
	}
	if l := lang.Languages[lang.Python]; l != nil && l.HasExtension(ext) {
		return strings.TrimSuffix(p, ext)
	}
	return p
}
