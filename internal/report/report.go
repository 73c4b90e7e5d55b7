// Package report describes the outcome of a refactoring: unified diffs for
// people and per-file line statistics for the summary.
package report

import (
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/phobologic/pyrefactor/internal/model"
)

// Unified returns the unified diff turning before into after, with a/ and b/
// prefixed headers for path. It returns "" when the texts are equal.
func Unified(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	from := "a/" + path
	if before == "" {
		from = "/dev/null"
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: from,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", path, err)
	}
	return text, nil
}

// Stat counts the lines a unified diff adds and deletes. A modified line
// counts once each way.
func Stat(unified string) (added, deleted int, err error) {
	if unified == "" {
		return 0, 0, nil
	}
	fd, err := diff.ParseFileDiff([]byte(unified))
	if err != nil {
		return 0, 0, fmt.Errorf("parse diff: %w", err)
	}
	st := fd.Stat()
	return int(st.Added + st.Changed), int(st.Deleted + st.Changed), nil
}

// Summarize compares the texts of a result with the files as they were.
// A path missing from before was created by the operation.
func Summarize(op model.Operation, target string, before map[string]string, result model.Result) (*model.Summary, error) {
	paths := make([]string, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	summary := &model.Summary{Operation: op, Target: target}
	for _, p := range paths {
		orig, existed := before[p]
		change := model.FileChange{Path: p, Status: model.Unchanged}
		switch {
		case !existed:
			change.Status = model.Created
		case orig != result[p]:
			change.Status = model.Modified
		}

		if change.Status != model.Unchanged {
			u, err := Unified(p, orig, result[p])
			if err != nil {
				return nil, err
			}
			if change.Added, change.Deleted, err = Stat(u); err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
		}
		summary.Files = append(summary.Files, change)
	}
	return summary, nil
}
