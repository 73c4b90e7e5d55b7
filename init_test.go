package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/pyrefactor/internal/config"
)

// TestInitCreatesFile verifies that runInit writes a loadable config into a
// directory argument.
func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	path := filepath.Join(dir, config.FileName)
	cfg, err := config.Load(path, false)
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if cfg.ImportRoot != "." {
		t.Errorf("ImportRoot = %q, want %q", cfg.ImportRoot, ".")
	}
	if !strings.Contains(stderr.String(), path) {
		t.Errorf("stderr should name the written file, got %q", stderr.String())
	}
}

// TestInitExplicitFile verifies that a file argument is used as given.
func TestInitExplicitFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "custom.yaml")

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{path}, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}
}

// TestInitDryRun verifies that -dry-run prints the config to stdout and does
// not create the target file.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{dir, "--dry-run"}, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		t.Error("--dry-run should not create the file")
	}
	out := stdout.String()
	for _, key := range []string{"import_root:", "fixture_suffix:", "max_file_size:"} {
		if !strings.Contains(out, key) {
			t.Errorf("dry-run output missing %q:\n%s", key, out)
		}
	}
}

// TestInitRefusesOverwrite verifies that an existing file is kept unless
// -force is given.
func TestInitRefusesOverwrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)
	existing := "import_root: src\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runInit([]string{path}, &buf, &buf); err == nil {
		t.Fatal("expected error for existing file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != existing {
		t.Error("existing file must not be modified without -force")
	}

	if err := runInit([]string{"-force", path}, &buf, &buf); err != nil {
		t.Fatalf("runInit -force: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) == existing {
		t.Error("-force should overwrite the file")
	}
}

// TestInitTooManyArgs verifies that more than one path is rejected.
func TestInitTooManyArgs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := runInit([]string{"a", "b"}, &buf, &buf); err == nil {
		t.Error("expected error for two paths")
	}
}
