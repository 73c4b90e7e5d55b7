package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readTestFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "models.py", `class User:
    def __init__(self, name: str) -> None:
        self.name = name


def helper():
    return 1
`)
	writeTestFile(t, dir, "main.py", `from models import User, helper

def greet(user: User) -> str:
    return f"Hello, {user.name}" + str(helper())
`)
	return dir
}

// runIn runs the CLI against a sample repo rooted at dir.
func runIn(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	full := append([]string{args[0], "-root", dir, "-import-root", dir}, args[1:]...)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunRenameDiff(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, stderr, err := runIn(t, dir, "rename", filepath.Join(dir, "models.py"), "User", "Person")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}

	for _, want := range []string{
		"-class User:",
		"+class Person:",
		"-from models import User, helper",
		"+from models import Person, helper",
		"+def greet(user: Person) -> str:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}

	// Without -w nothing is written.
	if got := readTestFile(t, dir, "models.py"); !strings.Contains(got, "class User:") {
		t.Error("models.py modified without -w")
	}
}

func TestRunRenameWrite(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	_, stderr, err := runIn(t, dir, "rename", "-w", filepath.Join(dir, "models.py"), "helper", "make_one")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stderr, "wrote 2 files") {
		t.Errorf("stderr = %q, want write count", stderr)
	}

	if got := readTestFile(t, dir, "models.py"); !strings.Contains(got, "def make_one():") {
		t.Errorf("models.py not renamed:\n%s", got)
	}
	mainPy := readTestFile(t, dir, "main.py")
	if !strings.Contains(mainPy, "from models import User, make_one") {
		t.Errorf("main.py import not renamed:\n%s", mainPy)
	}
	if !strings.Contains(mainPy, "str(make_one())") {
		t.Errorf("main.py call not renamed:\n%s", mainPy)
	}
}

func TestRunMoveWrite(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	_, stderr, err := runIn(t, dir, "move", "-w",
		filepath.Join(dir, "models.py"), filepath.Join(dir, "utils.py"), "helper")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stderr, "wrote 3 files") {
		t.Errorf("stderr = %q, want write count", stderr)
	}

	if got := readTestFile(t, dir, "utils.py"); got != "def helper():\n    return 1\n" {
		t.Errorf("utils.py = %q", got)
	}
	if got := readTestFile(t, dir, "models.py"); strings.Contains(got, "def helper") {
		t.Errorf("helper still defined in models.py:\n%s", got)
	}
	mainPy := readTestFile(t, dir, "main.py")
	if !strings.Contains(mainPy, "from models import User\n") {
		t.Errorf("main.py still imports helper from models:\n%s", mainPy)
	}
	if !strings.Contains(mainPy, "from utils import helper\n") {
		t.Errorf("main.py missing new import:\n%s", mainPy)
	}
}

func TestRunMoveToon(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, stderr, err := runIn(t, dir, "move", "-format", "toon",
		filepath.Join(dir, "models.py"), filepath.Join(dir, "utils.py"), "helper")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}

	for _, want := range []string{
		"operation: move",
		"target: helper",
		"changed: 3",
		"files[3]{path,status,added,deleted}:",
		"utils.py,created,2,0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("toon output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "utils.py")); err == nil {
		t.Error("utils.py created without -w")
	}
}

func TestRunFiles(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "other.py", "import os\n")

	out, stderr, err := runIn(t, dir, "rename", "-format", "files", filepath.Join(dir, "models.py"), "User", "Person")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 changed files, got %d:\n%s", len(lines), out)
	}
	if !strings.HasSuffix(lines[0], "main.py") || !strings.HasSuffix(lines[1], "models.py") {
		t.Errorf("unexpected files:\n%s", out)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-V"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "pyrefactor ") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	models := filepath.Join(dir, "models.py")

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"extract"}},
		{"too few args", []string{"rename", models, "User"}},
		{"bad format", []string{"rename", "-format", "json", models, "User", "Person"}},
		{"invalid name", []string{"rename", "-import-root", dir, models, "User", "class"}},
		{"missing definition", []string{"move", "-root", dir, "-import-root", dir, models, filepath.Join(dir, "utils.py"), "nothing"}},
		{"missing config", []string{"rename", "-config", filepath.Join(dir, "none.yaml"), models, "User", "Person"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			if err := run(context.Background(), tt.args, &stdout, &stderr); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestReorderArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"flags first", []string{"-root", "src", "a.py", "x", "y"}, []string{"-root", "src", "a.py", "x", "y"}},
		{"positional first", []string{"a.py", "x", "y", "-root", "src"}, []string{"-root", "src", "a.py", "x", "y"}},
		{"mixed", []string{"-w", "a.py", "-format", "toon", "x", "y"}, []string{"-w", "-format", "toon", "a.py", "x", "y"}},
		{"import root", []string{"a.py", "-import-root", "lib", "x", "y"}, []string{"-import-root", "lib", "a.py", "x", "y"}},
		{"no flags", []string{"a.py"}, []string{"a.py"}},
		{"no args", nil, nil},
		{"bool flag", []string{"-v"}, []string{"-v"}},
		{"double dash", []string{"-w", "--", "-odd.py"}, []string{"-w", "-odd.py"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := reorderArgs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q (full: %v)", i, got[i], tt.want[i], got)
					break
				}
			}
		})
	}
}
