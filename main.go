// pyrefactor renames and moves Python functions and classes across a source
// tree, rewriting every import that refers to them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/phobologic/pyrefactor/internal/config"
	"github.com/phobologic/pyrefactor/internal/model"
	"github.com/phobologic/pyrefactor/internal/refactor"
	"github.com/phobologic/pyrefactor/internal/report"
	"github.com/phobologic/pyrefactor/internal/toon"
)

var version = "dev"

const usage = `Usage:
  pyrefactor rename [flags] <file> <old-name> <new-name>
  pyrefactor move [flags] <source-file> <destination-file> <symbol>
  pyrefactor init [flags] [path]

Run "pyrefactor <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return errors.New("no command given")
	}

	switch args[0] {
	case "rename":
		return runOperation(ctx, model.Rename, args[1:], stdout, stderr)
	case "move":
		return runOperation(ctx, model.Move, args[1:], stdout, stderr)
	case "init":
		return runInit(args[1:], stdout, stderr)
	case "-V", "-version", "--version":
		_, _ = fmt.Fprintf(stdout, "pyrefactor %s\n", version)
		return nil
	case "-h", "-help", "--help", "help":
		_, _ = fmt.Fprint(stdout, usage)
		return nil
	}
	_, _ = fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", args[0])
}

// options holds the flags shared by rename and move.
type options struct {
	root       string
	importRoot string
	configPath string
	format     string
	write      bool
	verbose    bool
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.root, "root", ".", "directory scanned for dependent files")
	fs.StringVar(&o.importRoot, "import-root", "", "directory module paths are relative to (overrides config)")
	fs.StringVar(&o.configPath, "config", "", "config file (default ./"+config.FileName+" if present)")
	fs.StringVar(&o.format, "format", "diff", "output format: diff, toon or files")
	fs.BoolVar(&o.write, "w", false, "write changed files back to disk")
	fs.BoolVar(&o.verbose, "v", false, "log every visited file")
}

func (o *options) config() (config.Config, error) {
	var cfg config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath, false)
	} else {
		cfg, err = config.Load(config.FileName, true)
	}
	if err != nil {
		return cfg, err
	}
	if o.importRoot != "" {
		cfg.ImportRoot = o.importRoot
	}
	return cfg, nil
}

func (o *options) logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func runOperation(ctx context.Context, op model.Operation, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pyrefactor "+string(op), flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	opts.register(fs)

	positional := "<file> <old-name> <new-name>"
	if op == model.Move {
		positional = "<source-file> <destination-file> <symbol>"
	}
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pyrefactor %s [flags] %s\n\nFlags:\n", op, positional)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return fmt.Errorf("%s takes 3 arguments, got %d", op, fs.NArg())
	}
	switch opts.format {
	case "diff", "toon", "files":
	default:
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	cfg, err := opts.config()
	if err != nil {
		return err
	}
	engine := refactor.New(cfg, refactor.WithLogger(opts.logger(stderr)))

	var result model.Result
	var target string
	switch op {
	case model.Rename:
		req := model.RenameRequest{File: fs.Arg(0), OldName: fs.Arg(1), NewName: fs.Arg(2)}
		target = req.OldName
		result, err = engine.Rename(ctx, req, opts.root)
	case model.Move:
		req := model.MoveRequest{Source: fs.Arg(0), Destination: fs.Arg(1), Symbol: fs.Arg(2)}
		target = req.Symbol
		result, err = engine.Move(ctx, req, opts.root)
	}
	if err != nil {
		return err
	}

	before := readOriginals(result)
	if err := printResult(stdout, opts.format, op, target, before, result); err != nil {
		return err
	}

	if opts.write {
		n, err := writeResult(before, result)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stderr, "wrote %d files\n", n)
	}
	return nil
}

// readOriginals loads the current text of every file in result. Files that
// do not exist yet are left out.
func readOriginals(result model.Result) map[string]string {
	before := make(map[string]string, len(result))
	for p := range result {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		before[p] = string(data)
	}
	return before
}

func sortedPaths(result model.Result) []string {
	paths := make([]string, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func printResult(w io.Writer, format string, op model.Operation, target string, before map[string]string, result model.Result) error {
	switch format {
	case "toon":
		summary, err := report.Summarize(op, target, before, result)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, toon.Encode(summary))
	case "files":
		for _, p := range sortedPaths(result) {
			if orig, ok := before[p]; !ok || orig != result[p] {
				_, _ = fmt.Fprintln(w, p)
			}
		}
	default:
		for _, p := range sortedPaths(result) {
			u, err := report.Unified(filepath.ToSlash(p), before[p], result[p])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(w, u)
		}
	}
	return nil
}

// writeResult writes every changed or new file and returns how many it wrote.
func writeResult(before map[string]string, result model.Result) (int, error) {
	n := 0
	for _, p := range sortedPaths(result) {
		orig, existed := before[p]
		if existed && orig == result[p] {
			continue
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(p); err == nil {
			mode = info.Mode().Perm()
		} else if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return n, fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(result[p]), mode); err != nil {
			return n, fmt.Errorf("writing %s: %w", p, err)
		}
		n++
	}
	return n, nil
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-root": true, "--root": true,
	"-import-root": true, "--import-root": true,
	"-config": true, "--config": true,
	"-format": true, "--format": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
