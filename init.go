package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phobologic/pyrefactor/internal/config"
)

// runInit implements the `pyrefactor init` subcommand, which writes a config
// file holding the default settings.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pyrefactor init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun, force bool
	fs.BoolVar(&dryRun, "dry-run", false, "print the config without writing it")
	fs.BoolVar(&force, "force", false, "overwrite an existing config file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: pyrefactor init [flags] [path]

Write a %s file holding the default settings. path may name the file or
the directory to create it in, and defaults to the current directory.

Flags:
`, config.FileName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("init takes at most 1 argument, got %d", fs.NArg())
	}

	data, err := config.Default().Marshal()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if dryRun {
		_, _ = stdout.Write(data)
		return nil
	}

	path := configPath(fs.Arg(0))
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
	return nil
}

// configPath maps the init argument to the file to write. Directories get
// the default file name appended.
func configPath(arg string) string {
	if arg == "" {
		return config.FileName
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return filepath.Join(arg, config.FileName)
	}
	return arg
}
