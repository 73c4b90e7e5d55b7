// Package config loads pyrefactor's YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".pyrefactor.yaml"

// Config controls how files are found and turned into module paths.
type Config struct {
	// ImportRoot is the directory dotted module paths are computed from,
	// usually the directory on sys.path.
	ImportRoot string `yaml:"import_root"`
	// FixtureSuffix marks expected-output files skipped by the dependent
	// scan. Empty disables the check.
	FixtureSuffix string `yaml:"fixture_suffix"`
	// Exclude holds doublestar patterns, relative to the scan root, of
	// files never rewritten.
	Exclude []string `yaml:"exclude,omitempty"`
	// SkipDirs names directories skipped in addition to the built-in list.
	SkipDirs []string `yaml:"skip_dirs,omitempty"`
	// RespectGitignore skips files git ignores.
	RespectGitignore bool `yaml:"respect_gitignore"`
	// MaxFileSize is the largest file, in bytes, that will be parsed.
	MaxFileSize int64 `yaml:"max_file_size"`
	// Workers bounds the files transformed concurrently.
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ImportRoot:       ".",
		FixtureSuffix:    "_expected",
		RespectGitignore: true,
		MaxFileSize:      1 << 20,
		Workers:          runtime.GOMAXPROCS(0),
	}
}

// Load reads the file at path over the defaults. A missing file is not an
// error when optional is set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no scan can work with.
func (c Config) Validate() error {
	if c.ImportRoot == "" {
		return errors.New("import_root must not be empty")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Marshal renders c as a config file.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# pyrefactor configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
