// Package mergeconf loads the optional .zetamerge.toml merge-driver
// attribute file: path-pattern to external program, conflict style and
// diff algorithm overrides. It supplies the per-path driver selection
// ExternalProgramCallback needs without inventing a bespoke format.
package mergeconf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is the attribute file looked up at the repository
// root when no explicit path is given.
const DefaultFileName = ".zetamerge.toml"

// ConflictStyle selects how a content conflict is rendered into the
// worktree when the line-merge engine cannot produce a clean result.
type ConflictStyle string

const (
	ConflictStyleMerge  ConflictStyle = "merge"  // ours/theirs markers only
	ConflictStyleDiff3  ConflictStyle = "diff3"  // adds the common-ancestor hunk
	ConflictStyleZealous ConflictStyle = "zdiff3" // diff3 plus common-edge collapsing
)

// Driver describes one [[driver]] table: a glob pattern matched against
// repository-relative paths, and the external program (if any) invoked
// for paths it matches.
type Driver struct {
	Pattern string        `toml:"pattern"`
	Program string        `toml:"program,omitempty"`
	Style   ConflictStyle `toml:"conflict_style,omitempty"`
	Algo    string        `toml:"diff_algorithm,omitempty"`
}

// Config is the decoded form of .zetamerge.toml.
type Config struct {
	DefaultStyle ConflictStyle `toml:"default_conflict_style,omitempty"`
	DefaultAlgo  string        `toml:"default_diff_algorithm,omitempty"`
	Drivers      []Driver      `toml:"driver"`
}

// defaults mirrors the base spec's zealous-alphanumeric default.
func defaults() *Config {
	return &Config{
		DefaultStyle: ConflictStyleZealous,
		DefaultAlgo:  "myers",
	}
}

// Load reads and decodes path. A missing file is not an error: Load
// returns the defaults unchanged so callers can treat a bare repository
// (no attribute file) the same as one with an empty file.
func Load(path string) (*Config, error) {
	cfg := defaults()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("mergeconf: open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("mergeconf: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir looks up DefaultFileName under dir.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, DefaultFileName))
}

// ProgramFor returns the external merge program configured for path, and
// whether any [[driver]] table matched. A later entry takes precedence
// over an earlier one with an overlapping pattern, matching the
// last-match-wins convention of gitattributes-style pattern files.
func (c *Config) ProgramFor(path string) (string, bool) {
	program, _, found := c.matchFor(path)
	return program, found
}

// StyleFor returns the conflict style for path, falling back to the
// file-level default and then the built-in zealous default.
func (c *Config) StyleFor(path string) ConflictStyle {
	_, style, found := c.matchFor(path)
	if found && style != "" {
		return style
	}
	if c.DefaultStyle != "" {
		return c.DefaultStyle
	}
	return ConflictStyleZealous
}

func (c *Config) matchFor(path string) (program string, style ConflictStyle, found bool) {
	for _, d := range c.Drivers {
		ok, err := filepath.Match(d.Pattern, path)
		if err != nil || !ok {
			// fall back to a base-name match so patterns like "*.bin"
			// still match nested paths the way gitattributes globs do.
			if ok2, err2 := filepath.Match(d.Pattern, filepath.Base(path)); err2 != nil || !ok2 {
				continue
			}
		}
		program, style, found = d.Program, d.Style, true
	}
	return program, style, found
}

// AlgoFor returns the diff algorithm configured for path, falling back
// to the file-level default and then "myers".
func (c *Config) AlgoFor(path string) string {
	for _, d := range c.Drivers {
		if d.Algo == "" {
			continue
		}
		if ok, err := filepath.Match(d.Pattern, path); err == nil && ok {
			return d.Algo
		}
		if ok, err := filepath.Match(d.Pattern, filepath.Base(path)); err == nil && ok {
			return d.Algo
		}
	}
	if c.DefaultAlgo != "" {
		return c.DefaultAlgo
	}
	return "myers"
}

// SupportedAlgorithms lists the diff_algorithm names Validate accepts.
// Validate rejects any driver/default naming something else, so an
// unknown diff_algorithm is a configuration error the CLI reports.
// internal/diff3merge has a single diff implementation (a
// Hunt-Szymanski LCS) and does not read this setting.
var SupportedAlgorithms = map[string]bool{"myers": true}

// Validate checks that every configured diff algorithm is one
// internal/diff3merge can run.
func (c *Config) Validate() error {
	if c.DefaultAlgo != "" && !SupportedAlgorithms[c.DefaultAlgo] {
		return fmt.Errorf("mergeconf: unsupported default_diff_algorithm %q", c.DefaultAlgo)
	}
	for _, d := range c.Drivers {
		if d.Algo != "" && !SupportedAlgorithms[d.Algo] {
			return fmt.Errorf("mergeconf: driver %q: unsupported diff_algorithm %q", d.Pattern, d.Algo)
		}
	}
	return nil
}
