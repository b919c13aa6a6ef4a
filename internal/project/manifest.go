// Package project locates and parses fern.toml and provides the digest
// primitives the build cache keys on.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a parsed fern.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Build   BuildSection   `toml:"build"`
}

// PackageSection is the [package] table.
type PackageSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildSection is the [build] table. Inputs are bound-tree interchange
// files, relative to the manifest's directory. Sources optionally lists
// the front end's input files in its numbering order, so diagnostics
// resolve spans to line and column.
type BuildSection struct {
	Inputs         []string `toml:"inputs"`
	Sources        []string `toml:"sources"`
	Jobs           int      `toml:"jobs"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
	NoCache        bool     `toml:"no_cache"`
}

// ErrPackageSectionMissing indicates that [package] is missing.
var ErrPackageSectionMissing = errors.New("missing [package]")

// ErrPackageNameMissing indicates that [package].name is missing.
var ErrPackageNameMissing = errors.New("missing [package].name")

// Load parses a fern.toml at path.
func Load(path string) (Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if strings.TrimSpace(m.Package.Name) == "" {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	return m, nil
}

// FindManifest walks up from startDir to locate fern.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "fern.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindProjectRoot returns the directory containing fern.toml, if any.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// ResolveInputs expands the manifest's input list against root into
// absolute paths, in manifest order.
func (m Manifest) ResolveInputs(root string) ([]string, error) {
	out := make([]string, 0, len(m.Build.Inputs))
	for _, in := range m.Build.Inputs {
		if filepath.IsAbs(in) {
			return nil, fmt.Errorf("invalid [build].inputs entry %q: must be relative", in)
		}
		p := filepath.Join(root, filepath.Clean(filepath.FromSlash(in)))
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("input %q: %w", in, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ResolveSources expands the manifest's source list against root. Order
// matters: span file IDs in the interchange follow the front end's
// numbering, which is this list's order.
func (m Manifest) ResolveSources(root string) ([]string, error) {
	out := make([]string, 0, len(m.Build.Sources))
	for _, in := range m.Build.Sources {
		if filepath.IsAbs(in) {
			return nil, fmt.Errorf("invalid [build].sources entry %q: must be relative", in)
		}
		p := filepath.Join(root, filepath.Clean(filepath.FromSlash(in)))
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("source %q: %w", in, err)
		}
		out = append(out, p)
	}
	return out, nil
}
