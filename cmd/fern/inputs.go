package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fern/internal/project"
	"fern/internal/source"
)

// buildInputs is everything the command argument resolved to: the
// interchange files to compile, the manifest when one governs them, and
// a file set over the front end's source files when the manifest lists
// them.
type buildInputs struct {
	files    []string
	manifest *project.Manifest
	sources  *source.FileSet
}

// resolveBuildInputs turns the command argument into a list of
// interchange files plus any manifest-supplied defaults. The argument
// may be a single .fnb file, a directory holding a fern.toml, or a bare
// directory scanned for *.fnb.
func resolveBuildInputs(arg string) (buildInputs, error) {
	st, err := os.Stat(arg)
	if err != nil {
		return buildInputs{}, err
	}

	if !st.IsDir() {
		if !strings.HasSuffix(arg, ".fnb") {
			return buildInputs{}, fmt.Errorf("%s: not a .fnb interchange file", arg)
		}
		return buildInputs{files: []string{arg}}, nil
	}

	if mPath, ok, err := project.FindManifest(arg); err != nil {
		return buildInputs{}, err
	} else if ok {
		m, err := project.Load(mPath)
		if err != nil {
			return buildInputs{}, err
		}
		root := filepath.Dir(mPath)
		files, err := m.ResolveInputs(root)
		if err != nil {
			return buildInputs{}, err
		}
		if len(files) == 0 {
			return buildInputs{}, fmt.Errorf("%s: [build].inputs is empty", mPath)
		}
		fs, err := loadSources(m, root)
		if err != nil {
			return buildInputs{}, err
		}
		return buildInputs{files: files, manifest: &m, sources: fs}, nil
	}

	var files []string
	entries, err := os.ReadDir(arg)
	if err != nil {
		return buildInputs{}, err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".fnb") {
			files = append(files, filepath.Join(arg, e.Name()))
		}
	}
	if len(files) == 0 {
		return buildInputs{}, fmt.Errorf("%s: no .fnb files found", arg)
	}
	sort.Strings(files)
	return buildInputs{files: files}, nil
}

// loadSources builds a file set over [build].sources in manifest order,
// matching the file IDs the front end assigned. Nil when the manifest
// lists none; diagnostics then print raw spans.
func loadSources(m project.Manifest, root string) (*source.FileSet, error) {
	if len(m.Build.Sources) == 0 {
		return nil, nil
	}
	paths, err := m.ResolveSources(root)
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	for _, p := range paths {
		if _, err := fs.Load(p); err != nil {
			return nil, err
		}
	}
	return fs, nil
}
