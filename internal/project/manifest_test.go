package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "fern.toml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	p := writeManifest(t, dir, `
[package]
name = "demo"
version = "0.1.0"

[build]
inputs = ["main.fnb"]
jobs = 4
max_diagnostics = 50
`)
	m, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Package.Name != "demo" || m.Package.Version != "0.1.0" {
		t.Fatalf("package section = %+v", m.Package)
	}
	if len(m.Build.Inputs) != 1 || m.Build.Jobs != 4 || m.Build.MaxDiagnostics != 50 {
		t.Fatalf("build section = %+v", m.Build)
	}
}

func TestLoadRejectsMissingPackage(t *testing.T) {
	dir := t.TempDir()
	p := writeManifest(t, dir, `[build]
inputs = []
`)
	if _, err := Load(p); err == nil {
		t.Fatal("a manifest without [package] must be rejected")
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"x\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("found %s, want manifest in %s", path, root)
	}
}

func TestResolveInputsRejectsAbsolute(t *testing.T) {
	m := Manifest{Build: BuildSection{Inputs: []string{"/etc/x.fnb"}}}
	if _, err := m.ResolveInputs(t.TempDir()); err == nil {
		t.Fatal("absolute inputs must be rejected")
	}
}

func TestResolveSourcesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.fn", "a.fn"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m := Manifest{Build: BuildSection{Sources: []string{"b.fn", "a.fn"}}}
	got, err := m.ResolveSources(dir)
	if err != nil {
		t.Fatalf("ResolveSources: %v", err)
	}
	// Manifest order is the front end's file numbering; never sorted.
	if len(got) != 2 || filepath.Base(got[0]) != "b.fn" || filepath.Base(got[1]) != "a.fn" {
		t.Fatalf("sources = %v", got)
	}
}

func TestCombineOrderMatters(t *testing.T) {
	a := HashBytes([]byte("a"))
	b := HashBytes([]byte("b"))
	c := HashBytes([]byte("content"))
	if Combine(c, a, b) == Combine(c, b, a) {
		t.Fatal("dependency order must be part of the digest")
	}
	if Combine(c).IsZero() {
		t.Fatal("a combined digest is never zero")
	}
}
