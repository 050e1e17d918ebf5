// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiscoverCustomPathFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.run")
	write(t, path, "build() make\n")

	src, err := Discover(Options{CustomPath: path})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if src.Path != path || src.Content != "build() make\n" {
		t.Errorf("src = %+v", src)
	}
	if src.GlobalPath != "" {
		t.Error("explicit paths must not merge the global manifest")
	}
}

func TestDiscoverCustomPathDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, filepath.Join(dir, ManifestName), "build() make\n")

	src, err := Discover(Options{CustomPath: dir})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if src.Path != filepath.Join(dir, ManifestName) {
		t.Errorf("path = %q", src.Path)
	}
}

func TestDiscoverCustomPathMissing(t *testing.T) {
	t.Parallel()

	if _, err := Discover(Options{CustomPath: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("Discover() with a missing explicit path must error")
	}
}

func TestDiscoverUpwardSearch(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	project := filepath.Join(home, "src", "app")
	nested := filepath.Join(project, "deep", "er")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	write(t, filepath.Join(project, ManifestName), "build() make\n")

	src, err := Discover(Options{WorkDir: nested, HomeDir: home})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if src.Path != filepath.Join(project, ManifestName) {
		t.Errorf("path = %q, want the nearest ancestor Runfile", src.Path)
	}
}

func TestDiscoverSearchBoundedByHome(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	home := filepath.Join(root, "home", "user")
	work := filepath.Join(home, "project")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// A Runfile above home must not be picked up.
	write(t, filepath.Join(root, ManifestName), "outside() true\n")

	_, err := Discover(Options{WorkDir: work, HomeDir: home})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound (search must stop at home)", err)
	}
}

func TestDiscoverGlobalFallback(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	work := filepath.Join(home, "empty")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	write(t, filepath.Join(home, GlobalName), "global() echo g\n")

	src, err := Discover(Options{WorkDir: work, HomeDir: home})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if src.Path != filepath.Join(home, GlobalName) {
		t.Errorf("path = %q, want the global manifest", src.Path)
	}
}

func TestDiscoverMergesGlobalFirst(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	work := filepath.Join(home, "project")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	write(t, filepath.Join(home, GlobalName), "build() echo global\n")
	write(t, filepath.Join(work, ManifestName), "build() echo project\n")

	src, err := Discover(Options{WorkDir: work, HomeDir: home})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if src.GlobalPath == "" {
		t.Fatal("global manifest not merged")
	}
	gi := strings.Index(src.Content, "echo global")
	pi := strings.Index(src.Content, "echo project")
	if gi < 0 || pi < 0 || gi > pi {
		t.Errorf("merged content must put global before project:\n%s", src.Content)
	}
}

func TestDiscoverNoGlobalMerge(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	work := filepath.Join(home, "project")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	write(t, filepath.Join(home, GlobalName), "extra() echo g\n")
	write(t, filepath.Join(work, ManifestName), "build() echo p\n")

	src, err := Discover(Options{WorkDir: work, HomeDir: home, NoGlobalMerge: true})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if src.GlobalPath != "" || strings.Contains(src.Content, "extra") {
		t.Errorf("global content merged despite NoGlobalMerge:\n%s", src.Content)
	}
}
