// SPDX-License-Identifier: MPL-2.0

// Package discovery locates the Runfile for an invocation: an explicit
// --runfile path wins, then an upward search from the working directory
// bounded by the home directory (or the filesystem root), then the global
// ~/.runfile. When both a project and the global manifest exist, their
// contents are merged with the project last, so project definitions
// override global ones under the table's later-definition-wins rule.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the file name searched for in each directory.
const ManifestName = "Runfile"

// GlobalName is the global manifest in the home directory.
const GlobalName = ".runfile"

// ErrNotFound is returned when no Runfile can be located.
var ErrNotFound = errors.New("no Runfile found")

type (
	// Options controls discovery. Zero values mean: no explicit path, search
	// from the current working directory, resolve home via the OS, merge
	// the global manifest.
	Options struct {
		// CustomPath is an explicit manifest path (file, or directory
		// containing a Runfile). Explicit paths are used standalone; the
		// global manifest is not merged under them.
		CustomPath string
		// WorkDir is the directory the upward search starts from.
		WorkDir string
		// HomeDir bounds the upward search and hosts the global manifest.
		HomeDir string
		// NoGlobalMerge disables merging ~/.runfile under a project
		// manifest.
		NoGlobalMerge bool
	}

	// Source is a located manifest ready for parsing.
	Source struct {
		// Path is the project (or explicit) manifest path; for a
		// global-only result it is the global path.
		Path string
		// GlobalPath is set when global content was merged in.
		GlobalPath string
		// Content is the manifest text handed to the parser, with any
		// merged global content first.
		Content string
	}
)

// Discover locates and reads the Runfile per the package rules.
func Discover(opts Options) (*Source, error) {
	if opts.CustomPath != "" {
		return fromCustomPath(opts.CustomPath)
	}

	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		workDir = wd
	}
	homeDir := opts.HomeDir
	if homeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			homeDir = home
		}
	}

	projectPath := searchUpward(workDir, homeDir)
	globalPath := ""
	if homeDir != "" {
		candidate := filepath.Join(homeDir, GlobalName)
		if isFile(candidate) {
			globalPath = candidate
		}
	}

	switch {
	case projectPath == "" && globalPath == "":
		return nil, ErrNotFound
	case projectPath == "":
		content, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("reading global Runfile: %w", err)
		}
		return &Source{Path: globalPath, Content: string(content)}, nil
	}

	project, err := os.ReadFile(projectPath)
	if err != nil {
		return nil, fmt.Errorf("reading Runfile: %w", err)
	}
	src := &Source{Path: projectPath, Content: string(project)}

	if globalPath != "" && !opts.NoGlobalMerge {
		global, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("reading global Runfile: %w", err)
		}
		src.GlobalPath = globalPath
		src.Content = string(global) + "\n" + string(project)
	}
	return src, nil
}

// fromCustomPath resolves an explicit --runfile value: a file is used
// directly, a directory must contain a Runfile.
func fromCustomPath(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("runfile path %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, ManifestName)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading Runfile %s: %w", path, err)
	}
	return &Source{Path: path, Content: string(content)}, nil
}

// searchUpward walks from dir toward the root looking for a Runfile. The
// home directory, once reached, is the last directory checked.
func searchUpward(dir, homeDir string) string {
	for {
		candidate := filepath.Join(dir, ManifestName)
		if isFile(candidate) {
			return candidate
		}
		if dir == homeDir {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
