// Package module implements `include` resolution and loading: locating a
// source file by Nebula's search rules, reading it, and caching its source
// text, plus the in-progress marks that detect circular includes. The
// loader does not parse; at-most-once evaluation is tracked by the
// interpreter.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// searchDirs is consulted, in order, for an "@name" include.
var searchDirs = []string{"tests", "lib", "examples"}

// AddSearchDir appends dir to the "@name" search path, after the built-in
// entries. Used by the CLI to honor search_paths from .nebula.yaml.
func AddSearchDir(dir string) {
	for _, existing := range searchDirs {
		if existing == dir {
			return
		}
	}
	searchDirs = append(searchDirs, dir)
}

// Loader resolves include paths to file contents and tracks which paths
// are fully loaded versus mid-load, so a cyclic include fails cleanly
// instead of recursing forever.
type Loader struct {
	// BaseDir is the directory of the initially executed source file;
	// relative includes resolve against it before falling back to the
	// working directory.
	BaseDir string

	cache      map[string]string // resolved path -> source text
	processing map[string]bool   // resolved path -> load in progress
}

// NewLoader returns a Loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		BaseDir:    baseDir,
		cache:      map[string]string{},
		processing: map[string]bool{},
	}
}

// Resolve implements the path search rules: an "@"-prefixed name is
// searched across searchDirs in order; anything else resolves relative to
// BaseDir, falling back to the working directory. ensureExt, when true,
// appends ".fn" if the path doesn't already carry it (the call-form
// `include(expr)` rule; the statement form passes ensureExt=false since it
// always carries an explicit literal path).
func (l *Loader) Resolve(path string, ensureExt bool) (string, error) {
	if ensureExt && filepath.Ext(path) == "" {
		path += ".fn"
	}

	if strings.HasPrefix(path, "@") {
		name := strings.TrimPrefix(path, "@")
		for _, dir := range searchDirs {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("module not found: %s", path)
	}

	if l.BaseDir != "" {
		candidate := filepath.Join(l.BaseDir, path)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	if fileExists(path) {
		return path, nil
	}
	return "", fmt.Errorf("module not found: %s", path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load resolves path to an absolute path and returns its source text:
// the copy cached by an earlier EndLoad (cached is then true), or else the
// file read from disk. A path marked in progress by BeginLoad and not yet
// cached is reported as a circular include. Load itself neither parses
// nor caches; the caller straddles its parse-and-evaluate step with
// BeginLoad/EndLoad.
func (l *Loader) Load(path string, ensureExt bool) (resolved string, source string, cached bool, err error) {
	resolved, err = l.Resolve(path, ensureExt)
	if err != nil {
		return "", "", false, err
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", "", false, err
	}

	if src, ok := l.cache[resolved]; ok {
		return resolved, src, true, nil
	}
	if l.processing[resolved] {
		return "", "", false, fmt.Errorf("circular include detected: %s", resolved)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", "", false, fmt.Errorf("cannot read module %q: %w", path, err)
	}
	return resolved, string(data), false, nil
}

// BeginLoad marks resolved as in-progress, to be paired with EndLoad once
// the caller has finished evaluating it.
func (l *Loader) BeginLoad(resolved string) {
	l.processing[resolved] = true
}

// EndLoad marks resolved as complete, caching its source so a later
// include of the same file returns the cached copy instead of re-reading
// it from disk.
func (l *Loader) EndLoad(resolved, source string) {
	delete(l.processing, resolved)
	l.cache[resolved] = source
}
