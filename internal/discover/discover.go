// Package discover enumerates the YAML descriptor files to validate.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/port-tools/portcheck/internal/errors"
)

// Issue records a path that could not be discovered. Discovery issues do not
// abort discovery of the remaining paths.
type Issue struct {
	Path string
	Err  error
}

// Discoverer applies the file discovery policy: only root-level descriptors
// are authoritative, and reserved configuration directories are never
// treated as entity data.
type Discoverer struct {
	excludeDirs map[string]struct{}
	logger      hclog.Logger
}

// New creates a Discoverer that skips the given directory names during scans.
func New(logger hclog.Logger, excludeDirs []string) *Discoverer {
	excluded := make(map[string]struct{}, len(excludeDirs))
	for _, dir := range excludeDirs {
		excluded[dir] = struct{}{}
	}

	return &Discoverer{
		excludeDirs: excluded,
		logger:      logger.Named("discover"),
	}
}

// Files returns the ordered set of YAML files selected by the given paths.
//
// With no paths, the working directory is scanned at depth 0 only, skipping
// excluded directories. A directory argument is scanned under the same
// root-only policy. A file argument is included verbatim, trusting caller
// intent. Explicit paths that do not exist are returned as discovery errors;
// they do not abort discovery of the remaining paths.
func (d *Discoverer) Files(paths []string) ([]string, []Issue) {
	if len(paths) == 0 {
		files, err := d.scanDir(".")
		if err != nil {
			return nil, []Issue{{Path: ".", Err: err}}
		}
		return files, nil
	}

	var (
		files  []string
		issues []Issue
		seen   = make(map[string]struct{})
	)

	add := func(fs ...string) {
		for _, f := range fs {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			issues = append(issues, Issue{
				Path: path,
				Err:  fmt.Errorf("%w: %s: %w", errors.ErrDiscovery, path, err),
			})
			continue
		}

		if info.IsDir() {
			found, err := d.scanDir(path)
			if err != nil {
				issues = append(issues, Issue{Path: path, Err: err})
				continue
			}
			add(found...)
			continue
		}

		d.logger.Debug("Including explicit file", "path", path)
		add(path)
	}

	slices.Sort(files)

	return files, issues
}

// scanDir returns the YAML files directly under dir, sorted by path.
// Subdirectories are never descended into.
func (d *Discoverer) scanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrDiscovery, dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() {
			if _, excluded := d.excludeDirs[name]; excluded {
				d.logger.Debug("Skipping excluded directory", "dir", name)
			}
			continue
		}

		if !isYAML(name) {
			continue
		}

		files = append(files, filepath.Join(dir, name))
	}

	slices.Sort(files)

	d.logger.Debug("Scanned directory", "dir", dir, "files", len(files))

	return files, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
