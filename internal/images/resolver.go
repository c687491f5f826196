// Package images resolves user-supplied image names to real files
// before the upload phase runs, so the browser never gets handed a
// path that does not exist.
package images

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
)

// Resolver locates listing images across the common drop locations:
// the path as given, the working directory, ./images, and the user's
// Downloads and Pictures folders. Missing names are logged and
// skipped, never fatal.
type Resolver struct {
	names    []string
	logger   arbor.ILogger
	resolved []string
	done     bool
}

// NewResolver creates a resolver for the configured image names.
func NewResolver(names []string, logger arbor.ILogger) *Resolver {
	return &Resolver{names: names, logger: logger}
}

// Resolve returns the absolute paths of every image that exists,
// preserving input order. The result is computed once and cached.
func (r *Resolver) Resolve() []string {
	if r.done {
		return r.resolved
	}
	r.done = true

	var searchDirs []string
	if cwd, err := os.Getwd(); err == nil {
		searchDirs = append(searchDirs, cwd, filepath.Join(cwd, "images"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		searchDirs = append(searchDirs, filepath.Join(home, "Downloads"), filepath.Join(home, "Pictures"))
	}

	var missing []string
	for _, name := range r.names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		if path, ok := fileAt(name); ok {
			r.resolved = append(r.resolved, path)
			continue
		}

		found := false
		for _, dir := range searchDirs {
			if path, ok := fileAt(filepath.Join(dir, name)); ok {
				r.resolved = append(r.resolved, path)
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		r.logger.Warn().Str("files", strings.Join(missing, ", ")).Msg("Image files not found, skipping them")
	}
	if len(r.resolved) > 0 {
		r.logger.Info().Int("count", len(r.resolved)).Str("files", strings.Join(r.resolved, ", ")).Msg("Resolved image files for upload")
	} else if len(r.names) > 0 {
		r.logger.Info().Msg("No image files found to upload, skipping upload phase")
	}
	return r.resolved
}

// HasImages reports whether any configured image resolved to a file.
func (r *Resolver) HasImages() bool {
	return len(r.Resolve()) > 0
}

func fileAt(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, true
	}
	return abs, true
}
