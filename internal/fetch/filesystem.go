package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem fetches resources from a directory on disk.
// The base directory plays the role of the site root: "/static/app.css"
// and "static/app.css" both resolve to {basePath}/static/app.css.
type Filesystem struct {
	basePath string
}

// NewFilesystem creates a Filesystem fetcher rooted at basePath.
// Returns ErrInvalidBasePath if the path is not a valid, readable directory.
func NewFilesystem(basePath string) (*Filesystem, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	// Containment checks compare real paths, so resolve the base too.
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}
	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &Filesystem{basePath: absPath}, nil
}

// BasePath returns the resolved base directory.
func (f *Filesystem) BasePath() string {
	return f.basePath
}

// Fetch reads the file the location points at.
// Query strings and fragments ("app.js?v=3#x") are ignored.
func (f *Filesystem) Fetch(ctx context.Context, location string) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := f.resolve(location)
	if err != nil {
		return nil, err
	}

	if err := f.verifyPathContainment(filePath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath) // #nosec G304 -- path validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, location)
		}
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	return newPayload(location, "filesystem", content), nil
}

// resolve maps a location to a path on disk.
func (f *Filesystem) resolve(location string) (string, error) {
	if location == "" {
		return "", ErrEmptyLocation
	}

	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return filepath.FromSlash(u.Path), nil
	}

	p := location
	if i := strings.IndexAny(p, "?#"); i != -1 {
		p = p[:i]
	}
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", fmt.Errorf("%w: %q names the site root", ErrNotFound, location)
	}

	return filepath.Join(f.basePath, filepath.FromSlash(p)), nil
}

// verifyPathContainment ensures the resolved file path is within basePath.
// Symlinks are resolved first so a link pointing outside cannot escape.
func (f *Filesystem) verifyPathContainment(filePath string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}

	// A missing file fails to open later; the prefix check still applies.
	if realPath, err := filepath.EvalSymlinks(absFilePath); err == nil {
		absFilePath = realPath
	}

	// Separator suffix keeps /base/path from matching /base/pathevil.
	if !strings.HasPrefix(absFilePath, f.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}

	return nil
}

// Compile-time interface check.
var _ Fetcher = (*Filesystem)(nil)
