package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// EmbedScheme prefixes locations served by an FS fetcher, as in
// "embed:vendor/jquery.min.js".
const EmbedScheme = "embed:"

// FS fetches resources from an fs.FS, usually an embed.FS holding
// vendored copies of third-party assets.
type FS struct {
	fsys fs.FS
}

// NewFS creates an FS fetcher over fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Fetch reads the named file from the filesystem.
// Accepts both "embed:path" and bare "path" locations.
func (e *FS) Fetch(ctx context.Context, location string) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if location == "" {
		return nil, ErrEmptyLocation
	}

	name := strings.TrimPrefix(location, EmbedScheme)
	name = strings.TrimLeft(name, "/")
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ErrPathTraversal, location)
	}

	content, err := fs.ReadFile(e.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, location)
		}
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	return newPayload(location, "fs", content), nil
}

// Compile-time interface check.
var _ Fetcher = (*FS)(nil)
