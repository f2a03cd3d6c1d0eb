package fetch

import "errors"

// Sentinel errors for fetch operations.
var (
	// ErrEmptyLocation indicates no location was given.
	ErrEmptyLocation = errors.New("empty location")

	// ErrNotFound indicates the resource does not exist at the location.
	ErrNotFound = errors.New("resource not found")

	// ErrRead indicates an I/O error occurred while reading a resource.
	ErrRead = errors.New("failed to read resource")

	// ErrInvalidBasePath indicates the configured base path is not a valid directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrPathTraversal indicates an attempt to access files outside the base path.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrUnsupportedScheme indicates no fetcher handles the location's scheme.
	ErrUnsupportedScheme = errors.New("unsupported location scheme")

	// ErrHTTPStatus indicates the server answered with a 4xx or 5xx status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge indicates the response exceeded the configured size cap.
	ErrBodyTooLarge = errors.New("resource body too large")
)
