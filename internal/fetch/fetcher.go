package fetch

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Payload is the result of fetching one resource.
type Payload struct {
	// Location is the location as requested.
	Location string

	// Source names the fetcher that served it ("filesystem", "fs", "http").
	Source string

	// Body is the raw resource content.
	Body []byte

	// Digest identifies the content, formatted as "xxh64:<hex>".
	Digest string
}

// Fetcher defines the contract for retrieving a resource by location.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	// Fetch retrieves the resource at location.
	// Returns ErrNotFound if nothing exists there.
	Fetch(ctx context.Context, location string) (*Payload, error)
}

// newPayload builds a Payload and computes its digest.
func newPayload(location, source string, body []byte) *Payload {
	return &Payload{
		Location: location,
		Source:   source,
		Body:     body,
		Digest:   Digest(body),
	}
}

// Digest returns the xxhash digest of content.
func Digest(content []byte) string {
	return fmt.Sprintf("xxh64:%016x", xxhash.Sum64(content))
}
