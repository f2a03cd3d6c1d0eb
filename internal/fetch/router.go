package fetch

import (
	"context"
	"fmt"
	"strings"
)

// Router dispatches each location to a fetcher by scheme.
// A nil route means the scheme is not served.
type Router struct {
	Local  Fetcher // no scheme, "/" paths and file:// URLs
	Remote Fetcher // http:// and https://
	Embed  Fetcher // embed:
}

// Fetch routes location to the matching fetcher.
// Returns ErrUnsupportedScheme when no route is configured for it.
func (r *Router) Fetch(ctx context.Context, location string) (*Payload, error) {
	if location == "" {
		return nil, ErrEmptyLocation
	}

	// Protocol-relative CDN URLs load over https outside a page.
	if strings.HasPrefix(location, "//") {
		location = "https:" + location
	}

	f, scheme := r.route(location)
	if f == nil {
		return nil, fmt.Errorf("%w: %q in %q", ErrUnsupportedScheme, scheme, location)
	}
	return f.Fetch(ctx, location)
}

// route picks the fetcher for location and reports the scheme it saw.
func (r *Router) route(location string) (Fetcher, string) {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return r.Remote, lower[:strings.Index(lower, ":")]
	case strings.HasPrefix(lower, EmbedScheme):
		return r.Embed, "embed"
	case strings.HasPrefix(lower, "file://"):
		return r.Local, "file"
	}

	if i := strings.Index(lower, ":"); i > 0 && !strings.ContainsAny(lower[:i], "/?#") {
		return nil, lower[:i]
	}
	return r.Local, ""
}

// Compile-time interface check.
var _ Fetcher = (*Router)(nil)
