// Package fetch retrieves resource payloads from local and remote locations.
//
// # Fetcher Architecture
//
//	Fetcher (interface)
//	    │
//	    ├── Filesystem  - local files under a base directory (site paths, file:// URLs)
//	    ├── FS          - any fs.FS, typically a bundled embed.FS (embed: URLs)
//	    ├── HTTP        - http:// and https:// locations (CDN fallbacks)
//	    └── Router      - dispatches a location to one of the above by scheme
//
// Every successful fetch returns a Payload carrying the body and an xxhash
// digest, so a document can tell which copy of a resource ended up loaded.
//
// # Security
//
// Filesystem resolves symlinks and verifies every path stays within its base
// directory. HTTP caps the response body size.
package fetch
