// Package dom defines the document abstraction resources are loaded into.
// It is shared by the loader and the document implementations so neither
// depends on the other.
package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by document implementations.
var (
	// ErrUnknownKind indicates a resource kind outside Style and Script.
	ErrUnknownKind = errors.New("unknown resource kind")

	// ErrDuplicateNode indicates Attach found an element with the node's id
	// that the document did not insert. The element is left untouched.
	ErrDuplicateNode = errors.New("element with this id already in document")
)

// Kind is the type of a loadable resource.
type Kind int

// Resource kinds.
const (
	KindStyle Kind = iota + 1
	KindScript
)

// String returns the short name used in logs and manifests.
func (k Kind) String() string {
	switch k {
	case KindStyle:
		return "css"
	case KindScript:
		return "js"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindStyle || k == KindScript
}

// ParseKind converts a manifest type name to a Kind.
// Accepts "css", "style", "stylesheet", "js", "script" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "css", "style", "stylesheet":
		return KindStyle, nil
	case "js", "script", "javascript":
		return KindScript, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be css or js)", ErrUnknownKind, s)
	}
}

// Node is one element attached to a document head for one load attempt.
type Node struct {
	ID       string // element id, equal to the resource id
	Kind     Kind
	URL      string // href for styles, src for scripts
	Fallback bool   // attempt uses the fallback location
}

// Document is the page a loader attaches resource elements to.
// Implementations must be safe for concurrent use across different ids.
type Document interface {
	// Attach inserts n into the document head and blocks until the resource
	// has loaded or failed. A non-nil error means the load failed; the node
	// may still be attached and is removed by Detach.
	Attach(ctx context.Context, n *Node) error

	// Detach removes the element with the given id that Attach inserted.
	// Detaching an id that is not attached is a no-op, and elements the
	// document already had are never removed.
	Detach(ctx context.Context, id string) error
}
