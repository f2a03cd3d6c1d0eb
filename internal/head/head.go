// Package head implements an in-memory HTML document whose <head> receives
// resource elements. Loading an element means fetching the URL it points
// at, so the document behaves like a page without needing a browser.
package head

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-resloader/internal/dom"
	"github.com/alnah/go-resloader/internal/fetch"
)

// Sentinel errors for document operations.
var (
	ErrInvalidNode   = errors.New("invalid node")
	ErrDuplicateNode = dom.ErrDuplicateNode
	ErrLoad          = errors.New("resource failed to load")
	ErrNilFetcher    = errors.New("nil fetcher")
)

const blankPage = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document is an HTML document tree backed by a fetcher.
type Document struct {
	fetcher fetch.Fetcher

	mu       sync.Mutex
	root     *html.Node
	head     *html.Node
	active   map[string]*html.Node
	order    []string
	payloads map[string]*fetch.Payload
	created  map[string]int
}

// New creates an empty HTML5 document.
func New(f fetch.Fetcher) (*Document, error) {
	return Parse(strings.NewReader(blankPage), f)
}

// Parse loads an existing page. The parser always synthesizes <head>,
// so fragments and head-less pages are accepted.
func Parse(r io.Reader, f fetch.Fetcher) (*Document, error) {
	if f == nil {
		return nil, ErrNilFetcher
	}

	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	headNode := findElement(root, atom.Head)
	if headNode == nil {
		return nil, fmt.Errorf("parsing HTML: no <head> element")
	}

	return &Document{
		fetcher:  f,
		root:     root,
		head:     headNode,
		active:   make(map[string]*html.Node),
		payloads: make(map[string]*fetch.Payload),
		created:  make(map[string]int),
	}, nil
}

// Attach appends the element for n to <head> and fetches its URL.
// The element stays attached when the fetch fails; callers Detach it.
func (d *Document) Attach(ctx context.Context, n *dom.Node) error {
	if n == nil || n.ID == "" || n.URL == "" {
		return fmt.Errorf("%w: id and url are required", ErrInvalidNode)
	}

	el, err := newElement(n)
	if err != nil {
		return err
	}

	d.mu.Lock()
	if _, ok := d.active[n.ID]; ok || findByID(d.root, n.ID) != nil {
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	d.head.AppendChild(el)
	d.active[n.ID] = el
	d.order = append(d.order, n.ID)
	d.created[n.ID]++
	d.mu.Unlock()

	// Fetch outside the lock so other ids load concurrently.
	payload, err := d.fetcher.Fetch(ctx, n.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %w", ErrLoad, n.URL, err)
	}

	d.mu.Lock()
	if d.active[n.ID] == el {
		d.payloads[n.ID] = payload
	}
	d.mu.Unlock()

	return nil
}

// Detach removes the element with the given id and forgets its payload.
func (d *Document) Detach(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.active[id]
	if !ok {
		return nil
	}
	if el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
	delete(d.active, id)
	delete(d.payloads, id)
	d.order = slices.DeleteFunc(d.order, func(s string) bool { return s == id })
	return nil
}

// Payload returns what the active element for id loaded.
func (d *Document) Payload(id string) (*fetch.Payload, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.payloads[id]
	return p, ok
}

// Created returns how many elements were ever created for id.
func (d *Document) Created(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.created[id]
}

// Active returns the ids currently attached, in attach order.
func (d *Document) Active() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.order)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return html.Render(w, d.root)
}

// String returns the rendered document, or "" if rendering fails.
func (d *Document) String() string {
	var buf strings.Builder
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// newElement builds the <link> or <script> element for n.
func newElement(n *dom.Node) (*html.Node, error) {
	switch n.Kind {
	case dom.KindStyle:
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Link,
			Data:     "link",
			Attr: []html.Attribute{
				{Key: "rel", Val: "stylesheet"},
				{Key: "id", Val: n.ID},
				{Key: "href", Val: n.URL},
			},
		}, nil
	case dom.KindScript:
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Script,
			Data:     "script",
			Attr: []html.Attribute{
				{Key: "id", Val: n.ID},
				{Key: "src", Val: n.URL},
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %v", dom.ErrUnknownKind, n.Kind)
	}
}

// findElement returns the first element with the given atom, depth first.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// findByID returns the first element whose id attribute equals id.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Compile-time interface check.
var _ dom.Document = (*Document)(nil)
