package resloader

import (
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/alnah/go-resloader/internal/browser"
	"github.com/alnah/go-resloader/internal/fetch"
	"github.com/alnah/go-resloader/internal/head"
)

// FetchConfig configures how a head document fetches resources.
type FetchConfig struct {
	// BasePath roots local locations ("/static/app.css", "app.css",
	// file:// URLs). Empty disables local loading.
	BasePath string

	// Embedded serves "embed:" locations. Nil disables them.
	Embedded fs.FS

	// HTTPTimeout bounds each remote request. Zero uses the fetch default.
	HTTPTimeout time.Duration

	// HTTPClient replaces the default client. HTTPTimeout still applies.
	HTTPClient *http.Client

	// MaxBodySize caps remote responses. Zero uses the fetch default.
	MaxBodySize int64
}

// Fetcher loads a resource location into memory.
type Fetcher = fetch.Fetcher

// Payload is a fetched resource body with its digest.
type Payload = fetch.Payload

// NewFetcher builds the scheme router described by cfg.
// Returns fetch.ErrInvalidBasePath when BasePath is not a directory.
func NewFetcher(cfg FetchConfig) (Fetcher, error) {
	r := &fetch.Router{}

	if cfg.BasePath != "" {
		local, err := fetch.NewFilesystem(cfg.BasePath)
		if err != nil {
			return nil, err
		}
		r.Local = local
	}
	if cfg.Embedded != nil {
		r.Embed = fetch.NewFS(cfg.Embedded)
	}

	var opts []fetch.HTTPOption
	if cfg.HTTPClient != nil {
		opts = append(opts, fetch.WithClient(cfg.HTTPClient))
	}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, fetch.WithTimeout(cfg.HTTPTimeout))
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, fetch.WithMaxBodySize(cfg.MaxBodySize))
	}
	r.Remote = fetch.NewHTTP(opts...)

	return r, nil
}

// HeadDocument is an in-memory HTML page whose resources are fetched
// directly rather than through a browser.
type HeadDocument = head.Document

// NewHeadDocument creates an empty page loading through cfg.
func NewHeadDocument(cfg FetchConfig) (*HeadDocument, error) {
	f, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	return head.New(f)
}

// ParseHeadDocument reads an existing page loading through cfg.
func ParseHeadDocument(r io.Reader, cfg FetchConfig) (*HeadDocument, error) {
	f, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	return head.Parse(r, f)
}

// BrowserDocument is a headless Chrome page. Call Close when done.
type BrowserDocument = browser.Page

// BrowserOption configures a BrowserDocument.
type BrowserOption = browser.Option

// Browser document options.
var (
	WithBrowserTimeout = browser.WithTimeout
	WithStartURL       = browser.WithStartURL
)

// NewBrowserDocument creates a browser page. The browser starts on first use.
func NewBrowserDocument(opts ...BrowserOption) *BrowserDocument {
	return browser.New(opts...)
}
