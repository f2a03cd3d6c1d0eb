// Package browser implements a document backed by a headless Chrome page.
// The browser fetches and executes every resource itself, so load and error
// events and validators reflect what a real visitor would get.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-resloader/internal/dom"
	"github.com/alnah/go-resloader/internal/process"
)

// Sentinel errors for browser operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrEval           = errors.New("script evaluation failed")
	ErrLoad           = errors.New("resource failed to load")
	ErrDuplicateNode  = dom.ErrDuplicateNode
	ErrInvalidNode    = errors.New("invalid node")
)

// DefaultTimeout bounds page loads and evaluations when none is set.
const DefaultTimeout = 30 * time.Second

const blankURL = "about:blank"

// ownerAttr marks elements the Page inserted. Only marked elements are
// ever removed.
const ownerAttr = "data-resloader"

// attachJS inserts the element and resolves with its load outcome.
const attachJS = `(id, kind, url, owner) => new Promise((resolve) => {
	if (document.getElementById(id)) {
		resolve("duplicate");
		return;
	}
	let el;
	if (kind === "css") {
		el = document.createElement("link");
		el.rel = "stylesheet";
		el.href = url;
	} else {
		el = document.createElement("script");
		el.src = url;
	}
	el.id = id;
	el.setAttribute(owner, "");
	el.onload = () => resolve("loaded");
	el.onerror = () => resolve("error");
	document.head.appendChild(el);
})`

const detachJS = `(id, owner) => {
	const el = document.getElementById(id);
	if (el && el.hasAttribute(owner)) {
		el.remove();
	}
}`

const definedJS = `(name) => typeof window[name] !== "undefined"`

// Page is a document living in a headless Chrome tab.
// The browser starts lazily on first use.
type Page struct {
	timeout  time.Duration
	startURL string

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Option configures a Page.
type Option func(*Page)

// WithTimeout bounds each page load and evaluation.
// Panics if d <= 0 (programmer error).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("browser: WithTimeout duration must be positive")
	}
	return func(p *Page) {
		p.timeout = d
	}
}

// WithStartURL opens url before any resource is attached, for example a
// file:// page or the site the resources belong to.
func WithStartURL(url string) Option {
	return func(p *Page) {
		p.startURL = url
	}
}

// New creates a Page. No browser starts until the first call needing one.
func New(opts ...Option) *Page {
	p := &Page{
		timeout:  DefaultTimeout,
		startURL: blankURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ensurePage lazily launches the browser and opens the start page.
func (p *Page) ensurePage() (*rod.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.page != nil {
		return p.page, nil
	}

	if p.browser == nil {
		l := launcher.New()

		// Pre-installed browser for Docker/containerized environments.
		if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
			l = l.Bin(bin)
		}
		if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
			l = l.NoSandbox(true)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
		}

		b := rod.New().ControlURL(u)
		if err := b.Connect(); err != nil {
			stopLauncher(l)
			return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
		}
		p.launcher = l
		p.browser = b
	}

	page, err := p.browser.Page(proto.TargetCreateTarget{URL: p.startURL})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	if err := page.Timeout(p.timeout).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrPageLoad, p.startURL, err)
	}

	p.page = page
	return page, nil
}

// opened reports whether the start page is open.
func (p *Page) opened() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page != nil
}

// bound returns the page scoped to ctx and the configured timeout.
func (p *Page) bound(ctx context.Context) (*rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := p.ensurePage()
	if err != nil {
		return nil, err
	}
	return page.Context(ctx).Timeout(p.timeout), nil
}

// Attach injects the element for n into the page head and waits for the
// browser's load or error event.
func (p *Page) Attach(ctx context.Context, n *dom.Node) error {
	if n == nil || n.ID == "" || n.URL == "" {
		return fmt.Errorf("%w: id and url are required", ErrInvalidNode)
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: %v", dom.ErrUnknownKind, n.Kind)
	}

	page, err := p.bound(ctx)
	if err != nil {
		return err
	}

	res, err := page.Eval(attachJS, n.ID, n.Kind.String(), n.URL, ownerAttr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: attaching %q: %v", ErrEval, n.ID, err)
	}

	switch outcome := res.Value.Str(); outcome {
	case "loaded":
		return nil
	case "duplicate":
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	default:
		return fmt.Errorf("%w: %s", ErrLoad, n.URL)
	}
}

// Detach removes the element with the given id if the Page inserted it.
// Before the page is open nothing can be attached, so Detach never starts
// a browser.
func (p *Page) Detach(ctx context.Context, id string) error {
	if !p.opened() {
		return nil
	}
	page, err := p.bound(ctx)
	if err != nil {
		return err
	}
	if _, err := page.Eval(detachJS, id, ownerAttr); err != nil {
		return fmt.Errorf("%w: detaching %q: %v", ErrEval, id, err)
	}
	return nil
}

// Eval evaluates a JavaScript expression in the page and reports whether
// the result is truthy.
func (p *Page) Eval(ctx context.Context, expr string) (bool, error) {
	page, err := p.bound(ctx)
	if err != nil {
		return false, err
	}
	res, err := page.Eval("() => Boolean(" + expr + ")")
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrEval, err)
	}
	return res.Value.Bool(), nil
}

// Defined reports whether the page defines window[name].
func (p *Page) Defined(ctx context.Context, name string) (bool, error) {
	page, err := p.bound(ctx)
	if err != nil {
		return false, err
	}
	res, err := page.Eval(definedJS, name)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrEval, err)
	}
	return res.Value.Bool(), nil
}

// HTML returns the live document markup.
func (p *Page) HTML(ctx context.Context) (string, error) {
	page, err := p.bound(ctx)
	if err != nil {
		return "", err
	}
	out, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEval, err)
	}
	return out, nil
}

// Close releases browser resources.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page = nil
	var err error
	if p.browser != nil {
		err = p.browser.Close()
		p.browser = nil
	}
	if p.launcher != nil {
		stopLauncher(p.launcher)
		p.launcher = nil
	}
	return err
}

// stopLauncher kills Chrome and its renderer and GPU helpers, which can
// outlive the browser process when it is killed alone.
func stopLauncher(l *launcher.Launcher) {
	pid := l.PID()
	l.Kill()
	if pid > 0 {
		process.KillGroup(pid)
	}
}

// Compile-time interface check.
var _ dom.Document = (*Page)(nil)
