//go:build integration

package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-resloader/internal/dom"
)

// newSite serves a blank page plus a few assets.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<!DOCTYPE html><html><head></head><body><div id="app"></div></body></html>"))
	})
	mux.HandleFunc("/static/app.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("body { margin: 0; }"))
	})
	mux.HandleFunc("/static/lib.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte("window.Lib = { version: 1 };"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPage_Integration(t *testing.T) {
	srv := newSite(t)
	ctx := context.Background()

	p := New(WithStartURL(srv.URL+"/"), WithTimeout(20*time.Second))
	t.Cleanup(func() { _ = p.Close() })

	t.Run("style loads", func(t *testing.T) {
		err := p.Attach(ctx, &dom.Node{ID: "app-css", Kind: dom.KindStyle, URL: srv.URL + "/static/app.css"})
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
	})

	t.Run("script loads and defines global", func(t *testing.T) {
		err := p.Attach(ctx, &dom.Node{ID: "lib", Kind: dom.KindScript, URL: srv.URL + "/static/lib.js"})
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}

		ok, err := p.Defined(ctx, "Lib")
		if err != nil || !ok {
			t.Errorf("Defined(Lib) = %v, %v; want true, nil", ok, err)
		}
		ok, err = p.Eval(ctx, "window.Lib.version === 1")
		if err != nil || !ok {
			t.Errorf("Eval() = %v, %v; want true, nil", ok, err)
		}
	})

	t.Run("missing script reports load error", func(t *testing.T) {
		err := p.Attach(ctx, &dom.Node{ID: "gone", Kind: dom.KindScript, URL: srv.URL + "/static/gone.js"})
		if !errors.Is(err, ErrLoad) {
			t.Fatalf("Attach() error = %v, want ErrLoad", err)
		}
		if err := p.Detach(ctx, "gone"); err != nil {
			t.Fatalf("Detach() error = %v", err)
		}
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := p.Attach(ctx, &dom.Node{ID: "lib", Kind: dom.KindScript, URL: srv.URL + "/static/lib.js"})
		if !errors.Is(err, ErrDuplicateNode) {
			t.Errorf("Attach() error = %v, want ErrDuplicateNode", err)
		}
	})

	t.Run("page's own element survives a rejected attach", func(t *testing.T) {
		err := p.Attach(ctx, &dom.Node{ID: "app", Kind: dom.KindStyle, URL: srv.URL + "/static/app.css"})
		if !errors.Is(err, ErrDuplicateNode) {
			t.Fatalf("Attach() error = %v, want ErrDuplicateNode", err)
		}
		if err := p.Detach(ctx, "app"); err != nil {
			t.Fatalf("Detach() error = %v", err)
		}
		ok, err := p.Eval(ctx, `document.getElementById("app") !== null`)
		if err != nil || !ok {
			t.Errorf("page element after Detach = %v, %v; want present", ok, err)
		}
	})

	t.Run("html reflects attached elements", func(t *testing.T) {
		out, err := p.HTML(ctx)
		if err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if !strings.Contains(out, `id="app-css"`) || !strings.Contains(out, `id="lib"`) {
			t.Errorf("HTML() missing attached elements: %s", out)
		}
		if strings.Contains(out, `id="gone"`) {
			t.Errorf("HTML() still contains detached element: %s", out)
		}
	})
}
