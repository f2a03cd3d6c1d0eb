package head

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/alnah/go-resloader/internal/dom"
	"github.com/alnah/go-resloader/internal/fetch"
)

// newTestDocument returns a blank document serving files from a MapFS.
func newTestDocument(t *testing.T) *Document {
	t.Helper()

	fsys := fstest.MapFS{
		"css/app.css": &fstest.MapFile{Data: []byte("body{}")},
		"js/app.js":   &fstest.MapFile{Data: []byte("window.app={}")},
	}
	doc, err := New(fetch.NewFS(fsys))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return doc
}

func TestNew_NilFetcher(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	if !errors.Is(err, ErrNilFetcher) {
		t.Errorf("New(nil) error = %v, want ErrNilFetcher", err)
	}
}

func TestDocument_Attach(t *testing.T) {
	t.Parallel()

	t.Run("style element rendered in head", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t)
		err := doc.Attach(context.Background(), &dom.Node{ID: "app-css", Kind: dom.KindStyle, URL: "css/app.css"})
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}

		out := doc.String()
		headPart := out[:strings.Index(out, "</head>")]
		for _, want := range []string{`<link`, `rel="stylesheet"`, `id="app-css"`, `href="css/app.css"`} {
			if !strings.Contains(headPart, want) {
				t.Errorf("head missing %q in %s", want, out)
			}
		}

		p, ok := doc.Payload("app-css")
		if !ok {
			t.Fatal("Payload() missing after successful attach")
		}
		if string(p.Body) != "body{}" {
			t.Errorf("Payload body = %q, want %q", p.Body, "body{}")
		}
	})

	t.Run("script element rendered in head", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t)
		err := doc.Attach(context.Background(), &dom.Node{ID: "app-js", Kind: dom.KindScript, URL: "js/app.js"})
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}

		out := doc.String()
		if !strings.Contains(out, `<script id="app-js" src="js/app.js"></script>`) {
			t.Errorf("rendered document missing script element: %s", out)
		}
	})

	t.Run("failed fetch keeps element until detach", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t)
		err := doc.Attach(context.Background(), &dom.Node{ID: "gone", Kind: dom.KindScript, URL: "js/gone.js"})
		if !errors.Is(err, ErrLoad) {
			t.Fatalf("Attach() error = %v, want ErrLoad", err)
		}
		if !errors.Is(err, fetch.ErrNotFound) {
			t.Errorf("Attach() error = %v, want wrapped fetch.ErrNotFound", err)
		}
		if got := doc.Active(); len(got) != 1 || got[0] != "gone" {
			t.Errorf("Active() = %v, want [gone]", got)
		}
		if _, ok := doc.Payload("gone"); ok {
			t.Error("Payload() present for failed load")
		}

		if err := doc.Detach(context.Background(), "gone"); err != nil {
			t.Fatalf("Detach() error = %v", err)
		}
		if got := doc.Active(); len(got) != 0 {
			t.Errorf("Active() after detach = %v, want empty", got)
		}
		if strings.Contains(doc.String(), `id="gone"`) {
			t.Error("detached element still rendered")
		}
	})

	t.Run("duplicate active id rejected", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t)
		n := &dom.Node{ID: "app-css", Kind: dom.KindStyle, URL: "css/app.css"}
		if err := doc.Attach(context.Background(), n); err != nil {
			t.Fatalf("first Attach() error = %v", err)
		}
		err := doc.Attach(context.Background(), n)
		if !errors.Is(err, ErrDuplicateNode) {
			t.Errorf("second Attach() error = %v, want ErrDuplicateNode", err)
		}
		if got := doc.Created("app-css"); got != 1 {
			t.Errorf("Created() = %d, want 1", got)
		}
	})

	t.Run("invalid nodes rejected", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t)
		tests := []struct {
			name    string
			node    *dom.Node
			wantErr error
		}{
			{name: "nil", node: nil, wantErr: ErrInvalidNode},
			{name: "no id", node: &dom.Node{Kind: dom.KindStyle, URL: "a.css"}, wantErr: ErrInvalidNode},
			{name: "no url", node: &dom.Node{ID: "a", Kind: dom.KindStyle}, wantErr: ErrInvalidNode},
			{name: "bad kind", node: &dom.Node{ID: "a", URL: "a.css"}, wantErr: dom.ErrUnknownKind},
		}
		for _, tt := range tests {
			if err := doc.Attach(context.Background(), tt.node); !errors.Is(err, tt.wantErr) {
				t.Errorf("%s: Attach() error = %v, want %v", tt.name, err, tt.wantErr)
			}
		}
		if got := doc.Active(); len(got) != 0 {
			t.Errorf("Active() = %v, want empty", got)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := doc.Attach(ctx, &dom.Node{ID: "app-css", Kind: dom.KindStyle, URL: "css/app.css"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Attach() error = %v, want context.Canceled", err)
		}
	})
}

func TestDocument_Detach_Unknown(t *testing.T) {
	t.Parallel()

	doc := newTestDocument(t)
	if err := doc.Detach(context.Background(), "never-attached"); err != nil {
		t.Errorf("Detach() error = %v, want nil", err)
	}
}

func TestDocument_ReattachCountsCreations(t *testing.T) {
	t.Parallel()

	doc := newTestDocument(t)
	ctx := context.Background()

	_ = doc.Attach(ctx, &dom.Node{ID: "lib", Kind: dom.KindScript, URL: "js/missing.js"})
	_ = doc.Detach(ctx, "lib")
	if err := doc.Attach(ctx, &dom.Node{ID: "lib", Kind: dom.KindScript, URL: "js/app.js", Fallback: true}); err != nil {
		t.Fatalf("fallback Attach() error = %v", err)
	}

	if got := doc.Created("lib"); got != 2 {
		t.Errorf("Created() = %d, want 2", got)
	}
	if got := strings.Count(doc.String(), `id="lib"`); got != 1 {
		t.Errorf("rendered %d elements with id lib, want 1", got)
	}
}

func TestParse_ExistingPage(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html><html><head><title>Subscriptions</title><link rel="stylesheet" id="site-css" href="/site.css"></head><body><h1>Hi</h1></body></html>`
	doc, err := Parse(strings.NewReader(page), fetch.NewFS(fstest.MapFS{
		"css/app.css": &fstest.MapFile{Data: []byte("body{}")},
	}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	t.Run("existing id is taken", func(t *testing.T) {
		err := doc.Attach(context.Background(), &dom.Node{ID: "site-css", Kind: dom.KindStyle, URL: "css/app.css"})
		if !errors.Is(err, ErrDuplicateNode) {
			t.Errorf("Attach() error = %v, want ErrDuplicateNode", err)
		}
	})

	t.Run("new element appended after existing head content", func(t *testing.T) {
		if err := doc.Attach(context.Background(), &dom.Node{ID: "app-css", Kind: dom.KindStyle, URL: "css/app.css"}); err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		out := doc.String()
		title := strings.Index(out, "<title>")
		added := strings.Index(out, `id="app-css"`)
		end := strings.Index(out, "</head>")
		if title == -1 || added == -1 || end == -1 || !(title < added && added < end) {
			t.Errorf("element not appended inside head after title: %s", out)
		}
		if !strings.Contains(out, "<h1>Hi</h1>") {
			t.Errorf("body content lost: %s", out)
		}
	})
}

func TestDocument_ConcurrentAttach(t *testing.T) {
	t.Parallel()

	doc := newTestDocument(t)
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := doc.Attach(context.Background(), &dom.Node{ID: id, Kind: dom.KindStyle, URL: "css/app.css"}); err != nil {
				t.Errorf("Attach(%s) error = %v", id, err)
			}
		}()
	}
	wg.Wait()

	if got := len(doc.Active()); got != len(ids) {
		t.Errorf("Active() has %d ids, want %d", got, len(ids))
	}
}
