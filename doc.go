// Package resloader loads page stylesheets and scripts from a local location
// and falls back to a CDN copy when the local one fails.
//
// # Quick Start
//
// Create a document, create a loader on it, and load resources:
//
//	doc, err := resloader.NewHeadDocument(resloader.FetchConfig{BasePath: "./web"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	loader, err := resloader.NewLoader(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = loader.LoadAll(ctx, []resloader.Descriptor{
//	    {ID: "bootstrap-css", Kind: resloader.KindStyle,
//	        Primary:  "/static/css/bootstrap.min.css",
//	        Fallback: "https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css"},
//	    {ID: "jquery", Kind: resloader.KindScript,
//	        Primary:  "/static/js/jquery.min.js",
//	        Fallback: "https://code.jquery.com/jquery-3.7.1.min.js"},
//	})
//	var agg *resloader.AggregateError
//	if errors.As(err, &agg) {
//	    log.Printf("failed: %v", agg.IDs)
//	}
//	fmt.Println(doc.String()) // page with one <link>/<script> per loaded id
//
// # Load Sequence
//
// Each resource id moves through:
//
//	NotAttempted -> Attempting(primary) -> Loaded
//	                                    -> Attempting(fallback) -> Loaded | Failed
//
// The fallback attempt starts only after the primary attempt failed, either
// at the transport level or because its Validator returned false. The failed
// element is detached first, so a document never holds two elements for one
// id. Loaded and Failed are terminal: a later call for a loaded id returns
// nil, and a later call for a failed id returns the recorded error, neither
// touching the document.
//
// # Documents
//
// A Document is the page head resources are attached to:
//
//   - NewHeadDocument: an in-memory HTML tree. Loading an element fetches its
//     URL from disk, an embedded filesystem, or over HTTP.
//   - NewBrowserDocument: a headless Chrome page (go-rod). The browser fetches
//     and executes resources, and validators may evaluate JavaScript.
//
// # Errors
//
// Terminal failures are *LoadError values matching ErrLoadFailed or
// ErrValidationFailed. LoadAll never stops at the first failure; it returns
// an *AggregateError listing every failed id once all loads completed.
// Ids stopped by a canceled context are listed apart, in Canceled.
package resloader
