package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	resloader "github.com/alnah/go-resloader"
	"github.com/alnah/go-resloader/internal/browser"
	"github.com/alnah/go-resloader/internal/fileutil"
	"github.com/alnah/go-resloader/internal/hints"
	"github.com/alnah/go-resloader/internal/logging"
	"github.com/alnah/go-resloader/internal/manifest"
	"github.com/alnah/go-resloader/internal/metrics"
	"github.com/alnah/go-resloader/internal/yamlutil"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrReadPage           = errors.New("failed to read page")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrResourcesFailed    = errors.New("resources failed to load")
	ErrInvalidFormat      = errors.New("invalid report format")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
)

// Report formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// Compile-time interface implementation check.
var _ resloader.Recorder = (*metrics.Recorder)(nil)

// renderer is a document whose final markup can be saved.
type renderer func(ctx context.Context) (string, error)

// runLoad loads every manifest resource and reports the outcome.
func runLoad(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseLoadFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected at most one manifest, got %d", ErrUsage, len(positional))
	}

	m, err := resolveManifest(&flags.common, positional)
	if err != nil {
		return err
	}
	if err := applyLoadFlags(m, flags); err != nil {
		return err
	}

	logger, err := newLogger(m, &flags.common, env.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return err
	}

	doc, render, closeDoc, err := openDocument(ctx, m, env)
	if err != nil {
		return err
	}
	defer closeDoc()

	descs, err := descriptors(m, doc)
	if err != nil {
		return err
	}

	loader, err := resloader.NewLoader(doc,
		resloader.WithLogger(logger),
		resloader.WithRecorder(rec),
		resloader.WithMaxConcurrency(m.Loader.MaxConcurrency),
	)
	if err != nil {
		return err
	}

	start := env.Now()
	loadErr := loader.LoadAll(ctx, descs)
	report := loader.Report()
	elapsed := env.Now().Sub(start)

	var agg *resloader.AggregateError
	if loadErr != nil && !errors.As(loadErr, &agg) {
		return annotate(loadErr)
	}

	if err := writeReport(env, flags, report, agg, elapsed); err != nil {
		return err
	}

	if m.Document.Output != "" {
		if err := writeOutput(ctx, m.ResolvePath(m.Document.Output), render); err != nil {
			return err
		}
	}
	if flags.metricsOut != "" {
		if err := metrics.WriteTextfile(flags.metricsOut, reg); err != nil {
			return err
		}
	}

	if agg != nil && len(agg.IDs) == 0 {
		// Only interrupted, nothing actually failed.
		return annotate(agg)
	}
	if agg != nil {
		if errors.Is(agg, browser.ErrBrowserConnect) {
			return annotate(fmt.Errorf("%w: %w", ErrResourcesFailed, agg))
		}
		return fmt.Errorf("%w: %w%s", ErrResourcesFailed, agg, hints.ForFailedResources(m.ResolvePath(m.Local.BasePath), agg.IDs))
	}
	return nil
}

// resolveManifest loads the manifest named by the positional arg, then
// --config, then the default name. A missing default manifest is not an
// error: an empty head-mode manifest loads nothing.
func resolveManifest(common *commonFlags, positional []string) (*manifest.Manifest, error) {
	name := manifest.DefaultName
	explicit := true
	switch {
	case len(positional) == 1:
		name = positional[0]
	case common.config != "":
		name = common.config
	default:
		explicit = false
	}

	m, err := manifest.LoadManifest(name)
	if err == nil {
		return m, nil
	}
	if errors.Is(err, manifest.ErrManifestNotFound) {
		if !explicit {
			return manifest.DefaultManifest(), nil
		}
		return nil, fmt.Errorf("%w%s", err, hints.ForManifestNotFound(name))
	}
	return nil, err
}

// applyLoadFlags overrides manifest values with the flags that were set,
// then validates the result.
func applyLoadFlags(m *manifest.Manifest, f *loadFlags) error {
	if f.set["mode"] {
		m.Document.Mode = f.mode
	}
	if f.set["page"] {
		m.Document.Page = f.page
	}
	if f.set["output"] {
		m.Document.Output = f.output
	}
	if f.set["base-path"] {
		m.Local.BasePath = f.basePath
	}
	if f.set["timeout"] {
		m.HTTP.Timeout = f.timeout
	}
	if f.set["workers"] {
		m.Loader.MaxConcurrency = f.workers
	}
	return m.Validate()
}

// newLogger builds the logger from the manifest, with -v forcing debug and
// -q forcing error.
func newLogger(m *manifest.Manifest, common *commonFlags, w io.Writer) (*zap.Logger, error) {
	level := m.Logging.Level
	switch {
	case common.verbose:
		level = "debug"
	case common.quiet:
		level = "error"
	}
	return logging.New(level, m.Logging.Format, w)
}

// openDocument creates the document the manifest's mode selects.
// closeDoc is always safe to call.
func openDocument(ctx context.Context, m *manifest.Manifest, env *Environment) (resloader.Document, renderer, func(), error) {
	timeout, err := m.Timeout()
	if err != nil {
		return nil, nil, nil, err
	}

	if m.Mode() == manifest.ModeBrowser {
		opts := []resloader.BrowserOption{}
		if timeout > 0 {
			opts = append(opts, resloader.WithBrowserTimeout(timeout))
		}
		if page := m.Document.Page; page != "" {
			u, err := pageURL(m.ResolvePath(page))
			if err != nil {
				return nil, nil, nil, err
			}
			opts = append(opts, resloader.WithStartURL(u))
		}
		p := resloader.NewBrowserDocument(opts...)
		return p, p.HTML, func() { _ = p.Close() }, nil
	}

	cfg := resloader.FetchConfig{
		BasePath:    m.ResolvePath(m.Local.BasePath),
		Embedded:    env.Embedded,
		HTTPTimeout: timeout,
		MaxBodySize: m.HTTP.MaxBodySize,
	}

	var doc *resloader.HeadDocument
	if page := m.Document.Page; page != "" {
		data, err := readPage(ctx, m.ResolvePath(page), cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		doc, err = resloader.ParseHeadDocument(bytes.NewReader(data), cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %w", ErrReadPage, err)
		}
	} else if doc, err = resloader.NewHeadDocument(cfg); err != nil {
		return nil, nil, nil, err
	}

	render := func(context.Context) (string, error) { return doc.String(), nil }
	return doc, render, func() {}, nil
}

// readPage reads the starting page from disk, or from the network when it
// is a URL.
func readPage(ctx context.Context, page string, cfg resloader.FetchConfig) ([]byte, error) {
	if !fileutil.IsURL(page) {
		data, err := os.ReadFile(page) // #nosec G304 -- page path is user-provided
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadPage, err)
		}
		return data, nil
	}

	f, err := resloader.NewFetcher(resloader.FetchConfig{HTTPTimeout: cfg.HTTPTimeout, MaxBodySize: cfg.MaxBodySize})
	if err != nil {
		return nil, err
	}
	p, err := f.Fetch(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadPage, err)
	}
	return p.Body, nil
}

// pageURL turns a page file into a file:// URL. URLs are returned as is.
func pageURL(page string) (string, error) {
	if fileutil.IsURL(page) || strings.Contains(page, "://") {
		return page, nil
	}
	abs, err := filepath.Abs(page)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadPage, err)
	}
	if !fileutil.FileExists(abs) {
		return "", fmt.Errorf("%w: %s: %w", ErrReadPage, abs, os.ErrNotExist)
	}
	return fileURL(abs), nil
}

// fileURL formats an absolute path as a file:// URL.
func fileURL(abs string) string {
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letters
	}
	return "file://" + p
}

// descriptors builds one descriptor per manifest resource, with the
// validators its test asks for.
func descriptors(m *manifest.Manifest, doc resloader.Document) ([]resloader.Descriptor, error) {
	browserMode := m.Mode() == manifest.ModeBrowser

	var basePath string
	if browserMode && m.Local.BasePath != "" {
		abs, err := filepath.Abs(m.ResolvePath(m.Local.BasePath))
		if err != nil {
			return nil, err
		}
		basePath = abs
	}

	descs := make([]resloader.Descriptor, 0, len(m.Resources))
	for _, r := range m.Resources {
		kind, err := r.Kind()
		if err != nil {
			return nil, err
		}
		primary := r.Local
		if basePath != "" {
			primary = localURL(basePath, primary)
		}
		descs = append(descs, resloader.Descriptor{
			ID:       r.ID,
			Kind:     kind,
			Primary:  primary,
			Fallback: r.CDN,
			Validate: validator(r, doc),
		})
	}
	return descs, nil
}

// localURL roots a site-relative location at basePath so a browser can load
// it. Locations with a scheme are returned as is.
func localURL(basePath, location string) string {
	if fileutil.IsURL(location) || strings.Contains(location, ":") {
		return location
	}
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	return fileURL(filepath.Join(basePath, filepath.FromSlash(strings.TrimPrefix(location, "/"))))
}

// validator assembles the checks a resource's test names. Checks the
// document cannot run are skipped; the manifest rejects them per mode.
func validator(r manifest.Resource, doc resloader.Document) resloader.Validator {
	if r.Test == nil {
		return nil
	}

	var vs []resloader.Validator
	if p, ok := doc.(*resloader.HeadDocument); ok {
		if r.Test.Contains != "" {
			vs = append(vs, resloader.PayloadContains(p, r.ID, r.Test.Contains))
		}
		if r.Test.MinBytes > 0 {
			vs = append(vs, resloader.PayloadMinBytes(p, r.ID, r.Test.MinBytes))
		}
	}
	if p, ok := doc.(*resloader.BrowserDocument); ok {
		if r.Test.Global != "" {
			vs = append(vs, resloader.GlobalDefined(p, r.Test.Global))
		}
		if r.Test.Expr != "" {
			vs = append(vs, resloader.ExprTrue(p, r.Test.Expr))
		}
	}
	return resloader.AllOf(vs...)
}

// writeReport prints the report in the requested format. Text failures go
// to stderr; everything else goes to stdout unless quiet.
func writeReport(env *Environment, f *loadFlags, report resloader.Report, agg *resloader.AggregateError, elapsed time.Duration) error {
	switch f.format {
	case formatJSON, formatYAML:
		marshal := yamlutil.MarshalJSON
		if f.format == formatYAML {
			marshal = yamlutil.Marshal
		}
		data, err := marshal(report)
		if err != nil {
			return err
		}
		_, _ = env.Stdout.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Fprintln(env.Stdout)
		}
		return nil
	}

	if !f.common.quiet {
		for _, id := range report.Loaded {
			fmt.Fprintf(env.Stdout, "loaded  %s\n", id)
		}
	}
	if agg != nil {
		for i, id := range agg.IDs {
			fmt.Fprintf(env.Stderr, "FAILED  %s: %v\n", id, agg.Errs[i])
		}
		for _, id := range agg.Canceled {
			fmt.Fprintf(env.Stderr, "CANCELED  %s\n", id)
		}
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "%d of %d resources loaded in %s\n", len(report.Loaded), report.Total, elapsed.Round(time.Millisecond))
	}
	return nil
}

// writeOutput saves the document's final markup.
func writeOutput(ctx context.Context, path string, render renderer) error {
	markup, err := render(ctx)
	if err != nil {
		return annotate(err)
	}
	if err := fileutil.WriteFile(path, []byte(markup)); err != nil {
		return fmt.Errorf("%w: %w%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}
	return nil
}

// annotate appends the hint matching err, if any.
func annotate(err error) error {
	switch {
	case errors.Is(err, browser.ErrBrowserConnect), errors.Is(err, browser.ErrPageCreate):
		return fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
	case errors.Is(err, browser.ErrPageLoad), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w%s", err, hints.ForTimeout())
	}
	return err
}
