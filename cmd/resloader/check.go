package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-resloader/internal/fetch"
	"github.com/alnah/go-resloader/internal/fileutil"
	"github.com/alnah/go-resloader/internal/hints"
	"github.com/alnah/go-resloader/internal/manifest"
)

// Local copy statuses reported by check.
const (
	checkLocal    = "local"    // local copy readable
	checkFallback = "fallback" // local copy missing, CDN will serve it
	checkRemote   = "remote"   // local location is itself a URL, not checked
	checkMissing  = "MISSING"  // neither a local copy nor a CDN location
)

// runCheck validates a manifest and looks for each resource's local copy
// without touching the network.
func runCheck(ctx context.Context, args []string, env *Environment) error {
	common, basePath, positional, err := parseCheckFlags(args, env.Stdout)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected at most one manifest, got %d", ErrUsage, len(positional))
	}

	name := manifest.DefaultName
	switch {
	case len(positional) == 1:
		name = positional[0]
	case common.config != "":
		name = common.config
	}
	m, err := manifest.LoadManifest(name)
	if err != nil {
		if errors.Is(err, manifest.ErrManifestNotFound) {
			return fmt.Errorf("%w%s", err, hints.ForManifestNotFound(name))
		}
		return err
	}
	if basePath != "" {
		m.Local.BasePath = basePath
		if err := m.Validate(); err != nil {
			return err
		}
	}

	router := &fetch.Router{}
	if m.Local.BasePath != "" {
		local, err := fetch.NewFilesystem(m.ResolvePath(m.Local.BasePath))
		if err != nil {
			return err
		}
		router.Local = local
	}
	if env.Embedded != nil {
		router.Embed = fetch.NewFS(env.Embedded)
	}

	var missing []string
	for _, r := range m.Resources {
		status, detail := checkResource(ctx, router, r)
		if status == checkMissing {
			missing = append(missing, r.ID)
			fmt.Fprintf(env.Stderr, "%-8s %s: %s\n", status, r.ID, detail)
			continue
		}
		if !common.quiet {
			fmt.Fprintf(env.Stdout, "%-8s %s: %s\n", status, r.ID, detail)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %d of %d have no usable location: %s",
			ErrResourcesFailed, len(missing), len(m.Resources), strings.Join(missing, ", "))
	}
	if !common.quiet {
		fmt.Fprintf(env.Stdout, "manifest ok: %d resources, %s mode\n", len(m.Resources), m.Mode())
	}
	return nil
}

// checkResource reports where r would load from. Remote URLs are never
// fetched, so the router has no Remote route.
func checkResource(ctx context.Context, router *fetch.Router, r manifest.Resource) (string, string) {
	if fileutil.IsURL(r.Local) {
		return checkRemote, r.Local
	}

	p, err := router.Fetch(ctx, r.Local)
	if err == nil {
		return checkLocal, fmt.Sprintf("%s (%d bytes, %s)", r.Local, len(p.Body), p.Digest)
	}
	if r.CDN != "" {
		return checkFallback, fmt.Sprintf("%v; will use %s", err, r.CDN)
	}
	return checkMissing, err.Error()
}
