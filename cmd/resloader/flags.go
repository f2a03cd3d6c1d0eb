package main

import (
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// loadFlags holds all flags for the load command.
type loadFlags struct {
	common     commonFlags
	mode       string
	page       string
	output     string
	basePath   string
	format     string
	metricsOut string
	timeout    string
	workers    int

	// set records which flags were given, so only those override the manifest.
	set map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "manifest name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every attempt")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting and
// prints usage to w on -h.
func newFlagSet(name string, w io.Writer, usage func(w io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseLoadFlags parses load command flags and returns positional args.
func parseLoadFlags(args []string, w io.Writer) (*loadFlags, []string, error) {
	f := &loadFlags{}
	fs := newFlagSet(cmdLoad, w, printLoadUsage)

	fs.StringVar(&f.mode, "mode", "", "document mode: head, browser")
	fs.StringVar(&f.page, "page", "", "starting HTML page (file or URL)")
	fs.StringVarP(&f.output, "output", "o", "", "write the loaded page to this file")
	fs.StringVar(&f.basePath, "base-path", "", "directory local locations resolve against")
	fs.StringVar(&f.format, "format", formatText, "report format: text, json, yaml")
	fs.StringVar(&f.metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-request timeout (e.g., 15s, 1m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "resources loaded at once (0 = all)")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if f.workers < 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, f.workers)
	}
	if f.set["timeout"] {
		d, err := time.ParseDuration(f.timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidTimeout, err)
		}
		if d <= 0 {
			return nil, nil, fmt.Errorf("%w: must be positive, got %s", ErrInvalidTimeout, f.timeout)
		}
	}
	switch f.format {
	case formatText, formatJSON, formatYAML:
	default:
		return nil, nil, fmt.Errorf("%w: expected %s, %s or %s, got %q", ErrInvalidFormat, formatText, formatJSON, formatYAML, f.format)
	}

	return f, fs.Args(), nil
}

// parseCheckFlags parses check command flags and returns positional args.
func parseCheckFlags(args []string, w io.Writer) (*commonFlags, string, []string, error) {
	f := &commonFlags{}
	var basePath string
	fs := newFlagSet(cmdCheck, w, printCheckUsage)

	fs.StringVar(&basePath, "base-path", "", "directory local locations resolve against")
	addCommonFlags(fs, f)

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, "", nil, err
		}
		return nil, "", nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return f, basePath, fs.Args(), nil
}
