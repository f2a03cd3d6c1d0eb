package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resloader <command> [flags] [manifest]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  load       Load page resources, falling back to the CDN (default)")
	fmt.Fprintln(w, "  check      Validate a manifest and look for local copies")
	fmt.Fprintln(w, "  doctor     Check Chrome and the manifest")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'resloader help <command>' for details on a specific command.")
}

// printLoadUsage prints usage for the load command.
func printLoadUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resloader load [manifest] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Load every manifest resource from its local location, retrying once")
	fmt.Fprintln(w, "from its CDN location when the local copy fails or fails its test.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  manifest    Manifest name or path (default: resloader)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --mode <s>            head (fetch directly) or browser (headless Chrome)")
	fmt.Fprintln(w, "      --page <path|url>     Starting HTML page")
	fmt.Fprintln(w, "  -o, --output <path>       Write the loaded page to a file")
	fmt.Fprintln(w, "      --base-path <dir>     Directory local locations resolve against")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Loading:")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-request timeout (e.g., 15s, 1m)")
	fmt.Fprintln(w, "  -w, --workers <n>         Resources loaded at once (0 = all)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reporting:")
	fmt.Fprintln(w, "      --format <s>          Report format: text, json, yaml")
	fmt.Fprintln(w, "      --metrics-out <path>  Write Prometheus metrics to a textfile")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0 all loaded, 1 error, 2 usage/manifest, 3 I/O, 4 browser, 5 resources failed")
}

// printCheckUsage prints usage for the check command.
func printCheckUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resloader check [manifest] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Validate a manifest without loading anything remote, and report which")
	fmt.Fprintln(w, "resources have a local copy. A resource with neither a local copy nor")
	fmt.Fprintln(w, "a CDN location fails the check.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --base-path <dir>     Directory local locations resolve against")
	printCommonUsage(w)
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Manifest name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log every attempt")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case cmdLoad:
		printLoadUsage(env.Stdout)
	case cmdCheck:
		printCheckUsage(env.Stdout)
	case cmdDoctor:
		fmt.Fprintln(env.Stdout, "Usage: resloader doctor [manifest] [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check that Chrome is installed for browser mode and that the")
		fmt.Fprintln(env.Stdout, "manifest parses. Exits 1 when errors are found.")
	case cmdVersion:
		fmt.Fprintln(env.Stdout, "Usage: resloader version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case cmdHelp:
		fmt.Fprintln(env.Stdout, "Usage: resloader help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
