// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-resloader/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	hints = append(hints, "or use --mode head to load without a browser")

	return formatHints(hints)
}

// ForTimeout returns a hint about raising the per-request timeout.
func ForTimeout() string {
	return format("slow CDN or page: raise --timeout (e.g. 30s)")
}

// ForManifestNotFound returns hints for a missing manifest. name is the
// manifest name that was searched for.
func ForManifestNotFound(name string) string {
	hint := "use --config /path/to/manifest.yaml"
	if dir, err := os.UserConfigDir(); err == nil && name != "" {
		hint += " or create " + filepath.Join(dir, "go-resloader", name+".yaml")
	}
	return format(hint)
}

// ForFailedResources returns hints for resources that failed both locations.
func ForFailedResources(basePath string, ids []string) string {
	var hints []string
	if basePath != "" {
		hints = append(hints, "check the local files exist under "+basePath)
	} else {
		hints = append(hints, "set local.basePath or --base-path to load local copies")
	}
	hints = append(hints, "check the CDN is reachable")
	if len(ids) > 0 {
		hints = append(hints, "run with -v for per-attempt logs of "+strings.Join(ids, ", "))
	}
	return formatHints(hints)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
