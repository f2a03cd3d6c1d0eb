package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable

import (
	"strings"
	"testing"
)

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		container   bool
		ci          string
		noSandbox   string
		browserBin  string
		wantSandbox bool
		wantBin     bool
	}{
		{name: "in CI", ci: "true", wantSandbox: true, wantBin: true},
		{name: "in Docker", container: true, wantSandbox: true, wantBin: true},
		{name: "sandbox already disabled", container: true, noSandbox: "1", wantBin: true},
		{name: "browser bin set", browserBin: "/usr/bin/chromium"},
		{name: "all configured", container: true, ci: "true", noSandbox: "1", browserBin: "/usr/bin/chromium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := IsInContainer
			defer func() { IsInContainer = orig }()
			IsInContainer = func() bool { return tt.container }

			t.Setenv("CI", tt.ci)
			t.Setenv("GITHUB_ACTIONS", "")
			t.Setenv("GITLAB_CI", "")
			t.Setenv("JENKINS_URL", "")
			t.Setenv("ROD_NO_SANDBOX", tt.noSandbox)
			t.Setenv("ROD_BROWSER_BIN", tt.browserBin)

			hint := ForBrowserConnect()

			if !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("hint = %q, want hint prefix", hint)
			}
			if got := strings.Contains(hint, "ROD_NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("mentions ROD_NO_SANDBOX = %v, want %v (%q)", got, tt.wantSandbox, hint)
			}
			if got := strings.Contains(hint, "ROD_BROWSER_BIN"); got != tt.wantBin {
				t.Errorf("mentions ROD_BROWSER_BIN = %v, want %v (%q)", got, tt.wantBin, hint)
			}
			if !strings.Contains(hint, "--mode head") {
				t.Errorf("hint = %q, want head mode suggestion", hint)
			}
		})
	}
}

func TestForTimeout(t *testing.T) {
	t.Parallel()

	if hint := ForTimeout(); !strings.Contains(hint, "--timeout") {
		t.Errorf("ForTimeout() = %q, want --timeout mention", hint)
	}
}

func TestForManifestNotFound(t *testing.T) {
	t.Parallel()

	hint := ForManifestNotFound("site")
	if !strings.Contains(hint, "--config") {
		t.Errorf("hint = %q, want --config mention", hint)
	}
	if !strings.Contains(hint, "go-resloader") || !strings.Contains(hint, "site.yaml") {
		t.Errorf("hint = %q, want user config path", hint)
	}

	if hint := ForManifestNotFound(""); strings.Contains(hint, "create") {
		t.Errorf("hint for empty name = %q, want no path", hint)
	}
}

func TestForFailedResources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		basePath string
		ids      []string
		contains []string
	}{
		{
			name:     "with base path",
			basePath: "/srv/web",
			ids:      []string{"jquery", "chart"},
			contains: []string{"/srv/web", "CDN", "jquery, chart"},
		},
		{
			name:     "without base path",
			contains: []string{"--base-path", "CDN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForFailedResources(tt.basePath, tt.ids)
			for _, want := range tt.contains {
				if !strings.Contains(hint, want) {
					t.Errorf("hint = %q, missing %q", hint, want)
				}
			}
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	if got := format(""); got != "" {
		t.Errorf("format(\"\") = %q, want empty", got)
	}
	if got := formatHints([]string{"a", "b"}); got != "\n  hint: a; b" {
		t.Errorf("formatHints() = %q", got)
	}
	if got := ForOutputDirectory(); !strings.Contains(got, "writable") {
		t.Errorf("ForOutputDirectory() = %q", got)
	}
}
