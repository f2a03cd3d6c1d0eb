package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-resloader/internal/hints"
	"github.com/alnah/go-resloader/internal/manifest"
	"github.com/alnah/go-resloader/internal/yamlutil"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds everything doctor found.
type doctorResult struct {
	Status   string       `json:"status"`
	Chrome   chromeInfo   `json:"chrome"`
	Env      envInfo      `json:"environment"`
	Manifest manifestInfo `json:"manifest"`
	Warnings []string     `json:"warnings,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results. Only browser mode
// needs Chrome, so a missing browser is a warning.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type envInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Container  bool   `json:"container"`
	CI         bool   `json:"ci"`
	NoSandbox  string `json:"rod_no_sandbox"`
	BrowserBin string `json:"rod_browser_bin"`
}

// manifestInfo describes the manifest doctor was pointed at.
type manifestInfo struct {
	Name      string `json:"name"`
	Found     bool   `json:"found"`
	Mode      string `json:"mode,omitempty"`
	Resources int    `json:"resources"`
}

// lookChrome locates Chrome. Replaced in tests.
var lookChrome = launcher.LookPath

// runDoctorCmd checks the environment the CLI runs in and returns an exit
// code: 0 when ready or only warnings, 1 when errors were found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	name := manifest.DefaultName
	for _, arg := range args {
		switch {
		case arg == "--json":
			jsonOutput = true
		case !strings.HasPrefix(arg, "-"):
			name = arg
		}
	}

	result := runDoctor(name)

	if jsonOutput {
		data, err := yamlutil.MarshalJSON(result)
		if err != nil {
			fmt.Fprintf(env.Stderr, "error: %v\n", err)
			return ExitGeneral
		}
		_, _ = env.Stdout.Write(data)
		fmt.Fprintln(env.Stdout)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs every check.
func runDoctor(name string) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
		Manifest: manifestInfo{Name: name},
	}

	checkManifest(result)
	checkChrome(result)
	checkEnvironment(result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkManifest loads the manifest. Missing is fine, invalid is an error.
func checkManifest(result *doctorResult) {
	m, err := manifest.LoadManifest(result.Manifest.Name)
	switch {
	case errors.Is(err, manifest.ErrManifestNotFound):
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Manifest %q not found; load will have nothing to do", result.Manifest.Name))
		return
	case err != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("Manifest invalid: %v", err))
		return
	}

	result.Manifest.Found = true
	result.Manifest.Mode = m.Mode()
	result.Manifest.Resources = len(m.Resources)
}

// checkChrome detects Chrome/Chromium. Missing Chrome is an error only when
// the manifest asks for browser mode.
func checkChrome(result *doctorResult) {
	problem := func(msg string) {
		if result.Manifest.Mode == manifest.ModeBrowser {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg+" (needed for --mode browser)")
		}
	}

	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		if chromePath, found = lookChrome(); !found {
			problem("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(chromePath); err != nil {
		problem(fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- path from launcher or env
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container = hints.IsInContainer() || os.Getenv("KUBERNETES_SERVICE_HOST") != ""

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chrome.Found && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// printDoctorResult writes human-readable results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintf(w, "resloader doctor\n\n")

	manifestLine := fmt.Sprintf("[--] %s: not loaded", r.Manifest.Name)
	if r.Manifest.Found {
		manifestLine = fmt.Sprintf("[OK] %s: %d resources, %s mode", r.Manifest.Name, r.Manifest.Resources, r.Manifest.Mode)
	}
	section(w, "Manifest", manifestLine)

	chrome := []string{"[--] Not found"}
	if r.Chrome.Found {
		chrome = []string{"[OK] Found at " + r.Chrome.Path}
		if r.Chrome.Version != "" {
			chrome = append(chrome, "[OK] Version: "+r.Chrome.Version)
		}
		sandbox := "[OK] Sandbox: enabled"
		if !r.Chrome.Sandbox {
			sandbox = "[OK] Sandbox: disabled (ROD_NO_SANDBOX=1)"
		}
		chrome = append(chrome, sandbox)
	}
	section(w, "Chrome/Chromium", chrome...)

	env := []string{fmt.Sprintf("[OK] Platform: %s/%s", r.Env.OS, r.Env.Arch)}
	if r.Env.Container {
		env = append(env, "[OK] Container: detected")
	}
	if r.Env.CI {
		env = append(env, "[OK] CI: detected")
	}
	section(w, "Environment", env...)

	var problems []string
	for _, warn := range r.Warnings {
		problems = append(problems, "[WARN] "+warn)
	}
	for _, e := range r.Errors {
		problems = append(problems, "[ERROR] "+e)
	}
	if len(problems) > 0 {
		section(w, "Problems", problems...)
	}

	fmt.Fprintf(w, "Status: %s\n", strings.ToUpper(r.Status))
}

// section prints a titled block of indented lines followed by a blank line.
func section(w io.Writer, title string, lines ...string) {
	fmt.Fprintln(w, title)
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
	fmt.Fprintln(w)
}
