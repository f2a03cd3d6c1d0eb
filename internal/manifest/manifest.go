// Package manifest loads and validates the YAML file listing the resources
// a page needs, with their local and CDN locations.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-resloader/internal/dom"
	"github.com/alnah/go-resloader/internal/logging"
	"github.com/alnah/go-resloader/internal/yamlutil"
)

// Sentinel errors for manifest operations.
var (
	ErrManifestNotFound  = errors.New("manifest file not found")
	ErrEmptyManifestName = errors.New("manifest name cannot be empty")
	ErrManifestParse     = errors.New("failed to parse manifest")
	ErrFieldTooLong      = errors.New("field exceeds maximum length")
	ErrInvalidValue      = errors.New("invalid manifest value")
)

// DefaultName is looked up when no manifest is given.
const DefaultName = "resloader"

// Document modes.
const (
	ModeHead    = "head"
	ModeBrowser = "browser"
)

// Field limits.
const (
	MaxIDLength       = 100
	MaxURLLength      = 2048 // browser limit
	MaxPathLength     = 4096 // PATH_MAX
	MaxTestLength     = 500  // test.global, test.expr, test.contains
	MaxResources      = 500
	MaxConcurrency    = 256
	MaxDurationLength = 20 // "1m30s"
)

// Manifest is the on-disk description of a page and its resources.
type Manifest struct {
	Document  DocumentConfig `yaml:"document"`
	Local     LocalConfig    `yaml:"local"`
	HTTP      HTTPConfig     `yaml:"http"`
	Loader    LoaderConfig   `yaml:"loader"`
	Logging   LoggingConfig  `yaml:"logging"`
	Resources []Resource     `yaml:"resources"`

	// dir is the directory the manifest was read from; relative paths
	// resolve against it. Empty means the working directory.
	dir string
}

// DocumentConfig selects the document resources are loaded into.
type DocumentConfig struct {
	Mode   string `yaml:"mode"`   // head (default) or browser
	Page   string `yaml:"page"`   // optional starting HTML file or URL
	Output string `yaml:"output"` // optional rendered page after loading
}

// LocalConfig roots local resource locations.
type LocalConfig struct {
	BasePath string `yaml:"basePath"`
}

// HTTPConfig tunes CDN requests.
type HTTPConfig struct {
	Timeout     string `yaml:"timeout"`     // Go duration, e.g. "15s"
	MaxBodySize int64  `yaml:"maxBodySize"` // bytes; 0 uses the default
}

// LoaderConfig tunes the loader.
type LoaderConfig struct {
	MaxConcurrency int `yaml:"maxConcurrency"` // 0 means unbounded
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Resource is one page resource.
type Resource struct {
	ID    string      `yaml:"id"`
	Type  string      `yaml:"type"`  // css or js
	Local string      `yaml:"local"` // primary location
	CDN   string      `yaml:"cdn"`   // fallback location; optional
	Test  *TestConfig `yaml:"test,omitempty"`
}

// TestConfig validates a loaded resource. All set checks must pass.
type TestConfig struct {
	Global   string `yaml:"global"`   // browser mode: window[global] is defined
	Expr     string `yaml:"expr"`     // browser mode: expression is truthy
	Contains string `yaml:"contains"` // body contains this text
	MinBytes int    `yaml:"minBytes"` // body has at least this many bytes
}

// Kind returns the parsed resource type.
func (r Resource) Kind() (dom.Kind, error) {
	return dom.ParseKind(r.Type)
}

// DefaultManifest returns a manifest loading nothing, in head mode.
func DefaultManifest() *Manifest {
	return &Manifest{
		Document: DocumentConfig{Mode: ModeHead},
		Logging:  LoggingConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// Mode returns the document mode, defaulting to head.
func (m *Manifest) Mode() string {
	if m.Document.Mode == "" {
		return ModeHead
	}
	return strings.ToLower(m.Document.Mode)
}

// Timeout returns the parsed HTTP timeout, or 0 when unset.
func (m *Manifest) Timeout() (time.Duration, error) {
	if m.HTTP.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(m.HTTP.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: http.timeout: %v", ErrInvalidValue, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: http.timeout: must be positive, got %s", ErrInvalidValue, m.HTTP.Timeout)
	}
	return d, nil
}

// ResolvePath makes a relative filesystem path relative to the manifest's
// directory. Absolute paths, URLs and empty strings are returned as is.
func (m *Manifest) ResolvePath(p string) string {
	if p == "" || m.dir == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Validate checks every field. It is called by LoadManifest and should be
// called again after flags override manifest values.
func (m *Manifest) Validate() error {
	switch m.Mode() {
	case ModeHead, ModeBrowser:
	default:
		return fmt.Errorf("%w: document.mode: expected %s or %s, got %q", ErrInvalidValue, ModeHead, ModeBrowser, m.Document.Mode)
	}
	if err := validateFieldLength("document.page", m.Document.Page, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.output", m.Document.Output, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("local.basePath", m.Local.BasePath, MaxPathLength); err != nil {
		return err
	}

	if err := validateFieldLength("http.timeout", m.HTTP.Timeout, MaxDurationLength); err != nil {
		return err
	}
	if _, err := m.Timeout(); err != nil {
		return err
	}
	if m.HTTP.MaxBodySize < 0 {
		return fmt.Errorf("%w: http.maxBodySize: must not be negative", ErrInvalidValue)
	}

	if m.Loader.MaxConcurrency < 0 || m.Loader.MaxConcurrency > MaxConcurrency {
		return fmt.Errorf("%w: loader.maxConcurrency: must be between 0 and %d, got %d", ErrInvalidValue, MaxConcurrency, m.Loader.MaxConcurrency)
	}

	if _, err := logging.ParseLevel(m.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidValue, err)
	}
	switch strings.ToLower(m.Logging.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: logging.format: expected %s or %s, got %q", ErrInvalidValue, logging.FormatConsole, logging.FormatJSON, m.Logging.Format)
	}

	if len(m.Resources) > MaxResources {
		return fmt.Errorf("%w: resources: %d entries (max %d)", ErrInvalidValue, len(m.Resources), MaxResources)
	}
	seen := make(map[string]int, len(m.Resources))
	for i, r := range m.Resources {
		if err := m.validateResource(i, r); err != nil {
			return err
		}
		if prev, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: resources[%d].id: %q already used by resources[%d]", ErrInvalidValue, i, r.ID, prev)
		}
		seen[r.ID] = i
	}

	return nil
}

func (m *Manifest) validateResource(i int, r Resource) error {
	field := func(name string) string { return fmt.Sprintf("resources[%d].%s", i, name) }

	if r.ID == "" {
		return fmt.Errorf("%w: %s: required", ErrInvalidValue, field("id"))
	}
	if err := validateFieldLength(field("id"), r.ID, MaxIDLength); err != nil {
		return err
	}
	if !validID(r.ID) {
		return fmt.Errorf("%w: %s: %q must start with a letter and hold only letters, digits, '-', '_', '.' or ':'", ErrInvalidValue, field("id"), r.ID)
	}
	if _, err := r.Kind(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field("type"), err)
	}
	if r.Local == "" {
		return fmt.Errorf("%w: %s: required", ErrInvalidValue, field("local"))
	}
	if err := validateFieldLength(field("local"), r.Local, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength(field("cdn"), r.CDN, MaxURLLength); err != nil {
		return err
	}

	if r.Test == nil {
		return nil
	}
	for name, v := range map[string]string{"global": r.Test.Global, "expr": r.Test.Expr, "contains": r.Test.Contains} {
		if err := validateFieldLength(field("test."+name), v, MaxTestLength); err != nil {
			return err
		}
	}
	if r.Test.MinBytes < 0 {
		return fmt.Errorf("%w: %s: must not be negative", ErrInvalidValue, field("test.minBytes"))
	}
	if m.Mode() != ModeBrowser && (r.Test.Global != "" || r.Test.Expr != "") {
		return fmt.Errorf("%w: %s: test.global and test.expr need document.mode %s", ErrInvalidValue, field("test"), ModeBrowser)
	}
	if m.Mode() == ModeBrowser && (r.Test.Contains != "" || r.Test.MinBytes > 0) {
		return fmt.Errorf("%w: %s: test.contains and test.minBytes need document.mode %s", ErrInvalidValue, field("test"), ModeHead)
	}
	return nil
}

// validID reports whether id is usable as an HTML id and a metrics label.
func validID(id string) bool {
	for i, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '_' || c == '.' || c == ':'):
		default:
			return false
		}
	}
	return id != ""
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadManifest loads a manifest from a file path or a name.
// A value containing a path separator is a file path; anything else is a
// name searched in standard locations. A missing file is an error.
func LoadManifest(nameOrPath string) (*Manifest, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyManifestName
	}

	path := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		if path, err = resolveManifestPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 -- manifest path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return Parse(data, filepath.Dir(path))
}

// Parse decodes and validates manifest data. dir anchors relative paths.
func Parse(data []byte, dir string) (*Manifest, error) {
	m := DefaultManifest()
	if err := yamlutil.UnmarshalStrict(data, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestParse, err)
	}
	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\") || strings.HasSuffix(s, ".yaml") || strings.HasSuffix(s, ".yml")
}

// resolveManifestPath searches for name in the current directory, then in
// the user config directory, trying .yaml before .yml in each.
func resolveManifestPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	dirs := []string{"."}
	if userDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userDir, "go-resloader"))
	}

	tried := make([]string, 0, len(extensions)*len(dirs))
	for _, dir := range dirs {
		for _, ext := range extensions {
			p := filepath.Join(dir, name+ext)
			if fileExists(p) {
				return p, nil
			}
			tried = append(tried, p)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrManifestNotFound, strings.Join(tried, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
