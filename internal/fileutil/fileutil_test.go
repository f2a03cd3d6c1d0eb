package fileutil_test

// Notes:
// - WriteFile write/close/rename failure branches are not tested: forcing
//   them needs a full disk or platform-specific filesystem tricks.

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-resloader/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestWriteFile
// ---------------------------------------------------------------------------

func TestWriteFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out", "nested", "index.html")

	if err := fileutil.WriteFile(path, []byte("<html></html>")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(got) != "<html></html>" {
		t.Errorf("content = %q", got)
	}

	// Overwrite replaces content and leaves no temp files behind.
	if err := fileutil.WriteFile(path, []byte("v2")); err != nil {
		t.Fatalf("second WriteFile() error = %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want 1", len(entries))
	}
}

func TestWriteFile_Errors(t *testing.T) {
	t.Parallel()

	if err := fileutil.WriteFile("", nil); !errors.Is(err, fileutil.ErrEmptyPath) {
		t.Errorf("WriteFile(\"\") error = %v, want ErrEmptyPath", err)
	}

	// Parent is a regular file, so the directory cannot be created.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.WriteFile(filepath.Join(blocker, "out.html"), []byte("x")); err == nil {
		t.Error("WriteFile() under a regular file succeeded")
	}
}

// ---------------------------------------------------------------------------
// TestFileExists / TestIsURL
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.css")
	if err := os.WriteFile(file, []byte("a{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "regular file", path: file, want: true},
		{name: "directory", path: dir, want: false},
		{name: "missing", path: filepath.Join(dir, "nope"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.FileExists(tt.path); got != tt.want {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"https://cdn.jsdelivr.net/npm/bootstrap.css", true},
		{"http://localhost:8080/app.js", true},
		{"//code.jquery.com/jquery.js", true},
		{"/static/js/app.js", false},
		{"embed:vendor/app.js", false},
		{"file:///srv/app.js", false},
	}

	for _, tt := range tests {
		if got := fileutil.IsURL(tt.input); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
