package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRecorder(t *testing.T) (*Recorder, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	return r, reg
}

func TestRecorder_ObserveAttempt(t *testing.T) {
	t.Parallel()

	r, reg := newTestRecorder(t)

	r.ObserveAttempt("js", "primary", "load_failed", 0.02)
	r.ObserveAttempt("js", "fallback", "loaded", 0.15)
	r.ObserveAttempt("js", "fallback", "loaded", 0.10)

	if got := testutil.ToFloat64(r.attempts.WithLabelValues("js", "primary", "load_failed")); got != 1 {
		t.Errorf("primary load_failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.attempts.WithLabelValues("js", "fallback", "loaded")); got != 2 {
		t.Errorf("fallback loaded = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(r.duration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}

	n, err := testutil.GatherAndCount(reg, "resloader_attempts_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("attempts series = %d, want 2", n)
	}
}

func TestRecorder_ObserveResult(t *testing.T) {
	t.Parallel()

	r, _ := newTestRecorder(t)

	r.ObserveResult("css", "loaded")
	r.ObserveResult("js", "failed")

	want := `
# HELP resloader_results_total Total number of resources reaching a terminal state
# TYPE resloader_results_total counter
resloader_results_total{kind="css",state="loaded"} 1
resloader_results_total{kind="js",state="failed"} 1
`
	if err := testutil.CollectAndCompare(r.results, strings.NewReader(want)); err != nil {
		t.Error(err)
	}
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatalf("first NewRecorder() error = %v", err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Error("second NewRecorder() on one registry succeeded")
	}
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	r, reg := newTestRecorder(t)
	r.ObserveResult("css", "loaded")

	path := filepath.Join(t.TempDir(), "resloader.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `resloader_results_total{kind="css",state="loaded"} 1`) {
		t.Errorf("textfile = %s", data)
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	t.Parallel()

	_, reg := newTestRecorder(t)
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"), reg)
	if !errors.Is(err, ErrWrite) {
		t.Errorf("WriteTextfile() error = %v, want ErrWrite", err)
	}
}
