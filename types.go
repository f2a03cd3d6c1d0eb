package resloader

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-resloader/internal/dom"
)

// Kind is the type of a loadable resource.
type Kind = dom.Kind

// Resource kinds.
const (
	KindStyle  = dom.KindStyle
	KindScript = dom.KindScript
)

// ParseKind converts "css"/"style" or "js"/"script" to a Kind.
func ParseKind(s string) (Kind, error) {
	return dom.ParseKind(s)
}

// Node is one element attached to a document for one load attempt.
type Node = dom.Node

// Document is the page resources are loaded into.
type Document = dom.Document

// Validator confirms a transported resource is usable, for example that a
// script defined the global it is expected to define.
type Validator func(ctx context.Context) bool

// Descriptor describes one loadable resource.
type Descriptor struct {
	ID       string
	Kind     Kind
	Primary  string    // preferred (local) location
	Fallback string    // backup (CDN) location; empty means none
	Validate Validator // optional; runs after each successful transport load
}

// check verifies the descriptor can be loaded.
func (d Descriptor) check() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if d.Primary == "" {
		return fmt.Errorf("%w: %q", ErrEmptyLocation, d.ID)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: %q has %v", ErrUnknownKind, d.ID, d.Kind)
	}
	return nil
}

// State is where a resource id is in its load sequence.
type State int

// Resource states. Loaded and Failed are terminal.
const (
	StateNotAttempted State = iota
	StateAttempting
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotAttempted:
		return "not-attempted"
	case StateAttempting:
		return "attempting"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Report is a snapshot of loader state.
type Report struct {
	Loaded []string `json:"loaded" yaml:"loaded"` // in order of completion
	Failed []string `json:"failed" yaml:"failed"` // in order of completion
	Total  int      `json:"total" yaml:"total"`
}

// Recorder receives per-attempt and per-resource measurements.
// kind is "css" or "js"; source is "primary" or "fallback".
type Recorder interface {
	ObserveAttempt(kind, source, outcome string, seconds float64)
	ObserveResult(kind, state string)
}

// Attempt outcomes passed to Recorder.ObserveAttempt.
const (
	OutcomeLoaded           = "loaded"
	OutcomeLoadFailed       = "load_failed"
	OutcomeValidationFailed = "validation_failed"
	OutcomeCanceled         = "canceled"
)

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, string, string, float64) {}
func (nopRecorder) ObserveResult(string, string)                   {}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger for load diagnostics.
// Panics if logger is nil (programmer error).
func WithLogger(logger *zap.Logger) Option {
	if logger == nil {
		panic("resloader: WithLogger logger must not be nil")
	}
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
// Panics if r is nil (programmer error).
func WithRecorder(r Recorder) Option {
	if r == nil {
		panic("resloader: WithRecorder recorder must not be nil")
	}
	return func(l *Loader) {
		l.recorder = r
	}
}

// WithMaxConcurrency bounds how many resources LoadAll loads at once.
// Zero, the default, starts every resource immediately.
// Panics if n < 0 (programmer error).
func WithMaxConcurrency(n int) Option {
	if n < 0 {
		panic("resloader: WithMaxConcurrency must not be negative")
	}
	return func(l *Loader) {
		l.maxConcurrency = n
	}
}
