package resloader

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alnah/go-resloader/internal/dom"
)

// Sentinel errors for loader operations.
var (
	// ErrLoadFailed indicates every attempt failed at the transport level.
	ErrLoadFailed = errors.New("resource load failed")

	// ErrValidationFailed indicates the resource loaded but its validator
	// rejected it on the final attempt.
	ErrValidationFailed = errors.New("resource validation failed")

	// ErrDuplicateNode indicates the document already holds an element
	// with the resource id that the loader did not insert.
	ErrDuplicateNode = dom.ErrDuplicateNode

	ErrEmptyID           = errors.New("resource id cannot be empty")
	ErrEmptyLocation     = errors.New("primary location cannot be empty")
	ErrNilDocument       = errors.New("document cannot be nil")
	ErrInvalidDescriptor = errors.New("invalid resource descriptor")

	// ErrUnknownKind indicates a kind other than KindStyle or KindScript.
	ErrUnknownKind = dom.ErrUnknownKind
)

// LoadError describes the terminal failure of one resource.
// It matches ErrLoadFailed or ErrValidationFailed with errors.Is, and
// also matches the underlying document or fetch error when there is one.
type LoadError struct {
	ID       string
	Kind     Kind
	Location string // location of the final attempt
	Fallback bool   // final attempt used the fallback location
	Reason   error  // ErrLoadFailed or ErrValidationFailed
	Err      error  // underlying cause; nil for validation failures
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	fmt.Fprintf(&b, ": %s %q from %s", e.Kind, e.ID, e.Location)
	if e.Fallback {
		b.WriteString(" (fallback)")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the reason sentinel and the cause.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// AggregateError reports every resource that did not load in a LoadAll
// batch. IDs holds terminal failures only, the same ids Report lists as
// failed. Resources cut short by the context are in Canceled and stay
// retryable.
type AggregateError struct {
	IDs      []string // failed ids, in descriptor order
	Errs     []error  // one error per id, same order
	Canceled []string // ids stopped by the context, in descriptor order
	Cause    error    // context error; nil when Canceled is empty
	Total    int      // descriptors in the batch
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d resources failed", len(e.IDs), e.Total)
	if len(e.IDs) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.IDs, ", "))
	}
	if len(e.Canceled) > 0 {
		fmt.Fprintf(&b, "; %d canceled: %s", len(e.Canceled), strings.Join(e.Canceled, ", "))
	}
	return b.String()
}

// Unwrap exposes each per-resource error, then the context error.
func (e *AggregateError) Unwrap() []error {
	if e.Cause == nil {
		return e.Errs
	}
	return append(slices.Clip(e.Errs), e.Cause)
}
