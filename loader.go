package resloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	sourcePrimary  = "primary"
	sourceFallback = "fallback"
)

// Loader loads resources into a Document, falling back once per resource.
// A Loader owns its state; create one per page. Safe for concurrent use.
type Loader struct {
	doc            Document
	logger         *zap.Logger
	recorder       Recorder
	maxConcurrency int

	flights singleflight.Group
	state   *loaderState
}

// NewLoader creates a Loader attaching resources to doc.
// Returns ErrNilDocument if doc is nil.
func NewLoader(doc Document, opts ...Option) (*Loader, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	l := &Loader{
		doc:      doc,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		state:    newLoaderState(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadStyle loads a stylesheet from primary, retrying once from fallback
// when primary fails. An empty fallback means none.
// Returns nil immediately when id already loaded.
func (l *Loader) LoadStyle(ctx context.Context, primary, fallback, id string) error {
	return l.load(ctx, Descriptor{ID: id, Kind: KindStyle, Primary: primary, Fallback: fallback})
}

// LoadScript loads a script like LoadStyle. When validate is non-nil it runs
// after each successful transport load, and false counts as a failed attempt.
func (l *Loader) LoadScript(ctx context.Context, primary, fallback, id string, validate Validator) error {
	return l.load(ctx, Descriptor{ID: id, Kind: KindScript, Primary: primary, Fallback: fallback, Validate: validate})
}

// Load loads one descriptor, dispatching on its kind.
func (l *Loader) Load(ctx context.Context, d Descriptor) error {
	return l.load(ctx, d)
}

// LoadAll loads every descriptor concurrently and waits for all of them.
// A failure never cancels the other loads. Returns *AggregateError naming
// every failed or canceled id, or ErrInvalidDescriptor before loading
// anything if a descriptor is malformed.
func (l *Loader) LoadAll(ctx context.Context, descs []Descriptor) error {
	for i, d := range descs {
		if err := d.check(); err != nil {
			return fmt.Errorf("%w: #%d: %w", ErrInvalidDescriptor, i, err)
		}
	}

	errs := make([]error, len(descs))
	p := pool.New()
	if l.maxConcurrency > 0 {
		p = p.WithMaxGoroutines(l.maxConcurrency)
	}
	for i, d := range descs {
		p.Go(func() {
			errs[i] = l.load(ctx, d)
		})
	}
	p.Wait()

	agg := &AggregateError{Total: len(descs)}
	seen := make(map[string]bool, len(descs))
	for i, err := range errs {
		id := descs[i].ID
		if err == nil || seen[id] {
			continue
		}
		seen[id] = true
		if !isLoadError(err) {
			agg.Canceled = append(agg.Canceled, id)
			if agg.Cause == nil {
				agg.Cause = err
			}
			continue
		}
		agg.IDs = append(agg.IDs, id)
		agg.Errs = append(agg.Errs, err)
	}

	if len(agg.IDs) == 0 && len(agg.Canceled) == 0 {
		l.logger.Info("all resources loaded", zap.Int("count", len(descs)))
		return nil
	}
	l.logger.Error("some resources did not load",
		zap.Strings("failed", agg.IDs),
		zap.Strings("canceled", agg.Canceled),
		zap.Int("count", len(descs)),
	)
	return agg
}

// Report returns the ids loaded and failed so far.
func (l *Loader) Report() Report {
	return l.state.report()
}

// State returns where id is in its load sequence.
func (l *Loader) State(id string) State {
	return l.state.state(id)
}

// load short-circuits terminal ids and joins concurrent loads of one id.
func (l *Loader) load(ctx context.Context, d Descriptor) error {
	if err := d.check(); err != nil {
		return err
	}
	if done, err := l.state.terminal(d.ID); done {
		return err
	}

	// Callers racing on one id share the first caller's load, which keeps
	// a single active element per id.
	_, err, _ := l.flights.Do(d.ID, func() (any, error) {
		if !l.state.begin(d.ID) {
			_, err := l.state.terminal(d.ID)
			return nil, err
		}
		return nil, l.loadSequence(ctx, d)
	})
	return err
}

// loadSequence runs the primary attempt and, if it fails, the fallback.
func (l *Loader) loadSequence(ctx context.Context, d Descriptor) error {
	log := l.logger.With(zap.String("id", d.ID), zap.Stringer("kind", d.Kind))

	err := l.attempt(ctx, d, d.Primary, false)
	if err == nil {
		l.finishLoaded(d)
		log.Info("resource loaded", zap.String("url", d.Primary))
		return nil
	}
	if !isLoadError(err) {
		l.state.abort(d.ID)
		return err
	}

	if d.Fallback != "" {
		log.Warn("primary failed, trying fallback",
			zap.String("primary", d.Primary),
			zap.String("fallback", d.Fallback),
			zap.Error(err),
		)

		err = l.attempt(ctx, d, d.Fallback, true)
		if err == nil {
			l.finishLoaded(d)
			log.Warn("resource loaded from fallback", zap.String("url", d.Fallback))
			return nil
		}
		if !isLoadError(err) {
			l.state.abort(d.ID)
			return err
		}
	}

	l.state.markFailed(d.ID, err)
	l.recorder.ObserveResult(d.Kind.String(), StateFailed.String())
	log.Error("resource failed", zap.Error(err))
	return err
}

// attempt attaches one element and validates it.
// Returns *LoadError for a failed attempt, or a context error when the
// caller gave up. The element is detached on any failure, except when the
// document refused it as a duplicate: that element is not ours.
func (l *Loader) attempt(ctx context.Context, d Descriptor, location string, fallback bool) error {
	start := time.Now()
	source := sourcePrimary
	if fallback {
		source = sourceFallback
	}

	outcome := OutcomeLoaded
	defer func() {
		l.recorder.ObserveAttempt(d.Kind.String(), source, outcome, time.Since(start).Seconds())
	}()

	n := &Node{ID: d.ID, Kind: d.Kind, URL: location, Fallback: fallback}
	if err := l.doc.Attach(ctx, n); err != nil {
		if !errors.Is(err, ErrDuplicateNode) {
			l.detach(ctx, d.ID)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome = OutcomeCanceled
			return fmt.Errorf("loading %q: %w", d.ID, ctxErr)
		}
		outcome = OutcomeLoadFailed
		return &LoadError{
			ID:       d.ID,
			Kind:     d.Kind,
			Location: location,
			Fallback: fallback,
			Reason:   ErrLoadFailed,
			Err:      err,
		}
	}

	if d.Validate != nil && !d.Validate(ctx) {
		l.detach(ctx, d.ID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome = OutcomeCanceled
			return fmt.Errorf("validating %q: %w", d.ID, ctxErr)
		}
		outcome = OutcomeValidationFailed
		return &LoadError{
			ID:       d.ID,
			Kind:     d.Kind,
			Location: location,
			Fallback: fallback,
			Reason:   ErrValidationFailed,
		}
	}

	return nil
}

// finishLoaded records the terminal success of d.
func (l *Loader) finishLoaded(d Descriptor) {
	l.state.markLoaded(d.ID)
	l.recorder.ObserveResult(d.Kind.String(), StateLoaded.String())
}

// detach removes the element for id even when ctx is already canceled.
func (l *Loader) detach(ctx context.Context, id string) {
	if err := l.doc.Detach(context.WithoutCancel(ctx), id); err != nil {
		l.logger.Warn("detaching failed element", zap.String("id", id), zap.Error(err))
	}
}

// isLoadError reports whether err is a terminal attempt failure rather
// than a cancellation.
func isLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
