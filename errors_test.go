package resloader

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLoadError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	tests := []struct {
		name      string
		err       *LoadError
		wantIs    []error
		wantNotIs []error
		wantText  []string
	}{
		{
			name: "transport failure on fallback",
			err: &LoadError{
				ID: "jquery", Kind: KindScript, Location: "https://cdn.example/jquery.js",
				Fallback: true, Reason: ErrLoadFailed, Err: cause,
			},
			wantIs:    []error{ErrLoadFailed, cause},
			wantNotIs: []error{ErrValidationFailed},
			wantText:  []string{`js "jquery"`, "https://cdn.example/jquery.js", "(fallback)", "connection refused"},
		},
		{
			name: "validation failure on primary",
			err: &LoadError{
				ID: "lib", Kind: KindScript, Location: "/js/lib.js", Reason: ErrValidationFailed,
			},
			wantIs:    []error{ErrValidationFailed},
			wantNotIs: []error{ErrLoadFailed},
			wantText:  []string{"validation failed", `js "lib"`, "/js/lib.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, target := range tt.wantIs {
				if !errors.Is(tt.err, target) {
					t.Errorf("errors.Is(%v) = false, want true", target)
				}
			}
			for _, target := range tt.wantNotIs {
				if errors.Is(tt.err, target) {
					t.Errorf("errors.Is(%v) = true, want false", target)
				}
			}
			msg := tt.err.Error()
			for _, want := range tt.wantText {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
			if !tt.err.Fallback && strings.Contains(msg, "(fallback)") {
				t.Errorf("Error() = %q marks a primary attempt as fallback", msg)
			}
		})
	}
}

func TestAggregateError(t *testing.T) {
	t.Parallel()

	a := &LoadError{ID: "a", Kind: KindStyle, Location: "/a.css", Reason: ErrLoadFailed}
	b := &LoadError{ID: "b", Kind: KindScript, Location: "/b.js", Reason: ErrValidationFailed}
	agg := &AggregateError{IDs: []string{"a", "b"}, Errs: []error{a, b}, Total: 5}

	if got, want := agg.Error(), "2 of 5 resources failed: a, b"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(agg, ErrLoadFailed) || !errors.Is(agg, ErrValidationFailed) {
		t.Error("aggregate does not match per-id sentinels")
	}

	var le *LoadError
	if !errors.As(agg, &le) || le.ID != "a" {
		t.Errorf("errors.As found %+v, want first LoadError", le)
	}
}

func TestAggregateError_Canceled(t *testing.T) {
	t.Parallel()

	a := &LoadError{ID: "a", Kind: KindStyle, Location: "/a.css", Reason: ErrLoadFailed}
	agg := &AggregateError{
		IDs:      []string{"a"},
		Errs:     []error{a},
		Canceled: []string{"b", "c"},
		Cause:    context.Canceled,
		Total:    3,
	}

	if got, want := agg.Error(), "1 of 3 resources failed: a; 2 canceled: b, c"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(agg, ErrLoadFailed) || !errors.Is(agg, context.Canceled) {
		t.Error("aggregate does not match both the failure and the cause")
	}

	onlyCanceled := &AggregateError{Canceled: []string{"b"}, Cause: context.Canceled, Total: 1}
	if got, want := onlyCanceled.Error(), "0 of 1 resources failed; 1 canceled: b"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
