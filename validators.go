package resloader

import (
	"bytes"
	"context"
)

// payloadSource is a document that keeps what each active element loaded.
type payloadSource interface {
	Payload(id string) (*Payload, bool)
}

// evaluator is a document that can run JavaScript.
type evaluator interface {
	Eval(ctx context.Context, expr string) (bool, error)
	Defined(ctx context.Context, name string) (bool, error)
}

// PayloadContains passes when the payload loaded for id contains text.
func PayloadContains(doc payloadSource, id, text string) Validator {
	return func(context.Context) bool {
		p, ok := doc.Payload(id)
		return ok && bytes.Contains(p.Body, []byte(text))
	}
}

// PayloadMinBytes passes when the payload loaded for id has at least n bytes.
// Catches truncated files and empty error pages served with status 200.
func PayloadMinBytes(doc payloadSource, id string, n int) Validator {
	return func(context.Context) bool {
		p, ok := doc.Payload(id)
		return ok && len(p.Body) >= n
	}
}

// GlobalDefined passes when the page defines window[name], the usual check
// that a library script actually executed.
func GlobalDefined(doc evaluator, name string) Validator {
	return func(ctx context.Context) bool {
		ok, err := doc.Defined(ctx, name)
		return err == nil && ok
	}
}

// ExprTrue passes when expr evaluates truthy in the page.
func ExprTrue(doc evaluator, expr string) Validator {
	return func(ctx context.Context) bool {
		ok, err := doc.Eval(ctx, expr)
		return err == nil && ok
	}
}

// AllOf passes when every non-nil validator passes, checked in order.
// nil when no validator is given, so it can feed Descriptor.Validate as is.
func AllOf(vs ...Validator) Validator {
	var checks []Validator
	for _, v := range vs {
		if v != nil {
			checks = append(checks, v)
		}
	}
	switch len(checks) {
	case 0:
		return nil
	case 1:
		return checks[0]
	}
	return func(ctx context.Context) bool {
		for _, v := range checks {
			if !v(ctx) {
				return false
			}
		}
		return true
	}
}
