package lexicon

import "context"

type contextKey int

const _ctxKeyFailFast contextKey = iota

// WithFailFast returns a child context that stops a validation at its first
// issue. Callers that only need pass/fail skip the cost of the exhaustive
// sibling sweep.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current validation should stop on the first
// issue.
func IsFailFast(ctx context.Context) bool {
	b, _ := ctx.Value(_ctxKeyFailFast).(bool)
	return b
}
