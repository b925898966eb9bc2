package bus

import "context"

// HeaderPropagator injects cross-process context (trace ids, tenant) into exported record headers.
// Implementations mutate headers in place and must be safe for concurrent use.
type HeaderPropagator interface {
	Inject(ctx context.Context, headers map[string]string)
}

// NopHeaderPropagator leaves headers untouched.
type NopHeaderPropagator struct{}

func (NopHeaderPropagator) Inject(context.Context, map[string]string) {}
