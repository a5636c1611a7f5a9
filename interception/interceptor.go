package interception

import (
	"context"
)

// Interceptor observes or modifies a single invocation on a generated proxy.
//
// An interceptor may set the invocation's result without proceeding, ending
// the chain; proceed and return; or proceed and then post-process the result.
// Pre-proceed logic runs outer-to-inner along the chain, post-proceed logic
// inner-to-outer.
type Interceptor interface {
	// Intercept processes the invocation. Calling inv.Proceed hands control
	// to the next interceptor or, past the last one, to the target call.
	Intercept(ctx context.Context, inv *Invocation) error

	// Name returns the interceptor name for logging and debugging.
	Name() string
}

// InterceptorFunc is a function adapter for Interceptor.
type InterceptorFunc struct {
	name string
	fn   func(ctx context.Context, inv *Invocation) error
}

// NewInterceptorFunc creates a new function-based interceptor.
func NewInterceptorFunc(name string, fn func(ctx context.Context, inv *Invocation) error) *InterceptorFunc {
	return &InterceptorFunc{name: name, fn: fn}
}

// Intercept implements Interceptor.
func (i *InterceptorFunc) Intercept(ctx context.Context, inv *Invocation) error {
	return i.fn(ctx, inv)
}

// Name implements Interceptor.
func (i *InterceptorFunc) Name() string {
	return i.name
}
