package interception

import (
	"context"
	"reflect"
)

// Selector chooses which interceptors apply, and in what order, for a single
// call. It receives the declaring contract type, the method name, and the
// full resolved chain, and returns the exact ordered subset to run. It is
// consulted once per call, before the first interceptor executes.
type Selector func(contract reflect.Type, method string, chain []Interceptor) []Interceptor

// MethodFilter restricts which methods are ever eligible for interception.
// It is evaluated once per method when the contract is bound, not per call;
// methods it excludes forward straight to the target or mixin with no
// interceptor involvement.
type MethodFilter func(contract reflect.Type, method string) bool

// terminalFunc performs the real call at the end of the chain: the remote
// call on the target, or the mixin method.
type terminalFunc func(ctx context.Context, inv *Invocation) error

// Invocation is the ephemeral context of a single method call on a generated
// proxy. It carries the call's arguments, a result slot shared by the whole
// chain, and an explicit cursor over the interceptor sequence. Created per
// call and discarded when the call completes or faults.
//
// An Invocation is confined to the calling goroutine; the chain executes as
// nested synchronous calls on the caller's stack.
type Invocation struct {
	id       string
	contract reflect.Type
	method   string
	args     []any

	result     any
	resultType reflect.Type

	chain    []Interceptor
	cursor   int
	called   bool
	terminal terminalFunc
}

// ID returns the unique identifier of this invocation.
func (inv *Invocation) ID() string { return inv.id }

// Contract returns the declaring contract type of the invoked method.
func (inv *Invocation) Contract() reflect.Type { return inv.contract }

// Method returns the invoked method name.
func (inv *Invocation) Method() string { return inv.method }

// Args returns the call arguments, excluding the context.
func (inv *Invocation) Args() []any { return inv.args }

// Result returns the current value of the result slot. It is nil until the
// target call completes or an interceptor sets it.
func (inv *Invocation) Result() any { return inv.result }

// SetResult writes the result slot. The value must be assignable to the
// method's declared result type by the time the call returns.
func (inv *Invocation) SetResult(v any) { inv.result = v }

// ResultType returns the method's declared result type.
func (inv *Invocation) ResultType() reflect.Type { return inv.resultType }

// Proceed hands control to the next stage of the chain: the interceptor at
// the cursor or, past the last one, the target call. The cursor is advanced
// by explicit increment, so each stage runs at most once per invocation and
// a repeated Proceed after the target call is a no-op.
func (inv *Invocation) Proceed(ctx context.Context) error {
	if inv.cursor < len(inv.chain) {
		next := inv.chain[inv.cursor]
		inv.cursor++
		return next.Intercept(ctx, inv)
	}
	if inv.called {
		return nil
	}
	inv.called = true
	return inv.terminal(ctx, inv)
}
