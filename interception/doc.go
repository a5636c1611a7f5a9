// Package interception binds remote-call client proxies to chains of local
// interceptors, so cross-cutting behavior can attach to calls made through a
// proxy without touching the client code itself.
//
// The package provides:
//   - validation that a candidate instance is a genuine remote-call proxy
//     for a contract (ValidateTarget)
//   - generation of a substitute proxy binding any number of contract views
//     (Generate, Proxy.Bind)
//   - an explicit, cursor-based invocation pipeline (Invocation.Proceed)
//   - per-call interceptor selection (Selector) and generation-time method
//     eligibility (MethodFilter)
//   - mixin-backed contracts that operate on local state instead of the
//     remote target
//   - the safe-release disposal policy for already closed or faulted
//     transport channels
//   - integration with a dependency scope via activation hooks (Attach)
//
// A service contract is a pointer to a struct of func fields:
//
//	type GreeterClient struct {
//		Greet func(ctx context.Context, name string) (string, error)
//		Close func() error
//	}
//
// Registration code attaches interception declaratively:
//
//	err := interception.Attach[GreeterClient](scope,
//		func(s *container.Scope) (contracts.RemoteProxy, error) {
//			return amqprpc.Dial(url, "greeter")
//		},
//		interception.WithInterceptors(
//			interception.Use(interception.NewLoggingInterceptor(logger)),
//			interception.UseType[*AuditInterceptor](),
//		),
//		interception.WithSafeRelease(),
//	)
//
//	client, err := container.Resolve[*GreeterClient](scope)
//	reply, err := client.Greet(ctx, "world")
//
// Interceptors run as nested synchronous calls on the caller's goroutine.
// Code before Proceed runs outer-to-inner along the chain; code after
// Proceed runs inner-to-outer. An interceptor may set the result and skip
// Proceed entirely, ending the chain.
package interception
