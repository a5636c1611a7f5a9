package interception

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/ferrule/intercede-go/container"
	"github.com/ferrule/intercede-go/contracts"
)

// ContractFor returns the contract type key for T, a contract struct.
func ContractFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil))
}

// config collects the recognized generation options.
type config struct {
	additional  []reflect.Type
	refs        []Ref
	selector    Selector
	filter      MethodFilter
	mixins      []any
	safeRelease bool
	scope       *container.Scope
	logger      *slog.Logger
}

// Option configures proxy generation.
type Option func(*config)

// WithContracts requests additional contracts the generated proxy must
// support beyond the primary one. Entries may be contract struct types
// (ContractFor[T]) or plain Go interface types.
func WithContracts(types ...reflect.Type) Option {
	return func(c *config) {
		c.additional = append(c.additional, types...)
	}
}

// WithInterceptors appends interceptor references to the chain, in order.
func WithInterceptors(refs ...Ref) Option {
	return func(c *config) {
		c.refs = append(c.refs, refs...)
	}
}

// WithSelector sets the per-call interceptor selector.
func WithSelector(selector Selector) Option {
	return func(c *config) {
		c.selector = selector
	}
}

// WithMethodFilter sets the generation-time method eligibility predicate.
func WithMethodFilter(filter MethodFilter) Option {
	return func(c *config) {
		c.filter = filter
	}
}

// WithMixin adds a stateful object backing one or more additional contracts.
// Calls on mixin-backed members never reach the remote target; they operate
// on the mixin's own state while still flowing through the same interceptor
// chain.
func WithMixin(mixin any) Option {
	return func(c *config) {
		c.mixins = append(c.mixins, mixin)
	}
}

// WithSafeRelease suppresses disposal when the target's channel is already
// closed or faulted, instead of forwarding it and surfacing a secondary
// invalid-state fault.
func WithSafeRelease() Option {
	return func(c *config) {
		c.safeRelease = true
	}
}

// WithScope supplies the dependency scope used to resolve type-keyed
// interceptor references.
func WithScope(scope *container.Scope) Option {
	return func(c *config) {
		c.scope = scope
	}
}

// WithLogger sets the proxy's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Proxy is the substitute object generated for a remote-call proxy. It owns
// the target, the resolved interceptor chain, and the contract set it can
// bind. Generation is deterministic and performs no I/O; the only blocking
// point at call time is the forwarded call into the target.
type Proxy struct {
	target       contracts.RemoteProxy
	contractType reflect.Type
	additional   []reflect.Type
	chain        []Interceptor
	selector     Selector
	filter       MethodFilter
	mixins       map[reflect.Type]reflect.Value
	safeRelease  bool
	logger       *slog.Logger

	releaseOnce sync.Once
	releaseErr  error
}

// Generate validates the target, resolves the interceptor chain, and builds
// the proxy for the given primary contract type. All the errors it returns
// are generation-time errors; nothing here runs again per call.
func Generate(target any, contractType reflect.Type, options ...Option) (*Proxy, error) {
	cfg := &config{logger: slog.Default()}
	for _, opt := range options {
		opt(cfg)
	}

	if err := validateContractType(contractType); err != nil {
		return nil, err
	}

	mixins, err := matchMixins(cfg.mixins, cfg.additional)
	if err != nil {
		return nil, err
	}

	// Mixin-backed contracts are satisfied locally and need no support from
	// the remote side.
	unbacked := make([]reflect.Type, 0, len(cfg.additional))
	for _, extra := range cfg.additional {
		if _, ok := mixins[extra]; !ok {
			unbacked = append(unbacked, extra)
		}
	}
	if err := ValidateTarget(contractType, target, unbacked); err != nil {
		return nil, err
	}

	chain, err := resolveRefs(cfg.refs, cfg.scope)
	if err != nil {
		return nil, err
	}

	proxy := &Proxy{
		target:       target.(contracts.RemoteProxy),
		contractType: contractType,
		additional:   cfg.additional,
		chain:        chain,
		selector:     cfg.selector,
		filter:       cfg.filter,
		mixins:       mixins,
		safeRelease:  cfg.safeRelease,
		logger:       cfg.logger,
	}

	proxy.logger.Debug("generated proxy",
		"service", proxy.target.ServiceName(),
		"contract", contractType.Elem().Name(),
		"interceptors", len(chain),
		"safeRelease", cfg.safeRelease,
	)
	return proxy, nil
}

// matchMixins assigns each additional contract struct to the first mixin
// whose method set covers every method of the contract with an identical
// signature. Every mixin must back at least one additional contract;
// supplying one that matches nothing is a generation-time error.
func matchMixins(mixins []any, additional []reflect.Type) (map[reflect.Type]reflect.Value, error) {
	matched := make(map[reflect.Type]reflect.Value)
	if len(mixins) == 0 {
		return matched, nil
	}

	for _, mixin := range mixins {
		if mixin == nil {
			return nil, fmt.Errorf("interception: mixin must not be nil")
		}
	}

	used := make([]bool, len(mixins))
	for _, extra := range additional {
		if validateContractType(extra) != nil {
			continue
		}
		for i, mixin := range mixins {
			if backsContract(reflect.ValueOf(mixin), extra) {
				matched[extra] = reflect.ValueOf(mixin)
				used[i] = true
				break
			}
		}
	}

	for i, mixin := range mixins {
		if !used[i] {
			return nil, fmt.Errorf("interception: mixin %T backs none of the additional contracts", mixin)
		}
	}
	return matched, nil
}

// backsContract reports whether the mixin value has a matching method for
// every func field of the contract struct.
func backsContract(mixin reflect.Value, contractType reflect.Type) bool {
	elem := contractType.Elem()
	for i := 0; i < elem.NumField(); i++ {
		f := elem.Field(i)
		if !f.IsExported() || isCloseField(f) {
			continue
		}
		m := mixin.MethodByName(f.Name)
		if !m.IsValid() || m.Type() != f.Type {
			return false
		}
	}
	return true
}

// Target returns the wrapped remote-call proxy.
func (p *Proxy) Target() contracts.RemoteProxy {
	return p.target
}

// Interceptors returns the resolved chain in registration order.
func (p *Proxy) Interceptors() []Interceptor {
	return p.chain
}

// Bind populates the func fields of the given contract struct pointer with
// generated stubs. The contract must be the primary contract or one of the
// additional contract structs requested at generation. Binding is
// deterministic: method eligibility under the MethodFilter is decided here,
// once, and baked into each stub.
func (p *Proxy) Bind(contract any) error {
	t := reflect.TypeOf(contract)
	if !p.binds(t) {
		return fmt.Errorf("interception: contract %v is not part of this proxy's contract set", t)
	}

	elem := reflect.ValueOf(contract).Elem()
	elemType := t.Elem()
	mixin, mixinBacked := p.mixins[t]

	for i := 0; i < elemType.NumField(); i++ {
		f := elemType.Field(i)
		field := elem.Field(i)
		if !f.IsExported() || !field.CanSet() {
			continue
		}
		if isCloseField(f) {
			field.Set(reflect.ValueOf(p.Close))
			continue
		}

		var terminal terminalFunc
		if mixinBacked {
			terminal = mixinTerminal(mixin.MethodByName(f.Name))
		} else {
			terminal = p.remoteTerminal(f.Name)
		}

		eligible := p.filter == nil || p.filter(t, f.Name)
		field.Set(p.makeStub(t, f, terminal, eligible))
	}
	return nil
}

// binds reports whether t belongs to the proxy's contract set.
func (p *Proxy) binds(t reflect.Type) bool {
	if t == p.contractType {
		return true
	}
	for _, extra := range p.additional {
		if t == extra {
			return true
		}
	}
	return false
}

// makeStub builds the per-method dispatch func. Eligible methods enter the
// pipeline; filtered-out methods call the terminal action directly.
func (p *Proxy) makeStub(contractType reflect.Type, f reflect.StructField, terminal terminalFunc, eligible bool) reflect.Value {
	outType := f.Type.Out(0)
	method := f.Name

	return reflect.MakeFunc(f.Type, func(callArgs []reflect.Value) []reflect.Value {
		ctx := callArgs[0].Interface().(context.Context)
		args := make([]any, 0, len(callArgs)-1)
		for _, a := range callArgs[1:] {
			args = append(args, a.Interface())
		}

		inv := &Invocation{
			id:         uuid.NewString(),
			contract:   contractType,
			method:     method,
			args:       args,
			resultType: outType,
			terminal:   terminal,
		}

		var err error
		if eligible {
			inv.chain = p.chain
			if p.selector != nil {
				inv.chain = p.selector(contractType, method, p.chain)
			}
			err = inv.Proceed(ctx)
		} else {
			err = terminal(ctx, inv)
		}

		return stubResults(inv, outType, err)
	})
}

// stubResults converts the invocation outcome back into the method's typed
// return values.
func stubResults(inv *Invocation, outType reflect.Type, err error) []reflect.Value {
	out := reflect.Zero(outType)
	if inv.result != nil {
		rv := reflect.ValueOf(inv.result)
		if rv.Type().AssignableTo(outType) {
			out = rv
		} else if err == nil {
			err = fmt.Errorf("interception: result of type %T is not assignable to %s for %s.%s",
				inv.result, outType, inv.contract.Elem().Name(), inv.method)
		}
	}

	errOut := reflect.Zero(errType)
	if err != nil {
		errOut = reflect.New(errType).Elem()
		errOut.Set(reflect.ValueOf(err))
	}
	return []reflect.Value{out, errOut}
}

// remoteTerminal builds the terminal action that forwards the call to the
// remote target: encode the argument, forward through the target's Caller,
// decode the response into the method's result type.
func (p *Proxy) remoteTerminal(method string) terminalFunc {
	return func(ctx context.Context, inv *Invocation) error {
		var data []byte
		if len(inv.args) == 1 {
			encoded, err := json.Marshal(inv.args[0])
			if err != nil {
				return fmt.Errorf("interception: encode %s argument: %w", method, err)
			}
			data = encoded
		}

		resp, err := p.target.Call(ctx, &contracts.CallRequest{
			Service: p.target.ServiceName(),
			Method:  method,
			Data:    data,
		})
		if err != nil {
			return err
		}

		outPtr := reflect.New(inv.resultType)
		if len(resp.Data) > 0 {
			if err := json.Unmarshal(resp.Data, outPtr.Interface()); err != nil {
				return fmt.Errorf("interception: decode %s response: %w", method, err)
			}
		}
		inv.SetResult(outPtr.Elem().Interface())
		return nil
	}
}

// mixinTerminal builds the terminal action for a mixin-backed method: the
// call operates purely on the mixin's own state and never reaches the remote
// target.
func mixinTerminal(m reflect.Value) terminalFunc {
	mt := m.Type()
	return func(ctx context.Context, inv *Invocation) error {
		in := make([]reflect.Value, 0, len(inv.args)+1)
		in = append(in, reflect.ValueOf(ctx))
		for i, a := range inv.args {
			v := reflect.ValueOf(a)
			if !v.IsValid() {
				// A nil interface argument erases its declared type; restore
				// the parameter type so the call still carries a usable value.
				v = reflect.Zero(mt.In(i + 1))
			}
			in = append(in, v)
		}
		out := m.Call(in)
		if !out[1].IsNil() {
			return out[1].Interface().(error)
		}
		inv.SetResult(out[0].Interface())
		return nil
	}
}
