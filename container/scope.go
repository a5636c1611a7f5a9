package container

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Lifetime defines the lifetime and sharing behavior of a registration.
type Lifetime string

const (
	// Singleton shares a single instance per scope.
	Singleton Lifetime = "singleton"
	// Transient creates a new instance for each resolution.
	Transient Lifetime = "transient"
)

// Provider constructs an instance within a scope.
type Provider func(s *Scope) (any, error)

// ActivationHook runs after an instance is produced but before it is returned
// to the consumer. A hook may return a replacement instance; returning the
// input unchanged is a no-op. Hooks run in registration order, each seeing
// the previous hook's output.
type ActivationHook func(s *Scope, serviceType reflect.Type, instance any) (any, error)

type registration struct {
	provider Provider
	lifetime Lifetime
	hooks    []ActivationHook

	// buildMu serializes the singleton build so the provider and its
	// activation hooks run at most once even under concurrent resolution.
	buildMu  sync.Mutex
	built    bool
	instance any
}

// Scope holds typed registrations and resolved singleton instances. Child
// scopes inherit registrations from their parent; singletons are memoized in
// the scope that resolves them first.
type Scope struct {
	mu            sync.Mutex
	registrations map[reflect.Type]*registration
	parent        *Scope
	logger        *slog.Logger
}

// ScopeOption configures a scope.
type ScopeOption func(*Scope)

// WithScopeLogger sets the logger used for resolution diagnostics.
func WithScopeLogger(logger *slog.Logger) ScopeOption {
	return func(s *Scope) {
		s.logger = logger
	}
}

// NewScope creates a new root scope.
func NewScope(options ...ScopeOption) *Scope {
	s := &Scope{
		registrations: make(map[reflect.Type]*registration),
		logger:        slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Child creates a scope that inherits this scope's registrations. New
// registrations on the child do not leak into the parent.
func (s *Scope) Child() *Scope {
	return &Scope{
		registrations: make(map[reflect.Type]*registration),
		parent:        s,
		logger:        s.logger,
	}
}

// RegisterOption configures a single registration.
type RegisterOption func(*registration)

// AsSingleton memoizes the instance per scope. This is the default.
func AsSingleton() RegisterOption {
	return func(r *registration) {
		r.lifetime = Singleton
	}
}

// AsTransient creates a fresh instance on every resolution.
func AsTransient() RegisterOption {
	return func(r *registration) {
		r.lifetime = Transient
	}
}

// WithActivation appends activation hooks to the registration.
func WithActivation(hooks ...ActivationHook) RegisterOption {
	return func(r *registration) {
		r.hooks = append(r.hooks, hooks...)
	}
}

// Register binds a provider to a type key.
func (s *Scope) Register(key reflect.Type, provider Provider, options ...RegisterOption) error {
	if key == nil {
		return ErrNilKey
	}
	if provider == nil {
		return ErrNilProvider
	}

	reg := &registration{
		provider: provider,
		lifetime: Singleton,
	}
	for _, opt := range options {
		opt(reg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[key] = reg
	return nil
}

// Resolve produces an instance for the given type key, running any
// activation hooks attached to its registration. Singleton instances are
// memoized after their first resolution, so hooks run once per scope for
// singletons and once per call for transients.
func (s *Scope) Resolve(key reflect.Type) (any, error) {
	if key == nil {
		return nil, ErrNilKey
	}

	owner, reg := s.lookup(key)
	if reg == nil {
		return nil, &NotRegisteredError{Key: key}
	}

	if reg.lifetime == Singleton {
		owner.mu.Lock()
		if reg.built {
			instance := reg.instance
			owner.mu.Unlock()
			return instance, nil
		}
		owner.mu.Unlock()

		// A concurrent resolver may already be building this instance; wait
		// for it rather than building a duplicate that would be discarded
		// (and, for providers that open connections, leaked).
		reg.buildMu.Lock()
		defer reg.buildMu.Unlock()

		owner.mu.Lock()
		if reg.built {
			instance := reg.instance
			owner.mu.Unlock()
			return instance, nil
		}
		owner.mu.Unlock()
	}

	// The provider may resolve further dependencies from this scope, so the
	// scope lock cannot be held across it.
	instance, err := reg.provider(s)
	if err != nil {
		return nil, fmt.Errorf("container: provider for %s failed: %w", key, err)
	}

	for _, hook := range reg.hooks {
		instance, err = hook(s, key, instance)
		if err != nil {
			return nil, err
		}
	}

	if reg.lifetime == Singleton {
		owner.mu.Lock()
		reg.built = true
		reg.instance = instance
		owner.mu.Unlock()
	}

	s.logger.Debug("resolved instance",
		"type", key.String(),
		"lifetime", string(reg.lifetime),
	)
	return instance, nil
}

// lookup walks the scope chain for a registration.
func (s *Scope) lookup(key reflect.Type) (*Scope, *registration) {
	for scope := s; scope != nil; scope = scope.parent {
		scope.mu.Lock()
		reg, ok := scope.registrations[key]
		scope.mu.Unlock()
		if ok {
			return scope, reg
		}
	}
	return nil, nil
}

// TypeFor returns the reflect.Type key for T.
func TypeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register binds a typed provider to T.
func Register[T any](s *Scope, provider func(*Scope) (T, error), options ...RegisterOption) error {
	return s.Register(TypeFor[T](), func(scope *Scope) (any, error) {
		return provider(scope)
	}, options...)
}

// Resolve resolves T from the scope.
func Resolve[T any](s *Scope) (T, error) {
	var zero T
	instance, err := s.Resolve(TypeFor[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: registration for %s produced %T", TypeFor[T](), instance)
	}
	return typed, nil
}
