package interception

import (
	"fmt"
	"reflect"

	"github.com/ferrule/intercede-go/container"
	"github.com/ferrule/intercede-go/contracts"
)

// Binding packages validation, interceptor resolution, and proxy generation
// as a container activation hook, so registration code can attach
// interception to a contract registration declaratively.
type Binding struct {
	options []Option
}

// NewBinding creates a binding with the given generation options. The
// resolving scope is supplied by the hook at activation time.
func NewBinding(options ...Option) *Binding {
	return &Binding{options: options}
}

// Hook returns the activation hook for the given contract type. It runs
// after the registration's provider produces the remote-call proxy and
// substitutes the bound contract struct for it. Generation-time errors abort
// the resolution that triggered them.
func (b *Binding) Hook(contractType reflect.Type) container.ActivationHook {
	return func(scope *container.Scope, serviceType reflect.Type, instance any) (any, error) {
		if serviceType != contractType {
			return nil, fmt.Errorf("interception: binding for %v activated for %v", contractType, serviceType)
		}

		options := make([]Option, 0, len(b.options)+1)
		options = append(options, b.options...)
		options = append(options, WithScope(scope))

		proxy, err := Generate(instance, contractType, options...)
		if err != nil {
			return nil, err
		}

		bound := reflect.New(contractType.Elem()).Interface()
		if err := proxy.Bind(bound); err != nil {
			return nil, err
		}
		return bound, nil
	}
}

// Attach registers a remote-call proxy provider for contract T and wires the
// interception binding into its activation, so resolving *T from the scope
// yields the fully bound contract. The registration is a singleton: the
// proxy is generated once per scope.
func Attach[T any](s *container.Scope, provider func(*container.Scope) (contracts.RemoteProxy, error), options ...Option) error {
	contractType := ContractFor[T]()
	return s.Register(contractType,
		func(scope *container.Scope) (any, error) {
			return provider(scope)
		},
		container.AsSingleton(),
		container.WithActivation(NewBinding(options...).Hook(contractType)),
	)
}
