package interception

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrNotAContract is returned when the service type offered for
	// interception is not a pointer to a contract struct of exported func
	// fields. The check runs before any other validation and before any
	// interceptor is resolved.
	ErrNotAContract = errors.New("interception: service type must be a pointer to a contract struct of func fields")

	// ErrNilTarget is returned when the candidate instance is nil.
	ErrNilTarget = errors.New("interception: target instance must not be nil")

	// ErrNoScope is returned when an interceptor is referenced by type but no
	// dependency scope was supplied to resolve it from.
	ErrNoScope = errors.New("interception: no dependency scope available")
)

// NotRemoteProxyError is returned when the candidate instance does not carry
// the remote-proxy capability and therefore cannot be wrapped.
type NotRemoteProxyError struct {
	// TypeName is the concrete runtime type of the offending instance.
	TypeName string
}

func (e *NotRemoteProxyError) Error() string {
	return fmt.Sprintf("interception: instance of type %s is not a remote-call proxy", e.TypeName)
}

// MissingContractsError is returned when one or more requested additional
// contracts are not backed by the target's remote-proxy machinery. Missing
// holds every unsatisfied contract, not just the first.
type MissingContractsError struct {
	Missing []string
}

func (e *MissingContractsError) Error() string {
	return fmt.Sprintf("interception: remote proxy does not back requested contracts: %s",
		strings.Join(e.Missing, ", "))
}

// UnresolvedInterceptorError is returned when an interceptor referenced by
// type cannot be resolved from the dependency scope.
type UnresolvedInterceptorError struct {
	Key reflect.Type
	Err error
}

func (e *UnresolvedInterceptorError) Error() string {
	return fmt.Sprintf("interception: cannot resolve interceptor %s: %v", e.Key, e.Err)
}

func (e *UnresolvedInterceptorError) Unwrap() error {
	return e.Err
}
