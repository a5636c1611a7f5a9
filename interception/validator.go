package interception

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ferrule/intercede-go/contracts"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// isCloseField reports whether a struct field is the disposal-shaped member
// of a contract. It binds to the proxy's release path, never to the pipeline.
func isCloseField(f reflect.StructField) bool {
	return f.Name == "Close" &&
		f.Type.Kind() == reflect.Func &&
		f.Type.NumIn() == 0 &&
		f.Type.NumOut() == 1 &&
		f.Type.Out(0) == errType
}

// validateContractType checks that t is a pointer to a struct whose exported
// fields are funcs of shape func(ctx) (R, error) or func(ctx, in) (R, error),
// optionally plus a Close func() error field.
func validateContractType(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: got %v", ErrNotAContract, t)
	}

	elem := t.Elem()
	methods := 0
	for i := 0; i < elem.NumField(); i++ {
		f := elem.Field(i)
		if !f.IsExported() {
			continue
		}
		if isCloseField(f) {
			continue
		}
		if f.Type.Kind() != reflect.Func {
			return fmt.Errorf("%w: field %s.%s is not a func", ErrNotAContract, elem.Name(), f.Name)
		}
		ft := f.Type
		if ft.NumIn() < 1 || ft.NumIn() > 2 || ft.In(0) != ctxType {
			return fmt.Errorf("%w: method %s.%s must take a context.Context and at most one argument",
				ErrNotAContract, elem.Name(), f.Name)
		}
		if ft.NumOut() != 2 || ft.Out(1) != errType {
			return fmt.Errorf("%w: method %s.%s must return a result and an error",
				ErrNotAContract, elem.Name(), f.Name)
		}
		methods++
	}
	if methods == 0 {
		return fmt.Errorf("%w: %s declares no methods", ErrNotAContract, elem.Name())
	}
	return nil
}

// ValidateTarget checks that instance may be wrapped for contractType with
// the given additional contracts. It is a pure check with no side effects.
//
// The contract-shape check runs first, so a malformed service type is
// rejected before the instance is inspected at all. Additional contracts may
// be further contract struct types (the remote side must back them) or plain
// Go interface types (the instance itself must satisfy them); every
// unsatisfied entry is reported, not just the first.
func ValidateTarget(contractType reflect.Type, instance any, additional []reflect.Type) error {
	if err := validateContractType(contractType); err != nil {
		return err
	}
	if instance == nil {
		return ErrNilTarget
	}

	proxy, ok := instance.(contracts.RemoteProxy)
	if !ok {
		return &NotRemoteProxyError{TypeName: fmt.Sprintf("%T", instance)}
	}

	var missing []string
	seen := make(map[reflect.Type]bool)
	for _, extra := range additional {
		if extra == nil || seen[extra] {
			continue
		}
		seen[extra] = true

		switch {
		case extra.Kind() == reflect.Interface:
			if !reflect.TypeOf(instance).Implements(extra) {
				missing = append(missing, extra.String())
			}
		case validateContractType(extra) == nil:
			if !proxy.SupportsContract(extra) {
				missing = append(missing, extra.Elem().Name())
			}
		default:
			missing = append(missing, extra.String())
		}
	}
	if len(missing) > 0 {
		return &MissingContractsError{Missing: missing}
	}
	return nil
}
