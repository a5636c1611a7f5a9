package container

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNilProvider is returned when a registration is attempted with a nil
	// provider function.
	ErrNilProvider = errors.New("container: provider must not be nil")

	// ErrNilKey is returned when a registration or resolution uses a nil type key.
	ErrNilKey = errors.New("container: type key must not be nil")
)

// NotRegisteredError is returned when no provider exists for a requested type.
type NotRegisteredError struct {
	Key reflect.Type
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("container: no registration for type %s", e.Key)
}
