package interception

import (
	"fmt"
	"reflect"

	"github.com/ferrule/intercede-go/container"
)

// Ref identifies one interceptor in a chain specification: either a ready
// instance, or a type key resolved from the dependency scope when the proxy
// is generated.
type Ref struct {
	instance Interceptor
	key      reflect.Type
}

// Use references a ready interceptor instance.
func Use(i Interceptor) Ref {
	return Ref{instance: i}
}

// UseType references an interceptor to be resolved from the scope by type.
func UseType[T Interceptor]() Ref {
	return Ref{key: container.TypeFor[T]()}
}

// String returns the identifier for diagnostics.
func (r Ref) String() string {
	if r.instance != nil {
		return r.instance.Name()
	}
	if r.key != nil {
		return r.key.String()
	}
	return "<empty>"
}

// resolveRefs turns the ordered interceptor references into instances.
// Registration order is preserved. Type-keyed references are resolved once,
// at proxy generation time; repeated calls on the generated proxy reuse the
// same instances unless the scope's own lifetime rules produce fresh ones.
func resolveRefs(refs []Ref, scope *container.Scope) ([]Interceptor, error) {
	chain := make([]Interceptor, 0, len(refs))
	for _, ref := range refs {
		if ref.instance != nil {
			chain = append(chain, ref.instance)
			continue
		}
		if ref.key == nil {
			return nil, &UnresolvedInterceptorError{Err: fmt.Errorf("empty interceptor reference")}
		}
		if scope == nil {
			return nil, &UnresolvedInterceptorError{Key: ref.key, Err: ErrNoScope}
		}
		instance, err := scope.Resolve(ref.key)
		if err != nil {
			return nil, &UnresolvedInterceptorError{Key: ref.key, Err: err}
		}
		interceptor, ok := instance.(Interceptor)
		if !ok {
			return nil, &UnresolvedInterceptorError{
				Key: ref.key,
				Err: fmt.Errorf("resolved %T does not implement Interceptor", instance),
			}
		}
		chain = append(chain, interceptor)
	}
	return chain, nil
}
