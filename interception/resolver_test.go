package interception

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrule/intercede-go/container"
)

// auditInterceptor is a scope-resolved interceptor used by resolver and
// binding tests.
type auditInterceptor struct {
	entries []string
}

func (a *auditInterceptor) Intercept(ctx context.Context, inv *Invocation) error {
	a.entries = append(a.entries, inv.Method())
	return inv.Proceed(ctx)
}

func (a *auditInterceptor) Name() string {
	return "AuditInterceptor"
}

func TestResolveRefs_PreservesRegistrationOrder(t *testing.T) {
	scope := container.NewScope()
	require.NoError(t, container.Register(scope, func(*container.Scope) (*auditInterceptor, error) {
		return &auditInterceptor{}, nil
	}))

	first := NewInterceptorFunc("first", func(ctx context.Context, inv *Invocation) error {
		return inv.Proceed(ctx)
	})
	third := NewInterceptorFunc("third", func(ctx context.Context, inv *Invocation) error {
		return inv.Proceed(ctx)
	})

	chain, err := resolveRefs([]Ref{
		Use(first),
		UseType[*auditInterceptor](),
		Use(third),
	}, scope)
	require.NoError(t, err)

	require.Len(t, chain, 3)
	assert.Equal(t, "first", chain[0].Name())
	assert.Equal(t, "AuditInterceptor", chain[1].Name())
	assert.Equal(t, "third", chain[2].Name())
}

func TestResolveRefs_UnresolvedTypeKey(t *testing.T) {
	scope := container.NewScope()

	_, err := resolveRefs([]Ref{UseType[*auditInterceptor]()}, scope)

	var unresolved *UnresolvedInterceptorError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, container.TypeFor[*auditInterceptor](), unresolved.Key)
	assert.Contains(t, err.Error(), "auditInterceptor")
}

func TestResolveRefs_TypeKeyWithoutScope(t *testing.T) {
	_, err := resolveRefs([]Ref{UseType[*auditInterceptor]()}, nil)

	var unresolved *UnresolvedInterceptorError
	require.ErrorAs(t, err, &unresolved)
	assert.ErrorIs(t, err, ErrNoScope)
}

func TestResolveRefs_SingletonInterceptorResolvedOncePerGeneration(t *testing.T) {
	scope := container.NewScope()
	built := 0
	require.NoError(t, container.Register(scope, func(*container.Scope) (*auditInterceptor, error) {
		built++
		return &auditInterceptor{}, nil
	}))

	chainA, err := resolveRefs([]Ref{UseType[*auditInterceptor]()}, scope)
	require.NoError(t, err)
	chainB, err := resolveRefs([]Ref{UseType[*auditInterceptor]()}, scope)
	require.NoError(t, err)

	assert.Equal(t, 1, built)
	assert.Same(t, chainA[0], chainB[0])
}

func TestResolveRefs_TransientInterceptorIsFreshPerGeneration(t *testing.T) {
	scope := container.NewScope()
	require.NoError(t, container.Register(scope, func(*container.Scope) (*auditInterceptor, error) {
		return &auditInterceptor{}, nil
	}, container.AsTransient()))

	chainA, err := resolveRefs([]Ref{UseType[*auditInterceptor]()}, scope)
	require.NoError(t, err)
	chainB, err := resolveRefs([]Ref{UseType[*auditInterceptor]()}, scope)
	require.NoError(t, err)

	assert.NotSame(t, chainA[0], chainB[0])
}
