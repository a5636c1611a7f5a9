package interception

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrule/intercede-go/contracts"
)

// counterContract is a mixin-backed contract used by the mixin tests.
type counterContract struct {
	Increment func(ctx context.Context, delta int) (int, error)
	Current   func(ctx context.Context) (int, error)
}

// counterMixin backs counterContract with its own state.
type counterMixin struct {
	total int
}

func (m *counterMixin) Increment(ctx context.Context, delta int) (int, error) {
	m.total += delta
	return m.total, nil
}

func (m *counterMixin) Current(ctx context.Context) (int, error) {
	return m.total, nil
}

// sinkContract takes an interface-typed argument, so its stubs must cope
// with callers passing nil.
type sinkContract struct {
	Put func(ctx context.Context, v any) (bool, error)
}

type sinkMixin struct {
	received []any
}

func (m *sinkMixin) Put(ctx context.Context, v any) (bool, error) {
	m.received = append(m.received, v)
	return v != nil, nil
}

func TestGenerate_ContractShapeCheckedBeforeInterceptorResolution(t *testing.T) {
	// The interceptor reference below could never resolve; the malformed
	// service type must be rejected first.
	target := newFakeProxy("work", workResponder)

	_, err := Generate(target, reflect.TypeOf(new(int)),
		WithInterceptors(UseType[*LoggingInterceptor]()),
	)
	assert.ErrorIs(t, err, ErrNotAContract)
}

func TestGenerate_RejectsNonProxyTarget(t *testing.T) {
	_, err := Generate(&plainObject{}, ContractFor[workClient]())

	var notProxy *NotRemoteProxyError
	require.ErrorAs(t, err, &notProxy)
	assert.Equal(t, "*interception.plainObject", notProxy.TypeName)
}

func TestGenerate_IsDeterministicAndPerformsNoCalls(t *testing.T) {
	target := newFakeProxy("work", workResponder)

	proxy, err := Generate(target, ContractFor[workClient](),
		WithInterceptors(Use(prependInterceptor())),
	)
	require.NoError(t, err)
	assert.Empty(t, target.calls)
	assert.Len(t, proxy.Interceptors(), 1)
	assert.Same(t, target, proxy.Target())
}

func TestProxy_BindRejectsUnknownContract(t *testing.T) {
	target := newFakeProxy("work", workResponder)
	proxy, err := Generate(target, ContractFor[workClient]())
	require.NoError(t, err)

	err = proxy.Bind(&auditContract{})
	assert.ErrorContains(t, err, "not part of this proxy's contract set")
}

func TestProxy_BindCloseField(t *testing.T) {
	type closeableClient struct {
		DoWork func(ctx context.Context) (string, error)
		Close  func() error
	}
	target := newReleasableProxy("work", workResponder)
	proxy, err := Generate(target, ContractFor[closeableClient]())
	require.NoError(t, err)

	client := &closeableClient{}
	require.NoError(t, proxy.Bind(client))

	require.NoError(t, client.Close())
	assert.Equal(t, 1, target.closed)
}

func TestProxy_MixinBackedContract(t *testing.T) {
	target := newFakeProxy("work", workResponder)
	mixin := &counterMixin{}

	proxy, err := Generate(target, ContractFor[workClient](),
		WithContracts(ContractFor[counterContract]()),
		WithMixin(mixin),
	)
	require.NoError(t, err)

	counter := &counterContract{}
	require.NoError(t, proxy.Bind(counter))

	total, err := counter.Increment(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	total, err = counter.Increment(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	current, err := counter.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, current)

	// Mixin calls mutate only the mixin's state and never reach the target.
	assert.Equal(t, 5, mixin.total)
	assert.Empty(t, target.calls)
}

func TestProxy_MixinCallsFlowThroughThePipeline(t *testing.T) {
	var log []string
	target := newFakeProxy("work", workResponder)

	proxy, err := Generate(target, ContractFor[workClient](),
		WithContracts(ContractFor[counterContract]()),
		WithMixin(&counterMixin{}),
		WithInterceptors(Use(recordingInterceptor("observer", &log))),
	)
	require.NoError(t, err)

	counter := &counterContract{}
	require.NoError(t, proxy.Bind(counter))

	_, err = counter.Increment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"before:observer", "after:observer"}, log)
	assert.Empty(t, target.calls)
}

func TestProxy_MixinCallsVisibleToMethodFilter(t *testing.T) {
	var log []string
	target := newFakeProxy("work", workResponder)

	proxy, err := Generate(target, ContractFor[workClient](),
		WithContracts(ContractFor[counterContract]()),
		WithMixin(&counterMixin{}),
		WithInterceptors(Use(recordingInterceptor("observer", &log))),
		WithMethodFilter(func(contract reflect.Type, method string) bool {
			return method == "Current"
		}),
	)
	require.NoError(t, err)

	counter := &counterContract{}
	require.NoError(t, proxy.Bind(counter))

	_, err = counter.Increment(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, log)

	_, err = counter.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"before:observer", "after:observer"}, log)
}

func TestProxy_MixinDoesNotNeedTargetSupport(t *testing.T) {
	// The target does not back counterContract, but the mixin does, so
	// generation succeeds. Without the mixin it must fail.
	target := newFakeProxy("work", workResponder)

	_, err := Generate(target, ContractFor[workClient](),
		WithContracts(ContractFor[counterContract]()),
	)
	var missing *MissingContractsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"counterContract"}, missing.Missing)

	_, err = Generate(target, ContractFor[workClient](),
		WithContracts(ContractFor[counterContract]()),
		WithMixin(&counterMixin{}),
	)
	assert.NoError(t, err)
}

func TestProxy_MixinReceivesNilInterfaceArgument(t *testing.T) {
	target := newFakeProxy("work", workResponder)
	mixin := &sinkMixin{}

	proxy, err := Generate(target, ContractFor[workClient](),
		WithContracts(ContractFor[sinkContract]()),
		WithMixin(mixin),
	)
	require.NoError(t, err)

	sink := &sinkContract{}
	require.NoError(t, proxy.Bind(sink))

	stored, err := sink.Put(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, stored)

	stored, err = sink.Put(context.Background(), "payload")
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, []any{nil, "payload"}, mixin.received)
}

func TestProxy_RemoteCallWithNilInterfaceArgument(t *testing.T) {
	type storeClient struct {
		Put func(ctx context.Context, v any) (bool, error)
	}
	var payload string
	target := newFakeProxy("store", func(req *contracts.CallRequest) (any, error) {
		payload = string(req.Data)
		return true, nil
	})

	proxy, err := Generate(target, ContractFor[storeClient]())
	require.NoError(t, err)

	store := &storeClient{}
	require.NoError(t, proxy.Bind(store))

	stored, err := store.Put(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, "null", payload)
}

func TestGenerate_RejectsNilMixin(t *testing.T) {
	target := newFakeProxy("work", workResponder)

	_, err := Generate(target, ContractFor[workClient](), WithMixin(nil))
	assert.ErrorContains(t, err, "mixin must not be nil")
}

func TestGenerate_RejectsMixinBackingNoContract(t *testing.T) {
	target := newFakeProxy("work", workResponder)

	_, err := Generate(target, ContractFor[workClient](), WithMixin(&counterMixin{}))
	assert.ErrorContains(t, err, "backs none of the additional contracts")
}

func TestProxy_BindAdditionalContractBackedByTarget(t *testing.T) {
	target := newFakeProxy("work", func(req *contracts.CallRequest) (any, error) {
		if req.Method == "Ping" {
			return "pong", nil
		}
		return workResponder(req)
	})
	target.supported[ContractFor[lifecycleContract]()] = true

	proxy, err := Generate(target, ContractFor[workClient](),
		WithContracts(ContractFor[lifecycleContract]()),
	)
	require.NoError(t, err)

	lifecycle := &lifecycleContract{}
	require.NoError(t, proxy.Bind(lifecycle))

	pong, err := lifecycle.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", pong)
	assert.Equal(t, []string{"Ping"}, target.calls)
}
