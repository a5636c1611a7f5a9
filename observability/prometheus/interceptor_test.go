package prometheus

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrule/intercede-go/contracts"
	"github.com/ferrule/intercede-go/interception"
)

type pingClient struct {
	Ping func(ctx context.Context) (string, error)
}

type stubProxy struct {
	err error
}

func (s *stubProxy) Call(ctx context.Context, req *contracts.CallRequest) (*contracts.CallResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, _ := json.Marshal("pong")
	return &contracts.CallResponse{Data: data}, nil
}

func (s *stubProxy) ServiceName() string                  { return "ping" }
func (s *stubProxy) SupportsContract(t reflect.Type) bool { return false }

func bindWithMetrics(t *testing.T, target *stubProxy, registry *prometheus.Registry) *pingClient {
	t.Helper()

	builder := &InterceptorBuilder{
		Namespace:  "intercede",
		Subsystem:  "rpc",
		Registerer: registry,
	}
	metrics, err := builder.Build()
	require.NoError(t, err)

	proxy, err := interception.Generate(target, interception.ContractFor[pingClient](),
		interception.WithInterceptors(interception.Use(metrics)),
	)
	require.NoError(t, err)

	client := &pingClient{}
	require.NoError(t, proxy.Bind(client))
	return client
}

func gathered(t *testing.T, registry *prometheus.Registry) map[string]int {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	counts := make(map[string]int)
	for _, family := range families {
		counts[family.GetName()] = len(family.GetMetric())
	}
	return counts
}

func TestMetricsInterceptor_ObservesSuccessfulCalls(t *testing.T) {
	registry := prometheus.NewRegistry()
	client := bindWithMetrics(t, &stubProxy{}, registry)

	result, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	counts := gathered(t, registry)
	assert.Equal(t, 1, counts["intercede_rpc_invocation_duration_ms"])
	assert.Equal(t, 1, counts["intercede_rpc_invocations_active"])
	assert.Zero(t, counts["intercede_rpc_invocation_failures_total"])
}

func TestMetricsInterceptor_CountsFailuresWithoutAlteringThem(t *testing.T) {
	registry := prometheus.NewRegistry()
	boom := errors.New("broker gone")
	client := bindWithMetrics(t, &stubProxy{err: boom}, registry)

	_, err := client.Ping(context.Background())
	assert.ErrorIs(t, err, boom)

	counts := gathered(t, registry)
	assert.Equal(t, 1, counts["intercede_rpc_invocation_failures_total"])
}

func TestInterceptorBuilder_DuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	builder := &InterceptorBuilder{Registerer: registry}

	_, err := builder.Build()
	require.NoError(t, err)
	_, err = builder.Build()
	assert.Error(t, err)
}
