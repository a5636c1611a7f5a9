package opentelemetry

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

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

func bindWithTracing(t *testing.T, target *stubProxy) *pingClient {
	t.Helper()

	builder := &InterceptorBuilder{Tracer: noop.NewTracerProvider().Tracer("test")}
	proxy, err := interception.Generate(target, interception.ContractFor[pingClient](),
		interception.WithInterceptors(interception.Use(builder.Build())),
	)
	require.NoError(t, err)

	client := &pingClient{}
	require.NoError(t, proxy.Bind(client))
	return client
}

func TestTracingInterceptor_PassesResultsThrough(t *testing.T) {
	client := bindWithTracing(t, &stubProxy{})

	result, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}

func TestTracingInterceptor_PropagatesFaultsUnchanged(t *testing.T) {
	boom := errors.New("broker gone")
	client := bindWithTracing(t, &stubProxy{err: boom})

	_, err := client.Ping(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestTracingInterceptor_Name(t *testing.T) {
	builder := &InterceptorBuilder{}
	assert.Equal(t, "TracingInterceptor", builder.Build().Name())
}
