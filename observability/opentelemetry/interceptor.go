// Package opentelemetry provides a tracing interceptor wrapping every
// proxied invocation in a client-kind span.
package opentelemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ferrule/intercede-go/interception"
)

const tracerName = "github.com/ferrule/intercede-go/observability/opentelemetry"

// InterceptorBuilder builds the tracing interceptor.
type InterceptorBuilder struct {
	// Tracer defaults to the global tracer provider's tracer.
	Tracer trace.Tracer
}

type tracingInterceptor struct {
	tracer trace.Tracer
}

// Build returns the interceptor.
func (b *InterceptorBuilder) Build() interception.Interceptor {
	tracer := b.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &tracingInterceptor{tracer: tracer}
}

// Intercept implements interception.Interceptor.
func (i *tracingInterceptor) Intercept(ctx context.Context, inv *interception.Invocation) error {
	name := fmt.Sprintf("%s/%s", inv.Contract().Elem().Name(), inv.Method())
	ctx, span := i.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.method", inv.Method()),
			attribute.String("rpc.invocation_id", inv.ID()),
		),
	)
	defer span.End()

	err := inv.Proceed(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "invocation failed")
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// Name implements interception.Interceptor.
func (i *tracingInterceptor) Name() string {
	return "TracingInterceptor"
}
