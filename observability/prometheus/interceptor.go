// Package prometheus provides a Prometheus-backed interceptor observing
// invocation durations, failures, and in-flight calls on a generated proxy.
package prometheus

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ferrule/intercede-go/interception"
)

// InterceptorBuilder builds the metrics interceptor. Namespace and Subsystem
// follow the usual Prometheus naming conventions.
type InterceptorBuilder struct {
	Namespace string
	Subsystem string

	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

type metricsInterceptor struct {
	durations *prometheus.SummaryVec
	failures  *prometheus.CounterVec
	active    *prometheus.GaugeVec
}

// Build registers the collectors and returns the interceptor.
func (b *InterceptorBuilder) Build() (interception.Interceptor, error) {
	registerer := b.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	i := &metricsInterceptor{
		durations: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "invocation_duration_ms",
			Help:      "Duration of proxied invocations in milliseconds.",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.99: 0.001,
			},
		}, []string{"contract", "method", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "invocation_failures_total",
			Help:      "Total failed proxied invocations.",
		}, []string{"contract", "method"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "invocations_active",
			Help:      "In-flight proxied invocations.",
		}, []string{"contract", "method"}),
	}

	for _, collector := range []prometheus.Collector{i.durations, i.failures, i.active} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// Intercept implements interception.Interceptor.
func (i *metricsInterceptor) Intercept(ctx context.Context, inv *interception.Invocation) error {
	contract := inv.Contract().Elem().Name()
	method := inv.Method()

	active := i.active.WithLabelValues(contract, method)
	active.Inc()
	start := time.Now()

	err := inv.Proceed(ctx)

	active.Dec()
	duration := float64(time.Since(start).Milliseconds())
	if err != nil {
		i.failures.WithLabelValues(contract, method).Inc()
		i.durations.WithLabelValues(contract, method, "error").Observe(duration)
	} else {
		i.durations.WithLabelValues(contract, method, "ok").Observe(duration)
	}
	return err
}

// Name implements interception.Interceptor.
func (i *metricsInterceptor) Name() string {
	return "PrometheusInterceptor"
}
