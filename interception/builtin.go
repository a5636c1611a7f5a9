package interception

import (
	"context"
	"log/slog"
	"time"
)

// Built-in interceptors covering the common cross-cutting behaviors attached
// to remote-call proxies: logging, fallback responses, response
// post-processing, and short-circuiting.

// LoggingInterceptor logs every invocation with its outcome and duration.
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor.
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{logger: logger}
}

// Intercept implements Interceptor.
func (i *LoggingInterceptor) Intercept(ctx context.Context, inv *Invocation) error {
	start := time.Now()

	i.logger.Info("invoking",
		"invocationId", inv.ID(),
		"contract", inv.Contract().Elem().Name(),
		"method", inv.Method(),
	)

	err := inv.Proceed(ctx)
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("invocation failed",
			"invocationId", inv.ID(),
			"method", inv.Method(),
			"duration", duration,
			"error", err,
		)
	} else {
		i.logger.Info("invocation completed",
			"invocationId", inv.ID(),
			"method", inv.Method(),
			"duration", duration,
		)
	}
	return err
}

// Name implements Interceptor.
func (i *LoggingInterceptor) Name() string {
	return "LoggingInterceptor"
}

// FallbackFunc decides whether a failed invocation gets a substitute result.
// Returning true swallows the fault and delivers the value instead.
type FallbackFunc func(ctx context.Context, inv *Invocation, err error) (any, bool)

// FallbackInterceptor substitutes a local result when the downstream call
// fails, instead of propagating the fault.
type FallbackInterceptor struct {
	fallback FallbackFunc
}

// NewFallbackInterceptor creates a new fallback interceptor.
func NewFallbackInterceptor(fallback FallbackFunc) *FallbackInterceptor {
	return &FallbackInterceptor{fallback: fallback}
}

// Intercept implements Interceptor.
func (i *FallbackInterceptor) Intercept(ctx context.Context, inv *Invocation) error {
	err := inv.Proceed(ctx)
	if err == nil {
		return nil
	}
	if value, ok := i.fallback(ctx, inv, err); ok {
		inv.SetResult(value)
		return nil
	}
	return err
}

// Name implements Interceptor.
func (i *FallbackInterceptor) Name() string {
	return "FallbackInterceptor"
}

// ShortCircuitEvaluator decides whether an invocation can be answered
// locally, without proceeding down the chain or reaching the target.
type ShortCircuitEvaluator interface {
	// ShouldShortCircuit returns true and the local result when the chain
	// should stop here.
	ShouldShortCircuit(ctx context.Context, inv *Invocation) (bool, any, error)
}

// ShortCircuitEvaluatorFunc is a function adapter for ShortCircuitEvaluator.
type ShortCircuitEvaluatorFunc func(ctx context.Context, inv *Invocation) (bool, any, error)

// ShouldShortCircuit implements ShortCircuitEvaluator.
func (f ShortCircuitEvaluatorFunc) ShouldShortCircuit(ctx context.Context, inv *Invocation) (bool, any, error) {
	return f(ctx, inv)
}

// ShortCircuitInterceptor ends the chain early with a locally produced
// result when its evaluator says so.
type ShortCircuitInterceptor struct {
	evaluator ShortCircuitEvaluator
}

// NewShortCircuitInterceptor creates a new short-circuit interceptor.
func NewShortCircuitInterceptor(evaluator ShortCircuitEvaluator) *ShortCircuitInterceptor {
	return &ShortCircuitInterceptor{evaluator: evaluator}
}

// Intercept implements Interceptor.
func (i *ShortCircuitInterceptor) Intercept(ctx context.Context, inv *Invocation) error {
	stop, result, err := i.evaluator.ShouldShortCircuit(ctx, inv)
	if err != nil {
		return err
	}
	if stop {
		inv.SetResult(result)
		return nil
	}
	return inv.Proceed(ctx)
}

// Name implements Interceptor.
func (i *ShortCircuitInterceptor) Name() string {
	return "ShortCircuitInterceptor"
}

// PostProcessInterceptor proceeds, then rewrites the result on the way back
// out.
type PostProcessInterceptor struct {
	name      string
	transform func(result any) (any, error)
}

// NewPostProcessInterceptor creates a new post-processing interceptor.
func NewPostProcessInterceptor(name string, transform func(result any) (any, error)) *PostProcessInterceptor {
	return &PostProcessInterceptor{name: name, transform: transform}
}

// Intercept implements Interceptor.
func (i *PostProcessInterceptor) Intercept(ctx context.Context, inv *Invocation) error {
	if err := inv.Proceed(ctx); err != nil {
		return err
	}
	result, err := i.transform(inv.Result())
	if err != nil {
		return err
	}
	inv.SetResult(result)
	return nil
}

// Name implements Interceptor.
func (i *PostProcessInterceptor) Name() string {
	return i.name
}
