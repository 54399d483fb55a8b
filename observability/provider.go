// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider selects which OpenTelemetry exporter backs an OTel-based
// Recorder, mirroring the teacher's MetricsProvider enum (Prometheus/OTLP/
// Stdout) in router/metrics_providers.go.
type Provider int

const (
	ProviderPrometheus Provider = iota
	ProviderOTLP
	ProviderStdout
)

// OTelConfig configures NewOTel.
type OTelConfig struct {
	ServiceName  string
	Provider     Provider
	OTLPEndpoint string // only used when Provider == ProviderOTLP
	Logger       *slog.Logger
}

// otelRecorder implements Recorder on top of an OpenTelemetry meter and
// tracer, generalizing the route/status-code metrics the teacher's
// router/metrics.go records for plain HTTP to route/kind/phase metrics that
// also cover sse and ws dispatch.
type otelRecorder struct {
	tracer trace.Tracer
	logger *slog.Logger

	requests  metric.Int64Counter
	durations metric.Float64Histogram
	phases    metric.Int64Counter

	// metricsHandler serves the /metrics scrape endpoint when Provider is
	// ProviderPrometheus; nil for the OTLP and Stdout providers.
	metricsHandler http.Handler
}

// MetricsHandler returns the Prometheus scrape endpoint handler, non-nil
// only when the Recorder was built with Provider == ProviderPrometheus.
// Mount it on an adapter's own mux at "/metrics", matching the teacher's
// router.Router.prometheusHandler (router/metrics_providers.go).
func MetricsHandler(rec Recorder) http.Handler {
	r, ok := rec.(*otelRecorder)
	if !ok {
		return nil
	}
	return r.metricsHandler
}

type requestState struct {
	span  trace.Span
	start time.Time
}

// NewOTel builds an OpenTelemetry-backed Recorder. Callers own the lifetime
// of the underlying MeterProvider/TracerProvider (constructed here) and
// should invoke the returned shutdown func when the bridge stops serving.
func NewOTel(cfg OTelConfig) (Recorder, func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "bridge"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	meterProvider, meterShutdown, metricsHandler, err := buildMeterProvider(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("observability: build meter provider: %w", err)
	}

	traceExporter, err := stdouttrace.New()
	if err != nil {
		return nil, nil, fmt.Errorf("observability: build trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))

	meter := meterProvider.Meter(cfg.ServiceName)
	tracer := tracerProvider.Tracer(cfg.ServiceName)

	requests, err := meter.Int64Counter("bridge.requests",
		metric.WithDescription("Number of dispatched requests by route, kind, and outcome."))
	if err != nil {
		return nil, nil, err
	}
	durations, err := meter.Float64Histogram("bridge.request.duration",
		metric.WithDescription("Request dispatch duration in seconds."), metric.WithUnit("s"))
	if err != nil {
		return nil, nil, err
	}
	phases, err := meter.Int64Counter("bridge.hook.phase",
		metric.WithDescription("Hook phase executions by route, phase, and outcome."))
	if err != nil {
		return nil, nil, err
	}

	rec := &otelRecorder{
		tracer:         tracer,
		logger:         cfg.Logger,
		requests:       requests,
		durations:      durations,
		phases:         phases,
		metricsHandler: metricsHandler,
	}

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterShutdown(ctx)
	}

	return rec, shutdown, nil
}

func buildMeterProvider(cfg OTelConfig) (metric.MeterProvider, func(context.Context) error, http.Handler, error) {
	switch cfg.Provider {
	case ProviderOTLP:
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4318"
		}
		exp, err := otlpmetrichttp.New(context.Background(), otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, nil, nil, err
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		return mp, mp.Shutdown, nil, nil
	case ProviderStdout:
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, nil, err
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		return mp, mp.Shutdown, nil, nil
	default: // ProviderPrometheus
		registry := promclient.NewRegistry()
		exp, err := otelprometheus.New(otelprometheus.WithRegisterer(registry))
		if err != nil {
			return nil, nil, nil, err
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
		handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		return mp, mp.Shutdown, handler, nil
	}
}

func (r *otelRecorder) OnRequestStart(ctx context.Context, info RequestInfo) (context.Context, any) {
	spanCtx, span := r.tracer.Start(ctx, info.Route)
	span.SetAttributes(
		attribute.String("bridge.route", info.Route),
		attribute.String("bridge.kind", info.Kind),
		attribute.String("bridge.method", info.Method),
	)
	return spanCtx, &requestState{span: span, start: time.Now()}
}

func (r *otelRecorder) OnRequestEnd(ctx context.Context, state any, info RequestInfo, status int, err error) {
	st, _ := state.(*requestState)
	if st == nil {
		return
	}
	defer st.span.End()

	outcome := "success"
	if err != nil {
		outcome = "failure"
		st.span.RecordError(err)
	}
	attrs := metric.WithAttributes(
		attribute.String("route", info.Route),
		attribute.String("kind", info.Kind),
		attribute.String("outcome", outcome),
	)
	r.requests.Add(ctx, 1, attrs)
	r.durations.Record(ctx, time.Since(st.start).Seconds(), attrs)
}

func (r *otelRecorder) OnHookPhase(ctx context.Context, info RequestInfo, phase string, outcome string) {
	r.phases.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", info.Route),
		attribute.String("phase", phase),
		attribute.String("outcome", outcome),
	))
}

func (r *otelRecorder) Logger(ctx context.Context, state any) *slog.Logger {
	st, _ := state.(*requestState)
	if st == nil {
		return r.logger
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	return r.logger.With("trace_id", spanCtx.TraceID().String(), "span_id", spanCtx.SpanID().String())
}
