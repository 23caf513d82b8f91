// Package observability records dispatcher timings through OpenTelemetry
// and exports them on the Prometheus registry.
package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	dispatchCounter  otelmetric.Int64Counter
	dispatchDuration otelmetric.Float64Histogram
}

// New exports to the default Prometheus registerer and installs the
// provider globally.
func New(serviceName string) (*Observability, error) {
	o, err := NewWithRegisterer(serviceName, promclient.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(o.meterProvider)
	return o, nil
}

// NewWithRegisterer exports to reg without touching the global provider.
func NewWithRegisterer(serviceName string, reg promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	counter, err := meter.Int64Counter(
		"dispatch.messages",
		otelmetric.WithDescription("Messages dispatched"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dispatch counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"dispatch.duration",
		otelmetric.WithDescription("Time to classify a message and apply its effect"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dispatch histogram: %w", err)
	}

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		dispatchCounter:  counter,
		dispatchDuration: duration,
	}, nil
}

// RecordDispatch is safe on a nil or zero Observability.
func (o *Observability) RecordDispatch(ctx context.Context, intent, code string, d time.Duration) {
	if o == nil || o.dispatchCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("code", code),
	)
	o.dispatchCounter.Add(ctx, 1, attrs)
	o.dispatchDuration.Record(ctx, float64(d.Microseconds())/1000.0, attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
