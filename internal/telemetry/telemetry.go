// Package telemetry provides OpenTelemetry instrumentation for the
// simulation pipeline: tick/update timings and market order volumes.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
)

const (
	serviceName    = "hegemon"
	serviceVersion = "1.0.0"
	meterName      = "github.com/ironcliff/hegemon"
)

// Metrics bundles the instruments recorded by the simulation core. A nil
// *Metrics is valid and records nothing, so callers never need to branch on
// whether telemetry is enabled.
type Metrics struct {
	ticksTotal     metric.Int64Counter
	tickDuration   metric.Float64Histogram
	updateDuration metric.Float64Histogram
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
	goodsCleared   metric.Int64Counter
}

// NewMetrics creates the instrument set on the provided meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := new(Metrics)
	var err error

	if m.ticksTotal, err = meter.Int64Counter("sim.ticks.total",
		metric.WithDescription("Simulated days advanced")); err != nil {
		return nil, err
	}
	if m.tickDuration, err = meter.Float64Histogram("sim.tick.duration",
		metric.WithDescription("Wall-clock duration of one tick"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.updateDuration, err = meter.Float64Histogram("sim.update.duration",
		metric.WithDescription("Wall-clock duration of one gamestate update"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.ordersPlaced, err = meter.Int64Counter("market.orders.placed",
		metric.WithDescription("Market orders accepted onto good queues")); err != nil {
		return nil, err
	}
	if m.ordersRejected, err = meter.Int64Counter("market.orders.rejected",
		metric.WithDescription("Market orders rejected at submission")); err != nil {
		return nil, err
	}
	if m.goodsCleared, err = meter.Int64Counter("market.goods.cleared",
		metric.WithDescription("Good order books drained by execute-orders")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordTick records one advanced day and its duration.
func (m *Metrics) RecordTick(d time.Duration) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.ticksTotal.Add(ctx, 1)
	m.tickDuration.Record(ctx, float64(d)/float64(time.Millisecond))
}

// RecordUpdate records one gamestate update duration.
func (m *Metrics) RecordUpdate(d time.Duration) {
	if m == nil {
		return
	}
	m.updateDuration.Record(context.Background(), float64(d)/float64(time.Millisecond))
}

// RecordOrder records an accepted or rejected market order submission.
func (m *Metrics) RecordOrder(good string, accepted bool) {
	if m == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("good", good))
	if accepted {
		m.ordersPlaced.Add(ctx, 1, attrs)
	} else {
		m.ordersRejected.Add(ctx, 1, attrs)
	}
}

// RecordClearing records how many good order books were drained.
func (m *Metrics) RecordClearing(goods int) {
	if m == nil {
		return
	}
	m.goodsCleared.Add(context.Background(), int64(goods))
}

// Provider owns an SDK meter provider backed by a manual reader, suitable
// for headless runs that collect on demand rather than exporting.
type Provider struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
}

// NewProvider builds a manual-reader meter provider for the service.
func NewProvider() *Provider {
	reader := sdkmetric.NewManualReader()
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	return &Provider{provider: provider, reader: reader}
}

// Meter returns the service meter.
func (p *Provider) Meter() metric.Meter { return p.provider.Meter(meterName) }

// Collect gathers current metric data.
func (p *Provider) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := p.reader.Collect(ctx, &rm)
	return rm, err
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}
