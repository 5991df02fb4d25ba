// Package metrics records purchase outcomes with OpenTelemetry and exposes
// them in Prometheus format.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/cimillas/concert-ticketing"

// Recorder implements app.PurchaseRecorder.
type Recorder struct {
	purchases        metric.Int64Counter
	purchaseDuration metric.Float64Histogram
}

// NewRecorder creates the purchase instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	purchases, err := meter.Int64Counter(
		"ticket_purchases_total",
		metric.WithDescription("Purchase attempts by event and outcome"),
	)
	if err != nil {
		return nil, err
	}

	purchaseDuration, err := meter.Float64Histogram(
		"ticket_purchase_duration_seconds",
		metric.WithDescription("Purchase processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		purchases:        purchases,
		purchaseDuration: purchaseDuration,
	}, nil
}

func (r *Recorder) RecordPurchase(ctx context.Context, concert string, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event", concert),
		attribute.String("outcome", outcome),
	)
	r.purchases.Add(ctx, 1, attrs)
	r.purchaseDuration.Record(ctx, d.Seconds(), attrs)
}

// Provider bundles the meter provider with its scrape handler.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	handler       http.Handler
}

// Setup wires a Prometheus exporter into a fresh registry.
func Setup() (*Provider, error) {
	registry := promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return &Provider{
		meterProvider: mp,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

func (p *Provider) Meter() metric.Meter {
	return p.meterProvider.Meter(meterName)
}

// Handler serves the Prometheus scrape endpoint.
func (p *Provider) Handler() http.Handler {
	return p.handler
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.meterProvider.Shutdown(ctx)
}
