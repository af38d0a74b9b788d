package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/open-feature/flagtmpl/pkg/service"

type metrics struct {
	evaluations metric.Int64Counter
}

func newMetrics(provider metric.MeterProvider) (*metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	evaluations, err := provider.Meter(meterName).Int64Counter(
		"flagtmpl.evaluations",
		metric.WithDescription("Number of flag evaluations served"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, err
	}
	return &metrics{evaluations: evaluations}, nil
}

func (m *metrics) record(ctx context.Context, kind string, outcome string) {
	m.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}
