package repositories

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/forsage-shop/pos/internal/repositories"

type storeMetrics struct {
	latency metric.Float64Histogram
	corrupt metric.Int64Counter
}

func newStoreMetrics(logger *zap.Logger) storeMetrics {
	meter := otel.GetMeterProvider().Meter(meterName)
	var m storeMetrics
	var err error
	m.latency, err = meter.Float64Histogram("pos.storage.latency",
		metric.WithDescription("Latency of collection load and save operations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		logger.Warn("storage metrics: latency histogram registration failed", zap.Error(err))
	}
	m.corrupt, err = meter.Int64Counter("pos.storage.corrupt",
		metric.WithDescription("Collections that failed to decode and were reset to empty"),
	)
	if err != nil {
		logger.Warn("storage metrics: corrupt counter registration failed", zap.Error(err))
	}
	return m
}

func (m storeMetrics) observe(ctx context.Context, collection, op string, started time.Time, err error) {
	if m.latency == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.latency.Record(ctx, float64(time.Since(started))/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("collection", collection),
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func (m storeMetrics) markCorrupt(ctx context.Context, collection string) {
	if m.corrupt == nil {
		return
	}
	m.corrupt.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", collection)))
}
