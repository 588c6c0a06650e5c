package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor is given no meter
var ErrMeterNil = errors.New("meter cannot be nil")

// OrderValueBuckets are histogram boundaries for order totals in currency units
var OrderValueBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// OrderMetrics records order placement business metrics
type OrderMetrics struct {
	placed     metric.Int64Counter
	rejections metric.Int64Counter
	value      metric.Float64Histogram
	lines      metric.Int64Histogram
}

// NewOrderMetrics registers the order instruments on meter
func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("NewOrderMetrics: %w", ErrMeterNil)
	}

	placed, err := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Orders committed by buyers"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	rejections, err := meter.Int64Counter("order_stock_rejections_total",
		metric.WithDescription("Order placements rejected for insufficient stock"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	value, err := meter.Float64Histogram("order_value",
		metric.WithDescription("Total amount of placed orders"),
		metric.WithExplicitBucketBoundaries(OrderValueBuckets...),
	)
	if err != nil {
		return nil, err
	}

	lines, err := meter.Int64Histogram("order_lines",
		metric.WithDescription("Number of lines per placed order"),
		metric.WithUnit("{line}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 10, 20, 50),
	)
	if err != nil {
		return nil, err
	}

	return &OrderMetrics{placed: placed, rejections: rejections, value: value, lines: lines}, nil
}

// RecordOrderPlaced records one committed order
func (m *OrderMetrics) RecordOrderPlaced(ctx context.Context, total decimal.Decimal, lineCount int) {
	m.placed.Add(ctx, 1)
	m.value.Record(ctx, total.InexactFloat64())
	m.lines.Record(ctx, int64(lineCount))
}

// RecordStockRejection records a placement refused for insufficient stock
func (m *OrderMetrics) RecordStockRejection(ctx context.Context) {
	m.rejections.Add(ctx, 1)
}
