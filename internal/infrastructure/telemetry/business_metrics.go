package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds the counters and histograms for the routing and
// settlement subsystem. All instruments are created once at startup and are
// safe for concurrent use. With the no-op global meter (metrics disabled)
// every recording is free.
type BusinessMetrics struct {
	routingDecisions   metric.Int64Counter
	routingSplits      metric.Int64Counter
	routingFailures    metric.Int64Counter
	webhooksReceived   metric.Int64Counter
	webhooksDuplicate  metric.Int64Counter
	webhooksRejected   metric.Int64Counter
	salesPosted        metric.Int64Counter
	payoutTransitions  metric.Int64Counter
	productionEscalate metric.Int64Counter
	supplierSyncTime   metric.Float64Histogram
}

// NewBusinessMetrics creates the instrument set from the global meter
func NewBusinessMetrics() (*BusinessMetrics, error) {
	meter := otel.GetMeterProvider().Meter(TracerName)

	routingDecisions, err := meter.Int64Counter("routing.decisions",
		metric.WithDescription("Routing selections made, by outcome"))
	if err != nil {
		return nil, err
	}
	routingSplits, err := meter.Int64Counter("routing.splits",
		metric.WithDescription("Order lines split across suppliers"))
	if err != nil {
		return nil, err
	}
	routingFailures, err := meter.Int64Counter("routing.failures",
		metric.WithDescription("Routing requests no supplier could satisfy"))
	if err != nil {
		return nil, err
	}
	webhooksReceived, err := meter.Int64Counter("webhooks.received",
		metric.WithDescription("Supplier webhook deliveries received"))
	if err != nil {
		return nil, err
	}
	webhooksDuplicate, err := meter.Int64Counter("webhooks.duplicate",
		metric.WithDescription("Supplier webhook deliveries deduplicated"))
	if err != nil {
		return nil, err
	}
	webhooksRejected, err := meter.Int64Counter("webhooks.rejected",
		metric.WithDescription("Supplier webhook deliveries failing signature verification"))
	if err != nil {
		return nil, err
	}
	salesPosted, err := meter.Int64Counter("settlement.sales_posted",
		metric.WithDescription("SALE ledger entries posted"))
	if err != nil {
		return nil, err
	}
	payoutTransitions, err := meter.Int64Counter("settlement.payout_transitions",
		metric.WithDescription("Payout request status transitions, by target status"))
	if err != nil {
		return nil, err
	}
	productionEscalate, err := meter.Int64Counter("fulfillment.escalations",
		metric.WithDescription("Production orders escalated for operator attention"))
	if err != nil {
		return nil, err
	}
	supplierSyncTime, err := meter.Float64Histogram("supply.sync_duration_seconds",
		metric.WithDescription("Full-poll supplier sync duration"))
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		routingDecisions:   routingDecisions,
		routingSplits:      routingSplits,
		routingFailures:    routingFailures,
		webhooksReceived:   webhooksReceived,
		webhooksDuplicate:  webhooksDuplicate,
		webhooksRejected:   webhooksRejected,
		salesPosted:        salesPosted,
		payoutTransitions:  payoutTransitions,
		productionEscalate: productionEscalate,
		supplierSyncTime:   supplierSyncTime,
	}, nil
}

// RecordRoutingDecision counts a routing selection by supplier and whether it
// was provisional
func (m *BusinessMetrics) RecordRoutingDecision(ctx context.Context, supplierCode string, provisional bool) {
	m.routingDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("supplier_code", supplierCode),
		attribute.Bool("provisional", provisional),
	))
}

// RecordRoutingSplit counts a split plan by fan-out
func (m *BusinessMetrics) RecordRoutingSplit(ctx context.Context, fanOut int) {
	m.routingSplits.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("fan_out", fanOut),
	))
}

// RecordRoutingFailure counts a routing request that could not be satisfied
func (m *BusinessMetrics) RecordRoutingFailure(ctx context.Context, sku string) {
	m.routingFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sku", sku),
	))
}

// RecordWebhookReceived counts an accepted webhook delivery
func (m *BusinessMetrics) RecordWebhookReceived(ctx context.Context, supplierCode, kind string) {
	m.webhooksReceived.Add(ctx, 1, metric.WithAttributes(
		attribute.String("supplier_code", supplierCode),
		attribute.String("kind", kind),
	))
}

// RecordWebhookDuplicate counts a deduplicated delivery
func (m *BusinessMetrics) RecordWebhookDuplicate(ctx context.Context, supplierCode string) {
	m.webhooksDuplicate.Add(ctx, 1, metric.WithAttributes(
		attribute.String("supplier_code", supplierCode),
	))
}

// RecordWebhookRejected counts a delivery failing signature verification
func (m *BusinessMetrics) RecordWebhookRejected(ctx context.Context, supplierCode string) {
	m.webhooksRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("supplier_code", supplierCode),
	))
}

// RecordSalePosted counts a SALE ledger entry
func (m *BusinessMetrics) RecordSalePosted(ctx context.Context, supplierID string) {
	m.salesPosted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("supplier_id", supplierID),
	))
}

// RecordPayoutTransition counts a payout status transition
func (m *BusinessMetrics) RecordPayoutTransition(ctx context.Context, target string) {
	m.payoutTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target_status", target),
	))
}

// RecordEscalation counts a production order escalation by reason class
func (m *BusinessMetrics) RecordEscalation(ctx context.Context, reason string) {
	m.productionEscalate.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordSyncDuration records one full-poll supplier sync
func (m *BusinessMetrics) RecordSyncDuration(ctx context.Context, supplierCode string, seconds float64) {
	m.supplierSyncTime.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("supplier_code", supplierCode),
	))
}
