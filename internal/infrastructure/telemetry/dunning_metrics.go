// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when metrics are constructed without a meter
var ErrMeterNil = errors.New("telemetry: meter must not be nil")

// DunningMetrics tracks escalation and sweep activity.
type DunningMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	noticesIssuedTotal    metric.Int64Counter
	escalationConflicts   metric.Int64Counter
	escalationRejections  metric.Int64Counter
	sweepRunsTotal        metric.Int64Counter
	sweepInvoicesTotal    metric.Int64Counter
	overdueInvoicesListed metric.Int64Counter
}

// NewDunningMetrics creates a DunningMetrics instance on the given meter.
func NewDunningMetrics(meter metric.Meter, logger *zap.Logger) (*DunningMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dm := &DunningMetrics{meter: meter, logger: logger}

	var err error
	dm.noticesIssuedTotal, err = meter.Int64Counter(
		"dunning_notices_issued_total",
		metric.WithDescription("Total number of dunning notices issued"),
		metric.WithUnit("{notices}"),
	)
	if err != nil {
		return nil, err
	}

	dm.escalationConflicts, err = meter.Int64Counter(
		"dunning_escalation_conflicts_total",
		metric.WithDescription("Escalations lost to a concurrent writer"),
		metric.WithUnit("{escalations}"),
	)
	if err != nil {
		return nil, err
	}

	dm.escalationRejections, err = meter.Int64Counter(
		"dunning_escalation_rejections_total",
		metric.WithDescription("Escalations rejected by a precondition"),
		metric.WithUnit("{escalations}"),
	)
	if err != nil {
		return nil, err
	}

	dm.sweepRunsTotal, err = meter.Int64Counter(
		"dunning_sweep_runs_total",
		metric.WithDescription("Total number of sweep runs"),
		metric.WithUnit("{runs}"),
	)
	if err != nil {
		return nil, err
	}

	dm.sweepInvoicesTotal, err = meter.Int64Counter(
		"dunning_sweep_invoices_total",
		metric.WithDescription("Invoices processed by sweep runs, labeled by outcome"),
		metric.WithUnit("{invoices}"),
	)
	if err != nil {
		return nil, err
	}

	dm.overdueInvoicesListed, err = meter.Int64Counter(
		"dunning_overdue_invoices_listed_total",
		metric.WithDescription("Overdue invoices returned by detector queries"),
		metric.WithUnit("{invoices}"),
	)
	if err != nil {
		return nil, err
	}

	return dm, nil
}

// RecordNoticeIssued records a successfully issued notice at the given level.
func (dm *DunningMetrics) RecordNoticeIssued(ctx context.Context, level int) {
	dm.noticesIssuedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("level", level),
	))
}

// RecordEscalationConflict records an escalation lost to a concurrent writer.
func (dm *DunningMetrics) RecordEscalationConflict(ctx context.Context) {
	dm.escalationConflicts.Add(ctx, 1)
}

// RecordEscalationRejected records an escalation rejected by a precondition.
func (dm *DunningMetrics) RecordEscalationRejected(ctx context.Context, code string) {
	dm.escalationRejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
	))
}

// RecordSweepRun records one sweep run with its per-invoice outcomes.
func (dm *DunningMetrics) RecordSweepRun(ctx context.Context, escalated, skipped, failed int64) {
	dm.sweepRunsTotal.Add(ctx, 1)
	dm.sweepInvoicesTotal.Add(ctx, escalated, metric.WithAttributes(attribute.String("outcome", "escalated")))
	dm.sweepInvoicesTotal.Add(ctx, skipped, metric.WithAttributes(attribute.String("outcome", "skipped")))
	dm.sweepInvoicesTotal.Add(ctx, failed, metric.WithAttributes(attribute.String("outcome", "failed")))
}

// RecordOverdueListed records the size of an overdue detector result.
func (dm *DunningMetrics) RecordOverdueListed(ctx context.Context, count int64) {
	dm.overdueInvoicesListed.Add(ctx, count)
}
