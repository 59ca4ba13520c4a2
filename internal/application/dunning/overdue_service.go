// Package dunning contains the application services orchestrating the
// dunning domain: overdue detection, escalation, notice lifecycle, and the
// daily sweep.
package dunning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/invoicing"
	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/mahnwerk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// OverdueInvoiceView is the read model returned by overdue detection
type OverdueInvoiceView struct {
	InvoiceID     uuid.UUID            `json:"invoice_id"`
	InvoiceNumber string               `json:"invoice_number"`
	BuyerName     string               `json:"buyer_name"`
	GrossAmount   valueobject.Money    `json:"gross_amount"`
	DueDate       time.Time            `json:"due_date"`
	DaysOverdue   int                  `json:"days_overdue"`
	CurrentLevel  dunning.DunningLevel `json:"current_level"`
	AtMaxLevel    bool                 `json:"at_max_level"`
}

// OverdueService detects invoices eligible for dunning. It is a pure query
// service and never mutates state.
type OverdueService struct {
	invoices invoicing.InvoiceQueryPort
	caseRepo dunning.DunningCaseRepository
	clock    shared.Clock
	metrics  *telemetry.DunningMetrics
}

// NewOverdueService creates a new OverdueService
func NewOverdueService(
	invoices invoicing.InvoiceQueryPort,
	caseRepo dunning.DunningCaseRepository,
	clock shared.Clock,
	metrics *telemetry.DunningMetrics,
) *OverdueService {
	return &OverdueService{
		invoices: invoices,
		caseRepo: caseRepo,
		clock:    clock,
		metrics:  metrics,
	}
}

// FindOverdue lists all overdue, dunnable invoices as of the given date,
// annotated with their current dunning level and sorted by days overdue
// descending. A zero asOf means today.
func (s *OverdueService) FindOverdue(ctx context.Context, asOf time.Time) ([]OverdueInvoiceView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dunning", "find_overdue")
	defer span.End()

	if asOf.IsZero() {
		asOf = s.clock.Today()
	}
	asOf = shared.TruncateToDate(asOf)
	telemetry.SetAttribute(span, telemetry.SpanAttrAsOf, asOf.Format("2006-01-02"))

	snapshots, err := s.invoices.ListOverdue(ctx, asOf)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list overdue invoices: %w", err)
	}

	views := make([]OverdueInvoiceView, 0, len(snapshots))
	for i := range snapshots {
		snap := &snapshots[i]
		if !snap.IsOverdueAsOf(asOf) {
			continue
		}

		level := dunning.LevelNone
		c, err := s.caseRepo.FindByInvoiceID(ctx, snap.InvoiceID)
		switch {
		case err == nil:
			level = c.CurrentLevel
		case errors.Is(err, shared.ErrNotFound):
			// No case yet; invoice has never been escalated.
		default:
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to load dunning case for invoice %s: %w", snap.InvoiceID, err)
		}

		views = append(views, OverdueInvoiceView{
			InvoiceID:     snap.InvoiceID,
			InvoiceNumber: snap.InvoiceNumber,
			BuyerName:     snap.BuyerName,
			GrossAmount:   snap.GrossAmount,
			DueDate:       snap.DueDate,
			DaysOverdue:   snap.DaysOverdueAsOf(asOf),
			CurrentLevel:  level,
			AtMaxLevel:    level >= dunning.MaxLevel,
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].DaysOverdue != views[j].DaysOverdue {
			return views[i].DaysOverdue > views[j].DaysOverdue
		}
		return views[i].InvoiceNumber < views[j].InvoiceNumber
	})

	if s.metrics != nil {
		s.metrics.RecordOverdueListed(ctx, int64(len(views)))
	}
	telemetry.SetAttribute(span, "result_count", len(views))

	return views, nil
}
