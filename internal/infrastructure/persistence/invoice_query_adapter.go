package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mahnwerk/backend/internal/domain/invoicing"
	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// dunnableStatuses are the payment states an invoice may be escalated from
var dunnableStatuses = []string{
	invoicing.PaymentStatusUnpaid.String(),
	invoicing.PaymentStatusPartial.String(),
	invoicing.PaymentStatusOverdue.String(),
}

// GormInvoiceQueryAdapter implements InvoiceQueryPort over the invoices table.
// The table is owned by the invoicing subsystem; this adapter only reads.
type GormInvoiceQueryAdapter struct {
	db *gorm.DB
}

// NewGormInvoiceQueryAdapter creates a new GormInvoiceQueryAdapter
func NewGormInvoiceQueryAdapter(db *gorm.DB) *GormInvoiceQueryAdapter {
	return &GormInvoiceQueryAdapter{db: db}
}

// Get returns the snapshot for a single invoice
func (a *GormInvoiceQueryAdapter) Get(ctx context.Context, invoiceID uuid.UUID) (*invoicing.InvoiceSnapshot, error) {
	var model models.InvoiceModel
	if err := a.db.WithContext(ctx).
		First(&model, "id = ?", invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicing.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("%w: %v", invoicing.ErrSourceUnavailable, err)
	}
	return model.ToSnapshot(), nil
}

// ListOverdue returns all dunnable invoices past due as of the given date.
// An invoice due on the given date is not yet overdue.
func (a *GormInvoiceQueryAdapter) ListOverdue(ctx context.Context, asOf time.Time) ([]invoicing.InvoiceSnapshot, error) {
	cutoff := shared.TruncateToDate(asOf)

	var invoiceModels []models.InvoiceModel
	if err := a.db.WithContext(ctx).
		Where("due_date < ? AND payment_status IN ?", cutoff, dunnableStatuses).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", invoicing.ErrSourceUnavailable, err)
	}

	snapshots := make([]invoicing.InvoiceSnapshot, len(invoiceModels))
	for i := range invoiceModels {
		snapshots[i] = *invoiceModels[i].ToSnapshot()
	}
	return snapshots, nil
}

// Ensure GormInvoiceQueryAdapter implements InvoiceQueryPort
var _ invoicing.InvoiceQueryPort = (*GormInvoiceQueryAdapter)(nil)
