// Package invoicing is the read-only view this service holds over the
// external invoicing subsystem. Invoices are created, updated, and settled
// elsewhere; the dunning core only observes them through InvoiceQueryPort
// and never writes them.
package invoicing

import (
	"context"
	"time"

	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentStatus is the payment state of an invoice as reported by the
// invoicing subsystem.
type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "UNPAID"
	PaymentStatusPartial   PaymentStatus = "PARTIAL"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusOverdue   PaymentStatus = "OVERDUE"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid,
		PaymentStatusOverdue, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsSettled returns true if no further payment is expected on the invoice
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCancelled
}

// IsDunnable returns true if the invoice may be escalated once past due
func (s PaymentStatus) IsDunnable() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPartial || s == PaymentStatusOverdue
}

// InvoiceSnapshot is an immutable point-in-time view of an invoice.
type InvoiceSnapshot struct {
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	InvoiceNumber string            `json:"invoice_number"`
	BuyerName     string            `json:"buyer_name"`
	GrossAmount   valueobject.Money `json:"gross_amount"`
	DueDate       time.Time         `json:"due_date"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
}

// IsOverdueAsOf returns true if the invoice is past due and still dunnable
// on the given date. An invoice due today is not yet overdue.
func (s *InvoiceSnapshot) IsOverdueAsOf(asOf time.Time) bool {
	if !s.PaymentStatus.IsDunnable() {
		return false
	}
	return shared.TruncateToDate(s.DueDate).Before(shared.TruncateToDate(asOf))
}

// DaysOverdueAsOf returns the number of whole days past due (0 if not overdue)
func (s *InvoiceSnapshot) DaysOverdueAsOf(asOf time.Time) int {
	if !s.IsOverdueAsOf(asOf) {
		return 0
	}
	return shared.DaysBetween(s.DueDate, asOf)
}

// InvoiceQueryPort is the narrow read port into the invoicing subsystem.
type InvoiceQueryPort interface {
	// Get returns the snapshot for a single invoice.
	// Returns ErrInvoiceNotFound if the invoice does not exist.
	Get(ctx context.Context, invoiceID uuid.UUID) (*InvoiceSnapshot, error)

	// ListOverdue returns all invoices that are dunnable and past due as of
	// the given date. Returns ErrSourceUnavailable when the invoice source
	// cannot be reached; callers decide retry policy.
	ListOverdue(ctx context.Context, asOf time.Time) ([]InvoiceSnapshot, error)
}

// Errors surfaced by the invoice query port
var (
	ErrInvoiceNotFound   = shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	ErrSourceUnavailable = shared.NewDomainError("SOURCE_UNAVAILABLE", "Invoice source is unavailable")
)
