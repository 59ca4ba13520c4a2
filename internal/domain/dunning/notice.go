package dunning

import (
	"time"

	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NoticeStatus is the lifecycle state of a single dunning notice
type NoticeStatus string

const (
	NoticeStatusCreated   NoticeStatus = "CREATED"
	NoticeStatusSent      NoticeStatus = "SENT"
	NoticeStatusPaid      NoticeStatus = "PAID"
	NoticeStatusCancelled NoticeStatus = "CANCELLED"
)

// IsValid checks if the status is a valid NoticeStatus
func (s NoticeStatus) IsValid() bool {
	switch s {
	case NoticeStatusCreated, NoticeStatusSent, NoticeStatusPaid, NoticeStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of NoticeStatus
func (s NoticeStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is possible
func (s NoticeStatus) IsTerminal() bool {
	return s == NoticeStatusPaid || s == NoticeStatusCancelled
}

// DunningNotice is one issued escalation step for an invoice. Its monetary
// fields are a snapshot of the policy terms and invoice amount at issuance
// and never change afterwards, even if the policy table is updated.
type DunningNotice struct {
	shared.BaseEntity
	CaseID       uuid.UUID         `json:"case_id" gorm:"type:uuid;not null;index"`
	InvoiceID    uuid.UUID         `json:"invoice_id" gorm:"type:uuid;not null;uniqueIndex:idx_invoice_level"`
	Level        DunningLevel      `json:"level" gorm:"not null;uniqueIndex:idx_invoice_level"`
	Label        string            `json:"label" gorm:"not null"`
	Status       NoticeStatus      `json:"status" gorm:"not null;default:'CREATED'"`
	GrossAmount  valueobject.Money `json:"gross_amount" gorm:"type:decimal(15,2);not null"`
	Fee          valueobject.Money `json:"fee" gorm:"type:decimal(15,2);not null"`
	InterestRate decimal.Decimal   `json:"interest_rate" gorm:"type:decimal(5,2);not null"`
	Interest     valueobject.Money `json:"interest" gorm:"type:decimal(15,2);not null"`
	TotalDue     valueobject.Money `json:"total_due" gorm:"type:decimal(15,2);not null"`
	IssuedAt     time.Time         `json:"issued_at" gorm:"not null"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	ClosedAt     *time.Time        `json:"closed_at,omitempty"`
}

// NewDunningNotice issues a notice for the given level, computing interest
// and total due from the invoice gross amount and the policy terms.
// Interest is a flat percentage of the gross amount, rounded half up to two
// decimal places. Fees are per notice and not carried over between levels.
func NewDunningNotice(caseID, invoiceID uuid.UUID, gross valueobject.Money, terms LevelTerms, issuedAt time.Time) (*DunningNotice, error) {
	interest := gross.CalculatePercentage(terms.InterestRate).RoundHalfUp()

	total, err := gross.Add(terms.Fee)
	if err != nil {
		return nil, err
	}
	total, err = total.Add(interest)
	if err != nil {
		return nil, err
	}

	return &DunningNotice{
		BaseEntity:   shared.NewBaseEntity(),
		CaseID:       caseID,
		InvoiceID:    invoiceID,
		Level:        terms.Level,
		Label:        terms.Label,
		Status:       NoticeStatusCreated,
		GrossAmount:  gross,
		Fee:          terms.Fee,
		InterestRate: terms.InterestRate,
		Interest:     interest,
		TotalDue:     total,
		IssuedAt:     issuedAt,
	}, nil
}

// MarkSent transitions the notice from CREATED to SENT
func (n *DunningNotice) MarkSent(now time.Time) error {
	if n.Status != NoticeStatusCreated {
		return NewInvalidTransition(n.Status, "send")
	}
	n.Status = NoticeStatusSent
	n.SentAt = &now
	n.UpdatedAt = now
	return nil
}

// MarkPaid closes the notice as paid. Paying an already paid notice is a
// no-op; the caller can tell from the returned changed flag whether anything
// was persisted.
func (n *DunningNotice) MarkPaid(now time.Time) (changed bool, err error) {
	switch n.Status {
	case NoticeStatusPaid:
		return false, nil
	case NoticeStatusCreated, NoticeStatusSent:
		n.Status = NoticeStatusPaid
		n.ClosedAt = &now
		n.UpdatedAt = now
		return true, nil
	default:
		return false, NewInvalidTransition(n.Status, "pay")
	}
}

// MarkCancelled closes the notice as cancelled. Cancelling an already
// cancelled notice is a no-op.
func (n *DunningNotice) MarkCancelled(now time.Time) (changed bool, err error) {
	switch n.Status {
	case NoticeStatusCancelled:
		return false, nil
	case NoticeStatusCreated, NoticeStatusSent:
		n.Status = NoticeStatusCancelled
		n.ClosedAt = &now
		n.UpdatedAt = now
		return true, nil
	default:
		return false, NewInvalidTransition(n.Status, "cancel")
	}
}

// IsOpen returns true if the notice still awaits payment or cancellation
func (n *DunningNotice) IsOpen() bool {
	return !n.Status.IsTerminal()
}
