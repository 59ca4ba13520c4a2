package models

import (
	"time"

	"github.com/mahnwerk/backend/internal/domain/invoicing"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel maps the read-only view over the invoices table maintained by
// the invoicing subsystem. The dunning service never writes this table.
type InvoiceModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	BuyerName     string          `gorm:"type:varchar(200);not null"`
	GrossAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	DueDate       time.Time       `gorm:"not null;index"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToSnapshot converts the row into the domain's point-in-time invoice view.
func (m *InvoiceModel) ToSnapshot() *invoicing.InvoiceSnapshot {
	return &invoicing.InvoiceSnapshot{
		InvoiceID:     m.ID,
		InvoiceNumber: m.InvoiceNumber,
		BuyerName:     m.BuyerName,
		GrossAmount:   valueobject.NewMoneyEUR(m.GrossAmount),
		DueDate:       m.DueDate,
		PaymentStatus: invoicing.PaymentStatus(m.PaymentStatus),
	}
}
