package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/mahnwerk/backend/internal/domain/invoicing"
	"github.com/mahnwerk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.InvoiceModel{})
	require.NoError(t, err)

	return db
}

func seedInvoice(t *testing.T, db *gorm.DB, number string, dueDate time.Time, status invoicing.PaymentStatus) uuid.UUID {
	t.Helper()
	model := models.InvoiceModel{
		ID:            uuid.New(),
		InvoiceNumber: number,
		BuyerName:     "Muster GmbH",
		GrossAmount:   decimal.RequireFromString("500.00"),
		DueDate:       dueDate,
		PaymentStatus: status.String(),
	}
	require.NoError(t, db.Create(&model).Error)
	return model.ID
}

func TestGormInvoiceQueryAdapter_Get(t *testing.T) {
	db := setupInvoiceTestDB(t)
	adapter := NewGormInvoiceQueryAdapter(db)
	ctx := context.Background()

	dueDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id := seedInvoice(t, db, "RE-2026-00001", dueDate, invoicing.PaymentStatusUnpaid)

	t.Run("returns the invoice snapshot", func(t *testing.T) {
		snapshot, err := adapter.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "RE-2026-00001", snapshot.InvoiceNumber)
		assert.Equal(t, "Muster GmbH", snapshot.BuyerName)
		assert.Equal(t, "500.00", snapshot.GrossAmount.StringFixed(2))
		assert.Equal(t, invoicing.PaymentStatusUnpaid, snapshot.PaymentStatus)
	})

	t.Run("returns invoice not found for unknown id", func(t *testing.T) {
		_, err := adapter.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, invoicing.ErrInvoiceNotFound)
	})
}

func TestGormInvoiceQueryAdapter_ListOverdue(t *testing.T) {
	db := setupInvoiceTestDB(t)
	adapter := NewGormInvoiceQueryAdapter(db)
	ctx := context.Background()

	asOf := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	seedInvoice(t, db, "RE-2026-00001", asOf.AddDate(0, 0, -14), invoicing.PaymentStatusUnpaid)
	seedInvoice(t, db, "RE-2026-00002", asOf.AddDate(0, 0, -2), invoicing.PaymentStatusPartial)
	// Due today is not overdue yet
	seedInvoice(t, db, "RE-2026-00003", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), invoicing.PaymentStatusUnpaid)
	// Settled invoices never show up, however old
	seedInvoice(t, db, "RE-2026-00004", asOf.AddDate(0, 0, -30), invoicing.PaymentStatusPaid)
	seedInvoice(t, db, "RE-2026-00005", asOf.AddDate(0, 0, -30), invoicing.PaymentStatusCancelled)

	snapshots, err := adapter.ListOverdue(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	// Ordered oldest due date first
	assert.Equal(t, "RE-2026-00001", snapshots[0].InvoiceNumber)
	assert.Equal(t, "RE-2026-00002", snapshots[1].InvoiceNumber)
}
