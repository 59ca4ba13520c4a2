package dunning

import (
	"context"
	"testing"
	"time"

	domaindunning "github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/invoicing"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func overdueSnapshot(t *testing.T, number string, dueDate time.Time) invoicing.InvoiceSnapshot {
	t.Helper()
	gross, err := valueobject.NewMoneyEURFromString("250.00")
	require.NoError(t, err)
	return invoicing.InvoiceSnapshot{
		InvoiceID:     uuid.New(),
		InvoiceNumber: number,
		BuyerName:     "Beispiel AG",
		GrossAmount:   gross,
		DueDate:       dueDate,
		PaymentStatus: invoicing.PaymentStatusUnpaid,
	}
}

func TestFindOverdueSortsAndAnnotates(t *testing.T) {
	invoices := new(mockInvoiceQueryPort)
	repo := newMemoryCaseRepository()
	svc := NewOverdueService(invoices, repo, testClock, nil)
	asOf := testClock.Today()

	recent := overdueSnapshot(t, "RE-2026-00002", time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC))
	oldest := overdueSnapshot(t, "RE-2026-00001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	invoices.On("ListOverdue", mock.Anything, asOf).
		Return([]invoicing.InvoiceSnapshot{recent, oldest}, nil)

	// The older invoice already has a case at level 1.
	c := domaindunning.NewDunningCase(oldest.InvoiceID)
	_, err := c.Escalate(oldest.GrossAmount, domaindunning.NewStatutoryPolicy(), testClock.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), c))

	views, err := svc.FindOverdue(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "RE-2026-00001", views[0].InvoiceNumber)
	assert.Equal(t, 14, views[0].DaysOverdue)
	assert.Equal(t, domaindunning.LevelPaymentReminder, views[0].CurrentLevel)

	assert.Equal(t, "RE-2026-00002", views[1].InvoiceNumber)
	assert.Equal(t, 2, views[1].DaysOverdue)
	assert.Equal(t, domaindunning.LevelNone, views[1].CurrentLevel)
	assert.False(t, views[1].AtMaxLevel)
}

func TestFindOverdueFiltersBoundary(t *testing.T) {
	invoices := new(mockInvoiceQueryPort)
	svc := NewOverdueService(invoices, newMemoryCaseRepository(), testClock, nil)
	asOf := testClock.Today()

	// A source that ignores the asOf cutoff must not leak a due-today
	// invoice into the result.
	dueToday := overdueSnapshot(t, "RE-2026-00003", asOf)
	invoices.On("ListOverdue", mock.Anything, asOf).
		Return([]invoicing.InvoiceSnapshot{dueToday}, nil)

	views, err := svc.FindOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestFindOverdueSourceUnavailable(t *testing.T) {
	invoices := new(mockInvoiceQueryPort)
	svc := NewOverdueService(invoices, newMemoryCaseRepository(), testClock, nil)
	asOf := testClock.Today()

	invoices.On("ListOverdue", mock.Anything, asOf).
		Return(nil, invoicing.ErrSourceUnavailable)

	_, err := svc.FindOverdue(context.Background(), asOf)
	assert.ErrorIs(t, err, invoicing.ErrSourceUnavailable)
}
