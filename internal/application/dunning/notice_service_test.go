package dunning

import (
	"context"
	"testing"

	domaindunning "github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/invoicing"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustEUR(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyEURFromString(s)
	require.NoError(t, err)
	return m
}

func seedCaseWithNotice(t *testing.T, repo *memoryCaseRepository, invoiceID uuid.UUID) *domaindunning.DunningNotice {
	t.Helper()
	c := domaindunning.NewDunningCase(invoiceID)
	notice, err := c.Escalate(mustEUR(t, "500.00"), domaindunning.NewStatutoryPolicy(), testClock.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), c))
	return notice
}

func TestNoticeServiceTransitions(t *testing.T) {
	invoices := new(mockInvoiceQueryPort)
	repo := newMemoryCaseRepository()
	svc := NewNoticeService(invoices, repo, testClock)

	t.Run("mark sent then paid", func(t *testing.T) {
		invoiceID := uuid.New()
		notice := seedCaseWithNotice(t, repo, invoiceID)

		sent, err := svc.MarkSent(context.Background(), notice.ID)
		require.NoError(t, err)
		assert.Equal(t, domaindunning.NoticeStatusSent, sent.Status)
		require.NotNil(t, sent.SentAt)

		paid, err := svc.MarkPaid(context.Background(), notice.ID)
		require.NoError(t, err)
		assert.Equal(t, domaindunning.NoticeStatusPaid, paid.Status)

		// Level bookkeeping is untouched by transitions.
		saved, err := repo.FindByInvoiceID(context.Background(), invoiceID)
		require.NoError(t, err)
		assert.Equal(t, domaindunning.LevelPaymentReminder, saved.CurrentLevel)
	})

	t.Run("pay twice is idempotent", func(t *testing.T) {
		notice := seedCaseWithNotice(t, repo, uuid.New())

		_, err := svc.MarkPaid(context.Background(), notice.ID)
		require.NoError(t, err)
		again, err := svc.MarkPaid(context.Background(), notice.ID)
		require.NoError(t, err)
		assert.Equal(t, domaindunning.NoticeStatusPaid, again.Status)
	})

	t.Run("cancel after pay rejected", func(t *testing.T) {
		notice := seedCaseWithNotice(t, repo, uuid.New())

		_, err := svc.MarkPaid(context.Background(), notice.ID)
		require.NoError(t, err)
		_, err = svc.MarkCancelled(context.Background(), notice.ID)
		assert.True(t, domaindunning.HasCode(err, domaindunning.CodeInvalidTransition))
	})

	t.Run("unknown notice", func(t *testing.T) {
		_, err := svc.MarkSent(context.Background(), uuid.New())
		assert.True(t, domaindunning.HasCode(err, domaindunning.CodeNoticeNotFound))
	})
}

func TestNoticeServiceListNotices(t *testing.T) {
	invoices := new(mockInvoiceQueryPort)
	repo := newMemoryCaseRepository()
	svc := NewNoticeService(invoices, repo, testClock)

	t.Run("invoice without case has empty history", func(t *testing.T) {
		invoiceID := uuid.New()
		invoices.On("Get", mock.Anything, invoiceID).
			Return(testSnapshot(t, invoiceID, "100.00", invoicing.PaymentStatusUnpaid, testClock.Now()), nil)

		notices, err := svc.ListNotices(context.Background(), invoiceID)
		require.NoError(t, err)
		assert.Empty(t, notices)
	})

	t.Run("history ordered by level", func(t *testing.T) {
		invoiceID := uuid.New()
		invoices.On("Get", mock.Anything, invoiceID).
			Return(testSnapshot(t, invoiceID, "100.00", invoicing.PaymentStatusUnpaid, testClock.Now()), nil)

		c := domaindunning.NewDunningCase(invoiceID)
		amount := mustEUR(t, "100.00")
		policy := domaindunning.NewStatutoryPolicy()
		_, err := c.Escalate(amount, policy, testClock.Now())
		require.NoError(t, err)
		_, err = c.Escalate(amount, policy, testClock.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), c))

		notices, err := svc.ListNotices(context.Background(), invoiceID)
		require.NoError(t, err)
		require.Len(t, notices, 2)
		assert.Equal(t, domaindunning.LevelPaymentReminder, notices[0].Level)
		assert.Equal(t, domaindunning.LevelFirstDunning, notices[1].Level)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		invoiceID := uuid.New()
		invoices.On("Get", mock.Anything, invoiceID).Return(nil, invoicing.ErrInvoiceNotFound)

		_, err := svc.ListNotices(context.Background(), invoiceID)
		assert.ErrorIs(t, err, invoicing.ErrInvoiceNotFound)
	})
}
