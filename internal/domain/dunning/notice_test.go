package dunning

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuedNotice(t *testing.T, level DunningLevel) *DunningNotice {
	t.Helper()
	policy := NewStatutoryPolicy()
	terms, err := policy.TermsFor(level)
	require.NoError(t, err)
	notice, err := NewDunningNotice(uuid.New(), uuid.New(), eur(t, "500.00"), terms,
		time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return notice
}

func TestNewDunningNoticeAmounts(t *testing.T) {
	t.Run("payment reminder has fee but no interest", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		assert.Equal(t, "5.00", n.Fee.StringFixed(2))
		assert.Equal(t, "0.00", n.Interest.StringFixed(2))
		assert.Equal(t, "505.00", n.TotalDue.StringFixed(2))
		assert.Equal(t, NoticeStatusCreated, n.Status)
	})

	t.Run("first dunning adds five percent interest", func(t *testing.T) {
		n := issuedNotice(t, LevelFirstDunning)
		assert.Equal(t, "10.00", n.Fee.StringFixed(2))
		assert.Equal(t, "25.00", n.Interest.StringFixed(2))
		assert.Equal(t, "535.00", n.TotalDue.StringFixed(2))
	})

	t.Run("final dunning adds eight percent interest", func(t *testing.T) {
		n := issuedNotice(t, LevelFinalDunning)
		assert.Equal(t, "15.00", n.Fee.StringFixed(2))
		assert.Equal(t, "40.00", n.Interest.StringFixed(2))
		assert.Equal(t, "555.00", n.TotalDue.StringFixed(2))
	})

	t.Run("interest is rounded half up to cents", func(t *testing.T) {
		policy := NewStatutoryPolicy()
		terms, err := policy.TermsFor(LevelFirstDunning)
		require.NoError(t, err)
		// 100.11 * 5% = 5.0055 -> 5.01
		n, err := NewDunningNotice(uuid.New(), uuid.New(), eur(t, "100.11"), terms, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "5.01", n.Interest.StringFixed(2))
		assert.Equal(t, "115.12", n.TotalDue.StringFixed(2))
	})
}

func TestNoticeTransitions(t *testing.T) {
	now := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)

	t.Run("send from created", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		require.NoError(t, n.MarkSent(now))
		assert.Equal(t, NoticeStatusSent, n.Status)
		require.NotNil(t, n.SentAt)
		assert.Equal(t, now, *n.SentAt)
	})

	t.Run("send twice rejected", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		require.NoError(t, n.MarkSent(now))
		err := n.MarkSent(now)
		assert.True(t, HasCode(err, CodeInvalidTransition))
	})

	t.Run("pay from created and from sent", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		changed, err := n.MarkPaid(now)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, NoticeStatusPaid, n.Status)

		n = issuedNotice(t, LevelPaymentReminder)
		require.NoError(t, n.MarkSent(now))
		changed, err = n.MarkPaid(now)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("pay is idempotent once paid", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		_, err := n.MarkPaid(now)
		require.NoError(t, err)
		changed, err := n.MarkPaid(now)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("pay after cancel rejected", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		_, err := n.MarkCancelled(now)
		require.NoError(t, err)
		_, err = n.MarkPaid(now)
		assert.True(t, HasCode(err, CodeInvalidTransition))
	})

	t.Run("cancel after pay rejected", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		_, err := n.MarkPaid(now)
		require.NoError(t, err)
		_, err = n.MarkCancelled(now)
		assert.True(t, HasCode(err, CodeInvalidTransition))
	})

	t.Run("cancel is idempotent once cancelled", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		_, err := n.MarkCancelled(now)
		require.NoError(t, err)
		changed, err := n.MarkCancelled(now)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("send after terminal rejected", func(t *testing.T) {
		n := issuedNotice(t, LevelPaymentReminder)
		_, err := n.MarkPaid(now)
		require.NoError(t, err)
		err = n.MarkSent(now)
		assert.True(t, HasCode(err, CodeInvalidTransition))
	})
}
