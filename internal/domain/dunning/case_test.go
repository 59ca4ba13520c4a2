package dunning

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDunningCaseEscalationLadder(t *testing.T) {
	policy := NewStatutoryPolicy()
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	gross := eur(t, "500.00")

	c := NewDunningCase(uuid.New())
	assert.Equal(t, LevelNone, c.CurrentLevel)
	assert.Equal(t, 1, c.GetVersion())

	n1, err := c.Escalate(gross, policy, now)
	require.NoError(t, err)
	assert.Equal(t, LevelPaymentReminder, n1.Level)
	assert.Equal(t, "505.00", n1.TotalDue.StringFixed(2))
	assert.Equal(t, LevelPaymentReminder, c.CurrentLevel)
	assert.Equal(t, 2, c.GetVersion())

	n2, err := c.Escalate(gross, policy, now)
	require.NoError(t, err)
	assert.Equal(t, LevelFirstDunning, n2.Level)
	assert.Equal(t, "535.00", n2.TotalDue.StringFixed(2))

	n3, err := c.Escalate(gross, policy, now)
	require.NoError(t, err)
	assert.Equal(t, LevelFinalDunning, n3.Level)
	assert.Equal(t, "555.00", n3.TotalDue.StringFixed(2))
	assert.True(t, c.AtMaxLevel())

	_, err = c.Escalate(gross, policy, now)
	assert.True(t, HasCode(err, CodeMaxLevelReached))
	assert.Len(t, c.Notices, 3)
}

func TestDunningCaseEscalateDuplicateLevel(t *testing.T) {
	policy := NewStatutoryPolicy()
	now := time.Now()
	gross := eur(t, "200.00")

	c := NewDunningCase(uuid.New())
	_, err := c.Escalate(gross, policy, now)
	require.NoError(t, err)

	// Simulate a stale reload: level rolled back but the notice row remains.
	c.CurrentLevel = LevelNone
	_, err = c.Escalate(gross, policy, now)
	assert.True(t, HasCode(err, CodeConcurrentEscalation))
}

func TestDunningCaseEvents(t *testing.T) {
	policy := NewStatutoryPolicy()
	now := time.Now()

	c := NewDunningCase(uuid.New())
	n, err := c.Escalate(eur(t, "100.00"), policy, now)
	require.NoError(t, err)
	_, err = c.MarkNoticeSent(n.ID, now)
	require.NoError(t, err)

	events := c.GetDomainEvents()
	require.Len(t, events, 3)
	assert.Equal(t, EventTypeCaseOpened, events[0].EventType())
	assert.Equal(t, EventTypeNoticeIssued, events[1].EventType())
	assert.Equal(t, EventTypeNoticeSent, events[2].EventType())

	c.ClearDomainEvents()
	assert.Empty(t, c.GetDomainEvents())
}

func TestDunningCaseNoticeLifecycle(t *testing.T) {
	policy := NewStatutoryPolicy()
	now := time.Now()

	t.Run("sent then paid bumps version per change", func(t *testing.T) {
		c := NewDunningCase(uuid.New())
		n, err := c.Escalate(eur(t, "100.00"), policy, now)
		require.NoError(t, err)
		versionAfterEscalate := c.GetVersion()

		_, err = c.MarkNoticeSent(n.ID, now)
		require.NoError(t, err)
		assert.Equal(t, versionAfterEscalate+1, c.GetVersion())

		_, err = c.MarkNoticePaid(n.ID, now)
		require.NoError(t, err)
		assert.Equal(t, versionAfterEscalate+2, c.GetVersion())
	})

	t.Run("idempotent pay leaves version untouched", func(t *testing.T) {
		c := NewDunningCase(uuid.New())
		n, err := c.Escalate(eur(t, "100.00"), policy, now)
		require.NoError(t, err)
		_, err = c.MarkNoticePaid(n.ID, now)
		require.NoError(t, err)
		version := c.GetVersion()

		_, err = c.MarkNoticePaid(n.ID, now)
		require.NoError(t, err)
		assert.Equal(t, version, c.GetVersion())
	})

	t.Run("unknown notice id", func(t *testing.T) {
		c := NewDunningCase(uuid.New())
		_, err := c.MarkNoticeSent(uuid.New(), now)
		assert.True(t, HasCode(err, CodeNoticeNotFound))
	})

	t.Run("invalid transition surfaces from aggregate", func(t *testing.T) {
		c := NewDunningCase(uuid.New())
		n, err := c.Escalate(eur(t, "100.00"), policy, now)
		require.NoError(t, err)
		_, err = c.MarkNoticeCancelled(n.ID, now)
		require.NoError(t, err)
		_, err = c.MarkNoticeSent(n.ID, now)
		assert.True(t, HasCode(err, CodeInvalidTransition))
	})

	t.Run("notice lookup by level", func(t *testing.T) {
		c := NewDunningCase(uuid.New())
		_, err := c.Escalate(eur(t, "100.00"), policy, now)
		require.NoError(t, err)
		_, err = c.Escalate(eur(t, "100.00"), policy, now)
		require.NoError(t, err)

		assert.NotNil(t, c.NoticeAtLevel(LevelPaymentReminder))
		assert.NotNil(t, c.NoticeAtLevel(LevelFirstDunning))
		assert.Nil(t, c.NoticeAtLevel(LevelFinalDunning))
		assert.Equal(t, LevelFirstDunning, c.LatestNotice().Level)
	})
}
