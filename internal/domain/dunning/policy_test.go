package dunning

import (
	"testing"

	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eur(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyEURFromString(s)
	require.NoError(t, err)
	return m
}

func TestStatutoryPolicy(t *testing.T) {
	policy := NewStatutoryPolicy()

	l1, err := policy.TermsFor(LevelPaymentReminder)
	require.NoError(t, err)
	assert.Equal(t, "Zahlungserinnerung", l1.Label)
	assert.Equal(t, "5.00", l1.Fee.StringFixed(2))
	assert.True(t, l1.InterestRate.IsZero())
	assert.False(t, l1.Terminal)

	l2, err := policy.TermsFor(LevelFirstDunning)
	require.NoError(t, err)
	assert.Equal(t, "1. Mahnung", l2.Label)
	assert.Equal(t, "10.00", l2.Fee.StringFixed(2))
	assert.True(t, l2.InterestRate.Equal(decimal.NewFromInt(5)))
	assert.False(t, l2.Terminal)

	l3, err := policy.TermsFor(LevelFinalDunning)
	require.NoError(t, err)
	assert.Equal(t, "15.00", l3.Fee.StringFixed(2))
	assert.True(t, l3.InterestRate.Equal(decimal.NewFromInt(8)))
	assert.True(t, l3.Terminal)

	_, err = policy.TermsFor(DunningLevel(4))
	assert.True(t, HasCode(err, CodeUnknownLevel))

	levels := policy.Levels()
	require.Len(t, levels, 3)
	assert.Equal(t, LevelPaymentReminder, levels[0].Level)
	assert.Equal(t, LevelFinalDunning, levels[2].Level)
}

func TestNewTablePolicyValidation(t *testing.T) {
	t.Run("empty table rejected", func(t *testing.T) {
		_, err := NewTablePolicy(nil)
		assert.Error(t, err)
	})

	t.Run("gap in levels rejected", func(t *testing.T) {
		_, err := NewTablePolicy([]LevelTerms{
			{Level: LevelPaymentReminder, Fee: eur(t, "5.00"), Terminal: false},
			{Level: LevelFinalDunning, Fee: eur(t, "15.00"), Terminal: true},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate level rejected", func(t *testing.T) {
		_, err := NewTablePolicy([]LevelTerms{
			{Level: LevelPaymentReminder, Fee: eur(t, "5.00"), Terminal: false},
			{Level: LevelPaymentReminder, Fee: eur(t, "6.00"), Terminal: true},
		})
		assert.Error(t, err)
	})

	t.Run("non-terminal top level rejected", func(t *testing.T) {
		_, err := NewTablePolicy([]LevelTerms{
			{Level: LevelPaymentReminder, Fee: eur(t, "5.00"), Terminal: false},
		})
		assert.Error(t, err)
	})

	t.Run("negative fee rejected", func(t *testing.T) {
		_, err := NewTablePolicy([]LevelTerms{
			{Level: LevelPaymentReminder, Fee: eur(t, "-1.00"), Terminal: true},
		})
		assert.Error(t, err)
	})

	t.Run("two level ladder accepted", func(t *testing.T) {
		policy, err := NewTablePolicy([]LevelTerms{
			{Level: LevelPaymentReminder, Label: "Erinnerung", Fee: eur(t, "0.00"), Terminal: false},
			{Level: LevelFirstDunning, Label: "Mahnung", Fee: eur(t, "7.50"), InterestRate: decimal.NewFromInt(9), Terminal: true},
		})
		require.NoError(t, err)
		terms, err := policy.TermsFor(LevelFirstDunning)
		require.NoError(t, err)
		assert.True(t, terms.Terminal)
	})
}
