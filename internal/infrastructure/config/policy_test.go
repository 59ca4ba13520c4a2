package config

import (
	"testing"

	"github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPolicy_DefaultsToStatutoryLadder(t *testing.T) {
	p := &PolicyConfig{}

	policy, err := p.BuildPolicy()
	require.NoError(t, err)

	terms, err := policy.TermsFor(dunning.DunningLevel(1))
	require.NoError(t, err)
	assert.Equal(t, "Zahlungserinnerung", terms.Label)
	assert.Equal(t, "5.00", terms.Fee.StringFixed(2))
	assert.True(t, terms.InterestRate.IsZero())

	terms, err = policy.TermsFor(dunning.DunningLevel(3))
	require.NoError(t, err)
	assert.Equal(t, "2. Mahnung (letzte Mahnung)", terms.Label)
	assert.True(t, terms.Terminal)
	assert.Equal(t, "8", terms.InterestRate.String())
}

func TestBuildPolicy_CustomTable(t *testing.T) {
	p := &PolicyConfig{
		Levels: []PolicyLevelConfig{
			{Level: 1, Label: "Erinnerung", Fee: "2.50", InterestRate: ""},
			{Level: 2, Label: "Letzte Mahnung", Fee: "12.00", InterestRate: "9.5", Terminal: true},
		},
	}

	policy, err := p.BuildPolicy()
	require.NoError(t, err)

	terms, err := policy.TermsFor(dunning.DunningLevel(1))
	require.NoError(t, err)
	assert.Equal(t, "Erinnerung", terms.Label)
	assert.Equal(t, "2.50", terms.Fee.StringFixed(2))
	assert.True(t, terms.InterestRate.IsZero())
	assert.False(t, terms.Terminal)

	terms, err = policy.TermsFor(dunning.DunningLevel(2))
	require.NoError(t, err)
	assert.Equal(t, "9.5", terms.InterestRate.String())
	assert.True(t, terms.Terminal)

	_, err = policy.TermsFor(dunning.DunningLevel(3))
	assert.Error(t, err)
}

func TestBuildPolicy_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		levels []PolicyLevelConfig
	}{
		{
			name:   "malformed fee",
			levels: []PolicyLevelConfig{{Level: 1, Label: "Erinnerung", Fee: "five euros"}},
		},
		{
			name:   "malformed interest rate",
			levels: []PolicyLevelConfig{{Level: 1, Label: "Erinnerung", Fee: "5.00", InterestRate: "lots"}},
		},
		{
			name: "gap in levels",
			levels: []PolicyLevelConfig{
				{Level: 1, Label: "Erinnerung", Fee: "5.00"},
				{Level: 3, Label: "Mahnung", Fee: "10.00", Terminal: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PolicyConfig{Levels: tt.levels}
			_, err := p.BuildPolicy()
			assert.Error(t, err)
		})
	}
}
