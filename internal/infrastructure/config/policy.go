package config

import (
	"fmt"

	"github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BuildPolicy turns the configured fee table into an escalation policy.
// Without configured levels the statutory German ladder applies.
func (p *PolicyConfig) BuildPolicy() (dunning.EscalationPolicy, error) {
	if len(p.Levels) == 0 {
		return dunning.NewStatutoryPolicy(), nil
	}

	terms := make([]dunning.LevelTerms, 0, len(p.Levels))
	for _, lvl := range p.Levels {
		fee, err := valueobject.NewMoneyEURFromString(lvl.Fee)
		if err != nil {
			return nil, fmt.Errorf("policy level %d: invalid fee %q: %w", lvl.Level, lvl.Fee, err)
		}

		rate := decimal.Zero
		if lvl.InterestRate != "" {
			rate, err = decimal.NewFromString(lvl.InterestRate)
			if err != nil {
				return nil, fmt.Errorf("policy level %d: invalid interest rate %q: %w", lvl.Level, lvl.InterestRate, err)
			}
		}

		terms = append(terms, dunning.LevelTerms{
			Level:        dunning.DunningLevel(lvl.Level),
			Label:        lvl.Label,
			Fee:          fee,
			InterestRate: rate,
			Terminal:     lvl.Terminal,
		})
	}

	policy, err := dunning.NewTablePolicy(terms)
	if err != nil {
		return nil, fmt.Errorf("invalid policy table: %w", err)
	}
	return policy, nil
}
