package dunning

import (
	"sort"

	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LevelTerms are the monetary terms attached to one escalation level.
// They are policy data captured at escalation time, not recomputed later.
type LevelTerms struct {
	Level        DunningLevel      `json:"level"`
	Label        string            `json:"label"`
	Fee          valueobject.Money `json:"fee"`
	InterestRate decimal.Decimal   `json:"interest_rate"` // percent of gross amount
	Terminal     bool              `json:"terminal"`
}

// EscalationPolicy resolves the terms for an escalation level. The ladder is
// closed: a level the policy does not define is an error, never a fallback.
// Implementations must be pure and safe for concurrent use.
type EscalationPolicy interface {
	// TermsFor returns the terms for the given level, or UNKNOWN_DUNNING_LEVEL.
	TermsFor(level DunningLevel) (LevelTerms, error)

	// Levels returns all defined levels in ascending order.
	Levels() []LevelTerms
}

// TablePolicy is an EscalationPolicy backed by a fixed table of terms.
// Jurisdiction-specific ladders are built by constructing a different table;
// the escalation engine never changes.
type TablePolicy struct {
	terms map[DunningLevel]LevelTerms
}

// NewTablePolicy creates a policy from explicit level terms. The terms must
// cover levels 1..N contiguously and exactly the highest level must be
// terminal.
func NewTablePolicy(terms []LevelTerms) (*TablePolicy, error) {
	if len(terms) == 0 {
		return nil, shared.NewDomainError("INVALID_POLICY", "Escalation policy must define at least one level")
	}

	byLevel := make(map[DunningLevel]LevelTerms, len(terms))
	for _, t := range terms {
		if !t.Level.IsValid() {
			return nil, NewUnknownLevel(t.Level)
		}
		if _, dup := byLevel[t.Level]; dup {
			return nil, shared.NewDomainError("INVALID_POLICY", "Escalation policy defines a level twice")
		}
		if t.Fee.IsNegative() || t.InterestRate.IsNegative() {
			return nil, shared.NewDomainError("INVALID_POLICY", "Fees and interest rates must not be negative")
		}
		byLevel[t.Level] = t
	}

	top := DunningLevel(len(byLevel))
	for l := LevelPaymentReminder; l <= top; l++ {
		t, ok := byLevel[l]
		if !ok {
			return nil, shared.NewDomainError("INVALID_POLICY", "Escalation policy levels must be contiguous from 1")
		}
		if t.Terminal != (l == top) {
			return nil, shared.NewDomainError("INVALID_POLICY", "Exactly the highest policy level must be terminal")
		}
	}

	return &TablePolicy{terms: byLevel}, nil
}

// TermsFor returns the terms for the given level
func (p *TablePolicy) TermsFor(level DunningLevel) (LevelTerms, error) {
	t, ok := p.terms[level]
	if !ok {
		return LevelTerms{}, NewUnknownLevel(level)
	}
	return t, nil
}

// Levels returns all defined levels in ascending order
func (p *TablePolicy) Levels() []LevelTerms {
	out := make([]LevelTerms, 0, len(p.terms))
	for _, t := range p.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// NewStatutoryPolicy returns the default German dunning ladder:
// Zahlungserinnerung (5.00, no interest), 1. Mahnung (10.00, 5%),
// 2. Mahnung as the final notice (15.00, 8%).
func NewStatutoryPolicy() *TablePolicy {
	mustEUR := func(s string) valueobject.Money {
		m, err := valueobject.NewMoneyEURFromString(s)
		if err != nil {
			panic(err)
		}
		return m
	}

	policy, err := NewTablePolicy([]LevelTerms{
		{
			Level:        LevelPaymentReminder,
			Label:        "Zahlungserinnerung",
			Fee:          mustEUR("5.00"),
			InterestRate: decimal.Zero,
			Terminal:     false,
		},
		{
			Level:        LevelFirstDunning,
			Label:        "1. Mahnung",
			Fee:          mustEUR("10.00"),
			InterestRate: decimal.NewFromInt(5),
			Terminal:     false,
		},
		{
			Level:        LevelFinalDunning,
			Label:        "2. Mahnung (letzte Mahnung)",
			Fee:          mustEUR("15.00"),
			InterestRate: decimal.NewFromInt(8),
			Terminal:     true,
		},
	})
	if err != nil {
		// The statutory table is fixed at compile time; a construction
		// failure is a programming error.
		panic(err)
	}
	return policy
}

// Ensure TablePolicy implements EscalationPolicy
var _ EscalationPolicy = (*TablePolicy)(nil)
