package dunning

import "fmt"

// DunningLevel is the ordinal escalation stage of a dunning case.
// Level 0 means no notice has been issued yet; levels 1..3 correspond to
// issued notices. The level is monotonic and advances one step at a time.
type DunningLevel int

const (
	// LevelNone is the initial state before any notice has been issued
	LevelNone DunningLevel = 0
	// LevelPaymentReminder is the first, friendly payment reminder (Zahlungserinnerung)
	LevelPaymentReminder DunningLevel = 1
	// LevelFirstDunning is the first formal dunning notice (1. Mahnung)
	LevelFirstDunning DunningLevel = 2
	// LevelFinalDunning is the final dunning notice (2. Mahnung / letzte Mahnung)
	LevelFinalDunning DunningLevel = 3

	// MaxLevel is the highest level the ladder reaches. Beyond it, manual
	// intervention or legal action is expected.
	MaxLevel = LevelFinalDunning
)

// IsValid checks if the level identifies an issued notice (1..3)
func (l DunningLevel) IsValid() bool {
	return l >= LevelPaymentReminder && l <= MaxLevel
}

// Next returns the level a case at this level would escalate to
func (l DunningLevel) Next() DunningLevel {
	return l + 1
}

// Int returns the level as a plain int
func (l DunningLevel) Int() int {
	return int(l)
}

// String returns a readable representation of the level
func (l DunningLevel) String() string {
	return fmt.Sprintf("%d", int(l))
}
