package dunning

import (
	"errors"
	"fmt"

	"github.com/mahnwerk/backend/internal/domain/shared"
)

// Error codes used by the dunning domain
const (
	CodeMaxLevelReached       = "MAX_LEVEL_REACHED"
	CodeInvoiceAlreadySettled = "INVOICE_ALREADY_SETTLED"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeConcurrentEscalation  = "CONCURRENT_ESCALATION"
	CodeNoticeNotFound        = "NOTICE_NOT_FOUND"
	CodeUnknownLevel          = "UNKNOWN_DUNNING_LEVEL"
)

// Deterministic precondition and conflict errors
var (
	ErrMaxLevelReached = shared.NewDomainError(CodeMaxLevelReached,
		"Maximum dunning level reached, no further escalation is possible")
	ErrInvoiceAlreadySettled = shared.NewDomainError(CodeInvoiceAlreadySettled,
		"Invoice is already settled")
	ErrConcurrentEscalation = shared.NewDomainError(CodeConcurrentEscalation,
		"A concurrent escalation for this invoice was committed first")
	ErrNoticeNotFound = shared.NewDomainError(CodeNoticeNotFound,
		"Dunning notice not found")
)

// NewInvalidTransition builds an INVALID_TRANSITION error describing the
// rejected state change.
func NewInvalidTransition(from NoticeStatus, action string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("Cannot %s a notice in %s status", action, from))
}

// NewUnknownLevel builds an UNKNOWN_DUNNING_LEVEL error for a level the
// active policy does not define.
func NewUnknownLevel(level DunningLevel) *shared.DomainError {
	return shared.NewDomainError(CodeUnknownLevel,
		fmt.Sprintf("No dunning terms defined for level %d", level.Int()))
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
