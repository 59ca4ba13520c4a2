package dto

import (
	"time"

	appdunning "github.com/mahnwerk/backend/internal/application/dunning"
	"github.com/mahnwerk/backend/internal/domain/dunning"
)

// NoticeResponse represents a dunning notice in API responses. Monetary
// amounts are fixed two-decimal strings to keep cent precision on the wire.
type NoticeResponse struct {
	ID           string     `json:"id"`
	CaseID       string     `json:"case_id"`
	InvoiceID    string     `json:"invoice_id"`
	Level        int        `json:"level"`
	Label        string     `json:"label"`
	Status       string     `json:"status"`
	Currency     string     `json:"currency"`
	GrossAmount  string     `json:"gross_amount"`
	Fee          string     `json:"fee"`
	InterestRate string     `json:"interest_rate"`
	Interest     string     `json:"interest"`
	TotalDue     string     `json:"total_due"`
	IssuedAt     time.Time  `json:"issued_at"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewNoticeResponse maps a domain notice to its API representation
func NewNoticeResponse(n *dunning.DunningNotice) NoticeResponse {
	return NoticeResponse{
		ID:           n.ID.String(),
		CaseID:       n.CaseID.String(),
		InvoiceID:    n.InvoiceID.String(),
		Level:        n.Level.Int(),
		Label:        n.Label,
		Status:       n.Status.String(),
		Currency:     string(n.TotalDue.Currency()),
		GrossAmount:  n.GrossAmount.StringFixed(2),
		Fee:          n.Fee.StringFixed(2),
		InterestRate: n.InterestRate.String(),
		Interest:     n.Interest.StringFixed(2),
		TotalDue:     n.TotalDue.StringFixed(2),
		IssuedAt:     n.IssuedAt,
		SentAt:       n.SentAt,
		ClosedAt:     n.ClosedAt,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

// NewNoticeListResponse maps a slice of domain notices
func NewNoticeListResponse(notices []dunning.DunningNotice) []NoticeResponse {
	out := make([]NoticeResponse, len(notices))
	for i := range notices {
		out[i] = NewNoticeResponse(&notices[i])
	}
	return out
}

// OverdueInvoiceResponse represents one overdue invoice in the detection list
type OverdueInvoiceResponse struct {
	InvoiceID     string    `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	BuyerName     string    `json:"buyer_name"`
	Currency      string    `json:"currency"`
	GrossAmount   string    `json:"gross_amount"`
	DueDate       time.Time `json:"due_date"`
	DaysOverdue   int       `json:"days_overdue"`
	CurrentLevel  int       `json:"current_level"`
	AtMaxLevel    bool      `json:"at_max_level"`
}

// NewOverdueListResponse maps the overdue detection read model
func NewOverdueListResponse(views []appdunning.OverdueInvoiceView) []OverdueInvoiceResponse {
	out := make([]OverdueInvoiceResponse, len(views))
	for i, v := range views {
		out[i] = OverdueInvoiceResponse{
			InvoiceID:     v.InvoiceID.String(),
			InvoiceNumber: v.InvoiceNumber,
			BuyerName:     v.BuyerName,
			Currency:      string(v.GrossAmount.Currency()),
			GrossAmount:   v.GrossAmount.StringFixed(2),
			DueDate:       v.DueDate,
			DaysOverdue:   v.DaysOverdue,
			CurrentLevel:  v.CurrentLevel.Int(),
			AtMaxLevel:    v.AtMaxLevel,
		}
	}
	return out
}

// SweepErrorResponse records one invoice the sweep could not escalate
type SweepErrorResponse struct {
	InvoiceID string `json:"invoice_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// SweepResponse summarizes one sweep run
type SweepResponse struct {
	AsOf         string               `json:"as_of"`
	Candidates   int                  `json:"candidates"`
	Escalated    int                  `json:"escalated"`
	Skipped      int                  `json:"skipped"`
	Failed       int                  `json:"failed"`
	Deduplicated bool                 `json:"deduplicated"`
	Errors       []SweepErrorResponse `json:"errors,omitempty"`
}

// NewSweepResponse maps a sweep result to its API representation
func NewSweepResponse(r *appdunning.SweepResult) SweepResponse {
	resp := SweepResponse{
		AsOf:         r.AsOf.Format("2006-01-02"),
		Candidates:   r.Candidates,
		Escalated:    r.Escalated,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
		Deduplicated: r.Deduplicated,
	}
	for _, e := range r.Errors {
		resp.Errors = append(resp.Errors, SweepErrorResponse{
			InvoiceID: e.InvoiceID.String(),
			Code:      e.Code,
			Message:   e.Message,
		})
	}
	return resp
}

// OverdueQueryRequest holds the optional as-of date for overdue detection
// and manual sweep runs. An empty value means today.
type OverdueQueryRequest struct {
	AsOf string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// ParseAsOf returns the parsed as-of date, or the zero time when unset
func (r *OverdueQueryRequest) ParseAsOf() (time.Time, error) {
	if r.AsOf == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", r.AsOf)
}
