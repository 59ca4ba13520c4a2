package handler

import (
	"context"

	appdunning "github.com/mahnwerk/backend/internal/application/dunning"
	"github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DunningHandler handles dunning-related API endpoints
type DunningHandler struct {
	BaseHandler
	overdue     *appdunning.OverdueService
	escalations *appdunning.EscalationService
	notices     *appdunning.NoticeService
	sweeps      *appdunning.SweepService
}

// NewDunningHandler creates a new DunningHandler
func NewDunningHandler(
	overdue *appdunning.OverdueService,
	escalations *appdunning.EscalationService,
	notices *appdunning.NoticeService,
	sweeps *appdunning.SweepService,
) *DunningHandler {
	return &DunningHandler{
		overdue:     overdue,
		escalations: escalations,
		notices:     notices,
		sweeps:      sweeps,
	}
}

// RegisterRoutes registers dunning routes on the API group
func (h *DunningHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/dunning")
	{
		g.GET("/overdue", h.ListOverdue)
		g.POST("/sweep", h.RunSweep)
		g.POST("/invoices/:id/escalate", h.Escalate)
		g.GET("/invoices/:id/notices", h.ListNotices)
		g.GET("/notices/:id", h.GetNotice)
		g.POST("/notices/:id/send", h.SendNotice)
		g.POST("/notices/:id/pay", h.PayNotice)
		g.POST("/notices/:id/cancel", h.CancelNotice)
	}
}

// ListOverdue returns all overdue, dunnable invoices as of an optional date
// (query parameter as_of, YYYY-MM-DD, default today), sorted by days
// overdue descending.
func (h *DunningHandler) ListOverdue(c *gin.Context) {
	var req dto.OverdueQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "as_of must be a date in YYYY-MM-DD format")
		return
	}
	asOf, err := req.ParseAsOf()
	if err != nil {
		h.BadRequest(c, "as_of must be a date in YYYY-MM-DD format")
		return
	}

	views, err := h.overdue.FindOverdue(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewOverdueListResponse(views))
}

// Escalate advances the invoice's dunning case by exactly one level and
// returns the newly issued notice.
func (h *DunningHandler) Escalate(c *gin.Context) {
	invoiceID, ok := h.bindID(c)
	if !ok {
		return
	}

	notice, err := h.escalations.Escalate(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.NewNoticeResponse(notice))
}

// ListNotices returns the escalation history of an invoice ordered by level
func (h *DunningHandler) ListNotices(c *gin.Context) {
	invoiceID, ok := h.bindID(c)
	if !ok {
		return
	}

	notices, err := h.notices.ListNotices(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewNoticeListResponse(notices))
}

// GetNotice returns a single dunning notice by ID
func (h *DunningHandler) GetNotice(c *gin.Context) {
	noticeID, ok := h.bindID(c)
	if !ok {
		return
	}

	notice, err := h.notices.GetNotice(c.Request.Context(), noticeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewNoticeResponse(notice))
}

// SendNotice transitions a notice from CREATED to SENT
func (h *DunningHandler) SendNotice(c *gin.Context) {
	h.transition(c, h.notices.MarkSent)
}

// PayNotice closes a notice as paid. Repeating the call on a paid notice
// succeeds and returns the unchanged notice.
func (h *DunningHandler) PayNotice(c *gin.Context) {
	h.transition(c, h.notices.MarkPaid)
}

// CancelNotice closes a notice as cancelled. Repeating the call on a
// cancelled notice succeeds and returns the unchanged notice.
func (h *DunningHandler) CancelNotice(c *gin.Context) {
	h.transition(c, h.notices.MarkCancelled)
}

// RunSweep triggers a sweep over all overdue invoices for an optional as-of
// date. Manual runs bypass the daily deduplication marker.
func (h *DunningHandler) RunSweep(c *gin.Context) {
	var req dto.OverdueQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "as_of must be a date in YYYY-MM-DD format")
		return
	}
	asOf, err := req.ParseAsOf()
	if err != nil {
		h.BadRequest(c, "as_of must be a date in YYYY-MM-DD format")
		return
	}

	result, err := h.sweeps.Run(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewSweepResponse(result))
}

func (h *DunningHandler) transition(
	c *gin.Context,
	apply func(ctx context.Context, noticeID uuid.UUID) (*dunning.DunningNotice, error),
) {
	noticeID, ok := h.bindID(c)
	if !ok {
		return
	}

	notice, err := apply(c.Request.Context(), noticeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewNoticeResponse(notice))
}

// bindID parses the :id path parameter as a UUID
func (h *DunningHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
