package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/FoleyBridge-Solutions/nestogy-billing/internal/application/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/interfaces/http/dto"
)

// CreditHandler handles client credit endpoints
type CreditHandler struct {
	BaseHandler
	billing     *billingapp.BillingService
	allocations *billingapp.AllocationService
}

// NewCreditHandler creates a CreditHandler
func NewCreditHandler(billing *billingapp.BillingService, allocations *billingapp.AllocationService) *CreditHandler {
	return &CreditHandler{billing: billing, allocations: allocations}
}

// Get retrieves one credit
func (h *CreditHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	creditID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	credit, err := h.billing.GetCredit(c.Request.Context(), tenantID, creditID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCreditResponse(credit))
}

// List lists credits with filters and pagination
func (h *CreditHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := billing.CreditFilter{Filter: listReq.ToFilter()}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "client_id is not a valid UUID")
			return
		}
		filter.ClientID = &clientID
	}
	if raw := c.Query("status"); raw != "" {
		status := billing.CreditStatus(raw)
		filter.Status = &status
	}

	page, err := h.billing.ListCredits(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toCreditResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// Consume draws down a credit
func (h *CreditHandler) Consume(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	creditID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.allocations.ConsumeCredit(c.Request.Context(), tenantID, creditID, amount); err != nil {
		h.HandleError(c, err)
		return
	}

	credit, err := h.billing.GetCredit(c.Request.Context(), tenantID, creditID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCreditResponse(credit))
}

// Void cancels a credit, zeroing whatever remains
func (h *CreditHandler) Void(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	creditID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.allocations.VoidCredit(c.Request.Context(), tenantID, creditID, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers all credit routes
func (h *CreditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	credits := rg.Group("/credits")
	{
		credits.GET("", h.List)
		credits.GET("/:id", h.Get)
		credits.POST("/:id/consume", h.Consume)
		credits.POST("/:id/void", h.Void)
	}
}
