package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/FoleyBridge-Solutions/nestogy-billing/internal/application/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	billing *billingapp.BillingService
}

// NewInvoiceHandler creates an InvoiceHandler
func NewInvoiceHandler(billing *billingapp.BillingService) *InvoiceHandler {
	return &InvoiceHandler{billing: billing}
}

// Create creates an invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]billingapp.LineItemInput, len(req.Items))
	for i, item := range req.Items {
		price, err := parseMoney(item.UnitPrice, req.Currency)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		items[i] = billingapp.LineItemInput{
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       price,
			DiscountPercent: item.DiscountPercent,
			TaxRate:         item.TaxRate,
		}
	}

	invoice, err := h.billing.CreateInvoice(c.Request.Context(), tenantID, billingapp.CreateInvoiceInput{
		ClientID:   uuid.MustParse(req.ClientID),
		ClientName: req.ClientName,
		Currency:   toCurrency(req.Currency),
		DueDate:    req.DueDate,
		Items:      items,
		SendNow:    req.SendNow,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(invoice))
}

// Get retrieves one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	invoiceID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.billing.GetInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// List lists invoices with filters and pagination
func (h *InvoiceHandler) List(c *gin.Context) {
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

	filter := billing.InvoiceFilter{Filter: listReq.ToFilter()}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "client_id is not a valid UUID")
			return
		}
		filter.ClientID = &clientID
	}
	if raw := c.Query("status"); raw != "" {
		status := billing.InvoiceStatus(raw)
		filter.Status = &status
	}
	filter.Overdue = c.Query("overdue") == "true"

	page, err := h.billing.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toInvoiceResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// Send transitions a draft invoice to SENT
func (h *InvoiceHandler) Send(c *gin.Context) {
	h.mutate(c, func(tenantID, invoiceID uuid.UUID) error {
		return h.billing.SendInvoice(c.Request.Context(), tenantID, invoiceID)
	})
}

// Cancel cancels an invoice without payments
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(tenantID, invoiceID uuid.UUID) error {
		return h.billing.CancelInvoice(c.Request.Context(), tenantID, invoiceID, req.Reason)
	})
}

// SweepOverdue flags every invoice past its due date
func (h *InvoiceHandler) SweepOverdue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}

	flagged, err := h.billing.MarkOverdueInvoices(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"flagged": flagged})
}

func (h *InvoiceHandler) mutate(c *gin.Context, op func(tenantID, invoiceID uuid.UUID) error) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	invoiceID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := op(tenantID, invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}

	invoice, err := h.billing.GetInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(invoice))
}

// RegisterRoutes registers all invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.List)
		invoices.POST("", h.Create)
		invoices.POST("/sweep-overdue", h.SweepOverdue)
		invoices.GET("/:id", h.Get)
		invoices.POST("/:id/send", h.Send)
		invoices.POST("/:id/cancel", h.Cancel)
	}
}
