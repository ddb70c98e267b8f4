package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/FoleyBridge-Solutions/nestogy-billing/internal/application/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/interfaces/http/dto"
)

// PaymentHandler handles payment and allocation endpoints
type PaymentHandler struct {
	BaseHandler
	billing     *billingapp.BillingService
	allocations *billingapp.AllocationService
}

// NewPaymentHandler creates a PaymentHandler
func NewPaymentHandler(billing *billingapp.BillingService, allocations *billingapp.AllocationService) *PaymentHandler {
	return &PaymentHandler{billing: billing, allocations: allocations}
}

// Create records a payment
func (h *PaymentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	payment, err := h.billing.CreatePayment(c.Request.Context(), tenantID, billingapp.CreatePaymentInput{
		ClientID:         uuid.MustParse(req.ClientID),
		ClientName:       req.ClientName,
		Amount:           amount,
		Method:           billing.PaymentMethod(req.Method),
		PaymentDate:      req.PaymentDate,
		GatewayReference: req.GatewayReference,
		CompleteNow:      req.CompleteNow,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResponse(payment))
}

// Get retrieves one payment
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.billing.GetPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(payment))
}

// List lists payments with filters and pagination
func (h *PaymentHandler) List(c *gin.Context) {
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

	filter := billing.PaymentFilter{Filter: listReq.ToFilter()}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "client_id is not a valid UUID")
			return
		}
		filter.ClientID = &clientID
	}
	if raw := c.Query("status"); raw != "" {
		status := billing.PaymentStatus(raw)
		filter.Status = &status
	}
	filter.Unallocated = c.Query("unallocated") == "true"

	page, err := h.billing.ListPayments(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toPaymentResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// Complete marks a pending payment as settled
func (h *PaymentHandler) Complete(c *gin.Context) {
	var req struct {
		GatewayReference string `json:"gateway_reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(tenantID, paymentID uuid.UUID) error {
		return h.billing.CompletePayment(c.Request.Context(), tenantID, paymentID, req.GatewayReference)
	})
}

// Fail marks a pending payment as failed
func (h *PaymentHandler) Fail(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(tenantID, paymentID uuid.UUID) error {
		return h.billing.FailPayment(c.Request.Context(), tenantID, paymentID, req.Reason)
	})
}

// Refund marks a completed payment as refunded
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(tenantID, paymentID uuid.UUID) error {
		return h.billing.RefundPayment(c.Request.Context(), tenantID, paymentID, req.Reason)
	})
}

// Delete removes a payment that never settled
func (h *PaymentHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.billing.DeletePayment(c.Request.Context(), tenantID, paymentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Allocate applies part of a payment to one invoice
func (h *PaymentHandler) Allocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.billing.GetPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	amount, err := parseMoney(req.Amount, string(payment.Currency))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	app, err := h.allocations.ApplyPayment(c.Request.Context(), tenantID, paymentID, uuid.MustParse(req.InvoiceID), amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toApplicationResponse(app))
}

// BulkAllocate applies one payment to several invoices atomically
func (h *PaymentHandler) BulkAllocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req BulkAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.billing.GetPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	allocations := make([]billingapp.InvoiceAllocation, len(req.Allocations))
	for i, alloc := range req.Allocations {
		amount, err := parseMoney(alloc.Amount, string(payment.Currency))
		if err != nil {
			h.HandleError(c, err)
			return
		}
		allocations[i] = billingapp.InvoiceAllocation{
			InvoiceID: uuid.MustParse(alloc.InvoiceID),
			Amount:    amount,
		}
	}

	apps, err := h.allocations.BulkAllocate(c.Request.Context(), tenantID, paymentID, allocations)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toApplicationResponses(apps))
}

// AutoAllocate distributes a payment across outstanding invoices
func (h *PaymentHandler) AutoAllocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req AutoAllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	strategy := billing.StrategyOldestFirst
	if req.Strategy != "" {
		strategy = billing.DistributionStrategy(req.Strategy)
	}

	apps, err := h.allocations.AutoAllocate(c.Request.Context(), tenantID, paymentID, strategy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toApplicationResponses(apps))
}

// IssueCredit converts a payment's unallocated remainder into client credit
func (h *PaymentHandler) IssueCredit(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	credit, err := h.allocations.IssueOverpaymentCredit(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCreditResponse(credit))
}

// VoidAllocation reverses an active allocation
func (h *PaymentHandler) VoidAllocation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	applicationID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.allocations.VoidAllocation(c.Request.Context(), tenantID, applicationID, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *PaymentHandler) mutate(c *gin.Context, op func(tenantID, paymentID uuid.UUID) error) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := op(tenantID, paymentID); err != nil {
		h.HandleError(c, err)
		return
	}

	payment, err := h.billing.GetPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(payment))
}

// RegisterRoutes registers all payment and allocation routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.GET("", h.List)
		payments.POST("", h.Create)
		payments.GET("/:id", h.Get)
		payments.DELETE("/:id", h.Delete)
		payments.POST("/:id/complete", h.Complete)
		payments.POST("/:id/fail", h.Fail)
		payments.POST("/:id/refund", h.Refund)
		payments.POST("/:id/allocations", h.Allocate)
		payments.POST("/:id/allocations/bulk", h.BulkAllocate)
		payments.POST("/:id/allocations/auto", h.AutoAllocate)
		payments.POST("/:id/credit", h.IssueCredit)
	}

	allocations := rg.Group("/allocations")
	{
		allocations.POST("/:id/void", h.VoidAllocation)
	}
}
