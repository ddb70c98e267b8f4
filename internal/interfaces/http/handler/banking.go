package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	bankingapp "github.com/FoleyBridge-Solutions/nestogy-billing/internal/application/banking"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/banking"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/interfaces/http/dto"
)

// BankingHandler handles bank transaction, reconciliation and expense
// endpoints
type BankingHandler struct {
	BaseHandler
	transactions   *bankingapp.TransactionService
	reconciliation *bankingapp.ReconciliationService
}

// NewBankingHandler creates a BankingHandler
func NewBankingHandler(transactions *bankingapp.TransactionService, reconciliation *bankingapp.ReconciliationService) *BankingHandler {
	return &BankingHandler{transactions: transactions, reconciliation: reconciliation}
}

// ImportTransactions ingests a batch of bank feed lines
func (h *BankingHandler) ImportTransactions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}

	var req ImportTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines := make([]bankingapp.TransactionImport, len(req.Lines))
	for i, line := range req.Lines {
		amount, err := parseMoney(line.Amount, req.Currency)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		lines[i] = bankingapp.TransactionImport{
			ExternalID:   line.ExternalID,
			Amount:       amount,
			Date:         line.Date,
			Name:         line.Name,
			MerchantName: line.MerchantName,
			Reference:    line.Reference,
		}
	}

	txns, err := h.transactions.ImportTransactions(c.Request.Context(), tenantID, uuid.MustParse(req.AccountID), lines)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTransactionResponses(txns))
}

// GetTransaction retrieves one bank transaction
func (h *BankingHandler) GetTransaction(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	transactionID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	txn, err := h.transactions.GetTransaction(c.Request.Context(), tenantID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransactionResponse(txn))
}

// ListTransactions lists bank transactions with filters and pagination
func (h *BankingHandler) ListTransactions(c *gin.Context) {
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

	filter := banking.TransactionFilter{Filter: listReq.ToFilter()}
	if raw := c.Query("account_id"); raw != "" {
		accountID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "account_id is not a valid UUID")
			return
		}
		filter.AccountID = &accountID
	}
	filter.Unreconciled = c.Query("unreconciled") == "true"
	if raw := c.Query("ignored"); raw != "" {
		ignored := raw == "true"
		filter.Ignored = &ignored
	}

	page, err := h.transactions.ListTransactions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toTransactionResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetMatches returns scored reconciliation candidates for a transaction
func (h *BankingHandler) GetMatches(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	transactionID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	suggestions, err := h.reconciliation.GetSuggestedMatches(c.Request.Context(), tenantID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSuggestionResponses(suggestions))
}

// ReconcileWithPayment links a transaction to a payment
func (h *BankingHandler) ReconcileWithPayment(c *gin.Context) {
	var req ReconcilePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(tenantID, transactionID uuid.UUID) error {
		return h.reconciliation.ReconcileWithPayment(c.Request.Context(), tenantID, transactionID, uuid.MustParse(req.PaymentID))
	})
}

// ReconcileWithExpense links a transaction to an expense
func (h *BankingHandler) ReconcileWithExpense(c *gin.Context) {
	var req ReconcileExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(tenantID, transactionID uuid.UUID) error {
		return h.reconciliation.ReconcileWithExpense(c.Request.Context(), tenantID, transactionID, uuid.MustParse(req.ExpenseID))
	})
}

// Unreconcile clears a transaction's reconciliation link
func (h *BankingHandler) Unreconcile(c *gin.Context) {
	h.mutate(c, func(tenantID, transactionID uuid.UUID) error {
		return h.reconciliation.Unreconcile(c.Request.Context(), tenantID, transactionID)
	})
}

// AutoReconcile matches one transaction unattended
func (h *BankingHandler) AutoReconcile(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	transactionID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	match, err := h.reconciliation.AutoReconcile(c.Request.Context(), tenantID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSuggestionResponses([]banking.MatchSuggestion{*match})[0])
}

// AutoReconcileAll sweeps every reconcilable transaction on an account
func (h *BankingHandler) AutoReconcileAll(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	accountID, ok := h.parseUUIDParam(c, "accountId")
	if !ok {
		return
	}

	outcomes, err := h.reconciliation.AutoReconcileAll(c.Request.Context(), tenantID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOutcomeResponses(outcomes))
}

// CreatePaymentFromTransaction materializes a payment from an inflow
func (h *BankingHandler) CreatePaymentFromTransaction(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	transactionID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CreatePaymentFromTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.reconciliation.CreatePaymentFromTransaction(c.Request.Context(), tenantID, transactionID,
		uuid.MustParse(req.ClientID), req.ClientName, billing.PaymentMethod(req.Method))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResponse(payment))
}

// CreateExpenseFromTransaction materializes an expense from an outflow
func (h *BankingHandler) CreateExpenseFromTransaction(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	transactionID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateExpenseFromTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	expense, err := h.reconciliation.CreateExpenseFromTransaction(c.Request.Context(), tenantID, transactionID,
		req.VendorName, req.Category)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toExpenseResponse(expense))
}

// Ignore excludes a transaction from reconciliation workflows
func (h *BankingHandler) Ignore(c *gin.Context) {
	h.mutate(c, func(tenantID, transactionID uuid.UUID) error {
		return h.reconciliation.Ignore(c.Request.Context(), tenantID, transactionID)
	})
}

// Unignore returns an ignored transaction to the queue
func (h *BankingHandler) Unignore(c *gin.Context) {
	h.mutate(c, func(tenantID, transactionID uuid.UUID) error {
		return h.reconciliation.Unignore(c.Request.Context(), tenantID, transactionID)
	})
}

// CreateExpense records a standalone expense
func (h *BankingHandler) CreateExpense(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	expense, err := h.transactions.CreateExpense(c.Request.Context(), tenantID, bankingapp.CreateExpenseInput{
		VendorName:  req.VendorName,
		Amount:      amount,
		ExpenseDate: req.ExpenseDate,
		Category:    req.Category,
		Reference:   req.Reference,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toExpenseResponse(expense))
}

// GetExpense retrieves one expense
func (h *BankingHandler) GetExpense(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	expenseID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	expense, err := h.transactions.GetExpense(c.Request.Context(), tenantID, expenseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toExpenseResponse(expense))
}

// ListExpenses lists expenses with filters and pagination
func (h *BankingHandler) ListExpenses(c *gin.Context) {
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

	filter := banking.ExpenseFilter{Filter: listReq.ToFilter()}
	if raw := c.Query("category"); raw != "" {
		filter.Category = &raw
	}
	filter.Unreconciled = c.Query("unreconciled") == "true"

	page, err := h.transactions.ListExpenses(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toExpenseResponses(page.Items), page.Total, page.Page, page.PageSize)
}

func (h *BankingHandler) mutate(c *gin.Context, op func(tenantID, transactionID uuid.UUID) error) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Tenant could not be resolved")
		return
	}
	transactionID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := op(tenantID, transactionID); err != nil {
		h.HandleError(c, err)
		return
	}

	txn, err := h.transactions.GetTransaction(c.Request.Context(), tenantID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransactionResponse(txn))
}

// RegisterRoutes registers all banking routes
func (h *BankingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/bank-transactions")
	{
		transactions.GET("", h.ListTransactions)
		transactions.POST("/import", h.ImportTransactions)
		transactions.GET("/:id", h.GetTransaction)
		transactions.GET("/:id/matches", h.GetMatches)
		transactions.POST("/:id/reconcile/payment", h.ReconcileWithPayment)
		transactions.POST("/:id/reconcile/expense", h.ReconcileWithExpense)
		transactions.POST("/:id/unreconcile", h.Unreconcile)
		transactions.POST("/:id/auto-reconcile", h.AutoReconcile)
		transactions.POST("/:id/create-payment", h.CreatePaymentFromTransaction)
		transactions.POST("/:id/create-expense", h.CreateExpenseFromTransaction)
		transactions.POST("/:id/ignore", h.Ignore)
		transactions.POST("/:id/unignore", h.Unignore)
	}

	accounts := rg.Group("/bank-accounts")
	{
		accounts.POST("/:accountId/auto-reconcile", h.AutoReconcileAll)
	}

	expenses := rg.Group("/expenses")
	{
		expenses.GET("", h.ListExpenses)
		expenses.POST("", h.CreateExpense)
		expenses.GET("/:id", h.GetExpense)
	}
}
