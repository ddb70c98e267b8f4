package handler

import (
	"time"

	"github.com/shopspring/decimal"

	bankingapp "github.com/FoleyBridge-Solutions/nestogy-billing/internal/application/banking"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/banking"
)

// TransactionLineRequest is one bank feed line in an import request
type TransactionLineRequest struct {
	ExternalID   string          `json:"external_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Date         time.Time       `json:"date" binding:"required"`
	Name         string          `json:"name"`
	MerchantName string          `json:"merchant_name"`
	Reference    string          `json:"reference"`
}

// ImportTransactionsRequest is the payload for importing a feed batch
type ImportTransactionsRequest struct {
	AccountID string                   `json:"account_id" binding:"required,uuid"`
	Currency  string                   `json:"currency" binding:"required,len=3"`
	Lines     []TransactionLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReconcilePaymentRequest links a transaction to a payment
type ReconcilePaymentRequest struct {
	PaymentID string `json:"payment_id" binding:"required,uuid"`
}

// ReconcileExpenseRequest links a transaction to an expense
type ReconcileExpenseRequest struct {
	ExpenseID string `json:"expense_id" binding:"required,uuid"`
}

// CreatePaymentFromTransactionRequest materializes a payment from an inflow
type CreatePaymentFromTransactionRequest struct {
	ClientID   string `json:"client_id" binding:"required,uuid"`
	ClientName string `json:"client_name" binding:"required"`
	Method     string `json:"method" binding:"required"`
}

// CreateExpenseFromTransactionRequest materializes an expense from an outflow
type CreateExpenseFromTransactionRequest struct {
	VendorName string `json:"vendor_name"`
	Category   string `json:"category"`
}

// CreateExpenseRequest records a standalone expense
type CreateExpenseRequest struct {
	VendorName  string          `json:"vendor_name" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"required,len=3"`
	ExpenseDate time.Time       `json:"expense_date" binding:"required"`
	Category    string          `json:"category"`
	Reference   string          `json:"reference"`
}

// TransactionResponse is the API shape of a bank transaction
type TransactionResponse struct {
	ID                  string     `json:"id"`
	AccountID           string     `json:"account_id"`
	ExternalID          string     `json:"external_id"`
	Amount              string     `json:"amount"`
	Currency            string     `json:"currency"`
	TransactionDate     time.Time  `json:"transaction_date"`
	Name                string     `json:"name,omitempty"`
	MerchantName        string     `json:"merchant_name,omitempty"`
	Reference           string     `json:"reference,omitempty"`
	IsReconciled        bool       `json:"is_reconciled"`
	IsIgnored           bool       `json:"is_ignored"`
	ReconciledPaymentID *string    `json:"reconciled_payment_id,omitempty"`
	ReconciledExpenseID *string    `json:"reconciled_expense_id,omitempty"`
	ReconciledAt        *time.Time `json:"reconciled_at,omitempty"`
	Version             int        `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ExpenseResponse is the API shape of an expense
type ExpenseResponse struct {
	ID           string    `json:"id"`
	VendorName   string    `json:"vendor_name"`
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	ExpenseDate  time.Time `json:"expense_date"`
	Category     string    `json:"category,omitempty"`
	Reference    string    `json:"reference,omitempty"`
	Description  string    `json:"description,omitempty"`
	IsReconciled bool      `json:"is_reconciled"`
	CreatedAt    time.Time `json:"created_at"`
}

// SuggestionResponse is one scored match candidate
type SuggestionResponse struct {
	CandidateID string  `json:"candidate_id"`
	Kind        string  `json:"kind"`
	Amount      string  `json:"amount"`
	Name        string  `json:"name,omitempty"`
	Reference   string  `json:"reference,omitempty"`
	Score       float64 `json:"score"`
	Confidence  string  `json:"confidence"`
	DaysApart   int     `json:"days_apart"`
}

// OutcomeResponse reports one transaction's fate in a bulk sweep
type OutcomeResponse struct {
	TransactionID string `json:"transaction_id"`
	Matched       bool   `json:"matched"`
	Kind          string `json:"kind,omitempty"`
	CounterpartID string `json:"counterpart_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func toTransactionResponse(t *banking.BankTransaction) TransactionResponse {
	var paymentID, expenseID *string
	if t.ReconciledPaymentID != nil {
		s := t.ReconciledPaymentID.String()
		paymentID = &s
	}
	if t.ReconciledExpenseID != nil {
		s := t.ReconciledExpenseID.String()
		expenseID = &s
	}
	return TransactionResponse{
		ID:                  t.ID.String(),
		AccountID:           t.AccountID.String(),
		ExternalID:          t.ExternalID,
		Amount:              t.Amount.StringFixed(),
		Currency:            string(t.Amount.Currency()),
		TransactionDate:     t.TransactionDate,
		Name:                t.Name,
		MerchantName:        t.MerchantName,
		Reference:           t.Reference,
		IsReconciled:        t.IsReconciled,
		IsIgnored:           t.IsIgnored,
		ReconciledPaymentID: paymentID,
		ReconciledExpenseID: expenseID,
		ReconciledAt:        t.ReconciledAt,
		Version:             t.Version,
		CreatedAt:           t.CreatedAt,
	}
}

func toTransactionResponses(txns []*banking.BankTransaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		out[i] = toTransactionResponse(t)
	}
	return out
}

func toExpenseResponse(e *banking.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:           e.ID.String(),
		VendorName:   e.VendorName,
		Amount:       e.Amount.StringFixed(),
		Currency:     string(e.Amount.Currency()),
		ExpenseDate:  e.ExpenseDate,
		Category:     e.Category,
		Reference:    e.Reference,
		Description:  e.Description,
		IsReconciled: e.IsReconciled,
		CreatedAt:    e.CreatedAt,
	}
}

func toExpenseResponses(expenses []*banking.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	return out
}

func toSuggestionResponses(suggestions []banking.MatchSuggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, len(suggestions))
	for i, s := range suggestions {
		out[i] = SuggestionResponse{
			CandidateID: s.Candidate.ID.String(),
			Kind:        string(s.Candidate.Kind),
			Amount:      s.Candidate.Amount.StringFixed(),
			Name:        s.Candidate.Name,
			Reference:   s.Candidate.Reference,
			Score:       s.Score,
			Confidence:  string(s.Confidence),
			DaysApart:   s.DaysApart,
		}
	}
	return out
}

func toOutcomeResponses(outcomes []bankingapp.AutoReconcileOutcome) []OutcomeResponse {
	out := make([]OutcomeResponse, len(outcomes))
	for i, o := range outcomes {
		resp := OutcomeResponse{
			TransactionID: o.TransactionID.String(),
			Matched:       o.Matched,
			Kind:          o.Kind,
			Reason:        o.Reason,
		}
		if o.Matched {
			resp.CounterpartID = o.CounterpartID.String()
		}
		out[i] = resp
	}
	return out
}
