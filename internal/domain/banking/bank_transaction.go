package banking

import (
	"time"

	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// Banking validation errors
var (
	ErrAlreadyReconciled = shared.NewDomainError("ALREADY_RECONCILED", "Transaction is already reconciled or ignored")
	ErrNotReconciled     = shared.NewDomainError("INVALID_STATE", "Transaction is not reconciled")
	ErrIgnoredReconciled = shared.NewDomainError("INVALID_STATE", "Reconciled transactions cannot be ignored")
)

// BankTransaction is an imported bank feed line. Amount sign carries the
// direction: positive is money in, negative is money out. A transaction is
// reconciled against exactly one payment or exactly one expense, never
// both, and an ignored transaction cannot be reconciled until unignored.
type BankTransaction struct {
	shared.TenantAggregateRoot
	AccountID            uuid.UUID
	ExternalID           string
	Amount               valueobject.Money
	TransactionDate      time.Time
	Name                 string
	MerchantName         string
	Reference            string
	IsReconciled         bool
	IsIgnored            bool
	ReconciledPaymentID  *uuid.UUID
	ReconciledExpenseID  *uuid.UUID
	ReconciledAt         *time.Time
}

// NewBankTransaction creates an unreconciled transaction from feed data
func NewBankTransaction(tenantID, accountID uuid.UUID, externalID string, amount valueobject.Money, date time.Time, name, merchantName, reference string) (*BankTransaction, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Account ID is required")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction amount cannot be zero")
	}

	return &BankTransaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AccountID:           accountID,
		ExternalID:          externalID,
		Amount:              amount,
		TransactionDate:     date,
		Name:                name,
		MerchantName:        merchantName,
		Reference:           reference,
	}, nil
}

// IsInflow reports whether the transaction is money in
func (t *BankTransaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// IsOutflow reports whether the transaction is money out
func (t *BankTransaction) IsOutflow() bool {
	return t.Amount.IsNegative()
}

// CanReconcile reports whether the transaction may be reconciled
func (t *BankTransaction) CanReconcile() bool {
	return !t.IsReconciled && !t.IsIgnored
}

// ReconcileWithPayment links the transaction to a payment record
func (t *BankTransaction) ReconcileWithPayment(paymentID uuid.UUID) error {
	if !t.CanReconcile() {
		return ErrAlreadyReconciled
	}
	if paymentID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Payment ID is required")
	}
	now := time.Now()
	t.IsReconciled = true
	t.ReconciledPaymentID = &paymentID
	t.ReconciledExpenseID = nil
	t.ReconciledAt = &now
	t.IncrementVersion()
	t.Touch()
	t.AddDomainEvent(NewTransactionReconciledEvent(t, "payment", paymentID))
	return nil
}

// ReconcileWithExpense links the transaction to an expense record
func (t *BankTransaction) ReconcileWithExpense(expenseID uuid.UUID) error {
	if !t.CanReconcile() {
		return ErrAlreadyReconciled
	}
	if expenseID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Expense ID is required")
	}
	now := time.Now()
	t.IsReconciled = true
	t.ReconciledExpenseID = &expenseID
	t.ReconciledPaymentID = nil
	t.ReconciledAt = &now
	t.IncrementVersion()
	t.Touch()
	t.AddDomainEvent(NewTransactionReconciledEvent(t, "expense", expenseID))
	return nil
}

// Unreconcile clears the reconciliation link
func (t *BankTransaction) Unreconcile() error {
	if !t.IsReconciled {
		return ErrNotReconciled
	}
	t.IsReconciled = false
	t.ReconciledPaymentID = nil
	t.ReconciledExpenseID = nil
	t.ReconciledAt = nil
	t.IncrementVersion()
	t.Touch()
	return nil
}

// Ignore excludes the transaction from reconciliation workflows
func (t *BankTransaction) Ignore() error {
	if t.IsReconciled {
		return ErrIgnoredReconciled
	}
	if t.IsIgnored {
		return shared.NewDomainError("INVALID_STATE", "Transaction is already ignored")
	}
	t.IsIgnored = true
	t.IncrementVersion()
	t.Touch()
	return nil
}

// Unignore returns an ignored transaction to the reconciliation queue
func (t *BankTransaction) Unignore() error {
	if !t.IsIgnored {
		return shared.NewDomainError("INVALID_STATE", "Transaction is not ignored")
	}
	t.IsIgnored = false
	t.IncrementVersion()
	t.Touch()
	return nil
}
