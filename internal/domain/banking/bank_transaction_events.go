package banking

import (
	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
)

// Banking event types
const (
	EventTransactionReconciled = "bank_transaction.reconciled"
	EventExpenseRecorded       = "expense.recorded"
)

// TransactionReconciledEvent is raised when a bank transaction is matched
// to a payment or expense
type TransactionReconciledEvent struct {
	shared.BaseDomainEvent
	CounterpartKind string    `json:"counterpart_kind"`
	CounterpartID   uuid.UUID `json:"counterpart_id"`
	Amount          string    `json:"amount"`
}

// NewTransactionReconciledEvent creates a TransactionReconciledEvent
func NewTransactionReconciledEvent(txn *BankTransaction, kind string, counterpartID uuid.UUID) *TransactionReconciledEvent {
	return &TransactionReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTransactionReconciled, "BankTransaction", txn.ID, txn.TenantID),
		CounterpartKind: kind,
		CounterpartID:   counterpartID,
		Amount:          txn.Amount.StringFixed(),
	}
}

// ExpenseRecordedEvent is raised when an expense is created
type ExpenseRecordedEvent struct {
	shared.BaseDomainEvent
	VendorName string `json:"vendor_name"`
	Amount     string `json:"amount"`
}

// NewExpenseRecordedEvent creates an ExpenseRecordedEvent
func NewExpenseRecordedEvent(e *Expense) *ExpenseRecordedEvent {
	return &ExpenseRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventExpenseRecorded, "Expense", e.ID, e.TenantID),
		VendorName:      e.VendorName,
		Amount:          e.Amount.StringFixed(),
	}
}
