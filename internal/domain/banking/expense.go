package banking

import (
	"time"

	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// Expense is a money-out record matched against outflow bank transactions.
// Amount is stored positive; direction is implied by the record type.
type Expense struct {
	shared.TenantAggregateRoot
	VendorName   string
	Amount       valueobject.Money
	ExpenseDate  time.Time
	Category     string
	Reference    string
	Description  string
	IsReconciled bool
}

// NewExpense creates an unreconciled expense
func NewExpense(tenantID uuid.UUID, vendorName string, amount valueobject.Money, expenseDate time.Time, category, reference string) (*Expense, error) {
	if vendorName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vendor name is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}

	e := &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VendorName:          vendorName,
		Amount:              amount,
		ExpenseDate:         expenseDate,
		Category:            category,
		Reference:           reference,
	}

	e.AddDomainEvent(NewExpenseRecordedEvent(e))
	return e, nil
}

// MarkReconciled flags the expense as matched to a bank transaction
func (e *Expense) MarkReconciled() error {
	if e.IsReconciled {
		return ErrAlreadyReconciled
	}
	e.IsReconciled = true
	e.IncrementVersion()
	e.Touch()
	return nil
}

// MarkUnreconciled clears the reconciliation flag
func (e *Expense) MarkUnreconciled() error {
	if !e.IsReconciled {
		return ErrNotReconciled
	}
	e.IsReconciled = false
	e.IncrementVersion()
	e.Touch()
	return nil
}
