package banking

import (
	"context"

	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
)

// TransactionFilter narrows bank transaction queries
type TransactionFilter struct {
	shared.Filter
	AccountID    *uuid.UUID
	Unreconciled bool
	Ignored      *bool
}

// ExpenseFilter narrows expense queries
type ExpenseFilter struct {
	shared.Filter
	Category     *string
	Unreconciled bool
}

// BankTransactionRepository persists BankTransaction aggregates. All
// lookups are tenant-scoped.
type BankTransactionRepository interface {
	// FindByID retrieves a transaction by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BankTransaction, error)
	// FindUnreconciledByAccount returns reconcilable transactions for an
	// account, oldest first
	FindUnreconciledByAccount(ctx context.Context, tenantID, accountID uuid.UUID) ([]*BankTransaction, error)
	// FindReconciledPaymentIDs returns the IDs of payments already linked
	// to a transaction, so matching can exclude them
	FindReconciledPaymentIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
	// List returns transactions matching the filter
	List(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) (shared.Paginated[*BankTransaction], error)
	// Save persists a new transaction
	Save(ctx context.Context, txn *BankTransaction) error
	// SaveWithLock persists an existing transaction with an optimistic
	// version check
	SaveWithLock(ctx context.Context, txn *BankTransaction) error
}

// ExpenseRepository persists Expense aggregates
type ExpenseRepository interface {
	// FindByID retrieves an expense by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)
	// FindUnreconciled returns expenses not yet matched to a transaction
	FindUnreconciled(ctx context.Context, tenantID uuid.UUID) ([]*Expense, error)
	// List returns expenses matching the filter
	List(ctx context.Context, tenantID uuid.UUID, filter ExpenseFilter) (shared.Paginated[*Expense], error)
	// Save persists a new expense
	Save(ctx context.Context, expense *Expense) error
	// SaveWithLock persists an existing expense with an optimistic version
	// check
	SaveWithLock(ctx context.Context, expense *Expense) error
}
