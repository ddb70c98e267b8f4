package banking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/banking"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// TransactionImport is one bank feed line to ingest
type TransactionImport struct {
	ExternalID   string
	Amount       valueobject.Money
	Date         time.Time
	Name         string
	MerchantName string
	Reference    string
}

// CreateExpenseInput carries everything needed to record an expense
type CreateExpenseInput struct {
	VendorName  string
	Amount      valueobject.Money
	ExpenseDate time.Time
	Category    string
	Reference   string
}

// TransactionService handles bank feed ingestion and banking queries,
// leaving reconciliation decisions to ReconciliationService
type TransactionService struct {
	transactions banking.BankTransactionRepository
	expenses     banking.ExpenseRepository
	uow          shared.UnitOfWork
	logger       *zap.Logger
}

// NewTransactionService creates a TransactionService
func NewTransactionService(
	transactions banking.BankTransactionRepository,
	expenses banking.ExpenseRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		expenses:     expenses,
		uow:          uow,
		logger:       logger,
	}
}

// ImportTransactions ingests a batch of feed lines for an account in one
// transaction
func (s *TransactionService) ImportTransactions(ctx context.Context, tenantID, accountID uuid.UUID, lines []TransactionImport) ([]*banking.BankTransaction, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one transaction line is required")
	}

	var txns []*banking.BankTransaction
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		txns = make([]*banking.BankTransaction, 0, len(lines))
		for _, line := range lines {
			txn, err := banking.NewBankTransaction(tenantID, accountID, line.ExternalID,
				line.Amount, line.Date, line.Name, line.MerchantName, line.Reference)
			if err != nil {
				return err
			}
			if err := s.transactions.Save(ctx, txn); err != nil {
				return err
			}
			txns = append(txns, txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bank transactions imported",
		zap.String("account_id", accountID.String()),
		zap.Int("count", len(txns)))
	return txns, nil
}

// GetTransaction retrieves a bank transaction
func (s *TransactionService) GetTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*banking.BankTransaction, error) {
	return s.transactions.FindByID(ctx, tenantID, transactionID)
}

// ListTransactions returns transactions matching the filter
func (s *TransactionService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter banking.TransactionFilter) (shared.Paginated[*banking.BankTransaction], error) {
	return s.transactions.List(ctx, tenantID, filter)
}

// CreateExpense records an expense unrelated to any bank transaction
func (s *TransactionService) CreateExpense(ctx context.Context, tenantID uuid.UUID, input CreateExpenseInput) (*banking.Expense, error) {
	expense, err := banking.NewExpense(tenantID, input.VendorName, input.Amount, input.ExpenseDate, input.Category, input.Reference)
	if err != nil {
		return nil, err
	}
	if err := s.expenses.Save(ctx, expense); err != nil {
		return nil, err
	}

	s.logger.Info("expense recorded",
		zap.String("vendor", expense.VendorName),
		zap.String("amount", expense.Amount.StringFixed()))
	return expense, nil
}

// GetExpense retrieves an expense
func (s *TransactionService) GetExpense(ctx context.Context, tenantID, expenseID uuid.UUID) (*banking.Expense, error) {
	return s.expenses.FindByID(ctx, tenantID, expenseID)
}

// ListExpenses returns expenses matching the filter
func (s *TransactionService) ListExpenses(ctx context.Context, tenantID uuid.UUID, filter banking.ExpenseFilter) (shared.Paginated[*banking.Expense], error) {
	return s.expenses.List(ctx, tenantID, filter)
}
