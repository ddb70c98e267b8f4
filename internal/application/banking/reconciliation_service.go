package banking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/banking"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
)

// ErrNoConfidentMatch is returned when auto-reconciliation finds nothing it
// can act on without a human. Ambiguity counts as no match.
var ErrNoConfidentMatch = shared.NewDomainError("NO_CONFIDENT_MATCH", "No single candidate meets the auto-match bar")

// AutoReconcileOutcome reports what a bulk sweep did with one transaction
type AutoReconcileOutcome struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Matched       bool      `json:"matched"`
	Kind          string    `json:"kind,omitempty"`
	CounterpartID uuid.UUID `json:"counterpart_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// ReconciliationService orchestrates matching bank transactions to payment
// and expense records
type ReconciliationService struct {
	transactions banking.BankTransactionRepository
	expenses     banking.ExpenseRepository
	payments     billing.PaymentRepository
	matcher      *banking.TransactionMatcher
	uow          shared.UnitOfWork
	logger       *zap.Logger
}

// NewReconciliationService creates a ReconciliationService
func NewReconciliationService(
	transactions banking.BankTransactionRepository,
	expenses banking.ExpenseRepository,
	payments billing.PaymentRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		transactions: transactions,
		expenses:     expenses,
		payments:     payments,
		matcher:      banking.NewTransactionMatcher(),
		uow:          uow,
		logger:       logger,
	}
}

// GetSuggestedMatches returns scored candidates for a transaction without
// changing anything
func (s *ReconciliationService) GetSuggestedMatches(ctx context.Context, tenantID, transactionID uuid.UUID) ([]banking.MatchSuggestion, error) {
	txn, err := s.transactions.FindByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.collectCandidates(ctx, tenantID, txn)
	if err != nil {
		return nil, err
	}
	return s.matcher.SuggestMatches(txn, candidates), nil
}

// collectCandidates gathers unreconciled payments or expenses around the
// transaction date, depending on direction
func (s *ReconciliationService) collectCandidates(ctx context.Context, tenantID uuid.UUID, txn *banking.BankTransaction) ([]banking.MatchCandidate, error) {
	window := banking.MatchWindowDays * 24 * time.Hour
	from := txn.TransactionDate.Add(-window)
	to := txn.TransactionDate.Add(window)

	if txn.IsInflow() {
		completed, err := s.payments.FindCompletedBetween(ctx, tenantID, from, to)
		if err != nil {
			return nil, err
		}
		takenIDs, err := s.transactions.FindReconciledPaymentIDs(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		taken := make(map[uuid.UUID]struct{}, len(takenIDs))
		for _, id := range takenIDs {
			taken[id] = struct{}{}
		}

		candidates := make([]banking.MatchCandidate, 0, len(completed))
		for _, p := range completed {
			if _, linked := taken[p.ID]; linked {
				continue
			}
			candidates = append(candidates, banking.MatchCandidate{
				ID:        p.ID,
				Kind:      banking.CandidatePayment,
				Amount:    p.Amount,
				Date:      p.PaymentDate,
				Name:      p.ClientName,
				Reference: p.PaymentNumber,
			})
		}
		return candidates, nil
	}

	unreconciled, err := s.expenses.FindUnreconciled(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	candidates := make([]banking.MatchCandidate, 0, len(unreconciled))
	for _, e := range unreconciled {
		candidates = append(candidates, banking.MatchCandidate{
			ID:        e.ID,
			Kind:      banking.CandidateExpense,
			Amount:    e.Amount,
			Date:      e.ExpenseDate,
			Name:      e.VendorName,
			Reference: e.Reference,
		})
	}
	return candidates, nil
}

// ReconcileWithPayment links a transaction to a payment chosen by the user
func (s *ReconciliationService) ReconcileWithPayment(ctx context.Context, tenantID, transactionID, paymentID uuid.UUID) error {
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.FindByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		payment, err := s.payments.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != billing.PaymentStatusCompleted {
			return shared.NewDomainError("INVALID_STATE", "Only completed payments can be reconciled")
		}
		if err := txn.ReconcileWithPayment(payment.ID); err != nil {
			return err
		}
		return s.transactions.SaveWithLock(ctx, txn)
	})
	if err != nil {
		return err
	}

	s.logger.Info("transaction reconciled with payment",
		zap.String("transaction_id", transactionID.String()),
		zap.String("payment_id", paymentID.String()))
	return nil
}

// ReconcileWithExpense links a transaction to an expense, marking both sides
func (s *ReconciliationService) ReconcileWithExpense(ctx context.Context, tenantID, transactionID, expenseID uuid.UUID) error {
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.FindByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		expense, err := s.expenses.FindByID(ctx, tenantID, expenseID)
		if err != nil {
			return err
		}
		if err := expense.MarkReconciled(); err != nil {
			return err
		}
		if err := txn.ReconcileWithExpense(expense.ID); err != nil {
			return err
		}
		if err := s.expenses.SaveWithLock(ctx, expense); err != nil {
			return err
		}
		return s.transactions.SaveWithLock(ctx, txn)
	})
	if err != nil {
		return err
	}

	s.logger.Info("transaction reconciled with expense",
		zap.String("transaction_id", transactionID.String()),
		zap.String("expense_id", expenseID.String()))
	return nil
}

// Unreconcile clears a transaction's reconciliation link, unmarking the
// expense side when there is one
func (s *ReconciliationService) Unreconcile(ctx context.Context, tenantID, transactionID uuid.UUID) error {
	return s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.FindByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}

		if txn.ReconciledExpenseID != nil {
			expense, err := s.expenses.FindByID(ctx, tenantID, *txn.ReconciledExpenseID)
			if err != nil {
				return err
			}
			if err := expense.MarkUnreconciled(); err != nil {
				return err
			}
			if err := s.expenses.SaveWithLock(ctx, expense); err != nil {
				return err
			}
		}

		if err := txn.Unreconcile(); err != nil {
			return err
		}
		return s.transactions.SaveWithLock(ctx, txn)
	})
}

// AutoReconcile matches one transaction unattended. Anything short of a
// single confident candidate fails with ErrNoConfidentMatch and mutates
// nothing.
func (s *ReconciliationService) AutoReconcile(ctx context.Context, tenantID, transactionID uuid.UUID) (*banking.MatchSuggestion, error) {
	suggestions, err := s.GetSuggestedMatches(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}

	match := s.matcher.SelectAutoMatch(suggestions)
	if match == nil {
		return nil, ErrNoConfidentMatch
	}

	switch match.Candidate.Kind {
	case banking.CandidatePayment:
		err = s.ReconcileWithPayment(ctx, tenantID, transactionID, match.Candidate.ID)
	case banking.CandidateExpense:
		err = s.ReconcileWithExpense(ctx, tenantID, transactionID, match.Candidate.ID)
	}
	if err != nil {
		return nil, err
	}
	return match, nil
}

// AutoReconcileAll sweeps every reconcilable transaction on an account and
// reports what happened to each. A transaction that cannot be confidently
// matched is left alone, not treated as a failure of the sweep.
func (s *ReconciliationService) AutoReconcileAll(ctx context.Context, tenantID, accountID uuid.UUID) ([]AutoReconcileOutcome, error) {
	txns, err := s.transactions.FindUnreconciledByAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]AutoReconcileOutcome, 0, len(txns))
	for _, txn := range txns {
		match, err := s.AutoReconcile(ctx, tenantID, txn.ID)
		if err != nil {
			reason := err.Error()
			if de, ok := shared.AsDomainError(err); ok {
				reason = de.Code
			}
			outcomes = append(outcomes, AutoReconcileOutcome{TransactionID: txn.ID, Reason: reason})
			continue
		}
		outcomes = append(outcomes, AutoReconcileOutcome{
			TransactionID: txn.ID,
			Matched:       true,
			Kind:          string(match.Candidate.Kind),
			CounterpartID: match.Candidate.ID,
		})
	}

	s.logger.Info("auto-reconcile sweep finished",
		zap.String("account_id", accountID.String()),
		zap.Int("transactions", len(txns)))
	return outcomes, nil
}

// CreatePaymentFromTransaction materializes a payment record from an inflow
// transaction and reconciles the pair in one transaction
func (s *ReconciliationService) CreatePaymentFromTransaction(ctx context.Context, tenantID, transactionID, clientID uuid.UUID, clientName string, method billing.PaymentMethod) (*billing.Payment, error) {
	var payment *billing.Payment
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.FindByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		if !txn.CanReconcile() {
			return banking.ErrAlreadyReconciled
		}
		if !txn.IsInflow() {
			return shared.NewDomainError("INVALID_STATE", "Only inflow transactions can become payments")
		}

		number, err := s.payments.NextNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		payment, err = billing.NewPayment(tenantID, number, clientID, clientName, txn.Amount, method, txn.TransactionDate)
		if err != nil {
			return err
		}
		if err := payment.Complete(txn.ExternalID); err != nil {
			return err
		}
		if err := s.payments.Save(ctx, payment); err != nil {
			return err
		}

		if err := txn.ReconcileWithPayment(payment.ID); err != nil {
			return err
		}
		return s.transactions.SaveWithLock(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateExpenseFromTransaction materializes an expense record from an
// outflow transaction and reconciles the pair in one transaction
func (s *ReconciliationService) CreateExpenseFromTransaction(ctx context.Context, tenantID, transactionID uuid.UUID, vendorName, category string) (*banking.Expense, error) {
	var expense *banking.Expense
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.FindByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		if !txn.CanReconcile() {
			return banking.ErrAlreadyReconciled
		}
		if !txn.IsOutflow() {
			return shared.NewDomainError("INVALID_STATE", "Only outflow transactions can become expenses")
		}

		name := vendorName
		if name == "" {
			name = firstNonEmpty(txn.MerchantName, txn.Name)
		}
		expense, err = banking.NewExpense(tenantID, name, txn.Amount.Abs(), txn.TransactionDate, category, txn.Reference)
		if err != nil {
			return err
		}
		if err := expense.MarkReconciled(); err != nil {
			return err
		}
		if err := s.expenses.Save(ctx, expense); err != nil {
			return err
		}

		if err := txn.ReconcileWithExpense(expense.ID); err != nil {
			return err
		}
		return s.transactions.SaveWithLock(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// Ignore excludes a transaction from reconciliation workflows
func (s *ReconciliationService) Ignore(ctx context.Context, tenantID, transactionID uuid.UUID) error {
	return s.mutateTransaction(ctx, tenantID, transactionID, (*banking.BankTransaction).Ignore)
}

// Unignore returns an ignored transaction to the queue
func (s *ReconciliationService) Unignore(ctx context.Context, tenantID, transactionID uuid.UUID) error {
	return s.mutateTransaction(ctx, tenantID, transactionID, (*banking.BankTransaction).Unignore)
}

func (s *ReconciliationService) mutateTransaction(ctx context.Context, tenantID, transactionID uuid.UUID, op func(*banking.BankTransaction) error) error {
	return s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.FindByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		if err := op(txn); err != nil {
			return err
		}
		return s.transactions.SaveWithLock(ctx, txn)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
