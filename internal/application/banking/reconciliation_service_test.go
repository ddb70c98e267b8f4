package banking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/banking"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

type fakeStore struct {
	txns     map[uuid.UUID]*banking.BankTransaction
	expenses map[uuid.UUID]*banking.Expense
	payments map[uuid.UUID]*billing.Payment
	paySeq   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		txns:     make(map[uuid.UUID]*banking.BankTransaction),
		expenses: make(map[uuid.UUID]*banking.Expense),
		payments: make(map[uuid.UUID]*billing.Payment),
	}
}

type fakeUnitOfWork struct{ store *fakeStore }

func (u *fakeUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapTxns := make(map[uuid.UUID]*banking.BankTransaction, len(u.store.txns))
	for k, v := range u.store.txns {
		snapTxns[k] = v
	}
	snapExpenses := make(map[uuid.UUID]*banking.Expense, len(u.store.expenses))
	for k, v := range u.store.expenses {
		snapExpenses[k] = v
	}
	snapPayments := make(map[uuid.UUID]*billing.Payment, len(u.store.payments))
	for k, v := range u.store.payments {
		snapPayments[k] = v
	}

	if err := fn(ctx); err != nil {
		u.store.txns = snapTxns
		u.store.expenses = snapExpenses
		u.store.payments = snapPayments
		return err
	}
	return nil
}

type fakeTxnRepo struct{ store *fakeStore }

func (r *fakeTxnRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*banking.BankTransaction, error) {
	txn, ok := r.store.txns[id]
	if !ok || !txn.BelongsToTenant(tenantID) {
		return nil, shared.ErrNotFound
	}
	c := *txn
	return &c, nil
}

func (r *fakeTxnRepo) FindUnreconciledByAccount(_ context.Context, tenantID, accountID uuid.UUID) ([]*banking.BankTransaction, error) {
	var out []*banking.BankTransaction
	for _, txn := range r.store.txns {
		if txn.BelongsToTenant(tenantID) && txn.AccountID == accountID && txn.CanReconcile() {
			c := *txn
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeTxnRepo) FindReconciledPaymentIDs(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, txn := range r.store.txns {
		if txn.BelongsToTenant(tenantID) && txn.ReconciledPaymentID != nil {
			out = append(out, *txn.ReconciledPaymentID)
		}
	}
	return out, nil
}

func (r *fakeTxnRepo) List(_ context.Context, _ uuid.UUID, _ banking.TransactionFilter) (shared.Paginated[*banking.BankTransaction], error) {
	return shared.Paginated[*banking.BankTransaction]{}, nil
}

func (r *fakeTxnRepo) Save(_ context.Context, txn *banking.BankTransaction) error {
	c := *txn
	r.store.txns[txn.ID] = &c
	return nil
}

func (r *fakeTxnRepo) SaveWithLock(_ context.Context, txn *banking.BankTransaction) error {
	if _, ok := r.store.txns[txn.ID]; !ok {
		return shared.ErrNotFound
	}
	c := *txn
	r.store.txns[txn.ID] = &c
	return nil
}

type fakeExpenseRepo struct{ store *fakeStore }

func (r *fakeExpenseRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*banking.Expense, error) {
	e, ok := r.store.expenses[id]
	if !ok || !e.BelongsToTenant(tenantID) {
		return nil, shared.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (r *fakeExpenseRepo) FindUnreconciled(_ context.Context, tenantID uuid.UUID) ([]*banking.Expense, error) {
	var out []*banking.Expense
	for _, e := range r.store.expenses {
		if e.BelongsToTenant(tenantID) && !e.IsReconciled {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepo) List(_ context.Context, _ uuid.UUID, _ banking.ExpenseFilter) (shared.Paginated[*banking.Expense], error) {
	return shared.Paginated[*banking.Expense]{}, nil
}

func (r *fakeExpenseRepo) Save(_ context.Context, e *banking.Expense) error {
	c := *e
	r.store.expenses[e.ID] = &c
	return nil
}

func (r *fakeExpenseRepo) SaveWithLock(_ context.Context, e *banking.Expense) error {
	if _, ok := r.store.expenses[e.ID]; !ok {
		return shared.ErrNotFound
	}
	c := *e
	r.store.expenses[e.ID] = &c
	return nil
}

type fakePaymentRepo struct{ store *fakeStore }

func (r *fakePaymentRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	p, ok := r.store.payments[id]
	if !ok || !p.BelongsToTenant(tenantID) {
		return nil, shared.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakePaymentRepo) FindCompletedBetween(_ context.Context, tenantID uuid.UUID, from, to time.Time) ([]*billing.Payment, error) {
	var out []*billing.Payment
	for _, p := range r.store.payments {
		if p.BelongsToTenant(tenantID) && p.Status == billing.PaymentStatusCompleted &&
			!p.PaymentDate.Before(from) && !p.PaymentDate.After(to) {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) List(_ context.Context, _ uuid.UUID, _ billing.PaymentFilter) (shared.Paginated[*billing.Payment], error) {
	return shared.Paginated[*billing.Payment]{}, nil
}

func (r *fakePaymentRepo) Save(_ context.Context, p *billing.Payment) error {
	c := *p
	r.store.payments[p.ID] = &c
	return nil
}

func (r *fakePaymentRepo) SaveWithLock(_ context.Context, p *billing.Payment) error {
	if _, ok := r.store.payments[p.ID]; !ok {
		return shared.ErrNotFound
	}
	c := *p
	r.store.payments[p.ID] = &c
	return nil
}

func (r *fakePaymentRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	delete(r.store.payments, id)
	return nil
}

func (r *fakePaymentRepo) NextNumber(_ context.Context, _ uuid.UUID) (string, error) {
	r.store.paySeq++
	return "PAY-TEST", nil
}

type fixture struct {
	store   *fakeStore
	service *ReconciliationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	svc := NewReconciliationService(
		&fakeTxnRepo{store: store},
		&fakeExpenseRepo{store: store},
		&fakePaymentRepo{store: store},
		&fakeUnitOfWork{store: store},
		zap.NewNop(),
	)
	return &fixture{store: store, service: svc}
}

func usd(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	return m
}

func (f *fixture) addTransaction(t *testing.T, tenantID, accountID uuid.UUID, amount string, date time.Time, name string) *banking.BankTransaction {
	t.Helper()
	txn, err := banking.NewBankTransaction(tenantID, accountID, "ext_"+uuid.NewString()[:8],
		usd(t, amount), date, name, name, "")
	require.NoError(t, err)
	f.store.txns[txn.ID] = txn
	return txn
}

func (f *fixture) addCompletedPayment(t *testing.T, tenantID uuid.UUID, amount string, date time.Time, clientName string) *billing.Payment {
	t.Helper()
	p, err := billing.NewPayment(tenantID, "PAY-"+uuid.NewString()[:8], uuid.New(), clientName,
		usd(t, amount), billing.PaymentMethodBankTransfer, date)
	require.NoError(t, err)
	require.NoError(t, p.Complete("gw_1"))
	f.store.payments[p.ID] = p
	return p
}

func (f *fixture) addExpense(t *testing.T, tenantID uuid.UUID, amount string, date time.Time, vendor string) *banking.Expense {
	t.Helper()
	e, err := banking.NewExpense(tenantID, vendor, usd(t, amount), date, "Software", "")
	require.NoError(t, err)
	f.store.expenses[e.ID] = e
	return e
}

func TestReconciliationService_GetSuggestedMatches(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accountID := uuid.New()
	now := time.Now()
	f := newFixture(t)

	txn := f.addTransaction(t, tenantID, accountID, "250.00", now, "ACME NETWORKS")
	matching := f.addCompletedPayment(t, tenantID, "250.00", now, "Acme Networks")
	f.addCompletedPayment(t, tenantID, "99.00", now, "Acme Networks")

	// A payment already linked to another transaction is excluded.
	linked := f.addCompletedPayment(t, tenantID, "250.00", now, "Acme Networks")
	other := f.addTransaction(t, tenantID, accountID, "250.00", now, "ACME NETWORKS")
	require.NoError(t, f.service.ReconcileWithPayment(ctx, tenantID, other.ID, linked.ID))

	got, err := f.service.GetSuggestedMatches(ctx, tenantID, txn.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, matching.ID, got[0].Candidate.ID)
}

func TestReconciliationService_ReconcileWithPayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accountID := uuid.New()
	now := time.Now()
	f := newFixture(t)

	txn := f.addTransaction(t, tenantID, accountID, "250.00", now, "ACME")
	pay := f.addCompletedPayment(t, tenantID, "250.00", now, "Acme Networks")

	require.NoError(t, f.service.ReconcileWithPayment(ctx, tenantID, txn.ID, pay.ID))
	stored := f.store.txns[txn.ID]
	assert.True(t, stored.IsReconciled)
	require.NotNil(t, stored.ReconciledPaymentID)
	assert.Equal(t, pay.ID, *stored.ReconciledPaymentID)

	// Reconciling the same transaction again fails.
	err := f.service.ReconcileWithPayment(ctx, tenantID, txn.ID, pay.ID)
	assert.ErrorIs(t, err, banking.ErrAlreadyReconciled)
}

func TestReconciliationService_ReconcileWithExpense_MarksBothSides(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accountID := uuid.New()
	now := time.Now()
	f := newFixture(t)

	txn := f.addTransaction(t, tenantID, accountID, "-99.95", now, "DATTO")
	exp := f.addExpense(t, tenantID, "99.95", now, "Datto Inc")

	require.NoError(t, f.service.ReconcileWithExpense(ctx, tenantID, txn.ID, exp.ID))
	assert.True(t, f.store.txns[txn.ID].IsReconciled)
	assert.True(t, f.store.expenses[exp.ID].IsReconciled)

	// Unreconcile restores both sides.
	require.NoError(t, f.service.Unreconcile(ctx, tenantID, txn.ID))
	assert.False(t, f.store.txns[txn.ID].IsReconciled)
	assert.False(t, f.store.expenses[exp.ID].IsReconciled)
}

func TestReconciliationService_AutoReconcile(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accountID := uuid.New()
	now := time.Now()

	t.Run("single confident match reconciles", func(t *testing.T) {
		f := newFixture(t)
		txn := f.addTransaction(t, tenantID, accountID, "250.00", now, "ACME NETWORKS")
		pay := f.addCompletedPayment(t, tenantID, "250.00", now, "Acme Networks")

		match, err := f.service.AutoReconcile(ctx, tenantID, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, pay.ID, match.Candidate.ID)
		assert.True(t, f.store.txns[txn.ID].IsReconciled)
	})

	t.Run("ambiguous candidates mutate nothing", func(t *testing.T) {
		f := newFixture(t)
		txn := f.addTransaction(t, tenantID, accountID, "250.00", now, "")
		f.addCompletedPayment(t, tenantID, "250.00", now, "Client A")
		f.addCompletedPayment(t, tenantID, "250.00", now, "Client B")

		_, err := f.service.AutoReconcile(ctx, tenantID, txn.ID)
		assert.ErrorIs(t, err, ErrNoConfidentMatch)
		assert.False(t, f.store.txns[txn.ID].IsReconciled)
	})

	t.Run("no candidate in window mutates nothing", func(t *testing.T) {
		f := newFixture(t)
		txn := f.addTransaction(t, tenantID, accountID, "250.00", now, "ACME")
		f.addCompletedPayment(t, tenantID, "250.00", now.Add(-10*24*time.Hour), "Acme Networks")

		_, err := f.service.AutoReconcile(ctx, tenantID, txn.ID)
		assert.ErrorIs(t, err, ErrNoConfidentMatch)
	})
}

func TestReconciliationService_AutoReconcileAll(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accountID := uuid.New()
	now := time.Now()
	f := newFixture(t)

	clean := f.addTransaction(t, tenantID, accountID, "250.00", now, "ACME NETWORKS")
	f.addCompletedPayment(t, tenantID, "250.00", now, "Acme Networks")

	ambiguous := f.addTransaction(t, tenantID, accountID, "99.00", now, "")
	f.addCompletedPayment(t, tenantID, "99.00", now, "Client A")
	f.addCompletedPayment(t, tenantID, "99.00", now, "Client B")

	outcomes, err := f.service.AutoReconcileAll(ctx, tenantID, accountID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	byTxn := make(map[uuid.UUID]AutoReconcileOutcome)
	for _, o := range outcomes {
		byTxn[o.TransactionID] = o
	}
	assert.True(t, byTxn[clean.ID].Matched)
	assert.False(t, byTxn[ambiguous.ID].Matched)
	assert.Equal(t, "NO_CONFIDENT_MATCH", byTxn[ambiguous.ID].Reason)
	assert.False(t, f.store.txns[ambiguous.ID].IsReconciled)
}

func TestReconciliationService_CreatePaymentFromTransaction(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accountID := uuid.New()
	now := time.Now()
	f := newFixture(t)
	clientID := uuid.New()

	txn := f.addTransaction(t, tenantID, accountID, "500.00", now, "WIRE IN")

	pay, err := f.service.CreatePaymentFromTransaction(ctx, tenantID, txn.ID, clientID, "Acme Networks", billing.PaymentMethodBankTransfer)
	require.NoError(t, err)

	assert.Equal(t, billing.PaymentStatusCompleted, pay.Status)
	assert.Equal(t, "500.00", pay.Amount.StringFixed())
	stored := f.store.txns[txn.ID]
	require.NotNil(t, stored.ReconciledPaymentID)
	assert.Equal(t, pay.ID, *stored.ReconciledPaymentID)

	// Outflow transactions cannot become payments.
	out := f.addTransaction(t, tenantID, accountID, "-10.00", now, "FEE")
	_, err = f.service.CreatePaymentFromTransaction(ctx, tenantID, out.ID, clientID, "Acme", billing.PaymentMethodBankTransfer)
	assert.Error(t, err)
	assert.Empty(t, findPaymentsByAmount(f.store, "10.00"))
}

func TestReconciliationService_CreateExpenseFromTransaction(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accountID := uuid.New()
	now := time.Now()
	f := newFixture(t)

	txn := f.addTransaction(t, tenantID, accountID, "-99.95", now, "DATTO SUBSCRIPTION")

	exp, err := f.service.CreateExpenseFromTransaction(ctx, tenantID, txn.ID, "", "Software")
	require.NoError(t, err)

	assert.Equal(t, "99.95", exp.Amount.StringFixed())
	assert.Equal(t, "DATTO SUBSCRIPTION", exp.VendorName)
	assert.True(t, f.store.expenses[exp.ID].IsReconciled)
	stored := f.store.txns[txn.ID]
	require.NotNil(t, stored.ReconciledExpenseID)
	assert.Equal(t, exp.ID, *stored.ReconciledExpenseID)
}

func TestReconciliationService_IgnoreLifecycle(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	accountID := uuid.New()
	f := newFixture(t)

	txn := f.addTransaction(t, tenantID, accountID, "5.00", time.Now(), "BANK FEE REFUND")

	require.NoError(t, f.service.Ignore(ctx, tenantID, txn.ID))
	assert.True(t, f.store.txns[txn.ID].IsIgnored)

	// An ignored transaction cannot be reconciled.
	pay := f.addCompletedPayment(t, tenantID, "5.00", time.Now(), "Client")
	err := f.service.ReconcileWithPayment(ctx, tenantID, txn.ID, pay.ID)
	assert.ErrorIs(t, err, banking.ErrAlreadyReconciled)

	require.NoError(t, f.service.Unignore(ctx, tenantID, txn.ID))
	assert.NoError(t, f.service.ReconcileWithPayment(ctx, tenantID, txn.ID, pay.ID))
}

func findPaymentsByAmount(store *fakeStore, amount string) []*billing.Payment {
	var out []*billing.Payment
	for _, p := range store.payments {
		if p.Amount.StringFixed() == amount {
			out = append(out, p)
		}
	}
	return out
}
