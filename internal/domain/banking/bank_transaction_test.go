package banking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

func usd(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	return m
}

func createTestTransaction(t *testing.T, amount string) *BankTransaction {
	t.Helper()
	txn, err := NewBankTransaction(uuid.New(), uuid.New(), "plaid_txn_001",
		usd(t, amount), time.Now(), "ACME NETWORKS ACH", "Acme Networks", "INV-2026-0001")
	require.NoError(t, err)
	return txn
}

func TestNewBankTransaction_Validation(t *testing.T) {
	_, err := NewBankTransaction(uuid.New(), uuid.Nil, "x", usd(t, "10.00"), time.Now(), "", "", "")
	assert.Error(t, err)

	_, err = NewBankTransaction(uuid.New(), uuid.New(), "x", usd(t, "0"), time.Now(), "", "", "")
	assert.Error(t, err)
}

func TestBankTransaction_Direction(t *testing.T) {
	inflow := createTestTransaction(t, "250.00")
	assert.True(t, inflow.IsInflow())
	assert.False(t, inflow.IsOutflow())

	outflow := createTestTransaction(t, "-99.95")
	assert.True(t, outflow.IsOutflow())
	assert.False(t, outflow.IsInflow())
}

func TestBankTransaction_ReconcileWithPayment(t *testing.T) {
	txn := createTestTransaction(t, "250.00")
	paymentID := uuid.New()

	require.NoError(t, txn.ReconcileWithPayment(paymentID))
	assert.True(t, txn.IsReconciled)
	require.NotNil(t, txn.ReconciledPaymentID)
	assert.Equal(t, paymentID, *txn.ReconciledPaymentID)
	assert.Nil(t, txn.ReconciledExpenseID)
	assert.NotNil(t, txn.ReconciledAt)

	// Reconciling again, with either counterpart, is rejected.
	assert.ErrorIs(t, txn.ReconcileWithPayment(uuid.New()), ErrAlreadyReconciled)
	assert.ErrorIs(t, txn.ReconcileWithExpense(uuid.New()), ErrAlreadyReconciled)
}

func TestBankTransaction_ReconcileWithExpense(t *testing.T) {
	txn := createTestTransaction(t, "-99.95")
	expenseID := uuid.New()

	require.NoError(t, txn.ReconcileWithExpense(expenseID))
	require.NotNil(t, txn.ReconciledExpenseID)
	assert.Equal(t, expenseID, *txn.ReconciledExpenseID)
	assert.Nil(t, txn.ReconciledPaymentID)
}

func TestBankTransaction_Unreconcile(t *testing.T) {
	txn := createTestTransaction(t, "250.00")
	assert.ErrorIs(t, txn.Unreconcile(), ErrNotReconciled)

	require.NoError(t, txn.ReconcileWithPayment(uuid.New()))
	require.NoError(t, txn.Unreconcile())
	assert.False(t, txn.IsReconciled)
	assert.Nil(t, txn.ReconciledPaymentID)
	assert.Nil(t, txn.ReconciledAt)

	// After unreconciling, the transaction can be matched again.
	assert.NoError(t, txn.ReconcileWithExpense(uuid.New()))
}

func TestBankTransaction_IgnoreLifecycle(t *testing.T) {
	txn := createTestTransaction(t, "250.00")

	require.NoError(t, txn.Ignore())
	assert.True(t, txn.IsIgnored)
	assert.Error(t, txn.Ignore())

	// Ignored transactions cannot be reconciled.
	assert.ErrorIs(t, txn.ReconcileWithPayment(uuid.New()), ErrAlreadyReconciled)

	require.NoError(t, txn.Unignore())
	assert.NoError(t, txn.ReconcileWithPayment(uuid.New()))
	assert.Error(t, txn.Unignore())

	// Reconciled transactions cannot be ignored.
	assert.ErrorIs(t, txn.Ignore(), ErrIgnoredReconciled)
}

func TestExpense_ReconcileFlags(t *testing.T) {
	e, err := NewExpense(uuid.New(), "Datto Inc", usd(t, "99.95"), time.Now(), "Software", "SUB-441")
	require.NoError(t, err)

	assert.ErrorIs(t, e.MarkUnreconciled(), ErrNotReconciled)
	require.NoError(t, e.MarkReconciled())
	assert.ErrorIs(t, e.MarkReconciled(), ErrAlreadyReconciled)
	require.NoError(t, e.MarkUnreconciled())
	assert.False(t, e.IsReconciled)
}

func TestNewExpense_Validation(t *testing.T) {
	_, err := NewExpense(uuid.New(), "", usd(t, "10.00"), time.Now(), "", "")
	assert.Error(t, err)

	_, err = NewExpense(uuid.New(), "Vendor", usd(t, "-10.00"), time.Now(), "", "")
	assert.Error(t, err)
}
