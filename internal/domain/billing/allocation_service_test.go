package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

func createTenantInvoice(t *testing.T, tenantID uuid.UUID, number, total string, due time.Time) *Invoice {
	t.Helper()
	inv, err := NewInvoice(tenantID, number, uuid.New(), "Acme Networks", valueobject.USD, &due)
	require.NoError(t, err)
	require.NoError(t, inv.AddLineItem("Services", decimal.NewFromInt(1), usd(t, total), decimal.Zero, decimal.Zero))
	require.NoError(t, inv.Send())
	return inv
}

func createTenantPayment(t *testing.T, tenantID uuid.UUID, amount string) *Payment {
	t.Helper()
	p, err := NewPayment(tenantID, "PAY-1", uuid.New(), "Acme Networks",
		usd(t, amount), PaymentMethodBankTransfer, time.Now())
	require.NoError(t, err)
	require.NoError(t, p.Complete("txn_1"))
	return p
}

func TestAllocationLedger_Apply(t *testing.T) {
	tenantID := uuid.New()
	ledger := NewAllocationLedger()

	t.Run("updates both aggregates and creates application", func(t *testing.T) {
		payment := createTenantPayment(t, tenantID, "100.00")
		invoice := createTenantInvoice(t, tenantID, "INV-1", "60.00", time.Now())

		app, err := ledger.Apply(payment, invoice, usd(t, "60.00"))
		require.NoError(t, err)
		assert.True(t, app.IsActive)
		assert.Equal(t, payment.ID, app.PaymentID)
		assert.Equal(t, invoice.ID, app.InvoiceID)
		assert.Equal(t, "40.00", payment.UnallocatedAmount.StringFixed())
		assert.Equal(t, InvoiceStatusPaid, invoice.Status)
	})

	t.Run("exceeding payment funds leaves aggregates untouched", func(t *testing.T) {
		payment := createTenantPayment(t, tenantID, "50.00")
		invoice := createTenantInvoice(t, tenantID, "INV-2", "100.00", time.Now())

		_, err := ledger.Apply(payment, invoice, usd(t, "50.01"))
		assert.ErrorIs(t, err, ErrExceedsPayment)
		assert.Equal(t, "50.00", payment.UnallocatedAmount.StringFixed())
		assert.True(t, invoice.PaidAmount.IsZero())
	})

	t.Run("exceeding invoice balance leaves aggregates untouched", func(t *testing.T) {
		payment := createTenantPayment(t, tenantID, "200.00")
		invoice := createTenantInvoice(t, tenantID, "INV-3", "100.00", time.Now())

		_, err := ledger.Apply(payment, invoice, usd(t, "100.01"))
		assert.ErrorIs(t, err, ErrExceedsBalance)
		assert.Equal(t, "200.00", payment.UnallocatedAmount.StringFixed())
		assert.True(t, invoice.PaidAmount.IsZero())
	})

	t.Run("cross-tenant pair reads as not found", func(t *testing.T) {
		payment := createTenantPayment(t, tenantID, "100.00")
		invoice := createTenantInvoice(t, uuid.New(), "INV-4", "100.00", time.Now())

		_, err := ledger.Apply(payment, invoice, usd(t, "10.00"))
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestAllocationLedger_Void(t *testing.T) {
	tenantID := uuid.New()
	ledger := NewAllocationLedger()
	payment := createTenantPayment(t, tenantID, "100.00")
	invoice := createTenantInvoice(t, tenantID, "INV-1", "100.00", time.Now())

	app, err := ledger.Apply(payment, invoice, usd(t, "100.00"))
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPaid, invoice.Status)

	require.NoError(t, ledger.Void(app, payment, invoice, "applied to wrong invoice"))

	assert.False(t, app.IsActive)
	assert.NotNil(t, app.VoidedAt)
	assert.Equal(t, "100.00", payment.UnallocatedAmount.StringFixed())
	assert.Equal(t, "100.00", invoice.BalanceAmount.StringFixed())
	assert.NotEqual(t, InvoiceStatusPaid, invoice.Status)

	// Voiding twice is rejected.
	assert.Error(t, ledger.Void(app, payment, invoice, "again"))
}

func TestAllocationLedger_VoidMismatchedReferences(t *testing.T) {
	tenantID := uuid.New()
	ledger := NewAllocationLedger()
	payment := createTenantPayment(t, tenantID, "100.00")
	invoice := createTenantInvoice(t, tenantID, "INV-1", "100.00", time.Now())
	other := createTenantInvoice(t, tenantID, "INV-2", "100.00", time.Now())

	app, err := ledger.Apply(payment, invoice, usd(t, "50.00"))
	require.NoError(t, err)

	err = ledger.Void(app, payment, other, "wrong invoice")
	require.Error(t, err)
	assert.True(t, shared.IsIntegrity(err))
	assert.True(t, app.IsActive)
}

func TestPlanDistribution_OldestFirst(t *testing.T) {
	tenantID := uuid.New()
	ledger := NewAllocationLedger()
	payment := createTenantPayment(t, tenantID, "70.00")

	older := createTenantInvoice(t, tenantID, "INV-1", "40.00", time.Now().Add(-48*time.Hour))
	newer := createTenantInvoice(t, tenantID, "INV-2", "60.00", time.Now().Add(-24*time.Hour))

	// Caller order does not matter; due dates decide.
	plan, err := ledger.PlanDistribution(payment, []*Invoice{newer, older}, StrategyOldestFirst)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	assert.Equal(t, older.ID, plan[0].InvoiceID)
	assert.Equal(t, "40.00", plan[0].Amount.StringFixed())
	assert.Equal(t, newer.ID, plan[1].InvoiceID)
	assert.Equal(t, "30.00", plan[1].Amount.StringFixed())
}

func TestPlanDistribution_OldestFirst_NilDueDatesLast(t *testing.T) {
	tenantID := uuid.New()
	ledger := NewAllocationLedger()
	payment := createTenantPayment(t, tenantID, "50.00")

	noDue, err := NewInvoice(tenantID, "INV-1", uuid.New(), "Client", valueobject.USD, nil)
	require.NoError(t, err)
	require.NoError(t, noDue.AddLineItem("Item", decimal.NewFromInt(1), usd(t, "40.00"), decimal.Zero, decimal.Zero))
	require.NoError(t, noDue.Send())

	withDue := createTenantInvoice(t, tenantID, "INV-2", "40.00", time.Now())

	plan, err := ledger.PlanDistribution(payment, []*Invoice{noDue, withDue}, StrategyOldestFirst)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, withDue.ID, plan[0].InvoiceID)
	assert.Equal(t, "40.00", plan[0].Amount.StringFixed())
	assert.Equal(t, noDue.ID, plan[1].InvoiceID)
	assert.Equal(t, "10.00", plan[1].Amount.StringFixed())
}

func TestPlanDistribution_Even(t *testing.T) {
	tenantID := uuid.New()
	ledger := NewAllocationLedger()
	payment := createTenantPayment(t, tenantID, "90.00")

	a := createTenantInvoice(t, tenantID, "INV-1", "100.00", time.Now().Add(-48*time.Hour))
	b := createTenantInvoice(t, tenantID, "INV-2", "100.00", time.Now().Add(-24*time.Hour))
	c := createTenantInvoice(t, tenantID, "INV-3", "10.00", time.Now())

	plan, err := ledger.PlanDistribution(payment, []*Invoice{a, b, c}, StrategyEven)
	require.NoError(t, err)

	total := valueobject.ZeroUSD()
	byInvoice := make(map[uuid.UUID]string)
	for _, p := range plan {
		total = total.MustAdd(p.Amount)
		byInvoice[p.InvoiceID] = p.Amount.StringFixed()
	}

	// 90 split three ways is 30 each, but INV-3 caps at 10; its surplus
	// sweeps to the oldest invoice.
	assert.Equal(t, "90.00", total.StringFixed())
	assert.Equal(t, "10.00", byInvoice[c.ID])
	assert.Equal(t, "50.00", byInvoice[a.ID])
	assert.Equal(t, "30.00", byInvoice[b.ID])
}

func TestPlanDistribution_SkipsClosedInvoices(t *testing.T) {
	tenantID := uuid.New()
	ledger := NewAllocationLedger()
	payment := createTenantPayment(t, tenantID, "100.00")

	open := createTenantInvoice(t, tenantID, "INV-1", "100.00", time.Now())
	paid := createTenantInvoice(t, tenantID, "INV-2", "20.00", time.Now())
	require.NoError(t, paid.ApplyAllocation(usd(t, "20.00")))

	plan, err := ledger.PlanDistribution(payment, []*Invoice{paid, open}, StrategyOldestFirst)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, open.ID, plan[0].InvoiceID)
}
