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

func createTestInvoice(t *testing.T, total string) *Invoice {
	t.Helper()
	due := time.Now().Add(30 * 24 * time.Hour)
	inv, err := NewInvoice(uuid.New(), "INV-2026-0001", uuid.New(), "Acme Networks", valueobject.USD, &due)
	require.NoError(t, err)
	require.NoError(t, inv.AddLineItem("Managed services", decimal.NewFromInt(1), usd(t, total), decimal.Zero, decimal.Zero))
	require.NoError(t, inv.Send())
	return inv
}

func usd(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	return m
}

func TestNewInvoice_Validation(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		clientID uuid.UUID
		currency valueobject.Currency
		wantErr  bool
	}{
		{name: "valid", number: "INV-1", clientID: uuid.New(), currency: valueobject.USD},
		{name: "missing number", number: "", clientID: uuid.New(), currency: valueobject.USD, wantErr: true},
		{name: "missing client", number: "INV-1", clientID: uuid.Nil, currency: valueobject.USD, wantErr: true},
		{name: "bad currency", number: "INV-1", clientID: uuid.New(), currency: "XYZ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := NewInvoice(uuid.New(), tt.number, tt.clientID, "Client", tt.currency, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, InvoiceStatusDraft, inv.Status)
			assert.True(t, inv.TotalAmount.IsZero())
			assert.Len(t, inv.GetDomainEvents(), 1)
		})
	}
}

func TestInvoice_LineItemTotals(t *testing.T) {
	inv, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), "Client", valueobject.USD, nil)
	require.NoError(t, err)

	// 3 x 100.00 with 10% discount and 8.25% tax:
	// subtotal 300.00, discount 30.00, taxable 270.00, tax 22.275
	require.NoError(t, inv.AddLineItem("Workstations", decimal.NewFromInt(3), usd(t, "100.00"),
		decimal.NewFromInt(10), decimal.RequireFromString("8.25")))

	assert.Equal(t, "300.00", inv.Subtotal.StringFixed())
	assert.Equal(t, "30.00", inv.DiscountTotal.StringFixed())
	assert.Equal(t, "22.28", inv.TaxTotal.StringFixed())
	assert.Equal(t, "292.28", inv.TotalAmount.StringFixed())
	assert.Equal(t, "292.28", inv.BalanceAmount.StringFixed())
}

func TestInvoice_AmendmentForbiddenWithActiveAllocations(t *testing.T) {
	inv := createTestInvoice(t, "100.00")
	require.NoError(t, inv.ApplyAllocation(usd(t, "25.00")))

	err := inv.AddLineItem("Extra", decimal.NewFromInt(1), usd(t, "10.00"), decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvoiceLocked)

	// Releasing the allocation unlocks amendment again.
	require.NoError(t, inv.ReleaseAllocation(usd(t, "25.00")))
	assert.NoError(t, inv.AddLineItem("Extra", decimal.NewFromInt(1), usd(t, "10.00"), decimal.Zero, decimal.Zero))
}

func TestInvoice_ApplyAllocation(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T) *Invoice
		amount     string
		wantErr    error
		wantStatus InvoiceStatus
	}{
		{
			name:       "partial payment",
			setup:      func(t *testing.T) *Invoice { return createTestInvoice(t, "100.00") },
			amount:     "40.00",
			wantStatus: InvoiceStatusPartial,
		},
		{
			name:       "full payment",
			setup:      func(t *testing.T) *Invoice { return createTestInvoice(t, "100.00") },
			amount:     "100.00",
			wantStatus: InvoiceStatusPaid,
		},
		{
			name:    "exceeds balance",
			setup:   func(t *testing.T) *Invoice { return createTestInvoice(t, "100.00") },
			amount:  "100.01",
			wantErr: ErrExceedsBalance,
		},
		{
			name:    "zero amount",
			setup:   func(t *testing.T) *Invoice { return createTestInvoice(t, "100.00") },
			amount:  "0",
			wantErr: ErrInvalidAmount,
		},
		{
			name: "draft invoice rejects allocation",
			setup: func(t *testing.T) *Invoice {
				inv, err := NewInvoice(uuid.New(), "INV-2", uuid.New(), "Client", valueobject.USD, nil)
				require.NoError(t, err)
				require.NoError(t, inv.AddLineItem("Item", decimal.NewFromInt(1), usd(t, "100.00"), decimal.Zero, decimal.Zero))
				return inv
			},
			amount:  "10.00",
			wantErr: ErrInvoiceNotPayable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := tt.setup(t)
			err := inv.ApplyAllocation(usd(t, tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, inv.Status)
			assert.Equal(t, tt.amount, inv.PaidAmount.StringFixed())
		})
	}
}

func TestInvoice_PaidSetsPaidAt(t *testing.T) {
	inv := createTestInvoice(t, "50.00")
	require.NoError(t, inv.ApplyAllocation(usd(t, "50.00")))
	require.NotNil(t, inv.PaidAt)

	require.NoError(t, inv.ReleaseAllocation(usd(t, "50.00")))
	assert.Nil(t, inv.PaidAt)
	assert.Equal(t, InvoiceStatusSent, inv.Status)
}

func TestInvoice_ReleaseMoreThanPaid(t *testing.T) {
	inv := createTestInvoice(t, "100.00")
	require.NoError(t, inv.ApplyAllocation(usd(t, "30.00")))

	err := inv.ReleaseAllocation(usd(t, "31.00"))
	require.Error(t, err)
	assert.True(t, shared.IsIntegrity(err))
	// The failed release must not disturb recorded amounts.
	assert.Equal(t, "30.00", inv.PaidAmount.StringFixed())
}

func TestComputeBalance(t *testing.T) {
	balance, err := ComputeBalance(usd(t, "100.00"), usd(t, "40.00"))
	require.NoError(t, err)
	assert.Equal(t, "60.00", balance.StringFixed())

	_, err = ComputeBalance(usd(t, "100.00"), usd(t, "100.01"))
	assert.ErrorIs(t, err, ErrNegativeBalance)
}

func TestInvoice_Cancel(t *testing.T) {
	inv := createTestInvoice(t, "100.00")
	require.NoError(t, inv.Cancel("duplicate"))
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)

	paid := createTestInvoice(t, "100.00")
	require.NoError(t, paid.ApplyAllocation(usd(t, "10.00")))
	assert.Error(t, paid.Cancel("should fail"))
}

func TestInvoice_MarkOverdue(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	inv, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), "Client", valueobject.USD, &past)
	require.NoError(t, err)
	require.NoError(t, inv.AddLineItem("Item", decimal.NewFromInt(1), usd(t, "100.00"), decimal.Zero, decimal.Zero))
	require.NoError(t, inv.Send())

	require.NoError(t, inv.MarkOverdue(time.Now()))
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)
	assert.True(t, inv.CanAcceptAllocation())
}
