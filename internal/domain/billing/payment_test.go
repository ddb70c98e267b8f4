package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
)

func createTestPayment(t *testing.T, amount string) *Payment {
	t.Helper()
	p, err := NewPayment(uuid.New(), "PAY-2026-0001", uuid.New(), "Acme Networks",
		usd(t, amount), PaymentMethodBankTransfer, time.Now())
	require.NoError(t, err)
	require.NoError(t, p.Complete("txn_abc123"))
	return p
}

func TestNewPayment_Validation(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		amount  string
		wantErr bool
	}{
		{name: "valid", number: "PAY-1", amount: "100.00"},
		{name: "missing number", number: "", amount: "100.00", wantErr: true},
		{name: "zero amount", number: "PAY-1", amount: "0", wantErr: true},
		{name: "negative amount", number: "PAY-1", amount: "-5.00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPayment(uuid.New(), tt.number, uuid.New(), "Client",
				usd(t, tt.amount), PaymentMethodCheck, time.Now())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PaymentStatusPending, p.Status)
			assert.True(t, p.UnallocatedAmount.Equals(p.Amount))
			assert.True(t, p.AllocatedAmount.IsZero())
		})
	}
}

func TestPayment_RecordAllocation(t *testing.T) {
	tests := []struct {
		name    string
		amounts []string
		wantErr error
	}{
		{name: "single allocation", amounts: []string{"60.00"}},
		{name: "multiple allocations up to full amount", amounts: []string{"60.00", "40.00"}},
		{name: "overcommit rejected", amounts: []string{"60.00", "40.01"}, wantErr: ErrExceedsPayment},
		{name: "zero amount rejected", amounts: []string{"0"}, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := createTestPayment(t, "100.00")
			var err error
			for _, a := range tt.amounts {
				err = p.RecordAllocation(usd(t, a))
				if err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.AllocatedAmount.MustAdd(p.UnallocatedAmount).Equals(p.Amount))
		})
	}
}

func TestPayment_PendingCannotAllocate(t *testing.T) {
	p, err := NewPayment(uuid.New(), "PAY-1", uuid.New(), "Client",
		usd(t, "100.00"), PaymentMethodCash, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, p.RecordAllocation(usd(t, "10.00")), ErrPaymentNotAllocable)
}

func TestPayment_ReleaseAllocation(t *testing.T) {
	p := createTestPayment(t, "100.00")
	require.NoError(t, p.RecordAllocation(usd(t, "70.00")))

	require.NoError(t, p.ReleaseAllocation(usd(t, "30.00")))
	assert.Equal(t, "40.00", p.AllocatedAmount.StringFixed())
	assert.Equal(t, "60.00", p.UnallocatedAmount.StringFixed())

	err := p.ReleaseAllocation(usd(t, "40.01"))
	require.Error(t, err)
	assert.True(t, shared.IsIntegrity(err))
	assert.Equal(t, "40.00", p.AllocatedAmount.StringFixed())
}

func TestPayment_Refund(t *testing.T) {
	p := createTestPayment(t, "100.00")
	require.NoError(t, p.RecordAllocation(usd(t, "50.00")))

	// Refund is blocked while allocations are active.
	assert.ErrorIs(t, p.Refund("client dispute"), ErrPaymentHasActive)

	require.NoError(t, p.ReleaseAllocation(usd(t, "50.00")))
	require.NoError(t, p.Refund("client dispute"))
	assert.Equal(t, PaymentStatusRefunded, p.Status)
}

func TestPayment_Lifecycle(t *testing.T) {
	p, err := NewPayment(uuid.New(), "PAY-1", uuid.New(), "Client",
		usd(t, "100.00"), PaymentMethodCreditCard, time.Now())
	require.NoError(t, err)
	assert.True(t, p.IsDeletable())

	require.NoError(t, p.Complete("ch_123"))
	assert.False(t, p.IsDeletable())
	assert.Error(t, p.Complete("ch_456"))
	assert.Error(t, p.Fail("too late"))
}
