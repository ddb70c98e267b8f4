package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCredit(t *testing.T, amount string) *ClientCredit {
	t.Helper()
	origin := uuid.New()
	c, err := NewClientCredit(uuid.New(), uuid.New(), &origin, usd(t, amount), "Overpayment on PAY-1")
	require.NoError(t, err)
	return c
}

func TestClientCredit_Consume(t *testing.T) {
	tests := []struct {
		name       string
		amounts    []string
		wantErr    error
		wantStatus CreditStatus
		wantAvail  string
	}{
		{name: "partial draw", amounts: []string{"10.00"}, wantStatus: CreditStatusActive, wantAvail: "16.75"},
		{name: "deplete exactly", amounts: []string{"10.00", "16.75"}, wantStatus: CreditStatusDepleted, wantAvail: "0.00"},
		{name: "overdraw rejected", amounts: []string{"26.76"}, wantErr: ErrExceedsAvailable},
		{name: "zero rejected", amounts: []string{"0"}, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestCredit(t, "26.75")
			var err error
			for _, a := range tt.amounts {
				err = c.Consume(usd(t, a))
				if err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, c.Status)
			assert.Equal(t, tt.wantAvail, c.AvailableAmount.StringFixed())
		})
	}
}

func TestClientCredit_DepletedCannotConsume(t *testing.T) {
	c := createTestCredit(t, "5.00")
	require.NoError(t, c.Consume(usd(t, "5.00")))
	assert.ErrorIs(t, c.Consume(usd(t, "0.01")), ErrCreditNotUsable)
}

func TestClientCredit_Void(t *testing.T) {
	c := createTestCredit(t, "50.00")
	require.NoError(t, c.Consume(usd(t, "20.00")))

	assert.Error(t, c.Void(""))
	require.NoError(t, c.Void("issued in error"))
	assert.Equal(t, CreditStatusVoided, c.Status)
	assert.True(t, c.AvailableAmount.IsZero())
	assert.Error(t, c.Void("twice"))
	assert.ErrorIs(t, c.Consume(usd(t, "1.00")), ErrCreditNotUsable)
}

func TestClientCredit_VoidOnlyWhileActive(t *testing.T) {
	t.Run("depleted credit cannot be voided", func(t *testing.T) {
		c := createTestCredit(t, "5.00")
		require.NoError(t, c.Consume(usd(t, "5.00")))
		require.Equal(t, CreditStatusDepleted, c.Status)

		assert.Error(t, c.Void("issued in error"))
		assert.Equal(t, CreditStatusDepleted, c.Status)
		assert.Nil(t, c.VoidedAt)
		assert.Empty(t, c.VoidReason)
	})

	t.Run("expired credit cannot be voided", func(t *testing.T) {
		c := createTestCredit(t, "5.00")
		past := time.Now().Add(-time.Hour)
		c.ExpiresAt = &past
		require.NoError(t, c.Expire(time.Now()))

		assert.Error(t, c.Void("issued in error"))
		assert.Equal(t, CreditStatusExpired, c.Status)
		assert.Nil(t, c.VoidedAt)
	})
}

func TestClientCredit_Expire(t *testing.T) {
	c := createTestCredit(t, "50.00")

	// No expiry date set.
	assert.Error(t, c.Expire(time.Now()))

	past := time.Now().Add(-time.Hour)
	c.ExpiresAt = &past
	require.NoError(t, c.Expire(time.Now()))
	assert.Equal(t, CreditStatusExpired, c.Status)
	assert.True(t, c.AvailableAmount.IsZero())
}
