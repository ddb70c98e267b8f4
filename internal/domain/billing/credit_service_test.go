package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
)

func TestCreditIssuer_IssueFromOverpayment(t *testing.T) {
	tenantID := uuid.New()
	issuer := NewCreditIssuer()
	ledger := NewAllocationLedger()

	t.Run("money is conserved exactly", func(t *testing.T) {
		payment := createTenantPayment(t, tenantID, "100.00")
		invoice := createTenantInvoice(t, tenantID, "INV-1", "73.25", time.Now())

		_, err := ledger.Apply(payment, invoice, usd(t, "73.25"))
		require.NoError(t, err)
		require.Equal(t, "26.75", payment.UnallocatedAmount.StringFixed())

		credit, err := issuer.IssueFromOverpayment(payment, usd(t, "26.75"))
		require.NoError(t, err)

		assert.Equal(t, "26.75", credit.Amount.StringFixed())
		assert.Equal(t, "26.75", credit.AvailableAmount.StringFixed())
		assert.Equal(t, CreditStatusActive, credit.Status)
		require.NotNil(t, credit.OriginPaymentID)
		assert.Equal(t, payment.ID, *credit.OriginPaymentID)
		assert.Equal(t, payment.ClientID, credit.ClientID)

		// Allocations plus credit equal the original payment, and no
		// remainder is left to double-spend.
		assert.Equal(t, "100.00", payment.AllocatedAmount.StringFixed())
		assert.True(t, payment.UnallocatedAmount.IsZero())
	})

	t.Run("stale remainder is refused", func(t *testing.T) {
		payment := createTenantPayment(t, tenantID, "100.00")
		invoice := createTenantInvoice(t, tenantID, "INV-2", "73.25", time.Now())
		_, err := ledger.Apply(payment, invoice, usd(t, "73.25"))
		require.NoError(t, err)

		_, err = issuer.IssueFromOverpayment(payment, usd(t, "30.00"))
		require.Error(t, err)
		assert.True(t, shared.IsIntegrity(err))
		// Nothing was committed.
		assert.Equal(t, "26.75", payment.UnallocatedAmount.StringFixed())
	})

	t.Run("corrupted payment bookkeeping is refused", func(t *testing.T) {
		payment := createTenantPayment(t, tenantID, "100.00")
		payment.UnallocatedAmount = usd(t, "90.00")

		_, err := issuer.IssueFromOverpayment(payment, usd(t, "90.00"))
		require.Error(t, err)
		assert.True(t, shared.IsIntegrity(err))
	})

	t.Run("pending payment cannot issue credit", func(t *testing.T) {
		payment, err := NewPayment(tenantID, "PAY-9", uuid.New(), "Client",
			usd(t, "100.00"), PaymentMethodCheck, time.Now())
		require.NoError(t, err)

		_, err = issuer.IssueFromOverpayment(payment, usd(t, "100.00"))
		assert.Error(t, err)
	})

	t.Run("zero remainder cannot issue credit", func(t *testing.T) {
		payment := createTenantPayment(t, tenantID, "50.00")
		invoice := createTenantInvoice(t, tenantID, "INV-3", "50.00", time.Now())
		_, err := ledger.Apply(payment, invoice, usd(t, "50.00"))
		require.NoError(t, err)

		_, err = issuer.IssueFromOverpayment(payment, payment.UnallocatedAmount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}
