package billing

import (
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// CreditIssuer converts a payment's unallocated remainder into a client
// credit. Money is conserved exactly: after issuance, active allocations
// plus the credit equal the original payment amount.
type CreditIssuer struct{}

// NewCreditIssuer creates a CreditIssuer
func NewCreditIssuer() *CreditIssuer {
	return &CreditIssuer{}
}

// IssueFromOverpayment creates a credit for the payment's remainder. The
// caller supplies the remainder it observed; the issuer re-derives it from
// the payment and refuses to proceed on any disagreement, since that means
// the books are already wrong.
func (s *CreditIssuer) IssueFromOverpayment(payment *Payment, remainder valueobject.Money) (*ClientCredit, error) {
	if payment.Status != PaymentStatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", "Only completed payments can issue credit")
	}
	if !remainder.IsPositive() {
		return nil, ErrInvalidAmount
	}

	derived, err := payment.Amount.Subtract(payment.AllocatedAmount)
	if err != nil {
		return nil, shared.NewIntegrityError("INCONSISTENT_STATE", "Payment amount and allocated amount use different currencies")
	}
	if !derived.Equals(payment.UnallocatedAmount) {
		return nil, shared.ErrInconsistentState
	}
	if !remainder.Equals(derived) {
		return nil, shared.ErrInconsistentState
	}

	originID := payment.ID
	credit, err := NewClientCredit(payment.TenantID, payment.ClientID, &originID, remainder, "Overpayment on "+payment.PaymentNumber)
	if err != nil {
		return nil, err
	}

	// The remainder is now committed to the credit; the payment can no
	// longer allocate it to invoices.
	if err := payment.RecordAllocation(remainder); err != nil {
		return nil, err
	}

	payment.AddDomainEvent(&OverpaymentCreditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOverpaymentCredit, "Payment", payment.ID, payment.TenantID),
		CreditID:        credit.ID.String(),
		Amount:          remainder.StringFixed(),
	})
	return credit, nil
}

// OverpaymentCreditedEvent is raised when a payment remainder becomes credit
type OverpaymentCreditedEvent struct {
	shared.BaseDomainEvent
	CreditID string `json:"credit_id"`
	Amount   string `json:"amount"`
}
