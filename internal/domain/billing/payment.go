package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentMethod represents how a payment was received
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCredit       PaymentMethod = "CREDIT"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// Payment validation errors
var (
	ErrExceedsPayment      = shared.NewDomainError("EXCEEDS_PAYMENT", "Allocation amount exceeds payment unallocated amount")
	ErrPaymentNotAllocable = shared.NewDomainError("INVALID_STATE", "Payment cannot be allocated in its current status")
	ErrPaymentHasActive    = shared.NewDomainError("HAS_ALLOCATIONS", "Payment has active allocations")
)

// Payment is a funds-received aggregate. AllocatedAmount equals the sum of
// its active invoice applications plus any remainder already issued as
// client credit; UnallocatedAmount is what is still available for
// allocation or credit issuance.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber     string
	ClientID          uuid.UUID
	ClientName        string
	Amount            valueobject.Money
	AllocatedAmount   valueobject.Money
	UnallocatedAmount valueobject.Money
	Currency          valueobject.Currency
	Method            PaymentMethod
	GatewayReference  string
	Status            PaymentStatus
	PaymentDate       time.Time
	Notes             string
}

// NewPayment creates a pending payment
func NewPayment(tenantID uuid.UUID, number string, clientID uuid.UUID, clientName string, amount valueobject.Money, method PaymentMethod, paymentDate time.Time) (*Payment, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment number is required")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client ID is required")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       number,
		ClientID:            clientID,
		ClientName:          clientName,
		Amount:              amount,
		AllocatedAmount:     valueobject.Zero(amount.Currency()),
		UnallocatedAmount:   amount,
		Currency:            amount.Currency(),
		Method:              method,
		Status:              PaymentStatusPending,
		PaymentDate:         paymentDate,
	}

	p.AddDomainEvent(NewPaymentReceivedEvent(p))
	return p, nil
}

// Complete marks a pending payment as settled and allocable
func (p *Payment) Complete(gatewayReference string) error {
	if p.Status != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending payments can be completed")
	}
	p.Status = PaymentStatusCompleted
	p.GatewayReference = gatewayReference
	p.IncrementVersion()
	p.Touch()
	p.AddDomainEvent(NewPaymentCompletedEvent(p))
	return nil
}

// Fail marks a pending payment as failed
func (p *Payment) Fail(reason string) error {
	if p.Status != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending payments can fail")
	}
	p.Status = PaymentStatusFailed
	p.Notes = reason
	p.IncrementVersion()
	p.Touch()
	return nil
}

// Refund marks a completed payment as refunded. All allocations must be
// voided first.
func (p *Payment) Refund(reason string) error {
	if p.Status != PaymentStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed payments can be refunded")
	}
	if p.AllocatedAmount.IsPositive() {
		return ErrPaymentHasActive
	}
	p.Status = PaymentStatusRefunded
	p.Notes = reason
	p.IncrementVersion()
	p.Touch()
	p.AddDomainEvent(NewPaymentRefundedEvent(p, reason))
	return nil
}

// CanAllocate reports whether the payment may fund allocations
func (p *Payment) CanAllocate() bool {
	return p.Status == PaymentStatusCompleted
}

// IsDeletable reports whether the payment record may be removed. Payments
// that ever settled stay on the books.
func (p *Payment) IsDeletable() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusFailed
}

// RecordAllocation reserves part of the payment for an invoice application
func (p *Payment) RecordAllocation(amount valueobject.Money) error {
	if !p.CanAllocate() {
		return ErrPaymentNotAllocable
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	exceeds, err := amount.GreaterThan(p.UnallocatedAmount)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Allocation currency must match payment currency")
	}
	if exceeds {
		return ErrExceedsPayment
	}

	p.AllocatedAmount = p.AllocatedAmount.MustAdd(amount)
	p.UnallocatedAmount = p.Amount.MustSubtract(p.AllocatedAmount)
	p.IncrementVersion()
	p.Touch()
	return nil
}

// ReleaseAllocation returns a previously allocated amount to the
// unallocated pool
func (p *Payment) ReleaseAllocation(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	released, err := p.AllocatedAmount.Subtract(amount)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Release currency must match payment currency")
	}
	if released.IsNegative() {
		return shared.NewIntegrityError("INCONSISTENT_STATE", "Released amount exceeds recorded allocated amount")
	}

	p.AllocatedAmount = released
	p.UnallocatedAmount = p.Amount.MustSubtract(p.AllocatedAmount)
	p.IncrementVersion()
	p.Touch()
	return nil
}

// HasUnallocatedFunds reports whether any remainder is available
func (p *Payment) HasUnallocatedFunds() bool {
	return p.UnallocatedAmount.IsPositive()
}
