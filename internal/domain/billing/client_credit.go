package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// CreditStatus represents the lifecycle state of a client credit
type CreditStatus string

const (
	CreditStatusActive   CreditStatus = "ACTIVE"
	CreditStatusDepleted CreditStatus = "DEPLETED"
	CreditStatusExpired  CreditStatus = "EXPIRED"
	CreditStatusVoided   CreditStatus = "VOIDED"
)

// Credit validation errors
var (
	ErrCreditNotUsable  = shared.NewDomainError("INVALID_STATE", "Credit is not active")
	ErrExceedsAvailable = shared.NewDomainError("EXCEEDS_BALANCE", "Consumption exceeds available credit")
)

// ClientCredit is spendable value a client holds with the company, usually
// issued from a payment overage. AvailableAmount only ever decreases.
type ClientCredit struct {
	shared.TenantAggregateRoot
	ClientID        uuid.UUID
	OriginPaymentID *uuid.UUID
	Amount          valueobject.Money
	AvailableAmount valueobject.Money
	Currency        valueobject.Currency
	Status          CreditStatus
	Reason          string
	ExpiresAt       *time.Time
	VoidedAt        *time.Time
	VoidReason      string
}

// NewClientCredit creates an active credit for the full amount
func NewClientCredit(tenantID, clientID uuid.UUID, originPaymentID *uuid.UUID, amount valueobject.Money, reason string) (*ClientCredit, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client ID is required")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	c := &ClientCredit{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ClientID:            clientID,
		OriginPaymentID:     originPaymentID,
		Amount:              amount,
		AvailableAmount:     amount,
		Currency:            amount.Currency(),
		Status:              CreditStatusActive,
		Reason:              reason,
	}

	c.AddDomainEvent(NewCreditIssuedEvent(c))
	return c, nil
}

// IsUsable reports whether the credit can fund consumption
func (c *ClientCredit) IsUsable() bool {
	return c.Status == CreditStatusActive && c.AvailableAmount.IsPositive()
}

// Consume draws down the available amount. The credit becomes DEPLETED when
// it reaches zero.
func (c *ClientCredit) Consume(amount valueobject.Money) error {
	if !c.IsUsable() {
		return ErrCreditNotUsable
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	exceeds, err := amount.GreaterThan(c.AvailableAmount)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Consumption currency must match credit currency")
	}
	if exceeds {
		return ErrExceedsAvailable
	}

	c.AvailableAmount = c.AvailableAmount.MustSubtract(amount)
	if c.AvailableAmount.IsZero() {
		c.Status = CreditStatusDepleted
	}
	c.IncrementVersion()
	c.Touch()
	c.AddDomainEvent(NewCreditConsumedEvent(c, amount))
	return nil
}

// Void cancels an active credit, zeroing whatever remains. Depleted,
// expired and already voided credits are final.
func (c *ClientCredit) Void(reason string) error {
	if c.Status != CreditStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active credits can be voided")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Void reason is required")
	}
	now := time.Now()
	c.AvailableAmount = valueobject.Zero(c.Currency)
	c.Status = CreditStatusVoided
	c.VoidedAt = &now
	c.VoidReason = reason
	c.IncrementVersion()
	c.Touch()
	return nil
}

// Expire marks an active credit as expired once past its expiry date
func (c *ClientCredit) Expire(now time.Time) error {
	if c.Status != CreditStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active credits can expire")
	}
	if c.ExpiresAt == nil || !c.ExpiresAt.Before(now) {
		return shared.NewDomainError("INVALID_STATE", "Credit has not reached its expiry date")
	}
	c.AvailableAmount = valueobject.Zero(c.Currency)
	c.Status = CreditStatusExpired
	c.IncrementVersion()
	c.Touch()
	return nil
}
