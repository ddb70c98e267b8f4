package billing

import (
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// Credit event types
const (
	EventCreditIssued   = "credit.issued"
	EventCreditConsumed = "credit.consumed"
)

// CreditIssuedEvent is raised when a client credit is created
type CreditIssuedEvent struct {
	shared.BaseDomainEvent
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// NewCreditIssuedEvent creates a CreditIssuedEvent
func NewCreditIssuedEvent(c *ClientCredit) *CreditIssuedEvent {
	return &CreditIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCreditIssued, "ClientCredit", c.ID, c.TenantID),
		Amount:          c.Amount.StringFixed(),
		Reason:          c.Reason,
	}
}

// CreditConsumedEvent is raised when credit is drawn down
type CreditConsumedEvent struct {
	shared.BaseDomainEvent
	Consumed  string `json:"consumed"`
	Remaining string `json:"remaining"`
}

// NewCreditConsumedEvent creates a CreditConsumedEvent
func NewCreditConsumedEvent(c *ClientCredit, consumed valueobject.Money) *CreditConsumedEvent {
	return &CreditConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCreditConsumed, "ClientCredit", c.ID, c.TenantID),
		Consumed:        consumed.StringFixed(),
		Remaining:       c.AvailableAmount.StringFixed(),
	}
}
