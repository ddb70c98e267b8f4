package billing

import (
	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
)

// Payment and allocation event types
const (
	EventPaymentReceived   = "payment.received"
	EventPaymentCompleted  = "payment.completed"
	EventPaymentRefunded   = "payment.refunded"
	EventPaymentAllocated  = "payment.allocated"
	EventAllocationVoided  = "payment.allocation_voided"
	EventOverpaymentCredit = "payment.overpayment_credited"
)

// PaymentReceivedEvent is raised when a payment record is created
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string `json:"payment_number"`
	Amount        string `json:"amount"`
}

// NewPaymentReceivedEvent creates a PaymentReceivedEvent
func NewPaymentReceivedEvent(p *Payment) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentReceived, "Payment", p.ID, p.TenantID),
		PaymentNumber:   p.PaymentNumber,
		Amount:          p.Amount.StringFixed(),
	}
}

// PaymentCompletedEvent is raised when a payment settles
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber    string `json:"payment_number"`
	GatewayReference string `json:"gateway_reference"`
}

// NewPaymentCompletedEvent creates a PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventPaymentCompleted, "Payment", p.ID, p.TenantID),
		PaymentNumber:    p.PaymentNumber,
		GatewayReference: p.GatewayReference,
	}
}

// PaymentRefundedEvent is raised when a payment is refunded
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string `json:"payment_number"`
	Reason        string `json:"reason"`
}

// NewPaymentRefundedEvent creates a PaymentRefundedEvent
func NewPaymentRefundedEvent(p *Payment, reason string) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentRefunded, "Payment", p.ID, p.TenantID),
		PaymentNumber:   p.PaymentNumber,
		Reason:          reason,
	}
}

// PaymentAllocatedEvent is raised when part of a payment is applied to an
// invoice
type PaymentAllocatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	Amount    string    `json:"amount"`
}

// NewPaymentAllocatedEvent creates a PaymentAllocatedEvent
func NewPaymentAllocatedEvent(p *Payment, invoiceID uuid.UUID, amount string) *PaymentAllocatedEvent {
	return &PaymentAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentAllocated, "Payment", p.ID, p.TenantID),
		InvoiceID:       invoiceID,
		Amount:          amount,
	}
}

// AllocationVoidedEvent is raised when a payment application is voided
type AllocationVoidedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID `json:"application_id"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	Amount        string    `json:"amount"`
	Reason        string    `json:"reason"`
}

// NewAllocationVoidedEvent creates an AllocationVoidedEvent
func NewAllocationVoidedEvent(p *Payment, app *PaymentApplication, reason string) *AllocationVoidedEvent {
	return &AllocationVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventAllocationVoided, "Payment", p.ID, p.TenantID),
		ApplicationID:   app.ID,
		InvoiceID:       app.InvoiceID,
		Amount:          app.Amount.StringFixed(),
		Reason:          reason,
	}
}
