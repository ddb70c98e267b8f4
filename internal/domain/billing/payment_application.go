package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// PaymentApplication links a payment to an invoice for a specific amount.
// Applications are never deleted; voiding flips IsActive and records why,
// so the ledger remains a complete audit trail.
type PaymentApplication struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	PaymentID  uuid.UUID
	InvoiceID  uuid.UUID
	Amount     valueobject.Money
	AppliedAt  time.Time
	IsActive   bool
	VoidedAt   *time.Time
	VoidReason string
}

// NewPaymentApplication creates an active application record
func NewPaymentApplication(tenantID, paymentID, invoiceID uuid.UUID, amount valueobject.Money) *PaymentApplication {
	return &PaymentApplication{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		PaymentID:  paymentID,
		InvoiceID:  invoiceID,
		Amount:     amount,
		AppliedAt:  time.Now(),
		IsActive:   true,
	}
}

// Void deactivates the application, preserving the row for audit
func (a *PaymentApplication) Void(reason string) error {
	if !a.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Application is already voided")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Void reason is required")
	}
	now := time.Now()
	a.IsActive = false
	a.VoidedAt = &now
	a.VoidReason = reason
	a.Touch()
	return nil
}

// BelongsToTenant reports whether the application is owned by the tenant
func (a *PaymentApplication) BelongsToTenant(tenantID uuid.UUID) bool {
	return a.TenantID == tenantID
}
