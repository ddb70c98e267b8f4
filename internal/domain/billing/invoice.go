package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Billing validation and integrity errors
var (
	ErrExceedsBalance    = shared.NewDomainError("EXCEEDS_BALANCE", "Allocation amount exceeds invoice outstanding balance")
	ErrInvalidAmount     = shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	ErrInvoiceNotPayable = shared.NewDomainError("INVALID_STATE", "Invoice cannot accept allocations in its current status")
	ErrInvoiceLocked     = shared.NewDomainError("INVALID_STATE", "Invoice cannot be amended while active allocations exist")
	ErrNegativeBalance   = shared.NewIntegrityError("NEGATIVE_BALANCE", "Active allocations exceed invoice total")
)

// InvoiceLineItem is a billable line on an invoice. Totals are derived,
// never supplied by the caller.
type InvoiceLineItem struct {
	ID              uuid.UUID         `json:"id"`
	Description     string            `json:"description"`
	Quantity        decimal.Decimal   `json:"quantity"`
	UnitPrice       valueobject.Money `json:"unit_price"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	TaxRate         decimal.Decimal   `json:"tax_rate"`
	Subtotal        valueobject.Money `json:"subtotal"`
	DiscountAmount  valueobject.Money `json:"discount_amount"`
	TaxAmount       valueobject.Money `json:"tax_amount"`
	Total           valueobject.Money `json:"total"`
}

// Invoice is the receivable aggregate. PaidAmount always equals the sum of
// active (non-voided) payment applications against it, and BalanceAmount
// always equals TotalAmount minus PaidAmount.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string
	ClientID      uuid.UUID
	ClientName    string
	Currency      valueobject.Currency
	Items         []InvoiceLineItem
	Subtotal      valueobject.Money
	DiscountTotal valueobject.Money
	TaxTotal      valueobject.Money
	TotalAmount   valueobject.Money
	PaidAmount    valueobject.Money
	BalanceAmount valueobject.Money
	Status        InvoiceStatus
	IssueDate     time.Time
	DueDate       *time.Time
	PaidAt        *time.Time
	Notes         string
}

// NewInvoice creates a draft invoice with no line items
func NewInvoice(tenantID uuid.UUID, number string, clientID uuid.UUID, clientName string, currency valueobject.Currency, dueDate *time.Time) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice number is required")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client ID is required")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported currency")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       number,
		ClientID:            clientID,
		ClientName:          clientName,
		Currency:            currency,
		Items:               make([]InvoiceLineItem, 0),
		Subtotal:            valueobject.Zero(currency),
		DiscountTotal:       valueobject.Zero(currency),
		TaxTotal:            valueobject.Zero(currency),
		TotalAmount:         valueobject.Zero(currency),
		PaidAmount:          valueobject.Zero(currency),
		BalanceAmount:       valueobject.Zero(currency),
		Status:              InvoiceStatusDraft,
		IssueDate:           time.Now(),
		DueDate:             dueDate,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// HasActiveAllocations reports whether any non-voided payment application
// is currently applied to this invoice
func (i *Invoice) HasActiveAllocations() bool {
	return i.PaidAmount.IsPositive()
}

// canAmend reports whether line items may still be changed. Amendment is
// forbidden once any active allocation exists.
func (i *Invoice) canAmend() bool {
	if i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled {
		return false
	}
	return !i.HasActiveAllocations()
}

// AddLineItem appends a line item and recomputes all derived totals
func (i *Invoice) AddLineItem(description string, quantity decimal.Decimal, unitPrice valueobject.Money, discountPercent, taxRate decimal.Decimal) error {
	if !i.canAmend() {
		return ErrInvoiceLocked
	}
	if description == "" {
		return shared.NewDomainError("INVALID_INPUT", "Line item description is required")
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Line item quantity must be positive")
	}
	if unitPrice.Currency() != i.Currency {
		return shared.NewDomainError("INVALID_INPUT", "Line item currency must match invoice currency")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_INPUT", "Discount percent must be between 0 and 100")
	}
	if taxRate.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Tax rate cannot be negative")
	}

	item := buildLineItem(description, quantity, unitPrice, discountPercent, taxRate)
	i.Items = append(i.Items, item)
	i.recalculateTotals()
	i.IncrementVersion()
	return nil
}

// RemoveLineItem removes a line item by ID and recomputes totals
func (i *Invoice) RemoveLineItem(itemID uuid.UUID) error {
	if !i.canAmend() {
		return ErrInvoiceLocked
	}
	for idx, item := range i.Items {
		if item.ID == itemID {
			i.Items = append(i.Items[:idx], i.Items[idx+1:]...)
			i.recalculateTotals()
			i.IncrementVersion()
			return nil
		}
	}
	return shared.ErrNotFound
}

func buildLineItem(description string, quantity decimal.Decimal, unitPrice valueobject.Money, discountPercent, taxRate decimal.Decimal) InvoiceLineItem {
	subtotal := unitPrice.Multiply(quantity)
	discount := subtotal.CalculatePercentage(discountPercent)
	taxable := subtotal.MustSubtract(discount)
	tax := taxable.CalculatePercentage(taxRate)

	return InvoiceLineItem{
		ID:              uuid.New(),
		Description:     description,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		DiscountPercent: discountPercent,
		TaxRate:         taxRate,
		Subtotal:        subtotal,
		DiscountAmount:  discount,
		TaxAmount:       tax,
		Total:           taxable.MustAdd(tax),
	}
}

// recalculateTotals re-derives the invoice header amounts from line items.
// The grand total is rounded half-up to the currency's minor units once,
// at the invoice level.
func (i *Invoice) recalculateTotals() {
	subtotal := valueobject.Zero(i.Currency)
	discount := valueobject.Zero(i.Currency)
	tax := valueobject.Zero(i.Currency)

	for _, item := range i.Items {
		subtotal = subtotal.MustAdd(item.Subtotal)
		discount = discount.MustAdd(item.DiscountAmount)
		tax = tax.MustAdd(item.TaxAmount)
	}

	i.Subtotal = subtotal.RoundToMinorUnits()
	i.DiscountTotal = discount.RoundToMinorUnits()
	i.TaxTotal = tax.RoundToMinorUnits()
	i.TotalAmount = subtotal.MustSubtract(discount).MustAdd(tax).RoundToMinorUnits()
	i.BalanceAmount = i.TotalAmount.MustSubtract(i.PaidAmount)
	i.Touch()
}

// ComputeBalance derives the outstanding balance from a total and the sum
// of active allocations. A negative raw result is an integrity violation
// and is reported, never clamped.
func ComputeBalance(total, activeAllocations valueobject.Money) (valueobject.Money, error) {
	balance, err := total.Subtract(activeAllocations)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainError("INVALID_INPUT", "Currency mismatch between total and allocations")
	}
	if balance.IsNegative() {
		return valueobject.Money{}, ErrNegativeBalance
	}
	return balance, nil
}

// Send transitions a draft invoice to SENT
func (i *Invoice) Send() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can be sent")
	}
	if len(i.Items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Cannot send an invoice with no line items")
	}
	i.Status = InvoiceStatusSent
	i.IncrementVersion()
	i.Touch()
	i.AddDomainEvent(NewInvoiceSentEvent(i))
	return nil
}

// Cancel cancels an invoice. Invoices with any recorded payment cannot be
// cancelled.
func (i *Invoice) Cancel(reason string) error {
	if i.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	if i.Status == InvoiceStatusPaid || i.HasActiveAllocations() {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel an invoice with payments applied")
	}
	i.Status = InvoiceStatusCancelled
	i.Notes = reason
	i.IncrementVersion()
	i.Touch()
	i.AddDomainEvent(NewInvoiceCancelledEvent(i, reason))
	return nil
}

// MarkOverdue flags an unpaid invoice past its due date
func (i *Invoice) MarkOverdue(now time.Time) error {
	if i.Status != InvoiceStatusSent && i.Status != InvoiceStatusPartial {
		return shared.NewDomainError("INVALID_STATE", "Only sent or partially paid invoices can become overdue")
	}
	if i.DueDate == nil || !i.DueDate.Before(now) {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not past its due date")
	}
	i.Status = InvoiceStatusOverdue
	i.IncrementVersion()
	i.Touch()
	return nil
}

// CanAcceptAllocation reports whether the invoice may receive payment
func (i *Invoice) CanAcceptAllocation() bool {
	switch i.Status {
	case InvoiceStatusSent, InvoiceStatusPartial, InvoiceStatusOverdue:
		return true
	}
	return false
}

// ApplyAllocation records an allocation against the invoice, updating paid
// and balance amounts and the status
func (i *Invoice) ApplyAllocation(amount valueobject.Money) error {
	if !i.CanAcceptAllocation() {
		return ErrInvoiceNotPayable
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	exceeds, err := amount.GreaterThan(i.BalanceAmount)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Allocation currency must match invoice currency")
	}
	if exceeds {
		return ErrExceedsBalance
	}

	i.PaidAmount = i.PaidAmount.MustAdd(amount)
	balance, err := ComputeBalance(i.TotalAmount, i.PaidAmount)
	if err != nil {
		return err
	}
	i.BalanceAmount = balance

	if i.BalanceAmount.IsZero() {
		i.Status = InvoiceStatusPaid
		now := time.Now()
		i.PaidAt = &now
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	} else {
		i.Status = InvoiceStatusPartial
	}

	i.IncrementVersion()
	i.Touch()
	return nil
}

// ReleaseAllocation reverses a previously applied allocation, restoring the
// balance and status
func (i *Invoice) ReleaseAllocation(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	released, err := i.PaidAmount.Subtract(amount)
	if err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Release currency must match invoice currency")
	}
	if released.IsNegative() {
		return shared.NewIntegrityError("INCONSISTENT_STATE", "Released amount exceeds recorded paid amount")
	}

	i.PaidAmount = released
	balance, err := ComputeBalance(i.TotalAmount, i.PaidAmount)
	if err != nil {
		return err
	}
	i.BalanceAmount = balance
	i.PaidAt = nil

	switch {
	case i.PaidAmount.IsZero() && i.DueDate != nil && i.DueDate.Before(time.Now()):
		i.Status = InvoiceStatusOverdue
	case i.PaidAmount.IsZero():
		i.Status = InvoiceStatusSent
	default:
		i.Status = InvoiceStatusPartial
	}

	i.IncrementVersion()
	i.Touch()
	return nil
}
