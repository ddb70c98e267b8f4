package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// LineItemRequest is one invoice line in a create request
type LineItemRequest struct {
	Description     string          `json:"description" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
}

// CreateInvoiceRequest is the payload for creating an invoice
type CreateInvoiceRequest struct {
	ClientID   string            `json:"client_id" binding:"required,uuid"`
	ClientName string            `json:"client_name" binding:"required"`
	Currency   string            `json:"currency" binding:"required,len=3"`
	DueDate    *time.Time        `json:"due_date"`
	Items      []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	SendNow    bool              `json:"send_now"`
}

// CreatePaymentRequest is the payload for recording a payment
type CreatePaymentRequest struct {
	ClientID         string          `json:"client_id" binding:"required,uuid"`
	ClientName       string          `json:"client_name" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Currency         string          `json:"currency" binding:"required,len=3"`
	Method           string          `json:"method" binding:"required"`
	PaymentDate      time.Time       `json:"payment_date" binding:"required"`
	GatewayReference string          `json:"gateway_reference"`
	CompleteNow      bool            `json:"complete_now"`
}

// ReasonRequest is the payload for operations that take a reason
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// AllocationRequest is the payload for a single allocation
type AllocationRequest struct {
	InvoiceID string          `json:"invoice_id" binding:"required,uuid"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// BulkAllocationRequest is the payload for allocating one payment to several
// invoices
type BulkAllocationRequest struct {
	Allocations []AllocationRequest `json:"allocations" binding:"required,min=1,dive"`
}

// AutoAllocateRequest selects the distribution strategy for auto-allocation
type AutoAllocateRequest struct {
	Strategy string `json:"strategy" binding:"omitempty,oneof=OLDEST_FIRST EVEN"`
}

// AmountRequest is the payload for operations that take a bare amount
type AmountRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"required,len=3"`
}

// LineItemResponse is one invoice line in a response
type LineItemResponse struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       string          `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Subtotal        string          `json:"subtotal"`
	DiscountAmount  string          `json:"discount_amount"`
	TaxAmount       string          `json:"tax_amount"`
	Total           string          `json:"total"`
}

// InvoiceResponse is the API shape of an invoice
type InvoiceResponse struct {
	ID            string             `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	ClientID      string             `json:"client_id"`
	ClientName    string             `json:"client_name"`
	Currency      string             `json:"currency"`
	Items         []LineItemResponse `json:"items"`
	Subtotal      string             `json:"subtotal"`
	DiscountTotal string             `json:"discount_total"`
	TaxTotal      string             `json:"tax_total"`
	TotalAmount   string             `json:"total_amount"`
	PaidAmount    string             `json:"paid_amount"`
	BalanceAmount string             `json:"balance_amount"`
	Status        string             `json:"status"`
	IssueDate     time.Time          `json:"issue_date"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	Version       int                `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// PaymentResponse is the API shape of a payment
type PaymentResponse struct {
	ID                string    `json:"id"`
	PaymentNumber     string    `json:"payment_number"`
	ClientID          string    `json:"client_id"`
	ClientName        string    `json:"client_name"`
	Amount            string    `json:"amount"`
	AllocatedAmount   string    `json:"allocated_amount"`
	UnallocatedAmount string    `json:"unallocated_amount"`
	Currency          string    `json:"currency"`
	Method            string    `json:"method"`
	GatewayReference  string    `json:"gateway_reference,omitempty"`
	Status            string    `json:"status"`
	PaymentDate       time.Time `json:"payment_date"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ApplicationResponse is the API shape of a payment application
type ApplicationResponse struct {
	ID         string     `json:"id"`
	PaymentID  string     `json:"payment_id"`
	InvoiceID  string     `json:"invoice_id"`
	Amount     string     `json:"amount"`
	Currency   string     `json:"currency"`
	AppliedAt  time.Time  `json:"applied_at"`
	IsActive   bool       `json:"is_active"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`
	VoidReason string     `json:"void_reason,omitempty"`
}

// CreditResponse is the API shape of a client credit
type CreditResponse struct {
	ID              string     `json:"id"`
	ClientID        string     `json:"client_id"`
	OriginPaymentID *string    `json:"origin_payment_id,omitempty"`
	Amount          string     `json:"amount"`
	AvailableAmount string     `json:"available_amount"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	items := make([]LineItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = LineItemResponse{
			ID:              item.ID.String(),
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice.StringFixed(),
			DiscountPercent: item.DiscountPercent,
			TaxRate:         item.TaxRate,
			Subtotal:        item.Subtotal.StringFixed(),
			DiscountAmount:  item.DiscountAmount.StringFixed(),
			TaxAmount:       item.TaxAmount.StringFixed(),
			Total:           item.Total.StringFixed(),
		}
	}
	return InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID.String(),
		ClientName:    inv.ClientName,
		Currency:      string(inv.Currency),
		Items:         items,
		Subtotal:      inv.Subtotal.StringFixed(),
		DiscountTotal: inv.DiscountTotal.StringFixed(),
		TaxTotal:      inv.TaxTotal.StringFixed(),
		TotalAmount:   inv.TotalAmount.StringFixed(),
		PaidAmount:    inv.PaidAmount.StringFixed(),
		BalanceAmount: inv.BalanceAmount.StringFixed(),
		Status:        string(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		PaidAt:        inv.PaidAt,
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func toInvoiceResponses(invoices []*billing.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = toInvoiceResponse(inv)
	}
	return out
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID.String(),
		PaymentNumber:     p.PaymentNumber,
		ClientID:          p.ClientID.String(),
		ClientName:        p.ClientName,
		Amount:            p.Amount.StringFixed(),
		AllocatedAmount:   p.AllocatedAmount.StringFixed(),
		UnallocatedAmount: p.UnallocatedAmount.StringFixed(),
		Currency:          string(p.Currency),
		Method:            string(p.Method),
		GatewayReference:  p.GatewayReference,
		Status:            string(p.Status),
		PaymentDate:       p.PaymentDate,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toPaymentResponses(payments []*billing.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	return out
}

func toApplicationResponse(a *billing.PaymentApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:         a.ID.String(),
		PaymentID:  a.PaymentID.String(),
		InvoiceID:  a.InvoiceID.String(),
		Amount:     a.Amount.StringFixed(),
		Currency:   string(a.Amount.Currency()),
		AppliedAt:  a.AppliedAt,
		IsActive:   a.IsActive,
		VoidedAt:   a.VoidedAt,
		VoidReason: a.VoidReason,
	}
}

func toApplicationResponses(apps []*billing.PaymentApplication) []ApplicationResponse {
	out := make([]ApplicationResponse, len(apps))
	for i, a := range apps {
		out[i] = toApplicationResponse(a)
	}
	return out
}

func toCreditResponse(c *billing.ClientCredit) CreditResponse {
	var origin *string
	if c.OriginPaymentID != nil {
		s := c.OriginPaymentID.String()
		origin = &s
	}
	return CreditResponse{
		ID:              c.ID.String(),
		ClientID:        c.ClientID.String(),
		OriginPaymentID: origin,
		Amount:          c.Amount.StringFixed(),
		AvailableAmount: c.AvailableAmount.StringFixed(),
		Currency:        string(c.Currency),
		Status:          string(c.Status),
		Reason:          c.Reason,
		ExpiresAt:       c.ExpiresAt,
		CreatedAt:       c.CreatedAt,
	}
}

func toCreditResponses(credits []*billing.ClientCredit) []CreditResponse {
	out := make([]CreditResponse, len(credits))
	for i, c := range credits {
		out[i] = toCreditResponse(c)
	}
	return out
}

// parseMoney builds a Money value from a request amount and currency code
func parseMoney(amount decimal.Decimal, currency string) (valueobject.Money, error) {
	return valueobject.NewMoney(amount, toCurrency(currency))
}

func toCurrency(code string) valueobject.Currency {
	return valueobject.Currency(strings.ToUpper(code))
}
