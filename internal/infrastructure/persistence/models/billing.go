package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// money rebuilds a Money value from a stored amount and currency code
func money(amount decimal.Decimal, currency string) valueobject.Money {
	m, err := valueobject.NewMoney(amount, valueobject.Currency(currency))
	if err != nil {
		return valueobject.NewMoneyUSD(amount)
	}
	return m
}

// InvoiceLineItemRecord is the JSONB shape of one invoice line
type InvoiceLineItemRecord struct {
	ID              uuid.UUID       `json:"id"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
}

// InvoiceLineItems stores invoice lines as a JSONB column
type InvoiceLineItems []InvoiceLineItemRecord

// Value implements driver.Valuer
func (items InvoiceLineItems) Value() (driver.Value, error) {
	return json.Marshal(items)
}

// Scan implements sql.Scanner
func (items *InvoiceLineItems) Scan(value any) error {
	if value == nil {
		*items = InvoiceLineItems{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into InvoiceLineItems", value)
	}
	return json.Unmarshal(data, items)
}

// InvoiceModel is the persistence model for Invoice
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string           `gorm:"type:varchar(50);not null;index"`
	ClientID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	ClientName    string           `gorm:"type:varchar(255);not null"`
	Currency      string           `gorm:"type:varchar(3);not null"`
	Items         InvoiceLineItems `gorm:"type:jsonb;default:'[]'"`
	Subtotal      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	DiscountTotal decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	TaxTotal      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	TotalAmount   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	BalanceAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null;index"`
	Status        string           `gorm:"type:varchar(20);not null;index"`
	IssueDate     time.Time        `gorm:"not null"`
	DueDate       *time.Time       `gorm:"index"`
	PaidAt        *time.Time
	Notes         string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceModelFromDomain converts a domain Invoice to its persistence model
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	items := make(InvoiceLineItems, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceLineItemRecord{
			ID:              item.ID,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice.Amount(),
			DiscountPercent: item.DiscountPercent,
			TaxRate:         item.TaxRate,
			Subtotal:        item.Subtotal.Amount(),
			DiscountAmount:  item.DiscountAmount.Amount(),
			TaxAmount:       item.TaxAmount.Amount(),
			Total:           item.Total.Amount(),
		}
	}

	m := &InvoiceModel{
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		ClientName:    inv.ClientName,
		Currency:      string(inv.Currency),
		Items:         items,
		Subtotal:      inv.Subtotal.Amount(),
		DiscountTotal: inv.DiscountTotal.Amount(),
		TaxTotal:      inv.TaxTotal.Amount(),
		TotalAmount:   inv.TotalAmount.Amount(),
		PaidAmount:    inv.PaidAmount.Amount(),
		BalanceAmount: inv.BalanceAmount.Amount(),
		Status:        string(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		PaidAt:        inv.PaidAt,
		Notes:         inv.Notes,
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	return m
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	currency := valueobject.Currency(m.Currency)
	items := make([]billing.InvoiceLineItem, len(m.Items))
	for i, rec := range m.Items {
		items[i] = billing.InvoiceLineItem{
			ID:              rec.ID,
			Description:     rec.Description,
			Quantity:        rec.Quantity,
			UnitPrice:       money(rec.UnitPrice, m.Currency),
			DiscountPercent: rec.DiscountPercent,
			TaxRate:         rec.TaxRate,
			Subtotal:        money(rec.Subtotal, m.Currency),
			DiscountAmount:  money(rec.DiscountAmount, m.Currency),
			TaxAmount:       money(rec.TaxAmount, m.Currency),
			Total:           money(rec.Total, m.Currency),
		}
	}

	inv := &billing.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		ClientID:      m.ClientID,
		ClientName:    m.ClientName,
		Currency:      currency,
		Items:         items,
		Subtotal:      money(m.Subtotal, m.Currency),
		DiscountTotal: money(m.DiscountTotal, m.Currency),
		TaxTotal:      money(m.TaxTotal, m.Currency),
		TotalAmount:   money(m.TotalAmount, m.Currency),
		PaidAmount:    money(m.PaidAmount, m.Currency),
		BalanceAmount: money(m.BalanceAmount, m.Currency),
		Status:        billing.InvoiceStatus(m.Status),
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		PaidAt:        m.PaidAt,
		Notes:         m.Notes,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// PaymentModel is the persistence model for Payment
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber     string          `gorm:"type:varchar(50);not null;index"`
	ClientID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientName        string          `gorm:"type:varchar(255);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AllocatedAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnallocatedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;index"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	Method            string          `gorm:"type:varchar(20);not null"`
	GatewayReference  string          `gorm:"type:varchar(255)"`
	Status            string          `gorm:"type:varchar(20);not null;index"`
	PaymentDate       time.Time       `gorm:"not null;index"`
	Notes             string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentModelFromDomain converts a domain Payment to its persistence model
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		PaymentNumber:     p.PaymentNumber,
		ClientID:          p.ClientID,
		ClientName:        p.ClientName,
		Amount:            p.Amount.Amount(),
		AllocatedAmount:   p.AllocatedAmount.Amount(),
		UnallocatedAmount: p.UnallocatedAmount.Amount(),
		Currency:          string(p.Currency),
		Method:            string(p.Method),
		GatewayReference:  p.GatewayReference,
		Status:            string(p.Status),
		PaymentDate:       p.PaymentDate,
		Notes:             p.Notes,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		PaymentNumber:     m.PaymentNumber,
		ClientID:          m.ClientID,
		ClientName:        m.ClientName,
		Amount:            money(m.Amount, m.Currency),
		AllocatedAmount:   money(m.AllocatedAmount, m.Currency),
		UnallocatedAmount: money(m.UnallocatedAmount, m.Currency),
		Currency:          valueobject.Currency(m.Currency),
		Method:            billing.PaymentMethod(m.Method),
		GatewayReference:  m.GatewayReference,
		Status:            billing.PaymentStatus(m.Status),
		PaymentDate:       m.PaymentDate,
		Notes:             m.Notes,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// PaymentApplicationModel is the persistence model for PaymentApplication
type PaymentApplicationModel struct {
	BaseModel
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency   string          `gorm:"type:varchar(3);not null"`
	AppliedAt  time.Time       `gorm:"not null"`
	IsActive   bool            `gorm:"not null;default:true;index"`
	VoidedAt   *time.Time
	VoidReason string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (PaymentApplicationModel) TableName() string {
	return "payment_applications"
}

// PaymentApplicationModelFromDomain converts a domain PaymentApplication to its persistence model
func PaymentApplicationModelFromDomain(a *billing.PaymentApplication) *PaymentApplicationModel {
	m := &PaymentApplicationModel{
		TenantID:   a.TenantID,
		PaymentID:  a.PaymentID,
		InvoiceID:  a.InvoiceID,
		Amount:     a.Amount.Amount(),
		Currency:   string(a.Amount.Currency()),
		AppliedAt:  a.AppliedAt,
		IsActive:   a.IsActive,
		VoidedAt:   a.VoidedAt,
		VoidReason: a.VoidReason,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// ToDomain converts the persistence model to a domain PaymentApplication
func (m *PaymentApplicationModel) ToDomain() *billing.PaymentApplication {
	return &billing.PaymentApplication{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		PaymentID:  m.PaymentID,
		InvoiceID:  m.InvoiceID,
		Amount:     money(m.Amount, m.Currency),
		AppliedAt:  m.AppliedAt,
		IsActive:   m.IsActive,
		VoidedAt:   m.VoidedAt,
		VoidReason: m.VoidReason,
	}
}

// ClientCreditModel is the persistence model for ClientCredit
type ClientCreditModel struct {
	TenantAggregateModel
	ClientID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginPaymentID *uuid.UUID      `gorm:"type:uuid;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AvailableAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;index"`
	Currency        string          `gorm:"type:varchar(3);not null"`
	Status          string          `gorm:"type:varchar(20);not null;index"`
	Reason          string          `gorm:"type:varchar(255)"`
	ExpiresAt       *time.Time
	VoidedAt        *time.Time
	VoidReason      string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (ClientCreditModel) TableName() string {
	return "client_credits"
}

// ClientCreditModelFromDomain converts a domain ClientCredit to its persistence model
func ClientCreditModelFromDomain(c *billing.ClientCredit) *ClientCreditModel {
	m := &ClientCreditModel{
		ClientID:        c.ClientID,
		OriginPaymentID: c.OriginPaymentID,
		Amount:          c.Amount.Amount(),
		AvailableAmount: c.AvailableAmount.Amount(),
		Currency:        string(c.Currency),
		Status:          string(c.Status),
		Reason:          c.Reason,
		ExpiresAt:       c.ExpiresAt,
		VoidedAt:        c.VoidedAt,
		VoidReason:      c.VoidReason,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// ToDomain converts the persistence model to a domain ClientCredit
func (m *ClientCreditModel) ToDomain() *billing.ClientCredit {
	c := &billing.ClientCredit{
		ClientID:        m.ClientID,
		OriginPaymentID: m.OriginPaymentID,
		Amount:          money(m.Amount, m.Currency),
		AvailableAmount: money(m.AvailableAmount, m.Currency),
		Currency:        valueobject.Currency(m.Currency),
		Status:          billing.CreditStatus(m.Status),
		Reason:          m.Reason,
		ExpiresAt:       m.ExpiresAt,
		VoidedAt:        m.VoidedAt,
		VoidReason:      m.VoidReason,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}
