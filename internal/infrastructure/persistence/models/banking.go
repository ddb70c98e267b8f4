package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/banking"
)

// BankTransactionModel is the persistence model for BankTransaction
type BankTransactionModel struct {
	TenantAggregateModel
	AccountID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExternalID          string          `gorm:"type:varchar(255);not null;index"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency            string          `gorm:"type:varchar(3);not null"`
	TransactionDate     time.Time       `gorm:"not null;index"`
	Name                string          `gorm:"type:varchar(255)"`
	MerchantName        string          `gorm:"type:varchar(255)"`
	Reference           string          `gorm:"type:varchar(255)"`
	IsReconciled        bool            `gorm:"not null;default:false;index"`
	IsIgnored           bool            `gorm:"not null;default:false;index"`
	ReconciledPaymentID *uuid.UUID      `gorm:"type:uuid;index"`
	ReconciledExpenseID *uuid.UUID      `gorm:"type:uuid;index"`
	ReconciledAt        *time.Time
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// BankTransactionModelFromDomain converts a domain BankTransaction to its persistence model
func BankTransactionModelFromDomain(t *banking.BankTransaction) *BankTransactionModel {
	m := &BankTransactionModel{
		AccountID:           t.AccountID,
		ExternalID:          t.ExternalID,
		Amount:              t.Amount.Amount(),
		Currency:            string(t.Amount.Currency()),
		TransactionDate:     t.TransactionDate,
		Name:                t.Name,
		MerchantName:        t.MerchantName,
		Reference:           t.Reference,
		IsReconciled:        t.IsReconciled,
		IsIgnored:           t.IsIgnored,
		ReconciledPaymentID: t.ReconciledPaymentID,
		ReconciledExpenseID: t.ReconciledExpenseID,
		ReconciledAt:        t.ReconciledAt,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}

// ToDomain converts the persistence model to a domain BankTransaction
func (m *BankTransactionModel) ToDomain() *banking.BankTransaction {
	t := &banking.BankTransaction{
		AccountID:           m.AccountID,
		ExternalID:          m.ExternalID,
		Amount:              money(m.Amount, m.Currency),
		TransactionDate:     m.TransactionDate,
		Name:                m.Name,
		MerchantName:        m.MerchantName,
		Reference:           m.Reference,
		IsReconciled:        m.IsReconciled,
		IsIgnored:           m.IsIgnored,
		ReconciledPaymentID: m.ReconciledPaymentID,
		ReconciledExpenseID: m.ReconciledExpenseID,
		ReconciledAt:        m.ReconciledAt,
	}
	m.PopulateTenantAggregateRoot(&t.TenantAggregateRoot)
	return t
}

// ExpenseModel is the persistence model for Expense
type ExpenseModel struct {
	TenantAggregateModel
	VendorName   string          `gorm:"type:varchar(255);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	ExpenseDate  time.Time       `gorm:"not null;index"`
	Category     string          `gorm:"type:varchar(100);index"`
	Reference    string          `gorm:"type:varchar(255)"`
	Description  string          `gorm:"type:text"`
	IsReconciled bool            `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ExpenseModelFromDomain converts a domain Expense to its persistence model
func ExpenseModelFromDomain(e *banking.Expense) *ExpenseModel {
	m := &ExpenseModel{
		VendorName:   e.VendorName,
		Amount:       e.Amount.Amount(),
		Currency:     string(e.Amount.Currency()),
		ExpenseDate:  e.ExpenseDate,
		Category:     e.Category,
		Reference:    e.Reference,
		Description:  e.Description,
		IsReconciled: e.IsReconciled,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *banking.Expense {
	e := &banking.Expense{
		VendorName:   m.VendorName,
		Amount:       money(m.Amount, m.Currency),
		ExpenseDate:  m.ExpenseDate,
		Category:     m.Category,
		Reference:    m.Reference,
		Description:  m.Description,
		IsReconciled: m.IsReconciled,
	}
	m.PopulateTenantAggregateRoot(&e.TenantAggregateRoot)
	return e
}
