package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// LineItemInput describes one invoice line in a create request
type LineItemInput struct {
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       valueobject.Money
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
}

// CreateInvoiceInput carries everything needed to create an invoice
type CreateInvoiceInput struct {
	ClientID   uuid.UUID
	ClientName string
	Currency   valueobject.Currency
	DueDate    *time.Time
	Items      []LineItemInput
	SendNow    bool
}

// CreatePaymentInput carries everything needed to record a payment
type CreatePaymentInput struct {
	ClientID         uuid.UUID
	ClientName       string
	Amount           valueobject.Money
	Method           billing.PaymentMethod
	PaymentDate      time.Time
	GatewayReference string
	CompleteNow      bool
}

// BillingService handles invoice and payment lifecycle outside of
// allocation: creation, status transitions, queries
type BillingService struct {
	invoices billing.InvoiceRepository
	payments billing.PaymentRepository
	credits  billing.ClientCreditRepository
	uow      shared.UnitOfWork
	logger   *zap.Logger
}

// NewBillingService creates a BillingService
func NewBillingService(
	invoices billing.InvoiceRepository,
	payments billing.PaymentRepository,
	credits billing.ClientCreditRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		invoices: invoices,
		payments: payments,
		credits:  credits,
		uow:      uow,
		logger:   logger,
	}
}

// CreateInvoice creates an invoice with its line items, optionally sending
// it immediately
func (s *BillingService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, input CreateInvoiceInput) (*billing.Invoice, error) {
	var invoice *billing.Invoice
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		number, err := s.invoices.NextNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		invoice, err = billing.NewInvoice(tenantID, number, input.ClientID, input.ClientName, input.Currency, input.DueDate)
		if err != nil {
			return err
		}
		for _, item := range input.Items {
			if err := invoice.AddLineItem(item.Description, item.Quantity, item.UnitPrice, item.DiscountPercent, item.TaxRate); err != nil {
				return err
			}
		}
		if input.SendNow {
			if err := invoice.Send(); err != nil {
				return err
			}
		}
		return s.invoices.Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total", invoice.TotalAmount.StringFixed()))
	return invoice, nil
}

// GetInvoice retrieves an invoice
func (s *BillingService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billing.Invoice, error) {
	return s.invoices.FindByID(ctx, tenantID, invoiceID)
}

// ListInvoices returns invoices matching the filter
func (s *BillingService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) (shared.Paginated[*billing.Invoice], error) {
	return s.invoices.List(ctx, tenantID, filter)
}

// SendInvoice transitions a draft invoice to SENT
func (s *BillingService) SendInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *billing.Invoice) error {
		return inv.Send()
	})
}

// CancelInvoice cancels an invoice without payments
func (s *BillingService) CancelInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, reason string) error {
	return s.mutateInvoice(ctx, tenantID, invoiceID, func(inv *billing.Invoice) error {
		return inv.Cancel(reason)
	})
}

// MarkOverdueInvoices sweeps SENT and PARTIAL invoices past their due date
// and returns how many were flagged
func (s *BillingService) MarkOverdueInvoices(ctx context.Context, tenantID uuid.UUID) (int, error) {
	flagged := 0
	now := time.Now()

	for _, st := range []billing.InvoiceStatus{billing.InvoiceStatusSent, billing.InvoiceStatusPartial} {
		status := st
		page, err := s.invoices.List(ctx, tenantID, billing.InvoiceFilter{
			Filter:  shared.Filter{Page: 1, PageSize: 500, OrderBy: "due_date", OrderDir: "asc"},
			Status:  &status,
			Overdue: true,
		})
		if err != nil {
			return flagged, err
		}
		for _, inv := range page.Items {
			err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
				fresh, err := s.invoices.FindByID(ctx, tenantID, inv.ID)
				if err != nil {
					return err
				}
				if err := fresh.MarkOverdue(now); err != nil {
					return err
				}
				return s.invoices.SaveWithLock(ctx, fresh)
			})
			if err != nil {
				s.logger.Warn("overdue sweep skipped invoice",
					zap.String("invoice_id", inv.ID.String()), zap.Error(err))
				continue
			}
			flagged++
		}
	}
	return flagged, nil
}

// SweepOverdueAcrossTenants runs the overdue sweep for every tenant that
// currently holds past-due invoices. Used by the background sweeper.
func (s *BillingService) SweepOverdueAcrossTenants(ctx context.Context) (int, error) {
	tenantIDs, err := s.invoices.ListTenantsWithOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, tenantID := range tenantIDs {
		n, err := s.MarkOverdueInvoices(ctx, tenantID)
		flagged += n
		if err != nil {
			s.logger.Warn("overdue sweep failed for tenant",
				zap.String("tenant_id", tenantID.String()), zap.Error(err))
		}
	}
	return flagged, nil
}

func (s *BillingService) mutateInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, op func(*billing.Invoice) error) error {
	return s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := op(invoice); err != nil {
			return err
		}
		return s.invoices.SaveWithLock(ctx, invoice)
	})
}

// CreatePayment records a payment, optionally completing it immediately
func (s *BillingService) CreatePayment(ctx context.Context, tenantID uuid.UUID, input CreatePaymentInput) (*billing.Payment, error) {
	var payment *billing.Payment
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		number, err := s.payments.NextNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		payment, err = billing.NewPayment(tenantID, number, input.ClientID, input.ClientName, input.Amount, input.Method, input.PaymentDate)
		if err != nil {
			return err
		}
		if input.CompleteNow {
			if err := payment.Complete(input.GatewayReference); err != nil {
				return err
			}
		}
		return s.payments.Save(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("amount", payment.Amount.StringFixed()))
	return payment, nil
}

// GetPayment retrieves a payment
func (s *BillingService) GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*billing.Payment, error) {
	return s.payments.FindByID(ctx, tenantID, paymentID)
}

// ListPayments returns payments matching the filter
func (s *BillingService) ListPayments(ctx context.Context, tenantID uuid.UUID, filter billing.PaymentFilter) (shared.Paginated[*billing.Payment], error) {
	return s.payments.List(ctx, tenantID, filter)
}

// CompletePayment marks a pending payment as settled
func (s *BillingService) CompletePayment(ctx context.Context, tenantID, paymentID uuid.UUID, gatewayReference string) error {
	return s.mutatePayment(ctx, tenantID, paymentID, func(p *billing.Payment) error {
		return p.Complete(gatewayReference)
	})
}

// FailPayment marks a pending payment as failed
func (s *BillingService) FailPayment(ctx context.Context, tenantID, paymentID uuid.UUID, reason string) error {
	return s.mutatePayment(ctx, tenantID, paymentID, func(p *billing.Payment) error {
		return p.Fail(reason)
	})
}

// RefundPayment marks a completed payment as refunded; all allocations must
// already be voided
func (s *BillingService) RefundPayment(ctx context.Context, tenantID, paymentID uuid.UUID, reason string) error {
	return s.mutatePayment(ctx, tenantID, paymentID, func(p *billing.Payment) error {
		return p.Refund(reason)
	})
}

// DeletePayment removes a payment that never settled
func (s *BillingService) DeletePayment(ctx context.Context, tenantID, paymentID uuid.UUID) error {
	return s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if !payment.IsDeletable() {
			return shared.NewDomainError("INVALID_STATE", "Settled payments cannot be deleted")
		}
		return s.payments.Delete(ctx, tenantID, paymentID)
	})
}

func (s *BillingService) mutatePayment(ctx context.Context, tenantID, paymentID uuid.UUID, op func(*billing.Payment) error) error {
	return s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if err := op(payment); err != nil {
			return err
		}
		return s.payments.SaveWithLock(ctx, payment)
	})
}

// GetCredit retrieves a client credit
func (s *BillingService) GetCredit(ctx context.Context, tenantID, creditID uuid.UUID) (*billing.ClientCredit, error) {
	return s.credits.FindByID(ctx, tenantID, creditID)
}

// ListCredits returns credits matching the filter
func (s *BillingService) ListCredits(ctx context.Context, tenantID uuid.UUID, filter billing.CreditFilter) (shared.Paginated[*billing.ClientCredit], error) {
	return s.credits.List(ctx, tenantID, filter)
}
