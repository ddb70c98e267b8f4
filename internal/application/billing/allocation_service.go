package billing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// InvoiceAllocation is one target of a bulk allocation request
type InvoiceAllocation struct {
	InvoiceID uuid.UUID
	Amount    valueobject.Money
}

// AllocationService orchestrates payment-to-invoice allocation. Every write
// path runs inside a single transaction with optimistic version checks on
// the touched aggregates, so a failure never leaves partial state behind.
type AllocationService struct {
	invoices     billing.InvoiceRepository
	payments     billing.PaymentRepository
	applications billing.PaymentApplicationRepository
	credits      billing.ClientCreditRepository
	ledger       *billing.AllocationLedger
	issuer       *billing.CreditIssuer
	uow          shared.UnitOfWork
	logger       *zap.Logger
}

// NewAllocationService creates an AllocationService
func NewAllocationService(
	invoices billing.InvoiceRepository,
	payments billing.PaymentRepository,
	applications billing.PaymentApplicationRepository,
	credits billing.ClientCreditRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *AllocationService {
	return &AllocationService{
		invoices:     invoices,
		payments:     payments,
		applications: applications,
		credits:      credits,
		ledger:       billing.NewAllocationLedger(),
		issuer:       billing.NewCreditIssuer(),
		uow:          uow,
		logger:       logger,
	}
}

// ApplyPayment allocates amount from a payment to a single invoice
func (s *AllocationService) ApplyPayment(ctx context.Context, tenantID, paymentID, invoiceID uuid.UUID, amount valueobject.Money) (*billing.PaymentApplication, error) {
	var app *billing.PaymentApplication
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		invoice, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}

		app, err = s.ledger.Apply(payment, invoice, amount)
		if err != nil {
			return err
		}

		if err := s.applications.Save(ctx, app); err != nil {
			return err
		}
		if err := s.payments.SaveWithLock(ctx, payment); err != nil {
			return err
		}
		return s.invoices.SaveWithLock(ctx, invoice)
	})
	if err != nil {
		s.logFailure("apply payment", err,
			zap.String("payment_id", paymentID.String()),
			zap.String("invoice_id", invoiceID.String()))
		return nil, err
	}

	s.logger.Info("payment allocated",
		zap.String("payment_id", paymentID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", amount.StringFixed()))
	return app, nil
}

// BulkAllocate applies one payment to several invoices atomically. The
// allocations are applied in caller order; if any step fails, no rows are
// persisted at all.
func (s *AllocationService) BulkAllocate(ctx context.Context, tenantID, paymentID uuid.UUID, allocations []InvoiceAllocation) ([]*billing.PaymentApplication, error) {
	if len(allocations) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one allocation is required")
	}

	var apps []*billing.PaymentApplication
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}

		apps = make([]*billing.PaymentApplication, 0, len(allocations))
		for _, alloc := range allocations {
			invoice, err := s.invoices.FindByID(ctx, tenantID, alloc.InvoiceID)
			if err != nil {
				return err
			}
			app, err := s.ledger.Apply(payment, invoice, alloc.Amount)
			if err != nil {
				return err
			}
			if err := s.applications.Save(ctx, app); err != nil {
				return err
			}
			if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
				return err
			}
			apps = append(apps, app)
		}
		return s.payments.SaveWithLock(ctx, payment)
	})
	if err != nil {
		s.logFailure("bulk allocate", err, zap.String("payment_id", paymentID.String()))
		return nil, err
	}

	s.logger.Info("bulk allocation applied",
		zap.String("payment_id", paymentID.String()),
		zap.Int("invoice_count", len(apps)))
	return apps, nil
}

// AutoAllocate distributes a payment's unallocated amount across the
// client's outstanding invoices using the given strategy
func (s *AllocationService) AutoAllocate(ctx context.Context, tenantID, paymentID uuid.UUID, strategy billing.DistributionStrategy) ([]*billing.PaymentApplication, error) {
	var apps []*billing.PaymentApplication
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		outstanding, err := s.invoices.FindOutstandingByClient(ctx, tenantID, payment.ClientID)
		if err != nil {
			return err
		}

		plan, err := s.ledger.PlanDistribution(payment, outstanding, strategy)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*billing.Invoice, len(outstanding))
		for _, inv := range outstanding {
			byID[inv.ID] = inv
		}

		apps = make([]*billing.PaymentApplication, 0, len(plan))
		for _, planned := range plan {
			invoice := byID[planned.InvoiceID]
			app, err := s.ledger.Apply(payment, invoice, planned.Amount)
			if err != nil {
				return err
			}
			if err := s.applications.Save(ctx, app); err != nil {
				return err
			}
			if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
				return err
			}
			apps = append(apps, app)
		}
		if len(apps) == 0 {
			return nil
		}
		return s.payments.SaveWithLock(ctx, payment)
	})
	if err != nil {
		s.logFailure("auto allocate", err, zap.String("payment_id", paymentID.String()))
		return nil, err
	}
	return apps, nil
}

// VoidAllocation reverses an active application. The row stays on the
// ledger, inactive, and both aggregates get their amounts back.
func (s *AllocationService) VoidAllocation(ctx context.Context, tenantID, applicationID uuid.UUID, reason string) error {
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		app, err := s.applications.FindByID(ctx, tenantID, applicationID)
		if err != nil {
			return err
		}
		payment, err := s.payments.FindByID(ctx, tenantID, app.PaymentID)
		if err != nil {
			return err
		}
		invoice, err := s.invoices.FindByID(ctx, tenantID, app.InvoiceID)
		if err != nil {
			return err
		}

		if err := s.ledger.Void(app, payment, invoice, reason); err != nil {
			return err
		}

		if err := s.applications.Update(ctx, app); err != nil {
			return err
		}
		if err := s.payments.SaveWithLock(ctx, payment); err != nil {
			return err
		}
		return s.invoices.SaveWithLock(ctx, invoice)
	})
	if err != nil {
		s.logFailure("void allocation", err, zap.String("application_id", applicationID.String()))
		return err
	}

	s.logger.Info("allocation voided",
		zap.String("application_id", applicationID.String()),
		zap.String("reason", reason))
	return nil
}

// IssueOverpaymentCredit converts a payment's unallocated remainder into a
// client credit
func (s *AllocationService) IssueOverpaymentCredit(ctx context.Context, tenantID, paymentID uuid.UUID) (*billing.ClientCredit, error) {
	var credit *billing.ClientCredit
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}

		credit, err = s.issuer.IssueFromOverpayment(payment, payment.UnallocatedAmount)
		if err != nil {
			return err
		}

		if err := s.credits.Save(ctx, credit); err != nil {
			return err
		}
		return s.payments.SaveWithLock(ctx, payment)
	})
	if err != nil {
		s.logFailure("issue overpayment credit", err, zap.String("payment_id", paymentID.String()))
		return nil, err
	}

	s.logger.Info("overpayment credit issued",
		zap.String("payment_id", paymentID.String()),
		zap.String("credit_id", credit.ID.String()),
		zap.String("amount", credit.Amount.StringFixed()))
	return credit, nil
}

// ConsumeCredit draws down a client credit
func (s *AllocationService) ConsumeCredit(ctx context.Context, tenantID, creditID uuid.UUID, amount valueobject.Money) error {
	return s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		credit, err := s.credits.FindByID(ctx, tenantID, creditID)
		if err != nil {
			return err
		}
		if err := credit.Consume(amount); err != nil {
			return err
		}
		return s.credits.SaveWithLock(ctx, credit)
	})
}

// VoidCredit cancels a credit, zeroing whatever remains
func (s *AllocationService) VoidCredit(ctx context.Context, tenantID, creditID uuid.UUID, reason string) error {
	return s.uow.WithinTransaction(ctx, func(ctx context.Context) error {
		credit, err := s.credits.FindByID(ctx, tenantID, creditID)
		if err != nil {
			return err
		}
		if err := credit.Void(reason); err != nil {
			return err
		}
		return s.credits.SaveWithLock(ctx, credit)
	})
}

// logFailure records a failed operation. Integrity violations mean the
// books already disagree somewhere, so they are logged at error level.
func (s *AllocationService) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if shared.IsIntegrity(err) {
		s.logger.Error(op+" hit an integrity violation", fields...)
		return
	}
	s.logger.Warn(op+" failed", fields...)
}
