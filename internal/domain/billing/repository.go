package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
)

// InvoiceFilter narrows invoice queries
type InvoiceFilter struct {
	shared.Filter
	ClientID *uuid.UUID
	Status   *InvoiceStatus
	Overdue  bool
}

// PaymentFilter narrows payment queries
type PaymentFilter struct {
	shared.Filter
	ClientID    *uuid.UUID
	Status      *PaymentStatus
	Unallocated bool
}

// CreditFilter narrows client credit queries
type CreditFilter struct {
	shared.Filter
	ClientID *uuid.UUID
	Status   *CreditStatus
}

// InvoiceRepository persists Invoice aggregates. All lookups are
// tenant-scoped; an ID from another tenant behaves as not found.
type InvoiceRepository interface {
	// FindByID retrieves an invoice by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByNumber retrieves an invoice by its number within the tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Invoice, error)
	// FindOutstandingByClient returns invoices with a positive balance,
	// ordered by due date then creation date
	FindOutstandingByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*Invoice, error)
	// List returns invoices matching the filter
	List(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (shared.Paginated[*Invoice], error)
	// Save persists a new invoice
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists an existing invoice with an optimistic version
	// check, returning a conflict error when the row changed underneath
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	// NextNumber generates the next invoice number for the tenant
	NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
	// ListTenantsWithOverdue returns the tenants that have SENT or PARTIAL
	// invoices past due as of the given time. Used by the background sweep.
	ListTenantsWithOverdue(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
}

// PaymentRepository persists Payment aggregates
type PaymentRepository interface {
	// FindByID retrieves a payment by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	// FindCompletedBetween returns completed payments whose payment date
	// falls in the inclusive range
	FindCompletedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*Payment, error)
	// List returns payments matching the filter
	List(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (shared.Paginated[*Payment], error)
	// Save persists a new payment
	Save(ctx context.Context, payment *Payment) error
	// SaveWithLock persists an existing payment with an optimistic version
	// check
	SaveWithLock(ctx context.Context, payment *Payment) error
	// Delete removes a payment record; callers must check IsDeletable first
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// NextNumber generates the next payment number for the tenant
	NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PaymentApplicationRepository persists the allocation ledger rows
type PaymentApplicationRepository interface {
	// FindByID retrieves an application by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentApplication, error)
	// FindActiveByPayment returns all active applications funded by the
	// payment
	FindActiveByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]*PaymentApplication, error)
	// FindActiveByInvoice returns all active applications against the
	// invoice
	FindActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]*PaymentApplication, error)
	// CountActiveByInvoice returns the number of active applications
	// against the invoice
	CountActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error)
	// Save persists a new application
	Save(ctx context.Context, app *PaymentApplication) error
	// Update persists changes to an existing application
	Update(ctx context.Context, app *PaymentApplication) error
}

// ClientCreditRepository persists ClientCredit aggregates
type ClientCreditRepository interface {
	// FindByID retrieves a credit by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ClientCredit, error)
	// FindUsableByClient returns active credits with available balance,
	// oldest first
	FindUsableByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*ClientCredit, error)
	// List returns credits matching the filter
	List(ctx context.Context, tenantID uuid.UUID, filter CreditFilter) (shared.Paginated[*ClientCredit], error)
	// Save persists a new credit
	Save(ctx context.Context, credit *ClientCredit) error
	// SaveWithLock persists an existing credit with an optimistic version
	// check
	SaveWithLock(ctx context.Context, credit *ClientCredit) error
}
