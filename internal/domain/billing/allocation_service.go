package billing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared/valueobject"
)

// DistributionStrategy selects how a payment is spread across invoices
type DistributionStrategy string

const (
	// StrategyOldestFirst pays invoices in due-date order, oldest first
	StrategyOldestFirst DistributionStrategy = "OLDEST_FIRST"
	// StrategyEven splits the payment evenly across outstanding invoices
	StrategyEven DistributionStrategy = "EVEN"
)

// PlannedAllocation is one step of a distribution plan
type PlannedAllocation struct {
	InvoiceID uuid.UUID
	Amount    valueobject.Money
}

// AllocationLedger is the domain service that validates and performs
// payment-to-invoice allocations. It mutates both aggregates together so
// their recorded amounts stay in agreement; persistence of the pair is the
// application layer's job.
type AllocationLedger struct{}

// NewAllocationLedger creates an AllocationLedger
func NewAllocationLedger() *AllocationLedger {
	return &AllocationLedger{}
}

// Apply allocates amount from payment to invoice and returns the resulting
// application record. Validation happens before any mutation, so a failed
// call leaves both aggregates untouched.
func (l *AllocationLedger) Apply(payment *Payment, invoice *Invoice, amount valueobject.Money) (*PaymentApplication, error) {
	if payment.TenantID != invoice.TenantID {
		return nil, shared.ErrNotFound
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !payment.CanAllocate() {
		return nil, ErrPaymentNotAllocable
	}
	if !invoice.CanAcceptAllocation() {
		return nil, ErrInvoiceNotPayable
	}
	if overPayment, err := amount.GreaterThan(payment.UnallocatedAmount); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Allocation currency must match payment currency")
	} else if overPayment {
		return nil, ErrExceedsPayment
	}
	if overBalance, err := amount.GreaterThan(invoice.BalanceAmount); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Allocation currency must match invoice currency")
	} else if overBalance {
		return nil, ErrExceedsBalance
	}

	if err := payment.RecordAllocation(amount); err != nil {
		return nil, err
	}
	if err := invoice.ApplyAllocation(amount); err != nil {
		return nil, err
	}

	app := NewPaymentApplication(payment.TenantID, payment.ID, invoice.ID, amount)
	payment.AddDomainEvent(NewPaymentAllocatedEvent(payment, invoice.ID, amount.StringFixed()))
	return app, nil
}

// Void reverses an active application, restoring the payment's unallocated
// amount and the invoice's balance. The application row is kept, inactive.
func (l *AllocationLedger) Void(app *PaymentApplication, payment *Payment, invoice *Invoice, reason string) error {
	if app.PaymentID != payment.ID || app.InvoiceID != invoice.ID {
		return shared.NewIntegrityError("INCONSISTENT_STATE", "Application does not reference the given payment and invoice")
	}
	if !app.BelongsToTenant(payment.TenantID) {
		return shared.ErrNotFound
	}
	if err := app.Void(reason); err != nil {
		return err
	}
	if err := payment.ReleaseAllocation(app.Amount); err != nil {
		return err
	}
	if err := invoice.ReleaseAllocation(app.Amount); err != nil {
		return err
	}
	payment.AddDomainEvent(NewAllocationVoidedEvent(payment, app, reason))
	return nil
}

// PlanDistribution computes how a payment's unallocated amount should be
// spread across the given invoices without mutating anything. Invoices that
// cannot accept allocations are skipped. The plan never overcommits the
// payment or any invoice.
func (l *AllocationLedger) PlanDistribution(payment *Payment, invoices []*Invoice, strategy DistributionStrategy) ([]PlannedAllocation, error) {
	if !payment.CanAllocate() {
		return nil, ErrPaymentNotAllocable
	}

	open := make([]*Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.TenantID != payment.TenantID {
			return nil, shared.ErrNotFound
		}
		if inv.CanAcceptAllocation() && inv.BalanceAmount.IsPositive() {
			open = append(open, inv)
		}
	}
	if len(open) == 0 {
		return []PlannedAllocation{}, nil
	}

	switch strategy {
	case StrategyOldestFirst:
		return planOldestFirst(payment.UnallocatedAmount, open), nil
	case StrategyEven:
		return planEven(payment.UnallocatedAmount, open), nil
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown distribution strategy")
	}
}

// planOldestFirst sorts by due date (invoices without one go last), then by
// creation date, and greedily pays each invoice in full until the payment
// runs out.
func planOldestFirst(available valueobject.Money, invoices []*Invoice) []PlannedAllocation {
	sorted := make([]*Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(a, b int) bool {
		da, db := sorted[a].DueDate, sorted[b].DueDate
		switch {
		case da == nil && db == nil:
			return sorted[a].CreatedAt.Before(sorted[b].CreatedAt)
		case da == nil:
			return false
		case db == nil:
			return true
		case da.Equal(*db):
			return sorted[a].CreatedAt.Before(sorted[b].CreatedAt)
		default:
			return da.Before(*db)
		}
	})

	plan := make([]PlannedAllocation, 0, len(sorted))
	remaining := available
	for _, inv := range sorted {
		if !remaining.IsPositive() {
			break
		}
		chunk := moneyOf(decimal.Min(remaining.Amount(), inv.BalanceAmount.Amount()), remaining.Currency())
		plan = append(plan, PlannedAllocation{InvoiceID: inv.ID, Amount: chunk})
		remaining = remaining.MustSubtract(chunk)
	}
	return plan
}

// planEven splits the available amount evenly across the invoices, capping
// each share at the invoice balance. Whatever the caps and rounding leave
// over is swept oldest-first.
func planEven(available valueobject.Money, invoices []*Invoice) []PlannedAllocation {
	currency := available.Currency()
	shares := make(map[uuid.UUID]valueobject.Money, len(invoices))
	remaining := available

	n := decimal.NewFromInt(int64(len(invoices)))
	base := available.Amount().Div(n).RoundDown(currency.MinorUnits())
	for _, inv := range invoices {
		chunk := decimal.Min(base, inv.BalanceAmount.Amount())
		if !chunk.IsPositive() {
			continue
		}
		m := moneyOf(chunk, currency)
		shares[inv.ID] = m
		remaining = remaining.MustSubtract(m)
	}

	// Capped or rounded-off remainder goes to the oldest invoices that still
	// have room.
	if remaining.IsPositive() {
		leftovers := make([]*Invoice, 0, len(invoices))
		for _, inv := range invoices {
			room := inv.BalanceAmount.MustSubtract(valueOr(shares[inv.ID], currency))
			if room.IsPositive() {
				leftovers = append(leftovers, inv)
			}
		}
		for _, planned := range planOldestFirst(remaining, leftovers) {
			extra := planned.Amount
			inv := findInvoice(invoices, planned.InvoiceID)
			room := inv.BalanceAmount.MustSubtract(valueOr(shares[inv.ID], currency))
			if over, _ := extra.GreaterThan(room); over {
				extra = room
			}
			if !extra.IsPositive() {
				continue
			}
			shares[inv.ID] = valueOr(shares[inv.ID], currency).MustAdd(extra)
		}
	}

	plan := make([]PlannedAllocation, 0, len(shares))
	for _, inv := range invoices {
		if share, ok := shares[inv.ID]; ok && share.IsPositive() {
			plan = append(plan, PlannedAllocation{InvoiceID: inv.ID, Amount: share})
		}
	}
	return plan
}

func moneyOf(amount decimal.Decimal, currency valueobject.Currency) valueobject.Money {
	m, err := valueobject.NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func valueOr(m valueobject.Money, currency valueobject.Currency) valueobject.Money {
	if m.Currency() == "" {
		return valueobject.Zero(currency)
	}
	return m
}

func findInvoice(invoices []*Invoice, id uuid.UUID) *Invoice {
	for _, inv := range invoices {
		if inv.ID == id {
			return inv
		}
	}
	return nil
}
