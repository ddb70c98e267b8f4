package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/banking"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/infrastructure/persistence/models"
)

// GormExpenseRepository implements banking.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by ID for a tenant
func (r *GormExpenseRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*banking.Expense, error) {
	var model models.ExpenseModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnreconciled finds expenses not yet matched to a transaction
func (r *GormExpenseRepository) FindUnreconciled(ctx context.Context, tenantID uuid.UUID) ([]*banking.Expense, error) {
	var expenseModels []models.ExpenseModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND is_reconciled = ?", tenantID, false).
		Order("expense_date ASC, created_at ASC").
		Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	return toDomainExpenses(expenseModels), nil
}

// List returns expenses matching the filter with pagination
func (r *GormExpenseRepository) List(ctx context.Context, tenantID uuid.UUID, filter banking.ExpenseFilter) (shared.Paginated[*banking.Expense], error) {
	db := dbFromContext(ctx, r.db)
	filtered := func() *gorm.DB {
		query := db.WithContext(ctx).Model(&models.ExpenseModel{}).
			Where("tenant_id = ?", tenantID)
		if filter.Search != "" {
			searchPattern := "%" + filter.Search + "%"
			query = query.Where("vendor_name ILIKE ? OR reference ILIKE ?", searchPattern, searchPattern)
		}
		if filter.Category != nil {
			query = query.Where("category = ?", *filter.Category)
		}
		if filter.Unreconciled {
			query = query.Where("is_reconciled = ?", false)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return shared.Paginated[*banking.Expense]{}, err
	}

	page, pageSize := normalizePage(filter.Filter)
	filter.Page, filter.PageSize = page, pageSize

	var expenseModels []models.ExpenseModel
	if err := applyPageAndOrder(filtered(), filter.Filter).Find(&expenseModels).Error; err != nil {
		return shared.Paginated[*banking.Expense]{}, err
	}

	return shared.NewPaginated(toDomainExpenses(expenseModels), total, page, pageSize), nil
}

// Save creates a new expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *banking.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	expense.MarkPersisted()
	return nil
}

// SaveWithLock saves with optimistic locking against the hydrated version
func (r *GormExpenseRepository) SaveWithLock(ctx context.Context, expense *banking.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", expense.ID, expense.PersistedVersion()).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	expense.MarkPersisted()
	return nil
}

func toDomainExpenses(expenseModels []models.ExpenseModel) []*banking.Expense {
	expenses := make([]*banking.Expense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = expenseModels[i].ToDomain()
	}
	return expenses
}

// Ensure GormExpenseRepository implements ExpenseRepository
var _ banking.ExpenseRepository = (*GormExpenseRepository)(nil)
