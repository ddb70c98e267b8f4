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

// GormBankTransactionRepository implements banking.BankTransactionRepository using GORM
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// FindByID finds a transaction by ID for a tenant
func (r *GormBankTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*banking.BankTransaction, error) {
	var model models.BankTransactionModel
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

// FindUnreconciledByAccount finds reconcilable transactions for an account,
// oldest first
func (r *GormBankTransactionRepository) FindUnreconciledByAccount(ctx context.Context, tenantID, accountID uuid.UUID) ([]*banking.BankTransaction, error) {
	var txnModels []models.BankTransactionModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND account_id = ? AND is_reconciled = ? AND is_ignored = ?",
			tenantID, accountID, false, false).
		Order("transaction_date ASC, created_at ASC").
		Find(&txnModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txnModels), nil
}

// FindReconciledPaymentIDs returns IDs of payments already linked to a
// transaction
func (r *GormBankTransactionRepository) FindReconciledPaymentIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.BankTransactionModel{}).
		Where("tenant_id = ? AND reconciled_payment_id IS NOT NULL", tenantID).
		Pluck("reconciled_payment_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// List returns transactions matching the filter with pagination
func (r *GormBankTransactionRepository) List(ctx context.Context, tenantID uuid.UUID, filter banking.TransactionFilter) (shared.Paginated[*banking.BankTransaction], error) {
	db := dbFromContext(ctx, r.db)
	filtered := func() *gorm.DB {
		query := db.WithContext(ctx).Model(&models.BankTransactionModel{}).
			Where("tenant_id = ?", tenantID)
		if filter.Search != "" {
			searchPattern := "%" + filter.Search + "%"
			query = query.Where("name ILIKE ? OR merchant_name ILIKE ? OR reference ILIKE ?",
				searchPattern, searchPattern, searchPattern)
		}
		if filter.AccountID != nil {
			query = query.Where("account_id = ?", *filter.AccountID)
		}
		if filter.Unreconciled {
			query = query.Where("is_reconciled = ?", false)
		}
		if filter.Ignored != nil {
			query = query.Where("is_ignored = ?", *filter.Ignored)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return shared.Paginated[*banking.BankTransaction]{}, err
	}

	page, pageSize := normalizePage(filter.Filter)
	filter.Page, filter.PageSize = page, pageSize

	var txnModels []models.BankTransactionModel
	if err := applyPageAndOrder(filtered(), filter.Filter).Find(&txnModels).Error; err != nil {
		return shared.Paginated[*banking.BankTransaction]{}, err
	}

	return shared.NewPaginated(toDomainTransactions(txnModels), total, page, pageSize), nil
}

// Save creates a new transaction
func (r *GormBankTransactionRepository) Save(ctx context.Context, txn *banking.BankTransaction) error {
	model := models.BankTransactionModelFromDomain(txn)
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	txn.MarkPersisted()
	return nil
}

// SaveWithLock saves with optimistic locking against the hydrated version
func (r *GormBankTransactionRepository) SaveWithLock(ctx context.Context, txn *banking.BankTransaction) error {
	model := models.BankTransactionModelFromDomain(txn)
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", txn.ID, txn.PersistedVersion()).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	txn.MarkPersisted()
	return nil
}

func toDomainTransactions(txnModels []models.BankTransactionModel) []*banking.BankTransaction {
	txns := make([]*banking.BankTransaction, len(txnModels))
	for i := range txnModels {
		txns[i] = txnModels[i].ToDomain()
	}
	return txns
}

// Ensure GormBankTransactionRepository implements BankTransactionRepository
var _ banking.BankTransactionRepository = (*GormBankTransactionRepository)(nil)
